package kafka

import (
	"context"
	"strings"

	"github.com/IBM/sarama"

	appoutbox "lendr/internal/app/outbox"
)

type Producer struct {
	sync sarama.SyncProducer
}

func NewProducer(brokers []string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{sync: sync}, nil
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	var hs []sarama.RecordHeader
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	}
	_, _, err := p.sync.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}

// PublishRecord routes an outbox record to its topic: "reservation.confirmed"
// lands on "<prefix>reservation.events.v1", keyed by aggregate so per-listing
// ordering survives partitioning.
func (p *Producer) PublishRecord(ctx context.Context, topicPrefix string, record appoutbox.EventRecord) error {
	base := record.Name
	if idx := strings.IndexRune(base, '.'); idx > 0 {
		base = base[:idx]
	}
	topic := topicPrefix + base + ".events.v1"
	headers := map[string]string{"content-type": "application/json"}
	for k, v := range record.Headers {
		headers[k] = v
	}
	return p.Publish(ctx, topic, record.Aggregate, record.Payload, headers)
}
