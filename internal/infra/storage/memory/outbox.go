package memory

import (
	"context"
	"sync"

	appoutbox "lendr/internal/app/outbox"
)

// Outbox buffers event records in memory until flushed. With a publisher
// attached, Flush pushes each record out; without one it just drops them,
// which is enough for demos and tests.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord

	Publisher func(ctx context.Context, record appoutbox.EventRecord) error
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	publisher := o.Publisher
	o.mu.Unlock()

	if publisher == nil {
		return nil
	}
	for _, record := range pending {
		if err := publisher(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns a snapshot of unflushed records, for tests.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, len(o.records))
	copy(out, o.records)
	return out
}

var _ appoutbox.Outbox = (*Outbox)(nil)
