package middleware

import (
	"context"
	"errors"
	"testing"

	"lendr/internal/app/commands"
	"lendr/internal/app/uow"
	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
)

type echoCommand struct {
	Value string
	IdKey string
}

func (echoCommand) Key() string { return "test.echo" }

func (c echoCommand) IdempotencyKey() string { return c.IdKey }

func (echoCommand) ResultPrototype() any { return &echoResult{} }

type echoResult struct {
	Value string `json:"value"`
	Calls int    `json:"calls"`
}

type echoHandler struct {
	calls int
	fail  error
}

func (h *echoHandler) Handle(ctx context.Context, cmd echoCommand) (*echoResult, error) {
	h.calls++
	if h.fail != nil {
		return nil, h.fail
	}
	return &echoResult{Value: cmd.Value, Calls: h.calls}, nil
}

type mapStore struct {
	records map[string]IdempotencyRecord
}

func newMapStore() *mapStore {
	return &mapStore{records: make(map[string]IdempotencyRecord)}
}

func (s *mapStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *mapStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.records[rec.Key] = rec
	return nil
}

func newEchoBus(handler *echoHandler, mws ...CommandMiddleware) commands.Bus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, echoCommand{}.Key(), handler)
	return ChainCommands(bus, mws...)
}

func TestIdempotencyReplaysResult(t *testing.T) {
	handler := &echoHandler{}
	bus := newEchoBus(handler, Idempotency(newMapStore(), nil))

	first, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "a", IdKey: "k1"})
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	second, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "a", IdKey: "k1"})
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if handler.calls != 1 {
		t.Fatalf("handler calls = %d, want 1", handler.calls)
	}
	if second.Calls != first.Calls || second.Value != "a" {
		t.Fatalf("replayed result = %+v, want copy of first", second)
	}
}

func TestIdempotencyReplaysError(t *testing.T) {
	handler := &echoHandler{fail: domainreservation.ErrDatesUnavailable}
	bus := newEchoBus(handler, Idempotency(newMapStore(), nil))

	if _, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{IdKey: "k1"}); err == nil {
		t.Fatal("expected error")
	}
	handler.fail = nil // even with the handler healthy, the failure replays
	if _, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{IdKey: "k1"}); err == nil {
		t.Fatal("expected replayed error")
	}
	if handler.calls != 1 {
		t.Fatalf("handler calls = %d, want 1", handler.calls)
	}
}

func TestIdempotencyBypassedWithoutKey(t *testing.T) {
	handler := &echoHandler{}
	bus := newEchoBus(handler, Idempotency(newMapStore(), nil))

	for i := 0; i < 3; i++ {
		if _, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "a"}); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if handler.calls != 3 {
		t.Fatalf("handler calls = %d, want 3", handler.calls)
	}
}

type recordingUnit struct {
	committed  bool
	rolledBack bool
}

func (u *recordingUnit) Listings() domainlistings.Repository        { return nil }
func (u *recordingUnit) Reservations() domainreservation.Repository { return nil }

func (u *recordingUnit) Commit(ctx context.Context) error {
	u.committed = true
	return nil
}

func (u *recordingUnit) Rollback(ctx context.Context) error {
	u.rolledBack = true
	return nil
}

type recordingFactory struct {
	units []*recordingUnit
}

func (f *recordingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit := &recordingUnit{}
	f.units = append(f.units, unit)
	return unit, nil
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	factory := &recordingFactory{}
	handler := &echoHandler{}
	bus := newEchoBus(handler, Transaction(factory, nil))

	if _, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "a"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(factory.units) != 1 {
		t.Fatalf("units = %d, want 1", len(factory.units))
	}
	if !factory.units[0].committed || factory.units[0].rolledBack {
		t.Fatalf("unit state = %+v, want committed", factory.units[0])
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	factory := &recordingFactory{}
	handler := &echoHandler{fail: errors.New("boom")}
	bus := newEchoBus(handler, Transaction(factory, nil))

	if _, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "a"}); err == nil {
		t.Fatal("expected error")
	}
	if !factory.units[0].rolledBack || factory.units[0].committed {
		t.Fatalf("unit state = %+v, want rolled back", factory.units[0])
	}
}

type contextSpyHandler struct {
	seen uow.UnitOfWork
}

func (h *contextSpyHandler) Handle(ctx context.Context, cmd echoCommand) (*echoResult, error) {
	h.seen, _ = uow.FromContext(ctx)
	return &echoResult{}, nil
}

func TestTransactionInjectsUnitIntoContext(t *testing.T) {
	factory := &recordingFactory{}
	bus := commands.NewInMemoryBus()
	spy := &contextSpyHandler{}
	commands.RegisterHandler(bus, echoCommand{}.Key(), spy)
	chained := ChainCommands(bus, Transaction(factory, nil))

	if _, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), chained, echoCommand{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if spy.seen == nil || spy.seen != uow.UnitOfWork(factory.units[0]) {
		t.Fatal("handler did not see the middleware's unit of work")
	}
}
