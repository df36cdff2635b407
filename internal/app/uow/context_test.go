package uow

import (
	"context"
	"testing"

	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
)

type plainUnit struct{}

func (plainUnit) Listings() domainlistings.Repository        { return nil }
func (plainUnit) Reservations() domainreservation.Repository { return nil }
func (plainUnit) Commit(context.Context) error               { return nil }
func (plainUnit) Rollback(context.Context) error             { return nil }

type injectKey struct{}

type sessionUnit struct {
	plainUnit
}

func (sessionUnit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, injectKey{}, true)
}

func TestBindContextStoresUnit(t *testing.T) {
	unit := plainUnit{}
	ctx := BindContext(context.Background(), unit)
	got, ok := FromContext(ctx)
	if !ok || got != UnitOfWork(unit) {
		t.Fatal("bound context does not carry the unit")
	}
}

func TestBindContextInjectsSessionBackedUnits(t *testing.T) {
	ctx := BindContext(context.Background(), sessionUnit{})
	if injected, _ := ctx.Value(injectKey{}).(bool); !injected {
		t.Fatal("session-backed unit was not asked to inject its session")
	}
	if _, ok := FromContext(ctx); !ok {
		t.Fatal("bound context does not carry the unit")
	}
}
