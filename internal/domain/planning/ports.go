package planning

import (
	"context"

	"github.com/printforge/printforge/internal/domain/shared"
)

// Repository persists the planned-order output of the latest run. Planned
// orders are working data: a new run replaces the previous set wholesale.
type Repository interface {
	// ReplaceRun atomically drops the previous run's orders and stores the
	// new set
	ReplaceRun(ctx context.Context, runID string, orders []*PlannedOrder) error
	List(ctx context.Context) ([]*PlannedOrder, error)
	FindByID(ctx context.Context, id string) (*PlannedOrder, error)
	ListForItem(ctx context.Context, itemID string) ([]*PlannedOrder, error)
	// Delete removes a planned order once it has been firmed
	Delete(ctx context.Context, id string) error
}

// UnknownPlannedOrderError is returned when a planned order does not resolve
type UnknownPlannedOrderError struct {
	*shared.DomainError
	ID string
}

func NewUnknownPlannedOrderError(id string) *UnknownPlannedOrderError {
	return &UnknownPlannedOrderError{
		DomainError: shared.NewDomainError("unknown planned order: " + id),
		ID:          id,
	}
}
