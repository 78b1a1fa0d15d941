package production

import "context"

// Repository is the persistence port for production orders.
//
// Update performs an optimistic-concurrency write: the row is matched on
// (id, previous lock_version) and the write fails with a
// ConcurrencyConflictError when a concurrent transition won the race.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByCode(ctx context.Context, code string) (*Order, error)
	ListBySalesOrder(ctx context.Context, salesOrderID string) ([]*Order, error)
	ListOpen(ctx context.Context) ([]*Order, error)
	OpenOrdersForItem(ctx context.Context, itemID string) ([]*Order, error)
	// NextCode atomically increments and returns the production order code counter
	NextCode(ctx context.Context) (string, error)
}
