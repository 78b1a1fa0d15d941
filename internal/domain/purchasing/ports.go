package purchasing

import "context"

// Repository is the persistence port for purchase orders
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByCode(ctx context.Context, code string) (*Order, error)
	ListOpen(ctx context.Context) ([]*Order, error)
	OpenOrdersForItem(ctx context.Context, itemID string) ([]*Order, error)
	// NextCode atomically increments and returns the purchase order code counter
	NextCode(ctx context.Context) (string, error)
}
