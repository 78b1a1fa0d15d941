package sales

import "context"

// Repository is the persistence port for sales orders
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Order, error)
	// NextNumber atomically increments and returns the order number counter
	NextNumber(ctx context.Context) (string, error)
}
