package inventory

import (
	"context"
	"time"
)

// Repository is the persistence port for the ledger. All mutating methods
// are expected to run inside a TxManager transaction; LockBalance takes a
// row-level lock that lives until that transaction commits.
//
// Callers locking more than one balance must lock in
// (item_id ASC, location_id ASC) order to avoid deadlocks.
type Repository interface {
	// LockBalance loads the balance row for the pair under a row lock,
	// creating a zero row if none exists yet.
	LockBalance(ctx context.Context, itemID, locationID string) (*Balance, error)
	SaveBalance(ctx context.Context, b *Balance) error
	GetBalance(ctx context.Context, itemID, locationID string) (*Balance, error)
	BalancesForItem(ctx context.Context, itemID string) ([]*Balance, error)
	AllBalances(ctx context.Context) ([]*Balance, error)

	AppendTransaction(ctx context.Context, t *Transaction) error
	FindTransactionByID(ctx context.Context, id string) (*Transaction, error)
	FindTransactionByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)
	TransactionsByRef(ctx context.Context, refKind, refID string) ([]*Transaction, error)
	TransactionsForItem(ctx context.Context, itemID, locationID string, since *time.Time) ([]*Transaction, error)

	CreateReservation(ctx context.Context, r *Reservation) error
	SaveReservation(ctx context.Context, r *Reservation) error
	FindReservation(ctx context.Context, id string) (*Reservation, error)
	ActiveReservationsByRef(ctx context.Context, refKind, refID string) ([]*Reservation, error)
	ActiveReservationsForItem(ctx context.Context, itemID, locationID string) ([]*Reservation, error)
}

// LocationRepository is the persistence port for stocking locations
type LocationRepository interface {
	Create(ctx context.Context, l *Location) error
	FindByID(ctx context.Context, id string) (*Location, error)
	FindByCode(ctx context.Context, code string) (*Location, error)
	Default(ctx context.Context) (*Location, error)
	List(ctx context.Context) ([]*Location, error)
}
