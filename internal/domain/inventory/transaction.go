package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/shared"
)

// Transaction is one immutable row of the inventory ledger. The stored
// quantity is signed: positive for kinds that add on-hand stock, negative for
// kinds that remove it. Reservation rows carry a positive magnitude; they
// affect reserved quantity, not on-hand.
type Transaction struct {
	id             string
	itemID         string
	locationID     string
	quantity       decimal.Decimal
	kind           TxnKind
	refKind        string
	refID          string
	reservationID  *string
	idempotencyKey *string
	// allowNegative permits an adjustment to push on-hand below zero even
	// under the strict inventory policy (paperwork catch-up).
	allowNegative bool
	createdAt     time.Time
	createdBy     string
}

// NewTransactionParams carries the caller-facing attributes of a post.
// Quantity is a positive magnitude for every kind except adjustment, which
// is signed.
type NewTransactionParams struct {
	ItemID         string
	LocationID     string
	Quantity       decimal.Decimal
	Kind           TxnKind
	RefKind        string
	RefID          string
	ReservationID  *string
	IdempotencyKey *string
	AllowNegative  bool
	CreatedBy      string
}

// NewTransaction validates the post parameters and builds the signed ledger
// row.
func NewTransaction(p NewTransactionParams, now time.Time) (*Transaction, error) {
	if !p.Kind.IsValid() {
		return nil, shared.NewValidationError("kind", fmt.Sprintf("invalid transaction kind: %s", p.Kind))
	}
	if p.ItemID == "" {
		return nil, shared.NewValidationError("item_id", "item is required")
	}
	if p.LocationID == "" {
		return nil, shared.NewValidationError("location_id", "location is required")
	}
	if p.Quantity.IsZero() {
		return nil, NewNegativeQuantityError(p.Quantity)
	}
	if p.Kind != TxnAdjustment && !p.Quantity.IsPositive() {
		return nil, NewNegativeQuantityError(p.Quantity)
	}
	if p.AllowNegative && p.Kind != TxnAdjustment {
		return nil, shared.NewValidationError("allow_negative", "only adjustments may go negative")
	}

	signed := p.Quantity
	if p.Kind.OnHandSign() < 0 {
		signed = p.Quantity.Neg()
	}

	return &Transaction{
		id:             shared.NewID(),
		itemID:         p.ItemID,
		locationID:     p.LocationID,
		quantity:       signed,
		kind:           p.Kind,
		refKind:        p.RefKind,
		refID:          p.RefID,
		reservationID:  p.ReservationID,
		idempotencyKey: p.IdempotencyKey,
		allowNegative:  p.AllowNegative,
		createdAt:      now,
		createdBy:      p.CreatedBy,
	}, nil
}

// Reconstruct restores a transaction from persistence
func Reconstruct(
	id, itemID, locationID string,
	quantity decimal.Decimal,
	kind TxnKind,
	refKind, refID string,
	reservationID *string,
	idempotencyKey *string,
	createdAt time.Time,
	createdBy string,
) *Transaction {
	return &Transaction{
		id:             id,
		itemID:         itemID,
		locationID:     locationID,
		quantity:       quantity,
		kind:           kind,
		refKind:        refKind,
		refID:          refID,
		reservationID:  reservationID,
		idempotencyKey: idempotencyKey,
		createdAt:      createdAt,
		createdBy:      createdBy,
	}
}

func (t *Transaction) ID() string               { return t.id }
func (t *Transaction) ItemID() string           { return t.itemID }
func (t *Transaction) LocationID() string       { return t.locationID }
func (t *Transaction) Quantity() decimal.Decimal { return t.quantity }
func (t *Transaction) Kind() TxnKind            { return t.kind }
func (t *Transaction) RefKind() string          { return t.refKind }
func (t *Transaction) RefID() string            { return t.refID }
func (t *Transaction) ReservationID() *string   { return t.reservationID }
func (t *Transaction) IdempotencyKey() *string  { return t.idempotencyKey }
func (t *Transaction) AllowsNegative() bool     { return t.allowNegative }
func (t *Transaction) CreatedAt() time.Time     { return t.createdAt }
func (t *Transaction) CreatedBy() string        { return t.createdBy }

// Magnitude returns the unsigned quantity
func (t *Transaction) Magnitude() decimal.Decimal {
	return t.quantity.Abs()
}

// OnHandDelta returns the signed effect of this row on on-hand stock
func (t *Transaction) OnHandDelta() decimal.Decimal {
	if t.kind.OnHandSign() == 0 {
		return decimal.Zero
	}
	return t.quantity
}

func (t *Transaction) String() string {
	return fmt.Sprintf("Txn[%s %s item=%s loc=%s qty=%s ref=%s/%s]",
		t.id, t.kind, t.itemID, t.locationID, t.quantity.String(), t.refKind, t.refID)
}
