package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/shared"
)

// Reservation is a claim on on-hand inventory. It reduces available quantity
// without reducing on-hand. Claims are consumed partially or released in
// full; they never expire on their own.
type Reservation struct {
	id         string
	itemID     string
	locationID string
	quantity   decimal.Decimal
	consumed   decimal.Decimal
	refKind    string
	refID      string
	active     bool
	createdAt  time.Time
	releasedAt *time.Time
}

// NewReservation creates an active reservation claim
func NewReservation(itemID, locationID string, qty decimal.Decimal, refKind, refID string, now time.Time) (*Reservation, error) {
	if !qty.IsPositive() {
		return nil, NewNegativeQuantityError(qty)
	}
	return &Reservation{
		id:         shared.NewID(),
		itemID:     itemID,
		locationID: locationID,
		quantity:   qty,
		consumed:   decimal.Zero,
		refKind:    refKind,
		refID:      refID,
		active:     true,
		createdAt:  now,
	}, nil
}

// ReconstructReservation restores a reservation from persistence
func ReconstructReservation(
	id, itemID, locationID string,
	quantity, consumed decimal.Decimal,
	refKind, refID string,
	active bool,
	createdAt time.Time,
	releasedAt *time.Time,
) *Reservation {
	return &Reservation{
		id:         id,
		itemID:     itemID,
		locationID: locationID,
		quantity:   quantity,
		consumed:   consumed,
		refKind:    refKind,
		refID:      refID,
		active:     active,
		createdAt:  createdAt,
		releasedAt: releasedAt,
	}
}

func (r *Reservation) ID() string                { return r.id }
func (r *Reservation) ItemID() string            { return r.itemID }
func (r *Reservation) LocationID() string        { return r.locationID }
func (r *Reservation) Quantity() decimal.Decimal { return r.quantity }
func (r *Reservation) Consumed() decimal.Decimal { return r.consumed }
func (r *Reservation) RefKind() string           { return r.refKind }
func (r *Reservation) RefID() string             { return r.refID }
func (r *Reservation) Active() bool              { return r.active }
func (r *Reservation) CreatedAt() time.Time      { return r.createdAt }
func (r *Reservation) ReleasedAt() *time.Time    { return r.releasedAt }

// Remaining returns the unconsumed part of the claim
func (r *Reservation) Remaining() decimal.Decimal {
	return r.quantity.Sub(r.consumed)
}

// Consume draws qty from the claim. Partial consumption is allowed;
// over-consumption fails. Consuming the full remainder deactivates the claim.
func (r *Reservation) Consume(qty decimal.Decimal, now time.Time) error {
	if !r.active {
		return NewUnknownReservationError(r.id)
	}
	if !qty.IsPositive() {
		return NewNegativeQuantityError(qty)
	}
	if qty.GreaterThan(r.Remaining()) {
		return NewInsufficientReservationError(r.id, qty, r.Remaining())
	}
	r.consumed = r.consumed.Add(qty)
	if r.Remaining().IsZero() {
		r.active = false
		r.releasedAt = &now
	}
	return nil
}

// Release returns the remaining claim to available stock and deactivates it
func (r *Reservation) Release(now time.Time) (decimal.Decimal, error) {
	if !r.active {
		return decimal.Zero, NewUnknownReservationError(r.id)
	}
	remaining := r.Remaining()
	r.active = false
	r.releasedAt = &now
	return remaining, nil
}

// Reduce lowers the reserved quantity without consuming, used when a claim is
// redistributed (production order split). The released part is returned.
func (r *Reservation) Reduce(qty decimal.Decimal) (decimal.Decimal, error) {
	if !r.active {
		return decimal.Zero, NewUnknownReservationError(r.id)
	}
	if !qty.IsPositive() || qty.GreaterThan(r.Remaining()) {
		return decimal.Zero, NewInsufficientReservationError(r.id, qty, r.Remaining())
	}
	r.quantity = r.quantity.Sub(qty)
	return qty, nil
}
