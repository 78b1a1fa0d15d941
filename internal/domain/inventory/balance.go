package inventory

import "github.com/shopspring/decimal"

// Policy holds the deployment-level inventory rules
type Policy struct {
	// AllowNegativeOnHand permits flagged adjustments to push on-hand below zero
	AllowNegativeOnHand bool
	// AllowOversell permits reserved to exceed on-hand
	AllowOversell bool
}

// Balance is the derived quantity view for one (item, location) pair.
// The ledger is the source of truth; this projection is maintained under a
// row lock at post time.
type Balance struct {
	ItemID     string
	LocationID string
	OnHand     decimal.Decimal
	Reserved   decimal.Decimal
}

// NewBalance creates an empty balance for the pair
func NewBalance(itemID, locationID string) *Balance {
	return &Balance{
		ItemID:     itemID,
		LocationID: locationID,
		OnHand:     decimal.Zero,
		Reserved:   decimal.Zero,
	}
}

// Available returns on-hand minus reserved
func (b *Balance) Available() decimal.Decimal {
	return b.OnHand.Sub(b.Reserved)
}

// Apply mutates the balance with the effect of a transaction, enforcing the
// inventory policy. It returns the error that invalidates the post; callers
// must not persist either side when an error is returned.
func (b *Balance) Apply(t *Transaction, policy Policy) error {
	switch t.Kind() {
	case TxnReceipt, TxnTransferIn, TxnIssue, TxnConsumption, TxnScrap, TxnShipment, TxnTransferOut, TxnAdjustment:
		next := b.OnHand.Add(t.OnHandDelta())
		if next.IsNegative() {
			allowed := t.Kind() == TxnAdjustment && t.AllowsNegative() && policy.AllowNegativeOnHand
			if !allowed {
				if t.Kind() == TxnAdjustment {
					return NewNegativeNotAllowedError(b.ItemID, b.LocationID, next)
				}
				return NewInsufficientStockError(b.ItemID, b.LocationID, t.Magnitude(), b.OnHand)
			}
		}
		b.OnHand = next
		// A consumption tied to a reservation draws down that claim alongside
		// on-hand; unreserved consumptions (shipping-stage packaging) do not.
		if t.Kind() == TxnConsumption && t.ReservationID() != nil {
			b.Reserved = decimal.Max(decimal.Zero, b.Reserved.Sub(t.Magnitude()))
		}
	case TxnReservation:
		next := b.Reserved.Add(t.Magnitude())
		if next.GreaterThan(b.OnHand) && !policy.AllowOversell {
			return NewInsufficientStockError(b.ItemID, b.LocationID, t.Magnitude(), b.Available())
		}
		b.Reserved = next
	case TxnReservationRelease:
		b.Reserved = decimal.Max(decimal.Zero, b.Reserved.Sub(t.Magnitude()))
	}
	return nil
}
