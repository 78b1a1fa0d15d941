package inventory

import "fmt"

// TxnKind classifies a ledger transaction. The set is closed; every switch
// over it must be exhaustive.
type TxnKind string

const (
	TxnReceipt            TxnKind = "receipt"
	TxnIssue              TxnKind = "issue"
	TxnConsumption        TxnKind = "consumption"
	TxnReservation        TxnKind = "reservation"
	TxnReservationRelease TxnKind = "reservation_release"
	TxnTransferOut        TxnKind = "transfer_out"
	TxnTransferIn         TxnKind = "transfer_in"
	TxnAdjustment         TxnKind = "adjustment"
	TxnScrap              TxnKind = "scrap"
	TxnShipment           TxnKind = "shipment"
)

// AllTxnKinds returns every valid transaction kind
func AllTxnKinds() []TxnKind {
	return []TxnKind{
		TxnReceipt, TxnIssue, TxnConsumption, TxnReservation,
		TxnReservationRelease, TxnTransferOut, TxnTransferIn,
		TxnAdjustment, TxnScrap, TxnShipment,
	}
}

func (k TxnKind) String() string {
	return string(k)
}

// IsValid checks if the kind is one of the closed set
func (k TxnKind) IsValid() bool {
	switch k {
	case TxnReceipt, TxnIssue, TxnConsumption, TxnReservation,
		TxnReservationRelease, TxnTransferOut, TxnTransferIn,
		TxnAdjustment, TxnScrap, TxnShipment:
		return true
	default:
		return false
	}
}

// ParseTxnKind parses a string into a TxnKind
func ParseTxnKind(s string) (TxnKind, error) {
	k := TxnKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid transaction kind: %s", s)
	}
	return k, nil
}

// OnHandSign returns the sign this kind applies to on-hand quantity:
// +1 increases, -1 decreases, 0 leaves it unchanged. Adjustments carry their
// own sign in the quantity and return +1.
func (k TxnKind) OnHandSign() int {
	switch k {
	case TxnReceipt, TxnTransferIn:
		return 1
	case TxnIssue, TxnConsumption, TxnScrap, TxnShipment, TxnTransferOut:
		return -1
	case TxnAdjustment:
		return 1
	case TxnReservation, TxnReservationRelease:
		return 0
	default:
		return 0
	}
}

// AffectsReserved reports whether the kind changes the reserved quantity
func (k TxnKind) AffectsReserved() bool {
	switch k {
	case TxnReservation, TxnReservationRelease:
		return true
	default:
		return false
	}
}
