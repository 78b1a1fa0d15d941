package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/shared"
)

// InsufficientStockError is returned when a post would overdraw available
// stock under the strict policy
type InsufficientStockError struct {
	*shared.DomainError
	ItemID     string
	LocationID string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func NewInsufficientStockError(itemID, locationID string, requested, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		DomainError: shared.NewDomainError(fmt.Sprintf(
			"insufficient stock for item %s at %s: requested %s, available %s",
			itemID, locationID, requested.String(), available.String())),
		ItemID:     itemID,
		LocationID: locationID,
		Requested:  requested,
		Available:  available,
	}
}

// InsufficientReservationError is returned on over-consumption of a claim
type InsufficientReservationError struct {
	*shared.DomainError
	ReservationID string
	Requested     decimal.Decimal
	Remaining     decimal.Decimal
}

func NewInsufficientReservationError(id string, requested, remaining decimal.Decimal) *InsufficientReservationError {
	return &InsufficientReservationError{
		DomainError: shared.NewDomainError(fmt.Sprintf(
			"reservation %s holds %s, cannot consume %s", id, remaining.String(), requested.String())),
		ReservationID: id,
		Requested:     requested,
		Remaining:     remaining,
	}
}

// UnknownReservationError is returned for a missing or inactive reservation
type UnknownReservationError struct {
	*shared.DomainError
	ReservationID string
}

func NewUnknownReservationError(id string) *UnknownReservationError {
	return &UnknownReservationError{
		DomainError:   shared.NewDomainError(fmt.Sprintf("unknown or inactive reservation: %s", id)),
		ReservationID: id,
	}
}

// UnknownLocationError is returned when a location does not resolve
type UnknownLocationError struct {
	*shared.DomainError
	Ref string
}

func NewUnknownLocationError(ref string) *UnknownLocationError {
	return &UnknownLocationError{
		DomainError: shared.NewDomainError(fmt.Sprintf("unknown location: %s", ref)),
		Ref:         ref,
	}
}

// NegativeNotAllowedError is returned when an adjustment would take on-hand
// negative without the explicit flag and policy
type NegativeNotAllowedError struct {
	*shared.DomainError
	ItemID     string
	LocationID string
	WouldBe    decimal.Decimal
}

func NewNegativeNotAllowedError(itemID, locationID string, wouldBe decimal.Decimal) *NegativeNotAllowedError {
	return &NegativeNotAllowedError{
		DomainError: shared.NewDomainError(fmt.Sprintf(
			"adjustment would take item %s at %s to %s; negative on-hand not allowed",
			itemID, locationID, wouldBe.String())),
		ItemID:     itemID,
		LocationID: locationID,
		WouldBe:    wouldBe,
	}
}

// NegativeQuantityError is returned for non-positive magnitudes
type NegativeQuantityError struct {
	*shared.DomainError
	Quantity decimal.Decimal
}

func NewNegativeQuantityError(qty decimal.Decimal) *NegativeQuantityError {
	return &NegativeQuantityError{
		DomainError: shared.NewDomainError(fmt.Sprintf("quantity must be positive, got %s", qty.String())),
		Quantity:    qty,
	}
}

// LedgerCorruptionError signals that derived balances disagree with the
// transaction log. This is fatal; do not auto-heal.
type LedgerCorruptionError struct {
	*shared.DomainError
	ItemID     string
	LocationID string
}

func NewLedgerCorruptionError(itemID, locationID, detail string) *LedgerCorruptionError {
	return &LedgerCorruptionError{
		DomainError: shared.NewDomainError(fmt.Sprintf(
			"ledger corruption for item %s at %s: %s", itemID, locationID, detail)),
		ItemID:     itemID,
		LocationID: locationID,
	}
}
