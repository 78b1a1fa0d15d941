package production

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/shared"
)

// UnknownOrderError is returned when a production order does not resolve
type UnknownOrderError struct {
	*shared.DomainError
	Ref string
}

func NewUnknownOrderError(ref string) *UnknownOrderError {
	return &UnknownOrderError{
		DomainError: shared.NewDomainError(fmt.Sprintf("unknown production order: %s", ref)),
		Ref:         ref,
	}
}

// InvalidTransitionError is returned when an event is not legal in the
// order's current status
type InvalidTransitionError struct {
	*shared.DomainError
	Code  string
	From  Status
	Event string
}

func NewInvalidTransitionError(code string, from Status, event string) *InvalidTransitionError {
	return &InvalidTransitionError{
		DomainError: shared.NewDomainError(fmt.Sprintf("production order %s: cannot %s from %s", code, event, from)),
		Code:        code,
		From:        from,
		Event:       event,
	}
}

// QuantityExceededError is returned when completion plus scrap would exceed
// the ordered quantity
type QuantityExceededError struct {
	*shared.DomainError
	Code    string
	Total   decimal.Decimal
	Ordered decimal.Decimal
}

func NewQuantityExceededError(code string, total, ordered decimal.Decimal) *QuantityExceededError {
	return &QuantityExceededError{
		DomainError: shared.NewDomainError(fmt.Sprintf(
			"production order %s: completed+scrapped %s exceeds ordered %s",
			code, total.String(), ordered.String())),
		Code:    code,
		Total:   total,
		Ordered: ordered,
	}
}

// SplitQuantityMismatchError is returned when split child quantities do not
// sum to the uncompleted remainder
type SplitQuantityMismatchError struct {
	*shared.DomainError
	Code      string
	Sum       decimal.Decimal
	Remainder decimal.Decimal
}

func NewSplitQuantityMismatchError(code string, sum, remainder decimal.Decimal) *SplitQuantityMismatchError {
	return &SplitQuantityMismatchError{
		DomainError: shared.NewDomainError(fmt.Sprintf(
			"production order %s: child quantities sum to %s, remainder is %s",
			code, sum.String(), remainder.String())),
		Code:      code,
		Sum:       sum,
		Remainder: remainder,
	}
}

// ShipmentBlockedError is returned when a shipment request cannot be
// satisfied from finished goods or shipping-stage materials
type ShipmentBlockedError struct {
	*shared.DomainError
	Reason string
}

func NewShipmentBlockedError(reason string) *ShipmentBlockedError {
	return &ShipmentBlockedError{
		DomainError: shared.NewDomainError("shipment blocked: " + reason),
		Reason:      reason,
	}
}
