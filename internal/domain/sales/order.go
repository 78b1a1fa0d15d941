package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/shared"
)

// Status is the sales order lifecycle state
type Status string

const (
	StatusDraft       Status = "draft"
	StatusConfirmed   Status = "confirmed"
	StatusInProgress  Status = "in_progress"
	StatusReadyToShip Status = "ready_to_ship"
	StatusShipped     Status = "shipped"
	StatusCancelled   Status = "cancelled"
)

// IsValid checks if the status is one of the closed set
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusInProgress, StatusReadyToShip, StatusShipped, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// validTransitions maps each status to the statuses reachable from it
var validTransitions = map[Status][]Status{
	StatusDraft:       {StatusConfirmed, StatusCancelled},
	StatusConfirmed:   {StatusInProgress, StatusReadyToShip, StatusCancelled},
	StatusInProgress:  {StatusReadyToShip, StatusCancelled},
	StatusReadyToShip: {StatusShipped, StatusInProgress},
	StatusShipped:     {},
	StatusCancelled:   {},
}

// CanTransition reports whether from -> to is a legal move
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Line is one ordered item of a sales order
type Line struct {
	ID           string
	Seq          int
	ItemID       string
	QtyOrdered   decimal.Decimal
	QtyAllocated decimal.Decimal
	QtyShipped   decimal.Decimal
	UnitPrice    decimal.Decimal
	NeedDate     *time.Time // overrides the order requested date when set
}

// Order is a customer sales order
type Order struct {
	ID            string
	Number        string
	CustomerID    string
	Status        Status
	RequestedDate time.Time
	Lines         []Line
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder creates a draft sales order
func NewOrder(number, customerID string, requestedDate time.Time, lines []Line, now time.Time) (*Order, error) {
	if number == "" {
		return nil, shared.NewValidationError("number", "order number is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("lines", "at least one line is required")
	}
	seen := make(map[int]bool, len(lines))
	for i := range lines {
		if !lines[i].QtyOrdered.IsPositive() {
			return nil, shared.NewValidationError("qty_ordered", "ordered quantity must be positive")
		}
		if seen[lines[i].Seq] {
			return nil, shared.NewValidationError("seq", "line sequence numbers must be unique")
		}
		seen[lines[i].Seq] = true
		if lines[i].ID == "" {
			lines[i].ID = shared.NewID()
		}
	}
	return &Order{
		ID:            shared.NewID(),
		Number:        number,
		CustomerID:    customerID,
		Status:        StatusDraft,
		RequestedDate: requestedDate,
		Lines:         lines,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Transition moves the order to a new status, rejecting illegal moves
func (o *Order) Transition(to Status, now time.Time) error {
	if !CanTransition(o.Status, to) {
		return NewInvalidTransitionError(o.ID, o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// LineNeedDate returns the line-level need date, falling back to the order
// requested date.
func (o *Order) LineNeedDate(line Line) time.Time {
	if line.NeedDate != nil {
		return *line.NeedDate
	}
	return o.RequestedDate
}

// Line returns the line with the given sequence number
func (o *Order) Line(seq int) (*Line, error) {
	for i := range o.Lines {
		if o.Lines[i].Seq == seq {
			return &o.Lines[i], nil
		}
	}
	return nil, shared.NewValidationError("seq", fmt.Sprintf("order %s has no line %d", o.Number, seq))
}

// UnknownOrderError is returned when a sales order does not resolve
type UnknownOrderError struct {
	*shared.DomainError
	Ref string
}

func NewUnknownOrderError(ref string) *UnknownOrderError {
	return &UnknownOrderError{
		DomainError: shared.NewDomainError(fmt.Sprintf("unknown sales order: %s", ref)),
		Ref:         ref,
	}
}

// InvalidTransitionError is returned for an illegal status move
type InvalidTransitionError struct {
	*shared.DomainError
	OrderID string
	From    Status
	To      Status
}

func NewInvalidTransitionError(orderID string, from, to Status) *InvalidTransitionError {
	return &InvalidTransitionError{
		DomainError: shared.NewDomainError(fmt.Sprintf("sales order %s: cannot move from %s to %s", orderID, from, to)),
		OrderID:     orderID,
		From:        from,
		To:          to,
	}
}
