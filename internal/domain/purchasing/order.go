package purchasing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/shared"
)

// Status is the purchase order lifecycle state
type Status string

const (
	StatusDraft     Status = "draft"
	StatusOrdered   Status = "ordered"
	StatusPartial   Status = "partial"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is one of the closed set
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusOrdered, StatusPartial, StatusReceived, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// IsOpen reports whether the order can still receive goods
func (s Status) IsOpen() bool {
	return s == StatusOrdered || s == StatusPartial
}

// Line is one ordered item of a purchase order
type Line struct {
	ID          string
	Seq         int
	ItemID      string
	QtyOrdered  decimal.Decimal
	QtyReceived decimal.Decimal
	UnitCost    decimal.Decimal
}

// Remaining returns the quantity still expected
func (l Line) Remaining() decimal.Decimal {
	return l.QtyOrdered.Sub(l.QtyReceived)
}

// Order is a vendor purchase order
type Order struct {
	ID           string
	Code         string
	VendorID     string
	Status       Status
	ExpectedDate time.Time
	Lines        []Line
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewOrder creates a draft purchase order
func NewOrder(code, vendorID string, expectedDate time.Time, lines []Line, now time.Time) (*Order, error) {
	if code == "" {
		return nil, shared.NewValidationError("code", "purchase order code is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("lines", "at least one line is required")
	}
	for i := range lines {
		if !lines[i].QtyOrdered.IsPositive() {
			return nil, shared.NewValidationError("qty_ordered", "ordered quantity must be positive")
		}
		if lines[i].ID == "" {
			lines[i].ID = shared.NewID()
		}
		if lines[i].Seq == 0 {
			lines[i].Seq = i + 1
		}
	}
	return &Order{
		ID:           shared.NewID(),
		Code:         code,
		VendorID:     vendorID,
		Status:       StatusDraft,
		ExpectedDate: expectedDate,
		Lines:        lines,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Place moves a draft order to ordered
func (o *Order) Place(now time.Time) error {
	if o.Status != StatusDraft {
		return NewInvalidTransitionError(o.ID, o.Status, StatusOrdered)
	}
	o.Status = StatusOrdered
	o.UpdatedAt = now
	return nil
}

// Cancel cancels an order that has not received anything yet
func (o *Order) Cancel(now time.Time) error {
	if o.Status != StatusDraft && o.Status != StatusOrdered {
		return NewInvalidTransitionError(o.ID, o.Status, StatusCancelled)
	}
	o.Status = StatusCancelled
	o.UpdatedAt = now
	return nil
}

// Receive records a receipt against a line. qty_received is monotonically
// non-decreasing and may never exceed qty_ordered. The order status follows
// the receipt progression: ordered -> partial -> received.
func (o *Order) Receive(lineID string, qty decimal.Decimal, now time.Time) (*Line, error) {
	if !o.Status.IsOpen() {
		return nil, NewInvalidTransitionError(o.ID, o.Status, StatusPartial)
	}
	if !qty.IsPositive() {
		return nil, shared.NewValidationError("quantity", "received quantity must be positive")
	}
	var line *Line
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			line = &o.Lines[i]
			break
		}
	}
	if line == nil {
		return nil, NewUnknownOrderError(lineID)
	}
	if qty.GreaterThan(line.Remaining()) {
		return nil, NewOverReceiptError(o.Code, line.Seq, qty, line.Remaining())
	}
	line.QtyReceived = line.QtyReceived.Add(qty)

	fullyReceived := true
	for _, l := range o.Lines {
		if l.Remaining().IsPositive() {
			fullyReceived = false
			break
		}
	}
	if fullyReceived {
		o.Status = StatusReceived
	} else {
		o.Status = StatusPartial
	}
	o.UpdatedAt = now
	return line, nil
}

// OpenLinesForItem returns the open lines ordering the given item
func (o *Order) OpenLinesForItem(itemID string) []Line {
	var out []Line
	if !o.Status.IsOpen() {
		return out
	}
	for _, l := range o.Lines {
		if l.ItemID == itemID && l.Remaining().IsPositive() {
			out = append(out, l)
		}
	}
	return out
}

// UnknownOrderError is returned when a purchase order or line does not resolve
type UnknownOrderError struct {
	*shared.DomainError
	Ref string
}

func NewUnknownOrderError(ref string) *UnknownOrderError {
	return &UnknownOrderError{
		DomainError: shared.NewDomainError(fmt.Sprintf("unknown purchase order: %s", ref)),
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
		DomainError: shared.NewDomainError(fmt.Sprintf("purchase order %s: cannot move from %s to %s", orderID, from, to)),
		OrderID:     orderID,
		From:        from,
		To:          to,
	}
}

// OverReceiptError is returned when a receipt would exceed the ordered quantity
type OverReceiptError struct {
	*shared.DomainError
	Code      string
	LineSeq   int
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func NewOverReceiptError(code string, seq int, requested, remaining decimal.Decimal) *OverReceiptError {
	return &OverReceiptError{
		DomainError: shared.NewDomainError(fmt.Sprintf(
			"purchase order %s line %d: receiving %s exceeds remaining %s",
			code, seq, requested.String(), remaining.String())),
		Code:      code,
		LineSeq:   seq,
		Requested: requested,
		Remaining: remaining,
	}
}
