package production

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/shared"
)

// Pegging links a production order to the sales order line it supplies
type Pegging struct {
	SalesOrderID   string
	SalesOrderLine int
}

// Order is a work order to produce a quantity of one item.
//
// Invariants:
// - qty_completed + qty_scrapped <= qty_ordered
// - code is globally unique (enforced at storage)
// - all inventory side effects of a transition commit atomically with the
//   status change
type Order struct {
	id           string
	code         string
	itemID       string
	qtyOrdered   decimal.Decimal
	qtyCompleted decimal.Decimal
	qtyScrapped  decimal.Decimal
	status       Status
	pegging      *Pegging
	parentID     *string
	neededDate   time.Time
	workCenterID *string
	currentOpSeq int
	lockVersion  int
	createdAt    time.Time
	updatedAt    time.Time
}

// NewOrder creates a draft production order
func NewOrder(code, itemID string, qty decimal.Decimal, neededDate time.Time, pegging *Pegging, workCenterID *string, now time.Time) (*Order, error) {
	if code == "" {
		return nil, shared.NewValidationError("code", "production order code is required")
	}
	if itemID == "" {
		return nil, shared.NewValidationError("item_id", "item is required")
	}
	if !qty.IsPositive() {
		return nil, shared.NewValidationError("qty_ordered", "ordered quantity must be positive")
	}
	return &Order{
		id:           shared.NewID(),
		code:         code,
		itemID:       itemID,
		qtyOrdered:   qty,
		qtyCompleted: decimal.Zero,
		qtyScrapped:  decimal.Zero,
		status:       StatusDraft,
		pegging:      pegging,
		neededDate:   neededDate,
		workCenterID: workCenterID,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct restores an order from persistence
func Reconstruct(
	id, code, itemID string,
	qtyOrdered, qtyCompleted, qtyScrapped decimal.Decimal,
	status Status,
	pegging *Pegging,
	parentID *string,
	neededDate time.Time,
	workCenterID *string,
	currentOpSeq, lockVersion int,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:           id,
		code:         code,
		itemID:       itemID,
		qtyOrdered:   qtyOrdered,
		qtyCompleted: qtyCompleted,
		qtyScrapped:  qtyScrapped,
		status:       status,
		pegging:      pegging,
		parentID:     parentID,
		neededDate:   neededDate,
		workCenterID: workCenterID,
		currentOpSeq: currentOpSeq,
		lockVersion:  lockVersion,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (o *Order) ID() string                     { return o.id }
func (o *Order) Code() string                   { return o.code }
func (o *Order) ItemID() string                 { return o.itemID }
func (o *Order) QtyOrdered() decimal.Decimal    { return o.qtyOrdered }
func (o *Order) QtyCompleted() decimal.Decimal  { return o.qtyCompleted }
func (o *Order) QtyScrapped() decimal.Decimal   { return o.qtyScrapped }
func (o *Order) Status() Status                 { return o.status }
func (o *Order) Pegging() *Pegging              { return o.pegging }
func (o *Order) ParentID() *string              { return o.parentID }
func (o *Order) NeededDate() time.Time          { return o.neededDate }
func (o *Order) WorkCenterID() *string          { return o.workCenterID }
func (o *Order) CurrentOpSeq() int              { return o.currentOpSeq }
func (o *Order) LockVersion() int               { return o.lockVersion }
func (o *Order) CreatedAt() time.Time           { return o.createdAt }
func (o *Order) UpdatedAt() time.Time           { return o.updatedAt }

// QtyRemaining returns the quantity not yet completed or scrapped
func (o *Order) QtyRemaining() decimal.Decimal {
	return o.qtyOrdered.Sub(o.qtyCompleted).Sub(o.qtyScrapped)
}

// Release moves a draft order to released. Material reservations are the
// caller's responsibility and must commit in the same transaction.
func (o *Order) Release(now time.Time) error {
	if o.status != StatusDraft {
		return NewInvalidTransitionError(o.code, o.status, "release")
	}
	o.status = StatusReleased
	o.touch(now)
	return nil
}

// Start moves a released order to in_progress. Status only; no inventory
// effect.
func (o *Order) Start(now time.Time) error {
	if o.status != StatusReleased {
		return NewInvalidTransitionError(o.code, o.status, "start")
	}
	o.status = StatusInProgress
	o.touch(now)
	return nil
}

// RecordOperation advances past an intermediate (non-final) operation
func (o *Order) RecordOperation(opSeq int, now time.Time) error {
	if o.status != StatusInProgress {
		return NewInvalidTransitionError(o.code, o.status, "complete operation")
	}
	o.currentOpSeq = opSeq
	o.touch(now)
	return nil
}

// CompleteFinalOperation records good and scrapped output of the final
// operation and moves the order to QC. The caller posts the finished-goods
// receipt, material consumption and scrap in the same transaction.
func (o *Order) CompleteFinalOperation(qtyGood, qtyBad decimal.Decimal, now time.Time) error {
	if o.status != StatusInProgress {
		return NewInvalidTransitionError(o.code, o.status, "complete operation")
	}
	if qtyGood.IsNegative() || qtyBad.IsNegative() || qtyGood.Add(qtyBad).IsZero() {
		return shared.NewValidationError("quantity", "completed and scrapped quantities must be non-negative and not both zero")
	}
	completed := o.qtyCompleted.Add(qtyGood)
	scrapped := o.qtyScrapped.Add(qtyBad)
	if completed.Add(scrapped).GreaterThan(o.qtyOrdered) {
		return NewQuantityExceededError(o.code, completed.Add(scrapped), o.qtyOrdered)
	}
	o.qtyCompleted = completed
	o.qtyScrapped = scrapped
	o.status = StatusQC
	o.touch(now)
	return nil
}

// PassQC moves a QC order to complete
func (o *Order) PassQC(now time.Time) error {
	if o.status != StatusQC {
		return NewInvalidTransitionError(o.code, o.status, "pass QC")
	}
	o.status = StatusComplete
	o.touch(now)
	return nil
}

// FailQC sends the order back to in_progress for rework
func (o *Order) FailQC(now time.Time) error {
	if o.status != StatusQC {
		return NewInvalidTransitionError(o.code, o.status, "fail QC")
	}
	o.status = StatusInProgress
	o.touch(now)
	return nil
}

// MarkShipped records that the finished output left the building
func (o *Order) MarkShipped(now time.Time) error {
	if o.status != StatusComplete {
		return NewInvalidTransitionError(o.code, o.status, "ship")
	}
	o.status = StatusShipped
	o.touch(now)
	return nil
}

// Cancel stops the order. Allowed from draft, released and in_progress
// before any completion; active reservations must be released by the caller
// in the same transaction.
func (o *Order) Cancel(now time.Time) error {
	switch o.status {
	case StatusDraft, StatusReleased:
	case StatusInProgress:
		if o.qtyCompleted.IsPositive() || o.qtyScrapped.IsPositive() {
			return NewInvalidTransitionError(o.code, o.status, "cancel")
		}
	default:
		return NewInvalidTransitionError(o.code, o.status, "cancel")
	}
	o.status = StatusCancelled
	o.touch(now)
	return nil
}

// Split divides the uncompleted remainder of the order into child orders
// with the given quantities. The quantities must sum to exactly the
// remainder. The parent moves to the terminal split status; children start
// released, inherit the needed date and pegging, and record the parent id.
// Reservation redistribution is the caller's responsibility.
func (o *Order) Split(childCodes []string, childQtys []decimal.Decimal, now time.Time) ([]*Order, error) {
	if o.status != StatusReleased && o.status != StatusInProgress {
		return nil, NewInvalidTransitionError(o.code, o.status, "split")
	}
	if len(childCodes) != len(childQtys) || len(childQtys) < 2 {
		return nil, shared.NewValidationError("children", "a split needs at least two child quantities")
	}
	remainder := o.QtyRemaining()
	sum := decimal.Zero
	for _, q := range childQtys {
		if !q.IsPositive() {
			return nil, shared.NewValidationError("children", "child quantities must be positive")
		}
		sum = sum.Add(q)
	}
	if !sum.Equal(remainder) {
		return nil, NewSplitQuantityMismatchError(o.code, sum, remainder)
	}

	children := make([]*Order, 0, len(childQtys))
	parentID := o.id
	for i, qty := range childQtys {
		child := &Order{
			id:           shared.NewID(),
			code:         childCodes[i],
			itemID:       o.itemID,
			qtyOrdered:   qty,
			qtyCompleted: decimal.Zero,
			qtyScrapped:  decimal.Zero,
			status:       StatusReleased,
			pegging:      o.pegging,
			parentID:     &parentID,
			neededDate:   o.neededDate,
			workCenterID: o.workCenterID,
			createdAt:    now,
			updatedAt:    now,
		}
		children = append(children, child)
	}
	o.status = StatusSplit
	o.touch(now)
	return children, nil
}

func (o *Order) touch(now time.Time) {
	o.updatedAt = now
	o.lockVersion++
}
