package bom

import (
	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/shared"
)

// WorkCenter is a logical production resource (printer, finishing bench,
// QC station) with a daily capacity and labor rate.
type WorkCenter struct {
	ID               string
	Code             string
	Kind             string
	DailyCapacityMin decimal.Decimal // productive minutes per day
	DefaultRate      decimal.Decimal // cost per hour
}

// Validate checks work-center invariants
func (w WorkCenter) Validate() error {
	if w.DailyCapacityMin.IsNegative() {
		return shared.NewValidationError("daily_capacity", "capacity cannot be negative")
	}
	return nil
}

// Operation is one step of a routing
type Operation struct {
	ID             string
	Seq            int
	WorkCenterID   string
	SetupTimeMin   decimal.Decimal
	RunTimePerUnit decimal.Decimal // minutes per unit
	RateOverride   *decimal.Decimal
}

// Routing is one revision of the ordered operations producing a parent item
type Routing struct {
	ID           string
	ParentItemID string
	Revision     int
	Active       bool
	Operations   []Operation
}

// NewRouting creates a routing revision, enforcing strictly increasing
// operation sequences.
func NewRouting(parentItemID string, revision int, operations []Operation) (*Routing, error) {
	if parentItemID == "" {
		return nil, shared.NewValidationError("parent_item_id", "parent item is required")
	}
	if revision < 1 {
		return nil, shared.NewValidationError("revision", "revision must be >= 1")
	}
	lastSeq := 0
	for _, op := range operations {
		if op.Seq <= lastSeq {
			return nil, NewInvalidRoutingError(parentItemID, "operation sequences must be strictly increasing")
		}
		if op.SetupTimeMin.IsNegative() || op.RunTimePerUnit.IsNegative() {
			return nil, shared.NewValidationError("operation", "operation times cannot be negative")
		}
		lastSeq = op.Seq
	}
	return &Routing{
		ID:           shared.NewID(),
		ParentItemID: parentItemID,
		Revision:     revision,
		Active:       true,
		Operations:   operations,
	}, nil
}

// TotalMinutes returns setup plus run time for a batch of the given quantity
func (r *Routing) TotalMinutes(batchQty decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, op := range r.Operations {
		total = total.Add(op.SetupTimeMin).Add(op.RunTimePerUnit.Mul(batchQty))
	}
	return total
}

// ThroughputDays estimates calendar days to produce a batch, dividing total
// routing minutes by the bottleneck work-center daily capacity. Operations at
// unknown or zero-capacity work centers fall back to one day each.
func (r *Routing) ThroughputDays(batchQty decimal.Decimal, workCenters map[string]*WorkCenter) int {
	if len(r.Operations) == 0 {
		return 0
	}
	days := decimal.Zero
	for _, op := range r.Operations {
		minutes := op.SetupTimeMin.Add(op.RunTimePerUnit.Mul(batchQty))
		wc := workCenters[op.WorkCenterID]
		if wc == nil || !wc.DailyCapacityMin.IsPositive() {
			days = days.Add(decimal.NewFromInt(1))
			continue
		}
		days = days.Add(minutes.Div(wc.DailyCapacityMin))
	}
	return int(days.Ceil().IntPart())
}

// FinalOperation returns the last operation of the routing, or nil when the
// routing has none.
func (r *Routing) FinalOperation() *Operation {
	if len(r.Operations) == 0 {
		return nil
	}
	return &r.Operations[len(r.Operations)-1]
}

// ActiveRoutingRevision picks the active routing with the highest revision
func ActiveRoutingRevision(revisions []*Routing) *Routing {
	var best *Routing
	for _, r := range revisions {
		if !r.Active {
			continue
		}
		if best == nil || r.Revision > best.Revision {
			best = r
		}
	}
	return best
}
