package bom

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
)

// ConsumeStage is the production phase at which a line is drawn down
type ConsumeStage string

const (
	ConsumeAtProduction ConsumeStage = "production"
	ConsumeAtShipping   ConsumeStage = "shipping"
)

// IsValid checks if the stage is one of the closed set
func (s ConsumeStage) IsValid() bool {
	return s == ConsumeAtProduction || s == ConsumeAtShipping
}

func (s ConsumeStage) String() string {
	return string(s)
}

// Line is one component requirement of a BOM revision
type Line struct {
	ID          string
	Seq         int
	ComponentID string
	QtyPer      decimal.Decimal
	Unit        uom.Unit
	ScrapFactor decimal.Decimal // in [0, 1)
	Stage       ConsumeStage
	CostOnly    bool
}

// QtyNeeded returns qty_per scaled by the scrap factor, in the line unit
func (l Line) QtyNeeded() decimal.Decimal {
	return l.QtyPer.Mul(decimal.NewFromInt(1).Add(l.ScrapFactor))
}

// Validate checks line-level invariants
func (l Line) Validate() error {
	if !l.QtyPer.IsPositive() {
		return shared.NewValidationError("qty_per", "quantity per must be positive")
	}
	if l.ScrapFactor.IsNegative() || l.ScrapFactor.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return shared.NewValidationError("scrap_factor", "scrap factor must be in [0, 1)")
	}
	if !l.Stage.IsValid() {
		return shared.NewValidationError("consume_stage", "invalid consume stage: "+string(l.Stage))
	}
	return nil
}

// BOM is one revision of a parent item's recipe.
//
// Invariant: at most one active revision per (parent, point in time);
// retrieval breaks same-date ties by picking the highest revision.
type BOM struct {
	ID            string
	ParentItemID  string
	Revision      int
	Active        bool
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	Lines         []Line
}

// NewBOM creates a BOM revision with validated lines
func NewBOM(parentItemID string, revision int, effectiveFrom time.Time, lines []Line) (*BOM, error) {
	if parentItemID == "" {
		return nil, shared.NewValidationError("parent_item_id", "parent item is required")
	}
	if revision < 1 {
		return nil, shared.NewValidationError("revision", "revision must be >= 1")
	}
	seen := make(map[int]bool, len(lines))
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if l.ComponentID == parentItemID {
			return nil, NewBOMCycleError([]string{parentItemID, parentItemID})
		}
		if seen[l.Seq] {
			return nil, shared.NewValidationError("seq", "line sequence numbers must be unique")
		}
		seen[l.Seq] = true
	}
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	return &BOM{
		ID:            shared.NewID(),
		ParentItemID:  parentItemID,
		Revision:      revision,
		Active:        true,
		EffectiveFrom: effectiveFrom,
		Lines:         sorted,
	}, nil
}

// EffectiveAt reports whether the revision covers the given time
func (b *BOM) EffectiveAt(at time.Time) bool {
	if !b.Active {
		return false
	}
	if at.Before(b.EffectiveFrom) {
		return false
	}
	if b.EffectiveTo != nil && !at.Before(*b.EffectiveTo) {
		return false
	}
	return true
}

// PlanningLines returns the lines relevant to material planning:
// cost-only lines affect cost rollup but never material requirements.
func (b *BOM) PlanningLines() []Line {
	out := make([]Line, 0, len(b.Lines))
	for _, l := range b.Lines {
		if !l.CostOnly {
			out = append(out, l)
		}
	}
	return out
}

// StageLines returns the non-cost-only lines consumed at the given stage
func (b *BOM) StageLines(stage ConsumeStage) []Line {
	out := make([]Line, 0, len(b.Lines))
	for _, l := range b.Lines {
		if !l.CostOnly && l.Stage == stage {
			out = append(out, l)
		}
	}
	return out
}

// ActiveRevisionAt picks the revision effective at the given time from a set
// of revisions of the same parent. Ties on effectivity resolve to the highest
// revision number. Returns nil when none applies.
func ActiveRevisionAt(revisions []*BOM, at time.Time) *BOM {
	var best *BOM
	for _, b := range revisions {
		if !b.EffectiveAt(at) {
			continue
		}
		if best == nil || b.Revision > best.Revision {
			best = b
		}
	}
	return best
}
