package planning

import "fmt"

// WarningCode classifies a non-fatal planning finding
type WarningCode string

const (
	// WarnBeyondHorizon flags a demand due past the planning horizon; the
	// demand is skipped, not planned.
	WarnBeyondHorizon WarningCode = "beyond_horizon"
	// WarnReleaseInPast flags a planned order whose lead time pushes the
	// release date before the run date. The release is clamped to the run
	// date; the need date cannot be met.
	WarnReleaseInPast WarningCode = "release_in_past"
	// WarnNoInventoryItem flags demand for an item that carries no inventory
	// (a service item). The demand is skipped.
	WarnNoInventoryItem WarningCode = "no_inventory_item"
	// WarnUnknownItem flags demand referencing an item missing from the
	// snapshot. The demand is skipped.
	WarnUnknownItem WarningCode = "unknown_item"
)

// Warning is a non-fatal finding of a planning run. Warnings never abort the
// run; fatal problems (BOM cycles, incommensurable units) surface as errors.
type Warning struct {
	Code   WarningCode
	ItemID string
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s [%s]: %s", w.Code, w.ItemID, w.Detail)
}
