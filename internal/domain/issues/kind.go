package issues

// Kind classifies a fulfillment blocker or risk
type Kind string

const (
	// KindProductionIncomplete: a pegged production order exists but has not
	// finished yet
	KindProductionIncomplete Kind = "production_incomplete"
	// KindProductionMissing: demand for a make item has no pegged production
	// order and no finished stock
	KindProductionMissing Kind = "production_missing"
	// KindMaterialShortage: a component of a pegged production order is not
	// available in the quantity the order needs
	KindMaterialShortage Kind = "material_shortage"
	// KindPurchasePending: an open purchase order would cover a shortage once
	// it arrives
	KindPurchasePending Kind = "purchase_pending"
	// KindInventoryReserved: stock physically exists but is reserved for
	// other demand
	KindInventoryReserved Kind = "inventory_reserved"
	// KindQualityHold: a pegged production order is waiting in QC
	KindQualityHold Kind = "quality_hold"
)

// Severity splits findings into hard blockers and soft risks
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityWarning  Severity = "warning"
)

// ActionKind names a remediation the analyzer can suggest
type ActionKind string

// Action kinds in priority order: expediting existing supply always beats
// creating new supply, and touching reservations is the last resort.
const (
	ActionExpeditePurchase    ActionKind = "expedite_purchase"
	ActionCreatePurchase      ActionKind = "create_purchase"
	ActionCompleteProduction  ActionKind = "complete_production"
	ActionCreateProduction    ActionKind = "create_production"
	ActionReassignReservation ActionKind = "reassign_reservation"
)

// priority returns the sort rank of an action kind, lowest first
func (k ActionKind) priority() int {
	switch k {
	case ActionExpeditePurchase:
		return 1
	case ActionCreatePurchase:
		return 2
	case ActionCompleteProduction:
		return 3
	case ActionCreateProduction:
		return 4
	case ActionReassignReservation:
		return 5
	default:
		return 6
	}
}
