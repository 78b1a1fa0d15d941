package issues

import (
	"time"

	"github.com/shopspring/decimal"
)

// Issue is one finding about why an order cannot ship today
type Issue struct {
	Kind     Kind
	Severity Severity
	ItemID   string
	Quantity decimal.Decimal // the quantity at stake, in the item's stock unit
	RefKind  string          // production_order, purchase_order or reservation
	RefID    string
	Detail   string
}

// Action is one suggested remediation, ordered by Priority ascending
type Action struct {
	Kind     ActionKind
	Priority int
	ItemID   string
	Quantity decimal.Decimal
	RefID    string
	Detail   string
}

// SalesOrderAnalysis is the complete fulfillment picture for one sales
// order. A clean order is first-class data: CanFulfill true, empty slices.
type SalesOrderAnalysis struct {
	SalesOrderID       string
	CanFulfill         bool
	Issues             []Issue
	Actions            []Action
	EstimatedReadyDate *time.Time
}

// BlockingCount returns the number of blocking issues
func (a *SalesOrderAnalysis) BlockingCount() int {
	n := 0
	for _, i := range a.Issues {
		if i.Severity == SeverityBlocking {
			n++
		}
	}
	return n
}

// ProductionOrderAnalysis is the material readiness picture for one
// production order.
type ProductionOrderAnalysis struct {
	ProductionOrderID  string
	Ready              bool
	Issues             []Issue
	Actions            []Action
	EstimatedReadyDate *time.Time
}
