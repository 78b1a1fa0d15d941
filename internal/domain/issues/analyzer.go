package issues

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/bom"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/production"
	"github.com/printforge/printforge/internal/domain/sales"
)

// PurchaseSupply is the remaining quantity of one open purchase order line
type PurchaseSupply struct {
	ItemID    string
	Quantity  decimal.Decimal
	DueDate   time.Time
	OrderID   string
	OrderCode string
}

// ReservationHold is stock held by somebody else's active reservation
type ReservationHold struct {
	ReservationID string
	ItemID        string
	Quantity      decimal.Decimal
	RefKind       string
	RefID         string
}

// Input is the preloaded state an analysis reads. Like the planning
// snapshot, it is assembled up front so the analyzer itself is a pure
// function with no storage access.
type Input struct {
	Now              time.Time
	Items            map[string]*item.Item
	BOMs             map[string]*bom.BOM        // active revision by parent item id
	Routings         map[string]*bom.Routing    // active revision by parent item id
	WorkCenters      map[string]*bom.WorkCenter // by work center id
	Available        map[string]decimal.Decimal // on_hand minus reserved, by item id
	ProductionOrders []*production.Order        // pegged to the subject order
	OpenPurchases    []PurchaseSupply
	OtherHolds       []ReservationHold // active reservations for other demand
}

func (in *Input) availableFor(itemID string) decimal.Decimal {
	if q, ok := in.Available[itemID]; ok {
		return q
	}
	return decimal.Zero
}

// Analyzer explains why orders cannot ship and what would unblock them
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// AnalyzeSalesOrder walks every open line of a sales order, nets finished
// stock and pegged production against the remaining demand, and drills into
// the material position of the production orders still running. The result
// enumerates issues and prioritized actions; a shippable order comes back
// with CanFulfill true and empty slices.
func (a *Analyzer) AnalyzeSalesOrder(in *Input, so *sales.Order) *SalesOrderAnalysis {
	res := &SalesOrderAnalysis{
		SalesOrderID: so.ID,
		Issues:       []Issue{},
		Actions:      []Action{},
	}
	var ready time.Time

	for _, line := range so.Lines {
		remaining := line.QtyOrdered.Sub(line.QtyShipped)
		if !remaining.IsPositive() {
			continue
		}
		it := in.Items[line.ItemID]
		if it == nil || !it.CarriesInventory() {
			continue
		}

		// Finished stock on the shelf covers demand directly
		uncovered := remaining.Sub(in.availableFor(line.ItemID))
		if !uncovered.IsPositive() {
			continue
		}

		pegged := peggedOrders(in.ProductionOrders, so.ID, line.Seq)
		for _, po := range pegged {
			// Completed output is already on the shelf and counted in
			// Available; only the remainder is future supply
			supply := po.QtyRemaining()
			if po.Status() == production.StatusQC {
				res.Issues = append(res.Issues, Issue{
					Kind: KindQualityHold, Severity: SeverityBlocking,
					ItemID: po.ItemID(), Quantity: po.QtyCompleted(),
					RefKind: "production_order", RefID: po.ID(),
					Detail: fmt.Sprintf("%s is waiting for a QC decision", po.Code()),
				})
			}
			if po.Status().IsOpen() && po.QtyRemaining().IsPositive() {
				// The line leans on supply that has not finished producing;
				// that blocks shipment regardless of the material position
				res.Issues = append(res.Issues, Issue{
					Kind: KindProductionIncomplete, Severity: SeverityBlocking,
					ItemID: po.ItemID(), Quantity: po.QtyRemaining(),
					RefKind: "production_order", RefID: po.ID(),
					Detail: fmt.Sprintf("%s has %s of %s left to produce", po.Code(), po.QtyRemaining(), po.QtyOrdered()),
				})
				res.Actions = append(res.Actions, Action{
					Kind: ActionCompleteProduction, Priority: ActionCompleteProduction.priority(),
					ItemID: po.ItemID(), Quantity: po.QtyRemaining(), RefID: po.ID(),
					Detail: fmt.Sprintf("complete %s", po.Code()),
				})
				a.analyzeMaterials(in, po, res, &ready)
			}
			uncovered = uncovered.Sub(supply)
		}

		if uncovered.IsPositive() {
			a.reportMissingSupply(in, it, uncovered, res)
		}
	}

	sortFindings(res)
	res.CanFulfill = res.BlockingCount() == 0
	if !ready.IsZero() {
		res.EstimatedReadyDate = &ready
	}
	return res
}

// AnalyzeProductionOrder reports whether one production order has the
// materials to run to completion.
func (a *Analyzer) AnalyzeProductionOrder(in *Input, po *production.Order) *ProductionOrderAnalysis {
	res := &SalesOrderAnalysis{Issues: []Issue{}, Actions: []Action{}}
	var ready time.Time
	if po.Status().IsOpen() {
		a.analyzeMaterials(in, po, res, &ready)
	}
	sortFindings(res)

	out := &ProductionOrderAnalysis{
		ProductionOrderID: po.ID(),
		Ready:             res.BlockingCount() == 0,
		Issues:            res.Issues,
		Actions:           res.Actions,
	}
	if !ready.IsZero() {
		out.EstimatedReadyDate = &ready
	}
	return out
}

// analyzeMaterials nets the production-stage BOM lines of an open production
// order against available stock, open purchases and foreign reservations.
func (a *Analyzer) analyzeMaterials(in *Input, po *production.Order, res *SalesOrderAnalysis, ready *time.Time) {
	rev := in.BOMs[po.ItemID()]
	if rev == nil {
		return
	}
	// Throughput of the remaining quantity is the floor of the ready date
	if r := in.Routings[po.ItemID()]; r != nil {
		produced := in.Now.AddDate(0, 0, r.ThroughputDays(po.QtyRemaining(), in.WorkCenters))
		raiseReady(ready, produced)
	}

	for _, line := range rev.StageLines(bom.ConsumeAtProduction) {
		needed := line.QtyNeeded().Mul(po.QtyRemaining())
		short := needed.Sub(in.availableFor(line.ComponentID))
		if !short.IsPositive() {
			continue
		}
		res.Issues = append(res.Issues, Issue{
			Kind: KindMaterialShortage, Severity: SeverityBlocking,
			ItemID: line.ComponentID, Quantity: short,
			RefKind: "production_order", RefID: po.ID(),
			Detail: fmt.Sprintf("%s needs %s more of component %s", po.Code(), short, line.ComponentID),
		})

		short = a.coverFromPurchases(in, line.ComponentID, short, res, ready)
		short = a.coverFromHolds(in, line.ComponentID, short, res)
		if short.IsPositive() {
			comp := in.Items[line.ComponentID]
			if comp != nil && comp.Procurement() != item.ProcurementMake {
				res.Actions = append(res.Actions, Action{
					Kind: ActionCreatePurchase, Priority: ActionCreatePurchase.priority(),
					ItemID: line.ComponentID, Quantity: short,
					Detail: fmt.Sprintf("purchase %s of %s", short, line.ComponentID),
				})
			} else {
				res.Actions = append(res.Actions, Action{
					Kind: ActionCreateProduction, Priority: ActionCreateProduction.priority(),
					ItemID: line.ComponentID, Quantity: short,
					Detail: fmt.Sprintf("produce %s of %s", short, line.ComponentID),
				})
			}
		}
	}
}

// coverFromPurchases offsets a shortage against open purchase lines for the
// item, emitting purchase_pending warnings and expedite actions.
func (a *Analyzer) coverFromPurchases(in *Input, itemID string, short decimal.Decimal, res *SalesOrderAnalysis, ready *time.Time) decimal.Decimal {
	for _, ps := range in.OpenPurchases {
		if ps.ItemID != itemID || !short.IsPositive() {
			continue
		}
		covered := decimal.Min(short, ps.Quantity)
		res.Issues = append(res.Issues, Issue{
			Kind: KindPurchasePending, Severity: SeverityWarning,
			ItemID: itemID, Quantity: covered,
			RefKind: "purchase_order", RefID: ps.OrderID,
			Detail: fmt.Sprintf("%s of %s arrives with %s on %s", covered, itemID, ps.OrderCode, ps.DueDate.Format("2006-01-02")),
		})
		res.Actions = append(res.Actions, Action{
			Kind: ActionExpeditePurchase, Priority: ActionExpeditePurchase.priority(),
			ItemID: itemID, Quantity: covered, RefID: ps.OrderID,
			Detail: fmt.Sprintf("expedite %s", ps.OrderCode),
		})
		raiseReady(ready, ps.DueDate)
		short = short.Sub(covered)
	}
	return short
}

// coverFromHolds surfaces stock that exists but is reserved for other demand
func (a *Analyzer) coverFromHolds(in *Input, itemID string, short decimal.Decimal, res *SalesOrderAnalysis) decimal.Decimal {
	for _, h := range in.OtherHolds {
		if h.ItemID != itemID || !short.IsPositive() {
			continue
		}
		covered := decimal.Min(short, h.Quantity)
		res.Issues = append(res.Issues, Issue{
			Kind: KindInventoryReserved, Severity: SeverityWarning,
			ItemID: itemID, Quantity: covered,
			RefKind: "reservation", RefID: h.ReservationID,
			Detail: fmt.Sprintf("%s of %s is reserved for %s %s", covered, itemID, h.RefKind, h.RefID),
		})
		res.Actions = append(res.Actions, Action{
			Kind: ActionReassignReservation, Priority: ActionReassignReservation.priority(),
			ItemID: itemID, Quantity: covered, RefID: h.ReservationID,
			Detail: fmt.Sprintf("reassign reservation held for %s %s", h.RefKind, h.RefID),
		})
		short = short.Sub(covered)
	}
	return short
}

// reportMissingSupply records demand with no pegged supply at all
func (a *Analyzer) reportMissingSupply(in *Input, it *item.Item, qty decimal.Decimal, res *SalesOrderAnalysis) {
	res.Issues = append(res.Issues, Issue{
		Kind: KindProductionMissing, Severity: SeverityBlocking,
		ItemID: it.ID(), Quantity: qty,
		Detail: fmt.Sprintf("%s of %s has no supply on order", qty, it.SKU()),
	})
	if it.Procurement() == item.ProcurementBuy {
		res.Actions = append(res.Actions, Action{
			Kind: ActionCreatePurchase, Priority: ActionCreatePurchase.priority(),
			ItemID: it.ID(), Quantity: qty,
			Detail: fmt.Sprintf("purchase %s of %s", qty, it.SKU()),
		})
		return
	}
	res.Actions = append(res.Actions, Action{
		Kind: ActionCreateProduction, Priority: ActionCreateProduction.priority(),
		ItemID: it.ID(), Quantity: qty,
		Detail: fmt.Sprintf("create a production order for %s %s", qty, it.SKU()),
	})
}

// peggedOrders filters production orders pegged to one sales order line,
// in code order for determinism.
func peggedOrders(orders []*production.Order, salesOrderID string, lineSeq int) []*production.Order {
	out := make([]*production.Order, 0, 2)
	for _, po := range orders {
		peg := po.Pegging()
		if peg == nil || peg.SalesOrderID != salesOrderID || peg.SalesOrderLine != lineSeq {
			continue
		}
		if po.Status() == production.StatusCancelled || po.Status() == production.StatusSplit {
			continue
		}
		out = append(out, po)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}

// sortFindings orders issues blocking-first and actions by priority
func sortFindings(res *SalesOrderAnalysis) {
	sort.SliceStable(res.Issues, func(i, j int) bool {
		a, b := res.Issues[i], res.Issues[j]
		if a.Severity != b.Severity {
			return a.Severity == SeverityBlocking
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ItemID < b.ItemID
	})
	sort.SliceStable(res.Actions, func(i, j int) bool {
		a, b := res.Actions[i], res.Actions[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ItemID < b.ItemID
	})
}

func raiseReady(ready *time.Time, candidate time.Time) {
	if ready.IsZero() || candidate.After(*ready) {
		*ready = candidate
	}
}
