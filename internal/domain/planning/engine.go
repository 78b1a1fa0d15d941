package planning

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/bom"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/shared"
)

// pegScale is the banker's-rounding scale used when prorating pegged shares
const pegScale = 6

// Config fixes the behavior of an Engine at construction. A run never reads
// configuration from anywhere else.
type Config struct {
	// HorizonDays bounds how far out demand is planned; zero means unbounded
	HorizonDays int
	// IncludeSafetyStock plans replenishment up to each item's safety stock
	IncludeSafetyStock bool
	// CascadeSubAssemblies offsets component need dates to the parent's
	// release date so sub-assembly supply lands before the parent starts.
	// When off, components inherit the parent's need date.
	CascadeSubAssemblies bool
	// MakeOrBuyDefault resolves items whose procurement policy is make_or_buy
	MakeOrBuyDefault OrderKind
	// ItemsFilter restricts independent and safety-stock demand seeding to
	// the listed item ids; empty seeds everything. Dependent demand exploded
	// from a seeded parent is never filtered.
	ItemsFilter []string
}

// Engine runs material requirements planning over a snapshot. It is pure and
// synchronous: no storage, no goroutines, deterministic output for a given
// snapshot and demand set.
type Engine struct {
	cfg    Config
	filter map[string]struct{}
}

// NewEngine creates an engine with the given fixed configuration
func NewEngine(cfg Config) *Engine {
	if !cfg.MakeOrBuyDefault.IsValid() {
		cfg.MakeOrBuyDefault = OrderMake
	}
	e := &Engine{cfg: cfg}
	if len(cfg.ItemsFilter) > 0 {
		e.filter = make(map[string]struct{}, len(cfg.ItemsFilter))
		for _, id := range cfg.ItemsFilter {
			e.filter[id] = struct{}{}
		}
	}
	return e
}

// Config returns the engine's fixed configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// seeds reports whether independent demand for the item enters the run
func (e *Engine) seeds(itemID string) bool {
	if e.filter == nil {
		return true
	}
	_, ok := e.filter[itemID]
	return ok
}

// Result is the complete output of one planning run
type Result struct {
	RunID         string
	TakenAt       time.Time
	PlannedOrders []*PlannedOrder
	Warnings      []Warning
}

// requirement is one gross requirement bucket during netting
type requirement struct {
	qty  decimal.Decimal
	date time.Time
	pegs []Peg
}

// Run explodes, nets and offsets the given independent demand against the
// snapshot, producing planned orders with pegging back to the demand sources.
//
// Items are processed in low-level-code order so every parent is netted before
// any of its components; dependent demand is generated only for the net
// (shortage) quantity of the parent, never the gross.
func (e *Engine) Run(snap *Snapshot, demands []Demand) (*Result, error) {
	res := &Result{
		RunID:   shared.NewID(),
		TakenAt: snap.TakenAt,
	}

	levels, err := lowLevelCodes(snap)
	if err != nil {
		return nil, err
	}

	reqs := make(map[string][]requirement)
	e.seedIndependentDemand(snap, demands, reqs, res)
	if e.cfg.IncludeSafetyStock {
		e.seedSafetyStock(snap, reqs)
	}

	// Every snapshot item is walked in level order: dependent demand lands
	// on deeper levels than the pass has reached, so nothing is missed.
	for _, itemID := range itemsByLevel(snap, levels) {
		if len(reqs[itemID]) == 0 {
			continue
		}
		if err := e.netItem(snap, snap.Items[itemID], reqs, res); err != nil {
			return nil, err
		}
	}

	sort.Slice(res.PlannedOrders, func(i, j int) bool {
		a, b := res.PlannedOrders[i], res.PlannedOrders[j]
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		if !a.NeedDate.Equal(b.NeedDate) {
			return a.NeedDate.Before(b.NeedDate)
		}
		return a.Quantity.GreaterThan(b.Quantity)
	})
	return res, nil
}

// seedIndependentDemand converts the demand list into gross requirements,
// skipping what cannot be planned.
func (e *Engine) seedIndependentDemand(snap *Snapshot, demands []Demand, reqs map[string][]requirement, res *Result) {
	horizonEnd := time.Time{}
	if e.cfg.HorizonDays > 0 {
		horizonEnd = snap.TakenAt.AddDate(0, 0, e.cfg.HorizonDays)
	}
	for _, d := range demands {
		if !e.seeds(d.ItemID) {
			continue
		}
		it := snap.Items[d.ItemID]
		if it == nil {
			res.Warnings = append(res.Warnings, Warning{
				Code: WarnUnknownItem, ItemID: d.ItemID,
				Detail: fmt.Sprintf("demand %s/%s references an item not in the snapshot", d.Source.Kind, d.Source.RefID),
			})
			continue
		}
		if !it.CarriesInventory() {
			res.Warnings = append(res.Warnings, Warning{
				Code: WarnNoInventoryItem, ItemID: d.ItemID,
				Detail: "service items are not planned",
			})
			continue
		}
		if !d.Quantity.IsPositive() {
			continue
		}
		if !horizonEnd.IsZero() && d.NeedDate.After(horizonEnd) {
			res.Warnings = append(res.Warnings, Warning{
				Code: WarnBeyondHorizon, ItemID: d.ItemID,
				Detail: fmt.Sprintf("need date %s is past the %d-day horizon", d.NeedDate.Format("2006-01-02"), e.cfg.HorizonDays),
			})
			continue
		}
		// Past-due demand is planned as due now
		need := d.NeedDate
		if need.Before(snap.TakenAt) {
			need = snap.TakenAt
		}
		reqs[d.ItemID] = append(reqs[d.ItemID], requirement{
			qty:  d.Quantity,
			date: need,
			pegs: []Peg{{Source: d.Source, Quantity: d.Quantity}},
		})
	}
}

// seedSafetyStock adds a requirement bringing each item back up to its safety
// stock level, due immediately.
func (e *Engine) seedSafetyStock(snap *Snapshot, reqs map[string][]requirement) {
	ids := make([]string, 0, len(snap.Items))
	for id := range snap.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !e.seeds(id) {
			continue
		}
		it := snap.Items[id]
		if !it.Active() || !it.CarriesInventory() || !it.SafetyStock().IsPositive() {
			continue
		}
		deficit := it.SafetyStock().Sub(snap.AvailableFor(id))
		if !deficit.IsPositive() {
			continue
		}
		reqs[id] = append(reqs[id], requirement{
			qty:  deficit,
			date: snap.TakenAt,
			pegs: []Peg{{Source: DemandSource{Kind: DemandSafetyStock, RefID: id}, Quantity: deficit}},
		})
	}
}

// netItem nets one item's gross requirements against available stock and
// scheduled receipts, emits lot-for-lot planned orders for the shortages and
// pushes dependent demand onto components of make orders.
func (e *Engine) netItem(snap *Snapshot, it *item.Item, reqs map[string][]requirement, res *Result) error {
	itemReqs := reqs[it.ID()]
	sort.SliceStable(itemReqs, func(i, j int) bool {
		if !itemReqs[i].date.Equal(itemReqs[j].date) {
			return itemReqs[i].date.Before(itemReqs[j].date)
		}
		return pegKey(itemReqs[i].pegs) < pegKey(itemReqs[j].pegs)
	})

	receipts := snap.ReceiptsFor(it.ID())
	sort.SliceStable(receipts, func(i, j int) bool {
		if !receipts[i].DueDate.Equal(receipts[j].DueDate) {
			return receipts[i].DueDate.Before(receipts[j].DueDate)
		}
		return receipts[i].RefID < receipts[j].RefID
	})

	avail := snap.AvailableFor(it.ID())
	ri := 0
	for _, req := range itemReqs {
		for ri < len(receipts) && !receipts[ri].DueDate.After(req.date) {
			avail = avail.Add(receipts[ri].Quantity)
			ri++
		}
		take := decimal.Min(avail, req.qty)
		if take.IsNegative() {
			// Negative available is an oversold position; planning does not
			// heal it, the ledger owns that problem
			take = decimal.Zero
		}
		avail = avail.Sub(take)
		short := req.qty.Sub(take)
		if !short.IsPositive() {
			continue
		}
		if err := e.emitPlannedOrder(snap, it, short, req, reqs, res); err != nil {
			return err
		}
	}
	return nil
}

// emitPlannedOrder creates one planned order covering a shortage and, for make
// orders, explodes its BOM into dependent component demand.
func (e *Engine) emitPlannedOrder(snap *Snapshot, it *item.Item, short decimal.Decimal, req requirement, reqs map[string][]requirement, res *Result) error {
	kind := e.resolveKind(it.Procurement())

	lead := it.LeadTimeDays()
	if kind == OrderMake {
		if r := snap.Routings[it.ID()]; r != nil {
			lead = r.ThroughputDays(short, snap.WorkCenters)
		}
	}
	release := req.date.AddDate(0, 0, -lead)
	if release.Before(snap.TakenAt) {
		release = snap.TakenAt
		res.Warnings = append(res.Warnings, Warning{
			Code: WarnReleaseInPast, ItemID: it.ID(),
			Detail: fmt.Sprintf("%d-day lead time cannot meet need date %s", lead, req.date.Format("2006-01-02")),
		})
	}

	po := &PlannedOrder{
		ID:          shared.NewID(),
		Kind:        kind,
		ItemID:      it.ID(),
		Quantity:    short,
		ReleaseDate: release,
		NeedDate:    req.date,
		Pegs:        proratePegs(req.pegs, short, req.qty),
		RunID:       res.RunID,
	}
	res.PlannedOrders = append(res.PlannedOrders, po)

	if kind != OrderMake {
		return nil
	}

	rev := snap.BOMs[it.ID()]
	if rev == nil {
		return bom.NewMissingActiveBOMError(it.ID())
	}
	childNeed := req.date
	if e.cfg.CascadeSubAssemblies {
		childNeed = release
	}
	for _, line := range rev.PlanningLines() {
		child := snap.Items[line.ComponentID]
		if child == nil {
			return bom.NewCatalogInconsistencyError(it.ID(),
				fmt.Sprintf("BOM line %d references unknown item %s", line.Seq, line.ComponentID))
		}
		if !child.CarriesInventory() {
			continue
		}
		childQty, err := snap.Units.Convert(line.QtyNeeded().Mul(short), line.Unit, child.StockUnit())
		if err != nil {
			return err
		}
		if !childQty.IsPositive() {
			continue
		}
		reqs[line.ComponentID] = append(reqs[line.ComponentID], requirement{
			qty:  childQty,
			date: childNeed,
			pegs: proratePegs(po.Pegs, childQty, short),
		})
	}
	return nil
}

func (e *Engine) resolveKind(p item.Procurement) OrderKind {
	switch p {
	case item.ProcurementBuy:
		return OrderBuy
	case item.ProcurementMake:
		return OrderMake
	default:
		return e.cfg.MakeOrBuyDefault
	}
}

// proratePegs scales pegs from a base quantity to a target quantity,
// preserving the target sum exactly by adjusting the last share.
func proratePegs(pegs []Peg, target, base decimal.Decimal) []Peg {
	out := make([]Peg, len(pegs))
	if target.Equal(base) {
		copy(out, pegs)
		return out
	}
	ratio := target.Div(base)
	allocated := decimal.Zero
	for i, p := range pegs {
		q := p.Quantity.Mul(ratio).RoundBank(pegScale)
		if i == len(pegs)-1 {
			q = target.Sub(allocated)
		}
		out[i] = Peg{Source: p.Source, Quantity: q}
		allocated = allocated.Add(q)
	}
	return out
}

// pegKey gives requirements a deterministic tiebreak when due the same day
func pegKey(pegs []Peg) string {
	if len(pegs) == 0 {
		return ""
	}
	p := pegs[0].Source
	return fmt.Sprintf("%s|%s|%06d", p.Kind, p.RefID, p.LineSeq)
}

// lowLevelCodes assigns each item the deepest level at which it appears in
// any BOM tree. Parents always carry a lower code than their components,
// which gives the netting order. A cycle in the catalog is fatal.
func lowLevelCodes(snap *Snapshot) (map[string]int, error) {
	levels := make(map[string]int, len(snap.Items))
	onPath := make(map[string]bool)

	var visit func(id string, depth int, path []string) error
	visit = func(id string, depth int, path []string) error {
		if onPath[id] {
			return bom.NewBOMCycleError(append(path, id))
		}
		if cur, seen := levels[id]; seen && cur >= depth {
			return nil
		}
		levels[id] = depth
		rev := snap.BOMs[id]
		if rev == nil {
			return nil
		}
		onPath[id] = true
		path = append(path, id)
		for _, line := range rev.PlanningLines() {
			if err := visit(line.ComponentID, depth+1, path); err != nil {
				return err
			}
		}
		onPath[id] = false
		return nil
	}

	ids := make([]string, 0, len(snap.Items))
	for id := range snap.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := visit(id, 0, nil); err != nil {
			return nil, err
		}
	}
	return levels, nil
}

// itemsByLevel orders all snapshot items by ascending low-level code, then
// id, for a deterministic netting pass.
func itemsByLevel(snap *Snapshot, levels map[string]int) []string {
	ids := make([]string, 0, len(snap.Items))
	for id := range snap.Items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if levels[ids[i]] != levels[ids[j]] {
			return levels[ids[i]] < levels[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
