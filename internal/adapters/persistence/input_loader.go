package persistence

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/printforge/printforge/internal/domain/bom"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/issues"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/production"
	"github.com/printforge/printforge/internal/domain/purchasing"
	"github.com/printforge/printforge/internal/domain/sales"
	"github.com/printforge/printforge/internal/domain/shared"
)

// InputLoader assembles the preloaded analyzer input for one subject order
type InputLoader struct {
	sales       sales.Repository
	production  production.Repository
	purchasing  purchasing.Repository
	items       item.Repository
	boms        bom.Repository
	routings    bom.RoutingRepository
	workCenters bom.WorkCenterRepository
	ledger      inv.Repository
	clock       shared.Clock
}

func NewInputLoader(
	salesRepo sales.Repository,
	productionRepo production.Repository,
	purchasingRepo purchasing.Repository,
	items item.Repository,
	boms bom.Repository,
	routings bom.RoutingRepository,
	workCenters bom.WorkCenterRepository,
	ledger inv.Repository,
	clock shared.Clock,
) *InputLoader {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &InputLoader{
		sales:       salesRepo,
		production:  productionRepo,
		purchasing:  purchasingRepo,
		items:       items,
		boms:        boms,
		routings:    routings,
		workCenters: workCenters,
		ledger:      ledger,
		clock:       clock,
	}
}

// ForSalesOrder loads the analysis input for one sales order: the order, its
// pegged production orders, and the shared catalog/stock/supply state.
func (l *InputLoader) ForSalesOrder(ctx context.Context, salesOrderID string) (*issues.Input, *sales.Order, error) {
	so, err := l.sales.FindByID(ctx, salesOrderID)
	if err != nil {
		return nil, nil, err
	}
	if so == nil {
		so, err = l.sales.FindByNumber(ctx, salesOrderID)
		if err != nil {
			return nil, nil, err
		}
	}
	if so == nil {
		return nil, nil, sales.NewUnknownOrderError(salesOrderID)
	}

	pegged, err := l.production.ListBySalesOrder(ctx, so.ID)
	if err != nil {
		return nil, nil, err
	}

	ownRefs := map[string]map[string]bool{
		"sales_order": {so.ID: true},
	}
	for _, po := range pegged {
		if ownRefs["production_order"] == nil {
			ownRefs["production_order"] = map[string]bool{}
		}
		ownRefs["production_order"][po.ID()] = true
	}

	input, err := l.loadShared(ctx, ownRefs)
	if err != nil {
		return nil, nil, err
	}
	input.ProductionOrders = pegged
	return input, so, nil
}

// ForProductionOrder loads the analysis input for one production order
func (l *InputLoader) ForProductionOrder(ctx context.Context, productionOrderID string) (*issues.Input, *production.Order, error) {
	po, err := l.production.FindByID(ctx, productionOrderID)
	if err != nil {
		return nil, nil, err
	}
	if po == nil {
		po, err = l.production.FindByCode(ctx, productionOrderID)
		if err != nil {
			return nil, nil, err
		}
	}
	if po == nil {
		return nil, nil, production.NewUnknownOrderError(productionOrderID)
	}

	ownRefs := map[string]map[string]bool{
		"production_order": {po.ID(): true},
	}
	input, err := l.loadShared(ctx, ownRefs)
	if err != nil {
		return nil, nil, err
	}
	input.ProductionOrders = []*production.Order{po}
	return input, po, nil
}

// loadShared fans out the catalog, stock and supply reads common to both
// subjects. ownRefs marks the reservations belonging to the subject itself so
// they are not reported as foreign holds.
func (l *InputLoader) loadShared(ctx context.Context, ownRefs map[string]map[string]bool) (*issues.Input, error) {
	now := l.clock.Now()
	input := &issues.Input{Now: now}

	active := true
	var (
		items         []*item.Item
		workCenters   []*bom.WorkCenter
		balances      []*inv.Balance
		openPurchases []*purchasing.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = l.items.List(gctx, item.ListFilter{Active: &active})
		return err
	})
	g.Go(func() error {
		var err error
		input.BOMs, err = l.boms.AllActive(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		input.Routings, err = l.routings.AllActive(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		workCenters, err = l.workCenters.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		balances, err = l.ledger.AllBalances(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		openPurchases, err = l.purchasing.ListOpen(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	input.Items = make(map[string]*item.Item, len(items))
	for _, it := range items {
		input.Items[it.ID()] = it
	}
	input.WorkCenters = make(map[string]*bom.WorkCenter, len(workCenters))
	for _, wc := range workCenters {
		input.WorkCenters[wc.ID] = wc
	}
	input.Available = availableByItem(balances)

	for _, po := range openPurchases {
		for _, line := range po.Lines {
			remaining := line.Remaining()
			if !remaining.IsPositive() {
				continue
			}
			input.OpenPurchases = append(input.OpenPurchases, issues.PurchaseSupply{
				ItemID:    line.ItemID,
				Quantity:  remaining,
				DueDate:   po.ExpectedDate,
				OrderID:   po.ID,
				OrderCode: po.Code,
			})
		}
	}

	holds, err := l.foreignHolds(ctx, balances, ownRefs)
	if err != nil {
		return nil, err
	}
	input.OtherHolds = holds
	return input, nil
}

// foreignHolds collects active reservations not held by the subject order
func (l *InputLoader) foreignHolds(ctx context.Context, balances []*inv.Balance, ownRefs map[string]map[string]bool) ([]issues.ReservationHold, error) {
	var out []issues.ReservationHold
	for _, b := range balances {
		if !b.Reserved.IsPositive() {
			continue
		}
		reservations, err := l.ledger.ActiveReservationsForItem(ctx, b.ItemID, b.LocationID)
		if err != nil {
			return nil, err
		}
		for _, res := range reservations {
			if ownRefs[res.RefKind()][res.RefID()] {
				continue
			}
			remaining := res.Remaining()
			if !remaining.IsPositive() {
				continue
			}
			out = append(out, issues.ReservationHold{
				ReservationID: res.ID(),
				ItemID:        res.ItemID(),
				Quantity:      remaining,
				RefKind:       res.RefKind(),
				RefID:         res.RefID(),
			})
		}
	}
	return out, nil
}
