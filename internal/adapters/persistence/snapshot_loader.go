package persistence

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/printforge/printforge/internal/domain/bom"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/planning"
	"github.com/printforge/printforge/internal/domain/production"
	"github.com/printforge/printforge/internal/domain/purchasing"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
)

// SnapshotLoader assembles the preloaded planning snapshot. The independent
// reads fan out in parallel; the engine then runs purely over the result.
type SnapshotLoader struct {
	items       item.Repository
	boms        bom.Repository
	routings    bom.RoutingRepository
	workCenters bom.WorkCenterRepository
	ledger      inv.Repository
	purchasing  purchasing.Repository
	production  production.Repository
	units       *uom.Graph
	clock       shared.Clock
}

func NewSnapshotLoader(
	items item.Repository,
	boms bom.Repository,
	routings bom.RoutingRepository,
	workCenters bom.WorkCenterRepository,
	ledger inv.Repository,
	purchasingRepo purchasing.Repository,
	productionRepo production.Repository,
	units *uom.Graph,
	clock shared.Clock,
) *SnapshotLoader {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &SnapshotLoader{
		items:       items,
		boms:        boms,
		routings:    routings,
		workCenters: workCenters,
		ledger:      ledger,
		purchasing:  purchasingRepo,
		production:  productionRepo,
		units:       units,
		clock:       clock,
	}
}

// Load builds a point-in-time snapshot of items, catalog, balances and open
// supply.
func (l *SnapshotLoader) Load(ctx context.Context) (*planning.Snapshot, error) {
	now := l.clock.Now()
	snap := &planning.Snapshot{
		TakenAt: now,
		Units:   l.units,
	}

	active := true
	var (
		items          []*item.Item
		workCenters    []*bom.WorkCenter
		balances       []*inv.Balance
		openPurchases  []*purchasing.Order
		openProduction []*production.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = l.items.List(gctx, item.ListFilter{Active: &active})
		return err
	})
	g.Go(func() error {
		var err error
		snap.BOMs, err = l.boms.AllActive(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Routings, err = l.routings.AllActive(gctx)
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
	g.Go(func() error {
		var err error
		openProduction, err = l.production.ListOpen(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.Items = make(map[string]*item.Item, len(items))
	for _, it := range items {
		snap.Items[it.ID()] = it
	}
	snap.WorkCenters = make(map[string]*bom.WorkCenter, len(workCenters))
	for _, wc := range workCenters {
		snap.WorkCenters[wc.ID] = wc
	}
	snap.Available = availableByItem(balances)
	snap.Receipts = scheduledReceipts(openPurchases, openProduction)
	return snap, nil
}

// availableByItem sums on_hand minus reserved over locations
func availableByItem(balances []*inv.Balance) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, b := range balances {
		out[b.ItemID] = out[b.ItemID].Add(b.Available())
	}
	return out
}

// scheduledReceipts collects open supply: remaining purchase line quantities
// due on the PO expected date, and the uncompleted remainder of open
// production orders due on their needed date. Draft purchase orders are not
// supply yet.
func scheduledReceipts(openPurchases []*purchasing.Order, openProduction []*production.Order) []planning.ScheduledReceipt {
	var out []planning.ScheduledReceipt
	for _, po := range openPurchases {
		for _, line := range po.Lines {
			remaining := line.Remaining()
			if !remaining.IsPositive() {
				continue
			}
			out = append(out, planning.ScheduledReceipt{
				ItemID:   line.ItemID,
				Quantity: remaining,
				DueDate:  po.ExpectedDate,
				Source:   planning.ReceiptPurchaseOrder,
				RefID:    po.ID,
			})
		}
	}
	for _, mo := range openProduction {
		if mo.Status() == production.StatusDraft {
			continue
		}
		remaining := mo.QtyRemaining()
		if !remaining.IsPositive() {
			continue
		}
		out = append(out, planning.ScheduledReceipt{
			ItemID:   mo.ItemID(),
			Quantity: remaining,
			DueDate:  mo.NeededDate(),
			Source:   planning.ReceiptProductionOrder,
			RefID:    mo.ID(),
		})
	}
	return out
}
