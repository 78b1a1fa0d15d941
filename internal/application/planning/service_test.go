package planning_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/internal/adapters/persistence"
	inventoryapp "github.com/printforge/printforge/internal/application/inventory"
	planningapp "github.com/printforge/printforge/internal/application/planning"
	salesapp "github.com/printforge/printforge/internal/application/sales"
	"github.com/printforge/printforge/internal/domain/bom"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/planning"
	"github.com/printforge/printforge/internal/domain/production"
	"github.com/printforge/printforge/internal/domain/purchasing"
	"github.com/printforge/printforge/internal/domain/sales"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
	"github.com/printforge/printforge/internal/infrastructure/database"
)

var base = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *planningapp.Service
	sales    *salesapp.Service
	ledger   *inventoryapp.Service
	items    *persistence.GormItemRepository
	boms     *persistence.GormBOMRepository
	purchase *persistence.GormPurchasingRepository
	clock    *shared.MockClock
}

func newFixture(t *testing.T, cfg planning.Config) *fixture {
	t.Helper()
	db, err := database.NewTestConnection()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	items := persistence.NewGormItemRepository(db)
	locations := persistence.NewGormLocationRepository(db)
	ledgerRepo := persistence.NewGormLedgerRepository(db)
	boms := persistence.NewGormBOMRepository(db)
	routings := persistence.NewGormRoutingRepository(db)
	workCenters := persistence.NewGormWorkCenterRepository(db)
	salesRepo := persistence.NewGormSalesRepository(db)
	productionRepo := persistence.NewGormProductionRepository(db)
	purchasingRepo := persistence.NewGormPurchasingRepository(db)
	planned := persistence.NewGormPlannedOrderRepository(db)
	tx := persistence.NewGormTxManager(db)
	clock := shared.NewMockClock(base)
	units := uom.NewDefaultGraph()

	require.NoError(t, locations.Create(context.Background(), &inv.Location{
		ID: uuid.New().String(), Code: "MAIN", Name: "Main warehouse", Default: true,
	}))

	ledger := inventoryapp.NewService(ledgerRepo, locations, items, tx, clock, inv.Policy{}, nil, logger)
	salesSvc := salesapp.NewService(salesRepo, items, tx, clock, logger)
	loader := persistence.NewSnapshotLoader(items, boms, routings, workCenters, ledgerRepo, purchasingRepo, productionRepo, units, clock)
	svc := planningapp.NewService(loader, planning.NewEngine(cfg), planned, salesRepo, productionRepo, purchasingRepo, tx, clock, nil, logger)

	return &fixture{
		svc: svc, sales: salesSvc, ledger: ledger,
		items: items, boms: boms, purchase: purchasingRepo, clock: clock,
	}
}

func defaultConfig() planning.Config {
	return planning.Config{HorizonDays: 60, CascadeSubAssemblies: true, MakeOrBuyDefault: planning.OrderMake}
}

// printedPart seeds a make item with a two-day lead time consuming 50 g of a
// bought material per unit.
func (f *fixture) printedPart(t *testing.T) (fg, mat *item.Item) {
	t.Helper()
	ctx := context.Background()
	lead := 2
	fg, err := item.NewItem(item.NewItemParams{
		SKU: "FG-00001", Name: "Benchy", Kind: item.KindFinishedGood,
		Procurement: item.ProcurementMake, StockUnit: uom.UnitEach, LeadTimeDays: lead,
	}, base)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(ctx, fg))

	mat, err = item.NewItem(item.NewItemParams{
		SKU: "MAT-PLA-BLK", Name: "PLA Black", Kind: item.KindComponent,
		Procurement: item.ProcurementBuy, StockUnit: uom.UnitGram, LeadTimeDays: 5,
	}, base)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(ctx, mat))

	rev, err := bom.NewBOM(fg.ID(), 1, base, []bom.Line{
		{Seq: 10, ComponentID: mat.ID(), QtyPer: decimal.NewFromInt(50), Unit: uom.UnitGram, Stage: bom.ConsumeAtProduction},
	})
	require.NoError(t, err)
	require.NoError(t, f.boms.Create(ctx, rev))
	return fg, mat
}

func (f *fixture) stock(t *testing.T, itemID string, qty int64) {
	t.Helper()
	_, err := f.ledger.Post(context.Background(), inventoryapp.PostParams{
		ItemID:   itemID,
		Quantity: decimal.NewFromInt(qty),
		Kind:     inv.TxnReceipt,
		RefKind:  "test",
		RefID:    itemID,
	})
	require.NoError(t, err)
}

func (f *fixture) confirmedOrder(t *testing.T, itemID string, qty int64, need time.Time) *sales.Order {
	t.Helper()
	ctx := context.Background()
	order, err := f.sales.Create(ctx, "cust-1", need, []salesapp.LineParams{
		{ItemID: itemID, Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.NewFromInt(20)},
	})
	require.NoError(t, err)
	order, err = f.sales.Confirm(ctx, order.ID)
	require.NoError(t, err)
	return order
}

func TestRunExplodesDemandThroughTheBOM(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 300)
	need := base.AddDate(0, 0, 14)
	so := f.confirmedOrder(t, fg.ID(), 10, need)

	result, err := f.svc.Run(ctx, planningapp.RunOptions{})
	require.NoError(t, err)
	require.Len(t, result.PlannedOrders, 2)
	assert.Empty(t, result.Warnings)

	byItem := map[string]*planning.PlannedOrder{}
	for _, po := range result.PlannedOrders {
		byItem[po.ItemID] = po
	}

	makeOrder := byItem[fg.ID()]
	require.NotNil(t, makeOrder)
	assert.Equal(t, planning.OrderMake, makeOrder.Kind)
	assert.True(t, makeOrder.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, makeOrder.NeedDate.Equal(need))
	assert.True(t, makeOrder.ReleaseDate.Equal(need.AddDate(0, 0, -2)), "release offset by the item lead time")
	require.Len(t, makeOrder.Pegs, 1)
	assert.Equal(t, planning.DemandSalesLine, makeOrder.Pegs[0].Source.Kind)
	assert.Equal(t, so.ID, makeOrder.Pegs[0].Source.RefID)

	// 10 units * 50 g = 500 g gross, 300 g on hand
	buyOrder := byItem[mat.ID()]
	require.NotNil(t, buyOrder)
	assert.Equal(t, planning.OrderBuy, buyOrder.Kind)
	assert.True(t, buyOrder.Quantity.Equal(decimal.NewFromInt(200)), "got %s", buyOrder.Quantity)
	assert.True(t, buyOrder.NeedDate.Equal(makeOrder.ReleaseDate), "components land before the parent starts")

	stored, err := f.svc.ListPlannedOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRunReplacesThePreviousRun(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 10000)
	f.confirmedOrder(t, fg.ID(), 5, base.AddDate(0, 0, 10))

	first, err := f.svc.Run(ctx, planningapp.RunOptions{})
	require.NoError(t, err)
	second, err := f.svc.Run(ctx, planningapp.RunOptions{})
	require.NoError(t, err)
	require.NotEqual(t, first.RunID, second.RunID)

	stored, err := f.svc.ListPlannedOrders(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	for _, po := range stored {
		assert.Equal(t, second.RunID, po.RunID)
	}
}

func TestScheduledPurchaseReceiptsNetAgainstDemand(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.confirmedOrder(t, fg.ID(), 10, base.AddDate(0, 0, 14))

	// an open purchase order covers the full 500 g component need
	po, err := purchasing.NewOrder("PUR-000001", "vendor-1", base.AddDate(0, 0, 5), []purchasing.Line{
		{Seq: 1, ItemID: mat.ID(), QtyOrdered: decimal.NewFromInt(500)},
	}, base)
	require.NoError(t, err)
	require.NoError(t, po.Place(base))
	require.NoError(t, f.purchase.Create(ctx, po))

	result, err := f.svc.Run(ctx, planningapp.RunOptions{})
	require.NoError(t, err)
	require.Len(t, result.PlannedOrders, 1, "only the make order remains")
	assert.Equal(t, fg.ID(), result.PlannedOrders[0].ItemID)
}

func TestSafetyStockSeedsReplenishment(t *testing.T) {
	cfg := defaultConfig()
	cfg.IncludeSafetyStock = true
	f := newFixture(t, cfg)
	ctx := context.Background()

	mat, err := item.NewItem(item.NewItemParams{
		SKU: "MAT-PETG-RED", Name: "PETG Red", Kind: item.KindComponent,
		Procurement: item.ProcurementBuy, StockUnit: uom.UnitGram,
		SafetyStock: decimal.NewFromInt(1000), LeadTimeDays: 5,
	}, base)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(ctx, mat))
	f.stock(t, mat.ID(), 300)

	result, err := f.svc.Run(ctx, planningapp.RunOptions{})
	require.NoError(t, err)
	require.Len(t, result.PlannedOrders, 1)

	po := result.PlannedOrders[0]
	assert.Equal(t, planning.OrderBuy, po.Kind)
	assert.True(t, po.Quantity.Equal(decimal.NewFromInt(700)))
	require.Len(t, po.Pegs, 1)
	assert.Equal(t, planning.DemandSafetyStock, po.Pegs[0].Source.Kind)
}

func TestDemandBeyondHorizonIsWarnedNotPlanned(t *testing.T) {
	cfg := defaultConfig()
	cfg.HorizonDays = 7
	f := newFixture(t, cfg)
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 10000)
	f.confirmedOrder(t, fg.ID(), 5, base.AddDate(0, 0, 30))

	result, err := f.svc.Run(context.Background(), planningapp.RunOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.PlannedOrders)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, planning.WarnBeyondHorizon, result.Warnings[0].Code)
}

func TestRunOptionsOverrideConfiguredBehavior(t *testing.T) {
	cfg := defaultConfig()
	cfg.HorizonDays = 7
	f := newFixture(t, cfg)
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 10000)
	f.confirmedOrder(t, fg.ID(), 5, base.AddDate(0, 0, 30))

	result, err := f.svc.Run(ctx, planningapp.RunOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.PlannedOrders, "demand sits past the configured horizon")

	horizon := 60
	result, err = f.svc.Run(ctx, planningapp.RunOptions{HorizonDays: &horizon})
	require.NoError(t, err)
	require.Len(t, result.PlannedOrders, 1)
	assert.Equal(t, fg.ID(), result.PlannedOrders[0].ItemID)
	assert.Empty(t, result.Warnings)
}

func TestRunOptionsCanSkipSafetyStock(t *testing.T) {
	cfg := defaultConfig()
	cfg.IncludeSafetyStock = true
	f := newFixture(t, cfg)
	ctx := context.Background()

	mat, err := item.NewItem(item.NewItemParams{
		SKU: "MAT-ASA-BLK", Name: "ASA Black", Kind: item.KindComponent,
		Procurement: item.ProcurementBuy, StockUnit: uom.UnitGram,
		SafetyStock: decimal.NewFromInt(1000), LeadTimeDays: 5,
	}, base)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(ctx, mat))
	f.stock(t, mat.ID(), 300)

	result, err := f.svc.Run(ctx, planningapp.RunOptions{})
	require.NoError(t, err)
	require.Len(t, result.PlannedOrders, 1)

	off := false
	result, err = f.svc.Run(ctx, planningapp.RunOptions{IncludeSafetyStock: &off})
	require.NoError(t, err)
	assert.Empty(t, result.PlannedOrders)
}

func TestRunItemsFilterRestrictsSeededDemand(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 300)

	nozzle, err := item.NewItem(item.NewItemParams{
		SKU: "SP-00001", Name: "Nozzle 0.4mm", Kind: item.KindSupply,
		Procurement: item.ProcurementBuy, StockUnit: uom.UnitEach, LeadTimeDays: 3,
	}, base)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(ctx, nozzle))

	need := base.AddDate(0, 0, 14)
	f.confirmedOrder(t, fg.ID(), 10, need)
	f.confirmedOrder(t, nozzle.ID(), 4, need)

	result, err := f.svc.Run(ctx, planningapp.RunOptions{ItemIDs: []string{fg.ID()}})
	require.NoError(t, err)
	require.Len(t, result.PlannedOrders, 2, "the filtered parent still explodes its components")
	for _, po := range result.PlannedOrders {
		assert.NotEqual(t, nozzle.ID(), po.ItemID)
	}

	result, err = f.svc.Run(ctx, planningapp.RunOptions{})
	require.NoError(t, err)
	assert.Len(t, result.PlannedOrders, 3)
}

func TestFirmMakeOrderCreatesPeggedProductionOrder(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 10000)
	so := f.confirmedOrder(t, fg.ID(), 10, base.AddDate(0, 0, 14))

	_, err := f.svc.Run(ctx, planningapp.RunOptions{})
	require.NoError(t, err)
	stored, err := f.svc.ListPlannedOrders(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	firmed, err := f.svc.Firm(ctx, stored[0].ID, "")
	require.NoError(t, err)
	require.NotNil(t, firmed.ProductionOrder)
	assert.Nil(t, firmed.PurchaseOrder)

	order := firmed.ProductionOrder
	assert.Equal(t, "PO-000001", order.Code())
	assert.Equal(t, production.StatusDraft, order.Status())
	assert.True(t, order.QtyOrdered().Equal(decimal.NewFromInt(10)))
	require.NotNil(t, order.Pegging())
	assert.Equal(t, so.ID, order.Pegging().SalesOrderID)

	remaining, err := f.svc.ListPlannedOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining, "firming consumes the planned order")
}

func TestFirmBuyOrderCreatesDraftPurchase(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.confirmedOrder(t, fg.ID(), 10, base.AddDate(0, 0, 14))

	_, err := f.svc.Run(ctx, planningapp.RunOptions{})
	require.NoError(t, err)
	stored, err := f.svc.ListPlannedOrders(ctx)
	require.NoError(t, err)

	var buy *planning.PlannedOrder
	for _, po := range stored {
		if po.Kind == planning.OrderBuy {
			buy = po
		}
	}
	require.NotNil(t, buy)

	firmed, err := f.svc.Firm(ctx, buy.ID, "vendor-7")
	require.NoError(t, err)
	require.NotNil(t, firmed.PurchaseOrder)

	order := firmed.PurchaseOrder
	assert.Equal(t, purchasing.StatusDraft, order.Status)
	assert.Equal(t, "vendor-7", order.VendorID)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, mat.ID(), order.Lines[0].ItemID)
	assert.True(t, order.Lines[0].QtyOrdered.Equal(decimal.NewFromInt(500)), "nothing on hand, the full need is bought")
}

func TestFirmUnknownPlannedOrderRejected(t *testing.T) {
	f := newFixture(t, defaultConfig())
	_, err := f.svc.Firm(context.Background(), "no-such-planned-order", "")
	require.Error(t, err)
}
