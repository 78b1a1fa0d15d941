package shipping_test

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
	salesapp "github.com/printforge/printforge/internal/application/sales"
	shippingapp "github.com/printforge/printforge/internal/application/shipping"
	"github.com/printforge/printforge/internal/domain/bom"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/sales"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
	"github.com/printforge/printforge/internal/infrastructure/database"
)

var base = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *shippingapp.Service
	sales     *salesapp.Service
	ledger    *inventoryapp.Service
	items     *persistence.GormItemRepository
	boms      *persistence.GormBOMRepository
	salesRepo *persistence.GormSalesRepository
	clock     *shared.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewTestConnection()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	items := persistence.NewGormItemRepository(db)
	locations := persistence.NewGormLocationRepository(db)
	ledgerRepo := persistence.NewGormLedgerRepository(db)
	boms := persistence.NewGormBOMRepository(db)
	salesRepo := persistence.NewGormSalesRepository(db)
	productionRepo := persistence.NewGormProductionRepository(db)
	tx := persistence.NewGormTxManager(db)
	clock := shared.NewMockClock(base)
	units := uom.NewDefaultGraph()

	require.NoError(t, locations.Create(context.Background(), &inv.Location{
		ID: uuid.New().String(), Code: "MAIN", Name: "Main warehouse", Default: true,
	}))

	ledger := inventoryapp.NewService(ledgerRepo, locations, items, tx, clock, inv.Policy{}, nil, logger)
	salesSvc := salesapp.NewService(salesRepo, items, tx, clock, logger)
	svc := shippingapp.NewService(salesRepo, productionRepo, boms, items, ledger, units, tx, clock, logger)

	return &fixture{
		svc: svc, sales: salesSvc, ledger: ledger,
		items: items, boms: boms, salesRepo: salesRepo, clock: clock,
	}
}

func (f *fixture) newItem(t *testing.T, sku string, kind item.Kind, unit uom.Unit) *item.Item {
	t.Helper()
	procurement := item.ProcurementBuy
	if kind == item.KindFinishedGood {
		procurement = item.ProcurementMake
	}
	it, err := item.NewItem(item.NewItemParams{
		SKU: sku, Name: sku, Kind: kind, Procurement: procurement, StockUnit: unit,
	}, base)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(context.Background(), it))
	return it
}

func (f *fixture) stock(t *testing.T, itemID string, qty int64) {
	t.Helper()
	_, err := f.ledger.Post(context.Background(), inventoryapp.PostParams{
		ItemID: itemID, Quantity: decimal.NewFromInt(qty),
		Kind: inv.TxnReceipt, RefKind: "test", RefID: itemID,
	})
	require.NoError(t, err)
}

// readyOrder creates a confirmed order and forces it to ready_to_ship
func (f *fixture) readyOrder(t *testing.T, itemID string, qty int64) *sales.Order {
	t.Helper()
	ctx := context.Background()
	order, err := f.sales.Create(ctx, "cust-1", base.AddDate(0, 0, 7), []salesapp.LineParams{
		{ItemID: itemID, Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.NewFromInt(25)},
	})
	require.NoError(t, err)
	order, err = f.sales.Confirm(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, order.Transition(sales.StatusReadyToShip, f.clock.Now()))
	require.NoError(t, f.salesRepo.Update(ctx, order))
	return order
}

func TestShipDrawsDownGoodsAndPackaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg := f.newItem(t, "FG-00001", item.KindFinishedGood, uom.UnitEach)
	mat := f.newItem(t, "MAT-PLA-BLK", item.KindComponent, uom.UnitGram)
	box := f.newItem(t, "SP-BOX", item.KindSupply, uom.UnitEach)

	rev, err := bom.NewBOM(fg.ID(), 1, base, []bom.Line{
		{Seq: 10, ComponentID: mat.ID(), QtyPer: decimal.NewFromInt(50), Unit: uom.UnitGram, Stage: bom.ConsumeAtProduction},
		{Seq: 20, ComponentID: box.ID(), QtyPer: decimal.NewFromInt(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtShipping},
	})
	require.NoError(t, err)
	require.NoError(t, f.boms.Create(ctx, rev))

	f.stock(t, fg.ID(), 5)
	f.stock(t, box.ID(), 10)
	order := f.readyOrder(t, fg.ID(), 5)

	result, err := f.svc.Ship(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusShipped, result.Order.Status)
	require.Len(t, result.Shipments, 1)
	require.Len(t, result.Consumption, 1, "one box per unit at the shipping stage")

	fgLevel, err := f.ledger.StockLevelFor(ctx, fg.ID())
	require.NoError(t, err)
	assert.True(t, fgLevel.OnHand.IsZero())

	boxLevel, err := f.ledger.StockLevelFor(ctx, box.ID())
	require.NoError(t, err)
	assert.True(t, boxLevel.OnHand.Equal(decimal.NewFromInt(5)))

	// production-stage material is untouched by shipping
	matLevel, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, matLevel.OnHand.IsZero())

	txns, err := f.ledger.Trace(ctx, "sales_order", order.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestShipBlockedWhenGoodsShort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg := f.newItem(t, "FG-00002", item.KindFinishedGood, uom.UnitEach)
	f.stock(t, fg.ID(), 3)
	order := f.readyOrder(t, fg.ID(), 5)

	_, err := f.svc.Ship(ctx, order.ID)
	require.Error(t, err)

	// nothing moved
	level, err := f.ledger.StockLevelFor(ctx, fg.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(3)))

	got, err := f.sales.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusReadyToShip, got.Status)
}

func TestShipBlockedWhenPackagingShort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg := f.newItem(t, "FG-00003", item.KindFinishedGood, uom.UnitEach)
	box := f.newItem(t, "SP-BOX", item.KindSupply, uom.UnitEach)

	rev, err := bom.NewBOM(fg.ID(), 1, base, []bom.Line{
		{Seq: 10, ComponentID: box.ID(), QtyPer: decimal.NewFromInt(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtShipping},
	})
	require.NoError(t, err)
	require.NoError(t, f.boms.Create(ctx, rev))

	f.stock(t, fg.ID(), 5)
	f.stock(t, box.ID(), 2)
	order := f.readyOrder(t, fg.ID(), 5)

	_, err = f.svc.Ship(ctx, order.ID)
	require.Error(t, err)

	level, err := f.ledger.StockLevelFor(ctx, fg.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(5)), "the shipment rolls back whole")
}

func TestShipRequiresReadyToShip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg := f.newItem(t, "FG-00004", item.KindFinishedGood, uom.UnitEach)
	f.stock(t, fg.ID(), 5)

	order, err := f.sales.Create(ctx, "cust-1", base, []salesapp.LineParams{
		{ItemID: fg.ID(), Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(25)},
	})
	require.NoError(t, err)
	order, err = f.sales.Confirm(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.svc.Ship(ctx, order.ID)
	require.Error(t, err)
}

func TestShipUnknownOrderRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Ship(context.Background(), "no-such-order")
	require.Error(t, err)
}
