package production_test

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
	productionapp "github.com/printforge/printforge/internal/application/production"
	salesapp "github.com/printforge/printforge/internal/application/sales"
	"github.com/printforge/printforge/internal/domain/bom"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/production"
	"github.com/printforge/printforge/internal/domain/sales"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
	"github.com/printforge/printforge/internal/infrastructure/database"
)

var base = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *productionapp.Service
	sales    *salesapp.Service
	ledger   *inventoryapp.Service
	items    *persistence.GormItemRepository
	boms     *persistence.GormBOMRepository
	invRepo  *persistence.GormLedgerRepository
	salesRep *persistence.GormSalesRepository
	orders   *persistence.GormProductionRepository
	clock    *shared.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithPolicy(t, productionapp.Policy{AutoReadyToShip: true})
}

func newFixtureWithPolicy(t *testing.T, policy productionapp.Policy) *fixture {
	t.Helper()
	db, err := database.NewTestConnection()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	items := persistence.NewGormItemRepository(db)
	locations := persistence.NewGormLocationRepository(db)
	invRepo := persistence.NewGormLedgerRepository(db)
	boms := persistence.NewGormBOMRepository(db)
	routings := persistence.NewGormRoutingRepository(db)
	salesRepo := persistence.NewGormSalesRepository(db)
	orders := persistence.NewGormProductionRepository(db)
	tx := persistence.NewGormTxManager(db)
	clock := shared.NewMockClock(base)
	units := uom.NewDefaultGraph()

	require.NoError(t, locations.Create(context.Background(), &inv.Location{
		ID: uuid.New().String(), Code: "MAIN", Name: "Main warehouse", Default: true,
	}))

	ledger := inventoryapp.NewService(invRepo, locations, items, tx, clock, inv.Policy{}, nil, logger)
	salesSvc := salesapp.NewService(salesRepo, items, tx, clock, logger)
	svc := productionapp.NewService(orders, salesRepo, boms, routings, items, ledger, invRepo,
		units, tx, clock, policy, nil, logger)

	return &fixture{
		svc: svc, sales: salesSvc, ledger: ledger, items: items,
		boms: boms, invRepo: invRepo, salesRep: salesRepo, orders: orders, clock: clock,
	}
}

func (f *fixture) newItem(t *testing.T, sku string, kind item.Kind, proc item.Procurement, unit uom.Unit) *item.Item {
	t.Helper()
	it, err := item.NewItem(item.NewItemParams{
		SKU: sku, Name: sku, Kind: kind, Procurement: proc, StockUnit: unit,
	}, base)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(context.Background(), it))
	return it
}

// printedPart returns a make finished good consuming 50 g of material per unit
func (f *fixture) printedPart(t *testing.T) (fg, mat *item.Item) {
	t.Helper()
	fg = f.newItem(t, "FG-00001", item.KindFinishedGood, item.ProcurementMake, uom.UnitEach)
	mat = f.newItem(t, "MAT-PLA-BLK", item.KindComponent, item.ProcurementBuy, uom.UnitGram)

	rev, err := bom.NewBOM(fg.ID(), 1, base.AddDate(0, -1, 0), []bom.Line{
		{Seq: 10, ComponentID: mat.ID(), QtyPer: decimal.NewFromInt(50), Unit: uom.UnitGram, Stage: bom.ConsumeAtProduction},
	})
	require.NoError(t, err)
	require.NoError(t, f.boms.Create(context.Background(), rev))
	return fg, mat
}

func (f *fixture) stock(t *testing.T, itemID string, qty int64) {
	t.Helper()
	_, err := f.ledger.Post(context.Background(), inventoryapp.PostParams{
		ItemID: itemID, Quantity: decimal.NewFromInt(qty),
		Kind: inv.TxnReceipt, RefKind: "test", RefID: "seed",
	})
	require.NoError(t, err)
}

func (f *fixture) create(t *testing.T, itemID string, qty int64) *production.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), productionapp.CreateParams{
		ItemID: itemID, Quantity: decimal.NewFromInt(qty), NeededDate: base.AddDate(0, 0, 14),
	})
	require.NoError(t, err)
	return order
}

func TestReleaseReservesWhatIsAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 300)

	order := f.create(t, fg.ID(), 10)
	assert.Equal(t, "PO-000001", order.Code())

	result, err := f.svc.Release(ctx, order.ID())
	require.NoError(t, err)
	assert.Equal(t, production.StatusReleased, result.Order.Status())

	// 10 units need 500 g; only 300 g exist
	require.Len(t, result.Reservations, 1)
	assert.True(t, result.Reservations[0].Quantity().Equal(decimal.NewFromInt(300)))
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, mat.ID(), result.Shortfalls[0].ItemID)
	assert.True(t, result.Shortfalls[0].Required.Equal(decimal.NewFromInt(500)))
	assert.True(t, result.Shortfalls[0].Reserved.Equal(decimal.NewFromInt(300)))
}

func TestCompleteReceivesOutputAndConsumesMaterials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 1000)

	order := f.create(t, fg.ID(), 10)
	_, err := f.svc.Release(ctx, order.ID())
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, order.ID())
	require.NoError(t, err)

	result, err := f.svc.Complete(ctx, order.ID(), decimal.NewFromInt(8), decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.Equal(t, production.StatusQC, result.Order.Status())
	require.NotNil(t, result.Receipt)
	require.NotNil(t, result.Scrap, "bad output is scrapped back out")

	fgLevel, err := f.ledger.StockLevelFor(ctx, fg.ID())
	require.NoError(t, err)
	assert.True(t, fgLevel.OnHand.Equal(decimal.NewFromInt(8)), "10 received minus 2 scrapped")

	matLevel, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, matLevel.OnHand.Equal(decimal.NewFromInt(500)), "10 produced consume 500 g")
	assert.True(t, matLevel.Reserved.IsZero(), "the claim is fully drawn down")

	order, err = f.svc.PassQC(ctx, order.ID())
	require.NoError(t, err)
	assert.Equal(t, production.StatusComplete, order.Status())
}

func TestCompleteWithoutReleaseRejected(t *testing.T) {
	f := newFixture(t)
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 1000)

	order := f.create(t, fg.ID(), 5)
	_, err := f.svc.Complete(context.Background(), order.ID(), decimal.NewFromInt(5), decimal.Zero)
	require.Error(t, err)
}

func TestFailQCReturnsToInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 1000)

	order := f.create(t, fg.ID(), 4)
	_, err := f.svc.Release(ctx, order.ID())
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, order.ID())
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, order.ID(), decimal.NewFromInt(2), decimal.Zero)
	require.NoError(t, err)

	order, err = f.svc.FailQC(ctx, order.ID())
	require.NoError(t, err)
	assert.Equal(t, production.StatusInProgress, order.Status())
}

func TestSplitRedistributesReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 1000)

	order := f.create(t, fg.ID(), 10)
	_, err := f.svc.Release(ctx, order.ID())
	require.NoError(t, err)

	result, err := f.svc.Split(ctx, order.ID(), []decimal.Decimal{
		decimal.NewFromInt(6), decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	assert.Equal(t, production.StatusSplit, result.Parent.Status())
	require.Len(t, result.Children, 2)
	assert.Equal(t, production.StatusReleased, result.Children[0].Status())

	// 500 g held by the parent move 300/200 to the children
	parentHeld, err := f.invRepo.ActiveReservationsByRef(ctx, "production_order", order.ID())
	require.NoError(t, err)
	assert.Empty(t, parentHeld)

	first, err := f.invRepo.ActiveReservationsByRef(ctx, "production_order", result.Children[0].ID())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].Quantity().Equal(decimal.NewFromInt(300)))

	second, err := f.invRepo.ActiveReservationsByRef(ctx, "production_order", result.Children[1].ID())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].Quantity().Equal(decimal.NewFromInt(200)))

	matLevel, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, matLevel.Reserved.Equal(decimal.NewFromInt(500)), "the split conserves the claimed total")
}

func TestSplitQuantityMismatchRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 1000)

	order := f.create(t, fg.ID(), 10)
	_, err := f.svc.Release(ctx, order.ID())
	require.NoError(t, err)

	_, err = f.svc.Split(ctx, order.ID(), []decimal.Decimal{
		decimal.NewFromInt(6), decimal.NewFromInt(5),
	})
	require.Error(t, err, "children must sum to the remainder")
}

func TestCancelReleasesReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 1000)

	order := f.create(t, fg.ID(), 10)
	_, err := f.svc.Release(ctx, order.ID())
	require.NoError(t, err)

	order, err = f.svc.Cancel(ctx, order.ID())
	require.NoError(t, err)
	assert.Equal(t, production.StatusCancelled, order.Status())

	matLevel, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, matLevel.Reserved.IsZero())
	assert.True(t, matLevel.Available.Equal(decimal.NewFromInt(1000)))
}

func TestPassQCMarksPeggedSalesOrderReady(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 1000)

	so, err := f.sales.Create(ctx, "customer-1", base.AddDate(0, 0, 14), []salesapp.LineParams{
		{ItemID: fg.ID(), Quantity: decimal.NewFromInt(6), UnitPrice: decimal.NewFromInt(25)},
	})
	require.NoError(t, err)
	_, err = f.sales.Confirm(ctx, so.ID)
	require.NoError(t, err)

	order, err := f.svc.Create(ctx, productionapp.CreateParams{
		ItemID: fg.ID(), Quantity: decimal.NewFromInt(6), NeededDate: base.AddDate(0, 0, 10),
		SalesOrderID: so.ID, SalesOrderLine: 1,
	})
	require.NoError(t, err)
	_, err = f.svc.Release(ctx, order.ID())
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, order.ID())
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, order.ID(), decimal.NewFromInt(6), decimal.Zero)
	require.NoError(t, err)
	_, err = f.svc.PassQC(ctx, order.ID())
	require.NoError(t, err)

	so, err = f.sales.Get(ctx, so.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusReadyToShip, so.Status, "finished stock covers the order")
}

func TestPassQCLeavesSalesOrderWhenAutoReadyDisabled(t *testing.T) {
	f := newFixtureWithPolicy(t, productionapp.Policy{AutoReadyToShip: false})
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 1000)

	so, err := f.sales.Create(ctx, "customer-1", base.AddDate(0, 0, 14), []salesapp.LineParams{
		{ItemID: fg.ID(), Quantity: decimal.NewFromInt(6), UnitPrice: decimal.NewFromInt(25)},
	})
	require.NoError(t, err)
	_, err = f.sales.Confirm(ctx, so.ID)
	require.NoError(t, err)

	order, err := f.svc.Create(ctx, productionapp.CreateParams{
		ItemID: fg.ID(), Quantity: decimal.NewFromInt(6), NeededDate: base.AddDate(0, 0, 10),
		SalesOrderID: so.ID, SalesOrderLine: 1,
	})
	require.NoError(t, err)
	_, err = f.svc.Release(ctx, order.ID())
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, order.ID())
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, order.ID(), decimal.NewFromInt(6), decimal.Zero)
	require.NoError(t, err)
	_, err = f.svc.PassQC(ctx, order.ID())
	require.NoError(t, err)

	so, err = f.sales.Get(ctx, so.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusConfirmed, so.Status, "readiness stays a manual call")
}

func TestCompleteConsumesComponentsInItemOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg := f.newItem(t, "FG-00002", item.KindFinishedGood, item.ProcurementMake, uom.UnitEach)
	matA := f.newItem(t, "MAT-PLA-WHT", item.KindComponent, item.ProcurementBuy, uom.UnitGram)
	matB := f.newItem(t, "CP-00001", item.KindComponent, item.ProcurementBuy, uom.UnitEach)

	rev, err := bom.NewBOM(fg.ID(), 1, base.AddDate(0, -1, 0), []bom.Line{
		{Seq: 10, ComponentID: matA.ID(), QtyPer: decimal.NewFromInt(30), Unit: uom.UnitGram, Stage: bom.ConsumeAtProduction},
		{Seq: 20, ComponentID: matB.ID(), QtyPer: decimal.NewFromInt(2), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
	})
	require.NoError(t, err)
	require.NoError(t, f.boms.Create(ctx, rev))
	f.stock(t, matA.ID(), 500)
	f.stock(t, matB.ID(), 50)

	order := f.create(t, fg.ID(), 10)
	_, err = f.svc.Release(ctx, order.ID())
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, order.ID())
	require.NoError(t, err)

	result, err := f.svc.Complete(ctx, order.ID(), decimal.NewFromInt(10), decimal.Zero)
	require.NoError(t, err)

	// Draws happen in item-id order, whatever the BOM line sequence says;
	// that keeps the balance-row lock sequence identical across completions
	require.Len(t, result.Consumptions, 2)
	assert.Less(t, result.Consumptions[0].ItemID(), result.Consumptions[1].ItemID())

	for _, txn := range result.Consumptions {
		switch txn.ItemID() {
		case matA.ID():
			assert.True(t, txn.Quantity().Equal(decimal.NewFromInt(300)))
		case matB.ID():
			assert.True(t, txn.Quantity().Equal(decimal.NewFromInt(20)))
		default:
			t.Fatalf("unexpected consumption for item %s", txn.ItemID())
		}
	}
}

func TestOptimisticLockConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg, mat := f.printedPart(t)
	f.stock(t, mat.ID(), 1000)

	order := f.create(t, fg.ID(), 10)

	// Two in-memory copies of the same row; the second writer loses
	stale, err := f.orders.FindByID(ctx, order.ID())
	require.NoError(t, err)

	_, err = f.svc.Release(ctx, order.ID())
	require.NoError(t, err)

	require.NoError(t, stale.Release(f.clock.Now()))
	err = f.orders.Update(ctx, stale)
	require.Error(t, err)
	var conflict *shared.ConcurrencyConflictError
	assert.ErrorAs(t, err, &conflict)
}
