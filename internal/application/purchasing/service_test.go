package purchasing_test

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
	purchasingapp "github.com/printforge/printforge/internal/application/purchasing"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/purchasing"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
	"github.com/printforge/printforge/internal/infrastructure/database"
)

var base = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

type fixture struct {
	purchase *purchasingapp.Service
	ledger   *inventoryapp.Service
	items    *persistence.GormItemRepository
	clock    *shared.MockClock
	mainLoc  string
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
	orders := persistence.NewGormPurchasingRepository(db)
	tx := persistence.NewGormTxManager(db)
	clock := shared.NewMockClock(base)

	mainLoc := uuid.New().String()
	require.NoError(t, locations.Create(context.Background(), &inv.Location{
		ID: mainLoc, Code: "MAIN", Name: "Main warehouse", Default: true,
	}))

	ledger := inventoryapp.NewService(ledgerRepo, locations, items, tx, clock, inv.Policy{}, nil, logger)
	purchase := purchasingapp.NewService(orders, items, ledger, tx, clock, logger)

	return &fixture{purchase: purchase, ledger: ledger, items: items, clock: clock, mainLoc: mainLoc}
}

func (f *fixture) newItem(t *testing.T, sku string) *item.Item {
	t.Helper()
	it, err := item.NewItem(item.NewItemParams{
		SKU:         sku,
		Name:        sku,
		Kind:        item.KindComponent,
		Procurement: item.ProcurementBuy,
		StockUnit:   uom.UnitGram,
	}, base)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(context.Background(), it))
	return it
}

func TestCreateAssignsSequentialCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mat := f.newItem(t, "MAT-PLA-BLK")

	lines := []purchasingapp.LineParams{{ItemID: mat.ID(), Quantity: decimal.NewFromInt(1000), UnitCost: decimal.NewFromFloat(0.02)}}
	first, err := f.purchase.Create(ctx, "vendor-1", base.AddDate(0, 0, 7), lines)
	require.NoError(t, err)
	second, err := f.purchase.Create(ctx, "vendor-1", base.AddDate(0, 0, 7), lines)
	require.NoError(t, err)

	assert.Equal(t, "PUR-000001", first.Code)
	assert.Equal(t, "PUR-000002", second.Code)
	assert.Equal(t, purchasing.StatusDraft, first.Status)
}

func TestCreateUnknownItemRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.purchase.Create(context.Background(), "vendor-1", base, []purchasingapp.LineParams{
		{ItemID: "nope", Quantity: decimal.NewFromInt(1), UnitCost: decimal.Zero},
	})
	require.Error(t, err)
}

func TestReceiveProgressionAndLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pla := f.newItem(t, "MAT-PLA-BLK")
	petg := f.newItem(t, "MAT-PETG-RED")

	order, err := f.purchase.Create(ctx, "vendor-1", base.AddDate(0, 0, 7), []purchasingapp.LineParams{
		{ItemID: pla.ID(), Quantity: decimal.NewFromInt(5000), UnitCost: decimal.NewFromFloat(0.02)},
		{ItemID: petg.ID(), Quantity: decimal.NewFromInt(2000), UnitCost: decimal.NewFromFloat(0.03)},
	})
	require.NoError(t, err)

	order, err = f.purchase.Place(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasing.StatusOrdered, order.Status)

	// first delivery covers part of line one
	result, err := f.purchase.Receive(ctx, order.ID, order.Lines[0].ID, decimal.NewFromInt(3000), "")
	require.NoError(t, err)
	assert.Equal(t, purchasing.StatusPartial, result.Order.Status)
	assert.Equal(t, inv.TxnReceipt, result.Receipt.Kind())
	assert.Equal(t, f.mainLoc, result.Receipt.LocationID())

	level, err := f.ledger.StockLevelFor(ctx, pla.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(3000)))

	// the rest arrives
	_, err = f.purchase.Receive(ctx, order.ID, order.Lines[0].ID, decimal.NewFromInt(2000), "")
	require.NoError(t, err)
	result, err = f.purchase.Receive(ctx, order.ID, order.Lines[1].ID, decimal.NewFromInt(2000), "")
	require.NoError(t, err)
	assert.Equal(t, purchasing.StatusReceived, result.Order.Status)

	txns, err := f.ledger.Trace(ctx, "purchase_order", order.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 3, "every receipt is traceable to the order")
}

func TestOverReceiveRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mat := f.newItem(t, "MAT-ABS-BLK")

	order, err := f.purchase.Create(ctx, "vendor-2", base.AddDate(0, 0, 3), []purchasingapp.LineParams{
		{ItemID: mat.ID(), Quantity: decimal.NewFromInt(100), UnitCost: decimal.NewFromFloat(0.05)},
	})
	require.NoError(t, err)
	_, err = f.purchase.Place(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.purchase.Receive(ctx, order.ID, order.Lines[0].ID, decimal.NewFromInt(150), "")
	require.Error(t, err)

	level, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.IsZero(), "a rejected receipt posts nothing")
}

func TestReceiveOnDraftRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mat := f.newItem(t, "MAT-TPU-BLU")

	order, err := f.purchase.Create(ctx, "vendor-3", base, []purchasingapp.LineParams{
		{ItemID: mat.ID(), Quantity: decimal.NewFromInt(10), UnitCost: decimal.Zero},
	})
	require.NoError(t, err)

	_, err = f.purchase.Receive(ctx, order.ID, order.Lines[0].ID, decimal.NewFromInt(5), "")
	require.Error(t, err)
}

func TestCancelAfterReceiptRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mat := f.newItem(t, "MAT-PC-GRY")

	order, err := f.purchase.Create(ctx, "vendor-4", base, []purchasingapp.LineParams{
		{ItemID: mat.ID(), Quantity: decimal.NewFromInt(100), UnitCost: decimal.Zero},
	})
	require.NoError(t, err)
	_, err = f.purchase.Place(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.purchase.Receive(ctx, order.ID, order.Lines[0].ID, decimal.NewFromInt(40), "")
	require.NoError(t, err)

	_, err = f.purchase.Cancel(ctx, order.ID)
	require.Error(t, err, "partially received orders cannot be cancelled")
}

func TestGetByCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mat := f.newItem(t, "MAT-ASA-BLK")

	created, err := f.purchase.Create(ctx, "vendor-5", base, []purchasingapp.LineParams{
		{ItemID: mat.ID(), Quantity: decimal.NewFromInt(1), UnitCost: decimal.Zero},
	})
	require.NoError(t, err)

	got, err := f.purchase.Get(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}
