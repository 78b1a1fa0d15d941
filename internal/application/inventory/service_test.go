package inventory_test

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
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
	"github.com/printforge/printforge/internal/infrastructure/database"
)

var base = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ledger  *inventoryapp.Service
	repo    *persistence.GormLedgerRepository
	items   *persistence.GormItemRepository
	clock   *shared.MockClock
	mainLoc string
	binLoc  string
}

func newFixture(t *testing.T, policy inv.Policy) *fixture {
	t.Helper()
	db, err := database.NewTestConnection()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	items := persistence.NewGormItemRepository(db)
	locations := persistence.NewGormLocationRepository(db)
	repo := persistence.NewGormLedgerRepository(db)
	tx := persistence.NewGormTxManager(db)
	clock := shared.NewMockClock(base)

	f := &fixture{
		repo:    repo,
		items:   items,
		clock:   clock,
		mainLoc: uuid.New().String(),
		binLoc:  uuid.New().String(),
	}
	require.NoError(t, locations.Create(context.Background(), &inv.Location{
		ID: f.mainLoc, Code: "MAIN", Name: "Main warehouse", Default: true,
	}))
	require.NoError(t, locations.Create(context.Background(), &inv.Location{
		ID: f.binLoc, Code: "BIN-1", Name: "Printer-side bin",
	}))

	f.ledger = inventoryapp.NewService(repo, locations, items, tx, clock, policy, nil, logger)
	return f
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

func (f *fixture) receive(t *testing.T, itemID string, qty int64) {
	t.Helper()
	_, err := f.ledger.Post(context.Background(), inventoryapp.PostParams{
		ItemID:   itemID,
		Quantity: decimal.NewFromInt(qty),
		Kind:     inv.TxnReceipt,
		RefKind:  "test",
		RefID:    "seed",
	})
	require.NoError(t, err)
}

func TestPostReceiptUpdatesBalance(t *testing.T) {
	f := newFixture(t, inv.Policy{})
	ctx := context.Background()
	mat := f.newItem(t, "MAT-PLA-BLK")

	txn, err := f.ledger.Post(ctx, inventoryapp.PostParams{
		ItemID:   mat.ID(),
		Quantity: decimal.NewFromInt(1000),
		Kind:     inv.TxnReceipt,
		RefKind:  "purchase_order",
		RefID:    "po-1",
	})
	require.NoError(t, err)
	assert.Equal(t, f.mainLoc, txn.LocationID(), "empty location resolves to the default")

	level, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(1000)))
	assert.True(t, level.Reserved.IsZero())
	assert.True(t, level.Available.Equal(decimal.NewFromInt(1000)))
}

func TestPostIdempotency(t *testing.T) {
	f := newFixture(t, inv.Policy{})
	ctx := context.Background()
	mat := f.newItem(t, "MAT-PLA-RED")

	key := "receive-batch-42"
	params := inventoryapp.PostParams{
		ItemID:         mat.ID(),
		Quantity:       decimal.NewFromInt(500),
		Kind:           inv.TxnReceipt,
		RefKind:        "purchase_order",
		RefID:          "po-2",
		IdempotencyKey: &key,
	}

	first, err := f.ledger.Post(ctx, params)
	require.NoError(t, err)
	second, err := f.ledger.Post(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID(), "a repeated key returns the original row")

	level, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(500)), "the duplicate must not post twice")
}

func TestIssueBeyondOnHandRejected(t *testing.T) {
	f := newFixture(t, inv.Policy{})
	ctx := context.Background()
	mat := f.newItem(t, "MAT-PETG-BLK")
	f.receive(t, mat.ID(), 100)

	_, err := f.ledger.Post(ctx, inventoryapp.PostParams{
		ItemID:   mat.ID(),
		Quantity: decimal.NewFromInt(150),
		Kind:     inv.TxnIssue,
		RefKind:  "test",
		RefID:    "over",
	})
	require.Error(t, err)

	level, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(100)), "a rejected post leaves the balance untouched")
}

func TestFlaggedAdjustmentMayGoNegative(t *testing.T) {
	f := newFixture(t, inv.Policy{AllowNegativeOnHand: true})
	ctx := context.Background()
	mat := f.newItem(t, "MAT-ABS-WHT")
	f.receive(t, mat.ID(), 100)

	_, err := f.ledger.Post(ctx, inventoryapp.PostParams{
		ItemID:        mat.ID(),
		Quantity:      decimal.NewFromInt(-150),
		Kind:          inv.TxnAdjustment,
		RefKind:       "cycle_count",
		RefID:         "cc-1",
		AllowNegative: true,
	})
	require.NoError(t, err)

	level, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(-50)))
}

func TestUnflaggedAdjustmentCannotGoNegative(t *testing.T) {
	f := newFixture(t, inv.Policy{AllowNegativeOnHand: true})
	mat := f.newItem(t, "MAT-ABS-GRY")
	f.receive(t, mat.ID(), 100)

	_, err := f.ledger.Post(context.Background(), inventoryapp.PostParams{
		ItemID:   mat.ID(),
		Quantity: decimal.NewFromInt(-150),
		Kind:     inv.TxnAdjustment,
		RefKind:  "cycle_count",
		RefID:    "cc-2",
	})
	require.Error(t, err)
}

func TestReserveConsumeRelease(t *testing.T) {
	f := newFixture(t, inv.Policy{})
	ctx := context.Background()
	mat := f.newItem(t, "MAT-PLA-GRY")
	f.receive(t, mat.ID(), 100)

	res, err := f.ledger.Reserve(ctx, mat.ID(), "", decimal.NewFromInt(80), "production_order", "wo-1", "test")
	require.NoError(t, err)

	level, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(100)), "reserving does not move on-hand")
	assert.True(t, level.Reserved.Equal(decimal.NewFromInt(80)))
	assert.True(t, level.Available.Equal(decimal.NewFromInt(20)))

	// the remaining 20 are free, 30 are not
	_, err = f.ledger.Reserve(ctx, mat.ID(), "", decimal.NewFromInt(30), "production_order", "wo-2", "test")
	require.Error(t, err, "oversell is blocked by default")

	txn, err := f.ledger.ConsumeReservation(ctx, res.ID(), decimal.NewFromInt(50), "production_order", "wo-1", "test")
	require.NoError(t, err)
	assert.Equal(t, inv.TxnConsumption, txn.Kind())

	level, err = f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(50)))
	assert.True(t, level.Reserved.Equal(decimal.NewFromInt(30)), "consumption draws down the claim too")

	require.NoError(t, f.ledger.ReleaseReservation(ctx, res.ID(), "test"))

	level, err = f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(50)))
	assert.True(t, level.Reserved.IsZero())
	assert.True(t, level.Available.Equal(decimal.NewFromInt(50)))
}

func TestConsumeMoreThanReservedRejected(t *testing.T) {
	f := newFixture(t, inv.Policy{})
	ctx := context.Background()
	mat := f.newItem(t, "MAT-TPU-BLK")
	f.receive(t, mat.ID(), 100)

	res, err := f.ledger.Reserve(ctx, mat.ID(), "", decimal.NewFromInt(40), "production_order", "wo-3", "test")
	require.NoError(t, err)

	_, err = f.ledger.ConsumeReservation(ctx, res.ID(), decimal.NewFromInt(60), "production_order", "wo-3", "test")
	require.Error(t, err)
}

func TestTransferMovesStockBetweenLocations(t *testing.T) {
	f := newFixture(t, inv.Policy{})
	ctx := context.Background()
	mat := f.newItem(t, "MAT-PLA-BLU")
	f.receive(t, mat.ID(), 300)

	txns, err := f.ledger.Transfer(ctx, mat.ID(), f.mainLoc, f.binLoc, decimal.NewFromInt(120), "test", "move-1", "test")
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, inv.TxnTransferOut, txns[0].Kind())
	assert.Equal(t, inv.TxnTransferIn, txns[1].Kind())

	level, err := f.ledger.StockLevelFor(ctx, mat.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(300)), "transfer conserves total stock")
	require.Len(t, level.Balances, 2)

	byLocation := map[string]decimal.Decimal{}
	for _, b := range level.Balances {
		byLocation[b.LocationID] = b.OnHand
	}
	assert.True(t, byLocation[f.mainLoc].Equal(decimal.NewFromInt(180)))
	assert.True(t, byLocation[f.binLoc].Equal(decimal.NewFromInt(120)))
}

func TestTransferSameLocationRejected(t *testing.T) {
	f := newFixture(t, inv.Policy{})
	mat := f.newItem(t, "MAT-PLA-GRN")
	f.receive(t, mat.ID(), 10)

	_, err := f.ledger.Transfer(context.Background(), mat.ID(), f.mainLoc, f.mainLoc, decimal.NewFromInt(5), "test", "", "test")
	require.Error(t, err)
}

func TestVerifyBalanceMatchesHistory(t *testing.T) {
	f := newFixture(t, inv.Policy{})
	ctx := context.Background()
	mat := f.newItem(t, "MAT-ASA-BLK")
	f.receive(t, mat.ID(), 200)

	_, err := f.ledger.Post(ctx, inventoryapp.PostParams{
		ItemID:   mat.ID(),
		Quantity: decimal.NewFromInt(75),
		Kind:     inv.TxnIssue,
		RefKind:  "test",
		RefID:    "use",
	})
	require.NoError(t, err)

	_, err = f.ledger.Reserve(ctx, mat.ID(), "", decimal.NewFromInt(30), "test", "hold", "test")
	require.NoError(t, err)

	require.NoError(t, f.ledger.VerifyBalance(ctx, mat.ID(), f.mainLoc))
}

func TestTraceByReference(t *testing.T) {
	f := newFixture(t, inv.Policy{})
	ctx := context.Background()
	mat := f.newItem(t, "MAT-PC-BLK")
	f.receive(t, mat.ID(), 100)

	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Minute)
		_, err := f.ledger.Post(ctx, inventoryapp.PostParams{
			ItemID:   mat.ID(),
			Quantity: decimal.NewFromInt(10),
			Kind:     inv.TxnIssue,
			RefKind:  "production_order",
			RefID:    "wo-9",
		})
		require.NoError(t, err)
	}

	txns, err := f.ledger.Trace(ctx, "production_order", "wo-9")
	require.NoError(t, err)
	require.Len(t, txns, 3)
	for i := 1; i < len(txns); i++ {
		assert.False(t, txns[i].CreatedAt().Before(txns[i-1].CreatedAt()), "trace is ordered by time")
	}
}

func TestServiceItemWithoutInventoryRejected(t *testing.T) {
	f := newFixture(t, inv.Policy{})
	ctx := context.Background()

	svc, err := item.NewItem(item.NewItemParams{
		SKU:         "SV-00001",
		Name:        "Design service",
		Kind:        item.KindService,
		Procurement: item.ProcurementBuy,
		StockUnit:   uom.UnitEach,
	}, base)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(ctx, svc))

	_, err = f.ledger.Post(ctx, inventoryapp.PostParams{
		ItemID:   svc.ID(),
		Quantity: decimal.NewFromInt(1),
		Kind:     inv.TxnReceipt,
		RefKind:  "test",
		RefID:    "x",
	})
	require.Error(t, err, "service items carry no inventory")
}
