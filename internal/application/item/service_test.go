package item_test

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
	itemapp "github.com/printforge/printforge/internal/application/item"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
	"github.com/printforge/printforge/internal/infrastructure/database"
)

var base = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *itemapp.Service
	ledger *inventoryapp.Service
	clock  *shared.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewTestConnection()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	items := persistence.NewGormItemRepository(db)
	materials := persistence.NewGormMaterialCatalog(db)
	locations := persistence.NewGormLocationRepository(db)
	ledgerRepo := persistence.NewGormLedgerRepository(db)
	tx := persistence.NewGormTxManager(db)
	clock := shared.NewMockClock(base)

	require.NoError(t, locations.Create(context.Background(), &inv.Location{
		ID: uuid.New().String(), Code: "MAIN", Name: "Main warehouse", Default: true,
	}))

	ledger := inventoryapp.NewService(ledgerRepo, locations, items, tx, clock, inv.Policy{}, nil, logger)
	svc := itemapp.NewService(items, materials, ledger, uom.NewDefaultGraph(), tx, clock, logger)

	return &fixture{svc: svc, ledger: ledger, clock: clock}
}

func TestCreateAutoGeneratesSKU(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, itemapp.CreateParams{
		Name:        "Benchy",
		Kind:        item.KindFinishedGood,
		Procurement: item.ProcurementMake,
		StockUnit:   uom.UnitEach,
	})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, itemapp.CreateParams{
		Name:        "Calibration cube",
		Kind:        item.KindFinishedGood,
		Procurement: item.ProcurementMake,
		StockUnit:   uom.UnitEach,
	})
	require.NoError(t, err)

	assert.Equal(t, "FG-00001", first.SKU())
	assert.Equal(t, "FG-00002", second.SKU())
}

func TestCreateNormalizesExplicitSKU(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	it, err := f.svc.Create(ctx, itemapp.CreateParams{
		SKU:         "  fg-benchy ",
		Name:        "Benchy",
		Kind:        item.KindFinishedGood,
		Procurement: item.ProcurementMake,
		StockUnit:   uom.UnitEach,
	})
	require.NoError(t, err)
	assert.Equal(t, "FG-BENCHY", it.SKU())

	_, err = f.svc.Create(ctx, itemapp.CreateParams{
		SKU:         "FG-BENCHY",
		Name:        "Another benchy",
		Kind:        item.KindFinishedGood,
		Procurement: item.ProcurementMake,
		StockUnit:   uom.UnitEach,
	})
	require.Error(t, err, "an active item already holds the SKU")
}

func TestCreateUnknownUnitRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), itemapp.CreateParams{
		Name:        "Widget",
		Kind:        item.KindComponent,
		Procurement: item.ProcurementBuy,
		StockUnit:   uom.Unit("furlong"),
	})
	require.Error(t, err)
}

func TestCreateServiceItemSkipsUnitCheck(t *testing.T) {
	f := newFixture(t)
	it, err := f.svc.Create(context.Background(), itemapp.CreateParams{
		Name:        "Design consultation",
		Kind:        item.KindService,
		Procurement: item.ProcurementBuy,
	})
	require.NoError(t, err)
	assert.False(t, it.CarriesInventory())
}

func TestCreateMaterialDerivesSKUAndOpeningStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.CreateMaterial(ctx, itemapp.CreateMaterialParams{
		MaterialTypeCode: "PLA",
		ColorCode:        "BLK",
		StandardCost:     decimal.NewFromFloat(0.025),
		InitialQuantity:  decimal.NewFromInt(2000),
		CreatedBy:        "test",
	})
	require.NoError(t, err)

	assert.Equal(t, "MAT-PLA-BLK", result.Item.SKU())
	assert.Equal(t, uom.UnitGram, result.Item.StockUnit())
	assert.Equal(t, item.KindComponent, result.Item.Kind())
	assert.Equal(t, "Polylactic acid Black", result.Item.Name())

	require.NotNil(t, result.OpeningReceipt)
	assert.Equal(t, inv.TxnReceipt, result.OpeningReceipt.Kind())

	level, err := f.ledger.StockLevelFor(ctx, result.Item.ID())
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(2000)))
}

func TestCreateMaterialWithoutOpeningStock(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.CreateMaterial(context.Background(), itemapp.CreateMaterialParams{
		MaterialTypeCode: "PETG",
		ColorCode:        "RED",
	})
	require.NoError(t, err)
	assert.Nil(t, result.OpeningReceipt)
}

func TestCreateMaterialUnknownCodesRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateMaterial(ctx, itemapp.CreateMaterialParams{
		MaterialTypeCode: "UNOBTAINIUM",
		ColorCode:        "BLK",
	})
	require.Error(t, err)

	_, err = f.svc.CreateMaterial(ctx, itemapp.CreateMaterialParams{
		MaterialTypeCode: "PLA",
		ColorCode:        "CHARTREUSE",
	})
	require.Error(t, err)
}

func TestCreateMaterialDuplicateRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateMaterial(ctx, itemapp.CreateMaterialParams{MaterialTypeCode: "ASA", ColorCode: "WHT"})
	require.NoError(t, err)
	_, err = f.svc.CreateMaterial(ctx, itemapp.CreateMaterialParams{MaterialTypeCode: "ASA", ColorCode: "WHT"})
	require.Error(t, err)
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	it, err := f.svc.Create(ctx, itemapp.CreateParams{
		Name:        "Spool holder",
		Kind:        item.KindComponent,
		Procurement: item.ProcurementBuy,
		StockUnit:   uom.UnitEach,
	})
	require.NoError(t, err)

	name := "Spool holder v2"
	cost := decimal.NewFromFloat(3.50)
	updated, err := f.svc.Update(ctx, it.ID(), item.UpdateParams{Name: &name, StandardCost: &cost})
	require.NoError(t, err)

	assert.Equal(t, "Spool holder v2", updated.Name())
	assert.True(t, updated.StandardCost().Equal(cost))
	assert.Equal(t, item.ProcurementBuy, updated.Procurement(), "untouched fields keep their values")
}

func TestDeactivateFreesSKUForReuse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	it, err := f.svc.Create(ctx, itemapp.CreateParams{
		SKU:         "CP-NOZZLE",
		Name:        "Brass nozzle",
		Kind:        item.KindComponent,
		Procurement: item.ProcurementBuy,
		StockUnit:   uom.UnitEach,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Deactivate(ctx, it.ID()))

	got, err := f.svc.Get(ctx, it.ID())
	require.NoError(t, err)
	assert.False(t, got.Active(), "history survives deactivation")

	replacement, err := f.svc.Create(ctx, itemapp.CreateParams{
		SKU:         "CP-NOZZLE",
		Name:        "Hardened nozzle",
		Kind:        item.KindComponent,
		Procurement: item.ProcurementBuy,
		StockUnit:   uom.UnitEach,
	})
	require.NoError(t, err)
	assert.NotEqual(t, it.ID(), replacement.ID())
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, itemapp.CreateParams{
		Name: "Benchy", Kind: item.KindFinishedGood, Procurement: item.ProcurementMake, StockUnit: uom.UnitEach,
	})
	require.NoError(t, err)
	mat, err := f.svc.CreateMaterial(ctx, itemapp.CreateMaterialParams{
		MaterialTypeCode: "PLA",
		ColorCode:        "GRN",
		ReorderPoint:     decimal.NewFromInt(500),
		InitialQuantity:  decimal.NewFromInt(200),
		CreatedBy:        "test",
	})
	require.NoError(t, err)

	kind := item.KindFinishedGood
	finished, err := f.svc.List(ctx, item.ListFilter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, item.KindFinishedGood, finished[0].Kind())

	low, err := f.svc.List(ctx, item.ListFilter{LowStock: true})
	require.NoError(t, err)
	require.Len(t, low, 1, "200 g on hand against a 500 g reorder point")
	assert.Equal(t, mat.Item.ID(), low[0].ID())

	found, err := f.svc.List(ctx, item.ListFilter{Search: "PLA"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "MAT-PLA-GRN", found[0].SKU())
}
