package catalog_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/internal/adapters/persistence"
	catalogapp "github.com/printforge/printforge/internal/application/catalog"
	"github.com/printforge/printforge/internal/domain/bom"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
	"github.com/printforge/printforge/internal/infrastructure/database"
)

var base = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *catalogapp.Service
	items *persistence.GormItemRepository
	boms  *persistence.GormBOMRepository
	clock *shared.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewTestConnection()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	items := persistence.NewGormItemRepository(db)
	boms := persistence.NewGormBOMRepository(db)
	routings := persistence.NewGormRoutingRepository(db)
	workCenters := persistence.NewGormWorkCenterRepository(db)
	tx := persistence.NewGormTxManager(db)
	clock := shared.NewMockClock(base)

	svc := catalogapp.NewService(boms, routings, workCenters, items, uom.NewDefaultGraph(), tx, clock, logger)
	return &fixture{svc: svc, items: items, boms: boms, clock: clock}
}

func (f *fixture) newItem(t *testing.T, sku string, kind item.Kind, unit uom.Unit, cost float64) *item.Item {
	t.Helper()
	procurement := item.ProcurementBuy
	if kind == item.KindFinishedGood {
		procurement = item.ProcurementMake
	}
	it, err := item.NewItem(item.NewItemParams{
		SKU:          sku,
		Name:         sku,
		Kind:         kind,
		Procurement:  procurement,
		StockUnit:    unit,
		StandardCost: decimal.NewFromFloat(cost),
	}, base)
	require.NoError(t, err)
	require.NoError(t, f.items.Create(context.Background(), it))
	return it
}

func TestCreateBOMRevisionSupersedesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg := f.newItem(t, "FG-BENCHY", item.KindFinishedGood, uom.UnitEach, 0)
	mat := f.newItem(t, "MAT-PLA-BLK", item.KindComponent, uom.UnitGram, 0.02)

	rev1, err := f.svc.CreateBOMRevision(ctx, catalogapp.CreateBOMParams{
		ParentItemID: fg.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: mat.ID(), QtyPer: decimal.NewFromInt(40), Unit: uom.UnitGram, Stage: bom.ConsumeAtProduction},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rev1.Revision)

	f.clock.Advance(24 * time.Hour)
	rev2, err := f.svc.CreateBOMRevision(ctx, catalogapp.CreateBOMParams{
		ParentItemID: fg.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: mat.ID(), QtyPer: decimal.NewFromInt(45), Unit: uom.UnitGram, Stage: bom.ConsumeAtProduction},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rev2.Revision)

	view, err := f.svc.ActiveBOM(ctx, fg.ID())
	require.NoError(t, err)
	assert.Equal(t, rev2.ID, view.BOM.ID)

	revisions, err := f.boms.RevisionsForParent(ctx, fg.ID())
	require.NoError(t, err)
	for _, rev := range revisions {
		if rev.Revision == 1 {
			require.NotNil(t, rev.EffectiveTo, "the superseded revision is closed")
		}
	}
}

func TestCreateBOMUnknownComponentRejected(t *testing.T) {
	f := newFixture(t)
	fg := f.newItem(t, "FG-CUBE", item.KindFinishedGood, uom.UnitEach, 0)

	_, err := f.svc.CreateBOMRevision(context.Background(), catalogapp.CreateBOMParams{
		ParentItemID: fg.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: "no-such-item", QtyPer: decimal.NewFromInt(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
		},
	})
	require.Error(t, err)
}

func TestCreateBOMInconvertibleUnitRejected(t *testing.T) {
	f := newFixture(t)
	fg := f.newItem(t, "FG-CUBE", item.KindFinishedGood, uom.UnitEach, 0)
	screw := f.newItem(t, "CP-SCREW", item.KindComponent, uom.UnitEach, 0.01)

	// grams cannot convert to each
	_, err := f.svc.CreateBOMRevision(context.Background(), catalogapp.CreateBOMParams{
		ParentItemID: fg.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: screw.ID(), QtyPer: decimal.NewFromInt(5), Unit: uom.UnitGram, Stage: bom.ConsumeAtProduction},
		},
	})
	require.Error(t, err)
}

func TestCreateBOMCycleRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assembly := f.newItem(t, "FG-ASSEMBLY", item.KindFinishedGood, uom.UnitEach, 0)
	sub := f.newItem(t, "FG-SUB", item.KindFinishedGood, uom.UnitEach, 0)

	_, err := f.svc.CreateBOMRevision(ctx, catalogapp.CreateBOMParams{
		ParentItemID: assembly.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: sub.ID(), QtyPer: decimal.NewFromInt(2), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.CreateBOMRevision(ctx, catalogapp.CreateBOMParams{
		ParentItemID: sub.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: assembly.ID(), QtyPer: decimal.NewFromInt(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
		},
	})
	require.Error(t, err, "the sub-assembly would feed back into its own parent")
}

func TestSelfReferenceRejected(t *testing.T) {
	f := newFixture(t)
	fg := f.newItem(t, "FG-LOOP", item.KindFinishedGood, uom.UnitEach, 0)

	_, err := f.svc.CreateBOMRevision(context.Background(), catalogapp.CreateBOMParams{
		ParentItemID: fg.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: fg.ID(), QtyPer: decimal.NewFromInt(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
		},
	})
	require.Error(t, err)
}

func TestActiveBOMConvertsLineUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg := f.newItem(t, "FG-VASE", item.KindFinishedGood, uom.UnitEach, 0)
	mat := f.newItem(t, "MAT-PETG-WHT", item.KindComponent, uom.UnitGram, 0.03)

	_, err := f.svc.CreateBOMRevision(ctx, catalogapp.CreateBOMParams{
		ParentItemID: fg.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: mat.ID(), QtyPer: decimal.NewFromFloat(0.05), Unit: uom.UnitKilogram,
				ScrapFactor: decimal.NewFromFloat(0.1), Stage: bom.ConsumeAtProduction},
		},
	})
	require.NoError(t, err)

	view, err := f.svc.ActiveBOM(ctx, fg.ID())
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	// 0.05 kg * 1.1 scrap = 55 g
	assert.True(t, view.Lines[0].QtyInStockUnit.Equal(decimal.NewFromInt(55)),
		"got %s", view.Lines[0].QtyInStockUnit)
}

func TestRolledUpCostWalksTheTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg := f.newItem(t, "FG-LAMP", item.KindFinishedGood, uom.UnitEach, 99) // own standard cost is ignored once a BOM exists
	shade := f.newItem(t, "FG-SHADE", item.KindFinishedGood, uom.UnitEach, 0)
	mat := f.newItem(t, "MAT-PLA-WHT", item.KindComponent, uom.UnitGram, 0.02)
	box := f.newItem(t, "SP-BOX", item.KindSupply, uom.UnitEach, 0.30)

	_, err := f.svc.CreateBOMRevision(ctx, catalogapp.CreateBOMParams{
		ParentItemID: shade.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: mat.ID(), QtyPer: decimal.NewFromInt(50), Unit: uom.UnitGram, Stage: bom.ConsumeAtProduction},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.CreateBOMRevision(ctx, catalogapp.CreateBOMParams{
		ParentItemID: fg.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: shade.ID(), QtyPer: decimal.NewFromInt(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
			{Seq: 20, ComponentID: mat.ID(), QtyPer: decimal.NewFromInt(100), Unit: uom.UnitGram, Stage: bom.ConsumeAtProduction},
			{Seq: 30, ComponentID: box.ID(), QtyPer: decimal.NewFromInt(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtShipping, CostOnly: true},
		},
	})
	require.NoError(t, err)

	cost, err := f.svc.RolledUpCost(ctx, fg.ID())
	require.NoError(t, err)
	// shade 50 g * 0.02 = 1.00; material 100 g * 0.02 = 2.00; box 0.30
	assert.True(t, cost.Equal(decimal.NewFromFloat(3.30)), "got %s", cost)
}

func TestRolledUpCostOfLeafIsStandardCost(t *testing.T) {
	f := newFixture(t)
	mat := f.newItem(t, "MAT-ABS-GRY", item.KindComponent, uom.UnitGram, 0.04)

	cost, err := f.svc.RolledUpCost(context.Background(), mat.ID())
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromFloat(0.04)))
}

func TestRoutingLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg := f.newItem(t, "FG-BRACKET", item.KindFinishedGood, uom.UnitEach, 0)

	printer := &bom.WorkCenter{Code: "FDM-01", Kind: "printer",
		DailyCapacityMin: decimal.NewFromInt(1200), DefaultRate: decimal.NewFromInt(2)}
	require.NoError(t, f.svc.CreateWorkCenter(ctx, printer))
	require.NotEmpty(t, printer.ID)

	rev1, err := f.svc.CreateRouting(ctx, catalogapp.CreateRoutingParams{
		ParentItemID: fg.ID(),
		Operations: []bom.Operation{
			{Seq: 10, WorkCenterID: printer.ID, SetupTimeMin: decimal.NewFromInt(10), RunTimePerUnit: decimal.NewFromInt(90)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rev1.Revision)

	rev2, err := f.svc.CreateRouting(ctx, catalogapp.CreateRoutingParams{
		ParentItemID: fg.ID(),
		Operations: []bom.Operation{
			{Seq: 10, WorkCenterID: printer.ID, SetupTimeMin: decimal.NewFromInt(5), RunTimePerUnit: decimal.NewFromInt(80)},
			{Seq: 20, WorkCenterID: printer.ID, SetupTimeMin: decimal.Zero, RunTimePerUnit: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rev2.Revision)

	active, err := f.svc.ActiveRouting(ctx, fg.ID())
	require.NoError(t, err)
	assert.Equal(t, rev2.ID, active.ID)

	centers, err := f.svc.ListWorkCenters(ctx)
	require.NoError(t, err)
	assert.Len(t, centers, 1)
}

func TestCreateRoutingUnknownWorkCenterRejected(t *testing.T) {
	f := newFixture(t)
	fg := f.newItem(t, "FG-HOOK", item.KindFinishedGood, uom.UnitEach, 0)

	_, err := f.svc.CreateRouting(context.Background(), catalogapp.CreateRoutingParams{
		ParentItemID: fg.ID(),
		Operations: []bom.Operation{
			{Seq: 10, WorkCenterID: "ghost", RunTimePerUnit: decimal.NewFromInt(1)},
		},
	})
	require.Error(t, err)
}

func TestDeactivateBOMLeavesNoActiveRevision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fg := f.newItem(t, "FG-STAND", item.KindFinishedGood, uom.UnitEach, 0)
	mat := f.newItem(t, "MAT-PLA-GRY", item.KindComponent, uom.UnitGram, 0.02)

	rev, err := f.svc.CreateBOMRevision(ctx, catalogapp.CreateBOMParams{
		ParentItemID: fg.ID(),
		Lines: []bom.Line{
			{Seq: 10, ComponentID: mat.ID(), QtyPer: decimal.NewFromInt(30), Unit: uom.UnitGram, Stage: bom.ConsumeAtProduction},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeactivateBOM(ctx, rev.ID))

	_, err = f.svc.ActiveBOM(ctx, fg.ID())
	require.Error(t, err)
}
