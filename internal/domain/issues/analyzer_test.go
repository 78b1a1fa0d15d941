package issues_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/internal/domain/bom"
	"github.com/printforge/printforge/internal/domain/issues"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/production"
	"github.com/printforge/printforge/internal/domain/sales"
	"github.com/printforge/printforge/internal/domain/uom"
)

var now = time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func makeItem(t *testing.T, sku string, kind item.Kind, proc item.Procurement) *item.Item {
	t.Helper()
	it, err := item.NewItem(item.NewItemParams{
		SKU: sku, Name: sku, Kind: kind, Procurement: proc, StockUnit: uom.UnitEach,
	}, now)
	require.NoError(t, err)
	return it
}

func confirmedSalesOrder(t *testing.T, itemID string, qty int64) *sales.Order {
	t.Helper()
	so, err := sales.NewOrder("SO-00042", "cust-1", now.AddDate(0, 0, 14), []sales.Line{
		{Seq: 1, ItemID: itemID, QtyOrdered: d(qty)},
	}, now)
	require.NoError(t, err)
	require.NoError(t, so.Transition(sales.StatusConfirmed, now))
	return so
}

func releasedProduction(t *testing.T, code string, it *item.Item, qty int64, so *sales.Order) *production.Order {
	t.Helper()
	po, err := production.NewOrder(code, it.ID(), d(qty), now.AddDate(0, 0, 14),
		&production.Pegging{SalesOrderID: so.ID, SalesOrderLine: 1}, nil, now)
	require.NoError(t, err)
	require.NoError(t, po.Release(now))
	return po
}

func baseInput(items ...*item.Item) *issues.Input {
	in := &issues.Input{
		Now:         now,
		Items:       make(map[string]*item.Item),
		BOMs:        make(map[string]*bom.BOM),
		Routings:    make(map[string]*bom.Routing),
		WorkCenters: make(map[string]*bom.WorkCenter),
		Available:   make(map[string]decimal.Decimal),
	}
	for _, it := range items {
		in.Items[it.ID()] = it
	}
	return in
}

func TestAnalyzeCleanOrderHasNoIssues(t *testing.T) {
	widget := makeItem(t, "FG-00001", item.KindFinishedGood, item.ProcurementMake)
	so := confirmedSalesOrder(t, widget.ID(), 10)

	in := baseInput(widget)
	in.Available[widget.ID()] = d(10)

	res := issues.NewAnalyzer().AnalyzeSalesOrder(in, so)
	assert.True(t, res.CanFulfill)
	assert.Empty(t, res.Issues)
	assert.Empty(t, res.Actions)
	assert.Nil(t, res.EstimatedReadyDate)
}

func TestAnalyzeMaterialShortageWithPendingPurchase(t *testing.T) {
	widget := makeItem(t, "FG-00002", item.KindFinishedGood, item.ProcurementMake)
	shaft := makeItem(t, "CP-00001", item.KindComponent, item.ProcurementBuy)
	so := confirmedSalesOrder(t, widget.ID(), 10)
	po := releasedProduction(t, "PO-00001", widget, 10, so)

	in := baseInput(widget, shaft)
	rev, err := bom.NewBOM(widget.ID(), 1, now.AddDate(0, -1, 0), []bom.Line{
		{Seq: 1, ComponentID: shaft.ID(), QtyPer: d(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
	})
	require.NoError(t, err)
	in.BOMs[widget.ID()] = rev
	in.Available[shaft.ID()] = d(5)
	in.ProductionOrders = []*production.Order{po}
	in.OpenPurchases = []issues.PurchaseSupply{
		{ItemID: shaft.ID(), Quantity: d(5), DueDate: now.AddDate(0, 0, 3), OrderID: "pur-1", OrderCode: "PUR-00007"},
	}

	res := issues.NewAnalyzer().AnalyzeSalesOrder(in, so)
	assert.False(t, res.CanFulfill)

	require.Len(t, res.Issues, 3)
	assert.Equal(t, issues.KindMaterialShortage, res.Issues[0].Kind)
	assert.Equal(t, issues.SeverityBlocking, res.Issues[0].Severity)
	assert.Equal(t, shaft.ID(), res.Issues[0].ItemID)
	assert.True(t, res.Issues[0].Quantity.Equal(d(5)))
	assert.Equal(t, issues.KindProductionIncomplete, res.Issues[1].Kind)
	assert.Equal(t, issues.SeverityBlocking, res.Issues[1].Severity)
	assert.Equal(t, po.ID(), res.Issues[1].RefID)
	assert.Equal(t, issues.KindPurchasePending, res.Issues[2].Kind)
	assert.Equal(t, issues.SeverityWarning, res.Issues[2].Severity)
	assert.Equal(t, "pur-1", res.Issues[2].RefID)
	assert.Equal(t, 2, res.BlockingCount())

	// Expediting the open purchase outranks completing production
	require.Len(t, res.Actions, 2)
	assert.Equal(t, issues.ActionExpeditePurchase, res.Actions[0].Kind)
	assert.Equal(t, issues.ActionCompleteProduction, res.Actions[1].Kind)

	require.NotNil(t, res.EstimatedReadyDate)
	assert.True(t, res.EstimatedReadyDate.Equal(now.AddDate(0, 0, 3)), "ready when the purchase lands")
}

func TestAnalyzeShortageWithoutSupplySuggestsPurchase(t *testing.T) {
	widget := makeItem(t, "FG-00003", item.KindFinishedGood, item.ProcurementMake)
	shaft := makeItem(t, "CP-00002", item.KindComponent, item.ProcurementBuy)
	so := confirmedSalesOrder(t, widget.ID(), 10)
	po := releasedProduction(t, "PO-00002", widget, 10, so)

	in := baseInput(widget, shaft)
	rev, err := bom.NewBOM(widget.ID(), 1, now.AddDate(0, -1, 0), []bom.Line{
		{Seq: 1, ComponentID: shaft.ID(), QtyPer: d(2), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
	})
	require.NoError(t, err)
	in.BOMs[widget.ID()] = rev
	in.ProductionOrders = []*production.Order{po}

	res := issues.NewAnalyzer().AnalyzeSalesOrder(in, so)
	assert.False(t, res.CanFulfill)

	require.Len(t, res.Actions, 2)
	assert.Equal(t, issues.ActionCreatePurchase, res.Actions[0].Kind)
	assert.True(t, res.Actions[0].Quantity.Equal(d(20)))
	assert.Equal(t, issues.ActionCompleteProduction, res.Actions[1].Kind)
}

func TestAnalyzeStockHeldByOtherReservation(t *testing.T) {
	widget := makeItem(t, "FG-00004", item.KindFinishedGood, item.ProcurementMake)
	shaft := makeItem(t, "CP-00003", item.KindComponent, item.ProcurementBuy)
	so := confirmedSalesOrder(t, widget.ID(), 5)
	po := releasedProduction(t, "PO-00003", widget, 5, so)

	in := baseInput(widget, shaft)
	rev, err := bom.NewBOM(widget.ID(), 1, now.AddDate(0, -1, 0), []bom.Line{
		{Seq: 1, ComponentID: shaft.ID(), QtyPer: d(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
	})
	require.NoError(t, err)
	in.BOMs[widget.ID()] = rev
	in.ProductionOrders = []*production.Order{po}
	in.OtherHolds = []issues.ReservationHold{
		{ReservationID: "res-1", ItemID: shaft.ID(), Quantity: d(5), RefKind: "production_order", RefID: "po-other"},
	}

	res := issues.NewAnalyzer().AnalyzeSalesOrder(in, so)
	assert.False(t, res.CanFulfill, "reserved stock does not unblock by itself")

	var reserved *issues.Issue
	for i := range res.Issues {
		if res.Issues[i].Kind == issues.KindInventoryReserved {
			reserved = &res.Issues[i]
		}
	}
	require.NotNil(t, reserved)
	assert.Equal(t, issues.SeverityWarning, reserved.Severity)
	assert.Equal(t, "res-1", reserved.RefID)

	last := res.Actions[len(res.Actions)-1]
	assert.Equal(t, issues.ActionReassignReservation, last.Kind)
}

func TestAnalyzeDemandWithoutProductionIsMissing(t *testing.T) {
	widget := makeItem(t, "FG-00005", item.KindFinishedGood, item.ProcurementMake)
	so := confirmedSalesOrder(t, widget.ID(), 10)

	in := baseInput(widget)
	in.Available[widget.ID()] = d(3)

	res := issues.NewAnalyzer().AnalyzeSalesOrder(in, so)
	assert.False(t, res.CanFulfill)

	require.Len(t, res.Issues, 1)
	assert.Equal(t, issues.KindProductionMissing, res.Issues[0].Kind)
	assert.Equal(t, issues.SeverityBlocking, res.Issues[0].Severity)
	assert.True(t, res.Issues[0].Quantity.Equal(d(7)))

	require.Len(t, res.Actions, 1)
	assert.Equal(t, issues.ActionCreateProduction, res.Actions[0].Kind)
}

func TestAnalyzeIncompleteProductionBlocksEvenWithMaterials(t *testing.T) {
	widget := makeItem(t, "FG-00006", item.KindFinishedGood, item.ProcurementMake)
	shaft := makeItem(t, "CP-00005", item.KindComponent, item.ProcurementBuy)
	so := confirmedSalesOrder(t, widget.ID(), 10)
	po := releasedProduction(t, "PO-00004", widget, 10, so)

	in := baseInput(widget, shaft)
	rev, err := bom.NewBOM(widget.ID(), 1, now.AddDate(0, -1, 0), []bom.Line{
		{Seq: 1, ComponentID: shaft.ID(), QtyPer: d(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
	})
	require.NoError(t, err)
	in.BOMs[widget.ID()] = rev
	// Components fully on the shelf; only the printing itself is outstanding
	in.Available[shaft.ID()] = d(100)
	in.ProductionOrders = []*production.Order{po}

	res := issues.NewAnalyzer().AnalyzeSalesOrder(in, so)
	assert.False(t, res.CanFulfill, "unfinished pegged supply blocks shipment")

	require.Len(t, res.Issues, 1)
	assert.Equal(t, issues.KindProductionIncomplete, res.Issues[0].Kind)
	assert.Equal(t, issues.SeverityBlocking, res.Issues[0].Severity)
	assert.Equal(t, po.ID(), res.Issues[0].RefID)
	assert.True(t, res.Issues[0].Quantity.Equal(d(10)))

	require.Len(t, res.Actions, 1)
	assert.Equal(t, issues.ActionCompleteProduction, res.Actions[0].Kind)
}

func TestAnalyzeQualityHold(t *testing.T) {
	widget := makeItem(t, "FG-00008", item.KindFinishedGood, item.ProcurementMake)
	so := confirmedSalesOrder(t, widget.ID(), 10)
	po := releasedProduction(t, "PO-00006", widget, 10, so)
	require.NoError(t, po.Start(now))
	require.NoError(t, po.CompleteFinalOperation(d(6), decimal.Zero, now))

	in := baseInput(widget)
	in.ProductionOrders = []*production.Order{po}
	// Partial receipt already posted at completion; 4 still to print
	in.Available[widget.ID()] = d(6)

	res := issues.NewAnalyzer().AnalyzeSalesOrder(in, so)
	assert.False(t, res.CanFulfill, "output stuck in QC cannot ship")

	require.Len(t, res.Issues, 2)
	assert.Equal(t, issues.KindProductionIncomplete, res.Issues[0].Kind)
	assert.Equal(t, issues.SeverityBlocking, res.Issues[0].Severity)
	assert.True(t, res.Issues[0].Quantity.Equal(d(4)))
	assert.Equal(t, issues.KindQualityHold, res.Issues[1].Kind)
	assert.Equal(t, issues.SeverityBlocking, res.Issues[1].Severity)
	assert.True(t, res.Issues[1].Quantity.Equal(d(6)))
}

func TestAnalyzeQualityHoldClearedByStock(t *testing.T) {
	widget := makeItem(t, "FG-00009", item.KindFinishedGood, item.ProcurementMake)
	so := confirmedSalesOrder(t, widget.ID(), 10)
	po := releasedProduction(t, "PO-00007", widget, 10, so)
	require.NoError(t, po.Start(now))
	require.NoError(t, po.CompleteFinalOperation(d(10), decimal.Zero, now))

	in := baseInput(widget)
	in.ProductionOrders = []*production.Order{po}
	// Finished receipt already posted at completion
	in.Available[widget.ID()] = d(10)

	res := issues.NewAnalyzer().AnalyzeSalesOrder(in, so)
	assert.True(t, res.CanFulfill)

	// Stock covers the line, so the analysis is clean before QC is checked
	assert.Empty(t, res.Issues)
}

func TestAnalyzeProductionOrderReadiness(t *testing.T) {
	widget := makeItem(t, "FG-00007", item.KindFinishedGood, item.ProcurementMake)
	shaft := makeItem(t, "CP-00004", item.KindComponent, item.ProcurementBuy)
	so := confirmedSalesOrder(t, widget.ID(), 10)
	po := releasedProduction(t, "PO-00005", widget, 10, so)

	in := baseInput(widget, shaft)
	rev, err := bom.NewBOM(widget.ID(), 1, now.AddDate(0, -1, 0), []bom.Line{
		{Seq: 1, ComponentID: shaft.ID(), QtyPer: d(1), Unit: uom.UnitEach, Stage: bom.ConsumeAtProduction},
	})
	require.NoError(t, err)
	in.BOMs[widget.ID()] = rev
	in.Available[shaft.ID()] = d(10)

	res := issues.NewAnalyzer().AnalyzeProductionOrder(in, po)
	assert.True(t, res.Ready)
	assert.Empty(t, res.Issues)

	in.Available[shaft.ID()] = d(4)
	res = issues.NewAnalyzer().AnalyzeProductionOrder(in, po)
	assert.False(t, res.Ready)
	require.NotEmpty(t, res.Issues)
	assert.Equal(t, issues.KindMaterialShortage, res.Issues[0].Kind)
	assert.True(t, res.Issues[0].Quantity.Equal(d(6)))
}
