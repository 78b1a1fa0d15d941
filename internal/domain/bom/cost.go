package bom

import (
	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/uom"
)

// CostRollupScale fixes the rounding policy for cost rollup: banker's
// rounding at scale 6 applied at each BOM level, after the scrap factor.
const CostRollupScale = 6

// CostSource supplies the catalog data the rollup traverses
type CostSource interface {
	// ActiveBOM returns the currently active BOM for the item, or nil for
	// purchased/leaf items.
	ActiveBOM(itemID string) *BOM
	// StandardCost returns the item's standard cost per stock unit
	StandardCost(itemID string) decimal.Decimal
	// StockUnit returns the item's stock unit
	StockUnit(itemID string) uom.Unit
}

// CostRoller computes rolled-up standard costs by depth-first traversal of
// the BOM. Cost-only lines contribute; scrap factors inflate component
// quantities at the line where they apply.
type CostRoller struct {
	source CostSource
	graph  *uom.Graph
}

// NewCostRoller creates a cost roller over a catalog source
func NewCostRoller(source CostSource, graph *uom.Graph) *CostRoller {
	return &CostRoller{source: source, graph: graph}
}

// Rollup returns the rolled-up cost of one stock unit of the item
func (c *CostRoller) Rollup(itemID string) (decimal.Decimal, error) {
	return c.rollup(itemID, map[string]bool{})
}

func (c *CostRoller) rollup(itemID string, visiting map[string]bool) (decimal.Decimal, error) {
	if visiting[itemID] {
		return decimal.Zero, NewBOMCycleError([]string{itemID})
	}
	b := c.source.ActiveBOM(itemID)
	if b == nil {
		return c.source.StandardCost(itemID), nil
	}

	visiting[itemID] = true
	defer delete(visiting, itemID)

	total := decimal.Zero
	for _, line := range b.Lines {
		childCost, err := c.rollup(line.ComponentID, visiting)
		if err != nil {
			return decimal.Zero, err
		}
		qty := line.QtyNeeded()
		stockUnit := c.source.StockUnit(line.ComponentID)
		if line.Unit != "" && stockUnit != "" && line.Unit != stockUnit {
			qty, err = c.graph.ConvertScaled(qty, line.Unit, stockUnit, CostRollupScale)
			if err != nil {
				return decimal.Zero, err
			}
		}
		total = total.Add(qty.Mul(childCost))
	}
	return total.RoundBank(CostRollupScale), nil
}
