package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/application/common"
	inventoryapp "github.com/printforge/printforge/internal/application/inventory"
	"github.com/printforge/printforge/internal/domain/bom"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/production"
	"github.com/printforge/printforge/internal/domain/sales"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
)

const refKindSalesOrder = "sales_order"

// Service ships sales orders: finished goods leave the ledger, packaging
// consumed at the shipping stage is drawn down, and the order plus its
// pegged production orders move to shipped, atomically.
type Service struct {
	sales      sales.Repository
	production production.Repository
	boms       bom.Repository
	items      item.Repository
	ledger     *inventoryapp.Service
	units      *uom.Graph
	tx         shared.TxManager
	clock      shared.Clock
	log        *logrus.Entry
}

func NewService(
	salesRepo sales.Repository,
	productionRepo production.Repository,
	boms bom.Repository,
	items item.Repository,
	ledger *inventoryapp.Service,
	units *uom.Graph,
	tx shared.TxManager,
	clock shared.Clock,
	logger *logrus.Logger,
) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Service{
		sales:      salesRepo,
		production: productionRepo,
		boms:       boms,
		items:      items,
		ledger:     ledger,
		units:      units,
		tx:         tx,
		clock:      clock,
		log:        common.ComponentLogger(logger, "shipping.service"),
	}
}

// ShipResult enumerates the ledger rows of one shipment
type ShipResult struct {
	Order       *sales.Order
	Shipments   []*inv.Transaction
	Consumption []*inv.Transaction
}

// Ship ships every unshipped line of a sales order in full. The order must
// be ready to ship; finished goods and shipping-stage materials must cover
// every line or nothing ships at all.
func (s *Service) Ship(ctx context.Context, salesOrderID string) (*ShipResult, error) {
	so, err := s.sales.FindByID(ctx, salesOrderID)
	if err != nil {
		return nil, err
	}
	if so == nil {
		return nil, sales.NewUnknownOrderError(salesOrderID)
	}
	if so.Status != sales.StatusReadyToShip {
		return nil, production.NewShipmentBlockedError(
			fmt.Sprintf("sales order %s is %s, not ready_to_ship", so.Number, so.Status))
	}

	now := s.clock.Now()
	result := &ShipResult{Order: so}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for i := range so.Lines {
			line := &so.Lines[i]
			remaining := line.QtyOrdered.Sub(line.QtyShipped)
			if !remaining.IsPositive() {
				continue
			}

			level, err := s.ledger.StockLevelFor(ctx, line.ItemID)
			if err != nil {
				return err
			}
			if level.Available.LessThan(remaining) {
				return production.NewShipmentBlockedError(fmt.Sprintf(
					"line %d needs %s, only %s available", line.Seq, remaining, level.Available))
			}

			shipment, err := s.ledger.Post(ctx, inventoryapp.PostParams{
				ItemID: line.ItemID, Quantity: remaining,
				Kind: inv.TxnShipment, RefKind: refKindSalesOrder, RefID: so.ID,
				CreatedBy: "shipping",
			})
			if err != nil {
				return err
			}
			result.Shipments = append(result.Shipments, shipment)

			consumed, err := s.consumeShippingStage(ctx, so.ID, line.ItemID, remaining)
			if err != nil {
				return err
			}
			result.Consumption = append(result.Consumption, consumed...)

			line.QtyShipped = line.QtyOrdered
		}

		if err := so.Transition(sales.StatusShipped, now); err != nil {
			return err
		}
		if err := s.sales.Update(ctx, so); err != nil {
			return err
		}
		return s.markProductionShipped(ctx, so.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"number": so.Number, "lines": len(result.Shipments)}).Info("sales order shipped")
	return result, nil
}

// consumeShippingStage draws down the shipping-stage BOM lines of a shipped
// item (boxes, labels, inserts). These consumptions are unreserved.
func (s *Service) consumeShippingStage(ctx context.Context, salesOrderID, itemID string, qty decimal.Decimal) ([]*inv.Transaction, error) {
	rev, err := s.boms.ActiveForParent(ctx, itemID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, nil
	}
	var out []*inv.Transaction
	for _, line := range rev.StageLines(bom.ConsumeAtShipping) {
		comp, err := s.items.FindByID(ctx, line.ComponentID)
		if err != nil {
			return nil, err
		}
		if comp == nil || !comp.CarriesInventory() {
			continue
		}
		needed := line.QtyNeeded().Mul(qty)
		if line.Unit != comp.StockUnit() {
			needed, err = s.units.Convert(needed, line.Unit, comp.StockUnit())
			if err != nil {
				return nil, err
			}
		}
		if !needed.IsPositive() {
			continue
		}
		txn, err := s.ledger.Post(ctx, inventoryapp.PostParams{
			ItemID: comp.ID(), Quantity: needed,
			Kind: inv.TxnConsumption, RefKind: refKindSalesOrder, RefID: salesOrderID,
			CreatedBy: "shipping",
		})
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, nil
}

// markProductionShipped closes out complete production orders pegged to the
// shipped sales order.
func (s *Service) markProductionShipped(ctx context.Context, salesOrderID string, now time.Time) error {
	orders, err := s.production.ListBySalesOrder(ctx, salesOrderID)
	if err != nil {
		return err
	}
	for _, po := range orders {
		if po.Status() != production.StatusComplete {
			continue
		}
		if err := po.MarkShipped(now); err != nil {
			return err
		}
		if err := s.production.Update(ctx, po); err != nil {
			return err
		}
	}
	return nil
}
