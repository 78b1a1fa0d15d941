package planning

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/adapters/metrics"
	"github.com/printforge/printforge/internal/application/common"
	"github.com/printforge/printforge/internal/domain/planning"
	"github.com/printforge/printforge/internal/domain/production"
	"github.com/printforge/printforge/internal/domain/purchasing"
	"github.com/printforge/printforge/internal/domain/sales"
	"github.com/printforge/printforge/internal/domain/shared"
)

// SnapshotLoader assembles the fully preloaded planning snapshot. The
// persistence adapter implements it with explicit queries; the engine never
// sees storage.
type SnapshotLoader interface {
	Load(ctx context.Context) (*planning.Snapshot, error)
}

// EventPublisher announces completed planning runs. Nil disables events.
type EventPublisher interface {
	PlanningCompleted(ctx context.Context, runID string, plannedOrders, warnings int)
}

// Service runs MRP end to end: snapshot, demand collection, the pure engine
// pass and persisting the planned orders, plus firming them into real
// production or purchase orders.
type Service struct {
	loader     SnapshotLoader
	engine     *planning.Engine
	planned    planning.Repository
	sales      sales.Repository
	production production.Repository
	purchasing purchasing.Repository
	tx         shared.TxManager
	clock      shared.Clock
	events     EventPublisher
	log        *logrus.Entry
}

func NewService(
	loader SnapshotLoader,
	engine *planning.Engine,
	planned planning.Repository,
	salesRepo sales.Repository,
	productionRepo production.Repository,
	purchasingRepo purchasing.Repository,
	tx shared.TxManager,
	clock shared.Clock,
	events EventPublisher,
	logger *logrus.Logger,
) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Service{
		loader:     loader,
		engine:     engine,
		planned:    planned,
		sales:      salesRepo,
		production: productionRepo,
		purchasing: purchasingRepo,
		tx:         tx,
		clock:      clock,
		events:     events,
		log:        common.ComponentLogger(logger, "planning.service"),
	}
}

// RunOptions tunes one planning cycle. Nil fields keep the engine's
// configured behavior; ItemIDs restricts demand seeding to the listed items.
type RunOptions struct {
	HorizonDays          *int
	IncludeSafetyStock   *bool
	CascadeSubAssemblies *bool
	ItemIDs              []string
}

func (o RunOptions) isZero() bool {
	return o.HorizonDays == nil && o.IncludeSafetyStock == nil &&
		o.CascadeSubAssemblies == nil && len(o.ItemIDs) == 0
}

// engineFor returns the configured engine, or a per-run engine with the
// option overrides applied on top of its configuration.
func (s *Service) engineFor(opts RunOptions) *planning.Engine {
	if opts.isZero() {
		return s.engine
	}
	cfg := s.engine.Config()
	if opts.HorizonDays != nil {
		cfg.HorizonDays = *opts.HorizonDays
	}
	if opts.IncludeSafetyStock != nil {
		cfg.IncludeSafetyStock = *opts.IncludeSafetyStock
	}
	if opts.CascadeSubAssemblies != nil {
		cfg.CascadeSubAssemblies = *opts.CascadeSubAssemblies
	}
	cfg.ItemsFilter = opts.ItemIDs
	return planning.NewEngine(cfg)
}

// Run executes one complete planning cycle and replaces the stored planned
// orders with the result.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*planning.Result, error) {
	started := s.clock.Now()

	snap, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	demands, err := s.collectDemand(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.engineFor(opts).Run(snap, demands)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.planned.ReplaceRun(ctx, result.RunID, result.PlannedOrders)
	})
	if err != nil {
		return nil, err
	}

	elapsed := s.clock.Now().Sub(started).Seconds()
	metrics.RecordPlanningRun(elapsed, len(result.PlannedOrders), len(result.Warnings))
	s.log.WithFields(logrus.Fields{
		"run_id":         result.RunID,
		"demands":        len(demands),
		"planned_orders": len(result.PlannedOrders),
		"warnings":       len(result.Warnings),
	}).Info("planning run complete")

	if s.events != nil {
		s.events.PlanningCompleted(ctx, result.RunID, len(result.PlannedOrders), len(result.Warnings))
	}
	return result, nil
}

// collectDemand turns every open sales order line into independent demand.
// Open production orders are supply (scheduled receipts in the snapshot),
// so demand is always the full unshipped quantity.
func (s *Service) collectDemand(ctx context.Context) ([]planning.Demand, error) {
	orders, err := s.sales.ListByStatus(ctx, sales.StatusConfirmed, sales.StatusInProgress, sales.StatusReadyToShip)
	if err != nil {
		return nil, err
	}
	var demands []planning.Demand
	for _, so := range orders {
		for _, line := range so.Lines {
			remaining := line.QtyOrdered.Sub(line.QtyShipped)
			if !remaining.IsPositive() {
				continue
			}
			demands = append(demands, planning.Demand{
				ItemID:   line.ItemID,
				Quantity: remaining,
				NeedDate: so.LineNeedDate(line),
				Source: planning.DemandSource{
					Kind:    planning.DemandSalesLine,
					RefID:   so.ID,
					LineSeq: line.Seq,
				},
			})
		}
	}
	return demands, nil
}

// ListPlannedOrders returns the stored output of the latest run
func (s *Service) ListPlannedOrders(ctx context.Context) ([]*planning.PlannedOrder, error) {
	return s.planned.List(ctx)
}

// FirmResult enumerates what firming created
type FirmResult struct {
	ProductionOrder *production.Order
	PurchaseOrder   *purchasing.Order
}

// Firm converts a planned order into a real draft order: a production order
// for make, a purchase order for buy. The planned order is deleted in the
// same transaction. vendorID applies to buy orders only.
func (s *Service) Firm(ctx context.Context, plannedOrderID, vendorID string) (*FirmResult, error) {
	po, err := s.planned.FindByID(ctx, plannedOrderID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, planning.NewUnknownPlannedOrderError(plannedOrderID)
	}
	now := s.clock.Now()
	result := &FirmResult{}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		switch po.Kind {
		case planning.OrderMake:
			code, err := s.production.NextCode(ctx)
			if err != nil {
				return err
			}
			order, err := production.NewOrder(code, po.ItemID, po.Quantity, po.NeedDate, salesPegging(po), nil, now)
			if err != nil {
				return err
			}
			if err := s.production.Create(ctx, order); err != nil {
				return err
			}
			result.ProductionOrder = order
		case planning.OrderBuy:
			code, err := s.purchasing.NextCode(ctx)
			if err != nil {
				return err
			}
			order, err := purchasing.NewOrder(code, vendorID, po.NeedDate, []purchasing.Line{
				{Seq: 1, ItemID: po.ItemID, QtyOrdered: po.Quantity},
			}, now)
			if err != nil {
				return err
			}
			if err := s.purchasing.Create(ctx, order); err != nil {
				return err
			}
			result.PurchaseOrder = order
		}
		return s.planned.Delete(ctx, po.ID)
	})
	if err != nil {
		return nil, err
	}

	if result.ProductionOrder != nil {
		s.log.WithFields(logrus.Fields{
			"planned_order_id": po.ID,
			"production_code":  result.ProductionOrder.Code(),
		}).Info("planned order firmed to production")
	} else if result.PurchaseOrder != nil {
		s.log.WithFields(logrus.Fields{
			"planned_order_id": po.ID,
			"purchase_code":    result.PurchaseOrder.Code,
		}).Info("planned order firmed to purchase")
	}
	return result, nil
}

// salesPegging picks the first sales-line peg as the firm order's pegging
func salesPegging(po *planning.PlannedOrder) *production.Pegging {
	for _, peg := range po.Pegs {
		if peg.Source.Kind == planning.DemandSalesLine {
			return &production.Pegging{
				SalesOrderID:   peg.Source.RefID,
				SalesOrderLine: peg.Source.LineSeq,
			}
		}
	}
	return nil
}
