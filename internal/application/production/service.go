package production

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/adapters/metrics"
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

// refKindProduction tags ledger rows and reservations held by production orders
const refKindProduction = "production_order"

// shareScale is the rounding scale for proportional reservation splits
const shareScale = 6

// EventPublisher announces production lifecycle transitions. Nil disables
// events.
type EventPublisher interface {
	ProductionStatusChanged(ctx context.Context, orderID, code, from, to string)
}

// Policy holds the deployment-level production behavior
type Policy struct {
	// AutoReadyToShip flips a pegged sales order to ready_to_ship after a QC
	// pass once every line is coverable from stock
	AutoReadyToShip bool
}

// Service drives the production order lifecycle. Every transition with
// inventory side effects commits the status change and the ledger rows in
// one transaction.
type Service struct {
	orders   production.Repository
	sales    sales.Repository
	boms     bom.Repository
	routings bom.RoutingRepository
	items    item.Repository
	ledger   *inventoryapp.Service
	invRepo  inv.Repository
	units    *uom.Graph
	tx       shared.TxManager
	clock    shared.Clock
	policy   Policy
	events   EventPublisher
	log      *logrus.Entry
}

func NewService(
	orders production.Repository,
	salesRepo sales.Repository,
	boms bom.Repository,
	routings bom.RoutingRepository,
	items item.Repository,
	ledger *inventoryapp.Service,
	invRepo inv.Repository,
	units *uom.Graph,
	tx shared.TxManager,
	clock shared.Clock,
	policy Policy,
	events EventPublisher,
	logger *logrus.Logger,
) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Service{
		orders:   orders,
		sales:    salesRepo,
		boms:     boms,
		routings: routings,
		items:    items,
		ledger:   ledger,
		invRepo:  invRepo,
		units:    units,
		tx:       tx,
		clock:    clock,
		policy:   policy,
		events:   events,
		log:      common.ComponentLogger(logger, "production.service"),
	}
}

// CreateParams describes a new production order
type CreateParams struct {
	ItemID         string
	Quantity       decimal.Decimal
	NeededDate     time.Time
	SalesOrderID   string // optional pegging
	SalesOrderLine int
	WorkCenterID   *string
}

// Create stores a draft production order with a generated code
func (s *Service) Create(ctx context.Context, p CreateParams) (*production.Order, error) {
	it, err := s.items.FindByID(ctx, p.ItemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, item.NewUnknownItemError(p.ItemID)
	}

	var pegging *production.Pegging
	if p.SalesOrderID != "" {
		pegging = &production.Pegging{SalesOrderID: p.SalesOrderID, SalesOrderLine: p.SalesOrderLine}
	}

	var order *production.Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		code, err := s.orders.NextCode(ctx)
		if err != nil {
			return err
		}
		order, err = production.NewOrder(code, p.ItemID, p.Quantity, p.NeededDate, pegging, p.WorkCenterID, s.clock.Now())
		if err != nil {
			return err
		}
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"code": order.Code(), "item_id": p.ItemID}).Info("production order created")
	return order, nil
}

// MaterialShortfall reports a component the release could not fully reserve
type MaterialShortfall struct {
	ItemID   string
	Required decimal.Decimal
	Reserved decimal.Decimal
}

// ReleaseResult enumerates what the release reserved
type ReleaseResult struct {
	Order        *production.Order
	Reservations []*inv.Reservation
	Shortfalls   []MaterialShortfall
}

// Release moves a draft order to released and reserves its production-stage
// materials. Reservation is best-effort per component: what is available is
// claimed, the rest is reported as a shortfall for the analyzer to chase.
func (s *Service) Release(ctx context.Context, orderID string) (*ReleaseResult, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	result := &ReleaseResult{Order: order}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := order.Release(now); err != nil {
			return err
		}

		requirements, err := s.materialRequirements(ctx, order, order.QtyOrdered())
		if err != nil {
			return err
		}
		for _, req := range requirements {
			level, err := s.ledger.StockLevelFor(ctx, req.itemID)
			if err != nil {
				return err
			}
			toReserve := decimal.Min(req.quantity, decimal.Max(decimal.Zero, level.Available))
			if toReserve.IsPositive() {
				r, err := s.ledger.Reserve(ctx, req.itemID, "", toReserve, refKindProduction, order.ID(), "production")
				if err != nil {
					return err
				}
				result.Reservations = append(result.Reservations, r)
			}
			if toReserve.LessThan(req.quantity) {
				result.Shortfalls = append(result.Shortfalls, MaterialShortfall{
					ItemID:   req.itemID,
					Required: req.quantity,
					Reserved: toReserve,
				})
			}
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordProductionTransition("release")
	s.notify(ctx, order, string(production.StatusDraft))
	if len(result.Shortfalls) > 0 {
		s.log.WithFields(logrus.Fields{
			"code":       order.Code(),
			"shortfalls": len(result.Shortfalls),
		}).Warn("released with material shortfalls")
	}
	return result, nil
}

// Start moves a released order to in_progress
func (s *Service) Start(ctx context.Context, orderID string) (*production.Order, error) {
	return s.transition(ctx, orderID, "start", func(o *production.Order, now time.Time) error {
		return o.Start(now)
	})
}

// RecordOperation advances past an intermediate routing operation
func (s *Service) RecordOperation(ctx context.Context, orderID string, opSeq int) (*production.Order, error) {
	return s.transition(ctx, orderID, "operation", func(o *production.Order, now time.Time) error {
		return o.RecordOperation(opSeq, now)
	})
}

// CompleteResult enumerates the inventory effects of a completion
type CompleteResult struct {
	Order        *production.Order
	Receipt      *inv.Transaction
	Scrap        *inv.Transaction
	Consumptions []*inv.Transaction
}

// Complete records the final operation's good and bad output. In one
// transaction: finished goods are received (good and bad), bad output is
// scrapped back out, reserved materials are consumed pro rata for the
// produced quantity, and the order moves to QC.
func (s *Service) Complete(ctx context.Context, orderID string, qtyGood, qtyBad decimal.Decimal) (*CompleteResult, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	produced := qtyGood.Add(qtyBad)
	result := &CompleteResult{Order: order}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := order.CompleteFinalOperation(qtyGood, qtyBad, now); err != nil {
			return err
		}

		requirements, err := s.materialRequirements(ctx, order, produced)
		if err != nil {
			return err
		}

		// Balance rows lock in item-id order across the finished-good receipt
		// and every component draw, so concurrent completions cannot deadlock
		receiptPosted := false
		for _, req := range requirements {
			if !receiptPosted && order.ItemID() < req.itemID {
				if err := s.receiveOutput(ctx, order, produced, qtyBad, result); err != nil {
					return err
				}
				receiptPosted = true
			}
			if err := s.consumeRequirement(ctx, order, req, result); err != nil {
				return err
			}
		}
		if !receiptPosted {
			if err := s.receiveOutput(ctx, order, produced, qtyBad, result); err != nil {
				return err
			}
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordProductionTransition("complete")
	s.notify(ctx, order, string(production.StatusInProgress))
	return result, nil
}

// receiveOutput posts the finished-good receipt and scraps the bad output
func (s *Service) receiveOutput(ctx context.Context, order *production.Order, produced, qtyBad decimal.Decimal, result *CompleteResult) error {
	receipt, err := s.ledger.Post(ctx, inventoryapp.PostParams{
		ItemID: order.ItemID(), Quantity: produced,
		Kind: inv.TxnReceipt, RefKind: refKindProduction, RefID: order.ID(),
		CreatedBy: "production",
	})
	if err != nil {
		return err
	}
	result.Receipt = receipt

	if qtyBad.IsPositive() {
		scrap, err := s.ledger.Post(ctx, inventoryapp.PostParams{
			ItemID: order.ItemID(), Quantity: qtyBad,
			Kind: inv.TxnScrap, RefKind: refKindProduction, RefID: order.ID(),
			CreatedBy: "production",
		})
		if err != nil {
			return err
		}
		result.Scrap = scrap
	}
	return nil
}

// consumeRequirement draws one reserved component down, taking the
// unreserved remainder straight off available stock.
func (s *Service) consumeRequirement(ctx context.Context, order *production.Order, req materialRequirement, result *CompleteResult) error {
	remaining := req.quantity
	reservations, err := s.invRepo.ActiveReservationsByRef(ctx, refKindProduction, order.ID())
	if err != nil {
		return err
	}
	for _, r := range reservations {
		if r.ItemID() != req.itemID || !remaining.IsPositive() {
			continue
		}
		take := decimal.Min(remaining, r.Remaining())
		if !take.IsPositive() {
			continue
		}
		txn, err := s.ledger.ConsumeReservation(ctx, r.ID(), take, refKindProduction, order.ID(), "production")
		if err != nil {
			return err
		}
		result.Consumptions = append(result.Consumptions, txn)
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		txn, err := s.ledger.Post(ctx, inventoryapp.PostParams{
			ItemID: req.itemID, Quantity: remaining,
			Kind: inv.TxnConsumption, RefKind: refKindProduction, RefID: order.ID(),
			CreatedBy: "production",
		})
		if err != nil {
			return err
		}
		result.Consumptions = append(result.Consumptions, txn)
	}
	return nil
}

// PassQC accepts the completed output and, when the pegged sales order is
// now fully coverable from stock, marks it ready to ship.
func (s *Service) PassQC(ctx context.Context, orderID string) (*production.Order, error) {
	order, err := s.transition(ctx, orderID, "pass_qc", func(o *production.Order, now time.Time) error {
		return o.PassQC(now)
	})
	if err != nil {
		return nil, err
	}
	if peg := order.Pegging(); peg != nil && s.policy.AutoReadyToShip {
		if err := s.refreshSalesReadiness(ctx, peg.SalesOrderID); err != nil {
			s.log.WithError(err).Warn("sales readiness refresh failed")
		}
	}
	return order, nil
}

// FailQC sends the order back for rework
func (s *Service) FailQC(ctx context.Context, orderID string) (*production.Order, error) {
	return s.transition(ctx, orderID, "fail_qc", func(o *production.Order, now time.Time) error {
		return o.FailQC(now)
	})
}

// Cancel stops the order and releases every reservation it still holds
func (s *Service) Cancel(ctx context.Context, orderID string) (*production.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := order.Cancel(s.clock.Now()); err != nil {
			return err
		}
		if err := s.ledger.ReleaseAllFor(ctx, refKindProduction, order.ID(), "production"); err != nil {
			return err
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordProductionTransition("cancel")
	s.notify(ctx, order, string(from))
	return order, nil
}

// SplitResult enumerates the children and the reservation redistribution
type SplitResult struct {
	Parent   *production.Order
	Children []*production.Order
}

// Split divides the uncompleted remainder across new child orders. Children
// are released immediately; the parent's reservations are released and
// re-reserved for the children pro rata to their quantities, all in one
// transaction.
func (s *Service) Split(ctx context.Context, orderID string, childQtys []decimal.Decimal) (*SplitResult, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	from := order.Status()
	result := &SplitResult{Parent: order}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Snapshot the parent's claims before touching them
		held, err := s.invRepo.ActiveReservationsByRef(ctx, refKindProduction, order.ID())
		if err != nil {
			return err
		}

		codes := make([]string, len(childQtys))
		for i := range childQtys {
			code, err := s.orders.NextCode(ctx)
			if err != nil {
				return err
			}
			codes[i] = code
		}

		children, err := order.Split(codes, childQtys, now)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := s.orders.Create(ctx, child); err != nil {
				return err
			}
		}
		result.Children = children

		if err := s.redistributeReservations(ctx, held, children, childQtys); err != nil {
			return err
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordProductionTransition("split")
	s.notify(ctx, order, string(from))
	return result, nil
}

// redistributeReservations releases the parent's claims and re-reserves the
// same totals for the children, pro rata to child quantity with the last
// child absorbing rounding remainders.
func (s *Service) redistributeReservations(ctx context.Context, held []*inv.Reservation, children []*production.Order, childQtys []decimal.Decimal) error {
	total := decimal.Zero
	for _, q := range childQtys {
		total = total.Add(q)
	}

	for _, r := range held {
		remaining := r.Remaining()
		if err := s.ledger.ReleaseReservation(ctx, r.ID(), "production"); err != nil {
			return err
		}
		allocated := decimal.Zero
		for i, child := range children {
			share := remaining.Mul(childQtys[i]).Div(total).RoundBank(shareScale)
			if i == len(children)-1 {
				share = remaining.Sub(allocated)
			}
			if !share.IsPositive() {
				continue
			}
			if _, err := s.ledger.Reserve(ctx, r.ItemID(), r.LocationID(), share, refKindProduction, child.ID(), "production"); err != nil {
				return err
			}
			allocated = allocated.Add(share)
		}
	}
	return nil
}

// Get loads one production order by id or code
func (s *Service) Get(ctx context.Context, ref string) (*production.Order, error) {
	order, err := s.orders.FindByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if order == nil {
		order, err = s.orders.FindByCode(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if order == nil {
		return nil, production.NewUnknownOrderError(ref)
	}
	return order, nil
}

// ListOpen returns every order that still represents incoming supply
func (s *Service) ListOpen(ctx context.Context) ([]*production.Order, error) {
	return s.orders.ListOpen(ctx)
}

// materialRequirement is one component quantity in its stock unit
type materialRequirement struct {
	itemID   string
	quantity decimal.Decimal
}

// materialRequirements explodes the order's production-stage BOM lines for
// the given output quantity, converted to component stock units. Results are
// sorted by component item id; reservation and consumption walk them in that
// order so balance-row locks always come in the same sequence.
func (s *Service) materialRequirements(ctx context.Context, order *production.Order, outputQty decimal.Decimal) ([]materialRequirement, error) {
	rev, err := s.boms.ActiveForParent(ctx, order.ItemID(), s.clock.Now())
	if err != nil {
		return nil, err
	}
	if rev == nil {
		// Purchased or BOM-less items produce without component draw
		return nil, nil
	}
	var out []materialRequirement
	for _, line := range rev.StageLines(bom.ConsumeAtProduction) {
		comp, err := s.items.FindByID(ctx, line.ComponentID)
		if err != nil {
			return nil, err
		}
		if comp == nil || !comp.CarriesInventory() {
			continue
		}
		qty := line.QtyNeeded().Mul(outputQty)
		if line.Unit != comp.StockUnit() {
			qty, err = s.units.Convert(qty, line.Unit, comp.StockUnit())
			if err != nil {
				return nil, err
			}
		}
		if qty.IsPositive() {
			out = append(out, materialRequirement{itemID: comp.ID(), quantity: qty})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].itemID < out[j].itemID })
	return out, nil
}

// refreshSalesReadiness marks a sales order ready_to_ship once every line's
// unshipped quantity is coverable from on-shelf stock.
func (s *Service) refreshSalesReadiness(ctx context.Context, salesOrderID string) error {
	so, err := s.sales.FindByID(ctx, salesOrderID)
	if err != nil {
		return err
	}
	if so == nil || (so.Status != sales.StatusConfirmed && so.Status != sales.StatusInProgress) {
		return nil
	}
	for _, line := range so.Lines {
		remaining := line.QtyOrdered.Sub(line.QtyShipped)
		if !remaining.IsPositive() {
			continue
		}
		level, err := s.ledger.StockLevelFor(ctx, line.ItemID)
		if err != nil {
			return err
		}
		if level.Available.LessThan(remaining) {
			return nil
		}
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := so.Transition(sales.StatusReadyToShip, s.clock.Now()); err != nil {
			return err
		}
		return s.sales.Update(ctx, so)
	})
}

// load fetches an order by id, failing on absence
func (s *Service) load(ctx context.Context, orderID string) (*production.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, production.NewUnknownOrderError(orderID)
	}
	return order, nil
}

// transition applies a pure status move inside a transaction
func (s *Service) transition(ctx context.Context, orderID, event string, fn func(*production.Order, time.Time) error) (*production.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := fn(order, s.clock.Now()); err != nil {
			return err
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordProductionTransition(event)
	s.notify(ctx, order, string(from))
	return order, nil
}

func (s *Service) notify(ctx context.Context, order *production.Order, from string) {
	if s.events != nil {
		s.events.ProductionStatusChanged(ctx, order.ID(), order.Code(), from, string(order.Status()))
	}
}
