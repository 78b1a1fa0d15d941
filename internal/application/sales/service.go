package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/application/common"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/sales"
	"github.com/printforge/printforge/internal/domain/shared"
)

// Service owns sales order intake and status changes that carry no
// inventory effect. Shipping, which does, lives in the shipping service.
type Service struct {
	orders sales.Repository
	items  item.Repository
	tx     shared.TxManager
	clock  shared.Clock
	log    *logrus.Entry
}

func NewService(orders sales.Repository, items item.Repository, tx shared.TxManager, clock shared.Clock, logger *logrus.Logger) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Service{
		orders: orders,
		items:  items,
		tx:     tx,
		clock:  clock,
		log:    common.ComponentLogger(logger, "sales.service"),
	}
}

// LineParams is one requested line of a new sales order
type LineParams struct {
	ItemID    string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	NeedDate  *time.Time
}

// Create stores a draft sales order with a generated number
func (s *Service) Create(ctx context.Context, customerID string, requestedDate time.Time, lines []LineParams) (*sales.Order, error) {
	orderLines := make([]sales.Line, 0, len(lines))
	for i, l := range lines {
		it, err := s.items.FindByID(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		if it == nil {
			return nil, item.NewUnknownItemError(l.ItemID)
		}
		orderLines = append(orderLines, sales.Line{
			Seq:        i + 1,
			ItemID:     l.ItemID,
			QtyOrdered: l.Quantity,
			UnitPrice:  l.UnitPrice,
			NeedDate:   l.NeedDate,
		})
	}

	var order *sales.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		number, err := s.orders.NextNumber(ctx)
		if err != nil {
			return err
		}
		order, err = sales.NewOrder(number, customerID, requestedDate, orderLines, s.clock.Now())
		if err != nil {
			return err
		}
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"number": order.Number, "lines": len(order.Lines)}).Info("sales order created")
	return order, nil
}

// Confirm moves a draft order into the planning demand pool
func (s *Service) Confirm(ctx context.Context, orderID string) (*sales.Order, error) {
	return s.transition(ctx, orderID, sales.StatusConfirmed)
}

// Cancel cancels an order that has not shipped
func (s *Service) Cancel(ctx context.Context, orderID string) (*sales.Order, error) {
	return s.transition(ctx, orderID, sales.StatusCancelled)
}

// Get loads one sales order by id or number
func (s *Service) Get(ctx context.Context, ref string) (*sales.Order, error) {
	order, err := s.orders.FindByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if order == nil {
		order, err = s.orders.FindByNumber(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if order == nil {
		return nil, sales.NewUnknownOrderError(ref)
	}
	return order, nil
}

// ListOpen returns orders still in the fulfillment pipeline
func (s *Service) ListOpen(ctx context.Context) ([]*sales.Order, error) {
	return s.orders.ListByStatus(ctx, sales.StatusConfirmed, sales.StatusInProgress, sales.StatusReadyToShip)
}

func (s *Service) transition(ctx context.Context, orderID string, to sales.Status) (*sales.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := order.Transition(to, s.clock.Now()); err != nil {
			return err
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
