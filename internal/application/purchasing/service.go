package purchasing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/application/common"
	inventoryapp "github.com/printforge/printforge/internal/application/inventory"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/purchasing"
	"github.com/printforge/printforge/internal/domain/shared"
)

const refKindPurchaseOrder = "purchase_order"

// Service owns purchase orders. Receiving posts the goods receipt to the
// inventory ledger atomically with the line update.
type Service struct {
	orders purchasing.Repository
	items  item.Repository
	ledger *inventoryapp.Service
	tx     shared.TxManager
	clock  shared.Clock
	log    *logrus.Entry
}

func NewService(orders purchasing.Repository, items item.Repository, ledger *inventoryapp.Service, tx shared.TxManager, clock shared.Clock, logger *logrus.Logger) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Service{
		orders: orders,
		items:  items,
		ledger: ledger,
		tx:     tx,
		clock:  clock,
		log:    common.ComponentLogger(logger, "purchasing.service"),
	}
}

// LineParams is one requested line of a new purchase order
type LineParams struct {
	ItemID   string
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// Create stores a draft purchase order with a generated code
func (s *Service) Create(ctx context.Context, vendorID string, expectedDate time.Time, lines []LineParams) (*purchasing.Order, error) {
	orderLines := make([]purchasing.Line, 0, len(lines))
	for i, l := range lines {
		it, err := s.items.FindByID(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		if it == nil {
			return nil, item.NewUnknownItemError(l.ItemID)
		}
		orderLines = append(orderLines, purchasing.Line{
			Seq:        i + 1,
			ItemID:     l.ItemID,
			QtyOrdered: l.Quantity,
			UnitCost:   l.UnitCost,
		})
	}

	var order *purchasing.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		code, err := s.orders.NextCode(ctx)
		if err != nil {
			return err
		}
		order, err = purchasing.NewOrder(code, vendorID, expectedDate, orderLines, s.clock.Now())
		if err != nil {
			return err
		}
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"code": order.Code}).Info("purchase order created")
	return order, nil
}

// Place sends a draft order to the vendor; it becomes scheduled supply
func (s *Service) Place(ctx context.Context, orderID string) (*purchasing.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := order.Place(s.clock.Now()); err != nil {
			return err
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ReceiveResult enumerates the effects of one receipt
type ReceiveResult struct {
	Order   *purchasing.Order
	Line    *purchasing.Line
	Receipt *inv.Transaction
}

// Receive records goods arriving against a line and posts the matching
// ledger receipt in the same transaction. Partial receipts are fine;
// over-receipts are not.
func (s *Service) Receive(ctx context.Context, orderID, lineID string, qty decimal.Decimal, locationID string) (*ReceiveResult, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result := &ReceiveResult{Order: order}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		line, err := order.Receive(lineID, qty, s.clock.Now())
		if err != nil {
			return err
		}
		result.Line = line

		receipt, err := s.ledger.Post(ctx, inventoryapp.PostParams{
			ItemID:     line.ItemID,
			LocationID: locationID,
			Quantity:   qty,
			Kind:       inv.TxnReceipt,
			RefKind:    refKindPurchaseOrder,
			RefID:      order.ID,
			CreatedBy:  "purchasing",
		})
		if err != nil {
			return err
		}
		result.Receipt = receipt
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"code":     order.Code,
		"line_id":  lineID,
		"quantity": qty.String(),
	}).Info("purchase receipt posted")
	return result, nil
}

// Cancel cancels an order that has not received anything
func (s *Service) Cancel(ctx context.Context, orderID string) (*purchasing.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := order.Cancel(s.clock.Now()); err != nil {
			return err
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get loads one purchase order by id or code
func (s *Service) Get(ctx context.Context, ref string) (*purchasing.Order, error) {
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
		return nil, purchasing.NewUnknownOrderError(ref)
	}
	return order, nil
}

// ListOpen returns orders still expecting goods
func (s *Service) ListOpen(ctx context.Context) ([]*purchasing.Order, error) {
	return s.orders.ListOpen(ctx)
}
