package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/printforge/printforge/internal/domain/sales"
)

// GormSalesRepository implements sales.Repository using GORM
type GormSalesRepository struct {
	db *gorm.DB
}

func NewGormSalesRepository(db *gorm.DB) *GormSalesRepository {
	return &GormSalesRepository{db: db}
}

// Create persists a sales order and its lines
func (r *GormSalesRepository) Create(ctx context.Context, o *sales.Order) error {
	tx := conn(ctx, r.db)
	if err := tx.Create(salesOrderToModel(o)).Error; err != nil {
		return fmt.Errorf("failed to create sales order: %w", err)
	}
	for i := range o.Lines {
		if err := tx.Create(salesLineToModel(o.ID, o.Lines[i])).Error; err != nil {
			return fmt.Errorf("failed to create sales order line: %w", err)
		}
	}
	return nil
}

// Update persists order and line changes
func (r *GormSalesRepository) Update(ctx context.Context, o *sales.Order) error {
	tx := conn(ctx, r.db)
	if err := tx.Save(salesOrderToModel(o)).Error; err != nil {
		return fmt.Errorf("failed to update sales order: %w", err)
	}
	for i := range o.Lines {
		if err := tx.Save(salesLineToModel(o.ID, o.Lines[i])).Error; err != nil {
			return fmt.Errorf("failed to update sales order line: %w", err)
		}
	}
	return nil
}

// FindByID retrieves a sales order with its lines, nil when absent
func (r *GormSalesRepository) FindByID(ctx context.Context, id string) (*sales.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByNumber retrieves a sales order by number, nil when absent
func (r *GormSalesRepository) FindByNumber(ctx context.Context, number string) (*sales.Order, error) {
	return r.findOne(ctx, "number = ?", number)
}

// ListByStatus retrieves orders in any of the given statuses
func (r *GormSalesRepository) ListByStatus(ctx context.Context, statuses ...sales.Status) ([]*sales.Order, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	var models []SalesOrderModel
	err := conn(ctx, r.db).Where("status IN ?", values).Order("number").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sales orders: %w", err)
	}
	out := make([]*sales.Order, 0, len(models))
	for i := range models {
		order, err := r.loadLines(ctx, &models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

// NextNumber atomically increments the sales order number counter
func (r *GormSalesRepository) NextNumber(ctx context.Context) (string, error) {
	n, err := nextCounter(ctx, r.db, "sales_order_number")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SO-%06d", n), nil
}

func (r *GormSalesRepository) findOne(ctx context.Context, query string, arg interface{}) (*sales.Order, error) {
	var model SalesOrderModel
	err := conn(ctx, r.db).Where(query, arg).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find sales order: %w", err)
	}
	return r.loadLines(ctx, &model)
}

func (r *GormSalesRepository) loadLines(ctx context.Context, model *SalesOrderModel) (*sales.Order, error) {
	var lineModels []SalesOrderLineModel
	err := conn(ctx, r.db).Where("order_id = ?", model.ID).Order("seq").Find(&lineModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sales order lines: %w", err)
	}
	lines := make([]sales.Line, len(lineModels))
	for i, lm := range lineModels {
		lines[i] = sales.Line{
			ID:           lm.ID,
			Seq:          lm.Seq,
			ItemID:       lm.ItemID,
			QtyOrdered:   lm.QtyOrdered,
			QtyAllocated: lm.QtyAllocated,
			QtyShipped:   lm.QtyShipped,
			UnitPrice:    lm.UnitPrice,
			NeedDate:     lm.NeedDate,
		}
	}
	return &sales.Order{
		ID:            model.ID,
		Number:        model.Number,
		CustomerID:    model.CustomerID,
		Status:        sales.Status(model.Status),
		RequestedDate: model.RequestedDate,
		Lines:         lines,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}, nil
}

func salesOrderToModel(o *sales.Order) *SalesOrderModel {
	return &SalesOrderModel{
		ID:            o.ID,
		Number:        o.Number,
		CustomerID:    o.CustomerID,
		Status:        string(o.Status),
		RequestedDate: o.RequestedDate,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func salesLineToModel(orderID string, l sales.Line) *SalesOrderLineModel {
	return &SalesOrderLineModel{
		ID:           l.ID,
		OrderID:      orderID,
		Seq:          l.Seq,
		ItemID:       l.ItemID,
		QtyOrdered:   l.QtyOrdered,
		QtyAllocated: l.QtyAllocated,
		QtyShipped:   l.QtyShipped,
		UnitPrice:    l.UnitPrice,
		NeedDate:     l.NeedDate,
	}
}
