package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/printforge/printforge/internal/domain/purchasing"
)

// GormPurchasingRepository implements purchasing.Repository using GORM
type GormPurchasingRepository struct {
	db *gorm.DB
}

func NewGormPurchasingRepository(db *gorm.DB) *GormPurchasingRepository {
	return &GormPurchasingRepository{db: db}
}

// Create persists a purchase order and its lines
func (r *GormPurchasingRepository) Create(ctx context.Context, o *purchasing.Order) error {
	tx := conn(ctx, r.db)
	if err := tx.Create(purchaseOrderToModel(o)).Error; err != nil {
		return fmt.Errorf("failed to create purchase order: %w", err)
	}
	for i := range o.Lines {
		if err := tx.Create(purchaseLineToModel(o.ID, o.Lines[i])).Error; err != nil {
			return fmt.Errorf("failed to create purchase order line: %w", err)
		}
	}
	return nil
}

// Update persists order and line changes
func (r *GormPurchasingRepository) Update(ctx context.Context, o *purchasing.Order) error {
	tx := conn(ctx, r.db)
	if err := tx.Save(purchaseOrderToModel(o)).Error; err != nil {
		return fmt.Errorf("failed to update purchase order: %w", err)
	}
	for i := range o.Lines {
		if err := tx.Save(purchaseLineToModel(o.ID, o.Lines[i])).Error; err != nil {
			return fmt.Errorf("failed to update purchase order line: %w", err)
		}
	}
	return nil
}

// FindByID retrieves a purchase order with its lines, nil when absent
func (r *GormPurchasingRepository) FindByID(ctx context.Context, id string) (*purchasing.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode retrieves a purchase order by code, nil when absent
func (r *GormPurchasingRepository) FindByCode(ctx context.Context, code string) (*purchasing.Order, error) {
	return r.findOne(ctx, "code = ?", code)
}

// ListOpen retrieves orders still expecting goods
func (r *GormPurchasingRepository) ListOpen(ctx context.Context) ([]*purchasing.Order, error) {
	return r.list(ctx, "status IN ?", openPurchaseStatuses())
}

// OpenOrdersForItem retrieves open orders with at least one line for the item
func (r *GormPurchasingRepository) OpenOrdersForItem(ctx context.Context, itemID string) ([]*purchasing.Order, error) {
	return r.list(ctx,
		"status IN ? AND id IN (SELECT order_id FROM purchase_order_lines WHERE item_id = ?)",
		openPurchaseStatuses(), itemID)
}

// NextCode atomically increments the purchase order code counter
func (r *GormPurchasingRepository) NextCode(ctx context.Context) (string, error) {
	n, err := nextCounter(ctx, r.db, "purchase_order_code")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PUR-%06d", n), nil
}

func openPurchaseStatuses() []string {
	return []string{
		string(purchasing.StatusOrdered),
		string(purchasing.StatusPartial),
	}
}

func (r *GormPurchasingRepository) findOne(ctx context.Context, query string, arg interface{}) (*purchasing.Order, error) {
	var model PurchaseOrderModel
	err := conn(ctx, r.db).Where(query, arg).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find purchase order: %w", err)
	}
	return r.loadLines(ctx, &model)
}

func (r *GormPurchasingRepository) list(ctx context.Context, query string, args ...interface{}) ([]*purchasing.Order, error) {
	var models []PurchaseOrderModel
	err := conn(ctx, r.db).Where(query, args...).Order("code").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	out := make([]*purchasing.Order, 0, len(models))
	for i := range models {
		order, err := r.loadLines(ctx, &models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

func (r *GormPurchasingRepository) loadLines(ctx context.Context, model *PurchaseOrderModel) (*purchasing.Order, error) {
	var lineModels []PurchaseOrderLineModel
	err := conn(ctx, r.db).Where("order_id = ?", model.ID).Order("seq").Find(&lineModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase order lines: %w", err)
	}
	lines := make([]purchasing.Line, len(lineModels))
	for i, lm := range lineModels {
		lines[i] = purchasing.Line{
			ID:          lm.ID,
			Seq:         lm.Seq,
			ItemID:      lm.ItemID,
			QtyOrdered:  lm.QtyOrdered,
			QtyReceived: lm.QtyReceived,
			UnitCost:    lm.UnitCost,
		}
	}
	return &purchasing.Order{
		ID:           model.ID,
		Code:         model.Code,
		VendorID:     model.VendorID,
		Status:       purchasing.Status(model.Status),
		ExpectedDate: model.ExpectedDate,
		Lines:        lines,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}, nil
}

func purchaseOrderToModel(o *purchasing.Order) *PurchaseOrderModel {
	return &PurchaseOrderModel{
		ID:           o.ID,
		Code:         o.Code,
		VendorID:     o.VendorID,
		Status:       string(o.Status),
		ExpectedDate: o.ExpectedDate,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func purchaseLineToModel(orderID string, l purchasing.Line) *PurchaseOrderLineModel {
	return &PurchaseOrderLineModel{
		ID:          l.ID,
		OrderID:     orderID,
		Seq:         l.Seq,
		ItemID:      l.ItemID,
		QtyOrdered:  l.QtyOrdered,
		QtyReceived: l.QtyReceived,
		UnitCost:    l.UnitCost,
	}
}
