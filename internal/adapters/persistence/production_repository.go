package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/printforge/printforge/internal/domain/production"
	"github.com/printforge/printforge/internal/domain/shared"
)

// GormProductionRepository implements production.Repository using GORM.
// Update is an optimistic-concurrency write: the row is matched on the
// previous lock_version and a miss means a concurrent transition won.
type GormProductionRepository struct {
	db *gorm.DB
}

func NewGormProductionRepository(db *gorm.DB) *GormProductionRepository {
	return &GormProductionRepository{db: db}
}

// Create persists a new production order
func (r *GormProductionRepository) Create(ctx context.Context, o *production.Order) error {
	if err := conn(ctx, r.db).Create(productionOrderToModel(o)).Error; err != nil {
		return fmt.Errorf("failed to create production order: %w", err)
	}
	return nil
}

// Update persists order changes, failing with a ConcurrencyConflictError when
// the stored lock_version no longer matches.
func (r *GormProductionRepository) Update(ctx context.Context, o *production.Order) error {
	model := productionOrderToModel(o)
	result := conn(ctx, r.db).Model(&ProductionOrderModel{}).
		Where("id = ? AND lock_version = ?", o.ID(), o.LockVersion()-1).
		Updates(map[string]interface{}{
			"qty_completed":  model.QtyCompleted,
			"qty_scrapped":   model.QtyScrapped,
			"status":         model.Status,
			"current_op_seq": model.CurrentOpSeq,
			"lock_version":   model.LockVersion,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update production order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError("production_order", o.ID())
	}
	return nil
}

// FindByID retrieves a production order by its ID, nil when absent
func (r *GormProductionRepository) FindByID(ctx context.Context, id string) (*production.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode retrieves a production order by code, nil when absent
func (r *GormProductionRepository) FindByCode(ctx context.Context, code string) (*production.Order, error) {
	return r.findOne(ctx, "code = ?", code)
}

// ListBySalesOrder retrieves the orders pegged to one sales order
func (r *GormProductionRepository) ListBySalesOrder(ctx context.Context, salesOrderID string) ([]*production.Order, error) {
	return r.list(ctx, "sales_order_id = ?", salesOrderID)
}

// ListOpen retrieves orders in a non-terminal status
func (r *GormProductionRepository) ListOpen(ctx context.Context) ([]*production.Order, error) {
	return r.list(ctx, "status IN ?", openProductionStatuses())
}

// OpenOrdersForItem retrieves open orders producing one item
func (r *GormProductionRepository) OpenOrdersForItem(ctx context.Context, itemID string) ([]*production.Order, error) {
	return r.list(ctx, "item_id = ? AND status IN ?", itemID, openProductionStatuses())
}

// NextCode atomically increments the production order code counter
func (r *GormProductionRepository) NextCode(ctx context.Context) (string, error) {
	n, err := nextCounter(ctx, r.db, "production_order_code")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%06d", n), nil
}

func openProductionStatuses() []string {
	return []string{
		string(production.StatusDraft),
		string(production.StatusReleased),
		string(production.StatusInProgress),
		string(production.StatusQC),
	}
}

func (r *GormProductionRepository) findOne(ctx context.Context, query string, arg interface{}) (*production.Order, error) {
	var model ProductionOrderModel
	err := conn(ctx, r.db).Where(query, arg).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find production order: %w", err)
	}
	return modelToProductionOrder(&model), nil
}

func (r *GormProductionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*production.Order, error) {
	var models []ProductionOrderModel
	err := conn(ctx, r.db).Where(query, args...).Order("code").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list production orders: %w", err)
	}
	out := make([]*production.Order, len(models))
	for i := range models {
		out[i] = modelToProductionOrder(&models[i])
	}
	return out, nil
}

func productionOrderToModel(o *production.Order) *ProductionOrderModel {
	model := &ProductionOrderModel{
		ID:           o.ID(),
		Code:         o.Code(),
		ItemID:       o.ItemID(),
		QtyOrdered:   o.QtyOrdered(),
		QtyCompleted: o.QtyCompleted(),
		QtyScrapped:  o.QtyScrapped(),
		Status:       string(o.Status()),
		ParentID:     o.ParentID(),
		NeededDate:   o.NeededDate(),
		WorkCenterID: o.WorkCenterID(),
		CurrentOpSeq: o.CurrentOpSeq(),
		LockVersion:  o.LockVersion(),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
	}
	if peg := o.Pegging(); peg != nil {
		model.SalesOrderID = &peg.SalesOrderID
		model.SalesOrderLine = &peg.SalesOrderLine
	}
	return model
}

func modelToProductionOrder(m *ProductionOrderModel) *production.Order {
	var pegging *production.Pegging
	if m.SalesOrderID != nil && m.SalesOrderLine != nil {
		pegging = &production.Pegging{
			SalesOrderID:   *m.SalesOrderID,
			SalesOrderLine: *m.SalesOrderLine,
		}
	}
	return production.Reconstruct(
		m.ID, m.Code, m.ItemID,
		m.QtyOrdered, m.QtyCompleted, m.QtyScrapped,
		production.Status(m.Status),
		pegging,
		m.ParentID,
		m.NeededDate,
		m.WorkCenterID,
		m.CurrentOpSeq, m.LockVersion,
		m.CreatedAt, m.UpdatedAt,
	)
}
