package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printforge/printforge/internal/domain/planning"
)

// GormPlannedOrderRepository implements planning.Repository using GORM.
// Planned orders are transient planning output: each run replaces the
// previous set wholesale.
type GormPlannedOrderRepository struct {
	db *gorm.DB
}

func NewGormPlannedOrderRepository(db *gorm.DB) *GormPlannedOrderRepository {
	return &GormPlannedOrderRepository{db: db}
}

type pegJSON struct {
	Kind     string          `json:"kind"`
	RefID    string          `json:"ref_id"`
	LineSeq  int             `json:"line_seq"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReplaceRun deletes every stored planned order and inserts the new run's set
func (r *GormPlannedOrderRepository) ReplaceRun(ctx context.Context, runID string, orders []*planning.PlannedOrder) error {
	tx := conn(ctx, r.db)
	if err := tx.Where("1 = 1").Delete(&PlannedOrderModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear planned orders: %w", err)
	}
	for _, po := range orders {
		model, err := plannedOrderToModel(po)
		if err != nil {
			return err
		}
		model.RunID = runID
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create planned order: %w", err)
		}
	}
	return nil
}

// List retrieves every planned order, stable order
func (r *GormPlannedOrderRepository) List(ctx context.Context) ([]*planning.PlannedOrder, error) {
	return r.list(ctx, "1 = 1")
}

// FindByID retrieves one planned order, nil when absent
func (r *GormPlannedOrderRepository) FindByID(ctx context.Context, id string) (*planning.PlannedOrder, error) {
	var model PlannedOrderModel
	err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find planned order: %w", err)
	}
	return modelToPlannedOrder(&model)
}

// ListForItem retrieves the planned orders for one item
func (r *GormPlannedOrderRepository) ListForItem(ctx context.Context, itemID string) ([]*planning.PlannedOrder, error) {
	return r.list(ctx, "item_id = ?", itemID)
}

// Delete removes one planned order, used when it is firmed into a real order
func (r *GormPlannedOrderRepository) Delete(ctx context.Context, id string) error {
	if err := conn(ctx, r.db).Where("id = ?", id).Delete(&PlannedOrderModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete planned order: %w", err)
	}
	return nil
}

func (r *GormPlannedOrderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*planning.PlannedOrder, error) {
	var models []PlannedOrderModel
	err := conn(ctx, r.db).Where(query, args...).Order("item_id, need_date, id").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list planned orders: %w", err)
	}
	out := make([]*planning.PlannedOrder, 0, len(models))
	for i := range models {
		po, err := modelToPlannedOrder(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, po)
	}
	return out, nil
}

func plannedOrderToModel(po *planning.PlannedOrder) (*PlannedOrderModel, error) {
	pegs := make([]pegJSON, len(po.Pegs))
	for i, p := range po.Pegs {
		pegs[i] = pegJSON{
			Kind:     string(p.Source.Kind),
			RefID:    p.Source.RefID,
			LineSeq:  p.Source.LineSeq,
			Quantity: p.Quantity,
		}
	}
	pegsBytes, err := json.Marshal(pegs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pegs: %w", err)
	}
	return &PlannedOrderModel{
		ID:          po.ID,
		RunID:       po.RunID,
		Kind:        string(po.Kind),
		ItemID:      po.ItemID,
		Quantity:    po.Quantity,
		ReleaseDate: po.ReleaseDate,
		NeedDate:    po.NeedDate,
		PegsJSON:    string(pegsBytes),
	}, nil
}

func modelToPlannedOrder(m *PlannedOrderModel) (*planning.PlannedOrder, error) {
	var pegs []pegJSON
	if m.PegsJSON != "" {
		if err := json.Unmarshal([]byte(m.PegsJSON), &pegs); err != nil {
			return nil, fmt.Errorf("invalid pegs payload for planned order %s: %w", m.ID, err)
		}
	}
	domainPegs := make([]planning.Peg, len(pegs))
	for i, p := range pegs {
		domainPegs[i] = planning.Peg{
			Source: planning.DemandSource{
				Kind:    planning.DemandKind(p.Kind),
				RefID:   p.RefID,
				LineSeq: p.LineSeq,
			},
			Quantity: p.Quantity,
		}
	}
	return &planning.PlannedOrder{
		ID:          m.ID,
		Kind:        planning.OrderKind(m.Kind),
		ItemID:      m.ItemID,
		Quantity:    m.Quantity,
		ReleaseDate: m.ReleaseDate,
		NeedDate:    m.NeedDate,
		Pegs:        domainPegs,
		RunID:       m.RunID,
	}, nil
}
