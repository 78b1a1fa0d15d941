package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/printforge/printforge/internal/domain/bom"
	"github.com/printforge/printforge/internal/domain/uom"
)

// GormBOMRepository implements bom.Repository using GORM
type GormBOMRepository struct {
	db *gorm.DB
}

func NewGormBOMRepository(db *gorm.DB) *GormBOMRepository {
	return &GormBOMRepository{db: db}
}

// Create persists a BOM revision and its lines
func (r *GormBOMRepository) Create(ctx context.Context, b *bom.BOM) error {
	tx := conn(ctx, r.db)
	if err := tx.Create(bomToModel(b)).Error; err != nil {
		return fmt.Errorf("failed to create bom revision: %w", err)
	}
	for _, line := range b.Lines {
		if err := tx.Create(bomLineToModel(b.ID, line)).Error; err != nil {
			return fmt.Errorf("failed to create bom line: %w", err)
		}
	}
	return nil
}

// Update persists revision header changes. Lines are immutable once created;
// a change means a new revision.
func (r *GormBOMRepository) Update(ctx context.Context, b *bom.BOM) error {
	if err := conn(ctx, r.db).Save(bomToModel(b)).Error; err != nil {
		return fmt.Errorf("failed to update bom revision: %w", err)
	}
	return nil
}

// FindByID retrieves one revision with its lines, nil when absent
func (r *GormBOMRepository) FindByID(ctx context.Context, id string) (*bom.BOM, error) {
	var model BOMModel
	err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bom revision: %w", err)
	}
	return r.loadLines(ctx, &model)
}

// RevisionsForParent retrieves every revision of one parent, oldest first
func (r *GormBOMRepository) RevisionsForParent(ctx context.Context, parentItemID string) ([]*bom.BOM, error) {
	var models []BOMModel
	err := conn(ctx, r.db).
		Where("parent_item_id = ?", parentItemID).
		Order("revision").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bom revisions: %w", err)
	}
	out := make([]*bom.BOM, 0, len(models))
	for i := range models {
		b, err := r.loadLines(ctx, &models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// ActiveForParent returns the revision effective at the given time, highest
// revision winning ties, or nil when none applies.
func (r *GormBOMRepository) ActiveForParent(ctx context.Context, parentItemID string, at time.Time) (*bom.BOM, error) {
	revisions, err := r.RevisionsForParent(ctx, parentItemID)
	if err != nil {
		return nil, err
	}
	return bom.ActiveRevisionAt(revisions, at), nil
}

// AllActive returns the effective revision of every parent, keyed by parent
// item id.
func (r *GormBOMRepository) AllActive(ctx context.Context, at time.Time) (map[string]*bom.BOM, error) {
	var models []BOMModel
	err := conn(ctx, r.db).Where("active = ?", true).Order("parent_item_id, revision").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active bom revisions: %w", err)
	}
	byParent := make(map[string][]*bom.BOM)
	for i := range models {
		b, err := r.loadLines(ctx, &models[i])
		if err != nil {
			return nil, err
		}
		byParent[b.ParentItemID] = append(byParent[b.ParentItemID], b)
	}
	out := make(map[string]*bom.BOM, len(byParent))
	for parent, revisions := range byParent {
		if best := bom.ActiveRevisionAt(revisions, at); best != nil {
			out[parent] = best
		}
	}
	return out, nil
}

func (r *GormBOMRepository) loadLines(ctx context.Context, model *BOMModel) (*bom.BOM, error) {
	var lineModels []BOMLineModel
	err := conn(ctx, r.db).Where("bom_id = ?", model.ID).Order("seq").Find(&lineModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load bom lines: %w", err)
	}
	lines := make([]bom.Line, len(lineModels))
	for i, lm := range lineModels {
		lines[i] = bom.Line{
			ID:          lm.ID,
			Seq:         lm.Seq,
			ComponentID: lm.ComponentID,
			QtyPer:      lm.QtyPer,
			Unit:        uom.Unit(lm.Unit),
			ScrapFactor: lm.ScrapFactor,
			Stage:       bom.ConsumeStage(lm.Stage),
			CostOnly:    lm.CostOnly,
		}
	}
	return &bom.BOM{
		ID:            model.ID,
		ParentItemID:  model.ParentItemID,
		Revision:      model.Revision,
		Active:        model.Active,
		EffectiveFrom: model.EffectiveFrom,
		EffectiveTo:   model.EffectiveTo,
		Lines:         lines,
	}, nil
}

func bomToModel(b *bom.BOM) *BOMModel {
	return &BOMModel{
		ID:            b.ID,
		ParentItemID:  b.ParentItemID,
		Revision:      b.Revision,
		Active:        b.Active,
		EffectiveFrom: b.EffectiveFrom,
		EffectiveTo:   b.EffectiveTo,
	}
}

func bomLineToModel(bomID string, l bom.Line) *BOMLineModel {
	return &BOMLineModel{
		ID:          l.ID,
		BOMID:       bomID,
		Seq:         l.Seq,
		ComponentID: l.ComponentID,
		QtyPer:      l.QtyPer,
		Unit:        string(l.Unit),
		ScrapFactor: l.ScrapFactor,
		Stage:       string(l.Stage),
		CostOnly:    l.CostOnly,
	}
}

// GormRoutingRepository implements bom.RoutingRepository using GORM
type GormRoutingRepository struct {
	db *gorm.DB
}

func NewGormRoutingRepository(db *gorm.DB) *GormRoutingRepository {
	return &GormRoutingRepository{db: db}
}

// Create persists a routing revision and its operations
func (r *GormRoutingRepository) Create(ctx context.Context, routing *bom.Routing) error {
	tx := conn(ctx, r.db)
	model := &RoutingModel{
		ID:           routing.ID,
		ParentItemID: routing.ParentItemID,
		Revision:     routing.Revision,
		Active:       routing.Active,
	}
	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to create routing: %w", err)
	}
	for _, op := range routing.Operations {
		opModel := &RoutingOperationModel{
			ID:             op.ID,
			RoutingID:      routing.ID,
			Seq:            op.Seq,
			WorkCenterID:   op.WorkCenterID,
			SetupTimeMin:   op.SetupTimeMin,
			RunTimePerUnit: op.RunTimePerUnit,
			RateOverride:   op.RateOverride,
		}
		if err := tx.Create(opModel).Error; err != nil {
			return fmt.Errorf("failed to create routing operation: %w", err)
		}
	}
	return nil
}

// Update persists routing header changes
func (r *GormRoutingRepository) Update(ctx context.Context, routing *bom.Routing) error {
	model := &RoutingModel{
		ID:           routing.ID,
		ParentItemID: routing.ParentItemID,
		Revision:     routing.Revision,
		Active:       routing.Active,
	}
	if err := conn(ctx, r.db).Save(model).Error; err != nil {
		return fmt.Errorf("failed to update routing: %w", err)
	}
	return nil
}

// ActiveForParent retrieves the active routing with the highest revision,
// nil when none exists.
func (r *GormRoutingRepository) ActiveForParent(ctx context.Context, parentItemID string) (*bom.Routing, error) {
	var models []RoutingModel
	err := conn(ctx, r.db).
		Where("parent_item_id = ? AND active = ?", parentItemID, true).
		Order("revision").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list routings: %w", err)
	}
	routings, err := r.loadOperations(ctx, models)
	if err != nil {
		return nil, err
	}
	return bom.ActiveRoutingRevision(routings), nil
}

// AllActive returns the active routing of every parent, keyed by parent item
// id.
func (r *GormRoutingRepository) AllActive(ctx context.Context) (map[string]*bom.Routing, error) {
	var models []RoutingModel
	err := conn(ctx, r.db).Where("active = ?", true).Order("parent_item_id, revision").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list routings: %w", err)
	}
	routings, err := r.loadOperations(ctx, models)
	if err != nil {
		return nil, err
	}
	byParent := make(map[string][]*bom.Routing)
	for _, routing := range routings {
		byParent[routing.ParentItemID] = append(byParent[routing.ParentItemID], routing)
	}
	out := make(map[string]*bom.Routing, len(byParent))
	for parent, revisions := range byParent {
		if best := bom.ActiveRoutingRevision(revisions); best != nil {
			out[parent] = best
		}
	}
	return out, nil
}

func (r *GormRoutingRepository) loadOperations(ctx context.Context, models []RoutingModel) ([]*bom.Routing, error) {
	out := make([]*bom.Routing, 0, len(models))
	for _, model := range models {
		var opModels []RoutingOperationModel
		err := conn(ctx, r.db).Where("routing_id = ?", model.ID).Order("seq").Find(&opModels).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load routing operations: %w", err)
		}
		ops := make([]bom.Operation, len(opModels))
		for i, om := range opModels {
			ops[i] = bom.Operation{
				ID:             om.ID,
				Seq:            om.Seq,
				WorkCenterID:   om.WorkCenterID,
				SetupTimeMin:   om.SetupTimeMin,
				RunTimePerUnit: om.RunTimePerUnit,
				RateOverride:   om.RateOverride,
			}
		}
		out = append(out, &bom.Routing{
			ID:           model.ID,
			ParentItemID: model.ParentItemID,
			Revision:     model.Revision,
			Active:       model.Active,
			Operations:   ops,
		})
	}
	return out, nil
}

// GormWorkCenterRepository implements bom.WorkCenterRepository using GORM
type GormWorkCenterRepository struct {
	db *gorm.DB
}

func NewGormWorkCenterRepository(db *gorm.DB) *GormWorkCenterRepository {
	return &GormWorkCenterRepository{db: db}
}

// Create persists a work center
func (r *GormWorkCenterRepository) Create(ctx context.Context, w *bom.WorkCenter) error {
	model := &WorkCenterModel{
		ID:               w.ID,
		Code:             w.Code,
		Kind:             w.Kind,
		DailyCapacityMin: w.DailyCapacityMin,
		DefaultRate:      w.DefaultRate,
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create work center: %w", err)
	}
	return nil
}

// FindByID retrieves a work center by its ID, nil when absent
func (r *GormWorkCenterRepository) FindByID(ctx context.Context, id string) (*bom.WorkCenter, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode retrieves a work center by code, nil when absent
func (r *GormWorkCenterRepository) FindByCode(ctx context.Context, code string) (*bom.WorkCenter, error) {
	return r.findOne(ctx, "code = ?", code)
}

// List retrieves all work centers
func (r *GormWorkCenterRepository) List(ctx context.Context) ([]*bom.WorkCenter, error) {
	var models []WorkCenterModel
	if err := conn(ctx, r.db).Order("code").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list work centers: %w", err)
	}
	out := make([]*bom.WorkCenter, len(models))
	for i, m := range models {
		out[i] = &bom.WorkCenter{
			ID:               m.ID,
			Code:             m.Code,
			Kind:             m.Kind,
			DailyCapacityMin: m.DailyCapacityMin,
			DefaultRate:      m.DefaultRate,
		}
	}
	return out, nil
}

func (r *GormWorkCenterRepository) findOne(ctx context.Context, query string, arg interface{}) (*bom.WorkCenter, error) {
	var model WorkCenterModel
	err := conn(ctx, r.db).Where(query, arg).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find work center: %w", err)
	}
	return &bom.WorkCenter{
		ID:               model.ID,
		Code:             model.Code,
		Kind:             model.Kind,
		DailyCapacityMin: model.DailyCapacityMin,
		DefaultRate:      model.DefaultRate,
	}, nil
}
