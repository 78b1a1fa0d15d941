package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/uom"
)

// GormItemRepository implements item.Repository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// Create persists a new item
func (r *GormItemRepository) Create(ctx context.Context, it *item.Item) error {
	if err := conn(ctx, r.db).Create(itemToModel(it)).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// Update persists item changes
func (r *GormItemRepository) Update(ctx context.Context, it *item.Item) error {
	if err := conn(ctx, r.db).Save(itemToModel(it)).Error; err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// FindByID retrieves an item by its ID, nil when absent
func (r *GormItemRepository) FindByID(ctx context.Context, id string) (*item.Item, error) {
	var model ItemModel
	err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return modelToItem(&model), nil
}

// FindBySKU retrieves an item by SKU. SKUs are stored normalized, so the
// lookup is case-insensitive.
func (r *GormItemRepository) FindBySKU(ctx context.Context, sku string) (*item.Item, error) {
	var model ItemModel
	err := conn(ctx, r.db).Where("sku = ?", item.NormalizeSKU(sku)).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item by sku: %w", err)
	}
	return modelToItem(&model), nil
}

// List retrieves items matching the filter
func (r *GormItemRepository) List(ctx context.Context, filter item.ListFilter) ([]*item.Item, error) {
	query := conn(ctx, r.db).Model(&ItemModel{})
	if filter.Kind != nil {
		query = query.Where("kind = ?", string(*filter.Kind))
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.MaterialID != nil {
		query = query.Where("material_type_id = ?", *filter.MaterialID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("sku LIKE ? OR name LIKE ?", like, like)
	}
	if filter.LowStock {
		query = query.Where(`reorder_point > 0 AND id IN (
			SELECT b.item_id FROM inventory_balances b
			JOIN items i ON i.id = b.item_id
			GROUP BY b.item_id, i.reorder_point
			HAVING SUM(b.on_hand) - SUM(b.reserved) < i.reorder_point)`)
	}

	var models []ItemModel
	if err := query.Order("sku").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	items := make([]*item.Item, len(models))
	for i := range models {
		items[i] = modelToItem(&models[i])
	}
	return items, nil
}

// NextSKUSequence atomically increments the SKU counter for one prefix
func (r *GormItemRepository) NextSKUSequence(ctx context.Context, prefix string) (int64, error) {
	return nextCounter(ctx, r.db, "sku_seq:"+prefix)
}

func itemToModel(it *item.Item) *ItemModel {
	return &ItemModel{
		ID:             it.ID(),
		SKU:            it.SKU(),
		Name:           it.Name(),
		Kind:           string(it.Kind()),
		Procurement:    string(it.Procurement()),
		StockUnit:      string(it.StockUnit()),
		MaterialTypeID: it.MaterialTypeID(),
		ColorID:        it.ColorID(),
		StandardCost:   it.StandardCost(),
		ReorderPoint:   it.ReorderPoint(),
		SafetyStock:    it.SafetyStock(),
		LeadTimeDays:   it.LeadTimeDays(),
		LotTracked:     it.LotTracked(),
		Active:         it.Active(),
		CreatedAt:      it.CreatedAt(),
		UpdatedAt:      it.UpdatedAt(),
	}
}

func modelToItem(m *ItemModel) *item.Item {
	return item.Reconstruct(
		m.ID, m.SKU, m.Name,
		item.Kind(m.Kind),
		item.Procurement(m.Procurement),
		uom.Unit(m.StockUnit),
		m.MaterialTypeID, m.ColorID,
		m.StandardCost, m.ReorderPoint, m.SafetyStock,
		m.LeadTimeDays,
		m.LotTracked, m.Active,
		m.CreatedAt, m.UpdatedAt,
	)
}

// GormMaterialCatalog implements item.MaterialCatalog using GORM
type GormMaterialCatalog struct {
	db *gorm.DB
}

func NewGormMaterialCatalog(db *gorm.DB) *GormMaterialCatalog {
	return &GormMaterialCatalog{db: db}
}

// FindMaterialTypeByCode retrieves one material type, nil when absent
func (r *GormMaterialCatalog) FindMaterialTypeByCode(ctx context.Context, code string) (*item.MaterialType, error) {
	var model MaterialTypeModel
	err := conn(ctx, r.db).Where("code = ?", code).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find material type: %w", err)
	}
	return &item.MaterialType{ID: model.ID, Code: model.Code, Name: model.Name}, nil
}

// FindColorByCode retrieves one color, nil when absent
func (r *GormMaterialCatalog) FindColorByCode(ctx context.Context, code string) (*item.Color, error) {
	var model ColorModel
	err := conn(ctx, r.db).Where("code = ?", code).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find color: %w", err)
	}
	return &item.Color{ID: model.ID, Code: model.Code, Name: model.Name}, nil
}

// ListMaterialTypes retrieves the material type catalog
func (r *GormMaterialCatalog) ListMaterialTypes(ctx context.Context) ([]*item.MaterialType, error) {
	var models []MaterialTypeModel
	if err := conn(ctx, r.db).Order("code").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list material types: %w", err)
	}
	out := make([]*item.MaterialType, len(models))
	for i, m := range models {
		out[i] = &item.MaterialType{ID: m.ID, Code: m.Code, Name: m.Name}
	}
	return out, nil
}

// ListColors retrieves the color catalog
func (r *GormMaterialCatalog) ListColors(ctx context.Context) ([]*item.Color, error) {
	var models []ColorModel
	if err := conn(ctx, r.db).Order("code").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list colors: %w", err)
	}
	out := make([]*item.Color, len(models))
	for i, m := range models {
		out[i] = &item.Color{ID: m.ID, Code: m.Code, Name: m.Name}
	}
	return out, nil
}
