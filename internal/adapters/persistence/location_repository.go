package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	inv "github.com/printforge/printforge/internal/domain/inventory"
)

// GormLocationRepository implements inventory.LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// Create persists a new location
func (r *GormLocationRepository) Create(ctx context.Context, l *inv.Location) error {
	model := &LocationModel{ID: l.ID, Code: l.Code, Name: l.Name, IsDefault: l.Default}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

// FindByID retrieves a location by its ID, nil when absent
func (r *GormLocationRepository) FindByID(ctx context.Context, id string) (*inv.Location, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode retrieves a location by code, nil when absent
func (r *GormLocationRepository) FindByCode(ctx context.Context, code string) (*inv.Location, error) {
	return r.findOne(ctx, "code = ?", code)
}

// Default retrieves the deployment default location, nil when none is marked
func (r *GormLocationRepository) Default(ctx context.Context) (*inv.Location, error) {
	return r.findOne(ctx, "is_default = ?", true)
}

// List retrieves all locations
func (r *GormLocationRepository) List(ctx context.Context) ([]*inv.Location, error) {
	var models []LocationModel
	if err := conn(ctx, r.db).Order("code").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	out := make([]*inv.Location, len(models))
	for i, m := range models {
		out[i] = &inv.Location{ID: m.ID, Code: m.Code, Name: m.Name, Default: m.IsDefault}
	}
	return out, nil
}

func (r *GormLocationRepository) findOne(ctx context.Context, query string, arg interface{}) (*inv.Location, error) {
	var model LocationModel
	err := conn(ctx, r.db).Where(query, arg).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	return &inv.Location{ID: model.ID, Code: model.Code, Name: model.Name, Default: model.IsDefault}, nil
}
