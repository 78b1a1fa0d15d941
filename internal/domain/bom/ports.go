package bom

import (
	"context"
	"time"
)

// Repository is the persistence port for BOM revisions
type Repository interface {
	Create(ctx context.Context, b *BOM) error
	Update(ctx context.Context, b *BOM) error
	FindByID(ctx context.Context, id string) (*BOM, error)
	RevisionsForParent(ctx context.Context, parentItemID string) ([]*BOM, error)
	// ActiveForParent returns the revision effective at the given time,
	// highest revision winning ties, or nil when none applies.
	ActiveForParent(ctx context.Context, parentItemID string, at time.Time) (*BOM, error)
	AllActive(ctx context.Context, at time.Time) (map[string]*BOM, error)
}

// RoutingRepository is the persistence port for routings
type RoutingRepository interface {
	Create(ctx context.Context, r *Routing) error
	Update(ctx context.Context, r *Routing) error
	ActiveForParent(ctx context.Context, parentItemID string) (*Routing, error)
	AllActive(ctx context.Context) (map[string]*Routing, error)
}

// WorkCenterRepository is the persistence port for work centers
type WorkCenterRepository interface {
	Create(ctx context.Context, w *WorkCenter) error
	FindByID(ctx context.Context, id string) (*WorkCenter, error)
	FindByCode(ctx context.Context, code string) (*WorkCenter, error)
	List(ctx context.Context) ([]*WorkCenter, error)
}
