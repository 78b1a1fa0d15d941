package item

import "context"

// ListFilter narrows item listings
type ListFilter struct {
	Kind       *Kind
	Active     *bool
	LowStock   bool // items whose available quantity is below their reorder point
	MaterialID *string
	Search     string
}

// Repository is the persistence port for items
type Repository interface {
	Create(ctx context.Context, it *Item) error
	Update(ctx context.Context, it *Item) error
	FindByID(ctx context.Context, id string) (*Item, error)
	FindBySKU(ctx context.Context, sku string) (*Item, error)
	List(ctx context.Context, filter ListFilter) ([]*Item, error)
	// NextSKUSequence atomically increments and returns the counter behind
	// auto-generated SKUs for the given prefix.
	NextSKUSequence(ctx context.Context, prefix string) (int64, error)
}

// MaterialCatalog is the persistence port for material types and colors
type MaterialCatalog interface {
	FindMaterialTypeByCode(ctx context.Context, code string) (*MaterialType, error)
	FindColorByCode(ctx context.Context, code string) (*Color, error)
	ListMaterialTypes(ctx context.Context) ([]*MaterialType, error)
	ListColors(ctx context.Context) ([]*Color, error)
}
