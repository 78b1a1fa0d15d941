package item

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
)

// Kind classifies what an item is
type Kind string

const (
	KindFinishedGood Kind = "finished_good"
	KindComponent    Kind = "component"
	KindSupply       Kind = "supply"
	KindService      Kind = "service"
)

// AllKinds returns all valid item kinds
func AllKinds() []Kind {
	return []Kind{KindFinishedGood, KindComponent, KindSupply, KindService}
}

// IsValid checks if the kind is one of the closed set
func (k Kind) IsValid() bool {
	switch k {
	case KindFinishedGood, KindComponent, KindSupply, KindService:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind parses a string into a Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", shared.NewValidationError("kind", "invalid item kind: "+s)
	}
	return k, nil
}

// Procurement declares how an item is sourced
type Procurement string

const (
	ProcurementMake      Procurement = "make"
	ProcurementBuy       Procurement = "buy"
	ProcurementMakeOrBuy Procurement = "make_or_buy"
)

// IsValid checks if the procurement policy is one of the closed set
func (p Procurement) IsValid() bool {
	switch p {
	case ProcurementMake, ProcurementBuy, ProcurementMakeOrBuy:
		return true
	default:
		return false
	}
}

func (p Procurement) String() string {
	return string(p)
}

// ParseProcurement parses a string into a Procurement
func ParseProcurement(s string) (Procurement, error) {
	p := Procurement(s)
	if !p.IsValid() {
		return "", shared.NewValidationError("procurement", "invalid procurement policy: "+s)
	}
	return p, nil
}

// Item is the canonical entity for every stocked or consumed thing.
//
// Invariants:
// - SKU is unique among active items (case-insensitive, enforced at storage)
// - material items carry both a material type and a color
// - service items carry no inventory
type Item struct {
	id             string
	sku            string
	name           string
	kind           Kind
	procurement    Procurement
	stockUnit      uom.Unit
	materialTypeID *string
	colorID        *string
	standardCost   decimal.Decimal
	reorderPoint   decimal.Decimal
	safetyStock    decimal.Decimal
	leadTimeDays   int
	lotTracked     bool
	active         bool
	createdAt      time.Time
	updatedAt      time.Time
}

// NewItemParams carries the attributes needed to create an item
type NewItemParams struct {
	SKU            string
	Name           string
	Kind           Kind
	Procurement    Procurement
	StockUnit      uom.Unit
	MaterialTypeID *string
	ColorID        *string
	StandardCost   decimal.Decimal
	ReorderPoint   decimal.Decimal
	SafetyStock    decimal.Decimal
	LeadTimeDays   int
	LotTracked     bool
}

// NewItem creates an item with validation
func NewItem(p NewItemParams, now time.Time) (*Item, error) {
	if !p.Kind.IsValid() {
		return nil, shared.NewValidationError("kind", "invalid item kind: "+string(p.Kind))
	}
	if !p.Procurement.IsValid() {
		return nil, shared.NewValidationError("procurement", "invalid procurement policy: "+string(p.Procurement))
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, shared.NewValidationError("name", "name is required")
	}
	if p.Kind != KindService && p.StockUnit == "" {
		return nil, NewInvalidUnitError(string(p.StockUnit))
	}
	if p.MaterialTypeID != nil || p.ColorID != nil {
		if p.MaterialTypeID == nil || p.ColorID == nil {
			return nil, shared.NewValidationError("material", "material items require both material type and color")
		}
	}
	if p.LeadTimeDays < 0 {
		return nil, shared.NewValidationError("lead_time_days", "lead time cannot be negative")
	}
	if p.ReorderPoint.IsNegative() || p.SafetyStock.IsNegative() {
		return nil, shared.NewValidationError("stock_levels", "reorder point and safety stock cannot be negative")
	}

	return &Item{
		id:             shared.NewID(),
		sku:            NormalizeSKU(p.SKU),
		name:           p.Name,
		kind:           p.Kind,
		procurement:    p.Procurement,
		stockUnit:      p.StockUnit,
		materialTypeID: p.MaterialTypeID,
		colorID:        p.ColorID,
		standardCost:   p.StandardCost,
		reorderPoint:   p.ReorderPoint,
		safetyStock:    p.SafetyStock,
		leadTimeDays:   p.LeadTimeDays,
		lotTracked:     p.LotTracked,
		active:         true,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstruct restores an item from persistence, bypassing creation rules
func Reconstruct(
	id, sku, name string,
	kind Kind,
	procurement Procurement,
	stockUnit uom.Unit,
	materialTypeID, colorID *string,
	standardCost, reorderPoint, safetyStock decimal.Decimal,
	leadTimeDays int,
	lotTracked, active bool,
	createdAt, updatedAt time.Time,
) *Item {
	return &Item{
		id:             id,
		sku:            sku,
		name:           name,
		kind:           kind,
		procurement:    procurement,
		stockUnit:      stockUnit,
		materialTypeID: materialTypeID,
		colorID:        colorID,
		standardCost:   standardCost,
		reorderPoint:   reorderPoint,
		safetyStock:    safetyStock,
		leadTimeDays:   leadTimeDays,
		lotTracked:     lotTracked,
		active:         active,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (i *Item) ID() string                  { return i.id }
func (i *Item) SKU() string                 { return i.sku }
func (i *Item) Name() string                { return i.name }
func (i *Item) Kind() Kind                  { return i.kind }
func (i *Item) Procurement() Procurement    { return i.procurement }
func (i *Item) StockUnit() uom.Unit         { return i.stockUnit }
func (i *Item) MaterialTypeID() *string     { return i.materialTypeID }
func (i *Item) ColorID() *string            { return i.colorID }
func (i *Item) StandardCost() decimal.Decimal { return i.standardCost }
func (i *Item) ReorderPoint() decimal.Decimal { return i.reorderPoint }
func (i *Item) SafetyStock() decimal.Decimal  { return i.safetyStock }
func (i *Item) LeadTimeDays() int           { return i.leadTimeDays }
func (i *Item) LotTracked() bool            { return i.lotTracked }
func (i *Item) Active() bool                { return i.active }
func (i *Item) CreatedAt() time.Time        { return i.createdAt }
func (i *Item) UpdatedAt() time.Time        { return i.updatedAt }

// CarriesInventory reports whether ledger transactions are meaningful for
// this item. Service items never carry inventory.
func (i *Item) CarriesInventory() bool {
	return i.kind != KindService
}

// IsMaterial reports whether the item is a typed/colored print material
func (i *Item) IsMaterial() bool {
	return i.materialTypeID != nil && i.colorID != nil
}

// UpdateParams carries mutable attributes for an update
type UpdateParams struct {
	Name         *string
	Procurement  *Procurement
	StandardCost *decimal.Decimal
	ReorderPoint *decimal.Decimal
	SafetyStock  *decimal.Decimal
	LeadTimeDays *int
	LotTracked   *bool
}

// Update applies the non-nil fields of params
func (i *Item) Update(p UpdateParams, now time.Time) error {
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return shared.NewValidationError("name", "name is required")
		}
		i.name = *p.Name
	}
	if p.Procurement != nil {
		if !p.Procurement.IsValid() {
			return shared.NewValidationError("procurement", "invalid procurement policy: "+string(*p.Procurement))
		}
		i.procurement = *p.Procurement
	}
	if p.StandardCost != nil {
		i.standardCost = *p.StandardCost
	}
	if p.ReorderPoint != nil {
		if p.ReorderPoint.IsNegative() {
			return shared.NewValidationError("reorder_point", "reorder point cannot be negative")
		}
		i.reorderPoint = *p.ReorderPoint
	}
	if p.SafetyStock != nil {
		if p.SafetyStock.IsNegative() {
			return shared.NewValidationError("safety_stock", "safety stock cannot be negative")
		}
		i.safetyStock = *p.SafetyStock
	}
	if p.LeadTimeDays != nil {
		if *p.LeadTimeDays < 0 {
			return shared.NewValidationError("lead_time_days", "lead time cannot be negative")
		}
		i.leadTimeDays = *p.LeadTimeDays
	}
	if p.LotTracked != nil {
		i.lotTracked = *p.LotTracked
	}
	i.updatedAt = now
	return nil
}

// Deactivate soft-deletes the item
func (i *Item) Deactivate(now time.Time) {
	i.active = false
	i.updatedAt = now
}
