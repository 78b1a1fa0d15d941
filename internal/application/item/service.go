package item

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/application/common"
	inventoryapp "github.com/printforge/printforge/internal/application/inventory"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
)

// Service owns item-master writes: plain items, the material shortcut and
// lifecycle changes.
type Service struct {
	items     item.Repository
	materials item.MaterialCatalog
	ledger    *inventoryapp.Service
	units     *uom.Graph
	tx        shared.TxManager
	clock     shared.Clock
	log       *logrus.Entry
}

func NewService(
	items item.Repository,
	materials item.MaterialCatalog,
	ledger *inventoryapp.Service,
	units *uom.Graph,
	tx shared.TxManager,
	clock shared.Clock,
	logger *logrus.Logger,
) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Service{
		items:     items,
		materials: materials,
		ledger:    ledger,
		units:     units,
		tx:        tx,
		clock:     clock,
		log:       common.ComponentLogger(logger, "item.service"),
	}
}

// CreateParams carries the attributes of a new item. SKU empty means
// auto-generate from the kind prefix counter.
type CreateParams struct {
	SKU          string
	Name         string
	Kind         item.Kind
	Procurement  item.Procurement
	StockUnit    uom.Unit
	StandardCost decimal.Decimal
	ReorderPoint decimal.Decimal
	SafetyStock  decimal.Decimal
	LeadTimeDays int
	LotTracked   bool
}

// Create validates and stores a new item
func (s *Service) Create(ctx context.Context, p CreateParams) (*item.Item, error) {
	if p.Kind != item.KindService && !s.units.Knows(p.StockUnit) {
		return nil, item.NewInvalidUnitError(string(p.StockUnit))
	}

	var created *item.Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sku := item.NormalizeSKU(p.SKU)
		if sku == "" {
			seq, err := s.items.NextSKUSequence(ctx, item.KindPrefix(p.Kind))
			if err != nil {
				return err
			}
			sku = item.GenerateSKU(p.Kind, seq)
		} else {
			existing, err := s.items.FindBySKU(ctx, sku)
			if err != nil {
				return err
			}
			if existing != nil && existing.Active() {
				return item.NewDuplicateSKUError(sku)
			}
		}

		it, err := item.NewItem(item.NewItemParams{
			SKU:          sku,
			Name:         p.Name,
			Kind:         p.Kind,
			Procurement:  p.Procurement,
			StockUnit:    p.StockUnit,
			StandardCost: p.StandardCost,
			ReorderPoint: p.ReorderPoint,
			SafetyStock:  p.SafetyStock,
			LeadTimeDays: p.LeadTimeDays,
			LotTracked:   p.LotTracked,
		}, s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.items.Create(ctx, it); err != nil {
			return err
		}
		created = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"item_id": created.ID(), "sku": created.SKU()}).Info("item created")
	return created, nil
}

// CreateMaterialParams is the material shortcut: a buy component derived
// from a material type and color, with an optional opening receipt.
type CreateMaterialParams struct {
	MaterialTypeCode string
	ColorCode        string
	Name             string
	StandardCost     decimal.Decimal
	ReorderPoint     decimal.Decimal
	SafetyStock      decimal.Decimal
	LeadTimeDays     int
	// InitialQuantity, when positive, posts an opening receipt at the
	// default location in the same transaction
	InitialQuantity decimal.Decimal
	CreatedBy       string
}

// CreateMaterialResult enumerates everything the composite operation created
type CreateMaterialResult struct {
	Item           *item.Item
	OpeningReceipt *inv.Transaction
}

// CreateMaterial creates a print-material item from the material catalog.
// The SKU is derived (MAT-<type>-<color>), the stock unit is grams and the
// optional opening stock posts atomically with the item itself.
func (s *Service) CreateMaterial(ctx context.Context, p CreateMaterialParams) (*CreateMaterialResult, error) {
	mt, err := s.materials.FindMaterialTypeByCode(ctx, p.MaterialTypeCode)
	if err != nil {
		return nil, err
	}
	if mt == nil {
		return nil, item.NewUnknownMaterialTypeError(p.MaterialTypeCode)
	}
	color, err := s.materials.FindColorByCode(ctx, p.ColorCode)
	if err != nil {
		return nil, err
	}
	if color == nil {
		return nil, item.NewUnknownColorError(p.ColorCode)
	}

	sku := item.MaterialSKU(mt.Code, color.Code)
	name := p.Name
	if name == "" {
		name = mt.Name + " " + color.Name
	}

	result := &CreateMaterialResult{}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.items.FindBySKU(ctx, sku)
		if err != nil {
			return err
		}
		if existing != nil && existing.Active() {
			return item.NewDuplicateSKUError(sku)
		}

		it, err := item.NewItem(item.NewItemParams{
			SKU:            sku,
			Name:           name,
			Kind:           item.KindComponent,
			Procurement:    item.ProcurementBuy,
			StockUnit:      uom.UnitGram,
			MaterialTypeID: &mt.ID,
			ColorID:        &color.ID,
			StandardCost:   p.StandardCost,
			ReorderPoint:   p.ReorderPoint,
			SafetyStock:    p.SafetyStock,
			LeadTimeDays:   p.LeadTimeDays,
		}, s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.items.Create(ctx, it); err != nil {
			return err
		}
		result.Item = it

		if p.InitialQuantity.IsPositive() {
			txn, err := s.ledger.Post(ctx, inventoryapp.PostParams{
				ItemID:    it.ID(),
				Quantity:  p.InitialQuantity,
				Kind:      inv.TxnReceipt,
				RefKind:   "item",
				RefID:     it.ID(),
				CreatedBy: p.CreatedBy,
			})
			if err != nil {
				return err
			}
			result.OpeningReceipt = txn
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"item_id": result.Item.ID(), "sku": sku}).Info("material item created")
	return result, nil
}

// Update applies mutable attribute changes to an item
func (s *Service) Update(ctx context.Context, id string, p item.UpdateParams) (*item.Item, error) {
	var updated *item.Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		it, err := s.items.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if it == nil {
			return item.NewUnknownItemError(id)
		}
		if err := it.Update(p, s.clock.Now()); err != nil {
			return err
		}
		if err := s.items.Update(ctx, it); err != nil {
			return err
		}
		updated = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deactivate retires an item. History stays; the SKU may be reused by a new
// active item.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		it, err := s.items.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if it == nil {
			return item.NewUnknownItemError(id)
		}
		it.Deactivate(s.clock.Now())
		return s.items.Update(ctx, it)
	})
}

// Get loads one item by id
func (s *Service) Get(ctx context.Context, id string) (*item.Item, error) {
	it, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, item.NewUnknownItemError(id)
	}
	return it, nil
}

// GetBySKU loads one item by its normalized SKU
func (s *Service) GetBySKU(ctx context.Context, sku string) (*item.Item, error) {
	it, err := s.items.FindBySKU(ctx, item.NormalizeSKU(sku))
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, item.NewUnknownItemError(sku)
	}
	return it, nil
}

// List returns items matching the filter
func (s *Service) List(ctx context.Context, filter item.ListFilter) ([]*item.Item, error) {
	return s.items.List(ctx, filter)
}
