package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/application/common"
	"github.com/printforge/printforge/internal/domain/bom"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
)

// Service owns the BOM and routing catalog: revision lifecycle, cycle
// checking, enriched retrieval and cost rollup.
type Service struct {
	boms        bom.Repository
	routings    bom.RoutingRepository
	workCenters bom.WorkCenterRepository
	items       item.Repository
	units       *uom.Graph
	tx          shared.TxManager
	clock       shared.Clock
	log         *logrus.Entry
}

func NewService(
	boms bom.Repository,
	routings bom.RoutingRepository,
	workCenters bom.WorkCenterRepository,
	items item.Repository,
	units *uom.Graph,
	tx shared.TxManager,
	clock shared.Clock,
	logger *logrus.Logger,
) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Service{
		boms:        boms,
		routings:    routings,
		workCenters: workCenters,
		items:       items,
		units:       units,
		tx:          tx,
		clock:       clock,
		log:         common.ComponentLogger(logger, "catalog.service"),
	}
}

// repoLineSource adapts the BOM repository to the cycle checker
type repoLineSource struct {
	ctx  context.Context
	repo bom.Repository
	at   time.Time
}

func (s *repoLineSource) ComponentIDs(parentItemID string) ([]string, error) {
	rev, err := s.repo.ActiveForParent(s.ctx, parentItemID, s.at)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, nil
	}
	lines := rev.PlanningLines()
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ComponentID)
	}
	return ids, nil
}

// CreateBOMParams describes a new BOM revision
type CreateBOMParams struct {
	ParentItemID  string
	Lines         []bom.Line
	EffectiveFrom *time.Time // nil means effective immediately
}

// CreateBOMRevision validates a new revision (components exist, units
// convert to component stock units, no cycle through the active catalog),
// assigns the next revision number and supersedes the previous active
// revision in the same transaction.
func (s *Service) CreateBOMRevision(ctx context.Context, p CreateBOMParams) (*bom.BOM, error) {
	now := s.clock.Now()
	effective := now
	if p.EffectiveFrom != nil {
		effective = *p.EffectiveFrom
	}

	parent, err := s.items.FindByID(ctx, p.ParentItemID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, item.NewUnknownItemError(p.ParentItemID)
	}

	componentIDs := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		comp, err := s.items.FindByID(ctx, l.ComponentID)
		if err != nil {
			return nil, err
		}
		if comp == nil {
			return nil, item.NewUnknownItemError(l.ComponentID)
		}
		if comp.CarriesInventory() {
			// The line unit must convert to the component's stock unit
			if _, err := s.units.Factor(l.Unit, comp.StockUnit()); err != nil {
				return nil, err
			}
		}
		componentIDs = append(componentIDs, l.ComponentID)
	}

	src := &repoLineSource{ctx: ctx, repo: s.boms, at: now}
	if err := bom.CheckCycle(p.ParentItemID, componentIDs, src); err != nil {
		return nil, err
	}

	var created *bom.BOM
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		revisions, err := s.boms.RevisionsForParent(ctx, p.ParentItemID)
		if err != nil {
			return err
		}
		next := 1
		for _, rev := range revisions {
			if rev.Revision >= next {
				next = rev.Revision + 1
			}
		}

		newRev, err := bom.NewBOM(p.ParentItemID, next, effective, p.Lines)
		if err != nil {
			return err
		}

		// Close the previous active revision at the new effectivity start
		if current := bom.ActiveRevisionAt(revisions, effective); current != nil {
			eff := effective
			current.EffectiveTo = &eff
			if err := s.boms.Update(ctx, current); err != nil {
				return err
			}
		}

		if err := s.boms.Create(ctx, newRev); err != nil {
			return err
		}
		created = newRev
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"parent_item_id": p.ParentItemID,
		"revision":       created.Revision,
	}).Info("BOM revision created")
	return created, nil
}

// DeactivateBOM retires a revision without replacing it
func (s *Service) DeactivateBOM(ctx context.Context, bomID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rev, err := s.boms.FindByID(ctx, bomID)
		if err != nil {
			return err
		}
		if rev == nil {
			return bom.NewCatalogInconsistencyError(bomID, "revision not found")
		}
		rev.Active = false
		return s.boms.Update(ctx, rev)
	})
}

// BOMLineView is a BOM line joined with its component item
type BOMLineView struct {
	Line      bom.Line
	Component *item.Item
	// QtyInStockUnit is the per-parent-unit requirement converted to the
	// component's stock unit, scrap included
	QtyInStockUnit decimal.Decimal
}

// BOMView is an active BOM revision with component details resolved
type BOMView struct {
	BOM    *bom.BOM
	Parent *item.Item
	Lines  []BOMLineView
}

// ActiveBOM returns the enriched active revision for a parent item
func (s *Service) ActiveBOM(ctx context.Context, parentItemID string) (*BOMView, error) {
	parent, err := s.items.FindByID(ctx, parentItemID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, item.NewUnknownItemError(parentItemID)
	}
	rev, err := s.boms.ActiveForParent(ctx, parentItemID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, bom.NewMissingActiveBOMError(parentItemID)
	}

	view := &BOMView{BOM: rev, Parent: parent, Lines: make([]BOMLineView, 0, len(rev.Lines))}
	for _, l := range rev.Lines {
		comp, err := s.items.FindByID(ctx, l.ComponentID)
		if err != nil {
			return nil, err
		}
		if comp == nil {
			return nil, bom.NewCatalogInconsistencyError(parentItemID, "line component missing: "+l.ComponentID)
		}
		qty := l.QtyNeeded()
		if comp.CarriesInventory() && l.Unit != comp.StockUnit() {
			qty, err = s.units.Convert(qty, l.Unit, comp.StockUnit())
			if err != nil {
				return nil, err
			}
		}
		view.Lines = append(view.Lines, BOMLineView{Line: l, Component: comp, QtyInStockUnit: qty})
	}
	return view, nil
}

// CreateRoutingParams describes a new routing revision
type CreateRoutingParams struct {
	ParentItemID string
	Operations   []bom.Operation
}

// CreateRouting validates work centers, assigns the next revision number
// and supersedes the previous active routing.
func (s *Service) CreateRouting(ctx context.Context, p CreateRoutingParams) (*bom.Routing, error) {
	for _, op := range p.Operations {
		wc, err := s.workCenters.FindByID(ctx, op.WorkCenterID)
		if err != nil {
			return nil, err
		}
		if wc == nil {
			return nil, bom.NewUnknownWorkCenterError(op.WorkCenterID)
		}
	}

	var created *bom.Routing
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.routings.ActiveForParent(ctx, p.ParentItemID)
		if err != nil {
			return err
		}
		next := 1
		if current != nil {
			next = current.Revision + 1
		}
		routing, err := bom.NewRouting(p.ParentItemID, next, p.Operations)
		if err != nil {
			return err
		}
		if current != nil {
			current.Active = false
			if err := s.routings.Update(ctx, current); err != nil {
				return err
			}
		}
		if err := s.routings.Create(ctx, routing); err != nil {
			return err
		}
		created = routing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ActiveRouting returns the active routing revision for a parent item
func (s *Service) ActiveRouting(ctx context.Context, parentItemID string) (*bom.Routing, error) {
	return s.routings.ActiveForParent(ctx, parentItemID)
}

// CreateWorkCenter stores a work center after validation
func (s *Service) CreateWorkCenter(ctx context.Context, w *bom.WorkCenter) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ID == "" {
		w.ID = shared.NewID()
	}
	return s.workCenters.Create(ctx, w)
}

// ListWorkCenters returns all work centers
func (s *Service) ListWorkCenters(ctx context.Context) ([]*bom.WorkCenter, error) {
	return s.workCenters.List(ctx)
}

// preloadedCostSource feeds the cost roller from maps loaded up front, so
// the traversal itself does no storage access.
type preloadedCostSource struct {
	boms  map[string]*bom.BOM
	items map[string]*item.Item
}

func (s *preloadedCostSource) ActiveBOM(itemID string) *bom.BOM {
	return s.boms[itemID]
}

func (s *preloadedCostSource) StandardCost(itemID string) decimal.Decimal {
	if it := s.items[itemID]; it != nil {
		return it.StandardCost()
	}
	return decimal.Zero
}

func (s *preloadedCostSource) StockUnit(itemID string) uom.Unit {
	if it := s.items[itemID]; it != nil {
		return it.StockUnit()
	}
	return ""
}

// RolledUpCost computes the standard cost of one stock unit of an item by
// walking its active BOM tree.
func (s *Service) RolledUpCost(ctx context.Context, itemID string) (decimal.Decimal, error) {
	now := s.clock.Now()
	boms, err := s.boms.AllActive(ctx, now)
	if err != nil {
		return decimal.Zero, err
	}
	items, err := s.items.List(ctx, item.ListFilter{})
	if err != nil {
		return decimal.Zero, err
	}
	byID := make(map[string]*item.Item, len(items))
	for _, it := range items {
		byID[it.ID()] = it
	}
	roller := bom.NewCostRoller(&preloadedCostSource{boms: boms, items: byID}, s.units)
	return roller.Rollup(itemID)
}
