package bom

import (
	"fmt"
	"strings"

	"github.com/printforge/printforge/internal/domain/shared"
)

// BOMCycleError is returned when a mutation would make an item a member of
// its own component closure
type BOMCycleError struct {
	*shared.DomainError
	Path []string
}

func NewBOMCycleError(path []string) *BOMCycleError {
	return &BOMCycleError{
		DomainError: shared.NewDomainError(fmt.Sprintf("BOM cycle detected: %s", strings.Join(path, " -> "))),
		Path:        path,
	}
}

// MissingActiveBOMError is returned when a make item with demand has no
// active BOM revision
type MissingActiveBOMError struct {
	*shared.DomainError
	ItemID string
}

func NewMissingActiveBOMError(itemID string) *MissingActiveBOMError {
	return &MissingActiveBOMError{
		DomainError: shared.NewDomainError(fmt.Sprintf("no active BOM for make item %s", itemID)),
		ItemID:      itemID,
	}
}

// InvalidRoutingError is returned for a routing violating its invariants
type InvalidRoutingError struct {
	*shared.DomainError
	ParentItemID string
}

func NewInvalidRoutingError(parentItemID, reason string) *InvalidRoutingError {
	return &InvalidRoutingError{
		DomainError:  shared.NewDomainError(fmt.Sprintf("invalid routing for %s: %s", parentItemID, reason)),
		ParentItemID: parentItemID,
	}
}

// UnknownWorkCenterError is returned when a work center does not resolve
type UnknownWorkCenterError struct {
	*shared.DomainError
	Ref string
}

func NewUnknownWorkCenterError(ref string) *UnknownWorkCenterError {
	return &UnknownWorkCenterError{
		DomainError: shared.NewDomainError(fmt.Sprintf("unknown work center: %s", ref)),
		Ref:         ref,
	}
}

// CatalogInconsistencyError signals corrupted catalog state (two active
// revisions for the same effectivity window). Fatal; fail loud.
type CatalogInconsistencyError struct {
	*shared.DomainError
	ParentItemID string
}

func NewCatalogInconsistencyError(parentItemID, detail string) *CatalogInconsistencyError {
	return &CatalogInconsistencyError{
		DomainError:  shared.NewDomainError(fmt.Sprintf("catalog inconsistency for %s: %s", parentItemID, detail)),
		ParentItemID: parentItemID,
	}
}
