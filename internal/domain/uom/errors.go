package uom

import (
	"fmt"

	"github.com/printforge/printforge/internal/domain/shared"
)

// UnknownUnitError is returned when a unit is not registered in the graph
type UnknownUnitError struct {
	*shared.DomainError
	Unit Unit
}

func NewUnknownUnitError(unit Unit) *UnknownUnitError {
	return &UnknownUnitError{
		DomainError: shared.NewDomainError(fmt.Sprintf("unknown unit: %s", unit)),
		Unit:        unit,
	}
}

// IncommensurableUnitsError is returned when converting across dimensions
type IncommensurableUnitsError struct {
	*shared.DomainError
	From Unit
	To   Unit
}

func NewIncommensurableUnitsError(from, to Unit) *IncommensurableUnitsError {
	return &IncommensurableUnitsError{
		DomainError: shared.NewDomainError(fmt.Sprintf("cannot convert %s to %s: different dimensions", from, to)),
		From:        from,
		To:          to,
	}
}

// InconsistentGraphError is returned by Validate when two conversion paths
// between the same pair of units disagree
type InconsistentGraphError struct {
	*shared.DomainError
	From Unit
	To   Unit
}

func NewInconsistentGraphError(from, to Unit) *InconsistentGraphError {
	return &InconsistentGraphError{
		DomainError: shared.NewDomainError(fmt.Sprintf("conversion paths between %s and %s disagree", from, to)),
		From:        from,
		To:          to,
	}
}
