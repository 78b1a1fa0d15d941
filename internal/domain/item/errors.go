package item

import (
	"fmt"

	"github.com/printforge/printforge/internal/domain/shared"
)

// DuplicateSKUError is returned when an active item already uses a SKU
type DuplicateSKUError struct {
	*shared.DomainError
	SKU string
}

func NewDuplicateSKUError(sku string) *DuplicateSKUError {
	return &DuplicateSKUError{
		DomainError: shared.NewDomainError(fmt.Sprintf("an active item with SKU %s already exists", sku)),
		SKU:         sku,
	}
}

// UnknownItemError is returned when an item id or SKU does not resolve
type UnknownItemError struct {
	*shared.DomainError
	Ref string
}

func NewUnknownItemError(ref string) *UnknownItemError {
	return &UnknownItemError{
		DomainError: shared.NewDomainError(fmt.Sprintf("unknown item: %s", ref)),
		Ref:         ref,
	}
}

// UnknownMaterialTypeError is returned for an unrecognized material type code
type UnknownMaterialTypeError struct {
	*shared.DomainError
	Code string
}

func NewUnknownMaterialTypeError(code string) *UnknownMaterialTypeError {
	return &UnknownMaterialTypeError{
		DomainError: shared.NewDomainError(fmt.Sprintf("unknown material type: %s", code)),
		Code:        code,
	}
}

// UnknownColorError is returned for an unrecognized color code
type UnknownColorError struct {
	*shared.DomainError
	Code string
}

func NewUnknownColorError(code string) *UnknownColorError {
	return &UnknownColorError{
		DomainError: shared.NewDomainError(fmt.Sprintf("unknown color: %s", code)),
		Code:        code,
	}
}

// InvalidUnitError is returned when a stock unit is missing or not registered
type InvalidUnitError struct {
	*shared.DomainError
	Unit string
}

func NewInvalidUnitError(unit string) *InvalidUnitError {
	return &InvalidUnitError{
		DomainError: shared.NewDomainError(fmt.Sprintf("invalid stock unit: %q", unit)),
		Unit:        unit,
	}
}
