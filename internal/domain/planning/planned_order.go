package planning

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind says how a planned order would be fulfilled
type OrderKind string

const (
	OrderMake OrderKind = "make"
	OrderBuy  OrderKind = "buy"
)

// IsValid checks if the kind is one of the closed set
func (k OrderKind) IsValid() bool {
	return k == OrderMake || k == OrderBuy
}

func (k OrderKind) String() string {
	return string(k)
}

// PlannedOrder is a suggestion produced by a planning run: make or buy a
// quantity of an item, releasing on ReleaseDate so it lands by NeedDate.
// Planned orders are advisory until firmed into a production or purchase
// order; every run replaces the previous set.
type PlannedOrder struct {
	ID          string
	Kind        OrderKind
	ItemID      string
	Quantity    decimal.Decimal
	ReleaseDate time.Time
	NeedDate    time.Time
	Pegs        []Peg
	RunID       string
}

// PeggedTo reports whether any share of the order traces to the given
// sales order.
func (p *PlannedOrder) PeggedTo(salesOrderID string) bool {
	for _, peg := range p.Pegs {
		if peg.Source.Kind == DemandSalesLine && peg.Source.RefID == salesOrderID {
			return true
		}
	}
	return false
}

// PeggedQuantity returns the share of the order pegged to the given source
func (p *PlannedOrder) PeggedQuantity(src DemandSource) decimal.Decimal {
	total := decimal.Zero
	for _, peg := range p.Pegs {
		if peg.Source == src {
			total = total.Add(peg.Quantity)
		}
	}
	return total
}
