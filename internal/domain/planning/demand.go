package planning

import (
	"time"

	"github.com/shopspring/decimal"
)

// DemandKind identifies where a demand line came from
type DemandKind string

const (
	DemandSalesLine   DemandKind = "sales_line"
	DemandFirmPlanned DemandKind = "firm_planned"
	DemandSafetyStock DemandKind = "safety_stock"
)

// DemandSource identifies one demand line for pegging
type DemandSource struct {
	Kind    DemandKind
	RefID   string // sales order id or firm planned order id
	LineSeq int    // sales order line sequence, 0 otherwise
}

// Demand is one independent requirement fed into an MRP run
type Demand struct {
	ItemID   string
	Quantity decimal.Decimal
	NeedDate time.Time
	Source   DemandSource
}

// Peg attributes a share of a planned order to a demand source
type Peg struct {
	Source   DemandSource
	Quantity decimal.Decimal
}
