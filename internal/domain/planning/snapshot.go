package planning

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/domain/bom"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/uom"
)

// ReceiptSource identifies the kind of open supply behind a scheduled receipt
type ReceiptSource string

const (
	ReceiptPurchaseOrder   ReceiptSource = "purchase_order"
	ReceiptProductionOrder ReceiptSource = "production_order"
)

// ScheduledReceipt is open supply already on order: the remaining quantity of
// an open purchase order line or production order, due on its promised date.
type ScheduledReceipt struct {
	ItemID   string
	Quantity decimal.Decimal
	DueDate  time.Time
	Source   ReceiptSource
	RefID    string
}

// Snapshot is a point-in-time, fully preloaded view of everything a planning
// run reads. The engine never touches storage: the loader assembles the
// snapshot up front and the run is a pure function over it.
type Snapshot struct {
	TakenAt     time.Time
	Items       map[string]*item.Item       // by item id
	BOMs        map[string]*bom.BOM         // active revision by parent item id
	Routings    map[string]*bom.Routing     // active revision by parent item id
	WorkCenters map[string]*bom.WorkCenter  // by work center id
	Available   map[string]decimal.Decimal  // on_hand minus reserved, summed over locations, by item id
	Receipts    []ScheduledReceipt
	Units       *uom.Graph
}

// AvailableFor returns the snapshot available quantity for an item, zero when
// the item has no balance rows.
func (s *Snapshot) AvailableFor(itemID string) decimal.Decimal {
	if q, ok := s.Available[itemID]; ok {
		return q
	}
	return decimal.Zero
}

// ReceiptsFor returns the scheduled receipts of one item, in due-date order
func (s *Snapshot) ReceiptsFor(itemID string) []ScheduledReceipt {
	out := make([]ScheduledReceipt, 0, 4)
	for _, r := range s.Receipts {
		if r.ItemID == itemID {
			out = append(out, r)
		}
	}
	return out
}
