package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemModel represents the items table
type ItemModel struct {
	ID             string          `gorm:"column:id;primaryKey"`
	SKU            string          `gorm:"column:sku;not null;index:idx_items_sku"`
	Name           string          `gorm:"column:name;not null"`
	Kind           string          `gorm:"column:kind;not null"`
	Procurement    string          `gorm:"column:procurement;not null"`
	StockUnit      string          `gorm:"column:stock_unit"`
	MaterialTypeID *string         `gorm:"column:material_type_id"`
	ColorID        *string         `gorm:"column:color_id"`
	StandardCost   decimal.Decimal `gorm:"column:standard_cost;type:numeric"`
	ReorderPoint   decimal.Decimal `gorm:"column:reorder_point;type:numeric"`
	SafetyStock    decimal.Decimal `gorm:"column:safety_stock;type:numeric"`
	LeadTimeDays   int             `gorm:"column:lead_time_days;not null;default:0"`
	LotTracked     bool            `gorm:"column:lot_tracked;not null;default:false"`
	Active         bool            `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;not null"`
}

func (ItemModel) TableName() string {
	return "items"
}

// MaterialTypeModel represents the material_types table
type MaterialTypeModel struct {
	ID   string `gorm:"column:id;primaryKey"`
	Code string `gorm:"column:code;unique;not null"`
	Name string `gorm:"column:name;not null"`
}

func (MaterialTypeModel) TableName() string {
	return "material_types"
}

// ColorModel represents the colors table
type ColorModel struct {
	ID   string `gorm:"column:id;primaryKey"`
	Code string `gorm:"column:code;unique;not null"`
	Name string `gorm:"column:name;not null"`
}

func (ColorModel) TableName() string {
	return "colors"
}

// LocationModel represents the locations table
type LocationModel struct {
	ID        string `gorm:"column:id;primaryKey"`
	Code      string `gorm:"column:code;unique;not null"`
	Name      string `gorm:"column:name;not null"`
	IsDefault bool   `gorm:"column:is_default;not null;default:false"`
}

func (LocationModel) TableName() string {
	return "locations"
}

// TransactionModel represents the inventory_transactions table. Rows are
// append-only; there is no update path.
type TransactionModel struct {
	ID             string          `gorm:"column:id;primaryKey"`
	ItemID         string          `gorm:"column:item_id;not null;index:idx_txn_item_location"`
	LocationID     string          `gorm:"column:location_id;not null;index:idx_txn_item_location"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:numeric;not null"`
	Kind           string          `gorm:"column:kind;not null"`
	RefKind        string          `gorm:"column:ref_kind;index:idx_txn_ref"`
	RefID          string          `gorm:"column:ref_id;index:idx_txn_ref"`
	ReservationID  *string         `gorm:"column:reservation_id"`
	IdempotencyKey *string         `gorm:"column:idempotency_key;uniqueIndex:idx_txn_idempotency"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null"`
	CreatedBy      string          `gorm:"column:created_by"`
}

func (TransactionModel) TableName() string {
	return "inventory_transactions"
}

// BalanceModel represents the inventory_balances table, the derived
// projection of the transaction log per (item, location).
type BalanceModel struct {
	ItemID     string          `gorm:"column:item_id;primaryKey"`
	LocationID string          `gorm:"column:location_id;primaryKey"`
	OnHand     decimal.Decimal `gorm:"column:on_hand;type:numeric;not null"`
	Reserved   decimal.Decimal `gorm:"column:reserved;type:numeric;not null"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (BalanceModel) TableName() string {
	return "inventory_balances"
}

// ReservationModel represents the inventory_reservations table
type ReservationModel struct {
	ID         string          `gorm:"column:id;primaryKey"`
	ItemID     string          `gorm:"column:item_id;not null;index:idx_res_item"`
	LocationID string          `gorm:"column:location_id;not null"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:numeric;not null"`
	Consumed   decimal.Decimal `gorm:"column:consumed;type:numeric;not null"`
	RefKind    string          `gorm:"column:ref_kind;index:idx_res_ref"`
	RefID      string          `gorm:"column:ref_id;index:idx_res_ref"`
	Active     bool            `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time       `gorm:"column:created_at;not null"`
	ReleasedAt *time.Time      `gorm:"column:released_at"`
}

func (ReservationModel) TableName() string {
	return "inventory_reservations"
}

// BOMModel represents the bom_revisions table
type BOMModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	ParentItemID  string     `gorm:"column:parent_item_id;not null;index:idx_bom_parent"`
	Revision      int        `gorm:"column:revision;not null"`
	Active        bool       `gorm:"column:active;not null;default:true"`
	EffectiveFrom time.Time  `gorm:"column:effective_from;not null"`
	EffectiveTo   *time.Time `gorm:"column:effective_to"`
}

func (BOMModel) TableName() string {
	return "bom_revisions"
}

// BOMLineModel represents the bom_lines table
type BOMLineModel struct {
	ID          string          `gorm:"column:id;primaryKey"`
	BOMID       string          `gorm:"column:bom_id;not null;index:idx_bom_line_bom"`
	Seq         int             `gorm:"column:seq;not null"`
	ComponentID string          `gorm:"column:component_id;not null"`
	QtyPer      decimal.Decimal `gorm:"column:qty_per;type:numeric;not null"`
	Unit        string          `gorm:"column:unit;not null"`
	ScrapFactor decimal.Decimal `gorm:"column:scrap_factor;type:numeric;not null"`
	Stage       string          `gorm:"column:consume_stage;not null"`
	CostOnly    bool            `gorm:"column:cost_only;not null;default:false"`
}

func (BOMLineModel) TableName() string {
	return "bom_lines"
}

// RoutingModel represents the routings table
type RoutingModel struct {
	ID           string `gorm:"column:id;primaryKey"`
	ParentItemID string `gorm:"column:parent_item_id;not null;index:idx_routing_parent"`
	Revision     int    `gorm:"column:revision;not null"`
	Active       bool   `gorm:"column:active;not null;default:true"`
}

func (RoutingModel) TableName() string {
	return "routings"
}

// RoutingOperationModel represents the routing_operations table
type RoutingOperationModel struct {
	ID             string           `gorm:"column:id;primaryKey"`
	RoutingID      string           `gorm:"column:routing_id;not null;index:idx_routing_op_routing"`
	Seq            int              `gorm:"column:seq;not null"`
	WorkCenterID   string           `gorm:"column:work_center_id;not null"`
	SetupTimeMin   decimal.Decimal  `gorm:"column:setup_time_min;type:numeric;not null"`
	RunTimePerUnit decimal.Decimal  `gorm:"column:run_time_per_unit;type:numeric;not null"`
	RateOverride   *decimal.Decimal `gorm:"column:rate_override;type:numeric"`
}

func (RoutingOperationModel) TableName() string {
	return "routing_operations"
}

// WorkCenterModel represents the work_centers table
type WorkCenterModel struct {
	ID               string          `gorm:"column:id;primaryKey"`
	Code             string          `gorm:"column:code;unique;not null"`
	Kind             string          `gorm:"column:kind"`
	DailyCapacityMin decimal.Decimal `gorm:"column:daily_capacity_min;type:numeric;not null"`
	DefaultRate      decimal.Decimal `gorm:"column:default_rate;type:numeric;not null"`
}

func (WorkCenterModel) TableName() string {
	return "work_centers"
}

// SalesOrderModel represents the sales_orders table
type SalesOrderModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Number        string    `gorm:"column:number;unique;not null"`
	CustomerID    string    `gorm:"column:customer_id"`
	Status        string    `gorm:"column:status;not null;index:idx_so_status"`
	RequestedDate time.Time `gorm:"column:requested_date;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
}

func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// SalesOrderLineModel represents the sales_order_lines table
type SalesOrderLineModel struct {
	ID           string          `gorm:"column:id;primaryKey"`
	OrderID      string          `gorm:"column:order_id;not null;index:idx_so_line_order"`
	Seq          int             `gorm:"column:seq;not null"`
	ItemID       string          `gorm:"column:item_id;not null"`
	QtyOrdered   decimal.Decimal `gorm:"column:qty_ordered;type:numeric;not null"`
	QtyAllocated decimal.Decimal `gorm:"column:qty_allocated;type:numeric;not null"`
	QtyShipped   decimal.Decimal `gorm:"column:qty_shipped;type:numeric;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric;not null"`
	NeedDate     *time.Time      `gorm:"column:need_date"`
}

func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ProductionOrderModel represents the production_orders table.
// lock_version backs the optimistic-concurrency write in the repository.
type ProductionOrderModel struct {
	ID             string          `gorm:"column:id;primaryKey"`
	Code           string          `gorm:"column:code;unique;not null"`
	ItemID         string          `gorm:"column:item_id;not null;index:idx_po_item"`
	QtyOrdered     decimal.Decimal `gorm:"column:qty_ordered;type:numeric;not null"`
	QtyCompleted   decimal.Decimal `gorm:"column:qty_completed;type:numeric;not null"`
	QtyScrapped    decimal.Decimal `gorm:"column:qty_scrapped;type:numeric;not null"`
	Status         string          `gorm:"column:status;not null;index:idx_po_status"`
	SalesOrderID   *string         `gorm:"column:sales_order_id;index:idx_po_sales_order"`
	SalesOrderLine *int            `gorm:"column:sales_order_line"`
	ParentID       *string         `gorm:"column:parent_id"`
	NeededDate     time.Time       `gorm:"column:needed_date;not null"`
	WorkCenterID   *string         `gorm:"column:work_center_id"`
	CurrentOpSeq   int             `gorm:"column:current_op_seq;not null;default:0"`
	LockVersion    int             `gorm:"column:lock_version;not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;not null"`
}

func (ProductionOrderModel) TableName() string {
	return "production_orders"
}

// PurchaseOrderModel represents the purchase_orders table
type PurchaseOrderModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Code         string    `gorm:"column:code;unique;not null"`
	VendorID     string    `gorm:"column:vendor_id"`
	Status       string    `gorm:"column:status;not null;index:idx_pur_status"`
	ExpectedDate time.Time `gorm:"column:expected_date;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderLineModel represents the purchase_order_lines table
type PurchaseOrderLineModel struct {
	ID          string          `gorm:"column:id;primaryKey"`
	OrderID     string          `gorm:"column:order_id;not null;index:idx_pur_line_order"`
	Seq         int             `gorm:"column:seq;not null"`
	ItemID      string          `gorm:"column:item_id;not null;index:idx_pur_line_item"`
	QtyOrdered  decimal.Decimal `gorm:"column:qty_ordered;type:numeric;not null"`
	QtyReceived decimal.Decimal `gorm:"column:qty_received;type:numeric;not null"`
	UnitCost    decimal.Decimal `gorm:"column:unit_cost;type:numeric;not null"`
}

func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}

// PlannedOrderModel represents the planned_orders table. Rows belong to the
// planning run that produced them and are replaced wholesale on each run.
type PlannedOrderModel struct {
	ID          string          `gorm:"column:id;primaryKey"`
	RunID       string          `gorm:"column:run_id;not null;index:idx_planned_run"`
	Kind        string          `gorm:"column:kind;not null"`
	ItemID      string          `gorm:"column:item_id;not null;index:idx_planned_item"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric;not null"`
	ReleaseDate time.Time       `gorm:"column:release_date;not null"`
	NeedDate    time.Time       `gorm:"column:need_date;not null"`
	PegsJSON    string          `gorm:"column:pegs_json;type:text"`
}

func (PlannedOrderModel) TableName() string {
	return "planned_orders"
}

// CounterModel represents the counters table behind monotonic code and SKU
// sequences. Rows are incremented under a row lock.
type CounterModel struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null;default:0"`
}

func (CounterModel) TableName() string {
	return "counters"
}

// AllModels returns every model for migration
func AllModels() []interface{} {
	return []interface{}{
		&ItemModel{},
		&MaterialTypeModel{},
		&ColorModel{},
		&LocationModel{},
		&TransactionModel{},
		&BalanceModel{},
		&ReservationModel{},
		&BOMModel{},
		&BOMLineModel{},
		&RoutingModel{},
		&RoutingOperationModel{},
		&WorkCenterModel{},
		&SalesOrderModel{},
		&SalesOrderLineModel{},
		&ProductionOrderModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderLineModel{},
		&PlannedOrderModel{},
		&CounterModel{},
	}
}
