package queries

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/application/common"
	inventoryapp "github.com/printforge/printforge/internal/application/inventory"
)

// GetStockLevelQuery represents a query for one item's inventory position
type GetStockLevelQuery struct {
	ItemID string
}

// BalanceDTO is the position at one location
type BalanceDTO struct {
	LocationID string
	OnHand     decimal.Decimal
	Reserved   decimal.Decimal
	Available  decimal.Decimal
}

// GetStockLevelResponse represents the result of the query
type GetStockLevelResponse struct {
	ItemID    string
	OnHand    decimal.Decimal
	Reserved  decimal.Decimal
	Available decimal.Decimal
	Locations []BalanceDTO
}

// GetStockLevelHandler handles the GetStockLevel query
type GetStockLevelHandler struct {
	ledger *inventoryapp.Service
}

func NewGetStockLevelHandler(ledger *inventoryapp.Service) *GetStockLevelHandler {
	return &GetStockLevelHandler{ledger: ledger}
}

// Handle executes the GetStockLevel query
func (h *GetStockLevelHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetStockLevelQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetStockLevelQuery")
	}

	level, err := h.ledger.StockLevelFor(ctx, query.ItemID)
	if err != nil {
		return nil, err
	}

	resp := &GetStockLevelResponse{
		ItemID:    level.ItemID,
		OnHand:    level.OnHand,
		Reserved:  level.Reserved,
		Available: level.Available,
	}
	for _, b := range level.Balances {
		resp.Locations = append(resp.Locations, BalanceDTO{
			LocationID: b.LocationID,
			OnHand:     b.OnHand,
			Reserved:   b.Reserved,
			Available:  b.Available(),
		})
	}
	return resp, nil
}
