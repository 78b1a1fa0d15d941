package commands

import (
	"context"
	"fmt"

	"github.com/printforge/printforge/internal/application/common"
	planningapp "github.com/printforge/printforge/internal/application/planning"
)

// FirmPlannedOrderCommand converts a planned order into a real production or
// purchase order. VendorID is required when firming a buy order.
type FirmPlannedOrderCommand struct {
	PlannedOrderID string
	VendorID       string
}

// FirmPlannedOrderResponse represents the result of firming
type FirmPlannedOrderResponse struct {
	ProductionOrderCode string
	PurchaseOrderCode   string
}

// FirmPlannedOrderHandler handles the FirmPlannedOrder command
type FirmPlannedOrderHandler struct {
	service *planningapp.Service
}

func NewFirmPlannedOrderHandler(service *planningapp.Service) *FirmPlannedOrderHandler {
	return &FirmPlannedOrderHandler{service: service}
}

// Handle executes the FirmPlannedOrder command
func (h *FirmPlannedOrderHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*FirmPlannedOrderCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *FirmPlannedOrderCommand")
	}

	result, err := h.service.Firm(ctx, cmd.PlannedOrderID, cmd.VendorID)
	if err != nil {
		return nil, err
	}

	resp := &FirmPlannedOrderResponse{}
	if result.ProductionOrder != nil {
		resp.ProductionOrderCode = result.ProductionOrder.Code()
	}
	if result.PurchaseOrder != nil {
		resp.PurchaseOrderCode = result.PurchaseOrder.Code
	}
	return resp, nil
}
