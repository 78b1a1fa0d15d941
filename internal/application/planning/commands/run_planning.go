package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/printforge/printforge/internal/application/common"
	planningapp "github.com/printforge/printforge/internal/application/planning"
)

// RunPlanningCommand represents a command to run one planning cycle.
// Nil option fields keep the configured planning behavior.
type RunPlanningCommand struct {
	HorizonDays          *int
	IncludeSafetyStock   *bool
	CascadeSubAssemblies *bool
	ItemIDs              []string
}

// RunPlanningResponse represents the result of a planning run
type RunPlanningResponse struct {
	RunID         string
	TakenAt       time.Time
	PlannedOrders int
	Warnings      []string
}

// RunPlanningHandler handles the RunPlanning command
type RunPlanningHandler struct {
	service *planningapp.Service
}

func NewRunPlanningHandler(service *planningapp.Service) *RunPlanningHandler {
	return &RunPlanningHandler{service: service}
}

// Handle executes the RunPlanning command
func (h *RunPlanningHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RunPlanningCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RunPlanningCommand")
	}

	result, err := h.service.Run(ctx, planningapp.RunOptions{
		HorizonDays:          cmd.HorizonDays,
		IncludeSafetyStock:   cmd.IncludeSafetyStock,
		CascadeSubAssemblies: cmd.CascadeSubAssemblies,
		ItemIDs:              cmd.ItemIDs,
	})
	if err != nil {
		return nil, err
	}

	resp := &RunPlanningResponse{
		RunID:         result.RunID,
		TakenAt:       result.TakenAt,
		PlannedOrders: len(result.PlannedOrders),
	}
	for _, w := range result.Warnings {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s: %s (%s)", w.Code, w.Detail, w.ItemID))
	}
	return resp, nil
}
