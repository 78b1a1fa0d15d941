package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/application/common"
	issuesapp "github.com/printforge/printforge/internal/application/issues"
)

// AnalyzeSalesOrderQuery asks whether a sales order can ship
type AnalyzeSalesOrderQuery struct {
	SalesOrderID string
}

// IssueDTO is one finding of the analyzer
type IssueDTO struct {
	Kind     string
	Severity string
	ItemID   string
	Quantity decimal.Decimal
	RefKind  string
	RefID    string
	Detail   string
}

// ActionDTO is one suggested remediation, ordered by priority
type ActionDTO struct {
	Kind     string
	Priority int
	ItemID   string
	Quantity decimal.Decimal
	RefID    string
	Detail   string
}

// AnalyzeSalesOrderResponse represents the analysis result
type AnalyzeSalesOrderResponse struct {
	SalesOrderID       string
	CanFulfill         bool
	Issues             []IssueDTO
	Actions            []ActionDTO
	EstimatedReadyDate *time.Time
}

// AnalyzeSalesOrderHandler handles the AnalyzeSalesOrder query
type AnalyzeSalesOrderHandler struct {
	service *issuesapp.Service
}

func NewAnalyzeSalesOrderHandler(service *issuesapp.Service) *AnalyzeSalesOrderHandler {
	return &AnalyzeSalesOrderHandler{service: service}
}

// Handle executes the AnalyzeSalesOrder query
func (h *AnalyzeSalesOrderHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*AnalyzeSalesOrderQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *AnalyzeSalesOrderQuery")
	}

	analysis, err := h.service.AnalyzeSalesOrder(ctx, query.SalesOrderID)
	if err != nil {
		return nil, err
	}

	resp := &AnalyzeSalesOrderResponse{
		SalesOrderID:       analysis.SalesOrderID,
		CanFulfill:         analysis.CanFulfill,
		Issues:             make([]IssueDTO, 0, len(analysis.Issues)),
		Actions:            make([]ActionDTO, 0, len(analysis.Actions)),
		EstimatedReadyDate: analysis.EstimatedReadyDate,
	}
	for _, issue := range analysis.Issues {
		resp.Issues = append(resp.Issues, IssueDTO{
			Kind:     string(issue.Kind),
			Severity: string(issue.Severity),
			ItemID:   issue.ItemID,
			Quantity: issue.Quantity,
			RefKind:  issue.RefKind,
			RefID:    issue.RefID,
			Detail:   issue.Detail,
		})
	}
	for _, action := range analysis.Actions {
		resp.Actions = append(resp.Actions, ActionDTO{
			Kind:     string(action.Kind),
			Priority: action.Priority,
			ItemID:   action.ItemID,
			Quantity: action.Quantity,
			RefID:    action.RefID,
			Detail:   action.Detail,
		})
	}
	return resp, nil
}
