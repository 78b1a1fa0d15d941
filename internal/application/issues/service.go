package issues

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/adapters/metrics"
	"github.com/printforge/printforge/internal/application/common"
	"github.com/printforge/printforge/internal/domain/issues"
	"github.com/printforge/printforge/internal/domain/production"
	"github.com/printforge/printforge/internal/domain/sales"
)

// InputLoader assembles the preloaded analyzer input for one subject order.
// The persistence adapter implements it; the analyzer itself never touches
// storage.
type InputLoader interface {
	ForSalesOrder(ctx context.Context, salesOrderID string) (*issues.Input, *sales.Order, error)
	ForProductionOrder(ctx context.Context, productionOrderID string) (*issues.Input, *production.Order, error)
}

// Service exposes the blocking-issues analyzer over stored orders
type Service struct {
	loader   InputLoader
	analyzer *issues.Analyzer
	log      *logrus.Entry
}

func NewService(loader InputLoader, logger *logrus.Logger) *Service {
	return &Service{
		loader:   loader,
		analyzer: issues.NewAnalyzer(),
		log:      common.ComponentLogger(logger, "issues.service"),
	}
}

// AnalyzeSalesOrder explains whether a sales order can ship and what is in
// the way.
func (s *Service) AnalyzeSalesOrder(ctx context.Context, salesOrderID string) (*issues.SalesOrderAnalysis, error) {
	input, so, err := s.loader.ForSalesOrder(ctx, salesOrderID)
	if err != nil {
		return nil, err
	}
	analysis := s.analyzer.AnalyzeSalesOrder(input, so)
	metrics.RecordAnalyzerRun(analysis.CanFulfill)
	s.log.WithFields(logrus.Fields{
		"sales_order_id": salesOrderID,
		"can_fulfill":    analysis.CanFulfill,
		"issues":         len(analysis.Issues),
	}).Debug("sales order analyzed")
	return analysis, nil
}

// AnalyzeProductionOrder reports the material readiness of one production
// order.
func (s *Service) AnalyzeProductionOrder(ctx context.Context, productionOrderID string) (*issues.ProductionOrderAnalysis, error) {
	input, po, err := s.loader.ForProductionOrder(ctx, productionOrderID)
	if err != nil {
		return nil, err
	}
	analysis := s.analyzer.AnalyzeProductionOrder(input, po)
	metrics.RecordAnalyzerRun(analysis.Ready)
	return analysis, nil
}
