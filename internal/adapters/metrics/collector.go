package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "printforge"
	subsystem = "core"
)

var (
	// Registry is the process-wide Prometheus registry. Nil when metrics are
	// disabled; every recording function is a no-op in that case.
	Registry *prometheus.Registry

	globalCollector Recorder
)

// Recorder is what application code records against. The concrete collector
// implements it; a nil global makes every call a no-op.
type Recorder interface {
	RecordLedgerPost(kind string)
	RecordLedgerRejection(reason string)
	RecordPlanningRun(seconds float64, plannedOrders int, warnings int)
	RecordProductionTransition(event string)
	RecordAnalyzerRun(canFulfill bool)
}

// InitRegistry initializes the registry. Call once at startup when metrics
// are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// IsEnabled reports whether metrics collection is on
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalCollector installs the collector used by the package-level
// recording functions.
func SetGlobalCollector(c Recorder) {
	globalCollector = c
}

func RecordLedgerPost(kind string) {
	if globalCollector != nil {
		globalCollector.RecordLedgerPost(kind)
	}
}

func RecordLedgerRejection(reason string) {
	if globalCollector != nil {
		globalCollector.RecordLedgerRejection(reason)
	}
}

func RecordPlanningRun(seconds float64, plannedOrders, warnings int) {
	if globalCollector != nil {
		globalCollector.RecordPlanningRun(seconds, plannedOrders, warnings)
	}
}

func RecordProductionTransition(event string) {
	if globalCollector != nil {
		globalCollector.RecordProductionTransition(event)
	}
}

func RecordAnalyzerRun(canFulfill bool) {
	if globalCollector != nil {
		globalCollector.RecordAnalyzerRun(canFulfill)
	}
}
