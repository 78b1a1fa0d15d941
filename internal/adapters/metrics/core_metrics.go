package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// CoreMetricsCollector carries the counters and histograms for the ledger,
// the planning engine, production transitions and the issues analyzer.
type CoreMetricsCollector struct {
	ledgerPostsTotal      *prometheus.CounterVec
	ledgerRejectionsTotal *prometheus.CounterVec

	planningRunDuration prometheus.Histogram
	plannedOrdersLast   prometheus.Gauge
	planningWarnings    prometheus.Counter

	productionTransitionsTotal *prometheus.CounterVec
	analyzerRunsTotal          *prometheus.CounterVec
}

// NewCoreMetricsCollector creates the collector with all vectors declared
func NewCoreMetricsCollector() *CoreMetricsCollector {
	return &CoreMetricsCollector{
		ledgerPostsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ledger_posts_total",
				Help:      "Ledger transactions posted, by transaction kind",
			},
			[]string{"kind"},
		),
		ledgerRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ledger_rejections_total",
				Help:      "Ledger posts rejected, by reason",
			},
			[]string{"reason"},
		),
		planningRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "planning_run_duration_seconds",
				Help:      "Wall time of complete MRP runs",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0},
			},
		),
		plannedOrdersLast: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "planned_orders_last_run",
				Help:      "Planned orders produced by the most recent run",
			},
		),
		planningWarnings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "planning_warnings_total",
				Help:      "Warnings emitted across planning runs",
			},
		),
		productionTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "production_transitions_total",
				Help:      "Production order lifecycle transitions, by event",
			},
			[]string{"event"},
		),
		analyzerRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "analyzer_runs_total",
				Help:      "Blocking-issue analyses, by outcome",
			},
			[]string{"can_fulfill"},
		),
	}
}

// Register registers everything with the global registry
func (c *CoreMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	collectors := []prometheus.Collector{
		c.ledgerPostsTotal,
		c.ledgerRejectionsTotal,
		c.planningRunDuration,
		c.plannedOrdersLast,
		c.planningWarnings,
		c.productionTransitionsTotal,
		c.analyzerRunsTotal,
	}
	for _, col := range collectors {
		if err := Registry.Register(col); err != nil {
			return err
		}
	}
	return nil
}

func (c *CoreMetricsCollector) RecordLedgerPost(kind string) {
	c.ledgerPostsTotal.WithLabelValues(kind).Inc()
}

func (c *CoreMetricsCollector) RecordLedgerRejection(reason string) {
	c.ledgerRejectionsTotal.WithLabelValues(reason).Inc()
}

func (c *CoreMetricsCollector) RecordPlanningRun(seconds float64, plannedOrders, warnings int) {
	c.planningRunDuration.Observe(seconds)
	c.plannedOrdersLast.Set(float64(plannedOrders))
	c.planningWarnings.Add(float64(warnings))
}

func (c *CoreMetricsCollector) RecordProductionTransition(event string) {
	c.productionTransitionsTotal.WithLabelValues(event).Inc()
}

func (c *CoreMetricsCollector) RecordAnalyzerRun(canFulfill bool) {
	c.analyzerRunsTotal.WithLabelValues(strconv.FormatBool(canFulfill)).Inc()
}
