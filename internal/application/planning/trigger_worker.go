package planning

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/printforge/printforge/internal/application/common"
)

// TriggerWorker reruns planning when upstream state changes (ledger posts,
// catalog edits, confirmed sales orders). Triggers are coalesced: however
// many arrive while a run is in flight or the limiter is cooling down, the
// next run covers them all.
type TriggerWorker struct {
	service *Service
	limiter *rate.Limiter
	log     *logrus.Entry

	mu      sync.Mutex
	pending bool
	kick    chan struct{}
}

// NewTriggerWorker creates a worker that runs at most once per minInterval
func NewTriggerWorker(service *Service, limiter *rate.Limiter, logger *logrus.Logger) *TriggerWorker {
	return &TriggerWorker{
		service: service,
		limiter: limiter,
		log:     common.ComponentLogger(logger, "planning.trigger_worker"),
		kick:    make(chan struct{}, 1),
	}
}

// Notify requests a planning run. Safe from any goroutine; never blocks.
func (w *TriggerWorker) Notify(reason string) {
	w.mu.Lock()
	w.pending = true
	w.mu.Unlock()
	w.log.WithField("reason", reason).Debug("planning trigger")
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Start runs the worker loop until the context is cancelled
func (w *TriggerWorker) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.kick:
		}

		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}

		w.mu.Lock()
		if !w.pending {
			w.mu.Unlock()
			continue
		}
		w.pending = false
		w.mu.Unlock()

		if _, err := w.service.Run(ctx, RunOptions{}); err != nil {
			// A failed run is logged, not fatal: the next trigger retries
			w.log.WithError(err).Error("triggered planning run failed")
		}
	}
}
