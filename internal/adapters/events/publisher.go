package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/application/common"
	inv "github.com/printforge/printforge/internal/domain/inventory"
)

// Publisher publishes domain events to NATS. Publishing is best-effort:
// failures are logged, never propagated, so a broker outage cannot block a
// ledger post or a status transition.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	log    *logrus.Entry
}

// NewPublisher connects to NATS and returns a publisher. The subject prefix
// namespaces every published subject (prefix.inventory.transaction_posted).
func NewPublisher(url, prefix string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		conn:   conn,
		prefix: prefix,
		log:    common.ComponentLogger(logger, "events.publisher"),
	}, nil
}

// Close drains the connection
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// TransactionPosted publishes one posted ledger row
func (p *Publisher) TransactionPosted(ctx context.Context, t *inv.Transaction) {
	p.publish("inventory.transaction_posted", map[string]interface{}{
		"transaction_id": t.ID(),
		"item_id":        t.ItemID(),
		"location_id":    t.LocationID(),
		"quantity":       t.Quantity(),
		"kind":           string(t.Kind()),
		"ref_kind":       t.RefKind(),
		"ref_id":         t.RefID(),
		"created_at":     t.CreatedAt(),
	})
}

// StockLow publishes a reorder point breach
func (p *Publisher) StockLow(ctx context.Context, itemID, sku string, available, reorderPoint decimal.Decimal) {
	p.publish("inventory.low_stock", map[string]interface{}{
		"item_id":       itemID,
		"sku":           sku,
		"available":     available,
		"reorder_point": reorderPoint,
	})
}

// PlanningCompleted publishes the summary of a finished planning run
func (p *Publisher) PlanningCompleted(ctx context.Context, runID string, plannedOrders, warnings int) {
	p.publish("planning.run_completed", map[string]interface{}{
		"run_id":         runID,
		"planned_orders": plannedOrders,
		"warnings":       warnings,
	})
}

// ProductionStatusChanged publishes a production order transition
func (p *Publisher) ProductionStatusChanged(ctx context.Context, orderID, code, from, to string) {
	p.publish("production.status_changed", map[string]interface{}{
		"order_id": orderID,
		"code":     code,
		"from":     from,
		"to":       to,
	})
}

func (p *Publisher) publish(subject string, payload map[string]interface{}) {
	payload["published_at"] = time.Now().UTC()
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.WithError(err).WithField("subject", subject).Warn("event payload marshal failed")
		return
	}
	full := p.prefix + "." + subject
	if err := p.conn.Publish(full, data); err != nil {
		p.log.WithError(err).WithField("subject", full).Warn("event publish failed")
	}
}
