package events

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/application/common"
	planningapp "github.com/printforge/printforge/internal/application/planning"
)

// replanSubjects are the event subjects that invalidate the current plan
var replanSubjects = []string{
	"inventory.transaction_posted",
	"production.status_changed",
	"sales.order_confirmed",
	"purchasing.order_received",
}

// Subscriber feeds planning-relevant events into the trigger worker. The
// worker coalesces and rate-limits; the subscriber only forwards.
type Subscriber struct {
	conn   *nats.Conn
	prefix string
	worker *planningapp.TriggerWorker
	subs   []*nats.Subscription
	log    *logrus.Entry
}

func NewSubscriber(url, prefix string, worker *planningapp.TriggerWorker, logger *logrus.Logger) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		conn:   conn,
		prefix: prefix,
		worker: worker,
		log:    common.ComponentLogger(logger, "events.subscriber"),
	}, nil
}

// Start subscribes to every replan subject
func (s *Subscriber) Start() error {
	for _, subject := range replanSubjects {
		full := s.prefix + "." + subject
		reason := subject
		sub, err := s.conn.Subscribe(full, func(msg *nats.Msg) {
			s.worker.Notify(reason)
		})
		if err != nil {
			return err
		}
		s.subs = append(s.subs, sub)
	}
	s.log.WithField("subjects", len(s.subs)).Info("replan subscriptions active")
	return nil
}

// Close drains the subscriptions and connection
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Drain()
	}
	if s.conn != nil {
		_ = s.conn.Drain()
	}
}
