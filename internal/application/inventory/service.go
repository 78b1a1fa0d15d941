package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge/internal/adapters/metrics"
	"github.com/printforge/printforge/internal/application/common"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/shared"
)

// EventPublisher is the outbound notification port of the ledger. A nil
// publisher disables events.
type EventPublisher interface {
	TransactionPosted(ctx context.Context, t *inv.Transaction)
	StockLow(ctx context.Context, itemID, sku string, available, reorderPoint decimal.Decimal)
}

// Service owns every write to the inventory ledger. A post is one
// transaction row, one locked balance update and the derived checks, all
// committed atomically.
type Service struct {
	repo      inv.Repository
	locations inv.LocationRepository
	items     item.Repository
	tx        shared.TxManager
	clock     shared.Clock
	policy    inv.Policy
	events    EventPublisher
	log       *logrus.Entry
}

// NewService wires the ledger service. events may be nil.
func NewService(
	repo inv.Repository,
	locations inv.LocationRepository,
	items item.Repository,
	tx shared.TxManager,
	clock shared.Clock,
	policy inv.Policy,
	events EventPublisher,
	logger *logrus.Logger,
) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Service{
		repo:      repo,
		locations: locations,
		items:     items,
		tx:        tx,
		clock:     clock,
		policy:    policy,
		events:    events,
		log:       common.ComponentLogger(logger, "inventory.service"),
	}
}

// PostParams describes one ledger post. LocationID empty means the default
// location. Quantity is a positive magnitude except for adjustments, which
// are signed.
type PostParams struct {
	ItemID         string
	LocationID     string
	Quantity       decimal.Decimal
	Kind           inv.TxnKind
	RefKind        string
	RefID          string
	ReservationID  *string
	IdempotencyKey *string
	AllowNegative  bool
	CreatedBy      string
}

// Post appends one transaction to the ledger and updates the derived
// balance under a row lock. A repeated idempotency key returns the
// original transaction without posting again.
func (s *Service) Post(ctx context.Context, p PostParams) (*inv.Transaction, error) {
	if p.IdempotencyKey != nil && *p.IdempotencyKey != "" {
		existing, err := s.repo.FindTransactionByIdempotencyKey(ctx, *p.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.log.WithFields(logrus.Fields{
				"idempotency_key": *p.IdempotencyKey,
				"transaction_id":  existing.ID(),
			}).Info("duplicate post suppressed")
			return existing, nil
		}
	}

	it, locationID, err := s.resolveTarget(ctx, p.ItemID, p.LocationID)
	if err != nil {
		return nil, err
	}

	txn, err := inv.NewTransaction(inv.NewTransactionParams{
		ItemID:         it.ID(),
		LocationID:     locationID,
		Quantity:       p.Quantity,
		Kind:           p.Kind,
		RefKind:        p.RefKind,
		RefID:          p.RefID,
		ReservationID:  p.ReservationID,
		IdempotencyKey: p.IdempotencyKey,
		AllowNegative:  p.AllowNegative,
		CreatedBy:      p.CreatedBy,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.apply(ctx, txn)
	})
	if err != nil {
		metrics.RecordLedgerRejection(rejectionReason(err))
		return nil, err
	}

	metrics.RecordLedgerPost(string(txn.Kind()))
	if s.events != nil {
		s.events.TransactionPosted(ctx, txn)
	}
	s.checkReorderPoint(ctx, it, locationID)
	return txn, nil
}

// apply writes one transaction and its balance effect inside the ambient
// transaction. Callers composing multi-row posts (transfers, completions)
// call this once per row.
func (s *Service) apply(ctx context.Context, txn *inv.Transaction) error {
	balance, err := s.repo.LockBalance(ctx, txn.ItemID(), txn.LocationID())
	if err != nil {
		return err
	}
	if err := balance.Apply(txn, s.policy); err != nil {
		return err
	}
	if err := s.repo.AppendTransaction(ctx, txn); err != nil {
		return err
	}
	return s.repo.SaveBalance(ctx, balance)
}

// Transfer moves stock between two locations as an atomic out/in pair
func (s *Service) Transfer(ctx context.Context, itemID, fromLocationID, toLocationID string, qty decimal.Decimal, refKind, refID, createdBy string) ([]*inv.Transaction, error) {
	if fromLocationID == toLocationID {
		return nil, shared.NewValidationError("location", "transfer source and destination must differ")
	}
	it, _, err := s.resolveTarget(ctx, itemID, fromLocationID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	out, err := inv.NewTransaction(inv.NewTransactionParams{
		ItemID: it.ID(), LocationID: fromLocationID, Quantity: qty,
		Kind: inv.TxnTransferOut, RefKind: refKind, RefID: refID, CreatedBy: createdBy,
	}, now)
	if err != nil {
		return nil, err
	}
	in, err := inv.NewTransaction(inv.NewTransactionParams{
		ItemID: it.ID(), LocationID: toLocationID, Quantity: qty,
		Kind: inv.TxnTransferIn, RefKind: refKind, RefID: refID, CreatedBy: createdBy,
	}, now)
	if err != nil {
		return nil, err
	}

	// Lock order follows (item_id, location_id) ascending to keep concurrent
	// transfers deadlock-free
	first, second := out, in
	if toLocationID < fromLocationID {
		first, second = in, out
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.apply(ctx, first); err != nil {
			return err
		}
		return s.apply(ctx, second)
	})
	if err != nil {
		metrics.RecordLedgerRejection(rejectionReason(err))
		return nil, err
	}
	metrics.RecordLedgerPost(string(inv.TxnTransferOut))
	metrics.RecordLedgerPost(string(inv.TxnTransferIn))
	return []*inv.Transaction{out, in}, nil
}

// Reserve places a claim on available stock for the given reference
func (s *Service) Reserve(ctx context.Context, itemID, locationID string, qty decimal.Decimal, refKind, refID, createdBy string) (*inv.Reservation, error) {
	it, locationID, err := s.resolveTarget(ctx, itemID, locationID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	reservation, err := inv.NewReservation(it.ID(), locationID, qty, refKind, refID, now)
	if err != nil {
		return nil, err
	}
	rid := reservation.ID()
	txn, err := inv.NewTransaction(inv.NewTransactionParams{
		ItemID: it.ID(), LocationID: locationID, Quantity: qty,
		Kind: inv.TxnReservation, RefKind: refKind, RefID: refID,
		ReservationID: &rid, CreatedBy: createdBy,
	}, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.apply(ctx, txn); err != nil {
			return err
		}
		return s.repo.CreateReservation(ctx, reservation)
	})
	if err != nil {
		metrics.RecordLedgerRejection(rejectionReason(err))
		return nil, err
	}
	metrics.RecordLedgerPost(string(inv.TxnReservation))
	return reservation, nil
}

// ReleaseReservation returns the unconsumed remainder of a claim to
// available stock.
func (s *Service) ReleaseReservation(ctx context.Context, reservationID, createdBy string) error {
	reservation, err := s.repo.FindReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if reservation == nil {
		return inv.NewUnknownReservationError(reservationID)
	}
	now := s.clock.Now()
	remaining, err := reservation.Release(now)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if remaining.IsPositive() {
			rid := reservation.ID()
			txn, err := inv.NewTransaction(inv.NewTransactionParams{
				ItemID: reservation.ItemID(), LocationID: reservation.LocationID(),
				Quantity: remaining, Kind: inv.TxnReservationRelease,
				RefKind: reservation.RefKind(), RefID: reservation.RefID(),
				ReservationID: &rid, CreatedBy: createdBy,
			}, now)
			if err != nil {
				return err
			}
			if err := s.apply(ctx, txn); err != nil {
				return err
			}
			metrics.RecordLedgerPost(string(inv.TxnReservationRelease))
		}
		return s.repo.SaveReservation(ctx, reservation)
	})
}

// ReleaseAllFor releases every active reservation held by one reference
func (s *Service) ReleaseAllFor(ctx context.Context, refKind, refID, createdBy string) error {
	reservations, err := s.repo.ActiveReservationsByRef(ctx, refKind, refID)
	if err != nil {
		return err
	}
	for _, r := range reservations {
		if err := s.ReleaseReservation(ctx, r.ID(), createdBy); err != nil {
			return err
		}
	}
	return nil
}

// ConsumeReservation draws stock against a claim: one consumption row that
// reduces on-hand and the reserved quantity together.
func (s *Service) ConsumeReservation(ctx context.Context, reservationID string, qty decimal.Decimal, refKind, refID, createdBy string) (*inv.Transaction, error) {
	reservation, err := s.repo.FindReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, inv.NewUnknownReservationError(reservationID)
	}
	now := s.clock.Now()
	if err := reservation.Consume(qty, now); err != nil {
		return nil, err
	}
	rid := reservation.ID()
	txn, err := inv.NewTransaction(inv.NewTransactionParams{
		ItemID: reservation.ItemID(), LocationID: reservation.LocationID(),
		Quantity: qty, Kind: inv.TxnConsumption,
		RefKind: refKind, RefID: refID,
		ReservationID: &rid, CreatedBy: createdBy,
	}, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.apply(ctx, txn); err != nil {
			return err
		}
		return s.repo.SaveReservation(ctx, reservation)
	})
	if err != nil {
		metrics.RecordLedgerRejection(rejectionReason(err))
		return nil, err
	}
	metrics.RecordLedgerPost(string(inv.TxnConsumption))
	return txn, nil
}

// StockLevel aggregates the balances of one item across locations
type StockLevel struct {
	ItemID    string
	OnHand    decimal.Decimal
	Reserved  decimal.Decimal
	Available decimal.Decimal
	Balances  []*inv.Balance
}

// StockLevelFor returns the aggregated position of one item
func (s *Service) StockLevelFor(ctx context.Context, itemID string) (*StockLevel, error) {
	balances, err := s.repo.BalancesForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	level := &StockLevel{ItemID: itemID, OnHand: decimal.Zero, Reserved: decimal.Zero, Balances: balances}
	for _, b := range balances {
		level.OnHand = level.OnHand.Add(b.OnHand)
		level.Reserved = level.Reserved.Add(b.Reserved)
	}
	level.Available = level.OnHand.Sub(level.Reserved)
	return level, nil
}

// Trace returns the ledger rows recorded against one reference
func (s *Service) Trace(ctx context.Context, refKind, refID string) ([]*inv.Transaction, error) {
	return s.repo.TransactionsByRef(ctx, refKind, refID)
}

// History returns the ledger rows of one item at one location
func (s *Service) History(ctx context.Context, itemID, locationID string) ([]*inv.Transaction, error) {
	return s.repo.TransactionsForItem(ctx, itemID, locationID, nil)
}

// VerifyBalance replays the full transaction log of one pair and compares
// it against the stored balance row. A mismatch is ledger corruption.
func (s *Service) VerifyBalance(ctx context.Context, itemID, locationID string) error {
	txns, err := s.repo.TransactionsForItem(ctx, itemID, locationID, nil)
	if err != nil {
		return err
	}
	onHand := decimal.Zero
	reserved := decimal.Zero
	for _, t := range txns {
		onHand = onHand.Add(t.OnHandDelta())
		switch t.Kind() {
		case inv.TxnReservation:
			reserved = reserved.Add(t.Magnitude())
		case inv.TxnReservationRelease:
			reserved = decimal.Max(decimal.Zero, reserved.Sub(t.Magnitude()))
		case inv.TxnConsumption:
			if t.ReservationID() != nil {
				reserved = decimal.Max(decimal.Zero, reserved.Sub(t.Magnitude()))
			}
		}
	}
	stored, err := s.repo.GetBalance(ctx, itemID, locationID)
	if err != nil {
		return err
	}
	storedOnHand, storedReserved := decimal.Zero, decimal.Zero
	if stored != nil {
		storedOnHand, storedReserved = stored.OnHand, stored.Reserved
	}
	if !onHand.Equal(storedOnHand) || !reserved.Equal(storedReserved) {
		return inv.NewLedgerCorruptionError(itemID, locationID,
			fmt.Sprintf("replayed on_hand=%s reserved=%s, stored on_hand=%s reserved=%s",
				onHand, reserved, storedOnHand, storedReserved))
	}
	return nil
}

// resolveTarget loads the item and resolves the location, defaulting the
// location when empty. Service items never hit the ledger.
func (s *Service) resolveTarget(ctx context.Context, itemID, locationID string) (*item.Item, string, error) {
	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, "", err
	}
	if it == nil {
		return nil, "", item.NewUnknownItemError(itemID)
	}
	if !it.CarriesInventory() {
		return nil, "", shared.NewValidationError("item", fmt.Sprintf("item %s carries no inventory", it.SKU()))
	}
	if locationID == "" {
		loc, err := s.locations.Default(ctx)
		if err != nil {
			return nil, "", err
		}
		if loc == nil {
			return nil, "", inv.NewUnknownLocationError("default")
		}
		return it, loc.ID, nil
	}
	loc, err := s.locations.FindByID(ctx, locationID)
	if err != nil {
		return nil, "", err
	}
	if loc == nil {
		return nil, "", inv.NewUnknownLocationError(locationID)
	}
	return it, loc.ID, nil
}

// checkReorderPoint publishes a low-stock event when available falls to or
// below the item's reorder point. Advisory only; planning owns replenishment.
func (s *Service) checkReorderPoint(ctx context.Context, it *item.Item, locationID string) {
	if s.events == nil || !it.ReorderPoint().IsPositive() {
		return
	}
	level, err := s.StockLevelFor(ctx, it.ID())
	if err != nil {
		s.log.WithError(err).Warn("reorder point check failed")
		return
	}
	if level.Available.LessThanOrEqual(it.ReorderPoint()) {
		s.events.StockLow(ctx, it.ID(), it.SKU(), level.Available, it.ReorderPoint())
	}
}

func rejectionReason(err error) string {
	switch err.(type) {
	case *inv.InsufficientStockError:
		return "insufficient_stock"
	case *inv.InsufficientReservationError:
		return "insufficient_reservation"
	case *inv.NegativeNotAllowedError:
		return "negative_not_allowed"
	default:
		return "other"
	}
}
