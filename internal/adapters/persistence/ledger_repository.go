package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	inv "github.com/printforge/printforge/internal/domain/inventory"
)

// GormLedgerRepository implements inventory.Repository using GORM.
// Balance rows are locked FOR UPDATE for the lifetime of the ambient
// transaction; transaction rows are append-only.
type GormLedgerRepository struct {
	db *gorm.DB
}

func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// LockBalance loads the balance row for the pair under a row lock, creating
// a zero row first when none exists.
func (r *GormLedgerRepository) LockBalance(ctx context.Context, itemID, locationID string) (*inv.Balance, error) {
	tx := conn(ctx, r.db)
	var model BalanceModel
	err := tx.Clauses(lockForUpdate()).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		model = BalanceModel{ItemID: itemID, LocationID: locationID}
		if err := tx.Create(&model).Error; err != nil {
			return nil, fmt.Errorf("failed to create balance row: %w", err)
		}
		return inv.NewBalance(itemID, locationID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}
	return modelToBalance(&model), nil
}

// SaveBalance persists the balance projection
func (r *GormLedgerRepository) SaveBalance(ctx context.Context, b *inv.Balance) error {
	err := conn(ctx, r.db).Model(&BalanceModel{}).
		Where("item_id = ? AND location_id = ?", b.ItemID, b.LocationID).
		Updates(map[string]interface{}{
			"on_hand":  b.OnHand,
			"reserved": b.Reserved,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

// GetBalance retrieves the balance row without locking, nil when absent
func (r *GormLedgerRepository) GetBalance(ctx context.Context, itemID, locationID string) (*inv.Balance, error) {
	var model BalanceModel
	err := conn(ctx, r.db).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return modelToBalance(&model), nil
}

// BalancesForItem retrieves the balances of one item across locations
func (r *GormLedgerRepository) BalancesForItem(ctx context.Context, itemID string) ([]*inv.Balance, error) {
	var models []BalanceModel
	err := conn(ctx, r.db).Where("item_id = ?", itemID).Order("location_id").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	return modelsToBalances(models), nil
}

// AllBalances retrieves every balance row
func (r *GormLedgerRepository) AllBalances(ctx context.Context) ([]*inv.Balance, error) {
	var models []BalanceModel
	err := conn(ctx, r.db).Order("item_id, location_id").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	return modelsToBalances(models), nil
}

// AppendTransaction persists one immutable ledger row
func (r *GormLedgerRepository) AppendTransaction(ctx context.Context, t *inv.Transaction) error {
	model := &TransactionModel{
		ID:             t.ID(),
		ItemID:         t.ItemID(),
		LocationID:     t.LocationID(),
		Quantity:       t.Quantity(),
		Kind:           string(t.Kind()),
		RefKind:        t.RefKind(),
		RefID:          t.RefID(),
		ReservationID:  t.ReservationID(),
		IdempotencyKey: t.IdempotencyKey(),
		CreatedAt:      t.CreatedAt(),
		CreatedBy:      t.CreatedBy(),
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// FindTransactionByID retrieves one ledger row, nil when absent
func (r *GormLedgerRepository) FindTransactionByID(ctx context.Context, id string) (*inv.Transaction, error) {
	var model TransactionModel
	err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return modelToTransaction(&model), nil
}

// FindTransactionByIdempotencyKey retrieves the row posted under the key,
// nil when the key has not been used.
func (r *GormLedgerRepository) FindTransactionByIdempotencyKey(ctx context.Context, key string) (*inv.Transaction, error) {
	var model TransactionModel
	err := conn(ctx, r.db).Where("idempotency_key = ?", key).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by idempotency key: %w", err)
	}
	return modelToTransaction(&model), nil
}

// TransactionsByRef retrieves the ledger rows recorded against one reference
func (r *GormLedgerRepository) TransactionsByRef(ctx context.Context, refKind, refID string) ([]*inv.Transaction, error) {
	var models []TransactionModel
	err := conn(ctx, r.db).
		Where("ref_kind = ? AND ref_id = ?", refKind, refID).
		Order("created_at, id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by ref: %w", err)
	}
	return modelsToTransactions(models), nil
}

// TransactionsForItem retrieves the ledger rows of one item at one location,
// oldest first, optionally bounded below by since.
func (r *GormLedgerRepository) TransactionsForItem(ctx context.Context, itemID, locationID string, since *time.Time) ([]*inv.Transaction, error) {
	query := conn(ctx, r.db).Where("item_id = ? AND location_id = ?", itemID, locationID)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var models []TransactionModel
	if err := query.Order("created_at, id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return modelsToTransactions(models), nil
}

// CreateReservation persists a new reservation claim
func (r *GormLedgerRepository) CreateReservation(ctx context.Context, res *inv.Reservation) error {
	if err := conn(ctx, r.db).Create(reservationToModel(res)).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

// SaveReservation persists reservation changes
func (r *GormLedgerRepository) SaveReservation(ctx context.Context, res *inv.Reservation) error {
	if err := conn(ctx, r.db).Save(reservationToModel(res)).Error; err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

// FindReservation retrieves one reservation, nil when absent
func (r *GormLedgerRepository) FindReservation(ctx context.Context, id string) (*inv.Reservation, error) {
	var model ReservationModel
	err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return modelToReservation(&model), nil
}

// ActiveReservationsByRef retrieves the active claims held by one reference
func (r *GormLedgerRepository) ActiveReservationsByRef(ctx context.Context, refKind, refID string) ([]*inv.Reservation, error) {
	return r.listReservations(ctx, "ref_kind = ? AND ref_id = ? AND active = ?", refKind, refID, true)
}

// ActiveReservationsForItem retrieves the active claims on one pair
func (r *GormLedgerRepository) ActiveReservationsForItem(ctx context.Context, itemID, locationID string) ([]*inv.Reservation, error) {
	return r.listReservations(ctx, "item_id = ? AND location_id = ? AND active = ?", itemID, locationID, true)
}

func (r *GormLedgerRepository) listReservations(ctx context.Context, query string, args ...interface{}) ([]*inv.Reservation, error) {
	var models []ReservationModel
	err := conn(ctx, r.db).Where(query, args...).Order("created_at, id").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	out := make([]*inv.Reservation, len(models))
	for i := range models {
		out[i] = modelToReservation(&models[i])
	}
	return out, nil
}

func modelToBalance(m *BalanceModel) *inv.Balance {
	return &inv.Balance{
		ItemID:     m.ItemID,
		LocationID: m.LocationID,
		OnHand:     m.OnHand,
		Reserved:   m.Reserved,
	}
}

func modelsToBalances(models []BalanceModel) []*inv.Balance {
	out := make([]*inv.Balance, len(models))
	for i := range models {
		out[i] = modelToBalance(&models[i])
	}
	return out
}

func modelToTransaction(m *TransactionModel) *inv.Transaction {
	return inv.Reconstruct(
		m.ID, m.ItemID, m.LocationID,
		m.Quantity,
		inv.TxnKind(m.Kind),
		m.RefKind, m.RefID,
		m.ReservationID,
		m.IdempotencyKey,
		m.CreatedAt,
		m.CreatedBy,
	)
}

func modelsToTransactions(models []TransactionModel) []*inv.Transaction {
	out := make([]*inv.Transaction, len(models))
	for i := range models {
		out[i] = modelToTransaction(&models[i])
	}
	return out
}

func reservationToModel(res *inv.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:         res.ID(),
		ItemID:     res.ItemID(),
		LocationID: res.LocationID(),
		Quantity:   res.Quantity(),
		Consumed:   res.Consumed(),
		RefKind:    res.RefKind(),
		RefID:      res.RefID(),
		Active:     res.Active(),
		CreatedAt:  res.CreatedAt(),
		ReleasedAt: res.ReleasedAt(),
	}
}

func modelToReservation(m *ReservationModel) *inv.Reservation {
	return inv.ReconstructReservation(
		m.ID, m.ItemID, m.LocationID,
		m.Quantity, m.Consumed,
		m.RefKind, m.RefID,
		m.Active,
		m.CreatedAt,
		m.ReleasedAt,
	)
}
