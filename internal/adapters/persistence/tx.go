package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate is the row lock used by balance updates and counters
func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

type txKey struct{}

// GormTxManager implements shared.TxManager over a gorm connection.
// Repositories constructed from the same connection join the ambient
// transaction through the context; nested WithinTx calls join the outer
// transaction instead of opening a new one.
type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithinTx runs fn inside one storage transaction
func (m *GormTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the ambient transaction when one is open, otherwise the base
// connection scoped to the context.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// nextCounter atomically increments a named counter under a row lock and
// returns the new value. Must run inside a transaction for the lock to hold.
func nextCounter(ctx context.Context, db *gorm.DB, name string) (int64, error) {
	tx := conn(ctx, db)
	var counter CounterModel
	err := tx.Clauses(lockForUpdate()).Where("name = ?", name).First(&counter).Error
	if err == gorm.ErrRecordNotFound {
		counter = CounterModel{Name: name, Value: 0}
		if err := tx.Create(&counter).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}
	counter.Value++
	if err := tx.Model(&CounterModel{}).Where("name = ?", name).Update("value", counter.Value).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}
