package shared

import "context"

// TxManager runs a function within one storage transaction. Repository calls
// made with the context passed to fn join that transaction; if fn returns an
// error the whole transaction rolls back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
