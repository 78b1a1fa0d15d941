package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/printforge/internal/application/common"
	inventoryapp "github.com/printforge/printforge/internal/application/inventory"
	inv "github.com/printforge/printforge/internal/domain/inventory"
)

// PostTransactionCommand represents a command to post one ledger transaction
type PostTransactionCommand struct {
	ItemID         string
	LocationID     string // optional: empty means the default location
	Quantity       decimal.Decimal
	Kind           string
	RefKind        string
	RefID          string
	IdempotencyKey string
	AllowNegative  bool
	CreatedBy      string
}

// PostTransactionResponse represents the result of posting a transaction
type PostTransactionResponse struct {
	TransactionID string
	PostedAt      time.Time
}

// PostTransactionHandler handles the PostTransaction command
type PostTransactionHandler struct {
	ledger *inventoryapp.Service
}

func NewPostTransactionHandler(ledger *inventoryapp.Service) *PostTransactionHandler {
	return &PostTransactionHandler{ledger: ledger}
}

// Handle executes the PostTransaction command
func (h *PostTransactionHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*PostTransactionCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *PostTransactionCommand")
	}

	kind := inv.TxnKind(cmd.Kind)
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid transaction kind: %s", cmd.Kind)
	}

	params := inventoryapp.PostParams{
		ItemID:        cmd.ItemID,
		LocationID:    cmd.LocationID,
		Quantity:      cmd.Quantity,
		Kind:          kind,
		RefKind:       cmd.RefKind,
		RefID:         cmd.RefID,
		AllowNegative: cmd.AllowNegative,
		CreatedBy:     cmd.CreatedBy,
	}
	if cmd.IdempotencyKey != "" {
		params.IdempotencyKey = &cmd.IdempotencyKey
	}
	txn, err := h.ledger.Post(ctx, params)
	if err != nil {
		return nil, err
	}

	return &PostTransactionResponse{
		TransactionID: txn.ID(),
		PostedAt:      txn.CreatedAt(),
	}, nil
}
