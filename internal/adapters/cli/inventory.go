package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/printforge/printforge/internal/application/inventory/commands"
	"github.com/printforge/printforge/internal/application/inventory/queries"
)

// NewInventoryCommand creates the inventory command with subcommands
func NewInventoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Stock ledger operations",
		Long: `Post ledger transactions and inspect stock positions. Every stock
movement is an append-only transaction; balances are derived and can be
verified against the transaction history.

Transaction kinds:
  receipt      - Stock in (purchases, production output)
  issue        - Stock out (consumption, shipment)
  adjustment   - Signed correction
  transfer_in  - Arrival side of a transfer
  transfer_out - Departure side of a transfer

Examples:
  printforge inventory post --item MAT-PLA-BLK --qty 2000 --kind receipt
  printforge inventory stock MAT-PLA-BLK
  printforge inventory transfer --item MAT-PLA-BLK --from MAIN --to PRINTER-1 --qty 500
  printforge inventory history --item MAT-PLA-BLK
  printforge inventory verify --item MAT-PLA-BLK --location MAIN`,
	}

	cmd.AddCommand(newInventoryPostCommand())
	cmd.AddCommand(newInventoryStockCommand())
	cmd.AddCommand(newInventoryTransferCommand())
	cmd.AddCommand(newInventoryReserveCommand())
	cmd.AddCommand(newInventoryReleaseCommand())
	cmd.AddCommand(newInventoryHistoryCommand())
	cmd.AddCommand(newInventoryTraceCommand())
	cmd.AddCommand(newInventoryVerifyCommand())

	return cmd
}

func newInventoryPostCommand() *cobra.Command {
	var (
		itemRef        string
		location       string
		qty            string
		kind           string
		refKind        string
		refID          string
		idempotencyKey string
		allowNegative  bool
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a ledger transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventoryPost(itemRef, location, qty, kind, refKind, refID, idempotencyKey, allowNegative)
		},
	}

	cmd.Flags().StringVar(&itemRef, "item", "", "Item ID or SKU (required)")
	cmd.Flags().StringVar(&location, "location", "", "Location ID (empty = default location)")
	cmd.Flags().StringVar(&qty, "qty", "", "Quantity in stock units (required)")
	cmd.Flags().StringVar(&kind, "kind", "receipt", "Transaction kind")
	cmd.Flags().StringVar(&refKind, "ref-kind", "manual", "Reference kind")
	cmd.Flags().StringVar(&refID, "ref-id", "", "Reference ID")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Dedup key; a repeat post returns the original row")
	cmd.Flags().BoolVar(&allowNegative, "allow-negative", false, "Permit on-hand to go negative")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("qty")

	return cmd
}

func runInventoryPost(itemRef, location, qty, kind, refKind, refID, idempotencyKey string, allowNegative bool) error {
	return withApp(func(ctx context.Context, a *app) error {
		quantity, err := parseDecimal(qty, "qty")
		if err != nil {
			return err
		}
		itemID, err := resolveItemID(ctx, a, itemRef)
		if err != nil {
			return err
		}

		m, err := a.newMediator()
		if err != nil {
			return err
		}
		response, err := m.Send(ctx, &commands.PostTransactionCommand{
			ItemID:         itemID,
			LocationID:     location,
			Quantity:       quantity,
			Kind:           kind,
			RefKind:        refKind,
			RefID:          refID,
			IdempotencyKey: idempotencyKey,
			AllowNegative:  allowNegative,
			CreatedBy:      "cli",
		})
		if err != nil {
			return err
		}

		result := response.(*commands.PostTransactionResponse)
		fmt.Printf("Posted transaction %s at %s\n", result.TransactionID, formatTime(result.PostedAt))
		return nil
	})
}

func newInventoryStockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock <item-id-or-sku>",
		Short: "Show per-location stock for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventoryStock(args[0])
		},
	}
	return cmd
}

func runInventoryStock(itemRef string) error {
	return withApp(func(ctx context.Context, a *app) error {
		itemID, err := resolveItemID(ctx, a, itemRef)
		if err != nil {
			return err
		}

		m, err := a.newMediator()
		if err != nil {
			return err
		}
		response, err := m.Send(ctx, &queries.GetStockLevelQuery{ItemID: itemID})
		if err != nil {
			return err
		}

		result := response.(*queries.GetStockLevelResponse)
		w := newTabWriter()
		fmt.Fprintln(w, "LOCATION\tON HAND\tRESERVED\tAVAILABLE")
		for _, b := range result.Locations {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				b.LocationID, b.OnHand.String(), b.Reserved.String(), b.Available.String())
		}
		fmt.Fprintf(w, "TOTAL\t%s\t%s\t%s\n",
			result.OnHand.String(), result.Reserved.String(), result.Available.String())
		return w.Flush()
	})
}

func newInventoryTransferCommand() *cobra.Command {
	var (
		itemRef string
		from    string
		to      string
		qty     string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move stock between locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventoryTransfer(itemRef, from, to, qty)
		},
	}

	cmd.Flags().StringVar(&itemRef, "item", "", "Item ID or SKU (required)")
	cmd.Flags().StringVar(&from, "from", "", "Source location ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "Target location ID (required)")
	cmd.Flags().StringVar(&qty, "qty", "", "Quantity in stock units (required)")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("qty")

	return cmd
}

func runInventoryTransfer(itemRef, from, to, qty string) error {
	return withApp(func(ctx context.Context, a *app) error {
		quantity, err := parseDecimal(qty, "qty")
		if err != nil {
			return err
		}
		itemID, err := resolveItemID(ctx, a, itemRef)
		if err != nil {
			return err
		}

		txns, err := a.ledger.Transfer(ctx, itemID, from, to, quantity, "manual", "", "cli")
		if err != nil {
			return err
		}
		fmt.Printf("Transferred %s from %s to %s (%d ledger rows)\n", quantity.String(), from, to, len(txns))
		return nil
	})
}

func newInventoryReserveCommand() *cobra.Command {
	var (
		itemRef  string
		location string
		qty      string
		refKind  string
		refID    string
	)

	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Reserve stock for a reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventoryReserve(itemRef, location, qty, refKind, refID)
		},
	}

	cmd.Flags().StringVar(&itemRef, "item", "", "Item ID or SKU (required)")
	cmd.Flags().StringVar(&location, "location", "", "Location ID (empty = default location)")
	cmd.Flags().StringVar(&qty, "qty", "", "Quantity in stock units (required)")
	cmd.Flags().StringVar(&refKind, "ref-kind", "manual", "Reference kind")
	cmd.Flags().StringVar(&refID, "ref-id", "", "Reference ID")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("qty")

	return cmd
}

func runInventoryReserve(itemRef, location, qty, refKind, refID string) error {
	return withApp(func(ctx context.Context, a *app) error {
		quantity, err := parseDecimal(qty, "qty")
		if err != nil {
			return err
		}
		itemID, err := resolveItemID(ctx, a, itemRef)
		if err != nil {
			return err
		}

		res, err := a.ledger.Reserve(ctx, itemID, location, quantity, refKind, refID, "cli")
		if err != nil {
			return err
		}
		fmt.Printf("Reserved %s at %s (reservation %s)\n", quantity.String(), res.LocationID(), res.ID())
		return nil
	})
}

func newInventoryReleaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release <reservation-id>",
		Short: "Release an active reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.ledger.ReleaseReservation(ctx, args[0], "cli"); err != nil {
					return err
				}
				fmt.Printf("Released reservation %s\n", args[0])
				return nil
			})
		},
	}
	return cmd
}

func newInventoryHistoryCommand() *cobra.Command {
	var (
		itemRef  string
		location string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the transaction history of an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventoryHistory(itemRef, location)
		},
	}

	cmd.Flags().StringVar(&itemRef, "item", "", "Item ID or SKU (required)")
	cmd.Flags().StringVar(&location, "location", "", "Restrict to one location")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}

func runInventoryHistory(itemRef, location string) error {
	return withApp(func(ctx context.Context, a *app) error {
		itemID, err := resolveItemID(ctx, a, itemRef)
		if err != nil {
			return err
		}

		txns, err := a.ledger.History(ctx, itemID, location)
		if err != nil {
			return err
		}

		w := newTabWriter()
		fmt.Fprintln(w, "POSTED\tKIND\tQTY\tLOCATION\tREF\tID")
		for _, t := range txns {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s/%s\t%s\n",
				formatTime(t.CreatedAt()), t.Kind(), t.Quantity().String(),
				t.LocationID(), t.RefKind(), t.RefID(), t.ID())
		}
		return w.Flush()
	})
}

func newInventoryTraceCommand() *cobra.Command {
	var (
		refKind string
		refID   string
	)

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show every ledger row posted against a reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventoryTrace(refKind, refID)
		},
	}

	cmd.Flags().StringVar(&refKind, "ref-kind", "", "Reference kind, e.g. production_order (required)")
	cmd.Flags().StringVar(&refID, "ref-id", "", "Reference ID (required)")
	_ = cmd.MarkFlagRequired("ref-kind")
	_ = cmd.MarkFlagRequired("ref-id")

	return cmd
}

func runInventoryTrace(refKind, refID string) error {
	return withApp(func(ctx context.Context, a *app) error {
		txns, err := a.ledger.Trace(ctx, refKind, refID)
		if err != nil {
			return err
		}

		w := newTabWriter()
		fmt.Fprintln(w, "POSTED\tKIND\tQTY\tITEM\tLOCATION\tID")
		for _, t := range txns {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				formatTime(t.CreatedAt()), t.Kind(), t.Quantity().String(),
				t.ItemID(), t.LocationID(), t.ID())
		}
		return w.Flush()
	})
}

func newInventoryVerifyCommand() *cobra.Command {
	var (
		itemRef  string
		location string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute a balance from history and compare",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventoryVerify(itemRef, location)
		},
	}

	cmd.Flags().StringVar(&itemRef, "item", "", "Item ID or SKU (required)")
	cmd.Flags().StringVar(&location, "location", "", "Location ID (required)")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}

func runInventoryVerify(itemRef, location string) error {
	return withApp(func(ctx context.Context, a *app) error {
		itemID, err := resolveItemID(ctx, a, itemRef)
		if err != nil {
			return err
		}
		if err := a.ledger.VerifyBalance(ctx, itemID, location); err != nil {
			return err
		}
		fmt.Printf("Balance for %s at %s matches its transaction history\n", itemRef, location)
		return nil
	})
}

// resolveItemID accepts an item ID or a SKU and returns the ID
func resolveItemID(ctx context.Context, a *app, ref string) (string, error) {
	it, err := a.itemService.Get(ctx, ref)
	if err == nil {
		return it.ID(), nil
	}
	it, skuErr := a.itemService.GetBySKU(ctx, ref)
	if skuErr != nil {
		return "", err
	}
	return it.ID(), nil
}
