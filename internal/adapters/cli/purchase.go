package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	purchasingapp "github.com/printforge/printforge/internal/application/purchasing"
)

// NewPurchaseCommand creates the purchase command with subcommands
func NewPurchaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Purchase order operations",
		Long: `Create purchase orders and receive them into stock. Placed orders
count as scheduled receipts for planning; receiving posts a ledger receipt
in the same transaction as the quantity update.

Line format:
  <item-id>:<qty>:<unit-cost>

Examples:
  printforge purchase create --vendor VEND-1 --date 2026-09-05 --line MAT-ID:5000:0.021
  printforge purchase place PUR-000001
  printforge purchase receive PUR-000001 --line LINE-ID --qty 5000
  printforge purchase list`,
	}

	cmd.AddCommand(newPurchaseCreateCommand())
	cmd.AddCommand(newPurchasePlaceCommand())
	cmd.AddCommand(newPurchaseReceiveCommand())
	cmd.AddCommand(newPurchaseCancelCommand())
	cmd.AddCommand(newPurchaseShowCommand())
	cmd.AddCommand(newPurchaseListCommand())

	return cmd
}

func newPurchaseCreateCommand() *cobra.Command {
	var (
		vendor string
		date   string
		lines  []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft purchase order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurchaseCreate(vendor, date, lines)
		},
	}

	cmd.Flags().StringVar(&vendor, "vendor", "", "Vendor ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "Expected date YYYY-MM-DD (default: 7 days out)")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "Line spec item:qty:cost, repeatable (required)")
	_ = cmd.MarkFlagRequired("vendor")
	_ = cmd.MarkFlagRequired("line")

	return cmd
}

func runPurchaseCreate(vendor, date string, lineSpecs []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		expected := time.Now().UTC().AddDate(0, 0, 7)
		if date != "" {
			var err error
			expected, err = parseDate(date, "date")
			if err != nil {
				return err
			}
		}

		lines := make([]purchasingapp.LineParams, 0, len(lineSpecs))
		for _, spec := range lineSpecs {
			parts, err := splitSpec(spec, 3, 3, "item:qty:cost")
			if err != nil {
				return err
			}
			qty, err := parseDecimal(parts[1], "line")
			if err != nil {
				return err
			}
			cost, err := parseDecimal(parts[2], "line")
			if err != nil {
				return err
			}
			lines = append(lines, purchasingapp.LineParams{
				ItemID:   parts[0],
				Quantity: qty,
				UnitCost: cost,
			})
		}

		order, err := a.purchase.Create(ctx, vendor, expected, lines)
		if err != nil {
			return err
		}
		fmt.Printf("Created purchase order %s (%s), %d lines\n", order.Code, order.ID, len(order.Lines))
		return nil
	})
}

func newPurchasePlaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place <id-or-code>",
		Short: "Place an order with the vendor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				order, err := a.purchase.Get(ctx, args[0])
				if err != nil {
					return err
				}
				order, err = a.purchase.Place(ctx, order.ID)
				if err != nil {
					return err
				}
				fmt.Printf("Placed %s\n", order.Code)
				return nil
			})
		},
	}
	return cmd
}

func newPurchaseReceiveCommand() *cobra.Command {
	var (
		lineID   string
		qty      string
		location string
	)

	cmd := &cobra.Command{
		Use:   "receive <id-or-code>",
		Short: "Receive a line into stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurchaseReceive(args[0], lineID, qty, location)
		},
	}

	cmd.Flags().StringVar(&lineID, "line", "", "Line ID (required)")
	cmd.Flags().StringVar(&qty, "qty", "", "Received quantity (required)")
	cmd.Flags().StringVar(&location, "location", "", "Receiving location (empty = default)")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("qty")

	return cmd
}

func runPurchaseReceive(ref, lineID, qty, location string) error {
	return withApp(func(ctx context.Context, a *app) error {
		quantity, err := parseDecimal(qty, "qty")
		if err != nil {
			return err
		}

		order, err := a.purchase.Get(ctx, ref)
		if err != nil {
			return err
		}
		result, err := a.purchase.Receive(ctx, order.ID, lineID, quantity, location)
		if err != nil {
			return err
		}
		fmt.Printf("Received %s against %s (transaction %s), order now %s\n",
			quantity.String(), result.Order.Code, result.Receipt.ID(), result.Order.Status)
		return nil
	})
}

func newPurchaseCancelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <id-or-code>",
		Short: "Cancel an order with no receipts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				order, err := a.purchase.Get(ctx, args[0])
				if err != nil {
					return err
				}
				order, err = a.purchase.Cancel(ctx, order.ID)
				if err != nil {
					return err
				}
				fmt.Printf("Cancelled %s\n", order.Code)
				return nil
			})
		},
	}
	return cmd
}

func newPurchaseShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id-or-code>",
		Short: "Show a purchase order with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurchaseShow(args[0])
		},
	}
	return cmd
}

func runPurchaseShow(ref string) error {
	return withApp(func(ctx context.Context, a *app) error {
		order, err := a.purchase.Get(ctx, ref)
		if err != nil {
			return err
		}

		fmt.Printf("Order:    %s (%s)\n", order.Code, order.ID)
		fmt.Printf("Vendor:   %s\n", order.VendorID)
		fmt.Printf("Status:   %s\n", order.Status)
		fmt.Printf("Expected: %s\n", formatDate(order.ExpectedDate))
		fmt.Println()

		w := newTabWriter()
		fmt.Fprintln(w, "SEQ\tLINE ID\tITEM\tORDERED\tRECEIVED\tCOST")
		for _, l := range order.Lines {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				l.Seq, l.ID, l.ItemID, l.QtyOrdered.String(), l.QtyReceived.String(), l.UnitCost.String())
		}
		return w.Flush()
	})
}

func newPurchaseListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open purchase orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				orders, err := a.purchase.ListOpen(ctx)
				if err != nil {
					return err
				}
				w := newTabWriter()
				fmt.Fprintln(w, "CODE\tVENDOR\tSTATUS\tEXPECTED\tLINES")
				for _, o := range orders {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
						o.Code, o.VendorID, o.Status, formatDate(o.ExpectedDate), len(o.Lines))
				}
				return w.Flush()
			})
		},
	}
	return cmd
}
