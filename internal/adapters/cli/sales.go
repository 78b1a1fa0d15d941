package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	salesapp "github.com/printforge/printforge/internal/application/sales"
)

// NewSalesCommand creates the sales command with subcommands
func NewSalesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Sales order operations",
		Long: `Create and manage customer orders. Confirming an order makes it
demand for planning; shipping happens through the ship command once
production has the goods ready.

Line format:
  <item-id>:<qty>:<unit-price>[:<need-date>]

Examples:
  printforge sales create --customer CUST-1 --date 2026-09-15 --line ITEM-ID:10:24.99
  printforge sales confirm SO-000001
  printforge sales show SO-000001
  printforge sales list`,
	}

	cmd.AddCommand(newSalesCreateCommand())
	cmd.AddCommand(newSalesConfirmCommand())
	cmd.AddCommand(newSalesCancelCommand())
	cmd.AddCommand(newSalesShowCommand())
	cmd.AddCommand(newSalesListCommand())

	return cmd
}

func newSalesCreateCommand() *cobra.Command {
	var (
		customer string
		date     string
		lines    []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft sales order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSalesCreate(customer, date, lines)
		},
	}

	cmd.Flags().StringVar(&customer, "customer", "", "Customer ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "Requested date YYYY-MM-DD (default: 7 days out)")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "Line spec item:qty:price[:need-date], repeatable (required)")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("line")

	return cmd
}

func runSalesCreate(customer, date string, lineSpecs []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		requested := time.Now().UTC().AddDate(0, 0, 7)
		if date != "" {
			var err error
			requested, err = parseDate(date, "date")
			if err != nil {
				return err
			}
		}

		lines := make([]salesapp.LineParams, 0, len(lineSpecs))
		for _, spec := range lineSpecs {
			parts, err := splitSpec(spec, 3, 4, "item:qty:price[:need-date]")
			if err != nil {
				return err
			}
			qty, err := parseDecimal(parts[1], "line")
			if err != nil {
				return err
			}
			price, err := parseDecimal(parts[2], "line")
			if err != nil {
				return err
			}
			lp := salesapp.LineParams{ItemID: parts[0], Quantity: qty, UnitPrice: price}
			if len(parts) == 4 {
				need, err := parseDate(parts[3], "line")
				if err != nil {
					return err
				}
				lp.NeedDate = &need
			}
			lines = append(lines, lp)
		}

		order, err := a.sales.Create(ctx, customer, requested, lines)
		if err != nil {
			return err
		}
		fmt.Printf("Created sales order %s (%s), %d lines\n", order.Number, order.ID, len(order.Lines))
		return nil
	})
}

func newSalesConfirmCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <id-or-number>",
		Short: "Confirm an order, making it demand for planning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				order, err := a.sales.Confirm(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Confirmed %s\n", order.Number)
				return nil
			})
		},
	}
	return cmd
}

func newSalesCancelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <id-or-number>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				order, err := a.sales.Cancel(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Cancelled %s\n", order.Number)
				return nil
			})
		},
	}
	return cmd
}

func newSalesShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id-or-number>",
		Short: "Show a sales order with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSalesShow(args[0])
		},
	}
	return cmd
}

func runSalesShow(ref string) error {
	return withApp(func(ctx context.Context, a *app) error {
		order, err := a.sales.Get(ctx, ref)
		if err != nil {
			return err
		}

		fmt.Printf("Order:     %s (%s)\n", order.Number, order.ID)
		fmt.Printf("Customer:  %s\n", order.CustomerID)
		fmt.Printf("Status:    %s\n", order.Status)
		fmt.Printf("Requested: %s\n", formatDate(order.RequestedDate))
		fmt.Println()

		w := newTabWriter()
		fmt.Fprintln(w, "SEQ\tITEM\tORDERED\tALLOCATED\tSHIPPED\tPRICE\tNEED DATE")
		for _, l := range order.Lines {
			need := formatDate(order.RequestedDate)
			if l.NeedDate != nil {
				need = formatDate(*l.NeedDate)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				l.Seq, l.ItemID, l.QtyOrdered.String(), l.QtyAllocated.String(),
				l.QtyShipped.String(), l.UnitPrice.String(), need)
		}
		return w.Flush()
	})
}

func newSalesListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open sales orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				orders, err := a.sales.ListOpen(ctx)
				if err != nil {
					return err
				}
				w := newTabWriter()
				fmt.Fprintln(w, "NUMBER\tCUSTOMER\tSTATUS\tREQUESTED\tLINES")
				for _, o := range orders {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
						o.Number, o.CustomerID, o.Status, formatDate(o.RequestedDate), len(o.Lines))
				}
				return w.Flush()
			})
		},
	}
	return cmd
}
