package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	productionapp "github.com/printforge/printforge/internal/application/production"
)

// NewProductionCommand creates the production command with subcommands
func NewProductionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "production",
		Short: "Production order operations",
		Long: `Run production orders through their lifecycle: release reserves the
production-stage materials, complete posts output and consumes them, QC
moves finished quantity into stock.

Examples:
  printforge production create --item ITEM-ID --qty 100 --date 2026-09-10
  printforge production release PO-000001
  printforge production start PO-000001
  printforge production complete PO-000001 --good 95 --scrap 5
  printforge production qc PO-000001 --pass
  printforge production split PO-000001 --qty 60 --qty 40`,
	}

	cmd.AddCommand(newProductionCreateCommand())
	cmd.AddCommand(newProductionReleaseCommand())
	cmd.AddCommand(newProductionStartCommand())
	cmd.AddCommand(newProductionOpCommand())
	cmd.AddCommand(newProductionCompleteCommand())
	cmd.AddCommand(newProductionQCCommand())
	cmd.AddCommand(newProductionSplitCommand())
	cmd.AddCommand(newProductionCancelCommand())
	cmd.AddCommand(newProductionShowCommand())
	cmd.AddCommand(newProductionListCommand())

	return cmd
}

func newProductionCreateCommand() *cobra.Command {
	var (
		itemID     string
		qty        string
		date       string
		salesOrder string
		salesLine  int
		workCenter string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft production order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductionCreate(itemID, qty, date, salesOrder, salesLine, workCenter)
		},
	}

	cmd.Flags().StringVar(&itemID, "item", "", "Item ID to produce (required)")
	cmd.Flags().StringVar(&qty, "qty", "", "Quantity to produce (required)")
	cmd.Flags().StringVar(&date, "date", "", "Needed date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&salesOrder, "sales-order", "", "Peg to a sales order ID")
	cmd.Flags().IntVar(&salesLine, "sales-line", 0, "Pegged sales order line seq")
	cmd.Flags().StringVar(&workCenter, "work-center", "", "Preferred work center ID")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("qty")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func runProductionCreate(itemID, qty, date, salesOrder string, salesLine int, workCenter string) error {
	return withApp(func(ctx context.Context, a *app) error {
		quantity, err := parseDecimal(qty, "qty")
		if err != nil {
			return err
		}
		needed, err := parseDate(date, "date")
		if err != nil {
			return err
		}

		params := productionapp.CreateParams{
			ItemID:         itemID,
			Quantity:       quantity,
			NeededDate:     needed,
			SalesOrderID:   salesOrder,
			SalesOrderLine: salesLine,
		}
		if workCenter != "" {
			params.WorkCenterID = &workCenter
		}

		order, err := a.productionSvc.Create(ctx, params)
		if err != nil {
			return err
		}
		fmt.Printf("Created production order %s (%s)\n", order.Code(), order.ID())
		return nil
	})
}

func newProductionReleaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release <id-or-code>",
		Short: "Release an order, reserving its production-stage materials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				order, err := a.productionSvc.Get(ctx, args[0])
				if err != nil {
					return err
				}
				result, err := a.productionSvc.Release(ctx, order.ID())
				if err != nil {
					return err
				}
				fmt.Printf("Released %s, %d reservations held\n",
					result.Order.Code(), len(result.Reservations))
				for _, sf := range result.Shortfalls {
					fmt.Printf("  short %s: need %s, reserved %s\n",
						sf.ItemID, sf.Required.String(), sf.Reserved.String())
				}
				return nil
			})
		},
	}
	return cmd
}

func newProductionStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <id-or-code>",
		Short: "Start work on a released order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				order, err := a.productionSvc.Get(ctx, args[0])
				if err != nil {
					return err
				}
				order, err = a.productionSvc.Start(ctx, order.ID())
				if err != nil {
					return err
				}
				fmt.Printf("Started %s\n", order.Code())
				return nil
			})
		},
	}
	return cmd
}

func newProductionOpCommand() *cobra.Command {
	var opSeq int

	cmd := &cobra.Command{
		Use:   "op <id-or-code>",
		Short: "Record completion of a routing operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				order, err := a.productionSvc.Get(ctx, args[0])
				if err != nil {
					return err
				}
				order, err = a.productionSvc.RecordOperation(ctx, order.ID(), opSeq)
				if err != nil {
					return err
				}
				fmt.Printf("%s now at operation %d\n", order.Code(), order.CurrentOpSeq())
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opSeq, "seq", 0, "Operation sequence to record (required)")
	_ = cmd.MarkFlagRequired("seq")

	return cmd
}

func newProductionCompleteCommand() *cobra.Command {
	var (
		good  string
		scrap string
	)

	cmd := &cobra.Command{
		Use:   "complete <id-or-code>",
		Short: "Complete an order: post output, consume materials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductionComplete(args[0], good, scrap)
		},
	}

	cmd.Flags().StringVar(&good, "good", "", "Good quantity produced (required)")
	cmd.Flags().StringVar(&scrap, "scrap", "0", "Scrapped quantity")
	_ = cmd.MarkFlagRequired("good")

	return cmd
}

func runProductionComplete(ref, good, scrap string) error {
	return withApp(func(ctx context.Context, a *app) error {
		qtyGood, err := parseDecimal(good, "good")
		if err != nil {
			return err
		}
		qtyBad, err := parseDecimal(scrap, "scrap")
		if err != nil {
			return err
		}

		order, err := a.productionSvc.Get(ctx, ref)
		if err != nil {
			return err
		}
		result, err := a.productionSvc.Complete(ctx, order.ID(), qtyGood, qtyBad)
		if err != nil {
			return err
		}
		rows := len(result.Consumptions)
		if result.Receipt != nil {
			rows++
		}
		if result.Scrap != nil {
			rows++
		}
		fmt.Printf("Completed %s: %s good, %s scrapped, %d ledger rows\n",
			result.Order.Code(), qtyGood.String(), qtyBad.String(), rows)
		return nil
	})
}

func newProductionQCCommand() *cobra.Command {
	var (
		pass bool
		fail bool
	)

	cmd := &cobra.Command{
		Use:   "qc <id-or-code>",
		Short: "Record the quality check outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pass == fail {
				return fmt.Errorf("exactly one of --pass or --fail is required")
			}
			return withApp(func(ctx context.Context, a *app) error {
				order, err := a.productionSvc.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if pass {
					order, err = a.productionSvc.PassQC(ctx, order.ID())
				} else {
					order, err = a.productionSvc.FailQC(ctx, order.ID())
				}
				if err != nil {
					return err
				}
				fmt.Printf("%s is now %s\n", order.Code(), order.Status())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&pass, "pass", false, "QC passed")
	cmd.Flags().BoolVar(&fail, "fail", false, "QC failed, back to in progress")

	return cmd
}

func newProductionSplitCommand() *cobra.Command {
	var qtys []string

	cmd := &cobra.Command{
		Use:   "split <id-or-code>",
		Short: "Split the remaining quantity into child orders",
		Long: `Split an order into children whose quantities sum to the parent's
remaining quantity. Held material reservations move to the children
proportionally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductionSplit(args[0], qtys)
		},
	}

	cmd.Flags().StringArrayVar(&qtys, "qty", nil, "Child quantity, repeatable (at least two)")
	_ = cmd.MarkFlagRequired("qty")

	return cmd
}

func runProductionSplit(ref string, qtys []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		childQtys := make([]decimal.Decimal, 0, len(qtys))
		for _, q := range qtys {
			d, err := parseDecimal(q, "qty")
			if err != nil {
				return err
			}
			childQtys = append(childQtys, d)
		}

		order, err := a.productionSvc.Get(ctx, ref)
		if err != nil {
			return err
		}
		result, err := a.productionSvc.Split(ctx, order.ID(), childQtys)
		if err != nil {
			return err
		}
		fmt.Printf("Split %s into %d children:\n", result.Parent.Code(), len(result.Children))
		for _, child := range result.Children {
			fmt.Printf("  %s: %s\n", child.Code(), child.QtyOrdered().String())
		}
		return nil
	})
}

func newProductionCancelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <id-or-code>",
		Short: "Cancel an order, releasing its reservations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				order, err := a.productionSvc.Get(ctx, args[0])
				if err != nil {
					return err
				}
				order, err = a.productionSvc.Cancel(ctx, order.ID())
				if err != nil {
					return err
				}
				fmt.Printf("Cancelled %s\n", order.Code())
				return nil
			})
		},
	}
	return cmd
}

func newProductionShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id-or-code>",
		Short: "Show a production order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductionShow(args[0])
		},
	}
	return cmd
}

func runProductionShow(ref string) error {
	return withApp(func(ctx context.Context, a *app) error {
		order, err := a.productionSvc.Get(ctx, ref)
		if err != nil {
			return err
		}

		fmt.Printf("Order:     %s (%s)\n", order.Code(), order.ID())
		fmt.Printf("Item:      %s\n", order.ItemID())
		fmt.Printf("Status:    %s\n", order.Status())
		fmt.Printf("Ordered:   %s\n", order.QtyOrdered().String())
		fmt.Printf("Completed: %s\n", order.QtyCompleted().String())
		fmt.Printf("Scrapped:  %s\n", order.QtyScrapped().String())
		fmt.Printf("Remaining: %s\n", order.QtyRemaining().String())
		fmt.Printf("Needed:    %s\n", formatDate(order.NeededDate()))
		if peg := order.Pegging(); peg != nil {
			fmt.Printf("Pegged to: %s line %d\n", peg.SalesOrderID, peg.SalesOrderLine)
		}
		if parent := order.ParentID(); parent != nil {
			fmt.Printf("Split from: %s\n", *parent)
		}
		return nil
	})
}

func newProductionListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open production orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				orders, err := a.productionSvc.ListOpen(ctx)
				if err != nil {
					return err
				}
				w := newTabWriter()
				fmt.Fprintln(w, "CODE\tITEM\tSTATUS\tORDERED\tCOMPLETED\tNEEDED")
				for _, o := range orders {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						o.Code(), o.ItemID(), o.Status(), o.QtyOrdered().String(),
						o.QtyCompleted().String(), formatDate(o.NeededDate()))
				}
				return w.Flush()
			})
		},
	}
	return cmd
}
