package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/printforge/printforge/internal/application/planning/commands"
)

// NewMRPCommand creates the mrp command with subcommands
func NewMRPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mrp",
		Short: "Material requirements planning",
		Long: `Run the planner and work with its output. A run nets confirmed demand
against stock and scheduled receipts, explodes BOMs, and replaces the
planned order set atomically. Firming converts a planned order into a real
draft production or purchase order.

Examples:
  printforge mrp run
  printforge mrp list
  printforge mrp firm PLANNED-ID --vendor VEND-1`,
	}

	cmd.AddCommand(newMRPRunCommand())
	cmd.AddCommand(newMRPListCommand())
	cmd.AddCommand(newMRPFirmCommand())

	return cmd
}

func newMRPRunCommand() *cobra.Command {
	var (
		horizon     int
		safetyStock bool
		cascade     bool
		items       []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a planning run",
		RunE: func(cmd *cobra.Command, args []string) error {
			run := &commands.RunPlanningCommand{ItemIDs: items}
			if cmd.Flags().Changed("horizon") {
				run.HorizonDays = &horizon
			}
			if cmd.Flags().Changed("safety-stock") {
				run.IncludeSafetyStock = &safetyStock
			}
			if cmd.Flags().Changed("cascade") {
				run.CascadeSubAssemblies = &cascade
			}
			return runMRPRun(run)
		},
	}

	cmd.Flags().IntVar(&horizon, "horizon", 0, "Planning horizon in days for this run")
	cmd.Flags().BoolVar(&safetyStock, "safety-stock", true, "Plan safety-stock replenishment")
	cmd.Flags().BoolVar(&cascade, "cascade", true, "Offset component need dates to parent release dates")
	cmd.Flags().StringSliceVar(&items, "item", nil, "Restrict planning to the given item IDs")

	return cmd
}

func runMRPRun(run *commands.RunPlanningCommand) error {
	return withApp(func(ctx context.Context, a *app) error {
		m, err := a.newMediator()
		if err != nil {
			return err
		}
		response, err := m.Send(ctx, run)
		if err != nil {
			return err
		}

		result := response.(*commands.RunPlanningResponse)
		fmt.Printf("Run %s at %s: %d planned orders, %d warnings\n",
			result.RunID, formatTime(result.TakenAt), result.PlannedOrders, len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		return nil
	})
}

func newMRPListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the current planned orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMRPList()
		},
	}
	return cmd
}

func runMRPList() error {
	return withApp(func(ctx context.Context, a *app) error {
		orders, err := a.planning.ListPlannedOrders(ctx)
		if err != nil {
			return err
		}

		w := newTabWriter()
		fmt.Fprintln(w, "ID\tKIND\tITEM\tQTY\tRELEASE\tNEED\tPEGS")
		for _, o := range orders {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
				o.ID, o.Kind, o.ItemID, o.Quantity.String(),
				formatDate(o.ReleaseDate), formatDate(o.NeedDate), len(o.Pegs))
		}
		return w.Flush()
	})
}

func newMRPFirmCommand() *cobra.Command {
	var vendor string

	cmd := &cobra.Command{
		Use:   "firm <planned-order-id>",
		Short: "Convert a planned order into a draft order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMRPFirm(args[0], vendor)
		},
	}

	cmd.Flags().StringVar(&vendor, "vendor", "", "Vendor ID for buy orders")

	return cmd
}

func runMRPFirm(plannedOrderID, vendor string) error {
	return withApp(func(ctx context.Context, a *app) error {
		m, err := a.newMediator()
		if err != nil {
			return err
		}
		response, err := m.Send(ctx, &commands.FirmPlannedOrderCommand{
			PlannedOrderID: plannedOrderID,
			VendorID:       vendor,
		})
		if err != nil {
			return err
		}

		result := response.(*commands.FirmPlannedOrderResponse)
		switch {
		case result.ProductionOrderCode != "":
			fmt.Printf("Firmed into production order %s\n", result.ProductionOrderCode)
		case result.PurchaseOrderCode != "":
			fmt.Printf("Firmed into purchase order %s\n", result.PurchaseOrderCode)
		}
		return nil
	})
}
