package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	catalogapp "github.com/printforge/printforge/internal/application/catalog"
	"github.com/printforge/printforge/internal/domain/bom"
	"github.com/printforge/printforge/internal/domain/uom"
)

// NewBOMCommand creates the bom command with subcommands
func NewBOMCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bom",
		Short: "Bill-of-material and routing operations",
		Long: `Manage BOM revisions and routings. A new revision supersedes the
previous active one atomically; revisions are validated against unit
conversions and catalog cycles before they take effect.

Line format for bom create:
  <component-id>:<qty>:<unit>[:<stage>[:cost-only]]

  stage is "production" (default) or "shipping"; a cost-only line rolls
  into cost without consuming stock.

Operation format for bom routing:
  <work-center-id>:<setup-min>:<run-min-per-unit>

Examples:
  printforge bom create --parent ITEM-ID --line MAT-ID:42:g --line BOX-ID:1:pcs:shipping
  printforge bom show ITEM-ID
  printforge bom routing --parent ITEM-ID --op WC-PRINTER:5:90 --op WC-ASSEMBLY:0:10
  printforge bom cost ITEM-ID`,
	}

	cmd.AddCommand(newBOMCreateCommand())
	cmd.AddCommand(newBOMShowCommand())
	cmd.AddCommand(newBOMRoutingCommand())
	cmd.AddCommand(newBOMCostCommand())
	cmd.AddCommand(newBOMDeactivateCommand())

	return cmd
}

func newBOMCreateCommand() *cobra.Command {
	var (
		parent string
		lines  []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new BOM revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBOMCreate(parent, lines)
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent item ID (required)")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "Line spec, repeatable (required)")
	_ = cmd.MarkFlagRequired("parent")
	_ = cmd.MarkFlagRequired("line")

	return cmd
}

func runBOMCreate(parent string, lineSpecs []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		lines := make([]bom.Line, 0, len(lineSpecs))
		for i, spec := range lineSpecs {
			parts, err := splitSpec(spec, 3, 5, "component:qty:unit[:stage[:cost-only]]")
			if err != nil {
				return err
			}
			qty, err := parseDecimal(parts[1], "line")
			if err != nil {
				return err
			}
			line := bom.Line{
				Seq:         (i + 1) * 10,
				ComponentID: parts[0],
				QtyPer:      qty,
				Unit:        uom.Unit(parts[2]),
				Stage:       bom.ConsumeAtProduction,
			}
			if len(parts) >= 4 {
				line.Stage = bom.ConsumeStage(parts[3])
			}
			if len(parts) == 5 {
				line.CostOnly = parts[4] == "cost-only"
			}
			lines = append(lines, line)
		}

		rev, err := a.catalog.CreateBOMRevision(ctx, catalogapp.CreateBOMParams{
			ParentItemID: parent,
			Lines:        lines,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created BOM revision %d for %s (%s)\n", rev.Revision, parent, rev.ID)
		return nil
	})
}

func newBOMShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <parent-item-id>",
		Short: "Show the active BOM of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBOMShow(args[0])
		},
	}
	return cmd
}

func runBOMShow(parent string) error {
	return withApp(func(ctx context.Context, a *app) error {
		view, err := a.catalog.ActiveBOM(ctx, parent)
		if err != nil {
			return err
		}

		fmt.Printf("BOM for %s (%s), revision %d\n\n", view.Parent.SKU(), view.Parent.Name(), view.BOM.Revision)
		w := newTabWriter()
		fmt.Fprintln(w, "SEQ\tCOMPONENT\tQTY\tUNIT\tSTOCK QTY\tSTAGE\tCOST ONLY")
		for _, l := range view.Lines {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s %s\t%s\t%t\n",
				l.Line.Seq, l.Component.SKU(), l.Line.QtyPer.String(), l.Line.Unit,
				l.QtyInStockUnit.String(), l.Component.StockUnit(), l.Line.Stage, l.Line.CostOnly)
		}
		return w.Flush()
	})
}

func newBOMRoutingCommand() *cobra.Command {
	var (
		parent string
		ops    []string
	)

	cmd := &cobra.Command{
		Use:   "routing",
		Short: "Create a new routing revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBOMRouting(parent, ops)
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent item ID (required)")
	cmd.Flags().StringArrayVar(&ops, "op", nil, "Operation spec work-center:setup-min:run-min-per-unit, repeatable (required)")
	_ = cmd.MarkFlagRequired("parent")
	_ = cmd.MarkFlagRequired("op")

	return cmd
}

func runBOMRouting(parent string, opSpecs []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		operations := make([]bom.Operation, 0, len(opSpecs))
		for i, spec := range opSpecs {
			parts, err := splitSpec(spec, 3, 3, "work-center:setup-min:run-min-per-unit")
			if err != nil {
				return err
			}
			setup, err := parseDecimal(parts[1], "op")
			if err != nil {
				return err
			}
			run, err := parseDecimal(parts[2], "op")
			if err != nil {
				return err
			}
			operations = append(operations, bom.Operation{
				Seq:            (i + 1) * 10,
				WorkCenterID:   parts[0],
				SetupTimeMin:   setup,
				RunTimePerUnit: run,
			})
		}

		routing, err := a.catalog.CreateRouting(ctx, catalogapp.CreateRoutingParams{
			ParentItemID: parent,
			Operations:   operations,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created routing revision %d for %s (%s)\n", routing.Revision, parent, routing.ID)
		return nil
	})
}

func newBOMCostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cost <item-id>",
		Short: "Show the rolled-up standard cost of an item",
		Long: `Roll up cost through the active BOM tree: component costs (including
cost-only lines) plus routing labor at work-center rates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				cost, err := a.catalog.RolledUpCost(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Rolled-up cost: %s\n", cost.StringFixed(4))
				return nil
			})
		},
	}
	return cmd
}

func newBOMDeactivateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate <bom-id>",
		Short: "Deactivate a BOM revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.catalog.DeactivateBOM(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("Deactivated BOM %s\n", args[0])
				return nil
			})
		},
	}
	return cmd
}

// NewWorkCenterCommand creates the workcenter command with subcommands
func NewWorkCenterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workcenter",
		Short: "Work center operations",
	}
	cmd.AddCommand(newWorkCenterAddCommand())
	cmd.AddCommand(newWorkCenterListCommand())
	return cmd
}

func newWorkCenterAddCommand() *cobra.Command {
	var (
		code     string
		kind     string
		capacity string
		rate     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a work center",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkCenterAdd(code, kind, capacity, rate)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Work center code (required)")
	cmd.Flags().StringVar(&kind, "kind", "printer", "Kind, e.g. printer, assembly, qc")
	cmd.Flags().StringVar(&capacity, "capacity", "480", "Productive minutes per day")
	cmd.Flags().StringVar(&rate, "rate", "0", "Default cost per hour")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func runWorkCenterAdd(code, kind, capacity, rate string) error {
	return withApp(func(ctx context.Context, a *app) error {
		cap, err := parseDecimal(capacity, "capacity")
		if err != nil {
			return err
		}
		r, err := parseDecimal(rate, "rate")
		if err != nil {
			return err
		}

		wc := &bom.WorkCenter{
			Code:             code,
			Kind:             kind,
			DailyCapacityMin: cap,
			DefaultRate:      r,
		}
		if err := a.catalog.CreateWorkCenter(ctx, wc); err != nil {
			return err
		}
		fmt.Printf("Created work center %s (%s)\n", wc.Code, wc.ID)
		return nil
	})
}

func newWorkCenterListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work centers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				centers, err := a.catalog.ListWorkCenters(ctx)
				if err != nil {
					return err
				}
				w := newTabWriter()
				fmt.Fprintln(w, "CODE\tKIND\tCAPACITY MIN/DAY\tRATE/H\tID")
				for _, wc := range centers {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						wc.Code, wc.Kind, wc.DailyCapacityMin.String(), wc.DefaultRate.String(), wc.ID)
				}
				return w.Flush()
			})
		},
	}
	return cmd
}
