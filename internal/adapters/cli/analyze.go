package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/printforge/printforge/internal/application/issues/queries"
)

// NewAnalyzeCommand creates the analyze command with subcommands
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Explain what blocks an order",
		Long: `Diagnose why an order cannot ship or start: missing production,
material shortages, stock held by other orders, supply arriving too late.
Each finding comes with a suggested action.

Examples:
  printforge analyze sales SO-000001
  printforge analyze production PO-000001`,
	}

	cmd.AddCommand(newAnalyzeSalesCommand())
	cmd.AddCommand(newAnalyzeProductionCommand())

	return cmd
}

func newAnalyzeSalesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales <id-or-number>",
		Short: "Analyze a sales order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyzeSales(args[0])
		},
	}
	return cmd
}

func runAnalyzeSales(ref string) error {
	return withApp(func(ctx context.Context, a *app) error {
		m, err := a.newMediator()
		if err != nil {
			return err
		}
		response, err := m.Send(ctx, &queries.AnalyzeSalesOrderQuery{SalesOrderID: ref})
		if err != nil {
			return err
		}

		result := response.(*queries.AnalyzeSalesOrderResponse)
		if result.CanFulfill {
			fmt.Printf("Sales order %s can ship\n", result.SalesOrderID)
		} else {
			fmt.Printf("Sales order %s cannot ship yet\n", result.SalesOrderID)
		}
		if result.EstimatedReadyDate != nil {
			fmt.Printf("Estimated ready: %s\n", formatDate(*result.EstimatedReadyDate))
		}

		if len(result.Issues) > 0 {
			fmt.Println("\nIssues:")
			w := newTabWriter()
			fmt.Fprintln(w, "  SEVERITY\tKIND\tITEM\tQTY\tDETAIL")
			for _, issue := range result.Issues {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
					issue.Severity, issue.Kind, issue.ItemID, issue.Quantity.String(), issue.Detail)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
		if len(result.Actions) > 0 {
			fmt.Println("\nSuggested actions:")
			for _, action := range result.Actions {
				fmt.Printf("  %d. [%s] %s\n", action.Priority, action.Kind, action.Detail)
			}
		}
		return nil
	})
}

func newAnalyzeProductionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "production <id-or-code>",
		Short: "Analyze a production order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyzeProduction(args[0])
		},
	}
	return cmd
}

func runAnalyzeProduction(ref string) error {
	return withApp(func(ctx context.Context, a *app) error {
		order, err := a.productionSvc.Get(ctx, ref)
		if err != nil {
			return err
		}
		analysis, err := a.issues.AnalyzeProductionOrder(ctx, order.ID())
		if err != nil {
			return err
		}

		if analysis.Ready {
			fmt.Printf("Production order %s has everything it needs\n", order.Code())
		} else {
			fmt.Printf("Production order %s is blocked\n", order.Code())
		}
		if analysis.EstimatedReadyDate != nil {
			fmt.Printf("Estimated ready: %s\n", formatDate(*analysis.EstimatedReadyDate))
		}

		if len(analysis.Issues) > 0 {
			fmt.Println("\nIssues:")
			w := newTabWriter()
			fmt.Fprintln(w, "  SEVERITY\tKIND\tITEM\tQTY\tDETAIL")
			for _, issue := range analysis.Issues {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
					issue.Severity, issue.Kind, issue.ItemID, issue.Quantity.String(), issue.Detail)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
		if len(analysis.Actions) > 0 {
			fmt.Println("\nSuggested actions:")
			for _, action := range analysis.Actions {
				fmt.Printf("  %d. [%s] %s\n", action.Priority, action.Kind, action.Detail)
			}
		}
		return nil
	})
}
