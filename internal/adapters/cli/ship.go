package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewShipCommand creates the ship command
func NewShipCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ship <sales-order-id-or-number>",
		Short: "Ship a ready sales order",
		Long: `Ship every unshipped line of a sales order in full. Finished goods and
shipping-stage materials (packaging) must cover every line; otherwise
nothing ships and the analyzer can explain why.

Examples:
  printforge ship SO-000001
  printforge analyze SO-000001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShip(args[0])
		},
	}
	return cmd
}

func runShip(ref string) error {
	return withApp(func(ctx context.Context, a *app) error {
		order, err := a.sales.Get(ctx, ref)
		if err != nil {
			return err
		}
		result, err := a.shipping.Ship(ctx, order.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Shipped %s: %d shipment rows, %d packaging rows\n",
			result.Order.Number, len(result.Shipments), len(result.Consumption))
		return nil
	})
}
