package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "printforge",
		Short: "PrintForge - planning and fulfillment core for 3D print farms",
		Long: `PrintForge tracks items, stock, bills of material and orders for a
3D print farm, plans material requirements, and ships what is ready.

Examples:
  printforge item create --name "Widget" --kind finished_good --unit pcs
  printforge item material --type PLA --color BLK --cost 0.02 --initial 2000
  printforge inventory post --item ITEM-ID --qty 500 --kind receipt
  printforge sales create --customer CUST-1 --line ITEM-ID:10:24.99
  printforge mrp run
  printforge production release PO-000001
  printforge ship SO-000001`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: ./config.yaml, env PF_*)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	// Add command groups
	rootCmd.AddCommand(NewItemCommand())
	rootCmd.AddCommand(NewInventoryCommand())
	rootCmd.AddCommand(NewBOMCommand())
	rootCmd.AddCommand(NewWorkCenterCommand())
	rootCmd.AddCommand(NewSalesCommand())
	rootCmd.AddCommand(NewProductionCommand())
	rootCmd.AddCommand(NewPurchaseCommand())
	rootCmd.AddCommand(NewMRPCommand())
	rootCmd.AddCommand(NewShipCommand())
	rootCmd.AddCommand(NewAnalyzeCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
