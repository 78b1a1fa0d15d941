package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	itemapp "github.com/printforge/printforge/internal/application/item"
	"github.com/printforge/printforge/internal/domain/item"
	"github.com/printforge/printforge/internal/domain/uom"
)

// NewItemCommand creates the item command with subcommands
func NewItemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Item master operations",
		Long: `Create and inspect items: finished goods, components, supplies and
services. Print materials get their own shortcut that derives the SKU from
the material type and color.

Examples:
  printforge item create --name "Benchy" --kind finished_good --unit pcs --procurement make
  printforge item material --type PLA --color BLK --cost 0.025 --initial 2000
  printforge item list --kind component --low-stock
  printforge item get MAT-PLA-BLK`,
	}

	cmd.AddCommand(newItemCreateCommand())
	cmd.AddCommand(newItemMaterialCommand())
	cmd.AddCommand(newItemListCommand())
	cmd.AddCommand(newItemGetCommand())
	cmd.AddCommand(newItemDeactivateCommand())

	return cmd
}

func newItemCreateCommand() *cobra.Command {
	var (
		sku          string
		name         string
		kind         string
		procurement  string
		unit         string
		cost         string
		reorderPoint string
		safetyStock  string
		leadTimeDays int
		lotTracked   bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemCreate(sku, name, kind, procurement, unit, cost, reorderPoint, safetyStock, leadTimeDays, lotTracked)
		},
	}

	cmd.Flags().StringVar(&sku, "sku", "", "SKU (empty = auto-generated from kind prefix)")
	cmd.Flags().StringVar(&name, "name", "", "Item name (required)")
	cmd.Flags().StringVar(&kind, "kind", "component", "Kind: finished_good, component, supply, service")
	cmd.Flags().StringVar(&procurement, "procurement", "buy", "Procurement: make, buy, make_or_buy")
	cmd.Flags().StringVar(&unit, "unit", "pcs", "Stock-keeping unit")
	cmd.Flags().StringVar(&cost, "cost", "0", "Standard cost per stock unit")
	cmd.Flags().StringVar(&reorderPoint, "reorder-point", "0", "Reorder point in stock units")
	cmd.Flags().StringVar(&safetyStock, "safety-stock", "0", "Safety stock in stock units")
	cmd.Flags().IntVar(&leadTimeDays, "lead-time", 0, "Replenishment lead time in days")
	cmd.Flags().BoolVar(&lotTracked, "lot-tracked", false, "Track inventory by lot")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runItemCreate(sku, name, kind, procurement, unit, cost, reorderPoint, safetyStock string, leadTimeDays int, lotTracked bool) error {
	return withApp(func(ctx context.Context, a *app) error {
		standardCost, err := parseDecimal(cost, "cost")
		if err != nil {
			return err
		}
		rp, err := parseDecimal(reorderPoint, "reorder-point")
		if err != nil {
			return err
		}
		ss, err := parseDecimal(safetyStock, "safety-stock")
		if err != nil {
			return err
		}

		it, err := a.itemService.Create(ctx, itemapp.CreateParams{
			SKU:          sku,
			Name:         name,
			Kind:         item.Kind(kind),
			Procurement:  item.Procurement(procurement),
			StockUnit:    uom.Unit(unit),
			StandardCost: standardCost,
			ReorderPoint: rp,
			SafetyStock:  ss,
			LeadTimeDays: leadTimeDays,
			LotTracked:   lotTracked,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created item %s (%s)\n", it.SKU(), it.ID())
		return nil
	})
}

func newItemMaterialCommand() *cobra.Command {
	var (
		materialType string
		color        string
		name         string
		cost         string
		reorderPoint string
		safetyStock  string
		leadTimeDays int
		initial      string
	)

	cmd := &cobra.Command{
		Use:   "material",
		Short: "Create a print material from the material catalog",
		Long: `Create a buy component for a print material. The SKU is derived from
the material type and color (MAT-PLA-BLK), the stock unit is grams, and an
optional opening quantity posts a receipt at the default location in the
same transaction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemMaterial(materialType, color, name, cost, reorderPoint, safetyStock, leadTimeDays, initial)
		},
	}

	cmd.Flags().StringVar(&materialType, "type", "", "Material type code, e.g. PLA (required)")
	cmd.Flags().StringVar(&color, "color", "", "Color code, e.g. BLK (required)")
	cmd.Flags().StringVar(&name, "name", "", "Item name (empty = derived from type and color)")
	cmd.Flags().StringVar(&cost, "cost", "0", "Standard cost per gram")
	cmd.Flags().StringVar(&reorderPoint, "reorder-point", "0", "Reorder point in grams")
	cmd.Flags().StringVar(&safetyStock, "safety-stock", "0", "Safety stock in grams")
	cmd.Flags().IntVar(&leadTimeDays, "lead-time", 0, "Replenishment lead time in days")
	cmd.Flags().StringVar(&initial, "initial", "0", "Opening stock in grams, posted as a receipt")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("color")

	return cmd
}

func runItemMaterial(materialType, color, name, cost, reorderPoint, safetyStock string, leadTimeDays int, initial string) error {
	return withApp(func(ctx context.Context, a *app) error {
		standardCost, err := parseDecimal(cost, "cost")
		if err != nil {
			return err
		}
		rp, err := parseDecimal(reorderPoint, "reorder-point")
		if err != nil {
			return err
		}
		ss, err := parseDecimal(safetyStock, "safety-stock")
		if err != nil {
			return err
		}
		initialQty, err := parseDecimal(initial, "initial")
		if err != nil {
			return err
		}

		result, err := a.itemService.CreateMaterial(ctx, itemapp.CreateMaterialParams{
			MaterialTypeCode: materialType,
			ColorCode:        color,
			Name:             name,
			StandardCost:     standardCost,
			ReorderPoint:     rp,
			SafetyStock:      ss,
			LeadTimeDays:     leadTimeDays,
			InitialQuantity:  initialQty,
			CreatedBy:        "cli",
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created material %s (%s)\n", result.Item.SKU(), result.Item.ID())
		if result.OpeningReceipt != nil {
			fmt.Printf("Posted opening receipt of %s g (transaction %s)\n",
				result.OpeningReceipt.Quantity().String(), result.OpeningReceipt.ID())
		}
		return nil
	})
}

func newItemListCommand() *cobra.Command {
	var (
		kind     string
		all      bool
		lowStock bool
		search   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemList(kind, all, lowStock, search)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by kind")
	cmd.Flags().BoolVar(&all, "all", false, "Include deactivated items")
	cmd.Flags().BoolVar(&lowStock, "low-stock", false, "Only items below their reorder point")
	cmd.Flags().StringVar(&search, "search", "", "Match against SKU and name")

	return cmd
}

func runItemList(kind string, all, lowStock bool, search string) error {
	return withApp(func(ctx context.Context, a *app) error {
		filter := item.ListFilter{LowStock: lowStock, Search: search}
		if kind != "" {
			k := item.Kind(kind)
			filter.Kind = &k
		}
		if !all {
			active := true
			filter.Active = &active
		}

		items, err := a.itemService.List(ctx, filter)
		if err != nil {
			return err
		}

		w := newTabWriter()
		fmt.Fprintln(w, "SKU\tNAME\tKIND\tPROCUREMENT\tUNIT\tCOST\tREORDER\tACTIVE")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
				it.SKU(), it.Name(), it.Kind(), it.Procurement(), it.StockUnit(),
				it.StandardCost().String(), it.ReorderPoint().String(), it.Active())
		}
		return w.Flush()
	})
}

func newItemGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id-or-sku>",
		Short: "Show one item with its stock levels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemGet(args[0])
		},
	}
	return cmd
}

func runItemGet(ref string) error {
	return withApp(func(ctx context.Context, a *app) error {
		it, err := a.itemService.Get(ctx, ref)
		if err != nil {
			it, err = a.itemService.GetBySKU(ctx, ref)
			if err != nil {
				return err
			}
		}

		fmt.Printf("SKU:          %s\n", it.SKU())
		fmt.Printf("ID:           %s\n", it.ID())
		fmt.Printf("Name:         %s\n", it.Name())
		fmt.Printf("Kind:         %s\n", it.Kind())
		fmt.Printf("Procurement:  %s\n", it.Procurement())
		fmt.Printf("Stock unit:   %s\n", it.StockUnit())
		fmt.Printf("Std cost:     %s\n", it.StandardCost().String())
		fmt.Printf("Reorder at:   %s\n", it.ReorderPoint().String())
		fmt.Printf("Safety stock: %s\n", it.SafetyStock().String())
		fmt.Printf("Lead time:    %d days\n", it.LeadTimeDays())
		fmt.Printf("Active:       %t\n", it.Active())

		if !it.CarriesInventory() {
			return nil
		}
		level, err := a.ledger.StockLevelFor(ctx, it.ID())
		if err != nil {
			return err
		}
		fmt.Println()
		w := newTabWriter()
		fmt.Fprintln(w, "LOCATION\tON HAND\tRESERVED\tAVAILABLE")
		for _, b := range level.Balances {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				b.LocationID, b.OnHand.String(), b.Reserved.String(), b.Available().String())
		}
		return w.Flush()
	})
}

func newItemDeactivateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.itemService.Deactivate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("Deactivated item %s\n", args[0])
				return nil
			})
		},
	}
	return cmd
}
