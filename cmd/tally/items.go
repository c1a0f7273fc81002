package main

import (
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tallyho/tally/internal/cli"
	"github.com/tallyho/tally/internal/shop"
)

func addCmd() *cobra.Command {
	var (
		price    string
		quantity int
		category string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, closeStore, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			unitPrice, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", price, err)
			}

			cat, err := resolveCategory(store, category)
			if err != nil {
				return err
			}

			item, err := store.AddItem(ctx, args[0], unitPrice, quantity, cat.ID)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added %s ×%d (%s) to %s",
				item.Name, item.Quantity, cli.FormatAmount(item.UnitPrice), cat.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&price, "price", "p", "0", "unit price")
	cmd.Flags().IntVarP(&quantity, "qty", "q", 1, "quantity")
	cmd.Flags().StringVarP(&category, "category", "c", "Other", "category name or id")

	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the cart grouped by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := initStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			renderCart(os.Stdout, store)
			return nil
		},
	}
}

// renderCart prints the cart grouped by category, with a totals footer.
func renderCart(w io.Writer, store *shop.Store) {
	cart := store.Cart()
	if len(cart) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("The cart is empty. Add items with 'tally add'."))
		return
	}

	fmt.Fprintln(w, cli.FormatTitle("Shopping List"))

	categories := store.Categories()

	printGroup := func(header string, match func(categoryID string) bool) {
		printed := false
		for _, item := range cart {
			if !match(item.CategoryID) {
				continue
			}
			if !printed {
				fmt.Fprintln(w, cli.HeaderStyle.Render(header))
				printed = true
			}

			checkbox := "[ ]"
			name := item.Name
			if item.Completed {
				checkbox = "[" + cli.SuccessIcon + "]"
				name = cli.CompletedStyle.Render(name)
			}
			fmt.Fprintf(w, "  %s %-26s %2d × %8s  %9s  %s\n",
				checkbox, name, item.Quantity,
				cli.FormatAmount(item.UnitPrice), cli.FormatAmount(item.LineTotal()),
				cli.SubtleStyle.Render(item.ID[:8]))
		}
	}

	for _, cat := range categories {
		printGroup(cat.Name, func(id string) bool { return id == cat.ID })
	}

	// Items whose category has disappeared are still part of the cart.
	printGroup("Uncategorized", func(id string) bool {
		for _, cat := range categories {
			if cat.ID == id {
				return false
			}
		}
		return true
	})

	subtotal, taxLines, grand := store.CartTotals()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-40s %11s\n", "Subtotal", cli.FormatAmount(subtotal))
	for _, line := range taxLines {
		fmt.Fprintf(w, "%-40s %11s\n",
			cli.SubtleStyle.Render("Tax: "+line.CategoryName), cli.FormatAmount(line.Amount))
	}
	fmt.Fprintf(w, "%-40s %11s\n",
		cli.BoldStyle.Render("Total"), cli.BoldStyle.Render(cli.FormatAmount(grand)))
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <item-id>",
		Short: "Toggle an item's completed mark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, closeStore, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			itemID, err := expandItemID(store, args[0])
			if err != nil {
				return err
			}

			if err := store.ToggleItem(ctx, itemID); err != nil {
				return err
			}
			renderCart(os.Stdout, store)
			return nil
		},
	}
}

func rmCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "rm <item-id>...",
		Short: "Remove items from the cart",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, closeStore, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			ids := make([]string, 0, len(args))
			for _, arg := range args {
				id, err := expandItemID(store, arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			cat, err := resolveCategory(store, category)
			if err != nil {
				return err
			}

			if err := store.DeleteItems(ctx, ids, cat.ID); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Removed %d item(s) from %s", len(ids), cat.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category the items belong to (required)")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

// expandItemID accepts a full item id or an unambiguous prefix, as
// printed by 'tally list'.
func expandItemID(store *shop.Store, ref string) (string, error) {
	var match string
	for _, item := range store.Cart() {
		if item.ID == ref {
			return item.ID, nil
		}
		if len(ref) >= 4 && len(item.ID) >= len(ref) && item.ID[:len(ref)] == ref {
			if match != "" {
				return "", fmt.Errorf("item id prefix %q is ambiguous", ref)
			}
			match = item.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no cart item matches %q", ref)
	}
	return match, nil
}
