package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tallyho/tally/internal/cli"
	"github.com/tallyho/tally/internal/shop"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage item categories and their tax rates",
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := initStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			renderCategories(os.Stdout, store)
			return nil
		},
	}
}

// renderCategories prints the category table in presentation order.
func renderCategories(out io.Writer, store *shop.Store) {
	categories := store.Categories()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		cli.HeaderStyle.Render("ID"),
		cli.HeaderStyle.Render("Name"),
		cli.HeaderStyle.Render("Tax %"),
		cli.HeaderStyle.Render("Color"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 8),
		strings.Repeat("-", 16),
		strings.Repeat("-", 6),
		strings.Repeat("-", 8))

	for _, cat := range categories {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			cat.ID[:8], cat.Name, cat.TaxRatePercent.String(), cat.ColorTag)
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		rate  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, closeStore, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			taxRate, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("invalid tax rate %q: %w", rate, err)
			}

			cat, err := store.AddCategory(ctx, args[0], taxRate, color)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added category %s (%s%% tax)",
				cat.Name, cat.TaxRatePercent.String())))
			return nil
		},
	}

	cmd.Flags().StringVarP(&rate, "rate", "r", "0", "tax rate percent")
	cmd.Flags().StringVar(&color, "color", "gray", "color tag")

	return cmd
}
