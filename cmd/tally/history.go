package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallyho/tally/internal/cli"
	"github.com/tallyho/tally/internal/model"
	"github.com/tallyho/tally/internal/shop"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse completed shopping trips",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := initStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			renderHistory(os.Stdout, store)
			return nil
		},
	}

	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyClearCmd())
	cmd.AddCommand(historyRmCmd())

	return cmd
}

// renderHistory prints one line per completed trip, most recent first.
func renderHistory(w io.Writer, store *shop.Store) {
	history := store.History()
	if len(history) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("No finished trips yet. Check out with 'tally finish'."))
		return
	}

	fmt.Fprintln(w, cli.TitleStyle.Render(cli.ReceiptIcon+" History"))
	for _, entry := range history {
		fmt.Fprintf(w, "%s  %s  %2d items  %10s  %s\n",
			cli.SubtleStyle.Render(entry.ID[:8]),
			entry.CompletedAt.Format("2006-01-02 15:04"),
			entry.ItemCount(),
			cli.BoldStyle.Render(cli.FormatAmount(entry.GrandTotal)),
			cli.SubtleStyle.Render("tax "+cli.FormatAmount(entry.TaxTotal)))
	}
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Print the full receipt for a past trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := initStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			entry, err := findHistoryEntry(store, args[0])
			if err != nil {
				return err
			}

			fmt.Println(cli.Receipt(entry, store.Categories()))
			return nil
		},
	}
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, closeStore, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			count := len(store.History())
			if err := store.ClearHistory(ctx); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Cleared %d history entries", count)))
			return nil
		},
	}
}

func historyRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <entry-id>...",
		Short: "Delete specific history entries",
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
				entry, err := findHistoryEntry(store, arg)
				if err != nil {
					return err
				}
				ids = append(ids, entry.ID)
			}

			if err := store.DeleteHistoryEntries(ctx, ids); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted %d history entries", len(ids))))
			return nil
		},
	}
}

// findHistoryEntry accepts a full entry id or an unambiguous prefix, as
// printed by 'tally history'.
func findHistoryEntry(store *shop.Store, ref string) (model.CompletedList, error) {
	var match model.CompletedList
	found := false
	for _, entry := range store.History() {
		if entry.ID == ref {
			return entry, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(entry.ID, ref) {
			if found {
				return model.CompletedList{}, fmt.Errorf("entry id prefix %q is ambiguous", ref)
			}
			match = entry
			found = true
		}
	}
	if !found {
		return model.CompletedList{}, fmt.Errorf("no history entry matches %q", ref)
	}
	return match, nil
}
