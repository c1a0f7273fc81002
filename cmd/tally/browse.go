package main

import (
	"github.com/spf13/cobra"

	"github.com/tallyho/tally/internal/tui"
)

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Work through the cart interactively",
		Long: `Open the cart in an interactive view: move with the arrow keys,
toggle items off as they land in the basket, delete rows, and press f
to check the whole list out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := initStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			return tui.Run(store)
		},
	}
}
