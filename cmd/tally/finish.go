package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyho/tally/internal/cli"
	"github.com/tallyho/tally/internal/shop"
)

func finishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finish",
		Short: "Check out: move the cart into history and print the receipt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, closeStore, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			completed, err := store.FinishList(ctx)
			if errors.Is(err, shop.ErrEmptyCart) {
				return fmt.Errorf("the cart is empty; nothing to finish")
			}
			if err != nil {
				// The trip is in history in memory but the save failed;
				// show the receipt and surface the failure.
				fmt.Println(cli.Receipt(completed, store.Categories()))
				return fmt.Errorf("trip recorded but not saved: %w", err)
			}

			fmt.Println(cli.Receipt(completed, store.Categories()))
			return nil
		},
	}
}
