package cmd

import (
	"fmt"

	"food-order-bot/models"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample menu and optionally fund crypto wallets",
	Example: `  foodbot seed
  foodbot seed --wallet alice=5000 --wallet bob=1200`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wallets, err := cmd.Flags().GetStringToInt64("wallet")
		if err != nil {
			return err
		}

		st, ledger, closeStore, err := openStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := seedMenu(ctx, st); err != nil {
			return err
		}
		log.Info().Msg("sample menu loaded")

		for user, cents := range wallets {
			if err := ledger.Credit(ctx, user, models.Money(cents)); err != nil {
				return fmt.Errorf("fund wallet of %s: %w", user, err)
			}
			balance, err := ledger.Balance(ctx, user)
			if err != nil {
				return err
			}
			log.Info().Str("user_id", user).Str("balance", balance.String()).Msg("wallet funded")
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringToInt64("wallet", nil, "credit a user's wallet in cents, as user=cents")
	rootCmd.AddCommand(seedCmd)
}
