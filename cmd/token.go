package cmd

import (
	"fmt"
	"time"

	"food-order-bot/middleware"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a bearer token for the HTTP API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		r := middleware.Role(role)
		if r != middleware.RoleCustomer && r != middleware.RoleStaff {
			return fmt.Errorf("unknown role %q (want customer or staff)", role)
		}
		tok, err := middleware.GenerateToken([]byte(cfg.JWTSecret), args[0], r, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("role", string(middleware.RoleCustomer), "customer or staff")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
