package cmd

import (
	"fmt"
	"os"

	"food-order-bot/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "foodbot",
	Short: "Conversational food ordering bot",
	Long: `foodbot takes customers from "hi" to a confirmed order through a chat
conversation: browsing the menu, customizing items, upsells, delivery or
pickup, and payment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		config.SetupLogger(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./foodbot.yaml)")
	rootCmd.PersistentFlags().String("db-path", "food_order_bot.db", "SQLite database file")
	rootCmd.PersistentFlags().String("log-level", "info", "trace, debug, info, warn or error")
	viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db-path"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
