package cmd

import (
	"fmt"
	"os"

	"wedding-booking/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	config *utils.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "wedding-booking",
	Short:         "Multi-tenant wedding booking backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = utils.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, err = utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to init logger: %v. Using production logger.\n", err)
			logger, _ = zap.NewProduction()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tenantCmd, addonCmd, adminCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
