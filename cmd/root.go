package cmd

import (
	"fmt"
	"os"

	"flightplan-bridge/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "flightplan-bridge",
	Short: "Roster to flight planning bridge",
	Long: `Flight Plan Bridge keeps the flight planning system in step with the crew
roster. Each sync pass creates, updates and deletes flight plans so that every
rostered flight in the window has exactly one matching plan.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with the development config gives readable CLI errors
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
