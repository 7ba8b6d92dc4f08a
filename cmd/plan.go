package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"flightplan-bridge/core/planning"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// planCmd groups planning diagnostics.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Inspect flight plans in the planning system",
}

var planShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print one plan as returned by the planning API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid plan id %q", args[0])
		}

		cfg, l, err := loadRuntime()
		if err != nil {
			return err
		}
		defer l.Sync()

		client, err := newPlanningClient(cfg, l)
		if err != nil {
			return err
		}
		ctx := context.Background()
		session, err := planning.NewSession(ctx, client, l)
		if err != nil {
			return err
		}
		row, err := session.GetPlan(ctx, id)
		if err != nil {
			return err
		}
		l.Info("Fetched plan", zap.Int64("plan_id", id), zap.String("status", row.Status()))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(row)
	},
}

func init() {
	planCmd.AddCommand(planShowCmd)
	RootCmd.AddCommand(planCmd)
}
