package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func sweepCmd(configPath *string) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one abandoned cart sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.scheduler.Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("scheduler.Sweep: %w", err)
			}

			if purge {
				purged, err := a.scheduler.Purge(cmd.Context())
				if err != nil {
					return fmt.Errorf("scheduler.Purge: %w", err)
				}
				a.logger.Info("abandoned entries purged", zap.Int64("purged", purged))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "also purge abandoned entries past retention")

	return cmd
}
