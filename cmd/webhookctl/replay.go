package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AllanBUSI/Fairpay-sub000/internal/app"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
)

func replayCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Dispatch failed and stalled webhook events again",
		Long: `Replay loads webhook events from the database ledger that failed, were
never completed, or have been processing for too long, and pushes them
through the same router as live deliveries. Only the database ledger keeps
payloads, so the command refuses to run with another ledger backend.

Examples:
  webhookctl replay
  webhookctl replay --limit 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			application, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer application.Close()

			ledger, ok := application.Replayable()
			if !ok {
				return fmt.Errorf("ledger backend %q keeps no payloads to replay", cfg.Ledger.Backend)
			}

			report, err := usecase.NewWebhookReplayer(ledger, application.Router, log.Named("replay")).Replay(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if report.Failed > 0 {
				return fmt.Errorf("%d events failed again", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum number of events to replay")
	return cmd
}
