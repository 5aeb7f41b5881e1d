package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bank-reconciliation-engine/internal/services/reconciliation"
)

func newRunCommand() *cobra.Command {
	var configPath string
	var account string
	var workers int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a reconciliation pass over unmatched transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := parseAccount(account)
			if err != nil {
				return err
			}

			svc, err := buildService(configPath, workers)
			if err != nil {
				return err
			}

			report, err := svc.ReconcileBatch(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&account, "account", "", "restrict the pass to one account")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent workers (default from config)")

	return cmd
}

func printReport(report reconciliation.Report) {
	fmt.Printf("Processed %d transactions\n", report.TotalTransactions)
	green.Printf("  matched:   %d\n", report.MatchedCount)
	yellow.Printf("  unmatched: %d\n", report.UnmatchedCount)
	if report.ErrorCount > 0 {
		red.Printf("  errors:    %d\n", report.ErrorCount)
	}
	if report.MatchedCount > 0 {
		fmt.Printf("  average confidence: %.2f\n", report.AverageConfidence)
	}
	if report.RunID != uuid.Nil {
		fmt.Printf("  run: %s\n", report.RunID)
	}
}
