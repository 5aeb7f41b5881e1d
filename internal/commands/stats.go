package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	var configPath string
	var account string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show transaction counts by reconciliation state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := parseAccount(account)
			if err != nil {
				return err
			}

			svc, err := buildService(configPath, 0)
			if err != nil {
				return err
			}

			stats, err := svc.Stats(cmd.Context(), accountID)
			if err != nil {
				return err
			}

			green.Printf("matched:           %d\n", stats.Matched)
			yellow.Printf("partially matched: %d\n", stats.PartiallyMatched)
			red.Printf("unmatched:         %d\n", stats.Unmatched)
			fmt.Printf("ignored:           %d\n", stats.Ignored)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&account, "account", "", "restrict the counts to one account")

	return cmd
}
