// Package commands wires the reconciliation engine into a CLI for operators
// who want to run passes or inspect state without going through the HTTP
// server.
package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"bank-reconciliation-engine/internal/config"
	"bank-reconciliation-engine/internal/repository"
	"bank-reconciliation-engine/internal/services/matching"
	"bank-reconciliation-engine/internal/services/reconciliation"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match imported bank transactions against expected payments",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newStatsCommand())

	return rootCmd
}

// buildService assembles the engine against the configured database. A
// positive workers value overrides the config.
func buildService(configPath string, workers int) (*reconciliation.Service, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	engine, err := matching.NewEngine(cfg.Matching)
	if err != nil {
		return nil, err
	}

	db := config.InitDB()
	svc := reconciliation.NewService(
		repository.NewBankTransactionRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewAllocationRepository(db),
		engine,
		reconciliation.WithRunStore(repository.NewRunRepository(db)),
		reconciliation.WithWorkers(cfg.Workers),
	)
	return svc, nil
}

func parseAccount(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing account ID: %w", err)
	}
	return id, nil
}
