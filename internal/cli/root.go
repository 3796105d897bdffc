package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "riskgate",
	Short: "Governed compliance-request workflow with a tamper-evident audit trail",
	Long: "Runs compliance requests (rescore, suppress_flag, explain_score) through a fixed\n" +
		"pipeline: intake, identity masking, content screening, risk scoring, deterministic\n" +
		"routing, and a human review gate for escalations. Every run lands in a hash-chained\n" +
		"audit log.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// stateDir returns ~/.riskgate, creating it on demand.
func stateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".riskgate")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("cannot create state directory: %w", err)
	}
	return dir, nil
}

// statePath resolves a flag value, defaulting to name under ~/.riskgate.
func statePath(flagValue, name string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
