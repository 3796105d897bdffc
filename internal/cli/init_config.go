package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/riskgate/riskgate/internal/config"
)

func init() {
	rootCmd.AddCommand(initConfigCmd)
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Generate default config.yaml with comments",
	Long: "Creates ~/.riskgate/config.yaml with the default scoring model, call ceilings,\n" +
		"and moderation settings. Edit this file to recalibrate the workflow.",
	RunE: runInitConfig,
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	dir, err := stateDir()
	if err != nil {
		return err
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config.yaml already exists at %s", path)
	}

	if err := os.WriteFile(path, []byte(config.DefaultConfigYAML()), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}
