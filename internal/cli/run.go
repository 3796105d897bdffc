package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/riskgate/riskgate/internal/audit"
	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/ingest"
	"github.com/riskgate/riskgate/internal/pipeline"
	"github.com/riskgate/riskgate/internal/review"
)

var (
	runInput       string
	runConfigPath  string
	runAuditLog    string
	runAuditDB     string
	runInteractive bool
	runFormat      string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runInput, "input", "i", "-", "Payload file path, or - for stdin")
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Config file path (default ~/.riskgate/config.yaml)")
	runCmd.Flags().StringVar(&runAuditLog, "audit-log", "", "Audit log path (default ~/.riskgate/audit.jsonl)")
	runCmd.Flags().StringVar(&runAuditDB, "audit-db", "", "Run index path (default ~/.riskgate/runs.db)")
	runCmd.Flags().BoolVar(&runInteractive, "interactive", false, "Resolve escalations in the terminal instead of auto-approving")
	runCmd.Flags().StringVar(&runFormat, "format", "text", "Output format: text or json")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one compliance request",
	Long: "Reads a JSON payload, runs the full pipeline, records the audit trail, and\n" +
		"prints the result. The exit code carries the disposition: 0 READY, 2 NEED_INFO,\n" +
		"3 ESCALATE, 1 for a payload that never became a run.",
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if runInput == "" || runInput == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(runInput)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
	}

	payload, err := ingest.Parse(data)
	if err != nil {
		// A payload that does not parse never becomes a run.
		fmt.Fprintf(os.Stderr, "riskgate: %v\n", err)
		os.Exit(1)
	}

	cfg, hash, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}

	logPath, err := statePath(runAuditLog, "audit.jsonl")
	if err != nil {
		return err
	}
	dbPath, err := statePath(runAuditDB, "runs.db")
	if err != nil {
		return err
	}
	auditLog, err := audit.Open(logPath)
	if err != nil {
		return err
	}
	defer auditLog.Close()
	store, err := audit.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := pipeline.NewRunner(cfg, hash)
	if runInteractive {
		runner.Decider = review.Interactive{}
	}

	rec, err := runner.Run(context.Background(), payload)
	if err != nil {
		return err
	}

	if err := auditLog.RecordRun(rec); err != nil {
		return err
	}
	if err := store.Save(audit.BuildEntry(rec)); err != nil {
		return err
	}

	switch runFormat {
	case "json":
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Println(string(out))
	default:
		fmt.Print(pipeline.Render(rec))
	}

	os.Exit(rec.Status.ExitCode())
	return nil
}
