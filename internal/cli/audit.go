package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riskgate/riskgate/internal/audit"
	"github.com/riskgate/riskgate/internal/model"
)

var (
	replayRunID  string
	replayStatus string
	replayJSON   bool
	listStatus   string
	listLimit    int
	listDB       string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditReplayCmd)
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditShowCmd)

	auditReplayCmd.Flags().StringVar(&replayRunID, "run", "", "Filter to a single run ID")
	auditReplayCmd.Flags().StringVar(&replayStatus, "status", "", "Filter by terminal status (READY/NEED_INFO/ESCALATE)")
	auditReplayCmd.Flags().BoolVar(&replayJSON, "json", false, "Emit JSON instead of a timeline")

	auditListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by terminal status")
	auditListCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum runs to show")
	auditListCmd.Flags().StringVar(&listDB, "db", "", "Run index path (default ~/.riskgate/runs.db)")
	auditShowCmd.Flags().StringVar(&listDB, "db", "", "Run index path (default ~/.riskgate/runs.db)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail operations",
	Long:  "Commands for verifying and inspecting the hash-chained audit trail.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify hash chain integrity of an audit log",
	Long: "Walks the JSONL audit log and validates that every entry's prev_hash matches\n" +
		"the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.",
	Args: cobra.MaximumNArgs(1),
	RunE: runAuditVerify,
}

var auditReplayCmd = &cobra.Command{
	Use:   "replay [path]",
	Short: "Replay the audit trail as a timeline",
	Long:  "Reads the JSONL audit log and renders matching runs with disposition counts.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditReplay,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs from the run index",
	RunE:  runAuditList,
}

var auditShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run's full audit entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditShow,
}

func auditLogArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return statePath("", "audit.jsonl")
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path, err := auditLogArg(args)
	if err != nil {
		return err
	}

	result := audit.Verify(path)
	if result.Valid {
		fmt.Printf("OK: %d entries verified\n", result.Lines)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	os.Exit(1)
	return nil
}

func runAuditReplay(cmd *cobra.Command, args []string) error {
	path, err := auditLogArg(args)
	if err != nil {
		return err
	}

	result, err := audit.Replay(path, audit.ReplayFilter{
		RunID:  replayRunID,
		Status: model.Status(replayStatus),
	})
	if err != nil {
		return err
	}

	if replayJSON {
		out, err := audit.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	fmt.Print(audit.FormatTimeline(result))
	return nil
}

func openStoreFlag() (*audit.Store, error) {
	dbPath, err := statePath(listDB, "runs.db")
	if err != nil {
		return nil, err
	}
	return audit.OpenStore(dbPath)
}

func runAuditList(cmd *cobra.Command, args []string) error {
	store, err := openStoreFlag()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(model.Status(listStatus), listLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-10s %-20s %-15s %-10s %6s  %s\n", "RUN", "TIMESTAMP", "INTENT", "STATUS", "SCORE", "ROUTE")
	for _, e := range entries {
		score := "--"
		if e.RiskScore != nil {
			score = fmt.Sprintf("%.1f", *e.RiskScore)
		}
		fmt.Printf("%-10s %-20s %-15s %-10s %6s  %s\n",
			e.RunID, e.Timestamp, e.Intent, e.TerminalStatus, score, e.RouteTaken)
	}
	return nil
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	store, err := openStoreFlag()
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
