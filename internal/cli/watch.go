package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskgate/riskgate/internal/audit"
	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/inbox"
	"github.com/riskgate/riskgate/internal/pipeline"
)

var (
	watchRoot         string
	watchConfigPath   string
	watchAuditLog     string
	watchAuditDB      string
	watchPoll         bool
	watchPollInterval time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchRoot, "dir", "", "Drop directory root (default ~/.riskgate/drop)")
	watchCmd.Flags().StringVar(&watchConfigPath, "config", "", "Config file path (default ~/.riskgate/config.yaml)")
	watchCmd.Flags().StringVar(&watchAuditLog, "audit-log", "", "Audit log path (default ~/.riskgate/audit.jsonl)")
	watchCmd.Flags().StringVar(&watchAuditDB, "audit-db", "", "Run index path (default ~/.riskgate/runs.db)")
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "Poll instead of using fsnotify (for NFS etc.)")
	watchCmd.Flags().DurationVar(&watchPollInterval, "poll-interval", 5*time.Second, "Polling interval with --poll")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a drop directory and process payloads as they arrive",
	Long: "Watches <dir>/inbox for payload files. Each file runs through the pipeline with\n" +
		"auto-approve at the review gate; results land in <dir>/outbox, processed payloads\n" +
		"in <dir>/archive, unparsable ones in <dir>/failed. Runs never interleave.",
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := watchRoot
	if root == "" {
		dir, err := stateDir()
		if err != nil {
			return err
		}
		root = filepath.Join(dir, "drop")
	}

	cfg, hash, err := config.Load(watchConfigPath)
	if err != nil {
		return err
	}
	logPath, err := statePath(watchAuditLog, "audit.jsonl")
	if err != nil {
		return err
	}
	dbPath, err := statePath(watchAuditDB, "runs.db")
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

	dirs := inbox.DefaultDirs(root)
	processor := &inbox.Processor{
		Runner: pipeline.NewRunner(cfg, hash),
		Log:    auditLog,
		Store:  store,
		Dirs:   dirs,
	}

	daemon, err := inbox.NewDaemon(inbox.DaemonConfig{
		Dirs:         dirs,
		PollMode:     watchPoll,
		PollInterval: watchPollInterval,
	}, processor)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down watcher...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "riskgate watching %s\n", dirs.Inbox)
	return daemon.Run(ctx)
}
