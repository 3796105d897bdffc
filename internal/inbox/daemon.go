package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"
)

// DaemonConfig holds the watch-mode configuration.
type DaemonConfig struct {
	Dirs         DirConfig
	PollMode     bool
	PollInterval time.Duration
}

// Daemon ties the watcher to the processor and owns the single-instance
// lock.
type Daemon struct {
	cfg       DaemonConfig
	processor *Processor
}

// NewDaemon creates a daemon with validated configuration.
func NewDaemon(cfg DaemonConfig, processor *Processor) (*Daemon, error) {
	if cfg.Dirs.Inbox == "" || cfg.Dirs.Outbox == "" {
		return nil, fmt.Errorf("inbox: inbox and outbox directories are required")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = pollDefault
	}
	return &Daemon{cfg: cfg, processor: processor}, nil
}

// Run starts the daemon. Blocks until ctx is cancelled. On startup it
// processes payloads that arrived while the daemon was down.
func (d *Daemon) Run(ctx context.Context) error {
	if err := EnsureDirs(d.cfg.Dirs); err != nil {
		return err
	}

	pidPath := filepath.Join(filepath.Dir(d.cfg.Dirs.Inbox), "watch.pid")
	if err := acquirePIDLock(pidPath); err != nil {
		return fmt.Errorf("inbox: acquire PID lock: %w", err)
	}
	defer func() { _ = os.Remove(pidPath) }()

	handler := func(path string) {
		if err := d.processor.Process(ctx, path); err != nil {
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		}
	}

	if err := ScanExisting(d.cfg.Dirs.Inbox, handler); err != nil {
		return fmt.Errorf("inbox: scan existing: %w", err)
	}

	if d.cfg.PollMode {
		pw := NewPollWatcher(d.cfg.Dirs.Inbox, handler, d.cfg.PollInterval)
		return pw.Run(ctx)
	}

	w := NewWatcher(d.cfg.Dirs.Inbox, handler)
	return w.Run(ctx)
}

// acquirePIDLock writes the current PID and rejects a second live instance.
func acquirePIDLock(path string) error {
	if data, err := os.ReadFile(path); err == nil {
		pid, err := strconv.Atoi(string(data))
		if err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("another watcher is running (PID %d)", pid)
				}
			}
		}
		// Stale PID file — remove it.
		_ = os.Remove(path)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600)
}
