// Package inbox is the file-drop intake surface: a watcher picks up
// payload files from an inbox directory, runs each through the pipeline,
// and files the results. Runs are strictly sequential — the audit chain
// and review gate do not interleave.
package inbox

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirConfig holds the inbox directory layout.
type DirConfig struct {
	Inbox   string // incoming payload files
	Outbox  string // completed run results
	Archive string // processed payloads, kept for reprocessing
	Failed  string // payloads that could not be parsed
}

// DefaultDirs lays the standard structure out under root.
func DefaultDirs(root string) DirConfig {
	return DirConfig{
		Inbox:   filepath.Join(root, "inbox"),
		Outbox:  filepath.Join(root, "outbox"),
		Archive: filepath.Join(root, "archive"),
		Failed:  filepath.Join(root, "failed"),
	}
}

// EnsureDirs creates the directory structure.
func EnsureDirs(d DirConfig) error {
	for _, dir := range []string{d.Inbox, d.Outbox, d.Archive, d.Failed} {
		if dir == "" {
			return fmt.Errorf("inbox: directory layout incomplete")
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("inbox: create %s: %w", dir, err)
		}
	}
	return nil
}
