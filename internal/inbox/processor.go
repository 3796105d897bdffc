package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/riskgate/riskgate/internal/audit"
	"github.com/riskgate/riskgate/internal/ingest"
	"github.com/riskgate/riskgate/internal/pipeline"
)

// Processor runs one inbox payload through the pipeline and files the
// outcome: result to the outbox, audit entry to the chain and the store,
// original payload to archive (or failed when it never parsed).
type Processor struct {
	Runner *pipeline.Runner
	Log    *audit.Log
	Store  *audit.Store // optional
	Dirs   DirConfig
}

// Process handles a single payload file. Parse failures are terminal for
// the file, not for the processor: the payload moves to failed/ and the
// watcher keeps running.
func (p *Processor) Process(ctx context.Context, path string) error {
	payload, err := ingest.ReadFile(path)
	if err != nil {
		p.moveTo(path, p.Dirs.Failed)
		return fmt.Errorf("inbox: %s: %w", filepath.Base(path), err)
	}

	rec, err := p.Runner.Run(ctx, payload)
	if err != nil {
		p.moveTo(path, p.Dirs.Failed)
		return fmt.Errorf("inbox: %s: %w", filepath.Base(path), err)
	}

	if err := p.Log.RecordRun(rec); err != nil {
		return fmt.Errorf("inbox: audit %s: %w", rec.RunID, err)
	}
	if p.Store != nil {
		if err := p.Store.Save(audit.BuildEntry(rec)); err != nil {
			return fmt.Errorf("inbox: store %s: %w", rec.RunID, err)
		}
	}

	if err := ingest.WriteResult(p.Dirs.Outbox, rec.RunID, rec); err != nil {
		return fmt.Errorf("inbox: result %s: %w", rec.RunID, err)
	}

	p.moveTo(path, p.Dirs.Archive)
	return nil
}

// moveTo relocates a payload file, best effort. A payload stuck in the
// inbox is rescanned on restart, which is safe: each scan produces a new
// run with its own ID.
func (p *Processor) moveTo(path, dir string) {
	if dir == "" {
		return
	}
	dst := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		_ = os.Remove(path)
	}
}
