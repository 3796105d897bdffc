// Package ingest defines the request payload — the handoff artifact between
// an external caller (CLI, inbox watcher, MCP tool) and the pipeline. A
// payload that does not parse never becomes a case record; that failure
// belongs to the caller, not the workflow.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/riskgate/riskgate/internal/model"
)

// Payload is the external request schema.
type Payload struct {
	Intent           string         `json:"intent"`
	CustomerID       string         `json:"customer_id"`
	Notes            string         `json:"notes"`
	CustomerFeatures model.Features `json:"customer_features"`
}

// Parse decodes a JSON payload. Unparsable input is a hard error surfaced
// to the caller before any record exists.
func Parse(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("ingest: malformed payload: %w", err)
	}
	p.Normalize()
	return &p, nil
}

// ReadFile loads and parses a payload from disk.
func ReadFile(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: read payload: %w", err)
	}
	return Parse(data)
}

// Normalize trims and lower-cases the fields the intake stage compares.
func (p *Payload) Normalize() {
	p.Intent = strings.ToLower(strings.TrimSpace(p.Intent))
	p.CustomerID = strings.TrimSpace(p.CustomerID)
}

// WriteResult atomically writes a completed-run result to dir/{run_id}.json.
func WriteResult(dir, runID string, v any) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("ingest: create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("ingest: marshal result: %w", err)
	}

	dst := filepath.Join(dir, runID+".json")
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("ingest: write temp file: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("ingest: rename to final: %w", err)
	}
	return nil
}
