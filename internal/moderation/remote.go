package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// Config selects the remote verdict backend. An empty APIURL disables the
// remote classifier entirely and the guard runs on the heuristic alone.
type Config struct {
	APIURL         string `yaml:"api_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

const defaultTimeout = 10 * time.Second

// Remote calls an OpenAI-compatible moderation endpoint for a verdict.
type Remote struct {
	cfg    Config
	client *http.Client
}

// NewRemote builds a remote classifier from config. Returns nil when no
// endpoint is configured, which callers treat as "heuristic only".
func NewRemote(cfg Config) *Remote {
	if cfg.APIURL == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Remote{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type moderationRequest struct {
	Input string `json:"input"`
	Model string `json:"model,omitempty"`
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

// Classify posts the text to the moderation endpoint. Any transport,
// status, or decode failure is returned as an error so Screen can degrade
// to the heuristic.
func (r *Remote) Classify(ctx context.Context, text string) (Verdict, error) {
	body, err := json.Marshal(moderationRequest{Input: text, Model: r.cfg.Model})
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Verdict{}, fmt.Errorf("moderation: endpoint returned %d: %s", resp.StatusCode, raw)
	}

	var mr moderationResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return Verdict{}, fmt.Errorf("moderation: decode response: %w", err)
	}
	if len(mr.Results) == 0 {
		return Verdict{}, fmt.Errorf("moderation: empty results")
	}

	res := mr.Results[0]
	if !res.Flagged {
		return Verdict{Passed: true, Reason: "passed remote moderation"}, nil
	}

	var triggered []string
	for cat, hit := range res.Categories {
		if hit {
			triggered = append(triggered, cat)
		}
	}
	sort.Strings(triggered)
	return Verdict{
		Passed: false,
		Reason: fmt.Sprintf("remote moderation flagged: %v", triggered),
	}, nil
}
