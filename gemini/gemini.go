// Package gemini implements a semantic checker backed by the Gemini API.
// It renders the sheet and the extracted entries into a prompt, asks the
// model to cross-read them, and decodes the verdict into a verify.Finding.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/tsawler/towerlens/model"
	"github.com/tsawler/towerlens/verify"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Config holds the Gemini connection settings.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string
	// Model is the model identifier. Empty means DefaultModel.
	Model string
}

// FromEnv reads the configuration from GEMINI_API_KEY and GEMINI_MODEL_ID.
func FromEnv() Config {
	return Config{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  os.Getenv("GEMINI_MODEL_ID"),
	}
}

// Checker is a verify.SemanticChecker that calls Gemini.
type Checker struct {
	client *genai.Client
	model  string
}

// NewChecker creates a Checker from the config. The client is built once
// and reused across Check calls.
func NewChecker(ctx context.Context, cfg Config) (*Checker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	m := cfg.Model
	if m == "" {
		m = DefaultModel
	}
	return &Checker{client: client, model: m}, nil
}

// Check sends the sheet text and the extraction to the model and decodes
// its verdict. Transport and decode failures are returned as errors; the
// caller treats them as a signal to fall back to local verification.
func (c *Checker) Check(ctx context.Context, req verify.Request) (*verify.Finding, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: building prompt: %w", err)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0),
			ResponseMIMEType: "application/json",
		})
	if err != nil {
		return nil, fmt.Errorf("gemini: generating content: %w", err)
	}

	finding, err := parseFinding(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("gemini: parsing response: %w", err)
	}
	return finding, nil
}

// buildPrompt renders the verification request as a single text prompt.
func buildPrompt(req verify.Request) (string, error) {
	extracted, err := json.MarshalIndent(FlattenEntries(req.Entries), "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are reviewing data extracted from an insurance tower schematic spreadsheet.\n")
	b.WriteString("Compare the extracted carrier participations against the original sheet and report\n")
	b.WriteString("misattributed values, wrong layers, missing carriers, and implausible numbers.\n\n")
	b.WriteString("Original sheet (row-numbered, tab-separated):\n")
	b.WriteString(req.GridText)
	b.WriteString("\n\nExtracted entries:\n")
	b.Write(extracted)
	b.WriteString("\n\nRespond with a single JSON object, no prose:\n")
	b.WriteString(`{"score": <0.0-1.0>, "summary": "<one sentence>", "issues": ["..."], "suggestions": ["..."]}`)
	b.WriteString("\n")
	return b.String(), nil
}

// findingJSON is the wire form of the model's verdict.
type findingJSON struct {
	Score       float64  `json:"score"`
	Summary     string   `json:"summary"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// parseFinding decodes the model's reply. A reply that is exactly the
// requested JSON object decodes as "structured"; a reply wrapped in
// markdown fences or surrounding prose is salvaged as "fallback".
func parseFinding(text string) (*verify.Finding, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty response")
	}

	var fj findingJSON
	if err := json.Unmarshal([]byte(trimmed), &fj); err == nil {
		return toFinding(fj, "structured")
	}

	salvaged, ok := extractObject(trimmed)
	if !ok {
		return nil, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(salvaged), &fj); err != nil {
		return nil, fmt.Errorf("decoding salvaged object: %w", err)
	}
	return toFinding(fj, "fallback")
}

func toFinding(fj findingJSON, method string) (*verify.Finding, error) {
	if fj.Score < 0 || fj.Score > 1 {
		return nil, fmt.Errorf("score %v out of range", fj.Score)
	}
	return &verify.Finding{
		Score:         fj.Score,
		Summary:       fj.Summary,
		Issues:        fj.Issues,
		Suggestions:   fj.Suggestions,
		ParsingMethod: method,
	}, nil
}

// extractObject pulls the outermost {...} span out of a reply that wraps
// the object in markdown fences or explanatory text.
func extractObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

var _ verify.SemanticChecker = (*Checker)(nil)

// Model helper kept close to the checker so callers can log which model
// reviewed an extraction.
func (c *Checker) Model() string { return c.model }

// FlattenEntries is exposed for callers that want to inspect the exact
// payload a Check call would send.
func FlattenEntries(entries []model.CarrierEntry) []map[string]any {
	flat := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		flat = append(flat, e.Flatten())
	}
	return flat
}
