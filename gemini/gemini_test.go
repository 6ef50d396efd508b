package gemini

import (
	"strings"
	"testing"

	"github.com/tsawler/towerlens/model"
	"github.com/tsawler/towerlens/verify"
)

func TestParseFinding_Structured(t *testing.T) {
	f, err := parseFinding(`{
		"score": 0.85,
		"summary": "extraction looks consistent",
		"issues": ["Zurich share unconfirmed"],
		"suggestions": ["re-check row 4"]
	}`)
	if err != nil {
		t.Fatalf("parseFinding: %v", err)
	}
	if f.Score != 0.85 {
		t.Errorf("score = %v, want 0.85", f.Score)
	}
	if f.ParsingMethod != "structured" {
		t.Errorf("method = %q, want structured", f.ParsingMethod)
	}
	if len(f.Issues) != 1 || len(f.Suggestions) != 1 {
		t.Errorf("issues/suggestions = %v / %v", f.Issues, f.Suggestions)
	}
}

func TestParseFinding_MarkdownFence(t *testing.T) {
	f, err := parseFinding("```json\n{\"score\": 0.7, \"summary\": \"ok\"}\n```")
	if err != nil {
		t.Fatalf("parseFinding: %v", err)
	}
	if f.Score != 0.7 || f.Summary != "ok" {
		t.Errorf("finding = %+v", f)
	}
	if f.ParsingMethod != "fallback" {
		t.Errorf("method = %q, want fallback", f.ParsingMethod)
	}
}

func TestParseFinding_SurroundingProse(t *testing.T) {
	f, err := parseFinding(`Here is my assessment:

{"score": 0.4, "summary": "two entries misattributed", "issues": ["a", "b"]}

Let me know if you need more detail.`)
	if err != nil {
		t.Fatalf("parseFinding: %v", err)
	}
	if f.ParsingMethod != "fallback" {
		t.Errorf("method = %q, want fallback", f.ParsingMethod)
	}
	if len(f.Issues) != 2 {
		t.Errorf("issues = %v, want 2", f.Issues)
	}
}

func TestParseFinding_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace", "  \n  "},
		{"no object", "the sheet looks fine"},
		{"score too high", `{"score": 1.5, "summary": "x"}`},
		{"score negative", `{"score": -0.1, "summary": "x"}`},
		{"broken braces", "{ this is not json }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFinding(tt.in); err == nil {
				t.Errorf("parseFinding(%q) succeeded, want error", tt.in)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	req := verify.Request{
		GridText: "1\tLayer\tCarrier\n2\t$50M\tChubb",
		Entries: []model.CarrierEntry{{
			Carrier:    "Chubb",
			LayerLimit: "$50M",
			Premium:    model.Float(240000),
			Ref:        "B2",
			RowSpan:    1,
			ColSpan:    1,
		}},
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}
	for _, want := range []string{"Chubb", "$50M", "240000", req.GridText, `"score"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL_ID", "gemini-2.5-pro")

	cfg := FromEnv()
	if cfg.APIKey != "test-key" || cfg.Model != "gemini-2.5-pro" {
		t.Errorf("FromEnv = %+v", cfg)
	}
}

func TestNewChecker_RequiresKey(t *testing.T) {
	if _, err := NewChecker(t.Context(), Config{}); err == nil {
		t.Error("NewChecker without key succeeded, want error")
	}
}
