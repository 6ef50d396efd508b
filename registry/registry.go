// Package registry resolves carrier names against a read-only lexicon.
//
// The lexicon maps aliases to canonical market names ("XL Catlin" -> "AXA
// XL"), lists tokens that look like names but never denote a carrier, and
// the legal suffixes used by the carrier heuristics. A default lexicon is
// embedded; callers can load their own from YAML:
//
//	reg, err := registry.LoadFile("carriers.yml")
//
// A Registry is immutable after construction and safe for concurrent use.
package registry

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed carriers.yml
var defaultLexicon []byte

// lexiconYAML is the on-disk lexicon format.
type lexiconYAML struct {
	Version     int               `yaml:"version"`
	Carriers    []carrierYAML     `yaml:"carriers"`
	NonCarriers []string          `yaml:"non_carriers"`
	Suffixes    []string          `yaml:"suffixes"`
}

type carrierYAML struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Registry is a read-only carrier-name lexicon.
type Registry struct {
	byAlias     map[string]string // normalized alias -> canonical name
	names       []string          // normalized canonical names, for fuzzy pass
	nameFor     map[string]string // normalized canonical -> display form
	nonCarriers map[string]struct{}
	suffixes    []string
}

// Load builds a Registry from YAML lexicon data.
func Load(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}
	return parse(data)
}

// LoadFile builds a Registry from a YAML lexicon file.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the Registry built from the embedded lexicon.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := parse(defaultLexicon)
		if err != nil {
			// The embedded lexicon is validated by tests; a parse
			// failure here is a build defect.
			panic(fmt.Sprintf("registry: embedded lexicon: %v", err))
		}
		defaultReg = reg
	})
	return defaultReg
}

func parse(data []byte) (*Registry, error) {
	var lex lexiconYAML
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parsing lexicon: %w", err)
	}
	if len(lex.Carriers) == 0 {
		return nil, fmt.Errorf("lexicon has no carriers")
	}

	reg := &Registry{
		byAlias:     make(map[string]string),
		nameFor:     make(map[string]string),
		nonCarriers: make(map[string]struct{}),
		suffixes:    make([]string, 0, len(lex.Suffixes)),
	}

	for _, c := range lex.Carriers {
		if c.Name == "" {
			continue
		}
		key := Normalize(c.Name)
		reg.byAlias[key] = c.Name
		reg.names = append(reg.names, key)
		reg.nameFor[key] = c.Name
		for _, alias := range c.Aliases {
			reg.byAlias[Normalize(alias)] = c.Name
		}
	}
	for _, t := range lex.NonCarriers {
		reg.nonCarriers[Normalize(t)] = struct{}{}
	}
	for _, s := range lex.Suffixes {
		reg.suffixes = append(reg.suffixes, Normalize(s))
	}

	return reg, nil
}

// stripMarks removes combining marks left behind by NFKD decomposition, so
// "Münchener" and "Munchener" normalize identically.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a name for lookup: unicode-decomposed with
// diacritics stripped, lowercased, punctuation dropped, whitespace collapsed.
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	var sb strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(out) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastSpace = false
		case r == '&':
			sb.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				sb.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// Resolve maps a raw cell value to a canonical carrier name. Exact alias
// lookup first, then an edit-distance pass over canonical names for typos
// and OCR noise. The allowed distance scales with name length so short
// names never fuzzy-match.
func (r *Registry) Resolve(raw string) (string, bool) {
	key := Normalize(raw)
	if key == "" {
		return "", false
	}
	if name, ok := r.byAlias[key]; ok {
		return name, true
	}

	// Prefix match: "Chubb Bermuda Ltd" still resolves to Chubb. The
	// longest matching alias wins so "chubb bermuda" beats "chubb"; ties
	// break alphabetically to keep resolution deterministic.
	var prefixAlias, prefixName string
	for alias, name := range r.byAlias {
		if len(alias) < 4 || !strings.HasPrefix(key, alias+" ") {
			continue
		}
		if len(alias) > len(prefixAlias) ||
			(len(alias) == len(prefixAlias) && alias < prefixAlias) {
			prefixAlias, prefixName = alias, name
		}
	}
	if prefixAlias != "" {
		return prefixName, true
	}

	maxDist := fuzzyBudget(len(key))
	if maxDist == 0 {
		return "", false
	}
	best, bestDist := "", maxDist+1
	for _, name := range r.names {
		d := levenshtein.ComputeDistance(key, name)
		if d < bestDist {
			best, bestDist = name, d
		}
	}
	if bestDist <= maxDist {
		return r.nameFor[best], true
	}
	return "", false
}

// fuzzyBudget returns the edit distance allowed for a normalized name of
// the given length.
func fuzzyBudget(n int) int {
	switch {
	case n >= 8:
		return 2
	case n >= 5:
		return 1
	default:
		return 0
	}
}

// IsNonCarrier reports whether the value is a known structural token
// ("Total", "Premium", "TBD") that must never become a carrier entry.
func (r *Registry) IsNonCarrier(raw string) bool {
	_, ok := r.nonCarriers[Normalize(raw)]
	return ok
}

// HasCompanySuffix reports whether the value ends in a legal or market
// suffix ("... Insurance", "... Ltd", "... Syndicate").
func (r *Registry) HasCompanySuffix(raw string) bool {
	words := strings.Fields(Normalize(raw))
	if len(words) < 2 {
		return false
	}
	last := words[len(words)-1]
	for _, s := range r.suffixes {
		if last == s {
			return true
		}
	}
	return false
}

// LooksLikeCarrier applies the textual heuristics for unknown names: a
// plausible length, starts with a letter, not a structural token. Known
// aliases and company suffixes short-circuit to true.
func (r *Registry) LooksLikeCarrier(raw string) bool {
	s := strings.TrimSpace(raw)
	if len(s) < 3 || len(s) > 60 {
		return false
	}
	if r.IsNonCarrier(s) {
		return false
	}
	if _, ok := r.Resolve(s); ok {
		return true
	}
	if r.HasCompanySuffix(s) {
		return true
	}
	first := rune(s[0])
	if !unicode.IsLetter(first) {
		return false
	}
	// Reject values that are mostly digits or symbols.
	letters := 0
	for _, c := range s {
		if unicode.IsLetter(c) || c == ' ' {
			letters++
		}
	}
	return float64(letters)/float64(len([]rune(s))) >= 0.7
}
