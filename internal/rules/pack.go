// Package rules implements the data-driven vendor/keyword rules engine.
//
// A rules pack is externally supplied configuration: an ordered list of vendor
// patterns and keyword patterns, each mapping to a taxonomy category with an
// optional per-rule confidence. Packs are validated and compiled into regex
// matchers at load time; individual bad rules are skipped, never fatal.
package rules

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ledgerloom/receiptd/internal/model"
	"github.com/ledgerloom/receiptd/internal/taxonomy"
)

// Default confidences when a rule does not carry its own.
const (
	DefaultVendorConfidence  = 0.70
	DefaultKeywordConfidence = 0.65
)

// RawRule is the on-disk shape of a single rule.
type RawRule struct {
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Pattern    string   `json:"pattern" yaml:"pattern"`
	Category   string   `json:"category" yaml:"category"`
}

// RawPack is the on-disk shape of a versioned rules pack.
type RawPack struct {
	CategoryMap map[string]int `json:"categoryMap" yaml:"categoryMap"`
	Version     string         `json:"version" yaml:"version"`
	Vendors     []RawRule      `json:"vendors" yaml:"vendors"`
	Keywords    []RawRule      `json:"keywords" yaml:"keywords"`
}

// Rule is a compiled, validated rule ready for evaluation.
type Rule struct {
	re         *regexp.Regexp
	Pattern    string
	Category   string
	Source     model.MatchSource
	CategoryID int
	Confidence float64
}

// Pack is a compiled rules pack. Immutable after compilation.
type Pack struct {
	Version string
	rules   []Rule
	Skipped int
}

// Rules returns the compiled rules in evaluation order (vendor rules first,
// then keyword rules, each list in its given order).
func (p *Pack) Rules() []Rule {
	return p.rules
}

// Len returns the number of usable rules in the pack.
func (p *Pack) Len() int {
	return len(p.rules)
}

// Load reads and compiles a rules pack from a JSON or YAML file.
func Load(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules pack: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// Parse compiles a rules pack from serialized JSON.
func Parse(data []byte) (*Pack, error) {
	var raw RawPack
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rules pack: %w", err)
	}
	return Compile(raw), nil
}

// ParseYAML compiles a rules pack from serialized YAML.
func ParseYAML(data []byte) (*Pack, error) {
	var raw RawPack
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rules pack: %w", err)
	}
	return Compile(raw), nil
}

// Compile validates a raw pack and pre-compiles every usable rule.
//
// A rule is skipped (logged, counted, not fatal) when its pattern does not
// compile or its category cannot be resolved against the taxonomy. The rest
// of the pack remains usable.
func Compile(raw RawPack) *Pack {
	pack := &Pack{
		Version: raw.Version,
		rules:   make([]Rule, 0, len(raw.Vendors)+len(raw.Keywords)),
	}

	for _, r := range raw.Vendors {
		pack.addRule(raw, r, model.MatchVendor)
	}
	for _, r := range raw.Keywords {
		pack.addRule(raw, r, model.MatchKeyword)
	}

	return pack
}

func (p *Pack) addRule(raw RawPack, r RawRule, source model.MatchSource) {
	categoryID, categoryName, ok := resolveCategory(raw.CategoryMap, r.Category)
	if !ok {
		slog.Warn("skipping rule with unknown category",
			"pattern", r.Pattern,
			"category", r.Category,
			"source", string(source),
			"pack_version", raw.Version)
		p.Skipped++
		return
	}

	expr := r.Pattern
	if source == model.MatchKeyword {
		expr = `\b(?:` + expr + `)\b`
	}

	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		slog.Warn("skipping rule with invalid pattern",
			"pattern", r.Pattern,
			"source", string(source),
			"pack_version", raw.Version,
			"error", err)
		p.Skipped++
		return
	}

	confidence := DefaultVendorConfidence
	if source == model.MatchKeyword {
		confidence = DefaultKeywordConfidence
	}
	if r.Confidence != nil {
		confidence = *r.Confidence
		if confidence < 0 {
			confidence = 0
		} else if confidence > 1 {
			confidence = 1
		}
	}

	p.rules = append(p.rules, Rule{
		re:         re,
		Pattern:    r.Pattern,
		Category:   categoryName,
		CategoryID: categoryID,
		Confidence: confidence,
		Source:     source,
	})
}

// resolveCategory maps a rule's category name to a taxonomy id. The pack's
// categoryMap takes precedence, but any id it produces must still exist in
// the compiled-in taxonomy; otherwise the rule cannot produce a hit.
func resolveCategory(categoryMap map[string]int, name string) (int, string, bool) {
	if id, ok := categoryMap[name]; ok {
		if canonical, exists := taxonomy.NameOf(id); exists {
			return id, canonical, true
		}
		return 0, "", false
	}
	if id, ok := taxonomy.IDOf(name); ok {
		canonical, _ := taxonomy.NameOf(id)
		return id, canonical, true
	}
	return 0, "", false
}
