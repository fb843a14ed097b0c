package rules

import (
	"strings"

	"github.com/ledgerloom/receiptd/internal/model"
)

// Evaluate runs every rule in the pack against a receipt's vendor text and
// line items and returns the single best hit, or nil when nothing matched.
//
// Vendor rules are tested against the normalized vendor text alone. Keyword
// rules are tested against a combined bag of vendor text plus all line-item
// descriptions. Among all hits the highest confidence wins; ties go to the
// rule encountered first (vendor rules before keyword rules, each list in
// pack order).
func Evaluate(pack *Pack, vendorText string, lineItems []model.LineItem) *model.Match {
	if pack == nil || pack.Len() == 0 {
		return nil
	}

	vendor := Normalize(vendorText)
	bag := buildBag(vendor, lineItems)

	var best *model.Match
	for _, rule := range pack.Rules() {
		subject := vendor
		if rule.Source == model.MatchKeyword {
			subject = bag
		}
		if subject == "" || !rule.re.MatchString(subject) {
			continue
		}
		if best == nil || rule.Confidence > best.Confidence {
			best = &model.Match{
				CategoryID: rule.CategoryID,
				Category:   rule.Category,
				Confidence: rule.Confidence,
				Pattern:    rule.Pattern,
				Source:     rule.Source,
			}
		}
	}

	return best
}

// buildBag joins the normalized vendor text with all normalized line-item
// descriptions into one searchable string.
func buildBag(normalizedVendor string, lineItems []model.LineItem) string {
	if len(lineItems) == 0 {
		return normalizedVendor
	}

	parts := make([]string, 0, len(lineItems)+1)
	if normalizedVendor != "" {
		parts = append(parts, normalizedVendor)
	}
	for _, item := range lineItems {
		if normalized := Normalize(item.Description); normalized != "" {
			parts = append(parts, normalized)
		}
	}
	return strings.Join(parts, " ")
}
