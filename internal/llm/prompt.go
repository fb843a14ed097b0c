package llm

import (
	"fmt"
	"strings"

	"github.com/ledgerloom/receiptd/internal/taxonomy"
)

// Prompt size bounds. The prompt must stay deterministic and small no matter
// how noisy the OCR output is.
const (
	maxPromptLineItems = 20
	maxLineItemChars   = 80
	maxRawSnippetChars = 500
)

const systemPrompt = "You are an expense receipt classifier. You assign business receipts " +
	"to Schedule C expense categories. Respond only with a single JSON object in the exact " +
	"format requested, no markdown, no commentary."

// BuildPrompt constructs the deterministic classification prompt for a
// receipt summary. The vendor text and raw snippet are scrubbed here; callers
// pass the summary as extracted.
func BuildPrompt(s Summary) string {
	var b strings.Builder

	b.WriteString("Classify this receipt into exactly one of the allowed expense categories.\n\n")

	b.WriteString("Receipt:\n")
	fmt.Fprintf(&b, "Vendor: %s\n", Scrub(s.Vendor))
	fmt.Fprintf(&b, "Total: %.2f\n", s.Total)
	if s.Subtotal != nil {
		fmt.Fprintf(&b, "Subtotal: %.2f\n", *s.Subtotal)
	}
	if s.TaxAmount != nil {
		fmt.Fprintf(&b, "Tax: %.2f\n", *s.TaxAmount)
	}
	if s.Date != nil {
		fmt.Fprintf(&b, "Date: %s\n", s.Date.Format("2006-01-02"))
	}

	if len(s.LineItems) > 0 {
		b.WriteString("Line items:\n")
		for i, item := range s.LineItems {
			if i >= maxPromptLineItems {
				fmt.Fprintf(&b, "- (and %d more items)\n", len(s.LineItems)-maxPromptLineItems)
				break
			}
			desc := Scrub(item.Description)
			if len(desc) > maxLineItemChars {
				desc = desc[:maxLineItemChars]
			}
			fmt.Fprintf(&b, "- %s (%.2f)\n", desc, item.Total)
		}
	}

	// Raw OCR text is extra signal only when the structured fields are thin.
	if sparseFields(s) && s.RawText != "" {
		snippet := Scrub(s.RawText)
		if len(snippet) > maxRawSnippetChars {
			snippet = snippet[:maxRawSnippetChars]
		}
		b.WriteString("\nRaw OCR text (excerpt):\n")
		b.WriteString(snippet)
		b.WriteString("\n")
	}

	b.WriteString("\nAllowed categories (id: name):\n")
	for _, cat := range taxonomy.All() {
		fmt.Fprintf(&b, "%d: %s - %s\n", cat.ID, cat.Name, cat.Description)
	}

	b.WriteString(`
Guidance:
- Classify by what the vendor sells, not assumed intent; a restaurant receipt is Meals even if it could be a client meeting.
- Software, SaaS subscriptions, and postage are Office Expense; consumable materials are Supplies.
- Fuel, parking, and tolls are Car and Truck Expenses; airfare and hotels are Travel.
- Use Other Expenses only when nothing else plausibly fits.

Respond with a single JSON object:
{"category": "<category name from the list>", "confidence": <0.0-1.0>, "reasoning": "<one short sentence>"}`)

	return b.String()
}

// sparseFields reports whether the structured extraction is too thin to
// classify on its own.
func sparseFields(s Summary) bool {
	return len(s.LineItems) == 0 && s.Subtotal == nil && s.TaxAmount == nil
}
