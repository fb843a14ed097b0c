package model

// Source indicates which pipeline stage produced the finalized category.
type Source string

// Category source constants.
const (
	SourceRules Source = "rules"
	SourceLLM   Source = "llm"
)

// Method indicates which mechanism produced an individual prediction.
type Method string

// Prediction method constants.
const (
	MethodRule Method = "rule"
	MethodLLM  Method = "llm"
)

// MatchSource distinguishes which rule list produced a hit.
type MatchSource string

// Rule match source constants.
const (
	MatchVendor  MatchSource = "vendor"
	MatchKeyword MatchSource = "keyword"
)

// Match is a single rule hit produced by the rules engine.
type Match struct {
	Category   string
	Pattern    string
	Source     MatchSource
	CategoryID int
	Confidence float64
}

// Decision is the terminal outcome of one classification attempt.
//
// Exactly one of two shapes is valid: a categorized decision (CategoryID set,
// Source set) or a needs-review decision (NeedsReview true, category fields
// zero). Fallback marks a rules decision taken only because the LLM adapter
// failed.
type Decision struct {
	CategoryID  *int
	ReceiptID   string
	Category    string
	Source      Source
	Confidence  float64
	Fallback    bool
	NeedsReview bool
}
