package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// modelResponse is the JSON object the model is asked to produce.
type modelResponse struct {
	Category   string  `json:"category"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// ExtractJSON returns the first balanced JSON object substring of text, or ""
// when none exists. Model output is untrusted free text; anything around the
// object (markdown fences, prose) is ignored.
func ExtractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

// parseResponse extracts and decodes the model's JSON decision.
func parseResponse(text string) (modelResponse, *Failure) {
	raw := ExtractJSON(text)
	if raw == "" {
		return modelResponse{}, &Failure{
			Reason: FailureNoJSON,
			Err:    fmt.Errorf("no JSON object in model output"),
		}
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return modelResponse{}, &Failure{
			Reason: FailureBadJSON,
			Err:    fmt.Errorf("failed to decode model output: %w", err),
		}
	}

	if strings.TrimSpace(resp.Category) == "" {
		return modelResponse{}, &Failure{
			Reason: FailureBadJSON,
			Err:    fmt.Errorf("model output has no category"),
		}
	}

	return resp, nil
}
