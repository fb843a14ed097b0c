package engine

import (
	"context"
	"sync"

	"github.com/ledgerloom/receiptd/internal/llm"
)

// MockClassifier implements Classifier for tests with a scriptable outcome.
type MockClassifier struct {
	Result  *llm.Result
	Err     error
	calls   []llm.Summary
	version string
	mu      sync.Mutex
}

// NewMockClassifier creates a mock that returns the given outcome.
func NewMockClassifier(result *llm.Result, err error) *MockClassifier {
	return &MockClassifier{
		Result:  result,
		Err:     err,
		version: "mock/test",
	}
}

// Classify records the call and returns the scripted outcome.
func (m *MockClassifier) Classify(_ context.Context, summary llm.Summary) (*llm.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, summary)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// Version identifies the mock in audit records.
func (m *MockClassifier) Version() string {
	return m.version
}

// Calls returns the summaries passed to Classify so far.
func (m *MockClassifier) Calls() []llm.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Summary, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Classify invocations.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
