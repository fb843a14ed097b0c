package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient returns canned responses, failing a fixed number of times first.
type stubClient struct {
	err       error
	response  string
	failTimes int
	calls     int
}

func (s *stubClient) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	if s.calls <= s.failTimes {
		return "", errors.New("transient API error")
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testClassifier(client Client, cfg Config) *Classifier {
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	return NewClassifierWithClient(client, cfg, "test/model", slog.Default())
}

func TestClassifierClassify(t *testing.T) {
	summary := Summary{Vendor: "STARBUCKS", Total: 4.50}

	t.Run("valid response", func(t *testing.T) {
		client := &stubClient{response: `{"category": "Meals", "confidence": 0.8, "reasoning": "coffee"}`}
		c := testClassifier(client, Config{})

		result, err := c.Classify(context.Background(), summary)
		require.NoError(t, err)
		assert.Equal(t, "Meals", result.Category)
		assert.Equal(t, 20, result.CategoryID)
		assert.InDelta(t, 0.8, result.Confidence, 0.0001)
		assert.Equal(t, "coffee", result.Reasoning)
	})

	t.Run("confidence clamped to ceiling", func(t *testing.T) {
		client := &stubClient{response: `{"category": "Meals", "confidence": 0.99}`}
		c := testClassifier(client, Config{})

		result, err := c.Classify(context.Background(), summary)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfidenceCeiling, result.Confidence)
	})

	t.Run("negative confidence clamped to zero", func(t *testing.T) {
		client := &stubClient{response: `{"category": "Meals", "confidence": -0.3}`}
		c := testClassifier(client, Config{})

		result, err := c.Classify(context.Background(), summary)
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Confidence)
	})

	t.Run("custom ceiling", func(t *testing.T) {
		client := &stubClient{response: `{"category": "Meals", "confidence": 0.99}`}
		c := testClassifier(client, Config{ConfidenceCeiling: 0.6})

		result, err := c.Classify(context.Background(), summary)
		require.NoError(t, err)
		assert.Equal(t, 0.6, result.Confidence)
	})

	t.Run("unknown category is a failure, never coerced", func(t *testing.T) {
		client := &stubClient{response: `{"category": "Snacks", "confidence": 0.9}`}
		c := testClassifier(client, Config{})

		result, err := c.Classify(context.Background(), summary)
		assert.Nil(t, result)

		var failure *Failure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, FailureUnknownCategory, failure.Reason)
	})

	t.Run("category name matched case insensitively", func(t *testing.T) {
		client := &stubClient{response: `{"category": "meals", "confidence": 0.7}`}
		c := testClassifier(client, Config{})

		result, err := c.Classify(context.Background(), summary)
		require.NoError(t, err)
		assert.Equal(t, "Meals", result.Category)
	})

	t.Run("unparsable output", func(t *testing.T) {
		client := &stubClient{response: "I would classify this as a coffee purchase."}
		c := testClassifier(client, Config{})

		_, err := c.Classify(context.Background(), summary)

		var failure *Failure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, FailureNoJSON, failure.Reason)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		client := &stubClient{
			failTimes: 1,
			response:  `{"category": "Meals", "confidence": 0.8}`,
		}
		c := testClassifier(client, Config{MaxRetries: 2})

		result, err := c.Classify(context.Background(), summary)
		require.NoError(t, err)
		assert.Equal(t, "Meals", result.Category)
		assert.Equal(t, 2, client.calls)
	})

	t.Run("transport failure after retries exhausted", func(t *testing.T) {
		client := &stubClient{failTimes: 10}
		c := testClassifier(client, Config{MaxRetries: 2})

		_, err := c.Classify(context.Background(), summary)

		var failure *Failure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, FailureTransport, failure.Reason)
		assert.Equal(t, 2, client.calls)
	})

	t.Run("timeout failure", func(t *testing.T) {
		slow := clientFunc(func(ctx context.Context, _, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
		c := testClassifier(slow, Config{Timeout: 10 * time.Millisecond, MaxRetries: 1})

		_, err := c.Classify(context.Background(), Summary{Vendor: "SLOW", Total: 1})

		var failure *Failure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, FailureTimeout, failure.Reason)
	})
}

type clientFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f clientFunc) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

func TestNewClassifier(t *testing.T) {
	t.Run("unsupported provider", func(t *testing.T) {
		_, err := NewClassifier(Config{Provider: "openai"}, slog.Default())
		assert.Error(t, err)
	})

	t.Run("anthropic provider with key", func(t *testing.T) {
		c, err := NewClassifier(Config{Provider: "anthropic", APIKey: "test-key"}, slog.Default())
		require.NoError(t, err)
		assert.Equal(t, "anthropic/"+defaultAnthropicModel, c.Version())
		assert.Equal(t, DefaultConfidenceCeiling, c.Ceiling())
	})
}
