package sweep

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerloom/receiptd/internal/engine"
	"github.com/ledgerloom/receiptd/internal/llm"
	"github.com/ledgerloom/receiptd/internal/model"
	"github.com/ledgerloom/receiptd/internal/rules"
	"github.com/ledgerloom/receiptd/internal/storage"
)

func floatPtr(f float64) *float64 {
	return &f
}

func newTestPipeline(t *testing.T, llmResult *llm.Result, llmErr error) (*storage.SQLiteStorage, *engine.Orchestrator) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	pack := rules.Compile(rules.RawPack{
		Version: "pack-v1",
		Vendors: []rules.RawRule{
			{Pattern: "starbucks", Category: "Meals", Confidence: floatPtr(0.9)},
		},
	})

	orch := engine.New(store, store, rules.NewStaticProvider(pack),
		engine.NewMockClassifier(llmResult, llmErr), engine.DefaultConfig(), slog.Default())

	return store, orch
}

func seedReceipt(t *testing.T, store *storage.SQLiteStorage, id, vendor string) {
	t.Helper()
	require.NoError(t, store.SaveReceipt(context.Background(), &model.Receipt{
		ID:         id,
		VendorText: vendor,
		Total:      9.99,
	}))
}

func TestSweeperRun(t *testing.T) {
	t.Run("classifies all pending receipts", func(t *testing.T) {
		store, orch := newTestPipeline(t, nil, &llm.Failure{Reason: llm.FailureNoJSON, Err: errors.New("no JSON")})
		ctx := context.Background()

		// Two rule hits, one receipt nothing can classify.
		seedReceipt(t, store, "r-1", "STARBUCKS STORE #4521")
		seedReceipt(t, store, "r-2", "STARBUCKS RESERVE")
		seedReceipt(t, store, "r-3", "ILLEGIBLE VENDOR")

		stats, err := New(store, orch, 2, slog.Default()).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 2, stats.Categorized)
		assert.Equal(t, 1, stats.NeedsReview)
		assert.Equal(t, 0, stats.Failed)

		pending, err := store.ListReceiptsByStatus(ctx, model.StatusOCRDone, 0)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("empty backlog", func(t *testing.T) {
		store, orch := newTestPipeline(t, nil, nil)

		stats, err := New(store, orch, 0, nil).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Stats{}, stats)
	})

	t.Run("reports progress", func(t *testing.T) {
		store, orch := newTestPipeline(t, nil, nil)
		seedReceipt(t, store, "r-1", "STARBUCKS")
		seedReceipt(t, store, "r-2", "STARBUCKS")

		sweeper := New(store, orch, 1, slog.Default())

		var mu sync.Mutex
		var progress []int
		sweeper.OnProgress = func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			progress = append(progress, done)
			assert.Equal(t, 2, total)
		}

		_, err := sweeper.Run(context.Background())
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		assert.ElementsMatch(t, []int{1, 2}, progress)
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		store, orch := newTestPipeline(t, nil, nil)
		seedReceipt(t, store, "r-1", "STARBUCKS")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(store, orch, 1, slog.Default()).Run(ctx)
		assert.Error(t, err)
	})
}

func TestSweeperSchedule(t *testing.T) {
	t.Run("invalid cron spec", func(t *testing.T) {
		store, orch := newTestPipeline(t, nil, nil)
		sweeper := New(store, orch, 1, slog.Default())

		err := sweeper.Schedule(context.Background(), "not a cron spec")
		assert.Error(t, err)
	})

	t.Run("stops on context cancel", func(t *testing.T) {
		store, orch := newTestPipeline(t, nil, nil)
		sweeper := New(store, orch, 1, slog.Default())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, sweeper.Schedule(ctx, "@hourly"))
	})
}
