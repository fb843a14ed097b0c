package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerloom/receiptd/internal/config"
	"github.com/ledgerloom/receiptd/internal/engine"
	"github.com/ledgerloom/receiptd/internal/llm"
	"github.com/ledgerloom/receiptd/internal/rules"
	"github.com/ledgerloom/receiptd/internal/storage"
)

// pipeline bundles the wired-up classification stack for a command.
type pipeline struct {
	store        *storage.SQLiteStorage
	orchestrator *engine.Orchestrator
	cfg          config.Config
}

func (p *pipeline) Close() {
	if err := p.store.Close(); err != nil {
		slog.Warn("failed to close storage", "error", err)
	}
}

// buildPipeline opens storage, loads the rules pack, creates the LLM
// classifier, and wires the orchestrator. watch enables hot reload of the
// rules pack (long-running commands only).
func buildPipeline(ctx context.Context, watch bool) (*pipeline, error) {
	cfg := config.Load()

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	provider, err := buildRulesProvider(ctx, cfg, watch)
	if err != nil {
		store.Close()
		return nil, err
	}

	classifier, err := llm.NewClassifier(cfg.LLM, slog.Default())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create LLM classifier: %w", err)
	}

	orchestrator := engine.New(store, store, provider, classifier, cfg.Engine, slog.Default())

	return &pipeline{
		store:        store,
		orchestrator: orchestrator,
		cfg:          cfg,
	}, nil
}

// buildRulesProvider resolves the rules pack, preferring an inline serialized
// pack (RECEIPTD_RULES_JSON) over a file path. With neither configured the
// pipeline runs LLM-only behind an empty pack.
func buildRulesProvider(ctx context.Context, cfg config.Config, watch bool) (rules.Provider, error) {
	switch {
	case cfg.RulesJSON != "":
		pack, err := rules.Parse([]byte(cfg.RulesJSON))
		if err != nil {
			return nil, fmt.Errorf("failed to parse inline rules pack: %w", err)
		}
		return rules.NewStaticProvider(pack), nil

	case cfg.RulesPath != "" && watch && cfg.RulesWatch:
		watcher, err := rules.NewWatcher(ctx, cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to watch rules pack: %w", err)
		}
		return watcher, nil

	case cfg.RulesPath != "":
		pack, err := rules.Load(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules pack: %w", err)
		}
		return rules.NewStaticProvider(pack), nil

	default:
		slog.Warn("no rules pack configured, relying on LLM classification only")
		return rules.NewStaticProvider(rules.Compile(rules.RawPack{Version: "empty"})), nil
	}
}
