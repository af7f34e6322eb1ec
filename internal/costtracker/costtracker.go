package costtracker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipseek/internal/models"
	"clipseek/internal/store"
)

// Rates holds the per-unit prices used to estimate provider spend.
type Rates struct {
	VideoPerMinute float64
	SearchPerQuery float64
	BudgetUSD      float64
}

// ledgerData is the on-disk JSON shape.
type ledgerData struct {
	TotalCost           float64              `json:"total_cost"`
	VideoProcessingCost float64              `json:"video_processing_cost"`
	SearchCost          float64              `json:"search_cost"`
	Sessions            []models.CostSession `json:"sessions"`
}

// Ledger is a JSON-file cost ledger. Provider pricing is an estimate, not a
// bill: the numbers exist to keep a proof of concept inside its budget.
type Ledger struct {
	path  string
	rates Rates
	mu    sync.Mutex
	data  ledgerData
}

var _ store.CostTrackingStore = (*Ledger)(nil)

// Open loads the ledger at path, starting empty if the file does not exist.
func Open(path string, rates Rates) (*Ledger, error) {
	l := &Ledger{path: path, rates: rates}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cost ledger %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &l.data); err != nil {
		return nil, fmt.Errorf("parse cost ledger %s: %w", path, err)
	}
	return l, nil
}

func (l *Ledger) RecordVideoProcessing(ctx context.Context, videoCount int, durationMinutes float64) (*models.CostSession, error) {
	if videoCount <= 0 || durationMinutes < 0 {
		return nil, fmt.Errorf("%w: video count must be positive and duration non-negative", models.ErrInvalidInput)
	}
	session := models.CostSession{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Kind:      "video_processing",
		Units:     durationMinutes,
		Rate:      l.rates.VideoPerMinute,
		Cost:      durationMinutes * l.rates.VideoPerMinute,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.data.VideoProcessingCost += session.Cost
	l.data.TotalCost += session.Cost
	l.data.Sessions = append(l.data.Sessions, session)
	if err := l.flushLocked(); err != nil {
		return nil, err
	}
	return &session, nil
}

func (l *Ledger) RecordSearchQueries(ctx context.Context, queryCount int) (*models.CostSession, error) {
	if queryCount <= 0 {
		return nil, fmt.Errorf("%w: query count must be positive", models.ErrInvalidInput)
	}
	session := models.CostSession{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Kind:      "search_queries",
		Units:     float64(queryCount),
		Rate:      l.rates.SearchPerQuery,
		Cost:      float64(queryCount) * l.rates.SearchPerQuery,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.data.SearchCost += session.Cost
	l.data.TotalCost += session.Cost
	l.data.Sessions = append(l.data.Sessions, session)
	if err := l.flushLocked(); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns the most recent sessions, newest first.
func (l *Ledger) ListSessions(ctx context.Context, limit int) ([]models.CostSession, error) {
	if limit <= 0 {
		limit = 20
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.data.Sessions)
	if limit > n {
		limit = n
	}
	out := make([]models.CostSession, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.data.Sessions[i])
	}
	return out, nil
}

func (l *Ledger) Summary(ctx context.Context) (*store.CostSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &store.CostSummary{
		TotalCost:       l.data.TotalCost,
		VideoProcessing: l.data.VideoProcessingCost,
		SearchQueries:   l.data.SearchCost,
		SessionCount:    len(l.data.Sessions),
		BudgetUSD:       l.rates.BudgetUSD,
	}, nil
}

func (l *Ledger) flushLocked() error {
	raw, err := json.MarshalIndent(l.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cost ledger: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".cost_*.json")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp ledger file: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
