package dataset

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ReloadResult describes one snapshot swap for the reload endpoint.
type ReloadResult struct {
	PreviousSnapshotID string `json:"previous_snapshot_id,omitempty"`
	SnapshotID         string `json:"snapshot_id"`
	Source             string `json:"source"`
	MinuteRecords      int    `json:"minute_records"`
	DowntimeEvents     int    `json:"downtime_events"`
	SPCSamples         int    `json:"spc_samples"`
}

// Store holds the current dataset snapshot. Readers get a consistent
// immutable snapshot; Reload swaps in a fresh one atomically. The optional
// onSwap hook runs after each successful swap (used to drop cached payloads).
type Store struct {
	loader Loader
	onSwap func(old, next *Dataset)

	mu      sync.RWMutex
	current *Dataset
}

// NewStore performs the initial load and returns a store wrapping it.
func NewStore(ctx context.Context, loader Loader, onSwap func(old, next *Dataset)) (*Store, error) {
	if loader == nil {
		return nil, errors.New("dataset loader required")
	}
	ds, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Store{loader: loader, onSwap: onSwap, current: ds}, nil
}

// Current returns the active snapshot.
func (s *Store) Current() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Source describes the configured raw-data backend.
func (s *Store) Source() string { return s.loader.Describe() }

// Reload loads a fresh snapshot and swaps it in. The previous snapshot
// stays untouched for requests already holding it.
func (s *Store) Reload(ctx context.Context) (*ReloadResult, error) {
	ds, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	old := s.current
	s.current = ds
	s.mu.Unlock()

	if s.onSwap != nil {
		s.onSwap(old, ds)
	}

	res := &ReloadResult{
		SnapshotID:     ds.SnapshotID,
		Source:         ds.Source,
		MinuteRecords:  len(ds.Minutes),
		DowntimeEvents: len(ds.Downtime),
		SPCSamples:     len(ds.SPC),
	}
	if old != nil {
		res.PreviousSnapshotID = old.SnapshotID
	}
	return res, nil
}

// StartRefresher reloads the dataset on a fixed interval until the context
// is cancelled. A failed reload keeps the previous snapshot and logs.
func (s *Store) StartRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.Reload(ctx)
			if err != nil {
				log.Printf("[refresh] dataset reload failed, keeping snapshot: %v", err)
				continue
			}
			log.Printf("[refresh] dataset reloaded snapshot=%s minutes=%d", res.SnapshotID, res.MinuteRecords)
		}
	}
}
