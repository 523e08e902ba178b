package query

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Stats accumulates execution attempts for one query id. Cache hits are not
// attempts.
type Stats struct {
	TotalExecutions      int
	SuccessfulExecutions int
	TotalTime            time.Duration
	LastExecution        time.Time
	LastResultCount      int
}

// StatsSnapshot is Stats plus derived figures.
type StatsSnapshot struct {
	QueryID string
	Stats
	SuccessRate          float64
	AverageExecutionTime time.Duration
}

func (s Stats) snapshot(id string) StatsSnapshot {
	snap := StatsSnapshot{QueryID: id, Stats: s}
	if s.TotalExecutions > 0 {
		snap.SuccessRate = float64(s.SuccessfulExecutions) / float64(s.TotalExecutions)
		snap.AverageExecutionTime = s.TotalTime / time.Duration(s.TotalExecutions)
	}
	return snap
}

type statsBook struct {
	mu   sync.RWMutex
	byID map[string]*Stats
}

func newStatsBook() *statsBook {
	return &statsBook{byID: make(map[string]*Stats)}
}

func (b *statsBook) record(id string, elapsed time.Duration, resultCount int, success bool, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.byID[id]
	if !ok {
		s = &Stats{}
		b.byID[id] = s
	}
	s.TotalExecutions++
	s.TotalTime += elapsed
	s.LastExecution = at
	s.LastResultCount = resultCount
	if success {
		s.SuccessfulExecutions++
	}
}

func (b *statsBook) get(id string) (StatsSnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.byID[id]
	if !ok {
		return StatsSnapshot{}, false
	}
	return s.snapshot(id), true
}

func (b *statsBook) all() []StatsSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]StatsSnapshot, 0, len(b.byID))
	for id, s := range b.byID {
		out = append(out, s.snapshot(id))
	}
	slices.SortFunc(out, func(a, b StatsSnapshot) int { return strings.Compare(a.QueryID, b.QueryID) })
	return out
}
