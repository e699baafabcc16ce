// Package memory is an in-process ledger store.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/tally-ledger/tally/internal/ledger"
	"github.com/tally-ledger/tally/internal/model"
)

// Store keeps entries in a slice guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	entries []model.Entry
	version int64
	// Err, when set, is returned from every query.
	Err error
}

// New returns a store seeded with entries.
func New(entries ...model.Entry) *Store {
	s := &Store{}
	s.Add(entries...)
	return s
}

// Add appends entries and bumps the data version.
func (s *Store) Add(entries ...model.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		e.Date = model.CivilDate(e.Date)
		if e.Kind == "" {
			e.Kind = model.KindTransaction
		}
		s.entries = append(s.entries, e)
	}
	s.version++
}

// Append implements ledger.Appender. Entries without an id get a random one.
func (s *Store) Append(_ context.Context, entries []model.Entry) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	added := make([]model.Entry, len(entries))
	ids := make([]string, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		added[i] = e
		ids[i] = e.ID
	}
	s.Add(added...)
	return ids, nil
}

// Entries implements ledger.Querier, returning matches ordered by date.
func (s *Store) Entries(_ context.Context, f ledger.Filter) ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Entry
	for _, e := range s.entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// DataVersion implements ledger.Versioner.
func (s *Store) DataVersion(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strconv.FormatInt(s.version, 10), nil
}
