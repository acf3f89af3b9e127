package state

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/five82/bundlectl/internal/bundlegen"
)

// Snapshot represents the latest bundle list available to the UI.
type Snapshot struct {
	Bundles             []bundlegen.Bundle
	HasBundles          bool
	LastUpdated         time.Time // Last successful refresh
	LastAttempt         time.Time // Last applied refresh response, successful or not
	LastError           error
	ConsecutiveFailures int    // Number of consecutive refresh failures
	AppliedSeq          uint64 // Sequence number of the last applied response
}

// Store coordinates concurrent updates to the bundle list. Refreshes are
// fenced: each request takes a sequence number from Begin and only a response
// newer than the last applied one may change the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	issued   uint64
}

// Begin issues the sequence number for a new refresh request.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Update applies the response for refresh seq and reports whether it was
// applied. Responses not newer than the last applied one are discarded. When
// err is non-nil the previous list is kept but the error is recorded; the
// applied sequence does not move so a later success still lands.
func (s *Store) Update(seq uint64, bundles []bundlegen.Bundle, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.snapshot.AppliedSeq {
		return false
	}

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastAttempt = time.Now()
		s.snapshot.ConsecutiveFailures++
		return true
	}

	s.snapshot.Bundles = cloneBundles(bundles)
	SortByDateDesc(s.snapshot.Bundles)
	s.snapshot.HasBundles = true
	s.snapshot.AppliedSeq = seq
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.LastAttempt = s.snapshot.LastUpdated
	s.snapshot.ConsecutiveFailures = 0
	return true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Bundles = cloneBundles(s.snapshot.Bundles)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// SortByDateDesc orders bundles newest first. Equal dates keep their
// incoming order.
func SortByDateDesc(bundles []bundlegen.Bundle) {
	sort.SliceStable(bundles, func(i, j int) bool {
		return bundles[i].Date.After(bundles[j].Date)
	})
}

func cloneBundles(items []bundlegen.Bundle) []bundlegen.Bundle {
	if len(items) == 0 {
		return nil
	}
	dup := make([]bundlegen.Bundle, len(items))
	copy(dup, items)
	return dup
}
