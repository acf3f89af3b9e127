package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/bundlectl/internal/bundlegen"
)

func day(d int) time.Time {
	return time.Date(2023, 1, d, 12, 0, 0, 0, time.UTC)
}

func TestStore_UpdateSortsAndSnapshotClones(t *testing.T) {
	var s Store

	bundles := []bundlegen.Bundle{
		{Name: "old", Date: day(1)},
		{Name: "new", Date: day(3)},
		{Name: "mid", Date: day(2)},
	}

	before := time.Now()
	seq := s.Begin()
	if !s.Update(seq, bundles, nil) {
		t.Fatalf("Update(%d) was not applied", seq)
	}

	snap := s.Snapshot()
	if !snap.HasBundles || len(snap.Bundles) != 3 {
		t.Fatalf("snapshot bundles = %#v, want 3", snap.Bundles)
	}
	var names []string
	for _, b := range snap.Bundles {
		names = append(names, b.Name)
	}
	if !reflect.DeepEqual(names, []string{"new", "mid", "old"}) {
		t.Fatalf("order = %v, want date descending", names)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.AppliedSeq != seq {
		t.Fatalf("AppliedSeq = %d, want %d", snap.AppliedSeq, seq)
	}

	// Neither the caller's slice nor the returned snapshot alias the store.
	bundles[0].Name = "mutated"
	snap.Bundles[0].Name = "mutated"
	snap2 := s.Snapshot()
	if snap2.Bundles[0].Name != "new" || snap2.Bundles[2].Name != "old" {
		t.Fatalf("store aliased caller data: %#v", snap2.Bundles)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update(s.Begin(), []bundlegen.Bundle{{Name: "b1", Date: day(1)}}, nil)
	prev := s.Snapshot()

	origErr := errors.New("boom")
	if !s.Update(s.Begin(), nil, origErr) {
		t.Fatalf("error response was not recorded")
	}

	snap := s.Snapshot()
	if len(snap.Bundles) != 1 || snap.Bundles[0].Name != "b1" {
		t.Fatalf("bundles changed on error: got %#v want %#v", snap.Bundles, prev.Bundles)
	}
	if snap.AppliedSeq != prev.AppliedSeq {
		t.Fatalf("AppliedSeq moved on error: %d -> %d", prev.AppliedSeq, snap.AppliedSeq)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
	if !snap.LastUpdated.Equal(prev.LastUpdated) {
		t.Fatalf("LastUpdated moved on error: %v -> %v", prev.LastUpdated, snap.LastUpdated)
	}
	if snap.LastAttempt.Before(prev.LastUpdated) {
		t.Fatalf("LastAttempt = %v, want >= %v", snap.LastAttempt, prev.LastUpdated)
	}
}

func TestStore_DiscardsStaleResponses(t *testing.T) {
	var s Store

	first := s.Begin()
	second := s.Begin()

	if !s.Update(second, []bundlegen.Bundle{{Name: "fresh", Date: day(2)}}, nil) {
		t.Fatalf("newer response was not applied")
	}
	if s.Update(first, []bundlegen.Bundle{{Name: "stale", Date: day(1)}}, nil) {
		t.Fatalf("older response was applied over a newer one")
	}
	if s.Update(first, nil, errors.New("late failure")) {
		t.Fatalf("older failure was recorded over a newer success")
	}
	if s.Update(second, nil, nil) {
		t.Fatalf("duplicate response was applied twice")
	}

	snap := s.Snapshot()
	if len(snap.Bundles) != 1 || snap.Bundles[0].Name != "fresh" {
		t.Fatalf("bundles = %#v, want fresh", snap.Bundles)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 {
		t.Fatalf("zero store reports %d failures", snap.ConsecutiveFailures)
	}

	for i := 1; i <= 3; i++ {
		s.Update(s.Begin(), nil, errors.New("fail"))
		snap = s.Snapshot()
		if snap.ConsecutiveFailures != i {
			t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, i)
		}
		if !snap.LastUpdated.IsZero() || snap.LastAttempt.IsZero() {
			t.Fatalf("failure %d: LastUpdated = %v, LastAttempt = %v", i, snap.LastUpdated, snap.LastAttempt)
		}
	}

	s.Update(s.Begin(), nil, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.LastUpdated.IsZero() {
		t.Fatalf("success did not reset failures: %d", snap.ConsecutiveFailures)
	}
	if !snap.HasBundles || len(snap.Bundles) != 0 {
		t.Fatalf("empty success should yield an empty list, got %#v", snap.Bundles)
	}
}

func TestSortByDateDesc_StableForEqualDates(t *testing.T) {
	bundles := []bundlegen.Bundle{
		{Name: "a", Date: day(1)},
		{Name: "b", Date: day(2)},
		{Name: "c", Date: day(1)},
		{Name: "d", Date: day(2)},
	}
	SortByDateDesc(bundles)
	var names []string
	for _, b := range bundles {
		names = append(names, b.Name)
	}
	if !reflect.DeepEqual(names, []string{"b", "d", "a", "c"}) {
		t.Fatalf("order = %v, want [b d a c]", names)
	}
}
