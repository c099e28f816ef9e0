package kev

import (
	"strings"
	"sync/atomic"
	"time"
)

// Snapshot is one immutable load of the KEV catalog. A refresh never mutates
// a published snapshot, it builds a new one and swaps it in.
type Snapshot struct {
	CatalogVersion string
	DateReleased   string
	FetchedAt      time.Time

	// Stale marks a snapshot which is served after a failed refresh
	Stale bool

	entries map[string]*Entry
}

// NewSnapshot builds a snapshot from entries, keyed by upper-cased CVE ID.
func NewSnapshot(entries []*Entry) *Snapshot {
	s := &Snapshot{
		FetchedAt: time.Now(),
		entries:   map[string]*Entry{},
	}

	for _, e := range entries {
		s.entries[strings.ToUpper(e.CVEID)] = e
	}

	return s
}

func (s *Snapshot) Lookup(cveID string) *Entry {
	if s == nil {
		return nil
	}
	return s.entries[strings.ToUpper(cveID)]
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Index publishes catalog snapshots atomically. Lookups are lock-free and
// in-flight readers keep the snapshot they started with.
type Index struct {
	snap atomic.Value
}

func NewIndex() *Index {
	return &Index{}
}

func (ix *Index) Publish(s *Snapshot) {
	ix.snap.Store(s)
}

// Current returns the published snapshot, nil when no load ever succeeded.
func (ix *Index) Current() *Snapshot {
	s, ok := ix.snap.Load().(*Snapshot)
	if !ok {
		return nil
	}
	return s
}

func (ix *Index) Lookup(cveID string) *Entry {
	return ix.Current().Lookup(cveID)
}
