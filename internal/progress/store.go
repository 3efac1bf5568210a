// Package progress persists the set of completed ids as a versioned snapshot
// in a single storage slot.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/tripquest/internal/model"
)

// CurrentVersion is the snapshot schema version. Snapshots with any other
// version are ignored on load and rejected on import.
const CurrentVersion = "1.0.0"

// Slot keys.
const (
	ChecklistKey = "zakopane-checklist"
	PackingKey   = "packing"
)

var (
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrSchemaVersionMismatch = errors.New("schema version mismatch")
	ErrMalformedPayload      = errors.New("malformed payload")
)

// Score reports the XP earned by a set and whether it covers the whole catalog.
type Score func(Set) (totalXP int, complete bool)

type Options struct {
	// Key is the storage slot. Defaults to ChecklistKey.
	Key string
	// Known filters ids on load and import. Nil keeps every id.
	Known func(id string) bool
	// Score, when set, adds the stats block to saved snapshots.
	Score Score
	Now   func() time.Time
}

// Store owns the live set for one slot. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	storage Storage
	key     string
	known   func(string) bool
	score   Score
	now     func() time.Time
	logger  *slog.Logger

	set         Set
	completedAt *time.Time
}

func New(storage Storage, logger *slog.Logger, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = ChecklistKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		storage: storage,
		key:     opts.Key,
		known:   opts.Known,
		score:   opts.Score,
		now:     opts.Now,
		logger:  logger.With("component", "progress", "slot", opts.Key),
		set:     NewSet(),
	}
}

// Key returns the storage slot this store writes to.
func (s *Store) Key() string { return s.key }

// Current returns a copy of the live set.
func (s *Store) Current() Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Clone()
}

// Toggle flips id and saves. A failed save is logged; the flip still applies.
func (s *Store) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	checked := s.set.Toggle(id)
	if err := s.saveLocked(); err != nil {
		s.logger.Error("save after toggle", "id", id, "error", err)
	}
	return checked
}

// Load reads the persisted snapshot into the live set and returns a copy.
// An absent, unreadable, malformed or foreign-version snapshot yields an
// empty set.
func (s *Store) Load() Set {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = NewSet()
	s.completedAt = nil

	raw, ok, err := s.storage.Get(s.key)
	if err != nil {
		s.logger.Error("load snapshot", "error", fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
		return s.set.Clone()
	}
	if !ok {
		return s.set.Clone()
	}

	snap, err := decode(raw)
	if err != nil {
		s.logger.Warn("discarding stored snapshot", "error", err)
		return s.set.Clone()
	}

	s.set = s.filter(snap.CheckedItems)
	if snap.Stats != nil {
		s.completedAt = snap.Stats.CompletionDate
	}
	return s.set.Clone()
}

// Save replaces the live set and writes a full snapshot. The live set is
// replaced even when the write fails.
func (s *Store) Save(set Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = set.Clone()
	return s.saveLocked()
}

// Merge adds ids to the live set and saves.
func (s *Store) Merge(set Set) (Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = s.set.Union(set)
	return s.set.Clone(), s.saveLocked()
}

// Export renders set as an indented snapshot document.
func (s *Store) Export(set Set) (string, error) {
	s.mu.Lock()
	snap := s.snapshotLocked(set)
	s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

// Import parses an exported snapshot and returns its set. It does not touch
// the live set; callers choose between Save and Merge.
func (s *Store) Import(text string) (Set, error) {
	snap, err := decode(text)
	if err != nil {
		return nil, err
	}
	return s.filter(snap.CheckedItems), nil
}

// Clear removes the snapshot and empties the live set.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = NewSet()
	s.completedAt = nil
	if err := s.storage.Delete(s.key); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrStorageUnavailable, s.key, err)
	}
	return nil
}

// Snapshot returns the document that Save would write for the live set.
func (s *Store) Snapshot() model.PersistedChecklist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.set)
}

func (s *Store) saveLocked() error {
	snap := s.snapshotLocked(s.set)
	if snap.Stats != nil {
		s.completedAt = snap.Stats.CompletionDate
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.storage.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStorageUnavailable, s.key, err)
	}
	return nil
}

func (s *Store) snapshotLocked(set Set) model.PersistedChecklist {
	now := s.now().UTC()
	snap := model.PersistedChecklist{
		Version:      CurrentVersion,
		CheckedItems: set.Sorted(),
		LastUpdated:  now,
	}
	if s.score == nil {
		return snap
	}

	xp, complete := s.score(set)
	stats := &model.ChecklistStats{TotalXP: xp}
	if complete {
		if s.completedAt != nil {
			stats.CompletionDate = s.completedAt
		} else {
			stats.CompletionDate = &now
		}
	}
	snap.Stats = stats
	return snap
}

func (s *Store) filter(ids []string) Set {
	set := NewSet()
	for _, id := range ids {
		if s.known != nil && !s.known(id) {
			continue
		}
		set.Add(id)
	}
	return set
}

func decode(text string) (model.PersistedChecklist, error) {
	var snap model.PersistedChecklist
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		return snap, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if snap.Version != CurrentVersion {
		return snap, fmt.Errorf("%w: got %q, want %q", ErrSchemaVersionMismatch, snap.Version, CurrentVersion)
	}
	return snap, nil
}
