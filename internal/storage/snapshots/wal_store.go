// Package snapshots journals portfolio snapshots in a write-ahead log.
package snapshots

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/investtrack/internal/domain"
)

const (
	defaultSnapshotDir   = "./wal/snapshots"
	snapshotSegmentLimit = 1000
	snapshotMaxSegments  = 100
	snapshotKey          = "portfolio_snapshot"
)

var errNotInitialized = errors.New("snapshot store is not initialized")

// Config tunes the journal.
type Config struct {
	Dir string
	// SegmentThreshold records per segment file.
	SegmentThreshold int
	// MaxSegments oldest segments beyond this count are removed.
	MaxSegments int
}

// WALStore persists portfolio snapshots in a WAL so the performance history
// outlives the state file.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed snapshot store.
func NewWALStore(cfg Config) (*WALStore, error) {
	if cfg.Dir == "" {
		cfg.Dir = defaultSnapshotDir
	}
	if cfg.SegmentThreshold <= 0 {
		cfg.SegmentThreshold = snapshotSegmentLimit
	}
	if cfg.MaxSegments <= 0 {
		cfg.MaxSegments = snapshotMaxSegments
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create snapshot WAL dir %s", cfg.Dir)
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              cfg.Dir,
		Prefix:           "snapshot_",
		SegmentThreshold: cfg.SegmentThreshold,
		MaxSegments:      cfg.MaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init snapshot WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the snapshot and returns its index.
func (s *WALStore) Save(snapshot domain.Snapshot) (uint64, error) {
	if s == nil || s.wal == nil {
		return 0, errNotInitialized
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return 0, errors.Wrap(err, "marshal snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(index, snapshotKey, payload); err != nil {
		return 0, errors.Wrapf(err, "write snapshot %d", index)
	}

	return index, nil
}

// SnapshotsAfter returns all snapshots written after the provided WAL index.
func (s *WALStore) SnapshotsAfter(index uint64) ([]domain.SnapshotRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errNotInitialized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.SnapshotRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, snapshotKey) {
			continue
		}
		var snapshot domain.Snapshot
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return nil, errors.Wrapf(err, "decode snapshot %d", idx)
		}
		records = append(records, domain.SnapshotRecord{
			Index:    idx,
			Snapshot: snapshot,
		})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errNotInitialized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
