package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Snapshot is the last good converted payload for a list key.
type Snapshot struct {
	Key       string
	Payload   []byte
	ItemCount int
	FetchedAt time.Time
}

type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Save(key string, payload []byte, itemCount int) error {
	_, err := s.db.Exec(
		`INSERT INTO snapshots (key, payload, item_count, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, item_count = excluded.item_count, fetched_at = excluded.fetched_at`,
		key, payload, itemCount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}
	return nil
}

// Get returns the snapshot for key, or nil if none exists.
func (s *SnapshotStore) Get(key string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.QueryRow(
		`SELECT key, payload, item_count, fetched_at FROM snapshots WHERE key = ?`, key,
	).Scan(&snap.Key, &snap.Payload, &snap.ItemCount, &snap.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %q: %w", key, err)
	}
	return &snap, nil
}

func (s *SnapshotStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete snapshot %q: %w", key, err)
	}
	return nil
}

// DeleteOlderThan removes snapshots fetched before now-age and returns the count.
func (s *SnapshotStore) DeleteOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)
	result, err := s.db.Exec(`DELETE FROM snapshots WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	return result.RowsAffected()
}
