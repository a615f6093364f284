package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Capability records which backend path answered for a named list shape.
type Capability struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CapabilityStore struct {
	db *sql.DB
}

func NewCapabilityStore(db *sql.DB) *CapabilityStore {
	return &CapabilityStore{db: db}
}

// Get returns the remembered path for name, or "" if none is recorded.
func (s *CapabilityStore) Get(name string) (string, error) {
	var path string
	err := s.db.QueryRow(`SELECT path FROM capabilities WHERE name = ?`, name).Scan(&path)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get capability %q: %w", name, err)
	}
	return path, nil
}

func (s *CapabilityStore) Set(name, path string) error {
	_, err := s.db.Exec(
		`INSERT INTO capabilities (name, path, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET path = excluded.path, updated_at = CURRENT_TIMESTAMP`,
		name, path,
	)
	if err != nil {
		return fmt.Errorf("set capability %q: %w", name, err)
	}
	return nil
}

func (s *CapabilityStore) Delete(name string) error {
	_, err := s.db.Exec(`DELETE FROM capabilities WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete capability %q: %w", name, err)
	}
	return nil
}

// List returns all remembered capabilities ordered by name.
func (s *CapabilityStore) List() ([]Capability, error) {
	rows, err := s.db.Query(`SELECT name, path, updated_at FROM capabilities ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list capabilities: %w", err)
	}
	defer rows.Close()

	var caps []Capability
	for rows.Next() {
		var c Capability
		if err := rows.Scan(&c.Name, &c.Path, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan capability: %w", err)
		}
		caps = append(caps, c)
	}
	return caps, rows.Err()
}
