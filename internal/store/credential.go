package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/berrybridge/internal/secret"
)

var ErrNoPassphrase = errors.New("credential passphrase not configured")

// Credentials is a backend token pair.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CredentialStore keeps token pairs sealed at rest.
type CredentialStore struct {
	db         *sql.DB
	passphrase string
}

func NewCredentialStore(db *sql.DB, passphrase string) *CredentialStore {
	return &CredentialStore{db: db, passphrase: passphrase}
}

func (s *CredentialStore) Save(account string, creds Credentials) error {
	if s.passphrase == "" {
		return ErrNoPassphrase
	}

	plain, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	sealed, err := secret.Seal(plain, s.passphrase)
	if err != nil {
		return fmt.Errorf("seal credentials: %w", err)
	}

	var expires sql.NullTime
	if !creds.ExpiresAt.IsZero() {
		expires = sql.NullTime{Time: creds.ExpiresAt.UTC(), Valid: true}
	}

	_, err = s.db.Exec(
		`INSERT INTO credentials (account, sealed, expires_at, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(account) DO UPDATE SET sealed = excluded.sealed, expires_at = excluded.expires_at, updated_at = CURRENT_TIMESTAMP`,
		account, sealed, expires,
	)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Load returns the stored credentials for account, or nil if none are stored.
func (s *CredentialStore) Load(account string) (*Credentials, error) {
	if s.passphrase == "" {
		return nil, ErrNoPassphrase
	}

	var sealed []byte
	err := s.db.QueryRow(`SELECT sealed FROM credentials WHERE account = ?`, account).Scan(&sealed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	plain, err := secret.Open(sealed, s.passphrase)
	if err != nil {
		return nil, fmt.Errorf("open credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return &creds, nil
}

func (s *CredentialStore) Clear(account string) error {
	_, err := s.db.Exec(`DELETE FROM credentials WHERE account = ?`, account)
	if err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
