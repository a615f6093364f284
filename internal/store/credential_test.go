package store

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestCredentialSaveLoad(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCredentialStore(db, "correct horse battery")

	creds := Credentials{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		ExpiresAt:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := cs.Save("service", creds); err != nil {
		t.Fatalf("save: %v", err)
	}

	var sealed []byte
	db.QueryRow(`SELECT sealed FROM credentials WHERE account = 'service'`).Scan(&sealed)
	if bytes.Contains(sealed, []byte("access-123")) {
		t.Error("token stored in plaintext")
	}

	got, err := cs.Load("service")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected credentials")
	}
	if got.AccessToken != "access-123" || got.RefreshToken != "refresh-456" {
		t.Errorf("loaded = %+v", got)
	}
	if !got.ExpiresAt.Equal(creds.ExpiresAt) {
		t.Errorf("expires_at = %v, want %v", got.ExpiresAt, creds.ExpiresAt)
	}
}

func TestCredentialLoadMissing(t *testing.T) {
	cs := NewCredentialStore(setupTestDB(t), "passphrase-long")
	got, err := cs.Load("nobody")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing account")
	}
}

func TestCredentialWrongPassphrase(t *testing.T) {
	db := setupTestDB(t)
	NewCredentialStore(db, "first passphrase").Save("service", Credentials{AccessToken: "a"})

	if _, err := NewCredentialStore(db, "second passphrase").Load("service"); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
}

func TestCredentialNoPassphrase(t *testing.T) {
	cs := NewCredentialStore(setupTestDB(t), "")
	if err := cs.Save("service", Credentials{}); !errors.Is(err, ErrNoPassphrase) {
		t.Errorf("save err = %v, want ErrNoPassphrase", err)
	}
	if _, err := cs.Load("service"); !errors.Is(err, ErrNoPassphrase) {
		t.Errorf("load err = %v, want ErrNoPassphrase", err)
	}
}

func TestCredentialClear(t *testing.T) {
	cs := NewCredentialStore(setupTestDB(t), "passphrase-long")
	cs.Save("service", Credentials{AccessToken: "a"})
	if err := cs.Clear("service"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ := cs.Load("service")
	if got != nil {
		t.Error("expected nil after clear")
	}
}
