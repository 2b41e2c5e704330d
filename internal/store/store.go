// Package store persists one encrypted snapshot document per course. The
// document is JSON, encrypted at rest as a fernet token; the key material is
// supplied externally. Two backends are provided: the default directory-of-
// files layout and an optional Postgres table.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fernet/fernet-go"

	"github.com/jonathan/grading-notifier/internal/schemas"
	"github.com/jonathan/grading-notifier/internal/tracker"
)

// ErrInvalidKey means the stored data could not be decrypted with the
// configured key. The key rotated or the data is corrupt; either way no part
// of the cache can be trusted, so the whole run must stop.
var ErrInvalidKey = errors.New("invalid decryption key for stored data")

// Store reads and writes one snapshot document per course key.
type Store interface {
	// Read returns the latest snapshot document for the course, or false
	// when none has been saved yet.
	Read(ctx context.Context, courseKey string) (map[string]tracker.Snapshot, bool, error)
	// Write replaces the course's snapshot document wholesale.
	Write(ctx context.Context, courseKey string, data map[string]tracker.Snapshot) error
}

// codec handles the JSON <-> fernet token conversion shared by backends.
type codec struct {
	key *fernet.Key
}

func newCodec(encodedKey string) (*codec, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	return &codec{key: key}, nil
}

func (c *codec) encrypt(data map[string]tracker.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot document: %w", err)
	}
	token, err := fernet.EncryptAndSign(raw, c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt snapshot document: %w", err)
	}
	return token, nil
}

func (c *codec) decrypt(token []byte) (map[string]tracker.Snapshot, error) {
	raw := fernet.VerifyAndDecrypt(token, 0, []*fernet.Key{c.key})
	if raw == nil {
		return nil, ErrInvalidKey
	}
	if err := schemas.ValidateSnapshotDocument(raw); err != nil {
		return nil, fmt.Errorf("stored snapshot document is malformed: %w", err)
	}
	var data map[string]tracker.Snapshot
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot document: %w", err)
	}
	return data, nil
}

// Slug converts a course key into a filesystem-safe name. Alphanumerics,
// dots, underscores and hyphens pass through; everything else becomes a
// hyphen.
func Slug(courseKey string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '-'
		}
	}, courseKey)
}
