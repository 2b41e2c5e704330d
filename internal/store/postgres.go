package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/grading-notifier/internal/tracker"
)

// PostgresStore keeps one encrypted snapshot row per course key. The payload
// column holds the same fernet token a file store would write, so the
// at-rest encryption guarantee is identical across backends.
type PostgresStore struct {
	pool  *pgxpool.Pool
	codec *codec
}

// NewPostgresStore connects to the database and ensures the snapshot table
// exists.
func NewPostgresStore(ctx context.Context, databaseURL, encodedKey string) (*PostgresStore, error) {
	codec, err := newCodec(encodedKey)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, codec: codec}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS course_snapshots (
			course_key TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create course_snapshots table: %w", err)
	}
	return nil
}

// Read loads and decrypts the course's snapshot row.
func (s *PostgresStore) Read(ctx context.Context, courseKey string) (map[string]tracker.Snapshot, bool, error) {
	var token []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM course_snapshots WHERE course_key = $1`,
		courseKey,
	).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot for %q: %w", courseKey, err)
	}

	data, err := s.codec.decrypt(token)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Write encrypts the document and upserts the course's snapshot row.
func (s *PostgresStore) Write(ctx context.Context, courseKey string, data map[string]tracker.Snapshot) error {
	token, err := s.codec.encrypt(data)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO course_snapshots (course_key, payload)
		 VALUES ($1, $2)
		 ON CONFLICT (course_key) DO UPDATE SET payload = $2, updated_at = NOW()`,
		courseKey, token,
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot for %q: %w", courseKey, err)
	}
	return nil
}
