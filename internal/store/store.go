package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrRevisionConflict means a conditional session update lost a
	// race: the row moved on since the caller read it. Callers re-read
	// and retry.
	ErrRevisionConflict = errors.New("revision conflict")
)

// Store wraps DB access. All session writes go through the
// revision-guarded update so concurrent read-modify-write sequences
// can never silently clobber each other.
type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}
