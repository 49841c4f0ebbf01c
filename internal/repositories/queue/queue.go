// Package queue implements the local durable queue of records pending
// remote persistence.
//
// The whole queue is one JSON array of domain-shaped records stored under a
// single key, so queued data survives wire-schema changes. Every mutation is
// a read-modify-write inside one transaction; partial interleavings are
// impossible.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/dbx"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/models"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/repositories/kv"
)

// StorageKey is the fixed key the queue array lives under.
const StorageKey = "sync:queue"

type Queue interface {
	// Load returns the queued records in admission order.
	Load(ctx context.Context) ([]models.MeasurementRecord, error)

	// Put appends rec, or replaces the queued entry with the same id.
	Put(ctx context.Context, rec *models.MeasurementRecord) error

	// Remove drops the entry with the given id, if present. Removing the
	// last entry clears the key.
	Remove(ctx context.Context, id string) error

	// Len reports the number of queued entries.
	Len(ctx context.Context) (int, error)
}

type SQLiteQueue struct {
	db   *sql.DB
	repo kv.Repository
}

func NewSQLiteQueue(db *sql.DB) *SQLiteQueue {
	return &SQLiteQueue{db: db, repo: kv.NewSQLiteRepository(db)}
}

func decode(raw []byte) ([]models.MeasurementRecord, error) {
	var recs []models.MeasurementRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode sync queue: %w", err)
	}
	return recs, nil
}

func (q *SQLiteQueue) load(ctx context.Context, repo kv.Repository) ([]models.MeasurementRecord, error) {
	raw, err := repo.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (q *SQLiteQueue) store(ctx context.Context, repo kv.Repository, recs []models.MeasurementRecord) error {
	if len(recs) == 0 {
		return repo.Delete(ctx, StorageKey)
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to encode sync queue: %w", err)
	}
	return repo.Set(ctx, StorageKey, raw)
}

func (q *SQLiteQueue) Load(ctx context.Context) ([]models.MeasurementRecord, error) {
	return q.load(ctx, q.repo)
}

func (q *SQLiteQueue) Put(ctx context.Context, rec *models.MeasurementRecord) error {
	return dbx.WithTx(ctx, q.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := q.repo.WithTx(tx)

		recs, err := q.load(ctx, repo)
		if err != nil {
			return err
		}

		replaced := false
		for i := range recs {
			if recs[i].ID == rec.ID {
				recs[i] = *rec
				replaced = true
				break
			}
		}
		if !replaced {
			recs = append(recs, *rec)
		}

		return q.store(ctx, repo, recs)
	})
}

func (q *SQLiteQueue) Remove(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, q.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := q.repo.WithTx(tx)

		recs, err := q.load(ctx, repo)
		if err != nil {
			return err
		}

		kept := recs[:0]
		for _, r := range recs {
			if r.ID != id {
				kept = append(kept, r)
			}
		}

		return q.store(ctx, repo, kept)
	})
}

func (q *SQLiteQueue) Len(ctx context.Context) (int, error) {
	recs, err := q.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}
