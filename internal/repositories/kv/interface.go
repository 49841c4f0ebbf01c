// Package kv is the key-value substrate under the durable queue and the
// recovered auth artifacts.
package kv

import (
	"context"
	"errors"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/dbx"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	ListByPrefix(ctx context.Context, prefix string) (map[string][]byte, error)
	Clear(ctx context.Context) error

	// WithTx returns a repository bound to the given transactional handle.
	WithTx(tx dbx.DBTX) Repository
}
