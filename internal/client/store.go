// Package client talks to the remote record store over its HTTP collection
// API and classifies every failure into a closed error set.
package client

import (
	"context"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/models"
)

// Store is the remote persistence port. Begin opens a logical operation
// (one multi-step save, one delete, one fetch) carrying the caller's
// identity and the operation-scoped transport state.
type Store interface {
	Begin(id *models.Identity) Operation
}

// Operation exposes the remote primitives. None of them retry; retry policy
// belongs to the orchestrator. All of them respect the per-call hard
// ceiling and the operation's dual-transport state.
type Operation interface {
	UpsertParent(ctx context.Context, row models.ParentRow) error
	DeleteMeasurements(ctx context.Context, recordID string) error
	DeletePhotos(ctx context.Context, recordID string) error
	InsertMeasurements(ctx context.Context, rows []models.MeasurementRow) error
	InsertPhotos(ctx context.Context, rows []models.PhotoRow) error
	DeleteParent(ctx context.Context, recordID string) error
	ListRecords(ctx context.Context, userID string) ([]models.ParentRow, []models.MeasurementRow, []models.PhotoRow, error)
}

// TokenClient redeems refresh material against the auth endpoint. Used by
// the session resolver's recovery tier.
type TokenClient interface {
	RefreshSession(ctx context.Context, refreshToken string) (*models.Identity, error)
}
