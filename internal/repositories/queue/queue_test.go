package queue

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS kv (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
DELETE FROM kv;
`)
	require.NoError(t, err)
	return db
}

func rec(id, date string, weight float64) *models.MeasurementRecord {
	r := &models.MeasurementRecord{ID: id, Date: date, State: models.StatePendingSync}
	r.Measurements.Weight = weight
	return r
}

func TestPut_AppendsInOrder(t *testing.T) {
	q := NewSQLiteQueue(setupDB(t, "queue_append"))
	ctx := context.Background()

	require.NoError(t, q.Put(ctx, rec("a", "2024-01-01", 80)))
	require.NoError(t, q.Put(ctx, rec("b", "2024-01-02", 81)))

	got, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, "b", got[1].ID)
}

func TestPut_ReplacesById(t *testing.T) {
	q := NewSQLiteQueue(setupDB(t, "queue_replace_id"))
	ctx := context.Background()

	require.NoError(t, q.Put(ctx, rec("a", "2024-01-01", 80)))
	require.NoError(t, q.Put(ctx, rec("a", "2024-01-01", 82.5)))

	got, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 82.5, got[0].Measurements.Weight)
}

func TestRemove(t *testing.T) {
	q := NewSQLiteQueue(setupDB(t, "queue_remove"))
	ctx := context.Background()

	require.NoError(t, q.Put(ctx, rec("a", "2024-01-01", 80)))
	require.NoError(t, q.Put(ctx, rec("b", "2024-01-02", 81)))
	require.NoError(t, q.Remove(ctx, "a"))

	got, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].ID)

	// removing an absent id is a no-op
	require.NoError(t, q.Remove(ctx, "missing"))
}

func TestRemove_LastEntryClearsKey(t *testing.T) {
	db := setupDB(t, "queue_clear")
	q := NewSQLiteQueue(db)
	ctx := context.Background()

	require.NoError(t, q.Put(ctx, rec("a", "2024-01-01", 80)))
	require.NoError(t, q.Remove(ctx, "a"))

	got, err := q.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, got)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kv WHERE key = ?`, StorageKey).Scan(&n))
	require.Equal(t, 0, n)
}

func TestLoad_EmptyQueue(t *testing.T) {
	q := NewSQLiteQueue(setupDB(t, "queue_empty"))

	got, err := q.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)

	n, err := q.Len(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestLoad_RoundTripsFullRecord(t *testing.T) {
	q := NewSQLiteQueue(setupDB(t, "queue_roundtrip"))
	ctx := context.Background()

	r := rec("a", "2024-01-01", 80)
	r.Notes = "after run"
	r.Measurements.Arm = models.Pair{Left: 35, Right: 35.5}
	r.Meta = models.Meta{Condition: models.ConditionTired, SleepHours: 6}

	require.NoError(t, q.Put(ctx, r))

	got, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, *r, got[0])
}
