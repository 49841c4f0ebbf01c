package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	r := NewRecord("2024-01-01")

	_, err := uuid.Parse(r.ID)
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", r.Date)
	require.Equal(t, StateDraft, r.State)

	r2 := NewRecord("2024-01-01")
	require.NotEqual(t, r.ID, r2.ID)
}

func TestIdentity_Valid(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		id   *Identity
		want bool
	}{
		{"nil identity", nil, false},
		{"empty token", &Identity{UserID: "u1"}, false},
		{"no user id", &Identity{AccessToken: "t"}, false},
		{"unknown expiry trusted", &Identity{UserID: "u1", AccessToken: "t"}, true},
		{"unexpired", &Identity{UserID: "u1", AccessToken: "t", ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", &Identity{UserID: "u1", AccessToken: "t", ExpiresAt: now.Add(-time.Minute)}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.id.Valid(now))
		})
	}
}
