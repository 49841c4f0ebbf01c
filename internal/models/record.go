// Package models defines the measurement record domain types and the flat
// row shapes used for remote storage.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Condition describes how the user felt at capture time.
type Condition string

const (
	ConditionRested Condition = "rested"
	ConditionNormal Condition = "normal"
	ConditionTired  Condition = "tired"
	ConditionSore   Condition = "sore"
)

// SyncState tracks where the authoritative copy of a record lives.
//
// Draft -> PendingSync -> Synced; edits on a Synced record re-enter
// PendingSync until the next successful save. Deleted is terminal.
type SyncState string

const (
	StateDraft       SyncState = "draft"
	StatePendingSync SyncState = "pending_sync"
	StateSynced      SyncState = "synced"
	StateDeleted     SyncState = "deleted"
)

// Pair is a bilateral measurement: independent left/right values in cm.
type Pair struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Measurements is the value object holding one capture session's numbers.
// Scalar fields are single values; the rest are left/right pairs.
type Measurements struct {
	Weight     float64 `json:"weight"`
	Neck       float64 `json:"neck"`
	Back       float64 `json:"back"`
	Chest      float64 `json:"chest"`
	Waist      float64 `json:"waist"`
	Hips       float64 `json:"hips"`
	BodyFatPct float64 `json:"bodyFatPct"`
	Height     float64 `json:"height"`

	Arm     Pair `json:"arm"`
	Forearm Pair `json:"forearm"`
	Wrist   Pair `json:"wrist"`
	Thigh   Pair `json:"thigh"`
	Calf    Pair `json:"calf"`
	Ankle   Pair `json:"ankle"`
}

// Meta carries capture context that is stored as a JSON blob remotely.
type Meta struct {
	Condition  Condition `json:"condition"`
	SleepHours float64   `json:"sleepHours"`
}

// Photo is a reference to an externally stored progress photo. The core
// never touches the image bytes, only the reference.
type Photo struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Angle     string    `json:"angle"`
	CreatedAt time.Time `json:"createdAt"`
}

// MeasurementRecord is a single capture session. The id is generated
// client-side at capture time and is stable across edits: re-saving with
// the same id is an upsert, never a new record.
type MeasurementRecord struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId,omitempty"`
	Date         string       `json:"date"` // calendar date, YYYY-MM-DD
	Measurements Measurements `json:"measurements"`
	Notes        string       `json:"notes,omitempty"`
	Meta         Meta         `json:"meta"`
	Photos       []Photo      `json:"photos,omitempty"`
	State        SyncState    `json:"state,omitempty"`
}

// NewRecord creates a Draft record for the given calendar date with a fresh
// client-generated id.
func NewRecord(date string) *MeasurementRecord {
	return &MeasurementRecord{
		ID:    uuid.NewString(),
		Date:  date,
		State: StateDraft,
	}
}
