package models

import "encoding/json"

// Side tags a flat measurement row with the body side it belongs to.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideCenter Side = "center"
)

// ParentRow is the denormalized parent record as stored remotely. The user
// id is carried on the row itself so remote row-level authorization never
// needs a join.
type ParentRow struct {
	ID         string          `json:"id"`
	Date       string          `json:"date"`
	Weight     float64         `json:"weight"`
	BodyFatPct float64         `json:"body_fat_pct"`
	Notes      string          `json:"notes"`
	Meta       json.RawMessage `json:"metadata"`
	UserID     string          `json:"user_id"`
}

// MeasurementRow is one flat, typed measurement value. Type is a dotted
// field path such as "arm.left" or "waist".
type MeasurementRow struct {
	RecordID string  `json:"record_id"`
	UserID   string  `json:"user_id"`
	Type     string  `json:"type"`
	Value    float64 `json:"value"`
	Side     Side    `json:"side"`
}

// PhotoRow is one flat photo reference row.
type PhotoRow struct {
	ID       string `json:"id"`
	RecordID string `json:"record_id"`
	UserID   string `json:"user_id"`
	URL      string `json:"url"`
	Angle    string `json:"angle"`
}
