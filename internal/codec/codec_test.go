package codec

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/models"
)

func fullRecord() *models.MeasurementRecord {
	return &models.MeasurementRecord{
		ID:     "8b2e1c1a-6a3f-4e56-9a70-1f1c3f9b0d11",
		UserID: "user-1",
		Date:   "2024-01-02",
		Measurements: models.Measurements{
			Weight:     80.5,
			Neck:       38,
			Back:       110,
			Chest:      100,
			Waist:      82,
			Hips:       95,
			BodyFatPct: 15.2,
			Height:     180,
			Arm:        models.Pair{Left: 35, Right: 35.5},
			Forearm:    models.Pair{Left: 28, Right: 28},
			Wrist:      models.Pair{Left: 17, Right: 17},
			Thigh:      models.Pair{Left: 58, Right: 57.5},
			Calf:       models.Pair{Left: 38, Right: 38},
			Ankle:      models.Pair{Left: 22, Right: 22},
		},
		Notes: "morning, fasted",
		Meta:  models.Meta{Condition: models.ConditionNormal, SleepHours: 7.5},
		Photos: []models.Photo{
			{ID: "p1", URL: "https://cdn.example/p1.jpg", Angle: "front"},
		},
		State: models.StateSynced,
	}
}

func TestEncode_RowsCarryOwnerAndPaths(t *testing.T) {
	rec := fullRecord()

	parent, mrows, prows, err := Encode(rec)
	require.NoError(t, err)

	require.Equal(t, rec.ID, parent.ID)
	require.Equal(t, "user-1", parent.UserID)
	require.Equal(t, 80.5, parent.Weight)
	require.Equal(t, 15.2, parent.BodyFatPct)

	// 6 scalars + 6 pairs * 2 sides
	require.Len(t, mrows, 18)
	for _, row := range mrows {
		require.Equal(t, rec.ID, row.RecordID)
		require.Equal(t, "user-1", row.UserID)
	}

	byType := map[string]models.MeasurementRow{}
	for _, row := range mrows {
		byType[row.Type] = row
	}
	require.Equal(t, models.SideCenter, byType["waist"].Side)
	require.Equal(t, models.SideLeft, byType["arm.left"].Side)
	require.Equal(t, 35.5, byType["arm.right"].Value)

	require.Len(t, prows, 1)
	require.Equal(t, rec.ID, prows[0].RecordID)
	require.Equal(t, "user-1", prows[0].UserID)
}

func TestEncode_SkipsZeroFields(t *testing.T) {
	rec := models.NewRecord("2024-01-01")
	rec.Measurements.Weight = 80

	_, mrows, prows, err := Encode(rec)
	require.NoError(t, err)
	require.Empty(t, mrows)
	require.Empty(t, prows)
}

func TestEncode_PairEmitsBothSides(t *testing.T) {
	rec := models.NewRecord("2024-01-01")
	rec.Measurements.Arm.Left = 35

	_, mrows, _, err := Encode(rec)
	require.NoError(t, err)
	require.Len(t, mrows, 2)
	require.Equal(t, "arm.left", mrows[0].Type)
	require.Equal(t, "arm.right", mrows[1].Type)
	require.Equal(t, 0.0, mrows[1].Value)
}

func TestDecode_RoundTrip(t *testing.T) {
	rec := fullRecord()

	parent, mrows, prows, err := Encode(rec)
	require.NoError(t, err)

	got := Decode(parent, mrows, prows)
	require.Equal(t, rec, got)
}

func TestDecode_PartialRowsDefaultToZero(t *testing.T) {
	parent := models.ParentRow{ID: "r1", UserID: "u1", Date: "2024-01-01", Weight: 80}

	got := Decode(parent, []models.MeasurementRow{
		{RecordID: "r1", Type: "arm.left", Value: 35, Side: models.SideLeft},
		{RecordID: "r1", Type: "unknown.path", Value: 1, Side: models.SideLeft},
		{RecordID: "r1", Type: "bogus", Value: 2, Side: models.SideCenter},
	}, nil)

	require.Equal(t, models.Pair{Left: 35, Right: 0}, got.Measurements.Arm)
	require.Equal(t, models.Pair{}, got.Measurements.Calf)
	require.Equal(t, 0.0, got.Measurements.Neck)
	require.Equal(t, 80.0, got.Measurements.Weight)
}

func TestDecode_BadMetadataDegrades(t *testing.T) {
	parent := models.ParentRow{ID: "r1", Date: "2024-01-01", Meta: []byte(`{not json`)}

	got := Decode(parent, nil, nil)
	require.Equal(t, models.Meta{}, got.Meta)
	require.Equal(t, "r1", got.ID)
}

func TestEncode_WireShapeGolden(t *testing.T) {
	parent, mrows, prows, err := Encode(fullRecord())
	require.NoError(t, err)

	g := goldie.New(t)
	g.AssertJson(t, "encode_full", struct {
		Parent       models.ParentRow        `json:"parent"`
		Measurements []models.MeasurementRow `json:"measurements"`
		Photos       []models.PhotoRow       `json:"photos"`
	}{parent, mrows, prows})
}
