// Package codec maps the nested measurement record to and from the flat
// typed rows the remote store keeps.
//
// Encoding walks a fixed, explicit list of known field paths rather than
// reflecting over the struct, so schema drift in the domain object can never
// silently change the wire shape. Decoding folds rows into a measurements
// object seeded with zero values for every field, so partial row sets decode
// cleanly instead of failing.
package codec

import (
	"encoding/json"
	"strings"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/models"
)

type scalarField struct {
	path string
	get  func(m *models.Measurements) float64
	set  func(m *models.Measurements, v float64)
}

type pairField struct {
	path string
	get  func(m *models.Measurements) *models.Pair
}

// The two lists below are the wire schema. Weight and body-fat live on the
// parent row, not here.
var scalarFields = []scalarField{
	{"neck", func(m *models.Measurements) float64 { return m.Neck }, func(m *models.Measurements, v float64) { m.Neck = v }},
	{"back", func(m *models.Measurements) float64 { return m.Back }, func(m *models.Measurements, v float64) { m.Back = v }},
	{"chest", func(m *models.Measurements) float64 { return m.Chest }, func(m *models.Measurements, v float64) { m.Chest = v }},
	{"waist", func(m *models.Measurements) float64 { return m.Waist }, func(m *models.Measurements, v float64) { m.Waist = v }},
	{"hips", func(m *models.Measurements) float64 { return m.Hips }, func(m *models.Measurements, v float64) { m.Hips = v }},
	{"height", func(m *models.Measurements) float64 { return m.Height }, func(m *models.Measurements, v float64) { m.Height = v }},
}

var pairFields = []pairField{
	{"arm", func(m *models.Measurements) *models.Pair { return &m.Arm }},
	{"forearm", func(m *models.Measurements) *models.Pair { return &m.Forearm }},
	{"wrist", func(m *models.Measurements) *models.Pair { return &m.Wrist }},
	{"thigh", func(m *models.Measurements) *models.Pair { return &m.Thigh }},
	{"calf", func(m *models.Measurements) *models.Pair { return &m.Calf }},
	{"ankle", func(m *models.Measurements) *models.Pair { return &m.Ankle }},
}

// Encode flattens a record into its parent row plus child measurement and
// photo rows. Zero-valued fields emit no rows; a pair with either side set
// emits both sides so the remote copy is never half a pair.
func Encode(rec *models.MeasurementRecord) (models.ParentRow, []models.MeasurementRow, []models.PhotoRow, error) {
	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return models.ParentRow{}, nil, nil, err
	}

	parent := models.ParentRow{
		ID:         rec.ID,
		Date:       rec.Date,
		Weight:     rec.Measurements.Weight,
		BodyFatPct: rec.Measurements.BodyFatPct,
		Notes:      rec.Notes,
		Meta:       meta,
		UserID:     rec.UserID,
	}

	m := rec.Measurements
	mrows := make([]models.MeasurementRow, 0, len(scalarFields)+2*len(pairFields))

	for _, f := range scalarFields {
		v := f.get(&m)
		if v == 0 {
			continue
		}
		mrows = append(mrows, models.MeasurementRow{
			RecordID: rec.ID,
			UserID:   rec.UserID,
			Type:     f.path,
			Value:    v,
			Side:     models.SideCenter,
		})
	}

	for _, f := range pairFields {
		p := f.get(&m)
		if p.Left == 0 && p.Right == 0 {
			continue
		}
		mrows = append(mrows,
			models.MeasurementRow{
				RecordID: rec.ID,
				UserID:   rec.UserID,
				Type:     f.path + ".left",
				Value:    p.Left,
				Side:     models.SideLeft,
			},
			models.MeasurementRow{
				RecordID: rec.ID,
				UserID:   rec.UserID,
				Type:     f.path + ".right",
				Value:    p.Right,
				Side:     models.SideRight,
			},
		)
	}

	prows := make([]models.PhotoRow, 0, len(rec.Photos))
	for _, p := range rec.Photos {
		prows = append(prows, models.PhotoRow{
			ID:       p.ID,
			RecordID: rec.ID,
			UserID:   rec.UserID,
			URL:      p.URL,
			Angle:    p.Angle,
		})
	}

	return parent, mrows, prows, nil
}

// Decode rebuilds a record from its rows. Missing rows leave the
// corresponding fields at zero, unknown type paths are skipped, and a
// malformed metadata blob degrades to the zero Meta. Decode never fails.
func Decode(parent models.ParentRow, mrows []models.MeasurementRow, prows []models.PhotoRow) *models.MeasurementRecord {
	rec := &models.MeasurementRecord{
		ID:     parent.ID,
		UserID: parent.UserID,
		Date:   parent.Date,
		Notes:  parent.Notes,
		State:  models.StateSynced,
	}
	rec.Measurements.Weight = parent.Weight
	rec.Measurements.BodyFatPct = parent.BodyFatPct

	if len(parent.Meta) > 0 {
		// best effort: a bad blob must not sink the whole record
		_ = json.Unmarshal(parent.Meta, &rec.Meta)
	}

	for _, row := range mrows {
		base, side, hasSide := strings.Cut(row.Type, ".")

		if !hasSide {
			for _, f := range scalarFields {
				if f.path == base {
					f.set(&rec.Measurements, row.Value)
					break
				}
			}
			continue
		}

		for _, f := range pairFields {
			if f.path != base {
				continue
			}
			p := f.get(&rec.Measurements)
			switch {
			case side == "left" || row.Side == models.SideLeft:
				p.Left = row.Value
			case side == "right" || row.Side == models.SideRight:
				p.Right = row.Value
			}
			break
		}
	}

	if len(prows) > 0 {
		rec.Photos = make([]models.Photo, 0, len(prows))
		for _, p := range prows {
			rec.Photos = append(rec.Photos, models.Photo{
				ID:    p.ID,
				URL:   p.URL,
				Angle: p.Angle,
			})
		}
	}

	return rec
}
