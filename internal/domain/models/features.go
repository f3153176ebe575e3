package models

import "time"

// Feature table column names. These are the stable contract shared with the
// persistence layer and the model.
const (
	ColDate            = "date"
	ColTarget          = "target"
	ColTargetLag1      = "target_lag1"
	ColDriverClose     = "driver_close"
	ColDriverPctChange = "driver_pct_change"
)

// FeatureColumns are the model inputs, in canonical order.
func FeatureColumns() []string {
	return []string{ColTargetLag1, ColDriverPctChange}
}

// NamedValue is a pass-through source column carried into a feature row.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FeatureRow is one complete, model-ready record.
type FeatureRow struct {
	Timestamp       time.Time    `json:"date"`
	Target          float64      `json:"target"`
	TargetLag1      float64      `json:"target_lag1"`
	DriverClose     float64      `json:"driver_close"`
	DriverPctChange float64      `json:"driver_pct_change"`
	PassThrough     []NamedValue `json:"pass_through,omitempty"`
}

// Features returns the feature-only view used for fitting and scoring.
func (r FeatureRow) Features() map[string]float64 {
	return map[string]float64{
		ColTargetLag1:      r.TargetLag1,
		ColDriverPctChange: r.DriverPctChange,
	}
}

// FeatureTable is the persisted output of one pipeline run.
type FeatureTable struct {
	RunID       string       `json:"run_id"`
	SeriesID    string       `json:"series_id"`
	Symbol      string       `json:"symbol"`
	BuiltAt     time.Time    `json:"built_at"`
	PassThrough []string     `json:"pass_through,omitempty"`
	Rows        []FeatureRow `json:"rows"`
}

// Header is the artifact column order.
func (t FeatureTable) Header() []string {
	h := []string{ColDate, ColTarget, ColTargetLag1, ColDriverClose, ColDriverPctChange}
	return append(h, t.PassThrough...)
}

// Latest returns the most recent row.
func (t FeatureTable) Latest() (FeatureRow, bool) {
	if len(t.Rows) == 0 {
		return FeatureRow{}, false
	}
	return t.Rows[len(t.Rows)-1], true
}
