package models

import "time"

// FitReport carries goodness-of-fit scores. Informational only.
type FitReport struct {
	TrainScore float64 `json:"train_score"`
	TestScore  float64 `json:"test_score"`
	TrainRows  int     `json:"train_rows"`
	TestRows   int     `json:"test_rows"`
	Split      string  `json:"split"`
	Seed       int64   `json:"seed"`
}

// RegressionModel is a fitted linear mapping from named features to the target.
type RegressionModel struct {
	Name         string             `json:"name"`
	Features     []string           `json:"features"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	TrainedAt    time.Time          `json:"trained_at"`
	Report       FitReport          `json:"report"`
}

// Prediction is a scored feature row with the crisis-risk verdict.
type Prediction struct {
	RunID     string    `json:"run_id"`
	SeriesID  string    `json:"series_id"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"date"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	HighRisk  bool      `json:"high_risk"`
	Message   string    `json:"message"`
}
