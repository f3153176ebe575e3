package model

import (
    "fmt"
    "sort"
    "time"

    "MacroPull/internal/domain/models"
)

const stageScore = "score"

// FitOptions controls how a model is trained.
type FitOptions struct {
    Name         string
    Features     []string
    TestFraction float64
    Seed         int64
    Split        SplitStrategy
    Estimator    Estimator
}

// DefaultFitOptions is an 80/20 random split seeded with 42.
func DefaultFitOptions() FitOptions {
    return FitOptions{
        Name:         "crisis_ols",
        Features:     models.FeatureColumns(),
        TestFraction: 0.2,
        Seed:         42,
        Split:        SplitRandom,
        Estimator:    OLS{},
    }
}

func (o FitOptions) withDefaults() FitOptions {
    d := DefaultFitOptions()
    if o.Name == "" {
        o.Name = d.Name
    }
    if len(o.Features) == 0 {
        o.Features = d.Features
    }
    if o.TestFraction == 0 {
        o.TestFraction = d.TestFraction
    }
    if o.Split == "" {
        o.Split = d.Split
    }
    if o.Estimator == nil {
        o.Estimator = d.Estimator
    }
    return o
}

// Fit splits rows, trains on the train partition and scores both partitions.
// Scores are informational and never feed back into the fit.
func Fit(rows []models.FeatureRow, opts FitOptions) (models.RegressionModel, error) {
    opts = opts.withDefaults()
    minRows := len(opts.Features) + 2
    if len(rows) < minRows {
        return models.RegressionModel{}, fmt.Errorf("fit: %w: have %d, need %d", ErrInsufficientRows, len(rows), minRows)
    }

    x := make([][]float64, len(rows))
    y := make([]float64, len(rows))
    for i, r := range rows {
        f := r.Features()
        x[i] = make([]float64, len(opts.Features))
        for j, name := range opts.Features {
            v, ok := f[name]
            if !ok {
                return models.RegressionModel{}, &FeatureSchemaError{Stage: "fit", Row: i, Rows: len(rows), Missing: []string{name}}
            }
            x[i][j] = v
        }
        y[i] = r.Target
    }

    trainIdx, testIdx, err := Split(len(rows), opts.TestFraction, opts.Seed, opts.Split)
    if err != nil {
        return models.RegressionModel{}, fmt.Errorf("fit: %w", err)
    }
    trainX, trainY := gather(x, y, trainIdx)
    testX, testY := gather(x, y, testIdx)

    intercept, coef, err := opts.Estimator.Fit(trainX, trainY)
    if err != nil {
        return models.RegressionModel{}, fmt.Errorf("fit: %w", err)
    }

    m := models.RegressionModel{
        Name:         opts.Name,
        Features:     append([]string(nil), opts.Features...),
        Intercept:    intercept,
        Coefficients: make(map[string]float64, len(coef)),
        TrainedAt:    time.Now().UTC(),
        Report: models.FitReport{
            TrainRows:  len(trainIdx),
            TestRows:   len(testIdx),
            Split:      string(opts.Split),
            Seed:       opts.Seed,
            TrainScore: rSquared(predictAll(intercept, coef, trainX), trainY),
            TestScore:  rSquared(predictAll(intercept, coef, testX), testY),
        },
    }
    for j, name := range opts.Features {
        m.Coefficients[name] = coef[j]
    }
    return m, nil
}

// Score predicts one value per row. Each row must hold exactly the model's
// feature names; order does not matter. The model is never modified.
func Score(m models.RegressionModel, rows []map[string]float64) ([]float64, error) {
    coef := make([]float64, len(m.Features))
    for j, name := range m.Features {
        coef[j] = m.Coefficients[name]
    }
    out := make([]float64, len(rows))
    x := make([]float64, len(m.Features))
    for i, r := range rows {
        if err := checkSchema(m.Features, r, i, len(rows)); err != nil {
            return nil, err
        }
        for j, name := range m.Features {
            x[j] = r[name]
        }
        out[i] = predict(m.Intercept, coef, x)
    }
    return out, nil
}

// ScoreRows scores feature rows through their feature view.
func ScoreRows(m models.RegressionModel, rows []models.FeatureRow) ([]float64, error) {
    maps := make([]map[string]float64, len(rows))
    for i, r := range rows {
        maps[i] = r.Features()
    }
    return Score(m, maps)
}

func checkSchema(features []string, row map[string]float64, i, n int) error {
    want := make(map[string]struct{}, len(features))
    var missing []string
    for _, f := range features {
        want[f] = struct{}{}
        if _, ok := row[f]; !ok {
            missing = append(missing, f)
        }
    }
    var unexpected []string
    for k := range row {
        if _, ok := want[k]; !ok {
            unexpected = append(unexpected, k)
        }
    }
    if len(missing) == 0 && len(unexpected) == 0 {
        return nil
    }
    sort.Strings(unexpected)
    return &FeatureSchemaError{Stage: stageScore, Row: i, Rows: n, Missing: missing, Unexpected: unexpected}
}

func gather(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
    gx := make([][]float64, len(idx))
    gy := make([]float64, len(idx))
    for i, k := range idx {
        gx[i] = x[k]
        gy[i] = y[k]
    }
    return gx, gy
}

func predictAll(intercept float64, coef []float64, x [][]float64) []float64 {
    out := make([]float64, len(x))
    for i, r := range x {
        out[i] = predict(intercept, coef, r)
    }
    return out
}
