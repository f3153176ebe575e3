package model

import (
    "math"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "MacroPull/internal/domain/models"
)

func linearRows(n int) []models.FeatureRow {
    rows := make([]models.FeatureRow, n)
    for i := range rows {
        lag := 100 + float64(i)
        pct := math.Sin(float64(i))
        rows[i] = models.FeatureRow{
            Timestamp:       time.Date(2020, time.Month(1+i%12), 1, 0, 0, 0, 0, time.UTC).AddDate(i/12, 0, 0),
            TargetLag1:      lag,
            DriverPctChange: pct,
            Target:          5 + 2*lag + 3*pct,
        }
    }
    return rows
}

func TestFitRecoversLinearRelation(t *testing.T) {
    m, err := Fit(linearRows(20), DefaultFitOptions())
    require.NoError(t, err)

    assert.InDelta(t, 5, m.Intercept, 1e-6)
    assert.InDelta(t, 2, m.Coefficients[models.ColTargetLag1], 1e-8)
    assert.InDelta(t, 3, m.Coefficients[models.ColDriverPctChange], 1e-8)
    assert.Equal(t, 16, m.Report.TrainRows)
    assert.Equal(t, 4, m.Report.TestRows)
    assert.InDelta(t, 1, m.Report.TrainScore, 1e-9)
    assert.InDelta(t, 1, m.Report.TestScore, 1e-9)
    assert.Equal(t, "random", m.Report.Split)
    assert.Equal(t, int64(42), m.Report.Seed)
}

func TestFitIsDeterministicForSeed(t *testing.T) {
    rows := linearRows(15)
    for i := range rows {
        rows[i].Target += math.Cos(float64(i * 7))
    }
    a, err := Fit(rows, DefaultFitOptions())
    require.NoError(t, err)
    b, err := Fit(rows, DefaultFitOptions())
    require.NoError(t, err)
    assert.Equal(t, a.Coefficients, b.Coefficients)
    assert.Equal(t, a.Intercept, b.Intercept)
    assert.Equal(t, a.Report, b.Report)
}

func TestFitZeroOptionsHoldsOutDefaultFraction(t *testing.T) {
    m, err := Fit(linearRows(20), FitOptions{})
    require.NoError(t, err)
    assert.Equal(t, 16, m.Report.TrainRows)
    assert.Equal(t, 4, m.Report.TestRows)
    assert.Equal(t, "random", m.Report.Split)
}

func TestFitInsufficientRows(t *testing.T) {
    _, err := Fit(linearRows(3), DefaultFitOptions())
    assert.ErrorIs(t, err, ErrInsufficientRows)
}

func TestFitSingularDesign(t *testing.T) {
    rows := linearRows(10)
    for i := range rows {
        rows[i].DriverPctChange = 0.5
    }
    _, err := Fit(rows, FitOptions{Split: SplitChronological, TestFraction: 0.2})
    assert.Error(t, err)
}

func TestSplitStrategies(t *testing.T) {
    train, test, err := Split(10, 0.2, 42, SplitRandom)
    require.NoError(t, err)
    assert.Len(t, train, 8)
    assert.Len(t, test, 2)
    assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, append(append([]int{}, train...), test...))

    again, againTest, err := Split(10, 0.2, 42, SplitRandom)
    require.NoError(t, err)
    assert.Equal(t, train, again)
    assert.Equal(t, test, againTest)

    train, test, err = Split(10, 0.2, 42, SplitChronological)
    require.NoError(t, err)
    assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, train)
    assert.Equal(t, []int{8, 9}, test)

    _, _, err = Split(10, 1.5, 42, SplitRandom)
    assert.Error(t, err)
    _, _, err = Split(10, 0.2, 42, "weird")
    assert.Error(t, err)
}

func TestChronologicalSplitTestsOnLatestRows(t *testing.T) {
    rows := linearRows(12)
    m, err := Fit(rows, FitOptions{Split: SplitChronological, TestFraction: 0.25})
    require.NoError(t, err)
    assert.Equal(t, 9, m.Report.TrainRows)
    assert.Equal(t, 3, m.Report.TestRows)
    assert.Equal(t, "chronological", m.Report.Split)
}

func TestScore(t *testing.T) {
    m := models.RegressionModel{
        Features:     []string{models.ColTargetLag1, models.ColDriverPctChange},
        Intercept:    1,
        Coefficients: map[string]float64{models.ColTargetLag1: 2, models.ColDriverPctChange: 10},
    }

    got, err := Score(m, []map[string]float64{
        {models.ColDriverPctChange: 0.5, models.ColTargetLag1: 3},
        {models.ColTargetLag1: 0, models.ColDriverPctChange: 0},
    })
    require.NoError(t, err)
    assert.Equal(t, []float64{12, 1}, got)

    rows := []models.FeatureRow{{TargetLag1: 3, DriverPctChange: 0.5}}
    got, err = ScoreRows(m, rows)
    require.NoError(t, err)
    assert.Equal(t, []float64{12}, got)
}

func TestScoreFeatureSchemaMismatch(t *testing.T) {
    m := models.RegressionModel{
        Features:     []string{models.ColTargetLag1, models.ColDriverPctChange},
        Coefficients: map[string]float64{models.ColTargetLag1: 1, models.ColDriverPctChange: 1},
    }
    cases := map[string]struct {
        row        map[string]float64
        missing    []string
        unexpected []string
    }{
        "missing":    {map[string]float64{models.ColTargetLag1: 1}, []string{models.ColDriverPctChange}, nil},
        "unexpected": {map[string]float64{models.ColTargetLag1: 1, models.ColDriverPctChange: 1, "extra": 2}, nil, []string{"extra"}},
        "renamed":    {map[string]float64{"lag": 1, models.ColDriverPctChange: 1}, []string{models.ColTargetLag1}, []string{"lag"}},
    }
    for name, c := range cases {
        t.Run(name, func(t *testing.T) {
            _, err := Score(m, []map[string]float64{{models.ColTargetLag1: 0, models.ColDriverPctChange: 0}, c.row})
            require.Error(t, err)
            assert.ErrorIs(t, err, ErrFeatureSchema)
            var fse *FeatureSchemaError
            require.ErrorAs(t, err, &fse)
            assert.Equal(t, 1, fse.Row)
            assert.Equal(t, 2, fse.Rows)
            assert.Equal(t, c.missing, fse.Missing)
            assert.Equal(t, c.unexpected, fse.Unexpected)
        })
    }
}

func TestScoreIsPure(t *testing.T) {
    m, err := Fit(linearRows(12), DefaultFitOptions())
    require.NoError(t, err)
    before := m.Coefficients[models.ColTargetLag1]
    in := []map[string]float64{{models.ColTargetLag1: 110, models.ColDriverPctChange: 0.1}}
    a, err := Score(m, in)
    require.NoError(t, err)
    b, err := Score(m, in)
    require.NoError(t, err)
    assert.Equal(t, a, b)
    assert.Equal(t, before, m.Coefficients[models.ColTargetLag1])
}

func TestAssess(t *testing.T) {
    high, msg := Assess(17999, DefaultCrisisThreshold)
    assert.True(t, high)
    assert.Equal(t, MessageHighRisk, msg)

    high, msg = Assess(18000, DefaultCrisisThreshold)
    assert.False(t, high)
    assert.Equal(t, MessageNoRisk, msg)
}
