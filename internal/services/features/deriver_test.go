package features

import (
    "encoding/json"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "MacroPull/internal/domain/models"
)

func table(cols []string, rows ...models.AlignedRow) models.AlignedTable {
    return models.AlignedTable{Columns: cols, Rows: rows}
}

func row(ts int, vals ...any) models.AlignedRow {
    r := models.AlignedRow{Timestamp: day(2020, 1, 1).AddDate(0, ts, 0)}
    for _, v := range vals {
        if f, ok := v.(float64); ok {
            r.Values = append(r.Values, models.Some(f))
        } else {
            r.Values = append(r.Values, models.Missing())
        }
    }
    return r
}

func TestForwardFillRespectsLimit(t *testing.T) {
    in := table([]string{"a"},
        row(0, nil),
        row(1, 1.0),
        row(2, nil),
        row(3, nil),
        row(4, 2.0),
    )

    got, filled := ForwardFill(in, 1)
    assert.Equal(t, 1, filled)
    assert.False(t, got.Rows[0].Values[0].Valid, "leading gap stays missing")
    assert.Equal(t, models.Some(1), got.Rows[2].Values[0])
    assert.False(t, got.Rows[3].Values[0].Valid)

    got, filled = ForwardFill(in, 0)
    assert.Equal(t, 2, filled)
    assert.Equal(t, models.Some(1), got.Rows[3].Values[0])

    assert.False(t, in.Rows[2].Values[0].Valid, "input untouched")
}

func TestDeriveScenario(t *testing.T) {
    in := table([]string{"GDPC1", "Close"},
        models.AlignedRow{Timestamp: day(2020, 1, 31), Values: []models.Value{models.Some(100), models.Some(50)}},
        models.AlignedRow{Timestamp: day(2020, 2, 29), Values: []models.Value{models.Some(102), models.Some(56)}},
    )

    res, err := BuildFeatures(in, DeriveOptions{TargetColumn: "GDPC1", DriverColumn: "Close", FillLimit: 1})
    require.NoError(t, err)
    require.Len(t, res.Rows, 1)
    r := res.Rows[0]
    assert.Equal(t, day(2020, 2, 29), r.Timestamp)
    assert.Equal(t, 102.0, r.Target)
    assert.Equal(t, 100.0, r.TargetLag1)
    assert.Equal(t, 56.0, r.DriverClose)
    assert.InDelta(t, 0.12, r.DriverPctChange, 1e-12)
    assert.Equal(t, 1, res.DroppedDerived)
}

func TestDeriveLagUsesPreviousAlignedRow(t *testing.T) {
    in := table([]string{"y", "px", "vol"},
        row(0, 10.0, 100.0, 1.0),
        row(1, 11.0, 110.0, nil),
        row(2, nil, 120.0, nil),
        row(5, 13.0, 150.0, nil),
        row(6, 14.0, 0.0, 4.0),
        row(7, 15.0, 10.0, 5.0),
    )

    res, err := BuildFeatures(in, DeriveOptions{TargetColumn: "y", DriverColumn: "px", FillLimit: 1})
    require.NoError(t, err)
    assert.Equal(t, []string{"vol"}, res.PassThrough)

    // vol is filled only in month 1, so months 2 and 5 never become complete.
    byMonth := map[int]models.FeatureRow{}
    for _, r := range res.Rows {
        byMonth[int(r.Timestamp.Month())-1] = r
    }
    require.Len(t, res.Rows, 2)
    assert.Equal(t, 10.0, byMonth[1].TargetLag1)
    assert.InDelta(t, 0.1, byMonth[1].DriverPctChange, 1e-12)
    assert.Equal(t, 11.0, byMonth[6].TargetLag1, "previous means prior aligned row, not calendar month")
    assert.InDelta(t, (0.0-110.0)/110.0, byMonth[6].DriverPctChange, 1e-12)
    _, ok := byMonth[7]
    assert.False(t, ok, "zero previous driver makes pct change missing")
}

func TestDeriveLagReadsDroppedAlignedRow(t *testing.T) {
    in := table([]string{"y", "px"},
        row(0, 100.0, 10.0),
        row(1, 101.0, 0.0),
        row(2, 102.0, 11.0),
        row(3, 103.0, 12.0),
    )

    res, err := BuildFeatures(in, DeriveOptions{TargetColumn: "y", DriverColumn: "px"})
    require.NoError(t, err)
    require.Len(t, res.Rows, 2)

    assert.Equal(t, 101.0, res.Rows[0].Target)
    assert.Equal(t, 100.0, res.Rows[0].TargetLag1)
    assert.InDelta(t, -1.0, res.Rows[0].DriverPctChange, 1e-12)

    // Month 2 is dropped for its missing pct change, yet still feeds month 3's lag.
    assert.Equal(t, 103.0, res.Rows[1].Target)
    assert.Equal(t, 102.0, res.Rows[1].TargetLag1)
    assert.InDelta(t, 1.0/11.0, res.Rows[1].DriverPctChange, 1e-12)
}

func TestDeriveCompletenessInvariant(t *testing.T) {
    in := table([]string{"y", "px"},
        row(0, nil, 1.0),
        row(1, 2.0, nil),
        row(2, 3.0, 3.0),
        row(3, 4.0, 0.0),
        row(4, 5.0, 5.0),
        row(5, 6.0, 6.0),
    )
    cands, pass, err := Derive(in, DeriveOptions{TargetColumn: "y", DriverColumn: "px"})
    require.NoError(t, err)
    rows := DropIncomplete(cands, pass)
    for _, c := range cands {
        kept := false
        for _, r := range rows {
            if r.Timestamp.Equal(c.Timestamp) {
                kept = true
            }
        }
        assert.Equal(t, c.Complete(), kept, c.Timestamp)
    }
    require.Len(t, rows, 2)
    assert.Equal(t, 3.0, rows[0].TargetLag1)
    assert.Equal(t, 5.0, rows[1].TargetLag1)
}

func TestDeriveUnknownColumns(t *testing.T) {
    in := table([]string{"y", "px"}, row(0, 1.0, 1.0))
    _, err := BuildFeatures(in, DeriveOptions{TargetColumn: "z", DriverColumn: "px"})
    require.Error(t, err)
    _, err = BuildFeatures(in, DeriveOptions{TargetColumn: "y", DriverColumn: "y"})
    require.Error(t, err)
}

func TestDeriveNoCompleteRows(t *testing.T) {
    in := table([]string{"y", "px"}, row(0, 1.0, 1.0))
    _, err := BuildFeatures(in, DeriveOptions{TargetColumn: "y", DriverColumn: "px"})
    assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestBuildScenarioFromRawTables(t *testing.T) {
    indicator := rawTable("fred:GDPC1", []string{"date", "GDPC1"},
        []any{"2020-01-31", "100"},
        []any{"2020-02-29", "102"},
    )
    prices := rawTable("av:SPY", []string{"date", "Open", "Close"},
        []any{"2020-02-28", "55", "56"},
        []any{"2020-02-27", "54", "55"},
        []any{"2020-01-30", "49", "50"},
    )
    opts := Options{
        Prices:       NormalizeOptions{ValueColumns: []string{"Close"}},
        TargetColumn: "GDPC1",
        DriverColumn: "Close",
        FillLimit:    1,
    }

    res, err := Build(indicator, prices, opts)
    require.NoError(t, err)
    require.Len(t, res.Features.Rows, 1)
    assert.Equal(t, map[string]float64{"target_lag1": 100, "driver_pct_change": res.Features.Rows[0].DriverPctChange}, res.Features.Rows[0].Features())
    assert.InDelta(t, 0.12, res.Features.Rows[0].DriverPctChange, 1e-12)
    assert.Equal(t, 102.0, res.Features.Rows[0].Target)
}

func TestBuildIsIdempotent(t *testing.T) {
    indicator := rawTable("fred:GDPC1", []string{"date", "GDPC1"},
        []any{"2020-03-31", "101"},
        []any{"2020-01-31", "100"},
        []any{"2020-02-29", "."},
        []any{"2020-04-30", "103"},
        []any{"2020-04-30", "104"},
    )
    prices := rawTable("av:SPY", []string{"date", "Close", "Volume"},
        []any{"2020-04-29", "60", "1000"},
        []any{"2020-03-30", "52", "900"},
        []any{"2020-02-28", "56", "800"},
        []any{"2020-01-30", "50", "700"},
    )
    opts := Options{TargetColumn: "GDPC1", DriverColumn: "Close", FillLimit: 1}

    first, err := Build(indicator, prices, opts)
    require.NoError(t, err)
    second, err := Build(indicator, prices, opts)
    require.NoError(t, err)

    a, err := json.Marshal(first.Aligned)
    require.NoError(t, err)
    b, err := json.Marshal(second.Aligned)
    require.NoError(t, err)
    assert.Equal(t, string(a), string(b))

    a, err = json.Marshal(first.Features.Rows)
    require.NoError(t, err)
    b, err = json.Marshal(second.Features.Rows)
    require.NoError(t, err)
    assert.Equal(t, string(a), string(b))
    assert.Equal(t, []string{"Volume"}, first.Features.PassThrough)
}
