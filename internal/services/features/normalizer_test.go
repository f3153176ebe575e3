package features

import (
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "MacroPull/internal/domain/models"
)

func TestNormalizeSortsAndDeduplicates(t *testing.T) {
    raw := rawTable("fred", []string{"date", "GDPC1"},
        []any{"2020-02-29", "102"},
        []any{"2020-01-31", 100.0},
        []any{"2020-02-29", "103.5"},
    )

    res, err := Normalize(raw, NormalizeOptions{TimestampColumn: "date"})
    require.NoError(t, err)
    require.Len(t, res.Series, 1)

    s := res.Series[0]
    assert.Equal(t, "GDPC1", s.Name)
    require.Equal(t, 2, s.Len())
    assert.Equal(t, day(2020, 1, 31), s.Observations[0].Timestamp)
    assert.Equal(t, day(2020, 2, 29), s.Observations[1].Timestamp)
    assert.Equal(t, models.Some(103.5), s.Observations[1].Value, "last-seen duplicate wins")
    assert.Equal(t, 1, res.Duplicates)
}

func TestNormalizeSkipsUnparsableTimestamps(t *testing.T) {
    raw := rawTable("fred", []string{"date", "v"},
        []any{"2020-01-31", "1"},
        []any{"garbage", "2"},
        []any{nil, "3"},
        []any{"2020-02-29", "4"},
    )

    res, err := Normalize(raw, NormalizeOptions{})
    require.NoError(t, err)
    assert.Equal(t, 4, res.RowsIn)
    assert.Equal(t, 2, res.SkippedRows)
    require.Len(t, res.ParseErrors, 2)
    assert.Equal(t, 1, res.ParseErrors[0].Row)
    assert.Equal(t, "garbage", res.ParseErrors[0].Cell)
    assert.Equal(t, 2, res.Series[0].Len())

    var pe *ParseError
    assert.True(t, errors.As(res.ParseErrors[1], &pe))
}

func TestNormalizeSkipsCompactDigitDates(t *testing.T) {
    raw := rawTable("fred", []string{"date", "v"},
        []any{"20200131", "1"},
        []any{"2020-02-29", "2"},
    )

    res, err := Normalize(raw, NormalizeOptions{})
    require.NoError(t, err)
    assert.Equal(t, 1, res.SkippedRows)
    require.Len(t, res.ParseErrors, 1)
    assert.Equal(t, "20200131", res.ParseErrors[0].Cell)
    require.Equal(t, 1, res.Series[0].Len())
    assert.Equal(t, day(2020, 2, 29), res.Series[0].Observations[0].Timestamp)
}

func TestNormalizeCoercesNonNumericToMissing(t *testing.T) {
    raw := rawTable("fred", []string{"date", "v"},
        []any{"2020-01-31", "."},
        []any{"2020-02-29", "12.5"},
        []any{"2020-03-31", ""},
        []any{"2020-04-30", true},
    )

    res, err := Normalize(raw, NormalizeOptions{ValueColumns: []string{"v"}})
    require.NoError(t, err)
    s := res.Series[0]
    require.Equal(t, 4, s.Len())
    assert.False(t, s.Observations[0].Value.Valid)
    assert.Equal(t, models.Some(12.5), s.Observations[1].Value)
    assert.False(t, s.Observations[2].Value.Valid)
    assert.False(t, s.Observations[3].Value.Valid)
    assert.Equal(t, 2, res.CoercedCells)
}

func TestNormalizeNativeTimesUseWrittenDate(t *testing.T) {
    est := time.FixedZone("EST", -5*3600)
    raw := rawTable("av", []string{"date", "Close"},
        []any{time.Date(2020, 1, 30, 16, 0, 0, 0, est), 50},
    )

    res, err := Normalize(raw, NormalizeOptions{})
    require.NoError(t, err)
    assert.Equal(t, day(2020, 1, 30), res.Series[0].Observations[0].Timestamp)
    assert.Equal(t, models.Some(50), res.Series[0].Observations[0].Value)
}

func TestNormalizeEmptySeries(t *testing.T) {
    cases := map[string]models.RawTable{
        "no rows":        rawTable("fred", []string{"date", "v"}),
        "no timestamps":  rawTable("fred", []string{"date", "v"}, []any{"x", "1"}),
        "all values bad": rawTable("fred", []string{"date", "v"}, []any{"2020-01-31", "."}),
    }
    for name, raw := range cases {
        t.Run(name, func(t *testing.T) {
            _, err := Normalize(raw, NormalizeOptions{})
            require.Error(t, err)
            assert.ErrorIs(t, err, ErrEmptySeries)
            var ese *EmptySeriesError
            require.ErrorAs(t, err, &ese)
            assert.Equal(t, "normalize", ese.Stage)
        })
    }
}

func TestNormalizeDropsEmptyOptionalColumns(t *testing.T) {
    raw := rawTable("av", []string{"date", "Open", "Close"},
        []any{"2020-01-30", nil, "50"},
        []any{"2020-01-31", ".", "51"},
    )

    res, err := Normalize(raw, NormalizeOptions{Required: []string{"Close"}})
    require.NoError(t, err)
    assert.Equal(t, []string{"Open"}, res.EmptyColumns)
    require.Len(t, res.Series, 1)
    _, ok := res.Lookup("Open")
    assert.False(t, ok)
    closes, ok := res.Lookup("Close")
    require.True(t, ok)
    assert.Equal(t, 2, closes.Valid())

    raw = rawTable("av", []string{"date", "Open", "Close"},
        []any{"2020-01-30", "49", nil},
    )
    _, err = Normalize(raw, NormalizeOptions{Required: []string{"Close"}})
    assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestNormalizeMissingColumn(t *testing.T) {
    raw := rawTable("fred", []string{"date", "v"}, []any{"2020-01-31", "1"})

    _, err := Normalize(raw, NormalizeOptions{TimestampColumn: "when"})
    require.Error(t, err)
    _, err = Normalize(raw, NormalizeOptions{ValueColumns: []string{"w"}})
    require.Error(t, err)
    assert.NotErrorIs(t, err, ErrEmptySeries)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
    raw := rawTable("fred", []string{"date", "v"},
        []any{"2020-02-29", "2"},
        []any{"2020-01-31", "1"},
    )
    _, err := Normalize(raw, NormalizeOptions{})
    require.NoError(t, err)
    assert.Equal(t, "2020-02-29", raw.Rows[0][0])
}
