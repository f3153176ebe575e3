package features

import (
    "encoding/json"
    "errors"
    "fmt"
    "math"
    "sort"
    "strconv"
    "time"

    "MacroPull/internal/domain/models"
    "MacroPull/pkg/util"
)

const stageNormalize = "normalize"

var errBadTimestamp = errors.New("unrecognized timestamp")

// NormalizeOptions selects the columns of a raw table.
// An empty ValueColumns means every column except the timestamp.
// When Required is set, only those columns must hold a value; other
// columns with no value at all are dropped and listed in EmptyColumns.
type NormalizeOptions struct {
    TimestampColumn string
    ValueColumns    []string
    Required        []string
    Layouts         []string
}

// NormalizeResult holds the normalized series plus what was discarded on the way.
type NormalizeResult struct {
    Series       []models.Series
    RowsIn       int
    SkippedRows  int
    CoercedCells int
    Duplicates   int
    ParseErrors  []*ParseError
    EmptyColumns []string
}

// Lookup returns the series with the given name.
func (r NormalizeResult) Lookup(name string) (models.Series, bool) {
    for _, s := range r.Series {
        if s.Name == name {
            return s, true
        }
    }
    return models.Series{}, false
}

type normalizedRow struct {
    ts   time.Time
    vals []models.Value
}

// Normalize turns a raw provider table into one clean series per value column.
// Rows with an unparsable timestamp are skipped and reported as ParseErrors;
// non-numeric value cells become missing. Duplicate timestamps keep the last
// row seen. The output is sorted ascending.
func Normalize(raw models.RawTable, opts NormalizeOptions) (NormalizeResult, error) {
    res := NormalizeResult{RowsIn: len(raw.Rows)}

    tsCol := opts.TimestampColumn
    if tsCol == "" {
        tsCol = models.ColDate
    }
    tsIdx := raw.ColumnIndex(tsCol)
    if tsIdx < 0 {
        return res, fmt.Errorf("%s %s: timestamp column %q not found", stageNormalize, raw.Source, tsCol)
    }

    names := opts.ValueColumns
    if len(names) == 0 {
        for i, c := range raw.Columns {
            if i != tsIdx {
                names = append(names, c)
            }
        }
    }
    if len(names) == 0 {
        return res, fmt.Errorf("%s %s: no value columns", stageNormalize, raw.Source)
    }
    idx := make([]int, len(names))
    for i, n := range names {
        idx[i] = raw.ColumnIndex(n)
        if idx[i] < 0 {
            return res, fmt.Errorf("%s %s: value column %q not found", stageNormalize, raw.Source, n)
        }
    }

    rows := make([]normalizedRow, 0, len(raw.Rows))
    seen := make(map[int64]int, len(raw.Rows))
    for i, row := range raw.Rows {
        cell := cellAt(row, tsIdx)
        ts, err := parseTimestamp(cell, opts.Layouts)
        if err != nil {
            res.SkippedRows++
            res.ParseErrors = append(res.ParseErrors, &ParseError{
                Source: raw.Source, Row: i, Column: tsCol, Cell: fmt.Sprint(cell), Err: err,
            })
            continue
        }
        vals := make([]models.Value, len(idx))
        for j, k := range idx {
            v, coerced := coerceValue(cellAt(row, k))
            if coerced {
                res.CoercedCells++
            }
            vals[j] = v
        }
        key := dayKey(ts)
        if at, dup := seen[key]; dup {
            rows[at] = normalizedRow{ts: ts, vals: vals}
            res.Duplicates++
            continue
        }
        seen[key] = len(rows)
        rows = append(rows, normalizedRow{ts: ts, vals: vals})
    }

    if len(rows) == 0 {
        return res, &EmptySeriesError{Stage: stageNormalize, Series: raw.Source, RowsIn: res.RowsIn}
    }
    sort.Slice(rows, func(a, b int) bool { return rows[a].ts.Before(rows[b].ts) })

    res.Series = make([]models.Series, 0, len(names))
    for j, n := range names {
        obs := make([]models.Observation, len(rows))
        for i, r := range rows {
            obs[i] = models.Observation{Timestamp: r.ts, Value: r.vals[j]}
        }
        s := models.Series{Name: n, Observations: obs}
        if s.Valid() == 0 {
            if len(opts.Required) > 0 && !containsName(opts.Required, n) {
                res.EmptyColumns = append(res.EmptyColumns, n)
                continue
            }
            return res, &EmptySeriesError{Stage: stageNormalize, Series: n, RowsIn: res.RowsIn, RowsOut: len(rows)}
        }
        res.Series = append(res.Series, s)
    }
    return res, nil
}

func containsName(names []string, n string) bool {
    for _, x := range names {
        if x == n {
            return true
        }
    }
    return false
}

func cellAt(row []any, i int) any {
    if i < len(row) {
        return row[i]
    }
    return nil
}

func parseTimestamp(cell any, layouts []string) (time.Time, error) {
    switch v := cell.(type) {
    case time.Time:
        if v.IsZero() {
            return time.Time{}, errBadTimestamp
        }
        return util.DateOf(v), nil
    case *time.Time:
        if v == nil || v.IsZero() {
            return time.Time{}, errBadTimestamp
        }
        return util.DateOf(*v), nil
    case string:
        t, ok := util.ParseDate(v, layouts...)
        if !ok {
            return time.Time{}, errBadTimestamp
        }
        return util.DateOf(t), nil
    case []byte:
        return parseTimestamp(string(v), layouts)
    case nil:
        return time.Time{}, errors.New("missing timestamp")
    default:
        return time.Time{}, fmt.Errorf("%w: unsupported type %T", errBadTimestamp, cell)
    }
}

// coerceValue converts a cell to a value. The bool reports whether a present
// cell had to be turned into the missing marker.
func coerceValue(cell any) (models.Value, bool) {
    var f float64
    switch v := cell.(type) {
    case nil:
        return models.Missing(), false
    case float64:
        f = v
    case float32:
        f = float64(v)
    case int:
        f = float64(v)
    case int32:
        f = float64(v)
    case int64:
        f = float64(v)
    case uint64:
        f = float64(v)
    case json.Number:
        x, err := v.Float64()
        if err != nil {
            return models.Missing(), true
        }
        f = x
    case string:
        if v == "" {
            return models.Missing(), false
        }
        x, ok := util.ParseFloat(v)
        if !ok {
            return models.Missing(), true
        }
        return models.Some(x), false
    case []byte:
        return coerceValue(string(v))
    case models.Value:
        return v, false
    default:
        if s, ok := cell.(fmt.Stringer); ok {
            if x, err := strconv.ParseFloat(s.String(), 64); err == nil {
                f = x
                break
            }
        }
        return models.Missing(), true
    }
    if math.IsNaN(f) || math.IsInf(f, 0) {
        return models.Missing(), true
    }
    return models.Some(f), false
}
