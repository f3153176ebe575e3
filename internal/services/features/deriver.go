package features

import (
    "fmt"
    "time"

    "MacroPull/internal/domain/models"
)

const stageDerive = "derive"

// DefaultFillLimit is the number of consecutive rows ForwardFill may fill.
const DefaultFillLimit = 1

// DeriveOptions names the target and driver columns of an aligned table.
// Every other column is carried through unchanged.
type DeriveOptions struct {
    TargetColumn string
    DriverColumn string
    // FillLimit bounds forward filling; zero or less means unbounded.
    FillLimit int
}

// Candidate is a row before the completeness filter.
type Candidate struct {
    Timestamp       time.Time
    Target          models.Value
    TargetLag1      models.Value
    DriverClose     models.Value
    DriverPctChange models.Value
    PassThrough     []models.Value
}

// Complete reports whether every source and derived cell is present.
func (c Candidate) Complete() bool {
    if !c.Target.Valid || !c.TargetLag1.Valid || !c.DriverClose.Valid || !c.DriverPctChange.Valid {
        return false
    }
    for _, v := range c.PassThrough {
        if !v.Valid {
            return false
        }
    }
    return true
}

// DeriveResult is the feature stage output and its bookkeeping.
type DeriveResult struct {
    PassThrough    []string
    Rows           []models.FeatureRow
    Filled         int
    Incomplete     int
    DroppedDerived int
}

// ForwardFill copies t, filling each missing cell with the latest prior
// present value in its column. At most limit consecutive cells are filled per
// gap; limit <= 0 removes the bound. Leading gaps stay missing.
func ForwardFill(t models.AlignedTable, limit int) (models.AlignedTable, int) {
    out := models.AlignedTable{
        Columns: append([]string(nil), t.Columns...),
        Rows:    make([]models.AlignedRow, len(t.Rows)),
    }
    filled := 0
    for c := range t.Columns {
        var last models.Value
        run := 0
        for i, r := range t.Rows {
            if c == 0 {
                out.Rows[i] = models.AlignedRow{Timestamp: r.Timestamp, Values: make([]models.Value, len(r.Values))}
            }
            v := r.Values[c]
            if v.Valid {
                last, run = v, 0
            } else if last.Valid && (limit <= 0 || run < limit) {
                v = last
                run++
                filled++
            }
            out.Rows[i].Values[c] = v
        }
    }
    return out, filled
}

// Derive computes the lag and percent-change columns. Only rows whose source
// cells are all present take part, and "previous" is the prior such row.
func Derive(t models.AlignedTable, opts DeriveOptions) ([]Candidate, []string, error) {
    ti := t.ColumnIndex(opts.TargetColumn)
    if ti < 0 {
        return nil, nil, fmt.Errorf("%s: target column %q not in %v", stageDerive, opts.TargetColumn, t.Columns)
    }
    di := t.ColumnIndex(opts.DriverColumn)
    if di < 0 {
        return nil, nil, fmt.Errorf("%s: driver column %q not in %v", stageDerive, opts.DriverColumn, t.Columns)
    }
    if ti == di {
        return nil, nil, fmt.Errorf("%s: target and driver are the same column %q", stageDerive, opts.TargetColumn)
    }
    var passIdx []int
    var passNames []string
    for i, c := range t.Columns {
        if i != ti && i != di {
            passIdx = append(passIdx, i)
            passNames = append(passNames, c)
        }
    }

    out := make([]Candidate, 0, len(t.Rows))
    var prev *models.AlignedRow
    for i := range t.Rows {
        r := &t.Rows[i]
        if !rowComplete(r) {
            continue
        }
        c := Candidate{
            Timestamp:   r.Timestamp,
            Target:      r.Values[ti],
            DriverClose: r.Values[di],
            PassThrough: make([]models.Value, len(passIdx)),
        }
        for j, k := range passIdx {
            c.PassThrough[j] = r.Values[k]
        }
        if prev != nil {
            c.TargetLag1 = prev.Values[ti]
            c.DriverPctChange = pctChange(prev.Values[di], r.Values[di])
        }
        out = append(out, c)
        prev = r
    }
    return out, passNames, nil
}

// DropIncomplete keeps only candidates with every cell present.
func DropIncomplete(cands []Candidate, passNames []string) []models.FeatureRow {
    rows := make([]models.FeatureRow, 0, len(cands))
    for _, c := range cands {
        if !c.Complete() {
            continue
        }
        fr := models.FeatureRow{
            Timestamp:       c.Timestamp,
            Target:          c.Target.Float64,
            TargetLag1:      c.TargetLag1.Float64,
            DriverClose:     c.DriverClose.Float64,
            DriverPctChange: c.DriverPctChange.Float64,
        }
        if len(passNames) > 0 {
            fr.PassThrough = make([]models.NamedValue, len(passNames))
            for j, n := range passNames {
                fr.PassThrough[j] = models.NamedValue{Name: n, Value: c.PassThrough[j].Float64}
            }
        }
        rows = append(rows, fr)
    }
    return rows
}

// BuildFeatures runs forward fill, derivation and the completeness filter.
func BuildFeatures(t models.AlignedTable, opts DeriveOptions) (DeriveResult, error) {
    filledTable, filled := ForwardFill(t, opts.FillLimit)
    cands, pass, err := Derive(filledTable, opts)
    if err != nil {
        return DeriveResult{}, err
    }
    rows := DropIncomplete(cands, pass)
    res := DeriveResult{
        PassThrough:    pass,
        Rows:           rows,
        Filled:         filled,
        Incomplete:     len(filledTable.Rows) - len(cands),
        DroppedDerived: len(cands) - len(rows),
    }
    if len(rows) == 0 {
        return res, &EmptySeriesError{Stage: stageDerive, Series: opts.TargetColumn, RowsIn: len(t.Rows)}
    }
    return res, nil
}

func rowComplete(r *models.AlignedRow) bool {
    for _, v := range r.Values {
        if !v.Valid {
            return false
        }
    }
    return true
}

func pctChange(prev, cur models.Value) models.Value {
    if !prev.Valid || !cur.Valid || prev.Float64 == 0 {
        return models.Missing()
    }
    return models.Some((cur.Float64 - prev.Float64) / prev.Float64)
}
