package features

import (
    "fmt"
    "time"

    "MacroPull/internal/domain/models"
    domrepo "MacroPull/internal/domain/repository"
)

const stageReconcile = "reconcile"

// ReconcileOptions controls how series are brought onto the common axis.
type ReconcileOptions struct {
    Cadence domrepo.Cadence
    // SnapLow moves low-frequency timestamps to the end of their period before
    // the join. FRED labels quarters by their first day.
    SnapLow bool
}

// PeriodSample is one resampled value: labelled by its period end and
// remembering the observation it came from.
type PeriodSample struct {
    Period time.Time
    Source time.Time
    Value  models.Value
}

// ResampleLast reduces s to one sample per cadence period, taking the last
// observation inside the period. A later missing value never hides an earlier
// present one in the same period. Periods without observations are absent.
func ResampleLast(s models.Series, c domrepo.Cadence) ([]PeriodSample, error) {
    out := make([]PeriodSample, 0)
    for _, o := range s.Observations {
        p, err := PeriodEnd(o.Timestamp, c)
        if err != nil {
            return nil, err
        }
        n := len(out)
        if n > 0 && out[n-1].Period.Equal(p) {
            if o.Value.Valid || !out[n-1].Value.Valid {
                out[n-1] = PeriodSample{Period: p, Source: o.Timestamp, Value: o.Value}
            }
            continue
        }
        out = append(out, PeriodSample{Period: p, Source: o.Timestamp, Value: o.Value})
    }
    return out, nil
}

// Resample is ResampleLast as a series labelled by period end.
func Resample(s models.Series, c domrepo.Cadence) (models.Series, error) {
    samples, err := ResampleLast(s, c)
    if err != nil {
        return models.Series{}, err
    }
    obs := make([]models.Observation, len(samples))
    for i, ps := range samples {
        obs[i] = models.Observation{Timestamp: ps.Period, Value: ps.Value}
    }
    return models.Series{Name: s.Name, Observations: obs}, nil
}

// SnapToPeriodEnd relabels every observation with its period end. When two
// observations land on the same label the later one wins.
func SnapToPeriodEnd(s models.Series, c domrepo.Cadence) (models.Series, error) {
    obs := make([]models.Observation, 0, len(s.Observations))
    for _, o := range s.Observations {
        p, err := PeriodEnd(o.Timestamp, c)
        if err != nil {
            return models.Series{}, err
        }
        if n := len(obs); n > 0 && obs[n-1].Timestamp.Equal(p) {
            obs[n-1].Value = o.Value
            continue
        }
        obs = append(obs, models.Observation{Timestamp: p, Value: o.Value})
    }
    return models.Series{Name: s.Name, Observations: obs}, nil
}

// InnerJoin builds a table keyed by the timestamps present in every series.
// Columns follow argument order. Missing values are kept; only absent
// timestamps are excluded.
func InnerJoin(series ...models.Series) (models.AlignedTable, error) {
    t := models.AlignedTable{Columns: make([]string, len(series))}
    if len(series) == 0 {
        return t, nil
    }
    lookup := make([]map[int64]models.Value, len(series))
    names := make(map[string]struct{}, len(series))
    for i, s := range series {
        if _, dup := names[s.Name]; dup {
            return models.AlignedTable{}, fmt.Errorf("%s: duplicate column %q", stageReconcile, s.Name)
        }
        names[s.Name] = struct{}{}
        t.Columns[i] = s.Name
        m := make(map[int64]models.Value, len(s.Observations))
        for _, o := range s.Observations {
            m[dayKey(o.Timestamp)] = o.Value
        }
        lookup[i] = m
    }

    var last time.Time
    for _, o := range series[0].Observations {
        if len(t.Rows) > 0 && !o.Timestamp.After(last) {
            return models.AlignedTable{}, fmt.Errorf("%s: series %q is not strictly ascending", stageReconcile, series[0].Name)
        }
        last = o.Timestamp
        key := dayKey(o.Timestamp)
        row := models.AlignedRow{Timestamp: o.Timestamp, Values: make([]models.Value, len(series))}
        ok := true
        for i := range series {
            v, present := lookup[i][key]
            if !present {
                ok = false
                break
            }
            row.Values[i] = v
        }
        if ok {
            t.Rows = append(t.Rows, row)
        }
    }
    return t, nil
}

// Reconcile resamples the high-frequency series to the cadence and inner-joins
// them with the low-frequency series. Low columns come first.
func Reconcile(low, high []models.Series, opts ReconcileOptions) (models.AlignedTable, error) {
    c := opts.Cadence
    if c == "" {
        c = domrepo.DefaultCadence()
    }
    if !domrepo.IsValidCadence(c) {
        return models.AlignedTable{}, fmt.Errorf("%s: unsupported cadence %q", stageReconcile, c)
    }
    if len(low) == 0 || len(high) == 0 {
        return models.AlignedTable{}, fmt.Errorf("%s: need low and high frequency series (low=%d, high=%d)", stageReconcile, len(low), len(high))
    }

    all := make([]models.Series, 0, len(low)+len(high))
    lowRows := 0
    for _, s := range low {
        if s.Len() == 0 {
            return models.AlignedTable{}, &EmptySeriesError{Stage: stageReconcile, Series: s.Name}
        }
        lowRows += s.Len()
        if opts.SnapLow {
            snapped, err := SnapToPeriodEnd(s, c)
            if err != nil {
                return models.AlignedTable{}, fmt.Errorf("%s: %w", stageReconcile, err)
            }
            s = snapped
        }
        all = append(all, s)
    }
    highRows, highPeriods := 0, 0
    for _, s := range high {
        if s.Len() == 0 {
            return models.AlignedTable{}, &EmptySeriesError{Stage: stageReconcile, Series: s.Name}
        }
        highRows += s.Len()
        r, err := Resample(s, c)
        if err != nil {
            return models.AlignedTable{}, fmt.Errorf("%s: %w", stageReconcile, err)
        }
        highPeriods += r.Len()
        all = append(all, r)
    }

    t, err := InnerJoin(all...)
    if err != nil {
        return models.AlignedTable{}, err
    }
    if len(t.Rows) == 0 {
        return models.AlignedTable{}, &NoOverlapError{
            Stage: stageReconcile, LowRows: lowRows, HighRows: highRows, HighPeriods: highPeriods,
        }
    }
    return t, nil
}
