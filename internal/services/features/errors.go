package features

import (
    "errors"
    "fmt"
)

var (
    ErrEmptySeries = errors.New("empty series")
    ErrNoOverlap   = errors.New("no overlapping periods")
)

// ParseError describes one raw row dropped because its timestamp could not be
// parsed. It never aborts a run; the normalizer collects and counts them.
type ParseError struct {
    Source string
    Row    int
    Column string
    Cell   string
    Err    error
}

func (e *ParseError) Error() string {
    return fmt.Sprintf("%s: row %d: parse %s %q: %v", e.Source, e.Row, e.Column, e.Cell, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptySeriesError is returned when a stage has nothing left to work with.
type EmptySeriesError struct {
    Stage   string
    Series  string
    RowsIn  int
    RowsOut int
}

func (e *EmptySeriesError) Error() string {
    return fmt.Sprintf("%s: series %q is empty (rows in=%d, out=%d)", e.Stage, e.Series, e.RowsIn, e.RowsOut)
}

func (e *EmptySeriesError) Is(target error) bool { return target == ErrEmptySeries }

// NoOverlapError is returned when the reconciler's join produces no rows.
type NoOverlapError struct {
    Stage       string
    LowRows     int
    HighRows    int
    HighPeriods int
    RowsOut     int
}

func (e *NoOverlapError) Error() string {
    return fmt.Sprintf("%s: no overlapping timestamps (low rows=%d, high rows=%d, high periods=%d, out=%d)",
        e.Stage, e.LowRows, e.HighRows, e.HighPeriods, e.RowsOut)
}

func (e *NoOverlapError) Is(target error) bool { return target == ErrNoOverlap }
