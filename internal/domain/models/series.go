package models

import "time"

// Value is a nullable number. The zero value is missing.
type Value struct {
	Float64 float64
	Valid   bool
}

// Some wraps a present value.
func Some(v float64) Value { return Value{Float64: v, Valid: true} }

// Missing returns the missing-value marker.
func Missing() Value { return Value{} }

// Observation is a single dated value of a series.
type Observation struct {
	Timestamp time.Time
	Value     Value
}

// Series is a named, timestamp-ascending sequence of observations.
// Timestamps are unique once a series leaves the normalizer.
type Series struct {
	Name         string
	Observations []Observation
}

func (s Series) Len() int { return len(s.Observations) }

// Valid counts observations carrying a value.
func (s Series) Valid() int {
	n := 0
	for _, o := range s.Observations {
		if o.Value.Valid {
			n++
		}
	}
	return n
}

// RawTable is a provider payload before normalization. Cells may hold
// strings, numbers, time.Time, or nil.
type RawTable struct {
	Source  string
	Columns []string
	Rows    [][]any
}

// ColumnIndex returns the position of name or -1.
func (t RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AlignedRow holds one value per AlignedTable column.
type AlignedRow struct {
	Timestamp time.Time
	Values    []Value
}

// AlignedTable is the inner join of several series at a common cadence.
// Rows are timestamp-ascending and the column set never changes.
type AlignedTable struct {
	Columns []string
	Rows    []AlignedRow
}

// ColumnIndex returns the position of name or -1.
func (t AlignedTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Timestamps lists the row keys in order.
func (t AlignedTable) Timestamps() []time.Time {
	out := make([]time.Time, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Timestamp
	}
	return out
}
