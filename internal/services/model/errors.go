package model

import (
    "errors"
    "fmt"
    "strings"
)

var (
    ErrFeatureSchema    = errors.New("feature schema mismatch")
    ErrInsufficientRows = errors.New("not enough rows to fit")
    ErrSingularDesign   = errors.New("feature matrix is singular")
)

// FeatureSchemaError is returned when a scoring row does not carry exactly the
// features a model was trained on.
type FeatureSchemaError struct {
    Stage      string
    Row        int
    Rows       int
    Missing    []string
    Unexpected []string
}

func (e *FeatureSchemaError) Error() string {
    var b strings.Builder
    fmt.Fprintf(&b, "%s: row %d of %d: feature schema mismatch", e.Stage, e.Row, e.Rows)
    if len(e.Missing) > 0 {
        fmt.Fprintf(&b, " missing=%v", e.Missing)
    }
    if len(e.Unexpected) > 0 {
        fmt.Fprintf(&b, " unexpected=%v", e.Unexpected)
    }
    return b.String()
}

func (e *FeatureSchemaError) Is(target error) bool { return target == ErrFeatureSchema }
