package features

import (
    "fmt"
    "time"

    domrepo "MacroPull/internal/domain/repository"
    "MacroPull/pkg/util"
)

// PeriodEnd returns the label of the cadence period containing t: the last
// calendar day of its month, quarter, or year.
func PeriodEnd(t time.Time, c domrepo.Cadence) (time.Time, error) {
    d := util.DateOf(t)
    switch c {
    case domrepo.CadenceMonthly:
        return util.MonthEnd(d), nil
    case domrepo.CadenceQuarterly:
        return util.QuarterEnd(d), nil
    case domrepo.CadenceAnnual:
        return util.YearEnd(d), nil
    default:
        return time.Time{}, fmt.Errorf("unsupported cadence %q", c)
    }
}

// dayKey is the map key for a canonical date.
func dayKey(t time.Time) int64 { return t.Unix() }
