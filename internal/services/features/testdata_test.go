package features

import (
    "time"

    "MacroPull/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func series(name string, pts ...any) models.Series {
    s := models.Series{Name: name}
    for i := 0; i+1 < len(pts); i += 2 {
        v := models.Missing()
        if f, ok := pts[i+1].(float64); ok {
            v = models.Some(f)
        }
        s.Observations = append(s.Observations, models.Observation{Timestamp: pts[i].(time.Time), Value: v})
    }
    return s
}

func rawTable(source string, cols []string, rows ...[]any) models.RawTable {
    return models.RawTable{Source: source, Columns: cols, Rows: rows}
}
