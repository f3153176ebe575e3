package repository

import "strings"

// Cadence is the low-frequency period used to align series.
type Cadence string

const (
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceAnnual    Cadence = "annual"
)

// IsValidCadence returns true if c is a supported cadence.
func IsValidCadence(c Cadence) bool {
	switch c {
	case CadenceMonthly, CadenceQuarterly, CadenceAnnual:
		return true
	default:
		return false
	}
}

// DefaultCadence returns the default cadence.
func DefaultCadence() Cadence { return CadenceMonthly }

// NormalizeCadence converts a raw string (including pandas-style aliases) to a
// valid cadence, or the default.
func NormalizeCadence(s string) Cadence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "me", "month", "monthly":
		return CadenceMonthly
	case "q", "qe", "quarter", "quarterly":
		return CadenceQuarterly
	case "a", "y", "ye", "year", "annual", "yearly":
		return CadenceAnnual
	default:
		return DefaultCadence()
	}
}
