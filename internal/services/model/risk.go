package model

// DefaultCrisisThreshold is the prediction level below which a crisis is flagged.
const DefaultCrisisThreshold = 18000.0

const (
    MessageHighRisk = "High risk of economic crisis."
    MessageNoRisk   = "No immediate crisis risk indicated."
)

// Assess turns a predicted indicator level into a risk verdict.
func Assess(predicted, threshold float64) (bool, string) {
    if predicted < threshold {
        return true, MessageHighRisk
    }
    return false, MessageNoRisk
}
