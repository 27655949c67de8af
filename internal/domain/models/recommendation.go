package models

// TempCategory buckets a night's average outdoor temperature.
type TempCategory string

const (
	TempVeryCold TempCategory = "very_cold"
	TempCold     TempCategory = "cold"
	TempMild     TempCategory = "mild"
	TempUnknown  TempCategory = "unknown"
)

// Recommendation is the recommended overnight setpoint for the current
// outdoor conditions, with the evidence behind it.
type Recommendation struct {
	Category     TempCategory `json:"category"`
	Setpoint     float64      `json:"setpoint"`
	MeanTotalGas float64      `json:"mean_total_gas"`
	SampleDays   int          `json:"sample_days"`
}
