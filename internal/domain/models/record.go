package models

import "time"

// CycleBoundaries holds the detected boundaries of one setback/recovery
// cycle. Fields are nil until detected and never retracted within a run;
// they are populated strictly in order (setback before recovery start,
// recovery start before recovery end).
type CycleBoundaries struct {
	SetbackStart    *time.Time
	SetbackSetpoint *float64
	RecoveryStart   *time.Time
	RecoveryTarget  *float64
	RecoveryEnd     *time.Time
}

// DailyMetricsRecord is the published result of one analysis day.
// Nil fields mean "unknown" and are omitted from the published payload;
// a metric is never defaulted to zero in place of missing data.
type DailyMetricsRecord struct {
	Day                     time.Time  `json:"day"`
	AvgOutdoorTempOvernight *float64   `json:"avg_outdoor_temp_overnight,omitempty"`
	MinIndoorTempSetback    *float64   `json:"min_indoor_temp_setback,omitempty"`
	GasOvernight            *float64   `json:"gas_overnight,omitempty"`
	GasRecovery             *float64   `json:"gas_recovery,omitempty"`
	SetbackStart            *time.Time `json:"setback_start_time,omitempty"`
	RecoveryStart           *time.Time `json:"recovery_start_time,omitempty"`
	RecoveryEnd             *time.Time `json:"recovery_end_time,omitempty"`
	SetbackSetpoint         *float64   `json:"setback_setpoint_detected,omitempty"`
	DaytimeTarget           *float64   `json:"daytime_target_detected,omitempty"`
	OptimumSetpoint         *float64   `json:"optimum_setpoint,omitempty"`
}

// CycleDetected reports whether both setback start and recovery start were
// found, i.e. a complete overnight cycle was observed.
func (r *DailyMetricsRecord) CycleDetected() bool {
	return r.SetbackStart != nil && r.RecoveryStart != nil
}

// TotalGas returns setback + recovery consumption, or false when either
// phase is unknown.
func (r *DailyMetricsRecord) TotalGas() (float64, bool) {
	if r.GasOvernight == nil || r.GasRecovery == nil {
		return 0, false
	}
	return *r.GasOvernight + *r.GasRecovery, true
}
