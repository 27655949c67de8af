package analysis

import (
	"fmt"
	"time"

	"HeatCycle/internal/domain/models"
	"HeatCycle/pkg/util"

	"github.com/creasty/defaults"
)

// Config holds the detection thresholds and search windows for one home.
// Time-of-day values are local wall-clock "HH:MM:SS".
type Config struct {
	Timezone string `yaml:"timezone" default:"Local"`

	SetbackSearchBegin   string `yaml:"setback_search_begin" default:"20:00:00"`
	SetbackSearchEnd     string `yaml:"setback_search_end" default:"00:00:00"`
	RecoverySearchBegin  string `yaml:"recovery_search_begin" default:"05:00:00"`
	RecoverySearchEnd    string `yaml:"recovery_search_end" default:"09:00:00"`
	MaxRecoverySearchEnd string `yaml:"max_recovery_search_end" default:"10:00:00"`

	SignificantDropC  float64 `yaml:"significant_setpoint_drop_c" default:"1.5"`
	SignificantRiseC  float64 `yaml:"significant_setpoint_rise_c" default:"1.5"`
	TypicalSetbackMin float64 `yaml:"typical_setback_min_c" default:"12"`
	TypicalSetbackMax float64 `yaml:"typical_setback_max_c" default:"16"`
	TypicalDaytimeMin float64 `yaml:"typical_daytime_min_c" default:"18"`

	RecoveryToleranceC float64       `yaml:"recovery_temp_tolerance_c" default:"0.5"`
	MinIdleForRecovery time.Duration `yaml:"min_idle_for_recovery_end" default:"10m"`

	HistoryDays   int     `yaml:"history_days" default:"60"`
	VeryColdMaxC  float64 `yaml:"very_cold_max_c" default:"0"`
	ColdMaxC      float64 `yaml:"cold_max_c" default:"7"`
	MinDataPoints int     `yaml:"min_data_points" default:"3"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("analysis defaults: %w", err)
	}
	return c, nil
}

// Validate checks threshold and window consistency.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"setback_search_begin":    c.SetbackSearchBegin,
		"setback_search_end":      c.SetbackSearchEnd,
		"recovery_search_begin":   c.RecoverySearchBegin,
		"recovery_search_end":     c.RecoverySearchEnd,
		"max_recovery_search_end": c.MaxRecoverySearchEnd,
	} {
		if _, err := util.ParseTimeOfDay(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.SignificantDropC <= 0 || c.SignificantRiseC <= 0 {
		return fmt.Errorf("setpoint thresholds must be positive")
	}
	if c.TypicalSetbackMin > c.TypicalSetbackMax {
		return fmt.Errorf("typical_setback_min_c exceeds typical_setback_max_c")
	}
	if c.MinIdleForRecovery < 0 {
		return fmt.Errorf("min_idle_for_recovery_end must not be negative")
	}
	if c.HistoryDays <= 0 {
		return fmt.Errorf("history_days must be positive")
	}
	if c.MinDataPoints <= 0 {
		return fmt.Errorf("min_data_points must be positive")
	}
	if c.VeryColdMaxC > c.ColdMaxC {
		return fmt.Errorf("very_cold_max_c exceeds cold_max_c")
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Categorize buckets an average overnight outdoor temperature.
func (c *Config) Categorize(avgTemp *float64) models.TempCategory {
	if avgTemp == nil {
		return models.TempUnknown
	}
	switch {
	case *avgTemp <= c.VeryColdMaxC:
		return models.TempVeryCold
	case *avgTemp <= c.ColdMaxC:
		return models.TempCold
	default:
		return models.TempMild
	}
}
