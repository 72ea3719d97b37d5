package analysis

import (
	"fmt"
	"runtime"
)

// Default policy constants.
const (
	DefaultEpsMeters               = 75.0
	DefaultMinSamples              = 2
	DefaultChronicMinReports       = 4
	DefaultChronicMinSpanDays      = 90
	DefaultRereportWindowDays      = 120
	DefaultHighPriorityReports     = 8
	DefaultHighPriorityFailedFixes = 2
	DefaultTrendWindowDays         = 90
	DefaultGapMinSignal            = 2
	DefaultGapMeanFraction         = 0.5
)

// Parameters holds every tunable policy value of the engine.
type Parameters struct {
	EpsMeters               float64 `mapstructure:"eps_meters" yaml:"eps_meters" json:"eps_meters"`
	MinSamples              int     `mapstructure:"min_samples" yaml:"min_samples" json:"min_samples"`
	UseSpatialIndex         bool    `mapstructure:"use_spatial_index" yaml:"use_spatial_index" json:"use_spatial_index"`
	ChronicMinReports       int     `mapstructure:"chronic_min_reports" yaml:"chronic_min_reports" json:"chronic_min_reports"`
	ChronicMinSpanDays      int     `mapstructure:"chronic_min_span_days" yaml:"chronic_min_span_days" json:"chronic_min_span_days"`
	RereportWindowDays      int     `mapstructure:"rereport_window_days" yaml:"rereport_window_days" json:"rereport_window_days"`
	HighPriorityReports     int     `mapstructure:"high_priority_reports" yaml:"high_priority_reports" json:"high_priority_reports"`
	HighPriorityFailedFixes int     `mapstructure:"high_priority_failed_fixes" yaml:"high_priority_failed_fixes" json:"high_priority_failed_fixes"`
	TrendWindowDays         int     `mapstructure:"trend_window_days" yaml:"trend_window_days" json:"trend_window_days"`
	GapMinSignal            int     `mapstructure:"gap_min_signal" yaml:"gap_min_signal" json:"gap_min_signal"`
	GapMeanFraction         float64 `mapstructure:"gap_mean_fraction" yaml:"gap_mean_fraction" json:"gap_mean_fraction"`
	Workers                 int     `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// DefaultParameters returns the production policy.
func DefaultParameters() Parameters {
	return Parameters{
		EpsMeters:               DefaultEpsMeters,
		MinSamples:              DefaultMinSamples,
		UseSpatialIndex:         true,
		ChronicMinReports:       DefaultChronicMinReports,
		ChronicMinSpanDays:      DefaultChronicMinSpanDays,
		RereportWindowDays:      DefaultRereportWindowDays,
		HighPriorityReports:     DefaultHighPriorityReports,
		HighPriorityFailedFixes: DefaultHighPriorityFailedFixes,
		TrendWindowDays:         DefaultTrendWindowDays,
		GapMinSignal:            DefaultGapMinSignal,
		GapMeanFraction:         DefaultGapMeanFraction,
		Workers:                 runtime.GOMAXPROCS(0),
	}
}

// Validate checks that every value is usable.
func (p Parameters) Validate() error {
	switch {
	case p.EpsMeters <= 0:
		return fmt.Errorf("eps_meters must be positive, got %v", p.EpsMeters)
	case p.MinSamples < 1:
		return fmt.Errorf("min_samples must be >= 1, got %d", p.MinSamples)
	case p.ChronicMinReports < 1:
		return fmt.Errorf("chronic_min_reports must be >= 1, got %d", p.ChronicMinReports)
	case p.ChronicMinSpanDays < 0:
		return fmt.Errorf("chronic_min_span_days must be >= 0, got %d", p.ChronicMinSpanDays)
	case p.RereportWindowDays < 1:
		return fmt.Errorf("rereport_window_days must be >= 1, got %d", p.RereportWindowDays)
	case p.HighPriorityReports < 1:
		return fmt.Errorf("high_priority_reports must be >= 1, got %d", p.HighPriorityReports)
	case p.HighPriorityFailedFixes < 1:
		return fmt.Errorf("high_priority_failed_fixes must be >= 1, got %d", p.HighPriorityFailedFixes)
	case p.TrendWindowDays < 1:
		return fmt.Errorf("trend_window_days must be >= 1, got %d", p.TrendWindowDays)
	case p.GapMinSignal < 1:
		return fmt.Errorf("gap_min_signal must be >= 1, got %d", p.GapMinSignal)
	case p.GapMeanFraction <= 0:
		return fmt.Errorf("gap_mean_fraction must be positive, got %v", p.GapMeanFraction)
	case p.Workers < 0:
		return fmt.Errorf("workers must be >= 0, got %d", p.Workers)
	}
	return nil
}

//Personal.AI order the ending
