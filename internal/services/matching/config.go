package matching

import (
	"fmt"
	"math"
)

// Weights are the relative contributions of each strategy to the composite
// score. They must be non-negative and sum to 1.0.
type Weights struct {
	Exact          float64 `yaml:"exact"`
	Fuzzy          float64 `yaml:"fuzzy"`
	BankIdentifier float64 `yaml:"bank_identifier"`
	DateWindow     float64 `yaml:"date_window"`
	Advisor        float64 `yaml:"advisor"`
}

// Sum returns the total weight mass.
func (w Weights) Sum() float64 {
	return w.Exact + w.Fuzzy + w.BankIdentifier + w.DateWindow + w.Advisor
}

// Config carries every tunable of the matching pipeline. It is built once,
// validated, and passed in; the engine never mutates it.
type Config struct {
	Weights Weights `yaml:"weights"`

	// MinConfidence is the composite score a candidate must reach to be
	// accepted. A score exactly equal to it is accepted.
	MinConfidence float64 `yaml:"min_confidence"`

	// DescriptionThreshold is the minimum description similarity for the
	// fuzzy strategy to contribute at all.
	DescriptionThreshold float64 `yaml:"description_threshold"`

	// AmountThreshold gates the fuzzy strategy: the transaction amount may
	// not exceed outstanding/AmountThreshold. Partial payments below the
	// outstanding balance are always amount-compatible.
	AmountThreshold float64 `yaml:"amount_threshold"`

	// WindowDays is the date-window strategy's half-width around the due
	// date, in calendar days.
	WindowDays int `yaml:"window_days"`

	// ExactToleranceDays widens the exact strategy's date check. Zero means
	// the transaction must land on the due date itself.
	ExactToleranceDays int `yaml:"exact_tolerance_days"`

	// AdvisorCap bounds how much confidence an advisory suggestion may
	// claim, whatever the advisor reports.
	AdvisorCap float64 `yaml:"advisor_cap"`
}

// DefaultConfig returns the stock tuning: exact amount dominates, fuzzy
// description carries most of the rest, and the advisor is disabled until a
// caller assigns it weight.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Exact:          0.5,
			Fuzzy:          0.3,
			BankIdentifier: 0.15,
			DateWindow:     0.05,
			Advisor:        0,
		},
		MinConfidence:        0.7,
		DescriptionThreshold: 0.7,
		AmountThreshold:      0.95,
		WindowDays:           7,
		ExactToleranceDays:   0,
		AdvisorCap:           0.8,
	}
}

const weightTolerance = 1e-9

// Validate rejects configurations the engine cannot run with. Invalid
// weights are a construction-time error, never a runtime one.
func (c Config) Validate() error {
	named := []struct {
		name string
		v    float64
	}{
		{"exact", c.Weights.Exact},
		{"fuzzy", c.Weights.Fuzzy},
		{"bank_identifier", c.Weights.BankIdentifier},
		{"date_window", c.Weights.DateWindow},
		{"advisor", c.Weights.Advisor},
	}
	for _, w := range named {
		if w.v < 0 {
			return fmt.Errorf("weight %s must be non-negative, got %v", w.name, w.v)
		}
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("strategy weights must sum to 1.0, got %v", sum)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %v", c.MinConfidence)
	}
	if c.DescriptionThreshold < 0 || c.DescriptionThreshold > 1 {
		return fmt.Errorf("description_threshold must be in [0,1], got %v", c.DescriptionThreshold)
	}
	if c.AmountThreshold <= 0 || c.AmountThreshold > 1 {
		return fmt.Errorf("amount_threshold must be in (0,1], got %v", c.AmountThreshold)
	}
	if c.WindowDays < 0 {
		return fmt.Errorf("window_days must be non-negative, got %d", c.WindowDays)
	}
	if c.ExactToleranceDays < 0 {
		return fmt.Errorf("exact_tolerance_days must be non-negative, got %d", c.ExactToleranceDays)
	}
	if c.AdvisorCap < 0 || c.AdvisorCap > 1 {
		return fmt.Errorf("advisor_cap must be in [0,1], got %v", c.AdvisorCap)
	}
	return nil
}
