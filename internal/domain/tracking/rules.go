package tracking

import "fmt"

// ValidationRule configures one bulk insert request.
type ValidationRule struct {
	Enforce15MinIncrements bool `json:"enforce_15_min_increments" yaml:"enforce_15_min_increments"`
	AutoRound15Min         bool `json:"auto_round_15_min" yaml:"auto_round_15_min"`
	SleepCutoffHour        int  `json:"sleep_cutoff_hour" yaml:"sleep_cutoff_hour"`
}

// PartialValidationRule is the request-side shape: absent fields keep the
// configured default.
type PartialValidationRule struct {
	Enforce15MinIncrements *bool `json:"enforce_15_min_increments,omitempty"`
	AutoRound15Min         *bool `json:"auto_round_15_min,omitempty"`
	SleepCutoffHour        *int  `json:"sleep_cutoff_hour,omitempty"`
}

func DefaultValidationRule() ValidationRule {
	return ValidationRule{
		Enforce15MinIncrements: true,
		AutoRound15Min:         true,
		SleepCutoffHour:        4,
	}
}

func (r ValidationRule) Merge(p *PartialValidationRule) ValidationRule {
	if p == nil {
		return r
	}
	if p.Enforce15MinIncrements != nil {
		r.Enforce15MinIncrements = *p.Enforce15MinIncrements
	}
	if p.AutoRound15Min != nil {
		r.AutoRound15Min = *p.AutoRound15Min
	}
	if p.SleepCutoffHour != nil {
		r.SleepCutoffHour = *p.SleepCutoffHour
	}
	return r
}

func (r ValidationRule) Validate() error {
	if r.SleepCutoffHour < 0 || r.SleepCutoffHour > 23 {
		return fmt.Errorf("sleep_cutoff_hour must be between 0 and 23, got %d", r.SleepCutoffHour)
	}
	return nil
}
