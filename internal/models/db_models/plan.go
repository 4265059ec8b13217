package db_models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownValue is returned when an enum value outside its closed set
// reaches a decoding boundary.
var ErrUnknownValue = errors.New("unknown enum value")

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

func ParsePlan(s string) (Plan, error) {
	switch p := Plan(s); p {
	case PlanFree, PlanPro, PlanPremium:
		return p, nil
	}
	return "", fmt.Errorf("plan %q: %w", s, ErrUnknownValue)
}

// IsPaid reports whether the plan is one of the paid tiers.
func (p Plan) IsPaid() bool {
	return p == PlanPro || p == PlanPremium
}

func (p *Plan) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParsePlan(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
