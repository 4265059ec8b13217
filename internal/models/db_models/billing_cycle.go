package db_models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
	CycleWeekly  BillingCycle = "weekly"
	CycleOneTime BillingCycle = "one_time"
	CycleUnknown BillingCycle = "unknown"
)

// ParseBillingCycle accepts the closed set of cycles. An empty value maps to
// CycleUnknown on purpose: the classifier omits the cycle when it cannot tell.
func ParseBillingCycle(s string) (BillingCycle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CycleUnknown, nil
	}
	switch c := BillingCycle(s); c {
	case CycleMonthly, CycleYearly, CycleWeekly, CycleOneTime, CycleUnknown:
		return c, nil
	}
	return "", fmt.Errorf("billing cycle %q: %w", s, ErrUnknownValue)
}

// IsRecurring reports whether charges on this cycle are expected to repeat.
func (c BillingCycle) IsRecurring() bool {
	return c == CycleMonthly || c == CycleYearly || c == CycleWeekly
}

func (c *BillingCycle) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseBillingCycle(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type ChargeKind string

const (
	KindSubscription  ChargeKind = "subscription"
	KindOneTimeCharge ChargeKind = "one_time_charge"
	KindMarketing     ChargeKind = "marketing"
	KindNewsletter    ChargeKind = "newsletter"
	KindOther         ChargeKind = "other"
)

func ParseChargeKind(s string) (ChargeKind, error) {
	switch k := ChargeKind(strings.TrimSpace(s)); k {
	case KindSubscription, KindOneTimeCharge, KindMarketing, KindNewsletter, KindOther:
		return k, nil
	}
	return "", fmt.Errorf("charge kind %q: %w", s, ErrUnknownValue)
}

func (k *ChargeKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseChargeKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
