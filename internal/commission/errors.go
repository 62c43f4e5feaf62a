package commission

import (
	"errors"
	"fmt"
)

var (
	// ErrInvoiceNotFound is returned when the invoice id does not resolve.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrUnsupportedRuleType is returned when no calculator handles the rule type.
	ErrUnsupportedRuleType = errors.New("unsupported commission rule type")
	// ErrUnsupportedRuleLevel is returned when the rule level is incompatible with its type.
	ErrUnsupportedRuleLevel = errors.New("unsupported commission rule level")
	// ErrInvalidRuleConfiguration is returned when a rule cannot produce a value, e.g. a zero batch size.
	ErrInvalidRuleConfiguration = errors.New("invalid commission rule configuration")
	// ErrItemRequired is returned when an item-level rule is evaluated without an invoice item.
	ErrItemRequired = errors.New("commission rule requires an invoice item")
)

// RuleError ties a calculation failure to the rule that caused it.
type RuleError struct {
	RuleID int64
	Type   Type
	Level  Level
	Err    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("rule %d (%s/%s): %v", e.RuleID, e.Type, e.Level, e.Err)
}

// Unwrap allows errors.Is/As to inspect the underlying sentinel.
func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func ruleError(rule Rule, err error) error {
	return &RuleError{RuleID: rule.ID, Type: rule.Type, Level: rule.Level, Err: err}
}

// IsConfigurationError reports whether err stems from a misconfigured rule
// rather than from data access.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnsupportedRuleType) ||
		errors.Is(err, ErrUnsupportedRuleLevel) ||
		errors.Is(err, ErrInvalidRuleConfiguration) ||
		errors.Is(err, ErrItemRequired)
}
