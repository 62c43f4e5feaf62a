package commission

import (
	"fmt"

	"github.com/noah-isme/backend-commission/internal/money"
)

// Calculator computes the contribution of one rule. item is nil for
// invoice-level evaluation. Implementations hold no state.
type Calculator interface {
	Calculate(item *InvoiceItem, invoice Invoice, rule Rule) (money.Money, error)
}

// Validator is implemented by calculators that can reject a rule without
// evaluating it, so misconfiguration surfaces even when no item is present.
type Validator interface {
	Validate(rule Rule) error
}

var (
	_ Validator = FlatCalculator{}
	_ Validator = PercentageCalculator{}
	_ Validator = TieredCalculator{}
)

// FlatCalculator pays a fixed amount per unit, per batch or per invoice.
type FlatCalculator struct{}

// Validate implements Validator.
func (FlatCalculator) Validate(rule Rule) error {
	switch rule.Level {
	case LevelProduct, LevelInvoice:
		return nil
	case LevelMultiplesOfProduct:
		_, err := flatBatchSize(rule)
		return err
	default:
		return ruleError(rule, ErrUnsupportedRuleLevel)
	}
}

// Calculate implements Calculator.
func (FlatCalculator) Calculate(item *InvoiceItem, _ Invoice, rule Rule) (money.Money, error) {
	switch rule.Level {
	case LevelProduct:
		if item == nil {
			return money.Zero, ruleError(rule, ErrItemRequired)
		}
		return moneyOrZero(rule.FlatAmount).MulInt(item.Quantity), nil
	case LevelMultiplesOfProduct:
		if item == nil {
			return money.Zero, ruleError(rule, ErrItemRequired)
		}
		batchSize, err := flatBatchSize(rule)
		if err != nil {
			return money.Zero, err
		}
		batches := item.Quantity / batchSize
		return moneyOrZero(rule.FlatAmount).MulInt(batches), nil
	case LevelInvoice:
		return moneyOrZero(rule.FlatAmount), nil
	default:
		return money.Zero, ruleError(rule, ErrUnsupportedRuleLevel)
	}
}

// flatBatchSize reads the batch size, which MinQuantity doubles as.
func flatBatchSize(rule Rule) (int64, error) {
	batchSize := intOrZero(rule.MinQuantity)
	if batchSize <= 0 {
		return 0, ruleError(rule, fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidRuleConfiguration, batchSize))
	}
	return batchSize, nil
}

// PercentageCalculator pays a percentage of a line value or of the invoice total.
type PercentageCalculator struct{}

// Validate implements Validator.
func (PercentageCalculator) Validate(rule Rule) error {
	switch rule.Level {
	case LevelProduct, LevelInvoice:
		return nil
	default:
		return ruleError(rule, ErrUnsupportedRuleLevel)
	}
}

// Calculate implements Calculator.
func (PercentageCalculator) Calculate(item *InvoiceItem, invoice Invoice, rule Rule) (money.Money, error) {
	pct := moneyOrZero(rule.Percentage)
	switch rule.Level {
	case LevelProduct:
		if item == nil {
			return money.Zero, ruleError(rule, ErrItemRequired)
		}
		return item.Value().Percent(pct), nil
	case LevelInvoice:
		return invoice.Total().Percent(pct), nil
	default:
		return money.Zero, ruleError(rule, ErrUnsupportedRuleLevel)
	}
}

// TieredCalculator pays only when a quantity or value metric falls inside the
// inclusive band [MinQuantity, MaxQuantity].
type TieredCalculator struct{}

// Validate implements Validator.
func (TieredCalculator) Validate(rule Rule) error {
	switch rule.Level {
	case LevelMultiplesOfProduct, LevelMultiplesOfProductValues, LevelInvoice:
		return nil
	default:
		return ruleError(rule, ErrUnsupportedRuleLevel)
	}
}

// Calculate implements Calculator.
func (TieredCalculator) Calculate(item *InvoiceItem, invoice Invoice, rule Rule) (money.Money, error) {
	switch rule.Level {
	case LevelMultiplesOfProduct:
		if item == nil {
			return money.Zero, ruleError(rule, ErrItemRequired)
		}
		metric := money.FromInt(item.Quantity)
		return tierPayout(metric, item.Value(), rule), nil
	case LevelMultiplesOfProductValues:
		if item == nil {
			return money.Zero, ruleError(rule, ErrItemRequired)
		}
		value := item.Value()
		return tierPayout(value, value, rule), nil
	case LevelInvoice:
		total := invoice.Total()
		return tierPayout(total, total, rule), nil
	default:
		return money.Zero, ruleError(rule, ErrUnsupportedRuleLevel)
	}
}

// tierPayout returns the flat amount when set, else base × percentage, for a
// metric inside the band. A set flat amount wins even when it is zero.
func tierPayout(metric, base money.Money, rule Rule) money.Money {
	if !inBand(metric, rule) {
		return money.Zero
	}
	if rule.FlatAmount != nil {
		return *rule.FlatAmount
	}
	if rule.Percentage != nil {
		return base.Percent(*rule.Percentage)
	}
	return money.Zero
}

func inBand(metric money.Money, rule Rule) bool {
	lower := money.FromInt(intOrZero(rule.MinQuantity))
	upper := money.FromInt(intOrZero(rule.MaxQuantity))
	return metric.GreaterThanOrEqual(lower) && metric.LessThanOrEqual(upper)
}
