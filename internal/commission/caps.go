package commission

import "github.com/noah-isme/backend-commission/internal/money"

// CapKind names the ceiling a rule declares.
type CapKind string

const (
	CapKindNone       CapKind = ""
	CapKindAmount     CapKind = "amount"
	CapKindPercentage CapKind = "percentage"
)

// AppliedCap records a rule whose ceiling lowered the running total.
type AppliedCap struct {
	RuleID int64       `json:"ruleId"`
	Kind   CapKind     `json:"kind"`
	Limit  money.Money `json:"limit"`
	Before money.Money `json:"before"`
	After  money.Money `json:"after"`
}

// ApplyCaps narrows the aggregated total to every ceiling declared by rules,
// in rule order. CapAmount wins over CapPercentage on the same rule.
func ApplyCaps(total money.Money, invoice Invoice, rules []Rule) money.Money {
	capped, _ := CapsApplied(total, invoice, rules)
	return capped
}

// CapsApplied behaves like ApplyCaps and also reports which rules lowered the total.
func CapsApplied(total money.Money, invoice Invoice, rules []Rule) (money.Money, []AppliedCap) {
	var applied []AppliedCap
	invoiceTotal := invoice.Total()
	for _, rule := range rules {
		kind, limit := ceiling(rule, invoiceTotal)
		if kind == CapKindNone {
			continue
		}
		if limit.LessThan(total) {
			applied = append(applied, AppliedCap{RuleID: rule.ID, Kind: kind, Limit: limit, Before: total, After: limit})
			total = limit
		}
	}
	return total, applied
}

func ceiling(rule Rule, invoiceTotal money.Money) (CapKind, money.Money) {
	if rule.CapAmount != nil {
		return CapKindAmount, *rule.CapAmount
	}
	if rule.CapPercentage != nil {
		return CapKindPercentage, invoiceTotal.Percent(*rule.CapPercentage)
	}
	return CapKindNone, money.Zero
}
