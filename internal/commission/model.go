package commission

import (
	"fmt"
	"strings"

	"github.com/noah-isme/backend-commission/internal/money"
)

// Type selects the payout computation of a rule.
type Type int16

const (
	TypeFlat       Type = 1
	TypePercentage Type = 2
	TypeTiered     Type = 3
)

var typeNames = map[Type]string{
	TypeFlat:       "flat",
	TypePercentage: "percentage",
	TypeTiered:     "tiered",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int16(t))
}

// ParseType resolves a type name (case-insensitive).
func ParseType(value string) (Type, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for t, name := range typeNames {
		if name == normalized {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedRuleType, value)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(data []byte) error {
	parsed, err := ParseType(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Level is the granularity at which a rule's metric is measured.
type Level int16

const (
	// LevelProduct measures per unit sold.
	LevelProduct Level = 1
	// LevelMultiplesOfProduct measures batches of units of one line.
	LevelMultiplesOfProduct Level = 2
	// LevelMultiplesOfProductValues measures the value of one line.
	LevelMultiplesOfProductValues Level = 3
	// LevelInvoice measures the invoice as a whole.
	LevelInvoice Level = 4
)

var levelNames = map[Level]string{
	LevelProduct:                  "product",
	LevelMultiplesOfProduct:       "multiples_of_product",
	LevelMultiplesOfProductValues: "multiples_of_product_values",
	LevelInvoice:                  "invoice",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int16(l))
}

// ParseLevel resolves a level name (case-insensitive).
func ParseLevel(value string) (Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for l, name := range levelNames {
		if name == normalized {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedRuleLevel, value)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Product is immutable reference data.
type Product struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Price money.Money `json:"price"`
}

// SalesPerson owns invoices and personal commission rules.
type SalesPerson struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	ID       int64   `json:"id"`
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}

// Value returns quantity × unit price.
func (it InvoiceItem) Value() money.Money {
	return it.Product.Price.MulInt(it.Quantity)
}

// Invoice is loaded read-only for one calculation; only TotalCommission is
// ever written back.
type Invoice struct {
	ID              int64         `json:"id"`
	SalesPersonID   int64         `json:"salesPersonId"`
	SalesPerson     *SalesPerson  `json:"salesPerson,omitempty"`
	Items           []InvoiceItem `json:"items"`
	TotalCommission *money.Money  `json:"totalCommission,omitempty"`
}

// Total sums the value of every line.
func (inv Invoice) Total() money.Money {
	total := money.Zero
	for _, it := range inv.Items {
		total = total.Add(it.Value())
	}
	return total
}

// Rule is one configured commission policy. Optional numeric fields are nil
// when unset; each calculator decides how an absent field is treated.
type Rule struct {
	ID            int64        `json:"id"`
	SalesPersonID *int64       `json:"salesPersonId,omitempty"`
	ProductID     *int64       `json:"productId,omitempty"`
	Type          Type         `json:"type"`
	Level         Level        `json:"level"`
	FlatAmount    *money.Money `json:"flatAmount,omitempty"`
	Percentage    *money.Money `json:"percentage,omitempty"`
	MinQuantity   *int64       `json:"minQuantity,omitempty"`
	MaxQuantity   *int64       `json:"maxQuantity,omitempty"`
	CapAmount     *money.Money `json:"capAmount,omitempty"`
	CapPercentage *money.Money `json:"capPercentage,omitempty"`
}

// IsDefault reports whether the rule applies to every sales person.
func (r Rule) IsDefault() bool { return r.SalesPersonID == nil }

// AppliesTo reports whether the rule belongs to the sales person or is a default rule.
func (r Rule) AppliesTo(salesPersonID int64) bool {
	return r.SalesPersonID == nil || *r.SalesPersonID == salesPersonID
}

func moneyOrZero(v *money.Money) money.Money {
	if v == nil {
		return money.Zero
	}
	return *v
}

func intOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
