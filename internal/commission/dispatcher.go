package commission

// Dispatcher maps a rule type to its calculator. It is read-only after
// construction and safe for concurrent use.
type Dispatcher struct {
	calculators map[Type]Calculator
}

// NewDispatcher returns the dispatcher for the three built-in rule types.
func NewDispatcher() *Dispatcher {
	return NewDispatcherWith(map[Type]Calculator{
		TypeFlat:       FlatCalculator{},
		TypePercentage: PercentageCalculator{},
		TypeTiered:     TieredCalculator{},
	})
}

// NewDispatcherWith builds a dispatcher over a custom table.
func NewDispatcherWith(table map[Type]Calculator) *Dispatcher {
	calculators := make(map[Type]Calculator, len(table))
	for t, c := range table {
		if c != nil {
			calculators[t] = c
		}
	}
	return &Dispatcher{calculators: calculators}
}

// Select returns the calculator registered for t.
func (d *Dispatcher) Select(t Type) (Calculator, error) {
	if d == nil {
		return nil, ErrUnsupportedRuleType
	}
	c, ok := d.calculators[t]
	if !ok {
		return nil, ErrUnsupportedRuleType
	}
	return c, nil
}
