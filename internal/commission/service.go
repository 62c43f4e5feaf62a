package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-commission/internal/money"
	"github.com/noah-isme/backend-commission/internal/obs"
)

// Repository is the persistence boundary of the engine.
type Repository interface {
	// GetInvoice returns nil, nil when the invoice does not exist.
	GetInvoice(ctx context.Context, invoiceID int64) (*Invoice, error)
	// GetCommissionRules returns the sales person's rules plus every default
	// rule, in stored order.
	GetCommissionRules(ctx context.Context, salesPersonID int64) ([]Rule, error)
	// SaveTotalCommission sets invoice.TotalCommission and persists it.
	SaveTotalCommission(ctx context.Context, invoice *Invoice, total money.Money) error
}

// Locker serialises work on a key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Contribution is what one rule added to the uncapped total.
type Contribution struct {
	RuleID      int64       `json:"ruleId"`
	Type        Type        `json:"type"`
	Level       Level       `json:"level"`
	Evaluations int         `json:"evaluations"`
	Amount      money.Money `json:"amount"`
}

// Result is the full outcome of evaluating an invoice.
type Result struct {
	InvoiceID     int64          `json:"invoiceId"`
	SalesPersonID int64          `json:"salesPersonId"`
	InvoiceTotal  money.Money    `json:"invoiceTotal"`
	Uncapped      money.Money    `json:"uncapped"`
	Total         money.Money    `json:"total"`
	Contributions []Contribution `json:"contributions"`
	CapsApplied   []AppliedCap   `json:"capsApplied"`
}

// Service evaluates commission rules for invoices.
type Service struct {
	Repo       Repository
	Dispatcher *Dispatcher
	Locker     Locker
	LockTTL    time.Duration
	Logger     *zerolog.Logger
	Now        func() time.Time
}

var tracer = otel.Tracer("commission")

// LockKey is the lock guarding recalculation of one invoice.
func LockKey(invoiceID int64) string {
	return fmt.Sprintf("commission:invoice:%d", invoiceID)
}

// CalculateTotalCommission evaluates every applicable rule, applies caps,
// persists the total on the invoice and returns it. Nothing is written unless
// the whole evaluation succeeds.
func (s *Service) CalculateTotalCommission(ctx context.Context, invoiceID int64) (money.Money, error) {
	if s == nil || s.Repo == nil {
		return money.Zero, errors.New("commission service not configured")
	}
	start := s.now()
	ctx, span := tracer.Start(ctx, "commission.calculate", trace.WithAttributes(attribute.Int64("invoice.id", invoiceID)))
	defer span.End()

	var result Result
	run := func(ctx context.Context) error {
		res, invoice, err := s.evaluate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := s.Repo.SaveTotalCommission(ctx, invoice, res.Total); err != nil {
			return fmt.Errorf("save total commission for invoice %d: %w", invoiceID, err)
		}
		result = res
		return nil
	}

	var err error
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, LockKey(invoiceID), s.lockTTL(), run)
	} else {
		err = run(ctx)
	}

	elapsed := s.now().Sub(start)
	observeCalculation(err, elapsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log().Warn().Err(err).Int64("invoice_id", invoiceID).Msg("commission_calculation_failed")
		return money.Zero, err
	}
	span.SetAttributes(attribute.String("commission.total", result.Total.String()))
	s.log().Info().
		Int64("invoice_id", invoiceID).
		Int64("sales_person_id", result.SalesPersonID).
		Int("rules", len(result.Contributions)).
		Str("uncapped", result.Uncapped.String()).
		Str("total", result.Total.StringFixed(money.Cents)).
		Int64("duration_ms", elapsed.Milliseconds()).
		Msg("commission_calculated")
	return result.Total, nil
}

// Preview evaluates the invoice exactly like CalculateTotalCommission but
// persists nothing.
func (s *Service) Preview(ctx context.Context, invoiceID int64) (Result, error) {
	if s == nil || s.Repo == nil {
		return Result{}, errors.New("commission service not configured")
	}
	ctx, span := tracer.Start(ctx, "commission.preview", trace.WithAttributes(attribute.Int64("invoice.id", invoiceID)))
	defer span.End()
	res, _, err := s.evaluate(ctx, invoiceID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	return res, nil
}

func (s *Service) evaluate(ctx context.Context, invoiceID int64) (Result, *Invoice, error) {
	invoice, err := s.Repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return Result{}, nil, fmt.Errorf("get invoice %d: %w", invoiceID, err)
	}
	if invoice == nil {
		return Result{}, nil, fmt.Errorf("%w: id %d", ErrInvoiceNotFound, invoiceID)
	}
	rules, err := s.Repo.GetCommissionRules(ctx, invoice.SalesPersonID)
	if err != nil {
		return Result{}, nil, fmt.Errorf("get commission rules for sales person %d: %w", invoice.SalesPersonID, err)
	}

	dispatcher := s.Dispatcher
	if dispatcher == nil {
		dispatcher = defaultDispatcher
	}

	result := Result{
		InvoiceID:     invoice.ID,
		SalesPersonID: invoice.SalesPersonID,
		InvoiceTotal:  invoice.Total(),
		Contributions: make([]Contribution, 0, len(rules)),
	}
	uncapped := money.Zero
	for _, rule := range rules {
		contribution, err := evaluateRule(dispatcher, *invoice, rule)
		if err != nil {
			return Result{}, nil, fmt.Errorf("invoice %d: %w", invoiceID, err)
		}
		if obs.CommissionRuleEvaluationsTotal != nil {
			obs.CommissionRuleEvaluationsTotal.WithLabelValues(rule.Type.String(), rule.Level.String()).Add(float64(contribution.Evaluations))
		}
		uncapped = uncapped.Add(contribution.Amount)
		result.Contributions = append(result.Contributions, contribution)
	}

	capped, caps := CapsApplied(uncapped, *invoice, rules)
	if obs.CommissionCapsAppliedTotal != nil {
		for _, c := range caps {
			obs.CommissionCapsAppliedTotal.WithLabelValues(string(c.Kind)).Inc()
		}
	}
	result.Uncapped = uncapped
	result.CapsApplied = caps
	result.Total = capped.Round(money.Cents)
	return result, invoice, nil
}

// evaluateRule runs the rule once for invoice-level rules and once per item
// otherwise, in item order. The rule is validated first so an invoice without
// items still rejects a misconfigured rule.
func evaluateRule(dispatcher *Dispatcher, invoice Invoice, rule Rule) (Contribution, error) {
	calc, err := dispatcher.Select(rule.Type)
	if err != nil {
		return Contribution{}, ruleError(rule, err)
	}
	if v, ok := calc.(Validator); ok {
		if err := v.Validate(rule); err != nil {
			return Contribution{}, err
		}
	}
	contribution := Contribution{RuleID: rule.ID, Type: rule.Type, Level: rule.Level, Amount: money.Zero}
	if rule.Level == LevelInvoice {
		amount, err := calc.Calculate(nil, invoice, rule)
		if err != nil {
			return Contribution{}, err
		}
		contribution.Amount = amount
		contribution.Evaluations = 1
		return contribution, nil
	}
	for _, it := range invoice.Items {
		item := it
		amount, err := calc.Calculate(&item, invoice, rule)
		if err != nil {
			return Contribution{}, err
		}
		contribution.Amount = contribution.Amount.Add(amount)
		contribution.Evaluations++
	}
	return contribution, nil
}

var defaultDispatcher = NewDispatcher()

func observeCalculation(err error, elapsed time.Duration) {
	result := resultLabel(err)
	if obs.CommissionCalculationsTotal != nil {
		obs.CommissionCalculationsTotal.WithLabelValues(result).Inc()
	}
	if obs.CommissionCalculationDuration != nil {
		obs.CommissionCalculationDuration.WithLabelValues(result).Observe(obs.DurationMillis(elapsed))
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvoiceNotFound):
		return "not_found"
	case IsConfigurationError(err):
		return "invalid_rule"
	default:
		return "error"
	}
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL <= 0 {
		return 30 * time.Second
	}
	return s.LockTTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log() *zerolog.Logger {
	if s.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return s.Logger
}
