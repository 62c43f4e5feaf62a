package repo

import (
	"context"
	"errors"

	"github.com/noah-isme/backend-commission/internal/commission"
	"github.com/noah-isme/backend-commission/internal/money"
	"github.com/noah-isme/backend-commission/internal/resilience"
)

// Guarded fails fast with resilience.ErrOpenCircuit while the database is
// unhealthy instead of queueing requests behind a dead pool.
type Guarded struct {
	Next    commission.Repository
	Breaker *resilience.Breaker
}

var _ commission.Repository = Guarded{}

func (g Guarded) GetInvoice(ctx context.Context, invoiceID int64) (*commission.Invoice, error) {
	var out *commission.Invoice
	err := g.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.Next.GetInvoice(ctx, invoiceID)
		return err
	}, storeFailure)
	return out, err
}

func (g Guarded) GetCommissionRules(ctx context.Context, salesPersonID int64) ([]commission.Rule, error) {
	var out []commission.Rule
	err := g.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.Next.GetCommissionRules(ctx, salesPersonID)
		return err
	}, storeFailure)
	return out, err
}

func (g Guarded) SaveTotalCommission(ctx context.Context, invoice *commission.Invoice, total money.Money) error {
	return g.Breaker.Do(ctx, func(ctx context.Context) error {
		return g.Next.SaveTotalCommission(ctx, invoice, total)
	}, storeFailure)
}

// storeFailure ignores outcomes that say nothing about database health.
func storeFailure(err error) bool {
	return !errors.Is(err, commission.ErrInvoiceNotFound) &&
		!errors.Is(err, context.Canceled)
}
