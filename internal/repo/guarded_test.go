package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-commission/internal/commission"
	"github.com/noah-isme/backend-commission/internal/money"
	"github.com/noah-isme/backend-commission/internal/repo"
	"github.com/noah-isme/backend-commission/internal/resilience"
)

type flakyRepo struct {
	err   error
	calls int
}

func (f *flakyRepo) GetInvoice(context.Context, int64) (*commission.Invoice, error) {
	f.calls++
	return nil, f.err
}

func (f *flakyRepo) GetCommissionRules(context.Context, int64) ([]commission.Rule, error) {
	f.calls++
	return nil, f.err
}

func (f *flakyRepo) SaveTotalCommission(context.Context, *commission.Invoice, money.Money) error {
	f.calls++
	return f.err
}

func TestGuardedOpensOnStoreErrors(t *testing.T) {
	next := &flakyRepo{err: errors.New("connection refused")}
	g := repo.Guarded{Next: next, Breaker: resilience.NewBreaker(2, 0.5, time.Minute)}
	ctx := context.Background()

	_, err := g.GetInvoice(ctx, 1)
	require.Error(t, err)
	_, err = g.GetCommissionRules(ctx, 1)
	require.Error(t, err)

	err = g.SaveTotalCommission(ctx, &commission.Invoice{ID: 1}, money.Zero)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Equal(t, 2, next.calls)
}

func TestGuardedIgnoresNotFound(t *testing.T) {
	next := &flakyRepo{err: commission.ErrInvoiceNotFound}
	breaker := resilience.NewBreaker(1, 0.5, time.Minute)
	g := repo.Guarded{Next: next, Breaker: breaker}

	for i := 0; i < 3; i++ {
		err := g.SaveTotalCommission(context.Background(), &commission.Invoice{ID: 1}, money.Zero)
		require.ErrorIs(t, err, commission.ErrInvoiceNotFound)
	}
	require.Equal(t, resilience.Closed, breaker.State())
}
