package commission_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-commission/internal/commission"
)

func TestDispatcherSelect(t *testing.T) {
	d := commission.NewDispatcher()

	calc, err := d.Select(commission.TypeFlat)
	require.NoError(t, err)
	require.IsType(t, commission.FlatCalculator{}, calc)

	calc, err = d.Select(commission.TypePercentage)
	require.NoError(t, err)
	require.IsType(t, commission.PercentageCalculator{}, calc)

	calc, err = d.Select(commission.TypeTiered)
	require.NoError(t, err)
	require.IsType(t, commission.TieredCalculator{}, calc)

	_, err = d.Select(commission.Type(99))
	require.ErrorIs(t, err, commission.ErrUnsupportedRuleType)
}

func TestDispatcherWithCustomTable(t *testing.T) {
	d := commission.NewDispatcherWith(map[commission.Type]commission.Calculator{
		commission.TypeFlat:       commission.FlatCalculator{},
		commission.TypePercentage: nil,
	})
	_, err := d.Select(commission.TypeFlat)
	require.NoError(t, err)
	_, err = d.Select(commission.TypePercentage)
	require.ErrorIs(t, err, commission.ErrUnsupportedRuleType)

	var nilDispatcher *commission.Dispatcher
	_, err = nilDispatcher.Select(commission.TypeFlat)
	require.ErrorIs(t, err, commission.ErrUnsupportedRuleType)
}

func TestTypeAndLevelText(t *testing.T) {
	typ, err := commission.ParseType(" Tiered ")
	require.NoError(t, err)
	require.Equal(t, commission.TypeTiered, typ)
	_, err = commission.ParseType("bonus")
	require.ErrorIs(t, err, commission.ErrUnsupportedRuleType)

	level, err := commission.ParseLevel("multiples_of_product_values")
	require.NoError(t, err)
	require.Equal(t, commission.LevelMultiplesOfProductValues, level)
	_, err = commission.ParseLevel("region")
	require.ErrorIs(t, err, commission.ErrUnsupportedRuleLevel)

	require.Equal(t, "type(9)", commission.Type(9).String())
	require.Equal(t, "invoice", commission.LevelInvoice.String())
}
