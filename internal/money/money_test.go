package money_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-commission/internal/money"
)

func TestPercentIsExact(t *testing.T) {
	total := money.MustParse("350.00")
	got := total.Percent(money.FromInt(15))
	require.True(t, got.Equal(money.MustParse("52.5")), "got %s", got)

	third := money.MustParse("0.01").Percent(money.MustParse("33.3333"))
	require.Equal(t, "0.00333333", third.String())
}

func TestMulIntAndSum(t *testing.T) {
	price := money.New(1000, -2)
	line := price.MulInt(5)
	require.True(t, line.Equal(money.FromInt(50)))

	sum := money.Sum(line, money.MustParse("0.10"), money.MustParse("0.20"))
	require.Equal(t, "50.30", sum.StringFixed(2))
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	require.Equal(t, "0.13", money.MustParse("0.125").Round(money.Cents).StringFixed(2))
	require.Equal(t, "-0.13", money.MustParse("-0.125").Round(money.Cents).StringFixed(2))
	require.Equal(t, "0.12", money.MustParse("0.1249").Round(money.Cents).StringFixed(2))
}

func TestMin(t *testing.T) {
	a := money.MustParse("52.50")
	b := money.FromInt(30)
	require.True(t, money.Min(a, b).Equal(b))
	require.True(t, money.Min(b, a).Equal(b))
	require.True(t, money.Min(a, a).Equal(a))
}

func TestComparisons(t *testing.T) {
	ten := money.FromInt(10)
	require.True(t, ten.Equal(money.MustParse("10.000")))
	require.True(t, ten.LessThan(money.MustParse("10.01")))
	require.True(t, ten.GreaterThanOrEqual(money.MustParse("10")))
	require.True(t, money.Zero.IsZero())
	require.True(t, money.FromInt(-1).IsNegative())
	require.Equal(t, 1, ten.Cmp(money.Zero))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := money.Parse("ten")
	require.Error(t, err)
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(map[string]money.Money{"total": money.MustParse("35")})
	require.NoError(t, err)
	require.JSONEq(t, `{"total":35.00}`, string(data))
	require.Equal(t, `{"total":35.00}`, string(data))

	var fromNumber, fromString money.Money
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`"12.50"`), &fromString))
	require.True(t, fromNumber.Equal(fromString))
}
