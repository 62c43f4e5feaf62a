package commission_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-commission/internal/commission"
)

func TestApplyCaps(t *testing.T) {
	inv := invoice(item(1, "50.00", 3), item(2, "100.00", 2)) // total 350

	t.Run("no caps leaves total unchanged", func(t *testing.T) {
		rules := []commission.Rule{{ID: 1, Type: commission.TypeFlat, Level: commission.LevelInvoice}}
		requireMoney(t, "52.5", commission.ApplyCaps(m("52.5"), inv, rules))
	})

	t.Run("amount cap", func(t *testing.T) {
		rules := []commission.Rule{{ID: 1, CapAmount: mp("30")}}
		requireMoney(t, "30", commission.ApplyCaps(m("52.5"), inv, rules))
	})

	t.Run("percentage cap of invoice total", func(t *testing.T) {
		rules := []commission.Rule{{ID: 1, CapPercentage: mp("10")}}
		requireMoney(t, "35", commission.ApplyCaps(m("52.5"), inv, rules))
	})

	t.Run("amount cap wins over percentage on same rule", func(t *testing.T) {
		rules := []commission.Rule{{ID: 1, CapAmount: mp("50"), CapPercentage: mp("1")}}
		requireMoney(t, "50", commission.ApplyCaps(m("52.5"), inv, rules))
	})

	t.Run("caps compound to the lowest", func(t *testing.T) {
		rules := []commission.Rule{
			{ID: 1, CapAmount: mp("40")},
			{ID: 2, CapPercentage: mp("5")},
			{ID: 3, CapAmount: mp("45")},
		}
		capped, applied := commission.CapsApplied(m("52.5"), inv, rules)
		requireMoney(t, "17.5", capped)
		require.Len(t, applied, 2)
		require.Equal(t, int64(1), applied[0].RuleID)
		require.Equal(t, commission.CapKindAmount, applied[0].Kind)
		require.Equal(t, int64(2), applied[1].RuleID)
		require.Equal(t, commission.CapKindPercentage, applied[1].Kind)
		requireMoney(t, "40", applied[1].Before)
	})

	t.Run("cap above total does nothing", func(t *testing.T) {
		capped, applied := commission.CapsApplied(m("10"), inv, []commission.Rule{{ID: 1, CapAmount: mp("30")}})
		requireMoney(t, "10", capped)
		require.Empty(t, applied)
	})

	t.Run("idempotent and monotonic", func(t *testing.T) {
		rules := []commission.Rule{{ID: 1, CapAmount: mp("30")}, {ID: 2, CapPercentage: mp("20")}}
		once := commission.ApplyCaps(m("99"), inv, rules)
		twice := commission.ApplyCaps(once, inv, rules)
		requireMoney(t, once.String(), twice)
		require.True(t, once.LessThanOrEqual(m("99")))
	})
}
