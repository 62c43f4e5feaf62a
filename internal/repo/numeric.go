package repo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-commission/internal/money"
)

var errNonFinite = errors.New("numeric is not finite")

// moneyFromNumeric converts a NOT NULL numeric column.
func moneyFromNumeric(n pgtype.Numeric) (money.Money, error) {
	if !n.Valid {
		return money.Zero, errors.New("numeric is null")
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return money.Zero, errNonFinite
	}
	if n.Int == nil {
		return money.Zero, nil
	}
	return money.FromDecimal(decimal.NewFromBigInt(n.Int, n.Exp)), nil
}

// optionalMoney converts a nullable numeric column; NULL maps to nil.
func optionalMoney(n pgtype.Numeric) (*money.Money, error) {
	if !n.Valid {
		return nil, nil
	}
	m, err := moneyFromNumeric(n)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func numericFromMoney(m money.Money) pgtype.Numeric {
	d := m.Decimal()
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func optionalInt(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}

func columnError(column string, err error) error {
	return fmt.Errorf("column %s: %w", column, err)
}
