package dbgen

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type SalesPerson struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type Product struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Price     pgtype.Numeric     `json:"price"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type Invoice struct {
	ID              int64              `json:"id"`
	SalesPersonID   int64              `json:"sales_person_id"`
	TotalCommission pgtype.Numeric     `json:"total_commission"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

type CommissionRule struct {
	ID            int64          `json:"id"`
	SalesPersonID pgtype.Int8    `json:"sales_person_id"`
	ProductID     pgtype.Int8    `json:"product_id"`
	RuleType      int16          `json:"rule_type"`
	RuleLevel     int16          `json:"rule_level"`
	FlatAmount    pgtype.Numeric `json:"flat_amount"`
	Percentage    pgtype.Numeric `json:"percentage"`
	MinQuantity   pgtype.Int8    `json:"min_quantity"`
	MaxQuantity   pgtype.Int8    `json:"max_quantity"`
	CapAmount     pgtype.Numeric `json:"cap_amount"`
	CapPercentage pgtype.Numeric `json:"cap_percentage"`
}
