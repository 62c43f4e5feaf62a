package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getInvoice = `-- name: GetInvoice :one
SELECT i.id, i.sales_person_id, i.total_commission, sp.name AS sales_person_name
FROM invoices i
JOIN sales_people sp ON sp.id = i.sales_person_id
WHERE i.id = $1
`

type GetInvoiceRow struct {
	ID              int64          `json:"id"`
	SalesPersonID   int64          `json:"sales_person_id"`
	TotalCommission pgtype.Numeric `json:"total_commission"`
	SalesPersonName string         `json:"sales_person_name"`
}

func (q *Queries) GetInvoice(ctx context.Context, id int64) (GetInvoiceRow, error) {
	row := q.db.QueryRow(ctx, getInvoice, id)
	var i GetInvoiceRow
	err := row.Scan(
		&i.ID,
		&i.SalesPersonID,
		&i.TotalCommission,
		&i.SalesPersonName,
	)
	return i, err
}

const listInvoiceItems = `-- name: ListInvoiceItems :many
SELECT ii.id, ii.quantity, p.id AS product_id, p.name AS product_name, p.price AS product_price
FROM invoice_items ii
JOIN products p ON p.id = ii.product_id
WHERE ii.invoice_id = $1
ORDER BY ii.position, ii.id
`

type ListInvoiceItemsRow struct {
	ID           int64          `json:"id"`
	Quantity     int64          `json:"quantity"`
	ProductID    int64          `json:"product_id"`
	ProductName  string         `json:"product_name"`
	ProductPrice pgtype.Numeric `json:"product_price"`
}

func (q *Queries) ListInvoiceItems(ctx context.Context, invoiceID int64) ([]ListInvoiceItemsRow, error) {
	rows, err := q.db.Query(ctx, listInvoiceItems, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListInvoiceItemsRow
	for rows.Next() {
		var i ListInvoiceItemsRow
		if err := rows.Scan(
			&i.ID,
			&i.Quantity,
			&i.ProductID,
			&i.ProductName,
			&i.ProductPrice,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCommissionRulesForSalesPerson = `-- name: ListCommissionRulesForSalesPerson :many
SELECT id, sales_person_id, product_id, rule_type, rule_level, flat_amount, percentage,
       min_quantity, max_quantity, cap_amount, cap_percentage
FROM commission_rules
WHERE sales_person_id = $1 OR sales_person_id IS NULL
ORDER BY id
`

func (q *Queries) ListCommissionRulesForSalesPerson(ctx context.Context, salesPersonID pgtype.Int8) ([]CommissionRule, error) {
	rows, err := q.db.Query(ctx, listCommissionRulesForSalesPerson, salesPersonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CommissionRule
	for rows.Next() {
		var i CommissionRule
		if err := rows.Scan(
			&i.ID,
			&i.SalesPersonID,
			&i.ProductID,
			&i.RuleType,
			&i.RuleLevel,
			&i.FlatAmount,
			&i.Percentage,
			&i.MinQuantity,
			&i.MaxQuantity,
			&i.CapAmount,
			&i.CapPercentage,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateInvoiceTotalCommission = `-- name: UpdateInvoiceTotalCommission :execrows
UPDATE invoices SET total_commission = $2, updated_at = now()
WHERE id = $1
`

type UpdateInvoiceTotalCommissionParams struct {
	ID              int64          `json:"id"`
	TotalCommission pgtype.Numeric `json:"total_commission"`
}

func (q *Queries) UpdateInvoiceTotalCommission(ctx context.Context, arg UpdateInvoiceTotalCommissionParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateInvoiceTotalCommission, arg.ID, arg.TotalCommission)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
