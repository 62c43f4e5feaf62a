package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-commission/internal/commission"
	dbgen "github.com/noah-isme/backend-commission/internal/db/gen"
	"github.com/noah-isme/backend-commission/internal/money"
)

// CommissionQuerier defines the generated queries used by CommissionRepo.
type CommissionQuerier interface {
	GetInvoice(ctx context.Context, id int64) (dbgen.GetInvoiceRow, error)
	ListInvoiceItems(ctx context.Context, invoiceID int64) ([]dbgen.ListInvoiceItemsRow, error)
	ListCommissionRulesForSalesPerson(ctx context.Context, salesPersonID pgtype.Int8) ([]dbgen.CommissionRule, error)
	UpdateInvoiceTotalCommission(ctx context.Context, arg dbgen.UpdateInvoiceTotalCommissionParams) (int64, error)
}

// CommissionRepo maps stored rows onto the commission domain.
type CommissionRepo struct {
	Q CommissionQuerier
}

var _ commission.Repository = CommissionRepo{}

// GetInvoice loads the invoice with its items and sales person. A missing
// invoice yields nil, nil.
func (r CommissionRepo) GetInvoice(ctx context.Context, invoiceID int64) (*commission.Invoice, error) {
	row, err := r.Q.GetInvoice(ctx, invoiceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	total, err := optionalMoney(row.TotalCommission)
	if err != nil {
		return nil, columnError("invoices.total_commission", err)
	}
	rows, err := r.Q.ListInvoiceItems(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items := make([]commission.InvoiceItem, 0, len(rows))
	for _, it := range rows {
		price, err := moneyFromNumeric(it.ProductPrice)
		if err != nil {
			return nil, columnError("products.price", err)
		}
		items = append(items, commission.InvoiceItem{
			ID:       it.ID,
			Product:  commission.Product{ID: it.ProductID, Name: it.ProductName, Price: price},
			Quantity: it.Quantity,
		})
	}
	return &commission.Invoice{
		ID:              row.ID,
		SalesPersonID:   row.SalesPersonID,
		SalesPerson:     &commission.SalesPerson{ID: row.SalesPersonID, Name: row.SalesPersonName},
		Items:           items,
		TotalCommission: total,
	}, nil
}

// GetCommissionRules returns the sales person's rules and every default rule
// ordered by id.
func (r CommissionRepo) GetCommissionRules(ctx context.Context, salesPersonID int64) ([]commission.Rule, error) {
	rows, err := r.Q.ListCommissionRulesForSalesPerson(ctx, pgtype.Int8{Int64: salesPersonID, Valid: true})
	if err != nil {
		return nil, err
	}
	rules := make([]commission.Rule, 0, len(rows))
	for _, row := range rows {
		rule, err := ruleFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", row.ID, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// SaveTotalCommission stores total on the invoice row.
func (r CommissionRepo) SaveTotalCommission(ctx context.Context, invoice *commission.Invoice, total money.Money) error {
	if invoice == nil {
		return errors.New("invoice is nil")
	}
	affected, err := r.Q.UpdateInvoiceTotalCommission(ctx, dbgen.UpdateInvoiceTotalCommissionParams{
		ID:              invoice.ID,
		TotalCommission: numericFromMoney(total),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", commission.ErrInvoiceNotFound, invoice.ID)
	}
	invoice.TotalCommission = &total
	return nil
}

func ruleFromRow(row dbgen.CommissionRule) (commission.Rule, error) {
	rule := commission.Rule{
		ID:            row.ID,
		SalesPersonID: optionalInt(row.SalesPersonID),
		ProductID:     optionalInt(row.ProductID),
		Type:          commission.Type(row.RuleType),
		Level:         commission.Level(row.RuleLevel),
		MinQuantity:   optionalInt(row.MinQuantity),
		MaxQuantity:   optionalInt(row.MaxQuantity),
	}
	var err error
	if rule.FlatAmount, err = optionalMoney(row.FlatAmount); err != nil {
		return rule, columnError("flat_amount", err)
	}
	if rule.Percentage, err = optionalMoney(row.Percentage); err != nil {
		return rule, columnError("percentage", err)
	}
	if rule.CapAmount, err = optionalMoney(row.CapAmount); err != nil {
		return rule, columnError("cap_amount", err)
	}
	if rule.CapPercentage, err = optionalMoney(row.CapPercentage); err != nil {
		return rule, columnError("cap_percentage", err)
	}
	return rule, nil
}
