package commission_test

import (
	"github.com/noah-isme/backend-commission/internal/commission"
	"github.com/noah-isme/backend-commission/internal/money"
)

func m(s string) money.Money { return money.MustParse(s) }

func mp(s string) *money.Money {
	v := money.MustParse(s)
	return &v
}

func ip(v int64) *int64 { return &v }

func item(id int64, price string, qty int64) commission.InvoiceItem {
	return commission.InvoiceItem{
		ID:       id,
		Product:  commission.Product{ID: id, Name: "product", Price: m(price)},
		Quantity: qty,
	}
}

func invoice(items ...commission.InvoiceItem) commission.Invoice {
	return commission.Invoice{ID: 1, SalesPersonID: 7, Items: items}
}
