package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Column values of commission_rules.rule_type / rule_level.
const (
	typeFlat       = 1
	typePercentage = 2
	typeTiered     = 3

	levelProduct            = 1
	levelMultiplesOfProduct = 2
	levelProductValues      = 3
	levelInvoice            = 4
)

type rule struct {
	SalesPerson   string
	Product       string
	Type          int
	Level         int
	FlatAmount    any
	Percentage    any
	MinQuantity   any
	MaxQuantity   any
	CapAmount     any
	CapPercentage any
}

type invoice struct {
	SalesPerson string
	Lines       []line
}

type line struct {
	Product  string
	Quantity int
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	people := seedSalesPeople(db)
	products := seedProducts(db)
	seedRules(db, people, products)
	seedInvoices(db, people, products)

	log.Println("Seeding completed successfully!")
}

func seedSalesPeople(db *sql.DB) map[string]int64 {
	fmt.Println("Seeding Sales People...")
	ids := make(map[string]int64)
	for _, name := range []string{"Flora", "Marco", "Ayu"} {
		id, err := findOrInsert(db,
			`SELECT id FROM sales_people WHERE name = $1`,
			`INSERT INTO sales_people (name) VALUES ($1) RETURNING id`,
			name)
		if err != nil {
			log.Printf("Failed to seed sales person %s: %v", name, err)
			continue
		}
		ids[name] = id
	}
	return ids
}

func seedProducts(db *sql.DB) map[string]int64 {
	products := []struct {
		Name  string
		Price string
	}{
		{"Wheel", "10.00"},
		{"Helmet", "50.00"},
		{"Frame", "100.00"},
		{"Chain", "7.50"},
	}

	fmt.Println("Seeding Products...")
	ids := make(map[string]int64)
	for _, p := range products {
		id, err := findOrInsert(db,
			`SELECT id FROM products WHERE name = $1`,
			`INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id`,
			p.Name, p.Price)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
			continue
		}
		ids[p.Name] = id
	}
	return ids
}

func seedRules(db *sql.DB, people, products map[string]int64) {
	var existing int
	if err := db.QueryRow(`SELECT count(*) FROM commission_rules`).Scan(&existing); err != nil {
		log.Printf("Failed to count commission rules: %v", err)
		return
	}
	if existing > 0 {
		fmt.Println("Commission rules already present, skipping")
		return
	}

	rules := []rule{
		// Flora: 1.00 per wheel sold, capped at 10% of the invoice.
		{SalesPerson: "Flora", Product: "Wheel", Type: typeFlat, Level: levelProduct, FlatAmount: "1.00", CapPercentage: "10"},
		// Flora: 5.00 for every 10 wheels on a line.
		{SalesPerson: "Flora", Product: "Wheel", Type: typeFlat, Level: levelMultiplesOfProduct, FlatAmount: "5.00", MinQuantity: 10},
		// Marco: 5% of each line, at most 20.00 per invoice.
		{SalesPerson: "Marco", Type: typePercentage, Level: levelProduct, Percentage: "5", CapAmount: "20.00"},
		// Marco: 15.00 when an invoice falls between 100 and 500.
		{SalesPerson: "Marco", Type: typeTiered, Level: levelInvoice, FlatAmount: "15.00", MinQuantity: 100, MaxQuantity: 500},
		// Ayu: 2% of lines holding 5 to 20 units.
		{SalesPerson: "Ayu", Type: typeTiered, Level: levelMultiplesOfProduct, Percentage: "2", MinQuantity: 5, MaxQuantity: 20},
		// Everyone: 25.00 for a line worth 200 to 1000.
		{Type: typeTiered, Level: levelProductValues, FlatAmount: "25.00", MinQuantity: 200, MaxQuantity: 1000},
		// Everyone: 1% of the invoice.
		{Type: typePercentage, Level: levelInvoice, Percentage: "1"},
	}

	fmt.Println("Seeding Commission Rules...")
	for _, r := range rules {
		var salesPersonID, productID any
		if r.SalesPerson != "" {
			id, ok := people[r.SalesPerson]
			if !ok {
				continue
			}
			salesPersonID = id
		}
		if r.Product != "" {
			id, ok := products[r.Product]
			if !ok {
				continue
			}
			productID = id
		}
		_, err := db.Exec(`
			INSERT INTO commission_rules
				(sales_person_id, product_id, rule_type, rule_level, flat_amount, percentage,
				 min_quantity, max_quantity, cap_amount, cap_percentage)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, salesPersonID, productID, r.Type, r.Level, r.FlatAmount, r.Percentage,
			r.MinQuantity, r.MaxQuantity, r.CapAmount, r.CapPercentage)
		if err != nil {
			log.Printf("Failed to seed rule type=%d level=%d for %q: %v", r.Type, r.Level, r.SalesPerson, err)
		}
	}
}

func seedInvoices(db *sql.DB, people, products map[string]int64) {
	var existing int
	if err := db.QueryRow(`SELECT count(*) FROM invoices`).Scan(&existing); err != nil {
		log.Printf("Failed to count invoices: %v", err)
		return
	}
	if existing > 0 {
		fmt.Println("Invoices already present, skipping")
		return
	}

	invoices := []invoice{
		{SalesPerson: "Flora", Lines: []line{{"Wheel", 5}}},
		{SalesPerson: "Flora", Lines: []line{{"Wheel", 25}, {"Chain", 4}}},
		{SalesPerson: "Marco", Lines: []line{{"Frame", 2}, {"Helmet", 1}}},
		{SalesPerson: "Ayu", Lines: []line{{"Helmet", 6}, {"Wheel", 30}}},
	}

	fmt.Println("Seeding Invoices...")
	for _, inv := range invoices {
		if err := insertInvoice(db, people[inv.SalesPerson], products, inv.Lines); err != nil {
			log.Printf("Failed to seed invoice for %s: %v", inv.SalesPerson, err)
		}
	}
}

func insertInvoice(db *sql.DB, salesPersonID int64, products map[string]int64, lines []line) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var invoiceID int64
	if err := tx.QueryRow(`INSERT INTO invoices (sales_person_id) VALUES ($1) RETURNING id`, salesPersonID).Scan(&invoiceID); err != nil {
		return err
	}
	for pos, l := range lines {
		productID, ok := products[l.Product]
		if !ok {
			return fmt.Errorf("unknown product %q", l.Product)
		}
		if _, err := tx.Exec(`
			INSERT INTO invoice_items (invoice_id, product_id, quantity, position)
			VALUES ($1, $2, $3, $4)
		`, invoiceID, productID, l.Quantity, pos); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func findOrInsert(db *sql.DB, selectSQL, insertSQL string, args ...any) (int64, error) {
	var id int64
	err := db.QueryRow(selectSQL, args[0]).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	err = db.QueryRow(insertSQL, args...).Scan(&id)
	return id, err
}
