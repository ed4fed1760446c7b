package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"github.com/Vaidehip0407/SKOPE-ERP/internal/domain"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/money"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/store"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema applies the DDL on startup. Statements are idempotent so
// repeated boots are safe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaDDL)
	return err
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS products (
	id              TEXT PRIMARY KEY,
	store_id        TEXT NOT NULL,
	sku             TEXT NOT NULL,
	name            TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	unit_price      NUMERIC(12,2) NOT NULL,
	cost_price      NUMERIC(12,2) NOT NULL DEFAULT 0,
	gst_rate        NUMERIC(5,2) NOT NULL DEFAULT 18,
	current_stock   INTEGER NOT NULL DEFAULT 0 CHECK (current_stock >= 0),
	minimum_stock   INTEGER NOT NULL DEFAULT 10,
	warranty_months INTEGER NOT NULL DEFAULT 0,
	active          BOOLEAN NOT NULL DEFAULT true,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (store_id, sku)
);

CREATE TABLE IF NOT EXISTS customers (
	id              TEXT PRIMARY KEY,
	store_id        TEXT NOT NULL,
	name            TEXT NOT NULL,
	phone           TEXT NOT NULL DEFAULT '',
	gst_number      TEXT NOT NULL DEFAULT '',
	total_purchases NUMERIC(14,2) NOT NULL DEFAULT 0,
	loyalty_points  BIGINT NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS invoice_sequences (
	store_id   TEXT NOT NULL,
	seq_date   DATE NOT NULL,
	last_value INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (store_id, seq_date)
);

CREATE TABLE IF NOT EXISTS sales (
	id             TEXT PRIMARY KEY,
	invoice_number TEXT NOT NULL,
	store_id       TEXT NOT NULL,
	customer_id    TEXT,
	created_by     TEXT,
	payment_mode   TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	subtotal       NUMERIC(14,2) NOT NULL,
	gst_amount     NUMERIC(14,2) NOT NULL,
	discount       NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_amount   NUMERIC(14,2) NOT NULL CHECK (total_amount >= 0),
	sale_date      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (store_id, invoice_number)
);

CREATE INDEX IF NOT EXISTS idx_sales_store_date ON sales (store_id, sale_date);

CREATE TABLE IF NOT EXISTS sale_items (
	sale_id             TEXT NOT NULL REFERENCES sales(id),
	line_no             INTEGER NOT NULL,
	product_id          TEXT NOT NULL REFERENCES products(id),
	quantity            INTEGER NOT NULL CHECK (quantity > 0),
	unit_price          NUMERIC(12,2) NOT NULL,
	gst_rate            NUMERIC(5,2) NOT NULL,
	gst_amount          NUMERIC(12,2) NOT NULL,
	line_total          NUMERIC(12,2) NOT NULL,
	serial_number       TEXT,
	warranty_expires_at TIMESTAMPTZ,
	PRIMARY KEY (sale_id, line_no)
);

CREATE TABLE IF NOT EXISTS expenses (
	id             TEXT PRIMARY KEY,
	store_id       TEXT NOT NULL,
	category       TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	amount         NUMERIC(14,2) NOT NULL CHECK (amount >= 0),
	payment_mode   TEXT NOT NULL,
	vendor_name    TEXT NOT NULL DEFAULT '',
	receipt_number TEXT NOT NULL DEFAULT '',
	created_by     TEXT,
	expense_date   TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_expenses_store_date ON expenses (store_id, expense_date);

CREATE TABLE IF NOT EXISTS audit_log (
	id          TEXT PRIMARY KEY,
	actor_id    TEXT NOT NULL,
	action      TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	role       TEXT NOT NULL,
	store_id   TEXT NOT NULL DEFAULT '',
	active     BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, store_id, sku, name, category, unit_price, cost_price, gst_rate,
			current_stock, minimum_stock, warranty_months, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, product.ID, product.StoreID, product.SKU, product.Name, product.Category,
		product.UnitPrice, product.CostPrice, product.GSTRate,
		product.CurrentStock, product.MinimumStock, product.WarrantyMonths, product.Active, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateEntity
		}
		return nil, err
	}

	created := product
	return &created, nil
}

const productColumns = `id, store_id, sku, name, category, unit_price, cost_price, gst_rate,
	current_stock, minimum_stock, warranty_months, active, created_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.StoreID, &p.SKU, &p.Name, &p.Category, &p.UnitPrice, &p.CostPrice,
		&p.GSTRate, &p.CurrentStock, &p.MinimumStock, &p.WarrantyMonths, &p.Active, &p.CreatedAt)
	return p, err
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[product.ID] = product
	}
	return result, rows.Err()
}

func (s *Store) ListProducts(ctx context.Context, storeID string, lowStockOnly bool) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active = true`
	args := make([]any, 0, 1)
	if storeID != "" {
		args = append(args, storeID)
		query += ` AND store_id = $1`
	}
	if lowStockOnly {
		query += ` AND current_stock <= minimum_stock`
	}
	query += ` ORDER BY category, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// reserveStock is the single-statement check-and-decrement; the WHERE
// clause makes the stock check and the write one indivisible step under
// row locking. Zero rows affected means either a missing product or not
// enough stock.
func reserveStock(ctx context.Context, db execer, productID string, quantity int) error {
	res, err := db.ExecContext(ctx, `
		UPDATE products
		SET current_stock = current_stock - $1
		WHERE id = $2 AND active = true AND current_stock >= $1
	`, quantity, productID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var available int
	err = db.QueryRowContext(ctx, `SELECT current_stock FROM products WHERE id = $1 AND active = true`, productID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return &store.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
}

func (s *Store) ReserveStock(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return store.Invalid(store.ReasonInvalidQuantity, "reserve quantity %d", quantity)
	}
	return reserveStock(ctx, s.db, productID, quantity)
}

func (s *Store) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return store.Invalid(store.ReasonInvalidQuantity, "release quantity %d", quantity)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET current_stock = current_stock + $1 WHERE id = $2
	`, quantity, productID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RestockProduct(ctx context.Context, productID string, quantity int) (*domain.Product, error) {
	if quantity < 1 {
		return nil, store.Invalid(store.ReasonInvalidQuantity, "restock quantity %d", quantity)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE products SET current_stock = current_stock + $1
		WHERE id = $2
		RETURNING `+productColumns+`
	`, quantity, productID)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	customer.TotalPurchases = decimal.Zero
	customer.LoyaltyPoints = 0

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, store_id, name, phone, gst_number, total_purchases, loyalty_points, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, customer.ID, customer.StoreID, customer.Name, customer.Phone, customer.GSTNumber,
		customer.TotalPurchases, customer.LoyaltyPoints, customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateEntity
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, name, phone, gst_number, total_purchases, loyalty_points, created_at
		FROM customers WHERE id = $1
	`, id).Scan(&c.ID, &c.StoreID, &c.Name, &c.Phone, &c.GSTNumber, &c.TotalPurchases, &c.LoyaltyPoints, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// nextInvoiceNumber runs the atomic fetch-and-add on the per (store, day)
// counter row. The upsert creates the counter lazily on the first sale of
// the day; the row lock taken by ON CONFLICT DO UPDATE serializes
// concurrent allocators without ever handing out the same value. Counting
// existing sale rows and adding one is explicitly avoided: that read has
// no lock and races under concurrent load.
func nextInvoiceNumber(ctx context.Context, db execer, storeID string, day time.Time) (string, error) {
	day = day.UTC()
	var seq int
	err := db.QueryRowContext(ctx, `
		INSERT INTO invoice_sequences (store_id, seq_date, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (store_id, seq_date)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value
	`, storeID, day.Format("2006-01-02")).Scan(&seq)
	if err != nil {
		if isSerializationFailure(err) {
			return "", store.ErrSequenceConflict
		}
		return "", err
	}
	return fmt.Sprintf("INV%s%s%04d", storeID, day.Format("20060102"), seq), nil
}

func (s *Store) NextInvoiceNumber(ctx context.Context, storeID string, day time.Time) (string, error) {
	if storeID == "" {
		return "", store.Invalid(store.ReasonInvalidStore, "store id required")
	}
	return nextInvoiceNumber(ctx, s.db, storeID, day)
}

// CreateSale is the transactional boundary of the sale engine: invoice
// numbering, stock reservation, sale + line item rows and the customer
// aggregate update all commit or all roll back. Stock rows are touched in
// ascending product-id order so concurrent multi-product sales cannot
// deadlock on each other.
func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, store.Invalid(store.ReasonEmptySale, "sale has no line items")
	}
	if sale.StoreID == "" {
		return nil, store.Invalid(store.ReasonInvalidStore, "store id required")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now().UTC()
	}
	sale.InvoiceNumber, err = nextInvoiceNumber(ctx, tx, sale.StoreID, sale.SaleDate)
	if err != nil {
		return nil, err
	}

	reserveOrder := make([]domain.SaleLineItem, len(sale.Items))
	copy(reserveOrder, sale.Items)
	sort.Slice(reserveOrder, func(i, j int) bool {
		return reserveOrder[i].ProductID < reserveOrder[j].ProductID
	})
	for _, item := range reserveOrder {
		// On failure the deferred rollback releases every reservation
		// taken so far in this attempt.
		if err := reserveStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.PaymentStatus == "" {
		sale.PaymentStatus = domain.PaymentCompleted
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, invoice_number, store_id, customer_id, created_by, payment_mode,
			payment_status, subtotal, gst_amount, discount, total_amount, sale_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, sale.ID, sale.InvoiceNumber, sale.StoreID, nullIfEmpty(sale.CustomerID), nullIfEmpty(sale.CreatedBy),
		string(sale.PaymentMode), string(sale.PaymentStatus), sale.Subtotal, sale.GSTAmount,
		sale.Discount, sale.TotalAmount, sale.SaleDate)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrSequenceConflict
		}
		return nil, err
	}

	for i, item := range sale.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, line_no, product_id, quantity, unit_price, gst_rate,
				gst_amount, line_total, serial_number, warranty_expires_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, sale.ID, i+1, item.ProductID, item.Quantity, item.UnitPrice, item.GSTRate,
			item.GSTAmount, item.LineTotal, nullIfEmpty(item.SerialNumber), item.WarrantyExpiresAt)
		if err != nil {
			return nil, err
		}
	}

	if sale.CustomerID != "" {
		res, err := tx.ExecContext(ctx, `
			UPDATE customers
			SET total_purchases = total_purchases + $1, loyalty_points = loyalty_points + $2
			WHERE id = $3
		`, sale.TotalAmount, money.LoyaltyPoints(sale.TotalAmount), sale.CustomerID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("customer %s: %w", sale.CustomerID, store.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return nil, store.ErrSequenceConflict
		}
		return nil, err
	}
	return &sale, nil
}

const saleColumns = `id, invoice_number, store_id, COALESCE(customer_id, ''), COALESCE(created_by, ''),
	payment_mode, payment_status, subtotal, gst_amount, discount, total_amount, sale_date`

func scanSale(row interface{ Scan(...any) error }) (domain.Sale, error) {
	var sale domain.Sale
	err := row.Scan(&sale.ID, &sale.InvoiceNumber, &sale.StoreID, &sale.CustomerID, &sale.CreatedBy,
		&sale.PaymentMode, &sale.PaymentStatus, &sale.Subtotal, &sale.GSTAmount, &sale.Discount,
		&sale.TotalAmount, &sale.SaleDate)
	return sale, err
}

func (s *Store) loadSaleItems(ctx context.Context, saleIDs []string) (map[string][]domain.SaleLineItem, error) {
	items := make(map[string][]domain.SaleLineItem, len(saleIDs))
	if len(saleIDs) == 0 {
		return items, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sale_id, product_id, quantity, unit_price, gst_rate, gst_amount, line_total,
			COALESCE(serial_number, ''), warranty_expires_at
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, line_no
	`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var saleID string
		var item domain.SaleLineItem
		var warranty sql.NullTime
		if err := rows.Scan(&saleID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.GSTRate,
			&item.GSTAmount, &item.LineTotal, &item.SerialNumber, &warranty); err != nil {
			return nil, err
		}
		if warranty.Valid {
			w := warranty.Time.UTC()
			item.WarrantyExpiresAt = &w
		}
		items[saleID] = append(items[saleID], item)
	}
	return items, rows.Err()
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	items, err := s.loadSaleItems(ctx, []string{sale.ID})
	if err != nil {
		return nil, err
	}
	sale.Items = items[sale.ID]
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE 1=1`
	args := make([]any, 0, 4)
	if filter.StoreID != "" {
		args = append(args, filter.StoreID)
		query += fmt.Sprintf(` AND store_id = $%d`, len(args))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(` AND customer_id = $%d`, len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND sale_date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND sale_date < $%d`, len(args))
	}
	query += ` ORDER BY sale_date DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	ids := make([]string, 0, 64)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := s.loadSaleItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Items = items[sales[i].ID]
	}
	return sales, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	now := time.Now().UTC()
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = now
	}
	if expense.ExpenseDate.IsZero() {
		expense.ExpenseDate = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, store_id, category, description, amount, payment_mode,
			vendor_name, receipt_number, created_by, expense_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, expense.ID, expense.StoreID, expense.Category, expense.Description, expense.Amount,
		string(expense.PaymentMode), expense.VendorName, expense.ReceiptNumber,
		nullIfEmpty(expense.CreatedBy), expense.ExpenseDate, expense.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	query := `
		SELECT id, store_id, category, description, amount, payment_mode,
			vendor_name, receipt_number, COALESCE(created_by, ''), expense_date, created_at
		FROM expenses WHERE 1=1`
	args := make([]any, 0, 4)
	if filter.StoreID != "" {
		args = append(args, filter.StoreID)
		query += fmt.Sprintf(` AND store_id = $%d`, len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND expense_date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND expense_date < $%d`, len(args))
	}
	query += ` ORDER BY expense_date DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.StoreID, &e.Category, &e.Description, &e.Amount, &e.PaymentMode,
			&e.VendorName, &e.ReceiptNumber, &e.CreatedBy, &e.ExpenseDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// GetDailyClosing reads the committed ledger inside one REPEATABLE READ
// transaction so the sales and expense aggregates come from a single
// consistent snapshot.
func (s *Store) GetDailyClosing(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.DailyClosingReport, error) {
	report := domain.DailyClosingReport{
		StoreID:       storeID,
		Date:          from.UTC().Format("2006-01-02"),
		TotalSales:    decimal.Zero,
		ByPaymentMode: make(map[domain.PaymentMode]decimal.Decimal, 5),
		TotalExpenses: decimal.Zero,
		CashExpenses:  decimal.Zero,
	}
	for _, mode := range domain.PaymentModes() {
		report.ByPaymentMode[mode] = decimal.Zero
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return domain.DailyClosingReport{}, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT payment_mode, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE store_id = $1 AND sale_date >= $2 AND sale_date < $3
		GROUP BY payment_mode
	`, storeID, from, to)
	if err != nil {
		return domain.DailyClosingReport{}, err
	}
	for rows.Next() {
		var mode string
		var count int64
		var total decimal.Decimal
		if err := rows.Scan(&mode, &count, &total); err != nil {
			_ = rows.Close()
			return domain.DailyClosingReport{}, err
		}
		report.ByPaymentMode[domain.PaymentMode(mode)] = total
		report.TotalSales = report.TotalSales.Add(total)
		report.TotalTransactions += count
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return domain.DailyClosingReport{}, err
	}
	_ = rows.Close()

	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE payment_mode = 'CASH'), 0)
		FROM expenses
		WHERE store_id = $1 AND expense_date >= $2 AND expense_date < $3
	`, storeID, from, to).Scan(&report.TotalExpenses, &report.CashExpenses)
	if err != nil {
		return domain.DailyClosingReport{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.DailyClosingReport{}, err
	}

	report.NetCashInHand = report.ByPaymentMode[domain.PaymentCash].Sub(report.CashExpenses)
	return report, nil
}

// GetDashboardStats joins sale lines to the product's current cost price
// for COGS. This intentionally reflects today's costs rather than the
// cost at sale time.
func (s *Store) GetDashboardStats(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.DashboardStats, error) {
	stats := domain.DashboardStats{
		StoreID:  storeID,
		Revenue:  decimal.Zero,
		Expenses: decimal.Zero,
		COGS:     decimal.Zero,
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return domain.DashboardStats{}, err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE store_id = $1 AND sale_date >= $2 AND sale_date < $3
	`, storeID, from, to).Scan(&stats.Revenue)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(si.quantity * p.cost_price), 0)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE s.store_id = $1 AND s.sale_date >= $2 AND s.sale_date < $3
	`, storeID, from, to).Scan(&stats.COGS)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE store_id = $1 AND expense_date >= $2 AND expense_date < $3
	`, storeID, from, to).Scan(&stats.Expenses)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.DashboardStats{}, err
	}

	stats.GrossProfit = stats.Revenue.Sub(stats.COGS)
	stats.NetProfit = stats.GrossProfit.Sub(stats.Expenses)
	return stats, nil
}

func (s *Store) GetMonthlySalesStats(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.MonthlySalesStats, error) {
	stats := domain.MonthlySalesStats{
		Month:      from.UTC().Format("2006-01"),
		Year:       from.UTC().Year(),
		TotalSales: decimal.Zero,
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE store_id = $1 AND sale_date >= $2 AND sale_date < $3
	`, storeID, from, to).Scan(&stats.TotalTransactions, &stats.TotalSales)
	if err != nil {
		return domain.MonthlySalesStats{}, err
	}

	if stats.TotalTransactions > 0 {
		stats.AverageTicket = stats.TotalSales.Div(decimal.NewFromInt(stats.TotalTransactions)).Round(2)
	} else {
		stats.AverageTicket = decimal.Zero
	}
	return stats, nil
}

func (s *Store) CreateAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditEntries(ctx context.Context, entityType string, from time.Time, to time.Time, limit int) ([]domain.AuditEntry, error) {
	if limit < 1 {
		limit = 100
	}

	query := `
		SELECT id, actor_id, action, entity_type, entity_id, detail, created_at
		FROM audit_log
		WHERE created_at >= $1 AND created_at < $2`
	args := []any{from, to}
	if entityType != "" {
		args = append(args, entityType)
		query += fmt.Sprintf(` AND entity_type = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0, limit)
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.EntityType,
			&entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password, role, store_id, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, user.ID, user.Username, user.Password, user.Role, user.StoreID, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEntity
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password, role, store_id, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.ID, &user.Username, &user.Password, &user.Role,
			&user.StoreID, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE username = $1`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}
