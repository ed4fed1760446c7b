package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Vaidehip0407/SKOPE-ERP/internal/domain"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/money"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/store"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/xid"
)

// Store is an in-memory Repository used for dev mode and tests. A single
// mutex guards all state, so every Repository call is linearizable; the
// sale path still reserves stock line by line with explicit compensation
// so multi-line rollback behaves exactly like the database store.
type Store struct {
	mu               sync.RWMutex
	products         map[string]domain.Product
	customers        map[string]domain.Customer
	salesByID        map[string]*domain.Sale
	salesByInvoice   map[string]*domain.Sale
	expensesByID     map[string]domain.Expense
	auditEntries     []domain.AuditEntry
	invoiceSequences map[string]int
	usersByUsername  map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:         make(map[string]domain.Product),
		customers:        make(map[string]domain.Customer),
		salesByID:        make(map[string]*domain.Sale),
		salesByInvoice:   make(map[string]*domain.Sale),
		expensesByID:     make(map[string]domain.Expense),
		auditEntries:     make([]domain.AuditEntry, 0, 128),
		invoiceSequences: make(map[string]int),
		usersByUsername:  make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; if
// unset, hardcoded dev defaults are used with a warning. The in-memory
// store is never used in production (the backend uses PostgreSQL when
// DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			ID:        xid.New("user"),
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			StoreID:   "store-1",
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	products := []domain.Product{
		{ID: "prod-phone-01", StoreID: "store-1", SKU: "PHN-A15", Name: "Smartphone A15 128GB", Category: "mobile", UnitPrice: dec("14999"), CostPrice: dec("12400"), GSTRate: dec("18"), CurrentStock: 25, MinimumStock: 5, WarrantyMonths: 12, Active: true, CreatedAt: now},
		{ID: "prod-phone-02", StoreID: "store-1", SKU: "PHN-X2", Name: "Smartphone X2 256GB", Category: "mobile", UnitPrice: dec("27499"), CostPrice: dec("23100"), GSTRate: dec("18"), CurrentStock: 12, MinimumStock: 3, WarrantyMonths: 12, Active: true, CreatedAt: now},
		{ID: "prod-case-01", StoreID: "store-1", SKU: "ACC-CASE", Name: "Protective Case", Category: "accessory", UnitPrice: dec("499"), CostPrice: dec("210"), GSTRate: dec("18"), CurrentStock: 120, MinimumStock: 20, WarrantyMonths: 0, Active: true, CreatedAt: now},
		{ID: "prod-charger-01", StoreID: "store-1", SKU: "ACC-CHG33", Name: "33W Fast Charger", Category: "accessory", UnitPrice: dec("1299"), CostPrice: dec("780"), GSTRate: dec("18"), CurrentStock: 60, MinimumStock: 10, WarrantyMonths: 6, Active: true, CreatedAt: now},
		{ID: "prod-earbuds-01", StoreID: "store-1", SKU: "AUD-BUDS", Name: "Wireless Earbuds", Category: "audio", UnitPrice: dec("2499"), CostPrice: dec("1650"), GSTRate: dec("18"), CurrentStock: 40, MinimumStock: 8, WarrantyMonths: 6, Active: true, CreatedAt: now},
		{ID: "prod-sdcard-01", StoreID: "store-1", SKU: "STO-SD128", Name: "128GB MicroSD Card", Category: "storage", UnitPrice: dec("949"), CostPrice: dec("620"), GSTRate: dec("5"), CurrentStock: 80, MinimumStock: 15, WarrantyMonths: 0, Active: true, CreatedAt: now},
		// Discontinued model kept for historical sales.
		{ID: "prod-phone-00", StoreID: "store-1", SKU: "PHN-A12", Name: "Smartphone A12 64GB", Category: "mobile", UnitPrice: dec("9999"), CostPrice: dec("8300"), GSTRate: dec("18"), CurrentStock: 2, MinimumStock: 0, WarrantyMonths: 12, Active: false, CreatedAt: now},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}

	customers := []domain.Customer{
		{ID: "cust-0001", StoreID: "store-1", Name: "Ravi Sharma", Phone: "9876543210", TotalPurchases: decimal.Zero, LoyaltyPoints: 0, CreatedAt: now},
		{ID: "cust-0002", StoreID: "store-1", Name: "Priya Patel", Phone: "9123456780", GSTNumber: "27AAPFU0939F1ZV", TotalPurchases: decimal.Zero, LoyaltyPoints: 0, CreatedAt: now},
	}
	for _, c := range customers {
		s.customers[c.ID] = c
	}

	s.usersByUsername = seedUsers()
	return s
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(fmt.Sprintf("bad seed decimal %q: %v", v, err))
	}
	return d
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrDuplicateEntity
	}
	for _, existing := range s.products {
		if existing.StoreID == product.StoreID && existing.SKU == product.SKU {
			return nil, store.ErrDuplicateEntity
		}
	}
	product.Active = true
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, exists := s.products[id]; exists {
			result[id] = product
		}
	}
	return result, nil
}

func (s *Store) ListProducts(_ context.Context, storeID string, lowStockOnly bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		if storeID != "" && p.StoreID != storeID {
			continue
		}
		if lowStockOnly && p.CurrentStock > p.MinimumStock {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return products, nil
}

func (s *Store) ReserveStock(_ context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return store.Invalid(store.ReasonInvalidQuantity, "reserve quantity %d", quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reserveLocked(productID, quantity)
}

// reserveLocked checks and decrements as one step; callers hold s.mu.
func (s *Store) reserveLocked(productID string, quantity int) error {
	product, exists := s.products[productID]
	if !exists {
		return store.ErrNotFound
	}
	if product.CurrentStock < quantity {
		return &store.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: product.CurrentStock,
		}
	}
	product.CurrentStock -= quantity
	s.products[productID] = product
	return nil
}

func (s *Store) ReleaseStock(_ context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return store.Invalid(store.ReasonInvalidQuantity, "release quantity %d", quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked(productID, quantity)
}

func (s *Store) releaseLocked(productID string, quantity int) error {
	product, exists := s.products[productID]
	if !exists {
		return store.ErrNotFound
	}
	product.CurrentStock += quantity
	s.products[productID] = product
	return nil
}

func (s *Store) RestockProduct(_ context.Context, productID string, quantity int) (*domain.Product, error) {
	if quantity < 1 {
		return nil, store.Invalid(store.ReasonInvalidQuantity, "restock quantity %d", quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[productID]
	if !exists {
		return nil, store.ErrNotFound
	}
	product.CurrentStock += quantity
	s.products[productID] = product
	updated := product
	return &updated, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.customers[customer.ID]; exists {
		return nil, store.ErrDuplicateEntity
	}
	customer.TotalPurchases = decimal.Zero
	customer.LoyaltyPoints = 0
	s.customers[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func sequenceKey(storeID string, day time.Time) string {
	return storeID + "|" + day.UTC().Format("20060102")
}

func formatInvoice(storeID string, day time.Time, seq int) string {
	return fmt.Sprintf("INV%s%s%04d", storeID, day.UTC().Format("20060102"), seq)
}

func (s *Store) NextInvoiceNumber(_ context.Context, storeID string, day time.Time) (string, error) {
	if storeID == "" {
		return "", store.Invalid(store.ReasonInvalidStore, "store id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextInvoiceLocked(storeID, day), nil
}

// nextInvoiceLocked is the fetch-and-add on the per (store, day) counter;
// callers hold s.mu. Counters are created lazily on the first sale of the
// day.
func (s *Store) nextInvoiceLocked(storeID string, day time.Time) string {
	key := sequenceKey(storeID, day)
	s.invoiceSequences[key]++
	return formatInvoice(storeID, day, s.invoiceSequences[key])
}

// CreateSale runs numbering, stock reservation, persistence and the
// customer aggregate update as one unit. Reservations are taken in
// ascending product-id order; on the first failure every prior
// reservation in the attempt is released before the error returns, so a
// rejected attempt leaves no trace. Sequence numbers consumed by rejected
// attempts become gaps, which is acceptable.
func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, store.Invalid(store.ReasonEmptySale, "sale has no line items")
	}
	if sale.StoreID == "" {
		return nil, store.Invalid(store.ReasonInvalidStore, "store id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now().UTC()
	}
	sale.InvoiceNumber = s.nextInvoiceLocked(sale.StoreID, sale.SaleDate)

	reserveOrder := make([]domain.SaleLineItem, len(sale.Items))
	copy(reserveOrder, sale.Items)
	sort.Slice(reserveOrder, func(i, j int) bool {
		return reserveOrder[i].ProductID < reserveOrder[j].ProductID
	})

	reserved := make([]domain.SaleLineItem, 0, len(reserveOrder))
	for _, item := range reserveOrder {
		if err := s.reserveLocked(item.ProductID, item.Quantity); err != nil {
			for _, prior := range reserved {
				_ = s.releaseLocked(prior.ProductID, prior.Quantity)
			}
			return nil, err
		}
		reserved = append(reserved, item)
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.PaymentStatus == "" {
		sale.PaymentStatus = domain.PaymentCompleted
	}

	if sale.CustomerID != "" {
		customer, exists := s.customers[sale.CustomerID]
		if !exists {
			for _, prior := range reserved {
				_ = s.releaseLocked(prior.ProductID, prior.Quantity)
			}
			return nil, fmt.Errorf("customer %s: %w", sale.CustomerID, store.ErrNotFound)
		}
		customer.TotalPurchases = customer.TotalPurchases.Add(sale.TotalAmount)
		customer.LoyaltyPoints += money.LoyaltyPoints(sale.TotalAmount)
		s.customers[sale.CustomerID] = customer
	}

	stored := sale
	stored.Items = make([]domain.SaleLineItem, len(sale.Items))
	copy(stored.Items, sale.Items)
	s.salesByID[stored.ID] = &stored
	s.salesByInvoice[stored.StoreID+"|"+stored.InvoiceNumber] = &stored

	result := stored
	result.Items = make([]domain.SaleLineItem, len(stored.Items))
	copy(result.Items, stored.Items)
	return &result, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := *sale
	copySale.Items = make([]domain.SaleLineItem, len(sale.Items))
	copy(copySale.Items, sale.Items)
	return &copySale, nil
}

func (s *Store) ListSales(_ context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, 64)
	for _, sale := range s.salesByID {
		if filter.StoreID != "" && sale.StoreID != filter.StoreID {
			continue
		}
		if filter.CustomerID != "" && sale.CustomerID != filter.CustomerID {
			continue
		}
		if filter.From != nil && sale.SaleDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !sale.SaleDate.Before(*filter.To) {
			continue
		}
		copySale := *sale
		copySale.Items = make([]domain.SaleLineItem, len(sale.Items))
		copy(copySale.Items, sale.Items)
		sales = append(sales, copySale)
	}

	slices.SortFunc(sales, func(a, b domain.Sale) int {
		return b.SaleDate.Compare(a.SaleDate)
	})
	if filter.Limit > 0 && len(sales) > filter.Limit {
		sales = sales[:filter.Limit]
	}
	return sales, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	s.expensesByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, 32)
	for _, expense := range s.expensesByID {
		if filter.StoreID != "" && expense.StoreID != filter.StoreID {
			continue
		}
		if filter.Category != "" && expense.Category != filter.Category {
			continue
		}
		if filter.From != nil && expense.ExpenseDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !expense.ExpenseDate.Before(*filter.To) {
			continue
		}
		expenses = append(expenses, expense)
	}

	slices.SortFunc(expenses, func(a, b domain.Expense) int {
		return b.ExpenseDate.Compare(a.ExpenseDate)
	})
	if filter.Limit > 0 && len(expenses) > filter.Limit {
		expenses = expenses[:filter.Limit]
	}
	return expenses, nil
}

// GetDailyClosing aggregates under one read lock, so the snapshot is
// consistent: a sale is either fully counted or not seen at all.
func (s *Store) GetDailyClosing(_ context.Context, storeID string, from time.Time, to time.Time) (domain.DailyClosingReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

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

	for _, sale := range s.salesByID {
		if sale.StoreID != storeID || sale.SaleDate.Before(from) || !sale.SaleDate.Before(to) {
			continue
		}
		report.TotalSales = report.TotalSales.Add(sale.TotalAmount)
		report.ByPaymentMode[sale.PaymentMode] = report.ByPaymentMode[sale.PaymentMode].Add(sale.TotalAmount)
		report.TotalTransactions++
	}
	for _, expense := range s.expensesByID {
		if expense.StoreID != storeID || expense.ExpenseDate.Before(from) || !expense.ExpenseDate.Before(to) {
			continue
		}
		report.TotalExpenses = report.TotalExpenses.Add(expense.Amount)
		if expense.PaymentMode == domain.PaymentCash {
			report.CashExpenses = report.CashExpenses.Add(expense.Amount)
		}
	}

	report.NetCashInHand = report.ByPaymentMode[domain.PaymentCash].Sub(report.CashExpenses)
	return report, nil
}

// GetDashboardStats computes COGS from the current product cost price,
// not the cost at sale time. Margin reports therefore reflect today's
// costs; a documented simplification.
func (s *Store) GetDashboardStats(_ context.Context, storeID string, from time.Time, to time.Time) (domain.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.DashboardStats{
		StoreID:  storeID,
		Revenue:  decimal.Zero,
		Expenses: decimal.Zero,
		COGS:     decimal.Zero,
	}

	for _, sale := range s.salesByID {
		if sale.StoreID != storeID || sale.SaleDate.Before(from) || !sale.SaleDate.Before(to) {
			continue
		}
		stats.Revenue = stats.Revenue.Add(sale.TotalAmount)
		for _, item := range sale.Items {
			product, exists := s.products[item.ProductID]
			if !exists {
				continue
			}
			stats.COGS = stats.COGS.Add(product.CostPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	for _, expense := range s.expensesByID {
		if expense.StoreID != storeID || expense.ExpenseDate.Before(from) || !expense.ExpenseDate.Before(to) {
			continue
		}
		stats.Expenses = stats.Expenses.Add(expense.Amount)
	}

	stats.GrossProfit = stats.Revenue.Sub(stats.COGS)
	stats.NetProfit = stats.GrossProfit.Sub(stats.Expenses)
	return stats, nil
}

func (s *Store) GetMonthlySalesStats(_ context.Context, storeID string, from time.Time, to time.Time) (domain.MonthlySalesStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.MonthlySalesStats{
		Month:      from.UTC().Format("2006-01"),
		Year:       from.UTC().Year(),
		TotalSales: decimal.Zero,
	}
	for _, sale := range s.salesByID {
		if sale.StoreID != storeID || sale.SaleDate.Before(from) || !sale.SaleDate.Before(to) {
			continue
		}
		stats.TotalSales = stats.TotalSales.Add(sale.TotalAmount)
		stats.TotalTransactions++
	}
	if stats.TotalTransactions > 0 {
		stats.AverageTicket = stats.TotalSales.Div(decimal.NewFromInt(stats.TotalTransactions)).Round(2)
	} else {
		stats.AverageTicket = decimal.Zero
	}
	return stats, nil
}

func (s *Store) CreateAuditEntry(_ context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditEntries = append(s.auditEntries, entry)
	return nil
}

func (s *Store) ListAuditEntries(_ context.Context, entityType string, from time.Time, to time.Time, limit int) ([]domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	entries := make([]domain.AuditEntry, 0, limit)
	for i := len(s.auditEntries) - 1; i >= 0 && len(entries) < limit; i-- {
		entry := s.auditEntries[i]
		if entityType != "" && entry.EntityType != entityType {
			continue
		}
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" {
		return store.Invalid(store.ReasonInvalidStore, "username and password required")
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrDuplicateEntity
	}
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
