package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vaidehip0407/SKOPE-ERP/internal/cache"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/domain"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/store"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/store/memory"
)

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	return New(repo, nil, cache.NoopClosingReportCache{}, "store-1"), repo
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "cashier", Role: "cashier"})
}

func dec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", v, err)
	}
	return d
}

// seedProduct inserts directly through the repository so tests can pick
// exact prices and stock levels.
func seedProduct(t *testing.T, repo *memory.Store, id string, price, gstRate string, stock int) {
	t.Helper()
	_, err := repo.CreateProduct(context.Background(), domain.Product{
		ID:        id,
		StoreID:   "store-1",
		SKU:       "SKU-" + id,
		Name:      "Test " + id,
		Category:  "test",
		UnitPrice: dec(t, price),
		CostPrice: dec(t, price),
		GSTRate:   dec(t, gstRate),
		// CostPrice mirrors price here; dashboard tests seed their own.
		CurrentStock: stock,
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", id, err)
	}
}

func TestCreateSalePricing(t *testing.T) {
	svc, repo := newTestService()
	seedProduct(t, repo, "tp-a", "100", "18", 10)
	seedProduct(t, repo, "tp-b", "50", "5", 10)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		PaymentMode: domain.PaymentCash,
		Discount:    dec(t, "10"),
		Lines: []domain.SaleLineRequest{
			{ProductID: "tp-a", Quantity: 2},
			{ProductID: "tp-b", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if got := sale.Subtotal.StringFixed(2); got != "250.00" {
		t.Fatalf("subtotal = %s, want 250.00", got)
	}
	if got := sale.GSTAmount.StringFixed(2); got != "38.50" {
		t.Fatalf("gst = %s, want 38.50", got)
	}
	if got := sale.TotalAmount.StringFixed(2); got != "278.50" {
		t.Fatalf("total = %s, want 278.50", got)
	}

	// total must always equal subtotal + gst - discount exactly.
	want := sale.Subtotal.Add(sale.GSTAmount).Sub(sale.Discount)
	if !sale.TotalAmount.Equal(want) {
		t.Fatalf("total %s != subtotal+gst-discount %s", sale.TotalAmount, want)
	}

	if len(sale.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sale.Items))
	}
	if got := sale.Items[0].GSTAmount.StringFixed(2); got != "36.00" {
		t.Fatalf("line 1 gst = %s, want 36.00", got)
	}
	if got := sale.Items[1].GSTAmount.StringFixed(2); got != "2.50" {
		t.Fatalf("line 2 gst = %s, want 2.50", got)
	}
	if sale.PaymentStatus != domain.PaymentCompleted {
		t.Fatalf("payment status = %s, want COMPLETED", sale.PaymentStatus)
	}
}

func TestCreateSaleInvoiceNumberFormat(t *testing.T) {
	svc, repo := newTestService()
	seedProduct(t, repo, "tp-inv", "100", "18", 10)

	first, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		PaymentMode: domain.PaymentCash,
		Lines:       []domain.SaleLineRequest{{ProductID: "tp-inv", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("first sale: %v", err)
	}
	second, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		PaymentMode: domain.PaymentCard,
		Lines:       []domain.SaleLineRequest{{ProductID: "tp-inv", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("second sale: %v", err)
	}

	day := time.Now().UTC().Format("20060102")
	if want := fmt.Sprintf("INVstore-1%s0001", day); first.InvoiceNumber != want {
		t.Fatalf("first invoice = %s, want %s", first.InvoiceNumber, want)
	}
	if want := fmt.Sprintf("INVstore-1%s0002", day); second.InvoiceNumber != want {
		t.Fatalf("second invoice = %s, want %s", second.InvoiceNumber, want)
	}
}

func TestCreateSaleValidationRejections(t *testing.T) {
	svc, repo := newTestService()
	seedProduct(t, repo, "tp-val", "100", "18", 10)

	cases := []struct {
		name string
		req  domain.SaleCreateRequest
		code string
	}{
		{
			name: "empty sale",
			req:  domain.SaleCreateRequest{PaymentMode: domain.PaymentCash},
			code: store.ReasonEmptySale,
		},
		{
			name: "unknown product",
			req: domain.SaleCreateRequest{
				PaymentMode: domain.PaymentCash,
				Lines:       []domain.SaleLineRequest{{ProductID: "tp-ghost", Quantity: 1}},
			},
			code: store.ReasonProductNotFound,
		},
		{
			name: "inactive product",
			req: domain.SaleCreateRequest{
				PaymentMode: domain.PaymentCash,
				Lines:       []domain.SaleLineRequest{{ProductID: "prod-phone-00", Quantity: 1}},
			},
			code: store.ReasonProductInactive,
		},
		{
			name: "zero quantity",
			req: domain.SaleCreateRequest{
				PaymentMode: domain.PaymentCash,
				Lines:       []domain.SaleLineRequest{{ProductID: "tp-val", Quantity: 0}},
			},
			code: store.ReasonInvalidQuantity,
		},
		{
			name: "bad payment mode",
			req: domain.SaleCreateRequest{
				PaymentMode: "BITCOIN",
				Lines:       []domain.SaleLineRequest{{ProductID: "tp-val", Quantity: 1}},
			},
			code: store.ReasonInvalidPaymentMode,
		},
		{
			name: "negative discount",
			req: domain.SaleCreateRequest{
				PaymentMode: domain.PaymentCash,
				Discount:    decimal.NewFromInt(-5),
				Lines:       []domain.SaleLineRequest{{ProductID: "tp-val", Quantity: 1}},
			},
			code: store.ReasonInvalidDiscount,
		},
		{
			name: "discount exceeds total",
			req: domain.SaleCreateRequest{
				PaymentMode: domain.PaymentCash,
				Discount:    decimal.NewFromInt(1000),
				Lines:       []domain.SaleLineRequest{{ProductID: "tp-val", Quantity: 1}},
			},
			code: store.ReasonInvalidDiscount,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSale(cashierCtx(), tc.req)
			var validation *store.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if validation.Code != tc.code {
				t.Fatalf("code = %s, want %s", validation.Code, tc.code)
			}
		})
	}

	// Rejections must not touch stock.
	product, err := repo.GetProduct(context.Background(), "tp-val")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.CurrentStock != 10 {
		t.Fatalf("stock = %d after rejected sales, want 10", product.CurrentStock)
	}
}

func TestCreateSaleFullDiscountAllowed(t *testing.T) {
	svc, repo := newTestService()
	seedProduct(t, repo, "tp-free", "100", "18", 5)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		PaymentMode: domain.PaymentCash,
		Discount:    dec(t, "118"),
		Lines:       []domain.SaleLineRequest{{ProductID: "tp-free", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if !sale.TotalAmount.IsZero() {
		t.Fatalf("total = %s, want 0", sale.TotalAmount)
	}
}

func TestCreateSaleInsufficientStockRollsBackAllLines(t *testing.T) {
	svc, repo := newTestService()
	seedProduct(t, repo, "tp-r1", "100", "18", 10)
	seedProduct(t, repo, "tp-r2", "100", "18", 10)
	seedProduct(t, repo, "tp-r3", "100", "18", 1)

	_, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		PaymentMode: domain.PaymentCash,
		Lines: []domain.SaleLineRequest{
			{ProductID: "tp-r1", Quantity: 2},
			{ProductID: "tp-r2", Quantity: 3},
			{ProductID: "tp-r3", Quantity: 5},
		},
	})

	var insufficient *store.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if insufficient.ProductID != "tp-r3" || insufficient.Requested != 5 || insufficient.Available != 1 {
		t.Fatalf("unexpected error detail: %+v", insufficient)
	}

	for id, want := range map[string]int{"tp-r1": 10, "tp-r2": 10, "tp-r3": 1} {
		product, err := repo.GetProduct(context.Background(), id)
		if err != nil {
			t.Fatalf("get product %s: %v", id, err)
		}
		if product.CurrentStock != want {
			t.Fatalf("product %s stock = %d, want %d", id, product.CurrentStock, want)
		}
	}

	sales, err := svc.ListSales(cashierCtx(), domain.SaleFilter{})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("sales persisted after rejected attempt: %d", len(sales))
	}
}

func TestCreateSaleUpdatesCustomerAggregates(t *testing.T) {
	svc, repo := newTestService()
	seedProduct(t, repo, "tp-loyal-a", "100", "18", 10)
	seedProduct(t, repo, "tp-loyal-b", "50", "5", 10)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		CustomerID:  "cust-0001",
		PaymentMode: domain.PaymentUPI,
		Discount:    dec(t, "10"),
		Lines: []domain.SaleLineRequest{
			{ProductID: "tp-loyal-a", Quantity: 2},
			{ProductID: "tp-loyal-b", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	customer, err := svc.GetCustomer(cashierCtx(), "cust-0001")
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if !customer.TotalPurchases.Equal(sale.TotalAmount) {
		t.Fatalf("total purchases = %s, want %s", customer.TotalPurchases, sale.TotalAmount)
	}
	// 278.50 earns 2 points: one per whole 100.
	if customer.LoyaltyPoints != 2 {
		t.Fatalf("loyalty points = %d, want 2", customer.LoyaltyPoints)
	}
}

func TestCreateSaleUnknownCustomerLeavesStockUntouched(t *testing.T) {
	svc, repo := newTestService()
	seedProduct(t, repo, "tp-ghostcust", "100", "18", 10)

	_, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		CustomerID:  "cust-ghost",
		PaymentMode: domain.PaymentCash,
		Lines:       []domain.SaleLineRequest{{ProductID: "tp-ghostcust", Quantity: 1}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	product, err := repo.GetProduct(context.Background(), "tp-ghostcust")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.CurrentStock != 10 {
		t.Fatalf("stock = %d, want 10", product.CurrentStock)
	}
}

func TestCreateSaleSetsWarrantyExpiry(t *testing.T) {
	svc, _ := newTestService()

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		PaymentMode: domain.PaymentFinance,
		Lines: []domain.SaleLineRequest{
			{ProductID: "prod-phone-01", Quantity: 1, SerialNumber: "SN-001122"},
			{ProductID: "prod-case-01", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	phone := sale.Items[0]
	if phone.WarrantyExpiresAt == nil {
		t.Fatal("expected warranty expiry on phone line")
	}
	want := sale.SaleDate.Add(12 * 30 * 24 * time.Hour)
	if !phone.WarrantyExpiresAt.Equal(want) {
		t.Fatalf("warranty expiry = %v, want %v", phone.WarrantyExpiresAt, want)
	}
	if phone.SerialNumber != "SN-001122" {
		t.Fatalf("serial = %s", phone.SerialNumber)
	}
	if sale.Items[1].WarrantyExpiresAt != nil {
		t.Fatal("case has no warranty, expiry should be nil")
	}
	// FINANCE still completes the sale.
	if sale.PaymentStatus != domain.PaymentCompleted {
		t.Fatalf("payment status = %s, want COMPLETED", sale.PaymentStatus)
	}
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	svc, repo := newTestService()
	const stock = 5
	const attempts = 20
	seedProduct(t, repo, "tp-hot", "100", "18", stock)

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
				PaymentMode: domain.PaymentCash,
				Lines:       []domain.SaleLineRequest{{ProductID: "tp-hot", Quantity: 1}},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *store.InsufficientStockError
		if !errors.As(err, &insufficient) {
			t.Fatalf("unexpected failure: %v", err)
		}
	}
	if succeeded != stock {
		t.Fatalf("succeeded = %d, want %d", succeeded, stock)
	}

	product, err := repo.GetProduct(context.Background(), "tp-hot")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.CurrentStock != 0 {
		t.Fatalf("final stock = %d, want 0", product.CurrentStock)
	}
}

func TestConcurrentSalesGetDistinctInvoiceNumbers(t *testing.T) {
	svc, repo := newTestService()
	const attempts = 30
	seedProduct(t, repo, "tp-seq", "100", "18", attempts)

	var wg sync.WaitGroup
	invoices := make(chan string, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
				PaymentMode: domain.PaymentCash,
				Lines:       []domain.SaleLineRequest{{ProductID: "tp-seq", Quantity: 1}},
			})
			if err != nil {
				t.Errorf("create sale: %v", err)
				return
			}
			invoices <- sale.InvoiceNumber
		}()
	}
	wg.Wait()
	close(invoices)

	seen := make(map[string]bool, attempts)
	for invoice := range invoices {
		if seen[invoice] {
			t.Fatalf("duplicate invoice number %s", invoice)
		}
		seen[invoice] = true
	}
	if len(seen) != attempts {
		t.Fatalf("distinct invoices = %d, want %d", len(seen), attempts)
	}
}

func TestDailyClosingReconciliation(t *testing.T) {
	svc, repo := newTestService()
	seedProduct(t, repo, "tp-close", "100", "0", 50)

	// Two cash sales of 100, one card sale of 200, one UPI sale of 100.
	for _, sale := range []struct {
		mode domain.PaymentMode
		qty  int
	}{
		{domain.PaymentCash, 1},
		{domain.PaymentCash, 1},
		{domain.PaymentCard, 2},
		{domain.PaymentUPI, 1},
	} {
		if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
			PaymentMode: sale.mode,
			Lines:       []domain.SaleLineRequest{{ProductID: "tp-close", Quantity: sale.qty}},
		}); err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}

	for _, expense := range []struct {
		mode   domain.PaymentMode
		amount string
	}{
		{domain.PaymentCash, "130"},
		{domain.PaymentUPI, "45"},
	} {
		if _, err := svc.CreateExpense(cashierCtx(), domain.ExpenseCreateRequest{
			Category:    "utilities",
			Amount:      dec(t, expense.amount),
			PaymentMode: expense.mode,
		}); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	report, err := svc.DailyClosing(adminCtx(), "", "")
	if err != nil {
		t.Fatalf("daily closing: %v", err)
	}

	if got := report.TotalSales.StringFixed(2); got != "500.00" {
		t.Fatalf("total sales = %s, want 500.00", got)
	}
	if got := report.ByPaymentMode[domain.PaymentCash].StringFixed(2); got != "200.00" {
		t.Fatalf("cash sales = %s, want 200.00", got)
	}
	if got := report.ByPaymentMode[domain.PaymentCard].StringFixed(2); got != "200.00" {
		t.Fatalf("card sales = %s, want 200.00", got)
	}
	if got := report.ByPaymentMode[domain.PaymentUPI].StringFixed(2); got != "100.00" {
		t.Fatalf("upi sales = %s, want 100.00", got)
	}
	if got := report.ByPaymentMode[domain.PaymentQRCode].StringFixed(2); got != "0.00" {
		t.Fatalf("qr sales = %s, want 0.00", got)
	}
	if got := report.TotalExpenses.StringFixed(2); got != "175.00" {
		t.Fatalf("total expenses = %s, want 175.00", got)
	}
	if got := report.CashExpenses.StringFixed(2); got != "130.00" {
		t.Fatalf("cash expenses = %s, want 130.00", got)
	}
	// net cash in hand = cash sales - cash expenses.
	if got := report.NetCashInHand.StringFixed(2); got != "70.00" {
		t.Fatalf("net cash = %s, want 70.00", got)
	}
	if report.TotalTransactions != 4 {
		t.Fatalf("transactions = %d, want 4", report.TotalTransactions)
	}

	// Closing is a read: running it again yields the identical report.
	again, err := svc.DailyClosing(adminCtx(), "", "")
	if err != nil {
		t.Fatalf("second closing: %v", err)
	}
	if !again.TotalSales.Equal(report.TotalSales) || !again.NetCashInHand.Equal(report.NetCashInHand) ||
		again.TotalTransactions != report.TotalTransactions {
		t.Fatalf("closing not idempotent: %+v vs %+v", again, report)
	}
}

type recordingCache struct {
	mu     sync.Mutex
	values map[string]*domain.DailyClosingReport
	gets   int
	hits   int
	sets   int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{values: make(map[string]*domain.DailyClosingReport)}
}

func (c *recordingCache) Get(_ context.Context, key string) (*domain.DailyClosingReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if v, ok := c.values[key]; ok {
		c.hits++
		return v, true, nil
	}
	return nil, false, nil
}

func (c *recordingCache) Set(_ context.Context, key string, value *domain.DailyClosingReport, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.values[key] = value
	return nil
}

func TestDailyClosingCachesPastDaysOnly(t *testing.T) {
	repo := memory.NewSeeded()
	recorder := newRecordingCache()
	svc := New(repo, nil, recorder, "store-1")

	yesterday := time.Now().UTC().Add(-24 * time.Hour).Format("2006-01-02")
	if _, err := svc.DailyClosing(adminCtx(), "", yesterday); err != nil {
		t.Fatalf("closing for past day: %v", err)
	}
	if recorder.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", recorder.sets)
	}
	if _, err := svc.DailyClosing(adminCtx(), "", yesterday); err != nil {
		t.Fatalf("second closing: %v", err)
	}
	if recorder.hits != 1 {
		t.Fatalf("cache hits = %d, want 1", recorder.hits)
	}

	// Today is still open: never cached.
	if _, err := svc.DailyClosing(adminCtx(), "", ""); err != nil {
		t.Fatalf("closing for today: %v", err)
	}
	if recorder.sets != 1 {
		t.Fatalf("cache sets after today = %d, want 1", recorder.sets)
	}
}

func TestDashboardStats(t *testing.T) {
	svc, repo := newTestService()
	if _, err := repo.CreateProduct(context.Background(), domain.Product{
		ID:           "tp-margin",
		StoreID:      "store-1",
		SKU:          "SKU-tp-margin",
		Name:         "Margin Test",
		Category:     "test",
		UnitPrice:    dec(t, "100"),
		CostPrice:    dec(t, "60"),
		GSTRate:      dec(t, "0"),
		CurrentStock: 10,
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		PaymentMode: domain.PaymentCash,
		Lines:       []domain.SaleLineRequest{{ProductID: "tp-margin", Quantity: 1}},
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if _, err := svc.CreateExpense(cashierCtx(), domain.ExpenseCreateRequest{
		Category:    "rent",
		Amount:      dec(t, "10"),
		PaymentMode: domain.PaymentCash,
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	stats, err := svc.DashboardStats(adminCtx(), "", "day", "")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if got := stats.Revenue.StringFixed(2); got != "100.00" {
		t.Fatalf("revenue = %s, want 100.00", got)
	}
	if got := stats.COGS.StringFixed(2); got != "60.00" {
		t.Fatalf("cogs = %s, want 60.00", got)
	}
	if got := stats.GrossProfit.StringFixed(2); got != "40.00" {
		t.Fatalf("gross profit = %s, want 40.00", got)
	}
	if got := stats.NetProfit.StringFixed(2); got != "30.00" {
		t.Fatalf("net profit = %s, want 30.00", got)
	}
	if stats.Period != "day" {
		t.Fatalf("period = %s, want day", stats.Period)
	}
}

func TestMonthlySalesStats(t *testing.T) {
	svc, repo := newTestService()
	seedProduct(t, repo, "tp-month", "100", "0", 10)

	for i := 0; i < 4; i++ {
		if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
			PaymentMode: domain.PaymentCash,
			Lines:       []domain.SaleLineRequest{{ProductID: "tp-month", Quantity: 1}},
		}); err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}

	stats, err := svc.MonthlySalesStats(adminCtx(), "", "")
	if err != nil {
		t.Fatalf("monthly stats: %v", err)
	}
	if stats.TotalTransactions != 4 {
		t.Fatalf("transactions = %d, want 4", stats.TotalTransactions)
	}
	if got := stats.TotalSales.StringFixed(2); got != "400.00" {
		t.Fatalf("total = %s, want 400.00", got)
	}
	if got := stats.AverageTicket.StringFixed(2); got != "100.00" {
		t.Fatalf("average ticket = %s, want 100.00", got)
	}
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateProduct(cashierCtx(), domain.ProductCreateRequest{
		SKU:       "NEW-01",
		Name:      "New Product",
		UnitPrice: dec(t, "100"),
	})
	if err == nil {
		t.Fatal("expected role error for cashier")
	}

	product, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		SKU:          "new-01",
		Name:         "New Product",
		Category:     "test",
		UnitPrice:    dec(t, "100"),
		CostPrice:    dec(t, "80"),
		InitialStock: 7,
	})
	if err != nil {
		t.Fatalf("admin create product: %v", err)
	}
	if product.SKU != "NEW-01" {
		t.Fatalf("sku = %s, want NEW-01", product.SKU)
	}
	if !product.GSTRate.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("default gst rate = %s, want 18", product.GSTRate)
	}
	if product.CurrentStock != 7 {
		t.Fatalf("stock = %d, want 7", product.CurrentStock)
	}
}

func TestRestockProduct(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.RestockProduct(cashierCtx(), domain.RestockRequest{ProductID: "prod-case-01", Quantity: 5}); err == nil {
		t.Fatal("expected role error for cashier restock")
	}

	product, err := svc.RestockProduct(adminCtx(), domain.RestockRequest{ProductID: "prod-case-01", Quantity: 5})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if product.CurrentStock != 125 {
		t.Fatalf("stock = %d, want 125", product.CurrentStock)
	}

	if _, err := svc.RestockProduct(adminCtx(), domain.RestockRequest{ProductID: "prod-case-01", Quantity: 0}); err == nil {
		t.Fatal("expected rejection of zero quantity restock")
	}
}

func TestListProductsLowStockFilter(t *testing.T) {
	svc, repo := newTestService()
	if _, err := repo.CreateProduct(context.Background(), domain.Product{
		ID:           "tp-low",
		StoreID:      "store-1",
		SKU:          "SKU-tp-low",
		Name:         "Nearly Out",
		Category:     "test",
		UnitPrice:    dec(t, "100"),
		CostPrice:    dec(t, "60"),
		GSTRate:      dec(t, "18"),
		CurrentStock: 3,
		MinimumStock: 10,
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	low, err := svc.ListProducts(cashierCtx(), "", true)
	if err != nil {
		t.Fatalf("list low stock: %v", err)
	}
	if len(low) != 1 || low[0].ID != "tp-low" {
		t.Fatalf("low stock list = %+v, want only tp-low", low)
	}

	all, err := svc.ListProducts(cashierCtx(), "", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) <= len(low) {
		t.Fatalf("full list (%d) should exceed low stock list (%d)", len(all), len(low))
	}
}
