package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vaidehip0407/SKOPE-ERP/internal/audit"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/cache"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/domain"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/money"
	"github.com/Vaidehip0407/SKOPE-ERP/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// closingCacheTTL bounds how long a finalized past-day closing report may
// live in the cache. Past days are immutable so the TTL is generous.
const closingCacheTTL = 12 * time.Hour

type Service struct {
	repo           store.Repository
	sink           *audit.Sink
	closings       cache.ClosingReportCache
	defaultStoreID string
}

func New(repo store.Repository, sink *audit.Sink, closings cache.ClosingReportCache, defaultStoreID string) *Service {
	if defaultStoreID == "" {
		defaultStoreID = "store-1"
	}
	if closings == nil {
		closings = cache.NoopClosingReportCache{}
	}

	return &Service{
		repo:           repo,
		sink:           sink,
		closings:       closings,
		defaultStoreID: defaultStoreID,
	}
}

// CreateSale validates and prices the request, then hands the assembled
// sale to the repository, whose CreateSale is the atomic step: invoice
// numbering, stock reservation, persistence and the customer aggregate
// commit together or roll back together. Validation failures happen
// before any of that, so a rejected sale leaves no trace.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	if len(req.Lines) == 0 {
		return domain.Sale{}, store.Invalid(store.ReasonEmptySale, "sale requires at least one line")
	}
	if !req.PaymentMode.Valid() {
		return domain.Sale{}, store.Invalid(store.ReasonInvalidPaymentMode, "unknown payment mode %q", req.PaymentMode)
	}
	if req.Discount.IsNegative() {
		return domain.Sale{}, store.Invalid(store.ReasonInvalidDiscount, "discount must not be negative")
	}

	productIDs := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return domain.Sale{}, store.Invalid(store.ReasonInvalidQuantity, "product %s: quantity %d", line.ProductID, line.Quantity)
		}
		productIDs = append(productIDs, line.ProductID)
	}

	products, err := s.repo.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return domain.Sale{}, err
	}

	saleDate := time.Now().UTC()

	priced := make([]money.LinePricing, 0, len(req.Lines))
	items := make([]domain.SaleLineItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		product, exists := products[line.ProductID]
		if !exists {
			return domain.Sale{}, store.Invalid(store.ReasonProductNotFound, "product %s", line.ProductID)
		}
		if !product.Active {
			return domain.Sale{}, store.Invalid(store.ReasonProductInactive, "product %s", line.ProductID)
		}
		if product.StoreID != req.StoreID {
			return domain.Sale{}, store.Invalid(store.ReasonProductNotFound, "product %s not sold by store %s", line.ProductID, req.StoreID)
		}

		pricing, err := money.PriceLine(product.UnitPrice, line.Quantity, product.GSTRate)
		if err != nil {
			if errors.Is(err, money.ErrInvalidQuantity) {
				return domain.Sale{}, store.Invalid(store.ReasonInvalidQuantity, "product %s: quantity %d", line.ProductID, line.Quantity)
			}
			return domain.Sale{}, err
		}
		priced = append(priced, pricing)

		// The line snapshots unit price, tax rate and warranty window
		// at sale time.
		item := domain.SaleLineItem{
			ProductID:    product.ID,
			Quantity:     line.Quantity,
			UnitPrice:    product.UnitPrice,
			GSTRate:      product.GSTRate,
			GSTAmount:    pricing.GSTAmount,
			LineTotal:    pricing.Total,
			SerialNumber: strings.TrimSpace(line.SerialNumber),
		}
		if product.WarrantyMonths > 0 {
			expiry := saleDate.Add(time.Duration(product.WarrantyMonths) * 30 * 24 * time.Hour)
			item.WarrantyExpiresAt = &expiry
		}
		items = append(items, item)
	}

	totals, err := money.PriceSale(priced, req.Discount)
	if err != nil {
		if errors.Is(err, money.ErrNegativeDiscount) || errors.Is(err, money.ErrDiscountExceedsTotal) {
			return domain.Sale{}, store.Invalid(store.ReasonInvalidDiscount, "%v", err)
		}
		return domain.Sale{}, err
	}

	if req.CustomerID != "" {
		if _, err := s.repo.GetCustomer(ctx, req.CustomerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Sale{}, fmt.Errorf("customer %s: %w", req.CustomerID, store.ErrNotFound)
			}
			return domain.Sale{}, err
		}
	}

	actor, _ := ActorFromContext(ctx)

	sale := domain.Sale{
		StoreID:       req.StoreID,
		CustomerID:    req.CustomerID,
		CreatedBy:     actor.Username,
		PaymentMode:   req.PaymentMode,
		PaymentStatus: domain.PaymentCompleted,
		Subtotal:      totals.Subtotal,
		GSTAmount:     totals.GSTAmount,
		Discount:      req.Discount,
		TotalAmount:   totals.Total,
		SaleDate:      saleDate,
		Items:         items,
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_create", "sale", created.ID,
		fmt.Sprintf("invoice=%s,total=%s,payment=%s,lines=%d",
			created.InvoiceNumber, created.TotalAmount.StringFixed(2), created.PaymentMode, len(created.Items)))

	return *created, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	if id == "" {
		return domain.Sale{}, store.ErrNotFound
	}
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	if filter.StoreID == "" {
		filter.StoreID = s.defaultStoreID
	}
	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.ListSales(ctx, filter)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireRole(ctx, "admin"); err != nil {
		return domain.Product{}, err
	}

	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if req.SKU == "" || req.Name == "" {
		return domain.Product{}, store.Invalid(store.ReasonMissingField, "sku and name are required")
	}
	if req.UnitPrice.IsNegative() || req.CostPrice.IsNegative() {
		return domain.Product{}, store.Invalid(store.ReasonInvalidPrice, "prices must not be negative")
	}
	if req.GSTRate.IsZero() {
		req.GSTRate = decimal.NewFromInt(18)
	}
	if req.GSTRate.IsNegative() || req.GSTRate.GreaterThan(decimal.NewFromInt(100)) {
		return domain.Product{}, store.Invalid(store.ReasonInvalidPrice, "gst rate must be between 0 and 100")
	}
	if req.InitialStock < 0 || req.MinimumStock < 0 || req.WarrantyMonths < 0 {
		return domain.Product{}, store.Invalid(store.ReasonInvalidQuantity, "stock and warranty must not be negative")
	}
	if req.MinimumStock == 0 {
		req.MinimumStock = 10
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		StoreID:        req.StoreID,
		SKU:            req.SKU,
		Name:           req.Name,
		Category:       req.Category,
		UnitPrice:      req.UnitPrice.Round(2),
		CostPrice:      req.CostPrice.Round(2),
		GSTRate:        req.GSTRate,
		CurrentStock:   req.InitialStock,
		MinimumStock:   req.MinimumStock,
		WarrantyMonths: req.WarrantyMonths,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID,
		fmt.Sprintf("sku=%s,price=%s,stock=%d", created.SKU, created.UnitPrice.StringFixed(2), created.CurrentStock))

	return *created, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) ListProducts(ctx context.Context, storeID string, lowStockOnly bool) ([]domain.Product, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	return s.repo.ListProducts(ctx, storeID, lowStockOnly)
}

func (s *Service) RestockProduct(ctx context.Context, req domain.RestockRequest) (domain.Product, error) {
	if err := requireRole(ctx, "admin"); err != nil {
		return domain.Product{}, err
	}
	if req.Quantity < 1 {
		return domain.Product{}, store.Invalid(store.ReasonInvalidQuantity, "restock quantity %d", req.Quantity)
	}

	product, err := s.repo.RestockProduct(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_restock", "product", product.ID,
		fmt.Sprintf("qty=%d,stock=%d", req.Quantity, product.CurrentStock))

	return *product, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" {
		return domain.Customer{}, store.Invalid(store.ReasonMissingField, "customer name is required")
	}

	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		StoreID:   req.StoreID,
		Name:      req.Name,
		Phone:     req.Phone,
		GSTNumber: strings.TrimSpace(req.GSTNumber),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_create", "customer", created.ID, "name="+created.Name)

	return *created, nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		return domain.Expense{}, store.Invalid(store.ReasonMissingField, "expense category is required")
	}
	if req.Amount.IsNegative() {
		return domain.Expense{}, store.Invalid(store.ReasonInvalidPrice, "expense amount must not be negative")
	}
	if !req.PaymentMode.Valid() {
		return domain.Expense{}, store.Invalid(store.ReasonInvalidPaymentMode, "unknown payment mode %q", req.PaymentMode)
	}

	actor, _ := ActorFromContext(ctx)

	expense := domain.Expense{
		StoreID:       req.StoreID,
		Category:      req.Category,
		Description:   strings.TrimSpace(req.Description),
		Amount:        req.Amount.Round(2),
		PaymentMode:   req.PaymentMode,
		VendorName:    strings.TrimSpace(req.VendorName),
		ReceiptNumber: strings.TrimSpace(req.ReceiptNumber),
		CreatedBy:     actor.Username,
	}
	if req.ExpenseDate != nil {
		expense.ExpenseDate = req.ExpenseDate.UTC()
	}

	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}

	s.logAudit(ctx, "expense_create", "expense", created.ID,
		fmt.Sprintf("category=%s,amount=%s,payment=%s", created.Category, created.Amount.StringFixed(2), created.PaymentMode))

	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	if filter.StoreID == "" {
		filter.StoreID = s.defaultStoreID
	}
	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.ListExpenses(ctx, filter)
}

// DailyClosing reconciles one store day. Running it any number of times
// over the same committed data yields the same report; a sale committing
// while it runs lands either fully in the report or not at all, never
// partially. Past days are served from the cache when possible since
// their ledgers no longer change.
func (s *Service) DailyClosing(ctx context.Context, storeID string, date string) (domain.DailyClosingReport, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}

	day, err := parseDay(date)
	if err != nil {
		return domain.DailyClosingReport{}, err
	}
	from := day
	to := day.Add(24 * time.Hour)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	finalized := day.Before(today)

	cacheKey := fmt.Sprintf("closing:%s:%s", storeID, day.Format("2006-01-02"))
	if finalized {
		if cached, ok, err := s.closings.Get(ctx, cacheKey); err == nil && ok {
			return *cached, nil
		} else if err != nil {
			log.Printf("[service] WARN: closing cache read failed key=%s: %v", cacheKey, err)
		}
	}

	report, err := s.repo.GetDailyClosing(ctx, storeID, from, to)
	if err != nil {
		return domain.DailyClosingReport{}, err
	}

	if finalized {
		if err := s.closings.Set(ctx, cacheKey, &report, closingCacheTTL); err != nil {
			log.Printf("[service] WARN: closing cache write failed key=%s: %v", cacheKey, err)
		}
	}

	s.logAudit(ctx, "daily_closing", "report", cacheKey,
		fmt.Sprintf("total_sales=%s,net_cash=%s,tx=%d",
			report.TotalSales.StringFixed(2), report.NetCashInHand.StringFixed(2), report.TotalTransactions))

	return report, nil
}

// DashboardStats aggregates revenue, COGS and expenses for either a
// single day or a calendar month. COGS uses the product's current cost
// price, not the cost at sale time.
func (s *Service) DashboardStats(ctx context.Context, storeID string, period string, date string) (domain.DashboardStats, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}

	var from, to time.Time
	switch period {
	case "", "day":
		period = "day"
		day, err := parseDay(date)
		if err != nil {
			return domain.DashboardStats{}, err
		}
		from = day
		to = day.Add(24 * time.Hour)
	case "month":
		month, err := parseMonth(date)
		if err != nil {
			return domain.DashboardStats{}, err
		}
		from = month
		to = month.AddDate(0, 1, 0)
	default:
		return domain.DashboardStats{}, store.Invalid(store.ReasonInvalidPeriod, "unknown period %q", period)
	}

	stats, err := s.repo.GetDashboardStats(ctx, storeID, from, to)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	stats.Period = period
	return stats, nil
}

func (s *Service) MonthlySalesStats(ctx context.Context, storeID string, date string) (domain.MonthlySalesStats, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	month, err := parseMonth(date)
	if err != nil {
		return domain.MonthlySalesStats{}, err
	}
	return s.repo.GetMonthlySalesStats(ctx, storeID, month, month.AddDate(0, 1, 0))
}

func (s *Service) ListAuditEntries(ctx context.Context, entityType string, date string, limit int) ([]domain.AuditEntry, error) {
	if err := requireRole(ctx, "admin"); err != nil {
		return nil, err
	}

	day, err := parseDay(date)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	return s.repo.ListAuditEntries(ctx, entityType, day, day.Add(24*time.Hour), limit)
}

func requireRole(ctx context.Context, role string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != role {
		return fmt.Errorf("%s role required", role)
	}
	return nil
}

// logAudit queues the entry on the async sink; recording never blocks or
// fails the operation being audited.
func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	if s.sink == nil {
		return
	}
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	s.sink.Record(actor.Username, action, entityType, entityID, detail)
}

// parseDay resolves "" to today (UTC) and otherwise expects 2006-01-02.
func parseDay(date string) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, store.Invalid(store.ReasonInvalidDate, "invalid date %q, want YYYY-MM-DD", date)
	}
	return day.UTC(), nil
}

func parseMonth(date string) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	month, err := time.Parse("2006-01", date)
	if err != nil {
		return time.Time{}, store.Invalid(store.ReasonInvalidDate, "invalid month %q, want YYYY-MM", date)
	}
	return month.UTC(), nil
}
