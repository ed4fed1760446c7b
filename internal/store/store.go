package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vaidehip0407/SKOPE-ERP/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrSequenceConflict marks a transient invoice-number allocation
	// failure. Nothing has been reserved when it occurs, so retrying the
	// whole sale attempt is safe.
	ErrSequenceConflict = errors.New("invoice sequence conflict")
	ErrDuplicateEntity  = errors.New("duplicate entity")
)

// Validation reason codes surfaced to callers on rejected sales.
const (
	ReasonProductNotFound    = "ProductNotFound"
	ReasonProductInactive    = "ProductInactive"
	ReasonInvalidQuantity    = "InvalidQuantity"
	ReasonInvalidPaymentMode = "InvalidPaymentMode"
	ReasonInvalidDiscount    = "InvalidDiscount"
	ReasonInvalidStore       = "InvalidStore"
	ReasonEmptySale          = "EmptySale"
	ReasonMissingField       = "MissingField"
	ReasonInvalidDate        = "InvalidDate"
	ReasonInvalidPeriod      = "InvalidPeriod"
	ReasonInvalidPrice       = "InvalidPrice"
)

// ValidationError rejects bad input before any mutation happens.
type ValidationError struct {
	Code   string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation failed: %s", e.Code)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Code, e.Detail)
}

func Invalid(code string, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// InsufficientStockError reports the offending product and what was
// actually available at rejection time.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Repository is the persistence contract for the sale engine. CreateSale
// is the single transactional boundary: invoice numbering, stock
// reservation, sale + line item persistence and the customer aggregate
// update commit together or not at all.
type Repository interface {
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	ListProducts(ctx context.Context, storeID string, lowStockOnly bool) ([]domain.Product, error)

	// ReserveStock atomically checks and decrements available stock for
	// one product; ReleaseStock restores exactly what was reserved.
	ReserveStock(ctx context.Context, productID string, quantity int) error
	ReleaseStock(ctx context.Context, productID string, quantity int) error
	RestockProduct(ctx context.Context, productID string, quantity int) (*domain.Product, error)

	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)

	// NextInvoiceNumber is an atomic fetch-and-add on the per
	// (store, calendar-day) counter. Concurrent callers never receive
	// the same number; gaps from abandoned attempts are acceptable.
	NextInvoiceNumber(ctx context.Context, storeID string, day time.Time) (string, error)

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error)

	GetDailyClosing(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.DailyClosingReport, error)
	GetDashboardStats(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.DashboardStats, error)
	GetMonthlySalesStats(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.MonthlySalesStats, error)

	CreateAuditEntry(ctx context.Context, entry domain.AuditEntry) error
	ListAuditEntries(ctx context.Context, entityType string, from time.Time, to time.Time, limit int) ([]domain.AuditEntry, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
