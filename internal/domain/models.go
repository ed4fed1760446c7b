package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentCash    PaymentMode = "CASH"
	PaymentCard    PaymentMode = "CARD"
	PaymentUPI     PaymentMode = "UPI"
	PaymentQRCode  PaymentMode = "QR_CODE"
	PaymentFinance PaymentMode = "FINANCE"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentQRCode, PaymentFinance:
		return true
	}
	return false
}

func PaymentModes() []PaymentMode {
	return []PaymentMode{PaymentCash, PaymentCard, PaymentUPI, PaymentQRCode, PaymentFinance}
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

type Product struct {
	ID             string          `json:"id"`
	StoreID        string          `json:"store_id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Category       string          `json:"category,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	GSTRate        decimal.Decimal `json:"gst_rate"`
	CurrentStock   int             `json:"current_stock"`
	MinimumStock   int             `json:"minimum_stock"`
	WarrantyMonths int             `json:"warranty_months"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ProductCreateRequest struct {
	StoreID        string          `json:"store_id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	GSTRate        decimal.Decimal `json:"gst_rate"`
	InitialStock   int             `json:"initial_stock"`
	MinimumStock   int             `json:"minimum_stock"`
	WarrantyMonths int             `json:"warranty_months"`
}

type RestockRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Customer struct {
	ID             string          `json:"id"`
	StoreID        string          `json:"store_id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	GSTNumber      string          `json:"gst_number,omitempty"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	LoyaltyPoints  int64           `json:"loyalty_points"`
	CreatedAt      time.Time       `json:"created_at"`
}

type CustomerCreateRequest struct {
	StoreID   string `json:"store_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	GSTNumber string `json:"gst_number,omitempty"`
}

// SaleLineItem is owned by its Sale and snapshots price and tax at sale
// time; later product changes never alter a committed line.
type SaleLineItem struct {
	ProductID         string          `json:"product_id"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	GSTRate           decimal.Decimal `json:"gst_rate"`
	GSTAmount         decimal.Decimal `json:"gst_amount"`
	LineTotal         decimal.Decimal `json:"line_total"`
	SerialNumber      string          `json:"serial_number,omitempty"`
	WarrantyExpiresAt *time.Time      `json:"warranty_expires_at,omitempty"`
}

type Sale struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	StoreID       string          `json:"store_id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	GSTAmount     decimal.Decimal `json:"gst_amount"`
	Discount      decimal.Decimal `json:"discount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	SaleDate      time.Time       `json:"sale_date"`
	Items         []SaleLineItem  `json:"items"`
}

type SaleLineRequest struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	SerialNumber string `json:"serial_number,omitempty"`
}

type SaleCreateRequest struct {
	StoreID     string            `json:"store_id"`
	CustomerID  string            `json:"customer_id,omitempty"`
	PaymentMode PaymentMode       `json:"payment_mode"`
	Discount    decimal.Decimal   `json:"discount"`
	Lines       []SaleLineRequest `json:"lines"`
}

type SaleFilter struct {
	StoreID    string
	CustomerID string
	From       *time.Time
	To         *time.Time
	Limit      int
}

type Expense struct {
	ID            string          `json:"id"`
	StoreID       string          `json:"store_id"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	VendorName    string          `json:"vendor_name,omitempty"`
	ReceiptNumber string          `json:"receipt_number,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
	ExpenseDate   time.Time       `json:"expense_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ExpenseCreateRequest struct {
	StoreID       string          `json:"store_id"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	VendorName    string          `json:"vendor_name,omitempty"`
	ReceiptNumber string          `json:"receipt_number,omitempty"`
	ExpenseDate   *time.Time      `json:"expense_date,omitempty"`
}

type ExpenseFilter struct {
	StoreID  string
	Category string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// AuditEntry is append-only; the core never mutates or deletes one.
type AuditEntry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

type DailyClosingReport struct {
	StoreID           string                          `json:"store_id"`
	Date              string                          `json:"date"`
	TotalSales        decimal.Decimal                 `json:"total_sales"`
	ByPaymentMode     map[PaymentMode]decimal.Decimal `json:"by_payment_mode"`
	TotalExpenses     decimal.Decimal                 `json:"total_expenses"`
	CashExpenses      decimal.Decimal                 `json:"cash_expenses"`
	NetCashInHand     decimal.Decimal                 `json:"net_cash_in_hand"`
	TotalTransactions int64                           `json:"total_transactions"`
}

type DashboardStats struct {
	StoreID     string          `json:"store_id"`
	Period      string          `json:"period"`
	Revenue     decimal.Decimal `json:"revenue"`
	Expenses    decimal.Decimal `json:"expenses"`
	COGS        decimal.Decimal `json:"cogs"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	NetProfit   decimal.Decimal `json:"net_profit"`
}

type MonthlySalesStats struct {
	Month             string          `json:"month"`
	Year              int             `json:"year"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalTransactions int64           `json:"total_transactions"`
	AverageTicket     decimal.Decimal `json:"average_transaction_value"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	ID       string
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	ID        string
	Username  string
	Password  string
	Role      string
	StoreID   string
	Active    bool
	CreatedAt time.Time
}
