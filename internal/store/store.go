package store

import (
	"context"
	"errors"
	"time"

	"ledgerline/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate value")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Ledger is the process-wide accounting store. Implementations must execute
// every mutating operation as a single critical section: multi-line
// transactions validate all lines before touching any inventory quantity, and
// no caller may observe a partially-applied sale or purchase.
type Ledger interface {
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetUserActive(ctx context.Context, id int64, active bool) (*domain.User, error)

	CreateItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	GetItem(ctx context.Context, id int64) (*domain.InventoryItem, error)
	ListItems(ctx context.Context) ([]domain.InventoryItem, error)
	UpdateItem(ctx context.Context, id int64, item domain.InventoryItem) (*domain.InventoryItem, error)
	DeleteItem(ctx context.Context, id int64) error
	LowStockItems(ctx context.Context) ([]domain.InventoryItem, error)

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	DeleteSale(ctx context.Context, id int64) error

	CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error)
	GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error)
	ListPurchases(ctx context.Context) ([]domain.Purchase, error)
	DeletePurchase(ctx context.Context, id int64) error

	CreatePayrollEntry(ctx context.Context, entry domain.PayrollEntry) (*domain.PayrollEntry, error)
	GetPayrollEntry(ctx context.Context, id int64) (*domain.PayrollEntry, error)
	ListPayrollEntries(ctx context.Context) ([]domain.PayrollEntry, error)
	ReplacePayrollEntry(ctx context.Context, id int64, entry domain.PayrollEntry) (*domain.PayrollEntry, error)
	DeletePayrollEntry(ctx context.Context, id int64) error

	FinancialSummary(ctx context.Context, start time.Time, end time.Time) (domain.FinancialSummary, error)
	InventoryReport(ctx context.Context) (domain.InventoryReport, error)
	SalesReport(ctx context.Context, start time.Time, end time.Time) (domain.SalesReport, error)
	DashboardStats(ctx context.Context, monthStart time.Time) (domain.DashboardStats, error)
}
