package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ledgerline/backend/internal/domain"
	"ledgerline/backend/internal/payroll"
	"ledgerline/backend/internal/store"
)

// ErrManagerOnly marks operations the caller's role does not permit.
var ErrManagerOnly = errors.New("manager role required")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	ledger store.Ledger
}

func New(ledger store.Ledger) *Service {
	return &Service{ledger: ledger}
}

func (s *Service) requireManager(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || !actor.IsManager() {
		return domain.Actor{}, ErrManagerOnly
	}
	return actor, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	if _, err := s.requireManager(ctx); err != nil {
		return nil, err
	}
	return s.ledger.ListUsers(ctx)
}

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (*domain.User, error) {
	if _, err := s.requireManager(ctx); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.ledger.CreateUser(ctx, domain.User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Active:       true,
		PasswordHash: string(hash),
	})
}

// GetUser is open to managers for any id and to every user for their own id.
func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, ErrManagerOnly
	}
	if !actor.IsManager() && actor.UserID != id {
		return nil, ErrManagerOnly
	}
	return s.ledger.GetUser(ctx, id)
}

func (s *Service) ActivateUser(ctx context.Context, id int64) (*domain.User, error) {
	if _, err := s.requireManager(ctx); err != nil {
		return nil, err
	}
	return s.ledger.SetUserActive(ctx, id, true)
}

func (s *Service) DeactivateUser(ctx context.Context, id int64) (*domain.User, error) {
	actor, err := s.requireManager(ctx)
	if err != nil {
		return nil, err
	}
	if actor.UserID == id {
		return nil, fmt.Errorf("%w: cannot deactivate your own account", store.ErrInvalidInput)
	}
	return s.ledger.SetUserActive(ctx, id, false)
}

func (s *Service) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.ledger.ListItems(ctx)
}

func (s *Service) GetItem(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	return s.ledger.GetItem(ctx, id)
}

func (s *Service) CreateItem(ctx context.Context, req domain.InventoryItemRequest) (*domain.InventoryItem, error) {
	return s.ledger.CreateItem(ctx, itemFromRequest(req))
}

func (s *Service) UpdateItem(ctx context.Context, id int64, req domain.InventoryItemRequest) (*domain.InventoryItem, error) {
	return s.ledger.UpdateItem(ctx, id, itemFromRequest(req))
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if _, err := s.requireManager(ctx); err != nil {
		return err
	}
	return s.ledger.DeleteItem(ctx, id)
}

func (s *Service) LowStockItems(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.ledger.LowStockItems(ctx)
}

func itemFromRequest(req domain.InventoryItemRequest) domain.InventoryItem {
	return domain.InventoryItem{
		Name:            req.Name,
		Description:     strings.TrimSpace(req.Description),
		SKU:             req.SKU,
		UnitPrice:       req.UnitPrice,
		QuantityInStock: req.QuantityInStock,
		ReorderLevel:    req.ReorderLevel,
		Category:        strings.TrimSpace(req.Category),
	}
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.ledger.ListSales(ctx)
}

func (s *Service) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	return s.ledger.GetSale(ctx, id)
}

func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (*domain.Sale, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, ErrManagerOnly
	}

	lines := make([]domain.SaleItem, 0, len(req.Items))
	for _, line := range req.Items {
		lines = append(lines, domain.SaleItem{
			InventoryItemID: line.InventoryItemID,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
		})
	}

	return s.ledger.CreateSale(ctx, domain.Sale{
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Items:         lines,
		CreatedBy:     actor.UserID,
		Notes:         strings.TrimSpace(req.Notes),
	})
}

func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	if _, err := s.requireManager(ctx); err != nil {
		return err
	}
	return s.ledger.DeleteSale(ctx, id)
}

func (s *Service) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	return s.ledger.ListPurchases(ctx)
}

func (s *Service) GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error) {
	return s.ledger.GetPurchase(ctx, id)
}

func (s *Service) CreatePurchase(ctx context.Context, req domain.PurchaseCreateRequest) (*domain.Purchase, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, ErrManagerOnly
	}

	lines := make([]domain.PurchaseItem, 0, len(req.Items))
	for _, line := range req.Items {
		lines = append(lines, domain.PurchaseItem{
			InventoryItemID: line.InventoryItemID,
			Quantity:        line.Quantity,
			UnitCost:        line.UnitCost,
		})
	}

	return s.ledger.CreatePurchase(ctx, domain.Purchase{
		SupplierName:  strings.TrimSpace(req.SupplierName),
		SupplierEmail: strings.TrimSpace(req.SupplierEmail),
		Items:         lines,
		CreatedBy:     actor.UserID,
		Notes:         strings.TrimSpace(req.Notes),
	})
}

func (s *Service) DeletePurchase(ctx context.Context, id int64) error {
	if _, err := s.requireManager(ctx); err != nil {
		return err
	}
	return s.ledger.DeletePurchase(ctx, id)
}

func (s *Service) ListPayrollEntries(ctx context.Context) ([]domain.PayrollEntry, error) {
	return s.ledger.ListPayrollEntries(ctx)
}

func (s *Service) GetPayrollEntry(ctx context.Context, id int64) (*domain.PayrollEntry, error) {
	return s.ledger.GetPayrollEntry(ctx, id)
}

func (s *Service) CreatePayrollEntry(ctx context.Context, req domain.PayrollEntryRequest) (*domain.PayrollEntry, error) {
	actor, err := s.requireManager(ctx)
	if err != nil {
		return nil, err
	}

	entry := payrollFromRequest(req)
	entry.CreatedBy = actor.UserID
	return s.ledger.CreatePayrollEntry(ctx, entry)
}

func (s *Service) UpdatePayrollEntry(ctx context.Context, id int64, req domain.PayrollEntryRequest) (*domain.PayrollEntry, error) {
	if _, err := s.requireManager(ctx); err != nil {
		return nil, err
	}
	return s.ledger.ReplacePayrollEntry(ctx, id, payrollFromRequest(req))
}

func (s *Service) DeletePayrollEntry(ctx context.Context, id int64) error {
	if _, err := s.requireManager(ctx); err != nil {
		return err
	}
	return s.ledger.DeletePayrollEntry(ctx, id)
}

func payrollFromRequest(req domain.PayrollEntryRequest) domain.PayrollEntry {
	gross := payroll.GrossPay(req.BaseSalary, req.OvertimeHours, req.OvertimeRate, req.Bonus)
	return domain.PayrollEntry{
		EmployeeName:   strings.TrimSpace(req.EmployeeName),
		EmployeeID:     strings.TrimSpace(req.EmployeeID),
		BaseSalary:     req.BaseSalary,
		OvertimeHours:  req.OvertimeHours,
		OvertimeRate:   req.OvertimeRate,
		Bonus:          req.Bonus,
		Deductions:     req.Deductions,
		PayPeriodStart: req.PayPeriodStart,
		PayPeriodEnd:   req.PayPeriodEnd,
		GrossPay:       gross,
		NetPay:         payroll.NetPay(gross, req.Deductions),
	}
}

func (s *Service) FinancialSummary(ctx context.Context, startDate, endDate string) (domain.FinancialSummary, error) {
	start, end, err := reportWindow(startDate, endDate)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	return s.ledger.FinancialSummary(ctx, start, end)
}

func (s *Service) InventoryReport(ctx context.Context) (domain.InventoryReport, error) {
	return s.ledger.InventoryReport(ctx)
}

func (s *Service) SalesReport(ctx context.Context, startDate, endDate string) (domain.SalesReport, error) {
	start, end, err := reportWindow(startDate, endDate)
	if err != nil {
		return domain.SalesReport{}, err
	}
	return s.ledger.SalesReport(ctx, start, end)
}

func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.ledger.DashboardStats(ctx, monthStart)
}

// reportWindow resolves optional date bounds. Absent bounds default to the
// first instant of the current month and now. Dates accept RFC 3339 or plain
// 2006-01-02.
func reportWindow(startDate, endDate string) (time.Time, time.Time, error) {
	now := time.Now().UTC()

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if strings.TrimSpace(startDate) != "" {
		parsed, err := parseDate(startDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}

	end := now
	if strings.TrimSpace(endDate) != "" {
		parsed, err := parseDate(endDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date before start date", store.ErrInvalidInput)
	}
	return start, end, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", store.ErrInvalidInput, value)
	}
	return parsed.UTC(), nil
}
