package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"ledgerline/backend/internal/domain"
	"ledgerline/backend/internal/store"
)

// Store keeps the whole ledger in process memory: five id-keyed maps, each
// with its own next-id counter starting at 1. Counters only move forward;
// deleted ids are never reused. Every mutating method holds the write lock
// for the full operation so multi-line sale/purchase transactions can
// validate every line before the first quantity changes.
type Store struct {
	mu sync.RWMutex

	users     map[int64]domain.User
	inventory map[int64]domain.InventoryItem
	sales     map[int64]domain.Sale
	purchases map[int64]domain.Purchase
	payroll   map[int64]domain.PayrollEntry

	userSeq      int64
	inventorySeq int64
	saleSeq      int64
	purchaseSeq  int64
	payrollSeq   int64
}

func New() *Store {
	return &Store{
		users:     make(map[int64]domain.User),
		inventory: make(map[int64]domain.InventoryItem),
		sales:     make(map[int64]domain.Sale),
		purchases: make(map[int64]domain.Purchase),
		payroll:   make(map[int64]domain.PayrollEntry),
	}
}

// NewSeeded builds a store with the default admin account. The admin password
// is read from SEED_ADMIN_PASSWORD; when unset a hardcoded dev default is used
// and a warning is logged. Never rely on the default outside development.
func NewSeeded() *Store {
	s := New()

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		logrus.Warn("using default admin credentials; set SEED_ADMIN_PASSWORD to override")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Fatal("failed to hash seed admin password")
	}

	admin, err := s.CreateUser(context.Background(), domain.User{
		Username:     "admin",
		Email:        "admin@company.com",
		FullName:     "System Administrator",
		Role:         domain.RoleManager,
		Active:       true,
		PasswordHash: string(hash),
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to seed admin user")
	}
	logrus.WithField("username", admin.Username).Info("ledger seeded with admin user")

	return s
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" {
		return nil, fmt.Errorf("%w: username required", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return nil, fmt.Errorf("%w: username %s", store.ErrDuplicate, user.Username)
		}
	}

	s.userSeq++
	user.ID = s.userSeq
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	s.users[user.ID] = user
	created := user
	return &created, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := user
	return &found, nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return cmpInt64(a.ID, b.ID)
	})
	return users, nil
}

func (s *Store) SetUserActive(_ context.Context, id int64, active bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	user.Active = active
	s.users[id] = user
	updated := user
	return &updated, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.SKU = normalizeSKU(item.SKU)
	if item.Name == "" || item.SKU == "" {
		return nil, fmt.Errorf("%w: name and sku required", store.ErrInvalidInput)
	}
	if item.UnitPrice <= 0 {
		return nil, fmt.Errorf("%w: unit price must be positive", store.ErrInvalidInput)
	}
	if item.QuantityInStock < 0 {
		return nil, fmt.Errorf("%w: quantity in stock must not be negative", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.inventory {
		if existing.SKU == item.SKU {
			return nil, fmt.Errorf("%w: sku %s", store.ErrDuplicate, item.SKU)
		}
	}

	s.inventorySeq++
	item.ID = s.inventorySeq
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	s.inventory[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) GetItem(_ context.Context, id int64) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.inventory[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := item
	return &found, nil
}

func (s *Store) ListItems(_ context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(s.inventory))
	for _, item := range s.inventory {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b domain.InventoryItem) int {
		return cmpInt64(a.ID, b.ID)
	})
	return items, nil
}

// UpdateItem is a full replace: every field from item overwrites the stored
// record, except id and creation timestamp which are preserved.
func (s *Store) UpdateItem(_ context.Context, id int64, item domain.InventoryItem) (*domain.InventoryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.SKU = normalizeSKU(item.SKU)
	if item.Name == "" || item.SKU == "" {
		return nil, fmt.Errorf("%w: name and sku required", store.ErrInvalidInput)
	}
	if item.UnitPrice <= 0 {
		return nil, fmt.Errorf("%w: unit price must be positive", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.inventory[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, other := range s.inventory {
		if other.ID != id && other.SKU == item.SKU {
			return nil, fmt.Errorf("%w: sku %s", store.ErrDuplicate, item.SKU)
		}
	}

	item.ID = id
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()

	s.inventory[id] = item
	updated := item
	return &updated, nil
}

// DeleteItem removes the item unconditionally, even when existing sales or
// purchases still reference it. Their snapshotted line names stay intact;
// later delete-reversals for those lines are skipped.
func (s *Store) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inventory[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.inventory, id)
	return nil
}

func (s *Store) LowStockItems(_ context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lowStockLocked(), nil
}

func (s *Store) lowStockLocked() []domain.InventoryItem {
	items := make([]domain.InventoryItem, 0, len(s.inventory))
	for _, item := range s.inventory {
		if item.QuantityInStock <= item.ReorderLevel {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b domain.InventoryItem) int {
		return cmpInt64(a.ID, b.ID)
	})
	return items
}

// CreateSale validates every line before mutating anything: all referenced
// items must exist and have sufficient stock. Only after the whole cart
// passes does it snapshot line names, compute the total, allocate the sale
// id, and decrement stock per line.
func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: sale requires at least one item", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range sale.Items {
		item, ok := s.inventory[line.InventoryItemID]
		if !ok {
			return nil, fmt.Errorf("%w: inventory item %d not found", store.ErrInvalidInput, line.InventoryItemID)
		}
		if item.QuantityInStock < line.Quantity {
			return nil, fmt.Errorf("%w: %s has %d available", store.ErrInsufficientStock, item.Name, item.QuantityInStock)
		}
	}

	now := time.Now().UTC()
	total := 0.0
	lines := make([]domain.SaleItem, 0, len(sale.Items))
	for i, line := range sale.Items {
		item := s.inventory[line.InventoryItemID]
		lines = append(lines, domain.SaleItem{
			ID:                int64(i + 1),
			InventoryItemID:   line.InventoryItemID,
			InventoryItemName: item.Name,
			Quantity:          line.Quantity,
			UnitPrice:         line.UnitPrice,
		})
		total += float64(line.Quantity) * line.UnitPrice
	}

	s.saleSeq++
	sale.ID = s.saleSeq
	sale.Items = lines
	sale.TotalAmount = total
	sale.CreatedAt = now

	for _, line := range lines {
		item := s.inventory[line.InventoryItemID]
		item.QuantityInStock -= line.Quantity
		item.UpdatedAt = now
		s.inventory[line.InventoryItemID] = item
	}

	s.sales[sale.ID] = cloneSale(sale)
	created := cloneSale(sale)
	return &created, nil
}

func (s *Store) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := cloneSale(sale)
	return &found, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, cloneSale(sale))
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		return cmpInt64(a.ID, b.ID)
	})
	return sales, nil
}

// DeleteSale restores stock for every line whose item still exists. Lines
// referencing since-deleted items are skipped with a warning; that is the one
// tolerated inconsistency in the ledger.
func (s *Store) DeleteSale(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return store.ErrNotFound
	}

	now := time.Now().UTC()
	for _, line := range sale.Items {
		item, ok := s.inventory[line.InventoryItemID]
		if !ok {
			logrus.WithFields(logrus.Fields{
				"sale_id": id,
				"item_id": line.InventoryItemID,
			}).Warn("skipping stock reversal for deleted inventory item")
			continue
		}
		item.QuantityInStock += line.Quantity
		item.UpdatedAt = now
		s.inventory[line.InventoryItemID] = item
	}

	delete(s.sales, id)
	return nil
}

// CreatePurchase mirrors CreateSale without the sufficiency check: receiving
// stock has no upper bound.
func (s *Store) CreatePurchase(_ context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	if len(purchase.Items) == 0 {
		return nil, fmt.Errorf("%w: purchase requires at least one item", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range purchase.Items {
		if _, ok := s.inventory[line.InventoryItemID]; !ok {
			return nil, fmt.Errorf("%w: inventory item %d not found", store.ErrInvalidInput, line.InventoryItemID)
		}
	}

	now := time.Now().UTC()
	total := 0.0
	lines := make([]domain.PurchaseItem, 0, len(purchase.Items))
	for i, line := range purchase.Items {
		item := s.inventory[line.InventoryItemID]
		lines = append(lines, domain.PurchaseItem{
			ID:                int64(i + 1),
			InventoryItemID:   line.InventoryItemID,
			InventoryItemName: item.Name,
			Quantity:          line.Quantity,
			UnitCost:          line.UnitCost,
		})
		total += float64(line.Quantity) * line.UnitCost
	}

	s.purchaseSeq++
	purchase.ID = s.purchaseSeq
	purchase.Items = lines
	purchase.TotalAmount = total
	purchase.CreatedAt = now

	for _, line := range lines {
		item := s.inventory[line.InventoryItemID]
		item.QuantityInStock += line.Quantity
		item.UpdatedAt = now
		s.inventory[line.InventoryItemID] = item
	}

	s.purchases[purchase.ID] = clonePurchase(purchase)
	created := clonePurchase(purchase)
	return &created, nil
}

func (s *Store) GetPurchase(_ context.Context, id int64) (*domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchase, ok := s.purchases[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := clonePurchase(purchase)
	return &found, nil
}

func (s *Store) ListPurchases(_ context.Context) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchases := make([]domain.Purchase, 0, len(s.purchases))
	for _, purchase := range s.purchases {
		purchases = append(purchases, clonePurchase(purchase))
	}
	slices.SortFunc(purchases, func(a, b domain.Purchase) int {
		return cmpInt64(a.ID, b.ID)
	})
	return purchases, nil
}

// DeletePurchase takes the received stock back out. The reversal does not
// re-check the non-negative invariant: stock consumed by later sales can
// leave the count below the purchased quantity.
func (s *Store) DeletePurchase(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.purchases[id]
	if !ok {
		return store.ErrNotFound
	}

	now := time.Now().UTC()
	for _, line := range purchase.Items {
		item, ok := s.inventory[line.InventoryItemID]
		if !ok {
			logrus.WithFields(logrus.Fields{
				"purchase_id": id,
				"item_id":     line.InventoryItemID,
			}).Warn("skipping stock reversal for deleted inventory item")
			continue
		}
		item.QuantityInStock -= line.Quantity
		item.UpdatedAt = now
		s.inventory[line.InventoryItemID] = item
	}

	delete(s.purchases, id)
	return nil
}

func (s *Store) CreatePayrollEntry(_ context.Context, entry domain.PayrollEntry) (*domain.PayrollEntry, error) {
	if strings.TrimSpace(entry.EmployeeName) == "" || strings.TrimSpace(entry.EmployeeID) == "" {
		return nil, fmt.Errorf("%w: employee name and id required", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.payrollSeq++
	entry.ID = s.payrollSeq
	entry.CreatedAt = time.Now().UTC()

	s.payroll[entry.ID] = entry
	created := entry
	return &created, nil
}

func (s *Store) GetPayrollEntry(_ context.Context, id int64) (*domain.PayrollEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.payroll[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := entry
	return &found, nil
}

func (s *Store) ListPayrollEntries(_ context.Context) ([]domain.PayrollEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.PayrollEntry, 0, len(s.payroll))
	for _, entry := range s.payroll {
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b domain.PayrollEntry) int {
		return cmpInt64(a.ID, b.ID)
	})
	return entries, nil
}

// ReplacePayrollEntry swaps in the new figures while carrying over the
// original creator and creation timestamp.
func (s *Store) ReplacePayrollEntry(_ context.Context, id int64, entry domain.PayrollEntry) (*domain.PayrollEntry, error) {
	if strings.TrimSpace(entry.EmployeeName) == "" || strings.TrimSpace(entry.EmployeeID) == "" {
		return nil, fmt.Errorf("%w: employee name and id required", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.payroll[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	entry.ID = id
	entry.CreatedBy = existing.CreatedBy
	entry.CreatedAt = existing.CreatedAt

	s.payroll[id] = entry
	updated := entry
	return &updated, nil
}

func (s *Store) DeletePayrollEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payroll[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.payroll, id)
	return nil
}

// FinancialSummary folds sales into revenue and purchases plus payroll gross
// pay into expenses over the inclusive [start, end] window.
func (s *Store) FinancialSummary(_ context.Context, start time.Time, end time.Time) (domain.FinancialSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.FinancialSummary{PeriodStart: start, PeriodEnd: end}
	for _, sale := range s.sales {
		if inWindow(sale.CreatedAt, start, end) {
			summary.TotalRevenue += sale.TotalAmount
		}
	}
	for _, purchase := range s.purchases {
		if inWindow(purchase.CreatedAt, start, end) {
			summary.TotalExpenses += purchase.TotalAmount
		}
	}
	for _, entry := range s.payroll {
		if inWindow(entry.CreatedAt, start, end) {
			summary.TotalExpenses += entry.GrossPay
		}
	}
	summary.NetIncome = summary.TotalRevenue - summary.TotalExpenses
	return summary, nil
}

func (s *Store) InventoryReport(_ context.Context) (domain.InventoryReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.InventoryReport{
		TotalItems:    len(s.inventory),
		LowStockItems: s.lowStockLocked(),
	}
	for _, item := range s.inventory {
		report.TotalValue += float64(item.QuantityInStock) * item.UnitPrice
	}
	return report, nil
}

// SalesReport tallies per-item-name quantities over the inclusive window and
// returns the top 5 by quantity descending. Sales are walked in id order and
// the sort is stable, so ties keep first-encountered order.
func (s *Store) SalesReport(_ context.Context, start time.Time, end time.Time) (domain.SalesReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.SalesReport{PeriodStart: start, PeriodEnd: end}

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		return cmpInt64(a.ID, b.ID)
	})

	soldByName := make(map[string]int)
	names := make([]string, 0, 16)
	for _, sale := range sales {
		if !inWindow(sale.CreatedAt, start, end) {
			continue
		}
		report.TotalSales++
		report.TotalRevenue += sale.TotalAmount
		for _, line := range sale.Items {
			if _, seen := soldByName[line.InventoryItemName]; !seen {
				names = append(names, line.InventoryItemName)
			}
			soldByName[line.InventoryItemName] += line.Quantity
		}
	}

	top := make([]domain.TopSellingItem, 0, len(names))
	for _, name := range names {
		top = append(top, domain.TopSellingItem{Item: name, QuantitySold: soldByName[name]})
	}
	slices.SortStableFunc(top, func(a, b domain.TopSellingItem) int {
		return b.QuantitySold - a.QuantitySold
	})
	if len(top) > 5 {
		top = top[:5]
	}
	report.TopSellingItems = top
	return report, nil
}

// DashboardStats aggregates from monthStart forward plus whole-ledger
// inventory figures. The distinct employee count spans every payroll entry
// ever created, not just the current month.
func (s *Store) DashboardStats(_ context.Context, monthStart time.Time) (domain.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.DashboardStats{TotalInventoryItems: len(s.inventory)}

	for _, sale := range s.sales {
		if !sale.CreatedAt.Before(monthStart) {
			stats.MonthlySales++
			stats.MonthlyRevenue += sale.TotalAmount
		}
	}
	for _, purchase := range s.purchases {
		if !purchase.CreatedAt.Before(monthStart) {
			stats.MonthlyExpenses += purchase.TotalAmount
		}
	}
	employees := make(map[string]struct{}, len(s.payroll))
	for _, entry := range s.payroll {
		if !entry.CreatedAt.Before(monthStart) {
			stats.MonthlyExpenses += entry.GrossPay
		}
		employees[entry.EmployeeID] = struct{}{}
	}
	stats.MonthlyProfit = stats.MonthlyRevenue - stats.MonthlyExpenses
	stats.TotalEmployees = len(employees)

	for _, item := range s.inventory {
		stats.TotalInventoryValue += float64(item.QuantityInStock) * item.UnitPrice
		if item.QuantityInStock <= item.ReorderLevel {
			stats.LowStockItems++
		}
	}

	return stats, nil
}

// normalizeSKU upper-cases SKUs so uniqueness is case-insensitive.
func normalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

func inWindow(t time.Time, start time.Time, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func cmpInt64(a int64, b int64) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneSale(src domain.Sale) domain.Sale {
	dup := src
	items := make([]domain.SaleItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}

func clonePurchase(src domain.Purchase) domain.Purchase {
	dup := src
	items := make([]domain.PurchaseItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}
