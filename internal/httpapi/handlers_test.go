package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ledgerline/backend/internal/domain"
	"ledgerline/backend/internal/service"
	"ledgerline/backend/internal/store/memory"
)

const testSecret = "unit-test-secret-0123456789abcdef"

func newTestAPI(t *testing.T) (*API, *memory.Store) {
	t.Helper()
	ledger := memory.NewSeeded()
	svc := service.New(ledger)
	auth := NewAuthManager(testSecret, time.Hour, ledger)
	return New(svc, auth, "*"), ledger
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/auth/login", "", domain.LoginRequest{
		Username: username,
		Password: password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	var resp domain.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.TokenType != "bearer" || resp.AccessToken == "" {
		t.Fatalf("unexpected token response: %+v", resp)
	}
	return resp.AccessToken
}

func createStaff(t *testing.T, handler http.Handler, adminToken, username, password string) domain.User {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/users", adminToken, domain.UserCreateRequest{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Staff " + username,
		Role:     domain.RoleStaff,
		Password: password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: status %d body %s", rec.Code, rec.Body.String())
	}
	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return user
}

func TestLoginAndMe(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodGet, "/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", rec.Code, rec.Body.String())
	}
	var me domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Username != "admin" || me.Role != domain.RoleManager {
		t.Fatalf("unexpected identity: %+v", me)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Fatalf("password material leaked in response: %s", rec.Body.String())
	}
}

func TestLoginFailures(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/auth/login", "", domain.LoginRequest{Username: "admin", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/auth/login", "", domain.LoginRequest{Username: "ghost", Password: "whatever"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: status %d", rec.Code)
	}

	adminToken := loginAs(t, handler, "admin", "admin123")
	staff := createStaff(t, handler, adminToken, "clerk", "clerk-pass")

	rec = doJSON(t, handler, http.MethodPut, fmt.Sprintf("/users/%d/deactivate", staff.ID), adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/auth/login", "", domain.LoginRequest{Username: "clerk", Password: "clerk-pass"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("disabled login: status %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("disabled")) {
		t.Fatalf("disabled login must name the cause, got %s", rec.Body.String())
	}
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	for _, path := range []string{"/inventory", "/sales", "/purchases", "/payroll", "/reports/dashboard-stats", "/users"} {
		rec := doJSON(t, handler, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token, got %d", path, rec.Code)
		}
	}
}

func TestInventorySaleFlow(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/inventory", token, domain.InventoryItemRequest{
		Name:            "Widget",
		SKU:             "wd-001",
		UnitPrice:       10.0,
		QuantityInStock: 5,
		ReorderLevel:    2,
		Category:        "general",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item: status %d body %s", rec.Code, rec.Body.String())
	}
	var item domain.InventoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.SKU != "WD-001" {
		t.Fatalf("sku must be normalized upper case, got %q", item.SKU)
	}

	rec = doJSON(t, handler, http.MethodPost, "/sales", token, domain.SaleCreateRequest{
		CustomerName: "Acme",
		Items:        []domain.SaleLineRequest{{InventoryItemID: item.ID, Quantity: 3, UnitPrice: 10.0}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: status %d body %s", rec.Code, rec.Body.String())
	}
	var sale domain.Sale
	if err := json.Unmarshal(rec.Body.Bytes(), &sale); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	if sale.TotalAmount != 30.0 {
		t.Fatalf("expected total 30, got %v", sale.TotalAmount)
	}

	rec = doJSON(t, handler, http.MethodGet, "/inventory/low-stock/items", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("low stock: status %d", rec.Code)
	}
	var low []domain.InventoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &low); err != nil {
		t.Fatalf("decode low stock: %v", err)
	}
	if len(low) != 1 || low[0].ID != item.ID {
		t.Fatalf("expected item below reorder level, got %+v", low)
	}

	rec = doJSON(t, handler, http.MethodPost, "/sales", token, domain.SaleCreateRequest{
		CustomerName: "Acme",
		Items:        []domain.SaleLineRequest{{InventoryItemID: item.ID, Quantity: 3, UnitPrice: 10.0}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversold sale: expected 400, got %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodDelete, fmt.Sprintf("/sales/%d", sale.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete sale: status %d body %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("message")) {
		t.Fatalf("delete must return a message body, got %s", rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/inventory/%d", item.ID), token, nil)
	var restored domain.InventoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &restored); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if restored.QuantityInStock != 5 {
		t.Fatalf("expected stock restored to 5, got %d", restored.QuantityInStock)
	}
}

func TestDuplicateSKURejected(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	req := domain.InventoryItemRequest{
		Name:      "Widget",
		SKU:       "WD-001",
		UnitPrice: 10.0,
		Category:  "general",
	}
	if rec := doJSON(t, handler, http.MethodPost, "/inventory", token, req); rec.Code != http.StatusCreated {
		t.Fatalf("create item: status %d", rec.Code)
	}
	req.SKU = "wd-001"
	if rec := doJSON(t, handler, http.MethodPost, "/inventory", token, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate sku: expected 400, got %d", rec.Code)
	}
}

func TestValidationFailuresReturn422(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/inventory", token, map[string]any{
		"name":     "Widget",
		"sku":      "WD-001",
		"category": "general",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing price: expected 422, got %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/sales", token, map[string]any{
		"customer_name": "Acme",
		"items":         []any{},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty cart: expected 422, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestStaffForbiddenOnManagerEndpoints(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()
	adminToken := loginAs(t, handler, "admin", "admin123")
	createStaff(t, handler, adminToken, "clerk", "clerk-pass")
	staffToken := loginAs(t, handler, "clerk", "clerk-pass")

	if rec := doJSON(t, handler, http.MethodGet, "/users", staffToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("list users as staff: expected 403, got %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodDelete, "/inventory/1", staffToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("delete item as staff: expected 403, got %d", rec.Code)
	}
	now := time.Now().UTC()
	rec := doJSON(t, handler, http.MethodPost, "/payroll", staffToken, domain.PayrollEntryRequest{
		EmployeeName:   "Dana Reyes",
		EmployeeID:     "EMP-7",
		BaseSalary:     1000,
		PayPeriodStart: now.AddDate(0, 0, -14),
		PayPeriodEnd:   now,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("create payroll as staff: expected 403, got %d", rec.Code)
	}
}

func TestPayrollEndpoints(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")
	now := time.Now().UTC()

	rec := doJSON(t, handler, http.MethodPost, "/payroll", token, domain.PayrollEntryRequest{
		EmployeeName:   "Dana Reyes",
		EmployeeID:     "EMP-7",
		BaseSalary:     1000,
		OvertimeHours:  10,
		OvertimeRate:   15,
		Bonus:          50,
		Deductions:     100,
		PayPeriodStart: now.AddDate(0, 0, -14),
		PayPeriodEnd:   now,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create payroll: status %d body %s", rec.Code, rec.Body.String())
	}
	var entry domain.PayrollEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode payroll: %v", err)
	}
	if entry.GrossPay != 1200 || entry.NetPay != 1100 {
		t.Fatalf("expected gross 1200 net 1100, got %v/%v", entry.GrossPay, entry.NetPay)
	}

	rec = doJSON(t, handler, http.MethodDelete, fmt.Sprintf("/payroll/%d", entry.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete payroll: status %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/payroll/%d", entry.ID), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted payroll lookup: expected 404, got %d", rec.Code)
	}
}

func TestReportsEndpoints(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/inventory", token, domain.InventoryItemRequest{
		Name:            "Widget",
		SKU:             "WD-001",
		UnitPrice:       10.0,
		QuantityInStock: 10,
		Category:        "general",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item: status %d", rec.Code)
	}
	var item domain.InventoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}

	rec = doJSON(t, handler, http.MethodPost, "/sales", token, domain.SaleCreateRequest{
		CustomerName: "Acme",
		Items:        []domain.SaleLineRequest{{InventoryItemID: item.ID, Quantity: 2, UnitPrice: 10.0}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: status %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/reports/financial-summary", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("financial summary: status %d", rec.Code)
	}
	var summary domain.FinancialSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalRevenue != 20 {
		t.Fatalf("expected revenue 20, got %v", summary.TotalRevenue)
	}

	rec = doJSON(t, handler, http.MethodGet, "/reports/sales-report", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sales report: status %d", rec.Code)
	}
	var report domain.SalesReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalSales != 1 || len(report.TopSellingItems) != 1 || report.TopSellingItems[0].Item != "Widget" {
		t.Fatalf("unexpected sales report: %+v", report)
	}

	rec = doJSON(t, handler, http.MethodGet, "/reports/inventory-report", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("inventory report: status %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/reports/dashboard-stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard stats: status %d", rec.Code)
	}
	var stats domain.DashboardStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.MonthlySales != 1 || stats.MonthlyRevenue != 20 {
		t.Fatalf("unexpected dashboard stats: %+v", stats)
	}

	rec = doJSON(t, handler, http.MethodGet, "/reports/sales-report?start_date=bogus", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400, got %d", rec.Code)
	}
}

func TestUnknownResourceReturns404(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	for _, path := range []string{"/inventory/999", "/sales/999", "/purchases/999", "/payroll/999", "/users/999"} {
		rec := doJSON(t, handler, http.MethodGet, path, token, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}
