package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"ledgerline/backend/internal/domain"
	"ledgerline/backend/internal/service"
	"ledgerline/backend/internal/store"
	"ledgerline/backend/internal/validate"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(a.withMiddleware)

	r.Get("/healthz", a.handleHealth)
	r.Post("/auth/login", a.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(a.requireUser)

		r.Get("/auth/me", a.handleMe)

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", a.handleListItems)
			r.Post("/", a.handleCreateItem)
			r.Get("/low-stock/items", a.handleLowStockItems)
			r.Get("/{id}", a.handleGetItem)
			r.Put("/{id}", a.handleUpdateItem)
			r.Delete("/{id}", a.handleDeleteItem)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", a.handleListSales)
			r.Post("/", a.handleCreateSale)
			r.Get("/{id}", a.handleGetSale)
			r.Delete("/{id}", a.handleDeleteSale)
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", a.handleListPurchases)
			r.Post("/", a.handleCreatePurchase)
			r.Get("/{id}", a.handleGetPurchase)
			r.Delete("/{id}", a.handleDeletePurchase)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", a.handleListPayroll)
			r.Post("/", a.handleCreatePayroll)
			r.Get("/{id}", a.handleGetPayroll)
			r.Put("/{id}", a.handleUpdatePayroll)
			r.Delete("/{id}", a.handleDeletePayroll)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/financial-summary", a.handleFinancialSummary)
			r.Get("/inventory-report", a.handleInventoryReport)
			r.Get("/sales-report", a.handleSalesReport)
			r.Get("/dashboard-stats", a.handleDashboardStats)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", a.handleListUsers)
			r.Post("/", a.handleCreateUser)
			r.Get("/{id}", a.handleGetUser)
			r.Put("/{id}/activate", a.handleActivateUser)
			r.Put("/{id}/deactivate", a.handleDeactivateUser)
		})
	})

	return r
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(startedAt).String(),
		}).Info("request")
	})
}

// requireUser resolves the bearer token to a live user and attaches the
// actor to the request context.
func (a *API) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		user, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		actor := domain.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}
		next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), actor)))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if !a.decodeValid(w, r, &req) {
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := service.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
		return
	}
	user, err := a.service.GetUser(r.Context(), actor.UserID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.ListItems(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req domain.InventoryItemRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	item, err := a.service.CreateItem(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := a.service.GetItem(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.InventoryItemRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	item, err := a.service.UpdateItem(r.Context(), id, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.service.DeleteItem(r.Context(), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "inventory item deleted"})
}

func (a *API) handleLowStockItems(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.LowStockItems(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := a.service.ListSales(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (a *API) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleCreateRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	sale, err := a.service.CreateSale(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sale, err := a.service.GetSale(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (a *API) handleDeleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.service.DeleteSale(r.Context(), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "sale deleted and stock restored"})
}

func (a *API) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := a.service.ListPurchases(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}

func (a *API) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req domain.PurchaseCreateRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	purchase, err := a.service.CreatePurchase(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}

func (a *API) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	purchase, err := a.service.GetPurchase(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

func (a *API) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.service.DeletePurchase(r.Context(), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "purchase deleted and stock adjusted"})
}

func (a *API) handleListPayroll(w http.ResponseWriter, r *http.Request) {
	entries, err := a.service.ListPayrollEntries(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) handleCreatePayroll(w http.ResponseWriter, r *http.Request) {
	var req domain.PayrollEntryRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	entry, err := a.service.CreatePayrollEntry(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *API) handleGetPayroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entry, err := a.service.GetPayrollEntry(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) handleUpdatePayroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.PayrollEntryRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	entry, err := a.service.UpdatePayrollEntry(r.Context(), id, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) handleDeletePayroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.service.DeletePayrollEntry(r.Context(), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "payroll entry deleted"})
}

func (a *API) handleFinancialSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.FinancialSummary(r.Context(), r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleInventoryReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.service.InventoryReport(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.service.SalesReport(r.Context(), r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.service.DashboardStats(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.service.ListUsers(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserCreateRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	user, err := a.service.CreateUser(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := a.service.GetUser(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleActivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := a.service.ActivateUser(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := a.service.DeactivateUser(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// decodeValid decodes the JSON body into dest and runs struct validation.
// Malformed JSON is a 400; tag validation failures are a 422 with per-field
// detail. A false return means the response has been written.
func (a *API) decodeValid(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decodeJSON(r, dest); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := validate.Struct(dest); err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
			return false
		}
		writeError(w, http.StatusUnprocessableEntity, err)
		return false
	}
	return true
}

func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrManagerOnly):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, store.ErrInsufficientStock):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, errors.New("invalid id"))
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx details stay in the log; the response carries a generic message.
	msg := err.Error()
	if status >= 500 {
		logrus.WithError(err).Error("internal error")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
