package domain

import "time"

const (
	RoleStaff   = "staff"
	RoleManager = "manager"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`

	// PasswordHash is never serialized; it lives on the stored record only.
	PasswordHash string `json:"-"`
}

type InventoryItem struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	SKU             string    `json:"sku"`
	UnitPrice       float64   `json:"unit_price"`
	QuantityInStock int       `json:"quantity_in_stock"`
	ReorderLevel    int       `json:"reorder_level"`
	Category        string    `json:"category"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SaleItem is one line of a sale. The item name is snapshotted at sale time
// so later inventory renames or deletes do not rewrite history.
type SaleItem struct {
	ID                int64   `json:"id"`
	InventoryItemID   int64   `json:"inventory_item_id"`
	InventoryItemName string  `json:"inventory_item_name"`
	Quantity          int     `json:"quantity"`
	UnitPrice         float64 `json:"unit_price"`
}

type Sale struct {
	ID            int64      `json:"id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	Items         []SaleItem `json:"items"`
	TotalAmount   float64    `json:"total_amount"`
	CreatedBy     int64      `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	Notes         string     `json:"notes,omitempty"`
}

type PurchaseItem struct {
	ID                int64   `json:"id"`
	InventoryItemID   int64   `json:"inventory_item_id"`
	InventoryItemName string  `json:"inventory_item_name"`
	Quantity          int     `json:"quantity"`
	UnitCost          float64 `json:"unit_cost"`
}

type Purchase struct {
	ID            int64          `json:"id"`
	SupplierName  string         `json:"supplier_name"`
	SupplierEmail string         `json:"supplier_email,omitempty"`
	Items         []PurchaseItem `json:"items"`
	TotalAmount   float64        `json:"total_amount"`
	CreatedBy     int64          `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	Notes         string         `json:"notes,omitempty"`
}

type PayrollEntry struct {
	ID             int64     `json:"id"`
	EmployeeName   string    `json:"employee_name"`
	EmployeeID     string    `json:"employee_id"`
	BaseSalary     float64   `json:"base_salary"`
	OvertimeHours  float64   `json:"overtime_hours"`
	OvertimeRate   float64   `json:"overtime_rate"`
	Bonus          float64   `json:"bonus"`
	Deductions     float64   `json:"deductions"`
	PayPeriodStart time.Time `json:"pay_period_start"`
	PayPeriodEnd   time.Time `json:"pay_period_end"`
	GrossPay       float64   `json:"gross_pay"`
	NetPay         float64   `json:"net_pay"`
	CreatedBy      int64     `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// Actor is the authenticated caller attached to a request context.
type Actor struct {
	UserID   int64
	Username string
	Role     string
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserCreateRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=staff manager"`
	Password string `json:"password" validate:"required,min=6"`
}

// InventoryItemRequest is shared by create (POST) and full replace (PUT).
type InventoryItemRequest struct {
	Name            string  `json:"name" validate:"required"`
	Description     string  `json:"description,omitempty"`
	SKU             string  `json:"sku" validate:"required"`
	UnitPrice       float64 `json:"unit_price" validate:"gt=0"`
	QuantityInStock int     `json:"quantity_in_stock" validate:"gte=0"`
	ReorderLevel    int     `json:"reorder_level" validate:"gte=0"`
	Category        string  `json:"category" validate:"required"`
}

type SaleLineRequest struct {
	InventoryItemID int64   `json:"inventory_item_id" validate:"required"`
	Quantity        int     `json:"quantity" validate:"gt=0"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
}

type SaleCreateRequest struct {
	CustomerName  string            `json:"customer_name" validate:"required"`
	CustomerEmail string            `json:"customer_email,omitempty" validate:"omitempty,email"`
	Items         []SaleLineRequest `json:"items" validate:"required,min=1,dive"`
	Notes         string            `json:"notes,omitempty"`
}

type PurchaseLineRequest struct {
	InventoryItemID int64   `json:"inventory_item_id" validate:"required"`
	Quantity        int     `json:"quantity" validate:"gt=0"`
	UnitCost        float64 `json:"unit_cost" validate:"gte=0"`
}

type PurchaseCreateRequest struct {
	SupplierName  string                `json:"supplier_name" validate:"required"`
	SupplierEmail string                `json:"supplier_email,omitempty" validate:"omitempty,email"`
	Items         []PurchaseLineRequest `json:"items" validate:"required,min=1,dive"`
	Notes         string                `json:"notes,omitempty"`
}

// PayrollEntryRequest is shared by create (POST) and full replace (PUT).
// Monetary figures are accepted as-is, negatives included; see DESIGN.md.
type PayrollEntryRequest struct {
	EmployeeName   string    `json:"employee_name" validate:"required"`
	EmployeeID     string    `json:"employee_id" validate:"required"`
	BaseSalary     float64   `json:"base_salary"`
	OvertimeHours  float64   `json:"overtime_hours"`
	OvertimeRate   float64   `json:"overtime_rate"`
	Bonus          float64   `json:"bonus"`
	Deductions     float64   `json:"deductions"`
	PayPeriodStart time.Time `json:"pay_period_start" validate:"required"`
	PayPeriodEnd   time.Time `json:"pay_period_end" validate:"required"`
}

type FinancialSummary struct {
	TotalRevenue  float64   `json:"total_revenue"`
	TotalExpenses float64   `json:"total_expenses"`
	NetIncome     float64   `json:"net_income"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
}

type InventoryReport struct {
	TotalItems    int             `json:"total_items"`
	TotalValue    float64         `json:"total_value"`
	LowStockItems []InventoryItem `json:"low_stock_items"`
}

type TopSellingItem struct {
	Item         string `json:"item"`
	QuantitySold int    `json:"quantity_sold"`
}

type SalesReport struct {
	TotalSales      int              `json:"total_sales"`
	TotalRevenue    float64          `json:"total_revenue"`
	PeriodStart     time.Time        `json:"period_start"`
	PeriodEnd       time.Time        `json:"period_end"`
	TopSellingItems []TopSellingItem `json:"top_selling_items"`
}

type DashboardStats struct {
	MonthlySales        int     `json:"monthly_sales"`
	MonthlyRevenue      float64 `json:"monthly_revenue"`
	MonthlyExpenses     float64 `json:"monthly_expenses"`
	MonthlyProfit       float64 `json:"monthly_profit"`
	TotalInventoryItems int     `json:"total_inventory_items"`
	TotalInventoryValue float64 `json:"total_inventory_value"`
	LowStockItems       int     `json:"low_stock_items"`
	TotalEmployees      int     `json:"total_employees"`
}
