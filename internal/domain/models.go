// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	DisplayName  *string    `json:"display_name"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
	Active       bool       `json:"active"`
}

// UserUpdate carries the profile fields to change; nil means untouched.
type UserUpdate struct {
	Email        *string
	DisplayName  *string
	PasswordHash *string
	Active       *bool
}

// MaxMoney is the exclusive bound of the NUMERIC(12,2) money columns.
var MaxMoney = decimal.New(1, 10)

// ValidMoney reports whether d still fits a money column after rounding to cents.
func ValidMoney(d decimal.Decimal) bool {
	return d.Round(2).Abs().LessThan(MaxMoney)
}

// Defaults is the starter set of types and categories a new user gets.
type Defaults struct {
	Types      []string
	Categories []DefaultCategory
}

type DefaultCategory struct {
	Name          string
	SubCategories []string
}

type Account struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
	Kind    string          `json:"kind"`
	UserID  int64           `json:"-"`
}

type AccountUpdate struct {
	Name    *string
	Balance *decimal.Decimal
	Kind    *string
}

type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID int64  `json:"-"`
}

// CategoryWithSubCategories: категория вместе с подкатегориями
type CategoryWithSubCategories struct {
	Category
	SubCategories []SubCategory `json:"sub_categories"`
}

type CategoryUpdate struct {
	Name *string
}

type SubCategory struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"`
}

type SubCategoryUpdate struct {
	Name       *string
	CategoryID *int64
}

// Type is the kind of an operation: expense, income, transfer, ...
type Type struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID int64  `json:"-"`
}

type TypeUpdate struct {
	Name *string
}

// Operation is a single financial transaction on an account.
type Operation struct {
	ID            int64           `json:"id"`
	Date          Date            `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	AccountID     int64           `json:"account_id"`
	TypeID        int64           `json:"type_id"`
	SubCategoryID *int64          `json:"sub_category_id"`
}

type OperationUpdate struct {
	Date          *Date
	Description   *string
	Amount        *decimal.Decimal
	AccountID     *int64
	TypeID        *int64
	SubCategoryID OptionalID
}

// OperationFilter narrows an operations listing. Zero values mean "any".
type OperationFilter struct {
	Search        string
	AccountID     *int64
	SubCategoryID *int64
	TypeID        *int64
	From          *Date
	To            *Date
	Page          Page
}

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page is skip/limit pagination.
type Page struct {
	Skip  int
	Limit int
}

// Normalize applies the default and maximum limit.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Apply returns the page window of a slice of n elements as [from, to).
func (p Page) Apply(n int) (int, int) {
	p = p.Normalize()
	from := min(p.Skip, n)
	to := min(from+p.Limit, n)
	return from, to
}

type Stats struct {
	TotalOperations    int64           `json:"total_operations"`
	TotalAccounts      int64           `json:"total_accounts"`
	TotalCategories    int64           `json:"total_categories"`
	TotalSubCategories int64           `json:"total_sub_categories"`
	TotalTypes         int64           `json:"total_types"`
	TotalBalance       decimal.Decimal `json:"total_balance"`
}

type NamedTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// MonthlySummary aggregates the operations of one calendar month.
type MonthlySummary struct {
	Month      string       `json:"month"`
	ByType     []NamedTotal `json:"by_type"`
	ByCategory []NamedTotal `json:"by_category"`
}

// UncategorizedName labels operations without a sub-category in summaries.
const UncategorizedName = "Uncategorized"
