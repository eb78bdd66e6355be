// internal/storage/storage.go
package storage

import (
	"budget-tracker/internal/domain"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInUse            = errors.New("still referenced")
	ErrInvalidReference = errors.New("referenced row not found")
	ErrInvalidValue     = errors.New("value out of range")
)

type UserStorage interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	// RegisterUser creates the user together with its defaults; nothing is
	// stored when any insert fails.
	RegisterUser(ctx context.Context, u domain.User, defaults domain.Defaults) (domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateUser(ctx context.Context, id int64, upd domain.UserUpdate) (domain.User, error)
	SetLastLogin(ctx context.Context, id int64, at time.Time) error
}

type AccountStorage interface {
	GetAccount(ctx context.Context, userID, id int64) (domain.Account, error)
	ListAccounts(ctx context.Context, userID int64, page domain.Page) ([]domain.Account, error)
	CreateAccount(ctx context.Context, userID int64, a domain.Account) (domain.Account, error)
	UpdateAccount(ctx context.Context, userID, id int64, upd domain.AccountUpdate) (domain.Account, error)
	DeleteAccount(ctx context.Context, userID, id int64) error
}

type OperationStorage interface {
	GetOperation(ctx context.Context, userID, id int64) (domain.Operation, error)
	ListOperations(ctx context.Context, userID int64, filter domain.OperationFilter) ([]domain.Operation, error)
	CreateOperation(ctx context.Context, userID int64, op domain.Operation) (domain.Operation, error)
	UpdateOperation(ctx context.Context, userID, id int64, upd domain.OperationUpdate) (domain.Operation, error)
	DeleteOperation(ctx context.Context, userID, id int64) error
}

type CategoryStorage interface {
	GetCategory(ctx context.Context, userID, id int64) (domain.Category, error)
	GetCategoryByName(ctx context.Context, userID int64, name string) (domain.Category, error)
	ListCategories(ctx context.Context, userID int64, page domain.Page) ([]domain.Category, error)
	ListCategoriesWithSubCategories(ctx context.Context, userID int64, page domain.Page) ([]domain.CategoryWithSubCategories, error)
	CreateCategory(ctx context.Context, userID int64, name string) (domain.Category, error)
	UpdateCategory(ctx context.Context, userID, id int64, upd domain.CategoryUpdate) (domain.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error
}

type SubCategoryStorage interface {
	GetSubCategory(ctx context.Context, userID, id int64) (domain.SubCategory, error)
	// GetSubCategoryByName returns the lowest-id match; names repeat across categories.
	GetSubCategoryByName(ctx context.Context, userID int64, name string) (domain.SubCategory, error)
	ListSubCategories(ctx context.Context, userID int64, page domain.Page) ([]domain.SubCategory, error)
	ListSubCategoriesByCategory(ctx context.Context, userID, categoryID int64) ([]domain.SubCategory, error)
	CreateSubCategory(ctx context.Context, userID int64, sc domain.SubCategory) (domain.SubCategory, error)
	UpdateSubCategory(ctx context.Context, userID, id int64, upd domain.SubCategoryUpdate) (domain.SubCategory, error)
	DeleteSubCategory(ctx context.Context, userID, id int64) error
}

type TypeStorage interface {
	GetType(ctx context.Context, userID, id int64) (domain.Type, error)
	GetTypeByName(ctx context.Context, userID int64, name string) (domain.Type, error)
	ListTypes(ctx context.Context, userID int64, page domain.Page) ([]domain.Type, error)
	CreateType(ctx context.Context, userID int64, name string) (domain.Type, error)
	UpdateType(ctx context.Context, userID, id int64, upd domain.TypeUpdate) (domain.Type, error)
	DeleteType(ctx context.Context, userID, id int64) error
}

type StatsStorage interface {
	Stats(ctx context.Context, userID int64) (domain.Stats, error)
	MonthlySummary(ctx context.Context, userID int64, month string) (domain.MonthlySummary, error)
}

// Storage is everything the API needs from a backend.
type Storage interface {
	UserStorage
	AccountStorage
	OperationStorage
	CategoryStorage
	SubCategoryStorage
	TypeStorage
	StatsStorage
	Ping(ctx context.Context) error
}

// ReferenceError reports a referenced row that is missing or belongs to
// another user.
type ReferenceError struct {
	Entity string
	ID     int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}

// NormalizeName приводит имя к NFC, заменяет пробельные символы обычным
// пробелом и схлопывает повторы.
func NormalizeName(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
