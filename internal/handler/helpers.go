// internal/handler/helpers.go
package handler

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/middleware"
	"budget-tracker/internal/storage"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	val "budget-tracker/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// currentUserID достаёт user_id, положенный RequireAuth
func currentUserID(c *gin.Context) (int64, bool) {
	userIDVal, ok := c.Get(middleware.UserIDKey)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user_id missing"})
		return 0, false
	}
	userID, ok := userIDVal.(int64)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "invalid user_id"})
		return 0, false
	}
	return userID, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s must be a positive integer", name)})
		return 0, false
	}
	return id, true
}

// bindJSON decodes and validates the request body, answering 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		slog.Debug("bad JSON body", "error", err, "path", c.FullPath())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON: " + err.Error()})
		return false
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

type PageQuery struct {
	Skip  int  `form:"skip" validate:"min=0"`
	Limit *int `form:"limit" validate:"omitnil,min=1,max=1000"`
}

func (q PageQuery) page() domain.Page {
	p := domain.Page{Skip: q.Skip}
	if q.Limit != nil {
		p.Limit = *q.Limit
	}
	return p.Normalize()
}

func bindPage(c *gin.Context) (domain.Page, bool) {
	var q PageQuery
	if !bindQuery(c, &q) {
		return domain.Page{}, false
	}
	return q.page(), true
}

func bindQuery(c *gin.Context, q any) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return false
	}
	if err := validateStruct(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// writeStoreError maps storage errors onto HTTP statuses.
func writeStoreError(c *gin.Context, err error, entity string) {
	var refErr *storage.ReferenceError
	switch {
	case errors.As(err, &refErr):
		c.JSON(http.StatusNotFound, gin.H{"error": capitalize(refErr.Error())})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": capitalize(entity) + " not found"})
	case errors.Is(err, storage.ErrInvalidReference):
		c.JSON(http.StatusNotFound, gin.H{"error": "Referenced row not found"})
	case errors.Is(err, storage.ErrAlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": capitalize(entity) + " already exists"})
	case errors.Is(err, storage.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Value out of range"})
	case errors.Is(err, storage.ErrInUse):
		c.JSON(http.StatusConflict, gin.H{"error": capitalize(entity) + " is still in use"})
	default:
		slog.Error("storage call failed", "error", err, "entity", entity, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// checkMoney answers 400 when a money field does not fit NUMERIC(12,2).
func checkMoney(c *gin.Context, field string, d *decimal.Decimal) bool {
	if d == nil || domain.ValidMoney(*d) {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid input: %s must be less than %s in absolute value", field, domain.MaxMoney)})
	return false
}

func deleted(c *gin.Context, entity string) {
	c.JSON(http.StatusOK, gin.H{"message": capitalize(entity) + " deleted", "success": true})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func validateStruct(v any) error {
	if err := val.Validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid input: %w", err)
		}
		var errs []string
		for _, e := range verrs {
			errs = append(errs, fieldErrorToString(e))
		}
		return fmt.Errorf("invalid input: %s", strings.Join(errs, "; "))
	}
	return nil
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "yearmonth":
		return fmt.Sprintf("%s must be in YYYY-MM format", e.Field())
	case "datetime":
		return fmt.Sprintf("%s must be in YYYY-MM-DD format", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.Field())
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
