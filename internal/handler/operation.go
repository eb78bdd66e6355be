// internal/handler/operation.go
package handler

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OperationHandler struct {
	store storage.OperationStorage
}

func NewOperationHandler(store storage.OperationStorage) *OperationHandler {
	return &OperationHandler{store: store}
}

// List godoc
// @Summary List operations, newest first
// @Param search query string false "Case-insensitive description filter"
// @Param account_id query int false "Account"
// @Param sub_category_id query int false "Sub-category"
// @Param type_id query int false "Type"
// @Param from query string false "From date, YYYY-MM-DD"
// @Param to query string false "To date, YYYY-MM-DD"
// @Success 200 {array} domain.Operation
// @Router /api/operations [get]
func (h *OperationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var q OperationListQuery
	if !bindQuery(c, &q) {
		return
	}

	filter, err := q.filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ops, err := h.store.ListOperations(c.Request.Context(), userID, filter)
	if err != nil {
		writeStoreError(c, err, "operation")
		return
	}
	c.JSON(http.StatusOK, ops)
}

func (h *OperationHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	op, err := h.store.GetOperation(c.Request.Context(), userID, id)
	if err != nil {
		writeStoreError(c, err, "operation")
		return
	}
	c.JSON(http.StatusOK, op)
}

// Create godoc
// @Summary Record an operation
// @Param request body OperationCreateRequest true "Operation"
// @Success 201 {object} domain.Operation
// @Failure 404 {object} map[string]string "account, type or sub-category not found"
// @Router /api/operations [post]
func (h *OperationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req OperationCreateRequest
	if !bindJSON(c, &req) || !checkMoney(c, "amount", req.Amount) {
		return
	}

	created, err := h.store.CreateOperation(c.Request.Context(), userID, domain.Operation{
		Date:          *req.Date,
		Description:   req.Description,
		Amount:        *req.Amount,
		AccountID:     req.AccountID,
		TypeID:        req.TypeID,
		SubCategoryID: req.SubCategoryID,
	})
	if err != nil {
		writeStoreError(c, err, "operation")
		return
	}

	slog.Info("operation created", "user_id", userID, "operation_id", created.ID, "account_id", created.AccountID)
	c.JSON(http.StatusCreated, created)
}

func (h *OperationHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req OperationUpdateRequest
	if !bindJSON(c, &req) || !checkMoney(c, "amount", req.Amount) {
		return
	}
	if req.SubCategoryID.Value != nil && *req.SubCategoryID.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: sub_category_id must be at least 1"})
		return
	}

	updated, err := h.store.UpdateOperation(c.Request.Context(), userID, id, domain.OperationUpdate{
		Date:          req.Date,
		Description:   req.Description,
		Amount:        req.Amount,
		AccountID:     req.AccountID,
		TypeID:        req.TypeID,
		SubCategoryID: req.SubCategoryID,
	})
	if err != nil {
		writeStoreError(c, err, "operation")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *OperationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteOperation(c.Request.Context(), userID, id); err != nil {
		writeStoreError(c, err, "operation")
		return
	}
	deleted(c, "operation")
}

// === DTO ===

type OperationCreateRequest struct {
	Date          *domain.Date     `json:"date" validate:"required"`
	Description   string           `json:"description" validate:"max=255"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	AccountID     int64            `json:"account_id" validate:"required,min=1"`
	TypeID        int64            `json:"type_id" validate:"required,min=1"`
	SubCategoryID *int64           `json:"sub_category_id" validate:"omitnil,min=1"`
}

// OperationUpdateRequest: sub_category_id may be sent as null to detach
// the operation from its sub-category.
type OperationUpdateRequest struct {
	Date          *domain.Date      `json:"date"`
	Description   *string           `json:"description" validate:"omitnil,max=255"`
	Amount        *decimal.Decimal  `json:"amount"`
	AccountID     *int64            `json:"account_id" validate:"omitnil,min=1"`
	TypeID        *int64            `json:"type_id" validate:"omitnil,min=1"`
	SubCategoryID domain.OptionalID `json:"sub_category_id"`
}

type OperationListQuery struct {
	PageQuery
	Search        string `form:"search" validate:"max=255"`
	AccountID     *int64 `form:"account_id" validate:"omitnil,min=1"`
	SubCategoryID *int64 `form:"sub_category_id" validate:"omitnil,min=1"`
	TypeID        *int64 `form:"type_id" validate:"omitnil,min=1"`
	From          string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To            string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

func (q OperationListQuery) filter() (domain.OperationFilter, error) {
	f := domain.OperationFilter{
		Search:        q.Search,
		AccountID:     q.AccountID,
		SubCategoryID: q.SubCategoryID,
		TypeID:        q.TypeID,
		Page:          q.page(),
	}
	if q.From != "" {
		d, err := domain.ParseDate(q.From)
		if err != nil {
			return f, err
		}
		f.From = &d
	}
	if q.To != "" {
		d, err := domain.ParseDate(q.To)
		if err != nil {
			return f, err
		}
		f.To = &d
	}
	return f, nil
}
