// internal/handler/account.go
package handler

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AccountHandler struct {
	accounts   storage.AccountStorage
	operations storage.OperationStorage
}

func NewAccountHandler(accounts storage.AccountStorage, operations storage.OperationStorage) *AccountHandler {
	return &AccountHandler{accounts: accounts, operations: operations}
}

// List godoc
// @Summary List accounts of the current user
// @Param skip query int false "Rows to skip"
// @Param limit query int false "Page size (max 1000)"
// @Success 200 {array} domain.Account
// @Router /api/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	accounts, err := h.accounts.ListAccounts(c.Request.Context(), userID, page)
	if err != nil {
		writeStoreError(c, err, "account")
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// Get godoc
// @Summary Get an account
// @Success 200 {object} domain.Account
// @Failure 404 {object} map[string]string
// @Router /api/accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(c.Request.Context(), userID, id)
	if err != nil {
		writeStoreError(c, err, "account")
		return
	}
	c.JSON(http.StatusOK, account)
}

// Create godoc
// @Summary Create an account
// @Param request body AccountCreateRequest true "Account"
// @Success 201 {object} domain.Account
// @Failure 400 {object} map[string]string
// @Router /api/accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req AccountCreateRequest
	if !bindJSON(c, &req) || !checkMoney(c, "balance", req.Balance) {
		return
	}

	account := domain.Account{Name: req.Name, Kind: req.Kind}
	if req.Balance != nil {
		account.Balance = *req.Balance
	}
	created, err := h.accounts.CreateAccount(c.Request.Context(), userID, account)
	if err != nil {
		writeStoreError(c, err, "account")
		return
	}

	slog.Info("account created", "user_id", userID, "account_id", created.ID)
	c.JSON(http.StatusCreated, created)
}

// Update applies a partial update; PUT and PATCH behave the same.
func (h *AccountHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AccountUpdateRequest
	if !bindJSON(c, &req) || !checkMoney(c, "balance", req.Balance) {
		return
	}

	updated, err := h.accounts.UpdateAccount(c.Request.Context(), userID, id, domain.AccountUpdate{
		Name:    req.Name,
		Balance: req.Balance,
		Kind:    req.Kind,
	})
	if err != nil {
		writeStoreError(c, err, "account")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *AccountHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(c.Request.Context(), userID, id); err != nil {
		writeStoreError(c, err, "account")
		return
	}
	slog.Info("account deleted", "user_id", userID, "account_id", id)
	deleted(c, "account")
}

// Operations lists the operations booked on one account.
func (h *AccountHandler) Operations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	if _, err := h.accounts.GetAccount(c.Request.Context(), userID, id); err != nil {
		writeStoreError(c, err, "account")
		return
	}
	ops, err := h.operations.ListOperations(c.Request.Context(), userID, domain.OperationFilter{AccountID: &id, Page: page})
	if err != nil {
		writeStoreError(c, err, "operation")
		return
	}
	c.JSON(http.StatusOK, ops)
}

// === DTO ===

type AccountCreateRequest struct {
	Name    string           `json:"name" validate:"required,notblank,max=100"`
	Balance *decimal.Decimal `json:"balance"`
	Kind    string           `json:"kind" validate:"max=50"`
}

type AccountUpdateRequest struct {
	Name    *string          `json:"name" validate:"omitnil,notblank,max=100"`
	Balance *decimal.Decimal `json:"balance"`
	Kind    *string          `json:"kind" validate:"omitnil,max=50"`
}
