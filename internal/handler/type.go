// internal/handler/type.go
package handler

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type TypeHandler struct {
	store storage.TypeStorage
}

func NewTypeHandler(store storage.TypeStorage) *TypeHandler {
	return &TypeHandler{store: store}
}

func (h *TypeHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	types, err := h.store.ListTypes(c.Request.Context(), userID, page)
	if err != nil {
		writeStoreError(c, err, "type")
		return
	}
	c.JSON(http.StatusOK, types)
}

func (h *TypeHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	t, err := h.store.GetType(c.Request.Context(), userID, id)
	if err != nil {
		writeStoreError(c, err, "type")
		return
	}
	c.JSON(http.StatusOK, t)
}

// GetByName looks a type up by its exact name, e.g. /api/types/name/expense.
func (h *TypeHandler) GetByName(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	t, err := h.store.GetTypeByName(c.Request.Context(), userID, name)
	if err != nil {
		writeStoreError(c, err, "type")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TypeHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req TypeRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.store.CreateType(c.Request.Context(), userID, req.Name)
	if err != nil {
		writeStoreError(c, err, "type")
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TypeHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TypeUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.store.UpdateType(c.Request.Context(), userID, id, domain.TypeUpdate{Name: req.Name})
	if err != nil {
		writeStoreError(c, err, "type")
		return
	}
	c.JSON(http.StatusOK, t)
}

// Delete fails with 409 while operations still use the type.
func (h *TypeHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteType(c.Request.Context(), userID, id); err != nil {
		writeStoreError(c, err, "type")
		return
	}
	deleted(c, "type")
}

// === DTO ===

type TypeRequest struct {
	Name string `json:"name" validate:"required,notblank,max=50"`
}

type TypeUpdateRequest struct {
	Name *string `json:"name" validate:"omitnil,notblank,max=50"`
}
