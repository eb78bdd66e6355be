// internal/handler/subcategory.go
package handler

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type SubCategoryHandler struct {
	subCategories storage.SubCategoryStorage
	operations    storage.OperationStorage
}

func NewSubCategoryHandler(subCategories storage.SubCategoryStorage, operations storage.OperationStorage) *SubCategoryHandler {
	return &SubCategoryHandler{subCategories: subCategories, operations: operations}
}

func (h *SubCategoryHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	subs, err := h.subCategories.ListSubCategories(c.Request.Context(), userID, page)
	if err != nil {
		writeStoreError(c, err, "sub-category")
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *SubCategoryHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sc, err := h.subCategories.GetSubCategory(c.Request.Context(), userID, id)
	if err != nil {
		writeStoreError(c, err, "sub-category")
		return
	}
	c.JSON(http.StatusOK, sc)
}

// GetByName finds a sub-category of the caller's categories by name.
func (h *SubCategoryHandler) GetByName(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	sc, err := h.subCategories.GetSubCategoryByName(c.Request.Context(), userID, name)
	if err != nil {
		writeStoreError(c, err, "sub-category")
		return
	}
	c.JSON(http.StatusOK, sc)
}

// Create godoc
// @Summary Create a sub-category under one of the caller's categories
// @Param request body SubCategoryRequest true "Sub-category"
// @Success 201 {object} domain.SubCategory
// @Failure 404 {object} map[string]string "parent category not found"
// @Router /api/sub-categories [post]
func (h *SubCategoryHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SubCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	sc, err := h.subCategories.CreateSubCategory(c.Request.Context(), userID, domain.SubCategory{
		Name:       req.Name,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeStoreError(c, err, "sub-category")
		return
	}
	c.JSON(http.StatusCreated, sc)
}

func (h *SubCategoryHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SubCategoryUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	sc, err := h.subCategories.UpdateSubCategory(c.Request.Context(), userID, id, domain.SubCategoryUpdate{
		Name:       req.Name,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeStoreError(c, err, "sub-category")
		return
	}
	c.JSON(http.StatusOK, sc)
}

// Delete detaches the sub-category from its operations and removes it.
func (h *SubCategoryHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.subCategories.DeleteSubCategory(c.Request.Context(), userID, id); err != nil {
		writeStoreError(c, err, "sub-category")
		return
	}
	deleted(c, "sub-category")
}

func (h *SubCategoryHandler) Operations(c *gin.Context) {
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

	if _, err := h.subCategories.GetSubCategory(c.Request.Context(), userID, id); err != nil {
		writeStoreError(c, err, "sub-category")
		return
	}
	ops, err := h.operations.ListOperations(c.Request.Context(), userID, domain.OperationFilter{SubCategoryID: &id, Page: page})
	if err != nil {
		writeStoreError(c, err, "operation")
		return
	}
	c.JSON(http.StatusOK, ops)
}

// === DTO ===

type SubCategoryRequest struct {
	Name       string `json:"name" validate:"required,notblank,max=50"`
	CategoryID int64  `json:"category_id" validate:"required,min=1"`
}

type SubCategoryUpdateRequest struct {
	Name       *string `json:"name" validate:"omitnil,notblank,max=50"`
	CategoryID *int64  `json:"category_id" validate:"omitnil,min=1"`
}
