// internal/handler/category.go
package handler

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categories    storage.CategoryStorage
	subCategories storage.SubCategoryStorage
}

func NewCategoryHandler(categories storage.CategoryStorage, subCategories storage.SubCategoryStorage) *CategoryHandler {
	return &CategoryHandler{categories: categories, subCategories: subCategories}
}

// List godoc
// @Summary List categories
// @Param with query string false "sub_categories to embed children"
// @Success 200 {array} domain.Category
// @Router /api/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var q CategoryListQuery
	if !bindQuery(c, &q) {
		return
	}

	if q.With == "sub_categories" {
		cats, err := h.categories.ListCategoriesWithSubCategories(c.Request.Context(), userID, q.page())
		if err != nil {
			writeStoreError(c, err, "category")
			return
		}
		c.JSON(http.StatusOK, cats)
		return
	}

	cats, err := h.categories.ListCategories(c.Request.Context(), userID, q.page())
	if err != nil {
		writeStoreError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	cat, err := h.categories.GetCategory(c.Request.Context(), userID, id)
	if err != nil {
		writeStoreError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) GetByName(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	cat, err := h.categories.GetCategoryByName(c.Request.Context(), userID, name)
	if err != nil {
		writeStoreError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	cat, err := h.categories.CreateCategory(c.Request.Context(), userID, req.Name)
	if err != nil {
		writeStoreError(c, err, "category")
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CategoryUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	cat, err := h.categories.UpdateCategory(c.Request.Context(), userID, id, domain.CategoryUpdate{Name: req.Name})
	if err != nil {
		writeStoreError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, cat)
}

// Delete removes the category together with its sub-categories.
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.categories.DeleteCategory(c.Request.Context(), userID, id); err != nil {
		writeStoreError(c, err, "category")
		return
	}
	deleted(c, "category")
}

func (h *CategoryHandler) SubCategories(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	subs, err := h.subCategories.ListSubCategoriesByCategory(c.Request.Context(), userID, id)
	if err != nil {
		writeStoreError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, subs)
}

// === DTO ===

type CategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=50"`
}

type CategoryUpdateRequest struct {
	Name *string `json:"name" validate:"omitnil,notblank,max=50"`
}

type CategoryListQuery struct {
	PageQuery
	With string `form:"with" validate:"omitempty,oneof=sub_categories"`
}
