package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"budget-tracker/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWriteStoreError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", fmt.Errorf("get account: %w", storage.ErrNotFound), http.StatusNotFound, `{"error":"Account not found"}`},
		{"reference", &storage.ReferenceError{Entity: "type", ID: 9}, http.StatusNotFound, `{"error":"Type 9 not found"}`},
		{"duplicate", storage.ErrAlreadyExists, http.StatusBadRequest, `{"error":"Account already exists"}`},
		{"out of range", fmt.Errorf("create account: %w", storage.ErrInvalidValue), http.StatusBadRequest, `{"error":"Value out of range"}`},
		{"in use", storage.ErrInUse, http.StatusConflict, `{"error":"Account is still in use"}`},
		{"other", errors.New("boom"), http.StatusInternalServerError, `{"error":"Internal error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeStoreError(c, tt.err, "account")
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestValidateStructMessages(t *testing.T) {
	err := validateStruct(&CategoryRequest{Name: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must not be blank")

	err = validateStruct(&SubCategoryRequest{Name: "Vet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category_id is required")

	limit := 5000
	err = validateStruct(&PageQuery{Limit: &limit})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit must be at most 1000")

	err = validateStruct(&MonthlyQuery{Month: "2024-5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM")

	assert.NoError(t, validateStruct(&PageQuery{}))
}

func TestPageQueryDefaults(t *testing.T) {
	p := PageQuery{}.page()
	assert.Equal(t, 0, p.Skip)
	assert.Equal(t, 100, p.Limit)

	limit := 7
	p = PageQuery{Skip: 3, Limit: &limit}.page()
	assert.Equal(t, 3, p.Skip)
	assert.Equal(t, 7, p.Limit)
}
