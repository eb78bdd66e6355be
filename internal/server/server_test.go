package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"budget-tracker/internal/auth"
	"budget-tracker/internal/config"
	"budget-tracker/internal/domain"
	"budget-tracker/internal/middleware"
	"budget-tracker/internal/storage/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	return config.Config{
		Env:          config.EnvLocal,
		ServerPort:   "0",
		JWTSecret:    "test-secret",
		JWTIssuer:    "budget-test",
		JWTExpiresIn: time.Hour,
		CORSOrigins:  []string{"*"},
	}
}

type APISuite struct {
	suite.Suite
	store  *memory.Storage
	router *gin.Engine
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	cfg := testConfig()
	s.store = memory.New()
	svc := auth.NewService(s.store, auth.NewTokenService(cfg))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = NewRouter(cfg, s.store, svc, nil, log)
}

func (s *APISuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APISuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// login registers email and returns a bearer token.
func (s *APISuite) login(email string) string {
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "correct-horse"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "correct-horse"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	s.decode(w, &resp)
	s.Equal("bearer", resp.TokenType)
	s.Equal(int64(3600), resp.ExpiresIn)
	s.Require().NotEmpty(resp.AccessToken)
	return resp.AccessToken
}

func (s *APISuite) create(token, path string, body any) int64 {
	w := s.do(http.MethodPost, path, token, body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		ID int64 `json:"id"`
	}
	s.decode(w, &out)
	s.Require().NotZero(out.ID)
	return out.ID
}

func (s *APISuite) typeID(token, name string) int64 {
	w := s.do(http.MethodGet, "/api/types/name/"+name, token, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var t domain.Type
	s.decode(w, &t)
	return t.ID
}

func (s *APISuite) TestRootAndHealth() {
	w := s.do(http.MethodGet, "/", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "budget-tracker")

	w = s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "healthy")
	s.NotEmpty(w.Header().Get(middleware.RequestIDHeader))
}

type downStore struct {
	*memory.Storage
}

func (downStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

func (s *APISuite) TestHealthUnhealthy() {
	cfg := testConfig()
	store := downStore{memory.New()}
	router := NewRouter(cfg, store, auth.NewService(store, auth.NewTokenService(cfg)), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Contains(w.Body.String(), "unhealthy")
}

func (s *APISuite) TestRegisterAndLogin() {
	token := s.login("ann@example.com")

	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "ANN@example.com", "password": "another-pass"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "Email already registered")

	w = s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "not-an-email", "password": "short"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ann@example.com", "password": "wrong-password"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@example.com", "password": "whatever1"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/auth/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var me domain.User
	s.decode(w, &me)
	s.Equal("ann@example.com", me.Email)
	s.NotNil(me.LastLogin)
	s.NotContains(w.Body.String(), "argon2")

	w = s.do(http.MethodPost, "/api/auth/refresh", token, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "access_token")
}

func (s *APISuite) TestUnauthorized() {
	for _, path := range []string{"/api/accounts", "/api/operations", "/api/transactions", "/api/stats"} {
		w := s.do(http.MethodGet, path, "", nil)
		s.Equal(http.StatusUnauthorized, w.Code, path)
	}
	w := s.do(http.MethodGet, "/api/accounts", "garbage", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APISuite) TestInactiveUser() {
	token := s.login("idle@example.com")
	u, err := s.store.GetUserByEmail(context.Background(), "idle@example.com")
	s.Require().NoError(err)
	inactive := false
	_, err = s.store.UpdateUser(context.Background(), u.ID, domain.UserUpdate{Active: &inactive})
	s.Require().NoError(err)

	w := s.do(http.MethodGet, "/api/accounts", token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "idle@example.com", "password": "correct-horse"})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *APISuite) TestProfileAndPassword() {
	token := s.login("bob@example.com")
	s.login("taken@example.com")

	w := s.do(http.MethodPatch, "/api/auth/me", token, gin.H{"display_name": "Bob"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), `"display_name":"Bob"`)

	w = s.do(http.MethodPatch, "/api/auth/me", token, gin.H{"email": "taken@example.com"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/change-password", token, gin.H{"current_password": "nope-nope", "new_password": "brand-new-pass"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/change-password", token, gin.H{"current_password": "correct-horse", "new_password": "brand-new-pass"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "bob@example.com", "password": "brand-new-pass"})
	s.Equal(http.StatusOK, w.Code)
}

func (s *APISuite) TestAccountCRUD() {
	token := s.login("acc@example.com")

	id := s.create(token, "/api/accounts", gin.H{"name": "Wallet", "balance": "12.50", "kind": "cash"})
	path := fmt.Sprintf("/api/accounts/%d", id)

	w := s.do(http.MethodGet, path, token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var acc domain.Account
	s.decode(w, &acc)
	s.Equal("Wallet", acc.Name)
	s.Equal("12.5", acc.Balance.String())

	w = s.do(http.MethodPut, path, token, gin.H{"name": "Pocket"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &acc)
	s.Equal("Pocket", acc.Name)
	s.Equal("cash", acc.Kind)
	s.Equal("12.5", acc.Balance.String())

	w = s.do(http.MethodPost, "/api/accounts", token, gin.H{"name": "   "})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, path, token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"message":"Account deleted","success":true}`, w.Body.String())

	w = s.do(http.MethodGet, path, token, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"error":"Account not found"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/accounts/abc", token, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APISuite) TestMoneyOutOfRange() {
	token := s.login("big@example.com")
	expense := s.typeID(token, "expense")

	w := s.do(http.MethodPost, "/api/accounts", token, json.RawMessage(`{"name":"Vault","balance":123456789012345.678}`))
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
	s.Contains(w.Body.String(), "balance must be less than")

	accID := s.create(token, "/api/accounts", gin.H{"name": "Card", "balance": "9999999999.99"})
	w = s.do(http.MethodPatch, fmt.Sprintf("/api/accounts/%d", accID), token, gin.H{"balance": "-10000000000"})
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())

	op := gin.H{"date": "2024-03-05", "amount": "99999999999999999999", "account_id": accID, "type_id": expense}
	w = s.do(http.MethodPost, "/api/operations", token, op)
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
	s.Contains(w.Body.String(), "amount must be less than")

	op["amount"] = "1.50"
	opID := s.create(token, "/api/operations", op)
	w = s.do(http.MethodPut, fmt.Sprintf("/api/transactions/%d", opID), token, gin.H{"amount": "1e12"})
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
}

func (s *APISuite) TestOperationsFlow() {
	token := s.login("ops@example.com")
	accID := s.create(token, "/api/accounts", gin.H{"name": "Card"})
	expense := s.typeID(token, "expense")

	catID := s.create(token, "/api/categories", gin.H{"name": "Pets"})
	subID := s.create(token, "/api/sub-categories", gin.H{"name": "Vet", "category_id": catID})

	opID := s.create(token, "/api/operations", gin.H{
		"date": "2024-03-05", "description": "Vet visit", "amount": "45.10",
		"account_id": accID, "type_id": expense, "sub_category_id": subID,
	})
	s.create(token, "/api/transactions", gin.H{
		"date": "2024-03-07", "description": "Coffee", "amount": 3.2,
		"account_id": accID, "type_id": expense,
	})

	w := s.do(http.MethodGet, "/api/transactions?search=vet", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var ops []domain.Operation
	s.decode(w, &ops)
	s.Require().Len(ops, 1)
	s.Equal(opID, ops[0].ID)
	s.Equal("2024-03-05", ops[0].Date.String())

	w = s.do(http.MethodGet, "/api/operations", token, nil)
	s.decode(w, &ops)
	s.Require().Len(ops, 2)
	s.Equal("Coffee", ops[0].Description, "newest first")

	w = s.do(http.MethodGet, fmt.Sprintf("/api/sub-categories/%d/operations", subID), token, nil)
	s.decode(w, &ops)
	s.Len(ops, 1)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/accounts/%d/operations", accID), token, nil)
	s.decode(w, &ops)
	s.Len(ops, 2)

	w = s.do(http.MethodGet, "/api/operations?from=2024-03-06&to=2024-03-31", token, nil)
	s.decode(w, &ops)
	s.Len(ops, 1)

	// null отвязывает подкатегорию, отсутствие поля оставляет как есть
	path := fmt.Sprintf("/api/operations/%d", opID)
	w = s.do(http.MethodPatch, path, token, gin.H{"description": "Vet checkup"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var op domain.Operation
	s.decode(w, &op)
	s.Require().NotNil(op.SubCategoryID)
	s.Equal(subID, *op.SubCategoryID)

	w = s.do(http.MethodPatch, path, token, gin.H{"sub_category_id": nil})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &op)
	s.Nil(op.SubCategoryID)
	s.Equal("Vet checkup", op.Description)
	s.Equal("45.1", op.Amount.String())

	w = s.do(http.MethodPost, "/api/operations", token, gin.H{
		"date": "2024-03-05", "amount": "1", "account_id": 999999, "type_id": expense,
	})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/operations", token, gin.H{"date": "05.03.2024", "amount": "1", "account_id": accID, "type_id": expense})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/types/%d", expense), token, nil)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodDelete, path, token, nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, path, token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APISuite) TestCategoriesAndTypes() {
	token := s.login("cat@example.com")

	w := s.do(http.MethodPost, "/api/categories", token, gin.H{"name": "Food"})
	s.Equal(http.StatusBadRequest, w.Code, "seeded category is a duplicate")

	w = s.do(http.MethodGet, "/api/categories?with=sub_categories", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var cats []domain.CategoryWithSubCategories
	s.decode(w, &cats)
	s.NotEmpty(cats)
	var food domain.CategoryWithSubCategories
	for _, c := range cats {
		if c.Name == "Food" {
			food = c
		}
	}
	s.Require().NotZero(food.ID)
	s.Len(food.SubCategories, 2)

	w = s.do(http.MethodGet, "/api/categories/name/Food", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), fmt.Sprintf(`"id":%d`, food.ID))

	w = s.do(http.MethodGet, fmt.Sprintf("/api/categories/%d/sub-categories", food.ID), token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var subs []domain.SubCategory
	s.decode(w, &subs)
	s.Len(subs, 2)

	w = s.do(http.MethodGet, "/api/categories/999999/sub-categories", token, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/sub-categories", token, gin.H{"name": "Orphan", "category_id": 999999})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", food.ID), token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/sub-categories/%d", subs[0].ID), token, nil)
	s.Equal(http.StatusNotFound, w.Code)

	id := s.create(token, "/api/types", gin.H{"name": "refund"})
	w = s.do(http.MethodPatch, fmt.Sprintf("/api/types/%d", id), token, gin.H{"name": "return"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(id, s.typeID(token, "return"))

	w = s.do(http.MethodGet, "/api/types/name/nothing", token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APISuite) TestSubCategoryByName() {
	alice := s.login("subs-alice@example.com")
	bob := s.login("subs-bob@example.com")

	w := s.do(http.MethodGet, "/api/sub-categories/name/Groceries", alice, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var mine domain.SubCategory
	s.decode(w, &mine)
	s.Equal("Groceries", mine.Name)

	w = s.do(http.MethodGet, "/api/sub-categories/name/Groceries", bob, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var theirs domain.SubCategory
	s.decode(w, &theirs)
	s.NotEqual(mine.ID, theirs.ID)
	s.NotEqual(mine.CategoryID, theirs.CategoryID)

	catID := s.create(bob, "/api/categories", gin.H{"name": "Hobby"})
	s.create(bob, "/api/sub-categories", gin.H{"name": "Kites", "category_id": catID})
	w = s.do(http.MethodGet, "/api/sub-categories/name/Kites", alice, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"error":"Sub-category not found"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/sub-categories/name/%20", alice, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APISuite) TestUsersAreIsolated() {
	alice := s.login("alice@example.com")
	mallory := s.login("mallory@example.com")

	accID := s.create(alice, "/api/accounts", gin.H{"name": "Savings", "balance": "1000"})
	path := fmt.Sprintf("/api/accounts/%d", accID)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, path, mallory, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPatch, path, mallory, gin.H{"name": "Mine"}).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, path, mallory, nil).Code)

	w := s.do(http.MethodPost, "/api/operations", mallory, gin.H{
		"date": "2024-01-01", "amount": "5", "account_id": accID, "type_id": s.typeID(mallory, "expense"),
	})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/accounts", mallory, nil)
	s.JSONEq(`[]`, w.Body.String())

	w = s.do(http.MethodGet, path, alice, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APISuite) TestPagination() {
	token := s.login("page@example.com")
	for i := 0; i < 5; i++ {
		s.create(token, "/api/accounts", gin.H{"name": fmt.Sprintf("acc-%d", i)})
	}

	w := s.do(http.MethodGet, "/api/accounts?skip=1&limit=2", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var accs []domain.Account
	s.decode(w, &accs)
	s.Require().Len(accs, 2)
	s.Equal("acc-1", accs[0].Name)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/accounts?limit=1001", token, nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/accounts?skip=-1", token, nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/accounts?limit=abc", token, nil).Code)
}

func (s *APISuite) TestStats() {
	token := s.login("stats@example.com")
	accID := s.create(token, "/api/accounts", gin.H{"name": "Main", "balance": "250.75"})
	income := s.typeID(token, "income")
	s.create(token, "/api/operations", gin.H{"date": "2024-05-02", "amount": "100", "account_id": accID, "type_id": income})

	w := s.do(http.MethodGet, "/api/stats", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var st domain.Stats
	s.decode(w, &st)
	s.Equal(int64(1), st.TotalOperations)
	s.Equal(int64(1), st.TotalAccounts)
	s.Equal(int64(3), st.TotalTypes)
	s.Equal("250.75", st.TotalBalance.String())

	w = s.do(http.MethodGet, "/api/stats/monthly?month=2024-05", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var sum domain.MonthlySummary
	s.decode(w, &sum)
	s.Require().Len(sum.ByType, 1)
	s.Equal("income", sum.ByType[0].Name)
	s.Require().Len(sum.ByCategory, 1)
	s.Equal(domain.UncategorizedName, sum.ByCategory[0].Name)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/stats/monthly?month=2024-13", token, nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/stats/monthly", token, nil).Code)
}

func TestLoginRateLimited(t *testing.T) {
	cfg := testConfig()
	store := memory.New()
	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	router := NewRouter(cfg, store, auth.NewService(store, auth.NewTokenService(cfg)), limiter, slog.New(slog.NewTextHandler(io.Discard, nil)))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"x@example.com","password":"whatever1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusUnauthorized || codes[1] != http.StatusUnauthorized || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	cfg := testConfig()
	store := memory.New()
	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	router := NewRouter(cfg, store, auth.NewService(store, auth.NewTokenService(cfg)), limiter, slog.New(slog.NewTextHandler(io.Discard, nil)))

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"x@example.com","password":"whatever1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[2] != http.StatusTooManyRequests || codes[5] != http.StatusTooManyRequests {
		t.Fatalf("X-Forwarded-For bypassed the limiter: %v", codes)
	}
}

func TestTrustedProxyForwardedFor(t *testing.T) {
	cfg := testConfig()
	cfg.TrustedProxies = []string{"192.0.2.0/24"}
	store := memory.New()
	limiter := middleware.NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	router := NewRouter(cfg, store, auth.NewService(store, auth.NewTokenService(cfg)), limiter, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// RemoteAddr httptest (192.0.2.1) доверенный, поэтому клиенты различаются по XFF
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"x@example.com","password":"whatever1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("client %d: status %d", i, w.Code)
		}
	}
}
