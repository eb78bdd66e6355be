package bot

import (
	"context"
	"strconv"
	"testing"
	"time"

	"budget-tracker/internal/auth"
	"budget-tracker/internal/config"
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chat = int64(4242)

func newBot(t *testing.T) (*Bot, *memory.Storage, domain.User) {
	t.Helper()
	store := memory.New()
	svc := auth.NewService(store, auth.NewTokenService(config.Config{
		JWTSecret:    "bot-secret",
		JWTIssuer:    "budget-test",
		JWTExpiresIn: time.Hour,
	}))
	u, err := svc.Register(context.Background(), "kate@example.com", "kate-password", nil)
	require.NoError(t, err)

	b := New(svc, store)
	b.now = func() time.Time { return time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC) }
	return b, store, u
}

func TestHandleRequiresLogin(t *testing.T) {
	b, _, _ := newBot(t)
	ctx := context.Background()

	assert.Contains(t, b.Handle(ctx, chat, "/help"), "/login")
	assert.Contains(t, b.Handle(ctx, chat, "/accounts"), "/login")
	assert.Contains(t, b.Handle(ctx, chat, "/login kate@example.com nope"), "Неверный")
	assert.Contains(t, b.Handle(ctx, chat, "/login onlyemail"), "Используй")

	assert.Contains(t, b.Handle(ctx, chat, "/login kate@example.com kate-password"), "kate@example.com")
	assert.Contains(t, b.Handle(ctx, chat, "/accounts"), "Счетов пока нет")
	assert.Contains(t, b.Handle(ctx, chat+1, "/accounts"), "/login", "other chats stay logged out")

	b.Handle(ctx, chat, "/logout")
	assert.Contains(t, b.Handle(ctx, chat, "/stats"), "/login")
	assert.Contains(t, b.Handle(ctx, chat, "/whatever"), "/login")
}

func TestHandleDropsDeactivatedUser(t *testing.T) {
	b, store, u := newBot(t)
	ctx := context.Background()
	b.Handle(ctx, chat, "/login kate@example.com kate-password")

	off := false
	_, err := store.UpdateUser(ctx, u.ID, domain.UserUpdate{Active: &off})
	require.NoError(t, err)

	assert.Contains(t, b.Handle(ctx, chat, "/stats"), "недействительна")
	assert.Contains(t, b.Handle(ctx, chat, "/login kate@example.com kate-password"), "отключён")
}

func TestAddSearchAndMonth(t *testing.T) {
	b, store, u := newBot(t)
	ctx := context.Background()
	acc, err := store.CreateAccount(ctx, u.ID, domain.Account{Name: "Cash_box", Balance: decimal.NewFromInt(50)})
	require.NoError(t, err)

	b.Handle(ctx, chat, "/login kate@example.com kate-password")

	assert.Contains(t, b.Handle(ctx, chat, "/accounts"), `Cash\_box: 50.00`)

	reply := b.Handle(ctx, chat, "/add "+itoa(acc.ID)+" expense 12,5 morning coffee")
	assert.Contains(t, reply, "Сохранено")
	assert.Contains(t, reply, "expense 12.50")

	assert.Contains(t, b.Handle(ctx, chat, "/add "+itoa(acc.ID)+" gift 3 x"), "Нет типа")
	assert.Contains(t, b.Handle(ctx, chat, "/add "+itoa(acc.ID)+" expense abc"), "Неверная сумма")
	assert.Contains(t, b.Handle(ctx, chat, "/add "+itoa(acc.ID)+" expense 99999999999999999999"), "слишком большая сумма")
	assert.Contains(t, b.Handle(ctx, chat, "/add 999 expense 1 x"), "not found")
	assert.Contains(t, b.Handle(ctx, chat, "/add 1"), "Используй")

	ops, err := store.ListOperations(ctx, u.ID, domain.OperationFilter{})
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "2024-05-17", ops[0].Date.String())
	assert.Equal(t, "morning coffee", ops[0].Description)

	reply = b.Handle(ctx, chat, "/search COFFEE")
	assert.Contains(t, reply, "2024-05-17")
	assert.Contains(t, reply, "morning coffee")
	assert.Contains(t, b.Handle(ctx, chat, "/search tea"), "Ничего не найдено")

	reply = b.Handle(ctx, chat, "/month")
	assert.Contains(t, reply, "2024-05")
	assert.Contains(t, reply, "expense: 12.50 (1)")
	assert.Contains(t, reply, domain.UncategorizedName)

	assert.Contains(t, b.Handle(ctx, chat, "/month 2024-04"), "Нет операций")
	assert.Contains(t, b.Handle(ctx, chat, "/month May"), "ГГГГ-ММ")

	reply = b.Handle(ctx, chat, "/stats@budget_bot")
	assert.Contains(t, reply, "Операций: 1")
	assert.Contains(t, reply, "Типов: 3")
}

func TestFixEncoding(t *testing.T) {
	assert.Equal(t, "привет", FixEncoding("привет"))
	// "Привет" в windows-1251
	assert.Equal(t, "Привет", FixEncoding("\xcf\xf0\xe8\xe2\xe5\xf2"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
