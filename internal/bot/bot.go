// internal/bot/bot.go
package bot

import (
	"budget-tracker/internal/auth"
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

const searchLimit = 10

// Store is what the bot reads and writes on behalf of a logged-in chat.
type Store interface {
	storage.UserStorage
	storage.AccountStorage
	storage.OperationStorage
	storage.TypeStorage
	storage.StatsStorage
}

// Bot turns chat commands into storage calls. Chats are bound to users by
// /login and the binding lives only in memory.
type Bot struct {
	auth  *auth.Service
	store Store
	now   func() time.Time

	mu       sync.RWMutex
	sessions map[int64]int64 // chat id -> user id
}

func New(authSvc *auth.Service, store Store) *Bot {
	return &Bot{
		auth:     authSvc,
		store:    store,
		now:      time.Now,
		sessions: make(map[int64]int64),
	}
}

const helpText = "💰 *Budget tracker*\n\n" +
	"Команды:\n" +
	"`/login email пароль` — войти\n" +
	"`/logout` — выйти\n" +
	"`/accounts` — счета и балансы\n" +
	"`/stats` — общая статистика\n" +
	"`/month 2024-05` — итоги месяца (по умолчанию текущий)\n" +
	"`/search текст` — найти операции по описанию\n" +
	"`/add 3 expense 12.50 кофе` — добавить операцию на счёт 3"

// Handle answers a single message from chatID.
func (b *Bot) Handle(ctx context.Context, chatID int64, text string) string {
	text = strings.TrimSpace(FixEncoding(text))
	cmd, args, _ := strings.Cut(text, " ")
	args = strings.TrimSpace(args)
	// "/cmd@botname" в группах
	cmd, _, _ = strings.Cut(cmd, "@")

	switch cmd {
	case "/start", "/help":
		return helpText
	case "/login":
		return b.login(ctx, chatID, args)
	case "/logout":
		b.mu.Lock()
		delete(b.sessions, chatID)
		b.mu.Unlock()
		return "👋 Вы вышли"
	}

	userID, err := b.session(ctx, chatID)
	if err != nil {
		return "🔒 " + err.Error()
	}

	var reply string
	switch cmd {
	case "/accounts":
		reply, err = b.accounts(ctx, userID)
	case "/stats":
		reply, err = b.stats(ctx, userID)
	case "/month":
		reply, err = b.month(ctx, userID, args)
	case "/search":
		reply, err = b.search(ctx, userID, args)
	case "/add":
		reply, err = b.add(ctx, userID, args)
	default:
		return "Неизвестная команда. Напиши /help"
	}
	if err != nil {
		slog.Debug("bot command failed", "chat_id", chatID, "command", cmd, "error", err)
		return "❌ Ошибка: " + userMessage(err)
	}
	return reply
}

func (b *Bot) login(ctx context.Context, chatID int64, args string) string {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "❌ Используй: /login email пароль"
	}
	session, err := b.auth.Login(ctx, fields[0], fields[1])
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "❌ Неверный email или пароль"
	case errors.Is(err, auth.ErrInactive):
		return "⛔ Аккаунт отключён"
	default:
		slog.Error("bot login failed", "chat_id", chatID, "error", err)
		return "❌ Ошибка: " + userMessage(err)
	}

	b.mu.Lock()
	b.sessions[chatID] = session.User.ID
	b.mu.Unlock()
	slog.Info("chat bound to user", "chat_id", chatID, "user_id", session.User.ID)
	return fmt.Sprintf("✅ Вы вошли как %s", escape(session.User.Email))
}

// session returns the user bound to chatID, dropping the binding when the
// user has been deactivated or removed.
func (b *Bot) session(ctx context.Context, chatID int64) (int64, error) {
	b.mu.RLock()
	userID, ok := b.sessions[chatID]
	b.mu.RUnlock()
	if !ok {
		return 0, errors.New("сначала войди: /login email пароль")
	}

	u, err := b.store.GetUser(ctx, userID)
	if err != nil || !u.Active {
		b.mu.Lock()
		delete(b.sessions, chatID)
		b.mu.Unlock()
		return 0, errors.New("сессия больше недействительна, войди снова")
	}
	return userID, nil
}

func (b *Bot) accounts(ctx context.Context, userID int64) (string, error) {
	accounts, err := b.store.ListAccounts(ctx, userID, domain.Page{})
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "📭 Счетов пока нет", nil
	}

	lines := []string{"🏦 *Счета*"}
	for _, a := range accounts {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", a.ID, escape(a.Name), a.Balance.StringFixed(2)))
	}
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) stats(ctx context.Context, userID int64) (string, error) {
	st, err := b.store.Stats(ctx, userID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📊 *Статистика*\nСчетов: %d\nОпераций: %d\nКатегорий: %d (подкатегорий: %d)\nТипов: %d\nОбщий баланс: %s",
		st.TotalAccounts, st.TotalOperations, st.TotalCategories, st.TotalSubCategories, st.TotalTypes,
		st.TotalBalance.StringFixed(2)), nil
}

func (b *Bot) month(ctx context.Context, userID int64, args string) (string, error) {
	month := args
	if month == "" {
		month = b.now().Format("2006-01")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return "❌ Месяц в формате ГГГГ-ММ, например 2024-05", nil
	}

	sum, err := b.store.MonthlySummary(ctx, userID, month)
	if err != nil {
		return "", err
	}
	if len(sum.ByType) == 0 {
		return "📭 Нет операций за " + month, nil
	}

	lines := []string{fmt.Sprintf("📅 *Итоги за %s*", month), "", "*По типам*"}
	for _, nt := range sum.ByType {
		lines = append(lines, fmt.Sprintf("- %s: %s (%d)", escape(nt.Name), nt.Total.StringFixed(2), nt.Count))
	}
	lines = append(lines, "", "*По категориям*")
	for _, nt := range sum.ByCategory {
		lines = append(lines, fmt.Sprintf("- %s: %s (%d)", escape(nt.Name), nt.Total.StringFixed(2), nt.Count))
	}
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) search(ctx context.Context, userID int64, query string) (string, error) {
	if query == "" {
		return "❌ Используй: /search текст", nil
	}
	ops, err := b.store.ListOperations(ctx, userID, domain.OperationFilter{
		Search: query,
		Page:   domain.Page{Limit: searchLimit},
	})
	if err != nil {
		return "", err
	}
	if len(ops) == 0 {
		return fmt.Sprintf("📭 Ничего не найдено по *%s*", escape(query)), nil
	}

	lines := []string{fmt.Sprintf("🔍 *Операции: %s*", escape(query))}
	for _, op := range ops {
		lines = append(lines, fmt.Sprintf("%s  %s  %s", op.Date, op.Amount.StringFixed(2), escape(op.Description)))
	}
	return strings.Join(lines, "\n"), nil
}

// add parses "<account_id> <type> <amount> [description]" and records an
// operation dated today.
func (b *Bot) add(ctx context.Context, userID int64, args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return "❌ Используй: /add счёт тип сумма описание\nНапример: /add 3 expense 12.50 кофе", nil
	}

	accountID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || accountID <= 0 {
		return fmt.Sprintf("❌ Неверный номер счёта: %q", fields[0]), nil
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(fields[2], ",", "."))
	if err != nil {
		return fmt.Sprintf("❌ Неверная сумма: %q", fields[2]), nil
	}

	t, err := b.store.GetTypeByName(ctx, userID, fields[1])
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Sprintf("❌ Нет типа операции %q", fields[1]), nil
	}
	if err != nil {
		return "", err
	}

	op, err := b.store.CreateOperation(ctx, userID, domain.Operation{
		Date:        domain.DateOf(b.now()),
		Description: strings.Join(fields[3:], " "),
		Amount:      amount,
		AccountID:   accountID,
		TypeID:      t.ID,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Сохранено! Операция #%d: %s %s", op.ID, t.Name, op.Amount.StringFixed(2)), nil
}

func userMessage(err error) string {
	var refErr *storage.ReferenceError
	switch {
	case errors.As(err, &refErr):
		return refErr.Error()
	case errors.Is(err, storage.ErrNotFound):
		return "не найдено"
	case errors.Is(err, storage.ErrInvalidValue):
		return "слишком большая сумма"
	default:
		return "внутренняя ошибка, попробуй позже"
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

// FixEncoding returns s unchanged when it is valid UTF-8 and otherwise
// decodes it as Windows-1251, which some clients still send.
func FixEncoding(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	fixed, err := charmap.Windows1251.NewDecoder().String(s)
	if err == nil && utf8.ValidString(fixed) {
		return fixed
	}
	return strings.ToValidUTF8(s, "")
}
