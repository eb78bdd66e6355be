// internal/auth/service.go
package auth

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Store is the part of the storage the auth flows touch.
type Store interface {
	storage.UserStorage
}

var defaults = domain.Defaults{
	Types: []string{"expense", "income", "transfer"},
	Categories: []domain.DefaultCategory{
		{Name: "Food", SubCategories: []string{"Groceries", "Restaurants"}},
		{Name: "Transport", SubCategories: []string{"Fuel", "Public transport"}},
		{Name: "Housing"},
		{Name: "Leisure"},
		{Name: "Health"},
		{Name: "Income", SubCategories: []string{"Salary", "Bonus"}},
		{Name: "Shopping", SubCategories: []string{"Clothes"}},
		{Name: "Bills"},
	},
}

type Service struct {
	store  Store
	tokens *TokenService
	now    func() time.Time
}

func NewService(store Store, tokens *TokenService) *Service {
	return &Service{store: store, tokens: tokens, now: time.Now}
}

// Session is an issued access token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Register creates a user and its default types and categories in one step.
func (s *Service) Register(ctx context.Context, email, password string, displayName *string) (domain.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.store.RegisterUser(ctx, domain.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}, defaults)
	if err != nil {
		return domain.User{}, err
	}
	slog.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies credentials, records the login time and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	ok, err := VerifyPassword(password, u.PasswordHash)
	if err != nil {
		slog.Warn("password hash unreadable", "user_id", u.ID, "error", err)
		return Session{}, ErrInvalidCredentials
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if !u.Active {
		return Session{}, ErrInactive
	}

	if NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u.ID, password)
	}

	now := s.now()
	if err := s.store.SetLastLogin(ctx, u.ID, now); err != nil {
		return Session{}, err
	}
	now = now.UTC()
	u.LastLogin = &now

	return s.IssueToken(u)
}

func (s *Service) rehash(ctx context.Context, userID int64, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		slog.Warn("rehash password", "user_id", userID, "error", err)
		return
	}
	if _, err := s.store.UpdateUser(ctx, userID, domain.UserUpdate{PasswordHash: &hash}); err != nil {
		slog.Warn("store rehashed password", "user_id", userID, "error", err)
	}
}

func (s *Service) IssueToken(u domain.User) (Session, error) {
	token, exp, err := s.tokens.GenerateToken(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	userID, err := s.tokens.ParseToken(token)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.User{}, ErrInvalidToken
	}
	if err != nil {
		return domain.User{}, err
	}
	if !u.Active {
		return domain.User{}, ErrInactive
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, email, displayName *string) (domain.User, error) {
	return s.store.UpdateUser(ctx, userID, domain.UserUpdate{Email: email, DisplayName: displayName})
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := VerifyPassword(oldPassword, u.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.store.UpdateUser(ctx, userID, domain.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}
	slog.Info("password changed", "user_id", userID)
	return nil
}
