// internal/auth/jwt.go
package auth

import (
	"budget-tracker/internal/config"
	"budget-tracker/internal/domain"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenService struct {
	secretKey []byte
	issuer    string
	expiresIn time.Duration
	now       func() time.Time
}

func NewTokenService(cfg config.Config) *TokenService {
	return &TokenService{
		secretKey: []byte(cfg.JWTSecret),
		issuer:    cfg.JWTIssuer,
		expiresIn: cfg.JWTExpiresIn,
		now:       time.Now,
	}
}

func (s *TokenService) ExpiresIn() time.Duration {
	return s.expiresIn
}

// Генерация токена
func (s *TokenService) GenerateToken(u domain.User) (string, time.Time, error) {
	now := s.now()
	expTime := now.Add(s.expiresIn)
	claims := jwt.MapClaims{
		"sub":     strconv.FormatInt(u.ID, 10),
		"user_id": u.ID,
		"email":   u.Email,
		"iss":     s.issuer,
		"iat":     now.Unix(),
		"exp":     expTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	slog.Debug("JWT generated", "user_id", u.ID, "expires_at", expTime.Format(time.DateTime))
	return tokenStr, expTime, nil
}

// Парсинг токена: подпись, алгоритм, издатель и срок действия
func (s *TokenService) ParseToken(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, fmt.Errorf("%w: invalid user_id", ErrInvalidToken)
	}
	return int64(userIDFloat), nil
}
