package postgres

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, display_name, created_at, last_login, active`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt, &u.LastLogin, &u.Active)
	return u, err
}

func (s *Storage) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	created, err := scanUser(s.db.QueryRow(ctx, `
		INSERT INTO app_user (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		storage.NormalizeEmail(u.Email), u.PasswordHash, u.DisplayName))
	if err != nil {
		return domain.User{}, mapError("create user", err)
	}
	return created, nil
}

func (s *Storage) RegisterUser(ctx context.Context, u domain.User, defaults domain.Defaults) (domain.User, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := scanUser(tx.QueryRow(ctx, `
		INSERT INTO app_user (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		storage.NormalizeEmail(u.Email), u.PasswordHash, u.DisplayName))
	if err != nil {
		return domain.User{}, mapError("register user", err)
	}
	// дальше вставки идут под политиками RLS нового пользователя
	if _, err := tx.Exec(ctx, `SELECT set_config('app.user_id', $1, true)`, strconv.FormatInt(created.ID, 10)); err != nil {
		return domain.User{}, fmt.Errorf("set app.user_id: %w", err)
	}
	if err := seedDefaults(ctx, tx, created.ID, defaults); err != nil {
		return domain.User{}, mapError("seed defaults", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, fmt.Errorf("commit tx: %w", err)
	}
	return created, nil
}

func seedDefaults(ctx context.Context, tx pgx.Tx, userID int64, defaults domain.Defaults) error {
	for _, name := range defaults.Types {
		if _, err := tx.Exec(ctx, `INSERT INTO operation_type (name, user_id) VALUES ($1, $2)`,
			storage.NormalizeName(name), userID); err != nil {
			return err
		}
	}
	for _, dc := range defaults.Categories {
		var categoryID int64
		if err := tx.QueryRow(ctx, `INSERT INTO category (name, user_id) VALUES ($1, $2) RETURNING id`,
			storage.NormalizeName(dc.Name), userID).Scan(&categoryID); err != nil {
			return err
		}
		for _, name := range dc.SubCategories {
			if _, err := tx.Exec(ctx, `INSERT INTO sub_category (name, category_id) VALUES ($1, $2)`,
				storage.NormalizeName(name), categoryID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, mapError("get user", err)
	}
	return u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE lower(email) = $1`, storage.NormalizeEmail(email)))
	if err != nil {
		return domain.User{}, mapError("get user by email", err)
	}
	return u, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id int64, upd domain.UserUpdate) (domain.User, error) {
	var email *string
	if upd.Email != nil {
		e := storage.NormalizeEmail(*upd.Email)
		email = &e
	}
	u, err := scanUser(s.db.QueryRow(ctx, `
		UPDATE app_user SET
			email         = COALESCE($2, email),
			display_name  = COALESCE($3, display_name),
			password_hash = COALESCE($4, password_hash),
			active        = COALESCE($5, active)
		WHERE id = $1
		RETURNING `+userColumns,
		id, email, upd.DisplayName, upd.PasswordHash, upd.Active))
	if err != nil {
		return domain.User{}, mapError("update user", err)
	}
	return u, nil
}

func (s *Storage) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE app_user SET last_login = $2 WHERE id = $1`, id, at.UTC())
	if err != nil {
		return mapError("set last login", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set last login: %w", storage.ErrNotFound)
	}
	return nil
}
