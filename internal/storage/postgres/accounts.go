package postgres

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, name, balance, kind, user_id`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Name, &a.Balance, &a.Kind, &a.UserID)
	return a, err
}

func (s *Storage) GetAccount(ctx context.Context, userID, id int64) (domain.Account, error) {
	var a domain.Account
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		a, err = scanAccount(tx.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM account WHERE id = $1 AND user_id = $2`, id, userID))
		return err
	})
	if err != nil {
		return domain.Account{}, mapError("get account", err)
	}
	return a, nil
}

func (s *Storage) ListAccounts(ctx context.Context, userID int64, page domain.Page) ([]domain.Account, error) {
	page = page.Normalize()
	var out []domain.Account
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT `+accountColumns+` FROM account
			WHERE user_id = $1
			ORDER BY id
			OFFSET $2 LIMIT $3`, userID, page.Skip, page.Limit)
		if err != nil {
			return err
		}
		out, err = collectRows(rows, scanAccount)
		return err
	})
	if err != nil {
		return nil, mapError("list accounts", err)
	}
	return out, nil
}

func (s *Storage) CreateAccount(ctx context.Context, userID int64, a domain.Account) (domain.Account, error) {
	var created domain.Account
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		created, err = scanAccount(tx.QueryRow(ctx, `
			INSERT INTO account (name, balance, kind, user_id)
			VALUES ($1, $2, $3, $4)
			RETURNING `+accountColumns,
			storage.NormalizeName(a.Name), a.Balance.Round(2), storage.NormalizeName(a.Kind), userID))
		return err
	})
	if err != nil {
		return domain.Account{}, mapError("create account", err)
	}
	return created, nil
}

func (s *Storage) UpdateAccount(ctx context.Context, userID, id int64, upd domain.AccountUpdate) (domain.Account, error) {
	var a domain.Account
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		a, err = scanAccount(tx.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM account WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID))
		if err != nil {
			return err
		}
		if upd.Name != nil {
			a.Name = storage.NormalizeName(*upd.Name)
		}
		if upd.Balance != nil {
			a.Balance = upd.Balance.Round(2)
		}
		if upd.Kind != nil {
			a.Kind = storage.NormalizeName(*upd.Kind)
		}
		a, err = scanAccount(tx.QueryRow(ctx, `
			UPDATE account SET name = $2, balance = $3, kind = $4
			WHERE id = $1
			RETURNING `+accountColumns, id, a.Name, a.Balance, a.Kind))
		return err
	})
	if err != nil {
		return domain.Account{}, mapError("update account", err)
	}
	return a, nil
}

func (s *Storage) DeleteAccount(ctx context.Context, userID, id int64) error {
	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM account WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return mapError("delete account", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("delete account: %w", storage.ErrNotFound)
		}
		return nil
	})
}
