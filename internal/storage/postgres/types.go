package postgres

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const typeColumns = `id, name, user_id`

func scanType(row pgx.Row) (domain.Type, error) {
	var t domain.Type
	err := row.Scan(&t.ID, &t.Name, &t.UserID)
	return t, err
}

func (s *Storage) GetType(ctx context.Context, userID, id int64) (domain.Type, error) {
	var t domain.Type
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		t, err = scanType(tx.QueryRow(ctx,
			`SELECT `+typeColumns+` FROM operation_type WHERE id = $1 AND user_id = $2`, id, userID))
		return err
	})
	if err != nil {
		return domain.Type{}, mapError("get type", err)
	}
	return t, nil
}

func (s *Storage) GetTypeByName(ctx context.Context, userID int64, name string) (domain.Type, error) {
	var t domain.Type
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		t, err = scanType(tx.QueryRow(ctx,
			`SELECT `+typeColumns+` FROM operation_type WHERE name = $1 AND user_id = $2`,
			storage.NormalizeName(name), userID))
		return err
	})
	if err != nil {
		return domain.Type{}, mapError("get type by name", err)
	}
	return t, nil
}

func (s *Storage) ListTypes(ctx context.Context, userID int64, page domain.Page) ([]domain.Type, error) {
	page = page.Normalize()
	var out []domain.Type
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT `+typeColumns+` FROM operation_type
			WHERE user_id = $1
			ORDER BY id
			OFFSET $2 LIMIT $3`, userID, page.Skip, page.Limit)
		if err != nil {
			return err
		}
		out, err = collectRows(rows, scanType)
		return err
	})
	if err != nil {
		return nil, mapError("list types", err)
	}
	return out, nil
}

func (s *Storage) CreateType(ctx context.Context, userID int64, name string) (domain.Type, error) {
	var t domain.Type
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		t, err = scanType(tx.QueryRow(ctx, `
			INSERT INTO operation_type (name, user_id) VALUES ($1, $2)
			RETURNING `+typeColumns, storage.NormalizeName(name), userID))
		return err
	})
	if err != nil {
		return domain.Type{}, mapError("create type", err)
	}
	return t, nil
}

func (s *Storage) UpdateType(ctx context.Context, userID, id int64, upd domain.TypeUpdate) (domain.Type, error) {
	var t domain.Type
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		if upd.Name == nil {
			t, err = scanType(tx.QueryRow(ctx,
				`SELECT `+typeColumns+` FROM operation_type WHERE id = $1 AND user_id = $2`, id, userID))
			return err
		}
		t, err = scanType(tx.QueryRow(ctx, `
			UPDATE operation_type SET name = $3
			WHERE id = $1 AND user_id = $2
			RETURNING `+typeColumns, id, userID, storage.NormalizeName(*upd.Name)))
		return err
	})
	if err != nil {
		return domain.Type{}, mapError("update type", err)
	}
	return t, nil
}

func (s *Storage) DeleteType(ctx context.Context, userID, id int64) error {
	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM operation_type WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return mapError("delete type", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("delete type: %w", storage.ErrNotFound)
		}
		return nil
	})
}
