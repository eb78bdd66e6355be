package postgres

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const operationColumns = `o.id, o.date, o.description, o.amount, o.account_id, o.type_id, o.sub_category_id`

func scanOperation(row pgx.Row) (domain.Operation, error) {
	var (
		op   domain.Operation
		date time.Time
	)
	err := row.Scan(&op.ID, &date, &op.Description, &op.Amount, &op.AccountID, &op.TypeID, &op.SubCategoryID)
	op.Date = domain.DateOf(date)
	return op, err
}

func getOperation(ctx context.Context, tx pgx.Tx, userID, id int64, lock bool) (domain.Operation, error) {
	q := `SELECT ` + operationColumns + `
		FROM operation o
		JOIN account a ON a.id = o.account_id
		WHERE a.user_id = $1 AND o.id = $2`
	if lock {
		q += ` FOR UPDATE OF o`
	}
	return scanOperation(tx.QueryRow(ctx, q, userID, id))
}

// checkOperationRefs verifies that every referenced row belongs to userID.
// Foreign key checks bypass RLS, so this cannot be left to the database.
func checkOperationRefs(ctx context.Context, tx pgx.Tx, userID int64, op domain.Operation) error {
	ok, err := exists(ctx, tx, `SELECT 1 FROM account WHERE id = $1 AND user_id = $2`, op.AccountID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &storage.ReferenceError{Entity: "account", ID: op.AccountID}
	}

	ok, err = exists(ctx, tx, `SELECT 1 FROM operation_type WHERE id = $1 AND user_id = $2`, op.TypeID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &storage.ReferenceError{Entity: "type", ID: op.TypeID}
	}

	if op.SubCategoryID == nil {
		return nil
	}
	ok, err = exists(ctx, tx, `SELECT 1`+ownedSubCategory+` AND sc.id = $2`, userID, *op.SubCategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return &storage.ReferenceError{Entity: "sub-category", ID: *op.SubCategoryID}
	}
	return nil
}

func (s *Storage) GetOperation(ctx context.Context, userID, id int64) (domain.Operation, error) {
	var op domain.Operation
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		op, err = getOperation(ctx, tx, userID, id, false)
		return err
	})
	if err != nil {
		return domain.Operation{}, mapError("get operation", err)
	}
	return op, nil
}

func (s *Storage) ListOperations(ctx context.Context, userID int64, filter domain.OperationFilter) ([]domain.Operation, error) {
	var (
		where = []string{"a.user_id = $1"}
		args  = []any{userID}
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Search != "" {
		add(`o.description ILIKE '%%' || $%d::text || '%%'`, escapeLike(filter.Search))
	}
	if filter.AccountID != nil {
		add("o.account_id = $%d", *filter.AccountID)
	}
	if filter.SubCategoryID != nil {
		add("o.sub_category_id = $%d", *filter.SubCategoryID)
	}
	if filter.TypeID != nil {
		add("o.type_id = $%d", *filter.TypeID)
	}
	if filter.From != nil {
		add("o.date >= $%d", filter.From.Time)
	}
	if filter.To != nil {
		add("o.date <= $%d", filter.To.Time)
	}

	page := filter.Page.Normalize()
	args = append(args, page.Skip, page.Limit)
	q := fmt.Sprintf(`
		SELECT %s
		FROM operation o
		JOIN account a ON a.id = o.account_id
		WHERE %s
		ORDER BY o.date DESC, o.id DESC
		OFFSET $%d LIMIT $%d`,
		operationColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	var out []domain.Operation
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		out, err = collectRows(rows, scanOperation)
		return err
	})
	if err != nil {
		return nil, mapError("list operations", err)
	}
	return out, nil
}

func (s *Storage) CreateOperation(ctx context.Context, userID int64, op domain.Operation) (domain.Operation, error) {
	var created domain.Operation
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		if err := checkOperationRefs(ctx, tx, userID, op); err != nil {
			return err
		}
		var err error
		created, err = scanOperation(tx.QueryRow(ctx, `
			INSERT INTO operation AS o (date, description, amount, account_id, type_id, sub_category_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+operationColumns,
			op.Date.Time, storage.NormalizeName(op.Description), op.Amount.Round(2),
			op.AccountID, op.TypeID, op.SubCategoryID))
		return err
	})
	if err != nil {
		return domain.Operation{}, mapError("create operation", err)
	}
	return created, nil
}

func (s *Storage) UpdateOperation(ctx context.Context, userID, id int64, upd domain.OperationUpdate) (domain.Operation, error) {
	var op domain.Operation
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		op, err = getOperation(ctx, tx, userID, id, true)
		if err != nil {
			return err
		}
		if upd.Date != nil {
			op.Date = *upd.Date
		}
		if upd.Description != nil {
			op.Description = storage.NormalizeName(*upd.Description)
		}
		if upd.Amount != nil {
			op.Amount = upd.Amount.Round(2)
		}
		if upd.AccountID != nil {
			op.AccountID = *upd.AccountID
		}
		if upd.TypeID != nil {
			op.TypeID = *upd.TypeID
		}
		if upd.SubCategoryID.Set {
			op.SubCategoryID = upd.SubCategoryID.Value
		}
		if err := checkOperationRefs(ctx, tx, userID, op); err != nil {
			return err
		}
		op, err = scanOperation(tx.QueryRow(ctx, `
			UPDATE operation AS o SET
				date = $2, description = $3, amount = $4,
				account_id = $5, type_id = $6, sub_category_id = $7
			WHERE o.id = $1
			RETURNING `+operationColumns,
			id, op.Date.Time, op.Description, op.Amount, op.AccountID, op.TypeID, op.SubCategoryID))
		return err
	})
	if err != nil {
		return domain.Operation{}, mapError("update operation", err)
	}
	return op, nil
}

func (s *Storage) DeleteOperation(ctx context.Context, userID, id int64) error {
	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM operation o
			USING account a
			WHERE o.id = $2 AND a.id = o.account_id AND a.user_id = $1`, userID, id)
		if err != nil {
			return mapError("delete operation", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("delete operation: %w", storage.ErrNotFound)
		}
		return nil
	})
}
