package postgres

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const subCategoryColumns = `id, name, category_id`

// ownedSubCategory joins the parent category so only the caller's rows match.
const ownedSubCategory = `
	FROM sub_category sc
	JOIN category c ON c.id = sc.category_id
	WHERE c.user_id = $1`

func scanSubCategory(row pgx.Row) (domain.SubCategory, error) {
	var sc domain.SubCategory
	err := row.Scan(&sc.ID, &sc.Name, &sc.CategoryID)
	return sc, err
}

func ownsCategory(ctx context.Context, tx pgx.Tx, userID, categoryID int64) error {
	ok, err := exists(ctx, tx, `SELECT 1 FROM category WHERE id = $1 AND user_id = $2`, categoryID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &storage.ReferenceError{Entity: "category", ID: categoryID}
	}
	return nil
}

func getSubCategory(ctx context.Context, tx pgx.Tx, userID, id int64, lock bool) (domain.SubCategory, error) {
	q := `SELECT sc.id, sc.name, sc.category_id` + ownedSubCategory + ` AND sc.id = $2`
	if lock {
		q += ` FOR UPDATE OF sc`
	}
	return scanSubCategory(tx.QueryRow(ctx, q, userID, id))
}

func (s *Storage) GetSubCategory(ctx context.Context, userID, id int64) (domain.SubCategory, error) {
	var sc domain.SubCategory
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		sc, err = getSubCategory(ctx, tx, userID, id, false)
		return err
	})
	if err != nil {
		return domain.SubCategory{}, mapError("get sub-category", err)
	}
	return sc, nil
}

func (s *Storage) GetSubCategoryByName(ctx context.Context, userID int64, name string) (domain.SubCategory, error) {
	var sc domain.SubCategory
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		sc, err = scanSubCategory(tx.QueryRow(ctx, `SELECT sc.id, sc.name, sc.category_id`+ownedSubCategory+`
			AND sc.name = $2
			ORDER BY sc.id
			LIMIT 1`, userID, storage.NormalizeName(name)))
		return err
	})
	if err != nil {
		return domain.SubCategory{}, mapError("get sub-category by name", err)
	}
	return sc, nil
}

func (s *Storage) ListSubCategories(ctx context.Context, userID int64, page domain.Page) ([]domain.SubCategory, error) {
	page = page.Normalize()
	var out []domain.SubCategory
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT sc.id, sc.name, sc.category_id`+ownedSubCategory+`
			ORDER BY sc.id
			OFFSET $2 LIMIT $3`, userID, page.Skip, page.Limit)
		if err != nil {
			return err
		}
		out, err = collectRows(rows, scanSubCategory)
		return err
	})
	if err != nil {
		return nil, mapError("list sub-categories", err)
	}
	return out, nil
}

func (s *Storage) ListSubCategoriesByCategory(ctx context.Context, userID, categoryID int64) ([]domain.SubCategory, error) {
	var out []domain.SubCategory
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		ok, err := exists(ctx, tx, `SELECT 1 FROM category WHERE id = $1 AND user_id = $2`, categoryID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return pgx.ErrNoRows
		}
		rows, err := tx.Query(ctx, `
			SELECT `+subCategoryColumns+` FROM sub_category
			WHERE category_id = $1
			ORDER BY id`, categoryID)
		if err != nil {
			return err
		}
		out, err = collectRows(rows, scanSubCategory)
		return err
	})
	if err != nil {
		return nil, mapError("list sub-categories of category", err)
	}
	return out, nil
}

func (s *Storage) CreateSubCategory(ctx context.Context, userID int64, sc domain.SubCategory) (domain.SubCategory, error) {
	var created domain.SubCategory
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		if err := ownsCategory(ctx, tx, userID, sc.CategoryID); err != nil {
			return err
		}
		var err error
		created, err = scanSubCategory(tx.QueryRow(ctx, `
			INSERT INTO sub_category (name, category_id) VALUES ($1, $2)
			RETURNING `+subCategoryColumns, storage.NormalizeName(sc.Name), sc.CategoryID))
		return err
	})
	if err != nil {
		return domain.SubCategory{}, mapError("create sub-category", err)
	}
	return created, nil
}

func (s *Storage) UpdateSubCategory(ctx context.Context, userID, id int64, upd domain.SubCategoryUpdate) (domain.SubCategory, error) {
	var sc domain.SubCategory
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		sc, err = getSubCategory(ctx, tx, userID, id, true)
		if err != nil {
			return err
		}
		if upd.CategoryID != nil {
			if err := ownsCategory(ctx, tx, userID, *upd.CategoryID); err != nil {
				return err
			}
			sc.CategoryID = *upd.CategoryID
		}
		if upd.Name != nil {
			sc.Name = storage.NormalizeName(*upd.Name)
		}
		sc, err = scanSubCategory(tx.QueryRow(ctx, `
			UPDATE sub_category SET name = $2, category_id = $3
			WHERE id = $1
			RETURNING `+subCategoryColumns, id, sc.Name, sc.CategoryID))
		return err
	})
	if err != nil {
		return domain.SubCategory{}, mapError("update sub-category", err)
	}
	return sc, nil
}

func (s *Storage) DeleteSubCategory(ctx context.Context, userID, id int64) error {
	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM sub_category sc
			USING category c
			WHERE sc.id = $2 AND c.id = sc.category_id AND c.user_id = $1`, userID, id)
		if err != nil {
			return mapError("delete sub-category", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("delete sub-category: %w", storage.ErrNotFound)
		}
		return nil
	})
}
