package postgres

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const categoryColumns = `id, name, user_id`

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.UserID)
	return c, err
}

func (s *Storage) GetCategory(ctx context.Context, userID, id int64) (domain.Category, error) {
	var c domain.Category
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		c, err = scanCategory(tx.QueryRow(ctx,
			`SELECT `+categoryColumns+` FROM category WHERE id = $1 AND user_id = $2`, id, userID))
		return err
	})
	if err != nil {
		return domain.Category{}, mapError("get category", err)
	}
	return c, nil
}

func (s *Storage) GetCategoryByName(ctx context.Context, userID int64, name string) (domain.Category, error) {
	var c domain.Category
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		c, err = scanCategory(tx.QueryRow(ctx,
			`SELECT `+categoryColumns+` FROM category WHERE name = $1 AND user_id = $2`,
			storage.NormalizeName(name), userID))
		return err
	})
	if err != nil {
		return domain.Category{}, mapError("get category by name", err)
	}
	return c, nil
}

func (s *Storage) ListCategories(ctx context.Context, userID int64, page domain.Page) ([]domain.Category, error) {
	var out []domain.Category
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		out, err = listCategories(ctx, tx, userID, page)
		return err
	})
	if err != nil {
		return nil, mapError("list categories", err)
	}
	return out, nil
}

func listCategories(ctx context.Context, tx pgx.Tx, userID int64, page domain.Page) ([]domain.Category, error) {
	page = page.Normalize()
	rows, err := tx.Query(ctx, `
		SELECT `+categoryColumns+` FROM category
		WHERE user_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3`, userID, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanCategory)
}

func (s *Storage) ListCategoriesWithSubCategories(ctx context.Context, userID int64, page domain.Page) ([]domain.CategoryWithSubCategories, error) {
	var out []domain.CategoryWithSubCategories
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		cats, err := listCategories(ctx, tx, userID, page)
		if err != nil {
			return err
		}
		if len(cats) == 0 {
			out = []domain.CategoryWithSubCategories{}
			return nil
		}

		ids := make([]int64, len(cats))
		for i, c := range cats {
			ids[i] = c.ID
		}
		rows, err := tx.Query(ctx, `
			SELECT `+subCategoryColumns+` FROM sub_category
			WHERE category_id = ANY($1)
			ORDER BY id`, ids)
		if err != nil {
			return err
		}
		subs, err := collectRows(rows, scanSubCategory)
		if err != nil {
			return err
		}

		byCategory := make(map[int64][]domain.SubCategory, len(cats))
		for _, sc := range subs {
			byCategory[sc.CategoryID] = append(byCategory[sc.CategoryID], sc)
		}
		out = make([]domain.CategoryWithSubCategories, len(cats))
		for i, c := range cats {
			children := byCategory[c.ID]
			if children == nil {
				children = []domain.SubCategory{}
			}
			out[i] = domain.CategoryWithSubCategories{Category: c, SubCategories: children}
		}
		return nil
	})
	if err != nil {
		return nil, mapError("list categories with sub-categories", err)
	}
	return out, nil
}

func (s *Storage) CreateCategory(ctx context.Context, userID int64, name string) (domain.Category, error) {
	var c domain.Category
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		c, err = scanCategory(tx.QueryRow(ctx, `
			INSERT INTO category (name, user_id) VALUES ($1, $2)
			RETURNING `+categoryColumns, storage.NormalizeName(name), userID))
		return err
	})
	if err != nil {
		return domain.Category{}, mapError("create category", err)
	}
	return c, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, userID, id int64, upd domain.CategoryUpdate) (domain.Category, error) {
	var c domain.Category
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		if upd.Name == nil {
			c, err = scanCategory(tx.QueryRow(ctx,
				`SELECT `+categoryColumns+` FROM category WHERE id = $1 AND user_id = $2`, id, userID))
			return err
		}
		c, err = scanCategory(tx.QueryRow(ctx, `
			UPDATE category SET name = $3
			WHERE id = $1 AND user_id = $2
			RETURNING `+categoryColumns, id, userID, storage.NormalizeName(*upd.Name)))
		return err
	})
	if err != nil {
		return domain.Category{}, mapError("update category", err)
	}
	return c, nil
}

func (s *Storage) DeleteCategory(ctx context.Context, userID, id int64) error {
	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM category WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return mapError("delete category", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("delete category: %w", storage.ErrNotFound)
		}
		return nil
	})
}
