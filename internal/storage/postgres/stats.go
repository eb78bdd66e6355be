package postgres

import (
	"budget-tracker/internal/domain"
	"context"

	"github.com/jackc/pgx/v5"
)

// === StatsStorage ===

func (s *Storage) Stats(ctx context.Context, userID int64) (domain.Stats, error) {
	var st domain.Stats
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
			SELECT
				(SELECT count(*) FROM operation o JOIN account a ON a.id = o.account_id WHERE a.user_id = $1),
				(SELECT count(*) FROM account WHERE user_id = $1),
				(SELECT count(*) FROM category WHERE user_id = $1),
				(SELECT count(*) FROM sub_category sc JOIN category c ON c.id = sc.category_id WHERE c.user_id = $1),
				(SELECT count(*) FROM operation_type WHERE user_id = $1),
				(SELECT COALESCE(sum(balance), 0) FROM account WHERE user_id = $1)`, userID).
			Scan(&st.TotalOperations, &st.TotalAccounts, &st.TotalCategories,
				&st.TotalSubCategories, &st.TotalTypes, &st.TotalBalance)
	})
	if err != nil {
		return domain.Stats{}, mapError("stats", err)
	}
	return st, nil
}

func (s *Storage) MonthlySummary(ctx context.Context, userID int64, month string) (domain.MonthlySummary, error) {
	from, to, err := domain.MonthRange(month)
	if err != nil {
		return domain.MonthlySummary{}, err
	}

	// COLLATE "C": побайтовый порядок, как у memory-драйвера
	sum := domain.MonthlySummary{Month: month}
	err = s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT t.name, sum(o.amount), count(*)
			FROM operation o
			JOIN account a ON a.id = o.account_id
			JOIN operation_type t ON t.id = o.type_id
			WHERE a.user_id = $1 AND o.date >= $2 AND o.date < $3
			GROUP BY t.name
			ORDER BY t.name COLLATE "C"`, userID, from.Time, to.Time)
		if err != nil {
			return err
		}
		if sum.ByType, err = collectRows(rows, scanNamedTotal); err != nil {
			return err
		}

		rows, err = tx.Query(ctx, `
			SELECT COALESCE(c.name, $4), sum(o.amount), count(*)
			FROM operation o
			JOIN account a ON a.id = o.account_id
			LEFT JOIN sub_category sc ON sc.id = o.sub_category_id
			LEFT JOIN category c ON c.id = sc.category_id
			WHERE a.user_id = $1 AND o.date >= $2 AND o.date < $3
			GROUP BY 1
			ORDER BY COALESCE(c.name, $4) COLLATE "C"`, userID, from.Time, to.Time, domain.UncategorizedName)
		if err != nil {
			return err
		}
		sum.ByCategory, err = collectRows(rows, scanNamedTotal)
		return err
	})
	if err != nil {
		return domain.MonthlySummary{}, mapError("monthly summary", err)
	}
	return sum, nil
}

func scanNamedTotal(row pgx.Row) (domain.NamedTotal, error) {
	var nt domain.NamedTotal
	err := row.Scan(&nt.Name, &nt.Total, &nt.Count)
	return nt, err
}
