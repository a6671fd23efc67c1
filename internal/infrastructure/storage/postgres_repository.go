package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"PromoScanner/internal/domain"
	"PromoScanner/internal/ports"
)

// PostgresRepository persists surfaced promotions into Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.PromotionRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// AlreadySurfaced returns a map with promotion ids that already exist in
// storage for the chain.
func (r *PostgresRepository) AlreadySurfaced(ctx context.Context, chain string, ids []int64) (map[int64]bool, error) {
	if r.db == nil || len(ids) == 0 {
		return map[int64]bool{}, nil
	}

	query, args, err := r.builder.
		Select("promotion_id").
		From("surfaced_promotions").
		Where(sq.Eq{"chain": chain}).
		Where("promotion_id = ANY(?)", pq.Array(ids)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query surfaced: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// SaveSurfaced upserts the surfaced promotion snapshot.
func (r *PostgresRepository) SaveSurfaced(ctx context.Context, promo domain.SurfacedPromotion) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Insert("surfaced_promotions").
		Columns("chain", "store_id", "promotion_id", "description",
			"start_time", "end_time", "update_time", "item_count", "run_id").
		Values(promo.Chain, promo.StoreID, promo.PromotionID, promo.Description,
			promo.StartTime, promo.EndTime, promo.UpdateTime, promo.ItemCount, promo.RunID).
		Suffix(`ON CONFLICT (chain, promotion_id) DO UPDATE
                SET description = EXCLUDED.description,
                    end_time = EXCLUDED.end_time,
                    update_time = EXCLUDED.update_time,
                    item_count = EXCLUDED.item_count,
                    run_id = EXCLUDED.run_id,
                    updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert surfaced: %w", err)
	}

	return nil
}
