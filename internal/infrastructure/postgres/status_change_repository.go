package postgres

import (
	"context"
	"fmt"

	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

var _ repository.StatusChangeRepository = (*StatusChangeRepo)(nil)

// StatusChangeRepo historial de transiciones de semáforo (append-only).
type StatusChangeRepo struct {
	q Querier
}

// NewStatusChangeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStatusChangeRepository(q Querier) *StatusChangeRepo {
	return &StatusChangeRepo{q: q}
}

// Create inserta un registro de transición.
func (r *StatusChangeRepo) Create(ctx context.Context, c *entity.StatusChange) error {
	query := `
		INSERT INTO status_changes (id, product_id, from_state, to_state, mode, stock_before, stock_after, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.ProductID, c.FromState, c.ToState, c.Mode, c.StockBefore, c.StockAfter, c.Reason, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create status change: %w", err)
	}
	return nil
}

// ListByProduct transiciones de un producto, más recientes primero.
func (r *StatusChangeRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StatusChange, error) {
	query := `
		SELECT id, product_id, from_state, to_state, mode, stock_before, stock_after, reason, created_at
		FROM status_changes
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	defer rows.Close()

	var changes []*entity.StatusChange
	for rows.Next() {
		var c entity.StatusChange
		if err := rows.Scan(
			&c.ID, &c.ProductID, &c.FromState, &c.ToState, &c.Mode, &c.StockBefore, &c.StockAfter, &c.Reason, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		changes = append(changes, &c)
	}
	return changes, rows.Err()
}
