package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

var _ repository.StockStatusRepository = (*StockStatusRepo)(nil)

// StockStatusRepo caché derivada de estado de stock sobre PostgreSQL.
type StockStatusRepo struct {
	q Querier
}

// NewStockStatusRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockStatusRepository(q Querier) *StockStatusRepo {
	return &StockStatusRepo{q: q}
}

const statusColumns = `
	product_id, tracking_mode, state, lot_count, total_weight, initial_weight,
	percent_left, quantity, minimum, inventory_value, requires_attention,
	computed_at, changed_at`

func scanStatus(row rowScanner) (*entity.StockStatus, error) {
	var s entity.StockStatus
	err := row.Scan(
		&s.ProductID, &s.TrackingMode, &s.State, &s.LotCount, &s.TotalWeight, &s.InitialWeight,
		&s.PercentLeft, &s.Quantity, &s.Minimum, &s.InventoryValue, &s.RequiresAttention,
		&s.ComputedAt, &s.ChangedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StockStatusRepo) queryStatuses(ctx context.Context, query string, args ...any) ([]*entity.StockStatus, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []*entity.StockStatus
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// Get estado derivado de un producto; nil si aún no se ha calculado.
func (r *StockStatusRepo) Get(ctx context.Context, productID string) (*entity.StockStatus, error) {
	query := `SELECT ` + statusColumns + ` FROM stock_status WHERE product_id = $1`
	s, err := scanStatus(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock status: %w", err)
	}
	return s, nil
}

// Upsert inserta o reemplaza el estado derivado del producto.
func (r *StockStatusRepo) Upsert(ctx context.Context, s *entity.StockStatus) error {
	query := `
		INSERT INTO stock_status (
			product_id, tracking_mode, state, lot_count, total_weight, initial_weight,
			percent_left, quantity, minimum, inventory_value, requires_attention,
			computed_at, changed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (product_id) DO UPDATE SET
			tracking_mode = EXCLUDED.tracking_mode,
			state = EXCLUDED.state,
			lot_count = EXCLUDED.lot_count,
			total_weight = EXCLUDED.total_weight,
			initial_weight = EXCLUDED.initial_weight,
			percent_left = EXCLUDED.percent_left,
			quantity = EXCLUDED.quantity,
			minimum = EXCLUDED.minimum,
			inventory_value = EXCLUDED.inventory_value,
			requires_attention = EXCLUDED.requires_attention,
			computed_at = EXCLUDED.computed_at,
			changed_at = EXCLUDED.changed_at`
	_, err := r.q.Exec(ctx, query,
		s.ProductID, s.TrackingMode, s.State, s.LotCount, s.TotalWeight, s.InitialWeight,
		s.PercentLeft, s.Quantity, s.Minimum, s.InventoryValue, s.RequiresAttention,
		s.ComputedAt, s.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock status: %w", err)
	}
	return nil
}

// RequiringAttention productos fuera de NORMAL, peores primero.
func (r *StockStatusRepo) RequiringAttention(ctx context.Context) ([]*entity.StockStatus, error) {
	query := `
		SELECT ` + statusColumns + `
		FROM stock_status
		WHERE requires_attention
		ORDER BY CASE state
			WHEN 'DEPLETED' THEN 0
			WHEN 'CRITICAL' THEN 1
			WHEN 'LOW' THEN 2
			ELSE 3
		END, changed_at ASC`
	statuses, err := r.queryStatuses(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("statuses requiring attention: %w", err)
	}
	return statuses, nil
}

// ListAll todos los estados derivados (valorización de inventario).
func (r *StockStatusRepo) ListAll(ctx context.Context) ([]*entity.StockStatus, error) {
	query := `SELECT ` + statusColumns + ` FROM stock_status ORDER BY product_id`
	statuses, err := r.queryStatuses(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stock statuses: %w", err)
	}
	return statuses, nil
}
