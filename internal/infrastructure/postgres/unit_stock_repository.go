package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

var _ repository.UnitStockRepository = (*UnitStockRepo)(nil)

// UnitStockRepo stock por unidades sobre PostgreSQL (un registro por producto).
type UnitStockRepo struct {
	q Querier
}

// NewUnitStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewUnitStockRepository(q Querier) *UnitStockRepo {
	return &UnitStockRepo{q: q}
}

const unitStockColumns = `
	product_id, quantity, minimum, maximum, unit_cost, last_in_at, last_out_at, updated_at`

func scanUnitStock(row rowScanner) (*entity.UnitStock, error) {
	var s entity.UnitStock
	err := row.Scan(
		&s.ProductID, &s.Quantity, &s.Minimum, &s.Maximum, &s.UnitCost,
		&s.LastInAt, &s.LastOutAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene el stock por unidades de un producto; nil si no tiene registro.
func (r *UnitStockRepo) Get(ctx context.Context, productID string) (*entity.UnitStock, error) {
	query := `SELECT ` + unitStockColumns + ` FROM unit_stocks WHERE product_id = $1`
	s, err := scanUnitStock(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unit stock: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE).
func (r *UnitStockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.UnitStock, error) {
	query := `SELECT ` + unitStockColumns + ` FROM unit_stocks WHERE product_id = $1 FOR UPDATE`
	s, err := scanUnitStock(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unit stock for update: %w", err)
	}
	return s, nil
}

// Upsert inserta o actualiza el registro de stock del producto.
func (r *UnitStockRepo) Upsert(ctx context.Context, stock *entity.UnitStock) error {
	query := `
		INSERT INTO unit_stocks (product_id, quantity, minimum, maximum, unit_cost, last_in_at, last_out_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			minimum = EXCLUDED.minimum,
			maximum = EXCLUDED.maximum,
			unit_cost = EXCLUDED.unit_cost,
			last_in_at = EXCLUDED.last_in_at,
			last_out_at = EXCLUDED.last_out_at,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		stock.ProductID, stock.Quantity, stock.Minimum, stock.Maximum, stock.UnitCost,
		stock.LastInAt, stock.LastOutAt, stock.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert unit stock: %w", err)
	}
	return nil
}
