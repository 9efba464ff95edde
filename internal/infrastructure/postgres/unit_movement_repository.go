package postgres

import (
	"context"
	"fmt"

	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

var _ repository.UnitMovementRepository = (*UnitMovementRepo)(nil)

// UnitMovementRepo libro de movimientos por unidades sobre PostgreSQL
// (append-only, misma disciplina que los movimientos de quintal).
type UnitMovementRepo struct {
	q Querier
}

// NewUnitMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewUnitMovementRepository(q Querier) *UnitMovementRepo {
	return &UnitMovementRepo{q: q}
}

const unitMovementColumns = `
	id, product_id, kind, quantity, qty_before, qty_after,
	unit_cost, total_cost, sale_ref, note, created_by, created_at`

func (r *UnitMovementRepo) queryMovements(ctx context.Context, query string, args ...any) ([]*entity.UnitMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movs []*entity.UnitMovement
	for rows.Next() {
		var m entity.UnitMovement
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.Kind, &m.Quantity, &m.QtyBefore, &m.QtyAfter,
			&m.UnitCost, &m.TotalCost, &m.SaleRef, &m.Note, &m.CreatedBy, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		movs = append(movs, &m)
	}
	return movs, rows.Err()
}

// Create inserta un movimiento.
func (r *UnitMovementRepo) Create(ctx context.Context, m *entity.UnitMovement) error {
	query := `
		INSERT INTO unit_movements (
			id, product_id, kind, quantity, qty_before, qty_after,
			unit_cost, total_cost, sale_ref, note, created_by, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.Kind, m.Quantity, m.QtyBefore, m.QtyAfter,
		m.UnitCost, m.TotalCost, m.SaleRef, m.Note, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create unit movement: %w", err)
	}
	return nil
}

// ListByProduct movimientos de un producto, más recientes primero.
func (r *UnitMovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.UnitMovement, error) {
	query := `
		SELECT ` + unitMovementColumns + `
		FROM unit_movements
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	movs, err := r.queryMovements(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list unit movements: %w", err)
	}
	return movs, nil
}

// ListBySaleRef movimientos asociados a una referencia de venta.
func (r *UnitMovementRepo) ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.UnitMovement, error) {
	query := `SELECT ` + unitMovementColumns + ` FROM unit_movements WHERE sale_ref = $1 ORDER BY created_at ASC, id ASC`
	movs, err := r.queryMovements(ctx, query, saleRef)
	if err != nil {
		return nil, fmt.Errorf("list unit movements by sale: %w", err)
	}
	return movs, nil
}
