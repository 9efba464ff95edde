package postgres

import (
	"context"
	"fmt"

	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

var _ repository.LotMovementRepository = (*LotMovementRepo)(nil)

// LotMovementRepo libro de movimientos de quintal sobre PostgreSQL.
// Append-only: solo INSERT y SELECT, nunca UPDATE ni DELETE.
type LotMovementRepo struct {
	q Querier
}

// NewLotMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotMovementRepository(q Querier) *LotMovementRepo {
	return &LotMovementRepo{q: q}
}

const lotMovementColumns = `
	id, lot_id, kind, delta, weight_before, weight_after,
	unit_id, sale_ref, note, created_by, created_at`

func (r *LotMovementRepo) queryMovements(ctx context.Context, query string, args ...any) ([]*entity.LotMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movs []*entity.LotMovement
	for rows.Next() {
		var m entity.LotMovement
		if err := rows.Scan(
			&m.ID, &m.LotID, &m.Kind, &m.Delta, &m.WeightBefore, &m.WeightAfter,
			&m.UnitID, &m.SaleRef, &m.Note, &m.CreatedBy, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		movs = append(movs, &m)
	}
	return movs, rows.Err()
}

// Create inserta un movimiento.
func (r *LotMovementRepo) Create(ctx context.Context, m *entity.LotMovement) error {
	query := `
		INSERT INTO lot_movements (
			id, lot_id, kind, delta, weight_before, weight_after,
			unit_id, sale_ref, note, created_by, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.LotID, m.Kind, m.Delta, m.WeightBefore, m.WeightAfter,
		m.UnitID, m.SaleRef, m.Note, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create lot movement: %w", err)
	}
	return nil
}

// ListByLot todos los movimientos de un quintal, en orden cronológico.
func (r *LotMovementRepo) ListByLot(ctx context.Context, lotID string) ([]*entity.LotMovement, error) {
	query := `SELECT ` + lotMovementColumns + ` FROM lot_movements WHERE lot_id = $1 ORDER BY created_at ASC, id ASC`
	movs, err := r.queryMovements(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("list lot movements: %w", err)
	}
	return movs, nil
}

// ListBySaleRef movimientos asociados a una referencia de venta.
func (r *LotMovementRepo) ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.LotMovement, error) {
	query := `SELECT ` + lotMovementColumns + ` FROM lot_movements WHERE sale_ref = $1 ORDER BY created_at ASC, id ASC`
	movs, err := r.queryMovements(ctx, query, saleRef)
	if err != nil {
		return nil, fmt.Errorf("list movements by sale: %w", err)
	}
	return movs, nil
}
