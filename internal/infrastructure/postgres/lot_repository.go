package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
// La columna seq es BIGSERIAL: desempate determinista del orden FIFO cuando dos
// quintales comparten fecha de recepción.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de quintales. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `
	id, seq, code, product_id, supplier_id, initial_weight, current_weight,
	unit_id, cost_per_unit, total_cost, received_at, expires_at,
	supplier_lot, invoice_number, origin, state, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (*entity.Lot, error) {
	var l entity.Lot
	err := row.Scan(
		&l.ID, &l.Seq, &l.Code, &l.ProductID, &l.SupplierID, &l.InitialWeight, &l.CurrentWeight,
		&l.UnitID, &l.CostPerUnit, &l.TotalCost, &l.ReceivedAt, &l.ExpiresAt,
		&l.SupplierLot, &l.InvoiceNumber, &l.Origin, &l.State, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LotRepo) queryLots(ctx context.Context, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*entity.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

// Create inserta el quintal. seq lo asigna la BD (BIGSERIAL).
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	query := `
		INSERT INTO lots (
			id, code, product_id, supplier_id, initial_weight, current_weight,
			unit_id, cost_per_unit, total_cost, received_at, expires_at,
			supplier_lot, invoice_number, origin, state, created_by, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		lot.ID, lot.Code, lot.ProductID, lot.SupplierID, lot.InitialWeight, lot.CurrentWeight,
		lot.UnitID, lot.CostPerUnit, lot.TotalCost, lot.ReceivedAt, lot.ExpiresAt,
		lot.SupplierLot, lot.InvoiceNumber, lot.Origin, lot.State, lot.CreatedBy, lot.CreatedAt, lot.UpdatedAt,
	).Scan(&lot.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

// GetByID obtiene un quintal por id; nil si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1`
	l, err := scanLot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return l, nil
}

// GetByCode obtiene un quintal por código único; nil si no existe.
func (r *LotRepo) GetByCode(ctx context.Context, code string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE code = $1`
	l, err := scanLot(r.q.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot by code: %w", err)
	}
	return l, nil
}

// GetForUpdate obtiene el quintal y bloquea la fila (SELECT FOR UPDATE).
func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1 FOR UPDATE`
	l, err := scanLot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot for update: %w", err)
	}
	return l, nil
}

// AvailableByProduct quintales disponibles con peso, en orden FIFO.
func (r *LotRepo) AvailableByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE product_id = $1 AND state = $2 AND current_weight > 0
		ORDER BY received_at ASC, seq ASC`
	lots, err := r.queryLots(ctx, query, productID, entity.LotStateAvailable)
	if err != nil {
		return nil, fmt.Errorf("available lots: %w", err)
	}
	return lots, nil
}

// ActiveByProduct quintales no agotados (incluye retenciones administrativas).
func (r *LotRepo) ActiveByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE product_id = $1 AND state <> $2
		ORDER BY received_at ASC, seq ASC`
	lots, err := r.queryLots(ctx, query, productID, entity.LotStateDepleted)
	if err != nil {
		return nil, fmt.Errorf("active lots: %w", err)
	}
	return lots, nil
}

// UpdateWeight persiste peso y estado nuevos del quintal.
func (r *LotRepo) UpdateWeight(ctx context.Context, lot *entity.Lot) error {
	query := `UPDATE lots SET current_weight = $2, state = $3, updated_at = $4 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, lot.ID, lot.CurrentWeight, lot.State, lot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update lot weight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByProduct listado paginado, más recientes primero (histórico incluido).
func (r *LotRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE product_id = $1
		ORDER BY received_at DESC, seq DESC
		LIMIT $2 OFFSET $3`
	lots, err := r.queryLots(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return lots, nil
}

// Expiring quintales disponibles con vencimiento dentro de [now, now+days].
func (r *LotRepo) Expiring(ctx context.Context, now time.Time, days int) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE state = $1 AND current_weight > 0
		  AND expires_at IS NOT NULL
		  AND expires_at BETWEEN $2 AND $3
		ORDER BY expires_at ASC`
	lots, err := r.queryLots(ctx, query, entity.LotStateAvailable, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("expiring lots: %w", err)
	}
	return lots, nil
}

// BelowPercent quintales disponibles con porcentaje restante <= pct.
func (r *LotRepo) BelowPercent(ctx context.Context, pct int64) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE state = $1 AND current_weight > 0
		  AND initial_weight > 0
		  AND (current_weight / initial_weight) * 100 <= $2
		ORDER BY received_at ASC, seq ASC`
	lots, err := r.queryLots(ctx, query, entity.LotStateAvailable, pct)
	if err != nil {
		return nil, fmt.Errorf("lots below percent: %w", err)
	}
	return lots, nil
}
