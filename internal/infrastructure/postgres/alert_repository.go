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

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo alertas de stock sobre PostgreSQL. La deduplicación descansa en un
// índice único parcial sobre (product_id, kind, lot_id con coalesce) filtrado
// por status = 'ACTIVE': dos transacciones concurrentes no pueden dejar dos
// alertas activas iguales.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

const alertColumns = `
	id, product_id, COALESCE(lot_id, ''), kind, priority, status, title, message,
	auto_resolvable, created_at, resolved_at, COALESCE(resolution_note, '')`

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanAlert(row rowScanner) (*entity.Alert, error) {
	var a entity.Alert
	err := row.Scan(
		&a.ID, &a.ProductID, &a.LotID, &a.Kind, &a.Priority, &a.Status, &a.Title, &a.Message,
		&a.AutoResolvable, &a.CreatedAt, &a.ResolvedAt, &a.ResolutionNote,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepo) queryAlerts(ctx context.Context, query string, args ...any) ([]*entity.Alert, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*entity.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Create inserta una alerta; domain.ErrDuplicate si ya hay una ACTIVA igual.
func (r *AlertRepo) Create(ctx context.Context, a *entity.Alert) error {
	query := `
		INSERT INTO alerts (id, product_id, lot_id, kind, priority, status, title, message, auto_resolvable, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.ProductID, nullIfEmpty(a.LotID), a.Kind, a.Priority, a.Status, a.Title, a.Message,
		a.AutoResolvable, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// GetByID obtiene una alerta; nil si no existe.
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	a, err := scanAlert(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

// ActiveExists indica si ya hay una alerta ACTIVA para la combinación.
func (r *AlertRepo) ActiveExists(ctx context.Context, productID, kind, lotID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE product_id = $1 AND kind = $2 AND COALESCE(lot_id, '') = $3 AND status = $4
		)`
	var exists bool
	err := r.q.QueryRow(ctx, query, productID, kind, lotID, entity.AlertActive).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("alert exists: %w", err)
	}
	return exists, nil
}

// ListActive alertas ACTIVAS, urgentes primero.
func (r *AlertRepo) ListActive(ctx context.Context) ([]*entity.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE status = $1
		ORDER BY CASE priority
			WHEN 'URGENT' THEN 0
			WHEN 'HIGH' THEN 1
			ELSE 2
		END, created_at ASC`
	alerts, err := r.queryAlerts(ctx, query, entity.AlertActive)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	return alerts, nil
}

// ListActiveByProduct alertas ACTIVAS de un producto.
func (r *AlertRepo) ListActiveByProduct(ctx context.Context, productID string) ([]*entity.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE product_id = $1 AND status = $2 ORDER BY created_at ASC`
	alerts, err := r.queryAlerts(ctx, query, productID, entity.AlertActive)
	if err != nil {
		return nil, fmt.Errorf("list alerts by product: %w", err)
	}
	return alerts, nil
}

// MarkAutoResolvable marca las alertas ACTIVAS del producto para el barrido.
func (r *AlertRepo) MarkAutoResolvable(ctx context.Context, productID string) error {
	query := `UPDATE alerts SET auto_resolvable = TRUE WHERE product_id = $1 AND status = $2`
	if _, err := r.q.Exec(ctx, query, productID, entity.AlertActive); err != nil {
		return fmt.Errorf("mark alerts auto-resolvable: %w", err)
	}
	return nil
}

// Resolve cierra una alerta con nota y fecha de resolución.
func (r *AlertRepo) Resolve(ctx context.Context, id, note string, at time.Time) error {
	query := `UPDATE alerts SET status = $2, resolution_note = $3, resolved_at = $4 WHERE id = $1 AND status = $5`
	tag, err := r.q.Exec(ctx, query, id, entity.AlertResolved, note, at, entity.AlertActive)
	if err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
