package repository

import (
	"context"
	"time"

	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// LotRepository define el puerto para el libro de quintales.
// Los quintales nunca se eliminan; la mutación de peso pasa siempre por el
// registrador de movimientos dentro de una transacción.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	GetByCode(ctx context.Context, code string) (*entity.Lot, error)

	// GetForUpdate bloquea la fila del quintal (SELECT FOR UPDATE) para
	// revalidar el peso antes de decrementarlo.
	GetForUpdate(ctx context.Context, id string) (*entity.Lot, error)

	// AvailableByProduct devuelve los quintales con estado AVAILABLE y peso > 0,
	// ordenados por fecha de recepción ascendente y secuencia de inserción
	// (orden FIFO determinista).
	AvailableByProduct(ctx context.Context, productID string) ([]*entity.Lot, error)

	// ActiveByProduct incluye además los quintales en retención administrativa
	// (RESERVED/DAMAGED); se usa para agregados del semáforo.
	ActiveByProduct(ctx context.Context, productID string) ([]*entity.Lot, error)

	// UpdateWeight persiste el nuevo peso y estado del quintal.
	UpdateWeight(ctx context.Context, lot *entity.Lot) error

	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Lot, error)

	// Expiring quintales disponibles con vencimiento dentro de la ventana [now, now+days].
	Expiring(ctx context.Context, now time.Time, days int) ([]*entity.Lot, error)

	// BelowPercent quintales disponibles con peso > 0 cuyo porcentaje restante
	// es menor o igual al umbral.
	BelowPercent(ctx context.Context, pct int64) ([]*entity.Lot, error)
}

// LotMovementRepository define el puerto para el libro de movimientos
// (append-only: sin updates ni deletes).
type LotMovementRepository interface {
	Create(ctx context.Context, m *entity.LotMovement) error
	ListByLot(ctx context.Context, lotID string) ([]*entity.LotMovement, error)
	ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.LotMovement, error)
}
