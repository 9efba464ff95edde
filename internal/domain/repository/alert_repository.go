package repository

import (
	"context"
	"time"

	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// AlertRepository puerto para alertas de stock. La deduplicación (a lo sumo
// una ACTIVA por producto+tipo+quintal) se garantiza en escritura: Create
// devuelve domain.ErrDuplicate ante el índice único parcial.
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.Alert) error
	GetByID(ctx context.Context, id string) (*entity.Alert, error)
	ActiveExists(ctx context.Context, productID, kind, lotID string) (bool, error)
	ListActive(ctx context.Context) ([]*entity.Alert, error)
	ListActiveByProduct(ctx context.Context, productID string) ([]*entity.Alert, error)

	// MarkAutoResolvable marca las alertas ACTIVAS de un producto como
	// resolubles por el barrido (la mejora de estado no resuelve en línea).
	MarkAutoResolvable(ctx context.Context, productID string) error

	Resolve(ctx context.Context, id, note string, at time.Time) error
}
