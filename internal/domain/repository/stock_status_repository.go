package repository

import (
	"context"

	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// StockStatusRepository puerto para la caché derivada de estado de stock.
type StockStatusRepository interface {
	Get(ctx context.Context, productID string) (*entity.StockStatus, error)
	Upsert(ctx context.Context, status *entity.StockStatus) error
	RequiringAttention(ctx context.Context) ([]*entity.StockStatus, error)
	ListAll(ctx context.Context) ([]*entity.StockStatus, error)
}

// StatusChangeRepository puerto para el historial de transiciones de semáforo
// (append-only).
type StatusChangeRepository interface {
	Create(ctx context.Context, change *entity.StatusChange) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StatusChange, error)
}
