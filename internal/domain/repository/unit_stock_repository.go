package repository

import (
	"context"

	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// UnitStockRepository puerto para el stock por unidades (un registro por producto).
type UnitStockRepository interface {
	Get(ctx context.Context, productID string) (*entity.UnitStock, error)
	// GetForUpdate bloquea la fila de stock (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID string) (*entity.UnitStock, error)
	Upsert(ctx context.Context, stock *entity.UnitStock) error
}

// UnitMovementRepository puerto para el libro de movimientos por unidades
// (append-only, misma semántica que los movimientos de quintal).
type UnitMovementRepository interface {
	Create(ctx context.Context, m *entity.UnitMovement) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.UnitMovement, error)
	ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.UnitMovement, error)
}
