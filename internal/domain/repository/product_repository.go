package repository

import (
	"context"

	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// ProductRepository puerto de solo lectura sobre el catálogo de productos.
// El núcleo de inventario referencia productos por id; su administración es
// de otro módulo.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	ListActive(ctx context.Context) ([]*entity.Product, error)
}

// SupplierRepository puerto de solo lectura sobre proveedores.
type SupplierRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
}

// WeightUnitRepository puerto sobre el catálogo de unidades de peso.
type WeightUnitRepository interface {
	GetByID(ctx context.Context, id string) (*entity.WeightUnit, error)
	ListActive(ctx context.Context) ([]entity.WeightUnit, error)
}
