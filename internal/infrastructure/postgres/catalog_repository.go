package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)
var _ repository.SupplierRepository = (*SupplierRepo)(nil)
var _ repository.WeightUnitRepository = (*WeightUnitRepo)(nil)

// ProductRepo acceso de solo lectura al catálogo de productos.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `
	id, sku, name, category, tracking_mode, COALESCE(base_unit_id, ''), active, created_at, updated_at`

// GetByID obtiene un producto; nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.TrackingMode, &p.BaseUnitID, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ListActive productos activos del catálogo.
func (r *ProductRepo) ListActive(ctx context.Context) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active ORDER BY name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	defer rows.Close()

	var products []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(
			&p.ID, &p.SKU, &p.Name, &p.Category, &p.TrackingMode, &p.BaseUnitID, &p.Active, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// SupplierRepo acceso de solo lectura a proveedores.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// GetByID obtiene un proveedor; nil si no existe.
func (r *SupplierRepo) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	query := `SELECT id, name, tax_id, active, created_at FROM suppliers WHERE id = $1`
	var s entity.Supplier
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.TaxID, &s.Active, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &s, nil
}

// WeightUnitRepo catálogo de unidades de peso.
type WeightUnitRepo struct {
	q Querier
}

// NewWeightUnitRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWeightUnitRepository(q Querier) *WeightUnitRepo {
	return &WeightUnitRepo{q: q}
}

// GetByID obtiene una unidad de peso; nil si no existe.
func (r *WeightUnitRepo) GetByID(ctx context.Context, id string) (*entity.WeightUnit, error) {
	query := `SELECT id, name, abbreviation, factor_to_kg, active FROM weight_units WHERE id = $1`
	var u entity.WeightUnit
	err := r.q.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Abbreviation, &u.FactorToKg, &u.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get weight unit: %w", err)
	}
	return &u, nil
}

// ListActive unidades de peso activas.
func (r *WeightUnitRepo) ListActive(ctx context.Context) ([]entity.WeightUnit, error) {
	query := `SELECT id, name, abbreviation, factor_to_kg, active FROM weight_units WHERE active ORDER BY name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list weight units: %w", err)
	}
	defer rows.Close()

	var units []entity.WeightUnit
	for rows.Next() {
		var u entity.WeightUnit
		if err := rows.Scan(&u.ID, &u.Name, &u.Abbreviation, &u.FactorToKg, &u.Active); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}
