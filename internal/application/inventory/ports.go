package inventory

import (
	"context"

	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

// TxRepos agrupa los repositorios atados a una misma transacción de BD.
type TxRepos struct {
	Lots       repository.LotRepository
	LotMovs    repository.LotMovementRepository
	UnitStocks repository.UnitStockRepository
	UnitMovs   repository.UnitMovementRepository
	Statuses   repository.StockStatusRepository
	Changes    repository.StatusChangeRepository
	Alerts     repository.AlertRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// inventario: o se confirman todos los efectos de una operación o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}

// StatusRecomputer recalcula el semáforo de stock de un producto dentro de la
// transacción del caller y devuelve las alertas creadas, para publicarlas
// después del commit. Implementado por alerts.StatusUseCase.
type StatusRecomputer interface {
	RecomputeInTx(ctx context.Context, r TxRepos, product *entity.Product, reason string) (*entity.StockStatus, []*entity.Alert, error)
	PublishAlerts(ctx context.Context, alerts []*entity.Alert)
}
