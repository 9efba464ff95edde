package alerts

import (
	"context"

	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// AlertPublisher publica alertas hacia el exterior (broker de eventos).
// La publicación ocurre después del commit y es best-effort: un fallo se
// registra pero nunca revierte la operación de inventario que la originó.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *entity.Alert) error
}
