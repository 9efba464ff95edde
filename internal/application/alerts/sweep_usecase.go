package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	appinv "github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	invdomain "github.com/commercebox/quintal-core/internal/domain/inventory"
	"github.com/commercebox/quintal-core/pkg/logger"
)

// SweepUseCase barridos periódicos sobre alertas y quintales: resolución
// diferida de alertas marcadas, detección de quintales críticos y de próximos
// a vencer. Pensado para correr desde un binario de tareas programadas.
type SweepUseCase struct {
	txRunner   appinv.TxRunner
	publisher  AlertPublisher
	thresholds invdomain.Thresholds
	log        *logger.Logger
}

// NewSweepUseCase construye el caso de uso. publisher puede ser nil.
func NewSweepUseCase(
	txRunner appinv.TxRunner,
	publisher AlertPublisher,
	thresholds invdomain.Thresholds,
	log *logger.Logger,
) *SweepUseCase {
	return &SweepUseCase{
		txRunner:   txRunner,
		publisher:  publisher,
		thresholds: thresholds,
		log:        log,
	}
}

// ResolveStaleAlerts resuelve las alertas ACTIVAS marcadas como resolubles por
// una mejora de estado posterior. Devuelve cuántas resolvió.
func (uc *SweepUseCase) ResolveStaleAlerts(ctx context.Context) (int, error) {
	now := time.Now()
	resolved := 0
	err := uc.txRunner.Run(ctx, func(r appinv.TxRepos) error {
		active, err := r.Alerts.ListActive(ctx)
		if err != nil {
			return err
		}
		for _, a := range active {
			if !a.AutoResolvable {
				continue
			}
			if err := r.Alerts.Resolve(ctx, a.ID, "resuelta por barrido: el stock se recuperó", now); err != nil {
				return err
			}
			resolved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return resolved, nil
}

// CheckCriticalLots emite una alerta LOT_CRITICAL por cada quintal disponible
// cuyo porcentaje restante está en o bajo el umbral crítico. A lo sumo una
// ACTIVA por quintal.
func (uc *SweepUseCase) CheckCriticalLots(ctx context.Context) (int, error) {
	now := time.Now()
	var created []*entity.Alert

	err := uc.txRunner.Run(ctx, func(r appinv.TxRepos) error {
		lots, err := r.Lots.BelowPercent(ctx, uc.thresholds.CriticalPct.IntPart())
		if err != nil {
			return err
		}
		for _, lot := range lots {
			alert, err := uc.emitLotAlert(ctx, r, lot, entity.AlertLotCritical, entity.PriorityHigh,
				fmt.Sprintf("Quintal %s crítico", lot.Code),
				fmt.Sprintf("quedan %s de %s (%s%%)", lot.CurrentWeight, lot.InitialWeight, lot.PercentRemaining().Round(1)),
				now)
			if err != nil {
				return err
			}
			if alert != nil {
				created = append(created, alert)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	uc.publish(ctx, created)
	return len(created), nil
}

// CheckExpiringLots emite una alerta LOT_EXPIRING por cada quintal disponible
// que vence dentro de la ventana configurada. Prioridad HIGH si vence en tres
// días o menos.
func (uc *SweepUseCase) CheckExpiringLots(ctx context.Context) (int, error) {
	now := time.Now()
	var created []*entity.Alert

	err := uc.txRunner.Run(ctx, func(r appinv.TxRepos) error {
		lots, err := r.Lots.Expiring(ctx, now, uc.thresholds.ExpiryDays)
		if err != nil {
			return err
		}
		for _, lot := range lots {
			days := lot.DaysToExpiry(now)
			priority := entity.PriorityMedium
			if days >= 0 && days <= 3 {
				priority = entity.PriorityHigh
			}
			alert, err := uc.emitLotAlert(ctx, r, lot, entity.AlertLotExpiring, priority,
				fmt.Sprintf("Quintal %s por vencer", lot.Code),
				fmt.Sprintf("vence en %d días (%s restantes)", days, lot.CurrentWeight),
				now)
			if err != nil {
				return err
			}
			if alert != nil {
				created = append(created, alert)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	uc.publish(ctx, created)
	return len(created), nil
}

func (uc *SweepUseCase) emitLotAlert(ctx context.Context, r appinv.TxRepos, lot *entity.Lot, kind, priority, title, message string, now time.Time) (*entity.Alert, error) {
	exists, err := r.Alerts.ActiveExists(ctx, lot.ProductID, kind, lot.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}
	alert := &entity.Alert{
		ID:        uuid.New().String(),
		ProductID: lot.ProductID,
		LotID:     lot.ID,
		Kind:      kind,
		Priority:  priority,
		Status:    entity.AlertActive,
		Title:     title,
		Message:   message,
		CreatedAt: now,
	}
	if err := r.Alerts.Create(ctx, alert); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, nil
		}
		return nil, err
	}
	return alert, nil
}

func (uc *SweepUseCase) publish(ctx context.Context, alertList []*entity.Alert) {
	if uc.publisher == nil {
		return
	}
	for _, a := range alertList {
		if err := uc.publisher.PublishAlert(ctx, a); err != nil {
			uc.log.Error().Err(err).
				Str("alert_id", a.ID).
				Str("lot_id", a.LotID).
				Msg("error publicando alerta de quintal")
		}
	}
}
