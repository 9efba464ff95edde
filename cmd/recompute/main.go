// Binario de tareas programadas: recalcula el semáforo de todos los productos,
// resuelve alertas marcadas y barre quintales críticos y próximos a vencer.
// Pensado para correr periódicamente (cron) junto al servidor API.
package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	appalerts "github.com/commercebox/quintal-core/internal/application/alerts"
	invdomain "github.com/commercebox/quintal-core/internal/domain/inventory"
	infrakafka "github.com/commercebox/quintal-core/internal/infrastructure/kafka"
	"github.com/commercebox/quintal-core/internal/infrastructure/postgres"
	"github.com/commercebox/quintal-core/pkg/config"
	"github.com/commercebox/quintal-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	thresholds := invdomain.Thresholds{
		CriticalPct:       decimal.NewFromInt(int64(cfg.Alerts.CriticalPct)),
		LowPct:            decimal.NewFromInt(int64(cfg.Alerts.LowPct)),
		UnitLowMultiplier: decimal.NewFromInt(int64(cfg.Alerts.UnitLowMultiplier)),
		ExpiryDays:        cfg.Alerts.ExpiryDays,
	}

	var publisher appalerts.AlertPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := infrakafka.NewAlertPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	statusUC := appalerts.NewStatusUseCase(txRunner, productRepo, publisher, thresholds, log)
	sweepUC := appalerts.NewSweepUseCase(txRunner, publisher, thresholds, log)

	summary, err := statusUC.RecomputeAll(ctx, "recálculo programado")
	if err != nil {
		log.Fatal().Err(err).Msg("recálculo masivo")
	}
	log.Info().
		Int("total", summary.Total).
		Int("procesados", summary.Processed).
		Int("fallidos", summary.Failed).
		Msg("recálculo de semáforo completado")

	resolved, err := sweepUC.ResolveStaleAlerts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("resolución de alertas")
	} else {
		log.Info().Int("resueltas", resolved).Msg("alertas resueltas por barrido")
	}

	critical, err := sweepUC.CheckCriticalLots(ctx)
	if err != nil {
		log.Error().Err(err).Msg("barrido de quintales críticos")
	} else {
		log.Info().Int("alertas", critical).Msg("quintales críticos revisados")
	}

	expiring, err := sweepUC.CheckExpiringLots(ctx)
	if err != nil {
		log.Error().Err(err).Msg("barrido de vencimientos")
	} else {
		log.Info().Int("alertas", expiring).Msg("vencimientos revisados")
	}
}
