package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	appalerts "github.com/commercebox/quintal-core/internal/application/alerts"
	appinv "github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/application/reports"
	invdomain "github.com/commercebox/quintal-core/internal/domain/inventory"
	infrakafka "github.com/commercebox/quintal-core/internal/infrastructure/kafka"
	"github.com/commercebox/quintal-core/internal/infrastructure/postgres"
	httpRouter "github.com/commercebox/quintal-core/internal/interfaces/http"
	"github.com/commercebox/quintal-core/pkg/config"
	"github.com/commercebox/quintal-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	unitRepo := postgres.NewWeightUnitRepository(pool)
	lotRepo := postgres.NewLotRepository(pool)
	lotMovRepo := postgres.NewLotMovementRepository(pool)
	unitMovRepo := postgres.NewUnitMovementRepository(pool)
	statusRepo := postgres.NewStockStatusRepository(pool)
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
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicación de alertas habilitada")
	}

	statusUC := appalerts.NewStatusUseCase(txRunner, productRepo, publisher, thresholds, log)
	receiveUC := appinv.NewReceiveLotUseCase(txRunner, productRepo, supplierRepo, unitRepo, statusUC)
	consumeUC := appinv.NewConsumeForSaleUseCase(txRunner, productRepo, lotRepo, statusUC, log)
	reverseUC := appinv.NewReverseConsumptionUseCase(txRunner, productRepo, statusUC)
	adjustUC := appinv.NewAdjustStockUseCase(txRunner, productRepo, statusUC)
	reportUC := reports.NewReportUseCase(lotRepo, lotMovRepo, unitMovRepo, statusRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		ReceiveLot: receiveUC,
		Consume:    consumeUC,
		Reverse:    reverseUC,
		Adjust:     adjustUC,
		Status:     statusUC,
		Reports:    reportUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
