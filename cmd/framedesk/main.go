package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	. "github.com/framehaus/framedesk/internal"
)

const startupSweepDelay = time.Minute

func main() {
	//decimals at json as string
	//https://github.com/shopspring/decimal/issues/21
	decimal.MarshalJSONWithoutQuotes = true

	cfg := NewConfig()
	z, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	sugaredLogger := z.Sugar()

	store, err := NewFileStore(cfg.OrdersDir, sugaredLogger)
	if err != nil {
		sugaredLogger.Fatal(err)
	}

	metrics := NewMetrics()
	automation := NewVendorClient(cfg.VendorAddress, cfg.AutomationTimeout, sugaredLogger)
	engine := NewEngine(store, automation, metrics, sugaredLogger)
	worker := NewWorker(engine, sugaredLogger)
	scheduler := NewScheduler(store, engine, sugaredLogger)
	sweeper := NewSweeper(store, sugaredLogger)

	service := NewService(store, worker, metrics, sugaredLogger)
	handlers := NewHandlers(service, scheduler, metrics, sugaredLogger)

	app := fiber.New()
	app.Use(logger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))
	app.Use(MetricsMiddleware(metrics))

	app.Get("/status", handlers.Status)

	api := app.Group("/api")

	// public, registered ahead of the key check
	api.Get("/status", handlers.Status)
	api.Get("/metrics", handlers.GetMetrics)

	api.Use(APIKeyMiddleware(cfg, sugaredLogger))

	api.Get("/orders", handlers.ListOrders)
	api.Post("/process-orders", handlers.ProcessOrders)
	api.Get("/order-status/:orderId", handlers.OrderStatus)
	api.Post("/retry-order/:orderId", handlers.RetryOrder)
	api.Post("/run-scheduled-processing", handlers.RunScheduledProcessing)

	pos := api.Group("/pos")
	pos.Post("/orders", handlers.PosOrder)
	pos.Post("/orders/:orderId/approve", handlers.ApproveOrder)
	pos.Post("/orders/:orderId/reject", handlers.RejectOrder)
	pos.Get("/pending-approvals", handlers.PendingApprovals)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	crontab := cron.New()
	// vendor order batches go out Monday and Wednesday mornings
	_, err = crontab.AddFunc("0 10 * * 1,3", func() {
		if _, err := scheduler.RunOnce(ctx); err != nil {
			sugaredLogger.Errorf("scheduled processing: %s", err)
		}
	})
	if err != nil {
		sugaredLogger.Fatal(err)
	}
	_, err = crontab.AddFunc("0 0 * * *", func() {
		if _, err := sweeper.Sweep(ctx, cfg.RetentionDays); err != nil {
			sugaredLogger.Errorf("retention sweep: %s", err)
		}
	})
	if err != nil {
		sugaredLogger.Fatal(err)
	}
	crontab.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Listen(cfg.RunAddress)
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-time.After(startupSweepDelay):
		}
		_, err := sweeper.Sweep(gctx, cfg.RetentionDays)
		if err != nil {
			sugaredLogger.Errorf("startup retention sweep: %s", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sugaredLogger.Info("Shutting down service...")
		crontab.Stop()
		return app.Shutdown()
	})

	err = g.Wait()
	if err != nil {
		sugaredLogger.Fatal(err)
	}
}
