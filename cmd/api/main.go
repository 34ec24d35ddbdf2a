package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/avelkov/craftstock-backend/api/routes"
	"github.com/avelkov/craftstock-backend/internal/catalog"
	"github.com/avelkov/craftstock-backend/internal/consumption"
	"github.com/avelkov/craftstock-backend/internal/expenses"
	"github.com/avelkov/craftstock-backend/internal/orders"
	"github.com/avelkov/craftstock-backend/internal/recipes"
	"github.com/avelkov/craftstock-backend/internal/sales"
	"github.com/avelkov/craftstock-backend/internal/stock"
	"github.com/avelkov/craftstock-backend/internal/writeoffs"
	"github.com/avelkov/craftstock-backend/pkg/config"
	"github.com/avelkov/craftstock-backend/pkg/db"
	"github.com/avelkov/craftstock-backend/pkg/logger"
	"github.com/avelkov/craftstock-backend/pkg/metrics"
	"github.com/avelkov/craftstock-backend/pkg/migrate"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	stockMetrics := metrics.NewStockMetrics(registry)

	svcs, err := buildServices(dbClient, stockMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	if _, err := svcs.Catalog.EnsureDefaultStockCategory(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to ensure default stock category", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, registry, svcs),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := multierr.Append(
		server.Shutdown(shutdownCtx),
		dbClient.Close(),
	)
	if shutdownErr != nil {
		logg.Error(ctx, "shutdown finished with errors", shutdownErr)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func buildServices(dbClient *db.Client, stockMetrics *metrics.StockMetrics, logg *logger.Logger) (routes.Services, error) {
	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	stockRepo := stock.NewRepository(conn)
	recipesRepo := recipes.NewRepository(conn)
	salesRepo := sales.NewRepository(conn)

	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		return routes.Services{}, err
	}
	stockSvc, err := stock.NewService(stockRepo, catalogSvc)
	if err != nil {
		return routes.Services{}, err
	}
	recipesSvc, err := recipes.NewService(recipesRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	coordinator, err := consumption.NewCoordinator(stockRepo, recipesRepo, dbClient, stockMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}
	salesSvc, err := sales.NewService(salesRepo, recipesRepo, coordinator, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	ordersSvc, err := orders.NewService(orders.NewRepository(conn), recipesRepo, salesRepo, coordinator, dbClient, logg)
	if err != nil {
		return routes.Services{}, err
	}
	expensesSvc, err := expenses.NewService(expenses.NewRepository(conn), stockRepo, catalogRepo, dbClient, stockMetrics)
	if err != nil {
		return routes.Services{}, err
	}
	writeoffsSvc, err := writeoffs.NewService(writeoffs.NewRepository(conn), stockSvc, stockRepo, catalogRepo, coordinator, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Catalog:   catalogSvc,
		Stock:     stockSvc,
		Recipes:   recipesSvc,
		Sales:     salesSvc,
		Orders:    ordersSvc,
		Expenses:  expensesSvc,
		WriteOffs: writeoffsSvc,
	}, nil
}
