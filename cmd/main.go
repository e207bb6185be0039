package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/adapter/memory"
	"github.com/campusmess/emess/internal/adapter/postgres"
	"github.com/campusmess/emess/internal/adapter/rabbitmq"
	"github.com/campusmess/emess/internal/app/budget"
	"github.com/campusmess/emess/internal/app/reporting"
	"github.com/campusmess/emess/internal/app/scheduling"
	"github.com/campusmess/emess/internal/config"
	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"

	amqpAdapter "github.com/campusmess/emess/internal/adapter/amqp"
	httpAdapter "github.com/campusmess/emess/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Service mode: api-service, fulfillment-worker, reporting-service, event-subscriber")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	storage := flag.String("storage", "postgres", "Storage backend: postgres, memory")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	closeInterval := flag.Int("close-interval", 60, "Expired-plan close interval in minutes (fulfillment-worker)")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port == 0 {
		*port = cfg.HTTP.Port
	}

	ctx := context.Background()

	lgr := logger.New(*mode)

	repos, closeRepos, err := buildRepositories(ctx, cfg, *storage, lgr)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeRepos()

	// Connect to RabbitMQ
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	switch *mode {
	case "api-service":
		runAPIService(ctx, cfg, repos, mqConn, lgr, *port)

	case "fulfillment-worker":
		runFulfillmentWorker(ctx, repos, mqConn, lgr, *prefetch, *closeInterval)

	case "reporting-service":
		runReportingService(ctx, cfg, repos, lgr, *port)

	case "event-subscriber":
		runEventSubscriber(ctx, mqConn, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

type repositories struct {
	slots   interfaces.SlotRepository
	plans   interfaces.PlanRepository
	orders  interfaces.OrderRepository
	catalog interfaces.CatalogRepository
	events  interfaces.EventRepository
}

func buildRepositories(ctx context.Context, cfg *config.Config, storage string, lgr logger.Logger) (repositories, func(), error) {
	switch storage {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return repositories{}, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})

		return repositories{
			slots:   postgres.NewSlotRepository(db),
			plans:   postgres.NewPlanRepository(db),
			orders:  postgres.NewOrderRepository(db),
			catalog: postgres.NewCatalogRepository(db),
			events:  postgres.NewEventRepository(db),
		}, db.Close, nil

	case "memory":
		lgr.Info("memory_storage", "Using in-memory storage with demo catalog", "startup", nil)
		return repositories{
			slots:   memory.NewSlotRepository(),
			plans:   memory.NewPlanRepository(),
			orders:  memory.NewOrderRepository(),
			catalog: memory.NewCatalogRepository(demoCategories(), demoMeals()),
			events:  memory.NewEventRepository(),
		}, func() {}, nil

	default:
		return repositories{}, nil, fmt.Errorf("invalid storage backend: %s", storage)
	}
}

func runAPIService(ctx context.Context, cfg *config.Config, repos repositories, mqConn rabbitmq.Connection, lgr logger.Logger, port int) {
	publisher := rabbitmq.NewPublisher(mqConn)

	schedulingService := scheduling.NewService(repos.slots, repos.catalog, publisher, lgr)
	budgetService := budget.NewService(repos.plans, repos.catalog, publisher, lgr)
	reportingService := reporting.NewService(repos.orders, repos.plans, repos.catalog, lgr)

	schedulingHandler := httpAdapter.NewSchedulingHandler(schedulingService, lgr)
	budgetHandler := httpAdapter.NewBudgetHandler(budgetService, lgr)
	reportingHandler := httpAdapter.NewReportingHandler(reportingService,
		cfg.Reporting.DashboardPeriodDays, cfg.Reporting.InsightsPeriodDays, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/slots", schedulingHandler.HandleSlots)
	mux.HandleFunc("/slots/", schedulingHandler.HandleSlotByID)
	mux.HandleFunc("/plans", budgetHandler.HandlePlans)
	mux.HandleFunc("/plans/", budgetHandler.HandlePlanByID)
	mux.HandleFunc("/reports/dashboard", reportingHandler.GetDashboard)
	mux.HandleFunc("/reports/insights", reportingHandler.GetInsights)

	serveHTTP(mux, lgr, port, "API Service")
}

func runFulfillmentWorker(ctx context.Context, repos repositories, mqConn rabbitmq.Connection, lgr logger.Logger, prefetch, closeInterval int) {
	publisher := rabbitmq.NewPublisher(mqConn)
	consumer := rabbitmq.NewConsumer(mqConn, prefetch)

	schedulingService := scheduling.NewService(repos.slots, repos.catalog, publisher, lgr)
	budgetService := budget.NewService(repos.plans, repos.catalog, publisher, lgr)

	fulfillmentHandler := amqpAdapter.NewFulfillmentHandler(
		schedulingService, budgetService, repos.catalog, repos.orders, repos.events, lgr)
	cancellationHandler := amqpAdapter.NewCancellationHandler(
		schedulingService, budgetService, repos.events, lgr)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lgr.Info("service_started", "Fulfillment Worker started", "startup", map[string]interface{}{
		"prefetch":       prefetch,
		"close_interval": closeInterval,
	})

	go func() {
		if err := consumer.ConsumeFulfillments(workerCtx, fulfillmentHandler.HandleFulfillment); err != nil {
			lgr.Error("consumer_error", "Error consuming fulfillments", "runtime", nil, err)
		}
	}()

	go func() {
		if err := consumer.ConsumeCancellations(workerCtx, cancellationHandler.HandleCancellation); err != nil {
			lgr.Error("consumer_error", "Error consuming cancellations", "runtime", nil, err)
		}
	}()

	// Periodically complete active plans whose window has passed.
	go func() {
		ticker := time.NewTicker(time.Duration(closeInterval) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				closed, err := budgetService.CloseExpired(workerCtx, time.Now())
				if err != nil {
					lgr.Error("plan_close_error", "Error closing expired plans", "runtime", nil, err)
					continue
				}
				if closed > 0 {
					lgr.Info("plans_closed", "Completed expired budget plans", "runtime", map[string]interface{}{
						"count": closed,
					})
				}
			}
		}
	}()

	waitForShutdown(lgr)
	cancel()
}

func runReportingService(ctx context.Context, cfg *config.Config, repos repositories, lgr logger.Logger, port int) {
	reportingService := reporting.NewService(repos.orders, repos.plans, repos.catalog, lgr)
	reportingHandler := httpAdapter.NewReportingHandler(reportingService,
		cfg.Reporting.DashboardPeriodDays, cfg.Reporting.InsightsPeriodDays, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/reports/dashboard", reportingHandler.GetDashboard)
	mux.HandleFunc("/reports/insights", reportingHandler.GetInsights)

	serveHTTP(mux, lgr, port, "Reporting Service")
}

func runEventSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger) {
	consumer := rabbitmq.NewConsumer(mqConn, 1)
	eventHandler := amqpAdapter.NewLedgerEventHandler(lgr)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lgr.Info("service_started", "Event Subscriber started", "startup", nil)

	go func() {
		if err := consumer.ConsumeLedgerEvents(subCtx, eventHandler.HandleLedgerEvent); err != nil {
			lgr.Error("consumer_error", "Error consuming ledger events", "runtime", nil, err)
		}
	}()

	waitForShutdown(lgr)
	cancel()
}

func serveHTTP(mux *http.ServeMux, lgr logger.Logger, port int, name string) {
	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("%s started on port %d", name, port), "startup", map[string]interface{}{
		"port": port,
	})

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", fmt.Sprintf("Shutting down %s", name), "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func waitForShutdown(lgr logger.Logger) {
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down", "shutdown", nil)
}

// Demo catalog for the in-memory storage backend. The real catalog lives in
// PostgreSQL and is managed outside this service.
func demoCategories() []domain.MealCategory {
	return []domain.MealCategory{
		{ID: 1, Name: "Main Course"},
		{ID: 2, Name: "Beverages"},
		{ID: 3, Name: "Snacks"},
		{ID: 4, Name: "Desserts"},
	}
}

func demoMeals() []domain.Meal {
	return []domain.Meal{
		{ID: 1, CategoryID: 1, Name: "Plov", Price: 1200_00, IsActive: true},
		{ID: 2, CategoryID: 1, Name: "Lagman", Price: 1100_00, IsActive: true},
		{ID: 3, CategoryID: 2, Name: "Green Tea", Price: 200_00, IsActive: true},
		{ID: 4, CategoryID: 3, Name: "Samsa", Price: 450_00, IsActive: true},
		{ID: 5, CategoryID: 4, Name: "Baursak", Price: 300_00, IsActive: true},
	}
}
