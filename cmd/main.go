package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/PetCare-SlotService/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/m04kA/PetCare-SlotService/internal/api/handlers/complete_booking"
	createBookingHandler "github.com/m04kA/PetCare-SlotService/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/m04kA/PetCare-SlotService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/PetCare-SlotService/internal/api/handlers/get_booking"
	getScheduleConfigHandler "github.com/m04kA/PetCare-SlotService/internal/api/handlers/get_schedule_config"
	getServiceBookingsHandler "github.com/m04kA/PetCare-SlotService/internal/api/handlers/get_service_bookings"
	getUserBookingsHandler "github.com/m04kA/PetCare-SlotService/internal/api/handlers/get_user_bookings"
	publishScheduleConfigHandler "github.com/m04kA/PetCare-SlotService/internal/api/handlers/publish_schedule_config"
	rescheduleBookingHandler "github.com/m04kA/PetCare-SlotService/internal/api/handlers/reschedule_booking"
	"github.com/m04kA/PetCare-SlotService/internal/api/middleware"
	"github.com/m04kA/PetCare-SlotService/internal/config"
	"github.com/m04kA/PetCare-SlotService/internal/domain"
	redisCapacity "github.com/m04kA/PetCare-SlotService/internal/infra/cache/capacity"
	scheduleCache "github.com/m04kA/PetCare-SlotService/internal/infra/cache/schedule"
	memoryCapacity "github.com/m04kA/PetCare-SlotService/internal/infra/memory/capacity"
	bookingRepo "github.com/m04kA/PetCare-SlotService/internal/infra/storage/booking"
	capacityRepo "github.com/m04kA/PetCare-SlotService/internal/infra/storage/capacity"
	scheduleRepo "github.com/m04kA/PetCare-SlotService/internal/infra/storage/schedule"
	"github.com/m04kA/PetCare-SlotService/internal/integrations/availabilitycache"
	scheduleService "github.com/m04kA/PetCare-SlotService/internal/service/schedule"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler"
	"github.com/m04kA/PetCare-SlotService/internal/worker/reconciler"
	"github.com/m04kA/PetCare-SlotService/pkg/dbmetrics"
	"github.com/m04kA/PetCare-SlotService/pkg/logger"
	"github.com/m04kA/PetCare-SlotService/pkg/metrics"
	"github.com/m04kA/PetCare-SlotService/pkg/migrator"
	"github.com/m04kA/PetCare-SlotService/pkg/txmanager"
)

// capacityLedger ledger, который обслуживает и бронирования, и сверку
type capacityLedger interface {
	scheduler.CapacityLedger
	reconciler.Ledger
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting PetCare-SlotService...")

	location, err := cfg.Scheduler.Location()
	if err != nil {
		log.Fatal("Invalid scheduler timezone: %v", err)
	}

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if cfg.Database.AutoMigrate {
		if err := migrator.Up(db, cfg.Database.MigrationsPath); err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
		log.Info("Migrations applied from %s", cfg.Database.MigrationsPath)
	}

	// Обёртка с метриками работает и с nil коллектором
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
	txMgr := txmanager.New(wrappedDB, log)

	// Redis нужен для ledger на Redis и для инвалидации кэша доступности
	var rdb *redis.Client
	if cfg.Ledger.Backend == config.LedgerBackendRedis || cfg.Cache.AvailabilityEnabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: time.Duration(cfg.Redis.DialTimeout) * time.Second,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.DialTimeout)*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis is not reachable at %s: %v", cfg.Redis.Addr, err)
		}
		cancel()
	}

	// Репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)
	schedules := scheduleCache.New(
		scheduleRepository,
		time.Duration(cfg.Cache.ScheduleTTL)*time.Second,
		time.Duration(cfg.Cache.ScheduleCleanup)*time.Second,
	)

	// Ledger
	var ledger capacityLedger
	switch cfg.Ledger.Backend {
	case config.LedgerBackendRedis:
		ledger = redisCapacity.NewLedger(rdb, cfg.Ledger.OperationTimeout())
	case config.LedgerBackendMemory:
		ledger = memoryCapacity.NewLedger()
	default:
		ledger = capacityRepo.NewRepository(wrappedDB, cfg.Ledger.OperationTimeout())
	}
	log.Info("Capacity ledger backend: %s (transactional=%t)", cfg.Ledger.Backend, ledger.Transactional())

	var invalidator scheduler.CacheInvalidator = availabilitycache.Nop{}
	if cfg.Cache.AvailabilityEnabled {
		invalidator = availabilitycache.NewClient(rdb, cfg.Cache.AvailabilityPrefix,
			cfg.Ledger.OperationTimeout(), metricsCollector, log)
	}

	// Сервисы
	slotScheduler := scheduler.NewService(
		schedules,
		bookingRepository,
		ledger,
		txMgr,
		invalidator,
		metricsCollector,
		log,
		scheduler.Options{
			Location:       location,
			ShowFullSlots:  cfg.Scheduler.ShowFullSlots,
			InitialStatus:  domain.BookingStatus(cfg.Scheduler.InitialStatus),
			ReserveRetries: cfg.Scheduler.ReserveRetries,
			RetryInterval:  time.Duration(cfg.Scheduler.RetryIntervalMs) * time.Millisecond,
		},
	)
	scheduleSvc := scheduleService.NewService(schedules, location, log).WithInvalidator(invalidator)

	// Фоновая сверка ledger с бронированиями
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if cfg.Reconciler.Enabled {
		w := reconciler.NewWorker(
			ledger,
			bookingRepository,
			metricsCollector,
			log,
			time.Duration(cfg.Reconciler.Interval)*time.Second,
			time.Duration(cfg.Reconciler.GracePeriod)*time.Second,
			cfg.Reconciler.BatchSize,
		)
		go w.Start(workerCtx)
	}

	// Handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(slotScheduler, log)
	createBooking := createBookingHandler.NewHandler(slotScheduler, log)
	getBooking := getBookingHandler.NewHandler(slotScheduler, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(slotScheduler, log)
	cancelBooking := cancelBookingHandler.NewHandler(slotScheduler, log)
	completeBooking := completeBookingHandler.NewHandler(slotScheduler, log)
	getUserBookings := getUserBookingsHandler.NewHandler(slotScheduler, log)
	getServiceBookings := getServiceBookingsHandler.NewHandler(slotScheduler, log)
	getScheduleConfig := getScheduleConfigHandler.NewHandler(scheduleSvc, log)
	publishScheduleConfig := publishScheduleConfigHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := wrappedDB.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Ограничение частоты для изменяющих запросов
	rateLimited := func(h http.Handler) http.Handler { return h }
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 3*time.Minute)
		defer limiter.Stop()
		rateLimited = limiter.Middleware
	}

	// Защищенные маршруты требуют X-User-ID, административные еще и X-User-Role: admin
	protected := func(h http.HandlerFunc) http.Handler { return middleware.Auth(h) }
	mutating := func(h http.HandlerFunc) http.Handler { return middleware.Auth(rateLimited(h)) }
	adminOnly := func(h http.HandlerFunc) http.Handler { return middleware.Auth(middleware.RequireAdmin(h)) }

	// ============================================================
	// PUBLIC ROUTES
	// ============================================================

	api.HandleFunc("/services/{serviceId}/slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES
	// ============================================================

	api.Handle("/services/{serviceId}/bookings", mutating(createBooking.Handle)).Methods(http.MethodPost)
	api.Handle("/bookings/{bookingId}", protected(getBooking.Handle)).Methods(http.MethodGet)
	api.Handle("/bookings/{bookingId}/reschedule", mutating(rescheduleBooking.Handle)).Methods(http.MethodPut)
	api.Handle("/bookings/{bookingId}/cancel", mutating(cancelBooking.Handle)).Methods(http.MethodPut)
	api.Handle("/users/me/bookings", protected(getUserBookings.Handle)).Methods(http.MethodGet)

	// ============================================================
	// ADMIN ROUTES
	// ============================================================

	api.Handle("/bookings/{bookingId}/complete", adminOnly(completeBooking.Handle)).Methods(http.MethodPut)
	api.Handle("/services/{serviceId}/bookings", adminOnly(getServiceBookings.Handle)).Methods(http.MethodGet)
	api.Handle("/services/{serviceId}/schedule-config", adminOnly(getScheduleConfig.Handle)).Methods(http.MethodGet)
	api.Handle("/services/{serviceId}/schedule-config", adminOnly(publishScheduleConfig.Handle)).Methods(http.MethodPost)
	api.Handle("/services/{serviceId}/schedule-config/versions", adminOnly(getScheduleConfig.HandleVersions)).Methods(http.MethodGet)
	api.Handle("/services/{serviceId}/schedule-config/versions/{version}", adminOnly(getScheduleConfig.HandleVersion)).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	stopWorkers()
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
