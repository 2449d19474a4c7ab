// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boatmonitor/hub/api"
	"github.com/boatmonitor/hub/internal/cache"
	"github.com/boatmonitor/hub/internal/cleanup"
	"github.com/boatmonitor/hub/internal/config"
	"github.com/boatmonitor/hub/internal/dashboard"
	"github.com/boatmonitor/hub/internal/database"
	"github.com/boatmonitor/hub/internal/ingest"
	"github.com/boatmonitor/hub/internal/models"
	"github.com/boatmonitor/hub/internal/monitoring"
	"github.com/boatmonitor/hub/internal/repository"
	"github.com/boatmonitor/hub/internal/repository/files"
	"github.com/boatmonitor/hub/internal/repository/timescale"
	"github.com/boatmonitor/hub/internal/telemetry"
	"github.com/boatmonitor/hub/internal/uplink"
	"github.com/boatmonitor/hub/internal/weather"
	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	db         *database.TimescaleDB
	dashboard  *dashboard.DashboardService
	monitoring *monitoring.Service
	cleanup    *cleanup.CleanupService
	ingest     *ingest.Service
	cache      *cache.Cache
	cancel     context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// Initialize services
	s.monitoring = monitoring.NewService(monitoring.Config{
		MetricsEnabled: s.config.Monitoring.MetricsEnabled,
	})
	fileRepo := initFileRepository(s.config.FileStore)
	s.db = initTimescaleDB(s.config.Database.Warehouse)
	records := initTelemetryRepository(s.config, s.db, fileRepo)
	s.cache = initCache(ctx, s.config.Redis, s.monitoring)
	s.dashboard = initDashboard(s.config, records, s.cache, fileRepo, s.monitoring)
	s.cleanup = cleanup.New(fileRepo, s.config.FileStore.Retention)
	if s.config.Ingest.Enabled {
		s.ingest = initIngest(s.config, records)
	}

	// Set up event handlers
	s.setupEventHandlers()

	go s.cleanup.Run(ctx, s.config.FileStore.CleanupInterval)
	if s.ingest != nil {
		if err := s.ingest.Start(); err != nil {
			nuts.L.Fatalf("[Server] Failed to start ingest: %v", err)
		}
	}

	// Setup routes
	s.srv.Handler = s.buildHandler()

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// buildHandler wraps the API router with recovery, CORS and access logging.
func (s *Server) buildHandler() http.Handler {
	router := api.NewRouter(s.dashboard, s.monitoring.Handler())
	var h http.Handler = router
	h = handlers.CORS(
		handlers.AllowedOrigins(s.config.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(s.config.Debug))(h)
	return handlers.CombinedLoggingHandler(os.Stdout, h)
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	s.cancel()
	if s.ingest != nil {
		s.ingest.Stop()
	}
	if err := s.cache.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing cache: %v", err)
	}
	if err := s.db.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing warehouse: %v", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

func (s *Server) setupEventHandlers() {
	s.dashboard.OnEvent(dashboard.EventNoValidFix, func(args ...interface{}) {
		s.monitoring.RecordEvent("no_valid_fix", nil)
	})
	s.dashboard.OnEvent(dashboard.EventHistoryExported, func(args ...interface{}) {
		if len(args) > 0 {
			nuts.L.Infof("[Dashboard] Export stored at %v", args[0])
		}
		s.monitoring.RecordEvent("history_export", nil)
	})

	s.cleanup.OnCleanup(cleanup.EventFilesPruned, func(count int) {
		nuts.L.Infof("[Cleanup] Pruned %d stored files", count)
		s.monitoring.RecordEvent("files_pruned", nil)
	})

	if s.ingest != nil {
		s.ingest.OnEvent(ingest.EventUplinkArchived, func(args ...interface{}) {
			device := ""
			if len(args) > 0 {
				device, _ = args[0].(string)
			}
			if len(args) > 1 {
				if rec, ok := args[1].(models.TelemetryRecord); ok {
					nuts.L.Infof("[Ingest] Archived uplink from %s received at %s", device, s.dashboard.Local(rec.ReceivedAt))
				}
			}
			s.monitoring.RecordEvent("uplink_archived", map[string]string{"device": device})
		})
		s.ingest.OnEvent(ingest.EventUplinkRejected, func(args ...interface{}) {
			s.monitoring.RecordsDropped("ingest", 1)
		})
	}
}

func initFileRepository(cfg config.FileStoreConfig) *files.FileRepo {
	repo, err := files.NewFileRepository(files.FileConfig{BasePath: cfg.BasePath})
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize file repository: %v", err)
	}
	return repo
}

func initTimescaleDB(cfg config.PostgresConfig) *database.TimescaleDB {
	db, err := database.NewTimescaleDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to warehouse: %v", err)
	}
	// Set up connection timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping warehouse: %v", err)
	}
	return db
}

func initTelemetryRepository(cfg *config.Config, db *database.TimescaleDB, dumps repository.QueryDumper) repository.TelemetryRepository {
	repoCfg := timescale.TelemetryRepoConfig{
		Table:       cfg.Database.Warehouse.Table,
		MaxGateways: cfg.Database.Warehouse.MaxGateways,
		Hypertable:  db.HasTimescale(),
	}
	if cfg.Debug {
		repoCfg.Dumper = dumps
	}
	repo, err := timescale.NewTelemetryRepository(db, repoCfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize telemetry repository: %v", err)
	}
	return repo
}

func initCache(ctx context.Context, cfg config.RedisConfig, observer cache.Observer) *cache.Cache {
	if !cfg.Enabled {
		nuts.L.Infof("[Server] Redis disabled, using in-memory cache")
		return cache.New(cache.NewMemoryStore(), "history", observer)
	}
	store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		nuts.L.Warnf("[Server] Redis unavailable, using in-memory cache: %v", err)
		return cache.New(cache.NewMemoryStore(), "history", observer)
	}
	return cache.New(store, "history", observer)
}

func initDashboard(cfg *config.Config, records repository.TelemetryRepository, memo *cache.Cache, exports *files.FileRepo, mon *monitoring.Service) *dashboard.DashboardService {
	uplinks, err := uplink.NewClient(uplink.ClientConfig{
		BaseURL:           cfg.TTN.BaseURL,
		ApplicationID:     cfg.TTN.ApplicationID,
		APIKey:            cfg.TTN.APIKey,
		Timeout:           cfg.TTN.Timeout,
		RequestsPerSecond: cfg.TTN.RequestsPerSecond,
		Burst:             cfg.TTN.Burst,
		MaxRetries:        cfg.TTN.MaxRetries,
		RetryBackoff:      cfg.TTN.RetryBackoff,
	})
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize uplink client: %v", err)
	}
	weatherClient, err := weather.NewClient(weather.ClientConfig{
		ForecastURL:       cfg.Weather.ForecastURL,
		ArchiveURL:        cfg.Weather.ArchiveURL,
		ArchiveAfter:      cfg.Weather.ArchiveAfter,
		Latitude:          cfg.Weather.Latitude,
		Longitude:         cfg.Weather.Longitude,
		Timeout:           cfg.Weather.Timeout,
		RequestsPerSecond: cfg.Weather.RequestsPerSecond,
		Burst:             cfg.Weather.Burst,
	})
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize weather client: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Display.Timezone)
	if err != nil {
		nuts.L.Fatalf("[Server] Invalid display timezone: %v", err)
	}

	svc := dashboard.New(records, uplinks, weatherClient, dashboard.Config{
		LiveWindow:    cfg.TTN.Lookback,
		Bucket:        cfg.Alignment.Bucket,
		MaxTolerance:  cfg.Alignment.MaxTolerance,
		HistoryWindow: cfg.Alignment.HistoryWindow,
		CacheTTL:      cfg.Redis.TTL,
		Geometry:      telemetry.GeometryOptions{Unclamped: cfg.Geometry.Unclamped},
		Location:      loc,
	})
	svc.Cache = memo
	svc.Exports = exports
	svc.Monitor = mon
	if err := svc.Validate(); err != nil {
		nuts.L.Fatalf("[Server] %v", err)
	}
	return svc
}

func initIngest(cfg *config.Config, records repository.TelemetryRepository) *ingest.Service {
	// the device network accepts <app>@<tenant> with an API key as MQTT credentials
	username := cfg.Ingest.Username
	if username == "" {
		username = fmt.Sprintf("%s@%s", cfg.TTN.ApplicationID, cfg.Ingest.Tenant)
	}
	password := cfg.Ingest.Password
	if password == "" {
		password = cfg.TTN.APIKey
	}
	client, err := ingest.NewMQTTClient(ingest.MQTTOptions{
		BrokerURL: cfg.Ingest.Broker,
		ClientID:  cfg.Ingest.ClientID,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to MQTT broker: %v", err)
	}
	return ingest.New(client, records, ingest.Config{
		ApplicationID: cfg.TTN.ApplicationID,
		Tenant:        cfg.Ingest.Tenant,
		QoS:           cfg.Ingest.QoS,
	})
}
