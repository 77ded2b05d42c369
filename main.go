package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consumptionanalysis/analysis"
	"consumptionanalysis/charts"
	_ "consumptionanalysis/docs"
	"consumptionanalysis/export"
	"consumptionanalysis/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var (
	appStore     store.Store
	reporter     *analysis.Reporter
	reportWriter *export.ReportWriter
)

// @title Consumption Analysis API
// @version 1.0
// @description Consumption record tracking with category statistics, keyword-driven chart analysis and report export.
// @host localhost:8080
// @BasePath /
func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := loadConfig()
	setupLogger(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	switch cfg.StoreBackend {
	case "memory":
		log.Warn().Msg("Using the in-memory store; data is lost on restart")
		appStore = store.NewMemoryStore()
	default:
		pool = connectDatabase(ctx, cfg)
		defer pool.Close()
		appStore = store.NewPostgresStore(pool)
	}

	renderer, err := charts.NewRenderer(charts.Options{
		Dir:      cfg.ChartDir,
		BaseURL:  "/charts",
		Width:    cfg.ChartWidth,
		Height:   cfg.ChartHeight,
		FontPath: cfg.ChartFont,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error setting up chart renderer")
	}
	reporter = analysis.NewReporter(appStore, renderer)

	if cfg.ReportDir != "" {
		pdf, err := export.NewPDFRenderer(export.PDFOptions{FontPath: cfg.ChartFont, ChartDir: renderer.Dir()})
		if err != nil {
			log.Fatal().Err(err).Msg("Error setting up PDF reports")
		}
		if reportWriter, err = export.NewReportWriter(cfg.ReportDir, "/reports", pdf); err != nil {
			log.Fatal().Err(err).Msg("Error setting up report directory")
		}
	}

	r := setupRouter(cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

// connectDatabase connects with retries, then runs migrations
func connectDatabase(ctx context.Context, cfg *Config) *pgxpool.Pool {
	pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DBConnectRetries, cfg.DBRetryInterval, func(attempt int, err error) {
		log.Warn().Err(err).Int("attempt", attempt).Msg("Error connecting to database")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database after retries")
	}
	log.Info().Msg("Successfully connected to database")

	log.Info().Msg("Running database migrations...")
	if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("Error running migrations")
	}

	// Display current migration version
	if version, dirty, err := store.MigrationVersion(cfg.DatabaseURL); err == nil {
		if dirty {
			log.Warn().Uint("version", version).Msg("Current migration version is DIRTY - migration failed")
		} else {
			log.Info().Uint("version", version).Msg("Current migration version")
		}
	}
	log.Info().Msg("Database migrations completed successfully")

	return pool
}

// setupRouter wires middleware and routes. The handlers read the package
// level store and reporter, which must be set first.
func setupRouter(cfg *Config) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), recovery())

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.GET("/health", healthCheck)
	r.GET("/ready", readinessCheck)

	api := r.Group("/api")
	{
		api.GET("/users", listUsers)
		api.POST("/users", createUser)
		api.GET("/users/:id", getUser)
		api.PUT("/users/:id", updateUser)
		api.DELETE("/users/:id", deleteUser)

		api.GET("/consumptions", listConsumptions)
		api.POST("/consumptions", createConsumption)
		api.POST("/consumptions/import", importConsumptions)
		api.GET("/consumptions/statistics", getStatistics)
		api.GET("/consumptions/:id", getConsumption)
		api.PUT("/consumptions/:id", updateConsumption)
		api.DELETE("/consumptions/:id", deleteConsumption)

		api.GET("/categories", getCategories)

		api.POST("/analysis/custom", customAnalysis)
		api.POST("/analysis/report", analysisReport)
		api.POST("/analysis/report/export", exportAnalysisReport)
	}

	if cfg.ChartDir != "" {
		r.Static("/charts", cfg.ChartDir)
	}
	if cfg.ReportDir != "" && reportWriter != nil {
		r.Static("/reports", reportWriter.Dir())
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
