package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms/openai"

	"fridgetrack/internal/api"
	"fridgetrack/internal/config"
	"fridgetrack/internal/extractor"
	"fridgetrack/internal/inventory"
	"fridgetrack/internal/monitoring"
	"fridgetrack/internal/validation"
)

var configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg.LogLevel)

	model, err := openai.New(
		openai.WithToken(cfg.OpenAIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize OpenAI client")
	}

	store, err := inventory.Open(cfg.DatabasePath, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open inventory store")
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	server := api.NewServer(store, extractor.New(model), metrics, log.Logger, api.Options{
		OwnershipMode: validation.OwnershipMode(cfg.OwnershipMode),
		CORSOrigins:   cfg.CORSOrigins,
	})

	go startMetricsServer(cfg.MetricsPort, registry)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server.Router(),
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Int("port", cfg.Port).Str("ownership_mode", cfg.OwnershipMode).Msg("starting API server")
	log.Info().Str("url", fmt.Sprintf("http://localhost:%d/health", cfg.Port)).Msg("health check")
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("API server error")
	}
}

func initLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

func startMetricsServer(port int, registry *prometheus.Registry) {
	gin.SetMode(gin.ReleaseMode)
	metricsRouter := gin.New()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Info().Int("port", port).Msg("starting metrics server")
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server error")
	}
}
