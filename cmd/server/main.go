package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinplot/internal/bot"
	"coinplot/internal/chart"
	"coinplot/internal/coins"
	"coinplot/internal/config"
	"coinplot/internal/handler"
	"coinplot/internal/mcptool"
	"coinplot/internal/provider"
	"coinplot/internal/service"
	"coinplot/internal/store"
	"coinplot/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	_ "coinplot/docs"
)

var version = "dev"

var (
	loadEnvFunc           = godotenv.Load
	loadConfigFunc        = config.Load
	initTracerFunc        = tracing.InitTracer
	loadCoinsFunc         = coins.Load
	newMarketProviderFunc = func(tracer trace.Tracer, cfg *config.Config) service.MarketProvider {
		return provider.NewCoinMarketCapProvider(tracer, cfg.CMCKey, cfg.CMCBaseURL, time.Duration(cfg.UpstreamTimeoutSecs)*time.Second)
	}
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = waitForSignal
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	runStdioFunc           = func(ctx context.Context, server *mcp.Server) error {
		return server.Run(ctx, &mcp.StdioTransport{})
	}
)

// @title           Coinplot API
// @version         1.0
// @description     Crypto chart generation service with MCP tools and OpenTelemetry tracing.

// @host      localhost:30000
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	logger := newLogger(cfg)
	for _, w := range cfg.Warnings {
		logger.Warn().Msg(w)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		Enabled:  cfg.TracingEnabled,
		Endpoint: cfg.OTLPEndpoint,
		Version:  version,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	directory, err := loadCoinsFunc(cfg.CoinListFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CoinListFile).Msg("failed to load coin list")
	}
	logger.Info().Int("coins", directory.Len()).Str("path", cfg.CoinListFile).Msg("coin directory loaded")

	plots := store.New(tracer, logger.With().Str("component", "store").Logger(), cfg.PlotDir, cfg.ServerDomain)
	renderer := chart.NewRenderer(tracer, logger.With().Str("component", "chart").Logger(), cfg.ImageDir)
	charts := service.NewChartService(
		tracer,
		logger.With().Str("component", "service").Logger(),
		directory,
		newMarketProviderFunc(tracer, cfg),
		renderer,
		plots,
		cfg.TrendingLimit,
	)
	mcpServer := mcptool.NewServer(tracer, logger.With().Str("component", "mcp").Logger(), charts, version)

	if _, err := startTelegramBotFunc(cfg.TelegramBotToken, charts, logger.With().Str("component", "telegram").Logger()); err != nil {
		logger.Error().Err(err).Msg("telegram bot disabled")
	}

	// Stdout carries the MCP protocol in stdio mode.
	if cfg.MCPTransport == "stdio" {
		gin.DefaultWriter = os.Stderr
	}

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	handler.New(tracer, logger, plots).RegisterRoutes(r)
	if cfg.MCPTransport == "http" {
		handler.RegisterMCP(r, mcptool.HTTPHandler(mcpServer), cfg.MCPAuthToken)
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Str("mcp_transport", cfg.MCPTransport).Msg("HTTP server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	if cfg.MCPTransport == "stdio" {
		g.Go(func() error {
			// The session ends when the client closes stdin.
			defer cancel()
			if err := runStdioFunc(gctx, mcpServer); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp stdio: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		waitForSignalFunc(gctx, quit)
		logger.Info().Msg("Shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("Server exiting")
}

func waitForSignal(ctx context.Context, quit <-chan os.Signal) {
	select {
	case <-quit:
	case <-ctx.Done():
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", tracing.ServiceName).Logger()
}
