// Command obcore runs the matching engine process: it loads
// configuration, registers the configured symbols on a match.Engine,
// starts the CSV and binary TCP listeners plus the UDP multicast and
// WebSocket market-data feeds, and shuts everything down cleanly on
// SIGINT/SIGTERM. Grounded on SPEC_FULL.md §6.1's seven-step process
// description; the teacher itself ships no process entrypoint, so the
// overall shape (flag for a config path, context-bounded graceful
// shutdown) follows the config-loading convention of the wider example
// pack rather than the teacher.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/driftmkt/obcore/aggregatedbook"
	"github.com/driftmkt/obcore/config"
	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/stats"
	"github.com/driftmkt/obcore/transport"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	match.SetLogger(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	multicast, err := transport.NewMulticastPublisher(cfg.Listen.Multicast, "")
	if err != nil {
		return err
	}
	ring := transport.NewRingBuffer[[]byte](4096, multicast)
	ring.Start()
	marketHub := transport.NewMarketDataHub(ring)

	turnover := stats.NewTurnoverTracker(marketHub)
	aggregator := aggregatedbook.NewManager(turnover)

	registry := transport.NewClientRegistry(256)
	router := transport.NewRouter(registry, aggregator)

	engine := match.NewEngine(router, cfg.Engine.InboundQueueSize)
	for _, sym := range cfg.Symbols {
		engine.RegisterSymbol(match.Pack(sym))
	}

	go engine.Start()

	server := transport.NewServer(engine, registry)
	if err := server.Listen(cfg.Listen.CSV, transport.CSVFormat); err != nil {
		return err
	}
	if err := server.Listen(cfg.Listen.Binary, transport.BinaryFormat); err != nil {
		return err
	}

	wsFeed := transport.NewWebSocketFeed(marketHub)
	httpServer := &http.Server{Addr: cfg.Listen.WebSocket, Handler: wsFeed}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("websocket feed failed", "error", err)
		}
	}()

	logger.Info("obcore started",
		"symbols", cfg.Symbols,
		"csv", cfg.Listen.CSV,
		"binary", cfg.Listen.Binary,
		"multicast", cfg.Listen.Multicast,
		"websocket", cfg.Listen.WebSocket,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown requested")

	if err := server.Close(); err != nil {
		logger.Warn("error closing listeners", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Engine.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down websocket feed", "error", err)
	}
	if err := engine.Shutdown(shutdownCtx); err != nil {
		logger.Warn("engine did not drain before shutdown deadline", "error", err)
	}
	if err := ring.Shutdown(shutdownCtx); err != nil {
		logger.Warn("market-data ring buffer did not drain before shutdown deadline", "error", err)
	}
	if err := multicast.Close(); err != nil {
		logger.Warn("error closing multicast socket", "error", err)
	}

	logger.Info("obcore stopped")
	return nil
}
