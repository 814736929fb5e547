package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"

	servernet "shovebox/server/internal/net"
	"shovebox/server/internal/sim"
	"shovebox/server/logging"
	loggingsinks "shovebox/server/logging/sinks"
)

// Run wires the logging router, metrics, hub, config watcher, and HTTP
// transport, then serves until the listener fails or ctx is canceled.
func Run(ctx context.Context, configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := log.Default()

	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.LogSinks
	var namedSinks []logging.NamedSink
	if logCfg.HasSink("console") {
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "console",
			Sink: loggingsinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if logCfg.HasSink("json") && cfg.LogJSONTo != "" {
		file, ferr := os.OpenFile(cfg.LogJSONTo, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if ferr != nil {
			return fmt.Errorf("open json log: %w", ferr)
		}
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: loggingsinks.NewJSON(file, logCfg.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(nil, logCfg, namedSinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Printf("close logging router: %v", cerr)
		}
	}()

	deps := sim.Deps{
		Logger:    logger,
		Publisher: router,
		Metrics:   logging.NewMetrics(),
		RNG:       rand.New(rand.NewSource(cfg.Arena.Seed)),
	}

	hub := NewHub(cfg, deps)
	stop := make(chan struct{})
	go hub.RunLoop(stop)
	defer close(stop)

	if configPath != "" {
		watcher, werr := NewConfigWatcher(configPath)
		if werr != nil {
			logger.Printf("config watch disabled: %v", werr)
		} else {
			defer watcher.Close()
			go func() {
				for range watcher.Events {
					next, lerr := LoadConfig(configPath)
					if lerr != nil {
						logger.Printf("config reload skipped: %v", lerr)
						continue
					}
					hub.ApplyConfig(next)
				}
			}()
		}
	}

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{Logger: logger})
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Printf("server listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
