// Package app wires together the engine, its logging/telemetry ambient
// stack, and the demo HTTP host into a runnable process.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"idlecore/engine"
	"idlecore/gamedef"
	servernet "idlecore/internal/net"
	"idlecore/internal/observability"
	"idlecore/internal/telemetry"
	"idlecore/layer"
	"idlecore/logging"
	loggingSinks "idlecore/logging/sinks"
)

// Config wires caller-supplied dependencies into Run: the registry of
// layer factories the embedding binary compiled in, the definition file
// to load at startup, and ambient overrides.
type Config struct {
	Registry       *layer.Registry
	DefinitionPath string
	Logger         telemetry.Logger
	Observability  observability.Config
	Addr           string
}

// Run constructs the logging router, loads the configured Game
// Definition, builds the engine-backed HTTP host, and serves it until ctx
// is canceled or ListenAndServe fails.
func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	logConfig := logging.DefaultConfig()
	sinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	router, err := logging.NewRouter(nil, logConfig, sinks)
	if err != nil {
		return fmt.Errorf("app: Run: failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	def, err := gamedef.LoadFile(cfg.DefinitionPath)
	if err != nil {
		return fmt.Errorf("app: Run: failed to load definition %q: %w", cfg.DefinitionPath, err)
	}

	host := servernet.NewHost(cfg.Registry, engine.Config{Publisher: router})
	if err := host.LoadDefinition(def); err != nil {
		return fmt.Errorf("app: Run: failed to build engine for %q: %w", def.Meta.GameID, err)
	}
	telemetryLogger.Printf("loaded definition gameId=%s layers=%d", def.Meta.GameID, len(def.Layers))

	observabilityCfg := cfg.Observability
	if raw := os.Getenv("ENABLE_PPROF_TRACE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			observabilityCfg.EnablePprofTrace = value
		} else {
			telemetryLogger.Printf("invalid ENABLE_PPROF_TRACE=%q: %v", raw, err)
		}
	}

	metrics := telemetry.NewCounters()
	handler := servernet.NewHTTPHandler(host, servernet.HTTPHandlerConfig{
		Logger:        telemetryLogger,
		Metrics:       metrics,
		Observability: observabilityCfg,
	})

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: handler}
	telemetryLogger.Printf("engine host listening on %s", srv.Addr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("app: Run: server failed: %w", err)
		}
		return nil
	}
}
