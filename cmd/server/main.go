package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/events/amqp"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/memory"
	"github.com/mmynk/splitledger/internal/storage/postgres"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "backend", cfg.DataBackend)

	var m *metrics.Metrics
	publishers := []ledger.Publisher{}
	if cfg.MetricsEnabled {
		m = metrics.New()
		publishers = append(publishers, m)
	}
	if cfg.AMQPURL != "" {
		pub, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			return fmt.Errorf("failed to connect to AMQP: %w", err)
		}
		defer pub.Close()
		publishers = append(publishers, pub)
		slog.Info("Publishing activities", "exchange", cfg.AMQPExchange)
	}

	l := ledger.New(store, ledger.WithPublisher(events.Multi(publishers...)))
	handler := newHandler(store, l, m)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		// Wrap with h2c for HTTP/2 without TLS (required for Connect)
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case "memory":
		return memory.New(), nil
	case "postgres":
		return postgres.New(ctx, cfg.DatabaseURL)
	case "sqlite":
		return sqlite.New(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

// newHandler registers the Connect services, the export download and, when m
// is non-nil, the metrics endpoint.
func newHandler(store storage.Store, l *ledger.Ledger, m *metrics.Metrics) http.Handler {
	var observer middleware.RPCObserver
	if m != nil {
		observer = m
	}
	interceptors := connect.WithInterceptors(
		middleware.ParticipantInterceptor(),
		middleware.LoggingInterceptor(observer),
	)

	mux := http.NewServeMux()

	groupSvc := service.NewGroupService(store, l)
	groupPath, groupHandler := service.NewGroupServiceHandler(groupSvc, interceptors)
	mux.Handle(groupPath, groupHandler)

	expensePath, expenseHandler := service.NewExpenseServiceHandler(service.NewExpenseService(store, l), interceptors)
	mux.Handle(expensePath, expenseHandler)

	mux.HandleFunc(service.ExportPattern, groupSvc.ServeExport)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	// Add logging and CORS middleware
	return loggingMiddleware(corsMiddleware(mux))
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms, "+middleware.ParticipantHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, Content-Disposition")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
