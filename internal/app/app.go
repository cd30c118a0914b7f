// Package app wires configuration, infrastructure and domain services into
// the api-server, catalog-projection and shopify-sync processes.
package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/messaging/rabbitmq"
	mongostore "github.com/xenking/pilot-catalog/internal/storage/mongo"
	"github.com/xenking/pilot-catalog/pkg/health"
	"github.com/xenking/pilot-catalog/pkg/httpmiddleware"
)

// Run loads the configuration for b and starts it. It is the entry point of
// every binary under cmd/.
func Run(b Binary, args []string) {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		if err := cfg.Validate(b); err != nil {
			return err
		}

		lg = lg.With(zap.String("binary", string(b)))
		switch b {
		case APIServer:
			return RunAPIServer(ctx, lg, m, cfg)
		case CatalogProjection:
			return RunCatalogProjection(ctx, lg, m, cfg)
		case ShopifySync:
			return RunShopifySync(ctx, lg, m, cfg)
		case SeedPilots:
			return RunSeed(ctx, lg, m, cfg)
		default:
			return errors.Errorf("unknown binary %q", b)
		}
	})
}

func newHealth() *health.Health {
	h := health.New()
	h.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	h.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	return h
}

func connectMongo(ctx context.Context, lg *zap.Logger, cfg MongoConfig, h *health.Health) (*mongo.Client, error) {
	client, err := mongostore.Connect(ctx, cfg.URI)
	if err != nil {
		return nil, err
	}
	h.AddReadinessCheck("mongo", 5*time.Second, mongostore.Ping(client))
	lg.Info("Connected to MongoDB", zap.String("database", cfg.Database))
	return client, nil
}

func disconnectMongo(lg *zap.Logger, client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		lg.Warn("Disconnect MongoDB", zap.Error(err))
	}
}

// connectBroker dials RabbitMQ and declares the exchanges plus the queues of
// every consumer, so that events published before a consumer first starts
// are kept.
func connectBroker(lg *zap.Logger, cfg RabbitMQConfig, b Binary, h *health.Health) (*amqp.Connection, error) {
	conn, err := rabbitmq.Dial(cfg.URL, string(b))
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open topology channel")
	}
	defer func() { _ = ch.Close() }()

	if err := rabbitmq.DeclareExchanges(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}
	for _, consumer := range []string{rabbitmq.CatalogProjection, rabbitmq.ShopifySync} {
		if _, err := rabbitmq.DeclareConsumer(ch, consumer, cfg.Retry, rabbitmq.RoutingKeyProductPublished); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	h.AddReadinessCheck("rabbitmq", time.Second, rabbitmq.Ping(conn))
	lg.Info("Connected to RabbitMQ", zap.String("exchange", rabbitmq.ExchangeEvents))
	return conn, nil
}

// newServer builds the HTTP server with the shared middleware chain.
func newServer(ctx context.Context, b Binary, m httpmiddleware.Telemetry, cfg *Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Correlation(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.Instrument(string(b), m),
			httpmiddleware.LogRequests(),
		),
	}
}

// serve runs srv until ctx is done, then drains: readiness turns false so
// load balancers stop routing, and after ReadinessDelay the server shuts
// down within ShutdownTimeout.
func serve(ctx context.Context, lg *zap.Logger, srv *http.Server, h *health.Health, cfg GracefulConfig) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		h.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.ReadinessDelay))
		time.Sleep(cfg.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		h.Stop()
	}()

	lg.Info("Server listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
