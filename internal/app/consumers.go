package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pilot-catalog/internal/domain/catalog"
	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/domain/shopify"
	"github.com/xenking/pilot-catalog/internal/messaging/rabbitmq"
	"github.com/xenking/pilot-catalog/internal/shopifyclient"
	mongostore "github.com/xenking/pilot-catalog/internal/storage/mongo"
	"github.com/xenking/pilot-catalog/internal/storage/postgres"
	"github.com/xenking/pilot-catalog/pkg/health"
	"github.com/xenking/pilot-catalog/pkg/httpmiddleware"
)

// RunCatalogProjection consumes ProductPublished events into the PostgreSQL
// catalog.
func RunCatalogProjection(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	h := newHealth()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}
	h.AddReadinessCheck("postgres", 5*time.Second, pool.Ping)

	conn, err := connectBroker(lg, cfg.RabbitMQ, CatalogProjection, h)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	pubCh, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open publish channel")
	}
	defer func() { _ = pubCh.Close() }()

	handle := ProjectionHandler(
		catalog.NewProjector(postgres.NewCatalogRepository(pool)),
		rabbitmq.NewPublisher(pubCh, m.TextMapPropagator()),
		pilot.SystemClock{},
	)
	return runConsumer(ctx, lg, m, cfg, CatalogProjection, rabbitmq.CatalogProjection, conn, handle, h)
}

// RunShopifySync consumes ProductPublished events and pushes the products
// to Shopify.
func RunShopifySync(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	h := newHealth()

	mongoClient, err := connectMongo(ctx, lg, cfg.Mongo, h)
	if err != nil {
		return err
	}
	defer disconnectMongo(lg, mongoClient)
	products := mongostore.NewPilotProductRepository(mongoClient.Database(cfg.Mongo.Database))

	conn, err := connectBroker(lg, cfg.RabbitMQ, ShopifySync, h)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	pubCh, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open publish channel")
	}
	defer func() { _ = pubCh.Close() }()

	client, err := newShopifyClient(lg, m, cfg.Shopify)
	if err != nil {
		return err
	}
	syncer := shopify.NewSyncer(
		client,
		products,
		rabbitmq.NewPublisher(pubCh, m.TextMapPropagator()),
		pilot.SystemClock{},
	)
	return runConsumer(ctx, lg, m, cfg, ShopifySync, rabbitmq.ShopifySync, conn, SyncHandler(syncer), h)
}

func newShopifyClient(lg *zap.Logger, m httpmiddleware.Telemetry, cfg ShopifyConfig) (shopify.Client, error) {
	if cfg.Fake {
		lg.Info("Using fake Shopify client", zap.Duration("latency", cfg.FakeLatency))
		return &shopifyclient.FakeClient{Latency: cfg.FakeLatency}, nil
	}
	lg.Info("Using Shopify Admin API", zap.String("store", cfg.StoreURL), zap.String("version", cfg.APIVersion))
	return shopifyclient.NewAdminClient(shopifyclient.AdminOptions{
		StoreURL:       cfg.StoreURL,
		AccessToken:    cfg.AccessToken,
		APIVersion:     cfg.APIVersion,
		Timeout:        cfg.Timeout,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
}

// runConsumer runs the consumer next to a probe server. The consumer stops
// taking deliveries on shutdown and finishes those in flight.
func runConsumer(
	ctx context.Context,
	lg *zap.Logger,
	m httpmiddleware.Telemetry,
	cfg *Config,
	b Binary,
	name string,
	conn *amqp.Connection,
	handle rabbitmq.Handler,
	h *health.Health,
) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open consume channel")
	}
	defer func() { _ = ch.Close() }()

	consumer, err := rabbitmq.NewConsumer(ch, name, handle, rabbitmq.ConsumerOptions{
		Prefetch:       cfg.RabbitMQ.Prefetch,
		HandlerTimeout: cfg.RabbitMQ.HandlerTimeout,
		Retry:          cfg.RabbitMQ.Retry,
		Logger:         lg,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
		Propagator:     m.TextMapPropagator(),
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	h.Register(mux)
	h.Start(ctx, 5*time.Second)
	h.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gCtx)
	})
	g.Go(func() error {
		return serve(gCtx, lg, newServer(ctx, b, m, cfg, mux), h, cfg.Graceful)
	})
	return g.Wait()
}
