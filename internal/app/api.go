package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/handler"
	"github.com/xenking/pilot-catalog/internal/messaging/rabbitmq"
	mongostore "github.com/xenking/pilot-catalog/internal/storage/mongo"
	"github.com/xenking/pilot-catalog/internal/storage/postgres"
	"github.com/xenking/pilot-catalog/pkg/httpmiddleware"
)

// RunAPIServer serves the pilot product intake and, when a catalog database
// is configured, the catalog read endpoints.
func RunAPIServer(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	h := newHealth()

	mongoClient, err := connectMongo(ctx, lg, cfg.Mongo, h)
	if err != nil {
		return err
	}
	defer disconnectMongo(lg, mongoClient)
	products := mongostore.NewPilotProductRepository(mongoClient.Database(cfg.Mongo.Database))

	conn, err := connectBroker(lg, cfg.RabbitMQ, APIServer, h)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open publish channel")
	}
	defer func() { _ = ch.Close() }()
	publisher := rabbitmq.NewPublisher(ch, m.TextMapPropagator())

	var reader handler.CatalogReader
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		h.AddReadinessCheck("postgres", 5*time.Second, pool.Ping)
		reader = postgres.NewCatalogRepository(pool)
	} else {
		lg.Info("No catalog database configured, catalog routes disabled")
	}

	ids := pilot.UUIDGenerator{}
	clock := pilot.SystemClock{}
	svc := pilot.NewService(products, publisher, ids, clock)

	mux := http.NewServeMux()
	handler.NewHandler(svc, products, reader, ids, clock).Register(mux)
	h.Register(mux)

	h.Start(ctx, 5*time.Second)
	h.SetReady(true)

	return serve(ctx, lg, newServer(ctx, APIServer, m, cfg, mux), h, cfg.Graceful)
}
