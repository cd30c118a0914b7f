package app

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/handler"
	"github.com/xenking/pilot-catalog/internal/messaging/rabbitmq"
	mongostore "github.com/xenking/pilot-catalog/internal/storage/mongo"
	"github.com/xenking/pilot-catalog/internal/wire"
	"github.com/xenking/pilot-catalog/pkg/httpmiddleware"
)

// seedUser is recorded as the author of seeded products.
const seedUser = "seed"

// RunSeed creates the pilot products listed in cfg.SeedFile through the
// regular create pipeline, so published ones reach the consumers.
func RunSeed(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	data, err := os.ReadFile(cfg.SeedFile)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	h := newHealth()
	mongoClient, err := connectMongo(ctx, lg, cfg.Mongo, h)
	if err != nil {
		return err
	}
	defer disconnectMongo(lg, mongoClient)

	conn, err := connectBroker(lg, cfg.RabbitMQ, SeedPilots, h)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open publish channel")
	}
	defer func() { _ = ch.Close() }()

	svc := pilot.NewService(
		mongostore.NewPilotProductRepository(mongoClient.Database(cfg.Mongo.Database)),
		rabbitmq.NewPublisher(ch, m.TextMapPropagator()),
		pilot.UUIDGenerator{},
		pilot.SystemClock{},
	)
	created, err := Seed(ctx, lg, svc, pilot.UUIDGenerator{}, data)
	lg.Info("Seed finished", zap.Int("created", created), zap.String("file", cfg.SeedFile))
	return err
}

// Seed creates one product per intake object of the JSON array in data.
// It keeps going past invalid intakes and returns their combined errors.
func Seed(ctx context.Context, lg *zap.Logger, svc handler.PilotService, ids pilot.IDGenerator, data []byte) (int, error) {
	var (
		created int
		errs    error
		index   int
	)
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		i := index
		index++

		raw, err := d.Raw()
		if err != nil {
			return err
		}
		intake, err := wire.DecodeIntake(raw)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "intake %d", i))
			return nil
		}

		md := pilot.Metadata{CorrelationID: ids.CorrelationID(), UserID: seedUser}
		p, err := svc.Create(ctx, pilot.CreateCommand{Intake: intake, Metadata: md})
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "intake %d (%s)", i, intake.Label))
			return nil
		}
		created++
		lg.Info("Seeded pilot product",
			zap.String("product_id", p.ID.String()),
			zap.String("label", intake.Label),
			zap.String("status", string(p.Status)),
		)
		return nil
	})
	if err != nil {
		return created, errors.Wrap(err, "decode seed file")
	}
	return created, errs
}
