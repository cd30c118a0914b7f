package pilot

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// CreateCommand asks for a new pilot product.
type CreateCommand struct {
	Intake   Intake
	Metadata Metadata
	// Now is the creation time. The service clock is used when zero.
	Now time.Time
}

// Service runs the create-product pipeline: validate, build, persist and,
// for published products, announce.
type Service struct {
	repo      Repository
	publisher Publisher
	ids       IDGenerator
	clock     Clock
}

// NewService creates a Service.
func NewService(repo Repository, publisher Publisher, ids IDGenerator, clock Clock) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
	}
}

// Create returns *ValidationError when the intake is invalid and
// *PersistenceError when the product cannot be stored. Each step stops the
// pipeline on failure. A failed publish is logged and does not fail the call.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Product, error) {
	data, err := Validate(cmd.Intake)
	if err != nil {
		return Product{}, err
	}

	now := cmd.Now
	if now.IsZero() {
		now = s.clock.Now()
	}
	product, err := New(s.ids.ProductID(), data, now)
	if err != nil {
		return Product{}, err
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return Product{}, &PersistenceError{Op: "save pilot product", Err: err}
	}

	lg := zctx.From(ctx).With(
		zap.String("product_id", saved.ID.String()),
		zap.String("correlation_id", cmd.Metadata.CorrelationID),
	)
	lg.Info("Pilot product created", zap.String("status", string(saved.Status)))

	if saved.IsPublished() {
		ev := ProductPublished{
			Product:   saved,
			Metadata:  cmd.Metadata,
			Timestamp: s.clock.Now(),
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			lg.Warn("Publish failed, product kept", zap.String("event_type", ev.EventType()), zap.Error(err))
		}
	}
	return saved, nil
}
