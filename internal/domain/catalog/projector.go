package catalog

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// Projector keeps the catalog in step with published pilot products.
type Projector struct {
	repo Repository
}

func NewProjector(repo Repository) *Projector {
	return &Projector{repo: repo}
}

// Project maps the product and upserts it. Projecting the same product twice
// leaves a single, identical entry. Store failures are returned as
// *pilot.PersistenceError.
func (p *Projector) Project(ctx context.Context, product pilot.Product, md pilot.Metadata, publishedAt time.Time) (Product, error) {
	entry := FromPilot(product, publishedAt)

	saved, err := p.repo.Upsert(ctx, entry)
	if err != nil {
		return Product{}, &pilot.PersistenceError{Op: "upsert catalog product", Err: err}
	}

	zctx.From(ctx).Info("Catalog product projected",
		zap.String("product_id", saved.ID.String()),
		zap.String("correlation_id", md.CorrelationID),
		zap.Int("variants", len(saved.Variants)),
	)
	return saved, nil
}
