package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/catalog"
	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/domain/shopify"
	"github.com/xenking/pilot-catalog/internal/messaging/rabbitmq"
)

// Projector is implemented by *catalog.Projector.
type Projector interface {
	Project(ctx context.Context, product pilot.Product, md pilot.Metadata, publishedAt time.Time) (catalog.Product, error)
}

// Syncer is implemented by *shopify.Syncer.
type Syncer interface {
	Sync(ctx context.Context, snapshot pilot.Product, md pilot.Metadata) (pilot.Product, error)
}

// ProjectionHandler projects published products into the catalog and
// announces each projection with a CatalogProjected event.
func ProjectionHandler(p Projector, pub pilot.Publisher, clock pilot.Clock) rabbitmq.Handler {
	return func(ctx context.Context, ev pilot.Event) error {
		published, ok := ev.(pilot.ProductPublished)
		if !ok {
			return rabbitmq.Permanent(errors.Errorf("unexpected event %s", ev.EventType()))
		}

		entry, err := p.Project(ctx, published.Product, published.Metadata, published.Timestamp)
		if err != nil {
			return err
		}

		projected := pilot.CatalogProjected{
			ProductID: entry.ID,
			Metadata:  published.Metadata,
			Timestamp: clock.Now(),
		}
		// The projection is stored; a lost notification must not redo it.
		if err := pub.Publish(ctx, projected); err != nil {
			zctx.From(ctx).Warn("Publish CatalogProjected failed",
				zap.String("product_id", entry.ID.String()),
				zap.Error(err),
			)
		}
		return nil
	}
}

// SyncHandler pushes published products to Shopify. Redelivered events for
// an already synced product are acknowledged; failures that a retry cannot
// fix are dead-lettered immediately.
func SyncHandler(s Syncer) rabbitmq.Handler {
	return func(ctx context.Context, ev pilot.Event) error {
		published, ok := ev.(pilot.ProductPublished)
		if !ok {
			return rabbitmq.Permanent(errors.Errorf("unexpected event %s", ev.EventType()))
		}

		_, err := s.Sync(ctx, published.Product, published.Metadata)
		switch {
		case err == nil:
			return nil
		case shopify.IsAlreadySynced(err):
			zctx.From(ctx).Info("Product already synced, skipping",
				zap.String("product_id", published.Product.ID.String()),
			)
			return nil
		case isPermanentSyncError(err):
			return rabbitmq.Permanent(err)
		default:
			return err
		}
	}
}

func isPermanentSyncError(err error) bool {
	var validation *shopify.ValidationError
	return errors.As(err, &validation) ||
		errors.Is(err, pilot.ErrNotFound) ||
		errors.Is(err, pilot.ErrInvalidTransition)
}
