package shopify

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// Syncer pushes published products to Shopify and records the outcome in
// the product sync status.
type Syncer struct {
	client    Client
	repo      pilot.Repository
	publisher pilot.Publisher
	clock     pilot.Clock
}

func NewSyncer(client Client, repo pilot.Repository, publisher pilot.Publisher, clock pilot.Clock) *Syncer {
	return &Syncer{
		client:    client,
		repo:      repo,
		publisher: publisher,
		clock:     clock,
	}
}

// Sync synchronizes the product with Shopify. The stored product is the
// source of truth for its sync status; the given snapshot only names it.
//
// A product already synced returns *AlreadySyncedError without calling
// Shopify. A Shopify failure is recorded as SyncFailed and returned as
// *ShopifyFailureError so the broker can redeliver. Store failures return
// *PersistenceFailureError. Sync never retries by itself.
func (s *Syncer) Sync(ctx context.Context, snapshot pilot.Product, md pilot.Metadata) (pilot.Product, error) {
	lg := zctx.From(ctx).With(
		zap.String("product_id", snapshot.ID.String()),
		zap.String("correlation_id", md.CorrelationID),
	)

	if pilot.IsSynced(snapshot.SyncStatus) {
		return pilot.Product{}, &AlreadySyncedError{ProductID: snapshot.ID}
	}
	current, err := s.repo.FindByID(ctx, snapshot.ID)
	if err != nil {
		return pilot.Product{}, &PersistenceFailureError{ProductID: snapshot.ID, Err: errors.Wrap(err, "load product")}
	}
	if !pilot.CanSync(current.SyncStatus) {
		return pilot.Product{}, &AlreadySyncedError{ProductID: current.ID}
	}

	externalID, err := s.client.SyncProduct(ctx, current)
	if err != nil {
		s.recordFailure(ctx, lg, current, err)
		return pilot.Product{}, &ShopifyFailureError{ProductID: current.ID, Err: err}
	}

	now := s.clock.Now()
	status, err := pilot.MarkSynced(current.SyncStatus, externalID, now)
	if err != nil {
		return pilot.Product{}, err
	}
	updated, err := s.repo.Update(ctx, current.WithSyncStatus(status).WithUpdatedAt(now))
	if err != nil {
		return pilot.Product{}, &PersistenceFailureError{ProductID: current.ID, Err: err}
	}
	lg.Info("Product synced to Shopify", zap.String("shopify_id", externalID.String()))

	ev := pilot.ProductSynced{
		ProductID:  updated.ID,
		ExternalID: externalID,
		Metadata:   md,
		Timestamp:  now,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		lg.Warn("Publish failed", zap.String("event_type", ev.EventType()), zap.Error(err))
	}
	return updated, nil
}

// recordFailure stores the SyncFailed state. Its own failure is only logged:
// the caller reports the Shopify failure either way.
func (s *Syncer) recordFailure(ctx context.Context, lg *zap.Logger, current pilot.Product, cause error) {
	now := s.clock.Now()
	status, err := pilot.MarkFailed(current.SyncStatus, failureReason(cause), now)
	if err != nil {
		lg.Error("Cannot mark sync failed", zap.Error(err))
		return
	}
	if _, err := s.repo.Update(ctx, current.WithSyncStatus(status).WithUpdatedAt(now)); err != nil {
		lg.Warn("Cannot record sync failure", zap.Error(err))
		return
	}
	lg.Warn("Shopify sync failed",
		zap.Error(cause),
		zap.Int("attempts", status.(pilot.SyncFailed).Attempts),
	)
}
