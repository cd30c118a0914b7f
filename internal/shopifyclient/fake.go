// Package shopifyclient implements the Shopify client port.
package shopifyclient

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/domain/shopify"
)

var _ shopify.Client = (*FakeClient)(nil)

// FakeClient pretends to sync products. It is used when no store is
// configured and in tests.
type FakeClient struct {
	// Latency simulates the round trip to Shopify.
	Latency time.Duration
	// Err, when set, is returned instead of an id.
	Err error

	calls atomic.Int64
}

func (f *FakeClient) SyncProduct(ctx context.Context, p pilot.Product) (pilot.ExternalID, error) {
	f.calls.Add(1)
	if f.Latency > 0 {
		timer := time.NewTimer(f.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", &shopify.NetworkError{Message: "fake sync interrupted", Err: ctx.Err()}
		case <-timer.C:
		}
	}
	if f.Err != nil {
		return "", f.Err
	}

	id := pilot.ExternalID("gid://shopify/Product/" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	zctx.From(ctx).Info("Fake Shopify sync",
		zap.String("product_id", p.ID.String()),
		zap.String("shopify_product_id", id.String()),
	)
	return id, nil
}

// Calls returns how many times SyncProduct was invoked.
func (f *FakeClient) Calls() int { return int(f.calls.Load()) }
