package app

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/pilot-catalog/internal/domain/catalog"
	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/domain/shopify"
	"github.com/xenking/pilot-catalog/internal/messaging/rabbitmq"
	"github.com/xenking/pilot-catalog/internal/shopifyclient"
)

// --- Mock implementations ---

type mockProjector struct {
	calls       int
	publishedAt time.Time
	err         error
}

func (m *mockProjector) Project(_ context.Context, p pilot.Product, _ pilot.Metadata, publishedAt time.Time) (catalog.Product, error) {
	m.calls++
	m.publishedAt = publishedAt
	if m.err != nil {
		return catalog.Product{}, m.err
	}
	return catalog.Product{ID: p.ID}, nil
}

type mockSyncer struct {
	err error
}

func (m *mockSyncer) Sync(_ context.Context, snapshot pilot.Product, _ pilot.Metadata) (pilot.Product, error) {
	if m.err != nil {
		return pilot.Product{}, m.err
	}
	return snapshot, nil
}

type mockPublisher struct {
	events []pilot.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e pilot.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// --- Helpers ---

var (
	handlerNow  = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	publishedAt = handlerNow.Add(-time.Minute)
	handlerMD   = pilot.Metadata{CorrelationID: "corr-42", UserID: "user-7"}
)

func publishedEvent() pilot.ProductPublished {
	return pilot.ProductPublished{
		Product:   pilot.Product{ID: "prod-9", SyncStatus: pilot.NotSynced{}},
		Metadata:  handlerMD,
		Timestamp: publishedAt,
	}
}

// --- Tests ---

func TestProjectionHandler(t *testing.T) {
	proj := &mockProjector{}
	pub := &mockPublisher{}
	handle := ProjectionHandler(proj, pub, fixedClock{t: handlerNow})

	require.NoError(t, handle(context.Background(), publishedEvent()))
	assert.Equal(t, 1, proj.calls)
	assert.Equal(t, publishedAt, proj.publishedAt)
	require.Len(t, pub.events, 1)
	assert.Equal(t, pilot.CatalogProjected{
		ProductID: "prod-9",
		Metadata:  handlerMD,
		Timestamp: handlerNow,
	}, pub.events[0])
}

func TestProjectionHandler_Failures(t *testing.T) {
	t.Run("projection error is retried", func(t *testing.T) {
		storeErr := &pilot.PersistenceError{Op: "upsert catalog product", Err: errors.New("pg down")}
		pub := &mockPublisher{}
		handle := ProjectionHandler(&mockProjector{err: storeErr}, pub, fixedClock{t: handlerNow})

		err := handle(context.Background(), publishedEvent())
		require.ErrorIs(t, err, storeErr)
		assert.False(t, rabbitmq.IsPermanent(err))
		assert.Empty(t, pub.events)
	})
	t.Run("publish error is ignored", func(t *testing.T) {
		handle := ProjectionHandler(&mockProjector{}, &mockPublisher{err: errors.New("closed")}, fixedClock{t: handlerNow})
		assert.NoError(t, handle(context.Background(), publishedEvent()))
	})
	t.Run("unexpected event", func(t *testing.T) {
		proj := &mockProjector{}
		handle := ProjectionHandler(proj, &mockPublisher{}, fixedClock{t: handlerNow})

		err := handle(context.Background(), pilot.ProductSynced{ProductID: "prod-9"})
		assert.True(t, rabbitmq.IsPermanent(err))
		assert.Zero(t, proj.calls)
	})
}

func TestSyncHandler(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantErr       bool
		wantPermanent bool
	}{
		{name: "synced"},
		{name: "already synced", err: &shopify.AlreadySyncedError{ProductID: "prod-9"}},
		{
			name:    "shopify api failure",
			err:     &shopify.ShopifyFailureError{ProductID: "prod-9", Err: &shopify.APIError{Message: "throttled", StatusCode: 429}},
			wantErr: true,
		},
		{
			name:    "network failure",
			err:     &shopify.ShopifyFailureError{ProductID: "prod-9", Err: &shopify.NetworkError{Message: "reset"}},
			wantErr: true,
		},
		{
			name:          "shopify rejected product",
			err:           &shopify.ShopifyFailureError{ProductID: "prod-9", Err: &shopify.ValidationError{Message: "title blank"}},
			wantErr:       true,
			wantPermanent: true,
		},
		{
			name:          "product missing",
			err:           &shopify.PersistenceFailureError{ProductID: "prod-9", Err: errors.Wrap(pilot.ErrNotFound, "load product")},
			wantErr:       true,
			wantPermanent: true,
		},
		{
			name:    "version conflict",
			err:     &shopify.PersistenceFailureError{ProductID: "prod-9", Err: pilot.ErrVersionConflict},
			wantErr: true,
		},
		{
			name:          "invalid transition",
			err:           errors.Wrap(pilot.ErrInvalidTransition, "mark synced"),
			wantErr:       true,
			wantPermanent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SyncHandler(&mockSyncer{err: tt.err})(context.Background(), publishedEvent())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantPermanent, rabbitmq.IsPermanent(err))
		})
	}
}

func TestSyncHandler_UnexpectedEvent(t *testing.T) {
	err := SyncHandler(&mockSyncer{})(context.Background(), pilot.CatalogProjected{ProductID: "prod-9"})
	assert.True(t, rabbitmq.IsPermanent(err))
}

func TestNewShopifyClient_Fake(t *testing.T) {
	client, err := newShopifyClient(zaptest.NewLogger(t), nil, ShopifyConfig{Fake: true})
	require.NoError(t, err)
	assert.IsType(t, &shopifyclient.FakeClient{}, client)
}
