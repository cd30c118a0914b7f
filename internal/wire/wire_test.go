package wire

import (
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pilot-catalog/internal/domain/catalog"
	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// --- Helpers ---

func testProduct(t *testing.T) pilot.Product {
	t.Helper()
	data, err := pilot.Validate(pilot.Intake{
		Label:       "Tapis Rouge",
		Type:        "TAPIS",
		Category:    "RUNNER",
		Description: "Laine \"vierge\"",
		PriceRange:  "PREMIUM",
		Variants: []pilot.VariantIntake{
			{Size: "LARGE"},
			{Size: "CUSTOM", CustomDimensions: &pilot.DimensionsIntake{Width: ptr(90), Length: ptr(210)}, Price: ptr(41000)},
		},
		Views: []pilot.ViewIntake{
			{ViewType: "FRONT", ImageURL: "https://x/f.jpg"},
			{ViewType: "DETAIL", ImageURL: "https://x/d.jpg"},
			{ViewType: "AMBIANCE", ImageURL: "https://x/a.jpg"},
		},
		Status: "PUBLISHED",
	})
	require.NoError(t, err)
	p, err := pilot.New("prod-1", data, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	p.Version = 3
	return p
}

func ptr(v int) *int { return &v }

// --- Tests ---

func TestDecodeIntake(t *testing.T) {
	body := []byte(`{
		"label": "Tapis Rouge",
		"type": "TAPIS",
		"category": "STANDARD",
		"description": null,
		"priceRange": "STANDARD",
		"status": "PUBLISHED",
		"variants": [
			{"size": "REGULAR"},
			{"size": "CUSTOM", "customDimensions": null, "price": 100},
			{"size": "CUSTOM", "customDimensions": {"width": 80, "length": null}}
		],
		"views": [
			{"viewType": "FRONT", "imageUrl": "https://x/f.jpg"},
			{"viewType": "DETAIL", "imageUrl": "https://x/d.jpg"}
		],
		"extra": {"ignored": [1, 2]}
	}`)

	in, err := DecodeIntake(body)
	require.NoError(t, err)

	assert.Equal(t, "Tapis Rouge", in.Label)
	assert.Empty(t, in.Description)
	require.Len(t, in.Variants, 3)
	assert.Nil(t, in.Variants[1].CustomDimensions)
	assert.Equal(t, 100, *in.Variants[1].Price)
	require.NotNil(t, in.Variants[2].CustomDimensions)
	assert.Equal(t, 80, *in.Variants[2].CustomDimensions.Width)
	assert.Nil(t, in.Variants[2].CustomDimensions.Length)
	assert.Nil(t, in.Variants[2].Price)
	assert.Len(t, in.Views, 2)
}

func TestDecodeIntake_PublishedRug(t *testing.T) {
	body := []byte(`{
		"label": "Tapis Rouge",
		"type": "TAPIS",
		"category": "STANDARD",
		"priceRange": "STANDARD",
		"status": "PUBLISHED",
		"variants": [{"size": "REGULAR"}],
		"views": [
			{"viewType": "FRONT", "imageUrl": "https://x/f.jpg"},
			{"viewType": "DETAIL", "imageUrl": "https://x/d.jpg"}
		]
	}`)

	in, err := DecodeIntake(body)
	require.NoError(t, err)
	assert.Equal(t, pilot.Intake{
		Label:      "Tapis Rouge",
		Type:       "TAPIS",
		Category:   "STANDARD",
		PriceRange: "STANDARD",
		Status:     "PUBLISHED",
		Variants:   []pilot.VariantIntake{{Size: "REGULAR"}},
		Views: []pilot.ViewIntake{
			{ViewType: "FRONT", ImageURL: "https://x/f.jpg"},
			{ViewType: "DETAIL", ImageURL: "https://x/d.jpg"},
		},
	}, in)

	data, err := pilot.Validate(in)
	require.NoError(t, err)
	assert.Equal(t, pilot.StatusPublished, data.Status)
}

func TestDecodeIntake_Malformed(t *testing.T) {
	for _, body := range []string{`[]`, `{"label": 12}`, `{"variants": [{"price": "ten"}]}`, `{`} {
		t.Run(body, func(t *testing.T) {
			_, err := DecodeIntake([]byte(body))
			require.Error(t, err)
		})
	}
}

func TestProductSnapshot(t *testing.T) {
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		status pilot.SyncStatus
	}{
		{name: "not synced", status: pilot.NotSynced{}},
		{name: "synced", status: pilot.Synced{ExternalID: "gid://shopify/Product/1", SyncedAt: at}},
		{name: "failed", status: pilot.SyncFailed{Reason: pilot.FailureReason{Code: "C", Message: "m"}, FailedAt: at, Attempts: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProduct(t).WithSyncStatus(tt.status).WithUpdatedAt(at)

			e := &jx.Encoder{}
			EncodeProduct(e, p)
			got, err := DecodeProduct(jx.DecodeBytes(e.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, p, got)
		})
	}
}

func TestDecodeProduct_RejectsInvalidSnapshot(t *testing.T) {
	body := `{"id":"p","label":"","type":"TAPIS","category":"RUNNER","priceRange":"PREMIUM",
		"variants":[],"views":{"front":{"viewType":"FRONT","imageUrl":"https://x/f.jpg"}},
		"status":"PUBLISHED","createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"}`

	_, err := DecodeProduct(jx.DecodeStr(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "At least one variant is required")
}

func TestEvents(t *testing.T) {
	at := time.Date(2026, 5, 2, 10, 0, 0, 123, time.UTC)
	md := pilot.Metadata{CorrelationID: "corr-1", UserID: "user-1"}

	events := []pilot.Event{
		pilot.ProductPublished{Product: testProduct(t), Metadata: md, Timestamp: at},
		pilot.ProductSynced{ProductID: "prod-1", ExternalID: "gid://shopify/Product/9", Metadata: md, Timestamp: at},
		pilot.CatalogProjected{ProductID: "prod-1", Metadata: md, Timestamp: at},
	}
	for _, ev := range events {
		t.Run(ev.EventType(), func(t *testing.T) {
			got, err := DecodeEvent(EncodeEvent(ev))
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
	}
}

func TestDecodeEvent_PublishedPayload(t *testing.T) {
	body := []byte(`{
		"_tag": "PilotProductPublished",
		"productId": "prod-a",
		"product": {
			"id": "prod-a",
			"label": "Tapis Rouge",
			"type": "TAPIS",
			"category": "STANDARD",
			"description": "",
			"priceRange": "STANDARD",
			"variants": [{"size": "REGULAR"}],
			"views": {
				"front": {"viewType": "FRONT", "imageUrl": "https://x/f.jpg"},
				"detail": {"viewType": "DETAIL", "imageUrl": "https://x/d.jpg"},
				"additional": []
			},
			"status": "PUBLISHED",
			"syncStatus": {"_tag": "NotSynced"},
			"createdAt": "2026-05-02T10:00:00Z",
			"updatedAt": "2026-05-02T10:00:00Z",
			"version": 1
		},
		"correlationId": "corr-a",
		"userId": "user-a",
		"timestamp": "2026-05-02T10:00:01.5Z"
	}`)

	ev, err := DecodeEvent(body)
	require.NoError(t, err)

	published, ok := ev.(pilot.ProductPublished)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, pilot.Metadata{CorrelationID: "corr-a", UserID: "user-a"}, published.Metadata)
	assert.Equal(t, time.Date(2026, 5, 2, 10, 0, 1, 500_000_000, time.UTC), published.Timestamp)

	p := published.Product
	assert.Equal(t, pilot.ProductID("prod-a"), p.ID)
	assert.Equal(t, pilot.Label("Tapis Rouge"), p.Label)
	assert.Equal(t, pilot.StatusPublished, p.Status)
	assert.Equal(t, pilot.NotSynced{}, p.SyncStatus)
	assert.Equal(t, int64(1), p.Version)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, pilot.SizeRegular, p.Variants[0].Size())
	assert.Equal(t, pilot.ImageURL("https://x/f.jpg"), p.Views.Front.URL)
	assert.Equal(t, pilot.ImageURL("https://x/d.jpg"), p.Views.Detail.URL)
	assert.Empty(t, p.Views.Additional)
}

func TestDecodeEvent_SyncedPayload(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{
		"_tag": "PilotProductSynced",
		"productId": "prod-a",
		"shopifyProductId": "gid://shopify/Product/1a2b3c4d",
		"correlationId": null,
		"userId": "user-a",
		"timestamp": "2026-05-02T10:00:02Z"
	}`))
	require.NoError(t, err)
	assert.Equal(t, pilot.ProductSynced{
		ProductID:  "prod-a",
		ExternalID: "gid://shopify/Product/1a2b3c4d",
		Metadata:   pilot.Metadata{UserID: "user-a"},
		Timestamp:  time.Date(2026, 5, 2, 10, 0, 2, 0, time.UTC),
	}, ev)
}

func TestDecodeEvent_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown tag", body: `{"_tag":"Deleted","productId":"p"}`},
		{name: "published without product", body: `{"_tag":"PilotProductPublished","productId":"p"}`},
		{name: "not json", body: `nope`},
		{name: "bad timestamp", body: `{"_tag":"CatalogProjected","timestamp":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tt.body))
			require.Error(t, err)
		})
	}
}

func TestEncodeCatalogProduct(t *testing.T) {
	entry := catalog.FromPilot(testProduct(t), time.Date(2026, 5, 1, 9, 0, 1, 0, time.UTC))

	e := &jx.Encoder{}
	EncodeCatalogProduct(e, entry)

	assert.JSONEq(t, `{
		"id": "prod-1",
		"label": "Tapis Rouge",
		"description": "Laine \"vierge\"",
		"category": "RUNNER",
		"priceRange": "PREMIUM",
		"variants": [
			{"_tag": "StandardVariant", "size": "LARGE"},
			{"_tag": "CustomVariant", "widthCm": 90, "lengthCm": 210, "price": "410.00"}
		],
		"images": {"front": "https://x/f.jpg", "detail": "https://x/d.jpg", "gallery": ["https://x/a.jpg"]},
		"shopifyUrl": null,
		"publishedAt": "2026-05-01T09:00:01Z"
	}`, string(e.Bytes()))
}
