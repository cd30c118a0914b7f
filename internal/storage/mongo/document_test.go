package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

func newTestProduct(t *testing.T, id pilot.ProductID) pilot.Product {
	t.Helper()
	price := 52000
	width, length := 70, 310
	data, err := pilot.Validate(pilot.Intake{
		Label:       "Tapis Rouge",
		Type:        "TAPIS",
		Category:    "RUNNER",
		Description: "Laine",
		PriceRange:  "PREMIUM",
		Variants: []pilot.VariantIntake{
			{Size: "REGULAR"},
			{Size: "CUSTOM", CustomDimensions: &pilot.DimensionsIntake{Width: &width, Length: &length}, Price: &price},
		},
		Views: []pilot.ViewIntake{
			{ViewType: "FRONT", ImageURL: "https://x/f.jpg"},
			{ViewType: "DETAIL", ImageURL: "https://x/d.jpg"},
			{ViewType: "BACK", ImageURL: "https://x/b.jpg"},
		},
		Status: "PUBLISHED",
	})
	require.NoError(t, err)
	// millisecond precision, as stored by MongoDB
	p, err := pilot.New(id, data, time.Date(2026, 6, 1, 8, 0, 0, int(250*time.Millisecond), time.UTC))
	require.NoError(t, err)
	p.Version = 1
	return p
}

func TestDocumentMapping(t *testing.T) {
	at := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	statuses := []pilot.SyncStatus{
		pilot.NotSynced{},
		pilot.Synced{ExternalID: "gid://shopify/Product/1a2b3c4d", SyncedAt: at},
		pilot.SyncFailed{Reason: pilot.FailureReason{Code: "SHOPIFY_NETWORK_ERROR", Message: "timeout"}, FailedAt: at, Attempts: 3},
	}

	for _, status := range statuses {
		t.Run(pilot.SyncStatusName(status), func(t *testing.T) {
			p := newTestProduct(t, "prod-1").WithSyncStatus(status)

			// through BSON bytes, as the driver does
			raw, err := bson.Marshal(toDocument(p))
			require.NoError(t, err)
			var doc productDocument
			require.NoError(t, bson.Unmarshal(raw, &doc))

			got, err := doc.toProduct()
			require.NoError(t, err)
			assert.Equal(t, p, got)
		})
	}
}

func TestDocumentTags(t *testing.T) {
	doc := toDocument(newTestProduct(t, "prod-1"))

	assert.Equal(t, "prod-1", doc.ID)
	require.Len(t, doc.Variants, 2)
	assert.Equal(t, tagStandardVariant, doc.Variants[0].Tag)
	assert.Nil(t, doc.Variants[0].CustomDimensions)
	assert.Equal(t, tagCustomVariant, doc.Variants[1].Tag)
	assert.Equal(t, "CUSTOM", doc.Variants[1].Size)
	assert.Equal(t, "NotSynced", doc.SyncStatus.Tag)
	assert.Len(t, doc.Views.Additional, 1)
}

func TestDocumentRejectsBrokenInvariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc *productDocument)
	}{
		{name: "no variants", mutate: func(doc *productDocument) { doc.Variants = nil }},
		{name: "custom without dimensions", mutate: func(doc *productDocument) { doc.Variants[1].CustomDimensions = nil }},
		{name: "standard with custom size", mutate: func(doc *productDocument) { doc.Variants[0].Size = "CUSTOM" }},
		{name: "unknown variant tag", mutate: func(doc *productDocument) { doc.Variants[0].Tag = "Sample" }},
		{name: "insecure image", mutate: func(doc *productDocument) { doc.Views.Front.ImageURL = "http://x/f.jpg" }},
		{name: "blank label", mutate: func(doc *productDocument) { doc.Label = " " }},
		{name: "unknown sync status", mutate: func(doc *productDocument) { doc.SyncStatus.Tag = "Pending" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := toDocument(newTestProduct(t, "prod-1"))
			tt.mutate(&doc)

			_, err := doc.toProduct()
			require.Error(t, err)
		})
	}
}
