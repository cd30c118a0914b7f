package app

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// --- Mock implementations ---

type memoryRepo struct {
	products map[pilot.ProductID]pilot.Product
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[pilot.ProductID]pilot.Product)}
}

func (r *memoryRepo) Save(_ context.Context, p pilot.Product) (pilot.Product, error) {
	p.Version = 1
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) FindByID(_ context.Context, id pilot.ProductID) (pilot.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return pilot.Product{}, pilot.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) Update(_ context.Context, p pilot.Product) (pilot.Product, error) {
	p.Version++
	r.products[p.ID] = p
	return p, nil
}

// --- Tests ---

func TestSeed_File(t *testing.T) {
	data, err := os.ReadFile("../../db/seed/pilots.json")
	require.NoError(t, err)

	repo := newMemoryRepo()
	pub := &mockPublisher{}
	ids := pilot.UUIDGenerator{}
	svc := pilot.NewService(repo, pub, ids, fixedClock{t: handlerNow})

	created, err := Seed(context.Background(), zaptest.NewLogger(t), svc, ids, data)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Len(t, repo.products, 3)

	// drafts are stored but not announced
	require.Len(t, pub.events, 2)
	for _, ev := range pub.events {
		assert.Equal(t, pilot.EventProductPublished, ev.EventType())
		assert.Equal(t, seedUser, ev.Meta().UserID)
	}
}

func TestSeed_KeepsGoingPastInvalidIntakes(t *testing.T) {
	data := []byte(`[
		{"label": "", "type": "TAPIS"},
		{"label": 5},
		{
			"label": "Tapis Nuit", "type": "TAPIS", "category": "STANDARD", "priceRange": "STANDARD",
			"variants": [{"size": "LARGE"}],
			"views": [
				{"viewType": "FRONT", "imageUrl": "https://x/f.jpg"},
				{"viewType": "DETAIL", "imageUrl": "https://x/d.jpg"}
			],
			"status": "PUBLISHED"
		}
	]`)

	repo := newMemoryRepo()
	ids := pilot.UUIDGenerator{}
	svc := pilot.NewService(repo, &mockPublisher{}, ids, fixedClock{t: handlerNow})

	created, err := Seed(context.Background(), zaptest.NewLogger(t), svc, ids, data)
	assert.Equal(t, 1, created)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "intake 0")
	assert.Contains(t, err.Error(), "intake 1")
}

func TestSeed_NotAnArray(t *testing.T) {
	_, err := Seed(context.Background(), zaptest.NewLogger(t), nil, pilot.UUIDGenerator{}, []byte(`{"label": "x"}`))
	require.Error(t, err)
}
