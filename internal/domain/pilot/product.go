package pilot

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested pilot product does not exist.
var ErrNotFound = errors.New("pilot product not found")

// ErrVersionConflict is returned by Update when the stored product changed
// since it was read.
var ErrVersionConflict = errors.New("pilot product version conflict")

// Product is the pilot product aggregate. Values are replaced as a whole
// through the With* methods and never modified in place.
type Product struct {
	ID          ProductID
	Label       Label
	Type        ProductType
	Category    Category
	Description Description
	PriceRange  PriceRange
	Variants    []Variant
	Views       Views
	Status      Status
	SyncStatus  SyncStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Version is assigned by the repository and guards Update.
	Version int64
}

// New builds a product from validated data in the NotSynced state.
func New(id ProductID, data ValidatedData, now time.Time) (Product, error) {
	if len(data.Variants) == 0 {
		return Product{}, errors.New("product requires at least one variant")
	}
	return Product{
		ID:          id,
		Label:       data.Label,
		Type:        data.Type,
		Category:    data.Category,
		Description: data.Description,
		PriceRange:  data.PriceRange,
		Variants:    append([]Variant(nil), data.Variants...),
		Views:       data.Views.clone(),
		Status:      data.Status,
		SyncStatus:  NotSynced{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p Product) IsPublished() bool { return p.Status == StatusPublished }

func (p Product) WithStatus(s Status) Product {
	c := p.clone()
	c.Status = s
	return c
}

func (p Product) WithSyncStatus(s SyncStatus) Product {
	c := p.clone()
	c.SyncStatus = s
	return c
}

func (p Product) WithUpdatedAt(t time.Time) Product {
	c := p.clone()
	c.UpdatedAt = t
	return c
}

func (p Product) clone() Product {
	p.Variants = append([]Variant(nil), p.Variants...)
	p.Views = p.Views.clone()
	return p
}

// Repository is the write-model store for pilot products.
type Repository interface {
	// Save inserts a new product.
	Save(ctx context.Context, p Product) (Product, error)
	// FindByID returns ErrNotFound when no product has the id.
	FindByID(ctx context.Context, id ProductID) (Product, error)
	// Update replaces the stored product, returning ErrVersionConflict when
	// p.Version is stale.
	Update(ctx context.Context, p Product) (Product, error)
}
