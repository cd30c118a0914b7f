// Package catalog holds the read-optimized projection of published pilot
// products.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// ErrNotFound is returned when a catalog entry does not exist.
var ErrNotFound = errors.New("catalog product not found")

// Product is the catalog view of a published pilot product.
type Product struct {
	ID          pilot.ProductID
	Label       string
	Description string
	Category    pilot.Category
	PriceRange  pilot.PriceRange
	Variants    []Variant
	Images      Images
	// ShopifyURL is empty until the storefront link is known.
	ShopifyURL  string
	PublishedAt time.Time
}

// Variant is either a StandardVariant or a CustomVariant.
//
//sumtype:decl
type Variant interface {
	isVariant()
}

type StandardVariant struct {
	Size pilot.Size
}

// CustomVariant prices are in euros.
type CustomVariant struct {
	WidthCm  int
	LengthCm int
	Price    decimal.Decimal
}

func (StandardVariant) isVariant() {}
func (CustomVariant) isVariant()   {}

// Images flattens product views: front and detail first, the rest in Gallery.
type Images struct {
	Front   string
	Detail  string
	Gallery []string
}

// Repository is the read-model store.
type Repository interface {
	// Upsert inserts or replaces the entry keyed by product id.
	Upsert(ctx context.Context, p Product) (Product, error)
	// FindByID returns ErrNotFound when no entry has the id.
	FindByID(ctx context.Context, id pilot.ProductID) (Product, error)
	FindAll(ctx context.Context) ([]Product, error)
}

// FromPilot maps a pilot product to its catalog entry.
func FromPilot(p pilot.Product, publishedAt time.Time) Product {
	variants := make([]Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, fromPilotVariant(v))
	}

	gallery := make([]string, 0, len(p.Views.Additional))
	for _, v := range p.Views.Additional {
		gallery = append(gallery, v.URL.String())
	}

	return Product{
		ID:          p.ID,
		Label:       p.Label.String(),
		Description: p.Description.String(),
		Category:    p.Category,
		PriceRange:  p.PriceRange,
		Variants:    variants,
		Images: Images{
			Front:   p.Views.Front.URL.String(),
			Detail:  p.Views.Detail.URL.String(),
			Gallery: gallery,
		},
		PublishedAt: publishedAt,
	}
}

func fromPilotVariant(v pilot.Variant) Variant {
	switch v := v.(type) {
	case pilot.StandardVariant:
		return StandardVariant{Size: v.Size()}
	case pilot.CustomVariant:
		d := v.Dimensions()
		return CustomVariant{
			WidthCm:  int(d.Width),
			LengthCm: int(d.Length),
			Price:    CentsToEuros(int64(v.Price())),
		}
	default:
		panic(errors.Errorf("unexpected variant %T", v))
	}
}

// CentsToEuros converts a centime amount to euros.
func CentsToEuros(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
