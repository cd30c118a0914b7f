package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pilot-catalog/internal/domain/catalog"
	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

const (
	upsertCatalogProduct = `
INSERT INTO catalog_products (id, label, description, category, price_range,
    image_front, image_detail, image_gallery, shopify_url, published_at, projected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (id) DO UPDATE SET
    label = EXCLUDED.label,
    description = EXCLUDED.description,
    category = EXCLUDED.category,
    price_range = EXCLUDED.price_range,
    image_front = EXCLUDED.image_front,
    image_detail = EXCLUDED.image_detail,
    image_gallery = EXCLUDED.image_gallery,
    shopify_url = COALESCE(EXCLUDED.shopify_url, catalog_products.shopify_url),
    published_at = EXCLUDED.published_at,
    projected_at = now()
RETURNING shopify_url`

	deleteCatalogVariants = `DELETE FROM catalog_variants WHERE product_id = $1`

	insertCatalogVariant = `
INSERT INTO catalog_variants (product_id, position, kind, size, width_cm, length_cm, price)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectCatalogProducts = `
SELECT id, label, description, category, price_range, image_front, image_detail,
    image_gallery, shopify_url, published_at
FROM catalog_products`

	selectCatalogVariants = `
SELECT product_id, kind, size, width_cm, length_cm, price
FROM catalog_variants`
)

const (
	kindStandard = "STANDARD"
	kindCustom   = "CUSTOM"
)

// Compile-time interface check.
var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository. Variants live in their
// own table and are replaced with the product row in one transaction.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// Upsert writes p keyed by id. A stored storefront URL survives an upsert
// without one.
func (r *CatalogRepository) Upsert(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var shopifyURL *string
		if err := tx.QueryRow(ctx, upsertCatalogProduct,
			p.ID.String(), p.Label, p.Description, string(p.Category), string(p.PriceRange),
			p.Images.Front, p.Images.Detail, nonNil(p.Images.Gallery), optString(p.ShopifyURL), p.PublishedAt,
		).Scan(&shopifyURL); err != nil {
			return errors.Wrap(err, "upsert product")
		}
		if shopifyURL != nil {
			p.ShopifyURL = *shopifyURL
		}

		if _, err := tx.Exec(ctx, deleteCatalogVariants, p.ID.String()); err != nil {
			return errors.Wrap(err, "delete variants")
		}

		batch := &pgx.Batch{}
		for i, v := range p.Variants {
			row := toVariantRow(v)
			batch.Queue(insertCatalogVariant, p.ID.String(), i, row.kind, row.size, row.widthCm, row.lengthCm, row.price)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "insert variants")
		}
		return nil
	})
	if err != nil {
		return catalog.Product{}, errors.Wrapf(err, "upsert catalog product %s", p.ID)
	}
	return p, nil
}

func (r *CatalogRepository) FindByID(ctx context.Context, id pilot.ProductID) (catalog.Product, error) {
	products, err := r.query(ctx, " WHERE id = $1", " WHERE product_id = $1", id.String())
	if err != nil {
		return catalog.Product{}, err
	}
	if len(products) == 0 {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return products[0], nil
}

// FindAll returns every entry, most recently published first.
func (r *CatalogRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	return r.query(ctx, " ORDER BY published_at DESC, id", "")
}

func (r *CatalogRepository) query(ctx context.Context, productWhere, variantWhere string, args ...any) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, selectCatalogProducts+productWhere, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query catalog products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan catalog products")
	}
	if len(products) == 0 {
		return nil, nil
	}

	rows, err = r.pool.Query(ctx, selectCatalogVariants+variantWhere+" ORDER BY product_id, position", args...)
	if err != nil {
		return nil, errors.Wrap(err, "query catalog variants")
	}
	variants, err := pgx.CollectRows(rows, scanVariant)
	if err != nil {
		return nil, errors.Wrap(err, "scan catalog variants")
	}

	byProduct := make(map[string][]catalog.Variant, len(products))
	for _, v := range variants {
		byProduct[v.productID] = append(byProduct[v.productID], v.toVariant())
	}
	for i := range products {
		products[i].Variants = byProduct[products[i].ID.String()]
	}
	return products, nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p          catalog.Product
		id         string
		category   string
		priceRange string
		shopifyURL *string
		published  time.Time
	)
	if err := row.Scan(&id, &p.Label, &p.Description, &category, &priceRange,
		&p.Images.Front, &p.Images.Detail, &p.Images.Gallery, &shopifyURL, &published); err != nil {
		return catalog.Product{}, err
	}
	p.ID = pilot.ProductID(id)
	p.Category = pilot.Category(category)
	p.PriceRange = pilot.PriceRange(priceRange)
	p.PublishedAt = published.UTC()
	if shopifyURL != nil {
		p.ShopifyURL = *shopifyURL
	}
	return p, nil
}

type variantRow struct {
	productID string
	kind      string
	size      string
	widthCm   *int32
	lengthCm  *int32
	price     *decimal.Decimal
}

func scanVariant(row pgx.CollectableRow) (variantRow, error) {
	var v variantRow
	err := row.Scan(&v.productID, &v.kind, &v.size, &v.widthCm, &v.lengthCm, &v.price)
	return v, err
}

func toVariantRow(v catalog.Variant) variantRow {
	switch v := v.(type) {
	case catalog.CustomVariant:
		width, length, price := int32(v.WidthCm), int32(v.LengthCm), v.Price
		return variantRow{kind: kindCustom, size: string(pilot.SizeCustom), widthCm: &width, lengthCm: &length, price: &price}
	case catalog.StandardVariant:
		return variantRow{kind: kindStandard, size: string(v.Size)}
	default:
		panic(errors.Errorf("unexpected catalog variant %T", v))
	}
}

func (v variantRow) toVariant() catalog.Variant {
	if v.kind != kindCustom {
		return catalog.StandardVariant{Size: pilot.Size(v.size)}
	}
	c := catalog.CustomVariant{}
	if v.widthCm != nil {
		c.WidthCm = int(*v.widthCm)
	}
	if v.lengthCm != nil {
		c.LengthCm = int(*v.lengthCm)
	}
	if v.price != nil {
		c.Price = *v.price
	}
	return c
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
