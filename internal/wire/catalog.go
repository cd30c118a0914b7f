package wire

import (
	"github.com/go-faster/jx"

	"github.com/xenking/pilot-catalog/internal/domain/catalog"
)

// EncodeCatalogProduct writes a catalog entry. Prices are decimal strings
// in euros.
func EncodeCatalogProduct(e *jx.Encoder, p catalog.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID.String())
	e.FieldStart("label")
	e.Str(p.Label)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	e.Str(string(p.Category))
	e.FieldStart("priceRange")
	e.Str(string(p.PriceRange))

	e.FieldStart("variants")
	e.ArrStart()
	for _, v := range p.Variants {
		e.ObjStart()
		switch v := v.(type) {
		case catalog.StandardVariant:
			e.FieldStart("_tag")
			e.Str("StandardVariant")
			e.FieldStart("size")
			e.Str(string(v.Size))
		case catalog.CustomVariant:
			e.FieldStart("_tag")
			e.Str("CustomVariant")
			e.FieldStart("widthCm")
			e.Int(v.WidthCm)
			e.FieldStart("lengthCm")
			e.Int(v.LengthCm)
			e.FieldStart("price")
			e.Str(v.Price.StringFixed(2))
		}
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("images")
	e.ObjStart()
	e.FieldStart("front")
	e.Str(p.Images.Front)
	e.FieldStart("detail")
	e.Str(p.Images.Detail)
	e.FieldStart("gallery")
	e.ArrStart()
	for _, u := range p.Images.Gallery {
		e.Str(u)
	}
	e.ArrEnd()
	e.ObjEnd()

	e.FieldStart("shopifyUrl")
	if p.ShopifyURL == "" {
		e.Null()
	} else {
		e.Str(p.ShopifyURL)
	}
	e.FieldStart("publishedAt")
	encodeTime(e, p.PublishedAt)
	e.ObjEnd()
}
