package shopify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

const (
	Vendor           = "Maison Amane"
	DimensionsOption = "Dimensions"
)

// ProductInput is the Shopify productSet payload for a pilot product.
type ProductInput struct {
	Title           string
	DescriptionHTML string
	Handle          string
	ProductType     string
	Vendor          string
	Status          string
	Tags            []string
	Options         []string
	Variants        []VariantInput
	Files           []string
}

// VariantInput is one Shopify variant. Price is in euros.
type VariantInput struct {
	Dimensions string
	Price      decimal.Decimal
}

// dimension is a width x length pair in centimeters.
type dimension struct {
	width, length int
}

// referenceDimensions lists the stock sizes per category, the first entry
// being the one shown on the storefront.
var referenceDimensions = map[pilot.Category]map[pilot.Size][]dimension{
	pilot.CategoryRunner: {
		pilot.SizeRegular: {{60, 180}, {80, 200}},
		pilot.SizeLarge:   {{80, 250}, {100, 300}},
	},
	pilot.CategoryStandard: {
		pilot.SizeRegular: {{120, 180}, {140, 200}},
		pilot.SizeLarge:   {{160, 230}, {200, 300}},
	},
}

// basePrices are in centimes. Custom variants carry their own price.
var basePrices = map[pilot.PriceRange]map[pilot.Size]int64{
	pilot.PriceRangeDiscount: {pilot.SizeRegular: 400_00, pilot.SizeLarge: 600_00},
	pilot.PriceRangeStandard: {pilot.SizeRegular: 600_00, pilot.SizeLarge: 900_00},
	pilot.PriceRangePremium:  {pilot.SizeRegular: 900_00, pilot.SizeLarge: 1400_00},
}

// MapProduct builds the Shopify payload for p.
func MapProduct(p pilot.Product) ProductInput {
	in := ProductInput{
		Title:           p.Label.String(),
		DescriptionHTML: p.Description.String(),
		Handle:          Slugify(p.Label.String()),
		ProductType:     fmt.Sprintf("%s - %s", p.Type, p.Category),
		Vendor:          Vendor,
		Status:          "ACTIVE",
		Tags:            []string{string(p.PriceRange), string(p.Category)},
	}

	seen := make(map[string]struct{}, len(p.Variants))
	for _, v := range p.Variants {
		label := sizeLabel(v, p.Category)
		in.Variants = append(in.Variants, VariantInput{
			Dimensions: label,
			Price:      variantPrice(v, p.PriceRange),
		})
		if _, ok := seen[label]; !ok {
			seen[label] = struct{}{}
			in.Options = append(in.Options, label)
		}
	}
	for _, view := range p.Views.All() {
		in.Files = append(in.Files, view.URL.String())
	}
	return in
}

func sizeLabel(v pilot.Variant, category pilot.Category) string {
	switch v := v.(type) {
	case pilot.CustomVariant:
		d := v.Dimensions()
		return fmt.Sprintf("%dx%d", d.Width, d.Length)
	case pilot.StandardVariant:
		dims := referenceDimensions[category][v.Size()]
		if len(dims) == 0 {
			return string(v.Size())
		}
		return fmt.Sprintf("%dx%d", dims[0].width, dims[0].length)
	default:
		return string(v.Size())
	}
}

func variantPrice(v pilot.Variant, r pilot.PriceRange) decimal.Decimal {
	switch v := v.(type) {
	case pilot.CustomVariant:
		return decimal.New(int64(v.Price()), -2)
	case pilot.StandardVariant:
		return decimal.New(basePrices[r][v.Size()], -2)
	default:
		return decimal.Zero
	}
}

// Slugify turns a label into a Shopify handle: lower case ASCII words
// joined by dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from NFD
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}
