package pilot

// ProductType is the kind of product managed by the pilot catalog.
type ProductType string

const ProductTypeTapis ProductType = "TAPIS"

// Category groups products by shape.
type Category string

const (
	CategoryRunner   Category = "RUNNER"
	CategoryStandard Category = "STANDARD"
)

// PriceRange positions a product in the price grid.
type PriceRange string

const (
	PriceRangeDiscount PriceRange = "DISCOUNT"
	PriceRangeStandard PriceRange = "STANDARD"
	PriceRangePremium  PriceRange = "PREMIUM"
)

// Status is the editorial lifecycle of a product.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

// Size is a variant size. SizeCustom marks a made-to-measure variant.
type Size string

const (
	SizeRegular Size = "REGULAR"
	SizeLarge   Size = "LARGE"
	SizeCustom  Size = "CUSTOM"
)

// ViewType identifies which side of the product an image shows.
type ViewType string

const (
	ViewFront    ViewType = "FRONT"
	ViewDetail   ViewType = "DETAIL"
	ViewBack     ViewType = "BACK"
	ViewAmbiance ViewType = "AMBIANCE"
)

func ParseProductType(s string) (ProductType, bool) {
	switch v := ProductType(s); v {
	case ProductTypeTapis:
		return v, true
	}
	return "", false
}

func ParseCategory(s string) (Category, bool) {
	switch v := Category(s); v {
	case CategoryRunner, CategoryStandard:
		return v, true
	}
	return "", false
}

func ParsePriceRange(s string) (PriceRange, bool) {
	switch v := PriceRange(s); v {
	case PriceRangeDiscount, PriceRangeStandard, PriceRangePremium:
		return v, true
	}
	return "", false
}

func ParseStatus(s string) (Status, bool) {
	switch v := Status(s); v {
	case StatusDraft, StatusPublished, StatusArchived:
		return v, true
	}
	return "", false
}

func ParseSize(s string) (Size, bool) {
	switch v := Size(s); v {
	case SizeRegular, SizeLarge, SizeCustom:
		return v, true
	}
	return "", false
}

func ParseViewType(s string) (ViewType, bool) {
	switch v := ViewType(s); v {
	case ViewFront, ViewDetail, ViewBack, ViewAmbiance:
		return v, true
	}
	return "", false
}
