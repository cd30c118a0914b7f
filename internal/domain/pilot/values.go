package pilot

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
)

const (
	MaxLabelLength       = 255
	MaxDescriptionLength = 5000
)

// ProductID is the opaque identity of a pilot product.
type ProductID string

func (id ProductID) String() string { return string(id) }

// ExternalID is the identifier assigned by the commerce platform.
type ExternalID string

func (id ExternalID) String() string { return string(id) }

// Label is a trimmed, non-blank product name.
type Label string

func NewLabel(raw string) (Label, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("must not be blank")
	}
	if utf8.RuneCountInString(s) > MaxLabelLength {
		return "", errors.Errorf("must be at most %d characters", MaxLabelLength)
	}
	return Label(s), nil
}

func (l Label) String() string { return string(l) }

// Description is free text, possibly empty.
type Description string

func NewDescription(raw string) (Description, error) {
	if utf8.RuneCountInString(raw) > MaxDescriptionLength {
		return "", errors.Errorf("must be at most %d characters", MaxDescriptionLength)
	}
	return Description(raw), nil
}

func (d Description) String() string { return string(d) }

var imageURLPattern = regexp.MustCompile(`^https://.+`)

// ImageURL is an https URL pointing at a product image.
type ImageURL string

func NewImageURL(raw string) (ImageURL, error) {
	if !imageURLPattern.MatchString(raw) {
		return "", errors.New("must start with https://")
	}
	return ImageURL(raw), nil
}

func (u ImageURL) String() string { return string(u) }

// PositiveCm is a strictly positive length in centimeters.
type PositiveCm int

func NewPositiveCm(v int) (PositiveCm, error) {
	if v <= 0 {
		return 0, errors.New("must be positive")
	}
	return PositiveCm(v), nil
}

// Price is an amount in centimes.
type Price int

func NewPrice(v int) (Price, error) {
	if v <= 0 {
		return 0, errors.New("must be positive")
	}
	return Price(v), nil
}

// Dimensions of a made-to-measure variant.
type Dimensions struct {
	Width  PositiveCm
	Length PositiveCm
}
