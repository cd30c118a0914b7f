package pilot

import "github.com/go-faster/errors"

// Variant is either a StandardVariant or a CustomVariant.
//
//sumtype:decl
type Variant interface {
	Size() Size
	isVariant()
}

// StandardVariant is sold in a predefined size, never SizeCustom.
type StandardVariant struct {
	size Size
}

func NewStandardVariant(size Size) (StandardVariant, error) {
	switch size {
	case SizeRegular, SizeLarge:
		return StandardVariant{size: size}, nil
	default:
		return StandardVariant{}, errors.Errorf("standard variant cannot have size %q", size)
	}
}

func (v StandardVariant) Size() Size { return v.size }
func (StandardVariant) isVariant()   {}

// CustomVariant is made to measure and carries its own price.
type CustomVariant struct {
	dimensions Dimensions
	price      Price
}

func NewCustomVariant(dimensions Dimensions, price Price) CustomVariant {
	return CustomVariant{dimensions: dimensions, price: price}
}

func (CustomVariant) Size() Size               { return SizeCustom }
func (v CustomVariant) Dimensions() Dimensions { return v.dimensions }
func (v CustomVariant) Price() Price           { return v.price }
func (CustomVariant) isVariant()               {}
