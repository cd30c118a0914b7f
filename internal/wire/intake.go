package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// DecodeIntake reads a create-product request body. Missing or null fields
// are left empty for pilot.Validate to report.
func DecodeIntake(data []byte) (pilot.Intake, error) {
	var in pilot.Intake
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "label":
			in.Label, err = decodeOptStr(d)
		case "type":
			in.Type, err = decodeOptStr(d)
		case "category":
			in.Category, err = decodeOptStr(d)
		case "description":
			in.Description, err = decodeOptStr(d)
		case "priceRange":
			in.PriceRange, err = decodeOptStr(d)
		case "status":
			in.Status, err = decodeOptStr(d)
		case "variants":
			err = decodeOptArr(d, func(d *jx.Decoder) error {
				v, err := decodeVariantIntake(d)
				in.Variants = append(in.Variants, v)
				return err
			})
		case "views":
			err = decodeOptArr(d, func(d *jx.Decoder) error {
				v, err := decodeViewIntake(d)
				in.Views = append(in.Views, v)
				return err
			})
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	}); err != nil {
		return pilot.Intake{}, errors.Wrap(err, "decode intake")
	}
	return in, nil
}

func decodeVariantIntake(d *jx.Decoder) (pilot.VariantIntake, error) {
	var v pilot.VariantIntake
	_, err := decodeOptObj(d, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "size":
			v.Size, err = decodeOptStr(d)
		case "price":
			v.Price, err = decodeOptInt(d)
		case "customDimensions":
			var dims pilot.DimensionsIntake
			var ok bool
			ok, err = decodeOptObj(d, func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "width":
					dims.Width, err = decodeOptInt(d)
				case "length":
					dims.Length, err = decodeOptInt(d)
				default:
					return d.Skip()
				}
				return err
			})
			if ok {
				v.CustomDimensions = &dims
			}
		default:
			return d.Skip()
		}
		return err
	})
	return v, err
}

func decodeViewIntake(d *jx.Decoder) (pilot.ViewIntake, error) {
	var v pilot.ViewIntake
	_, err := decodeOptObj(d, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "viewType":
			v.ViewType, err = decodeOptStr(d)
		case "imageUrl":
			v.ImageURL, err = decodeOptStr(d)
		default:
			return d.Skip()
		}
		return err
	})
	return v, err
}
