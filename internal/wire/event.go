package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// EncodeEvent serializes a domain event as a message payload.
func EncodeEvent(ev pilot.Event) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	md := ev.Meta()
	e.ObjStart()
	e.FieldStart("_tag")
	e.Str(ev.EventType())
	e.FieldStart("productId")
	e.Str(ev.AggregateID().String())
	switch ev := ev.(type) {
	case pilot.ProductPublished:
		e.FieldStart("product")
		EncodeProduct(e, ev.Product)
	case pilot.ProductSynced:
		e.FieldStart("shopifyProductId")
		e.Str(ev.ExternalID.String())
	case pilot.CatalogProjected:
	}
	e.FieldStart("correlationId")
	e.Str(md.CorrelationID)
	e.FieldStart("userId")
	e.Str(md.UserID)
	e.FieldStart("timestamp")
	encodeTime(e, ev.OccurredAt())
	e.ObjEnd()

	return append([]byte(nil), e.Bytes()...)
}

// DecodeEvent parses a payload written by EncodeEvent.
func DecodeEvent(data []byte) (pilot.Event, error) {
	var (
		tag       string
		productID string
		external  string
		product   *pilot.Product
		md        pilot.Metadata
		timestamp time.Time
	)
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "_tag":
			tag, err = d.Str()
		case "productId":
			productID, err = d.Str()
		case "shopifyProductId":
			external, err = d.Str()
		case "product":
			var p pilot.Product
			p, err = DecodeProduct(d)
			product = &p
		case "correlationId":
			md.CorrelationID, err = decodeOptStr(d)
		case "userId":
			md.UserID, err = decodeOptStr(d)
		case "timestamp":
			timestamp, err = decodeTime(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode event")
	}

	switch tag {
	case pilot.EventProductPublished:
		if product == nil {
			return nil, errors.New("published event without product")
		}
		if productID != "" && product.ID.String() != productID {
			return nil, errors.Errorf("published event for %s carries product %s", productID, product.ID)
		}
		return pilot.ProductPublished{Product: *product, Metadata: md, Timestamp: timestamp}, nil
	case pilot.EventProductSynced:
		return pilot.ProductSynced{
			ProductID:  pilot.ProductID(productID),
			ExternalID: pilot.ExternalID(external),
			Metadata:   md,
			Timestamp:  timestamp,
		}, nil
	case pilot.EventCatalogProjected:
		return pilot.CatalogProjected{ProductID: pilot.ProductID(productID), Metadata: md, Timestamp: timestamp}, nil
	default:
		return nil, errors.Errorf("unknown event type %q", tag)
	}
}
