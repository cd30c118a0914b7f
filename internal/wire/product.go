package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// Sync status tags.
const (
	tagNotSynced  = "NotSynced"
	tagSynced     = "Synced"
	tagSyncFailed = "SyncFailed"
)

// EncodeProduct writes the full product snapshot.
func EncodeProduct(e *jx.Encoder, p pilot.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID.String())
	e.FieldStart("label")
	e.Str(p.Label.String())
	e.FieldStart("type")
	e.Str(string(p.Type))
	e.FieldStart("category")
	e.Str(string(p.Category))
	e.FieldStart("description")
	e.Str(p.Description.String())
	e.FieldStart("priceRange")
	e.Str(string(p.PriceRange))

	e.FieldStart("variants")
	e.ArrStart()
	for _, v := range p.Variants {
		encodeVariant(e, v)
	}
	e.ArrEnd()

	e.FieldStart("views")
	e.ObjStart()
	e.FieldStart("front")
	encodeView(e, p.Views.Front)
	e.FieldStart("detail")
	encodeView(e, p.Views.Detail)
	e.FieldStart("additional")
	e.ArrStart()
	for _, v := range p.Views.Additional {
		encodeView(e, v)
	}
	e.ArrEnd()
	e.ObjEnd()

	e.FieldStart("status")
	e.Str(string(p.Status))
	e.FieldStart("syncStatus")
	encodeSyncStatus(e, p.SyncStatus)
	e.FieldStart("createdAt")
	encodeTime(e, p.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, p.UpdatedAt)
	e.FieldStart("version")
	e.Int64(p.Version)
	e.ObjEnd()
}

func encodeVariant(e *jx.Encoder, v pilot.Variant) {
	e.ObjStart()
	e.FieldStart("size")
	e.Str(string(v.Size()))
	switch v := v.(type) {
	case pilot.CustomVariant:
		d := v.Dimensions()
		e.FieldStart("customDimensions")
		e.ObjStart()
		e.FieldStart("width")
		e.Int(int(d.Width))
		e.FieldStart("length")
		e.Int(int(d.Length))
		e.ObjEnd()
		e.FieldStart("price")
		e.Int(int(v.Price()))
	case pilot.StandardVariant:
	}
	e.ObjEnd()
}

func encodeView(e *jx.Encoder, v pilot.View) {
	e.ObjStart()
	e.FieldStart("viewType")
	e.Str(string(v.Type))
	e.FieldStart("imageUrl")
	e.Str(v.URL.String())
	e.ObjEnd()
}

func encodeSyncStatus(e *jx.Encoder, s pilot.SyncStatus) {
	e.ObjStart()
	e.FieldStart("_tag")
	e.Str(pilot.SyncStatusName(s))
	switch s := s.(type) {
	case pilot.Synced:
		e.FieldStart("shopifyProductId")
		e.Str(s.ExternalID.String())
		e.FieldStart("syncedAt")
		encodeTime(e, s.SyncedAt)
	case pilot.SyncFailed:
		e.FieldStart("error")
		e.ObjStart()
		e.FieldStart("code")
		e.Str(s.Reason.Code)
		e.FieldStart("message")
		e.Str(s.Reason.Message)
		e.ObjEnd()
		e.FieldStart("failedAt")
		encodeTime(e, s.FailedAt)
		e.FieldStart("attempts")
		e.Int(s.Attempts)
	case pilot.NotSynced:
	}
	e.ObjEnd()
}

// rawProduct is a decoded snapshot before its invariants are checked.
type rawProduct struct {
	id         string
	intake     pilot.Intake
	syncStatus pilot.SyncStatus
	createdAt  time.Time
	updatedAt  time.Time
	version    int64
}

// DecodeProduct reads a snapshot written by EncodeProduct. The snapshot is
// validated like a fresh intake, so a corrupted message is rejected here.
func DecodeProduct(d *jx.Decoder) (pilot.Product, error) {
	raw := rawProduct{syncStatus: pilot.NotSynced{}}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			raw.id, err = d.Str()
		case "label":
			raw.intake.Label, err = decodeOptStr(d)
		case "type":
			raw.intake.Type, err = decodeOptStr(d)
		case "category":
			raw.intake.Category, err = decodeOptStr(d)
		case "description":
			raw.intake.Description, err = decodeOptStr(d)
		case "priceRange":
			raw.intake.PriceRange, err = decodeOptStr(d)
		case "status":
			raw.intake.Status, err = decodeOptStr(d)
		case "variants":
			err = decodeOptArr(d, func(d *jx.Decoder) error {
				v, err := decodeVariantIntake(d)
				raw.intake.Variants = append(raw.intake.Variants, v)
				return err
			})
		case "views":
			raw.intake.Views, err = decodeSnapshotViews(d)
		case "syncStatus":
			raw.syncStatus, err = decodeSyncStatus(d)
		case "createdAt":
			raw.createdAt, err = decodeTime(d)
		case "updatedAt":
			raw.updatedAt, err = decodeTime(d)
		case "version":
			raw.version, err = d.Int64()
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	}); err != nil {
		return pilot.Product{}, errors.Wrap(err, "decode product")
	}
	return raw.product()
}

func (r rawProduct) product() (pilot.Product, error) {
	if r.id == "" {
		return pilot.Product{}, errors.New("product snapshot without id")
	}
	data, err := pilot.Validate(r.intake)
	if err != nil {
		return pilot.Product{}, errors.Wrapf(err, "invalid snapshot of product %s", r.id)
	}
	p, err := pilot.New(pilot.ProductID(r.id), data, r.createdAt)
	if err != nil {
		return pilot.Product{}, err
	}
	p = p.WithSyncStatus(r.syncStatus).WithUpdatedAt(r.updatedAt)
	p.Version = r.version
	return p, nil
}

// decodeSnapshotViews flattens {front, detail, additional} back into the
// intake list form.
func decodeSnapshotViews(d *jx.Decoder) ([]pilot.ViewIntake, error) {
	var front, detail *pilot.ViewIntake
	var additional []pilot.ViewIntake
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "front":
			v, err := decodeViewIntake(d)
			front = &v
			return err
		case "detail":
			v, err := decodeViewIntake(d)
			detail = &v
			return err
		case "additional":
			return decodeOptArr(d, func(d *jx.Decoder) error {
				v, err := decodeViewIntake(d)
				additional = append(additional, v)
				return err
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}

	views := make([]pilot.ViewIntake, 0, 2+len(additional))
	if front != nil {
		views = append(views, *front)
	}
	if detail != nil {
		views = append(views, *detail)
	}
	return append(views, additional...), nil
}

func decodeSyncStatus(d *jx.Decoder) (pilot.SyncStatus, error) {
	var (
		tag      string
		external string
		at       time.Time
		reason   pilot.FailureReason
		attempts int
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "_tag":
			tag, err = d.Str()
		case "shopifyProductId":
			external, err = d.Str()
		case "syncedAt", "failedAt":
			at, err = decodeTime(d)
		case "attempts":
			attempts, err = d.Int()
		case "error":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "code":
					reason.Code, err = d.Str()
				case "message":
					reason.Message, err = d.Str()
				default:
					return d.Skip()
				}
				return err
			})
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		return nil, err
	}

	switch tag {
	case tagNotSynced, "":
		return pilot.NotSynced{}, nil
	case tagSynced:
		return pilot.Synced{ExternalID: pilot.ExternalID(external), SyncedAt: at}, nil
	case tagSyncFailed:
		if attempts < 1 {
			return nil, errors.Errorf("sync failure with %d attempts", attempts)
		}
		return pilot.SyncFailed{Reason: reason, FailedAt: at, Attempts: attempts}, nil
	default:
		return nil, errors.Errorf("unknown sync status %q", tag)
	}
}
