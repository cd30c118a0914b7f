package mongo

import (
	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

type productDocument struct {
	ID          string             `bson:"_id"`
	Label       string             `bson:"label"`
	Type        string             `bson:"type"`
	Category    string             `bson:"category"`
	Description string             `bson:"description"`
	PriceRange  string             `bson:"priceRange"`
	Variants    []variantDocument  `bson:"variants"`
	Views       viewsDocument      `bson:"views"`
	Status      string             `bson:"status"`
	SyncStatus  syncStatusDocument `bson:"syncStatus"`
	CreatedAt   primitive.DateTime `bson:"createdAt"`
	UpdatedAt   primitive.DateTime `bson:"updatedAt"`
	Version     int64              `bson:"version"`
}

type variantDocument struct {
	Tag              string              `bson:"_tag"`
	Size             string              `bson:"size"`
	CustomDimensions *dimensionsDocument `bson:"customDimensions,omitempty"`
	Price            int                 `bson:"price,omitempty"`
}

type dimensionsDocument struct {
	Width  int `bson:"width"`
	Length int `bson:"length"`
}

type viewsDocument struct {
	Front      viewDocument   `bson:"front"`
	Detail     viewDocument   `bson:"detail"`
	Additional []viewDocument `bson:"additional"`
}

type viewDocument struct {
	ViewType string `bson:"viewType"`
	ImageURL string `bson:"imageUrl"`
}

type syncStatusDocument struct {
	Tag              string              `bson:"_tag"`
	ShopifyProductID string              `bson:"shopifyProductId,omitempty"`
	SyncedAt         *primitive.DateTime `bson:"syncedAt,omitempty"`
	Error            *syncErrorDocument  `bson:"error,omitempty"`
	FailedAt         *primitive.DateTime `bson:"failedAt,omitempty"`
	Attempts         int                 `bson:"attempts,omitempty"`
}

type syncErrorDocument struct {
	Code    string `bson:"code"`
	Message string `bson:"message"`
}

const (
	tagStandardVariant = "StandardVariant"
	tagCustomVariant   = "CustomVariant"
)

func toDocument(p pilot.Product) productDocument {
	doc := productDocument{
		ID:          p.ID.String(),
		Label:       p.Label.String(),
		Type:        string(p.Type),
		Category:    string(p.Category),
		Description: p.Description.String(),
		PriceRange:  string(p.PriceRange),
		Variants:    make([]variantDocument, 0, len(p.Variants)),
		Views: viewsDocument{
			Front:      toViewDocument(p.Views.Front),
			Detail:     toViewDocument(p.Views.Detail),
			Additional: make([]viewDocument, 0, len(p.Views.Additional)),
		},
		Status:     string(p.Status),
		SyncStatus: toSyncStatusDocument(p.SyncStatus),
		CreatedAt:  primitive.NewDateTimeFromTime(p.CreatedAt),
		UpdatedAt:  primitive.NewDateTimeFromTime(p.UpdatedAt),
		Version:    p.Version,
	}
	for _, v := range p.Variants {
		doc.Variants = append(doc.Variants, toVariantDocument(v))
	}
	for _, v := range p.Views.Additional {
		doc.Views.Additional = append(doc.Views.Additional, toViewDocument(v))
	}
	return doc
}

func toVariantDocument(v pilot.Variant) variantDocument {
	switch v := v.(type) {
	case pilot.CustomVariant:
		d := v.Dimensions()
		return variantDocument{
			Tag:              tagCustomVariant,
			Size:             string(v.Size()),
			CustomDimensions: &dimensionsDocument{Width: int(d.Width), Length: int(d.Length)},
			Price:            int(v.Price()),
		}
	default:
		return variantDocument{Tag: tagStandardVariant, Size: string(v.Size())}
	}
}

func toViewDocument(v pilot.View) viewDocument {
	return viewDocument{ViewType: string(v.Type), ImageURL: v.URL.String()}
}

func toSyncStatusDocument(s pilot.SyncStatus) syncStatusDocument {
	doc := syncStatusDocument{Tag: pilot.SyncStatusName(s)}
	switch s := s.(type) {
	case pilot.Synced:
		at := primitive.NewDateTimeFromTime(s.SyncedAt)
		doc.ShopifyProductID = s.ExternalID.String()
		doc.SyncedAt = &at
	case pilot.SyncFailed:
		at := primitive.NewDateTimeFromTime(s.FailedAt)
		doc.Error = &syncErrorDocument{Code: s.Reason.Code, Message: s.Reason.Message}
		doc.FailedAt = &at
		doc.Attempts = s.Attempts
	case pilot.NotSynced:
	}
	return doc
}

// toProduct rebuilds the aggregate through the value constructors so a
// document edited by hand cannot break its invariants.
func (doc productDocument) toProduct() (pilot.Product, error) {
	variants := make([]pilot.Variant, 0, len(doc.Variants))
	for i, v := range doc.Variants {
		variant, err := v.toVariant()
		if err != nil {
			return pilot.Product{}, errors.Wrapf(err, "variant %d", i)
		}
		variants = append(variants, variant)
	}

	views, err := doc.Views.toViews()
	if err != nil {
		return pilot.Product{}, err
	}
	label, err := pilot.NewLabel(doc.Label)
	if err != nil {
		return pilot.Product{}, errors.Wrap(err, "label")
	}
	description, err := pilot.NewDescription(doc.Description)
	if err != nil {
		return pilot.Product{}, errors.Wrap(err, "description")
	}
	status, err := doc.SyncStatus.toSyncStatus()
	if err != nil {
		return pilot.Product{}, err
	}

	p, err := pilot.New(pilot.ProductID(doc.ID), pilot.ValidatedData{
		Label:       label,
		Type:        pilot.ProductType(doc.Type),
		Category:    pilot.Category(doc.Category),
		Description: description,
		PriceRange:  pilot.PriceRange(doc.PriceRange),
		Variants:    variants,
		Views:       views,
		Status:      pilot.Status(doc.Status),
	}, doc.CreatedAt.Time().UTC())
	if err != nil {
		return pilot.Product{}, err
	}
	p = p.WithSyncStatus(status).WithUpdatedAt(doc.UpdatedAt.Time().UTC())
	p.Version = doc.Version
	return p, nil
}

func (v variantDocument) toVariant() (pilot.Variant, error) {
	switch v.Tag {
	case tagStandardVariant:
		return pilot.NewStandardVariant(pilot.Size(v.Size))
	case tagCustomVariant:
		if v.CustomDimensions == nil {
			return nil, errors.New("custom variant without dimensions")
		}
		width, err := pilot.NewPositiveCm(v.CustomDimensions.Width)
		if err != nil {
			return nil, errors.Wrap(err, "width")
		}
		length, err := pilot.NewPositiveCm(v.CustomDimensions.Length)
		if err != nil {
			return nil, errors.Wrap(err, "length")
		}
		price, err := pilot.NewPrice(v.Price)
		if err != nil {
			return nil, errors.Wrap(err, "price")
		}
		return pilot.NewCustomVariant(pilot.Dimensions{Width: width, Length: length}, price), nil
	default:
		return nil, errors.Errorf("unknown variant tag %q", v.Tag)
	}
}

func (v viewsDocument) toViews() (pilot.Views, error) {
	front, err := v.Front.toView()
	if err != nil {
		return pilot.Views{}, errors.Wrap(err, "front view")
	}
	detail, err := v.Detail.toView()
	if err != nil {
		return pilot.Views{}, errors.Wrap(err, "detail view")
	}
	var additional []pilot.View
	for i, doc := range v.Additional {
		view, err := doc.toView()
		if err != nil {
			return pilot.Views{}, errors.Wrapf(err, "additional view %d", i)
		}
		additional = append(additional, view)
	}
	return pilot.Views{Front: front, Detail: detail, Additional: additional}, nil
}

func (v viewDocument) toView() (pilot.View, error) {
	u, err := pilot.NewImageURL(v.ImageURL)
	if err != nil {
		return pilot.View{}, err
	}
	return pilot.View{Type: pilot.ViewType(v.ViewType), URL: u}, nil
}

func (s syncStatusDocument) toSyncStatus() (pilot.SyncStatus, error) {
	switch s.Tag {
	case "NotSynced", "":
		return pilot.NotSynced{}, nil
	case "Synced":
		var at primitive.DateTime
		if s.SyncedAt != nil {
			at = *s.SyncedAt
		}
		return pilot.Synced{ExternalID: pilot.ExternalID(s.ShopifyProductID), SyncedAt: at.Time().UTC()}, nil
	case "SyncFailed":
		var (
			reason pilot.FailureReason
			at     primitive.DateTime
		)
		if s.Error != nil {
			reason = pilot.FailureReason{Code: s.Error.Code, Message: s.Error.Message}
		}
		if s.FailedAt != nil {
			at = *s.FailedAt
		}
		attempts := s.Attempts
		if attempts < 1 {
			attempts = 1
		}
		return pilot.SyncFailed{Reason: reason, FailedAt: at.Time().UTC(), Attempts: attempts}, nil
	default:
		return nil, errors.Errorf("unknown sync status %q", s.Tag)
	}
}
