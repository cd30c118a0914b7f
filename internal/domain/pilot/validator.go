package pilot

import (
	"go.uber.org/multierr"
)

// Intake is the raw product payload received from a client. Nothing in it
// is trusted; Validate turns it into ValidatedData.
type Intake struct {
	Label       string
	Type        string
	Category    string
	Description string
	PriceRange  string
	Variants    []VariantIntake
	Views       []ViewIntake
	Status      string
}

type VariantIntake struct {
	Size             string
	CustomDimensions *DimensionsIntake
	Price            *int
}

type DimensionsIntake struct {
	Width  *int
	Length *int
}

type ViewIntake struct {
	ViewType string
	ImageURL string
}

// ValidatedData is an intake that satisfies every product invariant.
type ValidatedData struct {
	Label       Label
	Type        ProductType
	Category    Category
	Description Description
	PriceRange  PriceRange
	Variants    []Variant
	Views       Views
	Status      Status
}

// Validate checks every field of the intake independently and reports all
// problems at once as a *ValidationError.
func Validate(in Intake) (ValidatedData, error) {
	var (
		data ValidatedData
		errs error
		err  error
	)

	data.Label, err = validateLabel(in.Label)
	multierr.AppendInto(&errs, err)
	data.Type, err = validateType(in.Type)
	multierr.AppendInto(&errs, err)
	data.Category, err = validateCategory(in.Category)
	multierr.AppendInto(&errs, err)
	data.Description, err = validateDescription(in.Description)
	multierr.AppendInto(&errs, err)
	data.PriceRange, err = validatePriceRange(in.PriceRange)
	multierr.AppendInto(&errs, err)
	data.Variants, err = validateVariants(in.Variants)
	multierr.AppendInto(&errs, err)
	data.Views, err = validateViews(in.Views)
	multierr.AppendInto(&errs, err)
	data.Status, err = validateStatus(in.Status)
	multierr.AppendInto(&errs, err)

	if errs != nil {
		return ValidatedData{}, newValidationError(errs)
	}
	return data, nil
}

func newValidationError(errs error) *ValidationError {
	all := multierr.Errors(errs)
	seen := make(map[string]struct{}, len(all))
	msgs := make([]string, 0, len(all))
	for _, e := range all {
		msg := e.Error()
		if _, ok := seen[msg]; ok {
			continue
		}
		seen[msg] = struct{}{}
		msgs = append(msgs, msg)
	}
	return &ValidationError{Errors: msgs}
}

func validateLabel(raw string) (Label, error) {
	l, err := NewLabel(raw)
	if err != nil {
		return "", fieldErrorf("Invalid label: %v", err)
	}
	return l, nil
}

func validateType(raw string) (ProductType, error) {
	t, ok := ParseProductType(raw)
	if !ok {
		return "", fieldErrorf("Invalid product type: %s", raw)
	}
	return t, nil
}

func validateCategory(raw string) (Category, error) {
	c, ok := ParseCategory(raw)
	if !ok {
		return "", fieldErrorf("Invalid category: %s", raw)
	}
	return c, nil
}

func validateDescription(raw string) (Description, error) {
	d, err := NewDescription(raw)
	if err != nil {
		return "", fieldErrorf("Invalid description: %v", err)
	}
	return d, nil
}

func validatePriceRange(raw string) (PriceRange, error) {
	r, ok := ParsePriceRange(raw)
	if !ok {
		return "", fieldErrorf("Invalid price range: %s", raw)
	}
	return r, nil
}

func validateStatus(raw string) (Status, error) {
	s, ok := ParseStatus(raw)
	if !ok {
		return "", fieldErrorf("Invalid status: %s", raw)
	}
	return s, nil
}

// validateVariants keeps going after a bad element so every broken variant
// is reported.
func validateVariants(in []VariantIntake) ([]Variant, error) {
	if len(in) == 0 {
		return nil, fieldErrorf("At least one variant is required")
	}
	var errs error
	out := make([]Variant, 0, len(in))
	for i, v := range in {
		variant, err := validateVariant(v)
		if err != nil {
			multierr.AppendInto(&errs, fieldErrorf("Variant[%d]: %v", i, err))
			continue
		}
		out = append(out, variant)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func validateVariant(in VariantIntake) (Variant, error) {
	size, ok := ParseSize(in.Size)
	if !ok {
		return nil, fieldErrorf("Invalid size: %s", in.Size)
	}
	if size != SizeCustom {
		return NewStandardVariant(size)
	}

	d := in.CustomDimensions
	if d == nil || d.Width == nil || d.Length == nil {
		return nil, fieldErrorf("Custom variant requires dimensions")
	}
	width, err := NewPositiveCm(*d.Width)
	if err != nil {
		return nil, fieldErrorf("Invalid width: %v", err)
	}
	length, err := NewPositiveCm(*d.Length)
	if err != nil {
		return nil, fieldErrorf("Invalid length: %v", err)
	}
	if in.Price == nil {
		return nil, fieldErrorf("Custom variant requires price")
	}
	price, err := NewPrice(*in.Price)
	if err != nil {
		return nil, fieldErrorf("Invalid price: %v", err)
	}
	return NewCustomVariant(Dimensions{Width: width, Length: length}, price), nil
}

// validateViews classifies the well-formed entries even when some entries
// are broken, then checks that front and detail are both present.
func validateViews(in []ViewIntake) (Views, error) {
	if len(in) < MinViews {
		return Views{}, fieldErrorf("Minimum %d views required", MinViews)
	}

	var (
		errs          error
		views         Views
		front, detail bool
	)
	additional := make([]View, 0, len(in))
	for i, raw := range in {
		view, err := validateView(raw)
		if err != nil {
			multierr.AppendInto(&errs, fieldErrorf("View[%d]: %v", i, err))
			continue
		}
		switch view.Type {
		case ViewFront:
			if front {
				multierr.AppendInto(&errs, fieldErrorf("View[%d]: Duplicate %s view", i, view.Type))
				continue
			}
			views.Front, front = view, true
		case ViewDetail:
			if detail {
				multierr.AppendInto(&errs, fieldErrorf("View[%d]: Duplicate %s view", i, view.Type))
				continue
			}
			views.Detail, detail = view, true
		case ViewBack, ViewAmbiance:
			additional = append(additional, view)
		}
	}
	if !front {
		multierr.AppendInto(&errs, fieldErrorf("%s view is required", ViewFront))
	}
	if !detail {
		multierr.AppendInto(&errs, fieldErrorf("%s view is required", ViewDetail))
	}
	if errs != nil {
		return Views{}, errs
	}
	views.Additional = additional
	return views, nil
}

func validateView(in ViewIntake) (View, error) {
	t, ok := ParseViewType(in.ViewType)
	if !ok {
		return View{}, fieldErrorf("Invalid view type: %s", in.ViewType)
	}
	u, err := NewImageURL(in.ImageURL)
	if err != nil {
		return View{}, fieldErrorf("Invalid image URL: %v", err)
	}
	return View{Type: t, URL: u}, nil
}
