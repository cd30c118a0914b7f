package pilot

// MinViews is the minimum number of views accepted at intake.
const MinViews = 2

// View is a single product image.
type View struct {
	Type ViewType
	URL  ImageURL
}

// Views always holds a front and a detail view. Additional holds back and
// ambiance shots in intake order.
type Views struct {
	Front      View
	Detail     View
	Additional []View
}

// All returns the views in display order: front, detail, additional.
func (v Views) All() []View {
	out := make([]View, 0, 2+len(v.Additional))
	out = append(out, v.Front, v.Detail)
	return append(out, v.Additional...)
}

func (v Views) clone() Views {
	if v.Additional != nil {
		v.Additional = append([]View(nil), v.Additional...)
	}
	return v
}
