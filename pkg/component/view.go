package component

// A View selects which rendering variant of a payload to produce.
// The zero value inherits the view from the rendering context: an
// explicit view argument wins, otherwise the component's own selector
// applies.
type View struct {
	name     string
	explicit bool
}

// Inherit is the zero View; it takes the view from the context.
var Inherit = View{}

// Default is the explicitly selected default view.
var Default = Named("")

// Named selects the rendering variant registered under name.
func Named(name string) View {
	return View{name: name, explicit: true}
}

// Name returns the selected variant name, "" for Default and Inherit.
func (v View) Name() string { return v.name }

// Inherited reports whether the view is taken from the context.
func (v View) Inherited() bool { return !v.explicit }

func (v View) String() string {
	switch {
	case v.Inherited():
		return "<inherit>"
	case v.name == "":
		return "<default>"
	default:
		return v.name
	}
}
