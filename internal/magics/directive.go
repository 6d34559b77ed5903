package magics

// Engine verbs. They match the Magics macro function names.
const (
	VerbMap     = "mmap"
	VerbCoast   = "mcoast"
	VerbInput   = "minput"
	VerbContour = "mcont"
	VerbWind    = "mwind"
	VerbLegend  = "mlegend"
	VerbText    = "mtext"
)

// Directive is one positional argument of a plot call.
type Directive interface {
	Verb() string
}

// Action is a style directive: a verb plus its parameters.
type Action struct {
	Name   string
	Params Params
}

func (a *Action) Verb() string { return a.Name }

// Map builds a projection/area directive.
func Map(params ...Param) *Action { return &Action{Name: VerbMap, Params: params} }

// Coast builds a coastline layer directive.
func Coast(params ...Param) *Action { return &Action{Name: VerbCoast, Params: params} }

// Contour builds a contouring/shading style for the preceding field.
func Contour(params ...Param) *Action { return &Action{Name: VerbContour, Params: params} }

// Wind builds an arrow or flag style for the preceding vector field.
func Wind(params ...Param) *Action { return &Action{Name: VerbWind, Params: params} }

// Legend builds a legend directive.
func Legend(params ...Param) *Action { return &Action{Name: VerbLegend, Params: params} }

// Text builds a title/text directive.
func Text(params ...Param) *Action { return &Action{Name: VerbText, Params: params} }

// CountVerb reports how many directives in layers use verb.
func CountVerb(layers []Directive, verb string) int {
	n := 0
	for _, l := range layers {
		if l.Verb() == verb {
			n++
		}
	}
	return n
}
