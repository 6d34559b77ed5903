// Package magics describes plotting directives understood by the Magics
// cartographic engine. Directives are plain data; an Engine turns an ordered
// list of them into an image.
package magics

// Param is a single named engine parameter, e.g. contour_interval=50.
type Param struct {
	Name  string
	Value any
}

// P is shorthand for building a Param.
func P(name string, value any) Param {
	return Param{Name: name, Value: value}
}

// Params is an ordered parameter list. Order is preserved when a directive is
// emitted so generated scripts are stable.
type Params []Param

// Get returns the value of the named parameter.
func (ps Params) Get(name string) (any, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// With returns a copy of ps where each override replaces the parameter of the
// same name in place, or is appended when absent.
func (ps Params) With(overrides ...Param) Params {
	out := make(Params, len(ps), len(ps)+len(overrides))
	copy(out, ps)
	for _, o := range overrides {
		replaced := false
		for i := range out {
			if out[i].Name == o.Name {
				out[i].Value = o.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, o)
		}
	}
	return out
}

// Names lists parameter names in order.
func (ps Params) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}
