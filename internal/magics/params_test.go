package magics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_WithReplacesInPlace(t *testing.T) {
	base := Params{P("legend", "off"), P("contour_interval", 20.), P("contour_label", "on")}

	got := base.With(P("contour_interval", 50.), P("contour_label_height", 0.5))

	assert.Equal(t, []string{"legend", "contour_interval", "contour_label", "contour_label_height"}, got.Names())
	v, ok := got.Get("contour_interval")
	assert.True(t, ok)
	assert.Equal(t, 50., v)

	// The receiver is left untouched.
	v, _ = base.Get("contour_interval")
	assert.Equal(t, 20., v)
	assert.Len(t, base, 3)
}

func TestParams_GetMissing(t *testing.T) {
	_, ok := Params{P("legend", "on")}.Get("legend_title")
	assert.False(t, ok)
}

func TestCountVerb(t *testing.T) {
	layers := []Directive{Map(), Coast(), Contour(), &Field{}, Contour(), Coast()}
	assert.Equal(t, 2, CountVerb(layers, VerbContour))
	assert.Equal(t, 2, CountVerb(layers, VerbCoast))
	assert.Equal(t, 1, CountVerb(layers, VerbInput))
	assert.Equal(t, 0, CountVerb(layers, VerbWind))
}
