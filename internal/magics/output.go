package magics

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
)

// Output is the render target of a plot call.
type Output struct {
	Formats []string
	Width   int
	// Name is the destination file path. Empty keeps the figure in memory.
	Name string
}

// NewPNGOutput targets a single PNG file of the given pixel width.
func NewPNGOutput(width int, path string) *Output {
	return &Output{Formats: []string{"png"}, Width: width, Name: path}
}

// NewFigureOutput asks for an in-memory PNG of the given pixel width.
func NewFigureOutput(width int) *Output {
	return &Output{Formats: []string{"png"}, Width: width}
}

// InMemory reports whether the plot result stays in memory. A nil Output is
// in memory.
func (o *Output) InMemory() bool {
	return o == nil || o.Name == ""
}

// Figure is an in-memory rendered map.
type Figure struct {
	PNG []byte
}

// Image decodes the figure.
func (f *Figure) Image() (image.Image, error) {
	return png.Decode(bytes.NewReader(f.PNG))
}

// WriteTo writes the encoded PNG to w.
func (f *Figure) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.PNG)
	return int64(n), err
}

// Engine renders an ordered list of directives. When out names a file the
// result is written there and the returned figure is nil; otherwise the engine
// returns the figure in memory, honouring out.Width when it is set.
type Engine interface {
	Plot(ctx context.Context, out *Output, layers ...Directive) (*Figure, error)
}
