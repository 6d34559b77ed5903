// Package product assembles the directive list for each map product and hands
// it to a plotting engine.
package product

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/mapplot/internal/magics"
)

// DefaultWidth is the PNG width in pixels when no WithWidth option is given.
const DefaultWidth = 1200

// Input carries the grids and optional settings of one render call. Grids are
// indexed [lat][lon] and must match the Lon and Lat axes.
type Input struct {
	U, V magics.Grid
	// MSLP is the shaded field of the pressure product, in mb.
	MSLP magics.Grid
	// Height adds a geopotential height contour layer when non-nil.
	Height magics.Grid
	// Vort is accepted by the vorticity product but not drawn.
	Vort magics.Grid

	Lon []float64
	Lat []float64

	// Stride thins vectors; zero selects DefaultStride.
	Stride int
	// Region overrides the default map extent.
	Region *magics.Region
	// Caption replaces the product's default title when non-empty.
	Caption string
	// ValidTime adds a second title line when non-zero.
	ValidTime time.Time
	// OutputPath switches from returning a figure to writing a PNG file.
	OutputPath string
}

// Result is either a written file (Path) or an in-memory figure.
type Result struct {
	Path   string
	Figure *magics.Figure
}

// Written reports whether the render went to a file.
func (r Result) Written() bool { return r.Path != "" }

// Renderer builds product directive lists and plots them with an engine.
type Renderer struct {
	engine magics.Engine
	width  int
	logger *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWidth sets the PNG width in pixels of both written files and in-memory
// figures.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// NewRenderer creates a Renderer on top of engine.
func NewRenderer(engine magics.Engine, opts ...Option) *Renderer {
	r := &Renderer{engine: engine, width: DefaultWidth, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Width returns the configured output width.
func (r *Renderer) Width() int { return r.width }

// WindUpper renders the 200hPa wind and height map.
func (r *Renderer) WindUpper(ctx context.Context, in Input) (Result, error) {
	return r.Render(ctx, WindUpper, in)
}

// WindHigh renders the 850hPa wind flags over 500hPa heights.
func (r *Renderer) WindHigh(ctx context.Context, in Input) (Result, error) {
	return r.Render(ctx, WindHigh, in)
}

// VortHigh renders the vorticity product. in.Vort is not plotted.
func (r *Renderer) VortHigh(ctx context.Context, in Input) (Result, error) {
	if in.Vort != nil {
		r.logger.Warn("vorticity grid supplied but not plotted", "product", NameVortHigh)
	}
	return r.Render(ctx, VortHigh, in)
}

// MSLP renders the mean sea-level pressure map.
func (r *Renderer) MSLP(ctx context.Context, in Input) (Result, error) {
	return r.Render(ctx, MSLP, in)
}

// Render assembles the directives of p and issues a single engine call.
// Errors from field construction and the engine are returned unchanged.
func (r *Renderer) Render(ctx context.Context, p Product, in Input) (Result, error) {
	layers, err := Layers(p, in)
	if err != nil {
		return Result{}, err
	}

	if in.OutputPath == "" {
		fig, err := r.engine.Plot(ctx, magics.NewFigureOutput(r.width), layers...)
		if err != nil {
			return Result{}, err
		}
		return Result{Figure: fig}, nil
	}

	out := magics.NewPNGOutput(r.width, in.OutputPath)
	if _, err := r.engine.Plot(ctx, out, layers...); err != nil {
		return Result{}, err
	}
	return Result{Path: in.OutputPath}, nil
}

// Layers returns the ordered plot arguments of p for in, excluding the
// output target.
func Layers(p Product, in Input) ([]magics.Directive, error) {
	var (
		wind   *magics.Field
		scalar *magics.Field
		height *magics.Field
		err    error
	)

	if p.HasVectors() {
		stride := in.Stride
		if stride <= 0 {
			stride = DefaultStride(len(in.Lon), len(in.Lat))
		}
		wind, err = magics.NewVectorField(in.U, in.V, in.Lon, in.Lat, stride)
		if err != nil {
			return nil, err
		}
	}

	switch p.scalar {
	case scalarPressure:
		scalar, err = magics.NewScalarField(in.MSLP, in.Lon, in.Lat, mslpMeta)
	default:
		var speed magics.Grid
		speed, err = WindSpeed(in.U, in.V)
		if err != nil {
			return nil, err
		}
		scalar, err = magics.NewScalarField(speed, in.Lon, in.Lat, speedMeta)
	}
	if err != nil {
		return nil, err
	}

	if in.Height != nil {
		height, err = magics.NewScalarField(in.Height, in.Lon, in.Lat, heightMeta)
		if err != nil {
			return nil, err
		}
	}

	area, err := mapFor(in.Region)
	if err != nil {
		return nil, err
	}
	coastlines, err := magics.CoastStyle(magics.CoastFill)
	if err != nil {
		return nil, err
	}
	provinces, err := magics.CoastStyle(magics.Province)
	if err != nil {
		return nil, err
	}

	title := magics.Text(
		magics.P("text_lines", TitleLines(in.Caption, p.DefaultCaption, in.ValidTime)),
		magics.P("text_justification", "left"),
		magics.P("text_font_size", 0.6),
		magics.P("text_mode", "title"),
		magics.P("text_colour", "charcoal"),
	)

	layers := []magics.Directive{area, coastlines, scalar, magics.Contour(p.ScalarContour...)}
	if wind != nil {
		layers = append(layers, wind, magics.Wind(p.WindStyle...))
	}
	if height != nil {
		layers = append(layers, height, magics.Contour(p.HeightContour...))
	}
	layers = append(layers, magics.Legend(p.Legend...), title, provinces)
	return layers, nil
}

func mapFor(region *magics.Region) (*magics.Action, error) {
	frame := magics.P("subpage_frame_thickness", 5)
	if region == nil {
		return magics.MapStyle(magics.ChinaCylindrical, nil, frame)
	}
	return magics.MapStyle(magics.ChinaRegionCylindrical, region, frame)
}
