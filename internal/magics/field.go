package magics

import (
	"errors"
	"fmt"
)

// ErrShape is returned when a grid does not match its coordinate axes.
var ErrShape = errors.New("grid shape does not match coordinate axes")

// Grid is a 2-D array indexed [lat][lon].
type Grid [][]float64

// Dims returns the number of rows (latitudes) and columns (longitudes).
func (g Grid) Dims() (nlat, nlon int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g), len(g[0])
}

// Metadata is attached to scalar fields and surfaces in legends.
type Metadata struct {
	LongName string
	Units    string
}

// Field is a gridded data layer on a regular lon/lat grid. Exactly one of
// Values or U/V is set.
type Field struct {
	Values Grid
	U, V   Grid
	Lon    []float64
	Lat    []float64
	Meta   Metadata
	// Skip is the decimation stride already applied to a vector field.
	Skip int
}

func (f *Field) Verb() string { return VerbInput }

// IsVector reports whether the field carries wind components.
func (f *Field) IsVector() bool { return f.U != nil }

// NewScalarField wraps a scalar grid.
func NewScalarField(values Grid, lon, lat []float64, meta Metadata) (*Field, error) {
	if err := values.CheckAxes(lon, lat); err != nil {
		return nil, err
	}
	return &Field{Values: values, Lon: lon, Lat: lat, Meta: meta, Skip: 1}, nil
}

// NewVectorField wraps a u/v component pair, keeping every skip-th point along
// both axes.
func NewVectorField(u, v Grid, lon, lat []float64, skip int) (*Field, error) {
	if err := u.CheckAxes(lon, lat); err != nil {
		return nil, fmt.Errorf("u component: %w", err)
	}
	if err := v.CheckAxes(lon, lat); err != nil {
		return nil, fmt.Errorf("v component: %w", err)
	}
	if skip < 1 {
		skip = 1
	}
	return &Field{
		U:    decimateGrid(u, skip),
		V:    decimateGrid(v, skip),
		Lon:  decimate(lon, skip),
		Lat:  decimate(lat, skip),
		Skip: skip,
	}, nil
}

// CheckAxes reports ErrShape unless g has one row per latitude and one
// column per longitude.
func (g Grid) CheckAxes(lon, lat []float64) error {
	if len(g) != len(lat) {
		return fmt.Errorf("%w: %d rows for %d latitudes", ErrShape, len(g), len(lat))
	}
	for i, row := range g {
		if len(row) != len(lon) {
			return fmt.Errorf("%w: row %d has %d columns for %d longitudes", ErrShape, i, len(row), len(lon))
		}
	}
	return nil
}

func decimate(xs []float64, skip int) []float64 {
	if skip == 1 {
		return xs
	}
	out := make([]float64, 0, (len(xs)+skip-1)/skip)
	for i := 0; i < len(xs); i += skip {
		out = append(out, xs[i])
	}
	return out
}

func decimateGrid(g Grid, skip int) Grid {
	if skip == 1 {
		return g
	}
	out := make(Grid, 0, (len(g)+skip-1)/skip)
	for i := 0; i < len(g); i += skip {
		out = append(out, decimate(g[i], skip))
	}
	return out
}
