// Package netcdf reads model grids from NetCDF files and writes plot fields
// for the Magics engine.
package netcdf

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"

	ncnative "github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/couchcryptid/mapplot/internal/magics"
)

// ErrVariableNotFound is returned when none of the candidate names exist.
var ErrVariableNotFound = errors.New("netcdf variable not found")

var (
	lonNames  = []string{"longitude", "lon"}
	latNames  = []string{"latitude", "lat"}
	timeNames = []string{"time", "valid_time"}
)

// Reader retrieves 2-D slices of gridded variables.
type Reader struct {
	path string
	nc   api.Group
	lon  []float64
	lat  []float64
}

// Open opens a NetCDF file and reads its coordinate axes.
func Open(path string) (*Reader, error) {
	nc, err := ncnative.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r := &Reader{path: path, nc: nc}
	if r.lon, err = r.axis(lonNames); err != nil {
		nc.Close()
		return nil, err
	}
	if r.lat, err = r.axis(latNames); err != nil {
		nc.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the underlying file.
func (r *Reader) Close() {
	r.nc.Close()
}

// Axes returns the longitude and latitude coordinates.
func (r *Reader) Axes() (lon, lat []float64) {
	return r.lon, r.lat
}

// Summary returns information about the dataset suitable for logging.
func (r *Reader) Summary() []any {
	return []any{
		"file", r.path,
		"variables", r.nc.ListVariables(),
		"lonCnt", len(r.lon),
		"latCnt", len(r.lat),
	}
}

func (r *Reader) getter(names []string) (api.VarGetter, string, error) {
	for _, name := range names {
		vg, err := r.nc.GetVarGetter(name)
		if err == nil {
			return vg, name, nil
		}
	}
	return nil, "", fmt.Errorf("%w: %v in %s", ErrVariableNotFound, names, r.path)
}

func (r *Reader) axis(names []string) ([]float64, error) {
	vg, name, err := r.getter(names)
	if err != nil {
		return nil, err
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return toFloats(reflect.ValueOf(v))
}

// Grid reads variable name at the given time index and, for variables with a
// vertical axis, level index. Rank-3 variables are (time, lat, lon) when the
// leading dimension is a time axis and (level, lat, lon) otherwise. Packed
// integers are unpacked with scale_factor/add_offset and fill values become
// NaN.
func (r *Reader) Grid(name string, timeIndex, levelIndex int) (magics.Grid, error) {
	vg, _, err := r.getter([]string{name})
	if err != nil {
		return nil, err
	}

	var plane reflect.Value
	dims := vg.Dimensions()
	switch rank := len(dims); rank {
	case 2:
		v, err := vg.Values()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		plane = reflect.ValueOf(v)
	case 3, 4:
		axis, index := "time", timeIndex
		if rank == 3 && !slices.Contains(timeNames, dims[0]) {
			axis, index = "level", levelIndex
		}
		if index < 0 || int64(index) >= vg.Len() {
			return nil, fmt.Errorf("read %s: %s index %d out of range [0,%d)", name, axis, index, vg.Len())
		}
		v, err := vg.GetSlice(int64(index), int64(index)+1)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		plane = reflect.ValueOf(v).Index(0)
		if rank == 4 {
			if levelIndex < 0 || levelIndex >= plane.Len() {
				return nil, fmt.Errorf("read %s: level index %d out of range [0,%d)", name, levelIndex, plane.Len())
			}
			plane = plane.Index(levelIndex)
		}
	default:
		return nil, fmt.Errorf("read %s: unsupported rank %d", name, rank)
	}

	return unpack(plane, packingOf(vg.Attributes()))
}

// packing describes CF packing attributes of a variable.
type packing struct {
	scale, offset float64
	fills         []float64
}

func packingOf(attrs api.AttributeMap) packing {
	p := packing{scale: 1}
	if attrs == nil {
		return p
	}
	if v, ok := attrFloat(attrs, "scale_factor"); ok {
		p.scale = v
	}
	if v, ok := attrFloat(attrs, "add_offset"); ok {
		p.offset = v
	}
	for _, key := range []string{"_FillValue", "missing_value"} {
		if v, ok := attrFloat(attrs, key); ok {
			p.fills = append(p.fills, v)
		}
	}
	return p
}

func (p packing) apply(raw float64) float64 {
	for _, f := range p.fills {
		if raw == f {
			return math.NaN()
		}
	}
	return raw*p.scale + p.offset
}

func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		if rv.Len() == 0 {
			return 0, false
		}
		rv = rv.Index(0)
	}
	return scalar(rv)
}

func scalar(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return float64(v.Int()), true
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}

func toFloats(v reflect.Value) ([]float64, error) {
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected slice, got %s", v.Kind())
	}
	out := make([]float64, v.Len())
	for i := range out {
		f, ok := scalar(v.Index(i))
		if !ok {
			return nil, fmt.Errorf("unsupported element type %s", v.Index(i).Type())
		}
		out[i] = f
	}
	return out, nil
}

func unpack(plane reflect.Value, p packing) (magics.Grid, error) {
	if plane.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected 2-D slice, got %s", plane.Kind())
	}
	g := make(magics.Grid, plane.Len())
	for i := range g {
		row, err := toFloats(plane.Index(i))
		if err != nil {
			return nil, err
		}
		for j := range row {
			row[j] = p.apply(row[j])
		}
		g[i] = row
	}
	return g, nil
}
