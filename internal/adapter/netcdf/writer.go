package netcdf

import (
	"fmt"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/couchcryptid/mapplot/internal/magics"
)

// Names used in files produced by WriteField.
const (
	DimLat  = "lat"
	DimLon  = "lon"
	VarData = "data"
	VarU    = "u"
	VarV    = "v"
)

// WriteField stores a plot field as a CF-style NetCDF file: 1-D lat/lon
// coordinates and either a data variable or u/v components on (lat, lon).
func WriteField(path string, f *magics.Field) (err error) {
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := cw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := addVar(cw, DimLat, f.Lat, []string{DimLat}, "latitude", "degrees_north"); err != nil {
		return err
	}
	if err := addVar(cw, DimLon, f.Lon, []string{DimLon}, "longitude", "degrees_east"); err != nil {
		return err
	}

	dims := []string{DimLat, DimLon}
	if f.IsVector() {
		if err := addVar(cw, VarU, [][]float64(f.U), dims, "u component of wind", "m/s"); err != nil {
			return err
		}
		return addVar(cw, VarV, [][]float64(f.V), dims, "v component of wind", "m/s")
	}
	return addVar(cw, VarData, [][]float64(f.Values), dims, f.Meta.LongName, f.Meta.Units)
}

func addVar(cw *cdf.CDFWriter, name string, values any, dims []string, longName, units string) error {
	keys := make([]string, 0, 2)
	vals := make(map[string]any, 2)
	if longName != "" {
		keys = append(keys, "long_name")
		vals["long_name"] = longName
	}
	if units != "" {
		keys = append(keys, "units")
		vals["units"] = units
	}
	attrs, err := util.NewOrderedMap(keys, vals)
	if err != nil {
		return fmt.Errorf("attributes of %s: %w", name, err)
	}
	if err := cw.AddVar(name, api.Variable{
		Values:     values,
		Dimensions: dims,
		Attributes: attrs,
	}); err != nil {
		return fmt.Errorf("add variable %s: %w", name, err)
	}
	return nil
}

// DatasetVar is one variable of a Dataset. Levels, when set, holds one grid
// per vertical level and makes the variable four dimensional.
type DatasetVar struct {
	Name     string
	LongName string
	Units    string
	Grid     magics.Grid
	Levels   []magics.Grid
}

// Dataset is a single-time gridded file in the layout produced by reanalysis
// downloads: time, optional level, latitude, longitude.
type Dataset struct {
	Lon, Lat  []float64
	ValidTime time.Time
	Vars      []DatasetVar
}

const (
	dimTime   = "time"
	dimLevel  = "level"
	timeUnits = "hours since 1900-01-01 00:00:00.0"
)

var timeEpoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// WriteDataset stores ds so that Reader can open it: longitude, latitude and
// time coordinates plus each variable on (time, [level,] latitude, longitude).
func WriteDataset(path string, ds Dataset) (err error) {
	nlevels := -1
	for _, v := range ds.Vars {
		if len(v.Levels) == 0 {
			if err := v.Grid.CheckAxes(ds.Lon, ds.Lat); err != nil {
				return fmt.Errorf("variable %s: %w", v.Name, err)
			}
			continue
		}
		if nlevels >= 0 && len(v.Levels) != nlevels {
			return fmt.Errorf("variable %s: %d levels, want %d", v.Name, len(v.Levels), nlevels)
		}
		nlevels = len(v.Levels)
		for _, g := range v.Levels {
			if err := g.CheckAxes(ds.Lon, ds.Lat); err != nil {
				return fmt.Errorf("variable %s: %w", v.Name, err)
			}
		}
	}

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := cw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := addVar(cw, "longitude", ds.Lon, []string{"longitude"}, "longitude", "degrees_east"); err != nil {
		return err
	}
	if err := addVar(cw, "latitude", ds.Lat, []string{"latitude"}, "latitude", "degrees_north"); err != nil {
		return err
	}
	hours := []int32{int32(ds.ValidTime.Sub(timeEpoch).Hours())}
	if err := addVar(cw, dimTime, hours, []string{dimTime}, "time", timeUnits); err != nil {
		return err
	}

	for _, v := range ds.Vars {
		if len(v.Levels) == 0 {
			err = addVar(cw, v.Name, [][][]float64{v.Grid}, []string{dimTime, "latitude", "longitude"}, v.LongName, v.Units)
		} else {
			levels := make([][][]float64, len(v.Levels))
			for i, g := range v.Levels {
				levels[i] = g
			}
			err = addVar(cw, v.Name, [][][][]float64{levels}, []string{dimTime, dimLevel, "latitude", "longitude"}, v.LongName, v.Units)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
