package magics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownStyle is returned for an unregistered map or coast preset name.
var ErrUnknownStyle = errors.New("unknown style preset")

// Map and coast preset names.
const (
	ChinaCylindrical       = "CHINA_CYLINDRICAL"
	ChinaRegionCylindrical = "CHINA_REGION_CYLINDRICAL"
	CoastFill              = "COAST_FILL"
	Province               = "PROVINCE"
)

// Region is a lon/lat bounding box in degrees.
type Region struct {
	LonMin float64 `json:"lon_min" yaml:"lon_min"`
	LonMax float64 `json:"lon_max" yaml:"lon_max"`
	LatMin float64 `json:"lat_min" yaml:"lat_min"`
	LatMax float64 `json:"lat_max" yaml:"lat_max"`
}

// ParseRegion parses "lonmin,lonmax,latmin,latmax".
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("parse region %q: want lonmin,lonmax,latmin,latmax", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, fmt.Errorf("parse region %q: %w", s, err)
		}
		v[i] = f
	}
	return Region{LonMin: v[0], LonMax: v[1], LatMin: v[2], LatMax: v[3]}, nil
}

// chinaRegion is the default extent of the China cylindrical map.
var chinaRegion = Region{LonMin: 70, LonMax: 140, LatMin: 10, LatMax: 60}

func cylindrical(r Region) Params {
	return Params{
		P("subpage_map_projection", "cylindrical"),
		P("subpage_lower_left_longitude", r.LonMin),
		P("subpage_upper_right_longitude", r.LonMax),
		P("subpage_lower_left_latitude", r.LatMin),
		P("subpage_upper_right_latitude", r.LatMax),
		P("subpage_frame_colour", "charcoal"),
		P("page_id_line", "off"),
	}
}

// MapStyle returns a named projection preset. ChinaRegionCylindrical requires
// a region; ChinaCylindrical ignores it. Overrides are applied last.
func MapStyle(name string, region *Region, overrides ...Param) (*Action, error) {
	var params Params
	switch name {
	case ChinaCylindrical:
		params = cylindrical(chinaRegion)
	case ChinaRegionCylindrical:
		if region == nil {
			return nil, fmt.Errorf("map style %s: region is required", name)
		}
		params = cylindrical(*region)
	default:
		return nil, fmt.Errorf("%w: map %q", ErrUnknownStyle, name)
	}
	return Map(params.With(overrides...)...), nil
}

// CoastStyle returns a named coastline preset.
func CoastStyle(name string) (*Action, error) {
	switch name {
	case CoastFill:
		return Coast(
			P("map_coastline_resolution", "medium"),
			P("map_coastline_colour", "grey"),
			P("map_coastline_land_shade", "on"),
			P("map_coastline_land_shade_colour", "cream"),
			P("map_coastline_sea_shade", "on"),
			P("map_coastline_sea_shade_colour", "white"),
			P("map_grid", "on"),
			P("map_grid_colour", "grey"),
			P("map_grid_line_style", "dash"),
			P("map_label", "on"),
			P("map_label_height", 0.4),
		), nil
	case Province:
		return Coast(
			P("map_coastline_resolution", "medium"),
			P("map_coastline_colour", "black"),
			P("map_coastline_thickness", 2),
			P("map_administrative_boundaries", "on"),
			P("map_administrative_boundaries_countries_list", []string{"CHN"}),
			P("map_administrative_boundaries_colour", "brown"),
			P("map_administrative_boundaries_thickness", 1),
			P("map_boundaries", "on"),
			P("map_boundaries_colour", "black"),
			P("map_grid", "off"),
			P("map_label", "off"),
		), nil
	default:
		return nil, fmt.Errorf("%w: coast %q", ErrUnknownStyle, name)
	}
}
