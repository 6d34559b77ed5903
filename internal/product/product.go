package product

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/mapplot/internal/magics"
)

// ErrUnknownProduct is returned by Lookup for an unregistered product name.
var ErrUnknownProduct = errors.New("unknown product")

// Product names.
const (
	NameWindUpper = "wind_upper"
	NameWindHigh  = "wind_high"
	NameVortHigh  = "vort_high"
	NameMSLP      = "mslp"
)

type scalarKind int

const (
	scalarWindSpeed scalarKind = iota
	scalarPressure
)

// Product is the fixed configuration of one map product: captions and the
// literal style tables handed to the engine.
type Product struct {
	Name           string
	DefaultCaption string

	scalar        scalarKind
	ScalarContour magics.Params
	// WindStyle is nil for products without a vector layer.
	WindStyle     magics.Params
	HeightContour magics.Params
	Legend        magics.Params
}

// HasVectors reports whether the product draws arrows or flags.
func (p Product) HasVectors() bool { return p.WindStyle != nil }

var (
	speedMeta  = magics.Metadata{LongName: "Wind Speed", Units: "m/s"}
	mslpMeta   = magics.Metadata{LongName: "Sea level pressure", Units: "mb"}
	heightMeta = magics.Metadata{LongName: "height", Units: "gpm"}
)

func legend(title string, extra ...magics.Param) magics.Params {
	return magics.Params{
		magics.P("legend", "on"),
		magics.P("legend_text_colour", "black"),
		magics.P("legend_box_mode", "legend_box_mode"),
		magics.P("legend_automatic_position", "right"),
		magics.P("legend_border", "off"),
		magics.P("legend_border_colour", "black"),
		magics.P("legend_box_blanking", "on"),
		magics.P("legend_display_type", "continuous"),
		magics.P("legend_title", "on"),
		magics.P("legend_title_text", title),
	}.With(extra...).With(magics.P("legend_text_font_size", "0.5"))
}

// 500hPa height lines centred on the 5880 gpm subtropical high contour.
var subtropicalHeight = magics.Params{
	magics.P("legend", "off"),
	magics.P("contour_level_selection_type", "interval"),
	magics.P("contour_interval", 20.),
	magics.P("contour_reference_level", 5880.),
	magics.P("contour_line_colour", "black"),
	magics.P("contour_line_thickness", 1.5),
	magics.P("contour_label", "on"),
	magics.P("contour_label_height", 0.5),
	magics.P("contour_highlight_colour", "black"),
	magics.P("contour_highlight_thickness", 3),
}

var lowLevelSpeed = magics.Params{
	magics.P("legend", "on"),
	magics.P("contour_level_selection_type", "interval"),
	magics.P("contour_shade_max_level", 44.),
	magics.P("contour_shade_min_level", 8.),
	magics.P("contour_interval", 4.),
	magics.P("contour_shade", "on"),
	magics.P("contour", "off"),
	magics.P("contour_shade_method", "area_fill"),
	magics.P("contour_shade_colour_method", "palette"),
	magics.P("contour_shade_palette_name", "eccharts_rainbow_blue_purple_9"),
	magics.P("contour_reference_level", 8.),
	magics.P("contour_highlight", "off"),
	magics.P("contour_hilo", "hi"),
	magics.P("contour_hilo_format", "(F3.0)"),
	magics.P("contour_hilo_height", 0.6),
	magics.P("contour_hilo_type", "number"),
	magics.P("contour_hilo_window_size", 10),
	magics.P("contour_label", "off"),
}

var windFlags = magics.Params{
	magics.P("legend", "off"),
	magics.P("wind_field_type", "flags"),
	magics.P("wind_flag_length", 0.6),
	magics.P("wind_thinning_factor", 2.),
	magics.P("wind_flag_style", "solid"),
	magics.P("wind_flag_thickness", 1),
	magics.P("wind_flag_origin_marker", "dot"),
	magics.P("wind_flag_min_speed", 0.0),
	magics.P("wind_flag_colour", "charcoal"),
}

// WindUpper is the 200hPa jet product: speed shading, arrows and heights.
var WindUpper = Product{
	Name:           NameWindUpper,
	DefaultCaption: "200hPa Wind[m/s] and Height[gpm]",
	scalar:         scalarWindSpeed,
	ScalarContour: magics.Params{
		magics.P("legend", "on"),
		magics.P("contour_level_selection_type", "level_list"),
		magics.P("contour_level_list", []float64{30., 40., 50., 60., 70., 80., 90., 100.}),
		magics.P("contour_shade", "on"),
		magics.P("contour_shade_max_level_colour", "evergreen"),
		magics.P("contour_shade_min_level_colour", "yellow"),
		magics.P("contour_shade_method", "area_fill"),
		magics.P("contour_reference_level", 0.),
		magics.P("contour_highlight", "off"),
		magics.P("contour_hilo", "hi"),
		magics.P("contour_hilo_format", "(F3.0)"),
		magics.P("contour_hilo_height", 0.6),
		magics.P("contour_hilo_type", "number"),
		magics.P("contour_hilo_window_size", 10),
		magics.P("contour_label", "off"),
	},
	WindStyle: magics.Params{
		magics.P("legend", "on"),
		magics.P("wind_field_type", "arrows"),
		magics.P("wind_arrow_head_shape", 1),
		magics.P("wind_arrow_thickness", 0.5),
		magics.P("wind_arrow_unit_velocity", 50),
		magics.P("wind_arrow_colour", "evergreen"),
	},
	HeightContour: magics.Params{
		magics.P("legend", "off"),
		magics.P("contour_level_selection_type", "interval"),
		magics.P("contour_interval", 50.),
		magics.P("contour_line_colour", "black"),
		magics.P("contour_line_thickness", 1),
		magics.P("contour_label", "on"),
		magics.P("contour_label_height", 0.5),
		magics.P("contour_highlight_colour", "black"),
		magics.P("contour_highlight_thickness", 2),
	},
	Legend: legend("Wind Speed"),
}

// WindHigh is the 850hPa wind product with flags over 500hPa heights.
var WindHigh = Product{
	Name:           NameWindHigh,
	DefaultCaption: "850hPa Wind[m/s] and 500hPa Height[gpm]",
	scalar:         scalarWindSpeed,
	ScalarContour:  lowLevelSpeed,
	WindStyle:      windFlags,
	HeightContour:  subtropicalHeight,
	Legend:         legend("Wind Speed"),
}

// VortHigh shares the WindHigh tables. Its vorticity input is not drawn.
var VortHigh = Product{
	Name:           NameVortHigh,
	DefaultCaption: WindHigh.DefaultCaption,
	scalar:         scalarWindSpeed,
	ScalarContour:  lowLevelSpeed,
	WindStyle:      windFlags,
	HeightContour:  subtropicalHeight,
	Legend:         legend("Wind Speed"),
}

// mslpLevels returns 51 levels from 940mb in 2.5mb steps.
func mslpLevels() []float64 {
	levels := make([]float64, 51)
	for i := range levels {
		levels[i] = 940. + float64(i)*2.5
	}
	return levels
}

var mslpColours = []string{
	"#FD90EB", "#EB78E5", "#EF53E0", "#F11FD3", "#F11FD3", "#A20E9B", "#880576", "#6D0258", "#5F0853",
	"#2A0DA8", "#2F1AA7", "#3D27B4", "#3F3CB6", "#6D5CDE", "#A28CF9", "#C1B3FF", "#DDDCFE", "#1861DB",
	"#206CE5", "#2484F4", "#52A5EE", "#91D4FF", "#B2EFF8", "#DEFEFF", "#C9FDBD", "#91F78B", "#53ED54",
	"#1DB31E", "#0CA104", "#FFF9A4", "#FFE27F", "#FAC235", "#FF9D04", "#FF5E00", "#F83302", "#E01304",
	"#A20200", "#603329", "#8C6653", "#B18981", "#DDC0B3", "#F8A3A2", "#DD6663", "#CA3C3B", "#A1241D",
	"#6C6F6D", "#8A8A8A", "#AAAAAA", "#C5C5C5", "#D5D5D5", "#E7E3E4",
}

// MSLP is the mean sea-level pressure product with high/low markers.
var MSLP = Product{
	Name:           NameMSLP,
	DefaultCaption: "Mean sea level pressure[mb] and 500hPa Height[gpm]",
	scalar:         scalarPressure,
	ScalarContour: magics.Params{
		magics.P("legend", "on"),
		magics.P("contour_shade", "on"),
		magics.P("contour_hilo", "on"),
		magics.P("contour_hilo_height", 0.6),
		magics.P("contour_hi_colour", "blue"),
		magics.P("contour_lo_colour", "red"),
		magics.P("contour_hilo_window_size", 5),
		magics.P("contour", "off"),
		magics.P("contour_label", "off"),
		magics.P("contour_shade_method", "area_fill"),
		magics.P("contour_level_selection_type", "level_list"),
		magics.P("contour_level_list", mslpLevels()),
		magics.P("contour_shade_colour_method", "list"),
		magics.P("contour_shade_colour_list", mslpColours),
	},
	HeightContour: subtropicalHeight,
	Legend:        legend("Pressure", magics.P("legend_label_frequency", 2)),
}

var registry = map[string]Product{
	NameWindUpper: WindUpper,
	NameWindHigh:  WindHigh,
	NameVortHigh:  VortHigh,
	NameMSLP:      MSLP,
}

// Lookup returns the product registered under name.
func Lookup(name string) (Product, error) {
	p, ok := registry[name]
	if !ok {
		return Product{}, fmt.Errorf("%w: %q", ErrUnknownProduct, name)
	}
	return p, nil
}

// Names lists registered product names in a stable order.
func Names() []string {
	return []string{NameWindUpper, NameWindHigh, NameVortHigh, NameMSLP}
}
