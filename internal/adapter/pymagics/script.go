package pymagics

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/mapplot/internal/adapter/netcdf"
	"github.com/couchcryptid/mapplot/internal/magics"
)

// OutputName returns the name Magics is given for a target path. Magics
// appends the format extension itself.
func OutputName(path string) string {
	return strings.TrimSuffix(path, ".png")
}

// WriteScript emits a Magics Python macro equivalent to plotting layers into
// out. fieldFile names the NetCDF file holding the field at layer index i.
func WriteScript(w io.Writer, out *magics.Output, layers []magics.Directive, fieldFile func(i int) string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "import Magics.macro as magics")
	fmt.Fprintln(bw)

	args := make([]string, 0, len(layers)+1)
	if out != nil {
		params := magics.Params{
			magics.P("output_formats", out.Formats),
			magics.P("output_name_first_page_number", "off"),
			magics.P("output_width", out.Width),
			magics.P("output_name", OutputName(out.Name)),
		}
		if err := writeCall(bw, "output", "output", params); err != nil {
			return err
		}
		args = append(args, "output")
	}

	for i, l := range layers {
		name := fmt.Sprintf("layer%d", i)
		var err error
		switch d := l.(type) {
		case *magics.Field:
			err = writeCall(bw, name, "mnetcdf", fieldParams(d, fieldFile(i)))
		case *magics.Action:
			err = writeCall(bw, name, d.Name, d.Params)
		default:
			err = fmt.Errorf("unsupported directive %T", l)
		}
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		args = append(args, name)
	}

	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "magics.plot(%s)\n", strings.Join(args, ", "))
	return bw.Flush()
}

func fieldParams(f *magics.Field, file string) magics.Params {
	params := magics.Params{
		magics.P("netcdf_filename", file),
		magics.P("netcdf_type", "geomatrix"),
		magics.P("netcdf_latitude_variable", netcdf.DimLat),
		magics.P("netcdf_longitude_variable", netcdf.DimLon),
	}
	if f.IsVector() {
		return append(params,
			magics.P("netcdf_x_component_variable", netcdf.VarU),
			magics.P("netcdf_y_component_variable", netcdf.VarV),
		)
	}
	return append(params, magics.P("netcdf_value_variable", netcdf.VarData))
}

func writeCall(w io.Writer, name, verb string, params magics.Params) error {
	kv := make([]string, len(params))
	for i, p := range params {
		lit, err := pyLiteral(p.Value)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", verb, p.Name, err)
		}
		kv[i] = p.Name + "=" + lit
	}
	_, err := fmt.Fprintf(w, "%s = magics.%s(%s)\n", name, verb, strings.Join(kv, ", "))
	return err
}

// pyLiteral formats a parameter value as Python source.
func pyLiteral(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return pyString(x), nil
	case bool:
		if x {
			return "True", nil
		}
		return "False", nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return pyFloat(x), nil
	case []float64:
		items := make([]string, len(x))
		for i, f := range x {
			items[i] = pyFloat(f)
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	case []int:
		items := make([]string, len(x))
		for i, n := range x {
			items[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	case []string:
		items := make([]string, len(x))
		for i, s := range x {
			items[i] = pyString(s)
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func pyFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "float('nan')"
	case math.IsInf(f, 1):
		return "float('inf')"
	case math.IsInf(f, -1):
		return "float('-inf')"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

var pyEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

func pyString(s string) string {
	return "'" + pyEscaper.Replace(s) + "'"
}
