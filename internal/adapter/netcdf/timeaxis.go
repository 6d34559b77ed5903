package netcdf

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

var refLayouts = []string{
	"2006-01-02 15:04:05.0",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ValidTime decodes the time coordinate at index using its CF units
// attribute, e.g. "hours since 1900-01-01 00:00:00.0".
func (r *Reader) ValidTime(index int) (time.Time, error) {
	vg, name, err := r.getter(timeNames)
	if err != nil {
		return time.Time{}, err
	}
	units, ok := vg.Attributes().Get("units")
	if !ok {
		return time.Time{}, fmt.Errorf("read %s: missing units attribute", name)
	}
	unitStr, ok := units.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("read %s: units attribute is %T", name, units)
	}
	step, ref, err := ParseTimeUnits(unitStr)
	if err != nil {
		return time.Time{}, err
	}

	v, err := vg.Values()
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s: %w", name, err)
	}
	values := reflect.ValueOf(v)
	if index < 0 || index >= values.Len() {
		return time.Time{}, fmt.Errorf("read %s: index %d out of range [0,%d)", name, index, values.Len())
	}
	offset, ok := scalar(values.Index(index))
	if !ok {
		return time.Time{}, fmt.Errorf("read %s: unsupported type %s", name, values.Type())
	}
	t, err := offsetTime(ref, step, offset)
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s: %w", name, err)
	}
	return t, nil
}

// maxOffsetSeconds bounds decoded offsets to roughly thirty million years.
const maxOffsetSeconds = 1e15

// offsetTime returns ref plus offset steps. The sum is taken in whole seconds
// so offsets beyond the range of time.Duration still decode.
func offsetTime(ref time.Time, step time.Duration, offset float64) (time.Time, error) {
	secs := offset * step.Seconds()
	if math.IsNaN(secs) || math.Abs(secs) > maxOffsetSeconds {
		return time.Time{}, fmt.Errorf("time offset %g out of range", offset)
	}
	whole := math.Floor(secs)
	nanos := int64(math.Round((secs - whole) * 1e9))
	return time.Unix(ref.Unix()+int64(whole), int64(ref.Nanosecond())+nanos).In(ref.Location()), nil
}

// ParseTimeUnits splits a CF time unit string into its step and reference.
func ParseTimeUnits(units string) (time.Duration, time.Time, error) {
	unit, since, ok := strings.Cut(units, " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("parse time units %q: missing \"since\"", units)
	}

	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "seconds", "second", "s":
		step = time.Second
	case "minutes", "minute", "min":
		step = time.Minute
	case "hours", "hour", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("parse time units %q: unsupported unit %q", units, unit)
	}

	since = strings.TrimSpace(since)
	for _, layout := range refLayouts {
		if ref, err := time.ParseInLocation(layout, since, time.UTC); err == nil {
			return step, ref, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("parse time units %q: bad reference date", units)
}
