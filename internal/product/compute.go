package product

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/mapplot/internal/magics"
)

// Target number of arrows or flags across the map.
const (
	vectorsAcross = 70
	vectorsDown   = 35
)

// TimeLayout renders valid times in title lines.
const TimeLayout = "2006/01/02 15:04(UTC)"

// DefaultStride picks a vector thinning stride that keeps roughly 70x35
// vectors visible whatever the native grid resolution.
func DefaultStride(nlon, nlat int) int {
	return max(ceilDiv(nlon, vectorsAcross), ceilDiv(nlat, vectorsDown))
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

// WindSpeed returns sqrt(u*u + v*v) for every grid cell.
func WindSpeed(u, v magics.Grid) (magics.Grid, error) {
	if len(u) != len(v) {
		return nil, fmt.Errorf("%w: u has %d rows, v has %d", magics.ErrShape, len(u), len(v))
	}
	speed := make(magics.Grid, len(u))
	for i := range u {
		if len(u[i]) != len(v[i]) {
			return nil, fmt.Errorf("%w: row %d u has %d columns, v has %d", magics.ErrShape, i, len(u[i]), len(v[i]))
		}
		speed[i] = make([]float64, len(u[i]))
		for j := range u[i] {
			speed[i][j] = math.Hypot(u[i][j], v[i][j])
		}
	}
	return speed, nil
}

// TitleLines builds the title text: the caption, falling back to
// defaultCaption when empty, and the valid time when non-zero.
func TitleLines(caption, defaultCaption string, validTime time.Time) []string {
	if caption == "" {
		caption = defaultCaption
	}
	lines := []string{fmt.Sprintf("<font size='1'>%s</font>", caption)}
	if !validTime.IsZero() {
		lines = append(lines, fmt.Sprintf("<font size='0.8' colour='red'>%s</font>", validTime.UTC().Format(TimeLayout)))
	}
	return lines
}
