package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/mapplot/internal/domain"
	"github.com/couchcryptid/mapplot/internal/magics"
	"github.com/couchcryptid/mapplot/internal/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	lon, lat []float64
	grids    map[string]magics.Grid // key: name@level
	valid    time.Time
	reads    []string
	closed   bool
}

func (f *fakeReader) Axes() ([]float64, []float64) { return f.lon, f.lat }

func (f *fakeReader) Grid(name string, timeIndex, level int) (magics.Grid, error) {
	key := name + "@" + string(rune('0'+level))
	f.reads = append(f.reads, key)
	g, ok := f.grids[key]
	if !ok {
		return nil, errors.New("no such variable " + key)
	}
	return g, nil
}

func (f *fakeReader) ValidTime(int) (time.Time, error) { return f.valid, nil }

func (f *fakeReader) Close() { f.closed = true }

type fakeEngine struct {
	calls []*magics.Output
}

func (e *fakeEngine) Plot(_ context.Context, out *magics.Output, _ ...magics.Directive) (*magics.Figure, error) {
	e.calls = append(e.calls, out)
	if out.InMemory() {
		return &magics.Figure{PNG: []byte("png")}, nil
	}
	return nil, nil
}

func fill(nlat, nlon int, v float64) magics.Grid {
	g := make(magics.Grid, nlat)
	for i := range g {
		g[i] = make([]float64, nlon)
		for j := range g[i] {
			g[i][j] = v
		}
	}
	return g
}

func newFixture() (*fakeReader, *fakeReader) {
	main := &fakeReader{
		lon: []float64{100, 101, 102},
		lat: []float64{30, 31},
		grids: map[string]magics.Grid{
			"u@3":    fill(2, 3, 3),
			"v@3":    fill(2, 3, 4),
			"msl@0":  fill(2, 3, 1010),
			"vo@3":   fill(2, 3, 1e-5),
		},
		valid: time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC),
	}
	heights := &fakeReader{grids: map[string]magics.Grid{"z@1": fill(2, 3, 5700)}}
	return main, heights
}

func newService(t *testing.T, outputDir string) (*Service, *fakeEngine, *fakeReader, *fakeReader, *int) {
	t.Helper()
	main, heights := newFixture()
	opens := 0
	open := func(path string) (GridReader, error) {
		opens++
		switch path {
		case "main.nc":
			return main, nil
		case "heights.nc":
			return heights, nil
		}
		return nil, errors.New("open " + path + ": no such file")
	}
	eng := &fakeEngine{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(product.NewRenderer(eng, product.WithLogger(logger)), open, logger, WithOutputDir(outputDir))
	return svc, eng, main, heights, &opens
}

func windHigh() domain.RenderRequest {
	return domain.RenderRequest{
		ID:       "r1",
		Product:  product.NameWindHigh,
		DataFile: "main.nc",
		Variables: domain.Variables{
			U:      &domain.VarRef{Name: "u", Level: 3},
			V:      &domain.VarRef{Name: "v", Level: 3},
			Height: &domain.VarRef{Name: "z", Level: 1, File: "heights.nc"},
		},
	}
}

func TestService_Prepare(t *testing.T) {
	svc, _, main, heights, opens := newService(t, "")

	p, in, err := svc.Prepare(windHigh())
	require.NoError(t, err)

	assert.Equal(t, product.NameWindHigh, p.Name)
	assert.Equal(t, []float64{100, 101, 102}, in.Lon)
	assert.Equal(t, 3., in.U[0][0])
	assert.Equal(t, 5700., in.Height[1][2])
	assert.Nil(t, in.MSLP)
	assert.True(t, in.ValidTime.IsZero())
	assert.Equal(t, 2, *opens)
	assert.Equal(t, []string{"u@3", "v@3"}, main.reads)
	assert.True(t, main.closed)
	assert.True(t, heights.closed)
}

func TestService_Prepare_ValidTime(t *testing.T) {
	svc, _, _, _, _ := newService(t, "")

	req := windHigh()
	req.UseFileTime = true
	_, in, err := svc.Prepare(req)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC), in.ValidTime)

	explicit := time.Date(2024, 4, 27, 0, 0, 0, 0, time.UTC)
	req.ValidTime = &explicit
	_, in, err = svc.Prepare(req)
	require.NoError(t, err)
	assert.Equal(t, explicit, in.ValidTime)
}

func TestService_Prepare_Invalid(t *testing.T) {
	svc, _, _, _, _ := newService(t, "")

	req := windHigh()
	req.Product = "skewt"
	_, _, err := svc.Prepare(req)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	require.ErrorIs(t, err, product.ErrUnknownProduct)

	req = windHigh()
	req.Variables.V = nil
	_, _, err = svc.Prepare(req)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	req = domain.RenderRequest{ID: "m", Product: product.NameMSLP, DataFile: "main.nc"}
	_, _, err = svc.Prepare(req)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	req = windHigh()
	req.DataFile = "missing.nc"
	_, _, err = svc.Prepare(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
}

func TestService_RenderWritesUnderOutputDir(t *testing.T) {
	dir := t.TempDir()
	svc, eng, _, _, _ := newService(t, dir)

	req := windHigh()
	req.OutputPath = "gfs/2024042612/wind_high.png"
	res, err := svc.Render(context.Background(), req)
	require.NoError(t, err)

	want := filepath.Join(dir, "gfs", "2024042612", "wind_high.png")
	assert.Equal(t, want, res.Path)
	require.Len(t, eng.calls, 1)
	assert.Equal(t, want, eng.calls[0].Name)
	assert.DirExists(t, filepath.Join(dir, "gfs", "2024042612"))
}

func TestService_RenderFigure(t *testing.T) {
	svc, eng, _, _, _ := newService(t, "")

	req := domain.RenderRequest{
		ID:        "m",
		Product:   product.NameMSLP,
		DataFile:  "main.nc",
		Variables: domain.Variables{MSLP: &domain.VarRef{Name: "msl"}},
	}
	res, err := svc.Render(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Written())
	require.NotNil(t, res.Figure)
	assert.True(t, eng.calls[0].InMemory())
}

func TestService_RenderVort(t *testing.T) {
	svc, eng, main, _, _ := newService(t, "")

	req := windHigh()
	req.Product = product.NameVortHigh
	req.Variables.Vort = &domain.VarRef{Name: "vo", Level: 3}
	_, err := svc.Render(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, main.reads, "vo@3")
	assert.Len(t, eng.calls, 1)
}

func TestService_ResolveOutput(t *testing.T) {
	svc, _, _, _, _ := newService(t, "/srv/maps")
	assert.Equal(t, "/srv/maps/a/b.png", svc.ResolveOutput("a/b.png"))
	assert.Equal(t, "/tmp/x.png", svc.ResolveOutput("/tmp/x.png"))
	assert.Empty(t, svc.ResolveOutput(""))
}

func TestService_DataDir(t *testing.T) {
	main, heights := newFixture()
	var opened []string
	open := func(path string) (GridReader, error) {
		opened = append(opened, path)
		switch path {
		case "/data/gfs/main.nc":
			return main, nil
		case "/data/heights.nc":
			return heights, nil
		}
		return nil, errors.New("open " + path + ": no such file")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(product.NewRenderer(&fakeEngine{}, product.WithLogger(logger)), open, logger, WithDataDir("/data/"))

	req := windHigh()
	req.DataFile = "gfs/main.nc"
	req.Variables.Height.File = "/data/gfs/../heights.nc"
	_, _, err := svc.Prepare(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/gfs/main.nc", "/data/heights.nc"}, opened)

	for _, path := range []string{"/etc/passwd", "../etc/passwd", "/data/../etc/passwd", "/database/x.nc"} {
		opened = nil
		req := windHigh()
		req.DataFile = path
		_, _, err := svc.Prepare(req)
		require.ErrorIs(t, err, ErrOutsideDataDir, path)
		require.ErrorIs(t, err, domain.ErrInvalidRequest, path)
		assert.NotContains(t, err.Error(), "passwd")
		assert.Empty(t, opened, "nothing outside the data directory is opened")
	}

	req = windHigh()
	req.DataFile = "gfs/main.nc"
	req.Variables.Height.File = "/root/heights.nc"
	_, _, err = svc.Prepare(req)
	require.ErrorIs(t, err, ErrOutsideDataDir)
}
