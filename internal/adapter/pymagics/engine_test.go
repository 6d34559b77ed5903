package pymagics

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/couchcryptid/mapplot/internal/magics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePython writes an interpreter stand-in that creates the PNG named by the
// generated script's output_name, the way Magics does.
func fakePython(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

const writesPNG = `name=$(sed -n "s/.*output_name='\([^']*\)'.*/\1/p" "$1")
printf 'PNGDATA' > "$name.png"
`

func testEngine(python string) *Engine {
	return New(Config{Python: python}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func layers(t *testing.T) []magics.Directive {
	t.Helper()
	f, err := magics.NewScalarField(magics.Grid{{1, 2}, {3, 4}}, []float64{0, 1}, []float64{0, 1}, magics.Metadata{Units: "mb"})
	require.NoError(t, err)
	return []magics.Directive{magics.Map(), f, magics.Contour()}
}

func TestEngine_PlotToFile(t *testing.T) {
	eng := testEngine(fakePython(t, writesPNG))
	dest := filepath.Join(t.TempDir(), "mslp.png")

	fig, err := eng.Plot(context.Background(), magics.NewPNGOutput(1200, dest), layers(t)...)
	require.NoError(t, err)
	assert.Nil(t, fig)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))
}

func TestEngine_PlotToFileWithoutExtension(t *testing.T) {
	eng := testEngine(fakePython(t, writesPNG))
	dest := filepath.Join(t.TempDir(), "mslp")

	_, err := eng.Plot(context.Background(), magics.NewPNGOutput(1200, dest), layers(t)...)
	require.NoError(t, err)

	assert.FileExists(t, dest)
	assert.NoFileExists(t, dest+".png")
}

func TestEngine_PlotFigure(t *testing.T) {
	work := t.TempDir()
	eng := New(Config{Python: fakePython(t, writesPNG), WorkDir: work}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	fig, err := eng.Plot(context.Background(), nil, layers(t)...)
	require.NoError(t, err)
	require.NotNil(t, fig)
	assert.Equal(t, []byte("PNGDATA"), fig.PNG)

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory should be removed")
}

func TestEngine_FigureWidth(t *testing.T) {
	work := t.TempDir()
	eng := New(Config{Python: fakePython(t, writesPNG), WorkDir: work, KeepWorkDir: true}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	fig, err := eng.Plot(context.Background(), magics.NewFigureOutput(800), layers(t)...)
	require.NoError(t, err)
	require.NotNil(t, fig)

	scripts, err := filepath.Glob(filepath.Join(work, "magics-*", "plot.py"))
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	script, err := os.ReadFile(scripts[0])
	require.NoError(t, err)
	assert.Contains(t, string(script), "output_width=800")
}

func TestEngine_KeepWorkDir(t *testing.T) {
	work := t.TempDir()
	eng := New(Config{Python: fakePython(t, writesPNG), WorkDir: work, KeepWorkDir: true}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := eng.Plot(context.Background(), nil, layers(t)...)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(work, "magics-*", "field1.nc"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	scripts, err := filepath.Glob(filepath.Join(work, "magics-*", "plot.py"))
	require.NoError(t, err)
	assert.Len(t, scripts, 1)
}

func TestEngine_InterpreterFailure(t *testing.T) {
	eng := testEngine(fakePython(t, "echo 'ImportError: No module named Magics' >&2\nexit 1\n"))

	_, err := eng.Plot(context.Background(), nil, layers(t)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run magics")
	assert.Contains(t, err.Error(), "No module named Magics")
}

func TestEngine_ContextCancelled(t *testing.T) {
	eng := testEngine(fakePython(t, "sleep 5\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Plot(ctx, nil, layers(t)...)
	require.Error(t, err)
}

func TestEngine_RelativePaths(t *testing.T) {
	python := fakePython(t, writesPNG)
	root := t.TempDir()
	t.Chdir(root)
	require.NoError(t, os.Mkdir("scratch", 0o755))

	eng := New(Config{Python: python, WorkDir: "scratch"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := eng.Plot(context.Background(), magics.NewPNGOutput(1200, "mslp.png"), layers(t)...)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "mslp.png"))
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))
}
