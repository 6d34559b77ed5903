// Package pymagics drives ECMWF Magics through its Python macro interface.
// Each plot call writes its fields to NetCDF, generates a script and runs it
// with a Python interpreter that has the Magics bindings installed.
package pymagics

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/couchcryptid/mapplot/internal/adapter/netcdf"
	"github.com/couchcryptid/mapplot/internal/magics"
)

// Config holds engine settings.
type Config struct {
	// Python is the interpreter to run, e.g. "python3".
	Python string
	// WorkDir is the parent of per-call scratch directories. Empty uses the
	// system temp dir.
	WorkDir string
	// FigureWidth is the pixel width of in-memory figures.
	FigureWidth int
	// KeepWorkDir leaves scratch directories behind for debugging.
	KeepWorkDir bool
}

// Engine implements magics.Engine.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Engine.
func New(cfg Config, logger *slog.Logger) *Engine {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.FigureWidth <= 0 {
		cfg.FigureWidth = 1200
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Plot renders layers. With out set the PNG is written to out.Name, otherwise
// it is rendered to scratch space and returned as a Figure.
func (e *Engine) Plot(ctx context.Context, out *magics.Output, layers ...magics.Directive) (*magics.Figure, error) {
	dir, err := os.MkdirTemp(e.cfg.WorkDir, "magics-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	if !e.cfg.KeepWorkDir {
		defer os.RemoveAll(dir)
	}
	// The interpreter runs inside dir, so every path handed to it is absolute.
	if dir, err = filepath.Abs(dir); err != nil {
		return nil, fmt.Errorf("resolve work dir: %w", err)
	}

	target := out
	switch {
	case out.InMemory():
		width := e.cfg.FigureWidth
		if out != nil && out.Width > 0 {
			width = out.Width
		}
		target = magics.NewPNGOutput(width, filepath.Join(dir, "figure.png"))
	case !filepath.IsAbs(target.Name):
		abs, err := filepath.Abs(target.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve output path: %w", err)
		}
		resolved := *target
		resolved.Name = abs
		target = &resolved
	}

	fieldFile := func(i int) string { return filepath.Join(dir, fmt.Sprintf("field%d.nc", i)) }
	for i, l := range layers {
		if f, ok := l.(*magics.Field); ok {
			if err := netcdf.WriteField(fieldFile(i), f); err != nil {
				return nil, err
			}
		}
	}

	var script bytes.Buffer
	if err := WriteScript(&script, target, layers, fieldFile); err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}
	scriptPath := filepath.Join(dir, "plot.py")
	if err := os.WriteFile(scriptPath, script.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.cfg.Python, scriptPath)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("run magics: %w: %s", err, bytes.TrimSpace(output))
	}
	e.logger.Debug("magics plot finished", "work_dir", dir, "layers", len(layers), "duration", time.Since(start))

	produced := OutputName(target.Name) + ".png"
	if produced != target.Name {
		if err := os.Rename(produced, target.Name); err != nil {
			return nil, fmt.Errorf("move output: %w", err)
		}
	}

	if !out.InMemory() {
		return nil, nil
	}
	png, err := os.ReadFile(target.Name)
	if err != nil {
		return nil, fmt.Errorf("read figure: %w", err)
	}
	return &magics.Figure{PNG: png}, nil
}
