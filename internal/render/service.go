// Package render turns render requests into product renders: it opens the
// referenced data files, reads the grids each product needs and calls the
// product renderer.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/mapplot/internal/adapter/netcdf"
	"github.com/couchcryptid/mapplot/internal/domain"
	"github.com/couchcryptid/mapplot/internal/magics"
	"github.com/couchcryptid/mapplot/internal/product"
)

// GridReader reads 2-D slices from one data file.
type GridReader interface {
	Axes() (lon, lat []float64)
	Grid(name string, timeIndex, levelIndex int) (magics.Grid, error)
	ValidTime(index int) (time.Time, error)
	Close()
}

// Opener opens a data file.
type Opener func(path string) (GridReader, error)

// OpenNetCDF is the default Opener.
func OpenNetCDF(path string) (GridReader, error) {
	r, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ErrOutsideDataDir is returned for data paths that resolve outside the
// configured data directory.
var ErrOutsideDataDir = fmt.Errorf("%w: data file is outside the data directory", domain.ErrInvalidRequest)

// Service renders requests.
type Service struct {
	renderer  *product.Renderer
	open      Opener
	outputDir string
	dataDir   string
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithOutputDir resolves relative output paths under dir.
func WithOutputDir(dir string) Option {
	return func(s *Service) { s.outputDir = dir }
}

// WithDataDir confines data files to dir. Relative data paths resolve under
// it; anything else outside it is rejected with ErrOutsideDataDir.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir == "" {
			s.dataDir = ""
			return
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		s.dataDir = filepath.Clean(dir)
	}
}

// NewService creates a Service. Missing parent directories of output paths
// are created at render time.
func NewService(renderer *product.Renderer, open Opener, logger *slog.Logger, opts ...Option) *Service {
	if open == nil {
		open = OpenNetCDF
	}
	s := &Service{renderer: renderer, open: open, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render loads the request's grids and renders its product.
func (s *Service) Render(ctx context.Context, req domain.RenderRequest) (product.Result, error) {
	p, in, err := s.Prepare(req)
	if err != nil {
		return product.Result{}, err
	}
	if in.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o755); err != nil {
			return product.Result{}, fmt.Errorf("create output dir: %w", err)
		}
	}

	s.logger.Debug("rendering product",
		"request_id", req.ID,
		"product", p.Name,
		"data_file", req.DataFile,
		"output", in.OutputPath,
	)
	switch p.Name {
	case product.NameVortHigh:
		return s.renderer.VortHigh(ctx, in)
	default:
		return s.renderer.Render(ctx, p, in)
	}
}

// ResolveOutput maps a request output path onto the output directory.
func (s *Service) ResolveOutput(path string) string {
	if path == "" || s.outputDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.outputDir, path)
}

// dataPath maps a request data path onto the data directory.
func (s *Service) dataPath(path string) (string, error) {
	if s.dataDir == "" {
		return path, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dataDir, path)
	}
	rel, err := filepath.Rel(s.dataDir, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideDataDir
	}
	return filepath.Join(s.dataDir, rel), nil
}

// Prepare validates req against its product and reads every grid it names.
func (s *Service) Prepare(req domain.RenderRequest) (product.Product, product.Input, error) {
	if err := req.Validate(); err != nil {
		return product.Product{}, product.Input{}, err
	}
	p, err := product.Lookup(req.Product)
	if err != nil {
		return product.Product{}, product.Input{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if err := checkVariables(p, req.Variables); err != nil {
		return product.Product{}, product.Input{}, err
	}

	files := &fileSet{open: s.open, resolve: s.dataPath, readers: map[string]GridReader{}}
	defer files.close()

	main, err := files.get(req.DataFile)
	if err != nil {
		return product.Product{}, product.Input{}, err
	}
	lon, lat := main.Axes()

	in := product.Input{
		Lon:        lon,
		Lat:        lat,
		Stride:     req.Stride,
		Region:     req.Region,
		Caption:    req.Caption,
		OutputPath: s.ResolveOutput(req.OutputPath),
	}

	read := func(ref *domain.VarRef) (magics.Grid, error) {
		if ref == nil {
			return nil, nil
		}
		path := req.DataFile
		if ref.File != "" {
			path = ref.File
		}
		r, err := files.get(path)
		if err != nil {
			return nil, err
		}
		return r.Grid(ref.Name, req.TimeIndex, ref.Level)
	}
	targets := []struct {
		ref *domain.VarRef
		dst *magics.Grid
	}{
		{req.Variables.U, &in.U},
		{req.Variables.V, &in.V},
		{req.Variables.MSLP, &in.MSLP},
		{req.Variables.Height, &in.Height},
		{req.Variables.Vort, &in.Vort},
	}
	for _, t := range targets {
		if *t.dst, err = read(t.ref); err != nil {
			return product.Product{}, product.Input{}, err
		}
	}

	switch {
	case req.ValidTime != nil:
		in.ValidTime = *req.ValidTime
	case req.UseFileTime:
		if in.ValidTime, err = main.ValidTime(req.TimeIndex); err != nil {
			return product.Product{}, product.Input{}, err
		}
	}
	return p, in, nil
}

func checkVariables(p product.Product, vars domain.Variables) error {
	if p.HasVectors() && (vars.U == nil || vars.V == nil) {
		return fmt.Errorf("%w: product %s needs u and v variables", domain.ErrInvalidRequest, p.Name)
	}
	if p.Name == product.NameMSLP && vars.MSLP == nil {
		return fmt.Errorf("%w: product %s needs an mslp variable", domain.ErrInvalidRequest, p.Name)
	}
	return nil
}

// fileSet opens each data file once per request.
type fileSet struct {
	open    Opener
	resolve func(string) (string, error)
	readers map[string]GridReader
}

func (f *fileSet) get(path string) (GridReader, error) {
	path, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	if r, ok := f.readers[path]; ok {
		return r, nil
	}
	r, err := f.open(path)
	if err != nil {
		return nil, err
	}
	f.readers[path] = r
	return r, nil
}

func (f *fileSet) close() {
	for _, r := range f.readers {
		r.Close()
	}
}
