package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/mapplot/internal/adapter/pymagics"
	"github.com/couchcryptid/mapplot/internal/domain"
	"github.com/couchcryptid/mapplot/internal/magics"
	"github.com/couchcryptid/mapplot/internal/product"
	"github.com/couchcryptid/mapplot/internal/render"
	"github.com/spf13/cobra"
)

// stdoutPath sends the rendered PNG to standard output.
const stdoutPath = "-"

// productFlags are the per-product command flags.
type productFlags struct {
	file      string
	timeIndex int
	level     int

	u, v, mslp, vort string
	gh, ghFile       string
	ghLevel          int

	stride      int
	region      string
	caption     string
	validTime   string
	useFileTime bool
	output      string
	dryRun      bool
}

func newProductCmd(a *app, name string) *cobra.Command {
	p, _ := product.Lookup(name)
	f := &productFlags{}
	cmd := &cobra.Command{
		Use:   strings.ReplaceAll(name, "_", "-"),
		Short: "Render " + p.DefaultCaption,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.request(name)
			if err != nil {
				return err
			}
			if f.dryRun {
				return a.dryRun(cmd.OutOrStdout(), req)
			}
			return a.renderOne(cmd.Context(), cmd.OutOrStdout(), req)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", "NetCDF data file (required)")
	fl.IntVar(&f.timeIndex, "time-index", 0, "index along the time axis")
	fl.IntVar(&f.level, "level", 0, "level index for wind, pressure and vorticity variables")
	if p.HasVectors() {
		fl.StringVar(&f.u, "u", "u", "u wind component variable")
		fl.StringVar(&f.v, "v", "v", "v wind component variable")
		fl.IntVar(&f.stride, "stride", 0, "wind decimation stride, 0 picks one from the grid size")
	}
	if name == product.NameMSLP {
		fl.StringVar(&f.mslp, "mslp", "msl", "mean sea level pressure variable")
	}
	if name == product.NameVortHigh {
		fl.StringVar(&f.vort, "vort", "", "relative vorticity variable")
	}
	fl.StringVar(&f.gh, "gh", "", "geopotential height variable for the height overlay")
	fl.StringVar(&f.ghFile, "gh-file", "", "file holding the height variable, defaults to --file")
	fl.IntVar(&f.ghLevel, "gh-level", 0, "level index of the height variable")
	fl.StringVar(&f.region, "region", "", "map extent lonmin,lonmax,latmin,latmax (default China)")
	fl.StringVar(&f.caption, "caption", "", "title caption (default: "+p.DefaultCaption+")")
	fl.StringVar(&f.validTime, "valid-time", "", "valid time for the title, RFC3339")
	fl.BoolVar(&f.useFileTime, "use-file-time", false, "take the title time from the file's time axis")
	fl.StringVarP(&f.output, "output", "o", "", `output PNG path, "-" for stdout (default <product>.png)`)
	fl.BoolVar(&f.dryRun, "dry-run", false, "print the Magics script instead of running it")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// request builds the render request described by the flags.
func (f *productFlags) request(name string) (domain.RenderRequest, error) {
	req := domain.RenderRequest{
		ID:          name,
		Product:     name,
		DataFile:    f.file,
		TimeIndex:   f.timeIndex,
		Stride:      f.stride,
		Caption:     f.caption,
		UseFileTime: f.useFileTime,
		OutputPath:  f.output,
	}
	if req.OutputPath == "" {
		req.OutputPath = name + ".png"
	}
	if req.OutputPath == stdoutPath {
		req.OutputPath = ""
	}

	ref := func(varName string, level int) *domain.VarRef {
		if varName == "" {
			return nil
		}
		return &domain.VarRef{Name: varName, Level: level}
	}
	req.Variables = domain.Variables{
		U:    ref(f.u, f.level),
		V:    ref(f.v, f.level),
		MSLP: ref(f.mslp, f.level),
		Vort: ref(f.vort, f.level),
	}
	if gh := ref(f.gh, f.ghLevel); gh != nil {
		gh.File = f.ghFile
		req.Variables.Height = gh
	}

	if f.region != "" {
		region, err := magics.ParseRegion(f.region)
		if err != nil {
			return domain.RenderRequest{}, err
		}
		req.Region = &region
	}
	if f.validTime != "" {
		t, err := time.Parse(time.RFC3339, f.validTime)
		if err != nil {
			return domain.RenderRequest{}, fmt.Errorf("parse --valid-time: %w", err)
		}
		req.ValidTime = &t
	}
	return req, nil
}

// renderOne renders req and reports where the image went. Requests without an
// output path stream the figure to w.
func (a *app) renderOne(ctx context.Context, w io.Writer, req domain.RenderRequest) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res, err := a.service().Render(ctx, req)
	if err != nil {
		return err
	}
	if res.Written() {
		fmt.Fprintln(w, res.Path)
		return nil
	}
	if res.Figure == nil {
		return errors.New("engine returned no figure")
	}
	_, err = res.Figure.WriteTo(w)
	return err
}

// dryRun prints the Magics script for req without running the engine. Field
// files are named after their layer index.
func (a *app) dryRun(w io.Writer, req domain.RenderRequest) error {
	svc := render.NewService(product.NewRenderer(nil, product.WithWidth(a.width), product.WithLogger(a.logger)), a.open, a.logger, a.serviceOptions()...)
	p, in, err := svc.Prepare(req)
	if err != nil {
		return err
	}
	layers, err := product.Layers(p, in)
	if err != nil {
		return err
	}
	var out *magics.Output
	if in.OutputPath != "" {
		out = magics.NewPNGOutput(a.width, in.OutputPath)
	}
	return pymagics.WriteScript(w, out, layers, func(i int) string {
		return fmt.Sprintf("layer%d.nc", i)
	})
}
