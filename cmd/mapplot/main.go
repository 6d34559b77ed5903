// Command mapplot renders meteorological map products from NetCDF grids
// through Magics without the Kafka service.
//
// Usage:
//
//	mapplot wind-high --file gfs.nc --u u --v v --level 3 \
//	  --gh gh --gh-level 5 --output maps/wind_high.png
//	mapplot mslp --file gfs.nc --mslp msl --gh gh --gh-level 5 --dry-run
//	mapplot batch jobs.yaml --jobs 4
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/mapplot/internal/adapter/pymagics"
	"github.com/couchcryptid/mapplot/internal/product"
	"github.com/couchcryptid/mapplot/internal/render"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"
)

// app carries the global flags and collaborators shared by every command.
type app struct {
	python    string
	workDir   string
	keepWork  bool
	width     int
	outputDir string
	dataDir   string
	timeout   time.Duration
	logLevel  string
	logFormat string

	logger *slog.Logger
	open   render.Opener
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "mapplot",
		Short: "Render meteorological map products with Magics",
		Long: `mapplot assembles Magics plotting directives for a fixed set of map
products and runs them through the Magics Python bindings.

Products:
  wind-upper  200hPa wind speed, arrows and height
  wind-high   850hPa wind speed, flags and 500hPa height
  vort-high   850hPa wind and 500hPa height (vorticity accepted, not plotted)
  mslp        mean sea level pressure and 500hPa height`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.logger == nil {
				a.logger = sharedobs.NewLogger(a.logLevel, a.logFormat)
			}
			if a.width < 1 {
				return fmt.Errorf("invalid --width %d: must be positive", a.width)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.python, "python", sharedcfg.EnvOrDefault("MAGICS_PYTHON", "python3"), "Python interpreter with Magics installed")
	pf.StringVar(&a.workDir, "work-dir", sharedcfg.EnvOrDefault("MAGICS_WORK_DIR", ""), "parent directory for Magics scratch files")
	pf.BoolVar(&a.keepWork, "keep-work-dir", false, "keep generated scripts and NetCDF files")
	pf.IntVar(&a.width, "width", product.DefaultWidth, "image width in pixels")
	pf.StringVar(&a.outputDir, "output-dir", sharedcfg.EnvOrDefault("OUTPUT_DIR", ""), "directory relative output paths resolve under")
	pf.StringVar(&a.dataDir, "data-dir", sharedcfg.EnvOrDefault("DATA_DIR", ""), "restrict data files to this directory; relative data paths resolve under it")
	pf.DurationVar(&a.timeout, "timeout", 2*time.Minute, "per-render timeout")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")

	for _, name := range product.Names() {
		root.AddCommand(newProductCmd(a, name))
	}
	root.AddCommand(newBatchCmd(a), newCheckCmd(a), newSampleCmd(a))
	return root
}

func (a *app) serviceOptions() []render.Option {
	return []render.Option{render.WithOutputDir(a.outputDir), render.WithDataDir(a.dataDir)}
}

// service wires the Magics engine into a render service using the global flags.
func (a *app) service() *render.Service {
	engine := pymagics.New(pymagics.Config{
		Python:      a.python,
		WorkDir:     a.workDir,
		FigureWidth: a.width,
		KeepWorkDir: a.keepWork,
	}, a.logger)
	renderer := product.NewRenderer(engine, product.WithWidth(a.width), product.WithLogger(a.logger))
	return render.NewService(renderer, a.open, a.logger, a.serviceOptions()...)
}
