package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/mapplot/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// jobFile is the YAML document read by the batch command.
type jobFile struct {
	// DataFile is used by jobs that do not name their own.
	DataFile string `yaml:"data_file"`
	// OutputDir prefixes relative job output paths.
	OutputDir string                 `yaml:"output_dir"`
	Jobs      []domain.RenderRequest `yaml:"jobs"`
}

func loadJobFile(path string) (jobFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jobFile{}, fmt.Errorf("read job file: %w", err)
	}
	var jf jobFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return jobFile{}, fmt.Errorf("parse job file %s: %w", path, err)
	}
	if len(jf.Jobs) == 0 {
		return jobFile{}, fmt.Errorf("job file %s has no jobs", path)
	}
	return jf, nil
}

// requests applies the file defaults and assigns IDs to anonymous jobs.
func (jf jobFile) requests() []domain.RenderRequest {
	reqs := make([]domain.RenderRequest, len(jf.Jobs))
	for i, req := range jf.Jobs {
		if req.DataFile == "" {
			req.DataFile = jf.DataFile
		}
		if req.ID == "" {
			req.ID = fmt.Sprintf("job-%d", i+1)
		}
		if req.OutputPath == "" {
			req.OutputPath = req.ID + ".png"
		}
		if jf.OutputDir != "" && !filepath.IsAbs(req.OutputPath) {
			req.OutputPath = filepath.Join(jf.OutputDir, req.OutputPath)
		}
		reqs[i] = req
	}
	return reqs
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		jobs     int
		failFast bool
	)
	cmd := &cobra.Command{
		Use:   "batch <jobs.yaml>",
		Short: "Render every job in a YAML job file",
		Long: `Renders the jobs of a YAML file concurrently. Each job is a render request:

  data_file: gfs_2024042612.nc
  output_dir: maps/2024042612
  jobs:
    - id: wind_high
      product: wind_high
      variables:
        u: {name: u, level: 3}
        v: {name: v, level: 3}
        gh: {name: gh, level: 5}
      use_file_time: true`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jf, err := loadJobFile(args[0])
			if err != nil {
				return err
			}
			return a.runBatch(cmd.Context(), cmd.OutOrStdout(), jf.requests(), jobs, failFast)
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 2, "renders to run at once")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "cancel remaining jobs after the first failure")
	return cmd
}

// runBatch renders reqs with at most limit renders in flight. Every failure is
// reported; with failFast the first one cancels the rest.
func (a *app) runBatch(ctx context.Context, w io.Writer, reqs []domain.RenderRequest, limit int, failFast bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit < 1 {
		limit = 1
	}
	svc := a.service()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu       sync.Mutex
		failures []error
	)
	for _, req := range reqs {
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(gctx, a.timeout)
			defer cancel()

			res, err := svc.Render(rctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Error("job failed", "id", req.ID, "product", req.Product, "error", err)
				failures = append(failures, fmt.Errorf("job %s: %w", req.ID, err))
				if failFast {
					return err
				}
				return nil
			}
			fmt.Fprintf(w, "%s\t%s\n", req.ID, res.Path)
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d jobs failed: %w", len(failures), len(reqs), errors.Join(failures...))
	}
	return nil
}
