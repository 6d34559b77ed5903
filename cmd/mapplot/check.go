package main

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/mapplot/internal/domain"
	"github.com/couchcryptid/mapplot/internal/magics"
	"github.com/couchcryptid/mapplot/internal/product"
	"github.com/couchcryptid/mapplot/internal/render"
	"github.com/spf13/cobra"
)

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var errCheckFailed = errors.New("check failed")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <jobs.yaml>",
		Short: "Validate a job file against its data without rendering",
		Long: `Runs every job of a job file up to the point where Magics would be
called: request fields, product variables, grid reads and layer assembly.
Grids that are entirely missing values are reported as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jf, err := loadJobFile(args[0])
			if err != nil {
				return err
			}
			return a.check(cmd.OutOrStdout(), jf.requests())
		},
	}
}

// check runs the validation phases over reqs and prints a report.
func (a *app) check(w io.Writer, reqs []domain.RenderRequest) error {
	svc := render.NewService(product.NewRenderer(nil, product.WithLogger(a.logger)), a.open, a.logger, a.serviceOptions()...)

	requests := &phase{name: "Request fields and product variables"}
	grids := &phase{name: "Grid reads"}
	layers := &phase{name: "Layer assembly"}
	coverage := &phase{name: "Grid coverage"}

	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			requests.errorf("%s: %v", req.ID, err)
			continue
		}
		if _, err := product.Lookup(req.Product); err != nil {
			requests.errorf("%s: %v", req.ID, err)
			continue
		}

		p, in, err := svc.Prepare(req)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidRequest) {
				requests.errorf("%s: %v", req.ID, err)
			} else {
				grids.errorf("%s: %v", req.ID, err)
			}
			continue
		}

		if _, err := product.Layers(p, in); err != nil {
			layers.errorf("%s: %v", req.ID, err)
		}

		named := map[string]magics.Grid{"u": in.U, "v": in.V, "mslp": in.MSLP, "gh": in.Height}
		for _, key := range []string{"u", "v", "mslp", "gh"} {
			if g := named[key]; g != nil && allMissing(g) {
				coverage.errorf("%s: %s grid has no valid values", req.ID, key)
			}
		}
	}

	phases := []*phase{requests, grids, layers, coverage}

	fmt.Fprintf(w, "Checked %d jobs\n\n", len(reqs))
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for _, e := range p.errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if !allPassed {
		return errCheckFailed
	}
	return nil
}

func allMissing(g magics.Grid) bool {
	for _, row := range g {
		for _, v := range row {
			if !math.IsNaN(v) {
				return false
			}
		}
	}
	return true
}
