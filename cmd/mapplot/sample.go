package main

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/mapplot/internal/adapter/netcdf"
	"github.com/couchcryptid/mapplot/internal/magics"
	"github.com/spf13/cobra"
)

// Pressure levels of the sample file, in index order.
var sampleLevels = []int{850, 500, 200}

func newSampleCmd(a *app) *cobra.Command {
	var (
		region string
		step   float64
		valid  string
	)
	cmd := &cobra.Command{
		Use:   "sample <out.nc>",
		Short: "Write a synthetic NetCDF file for trying the products",
		Long: `Writes analytic fields on a regular grid: u, v and gh on the 850, 500
and 200 hPa levels (level indices 0, 1, 2), vo on the same levels and msl.
A cyclone sits in the middle of the region.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := magics.ParseRegion(region)
			if err != nil {
				return err
			}
			t, err := time.Parse(time.RFC3339, valid)
			if err != nil {
				return fmt.Errorf("parse --valid-time: %w", err)
			}
			ds, err := sampleDataset(r, step, t)
			if err != nil {
				return err
			}
			if err := netcdf.WriteDataset(args[0], ds); err != nil {
				return err
			}
			a.logger.Info("wrote sample", "path", args[0], "lon", len(ds.Lon), "lat", len(ds.Lat))
			fmt.Fprintln(cmd.OutOrStdout(), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "70,140,10,60", "grid extent lonmin,lonmax,latmin,latmax")
	cmd.Flags().Float64Var(&step, "step", 1, "grid spacing in degrees")
	cmd.Flags().StringVar(&valid, "valid-time", "2024-04-26T12:00:00Z", "valid time, RFC3339")
	return cmd
}

// sampleDataset builds a Gaussian low on every level. Latitudes run north to
// south as in reanalysis downloads.
func sampleDataset(r magics.Region, step float64, valid time.Time) (netcdf.Dataset, error) {
	if step <= 0 {
		return netcdf.Dataset{}, fmt.Errorf("invalid step %g", step)
	}
	lon := axis(r.LonMin, r.LonMax, step)
	lat := axis(r.LatMax, r.LatMin, -step)
	clon, clat := (r.LonMin+r.LonMax)/2, (r.LatMin+r.LatMax)/2
	radius := math.Max(r.LonMax-r.LonMin, r.LatMax-r.LatMin) / 6

	ds := netcdf.Dataset{Lon: lon, Lat: lat, ValidTime: valid}
	var u, v, gh, vo []magics.Grid
	for i, lev := range sampleLevels {
		// Winds strengthen with height.
		speed := 15 + 20*float64(i)
		base := map[int]float64{850: 1500, 500: 5800, 200: 12000}[lev]
		lu, lv, lgh, lvo := newGrid(lon, lat), newGrid(lon, lat), newGrid(lon, lat), newGrid(lon, lat)
		for y, la := range lat {
			for x, lo := range lon {
				dx, dy := (lo-clon)/radius, (la-clat)/radius
				g := math.Exp(-(dx*dx + dy*dy) / 2)
				lu[y][x] = speed * (0.5 + dy*g)
				lv[y][x] = -speed * dx * g
				lgh[y][x] = base - 120*g - 2*(la-clat)
				lvo[y][x] = 1e-4 * g * (2 - dx*dx - dy*dy)
			}
		}
		u, v, gh, vo = append(u, lu), append(v, lv), append(gh, lgh), append(vo, lvo)
	}

	msl := newGrid(lon, lat)
	for y, la := range lat {
		for x, lo := range lon {
			dx, dy := (lo-clon)/radius, (la-clat)/radius
			msl[y][x] = 1015 - 30*math.Exp(-(dx*dx+dy*dy)/2)
		}
	}

	ds.Vars = []netcdf.DatasetVar{
		{Name: "u", LongName: "U component of wind", Units: "m s**-1", Levels: u},
		{Name: "v", LongName: "V component of wind", Units: "m s**-1", Levels: v},
		{Name: "gh", LongName: "Geopotential height", Units: "gpm", Levels: gh},
		{Name: "vo", LongName: "Vorticity (relative)", Units: "s**-1", Levels: vo},
		{Name: "msl", LongName: "Mean sea level pressure", Units: "hPa", Grid: msl},
	}
	return ds, nil
}

func axis(from, to, step float64) []float64 {
	n := int(math.Floor((to-from)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func newGrid(lon, lat []float64) magics.Grid {
	g := make(magics.Grid, len(lat))
	for i := range g {
		g[i] = make([]float64, len(lon))
	}
	return g
}
