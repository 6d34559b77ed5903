// Package domain models map render requests and the events published once a
// product image has been written.
//
// # Render requests
//
// A request names one of the registered products (wind_upper, wind_high,
// vort_high, mslp), a NetCDF data file and the variables to read from it:
//
//	{
//	  "id": "gfs-2024042612-wind_high",
//	  "product": "wind_high",
//	  "data_file": "/data/gfs/2024042612.nc",
//	  "time_index": 0,
//	  "variables": {
//	    "u":  {"name": "u", "level": 3},
//	    "v":  {"name": "v", "level": 3},
//	    "gh": {"name": "gh", "level": 5}
//	  },
//	  "region": {"lon_min": 100, "lon_max": 125, "lat_min": 20, "lat_max": 45},
//	  "use_file_time": true,
//	  "output_path": "gfs/2024042612/wind_high.png"
//	}
//
// Each variable may carry its own level index and data file, so 850hPa wind
// can be paired with 500hPa height from the same or another file.
//
// Optional fields keep the behaviour of the underlying renderer: no caption
// means the product default, no valid time means a single title line, no
// region means the default China extent and a zero stride means the stride is
// derived from the grid size.
//
// # Rendered events
//
// After a successful render a [ProductRendered] event is published, keyed by
// request ID, carrying the output path, its size and render timing.
package domain
