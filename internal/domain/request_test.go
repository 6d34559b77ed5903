package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const windHighRequest = `{
	"id": "gfs-2024042612-wind_high",
	"product": "wind_high",
	"data_file": "/data/gfs/2024042612.nc",
	"time_index": 2,
	"variables": {
		"u":  {"name": "u", "level": 3},
		"v":  {"name": "v", "level": 3},
		"gh": {"name": "gh", "level": 5, "file": "/data/gfs/gh.nc"}
	},
	"region": {"lon_min": 100, "lon_max": 125, "lat_min": 20, "lat_max": 45},
	"valid_time": "2024-04-26T12:00:00Z",
	"output_path": "gfs/wind_high.png"
}`

func TestParseRenderRequest(t *testing.T) {
	req, err := ParseRenderRequest(RawEvent{Value: []byte(windHighRequest)})
	require.NoError(t, err)

	assert.Equal(t, "gfs-2024042612-wind_high", req.ID)
	assert.Equal(t, "wind_high", req.Product)
	assert.Equal(t, 2, req.TimeIndex)
	require.NotNil(t, req.Variables.U)
	assert.Equal(t, VarRef{Name: "u", Level: 3}, *req.Variables.U)
	require.NotNil(t, req.Variables.Height)
	assert.Equal(t, "/data/gfs/gh.nc", req.Variables.Height.File)
	assert.Nil(t, req.Variables.MSLP)
	require.NotNil(t, req.Region)
	assert.Equal(t, 125., req.Region.LonMax)
	require.NotNil(t, req.ValidTime)
	assert.Equal(t, time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC), req.ValidTime.UTC())
	assert.Zero(t, req.Stride)
}

func TestParseRenderRequest_IDFallbacks(t *testing.T) {
	body := []byte(`{"product":"mslp","data_file":"a.nc"}`)

	req, err := ParseRenderRequest(RawEvent{Key: []byte("key-7"), Value: body})
	require.NoError(t, err)
	assert.Equal(t, "key-7", req.ID)

	req, err = ParseRenderRequest(RawEvent{Value: body})
	require.NoError(t, err)
	_, err = uuid.Parse(req.ID)
	assert.NoError(t, err)
}

func TestParseRenderRequest_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad json":        `{"product":`,
		"no product":      `{"data_file":"a.nc"}`,
		"no data file":    `{"product":"mslp"}`,
		"negative time":   `{"product":"mslp","data_file":"a.nc","time_index":-1}`,
		"negative stride": `{"product":"wind_high","data_file":"a.nc","stride":-2}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRenderRequest(RawEvent{Value: []byte(body)})
			require.Error(t, err)
		})
	}

	_, err := ParseRenderRequest(RawEvent{Value: []byte(`{"product":"mslp"}`)})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSerializeProductRendered(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	ev := ProductRendered{
		RequestID:  "req-1",
		Product:    "mslp",
		OutputPath: "/maps/mslp.png",
		Bytes:      2048,
		RenderedAt: Now(),
		DurationMS: 850,
	}

	out, err := SerializeProductRendered(ev)
	require.NoError(t, err)
	assert.Equal(t, []byte("req-1"), out.Key)
	assert.Equal(t, "mslp", out.Headers["product"])
	assert.Equal(t, "2024-04-26T15:10:00Z", out.Headers["rendered_at"])

	var roundtrip map[string]any
	require.NoError(t, json.Unmarshal(out.Value, &roundtrip))
	assert.Equal(t, "/maps/mslp.png", roundtrip["output_path"])
	assert.NotContains(t, roundtrip, "valid_time")
}
