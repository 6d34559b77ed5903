package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/mapplot/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("req-1"),
		Value:     []byte(`{"id":"req-1","product":"mslp"}`),
		Topic:     "render-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("gfs-scheduler")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("req-1"), raw.Key)
	assert.JSONEq(t, `{"id":"req-1","product":"mslp"}`, string(raw.Value))
	assert.Equal(t, "render-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "gfs-scheduler", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestToMessage(t *testing.T) {
	renderedAt := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	ev, err := domain.SerializeProductRendered(domain.ProductRendered{
		RequestID:  "req-1",
		Product:    "wind_high",
		OutputPath: "/srv/maps/wind_high.png",
		Bytes:      2048,
		RenderedAt: renderedAt,
	})
	require.NoError(t, err)

	msg := toMessage(ev)

	assert.Equal(t, []byte("req-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"output_path":"/srv/maps/wind_high.png"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "product", msg.Headers[0].Key)
	assert.Equal(t, []byte("wind_high"), msg.Headers[0].Value)
	assert.Equal(t, "rendered_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(renderedAt.Format(time.RFC3339)), msg.Headers[1].Value)
}
