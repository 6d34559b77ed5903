package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/mapplot/internal/magics"
)

// RawEvent is an unprocessed message from the request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// VarRef locates one 2-D slice in a data file.
type VarRef struct {
	Name  string `json:"name" yaml:"name"`
	Level int    `json:"level,omitempty" yaml:"level,omitempty"`
	// File overrides the request's data file.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Variables maps product inputs to data file variables. Unused entries are nil.
type Variables struct {
	U      *VarRef `json:"u,omitempty" yaml:"u,omitempty"`
	V      *VarRef `json:"v,omitempty" yaml:"v,omitempty"`
	Height *VarRef `json:"gh,omitempty" yaml:"gh,omitempty"`
	MSLP   *VarRef `json:"mslp,omitempty" yaml:"mslp,omitempty"`
	Vort   *VarRef `json:"vort,omitempty" yaml:"vort,omitempty"`
}

// RenderRequest asks for one map product.
type RenderRequest struct {
	ID        string    `json:"id" yaml:"id"`
	Product   string    `json:"product" yaml:"product"`
	DataFile  string    `json:"data_file" yaml:"data_file"`
	TimeIndex int       `json:"time_index,omitempty" yaml:"time_index,omitempty"`
	Variables Variables `json:"variables" yaml:"variables"`

	Stride      int            `json:"stride,omitempty" yaml:"stride,omitempty"`
	Region      *magics.Region `json:"region,omitempty" yaml:"region,omitempty"`
	Caption     string         `json:"caption,omitempty" yaml:"caption,omitempty"`
	ValidTime   *time.Time     `json:"valid_time,omitempty" yaml:"valid_time,omitempty"`
	UseFileTime bool           `json:"use_file_time,omitempty" yaml:"use_file_time,omitempty"`
	OutputPath  string         `json:"output_path,omitempty" yaml:"output_path,omitempty"`
}

// ProductRendered is published after a product image has been written.
type ProductRendered struct {
	RequestID  string     `json:"request_id"`
	Product    string     `json:"product"`
	OutputPath string     `json:"output_path"`
	Bytes      int64      `json:"bytes"`
	ValidTime  *time.Time `json:"valid_time,omitempty"`
	RenderedAt time.Time  `json:"rendered_at"`
	DurationMS int64      `json:"duration_ms"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
