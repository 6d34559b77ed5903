package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/mapplot/internal/domain"
	"github.com/couchcryptid/mapplot/internal/observability"
	"github.com/couchcryptid/mapplot/internal/product"
)

// ErrNoOutputPath rejects requests that would render to an in-memory figure;
// the pipeline only publishes products written to disk.
var ErrNoOutputPath = fmt.Errorf("%w: output_path is required", domain.ErrInvalidRequest)

// Renderer renders a parsed request.
type Renderer interface {
	Render(ctx context.Context, req domain.RenderRequest) (product.Result, error)
}

// RenderTransformer implements Transformer by rendering each request to a file.
type RenderTransformer struct {
	renderer Renderer
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewTransformer creates a RenderTransformer. A non-positive timeout leaves
// renders bounded only by the pipeline context.
func NewTransformer(renderer Renderer, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *RenderTransformer {
	return &RenderTransformer{
		renderer: renderer,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}

func (t *RenderTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseRenderRequest(raw)
	if err != nil {
		t.metrics.ObserveRender("unknown", observability.OutcomeInvalid, 0)
		return domain.OutputEvent{}, err
	}
	if req.OutputPath == "" {
		t.metrics.ObserveRender(req.Product, observability.OutcomeInvalid, 0)
		return domain.OutputEvent{}, ErrNoOutputPath
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := domain.Now()
	res, err := t.renderer.Render(ctx, req)
	elapsed := domain.Now().Sub(start)
	if err != nil {
		outcome := observability.OutcomeError
		if errors.Is(err, domain.ErrInvalidRequest) {
			outcome = observability.OutcomeInvalid
		}
		t.metrics.ObserveRender(req.Product, outcome, elapsed.Seconds())
		return domain.OutputEvent{}, fmt.Errorf("render %s request %s: %w", req.Product, req.ID, err)
	}
	t.metrics.ObserveRender(req.Product, observability.OutcomeSuccess, elapsed.Seconds())

	info, err := os.Stat(res.Path)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("stat rendered product: %w", err)
	}

	ev := domain.ProductRendered{
		RequestID:  req.ID,
		Product:    req.Product,
		OutputPath: res.Path,
		Bytes:      info.Size(),
		ValidTime:  req.ValidTime,
		RenderedAt: domain.Now(),
		DurationMS: elapsed.Milliseconds(),
	}
	t.logger.Info("product rendered",
		"request_id", ev.RequestID,
		"product", ev.Product,
		"path", ev.OutputPath,
		"bytes", ev.Bytes,
		"duration", elapsed,
	)
	return domain.SerializeProductRendered(ev)
}
