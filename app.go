package main

import (
	"context"
	"fmt"

	"github.com/chazu/projview/pkg/config"
	"github.com/chazu/projview/pkg/engine"
	"github.com/chazu/projview/pkg/frame"
	"github.com/chazu/projview/pkg/idcolor"
	"github.com/chazu/projview/pkg/projection"
	"github.com/chazu/projview/pkg/scene"
	"github.com/chazu/projview/pkg/viewer"
	"go.uber.org/zap"
)

// App ties the script engine to a headless viewer. It is what the CLI
// commands drive, and tests use it as the end-to-end entry point.
type App struct {
	ctx    context.Context
	cfg    config.Config
	log    *zap.Logger
	engine *engine.Engine
	viewer *viewer.Viewer
}

// EvalErrorData is a JSON-serializable evaluation error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ProjectionRow is one visible shape of the displayed frame.
type ProjectionRow struct {
	ID     uint32  `json:"id"`
	Key    string  `json:"key"`
	Name   string  `json:"name,omitempty"`
	Pixels int     `json:"pixels"`
	MinX   int     `json:"minX"`
	MinY   int     `json:"minY"`
	MaxX   int     `json:"maxX"`
	MaxY   int     `json:"maxY"`
	Area   float64 `json:"area,omitempty"` // world units, orthographic only
}

// EvalResult is the full result of evaluating and displaying a script.
type EvalResult struct {
	Shapes     int             `json:"shapes"`
	Projection []ProjectionRow `json:"projection"`
	Missing    []uint32        `json:"missing"` // shapes with no visible pixel
	Errors     []EvalErrorData `json:"errors"`
	Warnings   []EvalErrorData `json:"warnings"`
	Frame      string          `json:"frame,omitempty"`
}

// NewApp creates an App from resolved settings. A nil logger is replaced by
// a no-op logger.
func NewApp(cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts, err := cfg.ViewerOptions()
	if err != nil {
		return nil, err
	}
	v, err := viewer.New(opts, log.Named("viewer"))
	if err != nil {
		return nil, err
	}
	return &App{
		ctx:    context.Background(),
		cfg:    cfg,
		log:    log,
		engine: engine.NewEngine(engine.WithCodec(opts.Codec)),
		viewer: v,
	}, nil
}

// Evaluate runs source, displays the resulting scene and returns its
// per-shape projection. The slices of the result are never nil.
func (a *App) Evaluate(source string) EvalResult {
	return a.EvaluateContext(a.ctx, source)
}

// EvaluateContext is Evaluate with a caller supplied context for the render.
func (a *App) EvaluateContext(ctx context.Context, source string) EvalResult {
	result := EvalResult{
		Projection: []ProjectionRow{},
		Missing:    []uint32{},
		Errors:     []EvalErrorData{},
		Warnings:   []EvalErrorData{},
	}

	sc, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.log.Error("evaluation failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	result.Shapes = sc.Len()

	for _, w := range sc.Warnings() {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Error()})
	}

	f, err := a.viewer.Display(ctx, sc)
	if err != nil {
		a.log.Error("display failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: "display failed: " + err.Error()})
		return result
	}
	result.Frame = f.ID.String()

	res, err := a.viewer.ProjectionPerShape()
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	result.Projection = projectionRows(res, idcolor.Codec{Order: f.Order}, f.PixelSize, sc)
	result.Missing = append(result.Missing, res.Missing(sc.IDs())...)
	return result
}

// Display shows sc in the app's viewer.
func (a *App) Display(ctx context.Context, sc *scene.Scene) (*frame.Frame, error) {
	return a.viewer.Display(ctx, sc)
}

// GetProjectionPerShape returns the pixel counts of the current frame.
func (a *App) GetProjectionPerShape() (projection.Result, error) {
	return a.viewer.ProjectionPerShape()
}

// Frame returns the current frame.
func (a *App) Frame() (*frame.Frame, error) {
	return a.viewer.Frame()
}

// projectionRows formats res. sc may be nil when the frame was not rendered
// by this process; pixelSize is 0 when areas are unknown.
func projectionRows(res projection.Result, codec idcolor.Codec, pixelSize float64, sc *scene.Scene) []ProjectionRow {
	rows := make([]ProjectionRow, 0, len(res.Entries))
	for _, e := range res.Entries {
		row := ProjectionRow{
			ID:     e.ID,
			Key:    codec.Encode(e.ID).String(),
			Pixels: e.Pixels,
			MinX:   e.Box.MinX,
			MinY:   e.Box.MinY,
			MaxX:   e.Box.MaxX,
			MaxY:   e.Box.MaxY,
			Area:   e.Area(pixelSize),
		}
		if sc != nil {
			if s, ok := sc.Lookup(e.ID); ok {
				row.Name = s.Name
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (r ProjectionRow) String() string {
	return fmt.Sprintf("%d\t%s\t%d\t%d,%d-%d,%d\t%s", r.ID, r.Key, r.Pixels, r.MinX, r.MinY, r.MaxX, r.MaxY, r.Name)
}
