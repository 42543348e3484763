// Package zbuffer is a small software z-buffer renderer. It draws meshes in
// either their identifier colors, for pixel counting, or in flat-shaded
// material colors, for looking at.
package zbuffer

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"

	"github.com/chazu/projview/pkg/camera"
	"github.com/chazu/projview/pkg/frame"
	"github.com/chazu/projview/pkg/idcolor"
	"github.com/chazu/projview/pkg/kernel"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"
)

// Style selects what is written to the frame.
type Style int

const (
	// IDBased writes each item's codec color with no shading or blending.
	IDBased Style = iota
	// ColorBased writes flat-shaded material colors and blends transparent
	// items over what is already drawn.
	ColorBased
)

func (s Style) String() string {
	switch s {
	case IDBased:
		return "id"
	case ColorBased:
		return "color"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

const (
	// AlphaThreshold is the transparency at or above which a fragment is dropped
	// without touching the depth buffer.
	AlphaThreshold = 0.99

	// depthEpsilon is the minimum depth gap for a fragment to replace the
	// one already stored.
	depthEpsilon = 1e-9

	ambient = 0.3
	diffuse = 0.7
)

// Item is one mesh to draw.
type Item struct {
	Mesh         *kernel.Mesh
	ID           uint32
	Color        colorful.Color
	Transparency float64
}

// Options configures an Engine.
type Options struct {
	Codec      idcolor.Codec
	Background colorful.Color // clear color of the ColorBased pass
	Workers    int            // row bands rendered concurrently, <1 means GOMAXPROCS
}

// Engine renders items into fixed-size frames. An Engine holds no per-frame
// state and may be used by several goroutines at once.
type Engine struct {
	width, height int
	opts          Options
}

// New returns an engine for w x h frames.
func New(w, h int, opts Options) (*Engine, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("zbuffer: invalid frame size %dx%d", w, h)
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{width: w, height: h, opts: opts}, nil
}

// Size returns the frame size.
func (e *Engine) Size() (w, h int) { return e.width, e.height }

// Output holds the result of one Render call. Exactly one of IDs and Color
// is set, depending on the style.
type Output struct {
	IDs       *frame.Buffer
	Color     *image.NRGBA
	Triangles int // triangles at least partly inside the view
}

// target is the per-pixel state shared by one render.
type target struct {
	w, h  int
	depth []float64
	ids   *frame.Buffer
	color []colorful.Color
}

// Render draws items with cam. Items are drawn in order; when two fragments
// have the same depth the earlier item keeps the pixel. Rows are split into
// bands rendered concurrently, and since each pixel belongs to exactly one
// band the output does not depend on the number of workers.
func (e *Engine) Render(ctx context.Context, style Style, items []Item, cam camera.Camera) (*Output, error) {
	cam.Aspect = float64(e.width) / float64(e.height)
	tris := project(items, cam.Rasterizer(e.width, e.height), e.width, e.height, style, cam.Direction(), e.opts.Codec)

	t := &target{w: e.width, h: e.height, depth: make([]float64, e.width*e.height)}
	for i := range t.depth {
		t.depth[i] = math.Inf(1)
	}
	switch style {
	case IDBased:
		t.ids = frame.New(e.width, e.height)
		t.ids.Fill(e.opts.Codec.Background())
	case ColorBased:
		t.color = make([]colorful.Color, e.width*e.height)
		for i := range t.color {
			t.color[i] = e.opts.Background
		}
	default:
		return nil, fmt.Errorf("zbuffer: unknown style %v", style)
	}

	bands := e.opts.Workers
	if bands > e.height {
		bands = e.height
	}
	g, ctx := errgroup.WithContext(ctx)
	for b := 0; b < bands; b++ {
		y0 := b * e.height / bands
		y1 := (b + 1) * e.height / bands
		g.Go(func() error {
			for i := range tris {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				t.rasterize(&tris[i], y0, y1, style)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("zbuffer: render: %w", err)
	}

	out := &Output{Triangles: len(tris)}
	if style == IDBased {
		out.IDs = t.ids
		return out, nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, e.width, e.height))
	for i, c := range t.color {
		cr, cg, cb := c.Clamped().RGB255()
		img.Pix[i*4] = cr
		img.Pix[i*4+1] = cg
		img.Pix[i*4+2] = cb
		img.Pix[i*4+3] = 0xff
	}
	out.Color = img
	return out, nil
}
