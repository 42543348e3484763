// Package viewer displays scenes headlessly and answers per-shape projection
// queries about the last displayed frame.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/projview/pkg/camera"
	"github.com/chazu/projview/pkg/frame"
	"github.com/chazu/projview/pkg/idcolor"
	"github.com/chazu/projview/pkg/kernel"
	"github.com/chazu/projview/pkg/kernel/sdfx"
	"github.com/chazu/projview/pkg/projection"
	"github.com/chazu/projview/pkg/scene"
	"github.com/chazu/projview/pkg/tessellate"
	"github.com/chazu/projview/pkg/zbuffer"
	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
)

var (
	// ErrNoFrame is returned by queries made before the first display.
	ErrNoFrame = errors.New("viewer: nothing displayed yet")
	// ErrNilScene is returned when Display is given no scene.
	ErrNilScene = errors.New("viewer: scene is nil")
	// ErrInvalidScene wraps the validation errors of a rejected scene.
	ErrInvalidScene = errors.New("viewer: invalid scene")
)

// Options configures a Viewer.
type Options struct {
	Width, Height int
	Codec         idcolor.Codec
	Projection    camera.Projection
	FovY          float64    // degrees, perspective only
	ViewDir       mgl64.Vec3 // direction the camera looks in, zero means -Z
	Kernel        kernel.Kernel
	MeshCells     int  // used when Kernel is nil
	Workers       int  // render bands and tessellation workers
	ColorPass     bool // also render a shaded image
	Background    colorful.Color
}

// DefaultOptions returns a 600x600 orthographic viewer.
func DefaultOptions() Options {
	return Options{
		Width:      600,
		Height:     600,
		Projection: camera.Orthographic,
		FovY:       30,
		MeshCells:  sdfx.DefaultMeshCells,
		Background: colorful.Color{R: 1, G: 1, B: 1},
	}
}

// Viewer renders scenes into id frames. Display replaces the current frame;
// queries read the frame that was current when they started. A Viewer is
// safe for concurrent use.
type Viewer struct {
	opts   Options
	log    *zap.Logger
	kernel kernel.Kernel
	cache  *tessellate.Cache
	engine *zbuffer.Engine

	mu    sync.RWMutex
	frame *frame.Frame
	cam   camera.Camera
}

// New returns a viewer. A nil logger is replaced by a no-op logger.
func New(opts Options, log *zap.Logger) (*Viewer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	engine, err := zbuffer.New(opts.Width, opts.Height, zbuffer.Options{
		Codec:      opts.Codec,
		Background: opts.Background,
		Workers:    opts.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}
	k := opts.Kernel
	if k == nil {
		k = sdfx.New(sdfx.WithMeshCells(opts.MeshCells))
	}
	return &Viewer{
		opts:   opts,
		log:    log,
		kernel: k,
		cache:  tessellate.NewCache(opts.Workers),
		engine: engine,
	}, nil
}

// Display renders sc and makes the result the current frame. A scene with
// blocking validation errors is rejected and the previous frame is kept.
func (v *Viewer) Display(ctx context.Context, sc *scene.Scene) (*frame.Frame, error) {
	if sc == nil {
		return nil, ErrNilScene
	}
	start := time.Now()

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	for _, w := range sc.Warnings() {
		v.log.Warn("scene validation", zap.Uint32("shape", w.ShapeID), zap.String("finding", w.Message))
	}

	// sc may change while this runs; mesh i and material i come from shapes[i]
	shapes := sc.Shapes()
	meshes, err := v.cache.Shapes(shapes, v.kernel)
	if err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}

	cam := v.fit(meshes)
	items := make([]zbuffer.Item, 0, len(meshes))
	for i, m := range meshes {
		it := zbuffer.Item{Mesh: m, ID: m.ShapeID}
		if c, err := shapes[i].Material.RGB(); err == nil {
			it.Color = c
			it.Transparency = shapes[i].Material.Transparency
		}
		items = append(items, it)
	}

	ids, err := v.engine.Render(ctx, zbuffer.IDBased, items, cam)
	if err != nil {
		return nil, fmt.Errorf("viewer: id pass: %w", err)
	}
	f := frame.NewFrame(ids.IDs, v.opts.Codec.Order)
	f.PixelSize = cam.PixelSize(v.opts.Height)

	if v.opts.ColorPass {
		shaded, err := v.engine.Render(ctx, zbuffer.ColorBased, items, cam)
		if err != nil {
			return nil, fmt.Errorf("viewer: color pass: %w", err)
		}
		f.Color = shaded.Color
	}

	v.mu.Lock()
	v.frame = f
	v.cam = cam
	v.mu.Unlock()

	hits, misses := v.cache.Stats()
	v.log.Debug("displayed scene",
		zap.Stringer("frame", f.ID),
		zap.Int("shapes", len(shapes)),
		zap.Int("triangles", ids.Triangles),
		zap.Int64("cache_hits", hits),
		zap.Int64("cache_misses", misses),
		zap.Duration("elapsed", time.Since(start)),
	)
	return f, nil
}

// fit frames every mesh. An empty scene gets a unit box so the camera stays
// well defined.
func (v *Viewer) fit(meshes []*kernel.Mesh) camera.Camera {
	cam := camera.Default(v.opts.Projection)
	if v.opts.FovY > 0 {
		cam.FovY = v.opts.FovY
	}
	if v.opts.ViewDir.Len() > 0 {
		cam.Eye = cam.Target.Sub(v.opts.ViewDir.Normalize())
	}
	min, max, ok := kernel.MergeBounds(meshes)
	if !ok {
		min, max = [3]float64{-1, -1, -1}, [3]float64{1, 1, 1}
	}
	cam.Fit(min, max, float64(v.opts.Width)/float64(v.opts.Height))
	return cam
}

// Frame returns the current frame.
func (v *Viewer) Frame() (*frame.Frame, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.frame == nil {
		return nil, ErrNoFrame
	}
	return v.frame, nil
}

// Camera returns the camera used for the current frame.
func (v *Viewer) Camera() (camera.Camera, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.frame == nil {
		return camera.Camera{}, ErrNoFrame
	}
	return v.cam, nil
}

// ProjectionPerShape counts the pixels of every visible shape in the current
// frame. Repeated calls without an intervening Display return equal results.
func (v *Viewer) ProjectionPerShape() (projection.Result, error) {
	f, err := v.Frame()
	if err != nil {
		return projection.Result{}, err
	}
	return projection.Count(f.Buffer, projection.WithCodec(idcolor.Codec{Order: f.Order})), nil
}

// Size returns the frame size.
func (v *Viewer) Size() (w, h int) { return v.engine.Size() }
