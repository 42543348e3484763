package zbuffer

import (
	"context"
	"errors"
	"testing"

	"github.com/chazu/projview/pkg/camera"
	"github.com/chazu/projview/pkg/idcolor"
	"github.com/chazu/projview/pkg/kernel"
	"github.com/chazu/projview/pkg/projection"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// testCamera maps world x, y in [-1, 1] onto a square image, looking down -Z.
func testCamera() camera.Camera {
	return camera.Camera{
		Projection: camera.Orthographic,
		Eye:        mgl64.Vec3{0, 0, 10},
		Up:         mgl64.Vec3{0, 1, 0},
		HalfHeight: 1,
		Near:       1,
		Far:        20,
		Aspect:     1,
	}
}

// quad returns a square of half-size s at height z facing +Z. When flip is
// set the triangles are wound clockwise.
func quad(s, z float32, flip bool) *kernel.Mesh {
	m := &kernel.Mesh{
		Vertices: []float32{-s, -s, z, s, -s, z, s, s, z, -s, s, z},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
	if flip {
		m.Indices = []uint32{0, 2, 1, 0, 3, 2}
	}
	return m
}

func newEngine(t *testing.T, w, h int, opts Options) *Engine {
	t.Helper()
	e, err := New(w, h, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewRejectsEmptySize(t *testing.T) {
	if _, err := New(0, 10, Options{}); err == nil {
		t.Error("New(0, 10) should fail")
	}
}

func TestIDBasedCoverage(t *testing.T) {
	for _, flip := range []bool{false, true} {
		e := newEngine(t, 10, 10, Options{Workers: 1})
		out, err := e.Render(context.Background(), IDBased, []Item{{Mesh: quad(0.4, 0, flip), ID: 7}}, testCamera())
		if err != nil {
			t.Fatal(err)
		}
		res := projection.Count(out.IDs)
		want := []projection.Entry{{ID: 7, Pixels: 16, Box: projection.Box{MinX: 3, MinY: 3, MaxX: 6, MaxY: 6}}}
		if diff := cmp.Diff(want, res.Entries); diff != "" {
			t.Errorf("flip=%v coverage mismatch (-want +got):\n%s", flip, diff)
		}
		if out.Color != nil {
			t.Error("id pass should not produce a color image")
		}
	}
}

func TestDepthOcclusion(t *testing.T) {
	back := Item{Mesh: quad(0.8, 0, false), ID: 1}
	front := Item{Mesh: quad(0.4, 0.5, false), ID: 2}
	for name, items := range map[string][]Item{
		"back first":  {back, front},
		"front first": {front, back},
	} {
		t.Run(name, func(t *testing.T) {
			e := newEngine(t, 10, 10, Options{Workers: 3})
			out, err := e.Render(context.Background(), IDBased, items, testCamera())
			if err != nil {
				t.Fatal(err)
			}
			res := projection.Count(out.IDs)
			got := res.Map()
			if got[1].Pixels != 48 || got[2].Pixels != 16 {
				t.Errorf("pixels = %d, %d, want 48, 16", got[1].Pixels, got[2].Pixels)
			}
		})
	}
}

func TestEqualDepthFirstWins(t *testing.T) {
	e := newEngine(t, 10, 10, Options{Workers: 2})
	out, err := e.Render(context.Background(), IDBased,
		[]Item{{Mesh: quad(0.4, 0, false), ID: 5}, {Mesh: quad(0.4, 0, false), ID: 6}}, testCamera())
	if err != nil {
		t.Fatal(err)
	}
	if ids := projection.Count(out.IDs).IDs(); !cmp.Equal(ids, []uint32{5}) {
		t.Errorf("IDs = %v, want [5]", ids)
	}
}

func TestWorkersDoNotChangeOutput(t *testing.T) {
	items := []Item{
		{Mesh: quad(0.9, -0.2, false), ID: 0x0f0f0f0f},
		{Mesh: quad(0.5, 0.1, true), ID: 0x0f0f0000},
		{Mesh: quad(0.2, 0.3, false), ID: 0},
	}
	serial, err := newEngine(t, 37, 23, Options{Workers: 1}).Render(context.Background(), IDBased, items, testCamera())
	if err != nil {
		t.Fatal(err)
	}
	for _, workers := range []int{2, 5, 64} {
		got, err := newEngine(t, 37, 23, Options{Workers: workers}).Render(context.Background(), IDBased, items, testCamera())
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.Equal(serial.IDs, got.IDs) {
			t.Errorf("%d workers produced a different frame", workers)
		}
	}
}

func TestCodecOrderAndBackground(t *testing.T) {
	codec := idcolor.Codec{Order: idcolor.ABGR}
	e := newEngine(t, 10, 10, Options{Codec: codec, Workers: 1})
	out, err := e.Render(context.Background(), IDBased, []Item{{Mesh: quad(0.4, 0, false), ID: 0x01020304}}, testCamera())
	if err != nil {
		t.Fatal(err)
	}
	if got := out.IDs.At(0, 0); got != codec.Background() {
		t.Errorf("corner = %v, want background", got)
	}
	if got := out.IDs.At(5, 5); got != codec.Encode(0x01020304) {
		t.Errorf("center = %v, want %v", got, codec.Encode(0x01020304))
	}
	res := projection.Count(out.IDs, projection.WithCodec(codec))
	if _, ok := res.Lookup(0x01020304); !ok {
		t.Error("id not recovered with the matching codec")
	}
}

func TestOffscreenAndEmptyItems(t *testing.T) {
	far := &kernel.Mesh{
		Vertices: []float32{5, 5, 0, 6, 5, 0, 6, 6, 0},
		Indices:  []uint32{0, 1, 2},
	}
	e := newEngine(t, 8, 8, Options{Workers: 1})
	out, err := e.Render(context.Background(), IDBased,
		[]Item{{Mesh: far, ID: 1}, {Mesh: nil, ID: 2}, {Mesh: &kernel.Mesh{}, ID: 3}}, testCamera())
	if err != nil {
		t.Fatal(err)
	}
	if out.Triangles != 0 {
		t.Errorf("Triangles = %d, want 0", out.Triangles)
	}
	if res := projection.Count(out.IDs); len(res.Entries) != 0 {
		t.Errorf("entries = %v", res.Entries)
	}
}

func TestColorBased(t *testing.T) {
	white := colorful.Color{R: 1, G: 1, B: 1}
	red := colorful.Color{R: 1}
	e := newEngine(t, 10, 10, Options{Background: white, Workers: 2})

	out, err := e.Render(context.Background(), ColorBased, []Item{{Mesh: quad(0.4, 0, false), Color: red}}, testCamera())
	if err != nil {
		t.Fatal(err)
	}
	if out.IDs != nil {
		t.Error("color pass should not produce an id buffer")
	}
	bg := out.Color.NRGBAAt(0, 0)
	if bg.R != 255 || bg.G != 255 || bg.B != 255 || bg.A != 255 {
		t.Errorf("background = %v", bg)
	}
	// facing the camera: full diffuse, so the red channel saturates
	c := out.Color.NRGBAAt(5, 5)
	if c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("center = %v, want red", c)
	}
}

func TestColorBasedTransparency(t *testing.T) {
	white := colorful.Color{R: 1, G: 1, B: 1}
	black := colorful.Color{}
	e := newEngine(t, 10, 10, Options{Background: white, Workers: 1})

	half, err := e.Render(context.Background(), ColorBased,
		[]Item{{Mesh: quad(0.4, 0, false), Color: black, Transparency: 0.5}}, testCamera())
	if err != nil {
		t.Fatal(err)
	}
	if c := half.Color.NRGBAAt(5, 5); c.R < 100 || c.R > 155 {
		t.Errorf("half transparent black over white = %v, want mid grey", c)
	}

	for _, tr := range []float64{AlphaThreshold, 0.995, 1} {
		invisible, err := e.Render(context.Background(), ColorBased,
			[]Item{{Mesh: quad(0.4, 0, false), Color: black, Transparency: tr}}, testCamera())
		if err != nil {
			t.Fatal(err)
		}
		if c := invisible.Color.NRGBAAt(5, 5); c.R != 255 {
			t.Errorf("transparency %v: fragment was drawn: %v", tr, c)
		}
		if invisible.Triangles != 0 {
			t.Errorf("transparency %v: Triangles = %d, want 0", tr, invisible.Triangles)
		}
	}

	nearly, err := e.Render(context.Background(), ColorBased,
		[]Item{{Mesh: quad(0.4, 0, false), Color: black, Transparency: 0.98}}, testCamera())
	if err != nil {
		t.Fatal(err)
	}
	if nearly.Triangles == 0 {
		t.Error("transparency below the threshold must still be drawn")
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEngine(t, 10, 10, Options{Workers: 2})
	_, err := e.Render(ctx, IDBased, []Item{{Mesh: quad(0.4, 0, false), ID: 1}}, testCamera())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestStyleString(t *testing.T) {
	if IDBased.String() != "id" || ColorBased.String() != "color" || Style(9).String() != "Style(9)" {
		t.Error("unexpected Style strings")
	}
}
