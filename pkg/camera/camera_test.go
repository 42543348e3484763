package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestParseProjection(t *testing.T) {
	tests := []struct {
		in      string
		want    Projection
		wantErr bool
	}{
		{"", Orthographic, false},
		{"ortho", Orthographic, false},
		{"Perspective", Perspective, false},
		{"fisheye", Orthographic, true},
	}
	for _, tt := range tests {
		got, err := ParseProjection(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseProjection(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestOrthoCenterMapsToImageCenter(t *testing.T) {
	c := Default(Orthographic)
	c.Fit([3]float64{-1, -1, -1}, [3]float64{1, 1, 1}, 2)
	x, y, z, ok := c.WorldToRaster([3]float64{0, 0, 0}, 200, 100)
	if !ok {
		t.Fatal("origin should be visible")
	}
	if math.Abs(x-100) > 1e-9 || math.Abs(y-50) > 1e-9 {
		t.Errorf("origin at (%f, %f), want (100, 50)", x, y)
	}
	if z <= -1 || z >= 1 {
		t.Errorf("depth %f outside clip range", z)
	}
}

func TestRasterYGrowsDown(t *testing.T) {
	c := Default(Orthographic)
	c.Fit([3]float64{-1, -1, -1}, [3]float64{1, 1, 1}, 1)
	r := c.Rasterizer(100, 100)
	_, yTop, _, _ := r.Project([3]float64{0, 0.5, 0})
	_, yBottom, _, _ := r.Project([3]float64{0, -0.5, 0})
	if !(yTop < yBottom) {
		t.Errorf("+Y should be up on screen: top=%f bottom=%f", yTop, yBottom)
	}
	xl, _, _, _ := r.Project([3]float64{-0.5, 0, 0})
	xr, _, _, _ := r.Project([3]float64{0.5, 0, 0})
	if !(xl < xr) {
		t.Errorf("+X should be right on screen: left=%f right=%f", xl, xr)
	}
}

func TestNearerPointsHaveSmallerDepth(t *testing.T) {
	for _, p := range []Projection{Orthographic, Perspective} {
		t.Run(p.String(), func(t *testing.T) {
			c := Default(p)
			c.Fit([3]float64{-1, -1, -1}, [3]float64{1, 1, 1}, 1)
			r := c.Rasterizer(64, 64)
			_, _, zNear, ok1 := r.Project([3]float64{0, 0, 0.9})
			_, _, zFar, ok2 := r.Project([3]float64{0, 0, -0.9})
			if !ok1 || !ok2 {
				t.Fatal("points inside the fitted box must be in range")
			}
			if !(zNear < zFar) {
				t.Errorf("zNear=%f zFar=%f", zNear, zFar)
			}
		})
	}
}

func TestFitKeepsBoxInView(t *testing.T) {
	for _, p := range []Projection{Orthographic, Perspective} {
		for _, aspect := range []float64{0.5, 1, 2} {
			c := Default(p)
			min, max := [3]float64{-2, -1, 0}, [3]float64{3, 2, 1.5}
			c.Fit(min, max, aspect)
			w, h := int(100*aspect), 100
			r := c.Rasterizer(w, h)
			for i := 0; i < 8; i++ {
				v := [3]float64{min[0], min[1], min[2]}
				if i&1 != 0 {
					v[0] = max[0]
				}
				if i&2 != 0 {
					v[1] = max[1]
				}
				if i&4 != 0 {
					v[2] = max[2]
				}
				x, y, _, ok := r.Project(v)
				if !ok || x < 0 || y < 0 || x > float64(w) || y > float64(h) {
					t.Errorf("%s aspect %v: corner %v at (%f, %f) ok=%v", p, aspect, v, x, y, ok)
				}
			}
		}
	}
}

func TestBehindEyeRejected(t *testing.T) {
	c := Default(Perspective)
	c.Fit([3]float64{-1, -1, -1}, [3]float64{1, 1, 1}, 1)
	behind := c.Eye.Add(c.Eye.Sub(c.Target))
	if _, _, _, ok := c.WorldToRaster([3]float64{behind[0], behind[1], behind[2]}, 10, 10); ok {
		t.Error("point behind the eye should be rejected")
	}
}

func TestPixelSize(t *testing.T) {
	c := Default(Orthographic)
	c.HalfHeight = 2
	if got := c.PixelSize(100); got != 0.04 {
		t.Errorf("PixelSize(100) = %v, want 0.04", got)
	}
	c.Projection = Perspective
	if got := c.PixelSize(100); got != 0 {
		t.Errorf("perspective PixelSize = %v, want 0", got)
	}
}

func TestViewWithParallelUp(t *testing.T) {
	c := Default(Orthographic)
	c.Eye = mgl64.Vec3{0, 10, 0}
	c.Up = mgl64.Vec3{0, 1, 0}
	m := c.View()
	for i := 0; i < 16; i++ {
		if math.IsNaN(m[i]) {
			t.Fatalf("view matrix has NaN: %v", m)
		}
	}
}

func TestFitDegenerateBox(t *testing.T) {
	c := Default(Orthographic)
	c.Fit([3]float64{1, 1, 1}, [3]float64{1, 1, 1}, 0)
	if c.Aspect != 1 || !(c.HalfHeight > 0) || !(c.Far > c.Near) {
		t.Errorf("degenerate fit gave %+v", c)
	}
}
