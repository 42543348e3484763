// Package camera maps world coordinates to raster coordinates for the
// software renderer.
package camera

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Projection selects the projection model.
type Projection int

const (
	Orthographic Projection = iota
	Perspective
)

func (p Projection) String() string {
	switch p {
	case Orthographic:
		return "orthographic"
	case Perspective:
		return "perspective"
	default:
		return fmt.Sprintf("Projection(%d)", int(p))
	}
}

// ParseProjection accepts "orthographic"/"ortho" and "perspective"/"persp".
// The empty string selects Orthographic.
func ParseProjection(s string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "orthographic", "ortho":
		return Orthographic, nil
	case "perspective", "persp":
		return Perspective, nil
	}
	return Orthographic, fmt.Errorf("camera: unknown projection %q", s)
}

// fitMargin leaves a small border around a fitted scene.
const fitMargin = 1.05

// Camera is a look-at camera. The zero value is not usable; start from
// Default.
type Camera struct {
	Projection Projection
	Eye        mgl64.Vec3
	Target     mgl64.Vec3
	Up         mgl64.Vec3
	FovY       float64 // vertical field of view in degrees, perspective only
	HalfHeight float64 // half the visible height in world units, orthographic only
	Near, Far  float64
	Aspect     float64 // width / height
}

// Default looks down -Z at the origin with +Y up.
func Default(p Projection) Camera {
	return Camera{
		Projection: p,
		Eye:        mgl64.Vec3{0, 0, 10},
		Target:     mgl64.Vec3{0, 0, 0},
		Up:         mgl64.Vec3{0, 1, 0},
		FovY:       30,
		HalfHeight: 1,
		Near:       0.1,
		Far:        100,
		Aspect:     1,
	}
}

// Direction returns the unit vector from the eye towards the target.
func (c Camera) Direction() mgl64.Vec3 {
	d := c.Target.Sub(c.Eye)
	if d.Len() == 0 {
		return mgl64.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// Fit moves the camera along its current direction so that the box
// [min, max] fills the view, and sets near and far planes around it. The
// view direction and up vector are kept.
func (c *Camera) Fit(min, max [3]float64, aspect float64) {
	if !(aspect > 0) {
		aspect = 1
	}
	c.Aspect = aspect

	lo := mgl64.Vec3{min[0], min[1], min[2]}
	hi := mgl64.Vec3{max[0], max[1], max[2]}
	center := lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() / 2
	if !(radius > 0) {
		radius = 1
	}

	dir := c.Direction()
	// the scene must fit along the narrower screen axis
	halfH := radius * fitMargin
	if aspect < 1 {
		halfH /= aspect
	}

	var dist float64
	switch c.Projection {
	case Perspective:
		fov := c.FovY
		if !(fov > 0 && fov < 180) {
			fov = 30
		}
		c.FovY = fov
		dist = halfH / math.Sin(mgl64.DegToRad(fov)/2)
	default:
		c.HalfHeight = halfH
		dist = radius * 3
	}

	c.Target = center
	c.Eye = center.Sub(dir.Mul(dist))
	c.Near = math.Max(dist-radius*1.5, dist*1e-3)
	c.Far = dist + radius*1.5
}

// View returns the world-to-camera matrix.
func (c Camera) View() mgl64.Mat4 {
	up := c.Up
	if up.Len() == 0 || math.Abs(up.Normalize().Dot(c.Direction())) > 0.999 {
		// up parallel to the view direction: pick any perpendicular axis
		up = mgl64.Vec3{0, 1, 0}
		if math.Abs(c.Direction().Y()) > 0.9 {
			up = mgl64.Vec3{0, 0, 1}
		}
	}
	return mgl64.LookAtV(c.Eye, c.Target, up)
}

// Proj returns the camera-to-clip matrix.
func (c Camera) Proj() mgl64.Mat4 {
	aspect := c.Aspect
	if !(aspect > 0) {
		aspect = 1
	}
	if c.Projection == Perspective {
		return mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far)
	}
	h := c.HalfHeight
	w := h * aspect
	return mgl64.Ortho(-w, w, -h, h, c.Near, c.Far)
}

// ViewProjection returns Proj * View.
func (c Camera) ViewProjection() mgl64.Mat4 {
	return c.Proj().Mul4(c.View())
}

// Raster converts world points to raster space for one image size.
type Raster struct {
	vp   mgl64.Mat4
	w, h float64
}

// Rasterizer precomputes the view-projection for an image of w x h pixels.
func (c Camera) Rasterizer(w, h int) Raster {
	return Raster{vp: c.ViewProjection(), w: float64(w), h: float64(h)}
}

// Project maps v to raster x, y (pixels, y down) and NDC depth z in [-1, 1].
// ok is false when v is behind the eye or outside the near/far range.
func (r Raster) Project(v [3]float64) (x, y, z float64, ok bool) {
	p := r.vp.Mul4x1(mgl64.Vec4{v[0], v[1], v[2], 1})
	if p.W() <= 0 {
		return 0, 0, 0, false
	}
	ndc := p.Vec3().Mul(1 / p.W())
	x = (ndc.X() + 1) * 0.5 * r.w
	y = (1 - ndc.Y()) * 0.5 * r.h
	z = ndc.Z()
	return x, y, z, z >= -1 && z <= 1
}

// WorldToRaster is a convenience for Rasterizer(w, h).Project(v).
func (c Camera) WorldToRaster(v [3]float64, w, h int) (x, y, z float64, ok bool) {
	return c.Rasterizer(w, h).Project(v)
}

// PixelSize returns the world length of one pixel side for an image h pixels
// high. It is only defined for orthographic cameras and is 0 otherwise.
func (c Camera) PixelSize(h int) float64 {
	if c.Projection != Orthographic || h <= 0 {
		return 0
	}
	return 2 * c.HalfHeight / float64(h)
}
