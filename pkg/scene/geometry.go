package scene

import (
	"fmt"
	"math"
)

// Vec3 is a 3D vector in scene units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

func (v Vec3) finite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Geometry is the closed set of shape geometries. Primitives are centred on
// the origin; wrappers apply one transform to an inner geometry.
type Geometry interface {
	geometry() // marker method restricting implementations to this package
}

// Sphere is a sphere centred on the origin.
type Sphere struct {
	Radius float64 `json:"radius"`
}

// Box is an axis-aligned box centred on the origin.
type Box struct {
	Size Vec3 `json:"size"`
}

// Cylinder is a cylinder along Z centred on the origin.
type Cylinder struct {
	Radius float64 `json:"radius"`
	Height float64 `json:"height"`
}

// Translated moves Geometry by Offset.
type Translated struct {
	Offset   Vec3 `json:"offset"`
	Geometry Geometry
}

// Scaled scales Geometry by Factor along each axis.
type Scaled struct {
	Factor   Vec3 `json:"factor"`
	Geometry Geometry
}

// Rotated rotates Geometry by Euler angles in degrees, applied X then Y then Z.
type Rotated struct {
	Angles   Vec3 `json:"angles"`
	Geometry Geometry
}

func (Sphere) geometry()     {}
func (Box) geometry()        {}
func (Cylinder) geometry()   {}
func (Translated) geometry() {}
func (Scaled) geometry()     {}
func (Rotated) geometry()    {}

// checkGeometry walks g and returns the first problem found, or nil.
func checkGeometry(g Geometry) error {
	switch g := g.(type) {
	case nil:
		return ErrNilGeometry
	case Sphere:
		if !(g.Radius > 0) || !isFinite(g.Radius) {
			return fmt.Errorf("%w: sphere radius %v must be positive", ErrInvalidGeometry, g.Radius)
		}
	case Box:
		if !(g.Size.X > 0 && g.Size.Y > 0 && g.Size.Z > 0) || !g.Size.finite() {
			return fmt.Errorf("%w: box size %v must be positive", ErrInvalidGeometry, g.Size)
		}
	case Cylinder:
		if !(g.Radius > 0) || !(g.Height > 0) || !isFinite(g.Radius) || !isFinite(g.Height) {
			return fmt.Errorf("%w: cylinder radius %v and height %v must be positive",
				ErrInvalidGeometry, g.Radius, g.Height)
		}
	case Translated:
		if !g.Offset.finite() {
			return fmt.Errorf("%w: translation %v is not finite", ErrInvalidGeometry, g.Offset)
		}
		return checkGeometry(g.Geometry)
	case Scaled:
		if !(g.Factor.X > 0 && g.Factor.Y > 0 && g.Factor.Z > 0) || !g.Factor.finite() {
			return fmt.Errorf("%w: scale factor %v must be positive", ErrInvalidGeometry, g.Factor)
		}
		return checkGeometry(g.Geometry)
	case Rotated:
		if !g.Angles.finite() {
			return fmt.Errorf("%w: rotation %v is not finite", ErrInvalidGeometry, g.Angles)
		}
		return checkGeometry(g.Geometry)
	default:
		return fmt.Errorf("%w: unsupported geometry %T", ErrInvalidGeometry, g)
	}
	return nil
}

// Fingerprint returns a string that is equal for equal geometries. It is
// used to share tessellations between shapes.
func Fingerprint(g Geometry) string {
	switch g := g.(type) {
	case Sphere:
		return fmt.Sprintf("sphere(%g)", g.Radius)
	case Box:
		return fmt.Sprintf("box(%g,%g,%g)", g.Size.X, g.Size.Y, g.Size.Z)
	case Cylinder:
		return fmt.Sprintf("cylinder(%g,%g)", g.Radius, g.Height)
	case Translated:
		return fmt.Sprintf("translated(%g,%g,%g,%s)", g.Offset.X, g.Offset.Y, g.Offset.Z, Fingerprint(g.Geometry))
	case Scaled:
		return fmt.Sprintf("scaled(%g,%g,%g,%s)", g.Factor.X, g.Factor.Y, g.Factor.Z, Fingerprint(g.Geometry))
	case Rotated:
		return fmt.Sprintf("rotated(%g,%g,%g,%s)", g.Angles.X, g.Angles.Y, g.Angles.Z, Fingerprint(g.Geometry))
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", g)
	}
}
