// Package tessellate walks a scene and produces triangle meshes using a
// geometry kernel. One mesh is produced per shape.
package tessellate

import (
	"fmt"
	"strconv"

	"github.com/chazu/projview/pkg/kernel"
	"github.com/chazu/projview/pkg/scene"
	"golang.org/x/sync/errgroup"
)

type opKind int

const (
	opTranslate opKind = iota
	opRotate
	opScale
)

type transformOp struct {
	kind opKind
	v    scene.Vec3
}

// transformStack accumulates the wrappers met on the way down to a
// primitive. The innermost wrapper is applied first.
type transformStack struct {
	ops []transformOp
}

func (ts *transformStack) push(kind opKind, v scene.Vec3) {
	ts.ops = append(ts.ops, transformOp{kind: kind, v: v})
}

func (ts *transformStack) pop() {
	if len(ts.ops) > 0 {
		ts.ops = ts.ops[:len(ts.ops)-1]
	}
}

// apply transforms s by every op on the stack, innermost first.
func (ts *transformStack) apply(k kernel.Kernel, s kernel.Solid) kernel.Solid {
	for i := len(ts.ops) - 1; i >= 0; i-- {
		op := ts.ops[i]
		switch op.kind {
		case opTranslate:
			if !op.v.IsZero() {
				s = k.Translate(s, op.v.X, op.v.Y, op.v.Z)
			}
		case opRotate:
			if !op.v.IsZero() {
				s = k.Rotate(s, op.v.X, op.v.Y, op.v.Z)
			}
		case opScale:
			if op.v != (scene.Vec3{X: 1, Y: 1, Z: 1}) {
				s = k.Scale(s, op.v.X, op.v.Y, op.v.Z)
			}
		}
	}
	return s
}

// Tessellate produces one mesh per shape of s, in scene order, each tagged
// with the shape's identifier. The tessellator is read-only and never
// mutates the scene.
func Tessellate(s *scene.Scene, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}
	return tessellate(s.Shapes(), k, nil)
}

// Shapes is Tessellate over a fixed shape list. Mesh i belongs to shapes[i].
func Shapes(shapes []*scene.Shape, k kernel.Kernel) ([]*kernel.Mesh, error) {
	return tessellate(shapes, k, nil)
}

func tessellate(shapes []*scene.Shape, k kernel.Kernel, c *Cache) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, len(shapes))

	limit := 1
	if c != nil && c.workers > 1 {
		limit = c.workers
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, sh := range shapes {
		g.Go(func() error {
			var (
				mesh *kernel.Mesh
				err  error
			)
			if c != nil {
				mesh, err = c.mesh(k, sh.Geometry)
			} else {
				mesh, err = Geometry(k, sh.Geometry)
			}
			if err != nil {
				return fmt.Errorf("tessellate: shape %d (#%d): %w", sh.ID, i, err)
			}
			// Cached meshes are shared, so tag a shallow copy.
			tagged := *mesh
			tagged.ShapeID = sh.ID
			tagged.PartName = sh.Name
			if tagged.PartName == "" {
				tagged.PartName = strconv.FormatUint(uint64(sh.ID), 10)
			}
			meshes[i] = &tagged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}

// Geometry tessellates a single geometry.
func Geometry(k kernel.Kernel, g scene.Geometry) (*kernel.Mesh, error) {
	ts := &transformStack{}
	solid, err := walk(k, g, ts)
	if err != nil {
		return nil, err
	}
	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("ToMesh failed for %s: %w", scene.Fingerprint(g), err)
	}
	return mesh, nil
}

// walk descends through wrappers, pushing them on the stack, and builds the
// primitive at the bottom.
func walk(k kernel.Kernel, g scene.Geometry, ts *transformStack) (kernel.Solid, error) {
	switch g := g.(type) {
	case scene.Sphere:
		return primitive(k.Sphere(g.Radius))(k, ts)
	case scene.Box:
		return primitive(k.Box(g.Size.X, g.Size.Y, g.Size.Z))(k, ts)
	case scene.Cylinder:
		return primitive(k.Cylinder(g.Height, g.Radius))(k, ts)
	case scene.Translated:
		return wrapped(k, ts, opTranslate, g.Offset, g.Geometry)
	case scene.Rotated:
		return wrapped(k, ts, opRotate, g.Angles, g.Geometry)
	case scene.Scaled:
		return wrapped(k, ts, opScale, g.Factor, g.Geometry)
	case nil:
		return nil, scene.ErrNilGeometry
	default:
		return nil, fmt.Errorf("unsupported geometry %T", g)
	}
}

func primitive(s kernel.Solid, err error) func(kernel.Kernel, *transformStack) (kernel.Solid, error) {
	return func(k kernel.Kernel, ts *transformStack) (kernel.Solid, error) {
		if err != nil {
			return nil, err
		}
		return ts.apply(k, s), nil
	}
}

func wrapped(k kernel.Kernel, ts *transformStack, kind opKind, v scene.Vec3, inner scene.Geometry) (kernel.Solid, error) {
	ts.push(kind, v)
	defer ts.pop()
	return walk(k, inner, ts)
}
