// Package scene defines the shapes a viewer displays. Shapes are built
// explicitly with NewShape and enter a Scene only through Add.
package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/projview/pkg/idcolor"
)

var (
	// ErrConstruction wraps every failure to build a shape or add it to a
	// scene. The kind errors below are wrapped alongside it.
	ErrConstruction = errors.New("scene: construction failed")

	ErrNilGeometry     = errors.New("geometry is nil")
	ErrInvalidGeometry = errors.New("invalid geometry")
	ErrReservedID      = errors.New("identifier is reserved for the background")
	ErrInvalidMaterial = errors.New("invalid material")
	ErrNilShape        = errors.New("shape is nil")
)

// constructionError carries both ErrConstruction and a kind error so that
// errors.Is matches either.
type constructionError struct {
	id   uint32
	kind error
}

func (e *constructionError) Error() string {
	return fmt.Sprintf("scene: shape %d: %v", e.id, e.kind)
}

func (e *constructionError) Unwrap() []error {
	return []error{ErrConstruction, e.kind}
}

func constructErr(id uint32, kind error) error {
	return &constructionError{id: id, kind: kind}
}

// Shape is a geometry tagged with the caller's identifier.
type Shape struct {
	ID       uint32   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Geometry Geometry `json:"-"`
	Material Material `json:"material"`
}

// ShapeOption customizes NewShape.
type ShapeOption func(*Shape)

// WithName sets a display name.
func WithName(name string) ShapeOption {
	return func(s *Shape) { s.Name = name }
}

// WithMaterial replaces the default material.
func WithMaterial(m Material) ShapeOption {
	return func(s *Shape) { s.Material = m }
}

// NewShape validates geom and returns a shape with identifier id. Identifier
// 0 is valid; idcolor.NoID is not.
func NewShape(id uint32, geom Geometry, opts ...ShapeOption) (*Shape, error) {
	s := &Shape{ID: id, Geometry: geom, Material: DefaultMaterial()}
	for _, o := range opts {
		o(s)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Shape) check() error {
	if s.ID == idcolor.NoID {
		return constructErr(s.ID, ErrReservedID)
	}
	if err := checkGeometry(s.Geometry); err != nil {
		return constructErr(s.ID, err)
	}
	if err := s.Material.check(); err != nil {
		return constructErr(s.ID, err)
	}
	return nil
}

// Scene is an ordered collection of shapes. It is safe for concurrent use.
type Scene struct {
	mu     sync.RWMutex
	shapes []*Shape
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add appends shapes in order. Each shape is checked again so that shapes
// built without NewShape cannot smuggle in a reserved identifier. On error
// no shape from this call is added.
func (sc *Scene) Add(shapes ...*Shape) error {
	for _, s := range shapes {
		if s == nil {
			return constructErr(0, ErrNilShape)
		}
		if err := s.check(); err != nil {
			return err
		}
	}
	sc.mu.Lock()
	sc.shapes = append(sc.shapes, shapes...)
	sc.mu.Unlock()
	return nil
}

// Shapes returns a copy of the shape list in insertion order.
func (sc *Scene) Shapes() []*Shape {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	out := make([]*Shape, len(sc.shapes))
	copy(out, sc.shapes)
	return out
}

// Len returns the number of shapes.
func (sc *Scene) Len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.shapes)
}

// IDs returns the distinct identifiers in first-seen order.
func (sc *Scene) IDs() []uint32 {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	seen := make(map[uint32]bool, len(sc.shapes))
	ids := make([]uint32, 0, len(sc.shapes))
	for _, s := range sc.shapes {
		if !seen[s.ID] {
			seen[s.ID] = true
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Lookup returns the first shape with identifier id.
func (sc *Scene) Lookup(id uint32) (*Shape, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	for _, s := range sc.shapes {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Clear removes all shapes.
func (sc *Scene) Clear() {
	sc.mu.Lock()
	sc.shapes = nil
	sc.mu.Unlock()
}
