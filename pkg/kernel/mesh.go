package kernel

import "math"

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	ShapeID  uint32    `json:"shapeId"`  // identifier of the scene shape
	PartName string    `json:"partName"` // shape name, or its identifier
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i as float64 coordinates.
func (m *Mesh) Vertex(i uint32) [3]float64 {
	j := int(i) * 3
	return [3]float64{float64(m.Vertices[j]), float64(m.Vertices[j+1]), float64(m.Vertices[j+2])}
}

// Bounds returns the axis-aligned bounds of the vertices. ok is false for an
// empty mesh.
func (m *Mesh) Bounds() (min, max [3]float64, ok bool) {
	if m.IsEmpty() {
		return min, max, false
	}
	for i := range min {
		min[i] = math.Inf(1)
		max[i] = math.Inf(-1)
	}
	for j := 0; j+2 < len(m.Vertices); j += 3 {
		for i := 0; i < 3; i++ {
			v := float64(m.Vertices[j+i])
			min[i] = math.Min(min[i], v)
			max[i] = math.Max(max[i], v)
		}
	}
	return min, max, true
}

// MergeBounds returns the union of the bounds of meshes. ok is false when
// every mesh is empty.
func MergeBounds(meshes []*Mesh) (min, max [3]float64, ok bool) {
	for _, m := range meshes {
		lo, hi, has := m.Bounds()
		if !has {
			continue
		}
		if !ok {
			min, max, ok = lo, hi, true
			continue
		}
		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], lo[i])
			max[i] = math.Max(max[i], hi[i])
		}
	}
	return min, max, ok
}
