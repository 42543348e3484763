package zbuffer

import (
	"math"

	"github.com/chazu/projview/pkg/camera"
	"github.com/chazu/projview/pkg/idcolor"
	"github.com/chazu/projview/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// tri is a triangle in raster space with everything its fragments need.
type tri struct {
	x, y, z                [3]float64
	minX, maxX, minY, maxY int
	area                   float64
	key                    idcolor.ColorKey
	color                  colorful.Color // shaded, linear RGB
	transparency           float64
}

// project converts every triangle of items into raster space and drops those
// that are degenerate, entirely off screen or outside the depth range.
func project(items []Item, r camera.Raster, w, h int, style Style, dir mgl64.Vec3, codec idcolor.Codec) []tri {
	var out []tri
	for _, it := range items {
		m := it.Mesh
		if m == nil || m.IsEmpty() {
			continue
		}
		if style == ColorBased && it.Transparency >= AlphaThreshold {
			continue
		}
		key := codec.Encode(it.ID)
		lr, lg, lb := it.Color.LinearRgb()

		for f := 0; f+2 < len(m.Indices); f += 3 {
			var t tri
			inRange := true
			for j := 0; j < 3; j++ {
				x, y, z, ok := r.Project(m.Vertex(m.Indices[f+j]))
				if !ok {
					inRange = false
					break
				}
				t.x[j], t.y[j], t.z[j] = x, y, z
			}
			if !inRange {
				continue
			}
			t.area = edge(t.x[0], t.y[0], t.x[1], t.y[1], t.x[2], t.y[2])
			if t.area == 0 {
				continue
			}
			minX := math.Min(t.x[0], math.Min(t.x[1], t.x[2]))
			maxX := math.Max(t.x[0], math.Max(t.x[1], t.x[2]))
			minY := math.Min(t.y[0], math.Min(t.y[1], t.y[2]))
			maxY := math.Max(t.y[0], math.Max(t.y[1], t.y[2]))
			if minX >= float64(w) || maxX < 0 || minY >= float64(h) || maxY < 0 {
				continue
			}
			t.minX = max(0, int(math.Floor(minX)))
			t.maxX = min(w-1, int(math.Floor(maxX)))
			t.minY = max(0, int(math.Floor(minY)))
			t.maxY = min(h-1, int(math.Floor(maxY)))

			t.key = key
			t.transparency = it.Transparency
			if style == ColorBased {
				shade := ambient + diffuse*math.Abs(faceNormal(m, f).Dot(dir))
				t.color = colorful.LinearRgb(lr*shade, lg*shade, lb*shade)
			}
			out = append(out, t)
		}
	}
	return out
}

// faceNormal returns the normal stored for the first vertex of face f, or
// the geometric normal when the mesh carries none.
func faceNormal(m *kernel.Mesh, f int) mgl64.Vec3 {
	vi := int(m.Indices[f]) * 3
	if vi+2 < len(m.Normals) {
		n := mgl64.Vec3{float64(m.Normals[vi]), float64(m.Normals[vi+1]), float64(m.Normals[vi+2])}
		if n.Len() > 0 {
			return n.Normalize()
		}
	}
	a := mgl64.Vec3(m.Vertex(m.Indices[f]))
	b := mgl64.Vec3(m.Vertex(m.Indices[f+1]))
	c := mgl64.Vec3(m.Vertex(m.Indices[f+2]))
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

// edge is twice the signed area of (a, b, c).
func edge(ax, ay, bx, by, cx, cy float64) float64 {
	return (cx-ax)*(by-ay) - (cy-ay)*(bx-ax)
}

// rasterize draws the part of t that lies in rows [y0, y1). Pixels are
// sampled at their centres and either winding is accepted.
func (tg *target) rasterize(t *tri, y0, y1 int, style Style) {
	ys, ye := max(t.minY, y0), min(t.maxY, y1-1)
	for y := ys; y <= ye; y++ {
		py := float64(y) + 0.5
		row := y * tg.w
		for x := t.minX; x <= t.maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(t.x[1], t.y[1], t.x[2], t.y[2], px, py)
			w1 := edge(t.x[2], t.y[2], t.x[0], t.y[0], px, py)
			w2 := edge(t.x[0], t.y[0], t.x[1], t.y[1], px, py)
			if !((w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0)) {
				continue
			}
			w0 /= t.area
			w1 /= t.area
			w2 /= t.area
			z := w0*t.z[0] + w1*t.z[1] + w2*t.z[2]
			if z < -1 || z > 1 {
				continue
			}
			i := row + x
			cz := tg.depth[i]
			if !(z < cz && cz-z > depthEpsilon) {
				continue
			}
			tg.depth[i] = z
			switch style {
			case IDBased:
				tg.ids.Set(x, y, t.key)
			case ColorBased:
				tg.color[i] = blend(tg.color[i], t.color, t.transparency)
			}
		}
	}
}

// blend composites c with transparency tr over cur.
func blend(cur, c colorful.Color, tr float64) colorful.Color {
	if tr <= 0 {
		return c
	}
	return cur.BlendRgb(c, 1-tr)
}
