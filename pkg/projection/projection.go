// Package projection counts, per shape identifier, how many pixels of a
// rendered id buffer belong to each shape and where they lie on screen.
package projection

import (
	"sort"

	"github.com/chazu/projview/pkg/frame"
	"github.com/chazu/projview/pkg/idcolor"
	"github.com/samber/lo"
)

// Box is an inclusive pixel bounding box. Screen y grows downwards.
type Box struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Width returns the number of columns covered by the box.
func (b Box) Width() int { return b.MaxX - b.MinX + 1 }

// Height returns the number of rows covered by the box.
func (b Box) Height() int { return b.MaxY - b.MinY + 1 }

// Extend grows the box to include (x, y).
func (b *Box) Extend(x, y int) {
	if x < b.MinX {
		b.MinX = x
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

// Contains reports whether (x, y) lies inside the box.
func (b Box) Contains(x, y int) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Entry describes the visible footprint of one shape.
type Entry struct {
	ID     uint32
	Pixels int
	Box    Box
}

// Area converts the pixel count into a projected surface area given the
// world size of one pixel side.
func (e Entry) Area(pixelSize float64) float64 {
	return float64(e.Pixels) * pixelSize * pixelSize
}

// Result is the outcome of one count. Entries are sorted by ascending ID and
// every ID appears at most once.
type Result struct {
	Width   int
	Height  int
	Entries []Entry
}

// Lookup returns the entry for id.
func (r Result) Lookup(id uint32) (Entry, bool) {
	i := sort.Search(len(r.Entries), func(i int) bool { return r.Entries[i].ID >= id })
	if i < len(r.Entries) && r.Entries[i].ID == id {
		return r.Entries[i], true
	}
	return Entry{}, false
}

// IDs returns the visible identifiers in ascending order.
func (r Result) IDs() []uint32 {
	return lo.Map(r.Entries, func(e Entry, _ int) uint32 { return e.ID })
}

// Map returns the entries keyed by ID.
func (r Result) Map() map[uint32]Entry {
	return lo.SliceToMap(r.Entries, func(e Entry) (uint32, Entry) { return e.ID, e })
}

// Missing returns the identifiers in expected that have no visible pixel,
// in the order given. Occluded and off-screen shapes end up here.
func (r Result) Missing(expected []uint32) []uint32 {
	missing := lo.Filter(expected, func(id uint32, _ int) bool {
		_, ok := r.Lookup(id)
		return !ok
	})
	return lo.Uniq(missing)
}

// Coverage returns the fraction of the frame covered by id, in [0, 1].
func (r Result) Coverage(id uint32) float64 {
	total := r.Width * r.Height
	if total == 0 {
		return 0
	}
	e, ok := r.Lookup(id)
	if !ok {
		return 0
	}
	return float64(e.Pixels) / float64(total)
}

// Total returns the number of non-background pixels.
func (r Result) Total() int {
	return lo.SumBy(r.Entries, func(e Entry) int { return e.Pixels })
}

type options struct {
	codec         idcolor.Codec
	background    idcolor.ColorKey
	hasBackground bool
	skip          bool
}

// Option configures Count.
type Option func(*options)

// WithCodec decodes pixels with c instead of the default RGBA codec. Unless
// WithBackground is also given, the skipped background becomes c's
// background key.
func WithCodec(c idcolor.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithBackground skips pixels equal to k instead of the codec's background.
func WithBackground(k idcolor.ColorKey) Option {
	return func(o *options) {
		o.background = k
		o.hasBackground = true
		o.skip = true
	}
}

// WithoutBackground counts every pixel, including those equal to the
// background key.
func WithoutBackground() Option {
	return func(o *options) { o.skip = false }
}

// Count scans buf once and returns one entry per identifier that owns at
// least one pixel. A nil or empty buffer yields an empty result. Count does
// not modify buf and returns the same result for the same input.
func Count(buf *frame.Buffer, opts ...Option) Result {
	o := options{skip: true}
	for _, fn := range opts {
		fn(&o)
	}
	if !o.hasBackground {
		o.background = o.codec.Background()
	}

	if buf == nil {
		return Result{Entries: []Entry{}}
	}
	res := Result{Width: buf.Width, Height: buf.Height, Entries: []Entry{}}
	// negative sizes or a Pix slice shorter than the frame are degenerate,
	// not a failure
	if buf.Width <= 0 || buf.Height <= 0 || len(buf.Pix) < buf.Width*buf.Height*4 {
		return res
	}

	bg := o.background
	index := make(map[uint32]int)
	pix := buf.Pix
	for y := 0; y < buf.Height; y++ {
		row := pix[y*buf.Width*4 : (y+1)*buf.Width*4]
		for x := 0; x < buf.Width; x++ {
			i := x * 4
			k := idcolor.ColorKey{R: row[i], G: row[i+1], B: row[i+2], A: row[i+3]}
			if o.skip && k == bg {
				continue
			}
			id := o.codec.Decode(k)
			if n, ok := index[id]; ok {
				e := &res.Entries[n]
				e.Pixels++
				e.Box.Extend(x, y)
				continue
			}
			index[id] = len(res.Entries)
			res.Entries = append(res.Entries, Entry{
				ID:     id,
				Pixels: 1,
				Box:    Box{MinX: x, MinY: y, MaxX: x, MaxY: y},
			})
		}
	}

	sort.Slice(res.Entries, func(i, j int) bool { return res.Entries[i].ID < res.Entries[j].ID })
	return res
}
