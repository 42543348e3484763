package snapshot

import (
	"fmt"
	"image"
	"math"

	"github.com/chazu/projview/pkg/projection"
	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Annotate draws the bounding box and identifier of every entry of res over
// a copy of img. Entries get distinct hues in identifier order.
func Annotate(img image.Image, res projection.Result) *image.RGBA {
	dc := gg.NewContextForImage(img)
	dc.SetLineWidth(1)
	for i, e := range res.Entries {
		dc.SetColor(labelColor(i))
		b := e.Box
		// boxes are inclusive pixel ranges; stroke along pixel centres
		dc.DrawRectangle(float64(b.MinX)+0.5, float64(b.MinY)+0.5, float64(b.Width()-1), float64(b.Height()-1))
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprint(e.ID), float64(b.MinX)+2, float64(b.MinY)+2, 0, 1)
	}
	return dc.Image().(*image.RGBA)
}

// labelColor spreads hues by the golden angle so neighbouring entries
// contrast.
func labelColor(i int) colorful.Color {
	h := math.Mod(float64(i)*137.508, 360)
	return colorful.Hsv(h, 0.9, 0.85)
}
