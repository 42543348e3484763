package scene

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Material is the appearance of a shape in the shaded color pass. The id pass
// ignores it.
type Material struct {
	Color        string  `json:"color"`        // hex, "#rrggbb"
	Transparency float64 `json:"transparency"` // 0 opaque, 1 invisible
}

// DefaultMaterial is a light grey, fully opaque material.
func DefaultMaterial() Material {
	return Material{Color: "#b4b4b4"}
}

// RGB parses the material color.
func (m Material) RGB() (colorful.Color, error) {
	c, err := colorful.Hex(m.Color)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: color %q: %v", ErrInvalidMaterial, m.Color, err)
	}
	return c, nil
}

func (m Material) check() error {
	if _, err := m.RGB(); err != nil {
		return err
	}
	if !(m.Transparency >= 0 && m.Transparency <= 1) {
		return fmt.Errorf("%w: transparency %v outside [0, 1]", ErrInvalidMaterial, m.Transparency)
	}
	return nil
}
