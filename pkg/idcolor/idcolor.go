// Package idcolor maps 32-bit shape identifiers to RGBA colors and back.
//
// A shape rendered in its identifier color can be recovered from a pixel
// read-back by decoding that pixel. The mapping splits the identifier into its
// four byte lanes; ByteOrder decides which channel receives which lane. With
// the default RGBA order, red carries bits 24-31, green bits 16-23, blue bits
// 8-15 and alpha bits 0-7.
//
// Every identifier, including 0, has a distinct color. The only identifier
// that cannot be told apart from an empty pixel is the one whose color equals
// the frame's clear color. Frames are cleared to the color of NoID, so NoID
// must never be assigned to a shape.
package idcolor

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// NoID is the reserved identifier of the background. Frames are cleared to
// its color and the projection counter skips it.
const NoID uint32 = 0xFFFFFFFF

// ColorKey is one pixel of an id buffer.
type ColorKey struct {
	R, G, B, A uint8
}

// NRGBA returns the key as a non-premultiplied color. Premultiplying would
// destroy the color lanes of keys whose alpha lane is zero.
func (k ColorKey) NRGBA() color.NRGBA {
	return color.NRGBA{R: k.R, G: k.G, B: k.B, A: k.A}
}

func (k ColorKey) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", k.R, k.G, k.B, k.A)
}

// KeyFromNRGBA is the inverse of ColorKey.NRGBA.
func KeyFromNRGBA(c color.NRGBA) ColorKey {
	return ColorKey{R: c.R, G: c.G, B: c.B, A: c.A}
}

// ParseKey parses "#rrggbbaa" (the leading '#' is optional).
func ParseKey(s string) (ColorKey, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 8 {
		return ColorKey{}, fmt.Errorf("idcolor: key %q: want 8 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return ColorKey{}, fmt.Errorf("idcolor: key %q: %w", s, err)
	}
	return ColorKey{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// ByteOrder selects which color channel carries which byte of an identifier.
// The name lists channels from the most significant byte to the least.
type ByteOrder int

const (
	RGBA ByteOrder = iota // R=bits 24-31, G=16-23, B=8-15, A=0-7
	ARGB                  // A=bits 24-31, R=16-23, G=8-15, B=0-7
	BGRA                  // B=bits 24-31, G=16-23, R=8-15, A=0-7
	ABGR                  // A=bits 24-31, B=16-23, G=8-15, R=0-7
)

func (o ByteOrder) String() string {
	switch o {
	case RGBA:
		return "rgba"
	case ARGB:
		return "argb"
	case BGRA:
		return "bgra"
	case ABGR:
		return "abgr"
	default:
		return fmt.Sprintf("ByteOrder(%d)", int(o))
	}
}

// ParseByteOrder accepts the names returned by ByteOrder.String, in any case.
// The empty string selects RGBA.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rgba":
		return RGBA, nil
	case "argb":
		return ARGB, nil
	case "bgra":
		return BGRA, nil
	case "abgr":
		return ABGR, nil
	}
	return RGBA, fmt.Errorf("idcolor: unknown byte order %q", s)
}

// Codec converts between identifiers and colors. The zero value uses RGBA.
type Codec struct {
	Order ByteOrder
}

// Encode splits id into four bytes, most significant first, and assigns them
// to channels according to the codec's order.
func (c Codec) Encode(id uint32) ColorKey {
	b0 := uint8(id >> 24)
	b1 := uint8(id >> 16)
	b2 := uint8(id >> 8)
	b3 := uint8(id)
	switch c.Order {
	case ARGB:
		return ColorKey{A: b0, R: b1, G: b2, B: b3}
	case BGRA:
		return ColorKey{B: b0, G: b1, R: b2, A: b3}
	case ABGR:
		return ColorKey{A: b0, B: b1, G: b2, R: b3}
	default:
		return ColorKey{R: b0, G: b1, B: b2, A: b3}
	}
}

// Decode is the inverse of Encode. It is defined for every key.
func (c Codec) Decode(k ColorKey) uint32 {
	var b0, b1, b2, b3 uint8
	switch c.Order {
	case ARGB:
		b0, b1, b2, b3 = k.A, k.R, k.G, k.B
	case BGRA:
		b0, b1, b2, b3 = k.B, k.G, k.R, k.A
	case ABGR:
		b0, b1, b2, b3 = k.A, k.B, k.G, k.R
	default:
		b0, b1, b2, b3 = k.R, k.G, k.B, k.A
	}
	return uint32(b0)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3)
}

// Background returns the key frames are cleared to.
func (c Codec) Background() ColorKey {
	return c.Encode(NoID)
}

// Background returns the clear key of c.
func Background(c Codec) ColorKey { return c.Background() }

var defaultCodec Codec

// Encode encodes id with the default RGBA order.
func Encode(id uint32) ColorKey { return defaultCodec.Encode(id) }

// Decode decodes k with the default RGBA order.
func Decode(k ColorKey) uint32 { return defaultCodec.Decode(k) }
