// Package snapshot writes frames to image files and reads them back, and
// draws projection results over rendered images.
//
// Id buffers are written as non-premultiplied NRGBA, so they survive a round
// trip through PNG and lossless WebP unchanged, keys with a zero alpha lane
// included.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/chazu/projview/pkg/frame"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"
)

var (
	// ErrFormat is returned for file extensions without a codec.
	ErrFormat = errors.New("snapshot: unsupported format")
	// ErrEmpty is returned when saving an empty buffer.
	ErrEmpty = errors.New("snapshot: empty buffer")
)

// Format is an image file format known to this package.
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
	TGA  Format = "tga" // read only
)

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".webp":
		return WebP, nil
	case ".tga":
		return TGA, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, filepath.Ext(path))
}

// Save writes buf to path in the format named by its extension.
func Save(path string, buf *frame.Buffer) error {
	if buf.Empty() {
		return ErrEmpty
	}
	return SaveImage(path, buf.Image())
}

// SaveImage writes img to path as PNG or WebP.
func SaveImage(path string, img image.Image) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	if f == TGA {
		return fmt.Errorf("%w for writing: %s", ErrFormat, f)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", path, err)
	}
	if err := Encode(out, f, img); err != nil {
		out.Close()
		return fmt.Errorf("snapshot: encode %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("snapshot: close %s: %w", path, err)
	}
	return nil
}

// Encode writes img to w.
func Encode(w io.Writer, f Format, img image.Image) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("%w for writing: %s", ErrFormat, f)
}

// Decode reads an image of format f.
func Decode(r io.Reader, f Format) (image.Image, error) {
	switch f {
	case PNG:
		return png.Decode(r)
	case WebP:
		return webp.Decode(r)
	case TGA:
		return tga.Decode(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrFormat, f)
}

// Load reads an id buffer from path.
func Load(path string) (*frame.Buffer, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer in.Close()
	img, err := Decode(in, f)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	return frame.FromImage(img), nil
}
