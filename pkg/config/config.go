// Package config loads viewer settings from a JSON file and merges them
// with command line overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/chazu/projview/pkg/camera"
	"github.com/chazu/projview/pkg/idcolor"
	"github.com/chazu/projview/pkg/kernel"
	"github.com/chazu/projview/pkg/kernel/manifold"
	"github.com/chazu/projview/pkg/kernel/sdfx"
	"github.com/chazu/projview/pkg/viewer"
	"go.uber.org/multierr"
)

// Config holds the render and counting settings. BackgroundID is the
// identifier treated as background when counting saved frames; nil means
// idcolor.NoID.
type Config struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	ByteOrder    string  `json:"byte_order"`
	BackgroundID *uint32 `json:"background_id,omitempty"`
	Projection   string  `json:"projection"`
	FovY         float64 `json:"fov"`
	MeshCells    int     `json:"mesh_cells"`
	Workers      int     `json:"workers"`
	Kernel       string  `json:"kernel"`
	ColorPass    bool    `json:"color_pass"`
}

// Flags holds CLI flag values that override config file settings. Zero
// values and nil pointers leave the file setting alone.
type Flags struct {
	Width        int
	Height       int
	ByteOrder    string
	BackgroundID *uint32
	Projection   string
	FovY         float64
	MeshCells    int
	Workers      int
	Kernel       string
	ColorPass    *bool
}

// Default returns the settings used when no file is given.
func Default() Config {
	var c Config
	c.Resolve(Flags{})
	return c
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies flags over the file settings and fills in any empty
// fields with defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.ByteOrder != "" {
		c.ByteOrder = flags.ByteOrder
	}
	if flags.BackgroundID != nil {
		id := *flags.BackgroundID
		c.BackgroundID = &id
	}
	if flags.Projection != "" {
		c.Projection = flags.Projection
	}
	if flags.FovY > 0 {
		c.FovY = flags.FovY
	}
	if flags.MeshCells > 0 {
		c.MeshCells = flags.MeshCells
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Kernel != "" {
		c.Kernel = flags.Kernel
	}
	if flags.ColorPass != nil {
		c.ColorPass = *flags.ColorPass
	}

	if c.Width <= 0 {
		c.Width = 600
	}
	if c.Height <= 0 {
		c.Height = 600
	}
	if c.ByteOrder == "" {
		c.ByteOrder = idcolor.RGBA.String()
	}
	if c.Projection == "" {
		c.Projection = camera.Orthographic.String()
	}
	if c.FovY <= 0 {
		c.FovY = 30
	}
	if c.MeshCells <= 0 {
		c.MeshCells = sdfx.DefaultMeshCells
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Kernel == "" {
		c.Kernel = "sdfx"
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var err error
	if _, e := idcolor.ParseByteOrder(c.ByteOrder); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := camera.ParseProjection(c.Projection); e != nil {
		err = multierr.Append(err, e)
	}
	if c.FovY >= 180 {
		err = multierr.Append(err, fmt.Errorf("config: fov %v must be below 180 degrees", c.FovY))
	}
	switch strings.ToLower(c.Kernel) {
	case "sdfx", "manifold":
	default:
		err = multierr.Append(err, fmt.Errorf("config: unknown kernel %q", c.Kernel))
	}
	return err
}

// Codec returns the id codec for the configured byte order.
func (c Config) Codec() (idcolor.Codec, error) {
	o, err := idcolor.ParseByteOrder(c.ByteOrder)
	if err != nil {
		return idcolor.Codec{}, err
	}
	return idcolor.Codec{Order: o}, nil
}

// Background returns the key the projection counter skips.
func (c Config) Background() (idcolor.ColorKey, error) {
	codec, err := c.Codec()
	if err != nil {
		return idcolor.ColorKey{}, err
	}
	if c.BackgroundID == nil {
		return codec.Background(), nil
	}
	return codec.Encode(*c.BackgroundID), nil
}

// NewKernel builds the configured geometry kernel.
func (c Config) NewKernel() (kernel.Kernel, error) {
	switch strings.ToLower(c.Kernel) {
	case "", "sdfx":
		return sdfx.New(sdfx.WithMeshCells(c.MeshCells)), nil
	case "manifold":
		return manifold.New()
	}
	return nil, fmt.Errorf("config: unknown kernel %q", c.Kernel)
}

// ViewerOptions converts the settings into viewer options.
func (c Config) ViewerOptions() (viewer.Options, error) {
	if err := c.Validate(); err != nil {
		return viewer.Options{}, err
	}
	codec, err := c.Codec()
	if err != nil {
		return viewer.Options{}, err
	}
	proj, err := camera.ParseProjection(c.Projection)
	if err != nil {
		return viewer.Options{}, err
	}
	k, err := c.NewKernel()
	if err != nil {
		return viewer.Options{}, fmt.Errorf("config: kernel %s: %w", c.Kernel, err)
	}

	opts := viewer.DefaultOptions()
	opts.Width, opts.Height = c.Width, c.Height
	opts.Codec = codec
	opts.Projection = proj
	opts.FovY = c.FovY
	opts.Kernel = k
	opts.MeshCells = c.MeshCells
	opts.Workers = c.Workers
	opts.ColorPass = c.ColorPass
	return opts, nil
}
