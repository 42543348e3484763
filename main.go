// Command projview renders scene scripts headlessly and reports how many
// pixels each shape covers.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/chazu/projview/pkg/config"
	"github.com/chazu/projview/pkg/idcolor"
	"github.com/chazu/projview/pkg/projection"
	"github.com/chazu/projview/pkg/snapshot"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	flagConfig     = "config"
	flagWidth      = "width"
	flagHeight     = "height"
	flagByteOrder  = "byte-order"
	flagBackground = "background-id"
	flagProjection = "projection"
	flagFov        = "fov"
	flagMeshCells  = "mesh-cells"
	flagWorkers    = "workers"
	flagKernel     = "kernel"
	flagColorPass  = "color-pass"
	flagVerbose    = "verbose"
	flagJSON       = "json"
	flagOut        = "out"
	flagColorOut   = "color-out"
	flagAnnotate   = "annotate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newCLI(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "projview:", err)
		os.Exit(1)
	}
}

func newCLI(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "projview",
		Usage:  "count the pixels each shape of a scene covers on screen",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Usage: "JSON settings file"},
			&cli.IntFlag{Name: flagWidth, Usage: "frame width in pixels"},
			&cli.IntFlag{Name: flagHeight, Usage: "frame height in pixels"},
			&cli.StringFlag{Name: flagByteOrder, Usage: "id to color byte order: rgba, argb, bgra or abgr"},
			&cli.Uint64Flag{Name: flagBackground, Usage: "identifier treated as background by count"},
			&cli.StringFlag{Name: flagProjection, Usage: "orthographic or perspective"},
			&cli.Float64Flag{Name: flagFov, Usage: "vertical field of view in degrees (perspective)"},
			&cli.IntFlag{Name: flagMeshCells, Usage: "marching cubes resolution"},
			&cli.IntFlag{Name: flagWorkers, Usage: "render and tessellation workers"},
			&cli.StringFlag{Name: flagKernel, Usage: "geometry kernel: sdfx or manifold"},
			&cli.BoolFlag{Name: flagColorPass, Usage: "also render a shaded image"},
			&cli.BoolFlag{Name: flagVerbose, Aliases: []string{"v"}, Usage: "debug logging"},
		},
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "evaluate a scene script and print the projection per shape",
				ArgsUsage: "<script>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagOut, Aliases: []string{"o"}, Usage: "write the id buffer (.png or .webp)"},
					&cli.StringFlag{Name: flagColorOut, Usage: "write the shaded image (implies --color-pass)"},
					&cli.StringFlag{Name: flagAnnotate, Usage: "write an image with bounding boxes and ids"},
					&cli.BoolFlag{Name: flagJSON, Usage: "print the full result as JSON"},
				},
				Action: renderAction,
			},
			{
				Name:      "count",
				Usage:     "count the shapes of a saved id buffer",
				ArgsUsage: "<image>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: flagJSON, Usage: "print rows as JSON"},
				},
				Action: countAction,
			},
			{
				Name:      "encode",
				Usage:     "print the color key of an identifier",
				ArgsUsage: "<id>",
				Action:    encodeAction,
			},
			{
				Name:      "decode",
				Usage:     "print the identifier of a color key",
				ArgsUsage: "<#rrggbbaa>",
				Action:    decodeAction,
			},
		},
	}
}

// loadConfig reads the settings file, if any, and applies the global flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	var cfg config.Config
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	flags := config.Flags{
		Width:      c.Int(flagWidth),
		Height:     c.Int(flagHeight),
		ByteOrder:  c.String(flagByteOrder),
		Projection: c.String(flagProjection),
		FovY:       c.Float64(flagFov),
		MeshCells:  c.Int(flagMeshCells),
		Workers:    c.Int(flagWorkers),
		Kernel:     c.String(flagKernel),
	}
	if c.IsSet(flagBackground) {
		v := c.Uint64(flagBackground)
		if v > uint64(idcolor.NoID) {
			return config.Config{}, fmt.Errorf("--%s %d does not fit in 32 bits", flagBackground, v)
		}
		id := uint32(v)
		flags.BackgroundID = &id
	}
	if c.IsSet(flagColorPass) {
		on := c.Bool(flagColorPass)
		flags.ColorPass = &on
	}
	cfg.Resolve(flags)
	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	if c.Bool(flagVerbose) {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return zc.Build()
}

func renderAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("render: expected one script path")
	}
	source, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.String(flagColorOut) != "" {
		cfg.ColorPass = true
	}
	log, err := newLogger(c)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	app, err := NewApp(cfg, log)
	if err != nil {
		return err
	}
	result := app.EvaluateContext(c.Context, string(source))

	if c.Bool(flagJSON) {
		if err := writeJSON(c.App.Writer, result); err != nil {
			return err
		}
	} else {
		for _, w := range result.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w.Message)
		}
		if err := writeRows(c.App.Writer, result.Projection); err != nil {
			return err
		}
		for _, id := range result.Missing {
			fmt.Fprintf(c.App.Writer, "not visible: %d\n", id)
		}
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, "error:", EvalErrorString(e))
		}
		return errors.New("render: script failed")
	}
	return writeImages(c, app)
}

// writeImages saves the files requested by --out, --color-out and --annotate.
func writeImages(c *cli.Context, app *App) error {
	f, err := app.Frame()
	if err != nil {
		return err
	}
	if path := c.String(flagOut); path != "" {
		if err := snapshot.Save(path, f.Buffer); err != nil {
			return err
		}
	}
	if path := c.String(flagColorOut); path != "" && f.Color != nil {
		if err := snapshot.SaveImage(path, f.Color); err != nil {
			return err
		}
	}
	if path := c.String(flagAnnotate); path != "" {
		res, err := app.GetProjectionPerShape()
		if err != nil {
			return err
		}
		var base image.Image = f.Buffer.Image()
		if f.Color != nil {
			base = f.Color
		}
		if err := snapshot.SaveImage(path, snapshot.Annotate(base, res)); err != nil {
			return err
		}
	}
	return nil
}

func countAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("count: expected one image path")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	codec, err := cfg.Codec()
	if err != nil {
		return err
	}
	bg, err := cfg.Background()
	if err != nil {
		return err
	}
	buf, err := snapshot.Load(c.Args().First())
	if err != nil {
		return err
	}
	res := projection.Count(buf, projection.WithCodec(codec), projection.WithBackground(bg))
	rows := projectionRows(res, codec, 0, nil)
	if c.Bool(flagJSON) {
		return writeJSON(c.App.Writer, rows)
	}
	return writeRows(c.App.Writer, rows)
}

func encodeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("encode: expected one identifier")
	}
	var id uint64
	if _, err := fmt.Sscan(c.Args().First(), &id); err != nil || id > uint64(idcolor.NoID) {
		return fmt.Errorf("encode: %q is not a 32-bit identifier", c.Args().First())
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	codec, err := cfg.Codec()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, codec.Encode(uint32(id)))
	return nil
}

func decodeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("decode: expected one color key")
	}
	k, err := idcolor.ParseKey(c.Args().First())
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	codec, err := cfg.Codec()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, codec.Decode(k))
	return nil
}

func writeRows(w io.Writer, rows []ProjectionRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKEY\tPIXELS\tBOX\tNAME")
	for _, r := range rows {
		fmt.Fprintln(tw, r.String())
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// EvalErrorString formats e with its line when known.
func EvalErrorString(e EvalErrorData) string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}
