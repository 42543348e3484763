package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/chazu/projview/pkg/camera"
	"github.com/chazu/projview/pkg/idcolor"
	"github.com/chazu/projview/pkg/kernel/manifold"
	"github.com/chazu/projview/pkg/kernel/sdfx"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projview.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	want := Config{
		Width:      600,
		Height:     600,
		ByteOrder:  "rgba",
		Projection: "orthographic",
		FovY:       30,
		MeshCells:  sdfx.DefaultMeshCells,
		Workers:    runtime.NumCPU(),
		Kernel:     "sdfx",
	}
	if diff := cmp.Diff(want, Default()); diff != "" {
		t.Errorf("Default() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadAndResolve(t *testing.T) {
	path := writeConfig(t, `{
  "width": 320,
  "height": 200,
  "byte_order": "abgr",
  "background_id": 0,
  "projection": "perspective",
  "mesh_cells": 48,
  "color_pass": true
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	off := false
	cfg.Resolve(Flags{Width: 640, Workers: 3, ColorPass: &off})

	if cfg.Width != 640 || cfg.Height != 200 {
		t.Errorf("size = %dx%d, want 640x200", cfg.Width, cfg.Height)
	}
	if cfg.Workers != 3 || cfg.MeshCells != 48 || cfg.ColorPass {
		t.Errorf("workers %d, cells %d, color pass %v", cfg.Workers, cfg.MeshCells, cfg.ColorPass)
	}
	if cfg.BackgroundID == nil || *cfg.BackgroundID != 0 {
		t.Errorf("background_id = %v, want 0", cfg.BackgroundID)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	bg, err := cfg.Background()
	if err != nil {
		t.Fatal(err)
	}
	if want := (idcolor.Codec{Order: idcolor.ABGR}).Encode(0); bg != want {
		t.Errorf("Background() = %v, want %v", bg, want)
	}
}

func TestBackgroundDefaultsToNoID(t *testing.T) {
	bg, err := Default().Background()
	if err != nil {
		t.Fatal(err)
	}
	if bg != idcolor.Background(idcolor.Codec{}) {
		t.Errorf("Background() = %v", bg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, `{"width": "wide"}`)); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.ByteOrder = "xyzw"
	cfg.Projection = "fisheye"
	cfg.Kernel = "cgal"
	err := cfg.Validate()
	if got := len(multierr.Errors(err)); got != 3 {
		t.Errorf("got %d errors, want 3: %v", got, err)
	}
	if _, err := cfg.ViewerOptions(); err == nil {
		t.Error("ViewerOptions accepted an invalid config")
	}
}

func TestViewerOptions(t *testing.T) {
	cfg := Default()
	cfg.Width, cfg.Height = 64, 48
	cfg.Projection = "persp"
	cfg.ByteOrder = "BGRA"
	opts, err := cfg.ViewerOptions()
	if err != nil {
		t.Fatalf("ViewerOptions: %v", err)
	}
	if opts.Width != 64 || opts.Height != 48 {
		t.Errorf("size = %dx%d", opts.Width, opts.Height)
	}
	if opts.Projection != camera.Perspective || opts.Codec.Order != idcolor.BGRA {
		t.Errorf("projection %v, order %v", opts.Projection, opts.Codec.Order)
	}
	k, ok := opts.Kernel.(*sdfx.SdfxKernel)
	if !ok {
		t.Fatalf("kernel = %T, want *sdfx.SdfxKernel", opts.Kernel)
	}
	if k.MeshCells() != cfg.MeshCells {
		t.Errorf("mesh cells = %d, want %d", k.MeshCells(), cfg.MeshCells)
	}
}

func TestManifoldKernelUnavailable(t *testing.T) {
	cfg := Default()
	cfg.Kernel = "manifold"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("manifold is a known kernel: %v", err)
	}
	if _, err := cfg.ViewerOptions(); !errors.Is(err, manifold.ErrUnavailable) {
		t.Errorf("error = %v, want manifold.ErrUnavailable", err)
	}
}
