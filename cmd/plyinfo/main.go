// Command plyinfo loads a PLY mesh, prints a summary of its contents and
// optionally paints it once through a headless backend.
//
// Usage:
//
//	plyinfo [flags] model.ply...
//	plyinfo -config scene.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/mesh"
	"github.com/gogpu/mesh/gpu"
	"github.com/gogpu/mesh/internal/config"
	"github.com/gogpu/mesh/material"
	"github.com/gogpu/mesh/model"
	"github.com/gogpu/mesh/pixel"
	"github.com/gogpu/mesh/ply"
	"github.com/gogpu/mesh/texture"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "scene file (YAML)")
		flipY   = flag.Bool("flip", false, "negate Y on load")
		render  = flag.Bool("render", false, "paint the model once")
		backend = flag.String("backend", config.DefaultBackend, "recorder, noop, vulkan, metal, dx12 or gl")
		width   = flag.Int("width", config.DefaultWidth, "allocation width")
		height  = flag.Int("height", config.DefaultHeight, "allocation height")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		mesh.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	scenes, err := scenesFromFlags(*cfgPath, flag.Args(), *flipY, *backend, *width, *height)
	if err != nil {
		log.Fatalf("plyinfo: %v", err)
	}

	cache := ply.NewCache(len(scenes))
	for _, scene := range scenes {
		m, err := buildModel(cache, scene)
		if err != nil {
			log.Fatalf("plyinfo: %v", err)
		}
		describe(os.Stdout, scene.Mesh, m)

		if !*render && *cfgPath == "" {
			continue
		}
		if err := paint(os.Stdout, scene, m); err != nil {
			log.Fatalf("plyinfo: render: %v", err)
		}
	}
}

// scenesFromFlags builds one scene from a config file, or one per
// positional argument when no config is given.
func scenesFromFlags(path string, args []string, flipY bool, backend string, w, h int) ([]*config.Scene, error) {
	if path != "" {
		s, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		return []*config.Scene{s}, nil
	}
	if len(args) == 0 {
		return nil, errors.New("expected PLY files or -config")
	}
	scenes := make([]*config.Scene, 0, len(args))
	for _, arg := range args {
		s := &config.Scene{
			Mesh:    arg,
			Fit:     true,
			Policy:  "preserve",
			Width:   w,
			Height:  h,
			Backend: backend,
		}
		if flipY {
			s.Negate = []string{"y"}
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		scenes = append(scenes, s)
	}
	return scenes, nil
}

func buildModel(cache *ply.Cache, s *config.Scene) (*model.Model, error) {
	flags, err := s.Flags()
	if err != nil {
		return nil, err
	}
	policy, err := s.FitPolicy()
	if err != nil {
		return nil, err
	}
	c, err := s.MaterialColor()
	if err != nil {
		return nil, err
	}
	matOpts := []material.Option{material.WithColor(c)}
	if s.Shininess != nil {
		matOpts = append(matOpts, material.WithShininess(*s.Shininess))
	}
	if s.Texture != "" {
		tex, err := texture.NewFromFile(s.Texture, texture.FlagNone, pixel.FormatRGBA8888)
		if err != nil {
			return nil, err
		}
		matOpts = append(matOpts, material.WithLayer(tex))
	}
	d, err := cache.Open(s.Mesh, flags)
	if err != nil {
		return nil, err
	}
	return model.New(
		model.WithData(d),
		model.WithMaterial(material.New(matOpts...)),
		model.WithFitToAllocation(s.Fit),
		model.WithFitPolicy(policy),
		model.WithViewport(float32(s.Width), float32(s.Height)),
	), nil
}

func describe(w io.Writer, path string, m *model.Model) {
	d := m.Data()
	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  vertices:  %d\n", d.VertexCount())
	fmt.Fprintf(w, "  triangles: %d\n", d.TriangleCount())
	if box, ok := d.Extents(); ok {
		fmt.Fprintf(w, "  min:       %v\n", box.Min)
		fmt.Fprintf(w, "  max:       %v\n", box.Max)
		fmt.Fprintf(w, "  size:      %v\n", box.Size())
	}
	fmt.Fprintf(w, "  normals:   %t\n", d.HasNormals())
	fmt.Fprintf(w, "  texcoords: %t\n", d.HasTexCoords())
	fmt.Fprintf(w, "  colors:    %t\n", d.HasColors())
}

func paint(w io.Writer, s *config.Scene, m *model.Model) error {
	alloc := model.Allocation{Width: float32(s.Width), Height: float32(s.Height)}
	variant, useHAL, err := s.BackendVariant()
	if err != nil {
		return err
	}
	if !useHAL {
		rec := gpu.NewRecorder()
		if err := m.Paint(rec, alloc); err != nil {
			return err
		}
		for _, d := range rec.Draws {
			fmt.Fprintf(w, "  draw: %v %d elements\n", d.Command.Topology, drawCount(d))
		}
		return nil
	}

	b, err := gpu.OpenHALBackend(variant,
		gpu.WithTargetSize(uint32(s.Width), uint32(s.Height)),
		gpu.WithClearColor(gputypes.Color{A: 1}),
		gpu.WithLabel("plyinfo"),
	)
	if err != nil {
		return err
	}
	defer b.Destroy()
	if err := m.Paint(b, alloc); err != nil {
		return err
	}
	if err := b.EndFrame(); err != nil {
		return err
	}
	fmt.Fprintf(w, "  painted on %v\n", variant)
	return nil
}

func drawCount(d gpu.RecordedDraw) int {
	if d.Command.Indices != nil {
		return d.Command.Indices.Count()
	}
	return int(d.Command.Count)
}
