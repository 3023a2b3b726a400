package cmd

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/render"
	"github.com/vkngwrapper/vulkangraphics/scene"
)

// RunFlags are the flags accepted by the run command.
var RunFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Value: 1280,
		Usage: "window width",
	},
	cli.IntFlag{
		Name:  "height",
		Value: 720,
		Usage: "window height",
	},
	cli.IntFlag{
		Name:  "frames",
		Value: 2,
		Usage: "number of frames in flight",
	},
	cli.IntFlag{
		Name:  "shadow-map",
		Value: 2048,
		Usage: "directional shadow map size",
	},
	cli.BoolFlag{
		Name:  "no-shadow",
		Usage: "disable the directional shadow pass",
	},
	cli.IntFlag{
		Name:  "point-lights",
		Value: 2,
		Usage: "number of shadow-casting point lights",
	},
	cli.IntFlag{
		Name:  "bloom-levels",
		Value: 6,
		Usage: "number of bloom mip levels",
	},
	cli.Float64Flag{
		Name:  "bloom-threshold",
		Value: 1.0,
		Usage: "luminance above which pixels bloom",
	},
	cli.Float64Flag{
		Name:  "bloom-strength",
		Value: 0.04,
		Usage: "weight of the blurred image in the bloom merge",
	},
	cli.BoolFlag{
		Name:  "dof",
		Usage: "enable the depth-of-field pass",
	},
	cli.Float64Flag{
		Name:  "exposure",
		Value: 1.0,
		Usage: "camera exposure for tone-mapping",
	},
	cli.StringFlag{
		Name:  "present-mode",
		Value: "mailbox",
		Usage: "preferred present mode (fifo, mailbox or immediate)",
	},
	cli.BoolFlag{
		Name:  "bake-viewports",
		Usage: "bake viewports into pipelines instead of setting them per frame",
	},
	cli.BoolFlag{
		Name:  "validation",
		Usage: "enable the Vulkan validation layer",
	},
	cli.IntFlag{
		Name:  "device, d",
		Value: -1,
		Usage: "index of the physical device to use (see list-devices)",
	},
	cli.StringFlag{
		Name:  "shaders",
		Value: "shaders",
		Usage: "directory containing the compiled SPIR-V shaders",
	},
	cli.StringFlag{
		Name:  "assets",
		Value: ".",
		Usage: "directory that model paths are relative to",
	},
	cli.StringFlag{
		Name:  "model, m",
		Usage: "wavefront obj file to add to the scene",
	},
	cli.IntFlag{
		Name:  "grid",
		Value: 3,
		Usage: "cubes along each side of the cube grid",
	},
	cli.IntFlag{
		Name:  "particles",
		Value: 2048,
		Usage: "particle emitter capacity (0 disables particles)",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "particle emitter random seed",
	},
}

func parsePresentMode(name string) (gpu.PresentMode, error) {
	switch strings.ToLower(name) {
	case "fifo":
		return gpu.PresentFIFO, nil
	case "mailbox":
		return gpu.PresentMailbox, nil
	case "immediate":
		return gpu.PresentImmediate, nil
	}
	return 0, errors.Errorf("unknown present mode %q", name)
}

// renderConfig builds a validated renderer configuration from the run flags.
func renderConfig(ctx *cli.Context) (render.Config, error) {
	cfg := render.DefaultConfig()
	cfg.FramesInFlight = ctx.Int("frames")
	cfg.ShadowMapSize = ctx.Int("shadow-map")
	cfg.DirectionalShadow = !ctx.Bool("no-shadow")
	cfg.PointLights = ctx.Int("point-lights")
	cfg.BloomLevels = ctx.Int("bloom-levels")
	cfg.BloomThreshold = float32(ctx.Float64("bloom-threshold"))
	cfg.BloomStrength = float32(ctx.Float64("bloom-strength"))
	cfg.DepthOfField = ctx.Bool("dof")
	cfg.Exposure = float32(ctx.Float64("exposure"))
	cfg.BakeViewports = ctx.Bool("bake-viewports")

	mode, err := parsePresentMode(ctx.String("present-mode"))
	if err != nil {
		return cfg, err
	}
	cfg.PresentMode = mode

	return cfg, cfg.Validate()
}

func demoOptions(ctx *cli.Context) scene.DemoOptions {
	opts := scene.DefaultDemoOptions()
	opts.Grid = ctx.Int("grid")
	opts.Particles = ctx.Int("particles")
	opts.Seed = ctx.Int64("seed")
	if model := ctx.String("model"); model != "" {
		opts.Assets = os.DirFS(ctx.String("assets"))
		opts.ModelPath = model
	}
	return opts
}
