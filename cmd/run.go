package cmd

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli"
	"github.com/vkngwrapper/vulkangraphics/asset"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/gpu/vkng"
	"github.com/vkngwrapper/vulkangraphics/log"
	"github.com/vkngwrapper/vulkangraphics/platform"
	"github.com/vkngwrapper/vulkangraphics/render"
	"github.com/vkngwrapper/vulkangraphics/scene"
)

func requirements(cfg *render.Config) vkng.Requirements {
	return vkng.Requirements{
		GeometryShader: cfg.PointLights > 0,
		ColorFormats:   []gpu.Format{cfg.HDRFormat},
		DepthFormats:   []gpu.Format{cfg.DepthFormat},
	}
}

// Run opens a window and renders the demo scene until it is closed.
func Run(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := renderConfig(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}

	window, err := platform.NewWindow("vulkangraphics", ctx.Int("width"), ctx.Int("height"), log.New("window"))
	if err != nil {
		logger.Error(err)
		return err
	}
	defer window.Destroy()

	inst, err := vkng.NewInstance(window.SDL(), vkng.InstanceOptions{
		AppName:    "vulkangraphics",
		Validation: ctx.Bool("validation"),
		Logger:     log.New("vulkan"),
	})
	if err != nil {
		logger.Error(err)
		return err
	}
	defer inst.Destroy()

	device, err := vkng.Open(inst, vkng.DeviceOptions{
		PhysicalDevice: ctx.Int("device"),
		Requirements:   requirements(&cfg),
	})
	if err != nil {
		logger.Error(err)
		return err
	}
	defer device.Close()
	logger.Noticef(`using device "%s"`, device.Info().Name)

	shaders := asset.NewShaderLibrary(os.DirFS(ctx.String("shaders")), log.New("shaders"))
	if err := shaders.Preload(context.Background(), cfg.Shaders.Paths(&cfg)...); err != nil {
		logger.Error(err)
		return err
	}

	rc, err := render.NewRenderContext(device, window, shaders, cfg, log.New("render"))
	if err != nil {
		logger.Error(err)
		return err
	}

	scheduler := render.NewFrameScheduler(rc, scene.NewDemo(demoOptions(ctx)))
	if err := scheduler.Init(); err != nil {
		logger.Error(err)
		return errors.Wrap(err, "initialize renderer")
	}
	defer scheduler.Cleanup()
	window.OnResize(scheduler.RequestResize)

	if err := scheduler.Run(window.Poll); err != nil {
		logger.Error(err)
		return err
	}
	logger.Noticef("rendered %d frames", scheduler.FrameCount())
	return nil
}
