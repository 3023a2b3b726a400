package main

import (
	"os"
	"runtime"

	"github.com/urfave/cli"
	"github.com/vkngwrapper/vulkangraphics/cmd"
)

func init() {
	// SDL and the presentation engine must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	app := cli.NewApp()
	app.Name = "vulkangraphics"
	app.Usage = "real-time Vulkan renderer with shadows, bloom and particles"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringSliceFlag{
			Name:  "log-level",
			Value: &cli.StringSlice{},
			Usage: "set the level of one logger, e.g. vulkan=warning",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "render the demo scene in a window",
			Description: `
Open a window and render a lit cube grid with directional and point light
shadows, a particle fountain and an optional wavefront obj model. Frames go
through the scene pass, the bloom chain, optional depth of field and the
composite pass before presentation.

Press escape or close the window to exit.`,
			Flags:  cmd.RunFlags,
			Action: cmd.Run,
		},
		{
			Name:   "list-devices",
			Usage:  "list Vulkan devices and whether they can run the renderer",
			Flags:  cmd.RunFlags,
			Action: cmd.ListDevices,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
