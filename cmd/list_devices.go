package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"github.com/vkngwrapper/vulkangraphics/gpu/vkng"
	"github.com/vkngwrapper/vulkangraphics/log"
	"github.com/vkngwrapper/vulkangraphics/platform"
)

// ListDevices prints the physical devices and whether each one can run the
// renderer with the given flags.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := renderConfig(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}

	// A surface is needed to check presentation support.
	window, err := platform.NewWindow("vulkangraphics", 64, 64, log.New("window"))
	if err != nil {
		logger.Error(err)
		return err
	}
	defer window.Destroy()

	inst, err := vkng.NewInstance(window.SDL(), vkng.InstanceOptions{AppName: "vulkangraphics", Logger: log.New("vulkan")})
	if err != nil {
		logger.Error(err)
		return err
	}
	defer inst.Destroy()

	devices, err := inst.EnumerateDevices(requirements(&cfg))
	if err != nil {
		logger.Error(err)
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Name", "Type", "API", "Driver", "Geometry shader", "Usable"})
	for _, d := range devices {
		usable := "yes"
		if !d.Suitable {
			usable = "no: " + d.Reason
		}
		table.Append([]string{
			fmt.Sprintf("%d", d.Index),
			d.Name,
			d.Type,
			d.APIVersion,
			d.DriverVersion,
			fmt.Sprintf("%t", d.GeometryShader),
			usable,
		})
	}
	table.Render()
	logger.Noticef("physical devices\n%s", buf.String())
	return nil
}
