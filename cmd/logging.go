package cmd

import (
	"github.com/urfave/cli"
	"github.com/vkngwrapper/vulkangraphics/log"
)

var logger = log.New("vulkangraphics")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	for _, pair := range ctx.GlobalStringSlice("log-level") {
		module, level, err := log.ParseModuleLevel(pair)
		if err != nil {
			logger.Warning(err)
			continue
		}
		log.SetModuleLevel(module, level)
	}
}
