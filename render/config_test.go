package render

import (
	"testing"

	"github.com/vkngwrapper/vulkangraphics/gpu"
)

func TestConfigValidate(t *testing.T) {
	type spec struct {
		mutate func(*Config)
		valid  bool
	}
	specs := []spec{
		{func(c *Config) {}, true},
		{func(c *Config) { c.FramesInFlight = 0 }, false},
		{func(c *Config) { c.FramesInFlight = MaxFramesInFlight + 1 }, false},
		{func(c *Config) { c.FramesInFlight = 1 }, true},
		{func(c *Config) { c.ShadowMapSize = 0 }, false},
		{func(c *Config) { c.PointShadowMapSize = -1 }, false},
		{func(c *Config) { c.PointLights = MaxPointLights + 1 }, false},
		{func(c *Config) { c.PointLights = 0 }, true},
		{func(c *Config) { c.BloomLevels = 0 }, false},
		{func(c *Config) { c.BloomLevels = MaxBloomLevels }, true},
		{func(c *Config) { c.Exposure = 0 }, false},
		{func(c *Config) { c.HDRFormat = gpu.FormatD32Float }, false},
		{func(c *Config) { c.DepthFormat = gpu.FormatR16G16B16A16Float }, false},
		{func(c *Config) { c.Shaders.SceneFrag = "" }, false},
		{func(c *Config) { c.Shaders.DepthOfField = "" }, true},
		{func(c *Config) { c.Shaders.DepthOfField = ""; c.DepthOfField = true }, false},
		{func(c *Config) { c.Shaders.PointShadowGeom = ""; c.PointLights = 0 }, true},
	}

	for index, s := range specs {
		cfg := DefaultConfig()
		s.mutate(&cfg)
		err := cfg.Validate()
		if s.valid && err != nil {
			t.Fatalf("[spec %d] expected config to be valid; got %v", index, err)
		}
		if !s.valid && err == nil {
			t.Fatalf("[spec %d] expected config to be rejected", index)
		}
	}
}

func TestShaderPathsFollowConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PointLights = 0
	cfg.DirectionalShadow = false
	for _, path := range cfg.Shaders.Paths(&cfg) {
		if path == cfg.Shaders.PointShadowGeom || path == cfg.Shaders.ShadowVert || path == cfg.Shaders.DepthOfField {
			t.Fatalf("expected %s not to be needed", path)
		}
	}
}
