package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

const (
	// MaxFramesInFlight bounds Config.FramesInFlight.
	MaxFramesInFlight = 4

	// MaxPointLights bounds Config.PointLights and the point light array in
	// the frame uniforms.
	MaxPointLights = 4

	// MaxBloomLevels bounds Config.BloomLevels.
	MaxBloomLevels = 8

	dflFramesInFlight = 2
	dflShadowMapSize  = 2048
	dflBloomLevels    = 6
	dflPointLights    = 2
	dflPointShadowMap = 1024
)

// Config is the startup configuration of the renderer.
type Config struct {
	// Number of frames the CPU may record ahead of the GPU.
	//
	// Default is 2.
	FramesInFlight int

	// Edge length of the directional shadow map in texels.
	//
	// Default is 2048.
	ShadowMapSize int

	// Edge length of each point light cube map face.
	//
	// Default is 1024.
	PointShadowMapSize int

	// Render the directional light shadow pass.
	//
	// Default is true.
	DirectionalShadow bool

	// Number of shadow-casting point lights, at most MaxPointLights.
	//
	// Default is 2.
	PointLights int

	// Number of downsample (and upsample) levels in the bloom chain.
	//
	// Default is 6.
	BloomLevels int

	// Luminance above which pixels contribute to bloom.
	//
	// Default is 1.0.
	BloomThreshold float32

	// Weight of the blurred image in the bloom merge.
	//
	// Default is 0.04.
	BloomStrength float32

	// Enables the depth-of-field pass between bloom and composite.
	//
	// Default is false.
	DepthOfField bool

	// Focus distance and range of the depth-of-field pass in view units.
	//
	// Defaults are 8 and 6.
	FocusDistance float32
	FocusRange    float32

	// Exposure used by the composite tone mapping.
	//
	// Default is 1.0.
	Exposure float32

	// Format of the HDR scene and post-process targets.
	//
	// Default is gpu.FormatR16G16B16A16Float.
	HDRFormat gpu.Format

	// Format of shadow and scene depth targets.
	//
	// Default is gpu.FormatD32Float.
	DepthFormat gpu.Format

	// Bake viewport and scissor into full-resolution pipelines instead of
	// setting them dynamically. Baked pipelines are rebuilt on resize.
	//
	// Default is false.
	BakeViewports bool

	// Preferred present mode; FIFO is used if unsupported.
	//
	// Default is gpu.PresentMailbox.
	PresentMode gpu.PresentMode

	// Shader paths, resolved through the RenderContext's ShaderSource.
	Shaders ShaderSet
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		FramesInFlight:     dflFramesInFlight,
		ShadowMapSize:      dflShadowMapSize,
		PointShadowMapSize: dflPointShadowMap,
		DirectionalShadow:  true,
		PointLights:        dflPointLights,
		BloomLevels:        dflBloomLevels,
		BloomThreshold:     1.0,
		BloomStrength:      0.04,
		DepthOfField:       false,
		FocusDistance:      8,
		FocusRange:         6,
		Exposure:           1.0,
		HDRFormat:          gpu.FormatR16G16B16A16Float,
		DepthFormat:        gpu.FormatD32Float,
		PresentMode:        gpu.PresentMailbox,
		Shaders:            DefaultShaderSet(),
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.FramesInFlight < 1 || c.FramesInFlight > MaxFramesInFlight:
		return errors.Errorf("config: frames in flight must be in [1, %d], got %d", MaxFramesInFlight, c.FramesInFlight)
	case c.ShadowMapSize < 1:
		return errors.Errorf("config: invalid shadow map size %d", c.ShadowMapSize)
	case c.PointShadowMapSize < 1:
		return errors.Errorf("config: invalid point shadow map size %d", c.PointShadowMapSize)
	case c.PointLights < 0 || c.PointLights > MaxPointLights:
		return errors.Errorf("config: point lights must be in [0, %d], got %d", MaxPointLights, c.PointLights)
	case c.BloomLevels < 1 || c.BloomLevels > MaxBloomLevels:
		return errors.Errorf("config: bloom levels must be in [1, %d], got %d", MaxBloomLevels, c.BloomLevels)
	case c.Exposure <= 0:
		return errors.Errorf("config: exposure must be positive, got %g", c.Exposure)
	case c.HDRFormat == gpu.FormatUndefined || c.HDRFormat.IsDepth():
		return errors.Errorf("config: invalid HDR format %s", c.HDRFormat)
	case !c.DepthFormat.IsDepth():
		return errors.Errorf("config: invalid depth format %s", c.DepthFormat)
	}
	return c.Shaders.validate(c)
}

// ShaderSet names the SPIR-V binaries used by each pipeline.
type ShaderSet struct {
	ShadowVert      string
	PointShadowVert string
	PointShadowGeom string
	PointShadowFrag string
	SceneVert       string
	SceneFrag       string
	SkyboxVert      string
	SkyboxFrag      string
	ParticleVert    string
	ParticleFrag    string
	FullscreenVert  string
	BrightnessFrag  string
	DownsampleFrag  string
	UpsampleFrag    string
	MergeFrag       string
	DepthOfField    string
	CompositeFrag   string
}

// DefaultShaderSet returns the paths of the shaders shipped with the
// renderer, relative to the shader directory.
func DefaultShaderSet() ShaderSet {
	return ShaderSet{
		ShadowVert:      "shadow.vert.spv",
		PointShadowVert: "point_shadow.vert.spv",
		PointShadowGeom: "point_shadow.geom.spv",
		PointShadowFrag: "point_shadow.frag.spv",
		SceneVert:       "scene.vert.spv",
		SceneFrag:       "scene.frag.spv",
		SkyboxVert:      "skybox.vert.spv",
		SkyboxFrag:      "skybox.frag.spv",
		ParticleVert:    "particle.vert.spv",
		ParticleFrag:    "particle.frag.spv",
		FullscreenVert:  "fullscreen.vert.spv",
		BrightnessFrag:  "bloom_brightness.frag.spv",
		DownsampleFrag:  "bloom_downsample.frag.spv",
		UpsampleFrag:    "bloom_upsample.frag.spv",
		MergeFrag:       "bloom_merge.frag.spv",
		DepthOfField:    "dof.frag.spv",
		CompositeFrag:   "composite.frag.spv",
	}
}

// Paths returns the shader paths the given configuration will load.
func (s ShaderSet) Paths(c *Config) []string {
	paths := []string{
		s.SceneVert, s.SceneFrag, s.SkyboxVert, s.SkyboxFrag,
		s.ParticleVert, s.ParticleFrag, s.FullscreenVert,
		s.BrightnessFrag, s.DownsampleFrag, s.UpsampleFrag, s.MergeFrag,
		s.CompositeFrag,
	}
	if c.DirectionalShadow {
		paths = append(paths, s.ShadowVert)
	}
	if c.PointLights > 0 {
		paths = append(paths, s.PointShadowVert, s.PointShadowGeom, s.PointShadowFrag)
	}
	if c.DepthOfField {
		paths = append(paths, s.DepthOfField)
	}
	return paths
}

func (s ShaderSet) validate(c *Config) error {
	for _, path := range s.Paths(c) {
		if path == "" {
			return errors.New("config: shader set has an empty path")
		}
	}
	return nil
}
