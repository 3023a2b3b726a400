package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// MeshVertexLayout is the interleaved vertex layout of scene meshes:
// position (vec3), normal (vec3), texture coordinate (vec2).
var MeshVertexLayout = gpu.VertexLayout{
	Stride: 32,
	Attributes: []gpu.VertexAttribute{
		{Location: 0, Format: gpu.FormatR32G32B32Float, Offset: 0},
		{Location: 1, Format: gpu.FormatR32G32B32Float, Offset: 12},
		{Location: 2, Format: gpu.FormatR32G32Float, Offset: 24},
	},
}

// ParticleVertexLayout is the layout of particle buffers: position and
// point size (vec4), color (vec4).
var ParticleVertexLayout = gpu.VertexLayout{
	Stride: 32,
	Attributes: []gpu.VertexAttribute{
		{Location: 0, Format: gpu.FormatR32G32B32A32Float, Offset: 0},
		{Location: 1, Format: gpu.FormatR32G32B32A32Float, Offset: 16},
	},
}

// PipelineConfig describes a graphics pipeline. The zero value of every
// field is its default:
//
//   - Topology: triangle list
//   - CullMode: back faces, counter-clockwise front faces
//   - DepthTest, DepthWrite: off; DepthCompare: less
//   - DepthBias: none
//   - Blend: none
//   - Vertex: no vertex input (full-screen and procedural draws)
//   - GeometryShader: none
//
// DynamicViewport defaults to true in the kind-specific constructors; a
// pipeline with a baked viewport must be rebuilt with Recreate whenever the
// target extent changes.
type PipelineConfig struct {
	Name           string
	Pass           *RenderPass
	VertexShader   string
	GeometryShader string
	FragmentShader string
	Vertex         gpu.VertexLayout
	Topology       gpu.Topology
	CullMode       gpu.CullMode
	DepthTest      bool
	DepthWrite     bool
	DepthCompare   gpu.CompareOp
	DepthBias      *gpu.DepthBias
	Blend          gpu.BlendMode
	SetLayouts     []gpu.DescriptorSetLayout
	PushConstants  []gpu.PushConstantRange

	DynamicViewport bool
	// Extent is the baked viewport size when DynamicViewport is false.
	Extent gpu.Extent2D
}

// ShadowPipelineConfig draws depth from the directional light. The caster's
// model transform is a vertex push constant.
func ShadowPipelineConfig(pass *RenderPass, shaders ShaderSet, frameLayout gpu.DescriptorSetLayout) PipelineConfig {
	return PipelineConfig{
		Name:            "shadow",
		Pass:            pass,
		VertexShader:    shaders.ShadowVert,
		Vertex:          MeshVertexLayout,
		DepthTest:       true,
		DepthWrite:      true,
		DepthBias:       &gpu.DepthBias{Constant: 1.25, Slope: 1.75},
		SetLayouts:      []gpu.DescriptorSetLayout{frameLayout},
		PushConstants:   []gpu.PushConstantRange{{Stages: gpu.StageVertex, Offset: 0, Size: modelPushSize}},
		DynamicViewport: true,
	}
}

// PointShadowPipelineConfig draws linear distance into all six faces of a
// cube map. The geometry stage routes primitives to the face selected by the
// face push constant.
func PointShadowPipelineConfig(pass *RenderPass, shaders ShaderSet, frameLayout gpu.DescriptorSetLayout) PipelineConfig {
	return PipelineConfig{
		Name:           "point-shadow",
		Pass:           pass,
		VertexShader:   shaders.PointShadowVert,
		GeometryShader: shaders.PointShadowGeom,
		FragmentShader: shaders.PointShadowFrag,
		Vertex:         MeshVertexLayout,
		CullMode:       gpu.CullNone,
		DepthTest:      true,
		DepthWrite:     true,
		SetLayouts:     []gpu.DescriptorSetLayout{frameLayout},
		PushConstants: []gpu.PushConstantRange{
			{Stages: gpu.StageVertex | gpu.StageGeometry | gpu.StageFragment, Offset: 0, Size: modelPushSize + facePushSize},
		},
		DynamicViewport: true,
	}
}

// ScenePipelineConfig draws lit and emissive geometry into the HDR target.
func ScenePipelineConfig(pass *RenderPass, shaders ShaderSet, layouts []gpu.DescriptorSetLayout, extent gpu.Extent2D, dynamic bool) PipelineConfig {
	return PipelineConfig{
		Name:            "scene",
		Pass:            pass,
		VertexShader:    shaders.SceneVert,
		FragmentShader:  shaders.SceneFrag,
		Vertex:          MeshVertexLayout,
		DepthTest:       true,
		DepthWrite:      true,
		SetLayouts:      layouts,
		PushConstants:   []gpu.PushConstantRange{{Stages: gpu.StageVertex | gpu.StageFragment, Offset: 0, Size: objectPushSize}},
		DynamicViewport: dynamic,
		Extent:          extent,
	}
}

// SkyboxPipelineConfig draws a procedural cube behind everything else.
func SkyboxPipelineConfig(pass *RenderPass, shaders ShaderSet, layouts []gpu.DescriptorSetLayout, extent gpu.Extent2D, dynamic bool) PipelineConfig {
	return PipelineConfig{
		Name:            "skybox",
		Pass:            pass,
		VertexShader:    shaders.SkyboxVert,
		FragmentShader:  shaders.SkyboxFrag,
		CullMode:        gpu.CullNone,
		DepthTest:       true,
		DepthCompare:    gpu.CompareLessOrEqual,
		SetLayouts:      layouts,
		DynamicViewport: dynamic,
		Extent:          extent,
	}
}

// ParticlePipelineConfig draws point sprites additively, depth tested but
// without depth writes.
func ParticlePipelineConfig(pass *RenderPass, shaders ShaderSet, layouts []gpu.DescriptorSetLayout, extent gpu.Extent2D, dynamic bool) PipelineConfig {
	return PipelineConfig{
		Name:            "particles",
		Pass:            pass,
		VertexShader:    shaders.ParticleVert,
		FragmentShader:  shaders.ParticleFrag,
		Vertex:          ParticleVertexLayout,
		Topology:        gpu.TopologyPointList,
		CullMode:        gpu.CullNone,
		DepthTest:       true,
		Blend:           gpu.BlendAdditive,
		SetLayouts:      layouts,
		DynamicViewport: dynamic,
		Extent:          extent,
	}
}

// FullscreenPipelineConfig draws one full-screen triangle with the given
// fragment shader. pushSize is the size of an optional fragment push
// constant block.
func FullscreenPipelineConfig(name string, pass *RenderPass, shaders ShaderSet, fragment string, layout gpu.DescriptorSetLayout, pushSize int) PipelineConfig {
	cfg := PipelineConfig{
		Name:            name,
		Pass:            pass,
		VertexShader:    shaders.FullscreenVert,
		FragmentShader:  fragment,
		CullMode:        gpu.CullNone,
		SetLayouts:      []gpu.DescriptorSetLayout{layout},
		DynamicViewport: true,
	}
	if pushSize > 0 {
		cfg.PushConstants = []gpu.PushConstantRange{{Stages: gpu.StageFragment, Offset: 0, Size: pushSize}}
	}
	return cfg
}

// Pipeline is a graphics pipeline and the layout it owns.
type Pipeline struct {
	Handle gpu.Pipeline
	Layout gpu.PipelineLayout
	Config PipelineConfig

	ctx *RenderContext
}

// NewPipeline creates the layout and the pipeline.
func NewPipeline(ctx *RenderContext, config PipelineConfig) (*Pipeline, error) {
	if config.Pass == nil {
		return nil, errors.Errorf("pipeline %s: no render pass", config.Name)
	}
	if config.VertexShader == "" {
		return nil, errors.Errorf("pipeline %s: no vertex shader", config.Name)
	}
	if !config.DynamicViewport && config.Extent.IsZero() {
		return nil, errors.Errorf("pipeline %s: baked viewport needs an extent", config.Name)
	}

	layout, err := ctx.Device.CreatePipelineLayout(gpu.PipelineLayoutInfo{
		SetLayouts:    config.SetLayouts,
		PushConstants: config.PushConstants,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %s: create layout", config.Name)
	}

	p := &Pipeline{Layout: layout, Config: config, ctx: ctx}
	if err := p.build(); err != nil {
		ctx.Device.DestroyPipelineLayout(layout)
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) build() error {
	device := p.ctx.Device
	cfg := p.Config

	var stages []gpu.ShaderStageInfo
	for _, s := range []struct {
		stage gpu.ShaderStage
		path  string
	}{
		{gpu.StageVertex, cfg.VertexShader},
		{gpu.StageGeometry, cfg.GeometryShader},
		{gpu.StageFragment, cfg.FragmentShader},
	} {
		if s.path == "" {
			continue
		}
		module, err := p.ctx.shaderModule(s.path)
		if err != nil {
			return errors.Wrapf(err, "pipeline %s", cfg.Name)
		}
		defer device.DestroyShaderModule(module)
		stages = append(stages, gpu.ShaderStageInfo{Stage: s.stage, Module: module, Entry: "main"})
	}

	info := gpu.GraphicsPipelineInfo{
		Stages:           stages,
		Vertex:           cfg.Vertex,
		Topology:         cfg.Topology,
		CullMode:         cfg.CullMode,
		DepthTest:        cfg.DepthTest,
		DepthWrite:       cfg.DepthWrite,
		DepthCompare:     cfg.DepthCompare,
		DepthBias:        cfg.DepthBias,
		Blend:            cfg.Blend,
		ColorAttachments: cfg.Pass.ColorCount,
		DynamicViewport:  cfg.DynamicViewport,
		Layout:           p.Layout,
		RenderPass:       cfg.Pass.Handle,
	}
	if !cfg.DynamicViewport {
		info.Viewport = fullViewport(cfg.Extent)
	}

	handle, err := device.CreateGraphicsPipeline(info)
	if err != nil {
		return errors.Wrapf(err, "create pipeline %s", cfg.Name)
	}
	p.Handle = handle
	return nil
}

// Bind binds the pipeline and, for dynamic pipelines, sets viewport and
// scissor to cover extent.
func (p *Pipeline) Bind(cb gpu.CommandBuffer, extent gpu.Extent2D) {
	device := p.ctx.Device
	device.CmdBindPipeline(cb, p.Handle)
	if p.Config.DynamicViewport {
		device.CmdSetViewport(cb, fullViewport(extent))
		device.CmdSetScissor(cb, gpu.Rect2D{Extent: extent})
	}
}

func (p *Pipeline) release() {
	p.ctx.Device.DestroyPipeline(p.Handle)
	p.Handle = 0
}

// Release destroys a pipeline with a baked viewport ahead of Recreate,
// keeping the layout. Dynamic pipelines survive resizes and are left
// untouched.
func (p *Pipeline) Release() {
	if !p.Config.DynamicViewport {
		p.release()
	}
}

// Recreate rebuilds a pipeline with a baked viewport for a new extent.
func (p *Pipeline) Recreate(extent gpu.Extent2D) error {
	if p.Config.DynamicViewport {
		return nil
	}
	p.release()
	p.Config.Extent = extent
	return p.build()
}

// Destroy releases the pipeline and its layout.
func (p *Pipeline) Destroy() {
	if p == nil {
		return
	}
	p.release()
	p.ctx.Device.DestroyPipelineLayout(p.Layout)
	p.Layout = 0
}

func fullViewport(extent gpu.Extent2D) gpu.Viewport {
	return gpu.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}
