package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

const colorWriteAll = core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha

func blendAttachment(mode gpu.BlendMode) core1_0.PipelineColorBlendAttachmentState {
	state := core1_0.PipelineColorBlendAttachmentState{ColorWriteMask: colorWriteAll}
	switch mode {
	case gpu.BlendAlpha:
		state.BlendEnabled = true
		state.SrcColorBlendFactor = core1_0.BlendFactorSrcAlpha
		state.DstColorBlendFactor = core1_0.BlendFactorOneMinusSrcAlpha
		state.ColorBlendOp = core1_0.BlendOpAdd
		state.SrcAlphaBlendFactor = core1_0.BlendFactorOne
		state.DstAlphaBlendFactor = core1_0.BlendFactorZero
		state.AlphaBlendOp = core1_0.BlendOpAdd
	case gpu.BlendAdditive:
		state.BlendEnabled = true
		state.SrcColorBlendFactor = core1_0.BlendFactorOne
		state.DstColorBlendFactor = core1_0.BlendFactorOne
		state.ColorBlendOp = core1_0.BlendOpAdd
		state.SrcAlphaBlendFactor = core1_0.BlendFactorOne
		state.DstAlphaBlendFactor = core1_0.BlendFactorOne
		state.AlphaBlendOp = core1_0.BlendOpAdd
	}
	return state
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineInfo) (gpu.Pipeline, error) {
	layout, ok := d.pipelineLayouts.get(uint64(info.Layout))
	if !ok {
		return 0, errors.Errorf("create graphics pipeline: unknown layout %d", info.Layout)
	}
	pass, ok := d.renderPasses.get(uint64(info.RenderPass))
	if !ok {
		return 0, errors.Errorf("create graphics pipeline: unknown render pass %d", info.RenderPass)
	}

	var stages []core1_0.PipelineShaderStageCreateInfo
	for _, s := range info.Stages {
		module, ok := d.shaders.get(uint64(s.Module))
		if !ok {
			return 0, errors.Errorf("create graphics pipeline: unknown shader module %d", s.Module)
		}
		entry := s.Entry
		if entry == "" {
			entry = "main"
		}
		stages = append(stages, core1_0.PipelineShaderStageCreateInfo{
			Stage:  vkShaderStages(s.Stage),
			Module: module,
			Name:   entry,
		})
	}

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{}
	if info.Vertex.Stride > 0 {
		vertexInput.VertexBindingDescriptions = []core1_0.VertexInputBindingDescription{
			{
				Binding:   0,
				Stride:    info.Vertex.Stride,
				InputRate: core1_0.VertexInputRateVertex,
			},
		}
		for _, a := range info.Vertex.Attributes {
			vertexInput.VertexAttributeDescriptions = append(vertexInput.VertexAttributeDescriptions, core1_0.VertexInputAttributeDescription{
				Binding:  0,
				Location: uint32(a.Location),
				Format:   vkFormat(a.Format),
				Offset:   a.Offset,
			})
		}
	}

	// Dynamic pipelines still declare one viewport and scissor; their
	// values are ignored.
	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{vkViewport(info.Viewport)},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: int(info.Viewport.X), Y: int(info.Viewport.Y)},
				Extent: core1_0.Extent2D{Width: int(info.Viewport.Width), Height: int(info.Viewport.Height)},
			},
		},
	}
	var dynamic *core1_0.PipelineDynamicStateCreateInfo
	if info.DynamicViewport {
		dynamic = &core1_0.PipelineDynamicStateCreateInfo{
			DynamicStates: []core1_0.DynamicState{core1_0.DynamicStateViewport, core1_0.DynamicStateScissor},
		}
	}

	frontFace := core1_0.FrontFaceCounterClockwise
	if info.FrontFaceCW {
		frontFace = core1_0.FrontFaceClockwise
	}
	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    vkCullMode(info.CullMode),
		FrontFace:   frontFace,
		LineWidth:   1.0,
	}
	if info.DepthBias != nil {
		rasterization.DepthBiasEnable = true
		rasterization.DepthBiasConstantFactor = info.DepthBias.Constant
		rasterization.DepthBiasSlopeFactor = info.DepthBias.Slope
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{LogicOp: core1_0.LogicOpCopy}
	for i := 0; i < info.ColorAttachments; i++ {
		colorBlend.Attachments = append(colorBlend.Attachments, blendAttachment(info.Blend))
	}

	pipelines, _, err := d.driver.CreateGraphicsPipelines(nil, nil, core1_0.GraphicsPipelineCreateInfo{
		Stages:           stages,
		VertexInputState: vertexInput,
		InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology: vkTopology(info.Topology),
		},
		ViewportState:      viewport,
		RasterizationState: rasterization,
		MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
			RasterizationSamples: core1_0.Samples1,
			MinSampleShading:     1.0,
		},
		DepthStencilState: &core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  info.DepthTest,
			DepthWriteEnable: info.DepthWrite,
			DepthCompareOp:   vkCompareOp(info.DepthCompare),
		},
		ColorBlendState:   colorBlend,
		DynamicState:      dynamic,
		Layout:            layout,
		RenderPass:        pass,
		Subpass:           0,
		BasePipelineIndex: -1,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create graphics pipeline")
	}
	return gpu.Pipeline(d.pipelines.add(pipelines[0])), nil
}
