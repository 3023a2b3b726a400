package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

func (d *Device) cb(h gpu.CommandBuffer) core1_0.CommandBuffer {
	cb, _ := d.commandBuffers.get(uint64(h))
	return cb
}

// BeginCommandBuffer relies on the pool's reset flag to reset the buffer.
func (d *Device) BeginCommandBuffer(cb gpu.CommandBuffer) error {
	buffer, ok := d.commandBuffers.get(uint64(cb))
	if !ok {
		return errors.Errorf("begin command buffer: unknown command buffer %d", cb)
	}
	_, err := d.driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	return errors.Wrap(err, "begin command buffer")
}

func (d *Device) EndCommandBuffer(cb gpu.CommandBuffer) error {
	_, err := d.driver.EndCommandBuffer(d.cb(cb))
	return errors.Wrap(err, "end command buffer")
}

func (d *Device) CmdBeginRenderPass(cb gpu.CommandBuffer, begin gpu.RenderPassBegin) {
	pass, _ := d.renderPasses.get(uint64(begin.RenderPass))
	framebuffer, _ := d.framebuffers.get(uint64(begin.Framebuffer))

	clearValues := make([]core1_0.ClearValue, 0, len(begin.ClearValues))
	for _, c := range begin.ClearValues {
		if c.IsDepth {
			clearValues = append(clearValues, core1_0.ClearValueDepthStencil{Depth: c.Depth, Stencil: 0})
		} else {
			clearValues = append(clearValues, core1_0.ClearValueFloat(c.Color))
		}
	}

	err := d.driver.CmdBeginRenderPass(d.cb(cb), core1_0.SubpassContentsInline, core1_0.RenderPassBeginInfo{
		RenderPass:  pass,
		Framebuffer: framebuffer,
		RenderArea:  vkRect(begin.Area),
		ClearValues: clearValues,
	})
	if err != nil {
		d.logger.Errorf("begin render pass: %v", err)
	}
}

func (d *Device) CmdEndRenderPass(cb gpu.CommandBuffer) {
	d.driver.CmdEndRenderPass(d.cb(cb))
}

func (d *Device) CmdBindPipeline(cb gpu.CommandBuffer, pipeline gpu.Pipeline) {
	p, _ := d.pipelines.get(uint64(pipeline))
	d.driver.CmdBindPipeline(d.cb(cb), core1_0.PipelineBindPointGraphics, p)
}

func (d *Device) CmdSetViewport(cb gpu.CommandBuffer, viewport gpu.Viewport) {
	d.driver.CmdSetViewport(d.cb(cb), vkViewport(viewport))
}

func (d *Device) CmdSetScissor(cb gpu.CommandBuffer, scissor gpu.Rect2D) {
	d.driver.CmdSetScissor(d.cb(cb), vkRect(scissor))
}

func (d *Device) CmdBindDescriptorSets(cb gpu.CommandBuffer, layout gpu.PipelineLayout, firstSet int, sets ...gpu.DescriptorSet) {
	l, _ := d.pipelineLayouts.get(uint64(layout))
	vkSets := make([]core1_0.DescriptorSet, len(sets))
	for i, h := range sets {
		entry, _ := d.sets.get(uint64(h))
		vkSets[i] = entry.set
	}
	d.driver.CmdBindDescriptorSets(d.cb(cb), core1_0.PipelineBindPointGraphics, l, firstSet, vkSets, nil)
}

func (d *Device) CmdPushConstants(cb gpu.CommandBuffer, layout gpu.PipelineLayout, stages gpu.ShaderStage, offset int, data []byte) {
	l, _ := d.pipelineLayouts.get(uint64(layout))
	d.driver.CmdPushConstants(d.cb(cb), l, vkShaderStages(stages), offset, data)
}

func (d *Device) CmdBindVertexBuffer(cb gpu.CommandBuffer, buffer gpu.Buffer, offset int) {
	entry, _ := d.buffers.get(uint64(buffer))
	d.driver.CmdBindVertexBuffers(d.cb(cb), 0, []core1_0.Buffer{entry.buffer}, []int{offset})
}

func (d *Device) CmdBindIndexBuffer(cb gpu.CommandBuffer, buffer gpu.Buffer, offset int, indexType gpu.IndexType) {
	entry, _ := d.buffers.get(uint64(buffer))
	d.driver.CmdBindIndexBuffer(d.cb(cb), entry.buffer, offset, vkIndexType(indexType))
}

func (d *Device) CmdDraw(cb gpu.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int) {
	d.driver.CmdDraw(d.cb(cb), vertexCount, instanceCount, uint32(firstVertex), uint32(firstInstance))
}

func (d *Device) CmdDrawIndexed(cb gpu.CommandBuffer, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	d.driver.CmdDrawIndexed(d.cb(cb), indexCount, instanceCount, uint32(firstIndex), vertexOffset, uint32(firstInstance))
}
