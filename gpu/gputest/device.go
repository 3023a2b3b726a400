// Package gputest provides an in-memory gpu.Device and render.Window for
// tests. The fake device models fences and semaphores closely enough to
// catch misuse: work submitted with a fence stays pending until that fence
// is waited on or the device goes idle, and every violation of the
// synchronization rules is recorded in Violations.
package gputest

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// Command is one recorded command buffer entry. Only the fields relevant
// to Name are set.
type Command struct {
	Name        string
	RenderPass  gpu.RenderPass
	Framebuffer gpu.Framebuffer
	Area        gpu.Rect2D
	Pipeline    gpu.Pipeline
	Layout      gpu.PipelineLayout
	FirstSet    int
	Sets        []gpu.DescriptorSet
	Stages      gpu.ShaderStage
	Offset      int
	Data        []byte
	Buffer      gpu.Buffer
	Count       int
	Viewport    gpu.Viewport
	Scissor     gpu.Rect2D
}

// Result scripts the outcome of one acquire or present.
type Result struct {
	Suboptimal bool
	Err        error
}

type fence struct {
	signaled bool
	pending  bool
}

type pool struct {
	info gpu.DescriptorPoolInfo
	sets int
	used map[gpu.DescriptorType]int
}

type commandBuffer struct {
	recording bool
	commands  []Command
	fence     gpu.Fence
}

// Device is a fake gpu.Device. The zero value is not usable; call
// NewDevice.
type Device struct {
	next uint64
	live map[uint64]string

	Images       map[gpu.Image]gpu.ImageInfo
	Views        map[gpu.ImageView]gpu.ImageViewInfo
	Buffers      map[gpu.Buffer][]byte
	RenderPasses map[gpu.RenderPass]gpu.RenderPassInfo
	Framebuffers map[gpu.Framebuffer]gpu.FramebufferInfo
	Pipelines    map[gpu.Pipeline]gpu.GraphicsPipelineInfo
	// Bindings holds the last write to each binding of each set.
	Bindings map[gpu.DescriptorSet]map[int]gpu.DescriptorWrite

	bufferInfos   map[gpu.Buffer]gpu.BufferInfo
	setLayouts    map[gpu.DescriptorSetLayout][]gpu.DescriptorBinding
	pools         map[gpu.DescriptorPool]*pool
	fences        map[gpu.Fence]*fence
	semaphores    map[gpu.Semaphore]bool
	cbs           map[gpu.CommandBuffer]*commandBuffer
	swapchains    map[gpu.Swapchain][]gpu.Image
	lastAcquired  map[gpu.Swapchain]int
	swapchainSize map[gpu.Swapchain]gpu.Extent2D

	// Log lists device-level operations in call order, e.g.
	// "DestroyFramebuffer" or "CreateSwapchain".
	Log []string
	// Violations lists synchronization and lifetime errors.
	Violations []string

	Submits  []gpu.SubmitInfo
	Acquires []int
	Presents []int
	// Outstanding counts submissions whose fence was not waited on yet.
	Outstanding    int
	MaxOutstanding int

	// ImageCount is the number of images in new swapchains.
	ImageCount int
	// SwapchainFormat is the format of new swapchains.
	SwapchainFormat gpu.Format
	// AcquireResults and PresentResults are consumed one per call; an
	// empty queue succeeds.
	AcquireResults []Result
	PresentResults []Result
	// Fail makes the next call of the named operation return the error.
	Fail map[string]error
}

func NewDevice() *Device {
	return &Device{
		live:            map[uint64]string{},
		Images:          map[gpu.Image]gpu.ImageInfo{},
		Views:           map[gpu.ImageView]gpu.ImageViewInfo{},
		Buffers:         map[gpu.Buffer][]byte{},
		RenderPasses:    map[gpu.RenderPass]gpu.RenderPassInfo{},
		Framebuffers:    map[gpu.Framebuffer]gpu.FramebufferInfo{},
		Pipelines:       map[gpu.Pipeline]gpu.GraphicsPipelineInfo{},
		Bindings:        map[gpu.DescriptorSet]map[int]gpu.DescriptorWrite{},
		bufferInfos:     map[gpu.Buffer]gpu.BufferInfo{},
		setLayouts:      map[gpu.DescriptorSetLayout][]gpu.DescriptorBinding{},
		pools:           map[gpu.DescriptorPool]*pool{},
		fences:          map[gpu.Fence]*fence{},
		semaphores:      map[gpu.Semaphore]bool{},
		cbs:             map[gpu.CommandBuffer]*commandBuffer{},
		swapchains:      map[gpu.Swapchain][]gpu.Image{},
		lastAcquired:    map[gpu.Swapchain]int{},
		swapchainSize:   map[gpu.Swapchain]gpu.Extent2D{},
		ImageCount:      3,
		SwapchainFormat: gpu.FormatB8G8R8A8SRGB,
		Fail:            map[string]error{},
	}
}

var _ gpu.Device = (*Device)(nil)

func (d *Device) violate(format string, args ...any) {
	d.Violations = append(d.Violations, fmt.Sprintf(format, args...))
}

func (d *Device) failure(op string) error {
	if err, ok := d.Fail[op]; ok {
		delete(d.Fail, op)
		return err
	}
	return nil
}

func (d *Device) create(kind string) uint64 {
	d.next++
	d.live[d.next] = kind
	d.Log = append(d.Log, "Create"+kind)
	return d.next
}

func (d *Device) destroy(kind string, handle uint64) bool {
	if handle == 0 {
		return false
	}
	if d.live[handle] != kind {
		d.violate("destroy of dead %s %d", kind, handle)
		return false
	}
	delete(d.live, handle)
	d.Log = append(d.Log, "Destroy"+kind)
	return true
}

func (d *Device) alive(kind string, handle uint64) bool {
	return handle != 0 && d.live[handle] == kind
}

// Live counts the live objects of a kind, e.g. "Framebuffer".
func (d *Device) Live(kind string) int {
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

// Leaks lists the kinds of objects still alive, sorted.
func (d *Device) Leaks() []string {
	var kinds []string
	for _, k := range d.live {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Count returns how often op appears in Log.
func (d *Device) Count(op string) int {
	n := 0
	for _, entry := range d.Log {
		if entry == op {
			n++
		}
	}
	return n
}

// Commands returns what was recorded into cb since its last begin.
func (d *Device) Commands(cb gpu.CommandBuffer) []Command {
	if c := d.cbs[cb]; c != nil {
		return c.commands
	}
	return nil
}

// CommandNames returns the names of Commands(cb).
func (d *Device) CommandNames(cb gpu.CommandBuffer) []string {
	cmds := d.Commands(cb)
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

// FenceSignaled reports whether the fence is signaled and not pending.
func (d *Device) FenceSignaled(f gpu.Fence) bool {
	fe := d.fences[f]
	return fe != nil && fe.signaled && !fe.pending
}

func (d *Device) CreateImage(info gpu.ImageInfo) (gpu.Image, error) {
	if err := d.failure("CreateImage"); err != nil {
		return 0, err
	}
	if info.Extent.IsZero() {
		return 0, errors.Errorf("create image: zero extent")
	}
	image := gpu.Image(d.create("Image"))
	d.Images[image] = info
	return image, nil
}

func (d *Device) DestroyImage(image gpu.Image) {
	if d.destroy("Image", uint64(image)) {
		delete(d.Images, image)
	}
}

func (d *Device) CreateImageView(info gpu.ImageViewInfo) (gpu.ImageView, error) {
	if err := d.failure("CreateImageView"); err != nil {
		return 0, err
	}
	if !d.alive("Image", uint64(info.Image)) && !d.swapchainImage(info.Image) {
		return 0, errors.Errorf("create image view: image %d is not alive", info.Image)
	}
	view := gpu.ImageView(d.create("ImageView"))
	d.Views[view] = info
	return view, nil
}

func (d *Device) swapchainImage(image gpu.Image) bool {
	for _, images := range d.swapchains {
		for _, i := range images {
			if i == image {
				return true
			}
		}
	}
	return false
}

func (d *Device) DestroyImageView(view gpu.ImageView) {
	if d.destroy("ImageView", uint64(view)) {
		delete(d.Views, view)
	}
}

func (d *Device) CreateBuffer(info gpu.BufferInfo) (gpu.Buffer, error) {
	if err := d.failure("CreateBuffer"); err != nil {
		return 0, err
	}
	buffer := gpu.Buffer(d.create("Buffer"))
	d.Buffers[buffer] = make([]byte, info.Size)
	d.bufferInfos[buffer] = info
	return buffer, nil
}

func (d *Device) DestroyBuffer(buffer gpu.Buffer) {
	if d.destroy("Buffer", uint64(buffer)) {
		delete(d.Buffers, buffer)
		delete(d.bufferInfos, buffer)
	}
}

func (d *Device) WriteBuffer(buffer gpu.Buffer, offset int, data []byte) error {
	if !d.alive("Buffer", uint64(buffer)) {
		return errors.Errorf("write buffer: buffer %d is not alive", buffer)
	}
	if !d.bufferInfos[buffer].HostVisible {
		return errors.Errorf("write buffer: buffer %d is not host visible", buffer)
	}
	mem := d.Buffers[buffer]
	if offset+len(data) > len(mem) {
		return errors.Errorf("write buffer: %d bytes at %d overflow %d", len(data), offset, len(mem))
	}
	copy(mem[offset:], data)
	return nil
}

func (d *Device) CreateRenderPass(info gpu.RenderPassInfo) (gpu.RenderPass, error) {
	if err := d.failure("CreateRenderPass"); err != nil {
		return 0, err
	}
	pass := gpu.RenderPass(d.create("RenderPass"))
	d.RenderPasses[pass] = info
	return pass, nil
}

func (d *Device) DestroyRenderPass(pass gpu.RenderPass) {
	if d.destroy("RenderPass", uint64(pass)) {
		delete(d.RenderPasses, pass)
	}
}

func (d *Device) CreateFramebuffer(info gpu.FramebufferInfo) (gpu.Framebuffer, error) {
	if err := d.failure("CreateFramebuffer"); err != nil {
		return 0, err
	}
	pass, ok := d.RenderPasses[info.RenderPass]
	if !ok {
		return 0, errors.Errorf("create framebuffer: render pass %d is not alive", info.RenderPass)
	}
	if len(info.Attachments) != len(pass.Attachments) {
		return 0, errors.Errorf("create framebuffer: %d views for %d attachments", len(info.Attachments), len(pass.Attachments))
	}
	for _, view := range info.Attachments {
		if !d.alive("ImageView", uint64(view)) {
			return 0, errors.Errorf("create framebuffer: view %d is not alive", view)
		}
	}
	fb := gpu.Framebuffer(d.create("Framebuffer"))
	d.Framebuffers[fb] = info
	return fb, nil
}

func (d *Device) DestroyFramebuffer(fb gpu.Framebuffer) {
	if d.destroy("Framebuffer", uint64(fb)) {
		delete(d.Framebuffers, fb)
	}
}

func (d *Device) CreateShaderModule(code []uint32) (gpu.ShaderModule, error) {
	if err := d.failure("CreateShaderModule"); err != nil {
		return 0, err
	}
	if len(code) == 0 {
		return 0, errors.New("create shader module: empty code")
	}
	return gpu.ShaderModule(d.create("ShaderModule")), nil
}

func (d *Device) DestroyShaderModule(module gpu.ShaderModule) {
	d.destroy("ShaderModule", uint64(module))
}

func (d *Device) CreatePipelineLayout(info gpu.PipelineLayoutInfo) (gpu.PipelineLayout, error) {
	if err := d.failure("CreatePipelineLayout"); err != nil {
		return 0, err
	}
	for _, layout := range info.SetLayouts {
		if !d.alive("DescriptorSetLayout", uint64(layout)) {
			return 0, errors.Errorf("create pipeline layout: set layout %d is not alive", layout)
		}
	}
	return gpu.PipelineLayout(d.create("PipelineLayout")), nil
}

func (d *Device) DestroyPipelineLayout(layout gpu.PipelineLayout) {
	d.destroy("PipelineLayout", uint64(layout))
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineInfo) (gpu.Pipeline, error) {
	if err := d.failure("CreateGraphicsPipeline"); err != nil {
		return 0, err
	}
	if !d.alive("PipelineLayout", uint64(info.Layout)) {
		return 0, errors.Errorf("create pipeline: layout %d is not alive", info.Layout)
	}
	if !d.alive("RenderPass", uint64(info.RenderPass)) {
		return 0, errors.Errorf("create pipeline: render pass %d is not alive", info.RenderPass)
	}
	for _, stage := range info.Stages {
		if !d.alive("ShaderModule", uint64(stage.Module)) {
			return 0, errors.Errorf("create pipeline: shader module %d is not alive", stage.Module)
		}
	}
	if !info.DynamicViewport && (info.Viewport.Width == 0 || info.Viewport.Height == 0) {
		return 0, errors.New("create pipeline: baked viewport is empty")
	}
	pipeline := gpu.Pipeline(d.create("Pipeline"))
	d.Pipelines[pipeline] = info
	return pipeline, nil
}

func (d *Device) DestroyPipeline(pipeline gpu.Pipeline) {
	if d.destroy("Pipeline", uint64(pipeline)) {
		delete(d.Pipelines, pipeline)
	}
}

func (d *Device) CreateDescriptorSetLayout(bindings []gpu.DescriptorBinding) (gpu.DescriptorSetLayout, error) {
	if err := d.failure("CreateDescriptorSetLayout"); err != nil {
		return 0, err
	}
	layout := gpu.DescriptorSetLayout(d.create("DescriptorSetLayout"))
	d.setLayouts[layout] = bindings
	return layout, nil
}

func (d *Device) DestroyDescriptorSetLayout(layout gpu.DescriptorSetLayout) {
	if d.destroy("DescriptorSetLayout", uint64(layout)) {
		delete(d.setLayouts, layout)
	}
}

func (d *Device) CreateDescriptorPool(info gpu.DescriptorPoolInfo) (gpu.DescriptorPool, error) {
	if err := d.failure("CreateDescriptorPool"); err != nil {
		return 0, err
	}
	p := gpu.DescriptorPool(d.create("DescriptorPool"))
	d.pools[p] = &pool{info: info, used: map[gpu.DescriptorType]int{}}
	return p, nil
}

// DestroyDescriptorPool also frees the sets allocated from the pool.
func (d *Device) DestroyDescriptorPool(p gpu.DescriptorPool) {
	if d.destroy("DescriptorPool", uint64(p)) {
		delete(d.pools, p)
	}
}

func (d *Device) AllocateDescriptorSets(p gpu.DescriptorPool, layouts ...gpu.DescriptorSetLayout) ([]gpu.DescriptorSet, error) {
	if err := d.failure("AllocateDescriptorSets"); err != nil {
		return nil, err
	}
	pl := d.pools[p]
	if pl == nil {
		return nil, errors.Errorf("allocate descriptor sets: pool %d is not alive", p)
	}
	if pl.sets+len(layouts) > pl.info.MaxSets {
		return nil, errors.Errorf("allocate descriptor sets: pool exhausted (%d of %d sets)", pl.sets+len(layouts), pl.info.MaxSets)
	}

	need := map[gpu.DescriptorType]int{}
	for _, layout := range layouts {
		bindings, ok := d.setLayouts[layout]
		if !ok {
			return nil, errors.Errorf("allocate descriptor sets: layout %d is not alive", layout)
		}
		for _, b := range bindings {
			need[b.Type] += b.Count
		}
	}
	for typ, n := range need {
		limit := 0
		for _, size := range pl.info.Sizes {
			if size.Type == typ {
				limit += size.Count
			}
		}
		if pl.used[typ]+n > limit {
			return nil, errors.Errorf("allocate descriptor sets: pool out of descriptors of type %d", typ)
		}
	}

	for typ, n := range need {
		pl.used[typ] += n
	}
	pl.sets += len(layouts)
	sets := make([]gpu.DescriptorSet, len(layouts))
	for i := range sets {
		d.next++
		sets[i] = gpu.DescriptorSet(d.next)
		d.Bindings[sets[i]] = map[int]gpu.DescriptorWrite{}
	}
	return sets, nil
}

func (d *Device) UpdateDescriptorSets(writes ...gpu.DescriptorWrite) error {
	for _, w := range writes {
		bound, ok := d.Bindings[w.Set]
		if !ok {
			return errors.Errorf("update descriptor sets: unknown set %d", w.Set)
		}
		switch w.Type {
		case gpu.DescriptorCombinedImageSampler:
			if !d.alive("ImageView", uint64(w.ImageView)) {
				return errors.Errorf("update descriptor sets: view %d is not alive", w.ImageView)
			}
			if !d.alive("Sampler", uint64(w.Sampler)) {
				return errors.Errorf("update descriptor sets: sampler %d is not alive", w.Sampler)
			}
		default:
			if !d.alive("Buffer", uint64(w.Buffer)) {
				return errors.Errorf("update descriptor sets: buffer %d is not alive", w.Buffer)
			}
		}
		bound[w.Binding] = w
	}
	return nil
}

func (d *Device) CreateSampler(info gpu.SamplerInfo) (gpu.Sampler, error) {
	if err := d.failure("CreateSampler"); err != nil {
		return 0, err
	}
	return gpu.Sampler(d.create("Sampler")), nil
}

func (d *Device) DestroySampler(sampler gpu.Sampler) {
	d.destroy("Sampler", uint64(sampler))
}

func (d *Device) AllocateCommandBuffers(count int) ([]gpu.CommandBuffer, error) {
	if err := d.failure("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	buffers := make([]gpu.CommandBuffer, count)
	for i := range buffers {
		buffers[i] = gpu.CommandBuffer(d.create("CommandBuffer"))
		d.cbs[buffers[i]] = &commandBuffer{}
	}
	return buffers, nil
}

func (d *Device) FreeCommandBuffers(buffers ...gpu.CommandBuffer) {
	for _, cb := range buffers {
		if d.destroy("CommandBuffer", uint64(cb)) {
			delete(d.cbs, cb)
		}
	}
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	if err := d.failure("CreateSemaphore"); err != nil {
		return 0, err
	}
	s := gpu.Semaphore(d.create("Semaphore"))
	d.semaphores[s] = false
	return s, nil
}

func (d *Device) DestroySemaphore(s gpu.Semaphore) {
	if d.destroy("Semaphore", uint64(s)) {
		delete(d.semaphores, s)
	}
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	if err := d.failure("CreateFence"); err != nil {
		return 0, err
	}
	f := gpu.Fence(d.create("Fence"))
	d.fences[f] = &fence{signaled: signaled}
	return f, nil
}

func (d *Device) DestroyFence(f gpu.Fence) {
	if fe := d.fences[f]; fe != nil && fe.pending {
		d.violate("destroy of pending fence %d", f)
	}
	if d.destroy("Fence", uint64(f)) {
		delete(d.fences, f)
	}
}

func (d *Device) complete(fe *fence) {
	if fe.pending {
		fe.pending = false
		d.Outstanding--
	}
	fe.signaled = true
}

func (d *Device) WaitForFence(f gpu.Fence) error {
	if err := d.failure("WaitForFence"); err != nil {
		return err
	}
	fe := d.fences[f]
	if fe == nil {
		return errors.Errorf("wait for fence: fence %d is not alive", f)
	}
	if !fe.signaled && !fe.pending {
		return errors.Errorf("wait for fence: fence %d would never signal", f)
	}
	d.complete(fe)
	return nil
}

func (d *Device) ResetFence(f gpu.Fence) error {
	if err := d.failure("ResetFence"); err != nil {
		return err
	}
	fe := d.fences[f]
	if fe == nil {
		return errors.Errorf("reset fence: fence %d is not alive", f)
	}
	if fe.pending {
		d.violate("reset of pending fence %d", f)
	}
	fe.signaled = false
	return nil
}

func (d *Device) BeginCommandBuffer(cb gpu.CommandBuffer) error {
	if err := d.failure("BeginCommandBuffer"); err != nil {
		return err
	}
	c := d.cbs[cb]
	if c == nil {
		return errors.Errorf("begin command buffer: %d is not alive", cb)
	}
	if fe := d.fences[c.fence]; fe != nil && fe.pending {
		d.violate("command buffer %d recorded while its fence %d is pending", cb, c.fence)
	}
	c.recording = true
	c.commands = nil
	return nil
}

func (d *Device) EndCommandBuffer(cb gpu.CommandBuffer) error {
	c := d.cbs[cb]
	if c == nil || !c.recording {
		return errors.Errorf("end command buffer: %d is not recording", cb)
	}
	c.recording = false
	return nil
}

func (d *Device) record(cb gpu.CommandBuffer, cmd Command) {
	c := d.cbs[cb]
	if c == nil || !c.recording {
		d.violate("%s into command buffer %d outside recording", cmd.Name, cb)
		return
	}
	c.commands = append(c.commands, cmd)
}

func (d *Device) CmdBeginRenderPass(cb gpu.CommandBuffer, begin gpu.RenderPassBegin) {
	if !d.alive("Framebuffer", uint64(begin.Framebuffer)) {
		d.violate("begin render pass with dead framebuffer %d", begin.Framebuffer)
	}
	d.record(cb, Command{Name: "BeginRenderPass", RenderPass: begin.RenderPass, Framebuffer: begin.Framebuffer, Area: begin.Area})
}

func (d *Device) CmdEndRenderPass(cb gpu.CommandBuffer) {
	d.record(cb, Command{Name: "EndRenderPass"})
}

func (d *Device) CmdBindPipeline(cb gpu.CommandBuffer, pipeline gpu.Pipeline) {
	if !d.alive("Pipeline", uint64(pipeline)) {
		d.violate("bind of dead pipeline %d", pipeline)
	}
	d.record(cb, Command{Name: "BindPipeline", Pipeline: pipeline})
}

func (d *Device) CmdSetViewport(cb gpu.CommandBuffer, viewport gpu.Viewport) {
	d.record(cb, Command{Name: "SetViewport", Viewport: viewport})
}

func (d *Device) CmdSetScissor(cb gpu.CommandBuffer, scissor gpu.Rect2D) {
	d.record(cb, Command{Name: "SetScissor", Scissor: scissor})
}

func (d *Device) CmdBindDescriptorSets(cb gpu.CommandBuffer, layout gpu.PipelineLayout, firstSet int, sets ...gpu.DescriptorSet) {
	d.record(cb, Command{Name: "BindDescriptorSets", Layout: layout, FirstSet: firstSet, Sets: sets})
}

func (d *Device) CmdPushConstants(cb gpu.CommandBuffer, layout gpu.PipelineLayout, stages gpu.ShaderStage, offset int, data []byte) {
	d.record(cb, Command{Name: "PushConstants", Layout: layout, Stages: stages, Offset: offset, Data: append([]byte(nil), data...)})
}

func (d *Device) CmdBindVertexBuffer(cb gpu.CommandBuffer, buffer gpu.Buffer, offset int) {
	d.record(cb, Command{Name: "BindVertexBuffer", Buffer: buffer, Offset: offset})
}

func (d *Device) CmdBindIndexBuffer(cb gpu.CommandBuffer, buffer gpu.Buffer, offset int, indexType gpu.IndexType) {
	d.record(cb, Command{Name: "BindIndexBuffer", Buffer: buffer, Offset: offset})
}

func (d *Device) CmdDraw(cb gpu.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int) {
	d.record(cb, Command{Name: "Draw", Count: vertexCount})
}

func (d *Device) CmdDrawIndexed(cb gpu.CommandBuffer, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	d.record(cb, Command{Name: "DrawIndexed", Count: indexCount})
}

func (d *Device) Submit(info gpu.SubmitInfo) error {
	if err := d.failure("Submit"); err != nil {
		return err
	}
	c := d.cbs[info.CommandBuffer]
	if c == nil || c.recording {
		return errors.Errorf("submit: command buffer %d is not executable", info.CommandBuffer)
	}
	if info.Wait != 0 {
		if !d.semaphores[info.Wait] {
			d.violate("submit waits on semaphore %d without a pending signal", info.Wait)
		}
		d.semaphores[info.Wait] = false
	}
	if info.Signal != 0 {
		d.semaphores[info.Signal] = true
	}
	if info.Fence != 0 {
		fe := d.fences[info.Fence]
		if fe == nil {
			return errors.Errorf("submit: fence %d is not alive", info.Fence)
		}
		if fe.signaled || fe.pending {
			d.violate("submit with fence %d that was not reset", info.Fence)
		}
		fe.pending = true
		d.Outstanding++
		if d.Outstanding > d.MaxOutstanding {
			d.MaxOutstanding = d.Outstanding
		}
	}
	c.fence = info.Fence
	d.Submits = append(d.Submits, info)
	d.Log = append(d.Log, "Submit")
	return nil
}

// WaitIdle completes all pending work.
func (d *Device) WaitIdle() error {
	if err := d.failure("WaitIdle"); err != nil {
		return err
	}
	for _, fe := range d.fences {
		if fe.pending {
			d.complete(fe)
		}
	}
	d.Log = append(d.Log, "WaitIdle")
	return nil
}

func (d *Device) CreateSwapchain(info gpu.SwapchainInfo) (gpu.SwapchainImages, error) {
	if err := d.failure("CreateSwapchain"); err != nil {
		return gpu.SwapchainImages{}, err
	}
	if info.Extent.IsZero() {
		return gpu.SwapchainImages{}, errors.New("create swapchain: zero extent")
	}
	if info.Old != 0 && !d.alive("Swapchain", uint64(info.Old)) {
		return gpu.SwapchainImages{}, errors.Errorf("create swapchain: old swapchain %d is not alive", info.Old)
	}
	sc := gpu.Swapchain(d.create("Swapchain"))
	images := make([]gpu.Image, d.ImageCount)
	for i := range images {
		d.next++
		images[i] = gpu.Image(d.next)
	}
	d.swapchains[sc] = images
	d.swapchainSize[sc] = info.Extent
	d.lastAcquired[sc] = -1
	return gpu.SwapchainImages{Swapchain: sc, Images: images, Format: d.SwapchainFormat, Extent: info.Extent}, nil
}

func (d *Device) DestroySwapchain(sc gpu.Swapchain) {
	if d.destroy("Swapchain", uint64(sc)) {
		delete(d.swapchains, sc)
		delete(d.swapchainSize, sc)
		delete(d.lastAcquired, sc)
	}
}

// AcquireNextImage hands out images round-robin.
func (d *Device) AcquireNextImage(sc gpu.Swapchain, signal gpu.Semaphore) (int, bool, error) {
	if !d.alive("Swapchain", uint64(sc)) {
		return 0, false, errors.Errorf("acquire: swapchain %d is not alive", sc)
	}
	var result Result
	if len(d.AcquireResults) > 0 {
		result, d.AcquireResults = d.AcquireResults[0], d.AcquireResults[1:]
	}
	if result.Err != nil {
		d.Log = append(d.Log, "AcquireFailed")
		return 0, false, result.Err
	}

	if d.semaphores[signal] {
		d.violate("acquire signals semaphore %d that already has a pending signal", signal)
	}
	d.semaphores[signal] = true
	index := (d.lastAcquired[sc] + 1) % len(d.swapchains[sc])
	d.lastAcquired[sc] = index
	d.Acquires = append(d.Acquires, index)
	d.Log = append(d.Log, "Acquire")
	return index, result.Suboptimal, nil
}

func (d *Device) Present(sc gpu.Swapchain, imageIndex int, wait gpu.Semaphore) (bool, error) {
	if !d.alive("Swapchain", uint64(sc)) {
		return false, errors.Errorf("present: swapchain %d is not alive", sc)
	}
	if !d.semaphores[wait] {
		d.violate("present waits on semaphore %d without a pending signal", wait)
	}
	d.semaphores[wait] = false

	var result Result
	if len(d.PresentResults) > 0 {
		result, d.PresentResults = d.PresentResults[0], d.PresentResults[1:]
	}
	d.Presents = append(d.Presents, imageIndex)
	d.Log = append(d.Log, "Present")
	return result.Suboptimal, result.Err
}
