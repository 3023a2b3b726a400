package render

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// BloomConfig configures a BloomPostProcessor.
type BloomConfig struct {
	// Levels is the number of downsample and upsample iterations.
	Levels int
	// Format of every target in the chain, normally the HDR format.
	Format    gpu.Format
	Threshold float32
	Strength  float32
	Shaders   ShaderSet
}

func (c *Config) bloomConfig() BloomConfig {
	return BloomConfig{
		Levels:    c.BloomLevels,
		Format:    c.HDRFormat,
		Threshold: c.BloomThreshold,
		Strength:  c.BloomStrength,
		Shaders:   c.Shaders,
	}
}

// DownsampleExtents returns the extent of each downsample level: level i is
// extent halved i+1 times, each dimension floored and clamped to 1.
func DownsampleExtents(extent gpu.Extent2D, levels int) []gpu.Extent2D {
	extents := make([]gpu.Extent2D, levels)
	for i := range extents {
		extent = extent.Half()
		extents[i] = extent
	}
	return extents
}

// UpsampleExtents returns the extent of each upsample level, which mirrors
// downsample level levels-1-i.
func UpsampleExtents(extent gpu.Extent2D, levels int) []gpu.Extent2D {
	down := DownsampleExtents(extent, levels)
	up := make([]gpu.Extent2D, levels)
	for i := range up {
		up[i] = down[levels-1-i]
	}
	return up
}

type bloomPush struct {
	Value float32
	_     [3]float32
}

// bloomStage is one full-screen draw of the chain: the target it writes,
// the framebuffer binding it, and the descriptor set of its inputs.
type bloomStage struct {
	name        string
	target      *RenderTarget
	framebuffer *Framebuffer
	set         gpu.DescriptorSet
}

func (s *bloomStage) release(device gpu.Device) {
	s.framebuffer.Destroy(device)
	s.target.Destroy(device)
	s.framebuffer = nil
	s.target = nil
}

// BloomPostProcessor isolates the bright parts of an HDR image, blurs them
// through a chain of half-resolution targets and merges the blur back into
// the image. It owns every target, framebuffer, pipeline and descriptor it
// uses.
//
// The chain is sized from the extent given to NewBloomPostProcessor and
// Recreate. After either, and whenever the HDR input is replaced,
// ConnectImageResource must be called before Apply.
type BloomPostProcessor struct {
	ctx    *RenderContext
	cfg    BloomConfig
	extent gpu.Extent2D

	pass       *RenderPass
	pool       gpu.DescriptorPool
	sampler    gpu.Sampler
	oneInput   gpu.DescriptorSetLayout
	twoInputs  gpu.DescriptorSetLayout
	brightness *Pipeline
	downsample *Pipeline
	upsample   *Pipeline
	merge      *Pipeline

	isolation bloomStage
	down      []bloomStage
	up        []bloomStage
	composite bloomStage

	input     *RenderTarget
	connected bool
}

// NewBloomPostProcessor builds the chain for a full-resolution extent.
func NewBloomPostProcessor(ctx *RenderContext, cfg BloomConfig, extent gpu.Extent2D) (*BloomPostProcessor, error) {
	if cfg.Levels < 1 || cfg.Levels > MaxBloomLevels {
		return nil, errors.Errorf("bloom: levels must be in [1, %d], got %d", MaxBloomLevels, cfg.Levels)
	}

	b := &BloomPostProcessor{
		ctx:       ctx,
		cfg:       cfg,
		isolation: bloomStage{name: "bloom-isolate"},
		composite: bloomStage{name: "bloom-merge"},
		down:      make([]bloomStage, cfg.Levels),
		up:        make([]bloomStage, cfg.Levels),
	}
	for i := range b.down {
		b.down[i].name = fmt.Sprintf("bloom-down-%d", i)
		b.up[i].name = fmt.Sprintf("bloom-up-%d", i)
	}

	if err := b.setup(); err != nil {
		b.Destroy()
		return nil, err
	}
	if err := b.Recreate(extent); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

// setup creates the size-independent objects.
func (b *BloomPostProcessor) setup() error {
	device := b.ctx.Device
	shaders := b.cfg.Shaders
	var err error

	b.pass, err = NewRenderPass(b.ctx, PostProcessPassConfig("bloom", b.cfg.Format))
	if err != nil {
		return err
	}
	if b.sampler, err = newLinearSampler(device); err != nil {
		return errors.Wrap(err, "bloom")
	}
	if b.oneInput, err = device.CreateDescriptorSetLayout(samplerBindings(1)); err != nil {
		return errors.Wrap(err, "bloom: create descriptor set layout")
	}
	if b.twoInputs, err = device.CreateDescriptorSetLayout(samplerBindings(2)); err != nil {
		return errors.Wrap(err, "bloom: create descriptor set layout")
	}

	pushSize := len(pushBytes(bloomPush{}))
	pipelines := []struct {
		dst      **Pipeline
		name     string
		fragment string
		layout   gpu.DescriptorSetLayout
		push     int
	}{
		{&b.brightness, "bloom-brightness", shaders.BrightnessFrag, b.oneInput, pushSize},
		{&b.downsample, "bloom-downsample", shaders.DownsampleFrag, b.oneInput, 0},
		{&b.upsample, "bloom-upsample", shaders.UpsampleFrag, b.twoInputs, 0},
		{&b.merge, "bloom-merge", shaders.MergeFrag, b.twoInputs, pushSize},
	}
	for _, p := range pipelines {
		cfg := FullscreenPipelineConfig(p.name, b.pass, shaders, p.fragment, p.layout, p.push)
		if *p.dst, err = NewPipeline(b.ctx, cfg); err != nil {
			return err
		}
	}

	var budget descriptorBudget
	budget.add(1+b.cfg.Levels, 1)
	budget.add(b.cfg.Levels+1, 2)
	if b.pool, err = budget.pool(device); err != nil {
		return errors.Wrap(err, "bloom")
	}

	layouts := []gpu.DescriptorSetLayout{b.oneInput}
	for range b.down {
		layouts = append(layouts, b.oneInput)
	}
	for range b.up {
		layouts = append(layouts, b.twoInputs)
	}
	layouts = append(layouts, b.twoInputs)
	sets, err := device.AllocateDescriptorSets(b.pool, layouts...)
	if err != nil {
		return errors.Wrap(err, "bloom: allocate descriptor sets")
	}
	b.isolation.set = sets[0]
	for i := range b.down {
		b.down[i].set = sets[1+i]
		b.up[i].set = sets[1+b.cfg.Levels+i]
	}
	b.composite.set = sets[len(sets)-1]
	return nil
}

func (b *BloomPostProcessor) stages() []*bloomStage {
	stages := make([]*bloomStage, 0, 2+2*len(b.down))
	stages = append(stages, &b.isolation)
	for i := range b.down {
		stages = append(stages, &b.down[i])
	}
	for i := range b.up {
		stages = append(stages, &b.up[i])
	}
	return append(stages, &b.composite)
}

// Release destroys the size-dependent targets and framebuffers.
// Descriptor sets and pipelines are kept for Recreate.
func (b *BloomPostProcessor) Release() {
	for _, s := range b.stages() {
		s.release(b.ctx.Device)
	}
	b.connected = false
}

// Recreate rebuilds the chain for a new full-resolution extent and rewires
// the internal inputs. The HDR input must be reconnected afterwards.
func (b *BloomPostProcessor) Recreate(extent gpu.Extent2D) error {
	b.Release()
	b.extent = extent

	downExtents := DownsampleExtents(extent, b.cfg.Levels)
	upExtents := UpsampleExtents(extent, b.cfg.Levels)

	create := func(s *bloomStage, extent gpu.Extent2D) error {
		var err error
		s.target, err = NewRenderTarget(b.ctx, TargetDesc{Name: s.name, Extent: extent, Format: b.cfg.Format, Sampled: true})
		if err != nil {
			return errors.Wrap(err, "bloom")
		}
		s.framebuffer, err = NewFramebuffer(b.ctx, b.pass, s.target)
		return errors.Wrap(err, "bloom")
	}

	if err := create(&b.isolation, extent); err != nil {
		return err
	}
	for i := range b.down {
		if err := create(&b.down[i], downExtents[i]); err != nil {
			return err
		}
	}
	for i := range b.up {
		if err := create(&b.up[i], upExtents[i]); err != nil {
			return err
		}
	}
	if err := create(&b.composite, extent); err != nil {
		return err
	}

	return b.connectChain()
}

// connectChain writes the descriptor sets of the downsample and upsample
// stages, whose inputs are all owned by the chain.
func (b *BloomPostProcessor) connectChain() error {
	device := b.ctx.Device
	k := len(b.down)
	for i := range b.down {
		if err := writeSamplers(device, b.down[i].set, b.sampler, b.downsampleInput(i)); err != nil {
			return errors.Wrapf(err, "bloom: connect %s", b.down[i].name)
		}
	}
	for i := 0; i < k; i++ {
		low, high := b.UpsampleInputs(i)
		if err := writeSamplers(device, b.up[i].set, b.sampler, low, high); err != nil {
			return errors.Wrapf(err, "bloom: connect %s", b.up[i].name)
		}
	}
	return nil
}

func (b *BloomPostProcessor) downsampleInput(i int) *RenderTarget {
	if i == 0 {
		return b.isolation.target
	}
	return b.down[i-1].target
}

// UpsampleInputs returns the two targets read by upsample level i. Level 0
// reads the two smallest downsample outputs, falling back to the isolation
// output for a single-level chain. Level i > 0 reads the previous upsample
// output and downsample level K-1-i.
func (b *BloomPostProcessor) UpsampleInputs(i int) (*RenderTarget, *RenderTarget) {
	k := len(b.down)
	if i == 0 {
		return b.down[k-1].target, b.downsampleInput(k - 1)
	}
	return b.up[i-1].target, b.down[k-1-i].target
}

// ConnectImageResource binds hdr as the input of the isolation and merge
// stages. It must be called again whenever hdr is replaced or the chain was
// recreated.
func (b *BloomPostProcessor) ConnectImageResource(hdr *RenderTarget) error {
	if hdr == nil {
		return errors.New("bloom: no input target")
	}
	if hdr.Extent != b.extent {
		return errors.Errorf("bloom: input %s is %s, chain is %s", hdr.Name, hdr.Extent, b.extent)
	}
	device := b.ctx.Device
	if err := writeSamplers(device, b.isolation.set, b.sampler, hdr); err != nil {
		return errors.Wrap(err, "bloom: connect input")
	}
	if err := writeSamplers(device, b.composite.set, b.sampler, hdr, b.up[len(b.up)-1].target); err != nil {
		return errors.Wrap(err, "bloom: connect merge")
	}
	b.input = hdr
	b.connected = true
	return nil
}

// Apply records the whole chain: isolation, K downsamples, K upsamples and
// the merge.
func (b *BloomPostProcessor) Apply(cb gpu.CommandBuffer) error {
	if !b.connected {
		return errors.New("bloom: apply before ConnectImageResource")
	}
	threshold := pushBytes(bloomPush{Value: b.cfg.Threshold})
	strength := pushBytes(bloomPush{Value: b.cfg.Strength})

	b.draw(cb, &b.isolation, b.brightness, threshold)
	for i := range b.down {
		b.draw(cb, &b.down[i], b.downsample, nil)
	}
	for i := range b.up {
		b.draw(cb, &b.up[i], b.upsample, nil)
	}
	b.draw(cb, &b.composite, b.merge, strength)
	return nil
}

func (b *BloomPostProcessor) draw(cb gpu.CommandBuffer, s *bloomStage, pipeline *Pipeline, push []byte) {
	device := b.ctx.Device
	s.framebuffer.Begin(device, cb, [4]float32{})
	pipeline.Bind(cb, s.target.Extent)
	device.CmdBindDescriptorSets(cb, pipeline.Layout, 0, s.set)
	if push != nil {
		device.CmdPushConstants(cb, pipeline.Layout, gpu.StageFragment, 0, push)
	}
	device.CmdDraw(cb, 3, 1, 0, 0)
	device.CmdEndRenderPass(cb)
}

// Output is the merged image, valid until the next Recreate.
func (b *BloomPostProcessor) Output() *RenderTarget {
	return b.composite.target
}

// Levels returns K.
func (b *BloomPostProcessor) Levels() int {
	return len(b.down)
}

// DownsampleTargets returns the downsample chain, largest first.
func (b *BloomPostProcessor) DownsampleTargets() []*RenderTarget {
	targets := make([]*RenderTarget, len(b.down))
	for i := range b.down {
		targets[i] = b.down[i].target
	}
	return targets
}

// UpsampleTargets returns the upsample chain, smallest first.
func (b *BloomPostProcessor) UpsampleTargets() []*RenderTarget {
	targets := make([]*RenderTarget, len(b.up))
	for i := range b.up {
		targets[i] = b.up[i].target
	}
	return targets
}

// Destroy releases everything the processor owns.
func (b *BloomPostProcessor) Destroy() {
	if b == nil {
		return
	}
	device := b.ctx.Device
	b.Release()
	for _, p := range []*Pipeline{b.brightness, b.downsample, b.upsample, b.merge} {
		p.Destroy()
	}
	device.DestroyDescriptorPool(b.pool)
	device.DestroyDescriptorSetLayout(b.oneInput)
	device.DestroyDescriptorSetLayout(b.twoInputs)
	device.DestroySampler(b.sampler)
	b.pass.Destroy(device)
	b.pool, b.oneInput, b.twoInputs, b.sampler = 0, 0, 0, 0
}
