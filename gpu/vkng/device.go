package vkng

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/log"
)

// DeviceOptions configures logical device creation.
type DeviceOptions struct {
	// PhysicalDevice is the index reported by EnumerateDevices, or -1 to
	// prefer the first suitable discrete GPU.
	PhysicalDevice int
	Requirements   Requirements
	Logger         log.Logger
}

type imageEntry struct {
	image  core1_0.Image
	memory core1_0.DeviceMemory
}

type bufferEntry struct {
	buffer core1_0.Buffer
	memory core1_0.DeviceMemory
	mapped []byte
}

type setEntry struct {
	set  core1_0.DescriptorSet
	pool gpu.DescriptorPool
}

type swapchainEntry struct {
	swapchain khr_swapchain.Swapchain
	images    []gpu.Image
}

// Device implements gpu.Device with a single graphics queue that also
// presents. It is not safe for concurrent use.
type Device struct {
	inst     *Instance
	logger   log.Logger
	info     DeviceInfo
	physical core1_0.PhysicalDevice
	family   int

	driver       core1_0.CoreDeviceDriver
	queue        core1_0.Queue
	swapchainExt khr_swapchain.ExtensionDriver
	commandPool  core1_0.CommandPool
	memory       *core1_0.PhysicalDeviceMemoryProperties

	images          *table[imageEntry]
	views           *table[core1_0.ImageView]
	buffers         *table[bufferEntry]
	renderPasses    *table[core1_0.RenderPass]
	framebuffers    *table[core1_0.Framebuffer]
	shaders         *table[core1_0.ShaderModule]
	pipelineLayouts *table[core1_0.PipelineLayout]
	pipelines       *table[core1_0.Pipeline]
	setLayouts      *table[core1_0.DescriptorSetLayout]
	pools           *table[core1_0.DescriptorPool]
	sets            *table[setEntry]
	samplers        *table[core1_0.Sampler]
	commandBuffers  *table[core1_0.CommandBuffer]
	semaphores      *table[core1_0.Semaphore]
	fences          *table[core1_0.Fence]
	swapchains      *table[swapchainEntry]
}

var _ gpu.Device = (*Device)(nil)

// Open picks a physical device and creates the logical device, its queue
// and a command pool whose buffers can be reset individually.
func Open(inst *Instance, opts DeviceOptions) (*Device, error) {
	if opts.Logger == nil {
		opts.Logger = inst.logger
	}
	c, err := inst.pick(opts.Requirements, opts.PhysicalDevice)
	if err != nil {
		return nil, err
	}
	opts.Logger.Infof("using %s (%s, driver %s)", c.info.Name, c.info.Type, c.info.DriverVersion)

	d := &Device{
		inst:            inst,
		logger:          opts.Logger,
		info:            c.info,
		physical:        c.device,
		family:          c.queueFamily,
		images:          newTable[imageEntry](),
		views:           newTable[core1_0.ImageView](),
		buffers:         newTable[bufferEntry](),
		renderPasses:    newTable[core1_0.RenderPass](),
		framebuffers:    newTable[core1_0.Framebuffer](),
		shaders:         newTable[core1_0.ShaderModule](),
		pipelineLayouts: newTable[core1_0.PipelineLayout](),
		pipelines:       newTable[core1_0.Pipeline](),
		setLayouts:      newTable[core1_0.DescriptorSetLayout](),
		pools:           newTable[core1_0.DescriptorPool](),
		sets:            newTable[setEntry](),
		samplers:        newTable[core1_0.Sampler](),
		commandBuffers:  newTable[core1_0.CommandBuffer](),
		semaphores:      newTable[core1_0.Semaphore](),
		fences:          newTable[core1_0.Fence](),
		swapchains:      newTable[swapchainEntry](),
	}
	d.memory = inst.instanceDriver.GetPhysicalDeviceMemoryProperties(c.device)

	extensionNames := []string{khr_swapchain.ExtensionName}
	extensions, _, err := inst.instanceDriver.EnumerateDeviceExtensionProperties(c.device)
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}
	if _, ok := extensions[khr_portability_subset.ExtensionName]; ok {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	device, _, err := inst.instanceDriver.CreateDevice(c.device, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: []core1_0.DeviceQueueCreateInfo{
			{
				QueueFamilyIndex: c.queueFamily,
				QueuePriorities:  []float32{1.0},
			},
		},
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			GeometryShader: opts.Requirements.GeometryShader,
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create device")
	}
	d.driver, err = inst.instanceDriver.BuildDeviceDriver(device)
	if err != nil {
		return nil, errors.Wrap(err, "build device driver")
	}

	d.queue = d.driver.GetQueue(c.queueFamily, 0)
	d.swapchainExt = khr_swapchain.CreateExtensionDriverFromCoreDriver(d.driver)

	d.commandPool, _, err = d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: c.queueFamily,
	})
	if err != nil {
		d.driver.DestroyDevice(nil)
		return nil, errors.Wrap(err, "create command pool")
	}
	return d, nil
}

// Info describes the physical device the Device was opened on.
func (d *Device) Info() DeviceInfo {
	return d.info
}

// Close waits for the device to go idle, reports leaked objects and
// destroys the command pool and the device.
func (d *Device) Close() {
	if d.driver == nil {
		return
	}
	if _, err := d.driver.DeviceWaitIdle(); err != nil {
		d.logger.Errorf("wait idle before close: %v", err)
	}

	leaks := map[string]int{
		"image":                 d.images.len(),
		"image view":            d.views.len(),
		"buffer":                d.buffers.len(),
		"render pass":           d.renderPasses.len(),
		"framebuffer":           d.framebuffers.len(),
		"pipeline":              d.pipelines.len(),
		"pipeline layout":       d.pipelineLayouts.len(),
		"descriptor set layout": d.setLayouts.len(),
		"descriptor pool":       d.pools.len(),
		"sampler":               d.samplers.len(),
		"semaphore":             d.semaphores.len(),
		"fence":                 d.fences.len(),
		"swapchain":             d.swapchains.len(),
	}
	for kind, n := range leaks {
		if n > 0 {
			d.logger.Warningf("%d %s objects still alive at device close", n, kind)
		}
	}

	d.driver.DestroyCommandPool(d.commandPool, nil)
	d.driver.DestroyDevice(nil)
	d.driver = nil
}

func mapResult(res common.VkResult, err error) error {
	if err == nil {
		return nil
	}
	if res == core1_0.VKErrorDeviceLost {
		return errors.Mark(err, gpu.ErrDeviceLost)
	}
	return err
}

func (d *Device) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range d.memory.MemoryTypes {
		typeBit := uint32(1 << i)
		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}
	return 0, errors.Errorf("failed to find any suitable memory type")
}

func (d *Device) allocate(requirements *core1_0.MemoryRequirements, properties core1_0.MemoryPropertyFlags) (core1_0.DeviceMemory, error) {
	memoryType, err := d.findMemoryType(requirements.MemoryTypeBits, properties)
	if err != nil {
		return core1_0.DeviceMemory{}, err
	}
	memory, _, err := d.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	})
	return memory, errors.Wrap(err, "allocate memory")
}

func (d *Device) CreateImage(info gpu.ImageInfo) (gpu.Image, error) {
	var flags core1_0.ImageCreateFlags
	if info.CubeCompatible {
		flags |= core1_0.ImageCreateCubeCompatible
	}
	image, _, err := d.driver.CreateImage(nil, core1_0.ImageCreateInfo{
		Flags:     flags,
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  1,
		},
		MipLevels:     max(info.MipLevels, 1),
		ArrayLayers:   max(info.ArrayLayers, 1),
		Format:        vkFormat(info.Format),
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         vkImageUsage(info.Usage),
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create image")
	}

	memory, err := d.allocate(d.driver.GetImageMemoryRequirements(image), core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		d.driver.DestroyImage(image, nil)
		return 0, err
	}
	if _, err := d.driver.BindImageMemory(image, memory, 0); err != nil {
		d.driver.FreeMemory(memory, nil)
		d.driver.DestroyImage(image, nil)
		return 0, errors.Wrap(err, "bind image memory")
	}
	return gpu.Image(d.images.add(imageEntry{image: image, memory: memory})), nil
}

// DestroyImage frees the image and its memory. Swapchain images are owned
// by their swapchain and ignored.
func (d *Device) DestroyImage(image gpu.Image) {
	entry, ok := d.images.get(uint64(image))
	if !ok || !entry.memory.Initialized() {
		return
	}
	d.images.remove(uint64(image))
	d.driver.DestroyImage(entry.image, nil)
	d.driver.FreeMemory(entry.memory, nil)
}

func (d *Device) CreateImageView(info gpu.ImageViewInfo) (gpu.ImageView, error) {
	entry, ok := d.images.get(uint64(info.Image))
	if !ok {
		return 0, errors.Errorf("create image view: unknown image %d", info.Image)
	}
	view, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    entry.image,
		ViewType: vkViewType(info.ViewType),
		Format:   vkFormat(info.Format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     vkAspect(info.Aspect),
			BaseMipLevel:   info.BaseMipLevel,
			LevelCount:     max(info.MipLevels, 1),
			BaseArrayLayer: info.BaseArrayLayer,
			LayerCount:     max(info.LayerCount, 1),
		},
	})
	if err != nil {
		return 0, errors.Wrap(err, "create image view")
	}
	return gpu.ImageView(d.views.add(view)), nil
}

func (d *Device) DestroyImageView(view gpu.ImageView) {
	if v, ok := d.views.remove(uint64(view)); ok {
		d.driver.DestroyImageView(v, nil)
	}
}

func (d *Device) CreateBuffer(info gpu.BufferInfo) (gpu.Buffer, error) {
	buffer, _, err := d.driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        info.Size,
		Usage:       vkBufferUsage(info.Usage),
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create buffer")
	}

	properties := core1_0.MemoryPropertyDeviceLocal
	if info.HostVisible {
		properties = core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent
	}
	memory, err := d.allocate(d.driver.GetBufferMemoryRequirements(buffer), properties)
	if err != nil {
		d.driver.DestroyBuffer(buffer, nil)
		return 0, err
	}
	entry := bufferEntry{buffer: buffer, memory: memory}
	release := func() {
		d.driver.FreeMemory(memory, nil)
		d.driver.DestroyBuffer(buffer, nil)
	}
	if _, err := d.driver.BindBufferMemory(buffer, memory, 0); err != nil {
		release()
		return 0, errors.Wrap(err, "bind buffer memory")
	}

	if info.HostVisible {
		ptr, _, err := d.driver.MapMemory(memory, 0, info.Size, 0)
		if err != nil {
			release()
			return 0, errors.Wrap(err, "map buffer memory")
		}
		entry.mapped = unsafe.Slice((*byte)(ptr), info.Size)
	}
	return gpu.Buffer(d.buffers.add(entry)), nil
}

func (d *Device) DestroyBuffer(buffer gpu.Buffer) {
	entry, ok := d.buffers.remove(uint64(buffer))
	if !ok {
		return
	}
	if entry.mapped != nil {
		d.driver.UnmapMemory(entry.memory)
	}
	d.driver.DestroyBuffer(entry.buffer, nil)
	d.driver.FreeMemory(entry.memory, nil)
}

func (d *Device) WriteBuffer(buffer gpu.Buffer, offset int, data []byte) error {
	entry, ok := d.buffers.get(uint64(buffer))
	if !ok {
		return errors.Errorf("write buffer: unknown buffer %d", buffer)
	}
	if entry.mapped == nil {
		return errors.Errorf("write buffer: buffer %d is not host visible", buffer)
	}
	if offset < 0 || offset+len(data) > len(entry.mapped) {
		return errors.Errorf("write buffer: %d bytes at %d overflow buffer of %d bytes", len(data), offset, len(entry.mapped))
	}
	copy(entry.mapped[offset:], data)
	return nil
}

func (d *Device) CreateRenderPass(info gpu.RenderPassInfo) (gpu.RenderPass, error) {
	create := core1_0.RenderPassCreateInfo{}
	for _, a := range info.Attachments {
		create.Attachments = append(create.Attachments, core1_0.AttachmentDescription{
			Format:         vkFormat(a.Format),
			Samples:        core1_0.Samples1,
			LoadOp:         vkLoadOp(a.LoadOp),
			StoreOp:        vkStoreOp(a.StoreOp),
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  vkLayout(a.InitialLayout),
			FinalLayout:    vkLayout(a.FinalLayout),
		})
	}

	subpass := core1_0.SubpassDescription{PipelineBindPoint: core1_0.PipelineBindPointGraphics}
	for _, index := range info.ColorAttachments {
		subpass.ColorAttachments = append(subpass.ColorAttachments, core1_0.AttachmentReference{
			Attachment: index,
			Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
		})
	}
	if info.DepthAttachment != gpu.NoAttachment {
		subpass.DepthStencilAttachment = &core1_0.AttachmentReference{
			Attachment: info.DepthAttachment,
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}
	create.Subpasses = []core1_0.SubpassDescription{subpass}

	for _, dep := range info.Dependencies {
		create.SubpassDependencies = append(create.SubpassDependencies, core1_0.SubpassDependency{
			SrcSubpass:    vkSubpass(dep.SrcSubpass),
			DstSubpass:    vkSubpass(dep.DstSubpass),
			SrcStageMask:  vkPipelineStages(dep.SrcStage),
			DstStageMask:  vkPipelineStages(dep.DstStage),
			SrcAccessMask: vkAccess(dep.SrcAccess),
			DstAccessMask: vkAccess(dep.DstAccess),
		})
	}

	pass, _, err := d.driver.CreateRenderPass(nil, create)
	if err != nil {
		return 0, errors.Wrap(err, "create render pass")
	}
	return gpu.RenderPass(d.renderPasses.add(pass)), nil
}

func (d *Device) DestroyRenderPass(pass gpu.RenderPass) {
	if p, ok := d.renderPasses.remove(uint64(pass)); ok {
		d.driver.DestroyRenderPass(p, nil)
	}
}

func (d *Device) CreateFramebuffer(info gpu.FramebufferInfo) (gpu.Framebuffer, error) {
	pass, ok := d.renderPasses.get(uint64(info.RenderPass))
	if !ok {
		return 0, errors.Errorf("create framebuffer: unknown render pass %d", info.RenderPass)
	}
	attachments := make([]core1_0.ImageView, 0, len(info.Attachments))
	for _, view := range info.Attachments {
		v, ok := d.views.get(uint64(view))
		if !ok {
			return 0, errors.Errorf("create framebuffer: unknown image view %d", view)
		}
		attachments = append(attachments, v)
	}

	framebuffer, _, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  pass,
		Layers:      max(info.Layers, 1),
		Attachments: attachments,
		Width:       info.Extent.Width,
		Height:      info.Extent.Height,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create framebuffer")
	}
	return gpu.Framebuffer(d.framebuffers.add(framebuffer)), nil
}

func (d *Device) DestroyFramebuffer(framebuffer gpu.Framebuffer) {
	if f, ok := d.framebuffers.remove(uint64(framebuffer)); ok {
		d.driver.DestroyFramebuffer(f, nil)
	}
}

func (d *Device) CreateShaderModule(code []uint32) (gpu.ShaderModule, error) {
	module, _, err := d.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{Code: code})
	if err != nil {
		return 0, errors.Wrap(err, "create shader module")
	}
	return gpu.ShaderModule(d.shaders.add(module)), nil
}

func (d *Device) DestroyShaderModule(module gpu.ShaderModule) {
	if m, ok := d.shaders.remove(uint64(module)); ok {
		d.driver.DestroyShaderModule(m, nil)
	}
}

func (d *Device) CreatePipelineLayout(info gpu.PipelineLayoutInfo) (gpu.PipelineLayout, error) {
	create := core1_0.PipelineLayoutCreateInfo{}
	for _, l := range info.SetLayouts {
		layout, ok := d.setLayouts.get(uint64(l))
		if !ok {
			return 0, errors.Errorf("create pipeline layout: unknown descriptor set layout %d", l)
		}
		create.SetLayouts = append(create.SetLayouts, layout)
	}
	for _, r := range info.PushConstants {
		create.PushConstantRanges = append(create.PushConstantRanges, core1_0.PushConstantRange{
			StageFlags: vkShaderStages(r.Stages),
			Offset:     r.Offset,
			Size:       r.Size,
		})
	}

	layout, _, err := d.driver.CreatePipelineLayout(nil, create)
	if err != nil {
		return 0, errors.Wrap(err, "create pipeline layout")
	}
	return gpu.PipelineLayout(d.pipelineLayouts.add(layout)), nil
}

func (d *Device) DestroyPipelineLayout(layout gpu.PipelineLayout) {
	if l, ok := d.pipelineLayouts.remove(uint64(layout)); ok {
		d.driver.DestroyPipelineLayout(l, nil)
	}
}

func (d *Device) DestroyPipeline(pipeline gpu.Pipeline) {
	if p, ok := d.pipelines.remove(uint64(pipeline)); ok {
		d.driver.DestroyPipeline(p, nil)
	}
}

func (d *Device) CreateDescriptorSetLayout(bindings []gpu.DescriptorBinding) (gpu.DescriptorSetLayout, error) {
	create := core1_0.DescriptorSetLayoutCreateInfo{}
	for _, b := range bindings {
		create.Bindings = append(create.Bindings, core1_0.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  vkDescriptorType(b.Type),
			DescriptorCount: max(b.Count, 1),
			StageFlags:      vkShaderStages(b.Stages),
		})
	}
	layout, _, err := d.driver.CreateDescriptorSetLayout(nil, create)
	if err != nil {
		return 0, errors.Wrap(err, "create descriptor set layout")
	}
	return gpu.DescriptorSetLayout(d.setLayouts.add(layout)), nil
}

func (d *Device) DestroyDescriptorSetLayout(layout gpu.DescriptorSetLayout) {
	if l, ok := d.setLayouts.remove(uint64(layout)); ok {
		d.driver.DestroyDescriptorSetLayout(l, nil)
	}
}

func (d *Device) CreateDescriptorPool(info gpu.DescriptorPoolInfo) (gpu.DescriptorPool, error) {
	create := core1_0.DescriptorPoolCreateInfo{MaxSets: info.MaxSets}
	for _, size := range info.Sizes {
		create.PoolSizes = append(create.PoolSizes, core1_0.DescriptorPoolSize{
			Type:            vkDescriptorType(size.Type),
			DescriptorCount: size.Count,
		})
	}
	pool, _, err := d.driver.CreateDescriptorPool(nil, create)
	if err != nil {
		return 0, errors.Wrap(err, "create descriptor pool")
	}
	return gpu.DescriptorPool(d.pools.add(pool)), nil
}

// DestroyDescriptorPool destroys the pool and forgets every set allocated
// from it.
func (d *Device) DestroyDescriptorPool(pool gpu.DescriptorPool) {
	p, ok := d.pools.remove(uint64(pool))
	if !ok {
		return
	}
	for h, entry := range d.sets.items {
		if entry.pool == pool {
			delete(d.sets.items, h)
		}
	}
	d.driver.DestroyDescriptorPool(p, nil)
}

func (d *Device) AllocateDescriptorSets(pool gpu.DescriptorPool, layouts ...gpu.DescriptorSetLayout) ([]gpu.DescriptorSet, error) {
	p, ok := d.pools.get(uint64(pool))
	if !ok {
		return nil, errors.Errorf("allocate descriptor sets: unknown pool %d", pool)
	}
	allocLayouts := make([]core1_0.DescriptorSetLayout, 0, len(layouts))
	for _, l := range layouts {
		layout, ok := d.setLayouts.get(uint64(l))
		if !ok {
			return nil, errors.Errorf("allocate descriptor sets: unknown layout %d", l)
		}
		allocLayouts = append(allocLayouts, layout)
	}

	sets, _, err := d.driver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: p,
		SetLayouts:     allocLayouts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate descriptor sets")
	}
	handles := make([]gpu.DescriptorSet, len(sets))
	for i, set := range sets {
		handles[i] = gpu.DescriptorSet(d.sets.add(setEntry{set: set, pool: pool}))
	}
	return handles, nil
}

func (d *Device) UpdateDescriptorSets(writes ...gpu.DescriptorWrite) error {
	vkWrites := make([]core1_0.WriteDescriptorSet, 0, len(writes))
	for _, w := range writes {
		set, ok := d.sets.get(uint64(w.Set))
		if !ok {
			return errors.Errorf("update descriptor sets: unknown set %d", w.Set)
		}
		write := core1_0.WriteDescriptorSet{
			DstSet:         set.set,
			DstBinding:     w.Binding,
			DescriptorType: vkDescriptorType(w.Type),
		}

		if w.Type == gpu.DescriptorCombinedImageSampler {
			view, ok := d.views.get(uint64(w.ImageView))
			if !ok {
				return errors.Errorf("update descriptor sets: unknown image view %d", w.ImageView)
			}
			sampler, ok := d.samplers.get(uint64(w.Sampler))
			if !ok {
				return errors.Errorf("update descriptor sets: unknown sampler %d", w.Sampler)
			}
			write.ImageInfo = []core1_0.DescriptorImageInfo{
				{Sampler: sampler, ImageView: view, ImageLayout: vkLayout(w.Layout)},
			}
		} else {
			buffer, ok := d.buffers.get(uint64(w.Buffer))
			if !ok {
				return errors.Errorf("update descriptor sets: unknown buffer %d", w.Buffer)
			}
			write.BufferInfo = []core1_0.DescriptorBufferInfo{
				{Buffer: buffer.buffer, Offset: w.Offset, Range: w.Range},
			}
		}
		vkWrites = append(vkWrites, write)
	}
	return errors.Wrap(d.driver.UpdateDescriptorSets(vkWrites, nil), "update descriptor sets")
}

func (d *Device) CreateSampler(info gpu.SamplerInfo) (gpu.Sampler, error) {
	filter := vkFilter(info.Filter)
	mode := vkAddressMode(info.AddressMode)
	mipmap := core1_0.SamplerMipmapModeLinear
	if info.Filter == gpu.FilterNearest {
		mipmap = core1_0.SamplerMipmapModeNearest
	}

	sampler, _, err := d.driver.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    filter,
		MinFilter:    filter,
		AddressModeU: mode,
		AddressModeV: mode,
		AddressModeW: mode,
		BorderColor:  core1_0.BorderColorFloatOpaqueWhite,
		MipmapMode:   mipmap,
		MinLod:       0,
		MaxLod:       info.MaxLod,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create sampler")
	}
	return gpu.Sampler(d.samplers.add(sampler)), nil
}

func (d *Device) DestroySampler(sampler gpu.Sampler) {
	if s, ok := d.samplers.remove(uint64(sampler)); ok {
		d.driver.DestroySampler(s, nil)
	}
}

func (d *Device) AllocateCommandBuffers(count int) ([]gpu.CommandBuffer, error) {
	buffers, _, err := d.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}
	handles := make([]gpu.CommandBuffer, len(buffers))
	for i, cb := range buffers {
		handles[i] = gpu.CommandBuffer(d.commandBuffers.add(cb))
	}
	return handles, nil
}

func (d *Device) FreeCommandBuffers(buffers ...gpu.CommandBuffer) {
	var free []core1_0.CommandBuffer
	for _, h := range buffers {
		if cb, ok := d.commandBuffers.remove(uint64(h)); ok {
			free = append(free, cb)
		}
	}
	if len(free) > 0 {
		d.driver.FreeCommandBuffers(free...)
	}
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	semaphore, _, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return 0, errors.Wrap(err, "create semaphore")
	}
	return gpu.Semaphore(d.semaphores.add(semaphore)), nil
}

func (d *Device) DestroySemaphore(semaphore gpu.Semaphore) {
	if s, ok := d.semaphores.remove(uint64(semaphore)); ok {
		d.driver.DestroySemaphore(s, nil)
	}
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	var flags core1_0.FenceCreateFlags
	if signaled {
		flags = core1_0.FenceCreateSignaled
	}
	fence, _, err := d.driver.CreateFence(nil, core1_0.FenceCreateInfo{Flags: flags})
	if err != nil {
		return 0, errors.Wrap(err, "create fence")
	}
	return gpu.Fence(d.fences.add(fence)), nil
}

func (d *Device) DestroyFence(fence gpu.Fence) {
	if f, ok := d.fences.remove(uint64(fence)); ok {
		d.driver.DestroyFence(f, nil)
	}
}

func (d *Device) WaitForFence(fence gpu.Fence) error {
	f, ok := d.fences.get(uint64(fence))
	if !ok {
		return errors.Errorf("wait for fence: unknown fence %d", fence)
	}
	res, err := d.driver.WaitForFences(true, common.NoTimeout, f)
	return errors.Wrap(mapResult(res, err), "wait for fence")
}

func (d *Device) ResetFence(fence gpu.Fence) error {
	f, ok := d.fences.get(uint64(fence))
	if !ok {
		return errors.Errorf("reset fence: unknown fence %d", fence)
	}
	_, err := d.driver.ResetFences(f)
	return errors.Wrap(err, "reset fence")
}

func (d *Device) Submit(info gpu.SubmitInfo) error {
	cb, ok := d.commandBuffers.get(uint64(info.CommandBuffer))
	if !ok {
		return errors.Errorf("submit: unknown command buffer %d", info.CommandBuffer)
	}
	submit := core1_0.SubmitInfo{CommandBuffers: []core1_0.CommandBuffer{cb}}
	if s, ok := d.semaphores.get(uint64(info.Wait)); ok {
		submit.WaitSemaphores = []core1_0.Semaphore{s}
		submit.WaitDstStageMask = []core1_0.PipelineStageFlags{vkPipelineStages(info.WaitStage)}
	}
	if s, ok := d.semaphores.get(uint64(info.Signal)); ok {
		submit.SignalSemaphores = []core1_0.Semaphore{s}
	}

	var fence *core1_0.Fence
	if f, ok := d.fences.get(uint64(info.Fence)); ok {
		fence = &f
	}
	res, err := d.driver.QueueSubmit(d.queue, fence, submit)
	return errors.Wrap(mapResult(res, err), "submit")
}

func (d *Device) WaitIdle() error {
	res, err := d.driver.DeviceWaitIdle()
	return errors.Wrap(mapResult(res, err), "wait idle")
}
