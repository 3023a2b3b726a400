package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

func chooseSurfaceFormat(available []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range available {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}
	return available[0]
}

func choosePresentMode(available []khr_surface.PresentMode, preferred khr_surface.PresentMode) khr_surface.PresentMode {
	for _, mode := range available {
		if mode == preferred {
			return mode
		}
	}
	return khr_surface.PresentModeFIFO
}

// clampExtent returns the surface's current extent when it is fixed, else
// requested clamped to the supported range.
func clampExtent(capabilities *khr_surface.SurfaceCapabilities, requested gpu.Extent2D) gpu.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return gpu.Extent2D{Width: capabilities.CurrentExtent.Width, Height: capabilities.CurrentExtent.Height}
	}
	return gpu.Extent2D{
		Width:  min(max(requested.Width, capabilities.MinImageExtent.Width), capabilities.MaxImageExtent.Width),
		Height: min(max(requested.Height, capabilities.MinImageExtent.Height), capabilities.MaxImageExtent.Height),
	}
}

func imageCount(capabilities *khr_surface.SurfaceCapabilities, requested int) int {
	count := requested
	if count <= 0 {
		count = capabilities.MinImageCount + 1
	}
	count = max(count, capabilities.MinImageCount)
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < count {
		count = capabilities.MaxImageCount
	}
	return count
}

func (d *Device) CreateSwapchain(info gpu.SwapchainInfo) (gpu.SwapchainImages, error) {
	surfaceExt, surface := d.inst.surfaceExtension, d.inst.surface

	capabilities, _, err := surfaceExt.GetPhysicalDeviceSurfaceCapabilities(surface, d.physical)
	if err != nil {
		return gpu.SwapchainImages{}, errors.Wrap(err, "query surface capabilities")
	}
	formats, _, err := surfaceExt.GetPhysicalDeviceSurfaceFormats(surface, d.physical)
	if err != nil {
		return gpu.SwapchainImages{}, errors.Wrap(err, "query surface formats")
	}
	if len(formats) == 0 {
		return gpu.SwapchainImages{}, errors.New("surface reports no formats")
	}
	presentModes, _, err := surfaceExt.GetPhysicalDeviceSurfacePresentModes(surface, d.physical)
	if err != nil {
		return gpu.SwapchainImages{}, errors.Wrap(err, "query present modes")
	}

	surfaceFormat := chooseSurfaceFormat(formats)
	format, err := gpuFormat(surfaceFormat.Format)
	if err != nil {
		return gpu.SwapchainImages{}, err
	}
	presentMode := choosePresentMode(presentModes, vkPresentMode(info.PresentMode))
	if presentMode != vkPresentMode(info.PresentMode) {
		d.logger.Infof("present mode %s unsupported, using FIFO", vkPresentMode(info.PresentMode))
	}
	extent := clampExtent(capabilities, info.Extent)

	create := khr_swapchain.SwapchainCreateInfo{
		Surface: surface,

		MinImageCount:    imageCount(capabilities, info.MinImageCount),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      vkExtent(extent),
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode: core1_0.SharingModeExclusive,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	}
	if old, ok := d.swapchains.get(uint64(info.Old)); ok {
		create.OldSwapchain = old.swapchain
	}

	swapchain, res, err := d.swapchainExt.CreateSwapchain(nil, create)
	if err != nil {
		return gpu.SwapchainImages{}, errors.Wrap(mapResult(res, err), "create swapchain")
	}
	images, _, err := d.swapchainExt.GetSwapchainImages(swapchain)
	if err != nil {
		d.swapchainExt.DestroySwapchain(swapchain, nil)
		return gpu.SwapchainImages{}, errors.Wrap(err, "get swapchain images")
	}

	entry := swapchainEntry{swapchain: swapchain}
	for _, image := range images {
		entry.images = append(entry.images, gpu.Image(d.images.add(imageEntry{image: image})))
	}
	return gpu.SwapchainImages{
		Swapchain: gpu.Swapchain(d.swapchains.add(entry)),
		Images:    entry.images,
		Format:    format,
		Extent:    extent,
	}, nil
}

func (d *Device) DestroySwapchain(swapchain gpu.Swapchain) {
	entry, ok := d.swapchains.remove(uint64(swapchain))
	if !ok {
		return
	}
	for _, image := range entry.images {
		d.images.remove(uint64(image))
	}
	d.swapchainExt.DestroySwapchain(entry.swapchain, nil)
}

func (d *Device) AcquireNextImage(swapchain gpu.Swapchain, signal gpu.Semaphore) (int, bool, error) {
	entry, ok := d.swapchains.get(uint64(swapchain))
	if !ok {
		return 0, false, errors.Errorf("acquire: unknown swapchain %d", swapchain)
	}
	semaphore, _ := d.semaphores.get(uint64(signal))

	index, res, err := d.swapchainExt.AcquireNextImage(entry.swapchain, common.NoTimeout, &semaphore, nil)
	switch {
	case res == khr_swapchain.VKErrorOutOfDate:
		return 0, false, gpu.ErrOutOfDate
	case err != nil:
		return 0, false, errors.Wrap(mapResult(res, err), "acquire next image")
	}
	return index, res == khr_swapchain.VKSuboptimal, nil
}

func (d *Device) Present(swapchain gpu.Swapchain, imageIndex int, wait gpu.Semaphore) (bool, error) {
	entry, ok := d.swapchains.get(uint64(swapchain))
	if !ok {
		return false, errors.Errorf("present: unknown swapchain %d", swapchain)
	}
	semaphore, _ := d.semaphores.get(uint64(wait))

	res, err := d.swapchainExt.QueuePresent(d.queue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{semaphore},
		Swapchains:     []khr_swapchain.Swapchain{entry.swapchain},
		ImageIndices:   []int{imageIndex},
	})
	switch {
	case res == khr_swapchain.VKErrorOutOfDate:
		return false, gpu.ErrOutOfDate
	case res == khr_swapchain.VKSuboptimal:
		return true, nil
	case err != nil:
		return false, errors.Wrap(mapResult(res, err), "present")
	}
	return false, nil
}
