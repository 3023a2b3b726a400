package vkng

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// Requirements are the capabilities a physical device must have.
type Requirements struct {
	// GeometryShader is needed by point light shadows.
	GeometryShader bool
	// ColorFormats must support sampled color attachments with linear
	// filtering.
	ColorFormats []gpu.Format
	// DepthFormats must support sampled depth attachments.
	DepthFormats []gpu.Format
}

// DeviceInfo describes a physical device and whether it meets the
// requirements it was checked against.
type DeviceInfo struct {
	Index          int
	Name           string
	Type           string
	APIVersion     string
	DriverVersion  string
	GeometryShader bool
	Suitable       bool
	// Reason is the first unmet requirement of an unsuitable device.
	Reason string
}

type candidate struct {
	device      core1_0.PhysicalDevice
	info        DeviceInfo
	queueFamily int
}

// EnumerateDevices lists every physical device with its suitability for req.
func (inst *Instance) EnumerateDevices(req Requirements) ([]DeviceInfo, error) {
	candidates, err := inst.candidates(req)
	if err != nil {
		return nil, err
	}
	infos := make([]DeviceInfo, len(candidates))
	for i, c := range candidates {
		infos[i] = c.info
	}
	return infos, nil
}

func (inst *Instance) candidates(req Requirements) ([]candidate, error) {
	devices, _, err := inst.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	var candidates []candidate
	for i, device := range devices {
		props, err := inst.instanceDriver.GetPhysicalDeviceProperties(device)
		if err != nil {
			return nil, errors.Wrapf(err, "physical device %d properties", i)
		}
		features := inst.instanceDriver.GetPhysicalDeviceFeatures(device)

		c := candidate{
			device:      device,
			queueFamily: -1,
			info: DeviceInfo{
				Index:          i,
				Name:           props.DriverName,
				Type:           props.DriverType.String(),
				APIVersion:     props.APIVersion.String(),
				DriverVersion:  props.DriverVersion.String(),
				GeometryShader: features.GeometryShader,
			},
		}
		c.info.Reason = inst.check(&c, req)
		c.info.Suitable = c.info.Reason == ""
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// check returns the first unmet requirement of c, or the empty string.
func (inst *Instance) check(c *candidate, req Requirements) string {
	if req.GeometryShader && !c.info.GeometryShader {
		return "no geometry shader support"
	}

	extensions, _, err := inst.instanceDriver.EnumerateDeviceExtensionProperties(c.device)
	if err != nil {
		return err.Error()
	}
	if _, ok := extensions[khr_swapchain.ExtensionName]; !ok {
		return "no swapchain support"
	}

	families := inst.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(c.device)
	for i, family := range families {
		if family.QueueFlags&core1_0.QueueGraphics == 0 {
			continue
		}
		supported, _, err := inst.surfaceExtension.GetPhysicalDeviceSurfaceSupport(inst.surface, c.device, i)
		if err == nil && supported {
			c.queueFamily = i
			break
		}
	}
	if c.queueFamily < 0 {
		return "no queue family with graphics and present support"
	}

	formats, _, err := inst.surfaceExtension.GetPhysicalDeviceSurfaceFormats(inst.surface, c.device)
	if err != nil || len(formats) == 0 {
		return "no surface formats"
	}

	colorFeatures := core1_0.FormatFeatureColorAttachment | core1_0.FormatFeatureSampledImage | core1_0.FormatFeatureSampledImageFilterLinear
	for _, format := range req.ColorFormats {
		props := inst.instanceDriver.GetPhysicalDeviceFormatProperties(c.device, vkFormat(format))
		if props.OptimalTilingFeatures&colorFeatures != colorFeatures {
			return fmt.Sprintf("%s cannot be a filtered color attachment", format)
		}
	}
	depthFeatures := core1_0.FormatFeatureDepthStencilAttachment | core1_0.FormatFeatureSampledImage
	for _, format := range req.DepthFormats {
		props := inst.instanceDriver.GetPhysicalDeviceFormatProperties(c.device, vkFormat(format))
		if props.OptimalTilingFeatures&depthFeatures != depthFeatures {
			return fmt.Sprintf("%s cannot be a sampled depth attachment", format)
		}
	}
	return ""
}

// pick returns the device at index, or the first suitable discrete GPU,
// or the first suitable device when index is negative.
func (inst *Instance) pick(req Requirements, index int) (candidate, error) {
	candidates, err := inst.candidates(req)
	if err != nil {
		return candidate{}, err
	}

	if index >= 0 {
		if index >= len(candidates) {
			return candidate{}, errors.Errorf("physical device %d does not exist, found %d", index, len(candidates))
		}
		c := candidates[index]
		if !c.info.Suitable {
			return candidate{}, errors.Errorf("physical device %s is not suitable: %s", c.info.Name, c.info.Reason)
		}
		return c, nil
	}

	found := -1
	for i, c := range candidates {
		if !c.info.Suitable {
			inst.logger.Infof("skipping %s: %s", c.info.Name, c.info.Reason)
			continue
		}
		if found < 0 || (c.info.Type == core1_0.PhysicalDeviceTypeDiscreteGPU.String() && candidates[found].info.Type != c.info.Type) {
			found = i
		}
	}
	if found < 0 {
		return candidate{}, errors.New("failed to find a suitable GPU")
	}
	return candidates[found], nil
}
