package vkng

import (
	"strings"
	"testing"

	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/loader"
	"github.com/vkngwrapper/core/v3/mocks"
	"github.com/vkngwrapper/core/v3/mocks/mocks1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/log"
	"go.uber.org/mock/gomock"
)

const (
	colorFeatures = core1_0.FormatFeatureColorAttachment | core1_0.FormatFeatureSampledImage | core1_0.FormatFeatureSampledImageFilterLinear
	depthFeatures = core1_0.FormatFeatureDepthStencilAttachment | core1_0.FormatFeatureSampledImage
)

var testRequirements = Requirements{
	GeometryShader: true,
	ColorFormats:   []gpu.Format{gpu.FormatR16G16B16A16Float},
	DepthFormats:   []gpu.Format{gpu.FormatD32Float},
}

// fakeGPU describes what a physical device reports to the mocked driver.
type fakeGPU struct {
	name           string
	kind           core1_0.PhysicalDeviceType
	geometryShader bool
	swapchain      bool
	graphics       bool
	present        bool
	surfaceFormats bool
	color          core1_0.FormatFeatureFlags
	depth          core1_0.FormatFeatureFlags
}

func capableGPU(name string, kind core1_0.PhysicalDeviceType) fakeGPU {
	return fakeGPU{
		name:           name,
		kind:           kind,
		geometryShader: true,
		swapchain:      true,
		graphics:       true,
		present:        true,
		surfaceFormats: true,
		color:          colorFeatures,
		depth:          depthFeatures,
	}
}

// fakeSurfaceExtension answers surface queries for the fake devices.
// Calls it does not override panic through the nil embedded interface.
type fakeSurfaceExtension struct {
	khr_surface.ExtensionDriver
	gpus map[loader.VkPhysicalDevice]fakeGPU
}

func (f *fakeSurfaceExtension) GetPhysicalDeviceSurfaceSupport(surface khr_surface.Surface, device core1_0.PhysicalDevice, family int) (bool, common.VkResult, error) {
	return f.gpus[device.Handle()].present, core1_0.VKSuccess, nil
}

func (f *fakeSurfaceExtension) GetPhysicalDeviceSurfaceFormats(surface khr_surface.Surface, device core1_0.PhysicalDevice) ([]khr_surface.SurfaceFormat, common.VkResult, error) {
	if !f.gpus[device.Handle()].surfaceFormats {
		return nil, core1_0.VKSuccess, nil
	}
	return []khr_surface.SurfaceFormat{
		{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
	}, core1_0.VKSuccess, nil
}

func newFakeInstance(t *testing.T, gpus ...fakeGPU) *Instance {
	ctrl := gomock.NewController(t)
	driver := mocks1_0.NewMockCoreInstanceDriver(ctrl)
	instance := mocks.NewDummyInstance(common.Vulkan1_2, nil)
	surfaceExt := &fakeSurfaceExtension{gpus: map[loader.VkPhysicalDevice]fakeGPU{}}

	var devices []core1_0.PhysicalDevice
	for _, g := range gpus {
		g := g
		device := mocks.NewDummyPhysicalDevice(instance, common.Vulkan1_2)
		devices = append(devices, device)
		surfaceExt.gpus[device.Handle()] = g

		driver.EXPECT().GetPhysicalDeviceProperties(device).Return(&core1_0.PhysicalDeviceProperties{
			DriverName:    g.name,
			DriverType:    g.kind,
			APIVersion:    common.Vulkan1_2,
			DriverVersion: common.CreateVersion(1, 0, 0),
		}, nil).AnyTimes()
		driver.EXPECT().GetPhysicalDeviceFeatures(device).Return(&core1_0.PhysicalDeviceFeatures{
			GeometryShader: g.geometryShader,
		}).AnyTimes()

		extensions := map[string]*core1_0.ExtensionProperties{}
		if g.swapchain {
			extensions[khr_swapchain.ExtensionName] = &core1_0.ExtensionProperties{ExtensionName: khr_swapchain.ExtensionName}
		}
		driver.EXPECT().EnumerateDeviceExtensionProperties(device).Return(extensions, core1_0.VKSuccess, nil).AnyTimes()

		families := []*core1_0.QueueFamilyProperties{{QueueFlags: core1_0.QueueTransfer, QueueCount: 1}}
		if g.graphics {
			families = append(families, &core1_0.QueueFamilyProperties{QueueFlags: core1_0.QueueGraphics | core1_0.QueueCompute, QueueCount: 1})
		}
		driver.EXPECT().GetPhysicalDeviceQueueFamilyProperties(device).Return(families).AnyTimes()

		driver.EXPECT().GetPhysicalDeviceFormatProperties(device, gomock.Any()).DoAndReturn(
			func(_ core1_0.PhysicalDevice, format core1_0.Format) *core1_0.FormatProperties {
				if format == vkFormat(gpu.FormatD32Float) {
					return &core1_0.FormatProperties{OptimalTilingFeatures: g.depth}
				}
				return &core1_0.FormatProperties{OptimalTilingFeatures: g.color}
			}).AnyTimes()
	}
	driver.EXPECT().EnumeratePhysicalDevices().Return(devices, core1_0.VKSuccess, nil).AnyTimes()

	return &Instance{
		logger:           log.Discard(),
		instanceDriver:   driver,
		surfaceExtension: surfaceExt,
	}
}

func TestCheckRejectsUnsuitableDevices(t *testing.T) {
	type spec struct {
		modify func(g *fakeGPU)
		exp    string
	}
	specs := []spec{
		{func(g *fakeGPU) {}, ""},
		{func(g *fakeGPU) { g.geometryShader = false }, "no geometry shader support"},
		{func(g *fakeGPU) { g.swapchain = false }, "no swapchain support"},
		{func(g *fakeGPU) { g.graphics = false }, "no queue family with graphics and present support"},
		{func(g *fakeGPU) { g.present = false }, "no queue family with graphics and present support"},
		{func(g *fakeGPU) { g.surfaceFormats = false }, "no surface formats"},
		{func(g *fakeGPU) { g.color = core1_0.FormatFeatureColorAttachment | core1_0.FormatFeatureSampledImage }, "R16G16B16A16_SFLOAT cannot be a filtered color attachment"},
		{func(g *fakeGPU) { g.depth = core1_0.FormatFeatureDepthStencilAttachment }, "D32_SFLOAT cannot be a sampled depth attachment"},
	}

	for index, s := range specs {
		g := capableGPU("gpu", core1_0.PhysicalDeviceTypeDiscreteGPU)
		s.modify(&g)
		inst := newFakeInstance(t, g)

		infos, err := inst.EnumerateDevices(testRequirements)
		if err != nil {
			t.Fatalf("[spec %d] expected no error; got %v", index, err)
		}
		if len(infos) != 1 {
			t.Fatalf("[spec %d] expected 1 device; got %d", index, len(infos))
		}
		if infos[0].Reason != s.exp {
			t.Fatalf("[spec %d] expected reason %q; got %q", index, s.exp, infos[0].Reason)
		}
		if infos[0].Suitable != (s.exp == "") {
			t.Fatalf("[spec %d] expected suitable %t; got %t", index, s.exp == "", infos[0].Suitable)
		}
	}
}

func TestCheckSkipsGeometryShaderWhenNotRequired(t *testing.T) {
	g := capableGPU("gpu", core1_0.PhysicalDeviceTypeIntegratedGPU)
	g.geometryShader = false
	inst := newFakeInstance(t, g)

	req := testRequirements
	req.GeometryShader = false
	infos, err := inst.EnumerateDevices(req)
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if !infos[0].Suitable {
		t.Fatalf("expected the device to be suitable; got %q", infos[0].Reason)
	}
}

func TestPickPrefersDiscreteGPU(t *testing.T) {
	type spec struct {
		gpus    []fakeGPU
		expName string
	}
	unsuitableDiscrete := capableGPU("discrete", core1_0.PhysicalDeviceTypeDiscreteGPU)
	unsuitableDiscrete.swapchain = false
	specs := []spec{
		{[]fakeGPU{capableGPU("integrated", core1_0.PhysicalDeviceTypeIntegratedGPU), capableGPU("discrete", core1_0.PhysicalDeviceTypeDiscreteGPU)}, "discrete"},
		{[]fakeGPU{capableGPU("discrete", core1_0.PhysicalDeviceTypeDiscreteGPU), capableGPU("integrated", core1_0.PhysicalDeviceTypeIntegratedGPU)}, "discrete"},
		{[]fakeGPU{capableGPU("first", core1_0.PhysicalDeviceTypeIntegratedGPU), capableGPU("second", core1_0.PhysicalDeviceTypeIntegratedGPU)}, "first"},
		{[]fakeGPU{capableGPU("integrated", core1_0.PhysicalDeviceTypeIntegratedGPU), unsuitableDiscrete}, "integrated"},
	}

	for index, s := range specs {
		inst := newFakeInstance(t, s.gpus...)
		c, err := inst.pick(testRequirements, -1)
		if err != nil {
			t.Fatalf("[spec %d] expected no error; got %v", index, err)
		}
		if c.info.Name != s.expName {
			t.Fatalf("[spec %d] expected %s; got %s", index, s.expName, c.info.Name)
		}
		if c.queueFamily != 1 {
			t.Fatalf("[spec %d] expected queue family 1; got %d", index, c.queueFamily)
		}
	}
}

func TestPickExplicitIndex(t *testing.T) {
	unsuitable := capableGPU("broken", core1_0.PhysicalDeviceTypeDiscreteGPU)
	unsuitable.surfaceFormats = false
	inst := newFakeInstance(t,
		capableGPU("integrated", core1_0.PhysicalDeviceTypeIntegratedGPU),
		capableGPU("discrete", core1_0.PhysicalDeviceTypeDiscreteGPU),
		unsuitable,
	)

	c, err := inst.pick(testRequirements, 0)
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if c.info.Name != "integrated" {
		t.Fatalf("expected the requested integrated device; got %s", c.info.Name)
	}

	if _, err := inst.pick(testRequirements, 5); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected a missing device error; got %v", err)
	}

	if _, err := inst.pick(testRequirements, 2); err == nil || !strings.Contains(err.Error(), "no surface formats") {
		t.Fatalf("expected an unsuitable device error; got %v", err)
	}
}

func TestPickFailsWithoutSuitableGPU(t *testing.T) {
	noGeometry := capableGPU("a", core1_0.PhysicalDeviceTypeDiscreteGPU)
	noGeometry.geometryShader = false
	noPresent := capableGPU("b", core1_0.PhysicalDeviceTypeIntegratedGPU)
	noPresent.present = false

	for index, gpus := range [][]fakeGPU{nil, {noGeometry, noPresent}} {
		inst := newFakeInstance(t, gpus...)
		if _, err := inst.pick(testRequirements, -1); err == nil || !strings.Contains(err.Error(), "failed to find a suitable GPU") {
			t.Fatalf("[spec %d] expected no suitable GPU; got %v", index, err)
		}
	}
}
