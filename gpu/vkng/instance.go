// Package vkng implements gpu.Device on top of the vkngwrapper Vulkan
// bindings, presenting to an SDL2 window.
package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
	"github.com/vkngwrapper/vulkangraphics/log"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// InstanceOptions configures instance creation.
type InstanceOptions struct {
	AppName string
	// Validation enables the Khronos validation layer and routes its
	// messages to the logger.
	Validation bool
	Logger     log.Logger
}

// Instance is a Vulkan instance with a surface for one SDL2 window.
type Instance struct {
	logger log.Logger
	window *sdl.Window

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver

	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface
}

// NewInstance creates the instance, the optional debug messenger and the
// window surface. The window must have been created with
// sdl.WINDOW_VULKAN.
func NewInstance(window *sdl.Window, opts InstanceOptions) (*Instance, error) {
	if opts.Logger == nil {
		opts.Logger = log.New("vulkan")
	}
	inst := &Instance{logger: opts.Logger, window: window}

	var err error
	inst.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}

	if err := inst.createInstance(opts); err != nil {
		return nil, err
	}
	if opts.Validation {
		inst.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(inst.instanceDriver)
		inst.debugMessenger, _, err = inst.debugDriver.CreateDebugUtilsMessenger(nil, inst.debugMessengerOptions())
		if err != nil {
			inst.Destroy()
			return nil, errors.Wrap(err, "create debug messenger")
		}
	}

	inst.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(inst.instanceDriver)
	inst.surface, err = vkng_sdl2.CreateSurface(inst.instanceDriver.Instance(), inst.surfaceExtension, window)
	if err != nil {
		inst.Destroy()
		return nil, errors.Wrap(err, "create surface")
	}
	return inst, nil
}

func (inst *Instance) createInstance(opts InstanceOptions) error {
	info := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "vulkangraphics",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := inst.globalDriver.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}
	for _, ext := range inst.window.VulkanGetInstanceExtensions() {
		if _, ok := extensions[ext]; !ok {
			return errors.Errorf("create instance: missing extension %s required by sdl", ext)
		}
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext)
	}
	if _, ok := extensions[khr_portability_enumeration.ExtensionName]; ok {
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		info.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if opts.Validation {
		layers, _, err := inst.globalDriver.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate instance layers")
		}
		if _, ok := layers[validationLayer]; !ok {
			return errors.Errorf("create instance: validation layer %s not available, install the Vulkan SDK", validationLayer)
		}
		info.EnabledLayerNames = append(info.EnabledLayerNames, validationLayer)
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		info.Next = inst.debugMessengerOptions()
	}

	instance, _, err := inst.globalDriver.CreateInstance(nil, info)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}
	inst.instanceDriver, err = inst.globalDriver.BuildInstanceDriver(instance)
	return errors.Wrap(err, "build instance driver")
}

func (inst *Instance) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    inst.logDebug,
	}
}

func (inst *Instance) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	if severity&ext_debug_utils.SeverityError != 0 {
		inst.logger.Errorf("[%s] %s", msgType, data.Message)
	} else {
		inst.logger.Warningf("[%s] %s", msgType, data.Message)
	}
	return false
}

// Destroy releases the surface, the debug messenger and the instance.
// Every device opened from the instance must be closed first.
func (inst *Instance) Destroy() {
	if inst.surface.Initialized() {
		inst.surfaceExtension.DestroySurface(inst.surface, nil)
		inst.surface = khr_surface.Surface{}
	}
	if inst.debugMessenger.Initialized() {
		inst.debugDriver.DestroyDebugUtilsMessenger(inst.debugMessenger, nil)
		inst.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}
	if inst.instanceDriver != nil {
		inst.instanceDriver.DestroyInstance(nil)
		inst.instanceDriver = nil
	}
}
