package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/log"
)

// ErrWindowClosed is returned by the resize protocol when the window is
// closed while waiting for it to become visible again.
var ErrWindowClosed = errors.New("render: window closed")

// Window is the presentation surface collaborator.
type Window interface {
	// Extent returns the current drawable size in pixels. It is zero in
	// either dimension while the window is minimized.
	Extent() gpu.Extent2D
	// WaitEvents blocks until at least one platform event was processed.
	WaitEvents()
	// Closed reports whether the user asked to close the window.
	Closed() bool
}

// ShaderSource resolves shader paths into SPIR-V words.
type ShaderSource interface {
	Shader(path string) ([]uint32, error)
}

// RenderContext carries the device-level collaborators every component
// needs. It is constructed once and passed by pointer to every constructor.
type RenderContext struct {
	Device  gpu.Device
	Window  Window
	Shaders ShaderSource
	Config  Config
	Logger  log.Logger
}

// NewRenderContext validates the configuration and returns the context.
func NewRenderContext(device gpu.Device, window Window, shaders ShaderSource, config Config, logger log.Logger) (*RenderContext, error) {
	if device == nil || window == nil || shaders == nil {
		return nil, errors.New("render: device, window and shader source are required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New("render")
	}
	return &RenderContext{
		Device:  device,
		Window:  window,
		Shaders: shaders,
		Config:  config,
		Logger:  logger,
	}, nil
}

func (ctx *RenderContext) shaderModule(path string) (gpu.ShaderModule, error) {
	code, err := ctx.Shaders.Shader(path)
	if err != nil {
		return 0, errors.Wrapf(err, "load shader %s", path)
	}
	module, err := ctx.Device.CreateShaderModule(code)
	if err != nil {
		return 0, errors.Wrapf(err, "create shader module %s", path)
	}
	return module, nil
}
