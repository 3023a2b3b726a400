package render

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

type SwapchainState int

const (
	StateReady SwapchainState = iota
	StateStale
	StateRecreating
)

func (s SwapchainState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateStale:
		return "stale"
	case StateRecreating:
		return "recreating"
	}
	return "unknown"
}

// Recreatable is a resource whose size follows the swapchain. Release
// destroys the size-dependent objects; Recreate builds them for the new
// extent. Both are called with the device idle.
type Recreatable interface {
	Release()
	Recreate(extent gpu.Extent2D) error
}

// ResizeHook adapts a pair of functions to Recreatable. Either may be nil.
type ResizeHook struct {
	OnRelease  func()
	OnRecreate func(extent gpu.Extent2D) error
}

func (h ResizeHook) Release() {
	if h.OnRelease != nil {
		h.OnRelease()
	}
}

func (h ResizeHook) Recreate(extent gpu.Extent2D) error {
	if h.OnRecreate == nil {
		return nil
	}
	return h.OnRecreate(extent)
}

type dependent struct {
	id   uuid.UUID
	name string
	r    Recreatable
}

// AcquireResult classifies a successful acquire.
type AcquireResult int

const (
	AcquireOK AcquireResult = iota
	// AcquireOutOfDate means no image was acquired.
	AcquireOutOfDate
	// AcquireSuboptimal means an image was acquired and the slot's image
	// available semaphore will be signaled, but the swapchain should be
	// recreated before it is used.
	AcquireSuboptimal
)

// SwapchainManager owns the swapchain, its image views, the present render
// pass and one framebuffer per image. It runs the resize protocol and
// rebuilds registered dependents, in registration order, after the
// swapchain was recreated.
type SwapchainManager struct {
	ctx   *RenderContext
	state SwapchainState

	handle       gpu.Swapchain
	images       []gpu.Image
	views        []gpu.ImageView
	framebuffers []*Framebuffer
	format       gpu.Format
	extent       gpu.Extent2D
	pass         *RenderPass

	dependents  []dependent
	recreations int

	// OnResize is called at the end of every successful recreation.
	OnResize func(extent gpu.Extent2D)
}

// NewSwapchainManager creates the swapchain for the window's current
// extent, waiting for the window to be restored if it starts minimized.
func NewSwapchainManager(ctx *RenderContext) (*SwapchainManager, error) {
	m := &SwapchainManager{ctx: ctx}
	if _, err := m.waitForExtent(); err != nil {
		return nil, err
	}
	if err := m.create(0); err != nil {
		return nil, err
	}

	var err error
	m.pass, err = NewRenderPass(ctx, PresentPassConfig(m.format))
	if err != nil {
		m.Destroy()
		return nil, err
	}
	if err := m.createFramebuffers(); err != nil {
		m.Destroy()
		return nil, err
	}
	return m, nil
}

func (m *SwapchainManager) create(old gpu.Swapchain) error {
	device := m.ctx.Device
	chain, err := device.CreateSwapchain(gpu.SwapchainInfo{
		Extent:      m.ctx.Window.Extent(),
		PresentMode: m.ctx.Config.PresentMode,
		Old:         old,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	if m.format != gpu.FormatUndefined && chain.Format != m.format {
		device.DestroySwapchain(chain.Swapchain)
		return errors.Errorf("swapchain format changed from %s to %s", m.format, chain.Format)
	}

	m.handle = chain.Swapchain
	m.images = chain.Images
	m.format = chain.Format
	m.extent = chain.Extent

	m.views = make([]gpu.ImageView, 0, len(m.images))
	for i, image := range m.images {
		view, err := device.CreateImageView(gpu.ImageViewInfo{
			Image:      image,
			Format:     m.format,
			Aspect:     gpu.AspectColor,
			ViewType:   gpu.ViewType2D,
			MipLevels:  1,
			LayerCount: 1,
		})
		if err != nil {
			return errors.Wrapf(err, "create swapchain image view %d", i)
		}
		m.views = append(m.views, view)
	}

	m.ctx.Logger.Infof("swapchain: %d images, %s, %s", len(m.images), m.extent, m.format)
	return nil
}

func (m *SwapchainManager) createFramebuffers() error {
	m.framebuffers = make([]*Framebuffer, 0, len(m.views))
	for _, view := range m.views {
		fb, err := newFramebuffer(m.ctx, m.pass, []gpu.ImageView{view}, m.extent, 1)
		if err != nil {
			return err
		}
		m.framebuffers = append(m.framebuffers, fb)
	}
	return nil
}

func (m *SwapchainManager) destroyFramebuffers() {
	for _, fb := range m.framebuffers {
		fb.Destroy(m.ctx.Device)
	}
	m.framebuffers = nil
}

func (m *SwapchainManager) destroyViews() {
	for _, view := range m.views {
		m.ctx.Device.DestroyImageView(view)
	}
	m.views = nil
}

// waitForExtent blocks on window events while the window is minimized.
func (m *SwapchainManager) waitForExtent() (gpu.Extent2D, error) {
	window := m.ctx.Window
	extent := window.Extent()
	for extent.IsZero() {
		if window.Closed() {
			return extent, ErrWindowClosed
		}
		window.WaitEvents()
		extent = window.Extent()
	}
	return extent, nil
}

// Register appends a dependent to the resize list. Dependents are
// released in reverse and recreated in registration order.
func (m *SwapchainManager) Register(name string, r Recreatable) uuid.UUID {
	id := uuid.New()
	m.dependents = append(m.dependents, dependent{id: id, name: name, r: r})
	return id
}

// Unregister removes a dependent. Unknown ids are ignored.
func (m *SwapchainManager) Unregister(id uuid.UUID) {
	for i, d := range m.dependents {
		if d.id == id {
			m.dependents = append(m.dependents[:i], m.dependents[i+1:]...)
			return
		}
	}
}

// Dependents returns the registered names in recreation order.
func (m *SwapchainManager) Dependents() []string {
	names := make([]string, len(m.dependents))
	for i, d := range m.dependents {
		names[i] = d.name
	}
	return names
}

// Acquire requests the next image, to be signaled on the slot's image
// available semaphore. Out-of-date and suboptimal results mark the
// swapchain stale and are not errors.
func (m *SwapchainManager) Acquire(slot *FrameSlot) (int, AcquireResult, error) {
	index, suboptimal, err := m.ctx.Device.AcquireNextImage(m.handle, slot.ImageAvailable)
	switch {
	case errors.Is(err, gpu.ErrOutOfDate):
		m.state = StateStale
		return 0, AcquireOutOfDate, nil
	case err != nil:
		return 0, AcquireOK, errors.Wrap(err, "acquire swapchain image")
	case suboptimal:
		m.state = StateStale
		return index, AcquireSuboptimal, nil
	}
	return index, AcquireOK, nil
}

// Present queues the image for presentation once the slot's render
// complete semaphore is signaled.
func (m *SwapchainManager) Present(slot *FrameSlot, index int) error {
	suboptimal, err := m.ctx.Device.Present(m.handle, index, slot.RenderComplete)
	switch {
	case errors.Is(err, gpu.ErrOutOfDate), err == nil && suboptimal:
		m.state = StateStale
		return nil
	case err != nil:
		return errors.Wrap(err, "present swapchain image")
	}
	return nil
}

// MarkStale schedules a recreation, for surface changes observed outside
// acquire and present.
func (m *SwapchainManager) MarkStale() {
	if m.state == StateReady {
		m.state = StateStale
	}
}

// Recreate runs the resize protocol: wait for the device to go idle, wait
// for a non-zero extent, release framebuffers, views and dependents,
// recreate the swapchain, views and framebuffers, recreate dependents in
// registration order, then call recreateSync if it is not nil.
func (m *SwapchainManager) Recreate(recreateSync func() error) error {
	device := m.ctx.Device
	m.state = StateRecreating

	if err := device.WaitIdle(); err != nil {
		return errors.Wrap(err, "resize: wait idle")
	}
	if _, err := m.waitForExtent(); err != nil {
		return err
	}

	m.destroyFramebuffers()
	m.destroyViews()
	for i := len(m.dependents) - 1; i >= 0; i-- {
		m.dependents[i].r.Release()
	}

	old := m.handle
	err := m.create(old)
	device.DestroySwapchain(old)
	if err != nil {
		return errors.Wrap(err, "resize")
	}
	if err := m.createFramebuffers(); err != nil {
		return errors.Wrap(err, "resize")
	}

	for _, d := range m.dependents {
		if err := d.r.Recreate(m.extent); err != nil {
			return errors.Wrapf(err, "resize: recreate %s", d.name)
		}
	}

	if recreateSync != nil {
		if err := recreateSync(); err != nil {
			return errors.Wrap(err, "resize: recreate synchronization")
		}
	}

	m.state = StateReady
	m.recreations++
	m.ctx.Logger.Debugf("resize: recreated %d dependents at %s", len(m.dependents), m.extent)
	if m.OnResize != nil {
		m.OnResize(m.extent)
	}
	return nil
}

func (m *SwapchainManager) State() SwapchainState { return m.state }

func (m *SwapchainManager) Extent() gpu.Extent2D { return m.extent }

func (m *SwapchainManager) Format() gpu.Format { return m.format }

func (m *SwapchainManager) ImageCount() int { return len(m.images) }

// Recreations counts completed resize protocols.
func (m *SwapchainManager) Recreations() int { return m.recreations }

// Pass is the present render pass the composite pass draws into.
func (m *SwapchainManager) Pass() *RenderPass { return m.pass }

// Framebuffer returns the framebuffer of swapchain image index.
func (m *SwapchainManager) Framebuffer(index int) *Framebuffer {
	return m.framebuffers[index]
}

// Destroy releases the framebuffers, views, swapchain and present pass.
// Registered dependents are destroyed by their owners.
func (m *SwapchainManager) Destroy() {
	if m == nil {
		return
	}
	device := m.ctx.Device
	m.destroyFramebuffers()
	m.destroyViews()
	device.DestroySwapchain(m.handle)
	m.handle = 0
	m.pass.Destroy(device)
	m.dependents = nil
}
