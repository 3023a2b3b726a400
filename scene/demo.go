package scene

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/log"
	"github.com/vkngwrapper/vulkangraphics/render"
)

// DemoOptions configures the demo scene.
type DemoOptions struct {
	// Grid is the number of cubes along each side of the cube grid.
	Grid int
	// Assets and ModelPath name an optional OBJ model placed at the
	// center. A material file next to it with the .mtl extension is used
	// when present.
	Assets    fs.FS
	ModelPath string
	// Particles is the particle capacity; zero disables the fountain.
	Particles int
	Seed      int64
	Logger    log.Logger
}

func DefaultDemoOptions() DemoOptions {
	return DemoOptions{Grid: 3, Particles: 2048, Seed: 1}
}

// Demo is the render.Application drawing a lit cube grid on a ground
// plane with orbiting point lights, an optional OBJ model and a particle
// fountain.
type Demo struct {
	opts      DemoOptions
	logger    log.Logger
	scheduler *render.FrameScheduler

	Camera  *OrbitCamera
	Lights  *LightRig
	Emitter *ParticleEmitter

	// models are destroyed in declaration order.
	models []*Model
	cubes  []*Model
	lamps  []*Model
	spin   float32
}

var _ render.Application = (*Demo)(nil)

func NewDemo(opts DemoOptions) *Demo {
	if opts.Logger == nil {
		opts.Logger = log.New("scene")
	}
	return &Demo{opts: opts, logger: opts.Logger, Camera: NewOrbitCamera()}
}

// Models returns every model in declaration order.
func (d *Demo) Models() []*Model {
	return d.models
}

func (d *Demo) declare(device gpu.Device, name string, data ...MeshData) (*Model, error) {
	m := NewModel(device, name)
	d.models = append(d.models, m)
	for i, mesh := range data {
		if _, err := m.AddMesh(fmt.Sprintf("%s/%d", name, i), mesh); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (d *Demo) OnVulkanInit(ctx *render.RenderContext) (render.SceneLayouts, error) {
	if err := d.build(ctx); err != nil {
		d.OnCleanup()
		return render.SceneLayouts{}, err
	}
	return render.SceneLayouts{}, nil
}

func (d *Demo) build(ctx *render.RenderContext) error {
	device := ctx.Device
	d.Lights = NewLightRig(ctx.Config.PointLights)

	ground, err := d.declare(device, "ground", Plane(30))
	if err != nil {
		return err
	}
	ground.CastsShadow = false

	cube := Cube(1)
	half := float32(d.opts.Grid-1) / 2
	for x := 0; x < d.opts.Grid; x++ {
		for z := 0; z < d.opts.Grid; z++ {
			m, err := d.declare(device, fmt.Sprintf("cube-%d-%d", x, z), cube)
			if err != nil {
				return err
			}
			m.Transform = mgl32.Translate3D((float32(x)-half)*2.5, 0.5, (float32(z)-half)*2.5)
			d.cubes = append(d.cubes, m)
		}
	}

	if d.opts.ModelPath != "" {
		meshes, err := loadModelFile(d.opts.Assets, d.opts.ModelPath)
		if err != nil {
			return err
		}
		m, err := d.declare(device, path.Base(d.opts.ModelPath), meshes...)
		if err != nil {
			return err
		}
		m.Transform = mgl32.Translate3D(0, 1.5, 0)
		d.logger.Infof("loaded %s: %d meshes", d.opts.ModelPath, len(meshes))
	}

	lamp := Sphere(0.15, 8, 12)
	for i := 0; i < d.Lights.Count; i++ {
		m, err := d.declare(device, fmt.Sprintf("lamp-%d", i), lamp)
		if err != nil {
			return err
		}
		m.CastsShadow = false
		d.lamps = append(d.lamps, m)
	}

	if d.opts.Particles > 0 {
		d.Emitter, err = NewParticleEmitter(device, d.opts.Particles, ctx.Config.FramesInFlight, d.opts.Seed)
		if err != nil {
			return err
		}
		d.Emitter.Origin = mgl32.Vec3{0, 0.2, 0}
	}
	return nil
}

func loadModelFile(assets fs.FS, name string) ([]MeshData, error) {
	if assets == nil {
		return nil, errors.Errorf("load %s: no asset file system", name)
	}
	meshFile, err := assets.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	defer meshFile.Close()

	var mtl io.Reader
	if matFile, err := assets.Open(strings.TrimSuffix(name, path.Ext(name)) + ".mtl"); err == nil {
		defer matFile.Close()
		mtl = matFile
	}

	meshes, err := LoadOBJ(meshFile, mtl)
	return meshes, errors.Wrapf(err, "load %s", name)
}

func (d *Demo) OnStart(scheduler *render.FrameScheduler) error {
	d.scheduler = scheduler
	d.Camera.SetExtent(scheduler.Swapchain().Extent())
	return nil
}

func (d *Demo) OnUpdate(dt float64, frame *render.FrameData) error {
	d.Camera.Update(dt)
	d.Lights.Update(dt)
	d.spin += float32(dt)

	d.Camera.Fill(&frame.Camera)
	d.Lights.Fill(frame)
	frame.Skybox = true

	for i, cube := range d.cubes {
		position := cube.Transform.Col(3).Vec3()
		cube.Transform = mgl32.Translate3D(position.Elem()).Mul4(mgl32.HomogRotate3DY(d.spin * (0.3 + 0.1*float32(i%3))))
	}
	for i, lamp := range d.lamps {
		light := frame.PointLights[i]
		lamp.Transform = mgl32.Translate3D(light.Position.Elem())
		lamp.Emissive = light.Color.Vec4(1)
	}
	for _, m := range d.models {
		frame.Objects = m.Draw(frame.Objects)
	}

	if d.Emitter != nil {
		d.Emitter.Update(dt)
		system, err := d.Emitter.Upload(d.scheduler.CurrentSlot())
		if err != nil {
			return err
		}
		frame.Particles = append(frame.Particles, system)
	}
	return nil
}

func (d *Demo) OnWindowResize(extent gpu.Extent2D) {
	d.Camera.SetExtent(extent)
}

// OnCleanup destroys the models in declaration order, then the particle
// buffers.
func (d *Demo) OnCleanup() {
	for _, m := range d.models {
		m.Destroy()
	}
	d.models, d.cubes, d.lamps = nil, nil, nil
	if d.Emitter != nil {
		d.Emitter.Destroy()
		d.Emitter = nil
	}
}
