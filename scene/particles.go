package scene

import (
	"math"
	"math/rand"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/render"
)

// particleVertex matches render.ParticleVertexLayout.
type particleVertex struct {
	PositionSize mgl32.Vec4
	Color        mgl32.Vec4
}

const particleVertexSize = 32

type particle struct {
	position mgl32.Vec3
	velocity mgl32.Vec3
	age      float32
	lifetime float32
}

// ParticleEmitter simulates a fountain of particles on the CPU and
// uploads them into one buffer per frame slot, so a slot's buffer is only
// rewritten after the slot's fence was waited on.
type ParticleEmitter struct {
	Origin   mgl32.Vec3
	Rate     float32
	Lifetime float32
	Speed    float32
	Spread   float32
	Gravity  mgl32.Vec3
	Color    mgl32.Vec4
	Size     float32

	device    gpu.Device
	capacity  int
	particles []particle
	pending   float32
	rng       *rand.Rand
	buffers   []gpu.Buffer
	scratch   []particleVertex
}

// NewParticleEmitter creates an emitter of at most capacity particles with
// one buffer for each of slots frames in flight.
func NewParticleEmitter(device gpu.Device, capacity, slots int, seed int64) (*ParticleEmitter, error) {
	if capacity < 1 || slots < 1 {
		return nil, errors.Errorf("particle emitter: invalid capacity %d or slot count %d", capacity, slots)
	}
	e := &ParticleEmitter{
		Rate:     200,
		Lifetime: 2.5,
		Speed:    4,
		Spread:   0.35,
		Gravity:  mgl32.Vec3{0, -3, 0},
		Color:    mgl32.Vec4{3.0, 1.6, 0.5, 1},
		Size:     6,
		device:   device,
		capacity: capacity,
		rng:      rand.New(rand.NewSource(seed)),
	}
	for i := 0; i < slots; i++ {
		buffer, err := device.CreateBuffer(gpu.BufferInfo{
			Size:        capacity * particleVertexSize,
			Usage:       gpu.BufferUsageVertex,
			HostVisible: true,
		})
		if err != nil {
			e.Destroy()
			return nil, errors.Wrap(err, "create particle buffer")
		}
		e.buffers = append(e.buffers, buffer)
	}
	return e, nil
}

// Live returns the number of particles alive.
func (e *ParticleEmitter) Live() int {
	return len(e.particles)
}

// Update ages and moves the particles, drops expired ones and spawns new
// ones at Rate per second while below capacity.
func (e *ParticleEmitter) Update(dt float64) {
	step := float32(dt)
	for i := 0; i < len(e.particles); {
		p := &e.particles[i]
		p.age += step
		if p.age >= p.lifetime {
			last := len(e.particles) - 1
			e.particles[i] = e.particles[last]
			e.particles = e.particles[:last]
			continue
		}
		p.velocity = p.velocity.Add(e.Gravity.Mul(step))
		p.position = p.position.Add(p.velocity.Mul(step))
		i++
	}

	e.pending += e.Rate * step
	for ; e.pending >= 1; e.pending-- {
		if len(e.particles) >= e.capacity {
			e.pending = 0
			break
		}
		e.particles = append(e.particles, e.spawn())
	}
}

func (e *ParticleEmitter) spawn() particle {
	theta := e.rng.Float64() * 2 * math.Pi
	spread := float32(e.rng.Float64()) * e.Spread
	dir := mgl32.Vec3{
		spread * float32(math.Cos(theta)),
		1,
		spread * float32(math.Sin(theta)),
	}.Normalize()
	return particle{
		position: e.Origin,
		velocity: dir.Mul(e.Speed * (0.8 + 0.4*float32(e.rng.Float64()))),
		lifetime: e.Lifetime * (0.75 + 0.5*float32(e.rng.Float64())),
	}
}

// Upload writes the live particles into the buffer of slot and returns the
// system to draw.
func (e *ParticleEmitter) Upload(slot int) (render.ParticleSystem, error) {
	if slot < 0 || slot >= len(e.buffers) {
		return render.ParticleSystem{}, errors.Errorf("particle emitter: slot %d out of range", slot)
	}
	e.scratch = e.scratch[:0]
	for _, p := range e.particles {
		fade := 1 - p.age/p.lifetime
		color := e.Color
		color[3] *= fade
		e.scratch = append(e.scratch, particleVertex{
			PositionSize: p.position.Vec4(e.Size * (0.5 + 0.5*fade)),
			Color:        color,
		})
	}

	system := render.ParticleSystem{Buffer: e.buffers[slot], Count: len(e.scratch)}
	if len(e.scratch) == 0 {
		return system, nil
	}
	b, err := encode(e.scratch)
	if err != nil {
		return render.ParticleSystem{}, err
	}
	if err := e.device.WriteBuffer(e.buffers[slot], 0, b); err != nil {
		return render.ParticleSystem{}, errors.Wrap(err, "upload particles")
	}
	return system, nil
}

func (e *ParticleEmitter) Destroy() {
	for _, buffer := range e.buffers {
		e.device.DestroyBuffer(buffer)
	}
	e.buffers = nil
}
