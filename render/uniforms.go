package render

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

const (
	modelPushSize  = int(unsafe.Sizeof(mgl32.Mat4{}))
	facePushSize   = int(unsafe.Sizeof(facePush{}))
	objectPushSize = int(unsafe.Sizeof(objectPush{}))

	pointShadowNear = 0.1
)

type objectPush struct {
	Model    mgl32.Mat4
	Emissive mgl32.Vec4
}

type facePush struct {
	Light int32
	Face  int32
}

// cubeFaces are the view directions and up vectors of the six cube map
// faces in +X, -X, +Y, -Y, +Z, -Z order.
var cubeFaces = [6][2]mgl32.Vec3{
	{{1, 0, 0}, {0, -1, 0}},
	{{-1, 0, 0}, {0, -1, 0}},
	{{0, 1, 0}, {0, 0, 1}},
	{{0, -1, 0}, {0, 0, -1}},
	{{0, 0, 1}, {0, -1, 0}},
	{{0, 0, -1}, {0, -1, 0}},
}

type pointLightBlock struct {
	// W holds the shadow far plane.
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

// frameBlock is the std140 layout of the per-frame uniform block.
type frameBlock struct {
	View        mgl32.Mat4
	Projection  mgl32.Mat4
	LightSpace  mgl32.Mat4
	CameraPos   mgl32.Vec4
	SunDir      mgl32.Vec4
	SunColor    mgl32.Vec4
	PointLights [MaxPointLights]pointLightBlock
	PointShadow [MaxPointLights * 6]mgl32.Mat4
	// X: point light count, Y: time, Z: camera near, W: camera far.
	Params mgl32.Vec4
}

var frameBlockSize = int(unsafe.Sizeof(frameBlock{}))

// FrameUniforms is the host-visible uniform buffer shared by every frame.
// It is written once per frame, before that frame is submitted.
type FrameUniforms struct {
	Buffer gpu.Buffer
	device gpu.Device
	// lights is the number of point lights with shadow maps.
	lights int
	block  frameBlock
	buf    bytes.Buffer
}

func newFrameUniforms(device gpu.Device, lights int) (*FrameUniforms, error) {
	buffer, err := device.CreateBuffer(gpu.BufferInfo{
		Size:        frameBlockSize,
		Usage:       gpu.BufferUsageUniform,
		HostVisible: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create frame uniform buffer")
	}
	return &FrameUniforms{Buffer: buffer, device: device, lights: min(lights, MaxPointLights)}, nil
}

// Write packs the frame's camera and lights into the uniform buffer.
// Only as many point lights as have shadow maps are used.
func (u *FrameUniforms) Write(frame *FrameData) error {
	b := &u.block
	*b = frameBlock{}

	b.View = frame.Camera.View
	b.Projection = frame.Camera.Projection
	b.LightSpace = frame.Sun.ViewProjection
	b.CameraPos = frame.Camera.Position.Vec4(1)
	b.SunDir = frame.Sun.Direction.Normalize().Vec4(0)
	b.SunColor = frame.Sun.Color.Vec4(1)

	lights := frame.PointLights
	if len(lights) > u.lights {
		lights = lights[:u.lights]
	}
	for i, light := range lights {
		b.PointLights[i] = pointLightBlock{
			Position: light.Position.Vec4(light.Radius),
			Color:    light.Color.Vec4(1),
		}
		faces := PointShadowMatrices(light)
		copy(b.PointShadow[i*6:], faces[:])
	}
	b.Params = mgl32.Vec4{float32(len(lights)), frame.Time, frame.Camera.Near, frame.Camera.Far}

	data, err := u.pack(b)
	if err != nil {
		return err
	}
	return errors.Wrap(u.device.WriteBuffer(u.Buffer, 0, data), "write frame uniforms")
}

func (u *FrameUniforms) pack(v any) ([]byte, error) {
	u.buf.Reset()
	if err := binary.Write(&u.buf, common.ByteOrder, v); err != nil {
		return nil, errors.Wrap(err, "pack frame uniforms")
	}
	return u.buf.Bytes(), nil
}

func (u *FrameUniforms) Destroy() {
	if u == nil {
		return
	}
	u.device.DestroyBuffer(u.Buffer)
	u.Buffer = 0
}

// PointShadowMatrices returns the view-projection matrix of each cube face
// of a point light, with a 90 degree frustum reaching to the light radius.
func PointShadowMatrices(light PointLight) [6]mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, pointShadowNear, light.Radius)
	var faces [6]mgl32.Mat4
	for i, face := range cubeFaces {
		view := mgl32.LookAtV(light.Position, light.Position.Add(face[0]), face[1])
		faces[i] = proj.Mul4(view)
	}
	return faces
}

// pushBytes encodes a fixed-size push constant block.
func pushBytes(v any) []byte {
	var buf bytes.Buffer
	// Only fixed-size blocks are passed here, so encoding cannot fail.
	_ = binary.Write(&buf, common.ByteOrder, v)
	return buf.Bytes()
}
