// Package render implements the ForwardRenderer, AutoExposure, and Tonemap
// components of §4.8-4.10: the orchestrator that turns a scene.SceneView and
// a frame's command buffer into a sequence of rendergraph passes.
package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights bounds the GlobalUBO's light arrays (§6 GlobalUBO shape).
const MaxLights = 16

// GlobalUBO mirrors the set-0-binding-0 uniform block the PBR shader reads
// (§6 "Shader interface"). Field order matches the declared std140 layout;
// light arrays are always MaxLights long, with NumLights marking how many
// entries are populated.
type GlobalUBO struct {
	View       mgl32.Mat4
	Proj       mgl32.Mat4
	CameraPos  mgl32.Vec3
	NumLights  uint32
	LightPositions [MaxLights]mgl32.Vec4
	LightColors    [MaxLights]mgl32.Vec4
	Ambient        mgl32.Vec3
	SkyboxExposure float32
	SkyboxRotation float32
	SkyboxEnabled  uint32
	IBLIntensity   float32
	EnvironmentMapIndex  uint32
	IrradianceMapIndex   uint32
	PrefilteredMapIndex  uint32
	BRDFLUTIndex         uint32
}

// GlobalUBOSize is the std140-padded byte size of GlobalUBO: two mat4s (128),
// camera+numLights (16), two MaxLights vec4 arrays (16 B each), ambient+misc
// scalars (28), four bindless indices (16).
const GlobalUBOSize = 128 + 16 + 2*MaxLights*16 + 28 + 16

func putF32(b []byte, v float32) { putU32(b, math.Float32bits(v)) }
func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
func putVec3(b []byte, v mgl32.Vec3) {
	putF32(b[0:], v[0])
	putF32(b[4:], v[1])
	putF32(b[8:], v[2])
}
func putVec4(b []byte, v mgl32.Vec4) {
	putF32(b[0:], v[0])
	putF32(b[4:], v[1])
	putF32(b[8:], v[2])
	putF32(b[12:], v[3])
}
func putMat4(b []byte, m mgl32.Mat4) {
	for i, f := range m {
		putF32(b[i*4:], f)
	}
}

// Encode serializes u into a GlobalUBOSize-byte std140 row ready to copy
// into the managed uniform buffer.
func (u GlobalUBO) Encode() []byte {
	buf := make([]byte, GlobalUBOSize)
	off := 0
	putMat4(buf[off:], u.View)
	off += 64
	putMat4(buf[off:], u.Proj)
	off += 64
	putVec3(buf[off:], u.CameraPos)
	off += 12
	putU32(buf[off:], u.NumLights)
	off += 4
	for _, p := range u.LightPositions {
		putVec4(buf[off:], p)
		off += 16
	}
	for _, c := range u.LightColors {
		putVec4(buf[off:], c)
		off += 16
	}
	putVec3(buf[off:], u.Ambient)
	off += 12
	putF32(buf[off:], u.SkyboxExposure)
	off += 4
	putF32(buf[off:], u.SkyboxRotation)
	off += 4
	putU32(buf[off:], u.SkyboxEnabled)
	off += 4
	putF32(buf[off:], u.IBLIntensity)
	off += 4
	putU32(buf[off:], u.EnvironmentMapIndex)
	off += 4
	putU32(buf[off:], u.IrradianceMapIndex)
	off += 4
	putU32(buf[off:], u.PrefilteredMapIndex)
	off += 4
	putU32(buf[off:], u.BRDFLUTIndex)
	return buf
}
