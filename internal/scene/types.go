// Package scene implements §3.1's external scene-collaborator interface
// (SceneView) and a minimal in-memory World satisfying it, grounded on the
// teacher's vala/ecs package (Entity uint64, one map[Entity]*T per
// component type, Add*/Get*/Has*/Remove* accessors) but re-keyed to this
// core's 3D component set. World exists so the renderer is independently
// testable; it is not meant to be the engine's actual scene graph.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/BANANASJIM/violet/internal/mesh"
)

// Entity mirrors vala/ecs.Entity: a bare integer identifier, all data lives
// in World's component maps.
type Entity uint64

// Transform is this core's 3D replacement for vala's 2D
// {X, Y, ScaleX, ScaleY} affine component.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// Matrix builds the world transform TRS-style: scale, then rotate, then
// translate.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Camera carries the minimal state ForwardRenderer needs to build view/proj
// matrices and a frustum (§4.8 update_global_uniforms, §8 scenario 2).
type Camera struct {
	Position mgl32.Vec3
	Forward  mgl32.Vec3
	Up       mgl32.Vec3
	FovYRadians float32
	Aspect      float32
	Near, Far   float32
}

// View builds the camera's view matrix from position/forward/up.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Forward), c.Up)
}

// Proj builds the camera's perspective projection matrix.
func (c Camera) Proj() mgl32.Mat4 {
	return mgl32.Perspective(c.FovYRadians, c.Aspect, c.Near, c.Far)
}

// LightType distinguishes the two light kinds §4.8's global uniforms pack.
// Neither kind is frustum-culled: ForwardRenderer packs the first MaxLights
// lights that Lights() returns.
type LightType uint8

const (
	LightPoint LightType = iota
	LightDirectional
)

// Light is one entry in the scene's light list; the global uniforms carry up
// to MaxLights of them (§4.8).
type Light struct {
	Type      LightType
	Position  mgl32.Vec3 // meaningful for LightPoint
	Direction mgl32.Vec3 // meaningful for LightDirectional
	Color     mgl32.Vec3
	Intensity float32
	Range     float32 // meaningful for LightPoint
}

// SceneView is the minimal interface the render core expects from an
// external ECS/scene graph (§3.1), copied verbatim from SPEC_FULL.md.
type SceneView interface {
	Entities() []Entity
	Transform(Entity) (Transform, bool)
	MeshRef(Entity) (mesh.Handle, bool)
	MaterialRef(Entity) (uint32, bool)
	Camera() (Camera, bool)
	Lights() []Light
}
