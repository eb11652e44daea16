package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCreateEntityStartsWithNoComponents(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	if !w.EntityExists(e) {
		t.Fatalf("expected newly created entity to exist")
	}
	if _, ok := w.Transform(e); ok {
		t.Fatalf("expected no transform on a freshly created entity")
	}
}

func TestDeleteEntityRemovesAllComponents(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	w.SetTransform(e, Transform{Scale: mgl32.Vec3{1, 1, 1}})
	w.SetMaterialRef(e, 42)

	w.DeleteEntity(e)

	if w.EntityExists(e) {
		t.Fatalf("expected entity to no longer exist after DeleteEntity")
	}
	if _, ok := w.Transform(e); ok {
		t.Fatalf("expected transform to be gone after DeleteEntity")
	}
	if _, ok := w.MaterialRef(e); ok {
		t.Fatalf("expected material ref to be gone after DeleteEntity")
	}
}

func TestFirstTransformWriteDoesNotDirtyWorld(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	w.SetTransform(e, Transform{Scale: mgl32.Vec3{1, 1, 1}})
	if w.Dirty() {
		t.Fatalf("the first transform write on a new entity must not dirty the world")
	}
}

func TestOverwritingTransformDirtiesWorld(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	w.SetTransform(e, Transform{Scale: mgl32.Vec3{1, 1, 1}})
	w.ClearDirty()

	w.SetTransform(e, Transform{Position: mgl32.Vec3{1, 0, 0}, Scale: mgl32.Vec3{1, 1, 1}})
	if !w.Dirty() {
		t.Fatalf("overwriting an existing transform must dirty the world")
	}

	w.ClearDirty()
	if w.Dirty() {
		t.Fatalf("ClearDirty should reset the dirty flag")
	}
}

func TestActiveCameraResolution(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	cam := Camera{Position: mgl32.Vec3{0, 0, -5}, Forward: mgl32.Vec3{0, 0, 1}, Up: mgl32.Vec3{0, 1, 0}, FovYRadians: 1.0, Aspect: 1.77, Near: 0.1, Far: 100}
	w.SetCamera(e, cam)

	if _, ok := w.Camera(); ok {
		t.Fatalf("expected no active camera before SetActiveCamera")
	}

	w.SetActiveCamera(e)
	got, ok := w.Camera()
	if !ok {
		t.Fatalf("expected the active camera to resolve")
	}
	if got.FovYRadians != cam.FovYRadians {
		t.Fatalf("resolved camera does not match the one set")
	}
}

func TestLightsReturnsAllAddedLights(t *testing.T) {
	w := NewWorld()
	e1, e2 := w.CreateEntity(), w.CreateEntity()
	w.AddLight(e1, Light{Type: LightPoint, Intensity: 1})
	w.AddLight(e2, Light{Type: LightDirectional, Intensity: 2})

	lights := w.Lights()
	if len(lights) != 2 {
		t.Fatalf("expected 2 lights, got %d", len(lights))
	}
}

func TestTransformMatrixAppliesPosition(t *testing.T) {
	tr := Transform{Position: mgl32.Vec3{1, 2, 3}, Scale: mgl32.Vec3{1, 1, 1}, Rotation: mgl32.QuatIdent()}
	m := tr.Matrix()
	p := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if p[0] != 1 || p[1] != 2 || p[2] != 3 {
		t.Fatalf("expected origin translated to (1,2,3), got %v", p)
	}
}

func TestWorldSatisfiesSceneView(t *testing.T) {
	var _ SceneView = NewWorld()
}
