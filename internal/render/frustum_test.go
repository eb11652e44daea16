package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/BANANASJIM/violet/internal/mesh"
)

func lookDownPositiveZ() Frustum {
	cam := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1.0, 0.1, 1000)
	return BuildFrustum(proj.Mul4(cam))
}

func TestFrustumAcceptsBoxDirectlyAhead(t *testing.T) {
	f := lookDownPositiveZ()
	box := mesh.AABB{Min: mgl32.Vec3{-0.5, -0.5, 9.5}, Max: mgl32.Vec3{0.5, 0.5, 10.5}}
	if !f.TestAABB(box) {
		t.Fatalf("expected a box directly ahead of the camera to pass the frustum test")
	}
}

// TestFrustumRejectsBoxFarOffAxis implements half of §8 scenario 2: entities
// well outside the 60-degree fov on either side are culled.
func TestFrustumRejectsBoxFarOffAxis(t *testing.T) {
	f := lookDownPositiveZ()
	right := mesh.AABB{Min: mgl32.Vec3{99.5, -0.5, 9.5}, Max: mgl32.Vec3{100.5, 0.5, 10.5}}
	left := mesh.AABB{Min: mgl32.Vec3{-100.5, -0.5, 9.5}, Max: mgl32.Vec3{-99.5, 0.5, 10.5}}
	if f.TestAABB(right) {
		t.Fatalf("expected the box at x=+100 to be culled")
	}
	if f.TestAABB(left) {
		t.Fatalf("expected the box at x=-100 to be culled")
	}
}
