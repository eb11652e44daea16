package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/BANANASJIM/violet/internal/mesh"
)

// plane is ax+by+cz+d=0 in world space, normalized so (a,b,c) is unit length.
type plane struct {
	normal mgl32.Vec3
	d      float32
}

func (p plane) distance(point mgl32.Vec3) float32 {
	return p.normal.Dot(point) + p.d
}

// Frustum holds the six half-spaces of a camera's clip volume in world space
// (GLOSSARY "Frustum"), extracted from the combined view-projection matrix
// via the standard Gribb-Hartmann plane extraction.
type Frustum struct {
	planes [6]plane
}

// BuildFrustum derives the six frustum planes from viewProj = proj * view.
func BuildFrustum(viewProj mgl32.Mat4) Frustum {
	m := viewProj
	// mgl32.Mat4 is column-major; m[col*4+row].
	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{m[0*4+r], m[1*4+r], m[2*4+r], m[3*4+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	raw := [6]mgl32.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}

	var f Frustum
	for i, p := range raw {
		n := mgl32.Vec3{p[0], p[1], p[2]}
		length := n.Len()
		if length == 0 {
			length = 1
		}
		f.planes[i] = plane{normal: n.Mul(1 / length), d: p[3] / length}
	}
	return f
}

// TestAABB implements the frustum-vs-AABB test used as the BVH traversal
// predicate (§4.8 "traverse it with the camera frustum predicate"). It is
// conservative: an AABB straddling a plane is treated as inside (the
// positive-vertex test), which together with the BVH's parent-bounds
// containment guarantee satisfies §8's invariant "AABB in frustum =>
// primitive reported" without ever under-reporting.
func (f Frustum) TestAABB(box mesh.AABB) bool {
	for _, p := range f.planes {
		positive := mgl32.Vec3{box.Min[0], box.Min[1], box.Min[2]}
		if p.normal[0] >= 0 {
			positive[0] = box.Max[0]
		}
		if p.normal[1] >= 0 {
			positive[1] = box.Max[1]
		}
		if p.normal[2] >= 0 {
			positive[2] = box.Max[2]
		}
		if p.distance(positive) < 0 {
			return false
		}
	}
	return true
}
