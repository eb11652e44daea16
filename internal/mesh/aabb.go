// Package mesh implements §3's Mesh/SubMesh model: one vertex buffer and one
// index buffer per mesh, a set of sub-meshes each with its own material and
// local AABB, and the BVH that sits on top of their world-space AABBs for
// frustum culling (§4.8 render_scene / §3 "BVH").
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box in whatever space it was computed in
// (local or world, depending on the caller).
type AABB struct {
	Min, Max mgl32.Vec3
}

// Union returns the smallest AABB containing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{min3(a.Min[0], b.Min[0]), min3(a.Min[1], b.Min[1]), min3(a.Min[2], b.Min[2])},
		Max: mgl32.Vec3{max3(a.Max[0], b.Max[0]), max3(a.Max[1], b.Max[1]), max3(a.Max[2], b.Max[2])},
	}
}

// Center returns the midpoint, used by the BVH builder's median split.
func (a AABB) Center() mgl32.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Transform applies m to all eight corners of a and returns the new AABB
// enclosing the transformed box (a transformed AABB is not itself axis
// aligned in general, so this recomputes tight bounds from the corners).
func (a AABB) Transform(m mgl32.Mat4) AABB {
	corners := [8]mgl32.Vec3{
		{a.Min[0], a.Min[1], a.Min[2]}, {a.Max[0], a.Min[1], a.Min[2]},
		{a.Min[0], a.Max[1], a.Min[2]}, {a.Max[0], a.Max[1], a.Min[2]},
		{a.Min[0], a.Min[1], a.Max[2]}, {a.Max[0], a.Min[1], a.Max[2]},
		{a.Min[0], a.Max[1], a.Max[2]}, {a.Max[0], a.Max[1], a.Max[2]},
	}
	const maxF = float32(math.MaxFloat32)
	out := AABB{Min: mgl32.Vec3{maxF, maxF, maxF}, Max: mgl32.Vec3{-maxF, -maxF, -maxF}}
	for _, c := range corners {
		p := m.Mul4x1(c.Vec4(1)).Vec3()
		out.Min = mgl32.Vec3{min3(out.Min[0], p[0]), min3(out.Min[1], p[1]), min3(out.Min[2], p[2])}
		out.Max = mgl32.Vec3{max3(out.Max[0], p[0]), max3(out.Max[1], p[1]), max3(out.Max[2], p[2])}
	}
	return out
}

func min3(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max3(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
