package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func box(cx, cy, cz, half float32) AABB {
	c := mgl32.Vec3{cx, cy, cz}
	h := mgl32.Vec3{half, half, half}
	return AABB{Min: c.Sub(h), Max: c.Add(h)}
}

func TestBVHReportsAllPrimitivesWithAlwaysTruePredicate(t *testing.T) {
	b := NewBVH()
	boxes := []AABB{box(0, 0, 0, 1), box(10, 0, 0, 1), box(-10, 0, 0, 1), box(0, 10, 0, 1)}
	b.Build(boxes)

	seen := map[int]bool{}
	b.Traverse(func(AABB) bool { return true }, func(i int) { seen[i] = true })

	if len(seen) != len(boxes) {
		t.Fatalf("expected all %d primitives visited, got %d", len(boxes), len(seen))
	}
}

func TestBVHPredicateFalsePrunesEverything(t *testing.T) {
	b := NewBVH()
	b.Build([]AABB{box(0, 0, 0, 1), box(5, 5, 5, 1)})

	count := 0
	b.Traverse(func(AABB) bool { return false }, func(int) { count++ })
	if count != 0 {
		t.Fatalf("expected 0 visits when predicate always fails, got %d", count)
	}
}

func TestBVHOnlyReportsPrimitivesWhoseAABBPassesPredicate(t *testing.T) {
	b := NewBVH()
	boxes := []AABB{box(0, 0, 0, 1), box(100, 0, 0, 1)}
	b.Build(boxes)

	// Frustum-like predicate: only boxes overlapping [-5,5] on X.
	pred := func(a AABB) bool { return a.Min[0] <= 5 && a.Max[0] >= -5 }

	var visited []int
	b.Traverse(pred, func(i int) { visited = append(visited, i) })

	if len(visited) != 1 || visited[0] != 0 {
		t.Fatalf("expected only primitive 0 visited, got %v", visited)
	}
}

func TestBVHNotBuiltTraverseIsNoop(t *testing.T) {
	b := NewBVH()
	if b.Built() {
		t.Fatalf("a fresh BVH must report Built() == false")
	}
	count := 0
	b.Traverse(func(AABB) bool { return true }, func(int) { count++ })
	if count != 0 {
		t.Fatalf("Traverse before Build should visit nothing, got %d", count)
	}
}

func TestBVHResetForcesRebuild(t *testing.T) {
	b := NewBVH()
	b.Build([]AABB{box(0, 0, 0, 1)})
	if !b.Built() {
		t.Fatalf("expected Built() == true after Build")
	}
	b.Reset()
	if b.Built() {
		t.Fatalf("expected Built() == false after Reset")
	}
}

func TestAABBUnionEnclosesBoth(t *testing.T) {
	a := box(0, 0, 0, 1)
	c := box(5, 0, 0, 1)
	u := a.Union(c)
	if u.Min[0] > a.Min[0] || u.Max[0] < c.Max[0] {
		t.Fatalf("union %v does not enclose both inputs", u)
	}
}

func TestAABBTransformIdentityPreservesBounds(t *testing.T) {
	a := box(1, 2, 3, 2)
	out := a.Transform(mgl32.Ident4())
	const eps = 1e-4
	for i := 0; i < 3; i++ {
		if abs32(out.Min[i]-a.Min[i]) > eps || abs32(out.Max[i]-a.Max[i]) > eps {
			t.Fatalf("identity transform changed bounds: got %v want %v", out, a)
		}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
