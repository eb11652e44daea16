package mesh

// BVH is a binary tree over a flat set of world-space AABBs, rebuilt lazily
// whenever the scene is marked dirty (§3 "BVH", §4.8 render_scene: "rebuild
// the BVH iff !bvh_built || scene_dirty"). It is intentionally generic over
// "primitive index" rather than tied to Mesh/SubMesh directly, since the
// render package builds one BVH over the current frame's renderable list
// (one primitive per visible sub-mesh), not over a single mesh's sub-meshes.
type BVH struct {
	nodes      []bvhNode
	primitives []AABB // primitives[i] is the world AABB of primitive index i
	built      bool
}

type bvhNode struct {
	bounds      AABB
	left, right int32 // node indices, -1 if leaf
	primIndex   int32 // valid only when left == -1 && right == -1
}

func NewBVH() *BVH { return &BVH{} }

// Built reports whether Build has ever run since construction or Reset.
func (b *BVH) Built() bool { return b.built }

// Reset forces the next render_scene to rebuild from scratch, matching
// "!bvh_built" in §4.8's rebuild condition.
func (b *BVH) Reset() { b.built = false }

// Build rebuilds the tree over the given world-space AABBs. primitives[i]
// is reported to a matching Traverse visitor as primitive index i.
func (b *BVH) Build(primitives []AABB) {
	b.primitives = primitives
	b.nodes = b.nodes[:0]
	b.built = true

	if len(primitives) == 0 {
		return
	}
	indices := make([]int, len(primitives))
	for i := range indices {
		indices[i] = i
	}
	b.buildRange(indices)
}

// buildRange recursively partitions indices by a median split on the axis
// of greatest extent, appending nodes depth-first, and returns the index of
// the node it created.
func (b *BVH) buildRange(indices []int) int {
	bounds := b.primitives[indices[0]]
	for _, i := range indices[1:] {
		bounds = bounds.Union(b.primitives[i])
	}

	if len(indices) == 1 {
		b.nodes = append(b.nodes, bvhNode{bounds: bounds, left: -1, right: -1, primIndex: int32(indices[0])})
		return len(b.nodes) - 1
	}

	axis := widestAxis(bounds)
	mid := len(indices) / 2
	partitionByAxis(indices, b.primitives, axis, mid)

	leftIdx := b.buildRange(indices[:mid])
	rightIdx := b.buildRange(indices[mid:])
	b.nodes = append(b.nodes, bvhNode{bounds: bounds, left: int32(leftIdx), right: int32(rightIdx), primIndex: -1})
	return len(b.nodes) - 1
}

func widestAxis(b AABB) int {
	extent := b.Max.Sub(b.Min)
	axis := 0
	widest := extent[0]
	if extent[1] > widest {
		axis, widest = 1, extent[1]
	}
	if extent[2] > widest {
		axis = 2
	}
	return axis
}

// partitionByAxis reorders indices in place so the first mid entries have
// center[axis] <= the rest, using a simple selection partition (index counts
// here are in the hundreds to low thousands of sub-meshes per frame, not a
// hot inner loop, so an O(n^2) worst case is acceptable; ties break on
// insertion order so the split is deterministic for a fixed primitive set).
func partitionByAxis(indices []int, primitives []AABB, axis, mid int) {
	key := func(i int) float32 { return primitives[indices[i]].Center()[axis] }
	for i := 0; i < mid; i++ {
		minIdx := i
		for j := i + 1; j < len(indices); j++ {
			if key(j) < key(minIdx) {
				minIdx = j
			}
		}
		indices[i], indices[minIdx] = indices[minIdx], indices[i]
	}
}

// Traverse issues one visit(primitiveIndex) per primitive whose AABB passes
// predicate. Correctness requirement (§4.8): AABB in frustum => primitive
// reported; this conservatively descends any node whose bounds pass the
// predicate rather than pruning on a tighter test, so it can only
// over-report, never under-report.
func (b *BVH) Traverse(predicate func(AABB) bool, visit func(primitiveIndex int)) {
	if !b.built || len(b.nodes) == 0 {
		return
	}
	b.traverseNode(len(b.nodes)-1, predicate, visit)
}

func (b *BVH) traverseNode(nodeIdx int, predicate func(AABB) bool, visit func(primitiveIndex int)) {
	n := b.nodes[nodeIdx]
	if !predicate(n.bounds) {
		return
	}
	if n.left == -1 && n.right == -1 {
		visit(int(n.primIndex))
		return
	}
	b.traverseNode(int(n.left), predicate, visit)
	b.traverseNode(int(n.right), predicate, visit)
}
