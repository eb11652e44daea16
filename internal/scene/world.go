package scene

import (
	"fmt"

	"github.com/BANANASJIM/violet/internal/mesh"
)

// World is a minimal ECS mirroring vala/ecs.World's shape (one map per
// component type, entity existence tracked separately) but keyed to this
// core's components instead of vala's 2D sprite/text/UI set.
type World struct {
	nextEntity Entity
	entities   map[Entity]bool

	transforms map[Entity]Transform
	meshRefs   map[Entity]mesh.Handle
	materials  map[Entity]uint32
	cameras    map[Entity]Camera
	lights     map[Entity]Light

	activeCamera Entity

	// dirty is set whenever SetTransform changes an existing entity's
	// transform, so the render package can flip its BVH scene_dirty flag
	// (§4.8 "Scene dirtying") without having to diff transforms itself.
	dirty bool
}

func NewWorld() *World {
	return &World{
		entities:   make(map[Entity]bool),
		transforms: make(map[Entity]Transform),
		meshRefs:   make(map[Entity]mesh.Handle),
		materials:  make(map[Entity]uint32),
		cameras:    make(map[Entity]Camera),
		lights:     make(map[Entity]Light),
		nextEntity: 1,
	}
}

func (w *World) CreateEntity() Entity {
	e := w.nextEntity
	w.nextEntity++
	w.entities[e] = true
	return e
}

func (w *World) DeleteEntity(e Entity) {
	delete(w.entities, e)
	delete(w.transforms, e)
	delete(w.meshRefs, e)
	delete(w.materials, e)
	delete(w.cameras, e)
	delete(w.lights, e)
}

func (w *World) EntityExists(e Entity) bool { return w.entities[e] }

// Entities implements SceneView.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.entities))
	for e := range w.entities {
		out = append(out, e)
	}
	return out
}

func (w *World) mustExist(e Entity) {
	if !w.EntityExists(e) {
		panic(fmt.Sprintf("entity %d does not exist", e))
	}
}

// SetTransform adds or overwrites entity e's Transform. Overwriting an
// existing transform marks the world dirty (§4.8 scene dirtying); the
// first-ever write for a newly created entity does not, since the BVH has
// nothing built yet to invalidate.
func (w *World) SetTransform(e Entity, t Transform) {
	w.mustExist(e)
	if _, existed := w.transforms[e]; existed {
		w.dirty = true
	}
	w.transforms[e] = t
}

// Transform implements SceneView.
func (w *World) Transform(e Entity) (Transform, bool) {
	t, ok := w.transforms[e]
	return t, ok
}

func (w *World) SetMeshRef(e Entity, h mesh.Handle) {
	w.mustExist(e)
	w.meshRefs[e] = h
}

// MeshRef implements SceneView.
func (w *World) MeshRef(e Entity) (mesh.Handle, bool) {
	h, ok := w.meshRefs[e]
	return h, ok
}

func (w *World) SetMaterialRef(e Entity, globalMaterialID uint32) {
	w.mustExist(e)
	w.materials[e] = globalMaterialID
}

// MaterialRef implements SceneView.
func (w *World) MaterialRef(e Entity) (uint32, bool) {
	id, ok := w.materials[e]
	return id, ok
}

func (w *World) SetCamera(e Entity, c Camera) {
	w.mustExist(e)
	w.cameras[e] = c
}

// SetActiveCamera designates which camera entity Camera() resolves.
func (w *World) SetActiveCamera(e Entity) { w.activeCamera = e }

// Camera implements SceneView, resolving the designated active camera.
func (w *World) Camera() (Camera, bool) {
	c, ok := w.cameras[w.activeCamera]
	return c, ok
}

func (w *World) AddLight(e Entity, l Light) {
	w.mustExist(e)
	w.lights[e] = l
}

func (w *World) RemoveLight(e Entity) { delete(w.lights, e) }

// Lights implements SceneView.
func (w *World) Lights() []Light {
	out := make([]Light, 0, len(w.lights))
	for _, l := range w.lights {
		out = append(out, l)
	}
	return out
}

// Dirty reports whether any entity's transform changed since the last
// ClearDirty call.
func (w *World) Dirty() bool { return w.dirty }

// ClearDirty resets the dirty flag. Nothing in the render package calls it;
// ForwardRenderer receives the dirty state as a RenderFrame argument.
func (w *World) ClearDirty() { w.dirty = false }

var _ SceneView = (*World)(nil)
