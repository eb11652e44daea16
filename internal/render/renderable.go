package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/BANANASJIM/violet/internal/mesh"
	"github.com/BANANASJIM/violet/internal/scene"
)

// Renderable is one drawable sub-mesh with its resolved world transform and
// material (GLOSSARY "Renderable"; §4.8 collect_renderables).
type Renderable struct {
	Entity         scene.Entity
	Mesh           mesh.Handle
	MaterialID     uint32 // 0 if the entity has no material ref
	WorldTransform mgl32.Mat4
	SubmeshIndex   int
}

// RenderStats is returned by RenderFrame (§4.8 expansion: "promoted ... into
// an explicit struct field").
type RenderStats struct {
	DrawCalls          int
	VisibleRenderables int
	CulledRenderables  int
	FrameIndex         uint32
}
