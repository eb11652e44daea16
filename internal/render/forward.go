package render

import (
	"time"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/material"
	"github.com/BANANASJIM/violet/internal/mesh"
	"github.com/BANANASJIM/violet/internal/rendergraph"
	"github.com/BANANASJIM/violet/internal/scene"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

// pbrPushConstants mirrors §6's 80-byte push-constant block: model matrix,
// material_id, and three reserved padding words.
type pbrPushConstants struct {
	Model      mgl32.Mat4
	MaterialID uint32
}

const pbrPushConstantsSize = 80

func (p pbrPushConstants) encode() []byte {
	buf := make([]byte, pbrPushConstantsSize)
	putMat4(buf[0:], p.Model)
	putU32(buf[64:], p.MaterialID)
	return buf
}

// ForwardRenderer orchestrates one frame (§4.8): assembling the renderable
// list, updating the global uniforms, rebuilding the scene BVH on demand,
// and driving the rendergraph's passes.
type ForwardRenderer struct {
	descriptors *descriptor.Manager
	materials   *material.Manager
	meshes      *mesh.Manager

	perFrame     *PerFrameUniforms
	autoExposure *AutoExposure
	tonemap      TonemapConfig

	pbrMaterial    *material.Material
	skyboxMaterial *material.Material
	postProcess    *material.Material

	bvh         *mesh.BVH
	renderables []Renderable

	globalSet      vk.DescriptorSet
	bindlessSet    vk.DescriptorSet
	materialSet    vk.DescriptorSet
	postProcessSet vk.DescriptorSet

	lastFrameTime time.Time
	haveLastFrame bool

	stats RenderStats
}

// Config gathers the pre-built collaborators a ForwardRenderer is
// constructed from; materials are created by the caller via
// material.Manager's recipe methods (§4.4) and handed in by reference so
// construction order stays explicit (descriptors -> shaders -> materials ->
// renderer).
type Config struct {
	Descriptors    *descriptor.Manager
	Materials      *material.Manager
	Meshes         *mesh.Manager
	PerFrame       *PerFrameUniforms
	AutoExposure   *AutoExposure
	Tonemap        TonemapConfig
	PBRMaterial    *material.Material
	SkyboxMaterial *material.Material
	PostProcess    *material.Material
}

func NewForwardRenderer(cfg Config) *ForwardRenderer {
	return &ForwardRenderer{
		descriptors:    cfg.Descriptors,
		materials:      cfg.Materials,
		meshes:         cfg.Meshes,
		perFrame:       cfg.PerFrame,
		autoExposure:   cfg.AutoExposure,
		tonemap:        cfg.Tonemap,
		pbrMaterial:    cfg.PBRMaterial,
		skyboxMaterial: cfg.SkyboxMaterial,
		postProcess:    cfg.PostProcess,
		bvh:            mesh.NewBVH(),
	}
}

// BindSceneSets records the already-allocated descriptor sets render_scene
// binds once per frame (§4.8 step 3: "bind [Global, Bindless, MaterialData]
// once"). Call after allocating them through the DescriptorManager.
func (r *ForwardRenderer) BindSceneSets(global, bindless, materialSet vk.DescriptorSet) {
	r.globalSet, r.bindlessSet, r.materialSet = global, bindless, materialSet
}

// BindPostProcessSet records the PostProcess descriptor set (§4.8 step 5).
func (r *ForwardRenderer) BindPostProcessSet(set vk.DescriptorSet) {
	r.postProcessSet = set
}

// BeginFrame implements §4.8 begin_frame: track dt, advance auto-exposure,
// refresh the global uniforms, and collect this frame's renderable list.
func (r *ForwardRenderer) BeginFrame(world scene.SceneView, frameIndex uint32) {
	now := time.Now()
	var dt float32
	if r.haveLastFrame {
		dt = float32(now.Sub(r.lastFrameTime).Seconds())
	}
	r.lastFrameTime, r.haveLastFrame = now, true

	if r.autoExposure != nil {
		r.autoExposure.Update(dt)
	}

	r.perFrame.SetCurrentFrame(frameIndex)
	if r.descriptors != nil {
		r.descriptors.SetCurrentFrame(frameIndex)
	}
	r.updateGlobalUniforms(world)
	r.collectRenderables(world)
}

// updateGlobalUniforms implements §4.8 step 3: populate the managed PerFrame
// UBO from the active camera and the scene's lights.
func (r *ForwardRenderer) updateGlobalUniforms(world scene.SceneView) {
	cam, ok := world.Camera()
	if !ok {
		return
	}

	u := GlobalUBO{
		View:      cam.View(),
		Proj:      cam.Proj(),
		CameraPos: cam.Position,
	}

	lights := world.Lights()
	n := len(lights)
	if n > MaxLights {
		n = MaxLights
	}
	u.NumLights = uint32(n)
	for i := 0; i < n; i++ {
		l := lights[i]
		pos := l.Position
		if l.Type == scene.LightDirectional {
			pos = l.Direction
		}
		u.LightPositions[i] = mgl32.Vec4{pos[0], pos[1], pos[2], float32(l.Type)}
		u.LightColors[i] = mgl32.Vec4{l.Color[0], l.Color[1], l.Color[2], l.Intensity}
	}

	r.perFrame.Write(u.Encode())
}

// collectRenderables implements §4.8 step 4: one Renderable per valid
// sub-mesh, using the entity's transform and material ref. It reads no
// scene-dirty flag: whether the BVH is rebuilt is decided by the dirty
// argument the caller passes to RenderFrame.
func (r *ForwardRenderer) collectRenderables(world scene.SceneView) {
	r.renderables = r.renderables[:0]
	for _, e := range world.Entities() {
		transform, ok := world.Transform(e)
		if !ok {
			continue
		}
		meshHandle, ok := world.MeshRef(e)
		if !ok {
			continue
		}
		msh, ok := r.meshes.Get(meshHandle)
		if !ok || !msh.IsValid() {
			continue
		}
		materialID, _ := world.MaterialRef(e)
		worldMatrix := transform.Matrix()
		msh.RefreshWorldAABBs(worldMatrix)

		for i, sm := range msh.SubMeshes() {
			if !sm.IsValid() {
				continue
			}
			r.renderables = append(r.renderables, Renderable{
				Entity:         e,
				Mesh:           meshHandle,
				MaterialID:     materialID,
				WorldTransform: worldMatrix,
				SubmeshIndex:   i,
			})
		}
	}
}

// buildSceneBVH rebuilds r.bvh over every current renderable's world AABB
// (§4.8 "rebuild the BVH iff !bvh_built || scene_dirty").
func (r *ForwardRenderer) buildSceneBVH() {
	boxes := make([]mesh.AABB, len(r.renderables))
	for i, ra := range r.renderables {
		msh, _ := r.meshes.Get(ra.Mesh)
		box, _ := msh.WorldAABB(ra.SubmeshIndex)
		boxes[i] = box
	}
	r.bvh.Build(boxes)
}

// VisibleRenderables rebuilds the BVH when needed and traverses it against
// frustum, returning the renderables that survive culling in traversal
// order (§4.8 step 3, §8 frustum invariant).
func (r *ForwardRenderer) VisibleRenderables(world scene.SceneView, dirty bool, frustum Frustum) []Renderable {
	if !r.bvh.Built() || dirty {
		r.buildSceneBVH()
	}

	visible := make([]Renderable, 0, len(r.renderables))
	r.bvh.Traverse(frustum.TestAABB, func(idx int) {
		visible = append(visible, r.renderables[idx])
	})
	return visible
}

// RenderFrame implements §4.8 render_frame: drive the pass graph, issuing
// the main pass's scene draws and (optionally) the PostProcess pass. cmd may
// be a zero-value CommandBuffer in bookkeeping-only tests, in which case no
// cgo call is made and only RenderStats/renderable bookkeeping is exercised.
func (r *ForwardRenderer) RenderFrame(world scene.SceneView, graph *rendergraph.Graph, cmd vk.CommandBuffer, dirty bool, extent Extent2D, frameIndex uint32) RenderStats {
	r.stats = RenderStats{FrameIndex: frameIndex}

	cam, haveCamera := world.Camera()
	var frustum Frustum
	if haveCamera {
		frustum = BuildFrustum(cam.Proj().Mul4(cam.View()))
	}

	visible := r.VisibleRenderables(world, dirty, frustum)
	r.stats.VisibleRenderables = len(visible)
	r.stats.CulledRenderables = len(r.renderables) - len(visible)

	if graph != nil {
		mainPass := graph.AddPass("Main", func(cmd vk.CommandBuffer) {
			r.recordMainPass(cmd, visible, extent)
		})
		wireIfDeclared(graph, mainPass, HDRColorResource, vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL, colorAttachmentSync(), true)
		wireIfDeclared(graph, mainPass, DepthResource, vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL, colorAttachmentSync(), true)

		if r.postProcess != nil {
			postPass := graph.AddPass("PostProcess", func(cmd vk.CommandBuffer) {
				r.recordPostProcessPass(cmd, extent)
			})
			wireIfDeclared(graph, postPass, HDRColorResource, vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, fragmentReadSync(), false)
			wireIfDeclared(graph, postPass, DepthResource, vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, fragmentReadSync(), false)
			wireIfDeclared(graph, postPass, SwapchainColorResource, vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL, colorAttachmentSync(), true)
		}
		graph.Execute(cmd)
	} else {
		r.recordMainPass(cmd, visible, extent)
		if r.postProcess != nil {
			r.recordPostProcessPass(cmd, extent)
		}
	}

	return r.stats
}

// Extent2D is a local alias kept distinct from rendergraph.Extent so callers
// don't need to import rendergraph just to describe a viewport.
type Extent2D struct{ Width, Height uint32 }

// recordMainPass implements §4.8 step 2-3: viewport/scissor, then one bind
// of [Global, Bindless, MaterialData] followed by one drawIndexed per
// visible renderable (rebinding vertex/index buffers only on mesh change).
// No skybox is drawn; the renderer's skybox material is not used here.
func (r *ForwardRenderer) recordMainPass(cmd vk.CommandBuffer, visible []Renderable, extent Extent2D) {
	if r.pbrMaterial == nil || r.pbrMaterial.Pipeline == nil {
		return
	}
	live := cmd != (vk.CommandBuffer{})

	if live {
		cmd.SetViewport(0, []vk.Viewport{{Width: float32(extent.Width), Height: float32(extent.Height), MinDepth: 0, MaxDepth: 1}})
		cmd.SetScissor(0, []vk.Rect2D{{Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height}}})
		cmd.BindPipeline(vk.PIPELINE_BIND_POINT_GRAPHICS, r.pbrMaterial.Pipeline.Handle())
		r.descriptors.BindDescriptors(cmd, r.pbrMaterial.Pipeline.Layout(),
			[]vk.DescriptorSet{r.globalSet, r.bindlessSet, r.materialSet},
			[]uint32{r.perFrame.DynamicOffset()})
	}

	var boundMesh mesh.Handle
	for _, ra := range visible {
		msh, ok := r.meshes.Get(ra.Mesh)
		if !ok {
			continue
		}
		sub := msh.SubMeshes()[ra.SubmeshIndex]

		if live && ra.Mesh != boundMesh {
			cmd.BindVertexBuffers(0, []vk.Buffer{msh.VertexBuffer()}, []uint64{0})
			cmd.BindIndexBuffer(msh.IndexBuffer(), 0, msh.IndexType())
			boundMesh = ra.Mesh
		}

		if live {
			pc := pbrPushConstants{Model: ra.WorldTransform, MaterialID: ra.MaterialID}.encode()
			cmd.CmdPushConstants(r.pbrMaterial.Pipeline.Layout(),
				vk.SHADER_STAGE_VERTEX_BIT|vk.SHADER_STAGE_FRAGMENT_BIT, 0, pbrPushConstantsSize,
				unsafe.Pointer(&pc[0]))
			cmd.DrawIndexed(sub.IndexCount, 1, sub.FirstIndex, 0, 0)
		}
		r.stats.DrawCalls++
	}
}

// recordPostProcessPass implements §4.8 step 5: bind the PostProcess
// pipeline/set and push {ev100, gamma, tonemap_mode, padding}, then draw a
// 3-vertex full-screen triangle.
func (r *ForwardRenderer) recordPostProcessPass(cmd vk.CommandBuffer, extent Extent2D) {
	if r.postProcess == nil || r.postProcess.Pipeline == nil {
		return
	}
	if cmd == (vk.CommandBuffer{}) {
		return
	}

	var ev100 float32
	if r.autoExposure != nil {
		ev100 = r.autoExposure.EffectiveEV100()
	}

	cmd.SetViewport(0, []vk.Viewport{{Width: float32(extent.Width), Height: float32(extent.Height), MinDepth: 0, MaxDepth: 1}})
	cmd.SetScissor(0, []vk.Rect2D{{Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height}}})
	cmd.BindPipeline(vk.PIPELINE_BIND_POINT_GRAPHICS, r.postProcess.Pipeline.Handle())
	r.descriptors.BindDescriptors(cmd, r.postProcess.Pipeline.Layout(), []vk.DescriptorSet{r.postProcessSet}, nil)

	pc := PostProcessPushConstants{EV100: ev100, Gamma: r.tonemap.Gamma, TonemapMode: r.tonemap.Mode}.Encode()
	cmd.CmdPushConstants(r.postProcess.Pipeline.Layout(),
		vk.SHADER_STAGE_VERTEX_BIT|vk.SHADER_STAGE_FRAGMENT_BIT, 0, PostProcessPushConstantsSize,
		unsafe.Pointer(&pc[0]))
	cmd.Draw(3, 1, 0, 0)
}
