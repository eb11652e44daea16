package pipeline

import (
	"fmt"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/logging"
	"github.com/BANANASJIM/violet/internal/shaderlib"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

var log = logging.For("pipeline")

// Graphics holds weak shader references and the materialized Vulkan
// pipeline; rebuild() re-derives the latter without losing the former,
// which is what makes hot-reload observe new SPIR-V (§4.3).
type Graphics struct {
	device      vk.Device
	descriptors *descriptor.Manager
	shaders     *shaderlib.Library

	config Config

	vertexName   string
	fragmentName string

	layoutCache descriptor.PipelineLayoutCacheHandle
	layout      vk.PipelineLayout
	handle      vk.Pipeline
	built       bool
}

// NewGraphics implements §4.3 build_pipeline() for the graphics case,
// constructing the object and performing the initial build. Shaders are
// addressed by name (not by a Handle taken once): every build re-resolves
// the current handle from the library so a reload between construction and
// a later Rebuild is always observed (see shaderlib.Library.HandleFor).
func NewGraphics(device vk.Device, descriptors *descriptor.Manager, shaders *shaderlib.Library, vertexName, fragmentName string, config Config) (*Graphics, error) {
	p := &Graphics{
		device: device, descriptors: descriptors, shaders: shaders,
		vertexName: vertexName, fragmentName: fragmentName, config: config,
	}
	if err := p.build(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Graphics) Handle() vk.Pipeline       { return p.handle }
func (p *Graphics) Layout() vk.PipelineLayout { return p.layout }

// Rebuild implements §4.3 rebuild(): re-run build() and, once it succeeds,
// destroy the old pipeline. Shader modules belong to the shader library and
// are not released here. Returns false (without destroying the live
// pipeline) when either shader was never loaded or build fails.
func (p *Graphics) Rebuild() bool {
	old := p.handle
	if err := p.build(); err != nil {
		log.Error("rebuild failed, keeping previous pipeline", "err", err)
		return false
	}
	if p.device != (vk.Device{}) && old != (vk.Pipeline{}) {
		p.device.DestroyPipeline(old)
	}
	return true
}

// build implements §4.3 build_pipeline() steps 1-7. Step 1's "upgrade both
// weak shader references" happens via a fresh by-name lookup each call, so
// a reload that landed between the previous build and this one is observed.
func (p *Graphics) build() error {
	vertH, ok := p.shaders.HandleFor(p.vertexName)
	if !ok {
		return fmt.Errorf("pipeline: vertex shader %q not loaded", p.vertexName)
	}
	vertSh, ok := p.shaders.Resolve(vertH)
	if !ok {
		return fmt.Errorf("pipeline: vertex shader %q reference expired", p.vertexName)
	}
	fragH, ok := p.shaders.HandleFor(p.fragmentName)
	if !ok {
		return fmt.Errorf("pipeline: fragment shader %q not loaded", p.fragmentName)
	}
	fragSh, ok := p.shaders.Resolve(fragH)
	if !ok {
		return fmt.Errorf("pipeline: fragment shader %q reference expired", p.fragmentName)
	}

	layouts := p.config.orderedLayouts()
	pcHandle := descriptor.NoPushConstants
	if p.descriptors != nil {
		pcHandle = p.descriptors.RegisterPushConstants(p.config.PushConstants)
	}

	var layoutCache descriptor.PipelineLayoutCacheHandle
	var vkLayout vk.PipelineLayout
	if p.descriptors != nil {
		var err error
		layoutCache, vkLayout, err = p.descriptors.GetOrCreatePipelineLayoutCache(layouts, pcHandle)
		if err != nil {
			return fmt.Errorf("pipeline: pipeline layout: %w", err)
		}
	}

	if p.device == (vk.Device{}) {
		p.layoutCache, p.layout, p.built = layoutCache, vkLayout, true
		return nil
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		{Stage: vertSh.Stage.VkStageFlag(), Module: vertSh.Module(), Name: vertSh.EntryPoint},
		{Stage: fragSh.Stage.VkStageFlag(), Module: fragSh.Module(), Name: fragSh.EntryPoint},
	}

	// UseVertexInput is carried on Config per §4.3 step 4 but the teacher's
	// VertexInputState has no attribute/binding fields yet (vertices are
	// hardcoded in the shader); both branches produce the same empty state
	// until that struct grows attribute descriptions.
	createInfo := &vk.GraphicsPipelineCreateInfo{
		Stages:           stages,
		VertexInputState: &vk.PipelineVertexInputStateCreateInfo{},
		InputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			Topology: p.config.PrimitiveTopology,
		},
		ViewportState: &vk.PipelineViewportStateCreateInfo{
			Viewports: []vk.Viewport{{}},
			Scissors:  []vk.Rect2D{{}},
		},
		RasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			PolygonMode: p.config.PolygonMode,
			CullMode:    p.config.CullMode,
			FrontFace:   vk.FRONT_FACE_COUNTER_CLOCKWISE,
			LineWidth:   lineWidthOrDefault(p.config.LineWidth),
		},
		MultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			RasterizationSamples: vk.SAMPLE_COUNT_1_BIT,
		},
		ColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			Attachments: colorBlendAttachments(len(p.config.ColorFormats), p.config.EnableBlending),
		},
		DepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  p.config.EnableDepthTest,
			DepthWriteEnable: p.config.EnableDepthWrite,
			DepthCompareOp:   p.config.DepthCompareOp,
		},
		DynamicState: &vk.PipelineDynamicStateCreateInfo{
			DynamicStates: []vk.DynamicState{vk.DYNAMIC_STATE_VIEWPORT, vk.DYNAMIC_STATE_SCISSOR},
		},
		Layout: vkLayout,
		RenderingInfo: &vk.PipelineRenderingCreateInfo{
			ColorAttachmentFormats:  p.config.ColorFormats,
			DepthAttachmentFormat:   p.config.DepthFormat,
			StencilAttachmentFormat: p.config.StencilFormat,
		},
	}

	pipe, err := p.device.CreateGraphicsPipeline(createInfo)
	if err != nil {
		return fmt.Errorf("pipeline: vkCreateGraphicsPipelines: %w", err)
	}

	p.layoutCache, p.layout, p.handle, p.built = layoutCache, vkLayout, pipe, true
	return nil
}

func lineWidthOrDefault(w float32) float32 {
	if w <= 0 {
		return 1.0
	}
	return w
}

// colorBlendAttachments returns one attachment state per color target; every
// target shares the same blend-enable flag (§4.3 "single color-blend
// attachment with standard src-alpha blending when enabled" generalized to N
// attachments for MRT-capable passes).
func colorBlendAttachments(count int, enable bool) []vk.PipelineColorBlendAttachmentState {
	if count == 0 {
		count = 1
	}
	out := make([]vk.PipelineColorBlendAttachmentState, count)
	for i := range out {
		out[i] = defaultColorBlendAttachment(enable)
	}
	return out
}
