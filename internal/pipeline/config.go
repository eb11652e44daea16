// Package pipeline builds and rebuilds VkPipeline objects from weak
// shaderlib.Handle references and a PipelineConfig, implementing §4.3.
// Grounded on the teacher's internal/vk/pipeline.go (vulkanize/free, dynamic
// rendering via PipelineRenderingCreateInfo) and vala/systems/render.go for
// the pattern of holding a cached Pipeline/PipelineLayout pair and rebuilding
// it in place on shader reload.
package pipeline

import (
	"github.com/BANANASJIM/violet/internal/descriptor"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

// Config is the PipelineConfig of §4.3. Dynamic rendering is assumed: color
// and depth/stencil formats are declared directly, no render pass object is
// built.
type Config struct {
	PrimitiveTopology vk.PrimitiveTopology
	PolygonMode       vk.PolygonMode
	CullMode          vk.CullModeFlags
	LineWidth         float32

	EnableDepthTest  bool
	EnableDepthWrite bool
	DepthCompareOp   vk.CompareOp

	EnableBlending bool
	UseVertexInput bool

	ColorFormats  []vk.Format
	DepthFormat   vk.Format
	StencilFormat vk.Format

	PushConstants descriptor.PushConstantDesc

	// Descriptor set order: [GlobalDescriptorSetLayout, MaterialDescriptorSetLayout, AdditionalDescriptorSetLayouts...].
	// Zero-value handles are skipped (§4.3 "skipping nulls").
	GlobalDescriptorSetLayout   descriptor.LayoutHandle
	MaterialDescriptorSetLayout descriptor.LayoutHandle
	AdditionalDescriptorSetLayouts []descriptor.LayoutHandle
}

// orderedLayouts composes the ordered descriptor set layout list, skipping
// the global/material slots when unused (§4.3 step 3).
func (c Config) orderedLayouts() []descriptor.LayoutHandle {
	var layouts []descriptor.LayoutHandle
	if c.GlobalDescriptorSetLayout != descriptor.InvalidLayoutHandle {
		layouts = append(layouts, c.GlobalDescriptorSetLayout)
	}
	if c.MaterialDescriptorSetLayout != descriptor.InvalidLayoutHandle {
		layouts = append(layouts, c.MaterialDescriptorSetLayout)
	}
	layouts = append(layouts, c.AdditionalDescriptorSetLayouts...)
	return layouts
}

func defaultColorBlendAttachment(enable bool) vk.PipelineColorBlendAttachmentState {
	return vk.PipelineColorBlendAttachmentState{
		BlendEnable:    enable,
		ColorWriteMask: vk.COLOR_COMPONENT_ALL,
	}
}
