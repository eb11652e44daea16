package material

import (
	"github.com/BANANASJIM/violet/internal/pipeline"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

// CreatePBRBindlessMaterial implements §4.4's PBR recipe: [Global, Bindless,
// MaterialData] with an 80 B vertex+fragment push constant range.
func (m *Manager) CreatePBRBindlessMaterial(name, vertexShader, fragmentShader string, colorFormats []vk.Format, depthFormat vk.Format) (*Material, error) {
	return m.CreateMaterial(CreateDesc{
		Name:                     name,
		VertexShader:             vertexShader,
		FragmentShader:           fragmentShader,
		DescriptorSetLayoutNames: []string{"Global", "Bindless", "MaterialData"},
		Type:                     TypePBR,
		PipelineConfig: pipeline.Config{
			PrimitiveTopology: vk.PRIMITIVE_TOPOLOGY_TRIANGLE_LIST,
			CullMode:          vk.CULL_MODE_BACK_BIT,
			EnableDepthTest:   true,
			EnableDepthWrite:  true,
			DepthCompareOp:    vk.COMPARE_OP_LESS,
			ColorFormats:      colorFormats,
			DepthFormat:       depthFormat,
			PushConstants:     pbrPushConstantRanges(),
		},
	})
}

// CreatePostProcessMaterial implements §4.4's PostProcess recipe: [PostProcess]
// (set 0 only), 16 B vertex+fragment push constants, no depth test (a
// full-screen triangle pass).
func (m *Manager) CreatePostProcessMaterial(name, vertexShader, fragmentShader string, colorFormats []vk.Format) (*Material, error) {
	return m.CreateMaterial(CreateDesc{
		Name:                     name,
		VertexShader:             vertexShader,
		FragmentShader:           fragmentShader,
		DescriptorSetLayoutNames: []string{"PostProcess"},
		Type:                     TypePostProcess,
		PipelineConfig: pipeline.Config{
			PrimitiveTopology: vk.PRIMITIVE_TOPOLOGY_TRIANGLE_LIST,
			CullMode:          vk.CULL_MODE_NONE,
			ColorFormats:      colorFormats,
			PushConstants:     postProcessPushConstantRanges(),
		},
	})
}

// CreateSkyboxMaterial implements §4.4's Skybox recipe: [Global, Bindless],
// depth_compare_op = LessOrEqual, no depth write, no culling (drawn inside
// the far-plane-clamped cube/triangle).
func (m *Manager) CreateSkyboxMaterial(name, vertexShader, fragmentShader string, colorFormats []vk.Format, depthFormat vk.Format) (*Material, error) {
	return m.CreateMaterial(CreateDesc{
		Name:                     name,
		VertexShader:             vertexShader,
		FragmentShader:           fragmentShader,
		DescriptorSetLayoutNames: []string{"Global", "Bindless"},
		Type:                     TypeSkybox,
		PipelineConfig: pipeline.Config{
			PrimitiveTopology: vk.PRIMITIVE_TOPOLOGY_TRIANGLE_LIST,
			CullMode:          vk.CULL_MODE_NONE,
			EnableDepthTest:   true,
			EnableDepthWrite:  false,
			DepthCompareOp:    vk.COMPARE_OP_LESS_OR_EQUAL,
			ColorFormats:      colorFormats,
			DepthFormat:       depthFormat,
			PushConstants:     pbrPushConstantRanges(),
		},
	})
}
