package pipeline

import (
	"fmt"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/shaderlib"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

// Compute mirrors Graphics with a single compute shader and a simpler
// layout: no render-target formats, no vertex input, no rasterizer state
// (§4.3 "ComputePipeline mirrors the above").
type Compute struct {
	device      vk.Device
	descriptors *descriptor.Manager
	shaders     *shaderlib.Library

	layouts       []descriptor.LayoutHandle
	pushConstants descriptor.PushConstantDesc

	computeName string

	layoutCache descriptor.PipelineLayoutCacheHandle
	layout      vk.PipelineLayout
	handle      vk.Pipeline
}

func NewCompute(device vk.Device, descriptors *descriptor.Manager, shaders *shaderlib.Library, computeName string, layouts []descriptor.LayoutHandle, pushConstants descriptor.PushConstantDesc) (*Compute, error) {
	p := &Compute{
		device: device, descriptors: descriptors, shaders: shaders,
		computeName: computeName, layouts: layouts, pushConstants: pushConstants,
	}
	if err := p.build(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Compute) Handle() vk.Pipeline       { return p.handle }
func (p *Compute) Layout() vk.PipelineLayout { return p.layout }

func (p *Compute) Rebuild() bool {
	old := p.handle
	if err := p.build(); err != nil {
		log.Error("compute rebuild failed, keeping previous pipeline", "err", err)
		return false
	}
	if p.device != (vk.Device{}) && old != (vk.Pipeline{}) {
		p.device.DestroyPipeline(old)
	}
	return true
}

func (p *Compute) build() error {
	h, ok := p.shaders.HandleFor(p.computeName)
	if !ok {
		return fmt.Errorf("pipeline: compute shader %q not loaded", p.computeName)
	}
	sh, ok := p.shaders.Resolve(h)
	if !ok {
		return fmt.Errorf("pipeline: compute shader %q reference expired", p.computeName)
	}

	pcHandle := descriptor.NoPushConstants
	if p.descriptors != nil {
		pcHandle = p.descriptors.RegisterPushConstants(p.pushConstants)
	}

	var layoutCache descriptor.PipelineLayoutCacheHandle
	var vkLayout vk.PipelineLayout
	if p.descriptors != nil {
		var err error
		layoutCache, vkLayout, err = p.descriptors.GetOrCreatePipelineLayoutCache(p.layouts, pcHandle)
		if err != nil {
			return fmt.Errorf("pipeline: compute pipeline layout: %w", err)
		}
	}

	if p.device == (vk.Device{}) {
		p.layoutCache, p.layout = layoutCache, vkLayout
		return nil
	}

	pipe, err := p.device.CreateComputePipeline(&vk.ComputePipelineCreateInfo{
		Stage:  vk.PipelineShaderStageCreateInfo{Stage: sh.Stage.VkStageFlag(), Module: sh.Module(), Name: sh.EntryPoint},
		Layout: vkLayout,
	})
	if err != nil {
		return fmt.Errorf("pipeline: vkCreateComputePipelines: %w", err)
	}

	p.layoutCache, p.layout, p.handle = layoutCache, vkLayout, pipe
	return nil
}

// Dispatch implements §4.3's compute-only operation: a thin wrapper over
// vkCmdDispatch in the same idiom as the teacher's CommandBuffer.Draw.
func (p *Compute) Dispatch(cmd vk.CommandBuffer, groupsX, groupsY, groupsZ uint32) {
	cmd.BindPipeline(vk.PIPELINE_BIND_POINT_COMPUTE, p.handle)
	cmd.Dispatch(groupsX, groupsY, groupsZ)
}
