// barrier2.go
package vk

/*
#include <vulkan/vulkan.h>
*/
import "C"

// PipelineStageFlags2 and AccessFlags2 are the 64-bit synchronization2
// counterparts of PipelineStageFlags/AccessFlags (command.go), needed
// because stages like COPY/RESOLVE/BLIT only exist in the expanded sync2
// stage space. synchronization2 is a required device feature (§6); the
// teacher's PipelineBarrier only ever wraps the legacy vkCmdPipelineBarrier,
// so RenderGraph is built against this instead.
type PipelineStageFlags2 uint64
type AccessFlags2 uint64

const (
	PIPELINE_STAGE_2_NONE                     PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_NONE
	PIPELINE_STAGE_2_TOP_OF_PIPE_BIT          PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_TOP_OF_PIPE_BIT
	PIPELINE_STAGE_2_BOTTOM_OF_PIPE_BIT       PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_BOTTOM_OF_PIPE_BIT
	PIPELINE_STAGE_2_TRANSFER_BIT             PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_TRANSFER_BIT
	PIPELINE_STAGE_2_COLOR_ATTACHMENT_OUTPUT_BIT PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_COLOR_ATTACHMENT_OUTPUT_BIT
	PIPELINE_STAGE_2_EARLY_FRAGMENT_TESTS_BIT PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_EARLY_FRAGMENT_TESTS_BIT
	PIPELINE_STAGE_2_LATE_FRAGMENT_TESTS_BIT  PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_LATE_FRAGMENT_TESTS_BIT
	PIPELINE_STAGE_2_FRAGMENT_SHADER_BIT      PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_FRAGMENT_SHADER_BIT
	PIPELINE_STAGE_2_COMPUTE_SHADER_BIT       PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_COMPUTE_SHADER_BIT
	PIPELINE_STAGE_2_HOST_BIT                 PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_HOST_BIT
	PIPELINE_STAGE_2_ALL_COMMANDS_BIT         PipelineStageFlags2 = C.VK_PIPELINE_STAGE_2_ALL_COMMANDS_BIT

	ACCESS_2_NONE                         AccessFlags2 = C.VK_ACCESS_2_NONE
	ACCESS_2_COLOR_ATTACHMENT_WRITE_BIT   AccessFlags2 = C.VK_ACCESS_2_COLOR_ATTACHMENT_WRITE_BIT
	ACCESS_2_COLOR_ATTACHMENT_READ_BIT    AccessFlags2 = C.VK_ACCESS_2_COLOR_ATTACHMENT_READ_BIT
	ACCESS_2_DEPTH_STENCIL_ATTACHMENT_WRITE_BIT AccessFlags2 = C.VK_ACCESS_2_DEPTH_STENCIL_ATTACHMENT_WRITE_BIT
	ACCESS_2_DEPTH_STENCIL_ATTACHMENT_READ_BIT  AccessFlags2 = C.VK_ACCESS_2_DEPTH_STENCIL_ATTACHMENT_READ_BIT
	ACCESS_2_SHADER_READ_BIT              AccessFlags2 = C.VK_ACCESS_2_SHADER_READ_BIT
	ACCESS_2_SHADER_WRITE_BIT             AccessFlags2 = C.VK_ACCESS_2_SHADER_WRITE_BIT
	ACCESS_2_TRANSFER_READ_BIT            AccessFlags2 = C.VK_ACCESS_2_TRANSFER_READ_BIT
	ACCESS_2_TRANSFER_WRITE_BIT           AccessFlags2 = C.VK_ACCESS_2_TRANSFER_WRITE_BIT
	ACCESS_2_HOST_READ_BIT                AccessFlags2 = C.VK_ACCESS_2_HOST_READ_BIT
	ACCESS_2_MEMORY_READ_BIT              AccessFlags2 = C.VK_ACCESS_2_MEMORY_READ_BIT
	ACCESS_2_MEMORY_WRITE_BIT             AccessFlags2 = C.VK_ACCESS_2_MEMORY_WRITE_BIT
)

// ImageMemoryBarrier2 is ImageMemoryBarrier with 64-bit stage/access masks
// and the stage pair folded in, matching VkImageMemoryBarrier2.
type ImageMemoryBarrier2 struct {
	SrcStageMask        PipelineStageFlags2
	SrcAccessMask       AccessFlags2
	DstStageMask        PipelineStageFlags2
	DstAccessMask       AccessFlags2
	OldLayout           ImageLayout
	NewLayout           ImageLayout
	SrcQueueFamilyIndex uint32
	DstQueueFamilyIndex uint32
	Image               Image
	SubresourceRange    ImageSubresourceRange
}

// DependencyInfo batches one vkCmdPipelineBarrier2 call's image barriers
// (the RenderGraph never needs buffer or global memory barriers, only
// image layout/queue-family transitions between passes).
type DependencyInfo struct {
	DependencyFlags      uint32
	ImageMemoryBarriers2 []ImageMemoryBarrier2
}

// Barrier2 issues vkCmdPipelineBarrier2, the synchronization2 entry point
// §6 requires the device to support. Added alongside the teacher's
// PipelineBarrier (sync1) rather than replacing it, since existing callers
// (texture upload) are unaffected by the graph's adoption of sync2.
func (cmd CommandBuffer) Barrier2(info DependencyInfo) {
	var cBarriers []C.VkImageMemoryBarrier2
	if len(info.ImageMemoryBarriers2) > 0 {
		cBarriers = make([]C.VkImageMemoryBarrier2, len(info.ImageMemoryBarriers2))
		for i, b := range info.ImageMemoryBarriers2 {
			cBarriers[i].sType = C.VK_STRUCTURE_TYPE_IMAGE_MEMORY_BARRIER_2
			cBarriers[i].pNext = nil
			cBarriers[i].srcStageMask = C.VkPipelineStageFlags2(b.SrcStageMask)
			cBarriers[i].srcAccessMask = C.VkAccessFlags2(b.SrcAccessMask)
			cBarriers[i].dstStageMask = C.VkPipelineStageFlags2(b.DstStageMask)
			cBarriers[i].dstAccessMask = C.VkAccessFlags2(b.DstAccessMask)
			cBarriers[i].oldLayout = C.VkImageLayout(b.OldLayout)
			cBarriers[i].newLayout = C.VkImageLayout(b.NewLayout)
			cBarriers[i].srcQueueFamilyIndex = C.uint32_t(b.SrcQueueFamilyIndex)
			cBarriers[i].dstQueueFamilyIndex = C.uint32_t(b.DstQueueFamilyIndex)
			cBarriers[i].image = b.Image.handle
			cBarriers[i].subresourceRange.aspectMask = C.VkImageAspectFlags(b.SubresourceRange.AspectMask)
			cBarriers[i].subresourceRange.baseMipLevel = C.uint32_t(b.SubresourceRange.BaseMipLevel)
			cBarriers[i].subresourceRange.levelCount = C.uint32_t(b.SubresourceRange.LevelCount)
			cBarriers[i].subresourceRange.baseArrayLayer = C.uint32_t(b.SubresourceRange.BaseArrayLayer)
			cBarriers[i].subresourceRange.layerCount = C.uint32_t(b.SubresourceRange.LayerCount)
		}
	}

	depInfo := C.VkDependencyInfo{
		sType:      C.VK_STRUCTURE_TYPE_DEPENDENCY_INFO,
		pNext:      nil,
		dependencyFlags: C.VkDependencyFlags(info.DependencyFlags),
	}
	if len(cBarriers) > 0 {
		depInfo.imageMemoryBarrierCount = C.uint32_t(len(cBarriers))
		depInfo.pImageMemoryBarriers = &cBarriers[0]
	}

	C.vkCmdPipelineBarrier2(cmd.handle, &depInfo)
}
