package texture

import vk "github.com/BANANASJIM/violet/internal/vk"

// oneShot wraps the allocate->begin->record->end->submit->WaitIdle->free
// sequence the teacher repeats inline at every texture/atlas upload site
// (vala.go's atlas and glyph uploads). Callers only supply the recording
// step; this owns the command buffer's lifetime.
func oneShot(device vk.Device, pool vk.CommandPool, queue vk.Queue, record func(cmd vk.CommandBuffer)) error {
	bufs, err := device.AllocateCommandBuffers(&vk.CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              vk.COMMAND_BUFFER_LEVEL_PRIMARY,
		CommandBufferCount: 1,
	})
	if err != nil {
		return err
	}
	cmd := bufs[0]
	defer device.FreeCommandBuffers(pool, []vk.CommandBuffer{cmd})

	if err := cmd.Begin(&vk.CommandBufferBeginInfo{Flags: vk.COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT}); err != nil {
		return err
	}
	record(cmd)
	if err := cmd.End(); err != nil {
		return err
	}

	if err := queue.Submit([]vk.SubmitInfo{{CommandBuffers: []vk.CommandBuffer{cmd}}}, vk.Fence{}); err != nil {
		return err
	}
	return queue.WaitIdle()
}

func fullColorRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.IMAGE_ASPECT_COLOR_BIT,
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
}

func transitionColorLayout(cmd vk.CommandBuffer, image vk.Image, oldLayout, newLayout vk.ImageLayout,
	srcStage, dstStage vk.PipelineStageFlags, srcAccess, dstAccess vk.AccessFlags) {
	cmd.PipelineBarrier(srcStage, dstStage, 0, []vk.ImageMemoryBarrier{
		{
			SrcAccessMask:       srcAccess,
			DstAccessMask:       dstAccess,
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: ^uint32(0),
			DstQueueFamilyIndex: ^uint32(0),
			Image:               image,
			SubresourceRange:    fullColorRange(),
		},
	})
}

// uploadPixels moves width*height*4 RGBA8 bytes from host memory into a
// fresh device-local image, following the teacher's stage->copy->transition
// pattern (vala.go glyph atlas upload) rather than CPU-visible image tiling.
func uploadPixels(device vk.Device, physicalDevice vk.PhysicalDevice, pool vk.CommandPool, queue vk.Queue,
	image vk.Image, width, height uint32, pixels []byte) error {

	staging, stagingMemory, err := device.CreateBufferWithMemory(
		uint64(len(pixels)),
		vk.BUFFER_USAGE_TRANSFER_SRC_BIT,
		vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT|vk.MEMORY_PROPERTY_HOST_COHERENT_BIT,
		physicalDevice,
	)
	if err != nil {
		return err
	}
	defer device.DestroyBuffer(staging)
	defer device.FreeMemory(stagingMemory)

	if err := device.UploadToBuffer(stagingMemory, pixels); err != nil {
		return err
	}

	return oneShot(device, pool, queue, func(cmd vk.CommandBuffer) {
		transitionColorLayout(cmd, image, vk.IMAGE_LAYOUT_UNDEFINED, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL,
			vk.PIPELINE_STAGE_TOP_OF_PIPE_BIT, vk.PIPELINE_STAGE_TRANSFER_BIT,
			vk.ACCESS_NONE, vk.ACCESS_TRANSFER_WRITE_BIT)

		cmd.CopyBufferToImage(staging, image, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, []vk.BufferImageCopy{
			{
				ImageSubresource: vk.ImageSubresourceLayers{
					AspectMask:     vk.IMAGE_ASPECT_COLOR_BIT,
					MipLevel:       0,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
			},
		})

		transitionColorLayout(cmd, image, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL,
			vk.PIPELINE_STAGE_TRANSFER_BIT, vk.PIPELINE_STAGE_FRAGMENT_SHADER_BIT,
			vk.ACCESS_TRANSFER_WRITE_BIT, vk.ACCESS_SHADER_READ_BIT)
	})
}
