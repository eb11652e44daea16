package mesh

import vk "github.com/BANANASJIM/violet/internal/vk"

// uploadToDeviceLocalBuffer stages data through a host-visible buffer and
// copies it into a fresh device-local buffer of the given usage, following
// the same stage->copy single-time-command pattern internal/texture uses
// for image uploads (grounded on vala.go's upload sequence).
func uploadToDeviceLocalBuffer(device vk.Device, physicalDevice vk.PhysicalDevice, pool vk.CommandPool, queue vk.Queue,
	data []byte, usage vk.BufferUsageFlags) (vk.Buffer, vk.DeviceMemory, error) {

	staging, stagingMemory, err := device.CreateBufferWithMemory(
		uint64(len(data)),
		vk.BUFFER_USAGE_TRANSFER_SRC_BIT,
		vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT|vk.MEMORY_PROPERTY_HOST_COHERENT_BIT,
		physicalDevice,
	)
	if err != nil {
		return vk.Buffer{}, vk.DeviceMemory{}, err
	}
	defer device.DestroyBuffer(staging)
	defer device.FreeMemory(stagingMemory)

	if err := device.UploadToBuffer(stagingMemory, data); err != nil {
		return vk.Buffer{}, vk.DeviceMemory{}, err
	}

	dst, dstMemory, err := device.CreateBufferWithMemory(
		uint64(len(data)),
		usage|vk.BUFFER_USAGE_TRANSFER_DST_BIT,
		vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT,
		physicalDevice,
	)
	if err != nil {
		return vk.Buffer{}, vk.DeviceMemory{}, err
	}

	bufs, err := device.AllocateCommandBuffers(&vk.CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              vk.COMMAND_BUFFER_LEVEL_PRIMARY,
		CommandBufferCount: 1,
	})
	if err != nil {
		device.DestroyBuffer(dst)
		device.FreeMemory(dstMemory)
		return vk.Buffer{}, vk.DeviceMemory{}, err
	}
	cmd := bufs[0]
	defer device.FreeCommandBuffers(pool, []vk.CommandBuffer{cmd})

	if err := cmd.Begin(&vk.CommandBufferBeginInfo{Flags: vk.COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT}); err != nil {
		device.DestroyBuffer(dst)
		device.FreeMemory(dstMemory)
		return vk.Buffer{}, vk.DeviceMemory{}, err
	}
	cmd.CmdCopyBuffer(staging, dst, []vk.BufferCopy{{Size: uint64(len(data))}})
	if err := cmd.End(); err != nil {
		device.DestroyBuffer(dst)
		device.FreeMemory(dstMemory)
		return vk.Buffer{}, vk.DeviceMemory{}, err
	}

	if err := queue.Submit([]vk.SubmitInfo{{CommandBuffers: []vk.CommandBuffer{cmd}}}, vk.Fence{}); err != nil {
		device.DestroyBuffer(dst)
		device.FreeMemory(dstMemory)
		return vk.Buffer{}, vk.DeviceMemory{}, err
	}
	if err := queue.WaitIdle(); err != nil {
		device.DestroyBuffer(dst)
		device.FreeMemory(dstMemory)
		return vk.Buffer{}, vk.DeviceMemory{}, err
	}

	return dst, dstMemory, nil
}
