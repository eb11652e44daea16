// Package texture owns GPU image resources and hands out generation-checked
// handles into them, following the teacher's side-table ownership style
// (internal/handle.Table) rather than reference-counted smart pointers.
package texture

import (
	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/handle"
	"github.com/BANANASJIM/violet/internal/logging"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

var log = logging.For("texture")

// Handle identifies a Texture owned by a Manager.
type Handle = handle.Handle

// Texture is a sampled 2D image with its own view and sampler, installed
// into a fixed bindless slot for the lifetime of the handle. It satisfies
// descriptor.BindlessImage.
type Texture struct {
	device  vk.Device
	image   vk.Image
	memory  vk.DeviceMemory
	view    vk.ImageView
	sampler vk.Sampler
	format  vk.Format
	width   uint32
	height  uint32

	bindlessIndex uint32
}

func (t *Texture) View() vk.ImageView { return t.view }
func (t *Texture) Sampler() vk.Sampler { return t.sampler }

// BindlessIndex is the slot this texture occupies in the shared bindless
// descriptor array; shaders reference it directly via push constants or a
// material's stored index, never a Handle.
func (t *Texture) BindlessIndex() uint32 { return t.bindlessIndex }

func (t *Texture) Width() uint32  { return t.width }
func (t *Texture) Height() uint32 { return t.height }

// destroy releases the Vulkan objects. It does not free the bindless slot;
// the Manager owns that bookkeeping since it also owns the free list.
func (t *Texture) destroy() {
	if t.device == (vk.Device{}) {
		return
	}
	t.device.DestroySampler(t.sampler)
	t.device.DestroyImageView(t.view)
	t.device.DestroyImage(t.image)
	t.device.FreeMemory(t.memory)
}

var _ descriptor.BindlessImage = (*Texture)(nil)
