package render

import (
	"github.com/BANANASJIM/violet/internal/rendergraph"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

// Conventional rendergraph resource names for a forward frame (§4.7
// "Typical frame": Main writes hdr_color/depth; PostProcess reads them and
// writes the swapchain image). Declaring these under the caller's graph
// before RenderFrame is optional: wireIfDeclared is a no-op for any name the
// caller never registered, so a test graph with no resources at all still
// runs RenderFrame's pass bodies untouched.
const (
	HDRColorResource       = "hdr_color"
	DepthResource          = "depth"
	SwapchainColorResource = "swapchain_color"
)

func colorAttachmentSync() rendergraph.SyncPoint {
	return rendergraph.SyncPoint{
		Stage:  vk.PIPELINE_STAGE_2_COLOR_ATTACHMENT_OUTPUT_BIT,
		Access: vk.ACCESS_2_COLOR_ATTACHMENT_WRITE_BIT,
	}
}

func fragmentReadSync() rendergraph.SyncPoint {
	return rendergraph.SyncPoint{
		Stage:  vk.PIPELINE_STAGE_2_FRAGMENT_SHADER_BIT,
		Access: vk.ACCESS_2_SHADER_READ_BIT,
	}
}

// wireIfDeclared registers a Reads or Writes access against resource on
// pass, but only when the graph already has a resource by that name.
func wireIfDeclared(g *rendergraph.Graph, pass *rendergraph.Pass, resource string, layout vk.ImageLayout, sync rendergraph.SyncPoint, write bool) {
	if _, ok := g.Resource(resource); !ok {
		return
	}
	if write {
		pass.Writes(resource, layout, sync)
	} else {
		pass.Reads(resource, layout, sync)
	}
}
