package rendergraph

import vk "github.com/BANANASJIM/violet/internal/vk"

// Execute walks passes in declared order, inserting the barriers each
// pass's declared accesses require before invoking its Execute callback,
// then closes out every external resource against its declared final
// layout/sync (§4.7: "For each pass: insert inter-pass barriers the graph
// requires, then invoke the pass's execute callback").
func (g *Graph) Execute(cmd vk.CommandBuffer) {
	for _, pass := range g.passes {
		var barriers []vk.ImageMemoryBarrier2
		for _, a := range pass.accesses {
			r, ok := g.resources[a.resource]
			if !ok {
				continue
			}
			if b, changed := transitionBarrier(r, a.layout, a.sync); changed {
				barriers = append(barriers, b)
			}
		}
		if len(barriers) > 0 {
			cmd.Barrier2(vk.DependencyInfo{ImageMemoryBarriers2: barriers})
		}
		if pass.Execute != nil {
			pass.Execute(cmd)
		}
	}

	var closing []vk.ImageMemoryBarrier2
	for _, name := range g.order {
		r := g.resources[name]
		if !r.IsExternal {
			continue
		}
		if b, changed := transitionBarrier(r, r.FinalLayout, r.FinalSync); changed {
			closing = append(closing, b)
		}
	}
	if len(closing) > 0 {
		cmd.Barrier2(vk.DependencyInfo{ImageMemoryBarriers2: closing})
	}
}

// transitionBarrier emits the narrowest barrier moving r from its current
// layout/sync to (layout, sync), updating r's tracked state. It reports
// changed == false when no transition is needed (the resource is already in
// the requested layout at exactly the requested sync point), avoiding a
// redundant barrier.
func transitionBarrier(r *LogicalResource, layout vk.ImageLayout, sync SyncPoint) (vk.ImageMemoryBarrier2, bool) {
	if r.currentLayout == layout && r.currentSync == sync {
		return vk.ImageMemoryBarrier2{}, false
	}
	b := vk.ImageMemoryBarrier2{
		SrcStageMask:        r.currentSync.Stage,
		SrcAccessMask:       r.currentSync.Access,
		DstStageMask:        sync.Stage,
		DstAccessMask:       sync.Access,
		OldLayout:           r.currentLayout,
		NewLayout:           layout,
		SrcQueueFamilyIndex: queueFamilyIgnored,
		DstQueueFamilyIndex: queueFamilyIgnored,
		Image:               r.Image,
		SubresourceRange:    r.SubresourceRange,
	}
	r.currentLayout = layout
	r.currentSync = sync
	return b, true
}

const queueFamilyIgnored = ^uint32(0)
