package rendergraph

import (
	"github.com/gogpu/rendergraph/internal/subrange"
)

// Stats summarizes one Submit.
type Stats struct {
	Nodes           int
	Barriers        int // PipelineBarrier calls
	BufferBarriers  int
	ImageBarriers   int
	Hoisted         int // nodes moved in front of a rendering scope
	Deferred        int // nodes moved behind a rendering scope
	ScopeSplits     int // rendering scopes ended and resumed around a dependency
	SuppressedBinds int // bind and dynamic-state calls skipped by the binding cache
}

// requirement is the merged access of one node (or one scope segment) to
// one resource region.
type requirement struct {
	res        *trackedResource
	handle     Handle
	access     AccessFlags
	stage      PipelineStageFlags
	layout     ImageLayout
	aspect     ImageAspectFlags
	rect       subrange.Rect
	transition bool
	attachment bool
}

func (r *requirement) writes() bool { return r.access.IsWrite() || r.transition }

func (r *requirement) overlaps(o *requirement) bool {
	return r.handle == o.handle && (r.res.kind == ResourceBuffer || r.rect.Overlaps(o.rect))
}

// mergeRequirement adds r to reqs. Overlapping accesses to the same region
// are unioned; an image region requested in two layouts is a conflict.
// Requirements in reqs never overlap, and each one covers only
// subresources that were actually requested: overlapping image ranges merge
// into their bounding range only when that range is their exact union,
// otherwise they are cut into disjoint pieces.
func mergeRequirement(reqs []requirement, r requirement) ([]requirement, bool) {
	for {
		merged := false
		for i := range reqs {
			q := reqs[i]
			if !q.overlaps(&r) {
				continue
			}
			if q.res.kind == ResourceImage && q.layout != r.layout {
				return reqs, false
			}
			reqs = append(reqs[:i], reqs[i+1:]...)
			if q.res.kind == ResourceImage && !unionIsRect(q.rect, r.rect) {
				return splitRequirement(reqs, q, r)
			}
			r = unionRequirement(r, q)
			r.rect = r.rect.Hull(q.rect)
			merged = true
			break
		}
		if !merged {
			return append(reqs, r), true
		}
	}
}

// splitRequirement adds the overlapping image requirements q and r as
// disjoint pieces: their intersection with both accesses, and the parts
// only one of them covers. q has already been removed from reqs.
func splitRequirement(reqs []requirement, q, r requirement) ([]requirement, bool) {
	in := unionRequirement(r, q)
	in.rect = r.rect.Intersect(q.rect)
	reqs = append(reqs, in)
	for _, rest := range q.rect.Subtract(r.rect) {
		piece := q
		piece.rect = rest
		reqs = append(reqs, piece)
	}
	for _, rest := range r.rect.Subtract(q.rect) {
		piece := r
		piece.rect = rest
		var ok bool
		if reqs, ok = mergeRequirement(reqs, piece); !ok {
			return reqs, false
		}
	}
	return reqs, true
}

// unionRequirement returns r with the access of q added. The range is left
// to the caller.
func unionRequirement(r, q requirement) requirement {
	r.access |= q.access
	r.stage |= q.stage
	r.aspect |= q.aspect
	r.transition = r.transition || q.transition
	r.attachment = r.attachment && q.attachment
	return r
}

// unionIsRect reports whether the union of two overlapping rectangles is
// itself a rectangle.
func unionIsRect(a, b subrange.Rect) bool {
	return a.Contains(b) || b.Contains(a) || a.Mips == b.Mips || a.Layers == b.Layers
}

type scheduledNode struct {
	index int
	kind  NodeKind
	node  *node
	data  NodeData
	reqs  []requirement
}

func (sn *scheduledNode) overlaps(o *scheduledNode) bool {
	for i := range sn.reqs {
		for j := range o.reqs {
			if sn.reqs[i].overlaps(&o.reqs[j]) {
				return true
			}
		}
	}
	return false
}

func overlapsAny(sn *scheduledNode, list []*scheduledNode) bool {
	for _, o := range list {
		if sn.overlaps(o) {
			return true
		}
	}
	return false
}

type stateUpdate struct {
	res  *trackedResource
	rect subrange.Rect
	st   ResourceState
}

type scheduler struct {
	g        *Graph
	tracker  *Tracker
	exec     Executor
	nodes    []scheduledNode
	scopeEnd map[int]int

	barrier Barrier
	updates []stateUpdate
	merged  []requirement
	bind    bindingCache
	stats   Stats
}

// Submit linearizes g into exec and resets g for the next cycle.
//
// Submit validates the whole graph before issuing any call, so a
// precondition violation (unregistered resource, unbalanced scope,
// conflicting declarations) panics with a *PreconditionError without
// recording anything. Otherwise exec receives BeginRecording, the scheduled
// stream and EndRecording. The graph's tracker is left describing the state
// after the last node.
func Submit(g *Graph, exec Executor) Stats {
	propagateLogger(exec)

	s := &scheduler{
		g:        g,
		tracker:  g.tracker,
		exec:     exec,
		scopeEnd: make(map[int]int),
	}
	s.validate()

	exec.BeginRecording()
	s.run()
	exec.EndRecording()

	s.stats.Nodes = len(s.nodes)
	s.stats.SuppressedBinds = s.bind.suppressed
	Logger().Debug("rendergraph: submitted",
		"nodes", s.stats.Nodes,
		"barriers", s.stats.Barriers,
		"bufferBarriers", s.stats.BufferBarriers,
		"imageBarriers", s.stats.ImageBarriers,
		"hoisted", s.stats.Hoisted,
		"deferred", s.stats.Deferred,
		"splits", s.stats.ScopeSplits,
		"suppressedBinds", s.stats.SuppressedBinds)

	g.Reset()
	return s.stats
}

// prepare derives and merges the requirements of one node.
func (s *scheduler) prepare(index int, n *node) scheduledNode {
	sn := scheduledNode{index: index, kind: n.data.Kind(), node: n, data: n.data}
	for _, l := range n.links() {
		res := s.tracker.lookup(l.Resource, index)
		if res.kind != l.Kind {
			fatal(ErrResourceKind, index, "%s %#x used as %s", res.kind, uint64(l.Resource), l.Kind)
		}
		aspect := l.Aspect
		if aspect == 0 && res.kind == ResourceImage {
			aspect = AspectColor
		}
		r := requirement{
			res:        res,
			handle:     l.Resource,
			access:     l.Access,
			stage:      l.Stage,
			layout:     l.Layout,
			aspect:     aspect,
			rect:       res.rect(l.Range, index),
			transition: l.Transition,
			attachment: l.isAttachment(),
		}
		if res.kind == ResourceBuffer {
			r.layout = LayoutUndefined
		}
		var ok bool
		if sn.reqs, ok = mergeRequirement(sn.reqs, r); !ok {
			fatal(ErrConflictingAccess, index, "%s needs image %#x in two layouts", sn.kind, uint64(l.Resource))
		}
	}
	return sn
}

// validate checks every precondition before the executor sees any call.
func (s *scheduler) validate() {
	s.nodes = make([]scheduledNode, len(s.g.nodes))
	open := -1
	for i := range s.g.nodes {
		s.nodes[i] = s.prepare(i, &s.g.nodes[i])
		kind := s.nodes[i].kind
		switch {
		case kind == NodeBeginRendering:
			if open >= 0 {
				fatal(ErrUnbalancedScope, i, "BeginRendering while scope from node %d is open", open)
			}
			open = i
		case kind == NodeEndRendering:
			if open < 0 {
				fatal(ErrUnbalancedScope, i, "EndRendering without BeginRendering")
			}
			s.scopeEnd[open] = i
			open = -1
		case kind.inScope():
			if open < 0 {
				fatal(ErrUnbalancedScope, i, "%s outside a rendering scope", kind)
			}
			s.checkAttachments(&s.nodes[open], &s.nodes[i])
		}
	}
	if open >= 0 {
		fatal(ErrUnbalancedScope, open, "rendering scope never ended")
	}
}

// checkAttachments rejects scope nodes that need an attachment of their own
// scope in a different layout. No split can satisfy both.
func (s *scheduler) checkAttachments(begin, sn *scheduledNode) {
	for i := range sn.reqs {
		for j := range begin.reqs {
			r, a := &sn.reqs[i], &begin.reqs[j]
			if r.overlaps(a) && r.layout != a.layout {
				fatal(ErrConflictingAccess, sn.index,
					"%s needs attachment %#x in %s, scope renders to it in %s",
					sn.kind, uint64(r.handle), r.layout, a.layout)
			}
		}
	}
}

func (s *scheduler) run() {
	for i := 0; i < len(s.nodes); {
		sn := &s.nodes[i]
		if sn.kind == NodeBeginRendering {
			i = s.runScope(i)
			continue
		}
		s.emit(sn)
		i++
	}
}

// segment is a rendering scope, or the part of one between splits.
type segment struct {
	begin *scheduledNode
	nodes []*scheduledNode // scope nodes after begin
}

// conflicts reports whether sn must observe, or must not be observed by, an
// access already recorded in the segment. Attachment accesses are ordered
// by rasterization order and never conflict with each other.
func (seg *segment) conflicts(sn *scheduledNode) bool {
	for _, o := range seg.nodes {
		for i := range sn.reqs {
			for j := range o.reqs {
				r, q := &sn.reqs[i], &o.reqs[j]
				if !r.overlaps(q) {
					continue
				}
				if r.layout != q.layout {
					return true
				}
				if r.attachment && q.attachment {
					continue
				}
				if r.writes() || q.writes() {
					return true
				}
			}
		}
	}
	return false
}

// all returns begin followed by the scope nodes.
func (seg *segment) all() []*scheduledNode {
	return append([]*scheduledNode{seg.begin}, seg.nodes...)
}

// runScope schedules the scope opened at begin and returns the index after
// its EndRendering.
//
// Nodes that may not execute inside a scope are hoisted in front of
// BeginRendering when they share no resource with the segment so far or
// with nodes already deferred; otherwise they are deferred behind
// EndRendering. When a scope node depends on a deferred node, or conflicts
// with an earlier access of the segment, the scope is split: it ends, the
// deferred nodes run, and rendering resumes with LOAD load-ops.
func (s *scheduler) runScope(begin int) int {
	end := s.scopeEnd[begin]
	seg := segment{begin: &s.nodes[begin]}
	var pre, post []*scheduledNode

	for i := begin + 1; i < end; i++ {
		sn := &s.nodes[i]
		if sn.kind.inScope() {
			if seg.conflicts(sn) || overlapsAny(sn, post) {
				s.flushScope(&seg, pre, post)
				pre, post = nil, nil
				seg = segment{begin: s.resume(seg.begin)}
				s.stats.ScopeSplits++
				Logger().Debug("rendergraph: split rendering scope",
					"scope", begin, "node", i, "kind", sn.kind.String(), "label", sn.node.label)
			}
			seg.nodes = append(seg.nodes, sn)
			continue
		}

		if s.g.opts.reorder && !overlapsAny(sn, seg.all()) && !overlapsAny(sn, post) {
			pre = append(pre, sn)
			s.stats.Hoisted++
			Logger().Debug("rendergraph: hoisted node before rendering scope",
				"scope", begin, "node", i, "kind", sn.kind.String(), "label", sn.node.label)
			continue
		}
		post = append(post, sn)
		s.stats.Deferred++
		Logger().Debug("rendergraph: deferred node after rendering scope",
			"scope", begin, "node", i, "kind", sn.kind.String(), "label", sn.node.label)
	}

	s.flushScope(&seg, pre, post)
	return end + 1
}

// resume builds the BeginRendering node reopening a split scope.
func (s *scheduler) resume(begin *scheduledNode) *scheduledNode {
	data := begin.data.(*BeginRenderingData).resumed()
	n := &node{data: data, label: begin.node.label}
	sn := s.prepare(begin.index, n)
	return &sn
}

func (s *scheduler) flushScope(seg *segment, pre, post []*scheduledNode) {
	for _, sn := range pre {
		s.emit(sn)
	}

	s.sync(seg.all()...)
	s.bind.reset()
	seg.begin.data.record(s.exec)
	for _, sn := range seg.nodes {
		s.record(sn)
	}
	s.exec.EndRendering()
	s.bind.reset()

	for _, sn := range post {
		s.emit(sn)
	}
}

// emit issues a node outside rendering scopes. Binds go first so the
// barrier directly precedes the command it guards.
func (s *scheduler) emit(sn *scheduledNode) {
	s.bindState(sn)
	s.sync(sn)
	sn.data.record(s.exec)
}

// record issues binds, dynamic state and the command of a scope node.
func (s *scheduler) record(sn *scheduledNode) {
	s.bindState(sn)
	sn.data.record(s.exec)
}

func (s *scheduler) bindState(sn *scheduledNode) {
	if pn, ok := sn.data.(pipelineNode); ok {
		pd, bp := pn.pipelineData()
		s.bind.bind(s.exec, bp, pd)
	}
	if dn, ok := sn.data.(dynamicStateNode); ok {
		vp, sc := dn.dynamicState()
		s.bind.dynamicState(s.exec, vp, sc)
	}
}

// sync emits one batched barrier covering the requirements of nodes, then
// records their effect in the tracker.
func (s *scheduler) sync(nodes ...*scheduledNode) {
	s.merged = s.merged[:0]
	for _, sn := range nodes {
		for _, r := range sn.reqs {
			var ok bool
			if s.merged, ok = mergeRequirement(s.merged, r); !ok {
				fatal(ErrConflictingAccess, sn.index, "image %#x needed in two layouts within one batch", uint64(r.handle))
			}
		}
	}

	s.barrier.reset()
	s.updates = s.updates[:0]
	for i := range s.merged {
		s.require(&s.merged[i])
	}

	if !s.barrier.Empty() {
		if s.barrier.SrcStages == 0 {
			s.barrier.SrcStages = StageTopOfPipe
		}
		if s.barrier.DstStages == 0 {
			s.barrier.DstStages = StageBottomOfPipe
		}
		s.exec.PipelineBarrier(&s.barrier)
		s.stats.Barriers++
		s.stats.BufferBarriers += len(s.barrier.Buffers)
		s.stats.ImageBarriers += len(s.barrier.Images)
	}

	for _, u := range s.updates {
		u.res.set(u.rect, u.st)
	}
}

// hazard decides whether r must wait for prior accesses recorded in st and
// returns the source scope of the barrier.
func hazard(st ResourceState, r *requirement) (PipelineStageFlags, AccessFlags, bool) {
	layoutChange := r.res.kind == ResourceImage && st.Layout != r.layout
	if r.writes() || layoutChange {
		prior := st.WriteStages | st.ReadStages
		need := r.transition || layoutChange || prior != 0 || st.WriteAccess != 0
		return prior, st.WriteAccess, need
	}
	pending := st.WriteStages != 0 || st.WriteAccess != 0
	visible := st.ReadAccess.Contains(r.access) && st.ReadStages.Contains(r.stage)
	return st.WriteStages, st.WriteAccess, pending && !visible
}

// nextState is the state of a region after r executed.
func nextState(st ResourceState, r *requirement) ResourceState {
	switch {
	case r.transition && r.access == 0:
		// A bare layout transition is a write with no access.
		return ResourceState{WriteStages: r.stage, Layout: r.layout}
	case r.access.IsWrite():
		return ResourceState{WriteAccess: r.access, WriteStages: r.stage, Layout: r.layout}
	case r.res.kind == ResourceImage && st.Layout != r.layout:
		return ResourceState{
			WriteAccess: st.WriteAccess,
			WriteStages: r.stage,
			ReadAccess:  r.access,
			ReadStages:  r.stage,
			Layout:      r.layout,
		}
	}
	st.ReadAccess |= r.access
	st.ReadStages |= r.stage
	return st
}

// require adds the barrier entries r needs and queues its state update.
func (s *scheduler) require(r *requirement) {
	entries := r.res.query(r.rect)

	if r.res.kind == ResourceBuffer {
		st := entries[0].State
		if src, srcAccess, need := hazard(st, r); need {
			s.barrier.SrcStages |= src
			s.barrier.DstStages |= r.stage
			s.barrier.Buffers = append(s.barrier.Buffers, BufferMemoryBarrier{
				SrcAccess: srcAccess,
				DstAccess: r.access,
				Buffer:    r.handle,
				Size:      WholeSize,
			})
		}
		s.updates = append(s.updates, stateUpdate{res: r.res, rect: r.rect, st: nextState(st, r)})
		return
	}

	var (
		anyNeed     bool
		sameLayout  = true
		unionStages PipelineStageFlags
		unionAccess AccessFlags
	)
	for i, e := range entries {
		src, srcAccess, need := hazard(e.State, r)
		anyNeed = anyNeed || need
		unionStages |= src
		unionAccess |= srcAccess
		if i > 0 && e.State.Layout != entries[0].State.Layout {
			sameLayout = false
		}
		s.updates = append(s.updates, stateUpdate{res: r.res, rect: e.rect, st: nextState(e.State, r)})
	}
	if !anyNeed {
		return
	}

	if s.g.opts.policy == BarrierUnion && sameLayout {
		s.imageBarrier(r, r.rect, entries[0].State.Layout, unionStages, unionAccess)
		return
	}
	for _, e := range entries {
		if src, srcAccess, need := hazard(e.State, r); need {
			s.imageBarrier(r, e.rect, e.State.Layout, src, srcAccess)
		}
	}
}

func (s *scheduler) imageBarrier(r *requirement, rect subrange.Rect, oldLayout ImageLayout, src PipelineStageFlags, srcAccess AccessFlags) {
	s.barrier.SrcStages |= src
	s.barrier.DstStages |= r.stage
	s.barrier.Images = append(s.barrier.Images, ImageMemoryBarrier{
		SrcAccess: srcAccess,
		DstAccess: r.access,
		OldLayout: oldLayout,
		NewLayout: r.layout,
		Image:     r.handle,
		Range:     rectRange(rect, r.aspect),
	})
}
