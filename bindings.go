package rendergraph

import "slices"

// boundPipeline is the pipeline state last bound at one bind point.
type boundPipeline struct {
	valid    bool
	pipeline PipelineHandle
	layout   PipelineLayoutHandle
	firstSet uint32
	sets     []DescriptorSetHandle
}

// bindingCache suppresses redundant bind and dynamic-state calls. It only
// compares tokens; the executor is the one holding real driver state.
type bindingCache struct {
	graphics boundPipeline
	compute  boundPipeline

	viewport    Viewport
	hasViewport bool
	scissor     Rect2D
	hasScissor  bool

	suppressed int
}

// reset forces the next draw or dispatch to rebind everything.
func (c *bindingCache) reset() {
	for _, s := range []*boundPipeline{&c.graphics, &c.compute} {
		s.valid = false
		s.layout = 0
		s.firstSet = 0
		s.sets = s.sets[:0]
	}
	c.hasViewport = false
	c.hasScissor = false
}

func (c *bindingCache) slot(bp PipelineBindPoint) *boundPipeline {
	if bp == BindPointCompute {
		return &c.compute
	}
	return &c.graphics
}

// bind emits BindPipeline and BindDescriptorSets for p when they differ
// from what was last bound at bp.
func (c *bindingCache) bind(e Executor, bp PipelineBindPoint, p *PipelineData) {
	s := c.slot(bp)
	if !s.valid || s.pipeline != p.Pipeline {
		e.BindPipeline(bp, p.Pipeline)
		s.pipeline = p.Pipeline
	} else {
		c.suppressed++
	}

	if len(p.DescriptorSets) > 0 {
		if !s.valid || s.layout != p.Layout || s.firstSet != p.FirstSet || !slices.Equal(s.sets, p.DescriptorSets) {
			e.BindDescriptorSets(bp, p.Layout, p.FirstSet, p.DescriptorSets)
			s.layout = p.Layout
			s.firstSet = p.FirstSet
			s.sets = append(s.sets[:0], p.DescriptorSets...)
		} else {
			c.suppressed++
		}
	}
	s.valid = true
}

// dynamicState emits SetViewport/SetScissor when they change.
func (c *bindingCache) dynamicState(e Executor, vp *Viewport, sc *Rect2D) {
	if vp != nil {
		if !c.hasViewport || c.viewport != *vp {
			e.SetViewport(*vp)
			c.viewport, c.hasViewport = *vp, true
		} else {
			c.suppressed++
		}
	}
	if sc != nil {
		if !c.hasScissor || c.scissor != *sc {
			e.SetScissor(*sc)
			c.scissor, c.hasScissor = *sc, true
		} else {
			c.suppressed++
		}
	}
}
