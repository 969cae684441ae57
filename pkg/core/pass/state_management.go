// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"fmt"
	"math"

	"github.com/mmrbulbul/openvino/pkg/core/ir"
	"github.com/mmrbulbul/openvino/pkg/core/shapes"
	"github.com/mmrbulbul/openvino/pkg/support/xslices"
	"k8s.io/klog/v2"
)

// StateManagementPattern rewrites every per-layer stateful KV-cache idiom
//
//	ReadValue -> [Gather(·, beam_idx, 0)] -> Concat(past, new) -> K/V of SDPA
//
// (with a matching Assign sink, or a past_key_values.* Parameter plus a
// present.* Result in stateless exports) into a PagedAttention node reading
// the history from block-addressed cache memory.
//
// Per layer it creates key_cache.<i>/value_cache.<i> parameters and appends
// them to ctx.KVParameters; the superseded Assign sinks, past-KV parameters
// and present-KV results go to ctx.AssignsToRemove, ctx.ParametersToRemove
// and ctx.ResultsToRemove.
type StateManagementPattern struct {
	ctx           *RewriteContext
	metadata      []*ir.Node
	slidingWindow *ir.Node
	maxContextLen *ir.Node
}

// NewStateManagementPattern returns the pass. metadata holds the four
// paging-metadata parameters in PagedAttention input order.
func NewStateManagementPattern(ctx *RewriteContext, metadata []*ir.Node, slidingWindow, maxContextLen *ir.Node) *StateManagementPattern {
	return &StateManagementPattern{
		ctx:           ctx,
		metadata:      metadata,
		slidingWindow: slidingWindow,
		maxContextLen: maxContextLen,
	}
}

// Name implements ModelPass.
func (p *StateManagementPattern) Name() string { return "StateManagementPattern" }

// cachedBranch is one matched K or V input of an SDPA node.
type cachedBranch struct {
	concat *ir.Node
	// past is the history producer: a ReadValue, or a past_key_values.*
	// Parameter in stateless exports.
	past *ir.Node
	// cur is the freshly projected K or V of the current tokens.
	cur *ir.Node
}

func matchCachedBranch(n *ir.Node) (cachedBranch, bool) {
	if n.Op() != ir.OpTypeConcat || len(n.Inputs()) != 2 {
		return cachedBranch{}, false
	}
	past := n.Inputs()[0].Node()
	cur := n.Inputs()[1].Node()
	if past.Op() == ir.OpTypeGather {
		// Beam-search cache reorder sits between the state read and the
		// concat.
		past = past.Inputs()[0].Node()
	}
	if past.Op() != ir.OpTypeReadValue && past.AsParameter() == nil {
		return cachedBranch{}, false
	}
	return cachedBranch{concat: n, past: past, cur: cur}, true
}

// RunOnModel implements ModelPass.
func (p *StateManagementPattern) RunOnModel(m *ir.Model) bool {
	changed := false
	// The node list grows while rewriting; iterate only over the nodes
	// present at entry.
	nodes := m.Nodes()
	for _, n := range nodes {
		if n.Op() != ir.OpTypeScaledDotProductAttention {
			continue
		}
		if p.rewriteSDPA(m, n) {
			changed = true
		}
	}
	return changed
}

func (p *StateManagementPattern) rewriteSDPA(m *ir.Model, sdpa *ir.Node) bool {
	inputs := sdpa.Inputs()
	if len(inputs) < 3 {
		return false
	}
	q := inputs[0].Node()
	kBranch, okK := matchCachedBranch(inputs[1].Node())
	vBranch, okV := matchCachedBranch(inputs[2].Node())
	if !okK || !okV {
		return false
	}
	klog.V(2).Infof("StateManagementPattern: layer %d at %s (K past %s, V past %s)",
		p.ctx.LayerIndex, sdpa, kBranch.past, vBranch.past)

	layer := p.ctx.LayerIndex
	p.ctx.LayerIndex++

	keyCache := p.newCacheParameter(m, fmt.Sprintf("key_cache.%d", layer), kBranch)
	valueCache := p.newCacheParameter(m, fmt.Sprintf("value_cache.%d", layer), vBranch)
	p.ctx.KVParameters = append(p.ctx.KVParameters, keyCache, valueCache)

	pa := ir.PagedAttention(
		flattenHeads(q), flattenHeads(kBranch.cur), flattenHeads(vBranch.cur),
		keyCache, valueCache,
		p.metadata,
		sdpaScale(m, sdpa, q),
		p.slidingWindow, p.maxContextLen)

	// Downstream consumers still expect the stateful layout; reshape the
	// token-major output back to the SDPA's shape.
	restored := ir.Reshape(pa, sdpa.Output(0).Shape().Dimensions...)
	ir.ReplaceNode(sdpa, restored)

	p.collectObsolete(m, kBranch)
	p.collectObsolete(m, vBranch)
	return true
}

// newCacheParameter creates the detached block-addressed cache parameter for
// one matched branch: the history shape with the block-count and
// concatenation (sequence) axes dynamic.
func (p *StateManagementPattern) newCacheParameter(m *ir.Model, name string, branch cachedBranch) *ir.Node {
	shape := branch.past.Output(0).Shape().Clone()
	if shape.Rank() > 0 {
		shape.Dimensions[0] = shapes.DynamicDim
	}
	shape.Dimensions[branch.concat.Axis()] = shapes.DynamicDim
	return ir.Parameter(m, name, shape)
}

// collectObsolete records the state machinery superseded by the cache
// parameters: Assign sinks on the branch's variable, past-KV parameters and
// present-KV results.
func (p *StateManagementPattern) collectObsolete(m *ir.Model, branch cachedBranch) {
	if id := branch.past.VariableID(); id != "" {
		for _, sink := range m.Sinks() {
			if sink.VariableID() == id {
				p.ctx.AssignsToRemove = append(p.ctx.AssignsToRemove, sink)
			}
		}
	}
	if param := branch.past.AsParameter(); param != nil {
		p.ctx.ParametersToRemove = append(p.ctx.ParametersToRemove, param)
	}
	for _, result := range m.Results() {
		if result.Inputs()[0].Node() == branch.concat {
			p.ctx.ResultsToRemove = append(p.ctx.ResultsToRemove, result)
		}
	}
}

// flattenHeads reshapes a [batch, heads, seq, headDim] projection to the
// token-major [tokens, heads*headDim] layout PagedAttention consumes.
func flattenHeads(x *ir.Node) *ir.Node {
	s := x.Output(0).Shape()
	hidden := shapes.DynamicDim
	if s.Rank() == 4 && s.Dim(1) != shapes.DynamicDim && s.Dim(3) != shapes.DynamicDim {
		hidden = s.Dim(1) * s.Dim(3)
	}
	return ir.Reshape(x, shapes.DynamicDim, hidden)
}

// sdpaScale returns the attention scale of the matched SDPA node: its
// explicit scalar scale input when present, otherwise 1/sqrt(headDim)
// recovered from the query shape.
func sdpaScale(m *ir.Model, sdpa, q *ir.Node) *ir.Node {
	inputs := sdpa.Inputs()
	if last := xslices.Last(inputs); len(inputs) > 3 && last.Shape().IsScalar() && last.DType().IsFloat() {
		return last.Node()
	}
	qShape := q.Output(0).Shape()
	if headDim := qShape.Dim(-1); headDim != shapes.DynamicDim {
		return ir.ConstScalar(m, qShape.DType, 1/math.Sqrt(float64(headDim)))
	}
	return ir.ConstScalar(m, qShape.DType, 1)
}
