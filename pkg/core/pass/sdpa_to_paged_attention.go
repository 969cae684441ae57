// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/mmrbulbul/openvino/pkg/core/ir"
	"github.com/mmrbulbul/openvino/pkg/core/shapes"
	"k8s.io/klog/v2"
)

// SDPAToPagedAttention converts a stateful decoder model into the stateless,
// continuously batched form a paged-attention runtime serves.
//
// The transformed model loses its per-request assumptions: input_ids and
// position_ids become flat token vectors covering many concatenated
// sequences, the per-layer ReadValue/Assign cache state is replaced by
// key_cache.<i>/value_cache.<i> inputs into externally managed block memory,
// and the paging metadata inputs (context_lens, subsequence_begins,
// block_indices, block_indices_begins, max_context_len) describe how the
// token batch maps onto sequences and cache blocks.
//
// RunOnModel returns false, leaving the model in an indeterminate state,
// when the model does not look like a supported stateful decoder (no
// attention_mask input, or a beam_idx/attention_mask that is not a
// Parameter). There is no rollback and the transformation is not idempotent:
// run it on a freshly loaded model, once.
//
// The model must have an input_ids Parameter input; anything else is
// outside the caller contract and panics.
type SDPAToPagedAttention struct{}

// NewSDPAToPagedAttention returns the transformation.
func NewSDPAToPagedAttention() *SDPAToPagedAttention { return &SDPAToPagedAttention{} }

// Name implements ModelPass.
func (p *SDPAToPagedAttention) Name() string { return "SDPAToPagedAttention" }

// RunOnModel implements ModelPass.
func (p *SDPAToPagedAttention) RunOnModel(m *ir.Model) bool {
	maxContextLen := ir.Parameter(m, "max_context_len", shapes.Scalar(dtypes.Int32))
	metadata := []*ir.Node{
		ir.Parameter(m, "context_lens", shapes.DynamicVector(dtypes.Int32)),
		ir.Parameter(m, "subsequence_begins", shapes.DynamicVector(dtypes.Int32)),
		ir.Parameter(m, "block_indices", shapes.DynamicVector(dtypes.Int32)),
		ir.Parameter(m, "block_indices_begins", shapes.DynamicVector(dtypes.Int32)),
	}
	slidingWindow := ir.Constant(m, int32(0))

	inputIDs := requireParameterInput(m, "input_ids")
	unsqueezedInputIDs := flattenTokenInput(inputIDs)

	// With sequences concatenated along the token axis, the current batch
	// width is the token count, and the longest history still fitting before
	// it is max_context_len - cur_seq_len.
	curSeqLen := ir.Gather(ir.ShapeOf(unsqueezedInputIDs),
		ir.Constant(m, int64(1)), ir.Constant(m, int64(0)))
	prevMaxSeqLen := ir.Subtract(maxContextLen, ir.Convert(curSeqLen, dtypes.Int32))

	var positionIDs *ir.Node
	if m.HasInput("position_ids") {
		positionIDs = requireParameterInput(m, "position_ids")
	} else {
		positionIDs = ir.Parameter(m, "position_ids", shapes.DynamicVector(dtypes.Int64))
		m.AddParameters(positionIDs)
	}
	unsqueezedPositionIDs := flattenTokenInput(positionIDs)

	ctx := &RewriteContext{}
	mgr := NewManager()
	// The pipeline's intermediate states are deliberately inconsistent (new
	// parameters are attached only at the end); validate once, after.
	mgr.SetPerPassValidation(false)
	mgr.Register(NewStateManagementPattern(ctx, metadata, slidingWindow, maxContextLen))
	mgr.Register(NewPrevSequenceLengthPattern(prevMaxSeqLen))
	mgr.Register(NewTotalSequenceLengthPattern(maxContextLen))
	mgr.Register(NewPositionIDsReplacer(unsqueezedPositionIDs))
	if err := mgr.RunPasses(m); err != nil {
		klog.Errorf("SDPAToPagedAttention on model %q: %+v", m.Name(), err)
		return false
	}

	if beamIdx := m.Input("beam_idx"); beamIdx != nil {
		param := beamIdx.Node().AsParameter()
		if param == nil {
			klog.Warningf("SDPAToPagedAttention: beam_idx of model %q is not a Parameter", m.Name())
			return false
		}
		m.RemoveParameter(param)
	}
	mask := m.Input("attention_mask")
	if mask == nil || mask.Node().AsParameter() == nil {
		klog.Warningf("SDPAToPagedAttention: model %q has no attention_mask Parameter input", m.Name())
		return false
	}
	m.RemoveParameter(mask.Node())
	for _, param := range ctx.ParametersToRemove {
		m.RemoveParameter(param)
	}
	for _, assign := range ctx.AssignsToRemove {
		m.RemoveSink(assign)
	}
	// Any state left is state the runtime cannot manage; purge it all.
	if sinks := m.Sinks(); len(sinks) > 0 {
		klog.V(1).Infof("SDPAToPagedAttention: purging %d remaining state sinks of model %q",
			len(sinks), m.Name())
		for _, sink := range sinks {
			m.RemoveSink(sink)
		}
	}
	for _, result := range ctx.ResultsToRemove {
		m.RemoveResult(result)
	}

	m.AddParameters(ctx.KVParameters...)
	m.AddParameters(metadata...)
	m.AddParameters(maxContextLen)
	return true
}

// requireParameterInput returns the model input with the given name, which
// must exist and be a Parameter.
func requireParameterInput(m *ir.Model, name string) *ir.Node {
	in := m.Input(name)
	if in == nil {
		exceptions.Panicf("SDPAToPagedAttention: model %q has no %q input", m.Name(), name)
	}
	param := in.Node().AsParameter()
	if param == nil {
		exceptions.Panicf("SDPAToPagedAttention: input %q of model %q is not a Parameter", name, m.Name())
	}
	return param
}

// flattenTokenInput forces a [batch, seq] token input into the flat [tokens]
// form, re-expands it with Unsqueeze so existing consumers keep their rank,
// and rewires them onto the expanded node. Returns the Unsqueeze.
func flattenTokenInput(param *ir.Node) *ir.Node {
	out := param.Output(0)
	out.SetShape(shapes.DynamicVector(out.DType()))
	unsqueezed := ir.Unsqueeze(param, ir.Constant(param.Model(), int64(1)))
	ir.ReplaceNode(param, unsqueezed)
	return unsqueezed
}
