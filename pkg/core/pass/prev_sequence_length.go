// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/mmrbulbul/openvino/pkg/core/ir"
	"k8s.io/klog/v2"
)

// PrevSequenceLengthPattern replaces the "previous length from the cache
// shape" idiom, Gather(ShapeOf(X), i) with X tracing to a state ReadValue,
// with the shared prev_max_seq_len expression. After the rewrite the cache
// no longer flows through the model, so its runtime shape is meaningless.
type PrevSequenceLengthPattern struct {
	prevMaxSeqLen *ir.Node
}

// NewPrevSequenceLengthPattern returns the pass. prevMaxSeqLen is the scalar
// int32 expression max_context_len - cur_seq_len built by the orchestrator.
func NewPrevSequenceLengthPattern(prevMaxSeqLen *ir.Node) *PrevSequenceLengthPattern {
	return &PrevSequenceLengthPattern{prevMaxSeqLen: prevMaxSeqLen}
}

// Name implements ModelPass.
func (p *PrevSequenceLengthPattern) Name() string { return "PrevSequenceLengthPattern" }

// RunOnModel implements ModelPass.
func (p *PrevSequenceLengthPattern) RunOnModel(m *ir.Model) bool {
	changed := false
	nodes := m.Nodes()
	for _, n := range nodes {
		if !matchesCacheLengthGather(n) {
			continue
		}
		klog.V(2).Infof("PrevSequenceLengthPattern: replacing %s", n)
		ir.ReplaceNode(n, adaptDType(p.prevMaxSeqLen, n.Output(0).DType()))
		changed = true
	}
	return changed
}

// matchesCacheLengthGather reports whether n is Gather(ShapeOf(X), i) with X
// a ReadValue, possibly behind a beam-reorder Gather.
func matchesCacheLengthGather(n *ir.Node) bool {
	if n.Op() != ir.OpTypeGather {
		return false
	}
	shapeOf := n.Inputs()[0].Node()
	if shapeOf.Op() != ir.OpTypeShapeOf {
		return false
	}
	src := shapeOf.Inputs()[0].Node()
	if src.Op() == ir.OpTypeGather {
		src = src.Inputs()[0].Node()
	}
	return src.Op() == ir.OpTypeReadValue
}

// adaptDType returns x, converted to dtype if it does not already have it.
func adaptDType(x *ir.Node, dtype dtypes.DType) *ir.Node {
	if x.Output(0).DType() == dtype {
		return x
	}
	return ir.Convert(x, dtype)
}
