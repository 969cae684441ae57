// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"github.com/mmrbulbul/openvino/pkg/core/ir"
	"k8s.io/klog/v2"
)

// TotalSequenceLengthPattern replaces the "total length from the mask shape"
// idiom, Gather(ShapeOf(attention_mask), i), with the max_context_len input.
// The attention mask is removed by the transformation, so every length that
// used to be read off it must come from the new input instead.
type TotalSequenceLengthPattern struct {
	maxContextLen *ir.Node
}

// NewTotalSequenceLengthPattern returns the pass.
func NewTotalSequenceLengthPattern(maxContextLen *ir.Node) *TotalSequenceLengthPattern {
	return &TotalSequenceLengthPattern{maxContextLen: maxContextLen}
}

// Name implements ModelPass.
func (p *TotalSequenceLengthPattern) Name() string { return "TotalSequenceLengthPattern" }

// RunOnModel implements ModelPass.
func (p *TotalSequenceLengthPattern) RunOnModel(m *ir.Model) bool {
	mask := m.Input("attention_mask")
	if mask == nil {
		return false
	}
	changed := false
	nodes := m.Nodes()
	for _, n := range nodes {
		if n.Op() != ir.OpTypeGather {
			continue
		}
		shapeOf := n.Inputs()[0].Node()
		if shapeOf.Op() != ir.OpTypeShapeOf || shapeOf.Inputs()[0] != mask {
			continue
		}
		klog.V(2).Infof("TotalSequenceLengthPattern: replacing %s", n)
		ir.ReplaceNode(n, adaptDType(p.maxContextLen, n.Output(0).DType()))
		changed = true
	}
	return changed
}
