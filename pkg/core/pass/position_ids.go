// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"github.com/mmrbulbul/openvino/pkg/core/ir"
	"k8s.io/klog/v2"
)

// PositionIDsReplacer replaces internally derived token positions, the
// CumSum(attention_mask, axis) idiom optionally followed by Subtract(·, 1),
// with the externally supplied position_ids tensor. Under continuous
// batching the mask no longer encodes positions; the serving runtime
// provides them per token.
type PositionIDsReplacer struct {
	positionIDs *ir.Node
}

// NewPositionIDsReplacer returns the pass. positionIDs is the rank-expanded
// position_ids node prepared by the orchestrator.
func NewPositionIDsReplacer(positionIDs *ir.Node) *PositionIDsReplacer {
	return &PositionIDsReplacer{positionIDs: positionIDs}
}

// Name implements ModelPass.
func (p *PositionIDsReplacer) Name() string { return "PositionIDsReplacer" }

// RunOnModel implements ModelPass.
func (p *PositionIDsReplacer) RunOnModel(m *ir.Model) bool {
	changed := false
	nodes := m.Nodes()
	for _, n := range nodes {
		root, ok := matchDerivedPositions(n)
		if !ok {
			continue
		}
		klog.V(2).Infof("PositionIDsReplacer: replacing %s", root)
		ir.ReplaceNode(root, adaptDType(p.positionIDs, root.Output(0).DType()))
		changed = true
	}
	return changed
}

// matchDerivedPositions matches the root of a derived-positions expression:
// Subtract(CumSum(mask, axis), const), or a bare CumSum not feeding such a
// Subtract. The cumsum input must be a model input for the match to hold.
func matchDerivedPositions(n *ir.Node) (*ir.Node, bool) {
	switch n.Op() {
	case ir.OpTypeSubtract:
		cumsum := n.Inputs()[0].Node()
		if cumsum.Op() != ir.OpTypeCumSum || n.Inputs()[1].Node().Op() != ir.OpTypeConstant {
			return nil, false
		}
		if cumsum.Inputs()[0].Node().AsParameter() == nil {
			return nil, false
		}
		return n, true
	case ir.OpTypeCumSum:
		if n.Inputs()[0].Node().AsParameter() == nil {
			return nil, false
		}
		for _, port := range n.Output(0).Consumers() {
			if sub, ok := matchDerivedPositions(port.Node); ok && sub == port.Node {
				// The enclosing Subtract is the root.
				return nil, false
			}
		}
		return n, true
	}
	return nil, false
}
