// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/mmrbulbul/openvino/pkg/core/ir"
	"github.com/mmrbulbul/openvino/pkg/core/ir/irtest"
	"github.com/mmrbulbul/openvino/pkg/core/shapes"
	"github.com/mmrbulbul/openvino/pkg/support/xslices"
	"github.com/stretchr/testify/require"
)

func inputNamesInOrder(m *ir.Model) []string {
	return xslices.Map(m.Parameters(), func(p *ir.Node) string { return p.Name() })
}

func TestSDPAToPagedAttentionRewritesDecoder(t *testing.T) {
	m := irtest.BuildStatefulDecoder(irtest.Config{NumLayers: 2})
	require.True(t, NewSDPAToPagedAttention().RunOnModel(m))
	require.NoError(t, m.Validate())

	require.Equal(t, []string{
		"input_ids", "position_ids",
		"key_cache.0", "value_cache.0",
		"key_cache.1", "value_cache.1",
		"context_lens", "subsequence_begins",
		"block_indices", "block_indices_begins",
		"max_context_len",
	}, inputNamesInOrder(m))

	// All recurrent state is gone; the logits output survives.
	require.Empty(t, m.Sinks())
	require.Len(t, m.Results(), 1)
	require.Len(t, findNodes(m, ir.OpTypePagedAttention), 2)
}

func TestSDPAToPagedAttentionFlattensTokenInputs(t *testing.T) {
	m := irtest.BuildStatefulDecoder(irtest.Config{NumLayers: 1})
	require.True(t, NewSDPAToPagedAttention().RunOnModel(m))

	ids := m.Input("input_ids")
	require.True(t, shapes.DynamicVector(dtypes.Int64).Equal(ids.Shape()))
	require.Len(t, ids.Consumers(), 1)
	unsqueeze := ids.Consumers()[0].Node
	require.Equal(t, ir.OpTypeUnsqueeze, unsqueeze.Op())
	require.True(t, shapes.Make(dtypes.Int64, shapes.DynamicDim, 1).Equal(unsqueeze.Output(0).Shape()))
}

func TestSDPAToPagedAttentionPrevMaxSeqLenStructure(t *testing.T) {
	m := irtest.BuildStatefulDecoder(irtest.Config{NumLayers: 1})
	require.True(t, NewSDPAToPagedAttention().RunOnModel(m))

	// prev_max_seq_len = max_context_len - i32(cur_seq_len), with
	// cur_seq_len read off the rank-expanded input_ids' shape.
	maxContextLen := m.Input("max_context_len").Node()
	var prevMax *ir.Node
	for _, port := range maxContextLen.Output(0).Consumers() {
		if port.Node.Op() == ir.OpTypeSubtract {
			prevMax = port.Node
		}
	}
	require.NotNil(t, prevMax)
	require.Same(t, maxContextLen.Output(0), prevMax.Inputs()[0])

	conv := prevMax.Inputs()[1].Node()
	require.Equal(t, ir.OpTypeConvert, conv.Op())
	require.Equal(t, dtypes.Int32, conv.Output(0).DType())
	curSeqLen := conv.Inputs()[0].Node()
	require.Equal(t, ir.OpTypeGather, curSeqLen.Op())
	shapeOf := curSeqLen.Inputs()[0].Node()
	require.Equal(t, ir.OpTypeShapeOf, shapeOf.Op())
	require.Equal(t, ir.OpTypeUnsqueeze, shapeOf.Inputs()[0].Node().Op())
}

func TestSDPAToPagedAttentionReusesPositionIDs(t *testing.T) {
	m := irtest.BuildStatefulDecoder(irtest.Config{NumLayers: 1, WithPositionIDs: true})
	require.True(t, NewSDPAToPagedAttention().RunOnModel(m))
	require.NoError(t, m.Validate())

	pos := m.Input("position_ids")
	require.True(t, shapes.DynamicVector(dtypes.Int64).Equal(pos.Shape()))
	require.Len(t, pos.Consumers(), 1)
	require.Equal(t, ir.OpTypeUnsqueeze, pos.Consumers()[0].Node.Op())

	// Reused, not re-created: it keeps its original slot in the input list.
	require.Equal(t, "position_ids", inputNamesInOrder(m)[1])
}

func TestSDPAToPagedAttentionRemovesBeamIdx(t *testing.T) {
	m := irtest.BuildStatefulDecoder(irtest.Config{NumLayers: 2, WithBeamIdx: true})
	require.True(t, NewSDPAToPagedAttention().RunOnModel(m))
	require.NoError(t, m.Validate())
	require.False(t, m.HasInput("beam_idx"))
	require.False(t, m.HasInput("attention_mask"))
}

func TestSDPAToPagedAttentionWithoutAttentionMaskFails(t *testing.T) {
	m := irtest.BuildStatefulDecoder(irtest.Config{NumLayers: 1, WithPositionIDs: true})
	m.RemoveParameter(m.Input("attention_mask").Node())
	require.False(t, NewSDPAToPagedAttention().RunOnModel(m))
}

func TestSDPAToPagedAttentionWithoutInputIDsPanics(t *testing.T) {
	m := ir.NewModel("no-input-ids")
	ir.Result(ir.Constant(m, int32(0)))
	require.Panics(t, func() { NewSDPAToPagedAttention().RunOnModel(m) })
}
