// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"math"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/mmrbulbul/openvino/pkg/core/ir"
	"github.com/mmrbulbul/openvino/pkg/core/ir/irtest"
	"github.com/mmrbulbul/openvino/pkg/core/shapes"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

// newPagingInputs builds the detached inputs the pass consumes, the way the
// orchestrator prepares them.
func newPagingInputs(m *ir.Model) (metadata []*ir.Node, slidingWindow, maxContextLen *ir.Node) {
	maxContextLen = ir.Parameter(m, "max_context_len", shapes.Scalar(dtypes.Int32))
	metadata = []*ir.Node{
		ir.Parameter(m, "context_lens", shapes.DynamicVector(dtypes.Int32)),
		ir.Parameter(m, "subsequence_begins", shapes.DynamicVector(dtypes.Int32)),
		ir.Parameter(m, "block_indices", shapes.DynamicVector(dtypes.Int32)),
		ir.Parameter(m, "block_indices_begins", shapes.DynamicVector(dtypes.Int32)),
	}
	slidingWindow = ir.Constant(m, int32(0))
	return
}

func TestStateManagementPatternRewritesStatefulLayer(t *testing.T) {
	m := irtest.BuildStatefulDecoder(irtest.Config{NumLayers: 1})
	metadata, slidingWindow, maxContextLen := newPagingInputs(m)
	ctx := &RewriteContext{}

	p := NewStateManagementPattern(ctx, metadata, slidingWindow, maxContextLen)
	require.True(t, p.RunOnModel(m))
	require.Equal(t, 1, ctx.LayerIndex)

	pas := findNodes(m, ir.OpTypePagedAttention)
	require.Len(t, pas, 1)
	pa := pas[0]
	require.Len(t, pa.Inputs(), 12)

	// Q/K/V flattened to the token-major layout.
	require.True(t, shapes.Make(dtypes.Float16, -1, 512).Equal(pa.Inputs()[0].Shape()))
	require.True(t, shapes.Make(dtypes.Float16, -1, 512).Equal(pa.Inputs()[1].Shape()))

	// The SDPA's explicit scale input is forwarded.
	require.True(t, pa.Inputs()[9].Shape().IsScalar())
	require.Equal(t, dtypes.Float16, pa.Inputs()[9].DType())
	require.Same(t, slidingWindow.Output(0), pa.Inputs()[10])
	require.Same(t, maxContextLen.Output(0), pa.Inputs()[11])

	require.Len(t, ctx.KVParameters, 2)
	require.Equal(t, "key_cache.0", ctx.KVParameters[0].Name())
	require.Equal(t, "value_cache.0", ctx.KVParameters[1].Name())
	require.True(t, shapes.Make(dtypes.Float16, -1, 8, -1, 64).Equal(
		ctx.KVParameters[0].Output(0).Shape()))

	// The cache-update sinks are recorded and the old SDPA is orphaned.
	require.Len(t, ctx.AssignsToRemove, 2)
	sdpa := findNodes(m, ir.OpTypeScaledDotProductAttention)[0]
	require.Empty(t, sdpa.Output(0).Consumers())
}

func TestStateManagementPatternMultipleLayers(t *testing.T) {
	m := irtest.BuildStatefulDecoder(irtest.Config{NumLayers: 3})
	metadata, slidingWindow, maxContextLen := newPagingInputs(m)
	ctx := &RewriteContext{}

	require.True(t, NewStateManagementPattern(ctx, metadata, slidingWindow, maxContextLen).RunOnModel(m))
	require.Equal(t, 3, ctx.LayerIndex)
	require.Len(t, findNodes(m, ir.OpTypePagedAttention), 3)
	require.Len(t, ctx.KVParameters, 6)
	require.Equal(t, "key_cache.2", ctx.KVParameters[4].Name())
	require.Len(t, ctx.AssignsToRemove, 6)
}

func TestStateManagementPatternBeamReorder(t *testing.T) {
	m := irtest.BuildStatefulDecoder(irtest.Config{NumLayers: 1, WithBeamIdx: true})
	metadata, slidingWindow, maxContextLen := newPagingInputs(m)
	ctx := &RewriteContext{}

	require.True(t, NewStateManagementPattern(ctx, metadata, slidingWindow, maxContextLen).RunOnModel(m))
	require.Len(t, findNodes(m, ir.OpTypePagedAttention), 1)
	require.Len(t, ctx.KVParameters, 2)
}

func TestStateManagementPatternStatelessExport(t *testing.T) {
	// The variant without ReadValue/Assign state: the history arrives as
	// past_key_values.* inputs and the updated cache leaves as present.*
	// outputs.
	m := ir.NewModel("stateless-export")
	dyn := shapes.DynamicDim
	cacheShape := shapes.Make(dtypes.Float16, dyn, 4, dyn, 32)
	q := ir.Parameter(m, "q", shapes.Make(dtypes.Float16, dyn, 4, dyn, 32))
	kCur := ir.Parameter(m, "k", cacheShape)
	vCur := ir.Parameter(m, "v", cacheShape)
	pastK := ir.Parameter(m, "past_key_values.0.key", cacheShape)
	pastV := ir.Parameter(m, "past_key_values.0.value", cacheShape)
	m.AddParameters(q, kCur, vCur, pastK, pastV)

	k := ir.Concat(2, pastK, kCur)
	v := ir.Concat(2, pastV, vCur)
	attn := ir.ScaledDotProductAttention(q, k, v, nil, nil)
	ir.Result(attn)
	presentK := ir.Result(k)
	presentV := ir.Result(v)

	metadata, slidingWindow, maxContextLen := newPagingInputs(m)
	ctx := &RewriteContext{}
	require.True(t, NewStateManagementPattern(ctx, metadata, slidingWindow, maxContextLen).RunOnModel(m))

	require.Equal(t, []*ir.Node{pastK, pastV}, ctx.ParametersToRemove)
	require.Equal(t, []*ir.Node{presentK, presentV}, ctx.ResultsToRemove)
	require.Empty(t, ctx.AssignsToRemove)

	// No explicit scale on the SDPA: 1/sqrt(headDim) is synthesized.
	pa := findNodes(m, ir.OpTypePagedAttention)[0]
	scale, ok := pa.Inputs()[9].Node().Value().(float16.Float16)
	require.True(t, ok)
	require.InDelta(t, 1.0/math.Sqrt(32), float64(scale.Float32()), 1e-3)
}

func TestStateManagementPatternIgnoresStatelessAttention(t *testing.T) {
	// Plain SDPA with no cached history: nothing to rewrite.
	m := ir.NewModel("no-state")
	dyn := shapes.DynamicDim
	s := shapes.Make(dtypes.Float16, dyn, 4, dyn, 32)
	q := ir.Parameter(m, "q", s)
	k := ir.Parameter(m, "k", s)
	v := ir.Parameter(m, "v", s)
	m.AddParameters(q, k, v)
	ir.Result(ir.ScaledDotProductAttention(q, k, v, nil, nil))

	metadata, slidingWindow, maxContextLen := newPagingInputs(m)
	ctx := &RewriteContext{}
	require.False(t, NewStateManagementPattern(ctx, metadata, slidingWindow, maxContextLen).RunOnModel(m))
	require.Empty(t, findNodes(m, ir.OpTypePagedAttention))
}
