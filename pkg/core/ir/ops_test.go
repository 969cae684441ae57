// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/mmrbulbul/openvino/pkg/core/shapes"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestConstants(t *testing.T) {
	m := NewModel("consts")

	c := Constant(m, int32(1))
	require.Equal(t, OpTypeConstant, c.Op())
	require.True(t, shapes.Scalar(dtypes.Int32).Equal(c.Output(0).Shape()))
	v, ok := ConstInt(c)
	require.True(t, ok)
	require.Equal(t, 1, v)

	vec := Constant(m, []int64{0, 1, 2})
	require.True(t, shapes.Vector(dtypes.Int64, 3).Equal(vec.Output(0).Shape()))
	_, ok = ConstInt(vec)
	require.False(t, ok)

	half := ConstScalar(m, dtypes.Float16, 0.125)
	require.Equal(t, dtypes.Float16, half.Output(0).DType())
	require.Equal(t, float16.Fromfloat32(0.125), half.Value())

	require.Panics(t, func() { Constant(m, struct{}{}) })
	require.Panics(t, func() { ConstScalar(m, dtypes.Complex64, 1) })
}

func TestUnsqueeze(t *testing.T) {
	m := NewModel("unsqueeze")
	x := Parameter(m, "x", shapes.DynamicVector(dtypes.Int64))
	u := Unsqueeze(x, Constant(m, int32(1)))
	require.True(t, shapes.Make(dtypes.Int64, shapes.DynamicDim, 1).Equal(u.Output(0).Shape()))

	u0 := Unsqueeze(x, Constant(m, int32(0)))
	require.True(t, shapes.Make(dtypes.Int64, 1, shapes.DynamicDim).Equal(u0.Output(0).Shape()))

	require.Panics(t, func() { Unsqueeze(x, Constant(m, int32(3))) })
	require.Panics(t, func() { Unsqueeze(x, x) }) // axes must be a constant
}

func TestShapeOfAndGather(t *testing.T) {
	m := NewModel("shapeof")
	x := Parameter(m, "x", shapes.Make(dtypes.Float16, shapes.DynamicDim, 1, 512))
	s := ShapeOf(x)
	require.True(t, shapes.Vector(dtypes.Int64, 3).Equal(s.Output(0).Shape()))

	// Scalar index removes the gathered axis: element 1 of the shape vector.
	dim := Gather(s, Constant(m, int64(1)), Constant(m, int64(0)))
	require.True(t, shapes.Scalar(dtypes.Int64).Equal(dim.Output(0).Shape()))

	// Embedding-style gather: [vocab, hidden] indexed by [?, 1].
	table := Parameter(m, "table", shapes.Make(dtypes.Float16, 1000, 512))
	ids := Parameter(m, "ids", shapes.Make(dtypes.Int64, shapes.DynamicDim, 1))
	emb := Gather(table, ids, Constant(m, int64(0)))
	require.True(t, shapes.Make(dtypes.Float16, shapes.DynamicDim, 1, 512).Equal(emb.Output(0).Shape()))
}

func TestConcat(t *testing.T) {
	m := NewModel("concat")
	past := Parameter(m, "past", shapes.Make(dtypes.Float16, 1, 8, shapes.DynamicDim, 64))
	cur := Parameter(m, "cur", shapes.Make(dtypes.Float16, 1, 8, 1, 64))
	cc := Concat(2, past, cur)
	require.Equal(t, 2, cc.Axis())
	require.True(t, shapes.Make(dtypes.Float16, 1, 8, shapes.DynamicDim, 64).Equal(cc.Output(0).Shape()))

	both := Concat(-2, cur, cur)
	require.True(t, shapes.Make(dtypes.Float16, 1, 8, 2, 64).Equal(both.Output(0).Shape()))

	bad := Parameter(m, "bad", shapes.Make(dtypes.Float32, 1, 8, 1, 64))
	require.Panics(t, func() { Concat(2, past, bad) })
}

func TestBinaryOpsAndConvert(t *testing.T) {
	m := NewModel("binary")
	maxLen := Parameter(m, "max_context_len", shapes.Scalar(dtypes.Int32))
	cur := Convert(Constant(m, int64(7)), dtypes.Int32)
	require.Equal(t, dtypes.Int32, cur.Output(0).DType())

	prev := Subtract(maxLen, cur)
	require.True(t, shapes.Scalar(dtypes.Int32).Equal(prev.Output(0).Shape()))

	// Broadcasting: scalar against vector.
	vec := Parameter(m, "vec", shapes.DynamicVector(dtypes.Int32))
	sum := Add(vec, maxLen)
	require.True(t, shapes.DynamicVector(dtypes.Int32).Equal(sum.Output(0).Shape()))

	f := Parameter(m, "f", shapes.DynamicVector(dtypes.Float32))
	require.Panics(t, func() { Add(vec, f) }) // dtype mismatch
}

func TestMatMul(t *testing.T) {
	m := NewModel("matmul")
	x := Parameter(m, "x", shapes.Make(dtypes.Float16, shapes.DynamicDim, 1, 512))
	w := Parameter(m, "w", shapes.Make(dtypes.Float16, 512, 128))
	y := MatMul(x, w)
	require.True(t, shapes.Make(dtypes.Float16, shapes.DynamicDim, 1, 128).Equal(y.Output(0).Shape()))

	bad := Parameter(m, "bad", shapes.Make(dtypes.Float16, 100, 128))
	require.Panics(t, func() { MatMul(x, bad) })
}

func TestAttentionOps(t *testing.T) {
	m := NewModel("attention")
	qkv := shapes.Make(dtypes.Float16, 1, 8, shapes.DynamicDim, 64)
	q := Parameter(m, "q", qkv)
	k := Parameter(m, "k", qkv)
	v := Parameter(m, "v", qkv)
	sdpa := ScaledDotProductAttention(q, k, v, nil, nil)
	require.Len(t, sdpa.Inputs(), 3)
	require.True(t, qkv.Equal(sdpa.Output(0).Shape()))

	flat := shapes.Make(dtypes.Float16, shapes.DynamicDim, 512)
	fq := Reshape(q, shapes.DynamicDim, 512)
	fk := Reshape(k, shapes.DynamicDim, 512)
	fv := Reshape(v, shapes.DynamicDim, 512)
	keyCache := Parameter(m, "key_cache.0", shapes.Make(dtypes.Float16, shapes.DynamicDim, 8, shapes.DynamicDim, 64))
	valueCache := Parameter(m, "value_cache.0", shapes.Make(dtypes.Float16, shapes.DynamicDim, 8, shapes.DynamicDim, 64))
	metadata := []*Node{
		Parameter(m, "context_lens", shapes.DynamicVector(dtypes.Int32)),
		Parameter(m, "subsequence_begins", shapes.DynamicVector(dtypes.Int32)),
		Parameter(m, "block_indices", shapes.DynamicVector(dtypes.Int32)),
		Parameter(m, "block_indices_begins", shapes.DynamicVector(dtypes.Int32)),
	}
	pa := PagedAttention(fq, fk, fv, keyCache, valueCache, metadata,
		ConstScalar(m, dtypes.Float32, 0.125), Constant(m, int32(0)),
		Parameter(m, "max_context_len", shapes.Scalar(dtypes.Int32)))
	require.Len(t, pa.Inputs(), 12)
	require.True(t, flat.Equal(pa.Output(0).Shape()))

	require.Panics(t, func() {
		PagedAttention(fq, fk, fv, keyCache, valueCache, metadata[:3],
			ConstScalar(m, dtypes.Float32, 0.125), Constant(m, int32(0)), nil)
	})
}

func TestOpTypeStrings(t *testing.T) {
	require.Equal(t, "PagedAttention", OpTypePagedAttention.String())
	require.Equal(t, "ScaledDotProductAttention", OpTypeScaledDotProductAttention.String())
	got, err := OpTypeString("ReadValue")
	require.NoError(t, err)
	require.Equal(t, OpTypeReadValue, got)
	_, err = OpTypeString("NoSuchOp")
	require.Error(t, err)
}
