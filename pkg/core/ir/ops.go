// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/mmrbulbul/openvino/pkg/core/shapes"
	"github.com/x448/float16"
)

// This file holds the op constructors. Each constructor performs local shape
// inference over partial shapes: a dynamic input axis generally yields a
// dynamic output axis, and only locally checkable mistakes (dtype mismatches,
// bad axes) panic.

// Parameter creates a named entry-point node with a single output port.
//
// The name is set at both levels of the naming contract: as the node-level
// name and as the output's single tensor-level name, so named-input lookups
// succeed through either. The node is created detached; it only becomes a
// model input once passed to Model.AddParameters.
func Parameter(m *Model, name string, shape shapes.Shape) *Node {
	n := m.newNode(OpTypeParameter, nil, shape.Clone())
	n.name = name
	if n.NumOutputs() != 1 {
		// A leaf input node must have exactly one output port.
		exceptions.Panicf("Parameter %q created with %d output ports", name, n.NumOutputs())
	}
	n.Output(0).SetNames(name)
	return n
}

// Constant creates a constant node from a Go value. Supported values are
// scalars (bool, int32, int64, int, float32, float64, float16.Float16) and
// rank-1 slices of int32, int64, float32 and float64.
func Constant(m *Model, value any) *Node {
	shape := constShape(value)
	n := m.newNode(OpTypeConstant, nil, shape)
	n.value = value
	return n
}

// ConstScalar creates a scalar constant of the given dtype, casting value to
// the dtype's Go representation (including Float16).
func ConstScalar(m *Model, dtype dtypes.DType, value float64) *Node {
	return Constant(m, castScalar(dtype, value))
}

// ConstantShaped creates a constant of the given fully defined shape with
// every element equal to value (stored as a single fill scalar: the IR never
// materializes constant tensors).
func ConstantShaped(m *Model, shape shapes.Shape, value float64) *Node {
	if !shape.IsFullyDefined() {
		exceptions.Panicf("ConstantShaped: shape %s must be fully defined", shape)
	}
	n := m.newNode(OpTypeConstant, nil, shape.Clone())
	n.value = castScalar(shape.DType, value)
	return n
}

func castScalar(dtype dtypes.DType, value float64) any {
	switch dtype {
	case dtypes.Bool:
		return value != 0
	case dtypes.Int32:
		return int32(value)
	case dtypes.Int64:
		return int64(value)
	case dtypes.Float16:
		return float16.Fromfloat32(float32(value))
	case dtypes.Float32:
		return float32(value)
	case dtypes.Float64:
		return value
	}
	exceptions.Panicf("ConstScalar: unsupported dtype %s", dtype)
	return nil
}

func constShape(value any) shapes.Shape {
	switch v := value.(type) {
	case bool:
		return shapes.Scalar(dtypes.Bool)
	case int32:
		return shapes.Scalar(dtypes.Int32)
	case int64, int:
		return shapes.Scalar(dtypes.Int64)
	case float16.Float16:
		return shapes.Scalar(dtypes.Float16)
	case float32:
		return shapes.Scalar(dtypes.Float32)
	case float64:
		return shapes.Scalar(dtypes.Float64)
	case []int32:
		return shapes.Vector(dtypes.Int32, len(v))
	case []int64:
		return shapes.Vector(dtypes.Int64, len(v))
	case []float32:
		return shapes.Vector(dtypes.Float32, len(v))
	case []float64:
		return shapes.Vector(dtypes.Float64, len(v))
	}
	exceptions.Panicf("Constant: unsupported value of type %T", value)
	return shapes.Invalid()
}

// ConstInt returns the integer payload of a scalar integer Constant node,
// with ok=false if the node is not one.
func ConstInt(n *Node) (value int, ok bool) {
	if n == nil || n.op != OpTypeConstant || !n.Output(0).Shape().IsScalar() {
		return 0, false
	}
	switch v := n.value.(type) {
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Result declares x as a model output. The node attaches itself to the
// model's result list.
func Result(x *Node) *Node {
	m := x.Model()
	n := m.newNode(OpTypeResult, []*Output{x.Output(0)}, x.Output(0).Shape().Clone())
	m.addResult(n)
	return n
}

// ReadValue produces the value of the state variable variableID as of the
// start of the invocation. The shape is the variable's declared shape,
// typically with a dynamic sequence axis.
func ReadValue(m *Model, variableID string, shape shapes.Shape) *Node {
	n := m.newNode(OpTypeReadValue, nil, shape.Clone())
	n.variableID = variableID
	return n
}

// Assign persists x as the new value of the state variable variableID for
// the next invocation. The node registers itself as a model sink.
func Assign(x *Node, variableID string) *Node {
	m := x.Model()
	n := m.newNode(OpTypeAssign, []*Output{x.Output(0)}, x.Output(0).Shape().Clone())
	n.variableID = variableID
	m.addSink(n)
	return n
}

// Unsqueeze inserts a size-1 axis into x's shape at the position given by the
// scalar integer constant axes.
func Unsqueeze(x, axes *Node) *Node {
	axis, ok := ConstInt(axes)
	if !ok {
		exceptions.Panicf("Unsqueeze: axes must be a scalar integer Constant, got %s", axes)
	}
	in := x.Output(0).Shape()
	if axis < 0 {
		axis += in.Rank() + 1
	}
	if axis < 0 || axis > in.Rank() {
		exceptions.Panicf("Unsqueeze: axis %d out of range for %s", axis, in)
	}
	dims := make([]int, 0, in.Rank()+1)
	dims = append(dims, in.Dimensions[:axis]...)
	dims = append(dims, 1)
	dims = append(dims, in.Dimensions[axis:]...)
	return x.Model().newNode(OpTypeUnsqueeze,
		[]*Output{x.Output(0), axes.Output(0)},
		shapes.Shape{DType: in.DType, Dimensions: dims})
}

// Reshape reinterprets x with the given dimensions (DynamicDim allowed). No
// element-count check is attempted over partial shapes.
func Reshape(x *Node, dimensions ...int) *Node {
	in := x.Output(0).Shape()
	n := x.Model().newNode(OpTypeReshape,
		[]*Output{x.Output(0)},
		shapes.Make(in.DType, dimensions...))
	n.value = dimensions
	return n
}

// ShapeOf produces the runtime shape of x as an Int64 vector of length
// x's rank.
func ShapeOf(x *Node) *Node {
	return x.Model().newNode(OpTypeShapeOf,
		[]*Output{x.Output(0)},
		shapes.Vector(dtypes.Int64, x.Output(0).Shape().Rank()))
}

// Gather gathers slices of data along the axis given by the scalar integer
// constant axis, indexed by indices. The output shape is data's shape with
// the gathered axis replaced by indices' shape.
func Gather(data, indices, axis *Node) *Node {
	axisValue, ok := ConstInt(axis)
	if !ok {
		exceptions.Panicf("Gather: axis must be a scalar integer Constant, got %s", axis)
	}
	dataShape := data.Output(0).Shape()
	indicesShape := indices.Output(0).Shape()
	if axisValue < 0 {
		axisValue += dataShape.Rank()
	}
	if axisValue < 0 || axisValue >= dataShape.Rank() {
		exceptions.Panicf("Gather: axis %d out of range for %s", axisValue, dataShape)
	}
	dims := make([]int, 0, dataShape.Rank()-1+indicesShape.Rank())
	dims = append(dims, dataShape.Dimensions[:axisValue]...)
	dims = append(dims, indicesShape.Dimensions...)
	dims = append(dims, dataShape.Dimensions[axisValue+1:]...)
	return data.Model().newNode(OpTypeGather,
		[]*Output{data.Output(0), indices.Output(0), axis.Output(0)},
		shapes.Shape{DType: dataShape.DType, Dimensions: dims})
}

// Concat concatenates the inputs along axis. All inputs must share dtype and
// rank; the concatenated axis is dynamic if any input's is.
func Concat(axis int, inputs ...*Node) *Node {
	if len(inputs) == 0 {
		exceptions.Panicf("Concat: requires at least one input")
	}
	first := inputs[0].Output(0).Shape()
	if axis < 0 {
		axis += first.Rank()
	}
	if axis < 0 || axis >= first.Rank() {
		exceptions.Panicf("Concat: axis %d out of range for %s", axis, first)
	}
	dims := first.Clone().Dimensions
	for _, in := range inputs[1:] {
		s := in.Output(0).Shape()
		if s.DType != first.DType || s.Rank() != first.Rank() {
			exceptions.Panicf("Concat: incompatible input shapes %s and %s", first, s)
		}
		for a := range dims {
			if a == axis {
				continue
			}
			dims[a] = mergeDims("Concat", dims[a], s.Dimensions[a])
		}
		if dims[axis] == shapes.DynamicDim || s.Dimensions[axis] == shapes.DynamicDim {
			dims[axis] = shapes.DynamicDim
		} else {
			dims[axis] += s.Dimensions[axis]
		}
	}
	outputs := make([]*Output, len(inputs))
	for i, in := range inputs {
		outputs[i] = in.Output(0)
	}
	n := inputs[0].Model().newNode(OpTypeConcat, outputs,
		shapes.Shape{DType: first.DType, Dimensions: dims})
	n.axis = axis
	return n
}

// Convert casts x to the given dtype, keeping the dimensions.
func Convert(x *Node, dtype dtypes.DType) *Node {
	in := x.Output(0).Shape()
	n := x.Model().newNode(OpTypeConvert,
		[]*Output{x.Output(0)},
		shapes.Shape{DType: dtype, Dimensions: in.Clone().Dimensions})
	n.dtype = dtype
	return n
}

// CumSum computes the cumulative sum of x along the axis given by the scalar
// integer constant axis. The shape is unchanged.
func CumSum(x, axis *Node) *Node {
	axisValue, ok := ConstInt(axis)
	if !ok {
		exceptions.Panicf("CumSum: axis must be a scalar integer Constant, got %s", axis)
	}
	n := x.Model().newNode(OpTypeCumSum,
		[]*Output{x.Output(0), axis.Output(0)},
		x.Output(0).Shape().Clone())
	n.axis = axisValue
	return n
}

// Add returns the elementwise sum of a and b with multidirectional
// broadcasting.
func Add(a, b *Node) *Node { return binaryOp(OpTypeAdd, a, b) }

// Subtract returns the elementwise difference of a and b with
// multidirectional broadcasting.
func Subtract(a, b *Node) *Node { return binaryOp(OpTypeSubtract, a, b) }

// Multiply returns the elementwise product of a and b with multidirectional
// broadcasting.
func Multiply(a, b *Node) *Node { return binaryOp(OpTypeMultiply, a, b) }

func binaryOp(op OpType, a, b *Node) *Node {
	aShape := a.Output(0).Shape()
	bShape := b.Output(0).Shape()
	if aShape.DType != bShape.DType {
		exceptions.Panicf("%s: dtype mismatch between %s and %s", op, aShape, bShape)
	}
	return a.Model().newNode(op,
		[]*Output{a.Output(0), b.Output(0)},
		broadcastShapes(op, aShape, bShape))
}

// MatMul multiplies the two last axes of a and b ([..., m, k] x [..., k, n]
// -> [..., m, n]), broadcasting leading batch axes.
func MatMul(a, b *Node) *Node {
	aShape := a.Output(0).Shape()
	bShape := b.Output(0).Shape()
	if aShape.DType != bShape.DType {
		exceptions.Panicf("MatMul: dtype mismatch between %s and %s", aShape, bShape)
	}
	if aShape.Rank() < 2 || bShape.Rank() < 2 {
		exceptions.Panicf("MatMul: inputs must have rank >= 2, got %s and %s", aShape, bShape)
	}
	aBatch := shapes.Shape{DType: aShape.DType, Dimensions: aShape.Dimensions[:aShape.Rank()-2]}
	bBatch := shapes.Shape{DType: bShape.DType, Dimensions: bShape.Dimensions[:bShape.Rank()-2]}
	batch := broadcastShapes(OpTypeMatMul, aBatch, bBatch)
	k0, k1 := aShape.Dim(-1), bShape.Dim(-2)
	if k0 != k1 && k0 != shapes.DynamicDim && k1 != shapes.DynamicDim {
		exceptions.Panicf("MatMul: contracting dimensions disagree between %s and %s", aShape, bShape)
	}
	dims := append(batch.Dimensions, aShape.Dim(-2), bShape.Dim(-1))
	return a.Model().newNode(OpTypeMatMul,
		[]*Output{a.Output(0), b.Output(0)},
		shapes.Shape{DType: aShape.DType, Dimensions: dims})
}

// ScaledDotProductAttention is the fused stateless attention op. mask and
// scale are optional and may be nil. The output takes q's shape.
func ScaledDotProductAttention(q, k, v, mask, scale *Node) *Node {
	inputs := []*Output{q.Output(0), k.Output(0), v.Output(0)}
	if mask != nil {
		inputs = append(inputs, mask.Output(0))
	}
	if scale != nil {
		inputs = append(inputs, scale.Output(0))
	}
	return q.Model().newNode(OpTypeScaledDotProductAttention, inputs,
		q.Output(0).Shape().Clone())
}

// PagedAttention is the fused attention op reading the key/value history of
// many sequences from block-addressed cache memory.
//
// metadata must hold exactly the four paging-metadata inputs, in order:
// context_lens, subsequence_begins, block_indices, block_indices_begins.
// The output takes q's (flattened token-major) shape.
func PagedAttention(q, k, v, keyCache, valueCache *Node, metadata []*Node, scale, slidingWindow, maxContextLen *Node) *Node {
	if len(metadata) != 4 {
		exceptions.Panicf("PagedAttention: expected the 4 paging-metadata inputs, got %d", len(metadata))
	}
	inputs := []*Output{
		q.Output(0), k.Output(0), v.Output(0),
		keyCache.Output(0), valueCache.Output(0),
	}
	for _, md := range metadata {
		inputs = append(inputs, md.Output(0))
	}
	inputs = append(inputs, scale.Output(0), slidingWindow.Output(0), maxContextLen.Output(0))
	return q.Model().newNode(OpTypePagedAttention, inputs,
		q.Output(0).Shape().Clone())
}

// mergeDims reconciles one axis of two shapes that must describe the same
// dimension: dynamic defers to the static side, conflicting statics panic.
func mergeDims(op string, a, b int) int {
	if a == b {
		return a
	}
	if a == shapes.DynamicDim {
		return b
	}
	if b == shapes.DynamicDim {
		return a
	}
	exceptions.Panicf("%s: dimensions %d and %d disagree", op, a, b)
	return 0
}

// broadcastShapes implements multidirectional (numpy-style) broadcasting over
// partial shapes. A dynamic axis broadcast against a static one other than 1
// stays dynamic.
func broadcastShapes(op OpType, a, b shapes.Shape) shapes.Shape {
	if a.Rank() < b.Rank() {
		a, b = b, a
	}
	offset := a.Rank() - b.Rank()
	dims := make([]int, a.Rank())
	copy(dims, a.Dimensions)
	for i, bDim := range b.Dimensions {
		aDim := dims[offset+i]
		switch {
		case aDim == bDim:
		case aDim == 1:
			dims[offset+i] = bDim
		case bDim == 1:
		case aDim == shapes.DynamicDim || bDim == shapes.DynamicDim:
			dims[offset+i] = shapes.DynamicDim
		default:
			exceptions.Panicf("%s: cannot broadcast %s with %s", op, a, b)
		}
	}
	return shapes.Shape{DType: a.DType, Dimensions: dims}
}
