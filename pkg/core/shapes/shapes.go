// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape, the partially known shape of a tensor in a
// model graph, and associated tools.
//
// Unlike frameworks that compile a graph for one concrete set of input shapes,
// a model being rewritten carries symbolic shapes: any axis may be dynamic,
// meaning its dimension is only known at inference time. Dynamic axes are
// represented by the DynamicDim sentinel and printed as "?".
//
// DType enumerates the element type of a tensor and comes from
// github.com/gomlx/gopjrt/dtypes.
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a tensor.
//   - Axis: the index of a dimension. Axis values can be negative, in which
//     case they count from the end.
//   - Dynamic dimension: an axis whose size is unknown until runtime.
//   - Scalar: a shape with no axes, a single value of the associated DType.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// DynamicDim marks an axis whose dimension is unknown until runtime.
const DynamicDim = -1

// Shape represents the (possibly partial) shape of a tensor: its DType and
// the dimension of each axis, where a dimension of DynamicDim is unknown.
//
// Use Make to create a new shape. Shape is a value type: it can be copied
// freely, but Dimensions is shared among copies -- use Clone for a deep copy.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape with the given dimensions. Dimensions must be positive
// or DynamicDim; anything else panics.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 && dim != DynamicDim {
			exceptions.Panicf("shapes.Make(%s): dimensions must be positive or DynamicDim, got %v", dtype, dimensions)
		}
	}
	return s
}

// Scalar returns a rank-0 shape of the given dtype.
func Scalar(dtype dtypes.DType) Shape {
	return Shape{DType: dtype}
}

// Vector returns a rank-1 shape with the given dimension.
func Vector(dtype dtypes.DType, dim int) Shape {
	return Make(dtype, dim)
}

// DynamicVector returns a rank-1 shape with a dynamic dimension, the shape
// the rewritten model's flattened (ragged batch) inputs take.
func DynamicVector(dtype dtypes.DType) Shape {
	return Make(dtype, DynamicDim)
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// Ok returns whether this is a valid Shape. The zero value Shape{} is invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar: rank 0.
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// IsFullyDefined reports whether no axis is dynamic.
func (s Shape) IsFullyDefined() bool {
	return !slices.Contains(s.Dimensions, DynamicDim)
}

// Dim returns the dimension of the given axis, which may be DynamicDim.
// The axis can take negative numbers, in which case it counts from the end,
// so axis=-1 refers to the last axis. It panics for an out-of-bounds axis.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// Equal compares two shapes for strict equality: dtype and dimensions,
// dynamic axes included (a dynamic axis only equals another dynamic axis).
func (s Shape) Equal(s2 Shape) bool {
	return s.DType == s2.DType && slices.Equal(s.Dimensions, s2.Dimensions)
}

// Compatible reports whether two shapes could describe the same tensor:
// same dtype and rank, and every axis either matches or is dynamic on at
// least one side.
func (s Shape) Compatible(s2 Shape) bool {
	if s.DType != s2.DType || s.Rank() != s2.Rank() {
		return false
	}
	for axis, dim := range s.Dimensions {
		dim2 := s2.Dimensions[axis]
		if dim != dim2 && dim != DynamicDim && dim2 != DynamicDim {
			return false
		}
	}
	return true
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// String implements fmt.Stringer, pretty-printing the shape with dynamic
// axes as "?". E.g.: (Int32)[? 1] for a rank-expanded dynamic vector.
func (s Shape) String() string {
	if !s.Ok() {
		return "(invalid)"
	}
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	dims := make([]string, 0, s.Rank())
	for _, dim := range s.Dimensions {
		if dim == DynamicDim {
			dims = append(dims, "?")
		} else {
			dims = append(dims, fmt.Sprintf("%d", dim))
		}
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(dims, " "))
}

// HasShape is an interface for objects that have an associated Shape: node
// outputs in particular.
type HasShape interface {
	Shape() Shape
}
