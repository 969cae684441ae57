// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package ir

// OpType is an enum of the operations a Node can represent.
//
// The vocabulary is intentionally narrow: it covers the operations that appear
// in exported decoder models around the attention/KV-cache machinery, which is
// what the rewrite passes need to find and rebuild. It is not a general
// purpose numeric op set.
type OpType int

//go:generate go tool enumer -type=OpType -trimprefix=OpType -output=gen_optype_enumer.go optype.go

const (
	OpTypeInvalid OpType = iota
	OpTypeParameter
	OpTypeConstant
	OpTypeResult

	// OpTypeReadValue and OpTypeAssign are the recurrent-state pair: ReadValue
	// produces the value of a named variable at the start of an invocation,
	// Assign persists a new value for the next invocation. Assign nodes are
	// the model's sinks.
	OpTypeReadValue
	OpTypeAssign

	OpTypeUnsqueeze
	OpTypeReshape
	OpTypeShapeOf
	OpTypeGather
	OpTypeConcat
	OpTypeConvert
	OpTypeCumSum

	OpTypeAdd
	OpTypeSubtract
	OpTypeMultiply
	OpTypeMatMul

	OpTypeScaledDotProductAttention
	OpTypePagedAttention
)
