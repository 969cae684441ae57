// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/mmrbulbul/openvino/pkg/core/shapes"
	"github.com/mmrbulbul/openvino/pkg/support/sets"
	"github.com/mmrbulbul/openvino/pkg/support/xslices"
)

// NodeId is a unique id of a Node within a Model.
type NodeId int

// InvalidNodeId indicates a node that is not registered in any Model.
const InvalidNodeId = NodeId(-1)

// Node represents one operation in a Model.
//
// All operations share this one struct; the operation performed is identified
// by Node.Op, and the handful of operations that carry extra information
// (constants, axes, variable ids, target dtypes) keep it in dedicated fields
// set by their constructor in ops.go.
//
// A Node is created by one of the op constructors (Parameter, Constant,
// Unsqueeze, ...), is owned by its Model, and any *Node held by a caller is a
// non-owning view.
type Node struct {
	model *Model
	id    NodeId
	op    OpType

	// name is the node-level ("friendly") name. Tensor-level names live on
	// each Output.
	name string

	// inputs are the producer outputs feeding this node, in input-port order.
	inputs []*Output

	// outputs are this node's output ports. Every op in this vocabulary
	// produces exactly one, but the IR does not rely on that.
	outputs []*Output

	// Op-specific payload.
	value      any          // OpTypeConstant: the constant's Go value.
	axis       int          // OpTypeConcat, OpTypeCumSum: the axis attribute.
	dtype      dtypes.DType // OpTypeConvert: target dtype.
	variableID string       // OpTypeReadValue, OpTypeAssign: the state variable.
}

// Output is one output port of a Node: it carries the tensor's shape, the
// set of tensor-level names, and the edges to its consumers.
type Output struct {
	node  *Node
	index int
	shape shapes.Shape
	names sets.Set[string]

	// consumers lists every input port currently reading from this output.
	consumers []Port
}

// Port identifies one input port of a node: the consuming node and the input
// index within it.
type Port struct {
	Node  *Node
	Index int
}

// Op identifies the operation performed by the node.
func (n *Node) Op() OpType {
	if n == nil {
		return OpTypeInvalid
	}
	return n.op
}

// Model that owns this Node.
func (n *Node) Model() *Model {
	if n == nil {
		return nil
	}
	return n.model
}

// Id is the unique id of this node within the Model.
func (n *Node) Id() NodeId {
	if n == nil {
		return InvalidNodeId
	}
	return n.id
}

// Name returns the node-level (friendly) name. It may be empty for internal
// nodes; Parameter nodes are always named.
func (n *Node) Name() string { return n.name }

// SetName sets the node-level name.
func (n *Node) SetName(name string) { n.name = name }

// Inputs returns the producer outputs feeding this node, in input-port order.
// The returned slice is owned by the node and must not be modified.
func (n *Node) Inputs() []*Output { return n.inputs }

// NumOutputs returns the number of output ports.
func (n *Node) NumOutputs() int { return len(n.outputs) }

// Output returns the output port at the given index. It panics if the index
// is out of bounds.
func (n *Node) Output(index int) *Output {
	if index < 0 || index >= len(n.outputs) {
		exceptions.Panicf("node %s has %d outputs, requested output #%d", n, len(n.outputs), index)
	}
	return n.outputs[index]
}

// Outputs returns all output ports.
func (n *Node) Outputs() []*Output { return n.outputs }

// AsParameter is a capability query: it returns n itself if the node is a
// Parameter, nil otherwise. Callers branch on the nil result instead of
// checking Op directly, mirroring a type-checked downcast that soft-fails.
func (n *Node) AsParameter() *Node {
	if n == nil || n.op != OpTypeParameter {
		return nil
	}
	return n
}

// VariableID returns the state-variable id for ReadValue and Assign nodes,
// and the empty string for every other op.
func (n *Node) VariableID() string { return n.variableID }

// Value returns the payload of a Constant node, nil for other ops.
func (n *Node) Value() any {
	if n == nil || n.op != OpTypeConstant {
		return nil
	}
	return n.value
}

// Axis returns the axis attribute of Concat and CumSum nodes.
func (n *Node) Axis() int { return n.axis }

// AssertValid panics if n is nil or not registered in a Model.
func (n *Node) AssertValid() {
	if n == nil {
		exceptions.Panicf("Node is nil")
	}
	if n.model == nil || n.id == InvalidNodeId {
		exceptions.Panicf("Node %s is not registered in a Model", n.op)
	}
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n == nil {
		return "Node(nil)"
	}
	var b strings.Builder
	if n.name != "" {
		fmt.Fprintf(&b, "%s[%q](#%d)", n.op, n.name, n.id)
	} else {
		fmt.Fprintf(&b, "%s(#%d)", n.op, n.id)
	}
	outs := xslices.Map(n.outputs, func(o *Output) string { return o.shape.String() })
	fmt.Fprintf(&b, " -> %s", strings.Join(outs, ", "))
	return b.String()
}

// Node returns the node this output belongs to.
func (o *Output) Node() *Node { return o.node }

// Index of this output port within its node.
func (o *Output) Index() int { return o.index }

// Shape of the tensor this output produces.
func (o *Output) Shape() shapes.Shape { return o.shape }

// SetShape overrides the shape of this output. Used by the rewrite to force
// inputs into their batched, flattened form; no re-inference of downstream
// shapes is performed.
func (o *Output) SetShape(shape shapes.Shape) { o.shape = shape }

// DType returns the element type of this output's tensor.
func (o *Output) DType() dtypes.DType { return o.shape.DType }

// Names returns the tensor-level names of this output. The returned set is
// owned by the output; use AddNames/SetNames to modify it.
func (o *Output) Names() sets.Set[string] { return o.names }

// HasName reports whether name is one of this output's tensor-level names.
func (o *Output) HasName(name string) bool { return o.names.Has(name) }

// AddNames adds tensor-level names to this output.
func (o *Output) AddNames(names ...string) {
	o.names.Insert(names...)
}

// SetNames replaces this output's tensor-level names.
func (o *Output) SetNames(names ...string) {
	o.names = sets.MakeWith(names...)
}

// Consumers returns the input ports currently reading from this output.
// The returned slice is owned by the output and must not be modified.
func (o *Output) Consumers() []Port { return o.consumers }

// String implements fmt.Stringer.
func (o *Output) String() string {
	if len(o.names) > 0 {
		return fmt.Sprintf("%s:%d%v %s", o.node.op, o.index, sets.Sorted(o.names), o.shape)
	}
	return fmt.Sprintf("%s:%d %s", o.node.op, o.index, o.shape)
}

// addConsumer registers a consumer port on this output.
func (o *Output) addConsumer(node *Node, index int) {
	o.consumers = append(o.consumers, Port{Node: node, Index: index})
}

// removeConsumer unregisters a consumer port. It is a no-op if the port is
// not registered.
func (o *Output) removeConsumer(node *Node, index int) {
	for i, p := range o.consumers {
		if p.Node == node && p.Index == index {
			o.consumers = append(o.consumers[:i], o.consumers[i+1:]...)
			return
		}
	}
}
