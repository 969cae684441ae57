// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

// Package ir is a mutable intermediate representation for exported model
// graphs: a DAG of typed, shaped tensor-producing nodes with named entry
// points (parameters), declared outputs (results) and state-persisting sinks
// (Assign nodes).
//
// It is the substrate the rewrite passes in pkg/core/pass operate on. It is
// deliberately not an execution engine: nodes carry partial shapes
// (see pkg/core/shapes) and are never evaluated.
//
// # Error handling
//
// Misuse while building or rewiring a model -- mismatched dtypes, invalid
// axes, replacing nodes of different arity -- panics via
// github.com/gomlx/exceptions with a descriptive message. Structural
// consistency of a whole model is checked by Model.Validate, which returns an
// error instead, since an inconsistent model mid-rewrite is an expected state
// rather than a programming bug.
package ir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/mmrbulbul/openvino/pkg/core/shapes"
	"github.com/mmrbulbul/openvino/pkg/support/sets"
	"github.com/pkg/errors"
)

// Model owns a graph of nodes. It tracks three special node lists:
//
//   - parameters: the ordered, named entry points of the model;
//   - results: the ordered declared outputs;
//   - sinks: Assign nodes, which persist state across invocations and keep
//     their subgraphs alive even when no result depends on them.
//
// Parameter nodes are created detached (see Parameter) and only become model
// inputs once attached with AddParameters. Result and Assign nodes attach
// themselves on construction, since rewrites only ever remove those.
type Model struct {
	name  string
	nodes []*Node

	parameters []*Node
	results    []*Node
	sinks      []*Node
}

// NewModel returns an empty model with the given name.
func NewModel(name string) *Model {
	return &Model{name: name}
}

// Name of the model.
func (m *Model) Name() string { return m.name }

// Nodes returns every node registered in the model, in creation order,
// including nodes that became unreachable during a rewrite.
func (m *Model) Nodes() []*Node { return m.nodes }

// registerNode assigns the node an id and takes ownership of it.
func (m *Model) registerNode(n *Node) *Node {
	n.model = m
	n.id = NodeId(len(m.nodes))
	m.nodes = append(m.nodes, n)
	return n
}

// newNode builds a node with the given inputs and single output shape, and
// registers it. All op constructors funnel through here.
func (m *Model) newNode(op OpType, inputs []*Output, outputShapes ...shapes.Shape) *Node {
	n := &Node{op: op, inputs: slices.Clone(inputs)}
	for i, in := range inputs {
		in.addConsumer(n, i)
	}
	n.outputs = make([]*Output, len(outputShapes))
	for i, shape := range outputShapes {
		n.outputs[i] = &Output{node: n, index: i, shape: shape, names: sets.Make[string]()}
	}
	return m.registerNode(n)
}

// Parameters returns the model's declared inputs, in order.
func (m *Model) Parameters() []*Node { return m.parameters }

// Results returns the model's declared outputs, in order.
func (m *Model) Results() []*Node { return m.results }

// Sinks returns the model's state-persisting sinks. The returned slice is a
// copy: callers iterate it while removing sinks from the model.
func (m *Model) Sinks() []*Node { return slices.Clone(m.sinks) }

// AddParameters appends parameter nodes to the model's input list, in the
// given order. It panics if a node is not a Parameter or if a node-level or
// tensor-level name collides with an already attached input.
func (m *Model) AddParameters(params ...*Node) {
	for _, p := range params {
		if p.AsParameter() == nil {
			exceptions.Panicf("AddParameters: node %s is not a Parameter", p)
		}
		for _, name := range p.inputNames() {
			if m.findInput(name) != nil {
				exceptions.Panicf("AddParameters: model %q already has an input named %q", m.name, name)
			}
		}
		m.parameters = append(m.parameters, p)
	}
}

// RemoveParameter detaches a parameter from the model's input list. The node
// itself remains in the model; if nothing consumes it, it is garbage. It is a
// no-op if the node is not attached.
func (m *Model) RemoveParameter(p *Node) {
	m.parameters = removeNode(m.parameters, p)
}

// AddResult appends a result node to the model's output list. Used by Result.
func (m *Model) addResult(r *Node) {
	m.results = append(m.results, r)
}

// RemoveResult detaches a result from the model's output list. No-op if not
// attached.
func (m *Model) RemoveResult(r *Node) {
	m.results = removeNode(m.results, r)
}

// addSink registers an Assign node as a sink. Used by Assign.
func (m *Model) addSink(s *Node) {
	m.sinks = append(m.sinks, s)
}

// RemoveSink detaches a sink from the model. The Assign node and the subgraph
// feeding it remain in the model as garbage unless otherwise referenced.
// No-op if not attached.
func (m *Model) RemoveSink(s *Node) {
	m.sinks = removeNode(m.sinks, s)
}

// Input returns the output port of the attached parameter matching name,
// looking at both the node-level name and the tensor-level names (the
// two-part naming contract: downstream lookups may use either). Returns nil
// if no attached parameter matches.
func (m *Model) Input(name string) *Output {
	return m.findInput(name)
}

// HasInput reports whether the model has an attached parameter matching name.
func (m *Model) HasInput(name string) bool {
	return m.findInput(name) != nil
}

func (m *Model) findInput(name string) *Output {
	for _, p := range m.parameters {
		if p.name == name {
			return p.Output(0)
		}
		for _, out := range p.outputs {
			if out.HasName(name) {
				return out
			}
		}
	}
	return nil
}

// inputNames returns the node-level and tensor-level names of a parameter.
func (n *Node) inputNames() []string {
	names := sets.Make[string]()
	if n.name != "" {
		names.Insert(n.name)
	}
	for _, out := range n.outputs {
		for name := range out.names {
			names.Insert(name)
		}
	}
	return sets.Sorted(names)
}

// Validate checks the structural consistency of the model:
//
//   - attached parameters, results and sinks are of the right op kind and
//     belong to this model;
//   - input names (node-level and tensor-level) are unique across attached
//     parameters;
//   - every Parameter node reachable from a result or sink is attached to
//     the input list.
//
// Unreachable (orphaned) nodes are ignored: a rewrite legitimately leaves
// garbage behind.
func (m *Model) Validate() error {
	seenNames := sets.Make[string]()
	for _, p := range m.parameters {
		if p.AsParameter() == nil {
			return errors.Errorf("model %q: attached input %s is not a Parameter", m.name, p)
		}
		if p.model != m {
			return errors.Errorf("model %q: input %s belongs to another model", m.name, p)
		}
		for _, name := range p.inputNames() {
			if seenNames.Has(name) {
				return errors.Errorf("model %q: duplicate input name %q", m.name, name)
			}
			seenNames.Insert(name)
		}
	}
	for _, r := range m.results {
		if r.op != OpTypeResult {
			return errors.Errorf("model %q: attached result %s is not a Result", m.name, r)
		}
	}
	for _, s := range m.sinks {
		if s.op != OpTypeAssign {
			return errors.Errorf("model %q: attached sink %s is not an Assign", m.name, s)
		}
	}

	attached := sets.MakeWith(m.parameters...)
	for _, n := range m.reachable() {
		if n.op == OpTypeParameter && !attached.Has(n) {
			return errors.Errorf("model %q: parameter %s is consumed by the model but not attached as an input", m.name, n)
		}
	}
	return nil
}

// reachable returns the nodes reachable from the model's results and sinks.
func (m *Model) reachable() []*Node {
	visited := sets.Make[*Node]()
	var stack []*Node
	stack = append(stack, m.results...)
	stack = append(stack, m.sinks...)
	var order []*Node
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Has(n) {
			continue
		}
		visited.Insert(n)
		order = append(order, n)
		for _, in := range n.inputs {
			stack = append(stack, in.node)
		}
	}
	return order
}

// String converts the Model to a multi-line listing of its nodes.
func (m *Model) String() string {
	parts := []string{fmt.Sprintf("Model %q: %d nodes, %d inputs, %d results, %d sinks",
		m.name, len(m.nodes), len(m.parameters), len(m.results), len(m.sinks))}
	for _, n := range m.nodes {
		parts = append(parts, "\t"+n.String())
	}
	return strings.Join(parts, "\n")
}

// removeNode removes the first occurrence of n from list.
func removeNode(list []*Node, n *Node) []*Node {
	for i, e := range list {
		if e == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
