// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"github.com/gomlx/exceptions"
)

// ReplaceNode rewires every consumer of old's outputs to read from the
// corresponding output of new instead.
//
// Postconditions:
//
//   - all edges from consumers of old now point to new, except edges whose
//     consumer is new itself (so a node built on top of old can replace it
//     without creating a cycle);
//   - old's tensor-level names are merged onto new's outputs;
//   - old remains in the model, addressable only through references still
//     held; if nothing references it, it is garbage.
//
// Both nodes must belong to the same model and have the same number of
// outputs; otherwise it panics.
func ReplaceNode(old, new *Node) {
	old.AssertValid()
	new.AssertValid()
	if old.model != new.model {
		exceptions.Panicf("ReplaceNode: %s and %s belong to different models", old, new)
	}
	if len(old.outputs) != len(new.outputs) {
		exceptions.Panicf("ReplaceNode: %s has %d outputs, replacement %s has %d",
			old, len(old.outputs), new, len(new.outputs))
	}
	for i, oldOut := range old.outputs {
		newOut := new.outputs[i]
		// Consumers are moved over a snapshot: rewiring mutates the list.
		remaining := oldOut.consumers[:0]
		for _, port := range append([]Port(nil), oldOut.consumers...) {
			if port.Node == new {
				remaining = append(remaining, port)
				continue
			}
			port.Node.inputs[port.Index] = newOut
			newOut.addConsumer(port.Node, port.Index)
		}
		oldOut.consumers = remaining
		for name := range oldOut.names {
			newOut.names.Insert(name)
		}
	}
}
