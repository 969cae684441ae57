// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"github.com/mmrbulbul/openvino/pkg/core/ir"
)

// RewriteContext carries the state shared by the passes of one
// SDPAToPagedAttention invocation.
//
// It lives for a single transformation run, on a single goroutine, with no
// rollback: a pass appends what it discovers, the orchestrator consumes the
// accumulated lists during cleanup. Each pass documents which fields it
// reads and which it appends to.
type RewriteContext struct {
	// KVParameters collects the key_cache.<i>/value_cache.<i> parameters
	// created per attention layer, in layer discovery order. They are
	// created detached and attached to the model by the orchestrator.
	KVParameters []*ir.Node

	// ParametersToRemove collects model inputs that fed only the excised
	// stateful KV idiom, e.g. past_key_values.<i>.* inputs of models
	// exported without ReadValue/Assign state.
	ParametersToRemove []*ir.Node

	// AssignsToRemove collects the per-layer cache-update sinks. Removal is
	// best effort: the orchestrator purges every remaining sink afterwards
	// regardless.
	AssignsToRemove []*ir.Node

	// ResultsToRemove collects present.<i>.* outputs that only existed to
	// return the updated cache. Best effort.
	ResultsToRemove []*ir.Node

	// LayerIndex is the ordinal of the next attention layer to rewrite,
	// used in the names of the new cache parameters.
	LayerIndex int
}
