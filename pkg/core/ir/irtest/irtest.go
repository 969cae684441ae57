// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

// Package irtest holds test utilities for packages that operate on ir.Model
// values: builders for the stateful decoder models the rewrite passes are
// designed to transform.
package irtest

import (
	"fmt"
	"math"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/mmrbulbul/openvino/pkg/core/ir"
	"github.com/mmrbulbul/openvino/pkg/core/shapes"
	"github.com/mmrbulbul/openvino/pkg/support/sets"
)

// Config describes the stateful decoder model to build.
type Config struct {
	// NumLayers is the number of attention layers. Defaults to 2.
	NumLayers int

	// WithPositionIDs adds an explicit position_ids input; without it the
	// model derives positions from the attention mask with the
	// CumSum(mask)-1 idiom.
	WithPositionIDs bool

	// WithBeamIdx adds a beam_idx input and the per-layer cache reorder
	// gather, as models exported for beam search carry.
	WithBeamIdx bool

	// NumHeads, KVHeads and HeadDim default to 8, 8 and 64.
	NumHeads int
	KVHeads  int
	HeadDim  int

	// VocabSize defaults to 1000.
	VocabSize int
}

func (cfg Config) withDefaults() Config {
	if cfg.NumLayers == 0 {
		cfg.NumLayers = 2
	}
	if cfg.NumHeads == 0 {
		cfg.NumHeads = 8
	}
	if cfg.KVHeads == 0 {
		cfg.KVHeads = 8
	}
	if cfg.HeadDim == 0 {
		cfg.HeadDim = 64
	}
	if cfg.VocabSize == 0 {
		cfg.VocabSize = 1000
	}
	return cfg
}

// BuildStatefulDecoder builds a toy autoregressive decoder in the stateful,
// per-request form: [batch, seq] inputs, per-layer KV cache held in
// ReadValue/Assign state variables, previous/total sequence lengths derived
// from cache and mask shapes, and (optionally) position ids derived from the
// attention mask.
//
// The numeric weights are fill constants: the model is structurally faithful
// but never meant to be executed.
func BuildStatefulDecoder(cfg Config) *ir.Model {
	cfg = cfg.withDefaults()
	m := ir.NewModel("stateful-decoder")
	dyn := shapes.DynamicDim
	hidden := cfg.NumHeads * cfg.HeadDim
	kvHidden := cfg.KVHeads * cfg.HeadDim

	inputIDs := ir.Parameter(m, "input_ids", shapes.Make(dtypes.Int64, dyn, dyn))
	mask := ir.Parameter(m, "attention_mask", shapes.Make(dtypes.Int64, dyn, dyn))
	m.AddParameters(inputIDs, mask)
	var beamIdx *ir.Node
	if cfg.WithBeamIdx {
		beamIdx = ir.Parameter(m, "beam_idx", shapes.DynamicVector(dtypes.Int32))
		m.AddParameters(beamIdx)
	}

	axis0 := ir.Constant(m, int64(0))
	axis1 := ir.Constant(m, int64(1))
	axis2 := ir.Constant(m, int64(2))

	// Token positions: either the explicit input or the cumsum-of-mask idiom.
	var positions *ir.Node
	if cfg.WithPositionIDs {
		positions = ir.Parameter(m, "position_ids", shapes.Make(dtypes.Int64, dyn, dyn))
		m.AddParameters(positions)
	} else {
		positions = ir.Subtract(ir.CumSum(mask, axis1), ir.Constant(m, int64(1)))
	}

	embTable := ir.ConstantShaped(m, shapes.Make(dtypes.Float16, cfg.VocabSize, hidden), 0.01)
	posTable := ir.ConstantShaped(m, shapes.Make(dtypes.Float16, 2048, hidden), 0.02)
	h := ir.Add(
		ir.Gather(embTable, inputIDs, axis0),
		ir.Gather(posTable, positions, axis0))

	// Total sequence length from the mask shape, shared by all layers.
	totalLen := ir.Gather(ir.ShapeOf(mask), ir.Constant(m, int64(1)), axis0)

	scale := ir.ConstScalar(m, dtypes.Float16, 1/math.Sqrt(float64(cfg.HeadDim)))

	for layer := range cfg.NumLayers {
		wq := ir.ConstantShaped(m, shapes.Make(dtypes.Float16, hidden, hidden), 0.03)
		wk := ir.ConstantShaped(m, shapes.Make(dtypes.Float16, hidden, kvHidden), 0.03)
		wv := ir.ConstantShaped(m, shapes.Make(dtypes.Float16, hidden, kvHidden), 0.03)
		wo := ir.ConstantShaped(m, shapes.Make(dtypes.Float16, hidden, hidden), 0.03)

		q := ir.Reshape(ir.MatMul(h, wq), dyn, cfg.NumHeads, dyn, cfg.HeadDim)
		kCur := ir.Reshape(ir.MatMul(h, wk), dyn, cfg.KVHeads, dyn, cfg.HeadDim)
		vCur := ir.Reshape(ir.MatMul(h, wv), dyn, cfg.KVHeads, dyn, cfg.HeadDim)

		cacheShape := shapes.Make(dtypes.Float16, dyn, cfg.KVHeads, dyn, cfg.HeadDim)
		keyVar := fmt.Sprintf("past_key_values.%d.key", layer)
		valueVar := fmt.Sprintf("past_key_values.%d.value", layer)
		pastK := ir.ReadValue(m, keyVar, cacheShape)
		pastV := ir.ReadValue(m, valueVar, cacheShape)
		reorderedK, reorderedV := pastK, pastV
		if beamIdx != nil {
			reorderedK = ir.Gather(pastK, beamIdx, axis0)
			reorderedV = ir.Gather(pastV, beamIdx, axis0)
		}
		k := ir.Concat(2, reorderedK, kCur)
		v := ir.Concat(2, reorderedV, vCur)
		ir.Assign(k, keyVar)
		ir.Assign(v, valueVar)

		// Previous sequence length recovered from the cache shape, combined
		// with the total length into an additive mask bias.
		pastLen := ir.Gather(ir.ShapeOf(pastK), axis2, axis0)
		bias := ir.Convert(ir.Subtract(totalLen, pastLen), dtypes.Float16)

		attn := ir.ScaledDotProductAttention(q, k, v, bias, scale)
		h = ir.MatMul(ir.Reshape(attn, dyn, dyn, hidden), wo)
	}

	lmHead := ir.ConstantShaped(m, shapes.Make(dtypes.Float16, hidden, cfg.VocabSize), 0.04)
	logits := ir.MatMul(h, lmHead)
	logits.Output(0).AddNames("logits")
	ir.Result(logits)
	return m
}

// InputNames returns the set of node-level names of the model's attached
// inputs.
func InputNames(m *ir.Model) sets.Set[string] {
	names := sets.Make[string](len(m.Parameters()))
	for _, p := range m.Parameters() {
		names.Insert(p.Name())
	}
	return names
}
