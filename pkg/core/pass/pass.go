// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

// Package pass implements whole-model rewrite passes over ir.Model values
// and the Manager that runs them.
//
// The centerpiece is SDPAToPagedAttention, which converts a stateful,
// per-request decoder (recurrent KV cache held in ReadValue/Assign state)
// into the stateless, batched form a paged-attention runtime executes, where
// the key/value history of many concurrent sequences lives in externally
// managed, block-addressed cache memory.
package pass

import (
	"github.com/mmrbulbul/openvino/pkg/core/ir"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ModelPass is a whole-model rewrite: RunOnModel traverses the model,
// mutates matched subgraphs in place and reports whether anything changed.
type ModelPass interface {
	// Name identifies the pass in logs and errors.
	Name() string

	// RunOnModel applies the pass, returning whether the model was modified.
	RunOnModel(m *ir.Model) bool
}

// Manager runs a sequence of registered passes in registration order.
//
// By default the model is validated after every pass. A pipeline whose
// intermediate states are deliberately inconsistent disables this with
// SetPerPassValidation(false) and validates once at the end.
type Manager struct {
	passes            []ModelPass
	perPassValidation bool
}

// NewManager returns an empty Manager with per-pass validation enabled.
func NewManager() *Manager {
	return &Manager{perPassValidation: true}
}

// Register appends a pass to the pipeline.
func (mgr *Manager) Register(p ModelPass) {
	mgr.passes = append(mgr.passes, p)
}

// SetPerPassValidation toggles model validation between passes.
func (mgr *Manager) SetPerPassValidation(enabled bool) {
	mgr.perPassValidation = enabled
}

// RunPasses applies every registered pass to the model, in order. With
// per-pass validation enabled, it stops at the first pass that leaves the
// model structurally inconsistent.
func (mgr *Manager) RunPasses(m *ir.Model) error {
	for _, p := range mgr.passes {
		changed := p.RunOnModel(m)
		klog.V(1).Infof("pass %s on model %q: changed=%v", p.Name(), m.Name(), changed)
		if !mgr.perPassValidation {
			continue
		}
		if err := m.Validate(); err != nil {
			return errors.WithMessagef(err, "model %q invalid after pass %s", m.Name(), p.Name())
		}
	}
	return nil
}
