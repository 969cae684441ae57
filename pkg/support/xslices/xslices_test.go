// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

package xslices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtAndLast(t *testing.T) {
	s := []int{2, 3, 5, 7}
	assert.Equal(t, 2, At(s, 0))
	assert.Equal(t, 5, At(s, -2))
	assert.Equal(t, 7, Last(s))
}

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, func(e int) int { return e * e })
	assert.Equal(t, []int{1, 4, 9}, got)
	assert.Empty(t, Map(nil, func(e int) int { return e }))
}
