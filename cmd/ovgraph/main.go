// Copyright 2025-2026 The OpenVINO-Go Authors. SPDX-License-Identifier: Apache-2.0

// ovgraph demonstrates the SDPA-to-paged-attention rewrite: it builds a toy
// stateful decoder model, transforms it, and prints the model interface
// before and after.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/janpfeifer/must"
	"github.com/mmrbulbul/openvino/pkg/core/ir"
	"github.com/mmrbulbul/openvino/pkg/core/ir/irtest"
	"github.com/mmrbulbul/openvino/pkg/core/pass"
	"github.com/mmrbulbul/openvino/pkg/support/sets"
	"k8s.io/klog/v2"
)

var (
	flagLayers      = flag.Int("layers", 2, "Number of attention layers in the demo decoder.")
	flagBeamIdx     = flag.Bool("beam_idx", false, "Add a beam_idx input and the per-layer cache reorder, "+
		"as models exported for beam search carry.")
	flagPositionIDs = flag.Bool("position_ids", false, "Add an explicit position_ids input instead of "+
		"deriving positions from the attention mask.")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Padding(1, 4, 0, 4)
	headerStyle  = lipgloss.NewStyle().Reverse(true).Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).PaddingLeft(1).PaddingRight(1)
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() > 0 {
		klog.Errorf("ovgraph takes no arguments. See 'ovgraph -help'.")
		os.Exit(1)
	}

	m := irtest.BuildStatefulDecoder(irtest.Config{
		NumLayers:       *flagLayers,
		WithBeamIdx:     *flagBeamIdx,
		WithPositionIDs: *flagPositionIDs,
	})
	must.M(m.Validate())
	printInterface("Stateful decoder", m)

	if !pass.NewSDPAToPagedAttention().RunOnModel(m) {
		klog.Errorf("Transformation failed, model left in an indeterminate state.")
		os.Exit(1)
	}
	must.M(m.Validate())
	printInterface("Paged-attention decoder", m)
}

func newInterfaceTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			switch {
			case row == 1:
				s = headerStyle
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

func printInterface(title string, m *ir.Model) {
	fmt.Println(titleStyle.Render(title))
	table := newInterfaceTable()
	table.Row("Kind", "Name", "Shape")
	for _, p := range m.Parameters() {
		table.Row("input", p.Name(), p.Output(0).Shape().String())
	}
	for _, r := range m.Results() {
		table.Row("output", resultName(r), r.Output(0).Shape().String())
	}
	for _, s := range m.Sinks() {
		table.Row("sink", s.VariableID(), s.Output(0).Shape().String())
	}
	fmt.Println(table.Render())
}

// resultName names a result by its source tensor when the result itself is
// anonymous.
func resultName(r *ir.Node) string {
	if r.Name() != "" {
		return r.Name()
	}
	if names := sets.Sorted(r.Inputs()[0].Names()); len(names) > 0 {
		return names[0]
	}
	return fmt.Sprintf("#%d", r.Id())
}
