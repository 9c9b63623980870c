// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pdg_test

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/awslabs/ar-va-tools/analysis/config"
	"github.com/awslabs/ar-va-tools/analysis/pdg"
	"github.com/awslabs/ar-va-tools/analysis/postdom"
	"golang.org/x/exp/slices"
)

func testLogger() *config.LogGroup {
	return config.NewLogGroup(config.NewDefault())
}

// buildDiamond returns
//
//	entry: s0: c := ...; s1: x := c; split c -> then, else
//	then:  s2: x := c;   goto exit
//	else:  s3: y := x;   goto exit
//	exit:  s4: out := x, y; end
func buildDiamond(t *testing.T) *cfg.ControlFlowGraph {
	t.Helper()
	b := cfg.NewBuilder()
	c := b.Variable("c")
	x := b.Variable("x")
	y := b.Variable("y")
	out := b.Variable("out")
	entry := b.Block("entry")
	then := b.Block("then")
	els := b.Block("else")
	exit := b.Block("exit")
	b.Assign(entry, c)
	b.Assign(entry, x, c)
	b.Split(entry, c, then, els)
	b.Assign(then, x, c)
	b.Goto(then, exit)
	b.Assign(els, y, x)
	b.Goto(els, exit)
	b.Assign(exit, out, x, y)
	b.End(exit)
	g, err := b.Finish()
	if err != nil {
		t.Fatalf("building diamond: %v", err)
	}
	return g
}

// buildLoop returns
//
//	entry:  s0: i := ...; s1: n := ...; goto header
//	header: s2: t := i, n; split t -> body, exit
//	body:   s3: i := i;   goto header
//	exit:   end
func buildLoop(t *testing.T) *cfg.ControlFlowGraph {
	t.Helper()
	b := cfg.NewBuilder()
	i := b.Variable("i")
	n := b.Variable("n")
	tv := b.Variable("t")
	entry := b.Block("entry")
	header := b.Block("header")
	body := b.Block("body")
	exit := b.Block("exit")
	b.Assign(entry, i)
	b.Assign(entry, n)
	b.Goto(entry, header)
	b.Assign(header, tv, i, n)
	b.Split(header, tv, body, exit)
	b.Assign(body, i, i)
	b.Goto(body, header)
	b.End(exit)
	g, err := b.Finish()
	if err != nil {
		t.Fatalf("building loop: %v", err)
	}
	return g
}

func controllersOf(cd pdg.ControlDependencies, b cfg.BlockID) []int {
	if cd.Controllers(b) == nil {
		return nil
	}
	return cd.Controllers(b).AppendTo(nil)
}

func TestControlDependenceDiamond(t *testing.T) {
	g := buildDiamond(t)
	cd := pdg.ComputeControlDependence(g, postdom.Compute(g))

	if got := controllersOf(cd, 1); !slices.Equal(got, []int{0}) {
		t.Errorf("controllers(then): got %v, want [0]", got)
	}
	if got := controllersOf(cd, 2); !slices.Equal(got, []int{0}) {
		t.Errorf("controllers(else): got %v, want [0]", got)
	}
	if got := controllersOf(cd, 0); got != nil {
		t.Errorf("controllers(entry): got %v, want none", got)
	}
	if got := controllersOf(cd, 3); got != nil {
		t.Errorf("controllers(exit): got %v, want none", got)
	}
}

func TestControlDependenceLoop(t *testing.T) {
	g := buildLoop(t)
	cd := pdg.ComputeControlDependence(g, postdom.Compute(g))

	// The body runs only when the header branches into it, and the header
	// itself re-runs only for the same reason: it controls itself.
	if got := controllersOf(cd, 2); !slices.Equal(got, []int{1}) {
		t.Errorf("controllers(body): got %v, want [1]", got)
	}
	if got := controllersOf(cd, 1); !slices.Equal(got, []int{1}) {
		t.Errorf("controllers(header): got %v, want [1]", got)
	}
	if got := controllersOf(cd, 0); got != nil {
		t.Errorf("controllers(entry): got %v, want none", got)
	}
	if got := controllersOf(cd, 3); got != nil {
		t.Errorf("controllers(exit): got %v, want none", got)
	}
}

func TestDependenceGraphDiamond(t *testing.T) {
	g := buildDiamond(t)
	p := pdg.Build(g, testLogger())
	dg := pdg.NewDependenceGraph(p)

	t0 := dg.TerminatorID(0)
	if !slices.Equal(dg.Keys, []int64{0, 1, 2, 3, 4, t0}) {
		t.Fatalf("node keys: got %v", dg.Keys)
	}

	wantEdges := map[string]bool{
		"1>0": true, "2>0": true, "3>1": true,
		"4>1": true, "4>2": true, "4>3": true,
		fmt.Sprintf("2>%d", t0): true,
		fmt.Sprintf("3>%d", t0): true,
		fmt.Sprintf("%d>0", t0): true,
	}
	var gotEdges []string
	for _, v := range dg.Keys {
		dg.Visit(int(v), func(w int, _ int64) bool {
			gotEdges = append(gotEdges, fmt.Sprintf("%d>%d", v, w))
			return false
		})
	}
	if len(gotEdges) != len(wantEdges) {
		t.Errorf("edge count: got %d (%v), want %d", len(gotEdges), gotEdges, len(wantEdges))
	}
	for _, e := range gotEdges {
		if !wantEdges[e] {
			t.Errorf("unexpected edge %s", e)
		}
	}

	if !dg.HasEdgeFromTo(2, t0) || dg.HasEdgeFromTo(t0, 2) {
		t.Error("control edge direction wrong")
	}
	if !dg.HasEdgeBetween(t0, 2) {
		t.Error("HasEdgeBetween misses control edge")
	}
	if dg.From(4).Len() != 3 {
		t.Errorf("From(4): got %d nodes, want 3", dg.From(4).Len())
	}
	if dg.To(0).Len() != 3 {
		t.Errorf("To(0): got %d nodes, want 3", dg.To(0).Len())
	}
	if n := dg.Node(t0); n == nil || !n.(pdg.DepNode).IsTerminator() {
		t.Errorf("Node(%d): got %v, want terminator node", t0, n)
	}
	if dg.Node(int64(dg.Order())) != nil {
		t.Error("Node out of range: got non-nil")
	}
}

func cycleStrings(cycles [][]int64) []string {
	out := make([]string, len(cycles))
	for i, cycle := range cycles {
		parts := make([]string, len(cycle))
		for j, id := range cycle {
			parts[j] = fmt.Sprintf("%d", id)
		}
		out[i] = strings.Join(parts, "-")
	}
	sort.Strings(out)
	return out
}

func TestFindFeedbackLoops(t *testing.T) {
	g := buildLoop(t)
	p := pdg.Build(g, testLogger())
	dg := pdg.NewDependenceGraph(p)

	t1 := dg.TerminatorID(1)
	got := cycleStrings(pdg.FindFeedbackLoops(dg))
	// i := i carries itself around the loop; the header branch controls its
	// own re-run; the condition is control-dependent on itself; and the long
	// chain condition -> increment -> branch -> condition.
	want := cycleStrings([][]int64{
		{3, 3},
		{t1, t1},
		{2, t1, 2},
		{2, 3, t1, 2},
	})
	if !slices.Equal(got, want) {
		t.Errorf("feedback loops: got %v, want %v", got, want)
	}
}

func TestFindFeedbackLoopsAcyclic(t *testing.T) {
	g := buildDiamond(t)
	dg := pdg.NewDependenceGraph(pdg.Build(g, testLogger()))
	if cycles := pdg.FindFeedbackLoops(dg); len(cycles) != 0 {
		t.Errorf("acyclic model: got cycles %v", cycles)
	}
}

func TestComputeStats(t *testing.T) {
	g := buildLoop(t)
	dg := pdg.NewDependenceGraph(pdg.Build(g, testLogger()))
	st := pdg.ComputeStats(dg, testLogger())

	if st.Statements != 4 || st.Terminators != 1 {
		t.Errorf("nodes: got %d statements, %d terminators, want 4, 1", st.Statements, st.Terminators)
	}
	if st.DataEdges != 6 || st.ControlEdges != 3 {
		t.Errorf("edges: got %d data, %d control, want 6, 3", st.DataEdges, st.ControlEdges)
	}
	if st.SelfLoops != 2 {
		t.Errorf("self loops: got %d, want 2", st.SelfLoops)
	}
	t1 := dg.TerminatorID(1)
	if len(st.FeedbackGroups) != 1 || !slices.Equal(st.FeedbackGroups[0], []int64{2, 3, t1}) {
		t.Errorf("feedback groups: got %v, want [[2 3 %d]]", st.FeedbackGroups, t1)
	}
	if len(st.FeedbackLoops) != 4 {
		t.Errorf("feedback loops: got %d, want 4", len(st.FeedbackLoops))
	}
}

func TestSubgraphDropsCutEdges(t *testing.T) {
	g := buildLoop(t)
	dg := pdg.NewDependenceGraph(pdg.Build(g, testLogger()))

	// Cut the terminator node: only the data skeleton remains.
	var keep []int64
	for _, id := range dg.Keys {
		if id != dg.TerminatorID(1) {
			keep = append(keep, id)
		}
	}
	sub := pdg.Subgraph(dg, keep)
	if sub.Order() != dg.Order() {
		t.Errorf("subgraph order changed: got %d, want %d", sub.Order(), dg.Order())
	}
	count := 0
	sub.Visit(2, func(w int, _ int64) bool {
		count++
		return false
	})
	if count != 3 {
		t.Errorf("edges of s2 in subgraph: got %d, want 3", count)
	}
	got := cycleStrings(pdg.FindFeedbackLoops(sub))
	want := []string{"3-3"}
	if !slices.Equal(got, want) {
		t.Errorf("subgraph loops: got %v, want %v", got, want)
	}
}

func TestWriteDOT(t *testing.T) {
	g := buildLoop(t)
	dg := pdg.NewDependenceGraph(pdg.Build(g, testLogger()))
	var sb strings.Builder
	if err := pdg.WriteDOT(&sb, dg, "loop"); err != nil {
		t.Fatalf("WriteDOT: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"digraph", "s3", "t1", "->", "dashed", "diamond", "header: split on t"} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}
