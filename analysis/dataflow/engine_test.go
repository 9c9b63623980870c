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

package dataflow_test

import (
	"math/rand"
	"testing"

	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/awslabs/ar-va-tools/analysis/config"
	"github.com/awslabs/ar-va-tools/analysis/dataflow"
)

func testLogger() *config.LogGroup {
	return config.NewLogGroup(config.NewDefault())
}

// assignedVars is the forward may-analysis collecting the variables assigned
// on some path to a position.
type assignedVars struct{}

func (assignedVars) DomainSize(g *cfg.ControlFlowGraph) int { return g.NumVariables() }
func (assignedVars) Direction() dataflow.Direction          { return dataflow.Forward }
func (assignedVars) InitBlock(*cfg.ControlFlowGraph, *dataflow.BitDomain, cfg.BlockID) {
}

func (assignedVars) StatementEffect(g *cfg.ControlFlowGraph, trans dataflow.GenKill, s cfg.StmtID, _ cfg.Location) {
	trans.Gen(int(g.Statement(s).Dest))
}

func (assignedVars) TerminatorEffect(*cfg.ControlFlowGraph, dataflow.GenKill, cfg.BlockID) {}

// liveVars is the classic backward liveness analysis over variables.
type liveVars struct{}

func (liveVars) DomainSize(g *cfg.ControlFlowGraph) int { return g.NumVariables() }
func (liveVars) Direction() dataflow.Direction          { return dataflow.Backward }
func (liveVars) InitBlock(*cfg.ControlFlowGraph, *dataflow.BitDomain, cfg.BlockID) {
}

func (liveVars) StatementEffect(g *cfg.ControlFlowGraph, trans dataflow.GenKill, s cfg.StmtID, _ cfg.Location) {
	st := g.Statement(s)
	if st.Kind == cfg.Assign {
		trans.Kill(int(st.Dest))
	}
	st.ForEachRead(func(v cfg.VarID) { trans.Gen(int(v)) })
}

func (liveVars) TerminatorEffect(g *cfg.ControlFlowGraph, trans dataflow.GenKill, b cfg.BlockID) {
	term := &g.Block(b).Terminator
	if term.Kind == cfg.Split {
		trans.Gen(int(term.Condition))
	}
}

// buildDiamond returns
//
//	entry: s0: c := ...; s1: x := c; split c -> then, else
//	then:  s2: x := c;   goto exit
//	else:  s3: y := x;   goto exit
//	exit:  s4: out := x, y; end
//
// with variables c=0, x=1, y=2, out=3.
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

// randomGraph builds an arbitrary valid graph: every block is terminated and
// jump targets are in range, but the shape is otherwise unconstrained, so
// unreachable blocks and tangled loops all occur.
func randomGraph(t *testing.T, rng *rand.Rand) *cfg.ControlFlowGraph {
	t.Helper()
	b := cfg.NewBuilder()
	numVars := 1 + rng.Intn(5)
	vars := make([]cfg.VarID, numVars)
	for i := range vars {
		vars[i] = b.Variable("v" + string(rune('a'+i)))
	}
	numBlocks := 2 + rng.Intn(8)
	blocks := make([]cfg.BlockID, numBlocks)
	for i := range blocks {
		blocks[i] = b.Block("")
	}
	randVar := func() cfg.VarID { return vars[rng.Intn(numVars)] }
	randBlock := func() cfg.BlockID { return blocks[rng.Intn(numBlocks)] }
	for i, blk := range blocks {
		for n := rng.Intn(4); n > 0; n-- {
			operands := make([]cfg.VarID, rng.Intn(3))
			for j := range operands {
				operands[j] = randVar()
			}
			if rng.Intn(4) == 0 {
				b.Contribute(blk, randVar(), operands...)
			} else {
				b.Assign(blk, randVar(), operands...)
			}
		}
		switch {
		case i == numBlocks-1:
			b.End(blk)
		case rng.Intn(2) == 0:
			b.Goto(blk, randBlock())
		default:
			b.Split(blk, randVar(), randBlock(), randBlock())
		}
	}
	g, err := b.Finish()
	if err != nil {
		t.Fatalf("building random graph: %v", err)
	}
	return g
}

func TestForwardFixpointDiamond(t *testing.T) {
	g := buildDiamond(t)
	results := dataflow.NewGenKillEngine(g, assignedVars{}).IterateToFixpoint(testLogger())

	wantEntrySets := map[string][]int{
		"entry": {},
		"then":  {0, 1},
		"else":  {0, 1},
		"exit":  {0, 1, 2},
	}
	for b := 0; b < g.NumBlocks(); b++ {
		name := g.BlockName(cfg.BlockID(b))
		want := dataflow.NewBitDomain(g.NumVariables())
		for _, v := range wantEntrySets[name] {
			want.Insert(v)
		}
		if got := results.EntrySet(cfg.BlockID(b)); !got.Equal(want) {
			t.Errorf("entry set of %s: got %v, want %v", name, got, want)
		}
	}
}

func TestBackwardLivenessDiamond(t *testing.T) {
	g := buildDiamond(t)
	results := dataflow.NewGenKillEngine(g, liveVars{}).IterateToFixpoint(testLogger())

	// For a backward analysis the entry set of a block is the fact at its
	// exit in program order.
	wantExitSets := map[string][]int{
		"entry": {0, 1, 2}, // c read by both arms, x by else, y live across then
		"then":  {1, 2},
		"else":  {1, 2},
		"exit":  {},
	}
	for b := 0; b < g.NumBlocks(); b++ {
		name := g.BlockName(cfg.BlockID(b))
		want := dataflow.NewBitDomain(g.NumVariables())
		for _, v := range wantExitSets[name] {
			want.Insert(v)
		}
		if got := results.EntrySet(cfg.BlockID(b)); !got.Equal(want) {
			t.Errorf("exit liveness of %s: got %v, want %v", name, got, want)
		}
	}
}

func TestUnreachableBlockKeepsBottom(t *testing.T) {
	b := cfg.NewBuilder()
	x := b.Variable("x")
	entry := b.Block("entry")
	island := b.Block("island")
	exit := b.Block("exit")
	b.Assign(entry, x)
	b.Goto(entry, exit)
	b.Assign(island, x)
	b.Goto(island, exit)
	b.End(exit)
	g, err := b.Finish()
	if err != nil {
		t.Fatalf("building graph: %v", err)
	}
	// Nothing jumps to island, so it keeps bottom even though exit does not.
	results := dataflow.NewGenKillEngine(g, assignedVars{}).IterateToFixpoint(testLogger())
	if got := results.EntrySet(island); got.Count() != 0 {
		t.Errorf("unreachable block entry set: got %v, want empty", got)
	}
	if got := results.EntrySet(exit); !got.Contains(int(x)) {
		t.Errorf("exit entry set: got %v, want {%d}", got, x)
	}
}

// checkIsFixedPoint verifies the defining property of the result: pushing any
// processed block's computed state across any join edge changes nothing. Only
// blocks reachable from the entry are processed, so only they are sources.
func checkIsFixedPoint(t *testing.T, g *cfg.ControlFlowGraph, results *dataflow.Results[*dataflow.BitDomain]) {
	t.Helper()
	dir := results.Analysis().Direction()
	cursor := dataflow.NewCursor(g, results)
	for _, blk := range g.Postorder() {
		if dir.IsForward() {
			cursor.SeekToBlockEnd(blk)
		} else {
			cursor.SeekToBlockStart(blk)
		}
		state := cursor.Get()
		var targets []cfg.BlockID
		if dir.IsForward() {
			targets = g.Block(blk).Terminator.Successors(nil)
		} else {
			targets = g.Predecessors(blk)
		}
		for _, target := range targets {
			entry := dataflow.NewBitDomain(0)
			entry.CopyFrom(results.EntrySet(target))
			if entry.Join(state) {
				t.Errorf("state of %s grows the entry set of %s: not a fixed point",
					g.BlockName(blk), g.BlockName(target))
			}
		}
	}
}

func TestFixpointOnRandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 60; trial++ {
		g := randomGraph(t, rng)
		for _, a := range []dataflow.GenKillAnalysis{assignedVars{}, liveVars{}} {
			results := dataflow.NewGenKillEngine(g, a).IterateToFixpoint(testLogger())
			checkIsFixedPoint(t, g, results)

			// The least fixed point is unique, so a rerun reproduces it.
			again := dataflow.NewGenKillEngine(g, a).IterateToFixpoint(testLogger())
			for b := 0; b < g.NumBlocks(); b++ {
				if !results.EntrySet(cfg.BlockID(b)).Equal(again.EntrySet(cfg.BlockID(b))) {
					t.Fatalf("trial %d: rerun disagrees on block %d", trial, b)
				}
			}
		}
	}
}

// counterDomain has infinite height: joins take the maximum, so an analysis
// that keeps incrementing never stabilizes around a loop.
type counterDomain struct{ n int }

func (c *counterDomain) Join(other *counterDomain) bool {
	if other.n > c.n {
		c.n = other.n
		return true
	}
	return false
}

func (c *counterDomain) CopyFrom(other *counterDomain) { c.n = other.n }

type divergingAnalysis struct{}

func (divergingAnalysis) BottomValue(*cfg.ControlFlowGraph) *counterDomain { return &counterDomain{} }
func (divergingAnalysis) InitBlock(*cfg.ControlFlowGraph, *counterDomain, cfg.BlockID) {
}

func (divergingAnalysis) ApplyStatementEffect(_ *cfg.ControlFlowGraph, state *counterDomain, _ cfg.StmtID, _ cfg.Location) {
	state.n++
}

func (divergingAnalysis) ApplyTerminatorEffect(_ *cfg.ControlFlowGraph, state *counterDomain, _ *cfg.Terminator, _ cfg.BlockID) {
	state.n++
}

func (divergingAnalysis) Direction() dataflow.Direction { return dataflow.Forward }

func TestMaxSweepsPanicsOnDivergence(t *testing.T) {
	b := cfg.NewBuilder()
	v := b.Variable("v")
	entry := b.Block("entry")
	header := b.Block("header")
	body := b.Block("body")
	exit := b.Block("exit")
	b.Goto(entry, header)
	b.Split(header, v, body, exit)
	b.Goto(body, header)
	b.End(exit)
	g, err := b.Finish()
	if err != nil {
		t.Fatalf("building loop: %v", err)
	}

	engine := dataflow.NewEngine[*counterDomain](g, divergingAnalysis{})
	engine.MaxSweeps = 8
	defer func() {
		if recover() == nil {
			t.Fatal("diverging analysis did not panic")
		}
	}()
	engine.IterateToFixpoint(testLogger())
}

// branchTaken records which arm of a split was taken; only edge effects
// matter, so it isolates the split-edge plumbing.
type branchTaken struct{}

func (branchTaken) BottomValue(*cfg.ControlFlowGraph) *dataflow.BitDomain {
	return dataflow.NewBitDomain(2)
}
func (branchTaken) InitBlock(*cfg.ControlFlowGraph, *dataflow.BitDomain, cfg.BlockID) {}
func (branchTaken) ApplyStatementEffect(*cfg.ControlFlowGraph, *dataflow.BitDomain, cfg.StmtID, cfg.Location) {
}
func (branchTaken) ApplyTerminatorEffect(*cfg.ControlFlowGraph, *dataflow.BitDomain, *cfg.Terminator, cfg.BlockID) {
}
func (branchTaken) Direction() dataflow.Direction { return dataflow.Forward }

func (branchTaken) ApplySplitEdgeEffect(_ *cfg.ControlFlowGraph, state *dataflow.BitDomain, _ cfg.BlockID, _ *cfg.Terminator, outcome bool, _ cfg.BlockID) {
	if outcome {
		state.Insert(0)
	} else {
		state.Insert(1)
	}
}

func TestSplitEdgeEffects(t *testing.T) {
	g := buildDiamond(t)
	results := dataflow.NewEngine[*dataflow.BitDomain](g, branchTaken{}).IterateToFixpoint(testLogger())

	then, els, exit := cfg.BlockID(1), cfg.BlockID(2), cfg.BlockID(3)
	if got := results.EntrySet(then); !(got.Contains(0) && !got.Contains(1)) {
		t.Errorf("then entry: got %v, want {0}", got)
	}
	if got := results.EntrySet(els); !(got.Contains(1) && !got.Contains(0)) {
		t.Errorf("else entry: got %v, want {1}", got)
	}
	if got := results.EntrySet(exit); !(got.Contains(0) && got.Contains(1)) {
		t.Errorf("exit entry: got %v, want {0, 1}", got)
	}
}
