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

package dataflow

import (
	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/bits-and-blooms/bitset"
)

// GenKill accumulates the elements an effect adds (gen) and removes (kill).
// BitDomain implements it for direct replay onto a state; genKillSet
// implements it for precomputed transfers.
type GenKill interface {
	Gen(x int)
	Kill(x int)
}

// GenKillAnalysis is the restricted analysis contract for transfer functions
// of the form state := (state ∪ gen) \ kill over a fixed bit universe. The
// engine precomputes one gen/kill pair per location once and replays each
// effect as two bitset operations, instead of re-running the transfer
// closure at every visit.
type GenKillAnalysis interface {
	// DomainSize returns the size of the bit universe.
	DomainSize(g *cfg.ControlFlowGraph) int

	// InitBlock seeds state at the analysis entry of b; see
	// Analysis.InitBlock.
	InitBlock(g *cfg.ControlFlowGraph, state *BitDomain, b cfg.BlockID)

	// StatementEffect records the gen and kill sets of statement s at loc.
	StatementEffect(g *cfg.ControlFlowGraph, trans GenKill, s cfg.StmtID, loc cfg.Location)

	// TerminatorEffect records the gen and kill sets of b's terminator.
	TerminatorEffect(g *cfg.ControlFlowGraph, trans GenKill, b cfg.BlockID)

	// Direction returns Forward or Backward.
	Direction() Direction
}

// genKillSet is one precomputed transfer. Gen and kill stay disjoint: a
// later Gen(x) cancels an earlier Kill(x) and vice versa, preserving the
// order-sensitivity of the underlying effect sequence.
type genKillSet struct {
	gen  *bitset.BitSet
	kill *bitset.BitSet
}

func newGenKillSet(universe int) genKillSet {
	return genKillSet{gen: bitset.New(uint(universe)), kill: bitset.New(uint(universe))}
}

func (t genKillSet) Gen(x int) {
	t.gen.Set(uint(x))
	t.kill.Clear(uint(x))
}

func (t genKillSet) Kill(x int) {
	t.kill.Set(uint(x))
	t.gen.Clear(uint(x))
}

func (t genKillSet) applyTo(d *BitDomain) {
	d.bits.InPlaceUnion(t.gen)
	d.bits.InPlaceDifference(t.kill)
}

// genKillAdapter lifts a GenKillAnalysis into the general Analysis contract.
// trans[b] holds one entry per statement of b plus a final entry for the
// terminator.
type genKillAdapter struct {
	a     GenKillAnalysis
	size  int
	trans [][]genKillSet
}

func newGenKillAdapter(g *cfg.ControlFlowGraph, a GenKillAnalysis) *genKillAdapter {
	ad := &genKillAdapter{a: a, size: a.DomainSize(g), trans: make([][]genKillSet, g.NumBlocks())}
	for b := 0; b < g.NumBlocks(); b++ {
		blk := g.Block(cfg.BlockID(b))
		sets := make([]genKillSet, len(blk.Statements)+1)
		for i, s := range blk.Statements {
			sets[i] = newGenKillSet(ad.size)
			a.StatementEffect(g, sets[i], s, cfg.StatementAt(cfg.BlockID(b), i))
		}
		term := len(blk.Statements)
		sets[term] = newGenKillSet(ad.size)
		a.TerminatorEffect(g, sets[term], cfg.BlockID(b))
		ad.trans[b] = sets
	}
	return ad
}

func (ad *genKillAdapter) BottomValue(*cfg.ControlFlowGraph) *BitDomain {
	return NewBitDomain(ad.size)
}

func (ad *genKillAdapter) InitBlock(g *cfg.ControlFlowGraph, state *BitDomain, b cfg.BlockID) {
	ad.a.InitBlock(g, state, b)
}

func (ad *genKillAdapter) ApplyStatementEffect(_ *cfg.ControlFlowGraph, state *BitDomain, _ cfg.StmtID, loc cfg.Location) {
	ad.trans[loc.Block][loc.Index].applyTo(state)
}

func (ad *genKillAdapter) ApplyTerminatorEffect(_ *cfg.ControlFlowGraph, state *BitDomain, _ *cfg.Terminator, b cfg.BlockID) {
	sets := ad.trans[b]
	sets[len(sets)-1].applyTo(state)
}

func (ad *genKillAdapter) Direction() Direction {
	return ad.a.Direction()
}

// NewGenKillEngine returns an engine running a precomputed gen-kill analysis
// over the BitDomain.
func NewGenKillEngine(g *cfg.ControlFlowGraph, a GenKillAnalysis) *Engine[*BitDomain] {
	return NewEngine[*BitDomain](g, newGenKillAdapter(g, a))
}
