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

// Package slicing removes from a control-flow graph every statement that
// cannot influence a slicing criterion, walking the program dependence graph
// backwards from the criterion. Slicing deletes statements from their blocks
// and leaves the block and edge structure untouched, so handles into the
// graph stay valid.
package slicing

import (
	"fmt"

	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/awslabs/ar-va-tools/analysis/config"
	"github.com/awslabs/ar-va-tools/analysis/pdg"
	"github.com/awslabs/ar-va-tools/internal/worklist"
	"github.com/bits-and-blooms/bitset"
	"golang.org/x/tools/container/intsets"
)

// BackwardSlice reduces g to the statements that may influence one of the
// relevant statements, directly or transitively, through data or control
// dependence. Statements in assumed are treated as already available inputs:
// they are never kept and the walk does not continue through them, cutting
// the slice there even if they are also relevant.
//
// The PDG must have been built from g, or from a graph g was cloned from,
// before any slicing. The kept-statement set is returned.
func BackwardSlice(g *cfg.ControlFlowGraph, relevant, assumed *bitset.BitSet, p *pdg.ProgramDependenceGraph, log *config.LogGroup) *bitset.BitSet {
	stmtQueue := worklist.NewWorkQueue[cfg.StmtID](g.NumStatements())
	blockQueue := worklist.NewWorkQueue[cfg.BlockID](g.NumBlocks())

	// Cut points are excluded up front so a statement that is both relevant
	// and assumed never enters the queue.
	for i, ok := assumed.NextSet(0); ok; i, ok = assumed.NextSet(i + 1) {
		stmtQueue.MarkVisited(cfg.StmtID(i))
	}
	seeded := 0
	for i, ok := relevant.NextSet(0); ok; i, ok = relevant.NextSet(i + 1) {
		if stmtQueue.Insert(cfg.StmtID(i)) {
			seeded++
		}
	}
	log.Debugf("slicing: %d seed statements, %d assumed inputs", seeded, assumed.Count())

	keep := bitset.New(uint(g.NumStatements()))
	var scratch []int
	enqueueStmts := func(deps *intsets.Sparse) {
		if deps == nil {
			return
		}
		scratch = deps.AppendTo(scratch[:0])
		for _, d := range scratch {
			stmtQueue.Insert(cfg.StmtID(d))
		}
	}
	enqueueControllers := func(b cfg.BlockID) {
		ctrl := p.Control.Controllers(b)
		if ctrl == nil {
			return
		}
		scratch = ctrl.AppendTo(scratch[:0])
		for _, c := range scratch {
			blockQueue.Insert(cfg.BlockID(c))
		}
	}

	for {
		for s, ok := stmtQueue.Take(); ok; s, ok = stmtQueue.Take() {
			log.Tracef("slicing: keeping statement %d", s)
			keep.Set(uint(s))
			enqueueStmts(p.Data.StatementDependencies(s))
			b := g.ContainingBlock(s)
			if b == cfg.NoBlock {
				panic(fmt.Sprintf("slicing: statement %d belongs to no block", s))
			}
			enqueueControllers(b)
		}
		b, ok := blockQueue.Take()
		if !ok {
			break
		}
		log.Tracef("slicing: walking branch of %s", g.BlockName(b))
		enqueueStmts(p.Data.TerminatorDependencies(b))
		enqueueControllers(b)
	}

	g.RetainStatements(func(s cfg.StmtID) bool { return keep.Test(uint(s)) })
	log.Debugf("slicing: kept %d of %d statements", keep.Count(), g.NumStatements())
	return keep
}

// BackwardVariableSlice reduces g to the statements that may influence v.
// A variable that is never assigned has an empty slice: the graph is reduced
// to zero blocks.
func BackwardVariableSlice(g *cfg.ControlFlowGraph, v cfg.VarID, p *pdg.ProgramDependenceGraph, log *config.LogGroup) *bitset.BitSet {
	return BackwardVariableSliceAssumingInput(g, v, bitset.New(uint(g.NumStatements())), p, log)
}

// BackwardVariableSliceAssumingInput slices for v with an explicit set of
// assumed-input statements.
func BackwardVariableSliceAssumingInput(g *cfg.ControlFlowGraph, v cfg.VarID, assumed *bitset.BitSet, p *pdg.ProgramDependenceGraph, log *config.LogGroup) *bitset.BitSet {
	sites := p.Data.Assignments(v)
	if sites == nil {
		log.Infof("slicing: %s is never assigned; slice is empty", g.VariableName(v))
		g.ClearBlocks()
		return bitset.New(uint(g.NumStatements()))
	}
	return BackwardSlice(g, sparseToBits(sites, g.NumStatements()), assumed, p, log)
}

// BackwardVariableSliceWithVariablesAsInput slices for v treating every
// assignment of the input variables as already available.
func BackwardVariableSliceWithVariablesAsInput(g *cfg.ControlFlowGraph, v cfg.VarID, inputs []cfg.VarID, p *pdg.ProgramDependenceGraph, log *config.LogGroup) *bitset.BitSet {
	assumed := bitset.New(uint(g.NumStatements()))
	for _, in := range inputs {
		if sites := p.Data.Assignments(in); sites != nil {
			assumed.InPlaceUnion(sparseToBits(sites, g.NumStatements()))
		}
	}
	return BackwardVariableSliceAssumingInput(g, v, assumed, p, log)
}

func sparseToBits(sp *intsets.Sparse, universe int) *bitset.BitSet {
	bits := bitset.New(uint(universe))
	for _, x := range sp.AppendTo(nil) {
		bits.Set(uint(x))
	}
	return bits
}
