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

package reachdefs

import (
	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/awslabs/ar-va-tools/analysis/config"
	"github.com/awslabs/ar-va-tools/analysis/dataflow"
	"golang.org/x/tools/container/intsets"
)

// UseDefGraph are the def-use chains of one graph, reduced to direct
// statement-to-statement dependencies. Sets are sparse and nil when empty:
// a variable with a nil assignment set is never assigned anywhere, which
// callers treat as a legitimate data outcome, not an error.
type UseDefGraph struct {
	assignments []*intsets.Sparse // by VarID
	stmtUseDef  []*intsets.Sparse // by StmtID
	termUseDef  []*intsets.Sparse // by BlockID
}

// Assignments returns the statements that may write v, or nil when v is
// never assigned. The set is shared and must not be mutated.
func (u *UseDefGraph) Assignments(v cfg.VarID) *intsets.Sparse {
	return u.assignments[v]
}

// StatementDependencies returns the statements whose writes s may read, or
// nil when s reads nothing assigned in the graph.
func (u *UseDefGraph) StatementDependencies(s cfg.StmtID) *intsets.Sparse {
	return u.stmtUseDef[s]
}

// TerminatorDependencies returns the statements whose writes b's terminator
// may read, or nil for non-branching terminators and undefined conditions.
func (u *UseDefGraph) TerminatorDependencies(b cfg.BlockID) *intsets.Sparse {
	return u.termUseDef[b]
}

// BuildUseDef runs reaching definitions on g and reduces the results to
// direct use-def chains. The cursor walks every block in analysis order, so
// the reduction stays linear in the number of effects.
func BuildUseDef(g *cfg.ControlFlowGraph, log *config.LogGroup) *UseDefGraph {
	rd := NewReachingDefinitions(g)
	results := dataflow.NewGenKillEngine(g, rd).IterateToFixpoint(log)
	cursor := dataflow.NewCursor(g, results)

	u := &UseDefGraph{
		assignments: make([]*intsets.Sparse, g.NumVariables()),
		stmtUseDef:  make([]*intsets.Sparse, g.NumStatements()),
		termUseDef:  make([]*intsets.Sparse, g.NumBlocks()),
	}
	for v := 0; v < g.NumVariables(); v++ {
		sites := rd.DefSites(cfg.VarID(v))
		if len(sites) == 0 {
			continue
		}
		set := new(intsets.Sparse)
		for _, s := range sites {
			set.Insert(int(s))
		}
		u.assignments[v] = set
	}

	// reachingDefsOf collects the def sites of v live in the current state.
	reachingDefsOf := func(state *dataflow.BitDomain, v cfg.VarID, into *intsets.Sparse) {
		for _, d := range rd.DefSites(v) {
			if state.Contains(int(d)) {
				into.Insert(int(d))
			}
		}
	}

	for b := 0; b < g.NumBlocks(); b++ {
		blk := g.Block(cfg.BlockID(b))
		for i, s := range blk.Statements {
			cursor.SeekBeforeEffect(cfg.StatementAt(cfg.BlockID(b), i))
			state := cursor.Get()
			deps := new(intsets.Sparse)
			g.Statement(s).ForEachRead(func(v cfg.VarID) {
				reachingDefsOf(state, v, deps)
			})
			if !deps.IsEmpty() {
				u.stmtUseDef[s] = deps
			}
		}
		if blk.Terminator.Kind == cfg.Split {
			cursor.SeekBeforeEffect(cfg.TerminatorOf(cfg.BlockID(b)))
			deps := new(intsets.Sparse)
			reachingDefsOf(cursor.Get(), blk.Terminator.Condition, deps)
			if !deps.IsEmpty() {
				u.termUseDef[b] = deps
			}
		}
	}
	log.Debugf("reachdefs: use-def chains built for %d statements over %d blocks",
		g.NumStatements(), g.NumBlocks())
	return u
}
