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

// Package reachdefs implements the reaching-definitions analysis and the
// use-def graph derived from it, the data-dependency half of the program
// dependence graph.
package reachdefs

import (
	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/awslabs/ar-va-tools/analysis/dataflow"
)

// ReachingDefinitions is the forward gen-kill analysis computing, at every
// position, the set of statements whose write may still be observable. An
// Assign kills every other write to its destination; a Contribute
// accumulates into its destination and therefore kills nothing.
type ReachingDefinitions struct {
	defSites [][]cfg.StmtID
}

// NewReachingDefinitions prepares the analysis for g, indexing the def sites
// of every variable.
func NewReachingDefinitions(g *cfg.ControlFlowGraph) *ReachingDefinitions {
	rd := &ReachingDefinitions{defSites: make([][]cfg.StmtID, g.NumVariables())}
	for b := 0; b < g.NumBlocks(); b++ {
		for _, s := range g.Block(cfg.BlockID(b)).Statements {
			dest := g.Statement(s).Dest
			rd.defSites[dest] = append(rd.defSites[dest], s)
		}
	}
	return rd
}

// DefSites returns the statements writing v, in program order of discovery.
// The slice is shared and must not be mutated.
func (rd *ReachingDefinitions) DefSites(v cfg.VarID) []cfg.StmtID {
	return rd.defSites[v]
}

// DomainSize is the statement arena size: facts are statement handles.
func (rd *ReachingDefinitions) DomainSize(g *cfg.ControlFlowGraph) int {
	return g.NumStatements()
}

// Direction returns Forward: definitions flow towards uses.
func (rd *ReachingDefinitions) Direction() dataflow.Direction {
	return dataflow.Forward
}

// InitBlock is a no-op: no definitions reach a block entry beyond what its
// predecessors provide.
func (rd *ReachingDefinitions) InitBlock(*cfg.ControlFlowGraph, *dataflow.BitDomain, cfg.BlockID) {
}

// StatementEffect gens the statement's own write and, for an Assign, kills
// every other write of the destination.
func (rd *ReachingDefinitions) StatementEffect(g *cfg.ControlFlowGraph, trans dataflow.GenKill, s cfg.StmtID, _ cfg.Location) {
	st := g.Statement(s)
	if st.Kind == cfg.Assign {
		for _, d := range rd.defSites[st.Dest] {
			if d != s {
				trans.Kill(int(d))
			}
		}
	}
	trans.Gen(int(s))
}

// TerminatorEffect is a no-op: terminators write nothing.
func (rd *ReachingDefinitions) TerminatorEffect(*cfg.ControlFlowGraph, dataflow.GenKill, cfg.BlockID) {
}
