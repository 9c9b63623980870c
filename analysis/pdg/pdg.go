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

// Package pdg builds the program dependence graph of a control-flow graph:
// the use-def chains from reaching definitions joined with the control
// dependencies derived from immediate post-dominators. The PDG is the input
// of backward slicing and of the model statistics reports.
package pdg

import (
	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/awslabs/ar-va-tools/analysis/config"
	"github.com/awslabs/ar-va-tools/analysis/postdom"
	"github.com/awslabs/ar-va-tools/analysis/reachdefs"
)

// ProgramDependenceGraph bundles the two dependence relations of one graph.
// It indexes by the statement and block handles of the graph it was built
// from; slicing that graph afterwards does not invalidate the handles, so a
// PDG built once serves several slicing problems on clones.
type ProgramDependenceGraph struct {
	Data    *reachdefs.UseDefGraph
	Control ControlDependencies

	g     *cfg.ControlFlowGraph
	ipdom postdom.IPDom
}

// Build computes the full dependence structure of g.
func Build(g *cfg.ControlFlowGraph, log *config.LogGroup) *ProgramDependenceGraph {
	ipdom := postdom.Compute(g)
	p := &ProgramDependenceGraph{
		Data:    reachdefs.BuildUseDef(g, log),
		Control: ComputeControlDependence(g, ipdom),
		g:       g,
		ipdom:   ipdom,
	}
	log.Debugf("pdg: built dependence graph over %d statements, %d blocks",
		g.NumStatements(), g.NumBlocks())
	return p
}

// Graph returns the control-flow graph the PDG was built from.
func (p *ProgramDependenceGraph) Graph() *cfg.ControlFlowGraph {
	return p.g
}

// PostDominators returns the immediate post-dominators computed during Build.
func (p *ProgramDependenceGraph) PostDominators() postdom.IPDom {
	return p.ipdom
}
