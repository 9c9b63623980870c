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

package pdg

import (
	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/awslabs/ar-va-tools/analysis/postdom"
	"golang.org/x/tools/container/intsets"
)

// ControlDependencies maps every block to the blocks whose branch decides
// whether it executes. A nil entry means the block executes unconditionally.
// Loop headers can be control-dependent on themselves.
type ControlDependencies []*intsets.Sparse

// Controllers returns the blocks controlling b, or nil. The set is shared and
// must not be mutated.
func (cd ControlDependencies) Controllers(b cfg.BlockID) *intsets.Sparse {
	return cd[b]
}

// ComputeControlDependence derives control dependencies from the immediate
// post-dominators: for an edge U -> V, every block on the post-dominator
// chain from V up to but excluding ipdom(U) executes only because U branched
// towards V.
func ComputeControlDependence(g *cfg.ControlFlowGraph, ipdom postdom.IPDom) ControlDependencies {
	deps := make(ControlDependencies, g.NumBlocks())
	for u := 0; u < g.NumBlocks(); u++ {
		var succs [2]cfg.BlockID
		for _, v := range g.Block(cfg.BlockID(u)).Terminator.Successors(succs[:0]) {
			for runner := v; runner != cfg.NoBlock && runner != ipdom[u]; runner = ipdom[runner] {
				if deps[runner] == nil {
					deps[runner] = new(intsets.Sparse)
				}
				deps[runner].Insert(u)
			}
		}
	}
	return deps
}
