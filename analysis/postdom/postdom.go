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

// Package postdom computes immediate post-dominators of a control-flow
// graph, the ingredient of control-dependence construction. The computation
// is the Cooper-Harvey-Kennedy iterative dominance algorithm run on the
// reversed graph from the exit block.
package postdom

import "github.com/awslabs/ar-va-tools/analysis/cfg"

// IPDom maps every block to its immediate post-dominator. The exit block
// maps to itself; blocks that cannot reach the exit map to cfg.NoBlock.
type IPDom []cfg.BlockID

// Compute returns the immediate post-dominators of g.
func Compute(g *cfg.ControlFlowGraph) IPDom {
	n := g.NumBlocks()
	ipdom := make(IPDom, n)
	for i := range ipdom {
		ipdom[i] = cfg.NoBlock
	}
	if n == 0 {
		return ipdom
	}
	exit := g.Exit()

	// Postorder of the reversed graph: DFS from the exit over predecessors.
	po := make([]cfg.BlockID, 0, n)
	num := make([]int, n)
	for i := range num {
		num[i] = -1
	}
	var visit func(b cfg.BlockID)
	visit = func(b cfg.BlockID) {
		num[b] = 0 // on stack
		for _, p := range g.Predecessors(b) {
			if num[p] == -1 {
				visit(p)
			}
		}
		num[b] = len(po)
		po = append(po, b)
	}
	visit(exit)

	// Walks both chains up to the common post-dominator; lower postorder
	// numbers are farther from the exit.
	intersect := func(a, b cfg.BlockID) cfg.BlockID {
		for a != b {
			for num[a] < num[b] {
				a = ipdom[a]
			}
			for num[b] < num[a] {
				b = ipdom[b]
			}
		}
		return a
	}

	ipdom[exit] = exit
	for changed := true; changed; {
		changed = false
		// Reverse postorder of the reversed graph; po ends with the exit.
		for i := len(po) - 2; i >= 0; i-- {
			b := po[i]
			newIdom := cfg.NoBlock
			var succs [2]cfg.BlockID
			for _, s := range g.Block(b).Terminator.Successors(succs[:0]) {
				if s == b || ipdom[s] == cfg.NoBlock {
					continue
				}
				if newIdom == cfg.NoBlock {
					newIdom = s
				} else {
					newIdom = intersect(newIdom, s)
				}
			}
			if newIdom != cfg.NoBlock && ipdom[b] != newIdom {
				ipdom[b] = newIdom
				changed = true
			}
		}
	}
	return ipdom
}

// PostDominates reports whether a post-dominates b, i.e. every path from b
// to the exit passes through a. Every block post-dominates itself; blocks
// that cannot reach the exit are post-dominated by nothing else.
func (d IPDom) PostDominates(a, b cfg.BlockID) bool {
	for {
		if a == b {
			return true
		}
		next := d[b]
		if next == cfg.NoBlock || next == b {
			return false
		}
		b = next
	}
}
