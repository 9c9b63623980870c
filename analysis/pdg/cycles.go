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
	"sort"
	"strings"

	"github.com/yourbasic/graph"
)

// FindFeedbackLoops finds all elementary cycles in the dependence graph.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975.
//
// A cycle in the PDG is a feedback chain of the model: a set of quantities
// that sustain each other around a loop or through a controlling branch.
// Every cycle is returned as a node id path with the starting node repeated
// at the end; a statement depending on itself yields the length-one path
// [s, s], listed before the longer chains.
func FindFeedbackLoops(dg DependenceGraph) [][]int64 {
	s := &loopSearch{
		blocked: map[int64]bool{},
		blist:   map[int64]map[int64]bool{},
		stack:   []int64{},
		cycles:  [][]int64{},
	}
	// Self-dependence is reported directly; circuit then skips self edges so
	// no cycle appears twice.
	for _, v := range dg.Keys {
		if dg.Edges[v][v] {
			s.cycles = append(s.cycles, []int64{v, v})
		}
	}

	start := 0
	for start < len(dg.Keys) {
		fg := Subgraph(dg, dg.Keys[start:])
		least := int64(-1)
		for _, component := range graph.StrongComponents(fg) {
			if len(component) < 2 {
				continue
			}
			sort.Ints(component)
			if least == -1 || int64(component[0]) < least {
				least = int64(component[0])
			}
		}
		if least == -1 {
			return s.cycles
		}
		s.stack = s.stack[:0]
		s.blocked = map[int64]bool{}
		s.blist = map[int64]map[int64]bool{}
		s.circuit(least, least, fg)
		for start < len(dg.Keys) && dg.Keys[start] <= least {
			start++
		}
	}
	return s.cycles
}

// DescribeLoop renders a cycle as the chain of node labels, for reports.
func DescribeLoop(dg DependenceGraph, cycle []int64) string {
	parts := make([]string, len(cycle))
	for i, id := range cycle {
		parts[i] = dg.IDMap[id].label
	}
	return strings.Join(parts, " -> ")
}

type loopSearch struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *loopSearch) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		if s.blocked[w] {
			s.unblock(w)
		}
	}
	delete(s.blist, u)
}

func (s *loopSearch) circuit(v int64, i int64, g DependenceGraph) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for w := range g.Edges[v] {
		switch {
		case w == v:
			// self edges are reported up front
		case w == i:
			stackCopy := make([]int64, len(s.stack), len(s.stack)+1)
			copy(stackCopy, s.stack)
			stackCopy = append(stackCopy, w)
			s.cycles = append(s.cycles, stackCopy)
			f = true
		case !s.blocked[w]:
			if s.circuit(w, i, g) {
				f = true
			}
		}
	}

	if f {
		s.unblock(v)
	} else {
		for w := range g.Edges[v] {
			if w == v {
				continue
			}
			if m := s.blist[w]; m != nil {
				m[v] = true
			} else {
				s.blist[w] = map[int64]bool{v: true}
			}
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}
