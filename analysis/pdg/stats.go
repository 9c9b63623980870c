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

	"github.com/awslabs/ar-va-tools/analysis/config"
	"github.com/awslabs/ar-va-tools/internal/funcutil"
	"github.com/yourbasic/graph"
)

// Stats summarizes the dependence structure of one model.
type Stats struct {
	// Statements and Terminators count the nodes of the dependence graph.
	Statements  int
	Terminators int

	// DataEdges point at statements, ControlEdges at terminators.
	DataEdges    int
	ControlEdges int

	// SelfLoops counts statements that depend on their own previous value.
	SelfLoops int

	// FeedbackGroups are the strongly connected components with at least two
	// nodes: the sets of positions that sustain each other. Members ascend
	// within a group and groups are ordered by their least member.
	FeedbackGroups [][]int64

	// FeedbackLoops are the elementary cycles, self-dependences first.
	FeedbackLoops [][]int64
}

// ComputeStats measures dg.
func ComputeStats(dg DependenceGraph, log *config.LogGroup) Stats {
	var st Stats
	for _, n := range dg.IDMap {
		if n.term {
			st.Terminators++
		} else {
			st.Statements++
		}
	}
	for v, out := range dg.Edges {
		for w := range out {
			if dg.IDMap[w].term {
				st.ControlEdges++
			} else {
				st.DataEdges++
			}
			if v == w {
				st.SelfLoops++
			}
		}
	}

	chk := graph.Check(dg)
	log.Debugf("pdg: dependence graph size %d, multi %d, loops %d, isolated %d",
		chk.Size, chk.Multi, chk.Loops, chk.Isolated)

	for _, component := range graph.StrongComponents(dg) {
		if len(component) < 2 {
			continue
		}
		sort.Ints(component)
		st.FeedbackGroups = append(st.FeedbackGroups,
			funcutil.Map(component, func(v int) int64 { return int64(v) }))
	}
	sort.Slice(st.FeedbackGroups, func(i, j int) bool {
		return st.FeedbackGroups[i][0] < st.FeedbackGroups[j][0]
	})

	st.FeedbackLoops = FindFeedbackLoops(dg)
	return st
}
