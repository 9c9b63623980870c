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
	"fmt"
	"sort"
	"strings"

	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"golang.org/x/tools/container/intsets"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/iterator"
)

// DependenceGraph is the PDG flattened into one directed graph to work with
// existing graph libraries. It implements the methods to satisfy
// graph.Iterator of yourbasic/graph and Gonum's graph.Directed.
//
// Every statement present in a block is a node, and so is the terminator of
// every branching or controlling block. Edges point from a dependent node to
// the node it depends on, which is the direction a backward slice walks.
type DependenceGraph struct {
	// The order of the graph: the full id universe, statements first, then
	// one slot per block terminator.
	order int

	// PDG is the dependence structure the graph was flattened from
	PDG *ProgramDependenceGraph

	// IDMap maps from node IDs to DepNodes
	IDMap map[int64]DepNode

	// Keys are all the node IDs, ascending
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means x depends on y
	Edges map[int64]map[int64]bool

	// redges is the reverse adjacency, for the To side of gonum's Directed
	redges map[int64]map[int64]bool
}

// NewDependenceGraph flattens p. Node ids are stable across subgraphs: a
// statement s has id int64(s) and the terminator of block b has id
// NumStatements + int64(b).
func NewDependenceGraph(p *ProgramDependenceGraph) DependenceGraph {
	g := p.g
	numStmts := g.NumStatements()
	dg := DependenceGraph{
		order:  numStmts + g.NumBlocks(),
		PDG:    p,
		IDMap:  make(map[int64]DepNode),
		Edges:  make(map[int64]map[int64]bool),
		redges: make(map[int64]map[int64]bool),
	}

	// Terminator nodes exist for branching blocks and for anything acting as
	// a controller, which in degenerate graphs can include goto blocks.
	needTerm := make([]bool, g.NumBlocks())
	for b := 0; b < g.NumBlocks(); b++ {
		if g.Block(cfg.BlockID(b)).Terminator.Kind == cfg.Split {
			needTerm[b] = true
		}
		if ctrl := p.Control.Controllers(cfg.BlockID(b)); ctrl != nil {
			for _, c := range ctrl.AppendTo(nil) {
				needTerm[c] = true
			}
		}
	}

	for b := 0; b < g.NumBlocks(); b++ {
		blk := cfg.BlockID(b)
		if needTerm[b] {
			dg.addNode(dg.TerminatorID(blk), DepNode{
				id:    dg.TerminatorID(blk),
				dotID: fmt.Sprintf("t%d", b),
				label: renderTerminator(g, blk),
				term:  true,
			})
		}
		for _, s := range g.Block(blk).Statements {
			dg.addNode(int64(s), DepNode{
				id:    int64(s),
				dotID: fmt.Sprintf("s%d", s),
				label: fmt.Sprintf("%s: %s", g.BlockName(blk), renderStatement(g, s)),
			})
		}
	}

	addSparse := func(from int64, deps *intsets.Sparse, toID func(int) int64) {
		if deps == nil {
			return
		}
		for _, d := range deps.AppendTo(nil) {
			dg.addEdge(from, toID(d))
		}
	}
	stmtID := func(d int) int64 { return int64(d) }
	termID := func(c int) int64 { return dg.TerminatorID(cfg.BlockID(c)) }

	for b := 0; b < g.NumBlocks(); b++ {
		blk := cfg.BlockID(b)
		for _, s := range g.Block(blk).Statements {
			addSparse(int64(s), p.Data.StatementDependencies(s), stmtID)
			addSparse(int64(s), p.Control.Controllers(blk), termID)
		}
		if needTerm[b] {
			addSparse(dg.TerminatorID(blk), p.Data.TerminatorDependencies(blk), stmtID)
			addSparse(dg.TerminatorID(blk), p.Control.Controllers(blk), termID)
		}
	}

	for id := range dg.IDMap {
		dg.Keys = append(dg.Keys, id)
	}
	sort.Slice(dg.Keys, func(i, j int) bool { return dg.Keys[i] < dg.Keys[j] })
	return dg
}

// TerminatorID returns the node id of b's terminator.
func (dg DependenceGraph) TerminatorID(b cfg.BlockID) int64 {
	return int64(dg.PDG.g.NumStatements() + int(b))
}

// StatementOf maps a node id back to a statement handle; ok is false for
// terminator nodes.
func (dg DependenceGraph) StatementOf(id int64) (cfg.StmtID, bool) {
	if id < int64(dg.PDG.g.NumStatements()) {
		return cfg.StmtID(id), true
	}
	return 0, false
}

func (dg DependenceGraph) addNode(id int64, n DepNode) {
	dg.IDMap[id] = n
	if dg.Edges[id] == nil {
		dg.Edges[id] = map[int64]bool{}
	}
	if dg.redges[id] == nil {
		dg.redges[id] = map[int64]bool{}
	}
}

func (dg DependenceGraph) addEdge(x, y int64) {
	dg.Edges[x][y] = true
	if dg.redges[y] == nil {
		dg.redges[y] = map[int64]bool{}
	}
	dg.redges[y][x] = true
}

// Subgraph returns a new graph that is the original graph with only the nodes
// in include. Only the edges that have both the origin and destination nodes
// in the include nodes are kept. The subgraph's order, PDG and IDMap are the
// same as in original, so node ids stay consistent across subgraphs.
func Subgraph(original DependenceGraph, include []int64) DependenceGraph {
	idmap := make(map[int64]DepNode, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	redges := make(map[int64]map[int64]bool, len(include))
	keys := make([]int64, len(include))

	for j, i := range include {
		keys[j] = i
		idmap[i] = original.IDMap[i]
	}
	for _, i := range include {
		edges[i] = map[int64]bool{}
		redges[i] = map[int64]bool{}
	}
	for _, i := range include {
		for e := range original.Edges[i] {
			if _, ok := idmap[e]; ok {
				edges[i][e] = true
				redges[e][i] = true
			}
		}
	}

	return DependenceGraph{
		order:  original.Order(),
		PDG:    original.PDG,
		IDMap:  original.IDMap,
		Edges:  edges,
		redges: redges,
		Keys:   keys,
	}
}

// Order implements the order of the graph.Iterator interface for the
// DependenceGraph
func (dg DependenceGraph) Order() int {
	return dg.order
}

// Visit implements the graph.Iterator interface for the DependenceGraph
func (dg DependenceGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := dg.IDMap[int64(v)]; !ok {
		return false
	}
	for w := range dg.Edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Gonum Directed interface implementation ****************

// Node implements the Graph interface
func (dg DependenceGraph) Node(id int64) graph.Node {
	if n, ok := dg.IDMap[id]; ok {
		return n
	}
	return nil
}

// Nodes returns the set of nodes in the graph
func (dg DependenceGraph) Nodes() graph.Nodes {
	return dg.orderedNodes(dg.Keys)
}

// From returns the set of nodes the node id depends on
func (dg DependenceGraph) From(id int64) graph.Nodes {
	return dg.neighborNodes(dg.Edges[id])
}

// To returns the set of nodes depending on the node id
func (dg DependenceGraph) To(id int64) graph.Nodes {
	return dg.neighborNodes(dg.redges[id])
}

func (dg DependenceGraph) neighborNodes(adj map[int64]bool) graph.Nodes {
	keys := make([]int64, 0, len(adj))
	for k := range adj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return dg.orderedNodes(keys)
}

func (dg DependenceGraph) orderedNodes(ids []int64) graph.Nodes {
	nodes := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := dg.IDMap[id]; ok {
			nodes = append(nodes, n)
		}
	}
	return iterator.NewOrderedNodes(nodes)
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between
// the two node identifiers, in either direction
func (dg DependenceGraph) HasEdgeBetween(xid, yid int64) bool {
	return dg.Edges[xid][yid] || dg.Edges[yid][xid]
}

// HasEdgeFromTo reports whether a dependence edge uid -> vid exists
func (dg DependenceGraph) HasEdgeFromTo(uid, vid int64) bool {
	return dg.Edges[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (dg DependenceGraph) Edge(uid, vid int64) graph.Edge {
	if dg.Edges[uid][vid] {
		return DepEdge{from: dg.IDMap[uid], to: dg.IDMap[vid]}
	}
	return nil
}

// *************** Nodes implementation **********************

// DepNode is one node of the flattened PDG: a statement, or the terminator of
// a branching block. It implements graph.Node plus the DOT encoding hooks.
type DepNode struct {
	id    int64
	dotID string
	label string
	term  bool
}

// ID returns the id of the node
func (n DepNode) ID() int64 { return n.id }

// IsTerminator reports whether the node stands for a block terminator.
func (n DepNode) IsTerminator() bool { return n.term }

func (n DepNode) String() string { return n.dotID }

// DOTID names the node in DOT output.
func (n DepNode) DOTID() string { return n.dotID }

// Attributes renders the source form of the node in DOT output.
func (n DepNode) Attributes() []encoding.Attribute {
	attrs := []encoding.Attribute{{Key: "label", Value: n.label}}
	if n.term {
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "diamond"})
	}
	return attrs
}

// *************** Edge implementation **********************

// DepEdge implements the graph.Edge interface. An edge pointing at a
// terminator node is a control dependence, one pointing at a statement a data
// dependence.
type DepEdge struct {
	from DepNode
	to   DepNode
}

// From returns the dependent node
func (e DepEdge) From() graph.Node { return e.from }

// To returns the node depended on
func (e DepEdge) To() graph.Node { return e.to }

// ReversedEdge returns a new value representing the reversed edge
func (e DepEdge) ReversedEdge() graph.Edge { return DepEdge{from: e.to, to: e.from} }

// Attributes marks control dependence edges in DOT output.
func (e DepEdge) Attributes() []encoding.Attribute {
	if e.to.term {
		return []encoding.Attribute{{Key: "style", Value: "dashed"}}
	}
	return nil
}

func renderStatement(g *cfg.ControlFlowGraph, s cfg.StmtID) string {
	st := g.Statement(s)
	op := " := "
	if st.Kind == cfg.Contribute {
		op = " <+ "
	}
	if len(st.Operands) == 0 {
		return g.VariableName(st.Dest) + op + "const"
	}
	names := make([]string, len(st.Operands))
	for i, v := range st.Operands {
		names[i] = g.VariableName(v)
	}
	return g.VariableName(st.Dest) + op + strings.Join(names, ", ")
}

func renderTerminator(g *cfg.ControlFlowGraph, b cfg.BlockID) string {
	term := &g.Block(b).Terminator
	switch term.Kind {
	case cfg.Split:
		return fmt.Sprintf("%s: split on %s", g.BlockName(b), g.VariableName(term.Condition))
	case cfg.Goto:
		return fmt.Sprintf("%s: goto %s", g.BlockName(b), g.BlockName(term.Target))
	default:
		return fmt.Sprintf("%s: end", g.BlockName(b))
	}
}
