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

// Package cfg defines the mid-level control-flow graph the analyses operate
// on. A graph is a dense table of basic blocks over a statement arena:
// every statement is an assignment or branch contribution identified by a
// stable StmtID, and every block ends in exactly one terminator. The first
// block is the entry and the last block is the exit. Statement identities
// survive slicing: removing a statement from a block never renumbers the
// arena.
package cfg

import "fmt"

// BlockID identifies a basic block within one graph.
type BlockID int

// StmtID identifies a statement within one graph's statement arena.
type StmtID int

// VarID identifies a variable of the model the graph was lowered from.
type VarID int

// NoBlock is returned by lookups for statements that belong to no block.
const NoBlock BlockID = -1

// StatementKind distinguishes the two statement forms of the mid-level IR.
type StatementKind uint8

const (
	// Assign overwrites its destination variable.
	Assign StatementKind = iota
	// Contribute accumulates into its destination quantity, so it reads the
	// destination in addition to its operands.
	Contribute
)

// Statement is one operation of the mid-level IR: dest := f(operands) for
// Assign, dest <+ f(operands) for Contribute. Operand expressions themselves
// are irrelevant to the analyses here; only the variables they read matter.
type Statement struct {
	Kind     StatementKind
	Dest     VarID
	Operands []VarID
}

// ForEachRead calls f for every variable the statement reads. Contribute
// statements read their destination as well.
func (s *Statement) ForEachRead(f func(VarID)) {
	for _, v := range s.Operands {
		f(v)
	}
	if s.Kind == Contribute {
		f(s.Dest)
	}
}

// TerminatorKind distinguishes the control transfers a block can end with.
type TerminatorKind uint8

const (
	// End terminates the exit block; it has no successors.
	End TerminatorKind = iota
	// Goto transfers to a single successor.
	Goto
	// Split branches on a condition variable.
	Split
)

// Terminator is the single control transfer at the end of a basic block.
// Target is meaningful for Goto; Condition, True and False for Split.
type Terminator struct {
	Kind      TerminatorKind
	Target    BlockID
	Condition VarID
	True      BlockID
	False     BlockID
}

// Successors appends the terminator's successor blocks to dst and returns it.
func (t *Terminator) Successors(dst []BlockID) []BlockID {
	switch t.Kind {
	case Goto:
		return append(dst, t.Target)
	case Split:
		return append(dst, t.True, t.False)
	default:
		return dst
	}
}

// BasicBlock is an ordered statement list plus one terminator. Statements is
// a view into the graph's arena; slicing shrinks this list without touching
// the arena.
type BasicBlock struct {
	Statements []StmtID
	Terminator Terminator
}

// LocationKind distinguishes statement positions from terminator positions.
type LocationKind uint8

const (
	// StatementLoc addresses the statement at Location.Index.
	StatementLoc LocationKind = iota
	// TerminatorLoc addresses the block's terminator.
	TerminatorLoc
)

// Location is a program point: either the Index-th statement of a block or
// the block's terminator.
type Location struct {
	Block BlockID
	Kind  LocationKind
	Index int
}

// StatementAt returns the location of the idx-th statement of b.
func StatementAt(b BlockID, idx int) Location {
	return Location{Block: b, Kind: StatementLoc, Index: idx}
}

// TerminatorOf returns the location of b's terminator.
func TerminatorOf(b BlockID) Location {
	return Location{Block: b, Kind: TerminatorLoc}
}

func (l Location) String() string {
	if l.Kind == TerminatorLoc {
		return fmt.Sprintf("bb%d[term]", l.Block)
	}
	return fmt.Sprintf("bb%d[%d]", l.Block, l.Index)
}

// ControlFlowGraph is the unit of analysis. Graphs are built through Builder
// or decoded from a GraphDesc and are mutated only through RetainStatements
// and ClearBlocks, which keep the derived caches coherent.
type ControlFlowGraph struct {
	blocks     []BasicBlock
	statements []Statement
	varNames   []string
	blockNames []string

	// lazily built, dropped on mutation
	preds  [][]BlockID
	owners []BlockID
}

// NumBlocks returns the number of basic blocks.
func (g *ControlFlowGraph) NumBlocks() int { return len(g.blocks) }

// NumStatements returns the size of the statement arena, including
// statements that slicing removed from their blocks.
func (g *ControlFlowGraph) NumStatements() int { return len(g.statements) }

// NumVariables returns the number of declared variables.
func (g *ControlFlowGraph) NumVariables() int { return len(g.varNames) }

// Block returns the block b. The handle must be in range.
func (g *ControlFlowGraph) Block(b BlockID) *BasicBlock { return &g.blocks[b] }

// Statement returns the statement s from the arena.
func (g *ControlFlowGraph) Statement(s StmtID) *Statement { return &g.statements[s] }

// Entry returns the entry block. Panics on a graph with no blocks.
func (g *ControlFlowGraph) Entry() BlockID {
	if len(g.blocks) == 0 {
		panic("cfg: entry of empty graph")
	}
	return 0
}

// Exit returns the exit block, the unique block terminated by End. Panics on
// a graph with no blocks.
func (g *ControlFlowGraph) Exit() BlockID {
	if len(g.blocks) == 0 {
		panic("cfg: exit of empty graph")
	}
	return BlockID(len(g.blocks) - 1)
}

// VariableName returns the declared name of v.
func (g *ControlFlowGraph) VariableName(v VarID) string { return g.varNames[v] }

// VariableByName resolves a declared variable name.
func (g *ControlFlowGraph) VariableByName(name string) (VarID, bool) {
	for i, n := range g.varNames {
		if n == name {
			return VarID(i), true
		}
	}
	return 0, false
}

// BlockName returns the declared name of b, or a synthesized bbN name.
func (g *ControlFlowGraph) BlockName(b BlockID) string {
	if int(b) < len(g.blockNames) && g.blockNames[b] != "" {
		return g.blockNames[b]
	}
	return fmt.Sprintf("bb%d", b)
}

// Predecessors returns the blocks with an edge into b. The result is a
// cached slice and must not be mutated.
func (g *ControlFlowGraph) Predecessors(b BlockID) []BlockID {
	if g.preds == nil {
		g.preds = make([][]BlockID, len(g.blocks))
		for from := range g.blocks {
			term := &g.blocks[from].Terminator
			var succs [2]BlockID
			for _, to := range term.Successors(succs[:0]) {
				g.preds[to] = append(g.preds[to], BlockID(from))
			}
		}
	}
	return g.preds[b]
}

// ContainingBlock returns the block whose statement list holds s, or NoBlock
// when s was sliced out of the graph.
func (g *ControlFlowGraph) ContainingBlock(s StmtID) BlockID {
	if g.owners == nil {
		g.owners = make([]BlockID, len(g.statements))
		for i := range g.owners {
			g.owners[i] = NoBlock
		}
		for b := range g.blocks {
			for _, s := range g.blocks[b].Statements {
				g.owners[s] = BlockID(b)
			}
		}
	}
	return g.owners[s]
}

// RetainStatements removes from every block the statements keep rejects.
// The arena is untouched, so statement handles stay valid; the derived
// caches are invalidated.
func (g *ControlFlowGraph) RetainStatements(keep func(StmtID) bool) {
	for b := range g.blocks {
		stmts := g.blocks[b].Statements
		kept := stmts[:0]
		for _, s := range stmts {
			if keep(s) {
				kept = append(kept, s)
			}
		}
		g.blocks[b].Statements = kept
	}
	g.invalidateCaches()
}

// ClearBlocks removes every block from the graph and invalidates the derived
// caches. Used when a slice criterion can be influenced by nothing.
func (g *ControlFlowGraph) ClearBlocks() {
	g.blocks = nil
	g.blockNames = nil
	g.invalidateCaches()
}

func (g *ControlFlowGraph) invalidateCaches() {
	g.preds = nil
	g.owners = nil
}

// Postorder returns the blocks reachable from the entry in depth-first
// postorder.
func (g *ControlFlowGraph) Postorder() []BlockID {
	if len(g.blocks) == 0 {
		return nil
	}
	order := make([]BlockID, 0, len(g.blocks))
	seen := make([]bool, len(g.blocks))
	var visit func(b BlockID)
	visit = func(b BlockID) {
		seen[b] = true
		var succs [2]BlockID
		for _, to := range g.blocks[b].Terminator.Successors(succs[:0]) {
			if !seen[to] {
				visit(to)
			}
		}
		order = append(order, b)
	}
	visit(g.Entry())
	return order
}

// Clone returns a deep copy sharing nothing with g. Slicing mutates graphs
// in place, so callers running several slicing problems clone per problem.
func (g *ControlFlowGraph) Clone() *ControlFlowGraph {
	c := &ControlFlowGraph{
		blocks:     make([]BasicBlock, len(g.blocks)),
		statements: make([]Statement, len(g.statements)),
		varNames:   append([]string(nil), g.varNames...),
		blockNames: append([]string(nil), g.blockNames...),
	}
	for i, blk := range g.blocks {
		c.blocks[i] = BasicBlock{
			Statements: append([]StmtID(nil), blk.Statements...),
			Terminator: blk.Terminator,
		}
	}
	for i, st := range g.statements {
		c.statements[i] = Statement{
			Kind:     st.Kind,
			Dest:     st.Dest,
			Operands: append([]VarID(nil), st.Operands...),
		}
	}
	return c
}
