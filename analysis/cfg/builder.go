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

package cfg

import "fmt"

// Builder constructs a ControlFlowGraph incrementally. Handles returned by
// Variable, Block and the statement methods are valid immediately; Finish
// validates the whole graph and hands it over.
type Builder struct {
	g          ControlFlowGraph
	terminated []bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Variable declares a variable and returns its handle.
func (b *Builder) Variable(name string) VarID {
	b.g.varNames = append(b.g.varNames, name)
	return VarID(len(b.g.varNames) - 1)
}

// Block appends a new, unterminated block. The first declared block is the
// entry; the last one must be the exit.
func (b *Builder) Block(name string) BlockID {
	b.g.blocks = append(b.g.blocks, BasicBlock{})
	b.g.blockNames = append(b.g.blockNames, name)
	b.terminated = append(b.terminated, false)
	return BlockID(len(b.g.blocks) - 1)
}

// Assign appends dest := f(operands) to blk and returns the statement handle.
func (b *Builder) Assign(blk BlockID, dest VarID, operands ...VarID) StmtID {
	return b.statement(blk, Statement{Kind: Assign, Dest: dest, Operands: operands})
}

// Contribute appends dest <+ f(operands) to blk and returns the statement
// handle.
func (b *Builder) Contribute(blk BlockID, dest VarID, operands ...VarID) StmtID {
	return b.statement(blk, Statement{Kind: Contribute, Dest: dest, Operands: operands})
}

func (b *Builder) statement(blk BlockID, s Statement) StmtID {
	id := StmtID(len(b.g.statements))
	b.g.statements = append(b.g.statements, s)
	b.g.blocks[blk].Statements = append(b.g.blocks[blk].Statements, id)
	return id
}

// Goto terminates blk with an unconditional jump to target.
func (b *Builder) Goto(blk, target BlockID) {
	b.terminate(blk, Terminator{Kind: Goto, Target: target})
}

// Split terminates blk with a two-way branch on cond.
func (b *Builder) Split(blk BlockID, cond VarID, ifTrue, ifFalse BlockID) {
	b.terminate(blk, Terminator{Kind: Split, Condition: cond, True: ifTrue, False: ifFalse})
}

// End terminates blk as the exit block.
func (b *Builder) End(blk BlockID) {
	b.terminate(blk, Terminator{Kind: End})
}

func (b *Builder) terminate(blk BlockID, t Terminator) {
	if b.terminated[blk] {
		panic(fmt.Sprintf("cfg: block %d terminated twice", blk))
	}
	b.terminated[blk] = true
	b.g.blocks[blk].Terminator = t
}

// Finish validates the graph and returns it. The builder must not be used
// afterwards. Validation errors are returned rather than panicking because
// builders are driven by decoded graph descriptions.
func (b *Builder) Finish() (*ControlFlowGraph, error) {
	g := &b.g
	if len(g.blocks) == 0 {
		return nil, fmt.Errorf("graph has no blocks")
	}
	for blk := range g.blocks {
		if !b.terminated[blk] {
			return nil, fmt.Errorf("block %s has no terminator", g.BlockName(BlockID(blk)))
		}
		term := &g.blocks[blk].Terminator
		var succs [2]BlockID
		for _, to := range term.Successors(succs[:0]) {
			if int(to) < 0 || int(to) >= len(g.blocks) {
				return nil, fmt.Errorf("block %s jumps to undeclared block %d", g.BlockName(BlockID(blk)), to)
			}
		}
		if term.Kind == Split {
			if err := b.checkVar(term.Condition); err != nil {
				return nil, fmt.Errorf("block %s condition: %w", g.BlockName(BlockID(blk)), err)
			}
		}
		if term.Kind == End && blk != len(g.blocks)-1 {
			return nil, fmt.Errorf("end terminator on block %s, want it only on the last block", g.BlockName(BlockID(blk)))
		}
	}
	if g.blocks[len(g.blocks)-1].Terminator.Kind != End {
		return nil, fmt.Errorf("last block %s does not end the graph", g.BlockName(g.Exit()))
	}
	for i := range g.statements {
		st := &g.statements[i]
		if err := b.checkVar(st.Dest); err != nil {
			return nil, fmt.Errorf("statement %d destination: %w", i, err)
		}
		for _, v := range st.Operands {
			if err := b.checkVar(v); err != nil {
				return nil, fmt.Errorf("statement %d operand: %w", i, err)
			}
		}
	}
	return g, nil
}

func (b *Builder) checkVar(v VarID) error {
	if int(v) < 0 || int(v) >= len(b.g.varNames) {
		return fmt.Errorf("variable %d not declared", v)
	}
	return nil
}
