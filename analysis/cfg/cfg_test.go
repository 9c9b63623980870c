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

package cfg_test

import (
	"testing"

	"github.com/awslabs/ar-va-tools/analysis/cfg"
)

// buildDiamond returns the graph
//
//	entry: x := a; split on c -> left | right
//	left:  y := x; goto join
//	right: y := a; goto join
//	join:  z := y; goto exit
//	exit:  end
func buildDiamond(t *testing.T) (*cfg.ControlFlowGraph, map[string]cfg.BlockID) {
	t.Helper()
	b := cfg.NewBuilder()
	a := b.Variable("a")
	c := b.Variable("c")
	x := b.Variable("x")
	y := b.Variable("y")
	z := b.Variable("z")
	entry := b.Block("entry")
	left := b.Block("left")
	right := b.Block("right")
	join := b.Block("join")
	exit := b.Block("exit")
	b.Assign(entry, x, a)
	b.Split(entry, c, left, right)
	b.Assign(left, y, x)
	b.Goto(left, join)
	b.Assign(right, y, a)
	b.Goto(right, join)
	b.Assign(join, z, y)
	b.Goto(join, exit)
	b.End(exit)
	g, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return g, map[string]cfg.BlockID{
		"entry": entry, "left": left, "right": right, "join": join, "exit": exit,
	}
}

func TestBuilderValidation(t *testing.T) {
	t.Run("unterminated block", func(t *testing.T) {
		b := cfg.NewBuilder()
		b.Block("entry")
		if _, err := b.Finish(); err == nil {
			t.Errorf("Finish accepted an unterminated block")
		}
	})
	t.Run("end not last", func(t *testing.T) {
		b := cfg.NewBuilder()
		first := b.Block("first")
		second := b.Block("second")
		b.End(first)
		b.Goto(second, first)
		if _, err := b.Finish(); err == nil {
			t.Errorf("Finish accepted an end terminator before the last block")
		}
	})
	t.Run("no blocks", func(t *testing.T) {
		if _, err := cfg.NewBuilder().Finish(); err == nil {
			t.Errorf("Finish accepted an empty graph")
		}
	})
}

func TestPredecessors(t *testing.T) {
	g, blocks := buildDiamond(t)
	join := blocks["join"]
	preds := g.Predecessors(join)
	if len(preds) != 2 {
		t.Fatalf("join has %d predecessors, want 2", len(preds))
	}
	seen := map[cfg.BlockID]bool{}
	for _, p := range preds {
		seen[p] = true
	}
	if !seen[blocks["left"]] || !seen[blocks["right"]] {
		t.Errorf("join predecessors = %v, want left and right", preds)
	}
	if n := len(g.Predecessors(blocks["entry"])); n != 0 {
		t.Errorf("entry has %d predecessors, want 0", n)
	}
}

func TestContainingBlockTracksRetain(t *testing.T) {
	g, blocks := buildDiamond(t)
	left := blocks["left"]
	s := g.Block(left).Statements[0]
	if got := g.ContainingBlock(s); got != left {
		t.Fatalf("ContainingBlock = %v, want %v", got, left)
	}
	g.RetainStatements(func(id cfg.StmtID) bool { return id != s })
	if got := g.ContainingBlock(s); got != cfg.NoBlock {
		t.Errorf("ContainingBlock after retain = %v, want NoBlock", got)
	}
	if n := len(g.Block(left).Statements); n != 0 {
		t.Errorf("left still has %d statements after retain", n)
	}
	// The arena keeps the statement itself.
	if g.NumStatements() != 4 {
		t.Errorf("arena shrank to %d statements after retain", g.NumStatements())
	}
}

func TestClearBlocks(t *testing.T) {
	g, _ := buildDiamond(t)
	g.ClearBlocks()
	if g.NumBlocks() != 0 {
		t.Errorf("NumBlocks = %d after ClearBlocks, want 0", g.NumBlocks())
	}
	if g.NumStatements() == 0 {
		t.Errorf("ClearBlocks emptied the statement arena")
	}
}

func TestPostorder(t *testing.T) {
	g, _ := buildDiamond(t)
	order := g.Postorder()
	if len(order) != g.NumBlocks() {
		t.Fatalf("postorder visits %d blocks, want %d", len(order), g.NumBlocks())
	}
	// Every block appears after all its successors except on back edges;
	// the diamond is acyclic, so the property must hold everywhere.
	position := make(map[cfg.BlockID]int, len(order))
	for i, b := range order {
		position[b] = i
	}
	for _, b := range order {
		var succs [2]cfg.BlockID
		for _, to := range g.Block(b).Terminator.Successors(succs[:0]) {
			if position[to] >= position[b] {
				t.Errorf("successor %v of %v not before it in postorder", to, b)
			}
		}
	}
}

func TestContributeReadsDestination(t *testing.T) {
	b := cfg.NewBuilder()
	q := b.Variable("q")
	x := b.Variable("x")
	entry := b.Block("entry")
	exit := b.Block("exit")
	b.Contribute(entry, q, x)
	b.Goto(entry, exit)
	b.End(exit)
	g, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	st := g.Statement(g.Block(entry).Statements[0])
	reads := map[cfg.VarID]bool{}
	st.ForEachRead(func(v cfg.VarID) { reads[v] = true })
	if !reads[x] || !reads[q] {
		t.Errorf("contribute reads = %v, want both operand and destination", reads)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g, blocks := buildDiamond(t)
	clone := g.Clone()
	g.RetainStatements(func(cfg.StmtID) bool { return false })
	if n := len(clone.Block(blocks["join"]).Statements); n != 1 {
		t.Errorf("clone lost statements after mutating the original, got %d", n)
	}
}

const diamondYAML = `
name: diamond
variables: [a, c, x, y, z]
blocks:
  - name: entry
    statements:
      - assign: x
        from: [a]
    split: {if: c, then: left, else: right}
  - name: left
    statements:
      - assign: y
        from: [x]
    goto: join
  - name: right
    statements:
      - assign: y
        from: [a]
    goto: join
  - name: join
    statements:
      - assign: z
        from: [y]
    goto: exit
  - name: exit
    end: true
`

func TestParseGraph(t *testing.T) {
	g, err := cfg.ParseGraph([]byte(diamondYAML))
	if err != nil {
		t.Fatalf("ParseGraph: %v", err)
	}
	if g.NumBlocks() != 5 || g.NumStatements() != 4 || g.NumVariables() != 5 {
		t.Errorf("got %d blocks, %d statements, %d variables; want 5, 4, 5",
			g.NumBlocks(), g.NumStatements(), g.NumVariables())
	}
	if _, ok := g.VariableByName("z"); !ok {
		t.Errorf("variable z not resolvable by name")
	}
	if g.Block(g.Entry()).Terminator.Kind != cfg.Split {
		t.Errorf("entry terminator is %v, want Split", g.Block(g.Entry()).Terminator.Kind)
	}
	if g.Block(g.Exit()).Terminator.Kind != cfg.End {
		t.Errorf("exit terminator is %v, want End", g.Block(g.Exit()).Terminator.Kind)
	}
}

func TestParseGraphRejectsUnknownNames(t *testing.T) {
	bad := `
variables: [a]
blocks:
  - name: entry
    goto: nowhere
  - name: exit
    end: true
`
	if _, err := cfg.ParseGraph([]byte(bad)); err == nil {
		t.Errorf("ParseGraph accepted a jump to an undeclared block")
	}
}

func TestDescRoundTrip(t *testing.T) {
	g, _ := buildDiamond(t)
	desc := cfg.DescOf(g, "diamond")
	rebuilt, err := desc.Build()
	if err != nil {
		t.Fatalf("Build of rendered description: %v", err)
	}
	if rebuilt.NumBlocks() != g.NumBlocks() || rebuilt.NumStatements() != g.NumStatements() {
		t.Errorf("round trip changed shape: %d/%d blocks, %d/%d statements",
			rebuilt.NumBlocks(), g.NumBlocks(), rebuilt.NumStatements(), g.NumStatements())
	}
}
