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

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GraphDesc is the YAML-serializable description of a control-flow graph.
// Blocks reference each other and variables by name; the block order in the
// description fixes the block ids, so the first block is the entry and the
// last one the exit.
type GraphDesc struct {
	Name      string      `yaml:"name,omitempty"`
	Variables []string    `yaml:"variables"`
	Blocks    []BlockDesc `yaml:"blocks"`
}

// BlockDesc describes one basic block. Exactly one of Goto, Split and End
// must be set.
type BlockDesc struct {
	Name       string          `yaml:"name,omitempty"`
	Statements []StatementDesc `yaml:"statements,omitempty"`
	Goto       string          `yaml:"goto,omitempty"`
	Split      *SplitDesc      `yaml:"split,omitempty"`
	End        bool            `yaml:"end,omitempty"`
}

// StatementDesc describes one statement. Exactly one of Assign and
// Contribute names the destination; From lists the operand variables.
type StatementDesc struct {
	Assign     string   `yaml:"assign,omitempty"`
	Contribute string   `yaml:"contribute,omitempty"`
	From       []string `yaml:"from,omitempty"`
}

// SplitDesc describes a two-way branch terminator.
type SplitDesc struct {
	If   string `yaml:"if"`
	Then string `yaml:"then"`
	Else string `yaml:"else"`
}

// LoadGraphDesc reads a YAML graph description file without building it.
func LoadGraphDesc(path string) (*GraphDesc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read graph description: %w", err)
	}
	var desc GraphDesc
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("could not parse graph description: %w", err)
	}
	return &desc, nil
}

// LoadGraph reads, decodes and builds a YAML graph description file.
func LoadGraph(path string) (*ControlFlowGraph, error) {
	desc, err := LoadGraphDesc(path)
	if err != nil {
		return nil, err
	}
	return desc.Build()
}

// ParseGraph decodes a YAML graph description.
func ParseGraph(data []byte) (*ControlFlowGraph, error) {
	var desc GraphDesc
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("could not parse graph description: %w", err)
	}
	return desc.Build()
}

// Build constructs the graph the description denotes.
func (d *GraphDesc) Build() (*ControlFlowGraph, error) {
	b := NewBuilder()
	vars := make(map[string]VarID, len(d.Variables))
	for _, name := range d.Variables {
		if _, dup := vars[name]; dup {
			return nil, fmt.Errorf("variable %q declared twice", name)
		}
		vars[name] = b.Variable(name)
	}
	blocks := make(map[string]BlockID, len(d.Blocks))
	for i, bd := range d.Blocks {
		name := bd.Name
		if name == "" {
			name = fmt.Sprintf("bb%d", i)
		}
		if _, dup := blocks[name]; dup {
			return nil, fmt.Errorf("block %q declared twice", name)
		}
		blocks[name] = b.Block(bd.Name)
	}
	lookupVar := func(name string) (VarID, error) {
		v, ok := vars[name]
		if !ok {
			return 0, fmt.Errorf("variable %q not declared", name)
		}
		return v, nil
	}
	lookupBlock := func(name string) (BlockID, error) {
		blk, ok := blocks[name]
		if !ok {
			return 0, fmt.Errorf("block %q not declared", name)
		}
		return blk, nil
	}
	for i, bd := range d.Blocks {
		blk := BlockID(i)
		for j, sd := range bd.Statements {
			destName := sd.Assign
			kind := Assign
			if sd.Contribute != "" {
				if destName != "" {
					return nil, fmt.Errorf("block %q statement %d is both assign and contribute", bd.Name, j)
				}
				destName = sd.Contribute
				kind = Contribute
			}
			if destName == "" {
				return nil, fmt.Errorf("block %q statement %d has no destination", bd.Name, j)
			}
			dest, err := lookupVar(destName)
			if err != nil {
				return nil, err
			}
			operands := make([]VarID, 0, len(sd.From))
			for _, name := range sd.From {
				v, err := lookupVar(name)
				if err != nil {
					return nil, err
				}
				operands = append(operands, v)
			}
			if kind == Assign {
				b.Assign(blk, dest, operands...)
			} else {
				b.Contribute(blk, dest, operands...)
			}
		}
		switch {
		case bd.End:
			if bd.Goto != "" || bd.Split != nil {
				return nil, fmt.Errorf("block %q has more than one terminator", bd.Name)
			}
			b.End(blk)
		case bd.Goto != "":
			if bd.Split != nil {
				return nil, fmt.Errorf("block %q has more than one terminator", bd.Name)
			}
			target, err := lookupBlock(bd.Goto)
			if err != nil {
				return nil, err
			}
			b.Goto(blk, target)
		case bd.Split != nil:
			cond, err := lookupVar(bd.Split.If)
			if err != nil {
				return nil, err
			}
			ifTrue, err := lookupBlock(bd.Split.Then)
			if err != nil {
				return nil, err
			}
			ifFalse, err := lookupBlock(bd.Split.Else)
			if err != nil {
				return nil, err
			}
			b.Split(blk, cond, ifTrue, ifFalse)
		default:
			return nil, fmt.Errorf("block %q has no terminator", bd.Name)
		}
	}
	g, err := b.Finish()
	if err != nil {
		return nil, fmt.Errorf("invalid graph %q: %w", d.Name, err)
	}
	return g, nil
}

// DescOf renders g back into a description, preserving declared names. Used
// to write sliced graphs out.
func DescOf(g *ControlFlowGraph, name string) *GraphDesc {
	d := &GraphDesc{Name: name, Variables: append([]string(nil), g.varNames...)}
	for b := range g.blocks {
		blk := &g.blocks[b]
		bd := BlockDesc{Name: g.BlockName(BlockID(b))}
		for _, s := range blk.Statements {
			st := &g.statements[s]
			sd := StatementDesc{}
			if st.Kind == Contribute {
				sd.Contribute = g.varNames[st.Dest]
			} else {
				sd.Assign = g.varNames[st.Dest]
			}
			for _, v := range st.Operands {
				sd.From = append(sd.From, g.varNames[v])
			}
			bd.Statements = append(bd.Statements, sd)
		}
		switch blk.Terminator.Kind {
		case End:
			bd.End = true
		case Goto:
			bd.Goto = g.BlockName(blk.Terminator.Target)
		case Split:
			bd.Split = &SplitDesc{
				If:   g.varNames[blk.Terminator.Condition],
				Then: g.BlockName(blk.Terminator.True),
				Else: g.BlockName(blk.Terminator.False),
			}
		}
		d.Blocks = append(d.Blocks, bd)
	}
	return d
}
