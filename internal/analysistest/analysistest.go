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

// Package analysistest provides the helpers shared by tests that load models
// and configurations from testdata directories.
package analysistest

import (
	"path/filepath"
	"testing"

	"github.com/awslabs/ar-va-tools/analysis/cfg"
	"github.com/awslabs/ar-va-tools/analysis/config"
)

// LoadTest loads the model in the directory dir, looking for a graph.yaml and
// a config.yaml. The config is registered as the global config, mirroring
// what the command-line tools do with their -config flag.
func LoadTest(t *testing.T, dir string) (*cfg.ControlFlowGraph, *config.Config) {
	t.Helper()
	config.SetGlobalConfig(filepath.Join(dir, "config.yaml"))
	c, err := config.LoadGlobal()
	if err != nil {
		t.Fatalf("error loading config in %s: %v", dir, err)
	}
	g, err := cfg.LoadGraph(filepath.Join(dir, "graph.yaml"))
	if err != nil {
		t.Fatalf("error loading graph in %s: %v", dir, err)
	}
	return g, c
}

// StatementsOf resolves the statements of g assigning or contributing to the
// named variable, in arena order. Tests use it to name expectations after
// variables instead of raw statement ids.
func StatementsOf(t *testing.T, g *cfg.ControlFlowGraph, variable string) []cfg.StmtID {
	t.Helper()
	v, ok := g.VariableByName(variable)
	if !ok {
		t.Fatalf("variable %q not declared in test model", variable)
	}
	var out []cfg.StmtID
	for s := 0; s < g.NumStatements(); s++ {
		if g.Statement(cfg.StmtID(s)).Dest == v {
			out = append(out, cfg.StmtID(s))
		}
	}
	return out
}
