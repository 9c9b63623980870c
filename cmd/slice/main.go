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

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/awslabs/ar-va-tools/analysis"
	"github.com/awslabs/ar-va-tools/analysis/config"
	"github.com/awslabs/ar-va-tools/analysis/pdg"
	"github.com/awslabs/ar-va-tools/internal/formatutil"
	"github.com/awslabs/ar-va-tools/internal/funcutil"
)

var (
	configPath = flag.String("config", "", "Config file listing the slicing problems")
	tag        = flag.String("tag", "", "Run only the slicing problem with this tag")
	dotPath    = flag.String("dot", "", "Write the model's dependence graph in DOT format to this file")
	verbose    = flag.Bool("verbose", false, "Verbose printing on standard output")
)

const usage = `Reduce a model to the statements influencing configured variables.
Usage:
    slice -config config.yaml [options] <model.yaml>
Examples:
% slice -config config.yaml -tag junction-current diode.yaml
`

func main() {
	if err := doMain(); err != nil {
		fmt.Fprintf(os.Stderr, "slice: %s\n", err)
		os.Exit(1)
	}
}

func doMain() error {
	flag.Parse()

	if flag.NArg() != 1 || *configPath == "" {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	config.SetGlobalConfig(*configPath)
	cfg, err := config.LoadGlobal()
	if err != nil {
		return err
	}
	if *verbose {
		cfg.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(cfg)

	logger.Infof(formatutil.Faint("Reading model"))
	model, err := analysis.LoadModel(flag.Arg(0), logger)
	if err != nil {
		return err
	}

	if *dotPath != "" {
		if err := writeDependenceDOT(model, *dotPath); err != nil {
			return err
		}
		logger.Infof("Wrote dependence graph to %s", *dotPath)
	}

	problems := cfg.SlicingProblems
	if *tag != "" {
		found := funcutil.FindMap(problems,
			func(p config.SlicingSpec) config.SlicingSpec { return p },
			func(p config.SlicingSpec) bool { return p.Tag == *tag })
		if found.IsNone() {
			return fmt.Errorf("no slicing problem tagged %q in %s", *tag, *configPath)
		}
		problems = []config.SlicingSpec{found.Value()}
	}
	if len(problems) == 0 {
		return fmt.Errorf("config %s defines no slicing problems", *configPath)
	}

	logger.Infof(formatutil.Faint("Slicing"))
	start := time.Now()
	for _, problem := range problems {
		res, err := analysis.RunSlicingProblem(model, problem, logger)
		if err != nil {
			return err
		}
		path, err := analysis.WriteSliceResult(res, model, cfg)
		if err != nil {
			return err
		}
		logger.Infof("%s %s: kept %d of %d statements, report in %s",
			formatutil.Green("SLICE"), formatutil.Sanitize(problem.Name()),
			res.Kept.Count(), model.Graph.NumStatements(), path)
	}
	logger.Infof("Solved %d problems in %.3f s", len(problems), time.Since(start).Seconds())
	return nil
}

func writeDependenceDOT(model *analysis.Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create DOT file: %w", err)
	}
	defer f.Close()
	return pdg.WriteDOT(f, pdg.NewDependenceGraph(model.PDG), model.Name)
}
