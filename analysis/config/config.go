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

// Package config implements the data structures and parsing for the analysis
// configuration file and provides the leveled loggers the analyses report
// through. A configuration is a YAML file listing global options and the
// slicing problems to solve on a model.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename.
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig.
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config is the top of the configuration file. If some field is not defined
// in the config file, it is empty/zero in the struct.
type Config struct {
	Options

	sourceFile string

	// SlicingProblems lists the backward-slicing problems to solve.
	SlicingProblems []SlicingSpec `yaml:"slicing-problems"`
}

// Options are the global analysis options.
type Options struct {
	// LogLevel sets the verbosity, from ErrLevel (1) to TraceLevel (5).
	LogLevel int `yaml:"log-level"`

	// ReportsDir is the directory result files are written to. When unset,
	// reports land next to the config file.
	ReportsDir string `yaml:"reports-dir"`

	// MaxSweeps bounds the number of fixpoint sweeps per analysis. Zero
	// means no bound. The bound exists to surface non-monotone transfer
	// functions in hand-written analyses.
	MaxSweeps int `yaml:"max-sweeps"`
}

// SlicingSpec is one backward-slicing problem: reduce the model to the
// statements that may influence the named variable.
type SlicingSpec struct {
	// Tag names the problem in logs and report file names.
	Tag string `yaml:"tag"`

	// Variable is the slicing criterion, by declared name.
	Variable string `yaml:"variable"`

	// AssumedVariables lists variables whose assignments are treated as
	// known inputs: the slice keeps statements depending on them but does
	// not walk through them.
	AssumedVariables []string `yaml:"assumed-vars"`
}

// Name returns the tag of the problem, falling back to the criterion
// variable for untagged problems.
func (s SlicingSpec) Name() string {
	if s.Tag != "" {
		return s.Tag
	}
	return s.Variable
}

// NewDefault returns a config with default settings and no problems.
func NewDefault() *Config {
	return &Config{Options: Options{LogLevel: int(InfoLevel)}}
}

// Load reads a config from a YAML file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", filename, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("could not load config %s: %w", filename, err)
	}
	c.sourceFile = filename
	return c, nil
}

// Parse decodes and validates a YAML config.
func Parse(data []byte) (*Config, error) {
	c := NewDefault()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.LogLevel < int(ErrLevel) || c.LogLevel > int(TraceLevel) {
		return fmt.Errorf("log-level %d out of range [%d,%d]", c.LogLevel, ErrLevel, TraceLevel)
	}
	if c.MaxSweeps < 0 {
		return fmt.Errorf("max-sweeps must be non-negative, got %d", c.MaxSweeps)
	}
	for i, p := range c.SlicingProblems {
		if p.Variable == "" {
			return fmt.Errorf("slicing problem %d has no variable", i)
		}
	}
	return nil
}

// SourceFile returns the path the config was loaded from, if any.
func (c *Config) SourceFile() string {
	return c.sourceFile
}

// ReportPath returns the path a report file should be written to, resolving
// against ReportsDir or, when unset, the config file's directory.
func (c *Config) ReportPath(name string) string {
	dir := c.ReportsDir
	if dir == "" && c.sourceFile != "" {
		dir = filepath.Dir(c.sourceFile)
	}
	return filepath.Join(dir, name)
}
