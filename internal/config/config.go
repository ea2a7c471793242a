// Package config handles loading compiler configuration from a project
// file.
//
// Configuration can be specified in a JSON file named vellum.json or
// .vellumrc. The config file is searched for in the current directory and
// parent directories.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/pkg/api"
)

// Config represents the project config file's structure. Every field is
// optional and a pointer so an unset field is distinguishable from one
// explicitly set to false — ToOptions only overrides api.Options' zero
// defaults for fields the file actually set.
type Config struct {
	// SpansEnabled is passed through to api.Options.SpansEnabled, which
	// api.Compile does not read.
	SpansEnabled *bool `json:"spansEnabled,omitempty"`

	// EmitInitialInputAST requests the parsed-but-unchecked tree snapshot.
	EmitInitialInputAST *bool `json:"emitInitialInputAST,omitempty"`

	// EmitInitialAST requests the type-checked tree snapshot.
	EmitInitialAST *bool `json:"emitInitialAST,omitempty"`

	// EmitConstantFoldedAST requests the post-flatten tree snapshot.
	EmitConstantFoldedAST *bool `json:"emitConstantFoldedAST,omitempty"`

	// EmitUnrolledAST requests the post-unroll tree snapshot.
	EmitUnrolledAST *bool `json:"emitUnrolledAST,omitempty"`
}

// ConfigFileNames are the names searched for config files, in order of
// preference.
var ConfigFileNames = []string{
	"vellum.json",
	".vellumrc",
	".vellumrc.json",
}

// Load searches for a config file starting from startDir and walking up to
// parent directories. Returns a nil Config (no error) if none is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ToOptions converts c into api.Options, leaving the zero value (disabled)
// for any field c does not set.
func (c *Config) ToOptions() api.Options {
	var opts api.Options
	if c.SpansEnabled != nil {
		opts.SpansEnabled = *c.SpansEnabled
	}
	if boolValue(c.EmitInitialInputAST) {
		opts.InitialInputAST = &ast.Program{}
	}
	if boolValue(c.EmitInitialAST) {
		opts.InitialAST = &ast.Program{}
	}
	if boolValue(c.EmitConstantFoldedAST) {
		opts.ConstantFoldedAST = &ast.Program{}
	}
	if boolValue(c.EmitUnrolledAST) {
		opts.UnrolledAST = &ast.Program{}
	}
	return opts
}

func boolValue(b *bool) bool { return b != nil && *b }

// MergeOptions carries CLI-supplied overrides; CLI flags win over whatever
// the config file set.
type MergeOptions struct {
	SpansEnabled          *bool
	EmitInitialInputAST   *bool
	EmitInitialAST        *bool
	EmitConstantFoldedAST *bool
	EmitUnrolledAST       *bool
}

// Merge combines config-file options with CLI overrides, CLI winning.
func (c *Config) Merge(cli MergeOptions) api.Options {
	merged := *c
	if cli.SpansEnabled != nil {
		merged.SpansEnabled = cli.SpansEnabled
	}
	if cli.EmitInitialInputAST != nil {
		merged.EmitInitialInputAST = cli.EmitInitialInputAST
	}
	if cli.EmitInitialAST != nil {
		merged.EmitInitialAST = cli.EmitInitialAST
	}
	if cli.EmitConstantFoldedAST != nil {
		merged.EmitConstantFoldedAST = cli.EmitConstantFoldedAST
	}
	if cli.EmitUnrolledAST != nil {
		merged.EmitUnrolledAST = cli.EmitUnrolledAST
	}
	return merged.ToOptions()
}
