// Command vellumc compiles circuit-language source through the front end
// and mid end: parsing, type checking, constant folding, loop unrolling,
// and dead-code elimination.
//
// Usage:
//
//	vellumc compile <input.vlm>
//	vellumc check <input.vlm>
//	cat input.vlm | vellumc compile
//
// vellumc looks for vellum.json or .vellumrc starting in the input file's
// directory (the current directory when reading stdin) and then in its
// parent directories. Config file options are overridden by CLI flags.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/config"
	"github.com/vellum-lang/vellumc/pkg/api"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "vellumc",
		Short:   "Compile circuit-language sources",
		Version: fmt.Sprintf("%s (%s)", version, commit),
	}

	var (
		outputFile string
		configFile string
		noConfig   bool
		spans      bool
		emitInput  bool
		emitTyped  bool
		emitFolded bool
		emitUnroll bool
	)

	addSharedFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the result to file (default: stdout)")
		cmd.Flags().StringVar(&configFile, "config", "", "use a specific config file")
		cmd.Flags().BoolVar(&noConfig, "no-config", false, "ignore config files")
		cmd.Flags().BoolVar(&spans, "spans", false, "set the spans option (accepted; the compiler does not read it)")
		cmd.Flags().BoolVar(&emitInput, "emit-initial-input-ast", false, "dump the tree as parsed, before type checking")
		cmd.Flags().BoolVar(&emitTyped, "emit-initial-ast", false, "dump the tree after type checking")
		cmd.Flags().BoolVar(&emitFolded, "emit-constant-folded-ast", false, "dump the tree after constant folding")
		cmd.Flags().BoolVar(&emitUnroll, "emit-unrolled-ast", false, "dump the tree after loop unrolling")
	}

	run := func(cmd *cobra.Command, args []string, checkOnly bool) error {
		source, sourcePath, err := readSource(args)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configFile, noConfig, sourcePath)
		if err != nil {
			return err
		}

		cli := config.MergeOptions{}
		if cmd.Flags().Changed("spans") {
			cli.SpansEnabled = &spans
		}
		if emitInput {
			cli.EmitInitialInputAST = &emitInput
		}
		if emitTyped {
			cli.EmitInitialAST = &emitTyped
		}
		if emitFolded {
			cli.EmitConstantFoldedAST = &emitFolded
		}
		if emitUnroll {
			cli.EmitUnrolledAST = &emitUnroll
		}
		opts := cfg.Merge(cli)

		program, diags := api.Compile(source, opts)

		for _, d := range diags {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", d.Error())
		}
		if diags.HadErrors() {
			return fmt.Errorf("compilation failed with %d diagnostic(s)", len(diags))
		}
		if checkOnly {
			return nil
		}

		return writeResult(cmd.OutOrStdout(), outputFile, program, opts)
	}

	compileCmd := &cobra.Command{
		Use:   "compile [input]",
		Short: "Compile a source file and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, false)
		},
	}
	addSharedFlags(compileCmd)

	checkCmd := &cobra.Command{
		Use:   "check [input]",
		Short: "Type-check a source file and report diagnostics without emitting output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, true)
		},
	}
	addSharedFlags(checkCmd)

	root.AddCommand(compileCmd, checkCmd)
	return root
}

// readSource reads from args[0] when given, otherwise from stdin. It
// returns the source text and, for a file argument, the directory to start
// the config search from.
func readSource(args []string) (source string, startDir string, err error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("reading input: %w", err)
		}
		return string(data), filepath.Dir(args[0]), nil
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return "", "", fmt.Errorf("no input file specified and stdin is not a pipe")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", "", fmt.Errorf("reading stdin: %w", err)
	}
	startDir, _ = os.Getwd()
	return string(data), startDir, nil
}

func loadConfig(configFile string, noConfig bool, startDir string) (*config.Config, error) {
	if noConfig {
		return &config.Config{}, nil
	}
	if configFile != "" {
		cfg, err := config.LoadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configFile, err)
		}
		return cfg, nil
	}
	cfg, _, err := config.Load(startDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	return cfg, nil
}

// writeResult prints the compiled program, and any requested intermediate
// snapshots, as JSON to outputFile (or stdout when outputFile is empty).
func writeResult(stdout io.Writer, outputFile string, program *ast.Program, opts api.Options) error {
	var out io.Writer = stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	result := struct {
		Program           *ast.Program `json:"program"`
		InitialInputAST   *ast.Program `json:"initialInputAst,omitempty"`
		InitialAST        *ast.Program `json:"initialAst,omitempty"`
		ConstantFoldedAST *ast.Program `json:"constantFoldedAst,omitempty"`
		UnrolledAST       *ast.Program `json:"unrolledAst,omitempty"`
	}{
		Program:           program,
		InitialInputAST:   opts.InitialInputAST,
		InitialAST:        opts.InitialAST,
		ConstantFoldedAST: opts.ConstantFoldedAST,
		UnrolledAST:       opts.UnrolledAST,
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
