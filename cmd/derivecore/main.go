// Package main contains the cli implementation of the tool. It uses
// the cobra package for cli tool implementation.
package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"derivecore/internal/config"
	"derivecore/internal/ddlimport"
	"derivecore/internal/dictddl"
	"derivecore/internal/dictdiff"
	"derivecore/internal/dictionary"
	"derivecore/internal/dictionary/tomlschema"
	"derivecore/internal/driver"
	"derivecore/internal/errsink"
	"derivecore/internal/evaluator"
	"derivecore/internal/output"
	"derivecore/internal/sqlsink"
	"derivecore/internal/tabfile"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "derivecore",
		Short: "Derivation-rule evaluation core for tabular data preparation",
	}

	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(importDDLCmd())
	rootCmd.AddCommand(genDDLCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type evaluateFlags struct {
	dictPath   string
	configPath string
	inPath     string
	outPath    string
	sqlDSN     string
	sqlTable   string
	batchSize  int
}

func evaluateCmd() *cobra.Command {
	flags := &evaluateFlags{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Read a tabular file through a Dictionary and write evaluated records",
		Long: `Evaluate reads --in through the Dictionary loaded from --dict, computing every
derived Attribute and Block, and writes the resulting records either to --out
(a tabular file) or into a MySQL table via --sql-dsn/--sql-table.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runEvaluate(flags)
		},
	}

	cmd.Flags().StringVar(&flags.dictPath, "dict", "", "Path to the TOML dictionary (required)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to a TOML engine config (optional, defaults used otherwise)")
	cmd.Flags().StringVar(&flags.inPath, "in", "", "Path to the input tabular file (required)")
	cmd.Flags().StringVar(&flags.outPath, "out", "", "Path to the output tabular file")
	cmd.Flags().StringVar(&flags.sqlDSN, "sql-dsn", "", "MySQL DSN to write records into instead of --out")
	cmd.Flags().StringVar(&flags.sqlTable, "sql-table", "", "Destination table name when --sql-dsn is set")
	cmd.Flags().IntVar(&flags.batchSize, "sql-batch-size", 0, "Rows per INSERT when writing to --sql-dsn (0 = sqlsink default)")

	return cmd
}

func runEvaluate(flags *evaluateFlags) error {
	if flags.dictPath == "" {
		return fmt.Errorf("--dict is required")
	}
	if flags.inPath == "" {
		return fmt.Errorf("--in is required")
	}
	if flags.outPath == "" && flags.sqlDSN == "" {
		return fmt.Errorf("one of --out or --sql-dsn is required")
	}

	dict, err := tomlschema.ParseFile(flags.dictPath)
	if err != nil {
		return fmt.Errorf("loading dictionary: %w", err)
	}

	cfg := config.Default()
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	in, err := tabfile.Open(flags.inPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer func() { _ = in.Close() }()

	sink := errsink.New()
	eval, err := evaluator.New(dict, in, cfg, sink)
	if err != nil {
		return fmt.Errorf("preparing evaluator: %w", err)
	}

	sep, err := cfg.SeparatorByte()
	if err != nil {
		return fmt.Errorf("invalid separator: %w", err)
	}

	ctx := context.Background()
	n, err := evaluateInto(ctx, eval, dict, flags, sep, cfg.HeaderLine)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "evaluated %d record(s); %s\n", n, sink.Summary())
	return nil
}

func evaluateInto(ctx context.Context, eval *evaluator.Evaluator, dict *dictionary.Dictionary, flags *evaluateFlags, sep byte, header bool) (int, error) {
	if flags.sqlDSN != "" {
		return evaluateIntoSQL(ctx, eval, dict, flags)
	}
	return evaluateIntoFile(ctx, eval, dict, flags.outPath, sep, header)
}

func evaluateIntoFile(ctx context.Context, eval *evaluator.Evaluator, dict *dictionary.Dictionary, outPath string, sep byte, header bool) (int, error) {
	out := tabfile.NewOutputFile(outPath, false, false)
	writer, err := driver.NewWriter(eval.Dictionary(), out, sep, header)
	if err != nil {
		return 0, fmt.Errorf("preparing output: %w", err)
	}
	defer func() { _ = writer.Close() }()

	var n int
	for {
		rec, ok, err := eval.Next(ctx)
		if err != nil {
			return n, fmt.Errorf("reading record %d: %w", n, err)
		}
		if !ok {
			break
		}
		if err := writer.Write(rec); err != nil {
			return n, fmt.Errorf("writing record %d: %w", n, err)
		}
		n++
	}
	return n, nil
}

func evaluateIntoSQL(ctx context.Context, eval *evaluator.Evaluator, dict *dictionary.Dictionary, flags *evaluateFlags) (int, error) {
	if flags.sqlTable == "" {
		return 0, fmt.Errorf("--sql-table is required with --sql-dsn")
	}

	sink, err := sqlsink.Open(ctx, eval.Dictionary(), sqlsink.Options{
		DSN:       flags.sqlDSN,
		Table:     flags.sqlTable,
		BatchSize: flags.batchSize,
	})
	if err != nil {
		return 0, fmt.Errorf("connecting sql sink: %w", err)
	}
	defer func() { _ = sink.Close() }()

	if err := sink.EnsureTable(ctx); err != nil {
		return 0, fmt.Errorf("provisioning table: %w", err)
	}

	var n int
	for {
		rec, ok, err := eval.Next(ctx)
		if err != nil {
			return n, fmt.Errorf("reading record %d: %w", n, err)
		}
		if !ok {
			break
		}
		if err := sink.Write(rec); err != nil {
			return n, fmt.Errorf("writing record %d: %w", n, err)
		}
		n++
	}
	return n, nil
}

type diffFlags struct {
	oldDict       string
	newDict       string
	outFile       string
	format        string
	detectRenames bool
}

func diffCmd() *cobra.Command {
	flags := &diffFlags{}
	cmd := &cobra.Command{
		Use:   "diff <old.toml> <new.toml>",
		Short: "Compare two Dictionary versions",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			flags.oldDict, flags.newDict = args[0], args[1]
			return runDiff(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.outFile, "output", "o", "", "Output file for the diff")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: sql, json, or summary")
	cmd.Flags().BoolVarP(&flags.detectRenames, "detect-renames", "r", true, "Enable heuristic attribute rename detection")

	return cmd
}

func runDiff(flags *diffFlags) error {
	oldDict, err := tomlschema.ParseFile(flags.oldDict)
	if err != nil {
		return fmt.Errorf("loading old dictionary: %w", err)
	}
	newDict, err := tomlschema.ParseFile(flags.newDict)
	if err != nil {
		return fmt.Errorf("loading new dictionary: %w", err)
	}

	result := dictdiff.Diff(oldDict, newDict, dictdiff.Options{DetectRenames: flags.detectRenames})

	formatter, err := output.NewFormatter(flags.format)
	if err != nil {
		return err
	}
	formatted, err := formatter.FormatDiff(result)
	if err != nil {
		return fmt.Errorf("formatting diff: %w", err)
	}
	return writeOutput(formatted, flags.outFile)
}

type reportFlags struct {
	dictPath string
	outFile  string
	format   string
}

func reportCmd() *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report <dict.toml>",
		Short: "Print a Dictionary's compile report",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			flags.dictPath = args[0]
			return runReport(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.outFile, "output", "o", "", "Output file for the report")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: sql, json, or summary")

	return cmd
}

func runReport(flags *reportFlags) error {
	dict, err := tomlschema.ParseFile(flags.dictPath)
	if err != nil {
		return fmt.Errorf("loading dictionary: %w", err)
	}
	report := dict.Report()

	formatter, err := output.NewFormatter(flags.format)
	if err != nil {
		return err
	}
	formatted, err := formatter.FormatCompileReport(&report)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	return writeOutput(formatted, flags.outFile)
}

type importDDLFlags struct {
	sqlPath string
	outFile string
	format  string
}

func importDDLCmd() *cobra.Command {
	flags := &importDDLFlags{}
	cmd := &cobra.Command{
		Use:   "import-ddl <schema.sql>",
		Short: "Build a Dictionary per CREATE TABLE statement and print their compile reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			flags.sqlPath = args[0]
			return runImportDDL(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.outFile, "output", "o", "", "Output file")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: sql, json, or summary")

	return cmd
}

func runImportDDL(flags *importDDLFlags) error {
	content, err := os.ReadFile(flags.sqlPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", flags.sqlPath, err)
	}

	dicts, err := ddlimport.Import(string(content))
	if err != nil {
		return fmt.Errorf("importing DDL: %w", err)
	}

	formatter, err := output.NewFormatter(flags.format)
	if err != nil {
		return err
	}

	var out string
	for table, dict := range dicts {
		report := dict.Report()
		formatted, err := formatter.FormatCompileReport(&report)
		if err != nil {
			return fmt.Errorf("formatting %s: %w", table, err)
		}
		out += formatted
	}
	return writeOutput(out, flags.outFile)
}

type genDDLFlags struct {
	dictPath string
	table    string
	outFile  string
}

func genDDLCmd() *cobra.Command {
	flags := &genDDLFlags{}
	cmd := &cobra.Command{
		Use:   "gen-ddl <dict.toml>",
		Short: "Render a Dictionary's loaded attributes as a MySQL CREATE TABLE statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			flags.dictPath = args[0]
			return runGenDDL(flags)
		},
	}

	cmd.Flags().StringVar(&flags.table, "table", "", "Destination table name (required)")
	cmd.Flags().StringVarP(&flags.outFile, "output", "o", "", "Output file for the DDL")

	return cmd
}

func runGenDDL(flags *genDDLFlags) error {
	if flags.table == "" {
		return fmt.Errorf("--table is required")
	}
	dict, err := tomlschema.ParseFile(flags.dictPath)
	if err != nil {
		return fmt.Errorf("loading dictionary: %w", err)
	}

	var g dictddl.Generator
	return writeOutput(g.GenerateCreateTable(flags.table, dict)+"\n", flags.outFile)
}

func writeOutput(content, outFile string) error {
	if outFile == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "output saved to %s\n", outFile)
	return nil
}
