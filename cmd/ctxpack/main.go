package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/agusx1211/ctxpack"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cliOptions struct {
	printOut    bool
	copyOut     bool
	sshCopy     bool
	outputFile  string
	force       bool
	format      string
	model       string
	include     []string
	exclude     []string
	profile     string
	concurrency int
	tokenReport bool
	logLevel    string
	configPath  string
}

// newTokenCounter is replaced in tests to keep them offline.
var newTokenCounter = func(model string) ctxpack.TokenCounter {
	return ctxpack.NewTiktokenCounter(model)
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "ctxpack [paths...]",
		Short: "Ctxpack packs files and directories into one LLM context document",
		Long: `Ctxpack reads the given files and directories (the current directory by
default), skips ignored, binary and undecodable files, and writes every
remaining file into a single document wrapped in <file path="..."> blocks.
It reports the file count, an approximate token count and any
credential-shaped strings it finds.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.printOut, "print", false, "Print the document to stdout")
	flags.BoolVarP(&opts.copyOut, "copy", "c", false, "Copy the document to the system clipboard")
	flags.BoolVar(&opts.sshCopy, "ssh-copy", false, "Copy the document through the terminal (OSC 52), works over SSH")
	flags.StringVarP(&opts.outputFile, "output", "o", "", "Save the document to this file")
	flags.BoolVar(&opts.force, "force", false, "Allow overwriting a file that is not ctxpack output")
	flags.StringVarP(&opts.format, "format", "f", formatText, "Output format: text, json, or yaml")
	flags.StringVar(&opts.model, "model", ctxpack.DefaultModel, "Model whose tokenizer is used for the token count")
	flags.StringSliceVarP(&opts.include, "include", "i", nil, "Only include directory files matching these globs")
	flags.StringSliceVarP(&opts.exclude, "exclude", "x", nil, "Extra gitignore-style patterns to exclude")
	flags.StringVar(&opts.profile, "profile", "default", "Configuration profile providing include/exclude patterns")
	flags.IntVarP(&opts.concurrency, "concurrency", "j", 0, "Files read in parallel (0 = number of CPUs)")
	flags.BoolVar(&opts.tokenReport, "token-report", false, "Print a per-file token breakdown to stderr")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, or error")
	flags.StringVar(&opts.configPath, "config", "", "Configuration file (default ~/.ctxpack.yaml and ./.ctxpack.yaml)")

	cmd.AddCommand(newDefaultOutputCmd())
	return cmd
}

func run(cmd *cobra.Command, args []string, opts *cliOptions) error {
	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	format := cfg.Format
	if flags.Changed("format") {
		format = opts.format
	}
	format, err = normalizeFormat(format)
	if err != nil {
		return err
	}

	mode, err := resolveOutputMode(cfg.Output, opts.printOut, opts.copyOut, opts.sshCopy)
	if err != nil {
		return err
	}

	model := cfg.Model
	if model == "" || flags.Changed("model") {
		model = opts.model
	}
	concurrency := cfg.Concurrency
	if flags.Changed("concurrency") {
		concurrency = opts.concurrency
	}

	patterns := cfg.patterns(opts.profile)
	include := append(patterns.include, opts.include...)
	exclude := append(patterns.exclude, opts.exclude...)
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid include pattern %q", pattern)
		}
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{"."}
	}

	counter := newTokenCounter(model)
	logger.Debug("scanning",
		zap.Strings("inputs", inputs),
		zap.String("model", model),
		zap.Strings("include", include),
		zap.Strings("exclude", exclude))

	result := ctxpack.Scan(cmd.Context(), inputs, ctxpack.Options{
		Include:      include,
		Exclude:      exclude,
		Concurrency:  concurrency,
		TokenCounter: counter,
		Model:        model,
		Logger:       logger,
	})
	if !result.OK() {
		return result.Err()
	}

	rendered, err := renderResult(result, format)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	if opts.outputFile != "" {
		if err := saveOutput(opts.outputFile, rendered, opts.force); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Output written to: %s\n", opts.outputFile)
	}

	switch mode {
	case outputModeCopy:
		if err := copyToClipboard(rendered); err != nil {
			return err
		}
		fmt.Fprintln(stderr, "Copied to clipboard")
	case outputModeSSHCopy:
		if err := copyToOSC52(stdout, rendered); err != nil {
			return err
		}
		fmt.Fprintln(stderr, "Copied to clipboard via OSC 52")
	default:
		if opts.outputFile == "" {
			fmt.Fprint(stdout, rendered)
		}
	}

	printSummary(stderr, result)
	if opts.tokenReport {
		fmt.Fprint(stderr, "\n"+buildTokenReport(result, counter, model))
	}
	return nil
}

// saveOutput writes content to path, refusing to replace a file that does
// not look like earlier ctxpack output unless force is set.
func saveOutput(path string, content string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		isOutput, err := isPreviousOutput(path)
		if err != nil {
			return fmt.Errorf("failed to check existing file: %w", err)
		}
		if !isOutput {
			return fmt.Errorf("refusing to overwrite %s: file exists and doesn't appear to be ctxpack output. Use --force to override", path)
		}
	}
	return ctxpack.WriteText(path, content)
}

// structuredHeaders open a result rendered as json or yaml.
var structuredHeaders = []string{
	"{\n  \"status\": ",
	"status: ",
}

// isPreviousOutput reports whether path holds a document or a structured
// result written by an earlier run, in any format.
func isPreviousOutput(path string) (bool, error) {
	isDocument, err := ctxpack.IsDocument(path)
	if err != nil || isDocument {
		return isDocument, err
	}

	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	head := make([]byte, 16)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	for _, header := range structuredHeaders {
		if strings.HasPrefix(string(head[:n]), header) {
			return true, nil
		}
	}
	return false, nil
}

func newDefaultOutputCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default-output [print|copy|ssh-copy]",
		Short: "Show or set the default output mode stored in ~/" + configFileName,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := homeConfigPath()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				mode, err := readDefaultOutputModeFromFile(path)
				if err != nil {
					return err
				}
				if mode == "" {
					mode = outputModePrint
				}
				fmt.Fprintln(cmd.OutOrStdout(), mode)
				return nil
			}
			if err := writeDefaultOutputModeToFile(path, args[0]); err != nil {
				return err
			}
			mode, _ := normalizeOutputMode(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Default output set to %s in %s\n", mode, path)
			return nil
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
