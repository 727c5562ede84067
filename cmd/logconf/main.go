// Command logconf is a CLI harness around internal/lexer: it lexes a
// configuration file end to end, linting unmatched identifiers, dumping
// the resulting token stream, or watching a file and its includes for
// changes and re-lexing automatically.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/logconf/internal/diag"
	"github.com/aledsdavies/logconf/internal/grammar"
	"github.com/aledsdavies/logconf/internal/keywords"
	"github.com/aledsdavies/logconf/internal/lexer"
)

const (
	exitSuccess    = 0
	exitUsageError = 1
	exitLexError   = 2
	exitIOError    = 3
)

var rootFlags struct {
	version         string
	maxIncludeDepth int
	policyPath      string
	keywordsPath    string
	debug           bool
}

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "logconf:", err)
		return exitLexError
	}
	return exitSuccess
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "logconf",
		Short:         "Lex and preprocess log-routing daemon configuration files",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&rootFlags.version, "version-gate", "", "active version, e.g. 3.38 (default: legacy)")
	cmd.PersistentFlags().IntVar(&rootFlags.maxIncludeDepth, "max-include-depth", lexer.DefaultMaxIncludeDepth, "maximum include nesting depth")
	cmd.PersistentFlags().StringVar(&rootFlags.policyPath, "policy", "", "optional YAML lint-policy file")
	cmd.PersistentFlags().StringVar(&rootFlags.keywordsPath, "keywords", "", "optional JSON keyword-table extension file, merged into the built-in root table")
	cmd.PersistentFlags().BoolVar(&rootFlags.debug, "debug", false, "emit debug-level diagnostics")

	cmd.AddCommand(newLexCommand(), newLintCommand(), newDumpCommand(), newWatchCommand())
	return cmd
}

func buildConfig() (lexer.Config, error) {
	level := slog.LevelInfo
	if rootFlags.debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	cfg := lexer.DefaultConfig()
	cfg.Diag = diag.New(slog.New(handler))
	cfg.MaxIncludeDepth = rootFlags.maxIncludeDepth

	if rootFlags.version != "" {
		policy := lexer.Policy{ActiveVersion: rootFlags.version}
		merged, err := policy.Apply(cfg)
		if err != nil {
			return cfg, err
		}
		cfg = merged
	}
	if rootFlags.policyPath != "" {
		policy, err := lexer.LoadPolicyFile(rootFlags.policyPath)
		if err != nil {
			return cfg, err
		}
		merged, err := policy.Apply(cfg)
		if err != nil {
			return cfg, err
		}
		cfg = merged
	}
	return cfg, nil
}

// buildRootTable returns the built-in root keyword table, extended with
// whatever --keywords points at. A daemon-specific keyword extension file
// is loaded and schema-validated fresh on every call rather than cached,
// since this CLI is short-lived per invocation.
func buildRootTable() (lexer.KeywordTable, error) {
	if rootFlags.keywordsPath == "" {
		return keywords.Root, nil
	}
	raw, err := os.ReadFile(rootFlags.keywordsPath)
	if err != nil {
		return nil, fmt.Errorf("read keyword extension file: %w", err)
	}
	extra, err := keywords.LoadJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("load keyword extension file %s: %w", rootFlags.keywordsPath, err)
	}
	merged := make(lexer.KeywordTable, 0, len(keywords.Root)+len(extra))
	merged = append(merged, keywords.Root...)
	merged = append(merged, extra...)
	return merged, nil
}

// lexAll drains a file's full token stream and, alongside it, every file
// path the facade opened while doing so (the file itself plus every
// transitively included file), so a caller like watchAndRelex can watch
// the whole configuration tree rather than just the entry file.
func lexAll(path string) (tokens []lexer.Token, echo string, files []string, err error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, "", nil, err
	}
	rootTable, err := buildRootTable()
	if err != nil {
		return nil, "", nil, err
	}
	parser := &grammar.DefaultParser{
		OnVersion: func(major, minor uint8) {
			cfg.ActiveVersion = uint16(major)<<8 | uint16(minor)
		},
	}
	f := lexer.NewFacade(cfg, parser)
	defer f.Close()
	f.PushContext(lexer.ContextRoot, rootTable, "configuration")

	if err := f.IncludeFile(path); err != nil {
		return nil, "", nil, err
	}

	for {
		tok, err := f.Next()
		if err != nil {
			return tokens, f.Echo(), f.IncludedFiles(), err
		}
		if tok.Type == lexer.EOF {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens, f.Echo(), f.IncludedFiles(), nil
}

func newLexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lex <file>",
		Short: "Lex a configuration file and print its token stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, _, _, err := lexAll(args[0])
			if err != nil {
				return err
			}
			for _, tok := range tokens {
				fmt.Println(tok.String())
			}
			return nil
		},
	}
}

func newLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <file>",
		Short: "Lex a file and report likely-mistyped keywords",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, _, _, err := lexAll(args[0])
			if err != nil {
				return err
			}
			rootTable, err := buildRootTable()
			if err != nil {
				return err
			}
			suggestions := lexer.Lint(tokens, rootTable)
			if len(suggestions) == 0 {
				fmt.Println("no suggestions")
				return nil
			}
			for _, s := range suggestions {
				fmt.Printf("%s: %q — did you mean %q?\n", s.Token.Span, s.Token.Text, s.Keyword)
			}
			return nil
		},
	}
}

func newDumpCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Dump the drained token stream as JSON or CBOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, _, _, err := lexAll(args[0])
			if err != nil {
				return err
			}
			var out []byte
			switch format {
			case "cbor":
				out, err = cbor.Marshal(tokens)
			default:
				out, err = json.MarshalIndent(tokens, "", "  ")
			}
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or cbor")
	return cmd
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-lex a file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchAndRelex(cmd.Context(), args[0])
		},
	}
}

func watchAndRelex(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watched := make(map[string]bool)
	syncWatches := func(files []string) {
		want := make(map[string]bool, len(files))
		for _, f := range files {
			want[f] = true
			if watched[f] {
				continue
			}
			if err := watcher.Add(f); err != nil {
				fmt.Fprintln(os.Stderr, "logconf watch: add", f, err)
				continue
			}
			watched[f] = true
		}
		for f := range watched {
			if !want[f] {
				watcher.Remove(f)
				delete(watched, f)
			}
		}
	}

	// relex re-lexes the entry file and re-syncs the watch set against
	// whatever its include tree resolves to this time, so editing an
	// included file is itself enough to be watched from then on, and a
	// since-removed include stops triggering spurious re-lexes.
	relex := func() error {
		tokens, _, files, err := lexAll(path)
		syncWatches(files)
		if err != nil {
			return err
		}
		fmt.Printf("relexed %s: %d tokens across %d file(s)\n", path, len(tokens), len(files))
		return nil
	}
	if err := relex(); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := relex(); err != nil {
					fmt.Fprintln(os.Stderr, "logconf watch:", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "logconf watch:", err)
		}
	}
}
