package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/textan/internal/config"
	"github.com/rcliao/textan/internal/corpus"
	"github.com/rcliao/textan/internal/harness"
	"github.com/rcliao/textan/internal/model"
	"github.com/rcliao/textan/internal/report"
	"github.com/rcliao/textan/internal/script"
	"github.com/rcliao/textan/internal/store"
	"github.com/rcliao/textan/internal/textan"
)

var runCmd = &cobra.Command{
	Use:   "run [submission-id...]",
	Short: "Evaluate every submission of the roster",
	Long: `Evaluate submissions one after the other. Identifiers come from the
arguments or, when none are given, from the roster file in the code
directory. Each submission is loaded from textan_<ID>.go in the code
directory, unless it is the built-in "reference" implementation.

Settings come from the configuration file, then TEXTAN_* environment
variables, then the flags given on the command line.`,
	Run: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("corpus-dir", "", "Directory with one subdirectory per author")
	f.String("code-dir", "", "Directory with the roster and submission sources")
	f.StringP("roster", "e", "", "Roster file, relative to the code directory")
	f.IntP("ngram", "m", 0, "N-gram size (1 to 20)")
	f.IntP("kth", "k", 0, "Print the k-th most frequent n-gram of each author")
	f.String("unknown-dir", "", "Directory of the unknown works and their list")
	f.StringP("unknown-file", "f", "", "Unknown work to attribute")
	f.StringP("unknown-list", "F", "", "File listing unknown works to attribute")
	f.StringP("gen-author", "g", "", "Generate a random text in the style of this author")
	f.Bool("gen-multiple", false, "Generate one random text per author")
	f.Bool("gen-fused", false, "Generate one random text from the combined authors")
	f.String("gen-authors-list", "", "File, relative to the generation directory, restricting the generation authors")
	f.Int("gen-size", 0, "Number of words to generate")
	f.String("gen-name", "", "Generated file name template (<ID>, <AUT>, <DATE>, <HR>, <MIN>, <SEC>)")
	f.String("gen-dir", "", "Directory of generated files")
	f.Bool("pretty", true, "Reformat generated texts")
	f.Bool("strip-punctuation", false, "Remove punctuation from tokens")
	f.Int("max-stack-mb", 0, "Maximum goroutine stack size in MB")
	f.Int("timeout", 0, "Per-submission time limit in seconds (0 disables it)")
	f.String("results-file", "", "Result log file (stdout when empty)")
	f.String("results-dir", "", "Directory of the result log")
	f.Bool("quiet-submissions", false, "Discard what submissions print")
	f.Bool("compare-authors", false, "Print the author similarity matrix")
	f.Int64("seed", 0, "Random seed (0 uses the clock)")

	RootCmd.AddCommand(runCmd)
}

// applyFlags overrides cfg with the flags explicitly set on cmd.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	flag := func(name string, dst *bool) {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}

	str("corpus-dir", &cfg.CorpusDir)
	str("code-dir", &cfg.CodeDir)
	str("roster", &cfg.Roster)
	num("ngram", &cfg.NGramSize)
	num("kth", &cfg.Kth)
	str("unknown-dir", &cfg.UnknownDir)
	str("unknown-file", &cfg.UnknownFile)
	str("unknown-list", &cfg.UnknownList)
	str("gen-author", &cfg.Generate.Author)
	flag("gen-multiple", &cfg.Generate.Multiple)
	flag("gen-fused", &cfg.Generate.Fused)
	str("gen-authors-list", &cfg.Generate.AuthorsList)
	num("gen-size", &cfg.Generate.Size)
	str("gen-name", &cfg.Generate.NameTemplate)
	str("gen-dir", &cfg.Generate.Dir)
	flag("pretty", &cfg.Generate.Pretty)
	flag("strip-punctuation", &cfg.StripPunctuation)
	num("max-stack-mb", &cfg.MaxStackMB)
	num("timeout", &cfg.Timeout)
	str("results-file", &cfg.ResultsFile)
	str("results-dir", &cfg.ResultsDir)
	flag("quiet-submissions", &cfg.QuietSubmissions)
	flag("compare-authors", &cfg.CompareAuthors)
	if f.Changed("seed") {
		cfg.Seed, _ = f.GetInt64("seed")
	}
	if RootCmd.PersistentFlags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
}

func runRun(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNothingToDo) {
			_ = cmd.Help()
		}
		exitErr("config", err)
	}
	if cfg.MaxStackMB > 0 {
		debug.SetMaxStack(cfg.MaxStackMB << 20)
	}

	ids := args
	if len(ids) == 0 {
		ids, err = corpus.ReadRoster(cfg.RosterPath())
		if err != nil {
			exitErr("roster", err)
		}
	}

	rep, err := report.Open(cfg.ResultsDir, cfg.ResultsFile)
	if err != nil {
		exitErr("results file", err)
	}
	defer rep.Close()

	unknown, errs := cfg.UnknownWorks()
	for _, e := range errs {
		if errors.Is(e, corpus.ErrNoWorks) {
			rep.Close()
			exitErr("unknown works", e)
		}
		rep.Println(e)
	}
	authors, err := cfg.GenerateAuthors()
	if err != nil {
		rep.Close()
		exitErr("generation authors", err)
	}

	s, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		rep.Close()
		exitErr("open store", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	run, err := s.CreateRun(ctx, store.CreateRunParams{
		NGramSize:  cfg.NGramSize,
		CorpusDir:  cfg.CorpusDir,
		RosterSize: len(ids),
		Meta:       fmt.Sprintf("code_dir=%s", cfg.CodeDir),
	})
	if err != nil {
		rep.Close()
		exitErr("create run", err)
	}

	loader := script.NewLoader(cfg.CodeDir, logger)
	if cfg.QuietSubmissions {
		loader.Output = io.Discard
	}
	reg := textan.NewRegistry(loader)

	h := harness.New(cfg.Settings(unknown, authors), reg, rep, logger, harness.WithRecorder(s))
	outcomes := h.RunAll(ctx, run.ID, ids)

	if err := s.FinishRun(ctx, run.ID); err != nil {
		logger.Error("finish run", zap.String("run", run.ID), zap.Error(err))
	}

	completed := 0
	for _, o := range outcomes {
		if o.State == model.StateCompleted {
			completed++
		}
	}
	fmt.Fprintf(os.Stderr, "run %s: %d/%d submissions completed\n", run.ID, completed, len(ids))
	if p := rep.Path(); p != "" {
		fmt.Fprintf(os.Stderr, "results written to %s\n", p)
	}
}
