// Package config loads the grading run configuration from a YAML file,
// a .env file and TEXTAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/textan/internal/corpus"
	"github.com/rcliao/textan/internal/harness"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "./textan.yml"

const (
	MinNGramSize = 1
	MaxNGramSize = 20
)

// ErrNothingToDo is returned by Validate when no operation beyond loading
// and analysis is requested.
var ErrNothingToDo = errors.New("nothing to do: request generation, attribution, ranking or comparison")

// Config holds every setting of a grading run.
type Config struct {
	CorpusDir string `yaml:"corpus_dir"`
	CodeDir   string `yaml:"code_dir"`
	// Roster is the file listing submission identifiers, relative to CodeDir.
	Roster    string `yaml:"roster"`
	NGramSize int    `yaml:"ngram_size"`
	Kth       int    `yaml:"kth"`

	UnknownDir  string `yaml:"unknown_dir"`
	UnknownFile string `yaml:"unknown_file"`
	// UnknownList names a file, relative to UnknownDir, listing unknown
	// works. It replaces UnknownFile when set.
	UnknownList string `yaml:"unknown_list"`

	Generate GenerateConfig `yaml:"generate"`

	StripPunctuation bool   `yaml:"strip_punctuation"`
	Punctuation      string `yaml:"punctuation"`
	MaxStackMB       int    `yaml:"max_stack_mb"`
	// Timeout is the per-submission limit in seconds. Zero or less disables it.
	Timeout          int    `yaml:"timeout"`
	ResultsFile      string `yaml:"results_file"`
	ResultsDir       string `yaml:"results_dir"`
	QuietSubmissions bool   `yaml:"quiet_submissions"`
	CompareAuthors   bool   `yaml:"compare_authors"`
	Verbose          bool   `yaml:"verbose"`
	Seed             int64  `yaml:"seed"`

	Store StoreConfig `yaml:"store"`
}

// GenerateConfig configures random text generation.
type GenerateConfig struct {
	Author   string `yaml:"author"`
	Multiple bool   `yaml:"multiple"`
	Fused    bool   `yaml:"fused"`
	// AuthorsList names a file, relative to Dir, restricting the authors
	// used by Multiple and Fused.
	AuthorsList  string `yaml:"authors_list"`
	Size         int    `yaml:"size"`
	NameTemplate string `yaml:"name_template"`
	Dir          string `yaml:"dir"`
	Pretty       bool   `yaml:"pretty"`
}

// StoreConfig locates the results database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		CorpusDir:   ".",
		CodeDir:     ".",
		Roster:      "roster.txt",
		NGramSize:   1,
		UnknownDir:  ".",
		Punctuation: corpus.DefaultPunctuation,
		Generate: GenerateConfig{
			Size:         500,
			NameTemplate: harness.DefaultNameTemplate,
			Dir:          ".",
			Pretty:       true,
		},
		Store: StoreConfig{Path: filepath.Join(home, ".textan", "results.db")},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies TEXTAN_* environment variables.
func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"TEXTAN_CORPUS_DIR":   &c.CorpusDir,
		"TEXTAN_CODE_DIR":     &c.CodeDir,
		"TEXTAN_ROSTER":       &c.Roster,
		"TEXTAN_RESULTS_FILE": &c.ResultsFile,
		"TEXTAN_RESULTS_DIR":  &c.ResultsDir,
		"TEXTAN_DB":           &c.Store.Path,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TEXTAN_NGRAM_SIZE": &c.NGramSize,
		"TEXTAN_TIMEOUT":    &c.Timeout,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}

	if v := os.Getenv("TEXTAN_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TEXTAN_SEED %q: %w", v, err)
		}
		c.Seed = n
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SomethingToDo reports whether any operation beyond loading and analysis
// is requested.
func (c *Config) SomethingToDo() bool {
	g := c.Generate
	return c.Kth > 0 || c.CompareAuthors ||
		c.UnknownFile != "" || c.UnknownList != "" ||
		g.Author != "" || g.Multiple || g.Fused
}

// Validate checks ranges and that there is something to do.
func (c *Config) Validate() error {
	if c.NGramSize < MinNGramSize || c.NGramSize > MaxNGramSize {
		return fmt.Errorf("ngram_size %d out of range [%d, %d]", c.NGramSize, MinNGramSize, MaxNGramSize)
	}
	if c.Kth < 0 {
		return fmt.Errorf("kth must not be negative, got %d", c.Kth)
	}
	if c.Generate.Size < 0 {
		return fmt.Errorf("generate.size must not be negative, got %d", c.Generate.Size)
	}
	if !c.SomethingToDo() {
		return ErrNothingToDo
	}
	return nil
}

// TimeoutDuration returns the per-submission limit, zero when disabled.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.Timeout) * time.Second
}

// RosterPath returns the roster file location.
func (c *Config) RosterPath() string {
	return filepath.Join(c.CodeDir, c.Roster)
}

// Tokenizer returns the tokenizer for the punctuation settings.
func (c *Config) Tokenizer() corpus.Tokenizer {
	return corpus.Tokenizer{Punctuation: c.Punctuation, Strip: c.StripPunctuation}
}

// UnknownWorks resolves the unknown works to attribute. The returned errors
// describe entries that were skipped; corpus.ErrNoWorks among them means
// none resolved.
func (c *Config) UnknownWorks() ([]string, []error) {
	var names []string
	if c.UnknownFile != "" {
		names = append(names, c.UnknownFile)
	}
	if c.UnknownList != "" {
		list, err := corpus.ReadLines(filepath.Join(c.UnknownDir, c.UnknownList))
		if err != nil {
			return nil, []error{err, corpus.ErrNoWorks}
		}
		names = list
	}
	if len(names) == 0 {
		return nil, nil
	}
	return corpus.ResolveWorks(c.UnknownDir, names)
}

// GenerateAuthors reads the generation authors list, nil when unset.
func (c *Config) GenerateAuthors() ([]string, error) {
	if c.Generate.AuthorsList == "" {
		return nil, nil
	}
	return corpus.ReadLines(filepath.Join(c.Generate.Dir, c.Generate.AuthorsList))
}

// Settings builds the harness settings. unknown holds the resolved unknown
// works and authors the generation author restriction.
func (c *Config) Settings(unknown, authors []string) harness.Settings {
	return harness.Settings{
		CorpusDir: c.CorpusDir,
		NGramSize: c.NGramSize,
		Tokenizer: c.Tokenizer(),
		Timeout:   c.TimeoutDuration(),
		Seed:      c.Seed,
		Unknown:   unknown,
		Kth:       c.Kth,
		Generate: harness.GenerateSettings{
			Author:       corpus.NormalizeName(strings.TrimSpace(c.Generate.Author)),
			Multiple:     c.Generate.Multiple,
			Fused:        c.Generate.Fused,
			Authors:      authors,
			Size:         c.Generate.Size,
			NameTemplate: c.Generate.NameTemplate,
			Dir:          c.Generate.Dir,
			Pretty:       c.Generate.Pretty,
		},
		Compare: c.CompareAuthors,
		Verbose: c.Verbose,
	}
}
