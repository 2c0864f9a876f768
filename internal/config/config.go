package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/chuckide/internal/util"
)

const FileName = "chuckide.json"

type Config struct {
	Paths   Paths   `json:"paths"`
	Viewer  Viewer  `json:"viewer"`
	Project Project `json:"project"`
	Search  Search  `json:"search"`
	Export  Export  `json:"export"`
	Log     Log     `json:"log"`
}

// Paths are relative to the project directory unless absolute.
type Paths struct {
	DataDir     string `json:"data_dir"`     // holds data.db
	RuntimeDir  string `json:"runtime_dir"`  // runtime mirror
	ExamplesDir string `json:"examples_dir"` // example gallery
}

type Viewer struct {
	HTTPAddr      string `json:"http_addr"`
	Debug         bool   `json:"debug"`
	ConsoleLines  int    `json:"console_lines"`
	WatchExamples bool   `json:"watch_examples"`
}

type Project struct {
	DefaultFile  string `json:"default_file"`
	SaveDebounce int    `json:"save_debounce_ms"`
}

type Search struct {
	MinQuery   int `json:"min_query"`
	MaxResults int `json:"max_results"`
}

type Export struct {
	DefaultTitle string `json:"default_title"`
}

type Log struct {
	Level string `json:"level"`
}

func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     "data",
			RuntimeDir:  "runtime",
			ExamplesDir: "examples",
		},
		Viewer: Viewer{
			HTTPAddr:      "127.0.0.1:8325",
			Debug:         false,
			ConsoleLines:  500,
			WatchExamples: true,
		},
		Project: Project{
			DefaultFile:  "untitled.ck",
			SaveDebounce: 300,
		},
		Search: Search{
			MinQuery:   2,
			MaxResults: 500,
		},
		Export: Export{
			DefaultTitle: "",
		},
		Log: Log{
			Level: "info",
		},
	}
}

func (c *Config) Validate() error {
	// Paths
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir is required")
	}
	if strings.TrimSpace(c.Paths.RuntimeDir) == "" {
		return errors.New("paths.runtime_dir is required")
	}
	if filepath.Clean(c.Paths.DataDir) == filepath.Clean(c.Paths.RuntimeDir) {
		return errors.New("paths.data_dir and paths.runtime_dir must differ")
	}

	// Viewer
	if a := strings.TrimSpace(c.Viewer.HTTPAddr); a != "" {
		if _, port, err := net.SplitHostPort(a); err != nil || port == "" {
			return fmt.Errorf("viewer.http_addr %q must be host:port", a)
		}
	}
	if c.Viewer.ConsoleLines < 1 || c.Viewer.ConsoleLines > 100000 {
		return errors.New("viewer.console_lines must be 1..100000")
	}

	// Project
	df := strings.TrimSpace(c.Project.DefaultFile)
	if df == "" || !strings.HasSuffix(df, ".ck") {
		return errors.New("project.default_file must be a .ck filename")
	}
	if _, err := util.ValidateFilename(df); err != nil {
		return fmt.Errorf("project.default_file: %w", err)
	}
	if c.Project.SaveDebounce < 0 || c.Project.SaveDebounce > 60000 {
		return errors.New("project.save_debounce_ms must be 0..60000")
	}

	// Search
	if c.Search.MinQuery < 1 {
		return errors.New("search.min_query must be >= 1")
	}
	if c.Search.MaxResults < 1 {
		return errors.New("search.max_results must be >= 1")
	}

	// Log
	if _, err := logging.LevelFromString(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// Resolve returns the configured paths made absolute against base.
func (c *Config) Resolve(base string) Paths {
	return Paths{
		DataDir:     util.ResolvePath(base, c.Paths.DataDir),
		RuntimeDir:  util.ResolvePath(base, c.Paths.RuntimeDir),
		ExamplesDir: util.ResolvePath(base, c.Paths.ExamplesDir),
	}
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Strip UTF-8 BOM if present (common when editing JSON on Windows).
	b = stripBOM(b)

	// Start from defaults so missing JSON fields remain initialized.
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	return util.WriteJSONFile(path, cfg)
}

// Ensure loads config if it exists; otherwise creates a default config file.
// Returns (cfg, createdNew, err).
func Ensure(path string) (Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := Load(path)
		return cfg, false, err
	} else if !os.IsNotExist(err) {
		return Config{}, false, err
	}

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, false, fmt.Errorf("create default config: %w", err)
	}
	return cfg, true, nil
}
