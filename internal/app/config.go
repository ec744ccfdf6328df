package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vk/projweave/internal/emit"
)

// StdoutOutput is the Output value that writes the manifest to the app's
// output writer.
const StdoutOutput = "-"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ProjectPath is the root project file, or a directory holding project.hcl.
	ProjectPath string

	// Output is where the manifest is written: StdoutOutput, a file path, or
	// "" for no local output.
	Output string
	// Format is the manifest format. Empty means: from the Output extension,
	// else JSON.
	Format emit.Format

	EmitURL            string
	EmitNamespace      string
	EmitTimeout        time.Duration
	InsecureSkipVerify bool

	// ComparePath names a previously written manifest to diff against.
	ComparePath string
	// Strict turns warning diagnostics into a failed run.
	Strict bool
	// Watch re-runs the composition whenever a project file changes.
	Watch      bool
	WatchDelay time.Duration

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if strings.TrimSpace(cfg.ProjectPath) == "" {
		return nil, errors.New("ProjectPath is a required configuration field and cannot be empty")
	}

	if cfg.Format == "" {
		if f, ok := emit.FormatFromPath(cfg.Output); ok && cfg.Output != StdoutOutput {
			cfg.Format = f
		} else {
			cfg.Format = emit.FormatJSON
		}
	} else {
		f, err := emit.ParseFormat(string(cfg.Format))
		if err != nil {
			return nil, err
		}
		cfg.Format = f
	}

	if cfg.EmitTimeout < 0 {
		return nil, fmt.Errorf("emit timeout must not be negative, got %s", cfg.EmitTimeout)
	}
	if cfg.EmitTimeout == 0 {
		cfg.EmitTimeout = emit.DefaultTimeout
	}
	if cfg.EmitURL == "" && cfg.EmitNamespace != "" {
		return nil, errors.New("emit namespace set without an emit URL")
	}
	if cfg.WatchDelay < 0 {
		return nil, fmt.Errorf("watch delay must not be negative, got %s", cfg.WatchDelay)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	return &cfg, nil
}
