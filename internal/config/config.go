package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"
	"go.uber.org/zap"
)

// EnvPrefix is prepended to flag names to form environment variable names,
// so -server may also be given as QLINE_SERVER.
const EnvPrefix = "QLINE"

type Config struct {
	Server       string
	Autocomplete bool
	Label        string
	LogLevel     string
	DataDir      string
	CleanLog     bool
	Lookback     time.Duration
	Timeout      time.Duration
	SyntaxCheck  bool
	HistoryLimit int
	Version      bool
}

// Register defines the program flags on fs and returns the Config they fill.
func Register(fs *flag.FlagSet) *Config {
	c := &Config{}
	fs.StringVar(&c.Server, "server", "http://localhost:9090", "base URL of the Prometheus-compatible server")
	fs.BoolVar(&c.Autocomplete, "autocomplete", true, "suggest metrics, labels and functions while typing")
	fs.StringVar(&c.Label, "label", "Query", "label shown above the editor")
	fs.StringVar(&c.LogLevel, "log-level", "info", "log level: debug|info|warn|error")
	fs.StringVar(&c.DataDir, "data-dir", "", "directory for the log file, history and preferences (default ~/.local/share/qline)")
	fs.BoolVar(&c.CleanLog, "clean-log", false, "truncate the log file at start")
	fs.DurationVar(&c.Lookback, "lookback", time.Hour, "how far back metadata lookups search for series")
	fs.DurationVar(&c.Timeout, "timeout", 30*time.Second, "query timeout")
	fs.BoolVar(&c.SyntaxCheck, "syntax-check", true, "parse queries as PromQL before sending them; disable for MetricsQL")
	fs.IntVar(&c.HistoryLimit, "history-limit", 500, "number of history entries loaded for navigation")
	fs.BoolVar(&c.Version, "version", false, "display build version")
	return c
}

// Options are the ff options every qline flag set is parsed with.
func Options() []ff.Option {
	return []ff.Option{ff.WithEnvVarPrefix(EnvPrefix)}
}

// Load parses args, falling back to QLINE_* environment variables.
func Load(name string, args []string) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c := Register(fs)
	if err := ff.Parse(fs, args, Options()...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server) == "" {
		return fmt.Errorf("-server must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("-timeout must be positive, got %s", c.Timeout)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("-history-limit must not be negative, got %d", c.HistoryLimit)
	}
	return nil
}

// ZapLevel returns the configured log level, or info when it does not parse.
func (c *Config) ZapLevel() zap.AtomicLevel {
	logLevel, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		logLevel = zap.NewAtomicLevel()
	}
	return logLevel
}
