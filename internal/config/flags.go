package config

import "github.com/urfave/cli/v3"

const (
	FlagConfig      = "config"
	FlagRoot        = "root"
	FlagCacheTTL    = "cache-ttl"
	FlagCacheSize   = "cache-capacity"
	FlagCacheDir    = "cache-dir"
	FlagTimeout     = "timeout"
	FlagRetries     = "retries"
	FlagMaxNodes    = "max-nodes"
	FlagConcurrency = "concurrency"
	FlagSkipErrors  = "skip-fetch-errors"
	FlagCellSize    = "cell-size"
	FlagLogLevel    = "log-level"
	FlagLogConsole  = "log-console"
)

// Flags are the global flags shared by every command. Their defaults are
// left empty so that only flags the user sets override file and
// environment values.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagConfig, Aliases: []string{"c"}, Usage: "TOML config file", Sources: cli.EnvVars("STAC_CONFIG")},
		&cli.StringFlag{Name: FlagRoot, Aliases: []string{"r"}, Usage: "catalog root URL, s3:// URL or path (default: Wyvern open data)"},
		&cli.DurationFlag{Name: FlagCacheTTL, Usage: "how long fetched documents stay fresh (default: 1h)"},
		&cli.IntFlag{Name: FlagCacheSize, Usage: "maximum cached documents (default: 4096)"},
		&cli.StringFlag{Name: FlagCacheDir, Usage: "directory for the on-disk document cache"},
		&cli.DurationFlag{Name: FlagTimeout, Aliases: []string{"t"}, Usage: "HTTP client timeout (default: 30s)"},
		&cli.IntFlag{Name: FlagRetries, Usage: "fetch attempts per document (default: 3)"},
		&cli.IntFlag{Name: FlagMaxNodes, Usage: "maximum catalog documents per walk, 0 for no limit (default: 100000)"},
		&cli.IntFlag{Name: FlagConcurrency, Usage: "concurrent fetches (default: 8)"},
		&cli.BoolFlag{Name: FlagSkipErrors, Usage: "skip child documents that cannot be fetched"},
		&cli.FloatFlag{Name: FlagCellSize, Usage: "index grid cell size in degrees, 0 for a linear scan (default: 1)"},
		&cli.StringFlag{Name: FlagLogLevel, Usage: "debug|info|warn|error (default: info)"},
		&cli.BoolFlag{Name: FlagLogConsole, Usage: "human-readable logs"},
	}
}

// FromCommand loads the config file named by --config and applies the
// flags the user set.
func FromCommand(cmd *cli.Command) (Config, error) {
	cfg, err := Load(cmd.String(FlagConfig))
	if err != nil {
		return cfg, err
	}
	cfg.ApplyFlags(cmd)
	return cfg, cfg.Validate()
}

// ApplyFlags overrides fields from flags that were set explicitly.
func (c *Config) ApplyFlags(cmd *cli.Command) {
	if cmd.IsSet(FlagRoot) {
		c.Root = cmd.String(FlagRoot)
	}
	setDuration(cmd, FlagCacheTTL, &c.Cache.TTL)
	setInt(cmd, FlagCacheSize, &c.Cache.Capacity)
	if cmd.IsSet(FlagCacheDir) {
		c.Cache.Dir = cmd.String(FlagCacheDir)
	}
	setDuration(cmd, FlagTimeout, &c.Fetch.Timeout)
	setInt(cmd, FlagRetries, &c.Fetch.RetryAttempts)
	setInt(cmd, FlagMaxNodes, &c.Traverse.MaxNodes)
	setInt(cmd, FlagConcurrency, &c.Traverse.Concurrency)
	if cmd.IsSet(FlagSkipErrors) {
		c.Traverse.SkipFetchErrors = cmd.Bool(FlagSkipErrors)
	}
	if cmd.IsSet(FlagCellSize) {
		c.Index.CellSize = cmd.Float(FlagCellSize)
	}
	if cmd.IsSet(FlagLogLevel) {
		c.Logging.Level = cmd.String(FlagLogLevel)
	}
	if cmd.IsSet(FlagLogConsole) {
		c.Logging.Console = cmd.Bool(FlagLogConsole)
	}
}

func setInt(cmd *cli.Command, name string, dst *int) {
	if cmd.IsSet(name) {
		*dst = int(cmd.Int(name))
	}
}

func setDuration(cmd *cli.Command, name string, dst *Duration) {
	if cmd.IsSet(name) {
		*dst = Duration{cmd.Duration(name)}
	}
}
