// Package config centralizes the engine configuration: defaults, then
// environment variables, then flags (flags win).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	// Targets (mutually exclusive)
	Domain      string
	InputFile   string
	ListPlugins bool
	LintPlugins bool

	// Source selection (UsePlugins and ExcludePlugins are mutually exclusive)
	UsePlugins     []string
	ExcludePlugins []string
	SourcesFile    string

	// Output
	Output       string
	Overwrite    bool
	HTMLTemplate string

	// Tuning
	TimeoutS       float64
	GlobalTimeoutS float64
	MaxSubdomains  int
	APIRetries     int
	Workers        int

	// Features
	Wayback   bool
	ResolveIP bool
	ASNLookup bool
	Insecure  bool

	// Caching
	CacheDir string
	NoCache  bool

	// Verbosity
	Silent       bool
	Debug        bool
	LogJSON      bool
	NoLiveUI     bool
	PrintVersion bool
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		TimeoutS:      15,
		MaxSubdomains: 25000,
		APIRetries:    3,
		Workers:       4,
	}
}

// Load builds the configuration from ENV then flags.
func Load(args []string) (Config, error) {
	cfg := Defaults()
	loadFromEnv(&cfg)

	fs := pflag.NewFlagSet("reconx", pflag.ContinueOnError)
	bindFlags(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	normalize(&cfg)

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func bindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.Domain, "domain", "d", cfg.Domain, "Single target apex domain")
	fs.StringVarP(&cfg.InputFile, "input", "i", cfg.InputFile, "File with one target domain per line")
	fs.BoolVar(&cfg.ListPlugins, "list-plugins", false, "List every available source and exit")
	fs.BoolVar(&cfg.LintPlugins, "lint-plugins", false, "Validate every source descriptor and exit")

	fs.StringSliceVar(&cfg.UsePlugins, "use-plugins", cfg.UsePlugins, "Only use these sources (comma separated)")
	fs.StringSliceVar(&cfg.ExcludePlugins, "exclude-plugins", cfg.ExcludePlugins, "Skip these sources (comma separated)")
	fs.StringVar(&cfg.SourcesFile, "sources-file", cfg.SourcesFile, "YAML sidecar file with extra source descriptors")

	fs.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output file (.txt .csv .json .html .burp .gnmap; %d expands to the domain)")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite an existing output file")
	fs.StringVar(&cfg.HTMLTemplate, "html-template", cfg.HTMLTemplate, "Custom template for .html reports")

	fs.Float64VarP(&cfg.TimeoutS, "timeout", "t", cfg.TimeoutS, "Per-task timeout in seconds")
	fs.Float64Var(&cfg.GlobalTimeoutS, "global-timeout", cfg.GlobalTimeoutS, "Whole-target timeout in seconds (0 = none)")
	fs.IntVar(&cfg.MaxSubdomains, "max-subdomains", cfg.MaxSubdomains, "Maximum subdomains kept per target")
	fs.IntVar(&cfg.APIRetries, "api-retries", cfg.APIRetries, "API attempt budget per source")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Worker pool size for blocking calls")

	fs.BoolVar(&cfg.Wayback, "wayback", false, "Enable the built-in Wayback Machine source (slow)")
	fs.BoolVar(&cfg.ResolveIP, "resolve-ip", false, "Resolve found subdomains to A records")
	fs.BoolVar(&cfg.ASNLookup, "asn-lookup", false, "Look up ASN info for resolved addresses (needs --resolve-ip)")
	fs.BoolVar(&cfg.Insecure, "insecure", false, "Skip TLS certificate verification")

	fs.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Directory for per-target result caching")
	fs.BoolVar(&cfg.NoCache, "no-cache", false, "Bypass the cache for this run")

	fs.BoolVarP(&cfg.Silent, "silent", "s", false, "Only print errors")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Emit log lines as JSON objects")
	fs.BoolVar(&cfg.NoLiveUI, "no-live-ui", false, "Disable the live progress table")
	fs.BoolVar(&cfg.PrintVersion, "version", false, "Print version and exit")
}

func loadFromEnv(cfg *Config) {
	if v := getenv("RECONX_CACHE_DIR", ""); v != "" {
		cfg.CacheDir = v
	}
	if v := getenv("RECONX_SOURCES_FILE", ""); v != "" {
		cfg.SourcesFile = v
	}
	if v := getenv("RECONX_TIMEOUT", ""); v != "" {
		cfg.TimeoutS = parseFloat(v, cfg.TimeoutS)
	}
	if v := getenv("RECONX_API_RETRIES", ""); v != "" {
		cfg.APIRetries = parseInt(v, cfg.APIRetries)
	}
	if v := getenv("RECONX_WORKERS", ""); v != "" {
		cfg.Workers = parseInt(v, cfg.Workers)
	}
	if v := getenv("RECONX_MAX_SUBDOMAINS", ""); v != "" {
		cfg.MaxSubdomains = parseInt(v, cfg.MaxSubdomains)
	}
	if v := getenv("RECONX_INSECURE", ""); v != "" {
		cfg.Insecure = parseBool(v)
	}
	if v := getenv("RECONX_LOG_FORMAT", ""); v != "" {
		cfg.LogJSON = strings.EqualFold(strings.TrimSpace(v), "json")
	}
}

func normalize(c *Config) {
	c.Domain = strings.TrimSpace(c.Domain)
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.APIRetries < 1 {
		c.APIRetries = 1
	}
	if c.TimeoutS <= 0 {
		c.TimeoutS = 15
	}
	if c.GlobalTimeoutS < 0 {
		c.GlobalTimeoutS = 0
	}
	if c.MaxSubdomains < 0 {
		c.MaxSubdomains = 0
	}
}

func validate(c Config) error {
	targets := 0
	if c.Domain != "" {
		targets++
	}
	if c.InputFile != "" {
		targets++
	}
	if c.ListPlugins {
		targets++
	}
	if c.LintPlugins {
		targets++
	}
	if targets == 0 {
		return fmt.Errorf("one of --domain, --input, --list-plugins, --lint-plugins is required")
	}
	if targets > 1 {
		return fmt.Errorf("--domain, --input, --list-plugins, --lint-plugins are mutually exclusive")
	}

	if len(c.UsePlugins) > 0 && len(c.ExcludePlugins) > 0 {
		return fmt.Errorf("--use-plugins and --exclude-plugins are mutually exclusive")
	}

	if c.ASNLookup && !c.ResolveIP {
		return fmt.Errorf("--asn-lookup requires --resolve-ip")
	}

	if c.HTMLTemplate != "" && !strings.HasSuffix(c.Output, ".html") {
		return fmt.Errorf("--html-template requires an .html output file")
	}

	return nil
}

// Timeout returns the per-task timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutS * float64(time.Second))
}

// GlobalTimeout returns the whole-target timeout (0 = unbounded).
func (c Config) GlobalTimeout() time.Duration {
	return time.Duration(c.GlobalTimeoutS * float64(time.Second))
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func parseFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}
