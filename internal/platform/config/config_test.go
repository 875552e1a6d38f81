package config

import (
	"testing"
	"time"

	"reconx/internal/testutil"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{"-d", "example.com"})
	testutil.AssertNoError(t, err, "load")

	testutil.AssertEqual(t, cfg.Domain, "example.com", "domain")
	testutil.AssertEqual(t, cfg.TimeoutS, 15.0, "default timeout")
	testutil.AssertEqual(t, cfg.APIRetries, 3, "default retries")
	testutil.AssertEqual(t, cfg.MaxSubdomains, 25000, "default cap")
	testutil.AssertEqual(t, cfg.Workers, 4, "default workers")
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"-d", "example.com",
		"-t", "30",
		"--global-timeout", "120",
		"--api-retries", "5",
		"--cache-dir", "/tmp/cache",
		"--wayback",
		"--use-plugins", "crtsh,subfinder",
	})
	testutil.AssertNoError(t, err, "load")

	testutil.AssertEqual(t, cfg.Timeout(), 30*time.Second, "timeout")
	testutil.AssertEqual(t, cfg.GlobalTimeout(), 120*time.Second, "global timeout")
	testutil.AssertEqual(t, cfg.APIRetries, 5, "retries")
	testutil.AssertEqual(t, cfg.CacheDir, "/tmp/cache", "cache dir")
	testutil.AssertTrue(t, cfg.Wayback, "wayback on")
	testutil.AssertStringsEqual(t, cfg.UsePlugins, []string{"crtsh", "subfinder"}, "include list")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("RECONX_TIMEOUT", "45")
	t.Setenv("RECONX_CACHE_DIR", "/var/cache/reconx")

	cfg, err := Load([]string{"-d", "example.com"})
	testutil.AssertNoError(t, err, "load")

	testutil.AssertEqual(t, cfg.TimeoutS, 45.0, "env timeout")
	testutil.AssertEqual(t, cfg.CacheDir, "/var/cache/reconx", "env cache dir")
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("RECONX_TIMEOUT", "45")

	cfg, err := Load([]string{"-d", "example.com", "-t", "60"})
	testutil.AssertNoError(t, err, "load")
	testutil.AssertEqual(t, cfg.TimeoutS, 60.0, "flag wins")
}

func TestLogJSON(t *testing.T) {
	t.Run("flag", func(t *testing.T) {
		cfg, err := Load([]string{"-d", "example.com", "--log-json"})
		testutil.AssertNoError(t, err, "load")
		testutil.AssertTrue(t, cfg.LogJSON, "flag enables json logs")
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("RECONX_LOG_FORMAT", "json")
		cfg, err := Load([]string{"-d", "example.com"})
		testutil.AssertNoError(t, err, "load")
		testutil.AssertTrue(t, cfg.LogJSON, "env enables json logs")
	})
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no target", []string{}},
		{"domain and input", []string{"-d", "a.com", "-i", "list.txt"}},
		{"use and exclude", []string{"-d", "a.com", "--use-plugins", "x", "--exclude-plugins", "y"}},
		{"asn without resolve", []string{"-d", "a.com", "--asn-lookup"}},
		{"html template without html output", []string{"-d", "a.com", "--html-template", "x.tmpl", "-o", "out.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			testutil.AssertError(t, err, "should be rejected")
		})
	}
}

func TestNormalizeClamps(t *testing.T) {
	cfg, err := Load([]string{"-d", "example.com", "--workers", "0", "--api-retries", "-1", "--global-timeout", "-5"})
	testutil.AssertNoError(t, err, "load")

	testutil.AssertEqual(t, cfg.Workers, 1, "workers clamped")
	testutil.AssertEqual(t, cfg.APIRetries, 1, "retries clamped")
	testutil.AssertEqual(t, cfg.GlobalTimeout(), time.Duration(0), "negative global timeout cleared")
}
