// Package output renders finished target reports into the supported
// textual formats: txt, csv, json, html, plus burp and gnmap target
// lists.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reconx/internal/core/domain"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
)

// HostDetail carries optional per-subdomain enrichment (resolved
// addresses and ASN info) attached at output time.
type HostDetail struct {
	IPs []IPDetail
}

// IPDetail is one resolved address with optional ASN data.
type IPDetail struct {
	Address string `json:"address"`
	ASN     string `json:"asn,omitempty"`
	Org     string `json:"org,omitempty"`
}

// Options controls where and how a report is written.
type Options struct {
	// Path is the output file; "%d" expands to the domain. For batches
	// of several targets without a placeholder, an index suffix is
	// inserted before the extension.
	Path string

	Overwrite    bool
	DomainIndex  int
	TotalDomains int

	// HTMLTemplate optionally overrides the embedded report template.
	HTMLTemplate string
}

// Write renders the report to the configured file. A pre-existing file
// without Overwrite, and a path escaping the working directory, are both
// warnings that skip the write; they never fail the run.
func Write(logger logx.Logger, domainName string, report *domain.TargetReport, details map[string]HostDetail, opts Options) error {
	if opts.Path == "" {
		return nil
	}

	if report.Total() == 0 && !strings.HasSuffix(opts.Path, ".html") {
		logger.Warn("no subdomains to write, skipping output", "target", domainName)
		return nil
	}

	path := opts.Path
	if !strings.Contains(path, "%") && opts.TotalDomains > 1 {
		ext := filepath.Ext(path)
		path = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), opts.DomainIndex, ext)
	}
	path = strings.ReplaceAll(path, "%d", domainName)

	ok, err := underWorkingDir(path)
	if err != nil {
		return errors.Wrapf(err, "invalid output path %s", path)
	}
	if !ok {
		logger.Warn("output path escapes the working directory, skipping write", "path", path)
		return nil
	}

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		logger.Warn("output file exists, use --overwrite to replace it", "path", path)
		return nil
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	var render func(string, string, *domain.TargetReport, map[string]HostDetail, Options) error

	switch ext {
	case "txt":
		render = writeTxt
	case "csv":
		render = writeCSV
	case "json":
		render = writeJSON
	case "html":
		render = writeHTML
	case "burp":
		render = writeBurp
	case "gnmap":
		render = writeGnmap
	default:
		logger.Warn("unknown output format, writing plain text", "format", ext)
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
		render = writeTxt
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "cannot create output dir %s", dir)
		}
	}

	if err := render(path, domainName, report, details, opts); err != nil {
		return err
	}

	logger.Info("results written", "target", domainName, "path", path)
	return nil
}

// underWorkingDir reports whether path resolves inside the current
// working directory.
func underWorkingDir(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil {
		return false, err
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
