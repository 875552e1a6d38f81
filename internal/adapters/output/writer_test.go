package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reconx/internal/core/domain"
	"reconx/internal/platform/logx"
	"reconx/internal/testutil"
)

func sampleReport() *domain.TargetReport {
	return &domain.TargetReport{
		Contributions: map[string]int{"crtsh": 2, "subfinder": 1},
		Subdomains:    []string{"a.example.com", "b.example.com", "c.example.com"},
	}
}

func sampleDetails() map[string]HostDetail {
	return map[string]HostDetail{
		"a.example.com": {IPs: []IPDetail{{Address: "192.0.2.1", ASN: "AS64500", Org: "ExampleNet"}}},
	}
}

// chdir pins the working directory so the path-escape guard sees the
// temp dir as cwd.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	testutil.AssertNoError(t, err, "getwd")
	testutil.AssertNoError(t, os.Chdir(dir), "chdir")
	t.Cleanup(func() { os.Chdir(old) })
}

func TestWriteTxt(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	err := Write(logx.NewSilent(), "example.com", sampleReport(), sampleDetails(), Options{Path: "out.txt"})
	testutil.AssertNoError(t, err, "write")

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	testutil.AssertNoError(t, err, "read back")

	content := string(data)
	testutil.AssertTrue(t, strings.Contains(content, "a.example.com [192.0.2.1] [AS64500, ExampleNet]"), "enriched line")
	testutil.AssertTrue(t, strings.Contains(content, "b.example.com\n"), "plain line")
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	err := Write(logx.NewSilent(), "example.com", sampleReport(), sampleDetails(), Options{Path: "out.csv"})
	testutil.AssertNoError(t, err, "write")

	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	testutil.AssertNoError(t, err, "read back")

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	testutil.AssertEqual(t, lines[0], "subdomain,ip,asn,org", "header")
	testutil.AssertEqual(t, len(lines), 4, "one row per subdomain")
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	err := Write(logx.NewSilent(), "example.com", sampleReport(), nil, Options{Path: "out.json"})
	testutil.AssertNoError(t, err, "write")

	data, err := os.ReadFile(filepath.Join(dir, "out.json"))
	testutil.AssertNoError(t, err, "read back")

	var doc struct {
		Contributions map[string]int `json:"contributions"`
		Subdomains    []string       `json:"subdomains"`
	}
	testutil.AssertNoError(t, json.Unmarshal(data, &doc), "valid json")
	testutil.AssertLen(t, doc.Subdomains, 3, "subdomains")
	testutil.AssertEqual(t, doc.Contributions["crtsh"], 2, "contributions")
}

func TestWriteHTML(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	err := Write(logx.NewSilent(), "example.com", sampleReport(), sampleDetails(), Options{Path: "out.html"})
	testutil.AssertNoError(t, err, "write")

	data, err := os.ReadFile(filepath.Join(dir, "out.html"))
	testutil.AssertNoError(t, err, "read back")

	content := string(data)
	testutil.AssertTrue(t, strings.Contains(content, "example.com"), "domain present")
	testutil.AssertTrue(t, strings.Contains(content, "a.example.com"), "subdomain present")
}

func TestWriteBurpAndGnmap(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	testutil.AssertNoError(t,
		Write(logx.NewSilent(), "example.com", sampleReport(), nil, Options{Path: "scope.burp"}), "burp")
	testutil.AssertNoError(t,
		Write(logx.NewSilent(), "example.com", sampleReport(), sampleDetails(), Options{Path: "targets.gnmap"}), "gnmap")

	burp, _ := os.ReadFile(filepath.Join(dir, "scope.burp"))
	testutil.AssertEqual(t, string(burp), "a.example.com\nb.example.com\nc.example.com\n", "burp list")

	gnmap, _ := os.ReadFile(filepath.Join(dir, "targets.gnmap"))
	testutil.AssertTrue(t, strings.Contains(string(gnmap), "192.0.2.1\ta.example.com"), "resolved gnmap row")
	testutil.AssertTrue(t, strings.Contains(string(gnmap), "b.example.com"), "unresolved gnmap row")
}

func TestOverwriteGuard(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "out.txt")
	testutil.AssertNoError(t, os.WriteFile(path, []byte("keep me"), 0o644), "seed file")

	err := Write(logx.NewSilent(), "example.com", sampleReport(), nil, Options{Path: "out.txt"})
	testutil.AssertNoError(t, err, "skip is not an error")

	data, _ := os.ReadFile(path)
	testutil.AssertEqual(t, string(data), "keep me", "file untouched without overwrite")

	err = Write(logx.NewSilent(), "example.com", sampleReport(), nil, Options{Path: "out.txt", Overwrite: true})
	testutil.AssertNoError(t, err, "overwrite")

	data, _ = os.ReadFile(path)
	testutil.AssertNotEqual(t, string(data), "keep me", "file replaced with overwrite")
}

func TestPathEscapeGuard(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	err := Write(logx.NewSilent(), "example.com", sampleReport(), nil, Options{Path: "../escape.txt"})
	testutil.AssertNoError(t, err, "escape is skipped, not fatal")

	_, statErr := os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt"))
	testutil.AssertError(t, statErr, "nothing written outside cwd")
}

func TestDomainPlaceholder(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	err := Write(logx.NewSilent(), "example.com", sampleReport(), nil, Options{Path: "%d.txt"})
	testutil.AssertNoError(t, err, "write")

	_, statErr := os.Stat(filepath.Join(dir, "example.com.txt"))
	testutil.AssertNoError(t, statErr, "placeholder expanded")
}

func TestBatchIndexSuffix(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	err := Write(logx.NewSilent(), "example.com", sampleReport(), nil, Options{
		Path: "out.txt", DomainIndex: 2, TotalDomains: 3,
	})
	testutil.AssertNoError(t, err, "write")

	_, statErr := os.Stat(filepath.Join(dir, "out-2.txt"))
	testutil.AssertNoError(t, statErr, "index suffix applied")
}

func TestUnknownFormatFallsBackToTxt(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	err := Write(logx.NewSilent(), "example.com", sampleReport(), nil, Options{Path: "out.xyz"})
	testutil.AssertNoError(t, err, "write")

	_, statErr := os.Stat(filepath.Join(dir, "out.txt"))
	testutil.AssertNoError(t, statErr, "fell back to txt")
}

func TestEmptyReportSkipped(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	empty := &domain.TargetReport{Contributions: map[string]int{}, Subdomains: []string{}}
	err := Write(logx.NewSilent(), "example.com", empty, nil, Options{Path: "out.txt"})
	testutil.AssertNoError(t, err, "skip is not an error")

	_, statErr := os.Stat(filepath.Join(dir, "out.txt"))
	testutil.AssertError(t, statErr, "no file for empty report")
}
