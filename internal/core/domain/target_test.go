package domain

import (
	"testing"

	"reconx/internal/testutil"
)

func TestNewTarget(t *testing.T) {
	t.Run("ascii target", func(t *testing.T) {
		target, err := NewTarget("Example.COM")
		testutil.AssertNoError(t, err, "NewTarget")
		testutil.AssertEqual(t, target.ASCII, "example.com", "ascii apex")
	})

	t.Run("idn target is punycoded", func(t *testing.T) {
		target, err := NewTarget("bücher.example")
		testutil.AssertNoError(t, err, "NewTarget")
		testutil.AssertEqual(t, target.ASCII, "xn--bcher-kva.example", "ascii apex")
		testutil.AssertEqual(t, target.Raw, "bücher.example", "raw preserved")
	})

	t.Run("wildcard prefix stripped", func(t *testing.T) {
		target, err := NewTarget("*.example.com")
		testutil.AssertNoError(t, err, "NewTarget")
		testutil.AssertEqual(t, target.ASCII, "example.com", "ascii apex")
	})

	t.Run("invalid target rejected", func(t *testing.T) {
		for _, raw := range []string{"", "1.2.3.4", "2001:db8::1", "bad-.com", "foo.1"} {
			_, err := NewTarget(raw)
			testutil.AssertError(t, err, "NewTarget("+raw+")")
		}
	})
}

func TestTargetInScope(t *testing.T) {
	target, err := NewTarget("example.com")
	testutil.AssertNoError(t, err, "NewTarget")

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"direct subdomain", "a.example.com", true},
		{"deep subdomain", "a.b.example.com", true},
		{"apex itself", "example.com", false},
		{"sibling", "evil.org", false},
		{"suffix trick", "notexample.com", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, target.InScope(tt.input), tt.expected, "scope check")
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	testutil.AssertFalse(t, StatusPending.Terminal(), "pending")
	testutil.AssertFalse(t, StatusRunning.Terminal(), "running")
	testutil.AssertTrue(t, StatusCompleted.Terminal(), "completed")
	testutil.AssertTrue(t, StatusFailed.Terminal(), "failed")
	testutil.AssertTrue(t, StatusTimeout.Terminal(), "timeout")
}

func TestNewTargetReport(t *testing.T) {
	set := map[string]struct{}{
		"b.example.com": {},
		"a.example.com": {},
		"c.example.com": {},
	}
	report := NewTargetReport(set, map[string]int{"crtsh": 2, "subfinder": 1})

	testutil.AssertStringsEqual(t, report.Subdomains,
		[]string{"a.example.com", "b.example.com", "c.example.com"}, "sorted subdomains")
	testutil.AssertEqual(t, report.Total(), 3, "total")
}

func TestTargetReportTruncate(t *testing.T) {
	report := NewTargetReport(map[string]struct{}{
		"a.x.co": {}, "b.x.co": {}, "c.x.co": {},
	}, nil)

	testutil.AssertFalse(t, report.Truncate(0), "zero max is no-op")
	testutil.AssertFalse(t, report.Truncate(5), "large max is no-op")
	testutil.AssertTrue(t, report.Truncate(2), "truncates")
	testutil.AssertStringsEqual(t, report.Subdomains, []string{"a.x.co", "b.x.co"}, "kept smallest")
}
