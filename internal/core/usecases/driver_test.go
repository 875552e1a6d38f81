package usecases

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/cache"
	"reconx/internal/platform/logx"
	"reconx/internal/testutil"
)

func newTestDriver(t *testing.T, descriptors map[string]ports.Descriptor, store *cache.Store) (*Driver, *[]bool) {
	t.Helper()

	var emitted []bool
	driver := &Driver{
		Logger:       logx.NewSilent(),
		Orchestrator: newTestOrchestrator(t, ports.NoopSink{}),
		Descriptors:  descriptors,
		Cache:        store,
		CacheHash:    cache.PluginHash("8.0.0", descriptorNames(descriptors), nil),
		Emit: func(_ context.Context, _ domain.Target, _ *domain.TargetReport, fromCache bool) error {
			emitted = append(emitted, fromCache)
			return nil
		},
	}
	return driver, &emitted
}

func descriptorNames(descriptors map[string]ports.Descriptor) []string {
	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}
	return names
}

func TestDriverScanThenCacheHit(t *testing.T) {
	store, err := cache.NewStore(t.TempDir(), "8.0.0", logx.NewSilent())
	testutil.AssertNoError(t, err, "store")

	descriptors := map[string]ports.Descriptor{
		"emitter": toolDescriptorArgv("emitter", "printf", `a.example.com\nb.example.com\n`),
	}

	driver, emitted := newTestDriver(t, descriptors, store)
	target := testTarget(t)

	// First run scans live.
	result := driver.Run(context.Background(), []domain.Target{target})
	testutil.AssertEqual(t, result.Processed, 1, "first run processed")
	testutil.AssertEqual(t, (*emitted)[0], false, "first emit is live")

	// Second run is served from cache.
	result = driver.Run(context.Background(), []domain.Target{target})
	testutil.AssertEqual(t, result.Processed, 1, "second run processed")
	testutil.AssertEqual(t, (*emitted)[1], true, "second emit is cached")
}

func TestDriverWithoutCache(t *testing.T) {
	descriptors := map[string]ports.Descriptor{
		"emitter": toolDescriptorArgv("emitter", "printf", `a.example.com\n`),
	}

	driver, emitted := newTestDriver(t, descriptors, nil)
	result := driver.Run(context.Background(), []domain.Target{testTarget(t)})

	testutil.AssertEqual(t, result.Processed, 1, "processed")
	testutil.AssertEqual(t, len(*emitted), 1, "emitted once")
}

func TestDriverGlobalTimeoutContinuesBatch(t *testing.T) {
	descriptors := map[string]ports.Descriptor{
		"slow": toolDescriptorArgv("slow", "sleep", "10"),
	}

	driver, _ := newTestDriver(t, descriptors, nil)
	driver.GlobalTimeout = 150 * time.Millisecond

	slow := testTarget(t)
	other, err := domain.NewTarget("other.example")
	testutil.AssertNoError(t, err, "second target")

	start := time.Now()
	result := driver.Run(context.Background(), []domain.Target{slow, other})

	testutil.AssertEqual(t, result.Failed, 2, "both targets timed out")
	testutil.AssertTrue(t, time.Since(start) < 5*time.Second, "timeouts fired per target")
}

func TestDriverIDNTargetUsesASCIICacheFile(t *testing.T) {
	dir := t.TempDir()
	store, err := cache.NewStore(dir, "8.0.0", logx.NewSilent())
	testutil.AssertNoError(t, err, "store")

	descriptors := map[string]ports.Descriptor{
		"emitter": toolDescriptorArgv("emitter", "printf", `a.xn--bcher-kva.example\n`),
	}

	driver, _ := newTestDriver(t, descriptors, store)

	target, err := domain.NewTarget("bücher.example")
	testutil.AssertNoError(t, err, "idn target")

	result := driver.Run(context.Background(), []domain.Target{target})
	testutil.AssertEqual(t, result.Processed, 1, "processed")

	// The cache filename carries the punycoded apex.
	matches, err := filepath.Glob(filepath.Join(dir, "xn--bcher-kva.example-*.json"))
	testutil.AssertNoError(t, err, "glob")
	testutil.AssertEqual(t, len(matches), 1, "ascii-named cache file")
}

func TestDriverMaxSubdomainsCap(t *testing.T) {
	descriptors := map[string]ports.Descriptor{
		"emitter": toolDescriptorArgv("emitter", "printf", `a.example.com\nb.example.com\nc.example.com\n`),
	}

	var got *domain.TargetReport
	driver, _ := newTestDriver(t, descriptors, nil)
	driver.MaxSubdomains = 2
	driver.Emit = func(_ context.Context, _ domain.Target, report *domain.TargetReport, _ bool) error {
		got = report
		return nil
	}

	driver.Run(context.Background(), []domain.Target{testTarget(t)})

	testutil.AssertEqual(t, got.Total(), 2, "capped size")
	testutil.AssertStringsEqual(t, got.Subdomains, []string{"a.example.com", "b.example.com"}, "kept smallest")
}
