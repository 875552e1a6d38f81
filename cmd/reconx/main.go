package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"reconx/internal/adapters/output"
	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/core/usecases"
	"reconx/internal/platform/cache"
	"reconx/internal/platform/config"
	"reconx/internal/platform/httpclient"
	"reconx/internal/platform/logx"
	"reconx/internal/platform/registry"
	"reconx/internal/platform/ui"
	"reconx/internal/platform/workerpool"
	"reconx/internal/resolver"
	"reconx/internal/sources"
)

var (
	// Overridable with -ldflags at build time.
	version = "8.0.0"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Try: reconx -h for help")
		return 1
	}

	if cfg.PrintVersion {
		fmt.Printf("reconx %s (%s)\n", version, commit)
		return 0
	}

	logger := logx.New()
	switch {
	case cfg.Silent:
		logger.SetLevel(logx.LevelError)
	case cfg.Debug:
		logger.SetLevel(logx.LevelDebug)
	}
	if cfg.LogJSON {
		logger.SetFormat(logx.FormatJSON)
	}

	// Sidecar descriptors join the built-in catalog before gating.
	if cfg.SourcesFile != "" {
		descriptors, err := sources.LoadSidecar(cfg.SourcesFile)
		if err != nil {
			logger.Err(err, "phase", "sources-file")
			return 1
		}
		for _, d := range descriptors {
			if err := registry.Global().Register(d); err != nil {
				logger.Warn("sidecar source rejected", "source", d.Name, "error", err.Error())
			}
		}
	}

	// The built-in wayback descriptor always wins over a sidecar
	// descriptor of the same name when the feature is enabled.
	if cfg.Wayback {
		for _, d := range sources.Builtin() {
			if d.Name == sources.WaybackName {
				registry.Global().Register(d)
			}
		}
	}

	if cfg.ListPlugins {
		ui.ListPlugins(allDescriptors())
		return 0
	}
	if cfg.LintPlugins {
		if failures := ui.LintPlugins(allDescriptors()); failures > 0 {
			logger.Warn("source validation finished with failures", "failures", failures)
		}
		return 0
	}

	targets, err := loadTargets(cfg, logger)
	if err != nil {
		logger.Err(err, "phase", "targets")
		return 1
	}
	if len(targets) == 0 {
		logger.Err(fmt.Errorf("no valid targets to scan"))
		return 1
	}

	gate := registry.GateOptions{
		Include: cfg.UsePlugins,
		Exclude: cfg.ExcludePlugins,
	}
	if !cfg.Wayback {
		gate.Exclude = append(append([]string{}, gate.Exclude...), sources.WaybackName)
	}

	descriptors := registry.Global().Load(logger, gate)
	if len(descriptors) == 0 {
		logger.Err(fmt.Errorf("no sources survived gating; nothing to scan"))
		return 1
	}
	logger.Info("sources selected", "count", len(descriptors))

	ctx, cancel := rootContextWithSignals()
	defer cancel()

	pool := workerpool.New(workerpool.Config{Workers: cfg.Workers, Logger: logger})
	pool.Start()
	defer pool.Stop()

	httpCfg := httpclient.Config{
		Timeout:            cfg.Timeout(),
		UserAgent:          fmt.Sprintf("reconx/%s", version),
		InsecureSkipVerify: cfg.Insecure,
	}
	client := httpclient.New(httpCfg, logger)
	defer client.CloseIdle()

	var store *cache.Store
	if cfg.CacheDir != "" && !cfg.NoCache {
		store, err = cache.NewStore(cfg.CacheDir, version, logger)
		if err != nil {
			logger.Warn("cache disabled", "error", err.Error())
			store = nil
		}
	}

	var progress usecases.ProgressUI = ui.Quiet{}
	var sink ports.ProgressSink = ports.NoopSink{}
	if !cfg.Silent && !cfg.NoLiveUI {
		ui.Banner(version)
		live := ui.NewLive()
		progress = live
		sink = live
	}

	orch := usecases.NewOrchestrator(usecases.OrchestratorOptions{
		Client:      client,
		Pool:        pool,
		Sink:        sink,
		Logger:      logger,
		TaskTimeout: cfg.Timeout(),
		APIRetries:  cfg.APIRetries,
	})

	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}

	driver := &usecases.Driver{
		Logger:        logger,
		Version:       version,
		Orchestrator:  orch,
		Descriptors:   descriptors,
		Cache:         store,
		CacheHash:     cache.PluginHash(version, names, featureToggles(cfg)),
		GlobalTimeout: cfg.GlobalTimeout(),
		MaxSubdomains: cfg.MaxSubdomains,
		UI:            progress,
		Emit:          emitFunc(cfg, logger, client, len(targets)),
	}

	result := driver.Run(ctx, targets)

	logger.Info("batch finished", "processed", result.Processed, "failed", result.Failed)

	if result.Processed == 0 {
		return 1
	}
	return 0
}

// allDescriptors snapshots the registry for listing and linting.
func allDescriptors() []ports.Descriptor {
	reg := registry.Global()
	names := reg.Names()
	descriptors := make([]ports.Descriptor, 0, len(names))
	for _, name := range names {
		if d, ok := reg.Get(name); ok {
			descriptors = append(descriptors, d)
		}
	}
	return descriptors
}

// loadTargets parses the target surface: one domain or an input file.
// Invalid entries are warned and skipped; an unreadable file is fatal.
func loadTargets(cfg config.Config, logger logx.Logger) ([]domain.Target, error) {
	if cfg.Domain != "" {
		target, err := domain.NewTarget(cfg.Domain)
		if err != nil {
			return nil, err
		}
		return []domain.Target{target}, nil
	}

	f, err := os.Open(cfg.InputFile)
	if err != nil {
		return nil, fmt.Errorf("cannot read input file %s: %w", cfg.InputFile, err)
	}
	defer f.Close()

	var targets []domain.Target
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		target, err := domain.NewTarget(line)
		if err != nil {
			logger.Warn("skipping invalid domain", "input", line)
			continue
		}
		targets = append(targets, target)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read input file %s: %w", cfg.InputFile, err)
	}

	return targets, nil
}

// featureToggles folds the report-shaping feature flags into the cache
// key, exactly like the plugin set does.
func featureToggles(cfg config.Config) []string {
	toggles := make([]string, 0, 3)
	toggles = append(toggles, toggle("wayback", cfg.Wayback))
	toggles = append(toggles, toggle("resolve", cfg.ResolveIP))
	toggles = append(toggles, toggle("asn", cfg.ASNLookup))
	return toggles
}

func toggle(name string, on bool) string {
	if on {
		return name + "-on"
	}
	return name + "-off"
}

// emitFunc builds the output side: optional enrichment, file writing,
// and the console summary.
func emitFunc(cfg config.Config, logger logx.Logger, client *httpclient.Client, totalTargets int) func(context.Context, domain.Target, *domain.TargetReport, bool) error {
	index := 0

	return func(ctx context.Context, target domain.Target, report *domain.TargetReport, fromCache bool) error {
		index++

		if !cfg.Silent {
			origin := ""
			if fromCache {
				origin = " (cached)"
			}
			fmt.Printf("\nFound %d unique subdomains for %s%s\n", report.Total(), target.Raw, origin)
		}

		var details map[string]output.HostDetail
		if cfg.ResolveIP && report.Total() > 0 {
			details = enrich(ctx, cfg, logger, client, report)
		}

		if cfg.Output == "" {
			return nil
		}

		return output.Write(logger, target.ASCII, report, details, output.Options{
			Path:         cfg.Output,
			Overwrite:    cfg.Overwrite,
			DomainIndex:  index,
			TotalDomains: totalTargets,
			HTMLTemplate: cfg.HTMLTemplate,
		})
	}
}

// enrich resolves the final set and optionally attributes ASNs.
func enrich(ctx context.Context, cfg config.Config, logger logx.Logger, client *httpclient.Client, report *domain.TargetReport) map[string]output.HostDetail {
	res := resolver.New(logger)
	logger.Info("resolving subdomains", "count", report.Total())
	ipMap := res.ResolveAll(ctx, report.Subdomains)

	var asnMap map[string]resolver.ASNInfo
	if cfg.ASNLookup {
		unique := make(map[string]struct{})
		for _, ips := range ipMap {
			for _, ip := range ips {
				unique[ip] = struct{}{}
			}
		}
		all := make([]string, 0, len(unique))
		for ip := range unique {
			all = append(all, ip)
		}

		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = ""
		} else {
			cacheDir = cacheDir + string(os.PathSeparator) + "reconx"
		}
		asnMap = resolver.NewASNLookup(client, logger, cacheDir).Lookup(ctx, all)
	}

	details := make(map[string]output.HostDetail, len(ipMap))
	for sub, ips := range ipMap {
		if len(ips) == 0 {
			continue
		}
		detail := output.HostDetail{IPs: make([]output.IPDetail, 0, len(ips))}
		for _, ip := range ips {
			d := output.IPDetail{Address: ip}
			if info, ok := asnMap[ip]; ok {
				d.ASN = info.ASN
				d.Org = info.Org
			}
			detail.IPs = append(detail.IPs, d)
		}
		details[sub] = detail
	}
	return details
}

// rootContextWithSignals creates the root context canceled by SIGINT or
// SIGTERM.
func rootContextWithSignals() (context.Context, context.CancelFunc) {
	base, baseCancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			baseCancel()
		case <-base.Done():
		}
	}()

	cleanup := func() {
		signal.Stop(ch)
		baseCancel()
	}

	return base, cleanup
}
