package usecases

import (
	"context"
	"sort"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/cache"
	"reconx/internal/platform/logx"
)

// ProgressUI is the driver-facing progress surface: the engine callback
// plus per-target lifecycle hooks for the renderer.
type ProgressUI interface {
	ports.ProgressSink

	// Begin announces a new target and its selected sources.
	Begin(target string, sources []string)

	// End closes out the current target's display.
	End()
}

// Driver iterates the input targets: cache consult, scan on miss, cache
// write, output emit. Individual target failures never abort the batch.
type Driver struct {
	Logger       logx.Logger
	Orchestrator *Orchestrator
	Descriptors  map[string]ports.Descriptor
	Cache        *cache.Store // nil disables caching
	CacheHash    string

	// Version is the engine version stamped into scan metadata.
	Version string

	// GlobalTimeout bounds one whole target scan (0 = unbounded).
	GlobalTimeout time.Duration

	// MaxSubdomains caps a report's size (0 = uncapped).
	MaxSubdomains int

	UI ProgressUI

	// Emit hands a finished report to the output side. fromCache marks
	// cache hits.
	Emit func(ctx context.Context, target domain.Target, report *domain.TargetReport, fromCache bool) error
}

// BatchResult summarizes one driver run.
type BatchResult struct {
	Processed int
	Failed    int
}

// Run processes every target in order and reports how many completed.
func (d *Driver) Run(ctx context.Context, targets []domain.Target) BatchResult {
	names := make([]string, 0, len(d.Descriptors))
	for name := range d.Descriptors {
		names = append(names, name)
	}
	sort.Strings(names)

	var result BatchResult

	for _, target := range targets {
		if ctx.Err() != nil {
			d.Logger.Warn("batch interrupted", "remaining", len(targets)-result.Processed-result.Failed)
			break
		}

		if d.processTarget(ctx, target, names) {
			result.Processed++
		} else {
			result.Failed++
		}
	}

	return result
}

// processTarget handles one target end to end. Returns true when a
// report was produced (from cache or a live scan).
func (d *Driver) processTarget(ctx context.Context, target domain.Target, sourceNames []string) bool {
	logger := d.Logger.With("target", target.ASCII)

	if d.Cache != nil {
		if report, ok := d.Cache.Read(ctx, target.ASCII, d.CacheHash); ok {
			logger.Info("loaded from cache", "subdomains", report.Total())
			d.emit(ctx, logger, target, report, true)
			return true
		}
	}

	scanCtx := ctx
	if d.GlobalTimeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, d.GlobalTimeout)
		defer cancel()
	}

	meta := domain.NewScanMetadata(target.ASCII, d.Version, sourceNames)
	logger = logger.With("scan_id", meta.ScanID)

	if d.UI != nil {
		d.UI.Begin(target.ASCII, sourceNames)
	}

	report, err := d.Orchestrator.Run(scanCtx, target, d.Descriptors)
	meta.Duration = time.Since(meta.StartTime)

	if d.UI != nil {
		d.UI.End()
	}

	if err != nil {
		logger.Warn("scan aborted", "error", err.Error(), "global_timeout", d.GlobalTimeout.String())
		return false
	}

	if d.MaxSubdomains > 0 && report.Truncate(d.MaxSubdomains) {
		logger.Warn("result truncated", "max_subdomains", d.MaxSubdomains)
	}

	logger.Info("scan finished", "subdomains", report.Total(), "elapsed_ms", meta.Duration.Milliseconds())

	if d.Cache != nil {
		if err := d.Cache.Write(ctx, target.ASCII, d.CacheHash, report); err != nil {
			logger.Warn("cache write failed", "error", err.Error())
		}
	}

	d.emit(ctx, logger, target, report, false)
	return true
}

func (d *Driver) emit(ctx context.Context, logger logx.Logger, target domain.Target, report *domain.TargetReport, fromCache bool) {
	if d.Emit == nil {
		return
	}
	if err := d.Emit(ctx, target, report, fromCache); err != nil {
		logger.Warn("output failed", "error", err.Error())
	}
}
