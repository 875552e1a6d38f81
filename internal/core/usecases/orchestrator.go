package usecases

import (
	"context"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/httpclient"
	"reconx/internal/platform/logx"
	"reconx/internal/platform/validator"
	"reconx/internal/platform/workerpool"
)

// Orchestrator fans one target out to every selected source, merges the
// results in completion order, and applies the scope filter.
type Orchestrator struct {
	client  *httpclient.Client
	pool    *workerpool.Pool
	sink    ports.ProgressSink
	logger  logx.Logger
	timeout time.Duration
	retries int
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Client *httpclient.Client
	Pool   *workerpool.Pool
	Sink   ports.ProgressSink
	Logger logx.Logger

	// TaskTimeout bounds each runner invocation.
	TaskTimeout time.Duration

	// APIRetries is the per-source API attempt budget.
	APIRetries int
}

// NewOrchestrator builds an orchestrator.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Sink == nil {
		opts.Sink = ports.NoopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}

	return &Orchestrator{
		client:  opts.Client,
		pool:    opts.Pool,
		sink:    opts.Sink,
		logger:  opts.Logger.With("component", "orchestrator"),
		timeout: opts.TaskTimeout,
		retries: opts.APIRetries,
	}
}

// Run executes all descriptors against the target and aggregates their
// results. A failing source never cancels its peers; ctx cancellation
// (the global per-target timeout) is the only thing that stops the fan-
// out early, and even then every runner delivers a terminal status.
//
// Contribution credit is assigned strictly in completion order: each
// source is credited with the names it was first to deliver. That order
// is nondeterministic by design; only the credit totals are contractual.
func (o *Orchestrator) Run(ctx context.Context, target domain.Target, descriptors map[string]ports.Descriptor) (*domain.TargetReport, error) {
	scope := scopeFilter(target)

	results := make(chan domain.SourceResult, len(descriptors))

	g, gctx := errgroup.WithContext(ctx)
	for _, desc := range descriptors {
		runner := NewRunner(RunnerOptions{
			Descriptor: desc,
			Client:     o.client,
			Pool:       o.pool,
			Sink:       o.sink,
			Logger:     o.logger,
			Timeout:    o.timeout,
			Retries:    o.retries,
		})
		g.Go(func() error {
			results <- runner.Run(gctx, target)
			return nil
		})
	}

	union := make(map[string]struct{})
	contributions := make(map[string]int)

	// Merge as results land. Names outside the target subtree are
	// dropped before crediting so contribution totals can never exceed
	// the final set size.
	for range descriptors {
		res := <-results

		fresh := 0
		for _, name := range res.Subdomains {
			if !scope.MatchString(name) {
				o.logger.Debug("dropped out-of-scope name", "source", res.Source, "name", name)
				continue
			}
			if _, known := union[name]; known {
				continue
			}
			union[name] = struct{}{}
			fresh++
		}
		contributions[res.Source] = fresh

		o.logger.Info("source finished",
			"source", res.Source,
			"status", string(res.Status),
			"found", len(res.Subdomains),
			"new", fresh,
		)
	}

	_ = g.Wait()

	report := domain.NewTargetReport(union, contributions)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// scopeFilter compiles the in-scope pattern for a target: one or more
// valid labels followed by the apex. The apex alone does not match.
func scopeFilter(target domain.Target) *regexp.Regexp {
	return regexp.MustCompile(`^(` + validator.LabelPattern + `\.)+` + regexp.QuoteMeta(target.ASCII) + `$`)
}
