// Package usecases implements the engine's execution layer: the
// per-source runner, the per-target orchestrator, and the batch driver.
package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/httpclient"
	"reconx/internal/platform/logx"
	"reconx/internal/platform/validator"
	"reconx/internal/platform/workerpool"
)

// Runner executes one source against one target. Every failure mode is
// converted into a terminal status; Run never reports an error upward.
type Runner struct {
	desc    ports.Descriptor
	client  *httpclient.Client
	pool    *workerpool.Pool
	sink    ports.ProgressSink
	logger  logx.Logger
	timeout time.Duration
	retries int

	// sleep is the backoff wait, injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Descriptor ports.Descriptor
	Client     *httpclient.Client
	Pool       *workerpool.Pool
	Sink       ports.ProgressSink
	Logger     logx.Logger

	// Timeout bounds one tool run, or each individual API attempt.
	Timeout time.Duration

	// Retries is the total API attempt budget. Tools are never retried.
	Retries int
}

// NewRunner builds a runner for one (descriptor, target) execution.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Sink == nil {
		opts.Sink = ports.NoopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}

	return &Runner{
		desc:    opts.Descriptor,
		client:  opts.Client,
		pool:    opts.Pool,
		sink:    opts.Sink,
		logger:  opts.Logger.With("source", opts.Descriptor.Name),
		timeout: opts.Timeout,
		retries: opts.Retries,
		sleep:   sleepCtx,
	}
}

// Run executes the source and returns its terminal result.
func (r *Runner) Run(ctx context.Context, target domain.Target) domain.SourceResult {
	r.sink.Update(ctx, r.desc.Name, 0, domain.StatusRunning)

	var (
		names  []string
		status domain.Status
	)

	switch r.desc.Kind {
	case ports.KindTool:
		names, status = r.runTool(ctx, target)
	case ports.KindAPI:
		names, status = r.runAPI(ctx, target)
	default:
		r.logger.Warn("unknown source kind", "kind", string(r.desc.Kind))
		status = domain.StatusFailed
	}

	r.sink.Update(ctx, r.desc.Name, len(names), status)

	return domain.SourceResult{
		Source:     r.desc.Name,
		Status:     status,
		Subdomains: names,
	}
}

// runTool launches the subprocess and harvests stdout lines. Stdin is
// closed; stdout and stderr are captured with invalid UTF-8 replaced.
func (r *Runner) runTool(ctx context.Context, target domain.Target) ([]string, domain.Status) {
	argv := r.desc.Tool.BuildCommand(target.ASCII)
	if len(argv) == 0 {
		r.logger.Warn("tool built an empty command")
		return nil, domain.StatusFailed
	}

	taskCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(taskCtx, argv[0], argv[1:]...)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// The wait itself is a blocking call; run it on the pool so the
	// scan path never stalls on process reaping.
	_, err := r.pool.Submit(taskCtx, func() (any, error) {
		return nil, cmd.Run()
	})

	if err != nil {
		if taskCtx.Err() != nil {
			r.logger.Warn("tool timed out", "timeout", r.timeout.String())
			return nil, domain.StatusTimeout
		}
		r.logger.Warn("tool failed",
			"error", err.Error(),
			"stderr", strings.TrimSpace(toValidUTF8(stderr.String())),
		)
		return nil, domain.StatusFailed
	}

	return collectNames(strings.Split(toValidUTF8(stdout.String()), "\n")), domain.StatusCompleted
}

// runAPI queries the endpoint with the retry budget. Transport errors,
// status >= 400, decode failures, and parse contract violations all
// consume an attempt; backoff sleeps 2^k seconds before attempt k+1.
func (r *Runner) runAPI(ctx context.Context, target domain.Target) ([]string, domain.Status) {
	url := r.desc.API.ExpandURL(target.ASCII)
	headers := r.authHeaders()

	for attempt := 0; attempt < r.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if err := r.sleep(ctx, backoff); err != nil {
				return nil, cancelStatus(ctx)
			}
		}

		names, err := r.attempt(ctx, url, headers)
		if err == nil {
			return names, domain.StatusCompleted
		}

		if ctx.Err() != nil {
			return nil, cancelStatus(ctx)
		}

		if attempt < r.retries-1 {
			r.logger.Debug("api attempt failed, retrying",
				"attempt", attempt+1,
				"retries", r.retries,
				"error", err.Error(),
			)
		} else {
			r.logger.Warn("api failed after all attempts",
				"attempts", r.retries,
				"error", err.Error(),
			)
		}
	}

	return nil, domain.StatusFailed
}

// attempt performs one HTTP GET, decode, and parse cycle.
func (r *Runner) attempt(ctx context.Context, url string, headers map[string]string) ([]string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.Get(attemptCtx, url, headers)
	if err != nil {
		return nil, err
	}

	if err := httpclient.CheckStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	var payload any
	if r.desc.API.JSON {
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidResponse, err.Error())
		}
	} else {
		payload = toValidUTF8(string(body))
	}

	// Parse is plugin code of unknown cost; bridge it to the pool.
	value, err := r.pool.Submit(attemptCtx, func() (any, error) {
		names, parseErr := r.desc.API.Parse(payload)
		if parseErr != nil {
			return nil, errors.Contract(r.desc.Name, parseErr.Error())
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}

	raw, ok := value.([]string)
	if !ok {
		return nil, errors.Contract(r.desc.Name, "parser returned unexpected type")
	}

	return collectNames(raw), nil
}

// authHeaders builds the auth header declared by the descriptor, if any.
// An unset environment variable omits the header entirely.
func (r *Runner) authHeaders() map[string]string {
	auth := r.desc.API.Auth
	if auth == nil {
		return nil
	}

	if auth.EnvVar != "" {
		if key := os.Getenv(auth.EnvVar); key != "" {
			return map[string]string{"Authorization": "Bearer " + key}
		}
		return nil
	}
	if auth.Header != "" {
		return map[string]string{"Authorization": auth.Header}
	}
	return nil
}

// collectNames normalizes and validates raw candidates, deduplicating
// within the source. The result is sorted for determinism.
func collectNames(raw []string) []string {
	set := make(map[string]struct{}, len(raw))
	for _, line := range raw {
		name := validator.Normalize(line)
		if name == "" || !validator.IsValid(name) {
			continue
		}
		set[name] = struct{}{}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cancelStatus maps context termination onto a terminal status.
func cancelStatus(ctx context.Context) domain.Status {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.StatusTimeout
	}
	return domain.StatusFailed
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}
