// Package registry manages the registration and gating of source
// descriptors. Built-in sources register themselves at init(); sidecar
// descriptor files add more at startup.
package registry

import (
	"os/exec"
	"sort"
	"strings"
	"sync"

	"reconx/internal/core/ports"
	"reconx/internal/platform/logx"
)

// Registry holds registered source descriptors keyed by name.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]ports.Descriptor
	logger      logx.Logger
}

var globalRegistry *Registry
var once sync.Once

// Global returns the process-wide registry instance.
func Global() *Registry {
	once.Do(func() {
		globalRegistry = New(logx.New())
	})
	return globalRegistry
}

// New creates an empty registry.
func New(logger logx.Logger) *Registry {
	return &Registry{
		descriptors: make(map[string]ports.Descriptor),
		logger:      logger.With("component", "registry"),
	}
}

// Register adds a descriptor. A duplicate name replaces the previous
// registration (last write wins) with a warning.
func (r *Registry) Register(d ports.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[d.Name]; exists {
		r.logger.Warn("duplicate source name, replacing previous registration", "source", d.Name)
	}
	r.descriptors[d.Name] = d

	return nil
}

// Names returns all registered descriptor names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a registered descriptor.
func (r *Registry) Get(name string) (ports.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[name]
	return d, ok
}

// Clear removes all registrations (useful for testing).
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors = make(map[string]ports.Descriptor)
}

// GateOptions controls descriptor selection. Include and Exclude are
// mutually exclusive at the input surface; names match case-insensitively.
type GateOptions struct {
	Include []string
	Exclude []string

	// LookPath resolves a tool's executable; defaults to exec.LookPath.
	// Overridable for tests.
	LookPath func(file string) (string, error)
}

// Load applies the gating policy and returns the surviving descriptors
// keyed by name. Gate order: contract check, include/exclude lists, and
// for tools a PATH resolution of the first argv token. Every skip is
// logged with its reason.
func (r *Registry) Load(logger logx.Logger, opts GateOptions) map[string]ports.Descriptor {
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	include := lowerSet(opts.Include)
	exclude := lowerSet(opts.Exclude)

	r.mu.RLock()
	defer r.mu.RUnlock()

	selected := make(map[string]ports.Descriptor, len(r.descriptors))

	for name, d := range r.descriptors {
		if err := d.Validate(); err != nil {
			logger.Warn("source skipped: contract violation", "source", name, "error", err.Error())
			continue
		}

		lower := strings.ToLower(name)
		if len(include) > 0 {
			if _, ok := include[lower]; !ok {
				logger.Debug("source skipped: not in include list", "source", name)
				continue
			}
		}
		if _, ok := exclude[lower]; ok {
			logger.Debug("source skipped: excluded", "source", name)
			continue
		}

		if d.Kind == ports.KindTool {
			argv := d.Tool.BuildCommand("example.com")
			if _, err := lookPath(argv[0]); err != nil {
				logger.Warn("source skipped: tool not installed", "source", name, "binary", argv[0])
				continue
			}
		}

		selected[name] = d
	}

	return selected
}

func lowerSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
