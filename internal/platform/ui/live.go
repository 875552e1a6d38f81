// Package ui renders terminal output: the live per-source progress
// table, the startup banner, and the plugin listing/linting reports.
package ui

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pterm/pterm"

	"reconx/internal/core/domain"
)

// Live is a progress sink that renders a live status table, one row per
// source, updated as lifecycle events arrive.
type Live struct {
	mu     sync.Mutex
	area   *pterm.AreaPrinter
	target string
	rows   map[string]*row
}

type row struct {
	count  int
	status domain.Status
}

// NewLive creates a live progress renderer.
func NewLive() *Live {
	return &Live{rows: make(map[string]*row)}
}

// Begin starts a fresh table for one target with every source PENDING.
func (l *Live) Begin(target string, sources []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.target = target
	l.rows = make(map[string]*row, len(sources))
	for _, name := range sources {
		l.rows[name] = &row{status: domain.StatusPending}
	}

	pterm.Println()
	pterm.Info.Printfln("Starting recon for %s", pterm.Yellow(target))

	area, err := pterm.DefaultArea.Start()
	if err != nil {
		return
	}
	l.area = area
	l.render()
}

// Update implements ports.ProgressSink.
func (l *Live) Update(_ context.Context, source string, countIncrement int, status domain.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.rows[source]
	if !ok {
		r = &row{status: domain.StatusPending}
		l.rows[source] = r
	}
	r.count += countIncrement
	if status != "" {
		r.status = status
	}

	l.render()
}

// End freezes the table on screen.
func (l *Live) End() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.area != nil {
		l.render()
		l.area.Stop()
		l.area = nil
	}
}

// render redraws the table. Callers hold l.mu.
func (l *Live) render() {
	if l.area == nil {
		return
	}

	names := make([]string, 0, len(l.rows))
	for name := range l.rows {
		names = append(names, name)
	}
	sort.Strings(names)

	data := pterm.TableData{{"Source", "Found", "Status"}}
	for _, name := range names {
		r := l.rows[name]
		data = append(data, []string{name, fmt.Sprintf("%d", r.count), renderStatus(r.status)})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return
	}
	l.area.Update(table)
}

func renderStatus(s domain.Status) string {
	switch s {
	case domain.StatusPending:
		return pterm.Gray("PENDING")
	case domain.StatusRunning:
		return pterm.Yellow("RUNNING")
	case domain.StatusCompleted:
		return pterm.Green("COMPLETED")
	case domain.StatusFailed:
		return pterm.Red("FAILED")
	case domain.StatusTimeout:
		return pterm.Red("TIMEOUT")
	default:
		return string(s)
	}
}

// Quiet is a ProgressUI that renders nothing.
type Quiet struct{}

func (Quiet) Begin(string, []string)                             {}
func (Quiet) End()                                               {}
func (Quiet) Update(context.Context, string, int, domain.Status) {}

// Banner prints the startup header.
func Banner(version string) {
	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Printfln("reconx v%s — subdomain reconnaissance", version)
}
