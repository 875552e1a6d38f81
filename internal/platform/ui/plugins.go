package ui

import (
	"os"
	"os/exec"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"reconx/internal/core/ports"
)

// ListPlugins prints every registered descriptor with its kind.
func ListPlugins(descriptors []ports.Descriptor) {
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Available Sources")
	t.AppendHeader(table.Row{"Kind", "Name", "Auth"})

	for _, d := range descriptors {
		auth := ""
		if d.Kind == ports.KindAPI && d.API.Auth != nil {
			if d.API.Auth.EnvVar != "" {
				auth = "env:" + d.API.Auth.EnvVar
			} else {
				auth = "header"
			}
		}
		t.AppendRow(table.Row{string(d.Kind), d.Name, auth})
	}

	t.SetStyle(table.StyleLight)
	t.Render()
}

// LintPlugins validates every descriptor and reports the result table.
// Returns the number of failed checks.
func LintPlugins(descriptors []ports.Descriptor) int {
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Source Validation Report")
	t.AppendHeader(table.Row{"Name", "Kind", "Check", "Status"})

	ok := text.FgGreen.Sprint("OK")
	fail := text.FgRed.Sprint("FAIL")
	failures := 0

	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			t.AppendRow(table.Row{d.Name, string(d.Kind), "contract", fail + " (" + err.Error() + ")"})
			failures++
			continue
		}
		t.AppendRow(table.Row{d.Name, string(d.Kind), "contract", ok})

		if d.Kind == ports.KindTool {
			binary := d.Tool.BuildCommand("example.com")[0]
			if _, err := exec.LookPath(binary); err != nil {
				t.AppendRow(table.Row{d.Name, string(d.Kind), "PATH: " + binary, fail})
				failures++
			} else {
				t.AppendRow(table.Row{d.Name, string(d.Kind), "PATH: " + binary, ok})
			}
		}
	}

	t.SetStyle(table.StyleLight)
	t.Render()

	return failures
}
