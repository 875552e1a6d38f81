// Package ports defines the contracts between the engine core and its
// collaborators: discovery source descriptors and the progress sink.
package ports

import (
	"strings"

	"reconx/internal/platform/errors"
)

// Kind discriminates the two source flavors.
type Kind string

const (
	// KindTool is an external command-line tool executed as a subprocess.
	KindTool Kind = "tool"

	// KindAPI is a remote HTTP endpoint queried with GET.
	KindAPI Kind = "api"
)

// Descriptor defines one discovery source. Exactly one of Tool and API is
// set, matching Kind. Descriptors are immutable and shared read-only
// across concurrent runner tasks.
type Descriptor struct {
	Name string
	Kind Kind
	Tool *ToolSpec
	API  *APISpec
}

// ToolSpec carries the subprocess contract: BuildCommand returns the argv
// for one target. The first token must be an executable base name; the
// command is never routed through a shell.
type ToolSpec struct {
	BuildCommand func(target string) []string
}

// APISpec carries the HTTP contract.
type APISpec struct {
	// URLTemplate must contain the literal substring "{domain}".
	URLTemplate string

	// JSON selects JSON body decoding; when false the raw body text is
	// handed to Parse.
	JSON bool

	// Auth optionally declares where the credential lives.
	Auth *AuthSpec

	// Parse extracts candidate subdomains from the decoded payload.
	// An error return is a contract violation for that attempt.
	Parse func(payload any) ([]string, error)
}

// AuthSpec identifies an API credential: either a named environment
// variable (sent as "Authorization: Bearer <value>", omitted when unset)
// or a verbatim Authorization header value.
type AuthSpec struct {
	EnvVar string
	Header string
}

// ExpandURL substitutes the target into the URL template.
func (a *APISpec) ExpandURL(target string) string {
	return strings.ReplaceAll(a.URLTemplate, "{domain}", target)
}

// Validate checks the source contract. Loader-level violations make the
// descriptor unusable and are reported before any execution.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.Wrap(errors.ErrContract, "descriptor has no name")
	}

	switch d.Kind {
	case KindTool:
		if d.Tool == nil || d.Tool.BuildCommand == nil {
			return errors.Contract(d.Name, "tool has no command builder")
		}
		// Probe with a placeholder target: the argv must be non-empty.
		argv := d.Tool.BuildCommand("example.com")
		if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
			return errors.Contract(d.Name, "tool builds an empty command")
		}
	case KindAPI:
		if d.API == nil {
			return errors.Contract(d.Name, "api has no endpoint spec")
		}
		if !strings.Contains(d.API.URLTemplate, "{domain}") {
			return errors.Contract(d.Name, "api url template lacks {domain}")
		}
		if d.API.Parse == nil {
			return errors.Contract(d.Name, "api has no parser")
		}
	default:
		return errors.Contractf(d.Name, "unknown kind %q", d.Kind)
	}

	return nil
}
