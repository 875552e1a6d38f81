// Package sources holds the built-in discovery source catalog and the
// sidecar descriptor file loader. Importing the package registers every
// built-in descriptor in the global registry.
package sources

import (
	"fmt"
	"net/url"
	"strings"

	"reconx/internal/core/ports"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
	"reconx/internal/platform/registry"
)

// WaybackName is the built-in Wayback Machine source; it is slow and only
// selected when explicitly enabled.
const WaybackName = "wayback"

func init() {
	for _, d := range Builtin() {
		if err := registry.Global().Register(d); err != nil {
			logx.New().Warn("failed to register built-in source", "source", d.Name, "error", err.Error())
		}
	}
}

// Builtin returns the full built-in descriptor set.
func Builtin() []ports.Descriptor {
	return []ports.Descriptor{
		// Tools. Argv is built fresh per target; nothing is routed
		// through a shell.
		{
			Name: "subfinder",
			Kind: ports.KindTool,
			Tool: &ports.ToolSpec{
				BuildCommand: func(target string) []string {
					return []string{"subfinder", "-d", target, "-silent"}
				},
			},
		},
		{
			Name: "assetfinder",
			Kind: ports.KindTool,
			Tool: &ports.ToolSpec{
				BuildCommand: func(target string) []string {
					return []string{"assetfinder", "--subs-only", target}
				},
			},
		},
		{
			Name: "findomain",
			Kind: ports.KindTool,
			Tool: &ports.ToolSpec{
				BuildCommand: func(target string) []string {
					return []string{"findomain", "-t", target, "-q"}
				},
			},
		},

		// APIs.
		{
			Name: "crtsh",
			Kind: ports.KindAPI,
			API: &ports.APISpec{
				URLTemplate: "https://crt.sh/?q=%.{domain}&output=json",
				JSON:        true,
				Parse:       parseCrtsh,
			},
		},
		{
			Name: "certspotter",
			Kind: ports.KindAPI,
			API: &ports.APISpec{
				URLTemplate: "https://api.certspotter.com/v1/issuances?domain={domain}&include_subdomains=true&expand=dns_names",
				JSON:        true,
				Parse:       parseCertspotter,
			},
		},
		{
			Name: "alienvault",
			Kind: ports.KindAPI,
			API: &ports.APISpec{
				URLTemplate: "https://otx.alienvault.com/api/v1/indicators/domain/{domain}/passive_dns",
				JSON:        true,
				Parse:       parseAlienvault,
			},
		},
		{
			Name: "hackertarget",
			Kind: ports.KindAPI,
			API: &ports.APISpec{
				// Returns plain text "host,ip" lines.
				URLTemplate: "https://api.hackertarget.com/hostsearch/?q={domain}",
				JSON:        false,
				Parse:       parseFirstField,
			},
		},
		{
			Name: "chaos",
			Kind: ports.KindAPI,
			API: &ports.APISpec{
				URLTemplate: "https://dns.projectdiscovery.io/dns/{domain}/subdomains",
				JSON:        true,
				Auth:        &ports.AuthSpec{EnvVar: "CHAOS_KEY"},
				Parse:       parseChaos,
			},
		},
		{
			Name: WaybackName,
			Kind: ports.KindAPI,
			API: &ports.APISpec{
				URLTemplate: "https://web.archive.org/cdx/search/cdx?url=*.{domain}&output=json&fl=original&collapse=urlkey",
				JSON:        true,
				Parse:       parseWayback,
			},
		},
	}
}

// parseCrtsh handles crt.sh JSON: a list of issuance records whose
// name_value field packs newline-separated names.
func parseCrtsh(payload any) ([]string, error) {
	entries, ok := payload.([]any)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "crtsh payload is not a list")
	}

	var out []string
	for _, e := range entries {
		record, ok := e.(map[string]any)
		if !ok {
			continue
		}
		nameValue, _ := record["name_value"].(string)
		for _, name := range strings.Split(nameValue, "\n") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out, nil
}

// parseCertspotter handles CertSpotter JSON: a list of issuances each
// carrying a dns_names list.
func parseCertspotter(payload any) ([]string, error) {
	entries, ok := payload.([]any)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "certspotter payload is not a list")
	}

	var out []string
	for _, e := range entries {
		issuance, ok := e.(map[string]any)
		if !ok {
			continue
		}
		names, _ := issuance["dns_names"].([]any)
		for _, n := range names {
			if s, ok := n.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// parseAlienvault handles AlienVault OTX passive DNS records.
func parseAlienvault(payload any) ([]string, error) {
	doc, ok := payload.(map[string]any)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "alienvault payload is not an object")
	}

	records, _ := doc["passive_dns"].([]any)
	var out []string
	for _, r := range records {
		record, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if hostname, _ := record["hostname"].(string); hostname != "" {
			out = append(out, hostname)
		}
	}
	return out, nil
}

// parseChaos handles the Chaos dataset: bare labels joined to the domain
// field of the response.
func parseChaos(payload any) ([]string, error) {
	doc, ok := payload.(map[string]any)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "chaos payload is not an object")
	}

	subs, ok := doc["subdomains"].([]any)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "chaos payload lacks subdomains")
	}
	domain, _ := doc["domain"].(string)

	var out []string
	for _, s := range subs {
		label, ok := s.(string)
		if !ok || label == "" {
			continue
		}
		out = append(out, fmt.Sprintf("%s.%s", label, domain))
	}
	return out, nil
}

// parseWayback handles CDX JSON rows, extracting hostnames from the
// archived URLs. The header row carries no parseable URL and drops out
// naturally.
func parseWayback(payload any) ([]string, error) {
	rows, ok := payload.([]any)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "wayback payload is not a list")
	}

	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		row, ok := r.([]any)
		if !ok || len(row) == 0 {
			continue
		}
		raw, ok := row[0].(string)
		if !ok {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := u.Hostname()
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, host)
	}
	return out, nil
}

// parseFirstField handles plain-text responses of "name,rest" lines.
func parseFirstField(payload any) ([]string, error) {
	text, ok := payload.(string)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "payload is not text")
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, strings.SplitN(line, ",", 2)[0])
	}
	return out, nil
}

// parseLines handles plain-text responses of one name per line.
func parseLines(payload any) ([]string, error) {
	text, ok := payload.(string)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "payload is not text")
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

// parseJSONStrings returns a parser that extracts a list of strings from
// the named top-level field of a JSON object ("" means the payload itself
// is the list).
func parseJSONStrings(field string) func(any) ([]string, error) {
	return func(payload any) ([]string, error) {
		node := payload
		if field != "" {
			doc, ok := payload.(map[string]any)
			if !ok {
				return nil, errors.Wrapf(errors.ErrInvalidResponse, "payload is not an object with %q", field)
			}
			node = doc[field]
		}

		list, ok := node.([]any)
		if !ok {
			return nil, errors.Wrap(errors.ErrInvalidResponse, "payload field is not a list")
		}

		var out []string
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
}
