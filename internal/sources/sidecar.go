package sources

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"reconx/internal/core/ports"
	"reconx/internal/platform/errors"
)

// Sidecar descriptor files let users add sources without recompiling.
// Tools carry an argv template ({domain} substituted per target); APIs
// pick one of the bounded built-in parser tags.
//
//	sources:
//	  - name: internal-ct
//	    kind: api
//	    url: https://ct.corp.example/v1/{domain}
//	    parser: json_strings
//	    field: subdomains
//	    auth_env: CT_TOKEN
//	  - name: knockpy
//	    kind: tool
//	    command: ["knockpy", "--no-http", "{domain}"]

type sidecarFile struct {
	Sources []sidecarEntry `yaml:"sources"`
}

type sidecarEntry struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	Command    []string `yaml:"command"`
	URL        string   `yaml:"url"`
	Parser     string   `yaml:"parser"`
	Field      string   `yaml:"field"`
	Text       bool     `yaml:"text"`
	AuthEnv    string   `yaml:"auth_env"`
	AuthHeader string   `yaml:"auth_header"`
}

// LoadSidecar reads descriptors from a YAML sidecar file.
func LoadSidecar(path string) ([]ports.Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read sources file %s", path)
	}

	var file sidecarFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrapf(err, "cannot parse sources file %s", path)
	}

	descriptors := make([]ports.Descriptor, 0, len(file.Sources))
	for _, entry := range file.Sources {
		d, err := entry.descriptor()
		if err != nil {
			return nil, errors.Wrapf(err, "source %q in %s", entry.Name, path)
		}
		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}

func (e sidecarEntry) descriptor() (ports.Descriptor, error) {
	switch strings.ToLower(e.Kind) {
	case string(ports.KindTool):
		if len(e.Command) == 0 {
			return ports.Descriptor{}, errors.Contract(e.Name, "tool entry has no command")
		}
		argv := append([]string(nil), e.Command...)
		return ports.Descriptor{
			Name: e.Name,
			Kind: ports.KindTool,
			Tool: &ports.ToolSpec{
				BuildCommand: func(target string) []string {
					expanded := make([]string, len(argv))
					for i, token := range argv {
						expanded[i] = strings.ReplaceAll(token, "{domain}", target)
					}
					return expanded
				},
			},
		}, nil

	case string(ports.KindAPI):
		parse, err := parserForTag(e.Parser, e.Field)
		if err != nil {
			return ports.Descriptor{}, err
		}

		var auth *ports.AuthSpec
		if e.AuthEnv != "" || e.AuthHeader != "" {
			auth = &ports.AuthSpec{EnvVar: e.AuthEnv, Header: e.AuthHeader}
		}

		return ports.Descriptor{
			Name: e.Name,
			Kind: ports.KindAPI,
			API: &ports.APISpec{
				URLTemplate: e.URL,
				JSON:        !e.Text,
				Auth:        auth,
				Parse:       parse,
			},
		}, nil

	default:
		return ports.Descriptor{}, errors.Contractf(e.Name, "unknown kind %q", e.Kind)
	}
}

// parserForTag dispatches on the bounded set of response shapes.
func parserForTag(tag, field string) (func(any) ([]string, error), error) {
	switch tag {
	case "lines":
		return parseLines, nil
	case "first_field":
		return parseFirstField, nil
	case "json_strings":
		return parseJSONStrings(field), nil
	case "crtsh":
		return parseCrtsh, nil
	case "certspotter":
		return parseCertspotter, nil
	case "wayback":
		return parseWayback, nil
	default:
		return nil, errors.Wrapf(errors.ErrContract, "unknown parser tag %q", tag)
	}
}
