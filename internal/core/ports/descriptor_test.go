package ports

import (
	"testing"

	"reconx/internal/platform/errors"
	"reconx/internal/testutil"
)

func validTool() Descriptor {
	return Descriptor{
		Name: "subfinder",
		Kind: KindTool,
		Tool: &ToolSpec{
			BuildCommand: func(target string) []string {
				return []string{"subfinder", "-d", target, "-silent"}
			},
		},
	}
}

func validAPI() Descriptor {
	return Descriptor{
		Name: "crtsh",
		Kind: KindAPI,
		API: &APISpec{
			URLTemplate: "https://crt.sh/?q=%.{domain}&output=json",
			JSON:        true,
			Parse:       func(payload any) ([]string, error) { return nil, nil },
		},
	}
}

func TestDescriptorValidate(t *testing.T) {
	t.Run("valid tool", func(t *testing.T) {
		testutil.AssertNoError(t, validTool().Validate(), "tool contract")
	})

	t.Run("valid api", func(t *testing.T) {
		testutil.AssertNoError(t, validAPI().Validate(), "api contract")
	})

	t.Run("missing name", func(t *testing.T) {
		d := validTool()
		d.Name = "  "
		err := d.Validate()
		testutil.AssertError(t, err, "empty name")
		testutil.AssertTrue(t, errors.IsContract(err), "contract sentinel")
	})

	t.Run("tool without builder", func(t *testing.T) {
		d := validTool()
		d.Tool = &ToolSpec{}
		testutil.AssertError(t, d.Validate(), "missing builder")
	})

	t.Run("tool with empty argv", func(t *testing.T) {
		d := validTool()
		d.Tool.BuildCommand = func(string) []string { return nil }
		testutil.AssertError(t, d.Validate(), "empty argv")
	})

	t.Run("api without domain placeholder", func(t *testing.T) {
		d := validAPI()
		d.API.URLTemplate = "https://crt.sh/?q=all"
		testutil.AssertError(t, d.Validate(), "missing placeholder")
	})

	t.Run("api without parser", func(t *testing.T) {
		d := validAPI()
		d.API.Parse = nil
		testutil.AssertError(t, d.Validate(), "missing parser")
	})

	t.Run("unknown kind", func(t *testing.T) {
		d := validAPI()
		d.Kind = Kind("weird")
		testutil.AssertError(t, d.Validate(), "unknown kind")
	})
}

func TestExpandURL(t *testing.T) {
	api := &APISpec{URLTemplate: "https://api.example/v1/{domain}/subs?d={domain}"}
	got := api.ExpandURL("example.com")
	testutil.AssertEqual(t, got, "https://api.example/v1/example.com/subs?d=example.com", "expanded url")
}
