package output

import (
	_ "embed"
	"html/template"
	"os"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/platform/errors"
)

//go:embed report.html.tmpl
var defaultReportTemplate string

type htmlContext struct {
	Domain        string
	Subdomains    []string
	Details       map[string]HostDetail
	Contributions map[string]int
	Timestamp     string
}

func writeHTML(path, domainName string, report *domain.TargetReport, details map[string]HostDetail, opts Options) error {
	var tmpl *template.Template
	var err error

	if opts.HTMLTemplate != "" {
		tmpl, err = template.ParseFiles(opts.HTMLTemplate)
		if err != nil {
			return errors.Wrapf(err, "cannot load html template %s", opts.HTMLTemplate)
		}
	} else {
		tmpl, err = template.New("report").Parse(defaultReportTemplate)
		if err != nil {
			return errors.Wrap(err, "embedded template broken")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", path)
	}
	defer f.Close()

	return tmpl.Execute(f, htmlContext{
		Domain:        domainName,
		Subdomains:    report.Subdomains,
		Details:       details,
		Contributions: report.Contributions,
		Timestamp:     time.Now().Format("2006-01-02 15:04:05"),
	})
}
