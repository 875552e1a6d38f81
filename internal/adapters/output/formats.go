package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"reconx/internal/core/domain"
	"reconx/internal/platform/errors"
)

func writeTxt(path, _ string, report *domain.TargetReport, details map[string]HostDetail, _ Options) error {
	var b strings.Builder
	for _, sub := range report.Subdomains {
		detail, ok := details[sub]
		if !ok || len(detail.IPs) == 0 {
			b.WriteString(sub)
			b.WriteByte('\n')
			continue
		}
		// One line per address for readability.
		for _, ip := range detail.IPs {
			b.WriteString(fmt.Sprintf("%s [%s]", sub, ip.Address))
			if ip.ASN != "" {
				b.WriteString(fmt.Sprintf(" [%s, %s]", ip.ASN, ip.Org))
			}
			b.WriteByte('\n')
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeCSV(path, _ string, report *domain.TargetReport, details map[string]HostDetail, _ Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"subdomain", "ip", "asn", "org"}); err != nil {
		return err
	}

	for _, sub := range report.Subdomains {
		detail, ok := details[sub]
		if !ok || len(detail.IPs) == 0 {
			if err := w.Write([]string{sub, "", "", ""}); err != nil {
				return err
			}
			continue
		}
		for _, ip := range detail.IPs {
			if err := w.Write([]string{sub, ip.Address, ip.ASN, ip.Org}); err != nil {
				return err
			}
		}
	}

	return nil
}

// jsonDoc is the full machine-readable output shape.
type jsonDoc struct {
	Contributions map[string]int        `json:"contributions"`
	Details       map[string]HostDetail `json:"details,omitempty"`
	Subdomains    []string              `json:"subdomains"`
}

func (h HostDetail) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		IPs []IPDetail `json:"ips"`
	}{IPs: h.IPs})
}

func writeJSON(path, _ string, report *domain.TargetReport, details map[string]HostDetail, _ Options) error {
	doc := jsonDoc{
		Contributions: report.Contributions,
		Subdomains:    report.Subdomains,
	}
	if len(details) > 0 {
		doc.Details = details
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// writeBurp emits a bare hostname list for Burp Suite target scope.
func writeBurp(path, _ string, report *domain.TargetReport, _ map[string]HostDetail, _ Options) error {
	return os.WriteFile(path, []byte(strings.Join(report.Subdomains, "\n")+"\n"), 0o644)
}

// writeGnmap emits an nmap -iL target list: "ip<TAB>host" when resolved,
// bare hostnames otherwise.
func writeGnmap(path, _ string, report *domain.TargetReport, details map[string]HostDetail, _ Options) error {
	var b strings.Builder
	for _, sub := range report.Subdomains {
		detail, ok := details[sub]
		if !ok || len(detail.IPs) == 0 {
			b.WriteString(sub)
			b.WriteByte('\n')
			continue
		}
		for _, ip := range detail.IPs {
			b.WriteString(fmt.Sprintf("%s\t%s\n", ip.Address, sub))
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
