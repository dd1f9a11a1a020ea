package advice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/joshharrison/phaseline/internal/cascade"
	"github.com/joshharrison/phaseline/internal/delay"
)

// A template file must define both "recommendations" (one recommendation
// per non-empty line) and "summary".
const defaultTemplate = `
{{- define "recommendations" -}}
{{- if .HighCount}}Prioritize the {{.HighCount}} high-risk {{plural .HighCount "phase" "phases"}}: {{join .HighNames ", "}}.
{{end -}}
{{- with .Worst}}Resequence or add crews to {{.PhaseName}} to absorb the projected {{.EstimatedDelay}}-day slip.
{{end -}}
{{- with .Lead}}Recover {{.Name}} first: at {{.Days}} {{plural .Days "day" "days"}} late it is the longest delay on site.
{{end -}}
{{- if .CriticalImpacted}}Protect the critical path: {{join .CriticalImpacted ", "}} {{plural (len .CriticalImpacted) "is" "are"}} now behind a delayed phase.
{{end -}}
Add a schedule buffer of at least {{.MaxDelay}} {{plural .MaxDelay "day" "days"}} before the next milestone and reconfirm supplier and subcontractor dates.
{{- end -}}

{{- define "summary" -}}
{{.DelayedCount}} delayed {{plural .DelayedCount "phase" "phases"}}
{{- if .ImpactedCount}} {{plural .DelayedCount "affects" "affect"}} {{.ImpactedCount}} downstream {{plural .ImpactedCount "phase" "phases"}} ({{.HighCount}} high, {{.MediumCount}} medium, {{.LowCount}} low risk)
{{- else}} with no downstream impact
{{- end}}; projected slip up to {{.MaxDelay}} {{plural .MaxDelay "day" "days"}}.
{{- end -}}
`

var funcs = template.FuncMap{
	"join": strings.Join,
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
}

// TemplateAdvisor renders deterministic advice from text/template
// definitions. It never touches the network.
type TemplateAdvisor struct {
	tmpl *template.Template
}

// templateData is the view handed to the templates.
type templateData struct {
	DelayedCount  int
	ImpactedCount int
	HighCount     int
	MediumCount   int
	LowCount      int
	MaxDelay      int

	HighNames        []string
	CriticalImpacted []string
	Worst            *cascade.ImpactedPhase // most time-critical impacted phase
	Lead             *delay.Delayed         // longest delayed phase
}

// DefaultTemplateAdvisor returns the built-in template advisor.
func DefaultTemplateAdvisor() *TemplateAdvisor {
	return &TemplateAdvisor{
		tmpl: template.Must(template.New("advice").Funcs(funcs).Parse(defaultTemplate)),
	}
}

// NewTemplateAdvisor loads templates from path, or the built-in ones when
// path is empty.
func NewTemplateAdvisor(path string) (*TemplateAdvisor, error) {
	if path == "" {
		return DefaultTemplateAdvisor(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read advice template: %w", err)
	}

	tmpl, err := template.New("advice").Funcs(funcs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse advice template: %w", err)
	}
	for _, name := range []string{"recommendations", "summary"} {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("advice template %s does not define %q", path, name)
		}
	}
	return &TemplateAdvisor{tmpl: tmpl}, nil
}

// Generate implements Advisor.
func (a *TemplateAdvisor) Generate(_ context.Context, in Input) (Advice, error) {
	data := newTemplateData(in)

	var recs, summary bytes.Buffer
	if err := a.tmpl.ExecuteTemplate(&recs, "recommendations", data); err != nil {
		return Advice{}, fmt.Errorf("render recommendations: %w", err)
	}
	if err := a.tmpl.ExecuteTemplate(&summary, "summary", data); err != nil {
		return Advice{}, fmt.Errorf("render summary: %w", err)
	}

	adv := Advice{Summary: strings.TrimSpace(summary.String())}
	for _, line := range strings.Split(recs.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			adv.Recommendations = append(adv.Recommendations, line)
		}
	}
	return adv, nil
}

func newTemplateData(in Input) templateData {
	data := templateData{
		DelayedCount:  len(in.Delayed),
		ImpactedCount: len(in.Impacted),
	}

	for i := range in.Delayed {
		d := &in.Delayed[i]
		if data.Lead == nil || d.Days > data.Lead.Days {
			data.Lead = d
		}
		if d.Days > data.MaxDelay {
			data.MaxDelay = d.Days
		}
	}

	critical := make(map[string]bool, len(in.CriticalPath))
	for _, id := range in.CriticalPath {
		critical[id] = true
	}

	for i := range in.Impacted {
		ip := &in.Impacted[i]
		switch ip.RiskLevel {
		case cascade.RiskHigh:
			data.HighCount++
			data.HighNames = append(data.HighNames, ip.PhaseName)
		case cascade.RiskMedium:
			data.MediumCount++
		default:
			data.LowCount++
		}
		if ip.EstimatedDelay > data.MaxDelay {
			data.MaxDelay = ip.EstimatedDelay
		}
		if critical[ip.PhaseID] {
			data.CriticalImpacted = append(data.CriticalImpacted, ip.PhaseName)
		}
		if data.Worst == nil || moreCritical(ip, data.Worst) {
			data.Worst = ip
		}
	}

	return data
}

// moreCritical orders impacted phases by delay, then risk.
func moreCritical(a, b *cascade.ImpactedPhase) bool {
	if a.EstimatedDelay != b.EstimatedDelay {
		return a.EstimatedDelay > b.EstimatedDelay
	}
	return a.RiskLevel.Rank() > b.RiskLevel.Rank()
}
