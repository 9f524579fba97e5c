package cli

import (
	"strings"
	"text/template"
	"time"
)

const clientTemplate = `
=== Client Details ===

Name:     {{.FullName}}
ID:       {{.ID}}
Type:     {{.Type}}
{{- if .Email }}
Email:    {{.Email}}
{{- end}}
{{- if .Phone }}
Phone:    {{deref .Phone}}
{{- end}}
{{- if .MobilePhone }}
Mobile:   {{deref .MobilePhone}}
{{- end}}
{{- if .Address }}
Address:  {{.Address}}
{{- end}}
{{- if .Notes }}
Notes:    {{.Notes}}
{{- end}}
{{template "meta" .}}`

const missionTemplate = `
=== Mission Details ===

Number:    {{.Number}}
ID:        {{.ID}}
Title:     {{.Title}}
Status:    {{.Status}}
{{- if .ClientID }}
Client:    {{.ClientID}}
{{- end}}
{{- if .ScheduledAt }}
Scheduled: {{when .ScheduledAt}}
{{- end}}
{{- if .Tags }}
Tags:      {{join .Tags}}
{{- end}}
{{template "meta" .}}`

const metaTemplate = `{{define "meta"}}
Version:   {{.Version}}
Updated:   {{when .UpdatedAt}}
Remote ID: {{if .RemoteID}}{{.RemoteID}}{{else}}-{{end}}
Last sync: {{if .LastSyncAt}}{{when .LastSyncAt}}{{else}}never{{end}}
{{- if .IsDeleted }}
Deleted:   yes
{{- end}}
{{end}}`

const reportTemplate = `
=== Conflict Report ===

Local:  version {{.LocalVersion}}, updated {{when .LocalUpdatedAt}}
Remote: version {{.RemoteVersion}}, updated {{when .RemoteUpdatedAt}}
{{if .HasConflicts}}
{{- range .Differences}}
{{.FieldName}}:
  local:  {{.LocalValue}}
  remote: {{.RemoteValue}}
{{- end}}
{{else}}
No differences.
{{end}}`

var templateFuncs = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"join": func(values []string) string {
		return strings.Join(values, ", ")
	},
	"when": func(v any) string {
		switch t := v.(type) {
		case time.Time:
			return t.UTC().Format(time.RFC3339)
		case *time.Time:
			if t == nil {
				return ""
			}
			return t.UTC().Format(time.RFC3339)
		default:
			return ""
		}
	},
}

var (
	clientTmpl  = template.Must(template.Must(template.New("client").Funcs(templateFuncs).Parse(metaTemplate)).Parse(clientTemplate))
	missionTmpl = template.Must(template.Must(template.New("mission").Funcs(templateFuncs).Parse(metaTemplate)).Parse(missionTemplate))
	reportTmpl  = template.Must(template.New("report").Funcs(templateFuncs).Parse(reportTemplate))
)
