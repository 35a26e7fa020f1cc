// Package report turns a session into Markdown, HTML and YAML documents.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.yaml.in/yaml/v3"

	"lean_canvas_coach/canvas"
)

// Snapshot is a serialisable copy of one session.
type Snapshot struct {
	SessionID   string            `json:"session_id" yaml:"session_id"`
	Stage       string            `json:"stage" yaml:"stage"`
	Inputs      map[string]string `json:"inputs" yaml:"inputs"`
	Draft       string            `json:"draft,omitempty" yaml:"draft,omitempty"`
	Feedback    string            `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	Revision    string            `json:"revision,omitempty" yaml:"revision,omitempty"`
	Analyses    []Analysis        `json:"analyses,omitempty" yaml:"analyses,omitempty"`
	History     []canvas.Turn     `json:"history,omitempty" yaml:"history,omitempty"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
}

// Analysis is one stored framework result.
type Analysis struct {
	Key    string `json:"key" yaml:"key"`
	Name   string `json:"name" yaml:"name"`
	Result string `json:"result" yaml:"result"`
}

// FromSession copies the session state in display order.
func FromSession(s *canvas.Session, now time.Time) Snapshot {
	st := s.State.Clone()
	snap := Snapshot{
		SessionID:   s.ID,
		Stage:       st.Stage().String(),
		Inputs:      st.Inputs.ToMap(),
		Draft:       st.Draft,
		Feedback:    st.Feedback,
		Revision:    st.Revision,
		History:     append([]canvas.Turn(nil), s.History...),
		GeneratedAt: now,
	}
	for _, f := range canvas.AllFrameworks() {
		if text, ok := st.Analysis(f); ok {
			snap.Analyses = append(snap.Analyses, Analysis{Key: f.Key(), Name: f.String(), Result: text})
		}
	}
	return snap
}

// Markdown assembles every stage into one document.
func Markdown(snap Snapshot) string {
	var b strings.Builder
	b.WriteString("# Lean Canvas report\n\n")
	b.WriteString("## Idea\n\n")
	b.WriteString("| Field | Answer |\n|---|---|\n")
	for _, f := range canvas.AllFields() {
		v := snap.Inputs[f.Key()]
		if v == "" {
			v = "(not provided)"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", f, tableCell(v))
	}
	section(&b, "Lean Canvas draft", snap.Draft)
	section(&b, "Feedback", snap.Feedback)
	section(&b, "Revised Lean Canvas", snap.Revision)
	for _, a := range snap.Analyses {
		section(&b, a.Name, a.Result)
	}
	return b.String()
}

func section(b *strings.Builder, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n%s\n", title, strings.TrimSpace(body))
}

func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ToHTML converts model Markdown to HTML. Raw HTML in the input is not
// passed through.
func ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 52em; margin: 2em auto; line-height: 1.5; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: .3em .6em; vertical-align: top; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Page renders markdown as a standalone HTML document.
func Page(title, markdown string) (string, error) {
	body, err := ToHTML(markdown)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// YAML serialises the snapshot.
func YAML(snap Snapshot) ([]byte, error) {
	return yaml.Marshal(snap)
}
