package email

import (
	"bytes"
	"html/template"
	"strings"
)

var notificationTmpl = template.Must(template.New("notification").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#333;max-width:560px;margin:0 auto;padding:24px">
<h2 style="color:#7b2d8e;margin-top:0">{{.Title}}</h2>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{if .URL}}<p><a href="{{.URL}}" style="color:#7b2d8e">Open in the program portal</a></p>
{{end}}<p style="font-size:12px;color:#888">You are receiving this because you are a member of the Girls Leadership Program.</p>
</body></html>`))

// NotificationMessage describes an in-app notification to be copied by email.
type NotificationMessage struct {
	To      string
	Title   string
	Message string
	Type    string
	Link    string // relative link, joined to BaseURL
	BaseURL string
}

// Render builds the HTML and plain-text bodies.
// PRE: To and Title are non-empty
// POST: HTML is escaped; the link is absolute when BaseURL is set and omitted otherwise
func (m NotificationMessage) Render() (Mail, error) {
	var url string
	if m.Link != "" && m.BaseURL != "" {
		url = strings.TrimRight(m.BaseURL, "/") + m.Link
	}
	var paragraphs []string
	for _, p := range strings.Split(m.Message, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	var buf bytes.Buffer
	err := notificationTmpl.Execute(&buf, struct {
		Title      string
		Paragraphs []string
		URL        string
	}{m.Title, paragraphs, url})
	if err != nil {
		return Mail{}, err
	}
	text := strings.Join(paragraphs, "\n\n")
	if url != "" {
		text += "\n\n" + url
	}
	return Mail{
		To:       m.To,
		Subject:  m.Title,
		HTML:     buf.String(),
		Text:     text,
		Category: m.Type,
	}, nil
}
