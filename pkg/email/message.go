// Package email renders the tide report into a multipart message and sends
// one copy to each recipient over SMTP.
package email

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	mail "gopkg.in/mail.v2"

	"github.com/pfeif/pytide/pkg/report"
)

const subject = "Daily Tide Report"

//go:embed template.html
var templateHTML string

var reportTemplate = template.Must(template.New("report").
	Funcs(template.FuncMap{
		"clock": func(t time.Time) string { return t.Format("3:04 PM") },
		"date":  func(t time.Time) string { return t.Format("Monday, January 2") },
	}).
	Parse(templateHTML))

// Message is a composed tide report, addressed per recipient at send time.
type Message struct {
	msg   *mail.Message
	Plain string
	HTML  string
}

// Compose builds one report message from the hydrated stations. The To
// header is set per recipient by Send.
func Compose(stations []*report.Station, sender string) (*Message, error) {
	html, err := renderHTML(stations)
	if err != nil {
		return nil, fmt.Errorf("render report template: %w", err)
	}
	plain := renderPlain(stations)

	m := mail.NewMessage()
	m.SetHeader("From", sender)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plain)
	m.AddAlternative("text/html", html)

	for _, st := range stations {
		if st.Map == nil {
			continue
		}
		data := st.Map.Data
		m.Embed(st.Map.ContentID, mail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}

	return &Message{msg: m, Plain: plain, HTML: html}, nil
}

func renderHTML(stations []*report.Station) (string, error) {
	var b strings.Builder
	data := struct {
		Date     time.Time
		Stations []*report.Station
	}{
		Date:     time.Now(),
		Stations: stations,
	}
	if err := reportTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderPlain(stations []*report.Station) string {
	parts := make([]string, 0, len(stations))
	for _, st := range stations {
		parts = append(parts, st.String())
	}
	return strings.Join(parts, "\n\n")
}

// SaveHTML writes the HTML body to path.
func (m *Message) SaveHTML(path string) error {
	return os.WriteFile(path, []byte(m.HTML), 0o644)
}

// SaveEML writes the full RFC 5322 message to path. The saved copy has no To
// header since that is filled in per recipient.
func (m *Message) SaveEML(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := m.msg.WriteTo(file); err != nil {
		return fmt.Errorf("write message to %s: %w", path, err)
	}
	return nil
}
