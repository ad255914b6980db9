// Package mailer sends templated notification emails over SMTP. It is the
// pipeline's external "send" capability: callers hand it a template name and
// a data bag and get back success or failure, nothing more.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/schoolhire/match-api/pkg/config"
)

// Mailer renders named templates and delivers them via SMTP.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string

	templates map[string]*template.Template
	subjects  map[string]string
}

// New builds a Mailer from SMTP configuration, parsing all known templates
// up front so rendering never fails at send time for a known name.
func New(cfg config.SMTPConfig) (*Mailer, error) {
	m := &Mailer{
		host:      cfg.Host,
		port:      cfg.Port,
		username:  cfg.Username,
		password:  cfg.Password,
		from:      cfg.From,
		templates: make(map[string]*template.Template, len(templateBodies)),
		subjects:  make(map[string]string, len(templateSubjects)),
	}

	for name, body := range templateBodies {
		tmpl, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		m.templates[name] = tmpl
	}
	for name, subject := range templateSubjects {
		m.subjects[name] = subject
	}

	return m, nil
}

// IsConfigured reports whether SMTP credentials are present.
func (m *Mailer) IsConfigured() bool {
	return m.host != "" && m.username != "" && m.password != ""
}

// Render produces the subject and HTML body for a named template.
func (m *Mailer) Render(name string, data map[string]string) (string, string, error) {
	tmpl, ok := m.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}

	subjTmpl, err := template.New(name + "-subject").Parse(m.subjects[name])
	if err != nil {
		return "", "", fmt.Errorf("parse subject for %s: %w", name, err)
	}

	var subject bytes.Buffer
	if err := subjTmpl.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render subject for %s: %w", name, err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render body for %s: %w", name, err)
	}

	return subject.String(), body.String(), nil
}

// Send delivers a message. The MIME envelope mirrors what transactional SMTP
// relays expect: HTML body, UTF-8, single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		m.from,
		to,
		subject,
		body,
	))

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	return nil
}
