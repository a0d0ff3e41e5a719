package notifx

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	"sync"
	texttemplate "text/template"
)

// EmailTemplate is the source of one e-mail. Subject and Text are plain
// text templates; HTML is escaped as HTML.
type EmailTemplate struct {
	Subject string
	Text    string
	HTML    string
}

type emailTemplate struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

type Templates struct {
	mu    sync.RWMutex
	email map[string]emailTemplate
	sms   map[string]*texttemplate.Template
}

func NewTemplates() *Templates {
	return &Templates{
		email: map[string]emailTemplate{},
		sms:   map[string]*texttemplate.Template{},
	}
}

func (t *Templates) RegisterEmail(name string, src EmailTemplate) error {
	var et emailTemplate
	var err error
	if et.subject, err = texttemplate.New(name + ".subject").Parse(src.Subject); err != nil {
		return parseErr(name, err)
	}
	if et.text, err = texttemplate.New(name + ".text").Parse(src.Text); err != nil {
		return parseErr(name, err)
	}
	if src.HTML != "" {
		if et.html, err = htmltemplate.New(name + ".html").Parse(src.HTML); err != nil {
			return parseErr(name, err)
		}
	}

	t.mu.Lock()
	t.email[name] = et
	t.mu.Unlock()
	return nil
}

func (t *Templates) RegisterSMS(name, src string) error {
	tmpl, err := texttemplate.New(name + ".sms").Parse(src)
	if err != nil {
		return parseErr(name, err)
	}
	t.mu.Lock()
	t.sms[name] = tmpl
	t.mu.Unlock()
	return nil
}

func (t *Templates) RenderEmail(name string, data any) (Email, error) {
	t.mu.RLock()
	et, ok := t.email[name]
	t.mu.RUnlock()
	if !ok {
		return Email{}, ErrRegistry.New(ErrTemplateNotFound).WithDetail("template", name)
	}

	var msg Email
	var err error
	if msg.Subject, err = execute(et.subject, name, data); err != nil {
		return Email{}, err
	}
	msg.Subject = strings.TrimSpace(msg.Subject)
	if msg.Text, err = execute(et.text, name, data); err != nil {
		return Email{}, err
	}
	if et.html != nil {
		var buf bytes.Buffer
		if err := et.html.Execute(&buf, data); err != nil {
			return Email{}, renderErr(name, err)
		}
		msg.HTML = buf.String()
	}
	return msg, nil
}

func (t *Templates) RenderSMS(name string, data any) (string, error) {
	t.mu.RLock()
	tmpl, ok := t.sms[name]
	t.mu.RUnlock()
	if !ok {
		return "", ErrRegistry.New(ErrTemplateNotFound).WithDetail("template", name)
	}
	body, err := execute(tmpl, name, data)
	return strings.TrimSpace(body), err
}

func execute(tmpl *texttemplate.Template, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", renderErr(name, err)
	}
	return buf.String(), nil
}

func parseErr(name string, err error) error {
	return ErrRegistry.NewWithCause(ErrTemplateParse, err).WithDetail("template", name)
}

func renderErr(name string, err error) error {
	return ErrRegistry.NewWithCause(ErrTemplateRender, err).WithDetail("template", name)
}
