package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

const (
	TemplateAvisoDeuda      = "aviso_deuda"
	TemplateAvisoCorte      = "aviso_corte"
	TemplateServicioCortado = "servicio_cortado"
)

var ErrNoRecipients = errors.New("email_no_recipients")

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var subjects = map[string]string{
	TemplateAvisoDeuda:      "Aviso de deuda en su servicio de agua",
	TemplateAvisoCorte:      "Aviso de corte de su servicio de agua",
	TemplateServicioCortado: "Su servicio de agua fue suspendido",
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPProvider struct {
	cfg  Config
	dial func() (gomail.SendCloser, error)
}

func NewSMTP(cfg Config) *SMTPProvider {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	d.SSL = cfg.Port == 465
	return &SMTPProvider{cfg: cfg, dial: d.Dial}
}

func (p *SMTPProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	if len(to) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage(gomail.SetCharset("UTF-8"), gomail.SetEncoding(gomail.Unencoded))
	m.SetHeader("From", p.cfg.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	conn, err := p.dial()
	if err != nil {
		return fmt.Errorf("smtp dial %s:%d: %w", p.cfg.Host, p.cfg.Port, err)
	}
	defer conn.Close()
	return gomail.Send(conn, m)
}

func (p *SMTPProvider) SendTemplate(ctx context.Context, to []string, templateName string, data any) error {
	body, err := Render(templateName, data)
	if err != nil {
		return err
	}
	subject, ok := subjects[templateName]
	if !ok {
		subject = "Aviso de su servicio de agua"
	}
	return p.Send(ctx, to, subject, body)
}

// Render executes one of the embedded notice templates.
func Render(templateName string, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, templateName+".html", data); err != nil {
		return "", fmt.Errorf("render template %s: %w", templateName, err)
	}
	return body.String(), nil
}
