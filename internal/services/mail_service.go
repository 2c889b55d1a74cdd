package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SMTPConfig holds SMTP + branding config.
type SMTPConfig struct {
	Host       string // e.g. "smtp.gmail.com"
	Port       int    // 587 (STARTTLS) or 465 (SMTPS)
	Username   string
	Password   string
	From       string // envelope from, e.g. "info@belvieudigital.com"
	FromName   string // display name
	UseSSL     bool   // true for SMTPS 465, false for STARTTLS 587
	RequireTLS bool   // fail if STARTTLS not available

	AppName    string
	AppBaseURL string // e.g. "https://portal.belvieudigital.com"
}

// Mail is one outbound message. Intro is plain text; ButtonURL/ButtonTxt
// render an optional call-to-action.
type Mail struct {
	To        []string
	ReplyTo   string
	Subject   string
	Intro     string
	ButtonTxt string
	ButtonURL string
}

// IMailService exposes two distinct delivery modes, not a flag:
// SendAsync is best-effort and never blocks the caller (failures are
// logged, never retried); SendSync blocks until the delivery attempt
// completes and returns its error.
type IMailService interface {
	SendAsync(mail Mail)
	SendSync(mail Mail) error
}

type smtpMailService struct {
	cfg     SMTPConfig
	htmlTpl *template.Template
	textTpl *template.Template
}

func NewSMTPMailService(cfg SMTPConfig) (IMailService, error) {
	htmlTpl, err := template.New("mailHTML").Parse(baseHTMLTemplate)
	if err != nil {
		return nil, err
	}
	textTpl, err := template.New("mailText").Parse(plainTextTemplate)
	if err != nil {
		return nil, err
	}
	return &smtpMailService{cfg: cfg, htmlTpl: htmlTpl, textTpl: textTpl}, nil
}

func (s *smtpMailService) SendAsync(mail Mail) {
	go func() {
		if err := s.SendSync(mail); err != nil {
			zap.L().Error("background email send failed",
				zap.Strings("to", mail.To),
				zap.String("subject", mail.Subject),
				zap.Error(err))
		}
	}()
}

func (s *smtpMailService) SendSync(mail Mail) error {
	htmlBody, textBody, err := s.render(mail)
	if err != nil {
		return err
	}
	return s.send(mail, htmlBody, textBody)
}

type emailData struct {
	Title     string
	Intro     string
	ButtonURL string
	ButtonTxt string
	AppName   string
	Year      int
}

const baseHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
</head>
<body style="margin:0;padding:24px;background:#f4f5f7;font-family:-apple-system,Segoe UI,Roboto,Helvetica,Arial,sans-serif;color:#1f2937;">
  <div style="max-width:600px;margin:0 auto;background:#ffffff;border-radius:8px;overflow:hidden;border:1px solid #e5e7eb;">
    <div style="padding:20px 28px;border-bottom:1px solid #e5e7eb;font-weight:700;font-size:18px;">{{.AppName}}</div>
    <div style="padding:28px;">
      <h1 style="margin:0 0 14px;font-size:22px;">{{.Title}}</h1>
      <p style="margin:0 0 18px;line-height:1.6;">{{.Intro}}</p>
      {{if .ButtonURL}}
      <p style="margin:24px 0;">
        <a href="{{.ButtonURL}}" style="display:inline-block;padding:12px 24px;background:#2563eb;color:#ffffff;text-decoration:none;border-radius:6px;font-weight:600;">{{.ButtonTxt}}</a>
      </p>
      <p style="font-size:12px;color:#6b7280;">If the button doesn't work, copy this link into your browser:<br>
        <a href="{{.ButtonURL}}" style="color:#2563eb;word-break:break-all;">{{.ButtonURL}}</a></p>
      {{end}}
    </div>
    <div style="padding:16px 28px;border-top:1px solid #e5e7eb;font-size:12px;color:#6b7280;text-align:center;">
      &copy; {{.Year}} {{.AppName}}. All rights reserved.
    </div>
  </div>
</body>
</html>`

const plainTextTemplate = `{{.Title}}

{{.Intro}}

{{if .ButtonURL}}Open this link:
{{.ButtonURL}}
{{end}}
— {{.AppName}} (c) {{.Year}}
`

func (s *smtpMailService) render(mail Mail) (string, string, error) {
	data := emailData{
		Title:     mail.Subject,
		Intro:     mail.Intro,
		ButtonURL: mail.ButtonURL,
		ButtonTxt: mail.ButtonTxt,
		AppName:   s.cfg.AppName,
		Year:      time.Now().Year(),
	}

	var hb, tb bytes.Buffer
	if err := s.htmlTpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err := s.textTpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}

func (s *smtpMailService) send(mail Mail, htmlBody, textBody string) error {
	fromHeader := s.formatFromHeader()
	boundary := fmt.Sprintf("alt_%d", time.Now().UnixNano())

	var msg bytes.Buffer
	write := func(format string, a ...any) { _, _ = msg.WriteString(fmt.Sprintf(format, a...)) }

	write("From: %s\r\n", fromHeader)
	write("To: %s\r\n", strings.Join(mail.To, ", "))
	write("Subject: %s\r\n", mail.Subject)
	write("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	if mail.ReplyTo != "" {
		write("Reply-To: %s\r\n", mail.ReplyTo)
	}
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	write("\r\n")

	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 7bit\r\n\r\n")
	write("%s\r\n\r\n", textBody)

	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 7bit\r\n\r\n")
	write("%s\r\n\r\n", htmlBody)

	write("--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if s.cfg.UseSSL {
		// SMTPS (implicit TLS, usually port 465)
		tlsCfg := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			return err
		}
		defer client.Quit()

		return s.transmit(client, auth, mail.To, msg.Bytes())
	}

	// STARTTLS path (typically port 587)
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
		if err = client.StartTLS(tlsCfg); err != nil {
			return err
		}
	} else if s.cfg.RequireTLS {
		return fmt.Errorf("server does not support STARTTLS and RequireTLS=true")
	}

	return s.transmit(client, auth, mail.To, msg.Bytes())
}

func (s *smtpMailService) transmit(client *smtp.Client, auth smtp.Auth, to []string, msg []byte) error {
	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

func (s *smtpMailService) formatFromHeader() string {
	name := strings.TrimSpace(s.cfg.FromName)
	if name == "" {
		return s.cfg.From
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), s.cfg.From)
}
