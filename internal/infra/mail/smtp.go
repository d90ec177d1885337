package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	texttemplate "text/template"
	"time"

	"flag-quiz-service/internal/domain"
)

// Config holds SMTP delivery settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// sendFunc matches smtp.SendMail so tests can capture messages.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends error reports as multipart text/HTML mail.
type SMTPMailer struct {
	cfg  Config
	send sendFunc
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

const reportSubject = "Flag Game - Error Report"

var htmlReport = template.Must(template.New("report_html").Parse(`<h2>Error Report from Flag Guessing Game</h2>
<h3>Question Data:</h3>
<ul>
  <li><strong>Flag Image:</strong> {{.Question.FlagImage}}</li>
  <li><strong>Correct Answer:</strong> {{.Question.CorrectAnswer}}</li>
  <li><strong>Country Code:</strong> {{.Question.CountryCode}}</li>
  <li><strong>Options:</strong> {{.Options}}</li>
</ul>
<h3>User Report:</h3>
<p>{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
<p><strong>User Email:</strong> {{.Email}}</p>
<p><strong>Timestamp:</strong> {{.Timestamp}}</p>
`))

var textReport = texttemplate.Must(texttemplate.New("report_text").Parse(`Error Report from Flag Guessing Game

Question Data:
- Flag Image: {{.Question.FlagImage}}
- Correct Answer: {{.Question.CorrectAnswer}}
- Country Code: {{.Question.CountryCode}}
- Options: {{.Options}}

User Report:
{{.Report}}

User Email: {{.Email}}

Timestamp: {{.Timestamp}}
`))

type reportView struct {
	Question  domain.QuestionSnapshot
	Options   string
	Report    string
	Lines     []string
	Email     string
	Timestamp string
}

// SendErrorReport mails a report to the configured maintainer address.
func (m *SMTPMailer) SendErrorReport(ctx context.Context, report domain.ErrorReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.buildMessage(report)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" || m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{m.cfg.To}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(report domain.ErrorReport) ([]byte, error) {
	email := report.Email
	if email == "" {
		email = "Not provided"
	}
	view := reportView{
		Question:  report.Question,
		Options:   strings.Join(report.Question.Options, ", "),
		Report:    report.Report,
		Lines:     strings.Split(report.Report, "\n"),
		Email:     email,
		Timestamp: report.SubmittedAt.UTC().Format(time.RFC3339),
	}

	var text, html bytes.Buffer
	if err := textReport.Execute(&text, view); err != nil {
		return nil, fmt.Errorf("failed to execute text template: %w", err)
	}
	if err := htmlReport.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("failed to execute html template: %w", err)
	}

	const boundary = "flag-quiz-report"
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: Flag Game <%s>\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", m.cfg.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", reportSubject)
	if report.Email != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", report.Email)
	}
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n", boundary)
	msg.Write(text.Bytes())
	fmt.Fprintf(&msg, "\r\n--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n", boundary)
	msg.Write(html.Bytes())
	fmt.Fprintf(&msg, "\r\n--%s--\r\n", boundary)
	return msg.Bytes(), nil
}
