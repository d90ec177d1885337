package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"flag-quiz-service/internal/domain"
)

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestMailer(cfg Config, sendErr error) (*SMTPMailer, *capturedMail) {
	captured := &capturedMail{}
	m := NewSMTPMailer(cfg)
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr, captured.auth, captured.from, captured.to, captured.msg = addr, a, from, to, string(msg)
		return sendErr
	}
	return m, captured
}

func testConfig() Config {
	return Config{Host: "smtp.example.com", Port: 587, Username: "bot", Password: "pw", From: "bot@example.com", To: "dev@example.com"}
}

func sampleReport() domain.ErrorReport {
	return domain.ErrorReport{
		Question: domain.QuestionSnapshot{
			FlagImage:     "/flags_svg/mk.svg",
			CorrectAnswer: "mk",
			CountryCode:   "mk",
			Options:       []string{"mk", "al", "bg", "gr"},
		},
		Report:      "Wrong flag shown\n<b>twice</b>",
		Email:       "player@example.com",
		SubmittedAt: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestSendErrorReport(t *testing.T) {
	m, captured := newTestMailer(testConfig(), nil)

	if err := m.SendErrorReport(context.Background(), sampleReport()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if captured.addr != "smtp.example.com:587" || captured.from != "bot@example.com" {
		t.Fatalf("unexpected envelope %s from %s", captured.addr, captured.from)
	}
	if len(captured.to) != 1 || captured.to[0] != "dev@example.com" {
		t.Fatalf("unexpected recipients %v", captured.to)
	}
	if captured.auth == nil {
		t.Fatalf("expected plain auth when credentials are set")
	}

	for _, want := range []string{
		"Subject: Flag Game - Error Report\r\n",
		"Reply-To: player@example.com\r\n",
		"Content-Type: multipart/alternative",
		"- Options: mk, al, bg, gr",
		"Correct Answer:</strong> mk",
		"Wrong flag shown<br>&lt;b&gt;twice&lt;/b&gt;",
		"Timestamp: 2025-06-01T09:30:00Z",
	} {
		if !strings.Contains(captured.msg, want) {
			t.Fatalf("message missing %q:\n%s", want, captured.msg)
		}
	}
}

func TestSendErrorReportWithoutEmail(t *testing.T) {
	cfg := testConfig()
	cfg.Username, cfg.Password = "", ""
	m, captured := newTestMailer(cfg, nil)

	report := sampleReport()
	report.Email = ""
	if err := m.SendErrorReport(context.Background(), report); err != nil {
		t.Fatalf("send: %v", err)
	}
	if strings.Contains(captured.msg, "Reply-To") {
		t.Fatalf("unexpected Reply-To header")
	}
	if !strings.Contains(captured.msg, "User Email: Not provided") {
		t.Fatalf("expected placeholder email in body")
	}
	if captured.auth != nil {
		t.Fatalf("expected no auth without credentials")
	}
}

func TestSendErrorReportFailures(t *testing.T) {
	boom := errors.New("connection refused")
	m, _ := newTestMailer(testConfig(), boom)
	if err := m.SendErrorReport(context.Background(), sampleReport()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.SendErrorReport(ctx, sampleReport()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
