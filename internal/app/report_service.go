package app

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"flag-quiz-service/internal/domain"
)

// MaxReportLength caps the free-text part of an error report.
const MaxReportLength = 2000

// https://html.spec.whatwg.org/#valid-e-mail-address
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_\x60{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Mailer delivers error reports to the maintainers.
type Mailer interface {
	SendErrorReport(ctx context.Context, report domain.ErrorReport) error
}

// ReportService forwards player error reports about questions.
type ReportService struct {
	mailer Mailer
	now    func() time.Time
	logger *slog.Logger
}

// NewReportService accepts a nil mailer; reports then fail with ErrMailerNotConfigured.
func NewReportService(mailer Mailer, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{mailer: mailer, now: time.Now, logger: logger}
}

func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Report validates and sends an error report.
func (s *ReportService) Report(ctx context.Context, report domain.ErrorReport) error {
	report.Report = strings.TrimSpace(report.Report)
	report.Email = strings.ToLower(strings.TrimSpace(report.Email))

	if report.Report == "" {
		return domain.NewValidationError("userReport", "is required")
	}
	if len(report.Report) > MaxReportLength {
		return domain.NewValidationError("userReport", "is too long")
	}
	if report.Email != "" && !emailRegex.MatchString(report.Email) {
		return domain.NewValidationError("userEmail", "has an invalid format")
	}
	if s.mailer == nil {
		return domain.ErrMailerNotConfigured
	}

	report.SubmittedAt = s.now().UTC()
	if err := s.mailer.SendErrorReport(ctx, report); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	s.logger.Info("error report sent", "country_code", report.Question.CountryCode)
	return nil
}
