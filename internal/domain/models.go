package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultLanguage is the language used when a localized name is missing.
const DefaultLanguage = "en"

// MaxDisplayNameLength caps leaderboard names (in runes).
const MaxDisplayNameLength = 40

// Country is immutable reference data loaded from the country source.
type Country struct {
	Code     string            `json:"code"`
	Names    map[string]string `json:"names"`
	FlagFile string            `json:"flagFile"`
	Region   string            `json:"region,omitempty"`
}

// Name returns the localized name, falling back to English and then the code.
func (c Country) Name(lang string) string {
	if name := c.Names[lang]; name != "" {
		return name
	}
	if name := c.Names[DefaultLanguage]; name != "" {
		return name
	}
	return c.Code
}

// FlagAssetRef is the public path of the country's flag image.
func (c Country) FlagAssetRef() string {
	return "/flags_svg/" + c.FlagFile
}

// SameCode compares country codes case-insensitively.
func SameCode(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Question is one multiple-choice flag question.
// Options holds exactly four distinct codes, one of which is CorrectAnswer.
type Question struct {
	ID                int      `json:"id"`
	FlagAssetRef      string   `json:"flagAssetRef"`
	CorrectAnswer     string   `json:"correctAnswer"`
	Options           []string `json:"options"`
	SourceCountryCode string   `json:"sourceCountryCode"`
}

// ScoreRecord is a persisted game result.
type ScoreRecord struct {
	ID             string    `json:"id"`
	SubmitterID    string    `json:"submitterId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	DisplayName    string    `json:"displayName,omitempty"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// ScoreSubmission is the client payload for saving a score.
type ScoreSubmission struct {
	SubmitterID    string
	Score          int
	TotalQuestions int
	DisplayName    string
}

// Normalize trims free-text fields.
func (s ScoreSubmission) Normalize() ScoreSubmission {
	s.SubmitterID = strings.TrimSpace(s.SubmitterID)
	s.DisplayName = strings.TrimSpace(s.DisplayName)
	return s
}

// Validate checks a normalized submission.
func (s ScoreSubmission) Validate() error {
	if s.SubmitterID == "" {
		return NewValidationError("submitterId", "is required")
	}
	if s.TotalQuestions <= 0 {
		return NewValidationError("totalQuestions", "must be greater than zero")
	}
	if s.Score < 0 || s.Score > s.TotalQuestions {
		return NewValidationError("score", "must be between 0 and totalQuestions")
	}
	if utf8.RuneCountInString(s.DisplayName) > MaxDisplayNameLength {
		return NewValidationError("displayName", "is too long")
	}
	return nil
}

// LeaderboardEntry is a ranked projection of a ScoreRecord.
type LeaderboardEntry struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"name"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     int       `json:"percentage"`
	SubmittedAt    time.Time `json:"createdAt"`
}

// Leaderboard captures the ranked entries for one UTC day.
type Leaderboard struct {
	Date      string             `json:"date"`
	Entries   []LeaderboardEntry `json:"leaderboard"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// QuestionSnapshot is the question as the player saw it when reporting an error.
type QuestionSnapshot struct {
	FlagImage     string   `json:"flagImage"`
	CorrectAnswer string   `json:"correctAnswer"`
	CountryCode   string   `json:"countryCode"`
	Options       []string `json:"options"`
}

// ErrorReport is a player's complaint about a question.
type ErrorReport struct {
	Question    QuestionSnapshot
	Report      string
	Email       string
	SubmittedAt time.Time
}
