package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	defaultMode  = "world"
	maxBodyBytes = 64 << 10
)

var errEmptyBody = domain.NewValidationError("body", "is required")

// Handler serves the REST and WebSocket API of the quiz.
type Handler struct {
	countries   app.CountryRepository
	games       *app.GameService
	scores      *app.ScoreService
	leaderboard *app.LeaderboardService
	reports     *app.ReportService
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

func NewHandler(
	countries app.CountryRepository,
	games *app.GameService,
	scores *app.ScoreService,
	leaderboard *app.LeaderboardService,
	reports *app.ReportService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		countries:   countries,
		games:       games,
		scores:      scores,
		leaderboard: leaderboard,
		reports:     reports,
		logger:      logger,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
	}
}

// ListCountries returns the countries of ?region= (or ?continent=), sorted by English name.
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		region = r.URL.Query().Get("continent")
	}
	countries, err := h.countries.Countries(r.Context(), strings.TrimSpace(region))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"countries": countries})
}

func (h *Handler) ListModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"modes": h.games.Modes()})
}

type startGameRequest struct {
	SubmitterID string `json:"submitterId"`
	Mode        string `json:"mode"`
}

func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	var req startGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Mode == "" {
		req.Mode = defaultMode
	}
	game, err := h.games.Start(r.Context(), req.SubmitterID, req.Mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, game.View())
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.games.Get(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game.View())
}

type answerRequest struct {
	QuestionID *int   `json:"questionId"`
	Answer     string `json:"answer"`
}

func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.QuestionID == nil {
		h.writeError(w, r, domain.NewValidationError("questionId", "is required"))
		return
	}
	result, err := h.games.Answer(r.Context(), chi.URLParam(r, "gameID"), *req.QuestionID, req.Answer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type saveGameScoreRequest struct {
	DisplayName string `json:"displayName"`
}

func (h *Handler) SaveGameScore(w http.ResponseWriter, r *http.Request) {
	var req saveGameScoreRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		h.writeError(w, r, err)
		return
	}
	record, err := h.games.SaveScore(r.Context(), chi.URLParam(r, "gameID"), req.DisplayName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "score": record})
}

func (h *Handler) AbandonGame(w http.ResponseWriter, r *http.Request) {
	if err := h.games.Abandon(r.Context(), chi.URLParam(r, "gameID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitScoreRequest accepts userId as an alias of submitterId.
type submitScoreRequest struct {
	SubmitterID    string `json:"submitterId"`
	UserID         string `json:"userId"`
	Score          *int   `json:"score"`
	TotalQuestions *int   `json:"totalQuestions"`
	DisplayName    string `json:"displayName"`
	Name           string `json:"name"`
}

func (req submitScoreRequest) toSubmission() (domain.ScoreSubmission, error) {
	if req.Score == nil {
		return domain.ScoreSubmission{}, domain.NewValidationError("score", "is required")
	}
	if req.TotalQuestions == nil {
		return domain.ScoreSubmission{}, domain.NewValidationError("totalQuestions", "is required")
	}
	submitter := req.SubmitterID
	if submitter == "" {
		submitter = req.UserID
	}
	name := req.DisplayName
	if name == "" {
		name = req.Name
	}
	return domain.ScoreSubmission{
		SubmitterID:    submitter,
		Score:          *req.Score,
		TotalQuestions: *req.TotalQuestions,
		DisplayName:    name,
	}, nil
}

func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	submission, err := req.toSubmission()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	record, err := h.scores.Submit(r.Context(), submission)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "score": record})
}

func (h *Handler) ScoreHistory(w http.ResponseWriter, r *http.Request) {
	submitter := r.URL.Query().Get("submitterId")
	if submitter == "" {
		submitter = r.URL.Query().Get("userId")
	}
	records, err := h.scores.History(r.Context(), submitter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scores": records})
}

// Leaderboard recomputes today's board on every request.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.leaderboard.Today(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

type reportErrorRequest struct {
	QuestionData domain.QuestionSnapshot `json:"questionData"`
	UserReport   string                  `json:"userReport"`
	UserEmail    string                  `json:"userEmail"`
}

func (h *Handler) ReportError(w http.ResponseWriter, r *http.Request) {
	var req reportErrorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	err := h.reports.Report(r.Context(), domain.ErrorReport{
		Question: req.QuestionData,
		Report:   req.UserReport,
		Email:    req.UserEmail,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// decodeJSON reads a bounded JSON body. Type mismatches become validation
// errors on the offending field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return errEmptyBody
		case errors.As(err, &typeErr):
			return domain.NewValidationError(typeErr.Field, fmt.Sprintf("has the wrong type (%s)", typeErr.Value))
		default:
			return domain.NewValidationError("body", "malformed JSON")
		}
	}
	return nil
}
