package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/infra/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type testServer struct {
	server  *httptest.Server
	games   *app.GameService
	scores  *memory.ScoreStore
	mailer  *stubMailer
	limiter *IPRateLimiter
}

type stubMailer struct {
	reports []domain.ErrorReport
}

func (m *stubMailer) SendErrorReport(_ context.Context, report domain.ErrorReport) error {
	m.reports = append(m.reports, report)
	return nil
}

func newTestServer(t *testing.T, limiter *IPRateLimiter) *testServer {
	t.Helper()
	catalog, err := memory.NewCatalogLoader()
	require.NoError(t, err)

	countries := memory.NewCountryRepository(catalog, time.Hour)
	store := memory.NewScoreStore()
	leaderboard := app.NewLeaderboardService(store, 5, nil)
	scores := app.NewScoreService(store, leaderboard, nil)
	games := app.NewGameService(countries, memory.NewGameStore(time.Hour), scores, []domain.GameMode{
		{Name: "world", Questions: 15},
		{Name: "europe", Region: "Europe", Questions: 3},
	}, nil)
	mailer := &stubMailer{}
	reports := app.NewReportService(mailer, nil)

	handler := NewHandler(countries, games, scores, leaderboard, reports, nil)
	server := httptest.NewServer(handler.Router(RouterOptions{Limiter: limiter}))
	t.Cleanup(server.Close)
	return &testServer{server: server, games: games, scores: store, mailer: mailer, limiter: limiter}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	resp, err := http.Get(s.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListCountriesByRegion(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := s.do(t, http.MethodGet, "/api/countries?region=Europe", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	countries := body["countries"].([]any)
	require.NotEmpty(t, countries)
	first := countries[0].(map[string]any)
	assert.Equal(t, "Europe", first["region"])

	resp, body = s.do(t, http.MethodGet, "/api/countries?continent=Europe", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["countries"], len(countries))
}

func TestSubmitScoreValidation(t *testing.T) {
	s := newTestServer(t, nil)

	cases := []struct {
		name  string
		body  any
		field string
	}{
		{"missing submitter", map[string]any{"score": 3, "totalQuestions": 15}, "submitterId"},
		{"missing score", map[string]any{"submitterId": "s1", "totalQuestions": 15}, "score"},
		{"non-numeric score", `{"submitterId":"s1","score":"ten","totalQuestions":15}`, "score"},
		{"zero total", map[string]any{"submitterId": "s1", "score": 0, "totalQuestions": 0}, "totalQuestions"},
		{"malformed", `{"submitterId":`, "body"},
		{"empty", nil, "body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := s.do(t, http.MethodPost, "/api/scores", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.field, body["field"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSubmitScoreAndReadBack(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := s.do(t, http.MethodPost, "/api/scores", map[string]any{
		"userId":         "s1",
		"score":          12,
		"totalQuestions": 15,
		"displayName":    "Ana",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = s.do(t, http.MethodGet, "/api/scores?submitterId=s1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	scores := body["scores"].([]any)
	require.Len(t, scores, 1)
	assert.Equal(t, float64(12), scores[0].(map[string]any)["score"])

	resp, body = s.do(t, http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := body["leaderboard"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "Ana", entry["name"])
	assert.Equal(t, float64(80), entry["percentage"])

	resp, _ = s.do(t, http.MethodGet, "/api/scores", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLeaderboardEmpty(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := s.do(t, http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["leaderboard"])
}

func TestGameFlowOverREST(t *testing.T) {
	s := newTestServer(t, nil)

	resp, view := s.do(t, http.MethodPost, "/api/games", map[string]any{"submitterId": "s1", "mode": "europe"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	gameID := view["id"].(string)
	questions := view["questions"].([]any)
	require.Len(t, questions, 3)
	assert.NotContains(t, questions[0].(map[string]any), "correctAnswer")

	game, err := s.games.Get(context.Background(), gameID)
	require.NoError(t, err)

	resp, _ = s.do(t, http.MethodPost, "/api/games/"+gameID+"/score", map[string]any{"displayName": "Early"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	for _, q := range game.Questions {
		resp, result := s.do(t, http.MethodPost, "/api/games/"+gameID+"/answers", map[string]any{"questionId": q.ID, "answer": q.CorrectAnswer})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, result["correct"])
	}

	resp, _ = s.do(t, http.MethodPost, "/api/games/"+gameID+"/answers", map[string]any{"questionId": 1, "answer": "rs"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/api/games/"+gameID+"/score", map[string]any{"displayName": "Perfect"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(3), body["score"].(map[string]any)["score"])

	resp, _ = s.do(t, http.MethodPost, "/api/games/"+gameID+"/score", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, view = s.do(t, http.MethodGet, "/api/games/"+gameID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, view["finished"])
}

func TestGameErrors(t *testing.T) {
	s := newTestServer(t, nil)

	resp, _ := s.do(t, http.MethodPost, "/api/games", map[string]any{"submitterId": "s1", "mode": "mars"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/games/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/api/games/nope/answers", map[string]any{"answer": "rs"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "questionId", body["field"])

	resp, _ = s.do(t, http.MethodDelete, "/api/games/nope", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestReportError(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := s.do(t, http.MethodPost, "/api/report-error", map[string]any{
		"questionData": map[string]any{
			"flagImage":     "/flags_svg/rs.svg",
			"correctAnswer": "rs",
			"countryCode":   "rs",
			"options":       []string{"rs", "hr", "ba", "me"},
		},
		"userReport": "Colours look off",
		"userEmail":  "me@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	require.Len(t, s.mailer.reports, 1)
	assert.Equal(t, "rs", s.mailer.reports[0].Question.CountryCode)

	resp, body = s.do(t, http.MethodPost, "/api/report-error", map[string]any{"userReport": "x", "userEmail": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "userEmail", body["field"])
}

func TestWriteEndpointsAreRateLimited(t *testing.T) {
	s := newTestServer(t, NewIPRateLimiter(rate.Limit(0.001), 2))
	body := map[string]any{"submitterId": "s1", "score": 1, "totalQuestions": 2}

	for i := 0; i < 2; i++ {
		resp, _ := s.do(t, http.MethodPost, "/api/scores", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, _ := s.do(t, http.MethodPost, "/api/scores", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/leaderboard", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "reads are not limited")
}

func TestStatusMapping(t *testing.T) {
	cases := map[error]int{
		domain.NewValidationError("x", "bad"): http.StatusBadRequest,
		domain.ErrUnknownMode:                 http.StatusBadRequest,
		domain.ErrGameNotFound:                http.StatusNotFound,
		domain.ErrScoreAlreadySaved:           http.StatusConflict,
		domain.ErrInsufficientData:            http.StatusUnprocessableEntity,
		domain.ErrMailerNotConfigured:         http.StatusServiceUnavailable,
		context.DeadlineExceeded:              http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("statusFor(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestIPRateLimiterPrunesIdleEntries(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(rate.Limit(1), 1)
	limiter.now = func() time.Time { return now }

	for i := 0; i <= cleanupThreshold; i++ {
		limiter.Limiter(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	now = now.Add(maxIdleAge + time.Minute)
	limiter.Limiter("192.168.0.1")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.ips, 1)
}
