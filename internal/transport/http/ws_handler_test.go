package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T, s *testServer, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil skips messages of other types, such as leaderboard pushes.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string, dst any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg wsEnvelope
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "error" && msgType != "error" {
			t.Fatalf("unexpected error message: %s", msg.Payload)
		}
		if msg.Type != msgType {
			continue
		}
		if dst != nil {
			require.NoError(t, json.Unmarshal(msg.Payload, dst))
		}
		return
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}))
}

func TestWSRequiresSubmitter(t *testing.T) {
	s := newTestServer(t, nil)
	resp, err := http.Get(s.server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWSPlaysAGame(t *testing.T) {
	s := newTestServer(t, nil)
	conn := dialWS(t, s, "submitterId=s1&mode=europe")

	var view domain.GameView
	readUntil(t, conn, "game", &view)
	require.Len(t, view.Questions, 3)

	game, err := s.games.Get(context.Background(), view.ID)
	require.NoError(t, err)

	for i, q := range game.Questions {
		answer := q.CorrectAnswer
		if i == 0 {
			answer = wrongOption(q)
		}
		send(t, conn, "answer", map[string]any{"questionId": q.ID, "answer": answer})
		var result domain.AnswerResult
		readUntil(t, conn, "answerResult", &result)
		assert.Equal(t, i != 0, result.Correct)
		assert.Equal(t, q.CorrectAnswer, result.CorrectAnswer)
	}

	var finished finishedPayload
	readUntil(t, conn, "finished", &finished)
	assert.Equal(t, finishedPayload{Score: 2, TotalQuestions: 3, Percentage: 67}, finished)

	send(t, conn, "save", map[string]any{"displayName": "Ana"})
	var record domain.ScoreRecord
	readUntil(t, conn, "saved", &record)
	assert.Equal(t, 2, record.Score)
	assert.Equal(t, "Ana", record.DisplayName)

	for {
		var lb domain.Leaderboard
		readUntil(t, conn, "leaderboard", &lb)
		if len(lb.Entries) == 0 {
			continue
		}
		assert.Equal(t, "Ana", lb.Entries[0].DisplayName)
		break
	}
}

func TestWSReportsBadMessages(t *testing.T) {
	s := newTestServer(t, nil)
	conn := dialWS(t, s, "submitterId=s1")
	readUntil(t, conn, "game", nil)

	send(t, conn, "dance", nil)
	var payload errorPayload
	readUntil(t, conn, "error", &payload)
	assert.Equal(t, "unsupported message type", payload.Message)

	send(t, conn, "save", map[string]any{"displayName": "Early"})
	readUntil(t, conn, "error", &payload)
	assert.Contains(t, payload.Message, domain.ErrGameNotFinished.Error())
}

func TestWSAbandonsUnfinishedGameOnDisconnect(t *testing.T) {
	s := newTestServer(t, nil)
	conn := dialWS(t, s, "submitterId=s1")

	var view domain.GameView
	readUntil(t, conn, "game", &view)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		_, err := s.games.Get(context.Background(), view.ID)
		return errors.Is(err, domain.ErrGameNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}

func wrongOption(q domain.Question) string {
	for _, option := range q.Options {
		if option != q.CorrectAnswer {
			return option
		}
	}
	return ""
}

func TestWSClosesOnOversizedMessage(t *testing.T) {
	s := newTestServer(t, nil)
	conn := dialWS(t, s, "submitterId=s1")

	var view domain.GameView
	readUntil(t, conn, "game", &view)

	big := strings.Repeat("x", maxBodyBytes+1)
	send(t, conn, "save", map[string]any{"displayName": big})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg wsEnvelope
		err := conn.ReadJSON(&msg)
		if err == nil {
			require.NotEqual(t, "saved", msg.Type)
			continue
		}
		// 1009 when the close frame arrives; a reset if unread payload tore the socket down first.
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			assert.Equal(t, websocket.CloseMessageTooBig, closeErr.Code)
		}
		break
	}

	require.Eventually(t, func() bool {
		_, err := s.games.Get(context.Background(), view.ID)
		return errors.Is(err, domain.ErrGameNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}
