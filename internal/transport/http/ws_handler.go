package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer"`
}

type savePayload struct {
	DisplayName string `json:"displayName"`
}

type finishedPayload struct {
	Score          int  `json:"score"`
	TotalQuestions int  `json:"totalQuestions"`
	Percentage     int  `json:"percentage"`
	Saved          bool `json:"saved"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS plays one game per connection and streams leaderboard updates.
// Query: mode (default world), submitterId (required).
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	submitterID := strings.TrimSpace(r.URL.Query().Get("submitterId"))
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = defaultMode
	}
	if submitterID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing submitterId", Field: "submitterId"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	game, err := h.games.Start(ctx, submitterID, mode)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.abandonUnfinished(game.ID)

	updates, cancel, err := h.leaderboard.Subscribe(ctx)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		failed := false
		for msg := range send {
			if failed {
				continue // drain so senders never block
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write failed", "error", err)
				failed = true
				_ = conn.Close()
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "game", Payload: game.View()}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handleInbound(ctx, game.ID, inbound) {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *Handler) handleInbound(ctx context.Context, gameID string, inbound inboundMessage) []outboundMessage[any] {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{wsError("invalid answer payload")}
		}
		result, err := h.games.Answer(ctx, gameID, payload.QuestionID, payload.Answer)
		if err != nil {
			return []outboundMessage[any]{wsError(err.Error())}
		}
		out := []outboundMessage[any]{{Type: "answerResult", Payload: result}}
		if result.Finished {
			game, err := h.games.Get(ctx, gameID)
			if err != nil {
				return append(out, wsError(err.Error()))
			}
			out = append(out, outboundMessage[any]{Type: "finished", Payload: finishedSummary(game)})
		}
		return out
	case "save":
		var payload savePayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				return []outboundMessage[any]{wsError("invalid save payload")}
			}
		}
		record, err := h.games.SaveScore(ctx, gameID, payload.DisplayName)
		if err != nil {
			return []outboundMessage[any]{wsError(err.Error())}
		}
		return []outboundMessage[any]{{Type: "saved", Payload: record}}
	default:
		return []outboundMessage[any]{wsError("unsupported message type")}
	}
}

// abandonUnfinished drops games the player walked away from; finished ones
// stay until their TTL so a late save over REST still works.
func (h *Handler) abandonUnfinished(gameID string) {
	ctx := context.Background()
	game, err := h.games.Get(ctx, gameID)
	if err != nil || game.Finished() {
		return
	}
	if err := h.games.Abandon(ctx, gameID); err != nil {
		h.logger.Warn("failed to abandon game", "game_id", gameID, "error", err)
	}
}

func finishedSummary(g domain.Game) finishedPayload {
	total := len(g.Questions)
	return finishedPayload{
		Score:          g.Score,
		TotalQuestions: total,
		Percentage:     app.Percentage(g.Score, total),
		Saved:          g.ScoreID != "",
	}
}

func wsError(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
