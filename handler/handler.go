// Package handler adapts APIGateway proxy events to the turn service: one
// inbound message per invocation, a JSON reply plan per response.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"groovyfox-agent/internal/domain"
	"groovyfox-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// TurnProcessor is the usecase surface the handler depends on.
type TurnProcessor interface {
	Process(ctx context.Context, in usecase.TurnInput) (usecase.TurnOutput, error)
}

type turnRequest struct {
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	Text           string `json:"text"`
	DialogState    string `json:"dialogState"`
	Timestamp      string `json:"timestamp"`
}

type turnResponse struct {
	ConversationID string         `json:"conversationId"`
	Replies        []replyPayload `json:"replies"`
}

type replyPayload struct {
	Type    string        `json:"type"`
	Text    string        `json:"text,omitempty"`
	Options []string      `json:"options,omitempty"`
	Cards   []cardPayload `json:"cards,omitempty"`
}

// MarshalJSON keeps an explicitly empty (non-nil) card list as "cards":[]
// while still omitting the field entirely when Cards is nil.
func (p replyPayload) MarshalJSON() ([]byte, error) {
	type alias replyPayload
	if p.Cards != nil && len(p.Cards) == 0 {
		return json.Marshal(struct {
			alias
			Cards []cardPayload `json:"cards"`
		}{alias: alias(p), Cards: p.Cards})
	}
	return json.Marshal(alias(p))
}

type cardPayload struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	ActionTitle string `json:"actionTitle,omitempty"`
	Postback    string `json:"postback"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type Handler struct {
	turns TurnProcessor
}

func NewHandler(turns TurnProcessor) (*Handler, error) {
	if turns == nil {
		return nil, errors.New("handler: turn processor must not be nil")
	}
	return &Handler{turns: turns}, nil
}

// Handle processes one inbound message event.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := resolveCorrelationID(event.Headers)

	var req turnRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return errorReply(http.StatusBadRequest, usecase.ErrorInvalidInput, "malformed_body", correlationID), nil
	}

	timestamp, err := parseTimestamp(req.Timestamp)
	if err != nil {
		return errorReply(http.StatusBadRequest, usecase.ErrorInvalidInput, "malformed_timestamp", correlationID), nil
	}

	out, err := h.turns.Process(ctx, usecase.TurnInput{
		ConversationID: req.ConversationID,
		SenderID:       req.SenderID,
		Text:           req.Text,
		DialogState:    domain.DialogState(req.DialogState),
		Timestamp:      timestamp,
	})
	if err != nil {
		status, code, reason := mapError(err)
		return errorReply(status, code, reason, correlationID), nil
	}

	return jsonReply(http.StatusOK, toTurnResponse(out), correlationID), nil
}

func toTurnResponse(out usecase.TurnOutput) turnResponse {
	replies := make([]replyPayload, 0, len(out.Replies))
	for _, reply := range out.Replies {
		replies = append(replies, toReplyPayload(reply))
	}
	return turnResponse{ConversationID: out.ConversationID, Replies: replies}
}

func toReplyPayload(reply domain.Reply) replyPayload {
	payload := replyPayload{Type: string(reply.Kind), Text: reply.Text, Options: reply.Options}
	if reply.Kind == domain.ReplyCarousel {
		// A carousel with zero cards is valid; keep it an empty array.
		payload.Cards = make([]cardPayload, 0, len(reply.Cards))
		for _, card := range reply.Cards {
			payload.Cards = append(payload.Cards, cardPayload{
				Title:       card.Title,
				Subtitle:    card.Subtitle,
				ImageURL:    card.ImageURL,
				ActionTitle: card.ActionTitle,
				Postback:    card.Postback,
			})
		}
	}
	return payload
}

func mapError(err error) (int, usecase.ErrorCode, string) {
	var usecaseErr *usecase.Error
	if !errors.As(err, &usecaseErr) {
		return http.StatusInternalServerError, usecase.ErrorInternal, ""
	}
	switch usecaseErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, usecaseErr.Code, usecaseErr.Reason
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests, usecaseErr.Code, usecaseErr.Reason
	case usecase.ErrorUpstream:
		return http.StatusBadGateway, usecaseErr.Code, usecaseErr.Reason
	default:
		return http.StatusInternalServerError, usecase.ErrorInternal, usecaseErr.Reason
	}
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func resolveCorrelationID(headers map[string]string) string {
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == correlationHeader && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func jsonReply(status int, body any, correlationID string) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    responseHeaders(correlationID),
			Body:       `{"error":"INTERNAL_ERROR"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    responseHeaders(correlationID),
		Body:       string(raw),
	}
}

func errorReply(status int, code usecase.ErrorCode, reason, correlationID string) events.APIGatewayProxyResponse {
	return jsonReply(status, errorResponse{Error: string(code), Reason: reason}, correlationID)
}

func responseHeaders(correlationID string) map[string]string {
	return map[string]string{
		"Content-Type":    "application/json",
		correlationHeader: correlationID,
	}
}
