package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"groovyfox-agent/internal/domain"
	"groovyfox-agent/internal/usecase"
)

type stubTurns struct {
	out usecase.TurnOutput
	err error
	in  usecase.TurnInput
}

func (s *stubTurns) Process(_ context.Context, in usecase.TurnInput) (usecase.TurnOutput, error) {
	s.in = in
	return s.out, s.err
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/turn",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	turns := &stubTurns{out: usecase.TurnOutput{
		ConversationID: "conv-1",
		Replies: domain.ReplyPlan{
			domain.TextReply("Hello, Foxy at your service here"),
			domain.SuggestedActionsReply("", "Show shoes", "Find festivals"),
			domain.CarouselReply([]domain.Card{{Title: "Classy Foxes", Subtitle: "€112", Postback: "select model 1"}}),
		},
	}}
	h, err := NewHandler(turns)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"conversationId":"conv-1","senderId":"user-1","text":"hello","dialogState":"none"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "conv-1", turns.in.ConversationID)
	require.Equal(t, "user-1", turns.in.SenderID)
	require.Equal(t, "hello", turns.in.Text)
	require.Equal(t, domain.DialogNone, turns.in.DialogState)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])

	out := parseBody[turnResponse](t, resp.Body)
	require.Equal(t, "conv-1", out.ConversationID)
	require.Len(t, out.Replies, 3)
	require.Equal(t, "text", out.Replies[0].Type)
	require.Equal(t, "Hello, Foxy at your service here", out.Replies[0].Text)
	require.Equal(t, "suggestedActions", out.Replies[1].Type)
	require.Equal(t, []string{"Show shoes", "Find festivals"}, out.Replies[1].Options)
	require.Equal(t, "carousel", out.Replies[2].Type)
	require.Equal(t, "select model 1", out.Replies[2].Cards[0].Postback)
}

func TestHandle_EmptyCarouselSerializesAsEmptyArray(t *testing.T) {
	turns := &stubTurns{out: usecase.TurnOutput{
		ConversationID: "conv-1",
		Replies:        domain.ReplyPlan{domain.CarouselReply(nil)},
	}}
	h, err := NewHandler(turns)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"text":"select model 9"}`))
	require.NoError(t, err)
	require.Contains(t, resp.Body, `"cards":[]`)
}

func TestHandle_InvalidBody(t *testing.T) {
	h, err := NewHandler(&stubTurns{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`not-json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
	require.Equal(t, "malformed_body", out.Reason)
}

func TestHandle_MalformedTimestamp(t *testing.T) {
	h, err := NewHandler(&stubTurns{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"text":"hello","timestamp":"yesterday"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, "malformed_timestamp", out.Reason)
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_message"}, status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput)},
		{name: "rate limited", err: &usecase.Error{Code: usecase.ErrorRateLimited, Reason: "recognizer_rate_limited"}, status: http.StatusTooManyRequests, code: string(usecase.ErrorRateLimited)},
		{name: "upstream", err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "recognizer_error"}, status: http.StatusBadGateway, code: string(usecase.ErrorUpstream)},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "transcript_read_error"}, status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := NewHandler(&stubTurns{err: tc.err})
			require.NoError(t, err)

			resp, err := h.Handle(context.Background(), makeEvent(`{"text":"hello"}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, tc.code, out.Error)
		})
	}
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	turns := &stubTurns{out: usecase.TurnOutput{ConversationID: "conv-1"}}
	h, err := NewHandler(turns)
	require.NoError(t, err)

	event := makeEvent(`{"text":"hello"}`)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}
