package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"groovyfox-agent/internal/domain"
	"groovyfox-agent/internal/integrations/luis"
)

type mockRecognizer struct {
	recognition domain.Recognition
	err         error
	lastText    string
}

func (m *mockRecognizer) Recognize(_ context.Context, text string) (domain.Recognition, error) {
	m.lastText = text
	return m.recognition, m.err
}

type mockRouter struct {
	plan            domain.ReplyPlan
	err             error
	lastTurn        domain.RecognizedTurn
	lastDialogState domain.DialogState
}

func (m *mockRouter) Route(_ context.Context, turn domain.RecognizedTurn, dialogState domain.DialogState) (domain.ReplyPlan, error) {
	m.lastTurn = turn
	m.lastDialogState = dialogState
	return m.plan, m.err
}

type mockTranscripts struct {
	stored       domain.Transcript
	found        bool
	findErr      error
	upsertErr    error
	upsertedID   string
	upsertedRows []string
}

func (m *mockTranscripts) Find(_ context.Context, conversationID string) (domain.Transcript, bool, error) {
	return m.stored, m.found, m.findErr
}

func (m *mockTranscripts) Upsert(_ context.Context, conversationID string, lines []string) error {
	m.upsertedID = conversationID
	m.upsertedRows = lines
	return m.upsertErr
}

func greetRecognizer() *mockRecognizer {
	return &mockRecognizer{recognition: domain.Recognition{TopIntent: domain.IntentGreet}}
}

func textPlan(texts ...string) domain.ReplyPlan {
	plan := make(domain.ReplyPlan, 0, len(texts))
	for _, txt := range texts {
		plan = append(plan, domain.TextReply(txt))
	}
	return plan
}

func newTestService(t *testing.T, r Recognizer, rt Router, ts TranscriptStore) *TurnService {
	t.Helper()
	svc, err := NewTurnService(r, rt, ts, nil, 500)
	require.NoError(t, err)
	return svc
}

func expectTurnError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func TestNewTurnService_ValidatesDependencies(t *testing.T) {
	_, err := NewTurnService(nil, &mockRouter{}, &mockTranscripts{}, nil, 500)
	require.Error(t, err)

	_, err = NewTurnService(greetRecognizer(), nil, &mockTranscripts{}, nil, 500)
	require.Error(t, err)

	_, err = NewTurnService(greetRecognizer(), &mockRouter{}, nil, nil, 500)
	require.Error(t, err)
}

func TestProcess_HappyPath(t *testing.T) {
	rec := greetRecognizer()
	rt := &mockRouter{plan: textPlan("Hello, Foxy at your service here")}
	ts := &mockTranscripts{}
	svc := newTestService(t, rec, rt, ts)

	out, err := svc.Process(context.Background(), TurnInput{
		ConversationID: "conv-1",
		SenderID:       "user-1",
		Text:           "hello there",
		Timestamp:      time.Date(2019, time.May, 20, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "conv-1", out.ConversationID)
	require.Equal(t, rt.plan, out.Replies)
	require.Equal(t, "hello there", rec.lastText)
	require.Equal(t, domain.IntentGreet, rt.lastTurn.TopIntent)
	require.Equal(t, domain.DialogNone, rt.lastDialogState)
	require.Equal(t, "conv-1", ts.upsertedID)
	require.Equal(t, []string{
		"user-1 at 2019-05-20T12:00:00Z: hello there",
		"Foxy: Hello, Foxy at your service here",
	}, ts.upsertedRows)
}

func TestProcess_MissingConversationID_GeneratesID(t *testing.T) {
	svc := newTestService(t, greetRecognizer(), &mockRouter{plan: textPlan("hi")}, &mockTranscripts{})
	out, err := svc.Process(context.Background(), TurnInput{Text: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, out.ConversationID)
}

func TestProcess_ValidationErrors(t *testing.T) {
	svc := newTestService(t, greetRecognizer(), &mockRouter{}, &mockTranscripts{})

	_, err := svc.Process(context.Background(), TurnInput{Text: "  "})
	expectTurnError(t, err, ErrorInvalidInput, "empty_message")

	_, err = svc.Process(context.Background(), TurnInput{Text: strings.Repeat("a", 501)})
	expectTurnError(t, err, ErrorInvalidInput, "message_too_long")

	_, err = svc.Process(context.Background(), TurnInput{Text: "hello", DialogState: "paused"})
	expectTurnError(t, err, ErrorInvalidInput, "invalid_dialog_state")
}

func TestProcess_RecognizerErrors(t *testing.T) {
	rec := &mockRecognizer{err: &luis.HTTPStatusError{StatusCode: http.StatusInternalServerError}}
	svc := newTestService(t, rec, &mockRouter{}, &mockTranscripts{})
	_, err := svc.Process(context.Background(), TurnInput{Text: "hello"})
	expectTurnError(t, err, ErrorUpstream, "recognizer_error")

	rec = &mockRecognizer{err: &luis.HTTPStatusError{StatusCode: http.StatusTooManyRequests}}
	svc = newTestService(t, rec, &mockRouter{}, &mockTranscripts{})
	_, err = svc.Process(context.Background(), TurnInput{Text: "hello"})
	expectTurnError(t, err, ErrorRateLimited, "recognizer_rate_limited")
}

func TestProcess_RouterErrorIsInternal(t *testing.T) {
	rt := &mockRouter{err: errors.New("transcript read failed")}
	svc := newTestService(t, greetRecognizer(), rt, &mockTranscripts{})
	_, err := svc.Process(context.Background(), TurnInput{Text: "show history"})
	expectTurnError(t, err, ErrorInternal, "transcript_read_error")
}

func TestProcess_EmptyPlanSkipsTranscriptWrite(t *testing.T) {
	ts := &mockTranscripts{}
	svc := newTestService(t, greetRecognizer(), &mockRouter{}, ts)

	out, err := svc.Process(context.Background(), TurnInput{Text: "hello", DialogState: domain.DialogWaiting})
	require.NoError(t, err)
	require.Empty(t, out.Replies)
	require.Empty(t, ts.upsertedID)
}

func TestProcess_TranscriptWriteFailureDoesNotFailTurn(t *testing.T) {
	ts := &mockTranscripts{upsertErr: errors.New("store down")}
	svc := newTestService(t, greetRecognizer(), &mockRouter{plan: textPlan("hi")}, ts)

	out, err := svc.Process(context.Background(), TurnInput{Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, textPlan("hi"), out.Replies)
}

func TestProcess_TranscriptReadFailureDoesNotFailTurn(t *testing.T) {
	ts := &mockTranscripts{findErr: errors.New("store down")}
	svc := newTestService(t, greetRecognizer(), &mockRouter{plan: textPlan("hi")}, ts)

	out, err := svc.Process(context.Background(), TurnInput{Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, textPlan("hi"), out.Replies)
	require.Empty(t, ts.upsertedID)
}

func TestProcess_AppendsToExistingTranscript(t *testing.T) {
	ts := &mockTranscripts{
		stored: domain.Transcript{ConversationID: "conv-1", Lines: []string{"user-1 at 2019-05-20T11:00:00Z: hi", "Foxy: See you soon!"}},
		found:  true,
	}
	svc := newTestService(t, greetRecognizer(), &mockRouter{plan: textPlan("Hello, Foxy at your service here")}, ts)

	_, err := svc.Process(context.Background(), TurnInput{
		ConversationID: "conv-1",
		SenderID:       "user-1",
		Text:           "hello again",
		Timestamp:      time.Date(2019, time.May, 20, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"user-1 at 2019-05-20T11:00:00Z: hi",
		"Foxy: See you soon!",
		"user-1 at 2019-05-20T12:00:00Z: hello again",
		"Foxy: Hello, Foxy at your service here",
	}, ts.upsertedRows)
}

func TestTranscriptLines_RendersEveryReplyKind(t *testing.T) {
	turn := domain.RecognizedTurn{
		SenderID:  "user-1",
		Text:      "show me shoes",
		Timestamp: time.Date(2019, time.May, 20, 12, 0, 0, 0, time.UTC),
	}
	plan := domain.ReplyPlan{
		domain.TextReply("Hmm, may I interest you in one of these?"),
		domain.SuggestedActionsReply("", "Show shoes", "Find festivals"),
		domain.CarouselReply([]domain.Card{{Title: "Classy Foxes"}, {Title: "Furry Foxes"}}),
	}

	lines := transcriptLines(turn, plan)
	require.Equal(t, []string{
		"user-1 at 2019-05-20T12:00:00Z: show me shoes",
		"Foxy: Hmm, may I interest you in one of these?",
		"Foxy: Show shoes, Find festivals",
		"Foxy: Classy Foxes, Furry Foxes",
	}, lines)
}
