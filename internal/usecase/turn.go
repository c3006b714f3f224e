package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"groovyfox-agent/internal/domain"
)

const defaultMaxMessageLen = 500

// Recognizer classifies one message into an intent and extracted entities.
type Recognizer interface {
	Recognize(ctx context.Context, text string) (domain.Recognition, error)
}

// Router selects the reply plan for one recognized turn.
type Router interface {
	Route(ctx context.Context, turn domain.RecognizedTurn, dialogState domain.DialogState) (domain.ReplyPlan, error)
}

// TranscriptStore reads and replaces transcripts keyed by conversation id.
type TranscriptStore interface {
	Find(ctx context.Context, conversationID string) (domain.Transcript, bool, error)
	Upsert(ctx context.Context, conversationID string, lines []string) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// TurnService orchestrates one conversation turn: recognize the message,
// route it to a reply plan, and append the turn to the transcript.
type TurnService struct {
	recognizer    Recognizer
	router        Router
	transcripts   TranscriptStore
	log           *slog.Logger
	maxMessageLen int
}

type TurnInput struct {
	ConversationID string
	SenderID       string
	Text           string
	DialogState    domain.DialogState
	Timestamp      time.Time
}

type TurnOutput struct {
	ConversationID string
	Replies        domain.ReplyPlan
}

func NewTurnService(r Recognizer, rt Router, ts TranscriptStore, log *slog.Logger, maxMessageLen int) (*TurnService, error) {
	if r == nil {
		return nil, errors.New("usecase: recognizer must not be nil")
	}
	if rt == nil {
		return nil, errors.New("usecase: router must not be nil")
	}
	if ts == nil {
		return nil, errors.New("usecase: transcript store must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if maxMessageLen <= 0 {
		maxMessageLen = defaultMaxMessageLen
	}
	return &TurnService{
		recognizer:    r,
		router:        rt,
		transcripts:   ts,
		log:           log,
		maxMessageLen: maxMessageLen,
	}, nil
}

// Process runs one turn end to end. Reply delivery is the primary contract:
// a transcript write failure after replies were produced is logged and the
// turn still succeeds. A recognizer failure fails the whole turn; guessing an
// intent would corrupt the reply.
func (s *TurnService) Process(ctx context.Context, in TurnInput) (TurnOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return TurnOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if len(text) > s.maxMessageLen {
		return TurnOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	dialogState, err := resolveDialogState(in.DialogState)
	if err != nil {
		return TurnOutput{}, newError(ErrorInvalidInput, "invalid_dialog_state", err)
	}

	convID := strings.TrimSpace(in.ConversationID)
	if convID == "" {
		convID = newUUID()
	}
	timestamp := in.Timestamp
	if timestamp.IsZero() {
		timestamp = now()
	}

	recognition, err := s.recognizer.Recognize(ctx, text)
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return TurnOutput{}, newError(ErrorRateLimited, "recognizer_rate_limited", err)
		}
		return TurnOutput{}, newError(ErrorUpstream, "recognizer_error", err)
	}

	turn := domain.RecognizedTurn{
		TopIntent:      recognition.TopIntent,
		Entities:       recognition.Entities,
		Text:           text,
		ConversationID: convID,
		SenderID:       in.SenderID,
		Timestamp:      timestamp,
	}

	plan, err := s.router.Route(ctx, turn, dialogState)
	if err != nil {
		return TurnOutput{}, newError(ErrorInternal, "transcript_read_error", err)
	}

	if len(plan) > 0 {
		if err := s.appendTranscript(ctx, turn, plan); err != nil {
			// Best effort: the reply still goes out.
			s.log.Warn("transcript persistence failed", "conversationId", convID, "err", err)
		}
	}

	return TurnOutput{ConversationID: convID, Replies: plan}, nil
}

// appendTranscript reads the stored transcript and writes it back with this
// turn's lines appended. Read-then-write with last write wins; duplicate
// appends on redelivery are accepted behavior.
func (s *TurnService) appendTranscript(ctx context.Context, turn domain.RecognizedTurn, plan domain.ReplyPlan) error {
	existing, _, err := s.transcripts.Find(ctx, turn.ConversationID)
	if err != nil {
		return err
	}
	lines := append(existing.Lines, transcriptLines(turn, plan)...)
	return s.transcripts.Upsert(ctx, turn.ConversationID, lines)
}

func resolveDialogState(state domain.DialogState) (domain.DialogState, error) {
	switch state {
	case "":
		return domain.DialogNone, nil
	case domain.DialogNone, domain.DialogWaiting, domain.DialogComplete:
		return state, nil
	default:
		return "", fmt.Errorf("unknown dialog state %q", state)
	}
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}

var now = func() time.Time {
	return time.Now().UTC()
}
