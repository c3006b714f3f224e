package domain

// Transcript is the ordered log of utterances for one conversation. Lines are
// pre-rendered strings, user and bot utterances interleaved in turn order.
type Transcript struct {
	ConversationID string
	Lines          []string
}
