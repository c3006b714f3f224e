package domain

// ReplyKind discriminates the reply unit variants.
type ReplyKind string

const (
	ReplyText             ReplyKind = "text"
	ReplySuggestedActions ReplyKind = "suggestedActions"
	ReplyCarousel         ReplyKind = "carousel"
)

// Card is one selectable entry in a carousel. Postback is an opaque command
// string interpreted on the next turn as if typed by the user.
type Card struct {
	Title       string
	Subtitle    string
	ImageURL    string
	ActionTitle string
	Postback    string
}

// Reply is a single outbound reply unit: plain text, a suggested-actions
// prompt, or a carousel of cards, depending on Kind.
type Reply struct {
	Kind    ReplyKind
	Text    string
	Options []string
	Cards   []Card
}

// ReplyPlan is the ordered sequence of reply units produced for one turn.
type ReplyPlan []Reply

// TextReply builds a plain text reply unit.
func TextReply(text string) Reply {
	return Reply{Kind: ReplyText, Text: text}
}

// SuggestedActionsReply builds a suggested-actions reply unit.
func SuggestedActionsReply(text string, options ...string) Reply {
	return Reply{Kind: ReplySuggestedActions, Text: text, Options: options}
}

// CarouselReply builds a carousel reply unit. A carousel with zero cards is
// valid.
func CarouselReply(cards []Card) Reply {
	return Reply{Kind: ReplyCarousel, Cards: cards}
}
