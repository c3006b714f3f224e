package usecase

import (
	"fmt"
	"strings"
	"time"

	"groovyfox-agent/internal/domain"
)

const botLabel = "Foxy"

// transcriptLines renders one turn as transcript lines: the user utterance
// first, then one bot line per reply unit.
func transcriptLines(turn domain.RecognizedTurn, plan domain.ReplyPlan) []string {
	lines := make([]string, 0, len(plan)+1)
	lines = append(lines, fmt.Sprintf("%s at %s: %s",
		turn.SenderID, turn.Timestamp.UTC().Format(time.RFC3339), turn.Text))
	for _, reply := range plan {
		lines = append(lines, botLabel+": "+renderReply(reply))
	}
	return lines
}

// renderReply flattens a reply unit to its text representation: text
// verbatim, suggested-action options joined, carousel card titles joined.
func renderReply(reply domain.Reply) string {
	switch reply.Kind {
	case domain.ReplySuggestedActions:
		return strings.Join(reply.Options, ", ")
	case domain.ReplyCarousel:
		titles := make([]string, 0, len(reply.Cards))
		for _, card := range reply.Cards {
			titles = append(titles, card.Title)
		}
		return strings.Join(titles, ", ")
	default:
		return reply.Text
	}
}
