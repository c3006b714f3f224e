// Package router implements the turn-dispatch decision procedure: given one
// recognized turn it selects the reply plan for that turn. Reference data is
// injected at construction and never mutated.
package router

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"groovyfox-agent/internal/domain"
)

const (
	msgGreeting        = "Hello, Foxy at your service here"
	msgGreetingMenu    = "Here`s what I can do for you:"
	msgChitChat        = "Awesome, how may I help you today?"
	msgThank           = "No problem! Anything else I can do for you?"
	msgFarewell        = "See you soon!"
	msgShoeTypeList    = "I have the following types of shoes:"
	msgExactMatch      = "I have exactly what you're looking for!"
	msgSuggestion      = "Hmm, may I interest you in one of these?"
	msgNoMatchSample   = "Sorry, I don't have any of these. Hers's a small sample of what I have in my den:"
	msgModelNotFound   = "Sorry, I cannot find such a model in my den"
	msgFestNotFound    = "Sorry, I cannot find such a festival in my den"
	msgClickLocation   = "Click on the location to see all groovy models that I'm bringing with me!"
	msgClickLocationBt = "Click on the location to see all groovy models that I`m bringing with me!"
	msgFullCalendar    = "You can find me at the following festivals:"
	msgHistoryHeader   = "Here's our history so far"
	msgRephrase        = "Sorry, I'm only a fox. Could you please rephrase that?"
)

const fallbackSampleSize = 3

// TranscriptFinder reads a stored transcript by conversation id. A missing
// transcript is not an error.
type TranscriptFinder interface {
	Find(ctx context.Context, conversationID string) (domain.Transcript, bool, error)
}

// Router dispatches one recognized turn to a reply plan.
type Router struct {
	shoes       []domain.ShoeModel
	festivals   []domain.FestivalLocation
	shoeTypes   []domain.ShoeType
	transcripts TranscriptFinder
	rng         *rand.Rand
}

type Option func(*Router)

// WithRand overrides the randomness source used for the no-match fallback
// sample. Tests inject a deterministic source here.
func WithRand(rng *rand.Rand) Option {
	return func(r *Router) {
		r.rng = rng
	}
}

// New creates a Router over the given reference tables.
func New(shoes []domain.ShoeModel, festivals []domain.FestivalLocation, shoeTypes []domain.ShoeType, transcripts TranscriptFinder, opts ...Option) (*Router, error) {
	if len(shoes) == 0 {
		return nil, errors.New("router: shoe catalog must not be empty")
	}
	if len(festivals) == 0 {
		return nil, errors.New("router: festival catalog must not be empty")
	}
	if len(shoeTypes) == 0 {
		return nil, errors.New("router: shoe type list must not be empty")
	}
	if transcripts == nil {
		return nil, errors.New("router: transcript finder must not be nil")
	}
	r := &Router{
		shoes:       shoes,
		festivals:   festivals,
		shoeTypes:   shoeTypes,
		transcripts: transcripts,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Route selects the reply plan for one turn. When a sub-dialog is active
// (dialogState is waiting or complete) it returns an empty plan and defers to
// the sub-dialog. The only error source is the transcript read performed for
// the history intent.
func (r *Router) Route(ctx context.Context, turn domain.RecognizedTurn, dialogState domain.DialogState) (domain.ReplyPlan, error) {
	if dialogState != domain.DialogNone {
		return nil, nil
	}

	switch turn.TopIntent {
	case domain.IntentGreet:
		return domain.ReplyPlan{
			domain.TextReply(msgGreeting),
			domain.TextReply(msgGreetingMenu),
			domain.SuggestedActionsReply("", "Show shoes", "Find festivals"),
		}, nil
	case domain.IntentChitChat:
		return domain.ReplyPlan{domain.TextReply(msgChitChat)}, nil
	case domain.IntentThank:
		return domain.ReplyPlan{domain.TextReply(msgThank)}, nil
	case domain.IntentEndConversation:
		return domain.ReplyPlan{domain.TextReply(msgFarewell)}, nil
	case domain.IntentFindShoes:
		return r.findShoes(turn), nil
	case domain.IntentSelectModel:
		return r.selectModel(turn), nil
	case domain.IntentSelectFestival:
		return r.selectFestival(turn), nil
	case domain.IntentFindLocations:
		return r.findLocations(turn), nil
	case domain.IntentShowHistory:
		return r.showHistory(ctx, turn)
	default:
		return domain.ReplyPlan{domain.TextReply(msgRephrase)}, nil
	}
}

func (r *Router) findShoes(turn domain.RecognizedTurn) domain.ReplyPlan {
	colours := lowered(turn.Entity(domain.EntityColours))
	shoeTypes := lowered(turn.Entity(domain.EntityShoeTypes))

	if len(colours) == 0 && len(shoeTypes) == 0 {
		options := make([]string, 0, len(r.shoeTypes))
		for _, st := range r.shoeTypes {
			options = append(options, titleCase(string(st)))
		}
		return domain.ReplyPlan{domain.SuggestedActionsReply(msgShoeTypeList, options...)}
	}

	var colourMatches, typeMatches []domain.ShoeModel
	for _, shoe := range r.shoes {
		if contains(colours, shoe.Colour) {
			colourMatches = append(colourMatches, shoe)
		}
		if contains(shoeTypes, string(shoe.Type)) {
			typeMatches = append(typeMatches, shoe)
		}
	}

	var suggested []domain.ShoeModel
	var message string
	if both := intersect(colourMatches, typeMatches); len(both) > 0 {
		suggested = both
		message = msgExactMatch
	} else if union := dedupeByID(append(append([]domain.ShoeModel{}, colourMatches...), typeMatches...)); len(union) > 0 {
		suggested = union
		message = msgSuggestion
	} else {
		suggested = r.sampleShoes(fallbackSampleSize)
		message = msgNoMatchSample
	}

	return domain.ReplyPlan{
		domain.TextReply(message),
		domain.CarouselReply(shoeCards(suggested, "Show locations")),
	}
}

func (r *Router) selectModel(turn domain.RecognizedTurn) domain.ReplyPlan {
	id, ok := numberEntity(turn)
	if !ok || r.shoeByID(id) == nil {
		return domain.ReplyPlan{domain.TextReply(msgModelNotFound)}
	}

	var cards []domain.Card
	for _, fest := range r.festivals {
		if containsInt(fest.ModelIDs, id) {
			cards = append(cards, festivalCard(fest, "Show stock"))
		}
	}
	return domain.ReplyPlan{
		domain.TextReply(msgClickLocation),
		domain.CarouselReply(cards),
	}
}

func (r *Router) selectFestival(turn domain.RecognizedTurn) domain.ReplyPlan {
	id, ok := numberEntity(turn)
	if !ok {
		return domain.ReplyPlan{domain.TextReply(msgFestNotFound)}
	}
	fest := r.festivalByID(id)
	if fest == nil {
		return domain.ReplyPlan{domain.TextReply(msgFestNotFound)}
	}

	var cards []domain.Card
	for _, shoe := range r.shoes {
		if containsInt(fest.ModelIDs, shoe.ID) {
			cards = append(cards, shoeCard(shoe, "Show all locations"))
		}
	}
	message := fmt.Sprintf("I'll be here %s - %s, with those groovy foxes:",
		fest.StartDate.Format("2006-01-02"), fest.EndDate.Format("2006-01-02"))
	return domain.ReplyPlan{
		domain.TextReply(message),
		domain.CarouselReply(cards),
	}
}

func (r *Router) findLocations(turn domain.RecognizedTurn) domain.ReplyPlan {
	available := turn.Entity(domain.EntityAvailableLocations)

	var recognized []string
	for _, kind := range []string{
		domain.EntityGeoCity,
		domain.EntityGeoContinent,
		domain.EntityGeoCountryRegion,
		domain.EntityGeoState,
	} {
		recognized = append(recognized, turn.Entity(kind)...)
	}

	var fests []domain.FestivalLocation
	var message string
	if len(available) == 0 {
		fests = r.festivals
		if len(recognized) == 0 {
			message = msgFullCalendar
		} else {
			names := make([]string, 0, len(recognized))
			for _, loc := range recognized {
				names = append(names, titleCase(loc))
			}
			message = fmt.Sprintf("Ahh, %s is not on my calendar yet but you can check me out at:", strings.Join(names, "/"))
		}
	} else {
		for _, fest := range r.festivals {
			if contains(available, fest.City) {
				fests = append(fests, fest)
			}
		}
		message = msgClickLocationBt
	}

	cards := make([]domain.Card, 0, len(fests))
	for _, fest := range fests {
		cards = append(cards, festivalCard(fest, "Show all shoes"))
	}
	return domain.ReplyPlan{
		domain.TextReply(message),
		domain.CarouselReply(cards),
	}
}

func (r *Router) showHistory(ctx context.Context, turn domain.RecognizedTurn) (domain.ReplyPlan, error) {
	transcript, found, err := r.transcripts.Find(ctx, turn.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("router: read transcript: %w", err)
	}
	if !found || len(transcript.Lines) == 0 {
		return domain.ReplyPlan{domain.TextReply(msgHistoryHeader)}, nil
	}
	return domain.ReplyPlan{
		domain.TextReply(msgHistoryHeader + "\n" + strings.Join(transcript.Lines, "\n")),
	}, nil
}

// sampleShoes draws n distinct models uniformly without replacement. When the
// catalog holds fewer than n models the whole catalog is returned, so the
// draw always terminates.
func (r *Router) sampleShoes(n int) []domain.ShoeModel {
	if n > len(r.shoes) {
		n = len(r.shoes)
	}
	perm := r.rng.Perm(len(r.shoes))
	sample := make([]domain.ShoeModel, 0, n)
	for _, idx := range perm[:n] {
		sample = append(sample, r.shoes[idx])
	}
	return sample
}

func (r *Router) shoeByID(id int) *domain.ShoeModel {
	for i := range r.shoes {
		if r.shoes[i].ID == id {
			return &r.shoes[i]
		}
	}
	return nil
}

func (r *Router) festivalByID(id int) *domain.FestivalLocation {
	for i := range r.festivals {
		if r.festivals[i].ID == id {
			return &r.festivals[i]
		}
	}
	return nil
}

func shoeCards(shoes []domain.ShoeModel, actionTitle string) []domain.Card {
	cards := make([]domain.Card, 0, len(shoes))
	for _, shoe := range shoes {
		cards = append(cards, shoeCard(shoe, actionTitle))
	}
	return cards
}

func shoeCard(shoe domain.ShoeModel, actionTitle string) domain.Card {
	return domain.Card{
		Title:       shoe.Name,
		Subtitle:    fmt.Sprintf("€%d", shoe.Price),
		ImageURL:    shoe.ImageURL,
		ActionTitle: actionTitle,
		Postback:    fmt.Sprintf("select model %d", shoe.ID),
	}
}

func festivalCard(fest domain.FestivalLocation, actionTitle string) domain.Card {
	return domain.Card{
		Title:       fest.Name,
		ImageURL:    fest.ImageURL,
		ActionTitle: actionTitle,
		Postback:    fmt.Sprintf("select festival %d", fest.ID),
	}
}

func numberEntity(turn domain.RecognizedTurn) (int, bool) {
	vals := turn.Entity(domain.EntityNumber)
	if len(vals) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(vals[0]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func intersect(a, b []domain.ShoeModel) []domain.ShoeModel {
	ids := make(map[int]bool, len(b))
	for _, shoe := range b {
		ids[shoe.ID] = true
	}
	var out []domain.ShoeModel
	for _, shoe := range a {
		if ids[shoe.ID] {
			out = append(out, shoe)
		}
	}
	return out
}

func dedupeByID(shoes []domain.ShoeModel) []domain.ShoeModel {
	seen := make(map[int]bool, len(shoes))
	out := shoes[:0]
	for _, shoe := range shoes {
		if seen[shoe.ID] {
			continue
		}
		seen[shoe.ID] = true
		out = append(out, shoe)
	}
	return out
}

func lowered(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, strings.ToLower(v))
	}
	return out
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// titleCase uppercases the first rune and lowercases the rest, matching the
// recognizer-facing casing used in reply text.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
}
