package domain

import "time"

// Intent is a classified category of user communicative purpose, produced by
// the recognizer.
type Intent string

const (
	IntentGreet           Intent = "SmallTalk_Greet"
	IntentChitChat        Intent = "SmallTalk_ChitChat"
	IntentThank           Intent = "SmallTalk_Thank"
	IntentEndConversation Intent = "SmallTalk_EndConversation"
	IntentFindShoes       Intent = "FindShoes"
	IntentSelectModel     Intent = "SelectModel"
	IntentSelectFestival  Intent = "SelectFestival"
	IntentFindLocations   Intent = "FindLocations"
	IntentShowHistory     Intent = "ShowHistory"
	IntentNone            Intent = "None"
)

// Entity kinds extracted by the recognizer. Absent kinds read as empty lists.
const (
	EntityColours            = "Colours"
	EntityShoeTypes          = "ShoeTypes"
	EntityNumber             = "number"
	EntityAvailableLocations = "AvailableLocations"
	EntityGeoCity            = "geographyV2_city"
	EntityGeoContinent       = "geographyV2_continent"
	EntityGeoCountryRegion   = "geographyV2_countryRegion"
	EntityGeoState           = "geographyV2_state"
)

// DialogState reflects whether a multi-turn sub-dialog is active for the
// conversation. Intent dispatch only happens when it is DialogNone.
type DialogState string

const (
	DialogNone     DialogState = "none"
	DialogWaiting  DialogState = "waiting"
	DialogComplete DialogState = "complete"
)

// Recognition is the recognizer's verdict for one message: the top-scoring
// intent and the extracted entity values grouped by kind. Numeric entities
// arrive as decimal strings.
type Recognition struct {
	TopIntent Intent
	Entities  map[string][]string
}

// RecognizedTurn is the per-message input to the turn router.
type RecognizedTurn struct {
	TopIntent      Intent
	Entities       map[string][]string
	Text           string
	ConversationID string
	SenderID       string
	Timestamp      time.Time
}

// Entity returns the extracted values for one entity kind, or an empty list
// when the kind is absent.
func (t RecognizedTurn) Entity(kind string) []string {
	if t.Entities == nil {
		return nil
	}
	return t.Entities[kind]
}
