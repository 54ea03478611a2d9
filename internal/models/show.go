package models

import "strings"

// ShowStatus is the airing state of a show
type ShowStatus string

const (
	// ShowStatusUnknown is used when the detail page has no status row
	ShowStatusUnknown   ShowStatus = ""
	ShowStatusOngoing   ShowStatus = "Ongoing"
	ShowStatusCompleted ShowStatus = "Completed"
)

// ActorRole is the billing of a character in the cast list
type ActorRole string

const (
	ActorRoleNone       ActorRole = ""
	ActorRoleMain       ActorRole = "Main"
	ActorRoleSupporting ActorRole = "Supporting"
)

// ShowDetail is everything the detail page and the episode list expose about a show
type ShowDetail struct {
	Title           string
	JapaneseTitle   string
	URL             string
	Type            TvType
	PosterURL       string
	Year            *int
	Status          ShowStatus
	Plot            string
	Tags            []string
	Episodes        []EpisodeRef
	Cast            []CastEntry
	Recommendations []ListingEntry
	MalID           *int
	AniListID       *int
}

// EpisodeRef points to one episode page. Data is the href as served by the
// episode list and is what LoadLinks expects.
type EpisodeRef struct {
	Data   string
	ID     string
	Number *int
	Name   string
}

// NewEpisodeRef creates an episode reference, deriving the episode id from
// the "ep" query value of the href.
func NewEpisodeRef(data string, number *int, name string) EpisodeRef {
	return EpisodeRef{
		Data:   data,
		ID:     EpisodeIDFromData(data),
		Number: number,
		Name:   name,
	}
}

// EpisodeIDFromData extracts the episode id from an episode href such as
// "/watch/name-100?ep=2142". Data without a "=" is returned unchanged so a
// bare id is accepted too.
func EpisodeIDFromData(data string) string {
	if idx := strings.Index(data, "="); idx != -1 {
		id := data[idx+1:]
		if amp := strings.Index(id, "&"); amp != -1 {
			id = id[:amp]
		}
		return id
	}
	return data
}

// Actor is a person shown in the cast block
type Actor struct {
	Name  string
	Image string
}

// CastEntry pairs a character with its voice actor
type CastEntry struct {
	Actor      Actor
	Role       ActorRole
	VoiceActor *Actor
}

// NewCastEntry creates a cast entry, voiceActor may be nil
func NewCastEntry(actor Actor, role ActorRole, voiceActor *Actor) CastEntry {
	return CastEntry{Actor: actor, Role: role, VoiceActor: voiceActor}
}
