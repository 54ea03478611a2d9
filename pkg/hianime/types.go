package hianime

import (
	"github.com/alvarorichard/hianime/internal/config"
	"github.com/alvarorichard/hianime/internal/models"
	"github.com/alvarorichard/hianime/internal/session"
)

// Config is the client configuration, see DefaultConfig and LoadConfig
type Config = config.Config

// Records returned by the client
type (
	ListingEntry   = models.ListingEntry
	HomeSection    = models.HomeSection
	ShowDetail     = models.ShowDetail
	EpisodeRef     = models.EpisodeRef
	CastEntry      = models.CastEntry
	Actor          = models.Actor
	ServerRef      = models.ServerRef
	ResolvedSource = models.ResolvedSource
	ExtractorLink  = models.ExtractorLink
	Subtitle       = models.Subtitle
	TvType         = models.TvType
	ShowStatus     = models.ShowStatus
	DubStatus      = models.DubStatus
)

// Playback scopes segment sessions to one viewing session
type Playback = session.Playback

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads the configuration from HIANIME_* environment variables
func LoadConfig() (Config, error) {
	return config.Load()
}
