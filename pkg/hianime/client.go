// Package hianime provides a public API for the HiAnime scraper.
// This package can be used as a library in other Go projects.
package hianime

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/alvarorichard/hianime/internal/downloader/hls"
	"github.com/alvarorichard/hianime/internal/scraper"
	"github.com/alvarorichard/hianime/internal/session"
)

// Client is the main client for interacting with HiAnime
type Client struct {
	cfg     Config
	scraper *scraper.HiAnimeClient
}

// NewClient creates a client with the default configuration
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client from cfg
func NewClientWithConfig(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		scraper: scraper.NewHiAnimeClient(cfg),
	}
}

// Home returns the sections of the home page
func (c *Client) Home(ctx context.Context) ([]HomeSection, error) {
	return c.scraper.GetMainPage(ctx)
}

// Search searches HiAnime for query
func (c *Client) Search(ctx context.Context, query string) ([]ListingEntry, error) {
	return c.scraper.Search(ctx, query)
}

// Load returns the details and episodes of the show at url.
// The url should be obtained from a Search or Home result.
func (c *Client) Load(ctx context.Context, url string) (*ShowDetail, error) {
	return c.scraper.Load(ctx, url)
}

// Episodes returns the episode list of a show
func (c *Client) Episodes(ctx context.Context, url string) ([]EpisodeRef, error) {
	detail, err := c.scraper.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	return detail.Episodes, nil
}

// Servers returns the deduplicated servers of an episode
func (c *Client) Servers(ctx context.Context, episode EpisodeRef) ([]ServerRef, error) {
	return c.scraper.GetServers(ctx, episode.ID)
}

// LoadLinks streams the playable links of an episode to the callbacks, which
// may be called concurrently. episodeData is EpisodeRef.Data.
func (c *Client) LoadLinks(ctx context.Context, episodeData string, onSubtitle func(Subtitle), onVideo func(ExtractorLink)) (bool, error) {
	return c.scraper.LoadLinks(ctx, episodeData, onSubtitle, onVideo)
}

// Links collects every link of an episode. The links of the servers that
// worked are returned even when err reports failed servers.
func (c *Client) Links(ctx context.Context, episodeData string) ([]ExtractorLink, []Subtitle, error) {
	collected := newCollector()
	_, err := c.LoadLinks(ctx, episodeData, collected.subtitle, collected.video)
	videos, subs := collected.results()
	return videos, subs, err
}

// NewPlayback starts a playback session, close it when done
func (c *Client) NewPlayback() *Playback {
	return session.NewPlayback(c.cfg.SessionSize, c.cfg.SessionTTL, c.cfg.Timeout)
}

// HTTPClient returns the client that must be used for the segments of link
func (c *Client) HTTPClient(playback *Playback, link ExtractorLink) *http.Client {
	return c.scraper.HTTPClient(playback, link)
}

// Download writes the HLS stream of link to w
func (c *Client) Download(ctx context.Context, playback *Playback, link ExtractorLink, w io.Writer, progress func(done, total int)) error {
	if !link.IsM3U8 {
		return errors.Errorf("link %q is not an HLS stream", link.Name)
	}
	d := hls.NewDownloader(c.HTTPClient(playback, link), c.cfg.SegmentWorkers)
	return d.DownloadTo(ctx, link.URL, w, progress)
}
