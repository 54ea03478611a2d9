package scraper

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/alvarorichard/hianime/internal/extractor"
	"github.com/alvarorichard/hianime/internal/models"
	"github.com/alvarorichard/hianime/internal/session"
	"github.com/alvarorichard/hianime/internal/util"
)

// LoadLinks resolves every server of the episode referenced by data and
// streams the playable links to the callbacks as they are found. Servers are
// processed concurrently, so the callbacks may run on several goroutines at
// once and in no particular order.
//
// The boolean is true once the servers were dispatched. The error joins the
// per-server transport failures; a server whose extraction fails just
// contributes no links.
func (c *HiAnimeClient) LoadLinks(ctx context.Context, data string, onSubtitle func(models.Subtitle), onVideo func(models.ExtractorLink)) (bool, error) {
	servers, err := c.GetServers(ctx, models.EpisodeIDFromData(data))
	if err != nil {
		return false, err
	}
	util.Debug("HiAnime servers", "episode", data, "count", len(servers))

	if onSubtitle == nil {
		onSubtitle = func(models.Subtitle) {}
	}
	if onVideo == nil {
		onVideo = func(models.ExtractorLink) {}
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, server := range servers {
		p.Go(func(ctx context.Context) error {
			return c.loadServerLinks(ctx, server, onSubtitle, onVideo)
		})
	}
	return true, p.Wait()
}

// loadServerLinks runs the generic extractors on the server's embed link and
// falls back to the keyed decryption when none of them succeeds.
func (c *HiAnimeClient) loadServerLinks(ctx context.Context, server models.ServerRef, onSubtitle func(models.Subtitle), onVideo func(models.ExtractorLink)) error {
	source, err := c.ResolveSource(ctx, server)
	if err != nil {
		return err
	}

	rename := func(name string) string {
		return name + " - " + server.Status.String()
	}

	// subtitles of the generic attempt are held back until it succeeds, the
	// keyed fallback delivers its own tracks otherwise
	var (
		mu        sync.Mutex
		subtitles []models.Subtitle
	)
	generic := extractor.Emitter{
		OnSubtitle: func(sub models.Subtitle) {
			mu.Lock()
			subtitles = append(subtitles, sub)
			mu.Unlock()
		},
		OnVideo: func(link models.ExtractorLink) {
			link.Name = rename(link.Name)
			onVideo(link)
		},
	}
	req := extractor.Request{URL: source.Link, Referer: c.referer}
	if out := c.extractors.TryExtract(ctx, req, generic); out.Succeeded() {
		util.Debug("Generic extractor handled server", "server", server.ID, "videos", out.Videos)
		mu.Lock()
		defer mu.Unlock()
		for _, sub := range subtitles {
			onSubtitle(sub)
		}
		return nil
	}

	key, err := c.fetchDecryptionKey(ctx)
	if err != nil {
		return errors.Wrapf(err, "server %s", server.ID)
	}

	fallback := extractor.Emitter{
		OnSubtitle: onSubtitle,
		OnVideo: func(link models.ExtractorLink) {
			if strings.Contains(link.URL, session.BlacklistedProvider) {
				util.Debug("Dropping blacklisted link", "url", link.URL)
				return
			}
			onVideo(link)
		},
	}
	if _, err := c.fallback.Extract(ctx, source.Link, key, rename, fallback); err != nil {
		util.Warn("Fallback extractor failed", "server", server.ID, "error", err)
	}
	return nil
}

// fetchDecryptionKey downloads the current key of the decrypting extractor.
// The key is fetched for every fallback, never cached.
func (c *HiAnimeClient) fetchDecryptionKey(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.keyURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create key request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch decryption key")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("key server returned: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read decryption key")
	}
	key := strings.TrimSpace(string(body))
	if key == "" {
		return "", extractor.ErrMissingKey
	}
	return key, nil
}

// VideoInterceptor returns the transport segment requests of link must go
// through. It sends the link's referer and headers and keeps the segment
// session of the playback alive.
func (c *HiAnimeClient) VideoInterceptor(playback *session.Playback, link models.ExtractorLink) http.RoundTripper {
	return &linkTransport{
		base:      playback.Transport(link.URL, c.client.Transport),
		referer:   link.Referer,
		userAgent: c.userAgent,
		headers:   link.Headers,
	}
}

// HTTPClient is VideoInterceptor wrapped in a client with the scraper's
// timeout.
func (c *HiAnimeClient) HTTPClient(playback *session.Playback, link models.ExtractorLink) *http.Client {
	return &http.Client{
		Transport: c.VideoInterceptor(playback, link),
		Timeout:   c.client.Timeout,
	}
}

type linkTransport struct {
	base      http.RoundTripper
	referer   string
	userAgent string
	headers   map[string]string
}

func (t *linkTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.referer != "" && req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", t.referer)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
