// Package scraper provides web scraping functionality for hianime.to
package scraper

import (
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/alvarorichard/hianime/internal/config"
	"github.com/alvarorichard/hianime/internal/extractor"
	"github.com/alvarorichard/hianime/internal/util"
)

// ErrChallenge is returned when the site answers with an anti-bot page
var ErrChallenge = errors.New("HiAnime returned a challenge page (try VPN or wait)")

// HiAnimeClient handles interactions with HiAnime
type HiAnimeClient struct {
	client     *http.Client
	baseURL    string
	keyURL     string
	referer    string
	userAgent  string
	extractors extractor.Chain
	fallback   *extractor.RabbitStream
}

// Option customizes a HiAnimeClient
type Option func(*HiAnimeClient)

// WithHTTPClient replaces the HTTP client used for every request
func WithHTTPClient(client *http.Client) Option {
	return func(c *HiAnimeClient) {
		c.client = client
	}
}

// WithExtractors replaces the generic extractor chain tried before the
// decrypting fallback
func WithExtractors(extractors ...extractor.Extractor) Option {
	return func(c *HiAnimeClient) {
		c.extractors = extractors
	}
}

// NewHiAnimeClient creates a new HiAnime client
func NewHiAnimeClient(cfg config.Config, opts ...Option) *HiAnimeClient {
	c := &HiAnimeClient{
		client:    util.NewClient(cfg.Timeout),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyURL:    cfg.KeyURL,
		referer:   cfg.ExtractorReferer,
		userAgent: cfg.UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.fallback = extractor.NewRabbitStream(c.client, c.userAgent)
	if c.extractors == nil {
		c.extractors = defaultExtractors(c.fallback)
	}
	return c
}

// defaultExtractors is the generic chain: plain media links, then the
// rapid-cloud family without a key
func defaultExtractors(rabbit *extractor.RabbitStream) extractor.Chain {
	return extractor.Chain{
		extractor.Direct{},
		extractor.Hosts{
			Extractor: rabbit,
			Fragments: []string{"rapid-cloud", "megacloud", "rabbitstream"},
		},
	}
}

// BaseURL returns the site origin
func (c *HiAnimeClient) BaseURL() string {
	return c.baseURL
}

// FixURL resolves ref against the site origin
func (c *HiAnimeClient) FixURL(ref string) string {
	return fixURL(c.baseURL, ref)
}

func fixURL(base, ref string) string {
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "http"):
		return ref
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		return base + ref
	default:
		return base + "/" + ref
	}
}

func (c *HiAnimeClient) decorateRequest(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", c.baseURL+"/")
}

func isChallengePage(doc *goquery.Document) bool {
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text()))
	if strings.Contains(title, "just a moment") {
		return true
	}
	return doc.Find("#cf-wrapper").Length() > 0 || doc.Find("#challenge-form").Length() > 0
}
