package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/alvarorichard/hianime/internal/models"
)

var (
	// ErrMissingKey is returned when the sources are encrypted and no key was given
	ErrMissingKey = errors.New("sources are encrypted and no decryption key was provided")
	// ErrNoSources is returned when the embed answered without any source
	ErrNoSources = errors.New("embed returned no sources")
)

// RabbitStream extracts the rapid-cloud / megacloud family of embeds through
// their getSources endpoint, decrypting the source list when needed.
type RabbitStream struct {
	client    *http.Client
	userAgent string
}

// NewRabbitStream creates the extractor on client
func NewRabbitStream(client *http.Client, userAgent string) *RabbitStream {
	return &RabbitStream{client: client, userAgent: userAgent}
}

// Name returns the source name of the produced links
func (r *RabbitStream) Name() string { return "RabbitStream" }

type rabbitSource struct {
	File string `json:"file"`
	Type string `json:"type"`
}

type rabbitTrack struct {
	File  string `json:"file"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

type rabbitResponse struct {
	Sources   json.RawMessage `json:"sources"`
	Tracks    []rabbitTrack   `json:"tracks"`
	Encrypted bool            `json:"encrypted"`
	Server    int             `json:"server"`
}

// Extract resolves embedURL with the embed itself as referer. key may be
// empty when the embed serves plain sources; nameFn renames every produced
// link and may be nil.
func (r *RabbitStream) Extract(ctx context.Context, embedURL, key string, nameFn func(string) string, emit Emitter) (Outcome, error) {
	return r.extract(ctx, embedURL, embedURL, key, nameFn, emit)
}

func (r *RabbitStream) extract(ctx context.Context, embedURL, referer, key string, nameFn func(string) string, emit Emitter) (Outcome, error) {
	apiURL, origin, err := getSourcesURL(embedURL)
	if err != nil {
		return Outcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to fetch sources")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Outcome{}, errors.Errorf("sources request returned: %s", resp.Status)
	}

	var data rabbitResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Outcome{}, errors.Wrap(err, "failed to decode sources")
	}

	sources, err := decodeSources(data, key)
	if err != nil {
		return Outcome{}, err
	}
	if len(sources) == 0 {
		return Outcome{}, ErrNoSources
	}

	name := r.Name()
	if nameFn != nil {
		name = nameFn(name)
	}

	c := newCounting(emit)
	out := c.emitter()
	for _, track := range data.Tracks {
		if track.File == "" || (track.Kind != "captions" && track.Kind != "subtitles") {
			continue
		}
		out.OnSubtitle(models.Subtitle{Lang: track.Label, URL: track.File})
	}
	for _, src := range sources {
		if src.File == "" {
			continue
		}
		link := models.NewExtractorLink(r.Name(), name, src.File, origin)
		link.IsM3U8 = src.Type == "hls" || strings.Contains(src.File, ".m3u8")
		link.Quality = "auto"
		out.OnVideo(link)
	}
	return c.outcome(), nil
}

// TryExtract implements Extractor without a key, sending req.Referer when
// set. Encrypted embeds fail with ErrMissingKey so that the caller can fall
// back to a keyed extraction.
func (r *RabbitStream) TryExtract(ctx context.Context, req Request, emit Emitter) (Outcome, error) {
	referer := req.Referer
	if referer == "" {
		referer = req.URL
	}
	return r.extract(ctx, req.URL, referer, "", nil, emit)
}

func decodeSources(data rabbitResponse, key string) ([]rabbitSource, error) {
	raw := []byte(data.Sources)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var encrypted string
	if err := json.Unmarshal(raw, &encrypted); err == nil {
		if key == "" {
			return nil, ErrMissingKey
		}
		plain, err := DecryptSources(encrypted, key)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decrypt sources")
		}
		raw = plain
	}

	var sources []rabbitSource
	if err := json.Unmarshal(raw, &sources); err != nil {
		return nil, errors.Wrap(err, "failed to parse sources")
	}
	return sources, nil
}

// getSourcesURL maps https://host/embed-6/abc?k=1 to
// https://host/embed-6/getSources?id=abc and returns the embed origin.
func getSourcesURL(embedURL string) (string, string, error) {
	u, err := url.Parse(embedURL)
	if err != nil || u.Host == "" {
		return "", "", errors.Errorf("invalid embed URL: %q", embedURL)
	}

	idx := strings.LastIndex(u.Path, "/")
	id := u.Path[idx+1:]
	if id == "" {
		return "", "", errors.Errorf("embed URL has no id: %q", embedURL)
	}

	origin := u.Scheme + "://" + u.Host + "/"
	api := url.URL{
		Scheme:   u.Scheme,
		Host:     u.Host,
		Path:     u.Path[:idx] + "/getSources",
		RawQuery: url.Values{"id": []string{id}}.Encode(),
	}
	return api.String(), origin, nil
}
