package extractor

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/alvarorichard/hianime/internal/models"
)

// Direct handles links that already point at a playable file
type Direct struct{}

// Name implements Extractor
func (Direct) Name() string { return "Direct" }

// TryExtract implements Extractor
func (d Direct) TryExtract(_ context.Context, req Request, emit Emitter) (Outcome, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return Outcome{}, err
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext != ".m3u8" && ext != ".mp4" {
		return Outcome{}, nil
	}

	c := newCounting(emit)
	link := models.NewExtractorLink(d.Name(), d.Name(), req.URL, req.Referer)
	link.IsM3U8 = ext == ".m3u8"
	c.emitter().OnVideo(link)
	return c.outcome(), nil
}

// Hosts restricts an extractor to links whose host contains one of the
// given fragments
type Hosts struct {
	Extractor
	Fragments []string
}

// TryExtract implements Extractor
func (h Hosts) TryExtract(ctx context.Context, req Request, emit Emitter) (Outcome, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return Outcome{}, err
	}
	for _, f := range h.Fragments {
		if strings.Contains(u.Host, f) {
			return h.Extractor.TryExtract(ctx, req, emit)
		}
	}
	return Outcome{}, nil
}
