// Package extractor turns embed links into playable stream links
package extractor

import (
	"context"
	"sync/atomic"

	"github.com/alvarorichard/hianime/internal/models"
	"github.com/alvarorichard/hianime/internal/util"
)

// Request is an embed link to extract plus the referer the host expects
type Request struct {
	URL     string
	Referer string
}

// Emitter receives the results of an extraction. The callbacks may be
// called from several goroutines at once.
type Emitter struct {
	OnSubtitle func(models.Subtitle)
	OnVideo    func(models.ExtractorLink)
}

func (e Emitter) subtitle(s models.Subtitle) {
	if e.OnSubtitle != nil {
		e.OnSubtitle(s)
	}
}

func (e Emitter) video(l models.ExtractorLink) {
	if e.OnVideo != nil {
		e.OnVideo(l)
	}
}

// Outcome reports what one extraction attempt produced
type Outcome struct {
	// Matched is true when the extractor recognized the link
	Matched   bool
	Videos    int
	Subtitles int
}

// Succeeded is true when the link was handled and produced at least one video
func (o Outcome) Succeeded() bool {
	return o.Matched && o.Videos > 0
}

// Extractor is one extraction strategy
type Extractor interface {
	Name() string
	TryExtract(ctx context.Context, req Request, emit Emitter) (Outcome, error)
}

// Chain tries its extractors in order and stops at the first success
type Chain []Extractor

// TryExtract runs the chain. Extractor errors are logged and make the chain
// move on; they are never returned.
func (c Chain) TryExtract(ctx context.Context, req Request, emit Emitter) Outcome {
	var last Outcome
	for _, ex := range c {
		if ctx.Err() != nil {
			return last
		}
		out, err := ex.TryExtract(ctx, req, emit)
		if err != nil {
			util.Debug("Extractor failed", "extractor", ex.Name(), "url", req.URL, "error", err)
			continue
		}
		if out.Succeeded() {
			return out
		}
		last = out
	}
	return last
}

// counting wraps an emitter and counts what goes through it
type counting struct {
	emit      Emitter
	videos    atomic.Int64
	subtitles atomic.Int64
}

func newCounting(emit Emitter) *counting {
	return &counting{emit: emit}
}

func (c *counting) emitter() Emitter {
	return Emitter{
		OnSubtitle: func(s models.Subtitle) {
			c.subtitles.Add(1)
			c.emit.subtitle(s)
		},
		OnVideo: func(l models.ExtractorLink) {
			c.videos.Add(1)
			c.emit.video(l)
		},
	}
}

func (c *counting) outcome() Outcome {
	return Outcome{
		Matched:   true,
		Videos:    int(c.videos.Load()),
		Subtitles: int(c.subtitles.Load()),
	}
}
