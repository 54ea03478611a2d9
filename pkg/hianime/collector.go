package hianime

import (
	"sync"

	"github.com/samber/lo"
)

type collector struct {
	mu        sync.Mutex
	videos    []ExtractorLink
	subtitles []Subtitle
}

func newCollector() *collector {
	return &collector{}
}

func (c *collector) video(l ExtractorLink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos = append(c.videos, l)
}

func (c *collector) subtitle(s Subtitle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subtitles = append(c.subtitles, s)
}

// results returns the links deduplicated by URL, subtitles by URL too
func (c *collector) results() ([]ExtractorLink, []Subtitle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	videos := lo.UniqBy(c.videos, func(l ExtractorLink) string { return l.URL })
	subs := lo.UniqBy(c.subtitles, func(s Subtitle) string { return s.URL })
	return videos, subs
}
