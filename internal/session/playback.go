package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/alvarorichard/hianime/internal/util"
)

// Playback scopes the SID store and the probe tasks to one viewing session.
// Close it when playback ends.
type Playback struct {
	ID           string
	store        *Store
	tasks        *Background
	probeTimeout time.Duration
}

// NewPlayback creates a playback whose store holds at most size links for
// ttl. Every probe is abandoned after probeTimeout, which also bounds Close.
func NewPlayback(size int, ttl, probeTimeout time.Duration) *Playback {
	p := &Playback{
		ID:           uuid.NewString(),
		store:        NewStore(size, ttl),
		tasks:        NewBackground(),
		probeTimeout: probeTimeout,
	}
	util.Debug("Playback session opened", "id", p.ID)
	return p
}

// Store exposes the SID store of the playback
func (p *Playback) Store() *Store {
	return p.store
}

// Transport returns the segment interceptor for linkURL on top of base
func (p *Playback) Transport(linkURL string, base http.RoundTripper) http.RoundTripper {
	return NewSegmentTransport(linkURL, base, p.store, p.tasks, p.probeTimeout)
}

// Client returns an http.Client whose requests go through the interceptor
func (p *Playback) Client(linkURL string, base *http.Client) *http.Client {
	client := &http.Client{}
	var rt http.RoundTripper
	if base != nil {
		*client = *base
		rt = base.Transport
	}
	client.Transport = p.Transport(linkURL, rt)
	return client
}

// Close waits for outstanding probes, each bounded by the probe timeout, and
// forgets every SID
func (p *Playback) Close() {
	p.tasks.Drain()
	p.store.Purge()
	util.Debug("Playback session closed", "id", p.ID)
}
