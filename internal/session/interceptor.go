package session

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alvarorichard/hianime/internal/util"
)

const (
	// SIDHeader carries the segment session id, both on segment requests and
	// on probe responses.
	SIDHeader = "SID"

	// BlacklistedProvider never gets probes or SID headers
	BlacklistedProvider = "betterstream"

	// DefaultProbeTimeout bounds a probe when no timeout is configured
	DefaultProbeTimeout = 30 * time.Second
)

// SegmentTransport decorates segment requests of one resolved link. Before a
// .ts request goes out it attaches the SID known for the link and fires an
// OPTIONS probe on the same URL whose response refreshes that SID.
type SegmentTransport struct {
	base         http.RoundTripper
	store        *Store
	tasks        *Background
	key          uint64
	linkID       string
	probeTimeout time.Duration
}

// NewSegmentTransport creates the interceptor for linkURL. The probe goes
// through base directly, not through the interceptor, and is abandoned after
// probeTimeout (DefaultProbeTimeout when not positive).
func NewSegmentTransport(linkURL string, base http.RoundTripper, store *Store, tasks *Background, probeTimeout time.Duration) *SegmentTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &SegmentTransport{
		base:         base,
		store:        store,
		tasks:        tasks,
		key:          LinkKey(linkURL),
		linkID:       linkURL,
		probeTimeout: probeTimeout,
	}
}

// RoundTrip implements http.RoundTripper
func (t *SegmentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !isSegmentRequest(req) {
		return t.base.RoundTrip(req)
	}

	segment := req.Clone(req.Context())
	if sid, ok := t.store.Get(t.key); ok {
		segment.Header.Add(SIDHeader, sid)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), t.probeTimeout)
	probe, err := newProbe(ctx, req)
	if err != nil {
		cancel()
		util.Debug("Skipping segment probe", "url", req.URL.String(), "error", err)
	} else {
		t.tasks.Spawn(func() {
			defer cancel()
			t.runProbe(probe)
		})
	}

	return t.base.RoundTrip(segment)
}

func (t *SegmentTransport) runProbe(probe *http.Request) {
	resp, err := t.base.RoundTrip(probe)
	if err != nil {
		util.Debug("Segment probe failed", "url", probe.URL.String(), "error", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if sid := resp.Header.Get(SIDHeader); sid != "" {
		t.store.Set(t.key, sid)
		util.Debug("Stored segment session", "link", t.linkID)
	}
}

func isSegmentRequest(req *http.Request) bool {
	u := req.URL.String()
	return strings.HasSuffix(u, ".ts") &&
		req.Method != http.MethodOptions &&
		!strings.Contains(u, BlacklistedProvider)
}

// newProbe copies req as an OPTIONS request bound to ctx. The probe is never
// awaited, so ctx must not be the segment's own context.
func newProbe(ctx context.Context, req *http.Request) (*http.Request, error) {
	probe := req.Clone(ctx)
	probe.Method = http.MethodOptions
	probe.Body = nil
	probe.ContentLength = 0
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		probe.Body = body
		probe.ContentLength = req.ContentLength
	}
	return probe, nil
}
