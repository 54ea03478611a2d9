package session

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRoundTripper struct {
	mu            sync.Mutex
	requests      []*http.Request
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.RoundTripFunc != nil {
		return m.RoundTripFunc(req)
	}
	return okResponse(nil), nil
}

func (m *mockRoundTripper) methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.requests {
		out = append(out, r.Method)
	}
	return out
}

func (m *mockRoundTripper) byMethod(method string) []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*http.Request
	for _, r := range m.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func sidHeader(sid string) http.Header {
	h := http.Header{}
	h.Set(SIDHeader, sid)
	return h
}

func okResponse(header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader("segment")),
	}
}

func TestStoreKeepsEntriesPerLink(t *testing.T) {
	store := NewStore(10, time.Minute)

	a := LinkKey("https://cdn.example/a/master.m3u8")
	b := LinkKey("https://cdn.example/b/master.m3u8")
	require.NotEqual(t, a, b)

	store.Set(a, "sid-a")
	store.Set(b, "sid-b")

	got, ok := store.Get(a)
	require.True(t, ok)
	assert.Equal(t, "sid-a", got)
	got, ok = store.Get(b)
	require.True(t, ok)
	assert.Equal(t, "sid-b", got)
}

func TestStoreEvictsOldestWhenFull(t *testing.T) {
	store := NewStore(2, 0)
	store.Set(1, "one")
	store.Set(2, "two")
	store.Set(3, "three")

	_, ok := store.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 2, store.Len())
}

func TestStoreConcurrentWritersDoNotClobber(t *testing.T) {
	store := NewStore(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			link := fmt.Sprintf("https://cdn.example/%d/master.m3u8", i)
			for j := 0; j < 50; j++ {
				store.Set(LinkKey(link), fmt.Sprintf("sid-%d", i))
				_, _ = store.Get(LinkKey(link))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		link := fmt.Sprintf("https://cdn.example/%d/master.m3u8", i)
		got, ok := store.Get(LinkKey(link))
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("sid-%d", i), got)
	}
}

func TestSegmentTransportProbesAndAttachesSID(t *testing.T) {
	base := &mockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			if req.Method == http.MethodOptions {
				return okResponse(sidHeader("sid-123")), nil
			}
			return okResponse(nil), nil
		},
	}
	store := NewStore(10, time.Minute)
	tasks := NewBackground()
	rt := NewSegmentTransport("https://cdn.example/master.m3u8", base, store, tasks, time.Second)

	req, err := http.NewRequest(http.MethodGet, "https://cdn.example/seg-1.ts", nil)
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	tasks.Drain()

	gets := base.byMethod(http.MethodGet)
	require.Len(t, gets, 1)
	assert.Empty(t, gets[0].Header.Get(SIDHeader))
	require.Len(t, base.byMethod(http.MethodOptions), 1)
	assert.Equal(t, "https://cdn.example/seg-1.ts", base.byMethod(http.MethodOptions)[0].URL.String())

	req, err = http.NewRequest(http.MethodGet, "https://cdn.example/seg-2.ts", nil)
	require.NoError(t, err)
	resp, err = rt.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	tasks.Drain()

	gets = base.byMethod(http.MethodGet)
	require.Len(t, gets, 2)
	assert.Equal(t, "sid-123", gets[1].Header.Get(SIDHeader))
	// the caller's request is never modified
	assert.Empty(t, req.Header.Get(SIDHeader))
}

func TestSegmentTransportPassesThroughOtherRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		url    string
	}{
		{"playlist", http.MethodGet, "https://cdn.example/index.m3u8"},
		{"options", http.MethodOptions, "https://cdn.example/seg-1.ts"},
		{"blacklisted provider", http.MethodGet, "https://betterstream.example/seg-1.ts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &mockRoundTripper{}
			store := NewStore(10, time.Minute)
			store.Set(LinkKey("https://cdn.example/master.m3u8"), "sid-123")
			tasks := NewBackground()
			rt := NewSegmentTransport("https://cdn.example/master.m3u8", base, store, tasks, time.Second)

			req, err := http.NewRequest(tt.method, tt.url, nil)
			require.NoError(t, err)
			resp, err := rt.RoundTrip(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			tasks.Drain()

			assert.Equal(t, []string{tt.method}, base.methods())
			assert.Empty(t, base.requests[0].Header.Get(SIDHeader))
		})
	}
}

func TestSegmentTransportIgnoresProbeFailure(t *testing.T) {
	release := make(chan struct{})
	base := &mockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			if req.Method == http.MethodOptions {
				<-release
				return nil, errors.New("probe refused")
			}
			return okResponse(nil), nil
		},
	}
	store := NewStore(10, time.Minute)
	tasks := NewBackground()
	rt := NewSegmentTransport("https://cdn.example/master.m3u8", base, store, tasks, time.Second)

	req, err := http.NewRequest(http.MethodGet, "https://cdn.example/seg-1.ts", nil)
	require.NoError(t, err)

	// the segment completes while the probe is still blocked
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "segment", string(body))

	close(release)
	tasks.Drain()
	assert.Equal(t, 0, store.Len())
}

func TestPlaybackCloseForgetsSessions(t *testing.T) {
	p := NewPlayback(4, time.Minute, time.Second)
	require.NotEmpty(t, p.ID)

	p.Store().Set(LinkKey("https://cdn.example/master.m3u8"), "sid")
	client := p.Client("https://cdn.example/master.m3u8", &http.Client{Timeout: time.Second})
	assert.Equal(t, time.Second, client.Timeout)
	assert.IsType(t, &SegmentTransport{}, client.Transport)

	p.Close()
	assert.Equal(t, 0, p.Store().Len())
}

func TestPlaybackCloseAbandonsStuckProbes(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		_, _ = io.WriteString(w, "segment")
	}))
	defer srv.Close()

	p := NewPlayback(4, time.Minute, 100*time.Millisecond)
	client := p.Client(srv.URL+"/master.m3u8", &http.Client{Timeout: time.Second})

	resp, err := client.Get(srv.URL + "/seg-1.ts")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "segment", string(body))

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("Close still waiting on a probe past its timeout")
	}
	assert.Equal(t, 0, p.Store().Len())
}

func TestSegmentTransportDefaultsProbeTimeout(t *testing.T) {
	rt := NewSegmentTransport("https://cdn.example/master.m3u8", nil, NewStore(1, 0), NewBackground(), 0)
	assert.Equal(t, DefaultProbeTimeout, rt.probeTimeout)
	assert.Equal(t, http.DefaultTransport, rt.base)
}
