package hls

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T, segments int, failing map[int]bool) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/hls/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "#EXTM3U\n"+
			"#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360\n"+
			"low/index.m3u8\n"+
			"#EXT-X-STREAM-INF:BANDWIDTH=2400000,RESOLUTION=1280x720\n"+
			"high/index.m3u8\n")
	})
	mux.HandleFunc("/hls/high/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n#EXT-X-MEDIA-SEQUENCE:0\n")
		for i := 0; i < segments; i++ {
			_, _ = fmt.Fprintf(w, "#EXTINF:10.0,\nseg-%d.ts\n", i)
		}
		_, _ = fmt.Fprint(w, "#EXT-X-ENDLIST\n")
	})
	mux.HandleFunc("/hls/high/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var i int
		if _, err := fmt.Sscanf(filepath.Base(r.URL.Path), "seg-%d.ts", &i); err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if failing[i] {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = fmt.Fprintf(w, "[%d]", i)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestPlaylistSelectsHighestBandwidth(t *testing.T) {
	t.Parallel()

	srv, _ := newStreamServer(t, 3, nil)
	d := NewDownloader(srv.Client(), 2)

	playlist, err := d.Playlist(context.Background(), srv.URL+"/hls/master.m3u8")
	require.NoError(t, err)

	assert.Equal(t, "3", playlist.Version)
	assert.Equal(t, 10.0, playlist.TargetDuration)
	assert.True(t, playlist.EndList)
	require.Len(t, playlist.Segments, 3)
	assert.Equal(t, srv.URL+"/hls/high/seg-0.ts", playlist.Segments[0].URL)
	assert.Equal(t, 2, playlist.Segments[2].Index)
}

func TestDownloadToWritesSegmentsInOrder(t *testing.T) {
	t.Parallel()

	srv, _ := newStreamServer(t, 12, nil)
	d := NewDownloader(srv.Client(), 4)

	var buf bytes.Buffer
	var last int
	err := d.DownloadTo(context.Background(), srv.URL+"/hls/master.m3u8", &buf, func(done, total int) {
		assert.Equal(t, 12, total)
		last = done
	})
	require.NoError(t, err)

	assert.Equal(t, "[0][1][2][3][4][5][6][7][8][9][10][11]", buf.String())
	assert.Equal(t, 12, last)
}

func TestDownloadToFailsWhenTooManySegmentsAreLost(t *testing.T) {
	t.Parallel()

	srv, hits := newStreamServer(t, 4, map[int]bool{1: true})
	d := NewDownloader(srv.Client(), 2)

	var buf bytes.Buffer
	err := d.DownloadTo(context.Background(), srv.URL+"/hls/master.m3u8", &buf, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1/4")
	assert.Equal(t, int32(4), hits.Load(), "failed segments are not retried")
}

func TestDownloadWithProgressCreatesFile(t *testing.T) {
	t.Parallel()

	srv, _ := newStreamServer(t, 2, nil)
	d := NewDownloader(srv.Client(), 0)

	output := filepath.Join(t.TempDir(), "nested", "episode.ts")
	require.NoError(t, d.DownloadWithProgress(context.Background(), srv.URL+"/hls/high/index.m3u8", output, nil))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "[0][1]", string(data))
}

func TestParseMediaPlaylistResolvesAbsoluteAndRelative(t *testing.T) {
	t.Parallel()

	lines := []string{
		"#EXTM3U",
		"#EXTINF:4.004,intro",
		"https://cdn.example/a.ts",
		"#EXTINF:4.004,",
		"/root/b.ts",
		"#EXTINF:4.004,",
		"c.ts",
	}
	playlist := parseMediaPlaylistLines(lines, "https://edge.example/hls/v1/index.m3u8")
	require.Len(t, playlist.Segments, 3)
	assert.Equal(t, "https://cdn.example/a.ts", playlist.Segments[0].URL)
	assert.Equal(t, "intro", playlist.Segments[0].Title)
	assert.Equal(t, "https://edge.example/root/b.ts", playlist.Segments[1].URL)
	assert.Equal(t, "https://edge.example/hls/v1/c.ts", playlist.Segments[2].URL)
	assert.InDelta(t, 4.004, playlist.Segments[2].Duration, 0.0001)
}
