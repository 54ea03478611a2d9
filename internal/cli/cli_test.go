package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvarorichard/hianime/internal/models"
)

func newFakeSite(t *testing.T) *httptest.Server {
	t.Helper()

	ajax := func(html string) string {
		body, err := json.Marshal(map[string]any{"status": true, "html": html})
		require.NoError(t, err)
		return string(body)
	}

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<section class="block_area block_area_home"><h2 class="cat-heading">Trending</h2>
			<div class="flw-item"><div class="film-poster"><div class="tick ltr">SUB</div></div>
			<h3 class="film-name"><a href="/frieren-18542">Frieren</a></h3></div></section>`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<div class="flw-item"><div class="film-poster"><img data-src="/p.jpg"></div>
			<div class="film-detail"><h3 class="film-name"><a href="/frieren-18542" title="Frieren">Frieren</a></h3></div></div>`)
	})
	mux.HandleFunc("/frieren-18542", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<div class="anisc-detail"><h2 class="film-name">Frieren</h2></div>
			<div class="anisc-info"><div class="item item-title"><span class="item-head">Status:</span> <span class="name">Currently Airing</span></div></div>`)
	})
	mux.HandleFunc("/ajax/v2/episode/list/18542", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, ajax(`<div class="ss-list"><a href="/watch/frieren-18542?ep=7" class="ssl-item ep-item" title="Departure"><div class="ssli-order">1</div></a></div>`))
	})
	mux.HandleFunc("/ajax/v2/episode/servers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, ajax(`<div class="server-item" data-type="sub" data-id="4"></div><div class="server-item" data-type="dub" data-id="5"></div>`))
	})
	mux.HandleFunc("/ajax/v2/episode/sources", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"link":%q}`, srv.URL+"/hls/"+r.URL.Query().Get("id")+"/index.m3u8")
	})
	mux.HandleFunc("/hls/", func(w http.ResponseWriter, r *http.Request) {
		if filepath.Ext(r.URL.Path) == ".m3u8" {
			_, _ = fmt.Fprint(w, "#EXTM3U\n#EXTINF:4,\na.ts\n#EXTINF:4,\nb.ts\n#EXT-X-ENDLIST\n")
			return
		}
		_, _ = fmt.Fprint(w, r.URL.Path)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	srv := newFakeSite(t)

	out, err := run(t, "--base-url", srv.URL, "search", "frieren")
	require.NoError(t, err)
	assert.Contains(t, out, "Frieren")
	assert.Contains(t, out, srv.URL+"/frieren-18542")
}

func TestHomeCommand(t *testing.T) {
	srv := newFakeSite(t)

	out, err := run(t, "--base-url", srv.URL, "home")
	require.NoError(t, err)
	assert.Contains(t, out, "Trending")
	assert.Contains(t, out, "Frieren")
}

func TestLoadCommand(t *testing.T) {
	srv := newFakeSite(t)

	out, err := run(t, "--base-url", srv.URL, "load", "/frieren-18542")
	require.NoError(t, err)
	assert.Contains(t, out, "Ongoing")
	assert.Contains(t, out, "Departure")
	assert.Contains(t, out, "/watch/frieren-18542?ep=7")
}

func TestLinksCommand(t *testing.T) {
	srv := newFakeSite(t)

	out, err := run(t, "--base-url", srv.URL, "links", "-q", "/watch/frieren-18542?ep=7")
	require.NoError(t, err)
	assert.Contains(t, out, "Direct - Subbed")
	assert.Contains(t, out, "Direct - Dubbed")
}

func TestDownloadCommand(t *testing.T) {
	srv := newFakeSite(t)
	output := filepath.Join(t.TempDir(), "ep.ts")

	_, err := run(t, "--base-url", srv.URL, "download", "-q", "--prefer", "Dubbed", "-o", output, "/watch/frieren-18542?ep=7")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "/hls/5/a.ts/hls/5/b.ts", string(data))
}

func TestSearchCommandRequiresQuery(t *testing.T) {
	_, err := run(t, "search")
	require.Error(t, err)
}

func TestPickLink(t *testing.T) {
	videos := []models.ExtractorLink{
		{Name: "Direct - Subbed", URL: "a.mp4"},
		{Name: "RabbitStream - Subbed", URL: "b.m3u8", IsM3U8: true},
		{Name: "RabbitStream - Dubbed", URL: "c.m3u8", IsM3U8: true},
	}

	link, ok := pickLink(videos, "dubbed")
	require.True(t, ok)
	assert.Equal(t, "c.m3u8", link.URL)

	link, ok = pickLink(videos, "raw")
	require.True(t, ok)
	assert.Equal(t, "b.m3u8", link.URL)

	_, ok = pickLink(videos[:1], "Subbed")
	assert.False(t, ok)
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, filepath.Join(".", "frieren-18542_ep_7.ts"), defaultOutput("/watch/frieren-18542?ep=7"))
	assert.Equal(t, filepath.Join(".", "episode.ts"), defaultOutput("///"))
}
