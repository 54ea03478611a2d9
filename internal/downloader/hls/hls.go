// Package hls provides HLS (HTTP Live Streaming) download functionality
package hls

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/stream"

	"github.com/alvarorichard/hianime/internal/util"
)

// DefaultWorkers is the number of concurrent segment downloads
const DefaultWorkers = 8

// maxLossRatio is the share of segments that may fail before the download
// is reported as incomplete
const maxLossRatio = 0.05

var bandwidthRe = regexp.MustCompile(`BANDWIDTH=(\d+)`)

// Segment represents a single HLS segment
type Segment struct {
	URL      string
	Index    int
	Duration float64
	Title    string
}

// M3U8Playlist represents the HLS playlist structure
type M3U8Playlist struct {
	Version        string
	TargetDuration float64
	MediaSequence  int
	Segments       []Segment
	EndList        bool
	PlaylistType   string
}

// ProgressCallback is a function that reports download progress
type ProgressCallback func(downloaded, total int)

// Downloader handles HLS downloads. Every request goes through client, so a
// client built from the playback interceptor keeps segment sessions alive.
type Downloader struct {
	client  *http.Client
	workers int
}

// NewDownloader creates a new HLS downloader
func NewDownloader(client *http.Client, workers int) *Downloader {
	if client == nil {
		client = util.GetSharedClient()
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Downloader{client: client, workers: workers}
}

// Playlist fetches playlistURL and returns the media playlist to download.
// For a master playlist the variant with the highest bandwidth is used.
func (d *Downloader) Playlist(ctx context.Context, playlistURL string) (*M3U8Playlist, error) {
	lines, err := d.fetchLines(ctx, playlistURL)
	if err != nil {
		return nil, err
	}

	if !isMasterPlaylist(lines) {
		return parseMediaPlaylistLines(lines, playlistURL), nil
	}

	variant := selectBestStream(lines, playlistURL)
	if variant == "" {
		return nil, errors.New("no suitable stream found in master playlist")
	}
	util.Debug("Selected HLS variant", "url", variant)

	lines, err = d.fetchLines(ctx, variant)
	if err != nil {
		return nil, err
	}
	return parseMediaPlaylistLines(lines, variant), nil
}

func (d *Downloader) fetchLines(ctx context.Context, playlistURL string) ([]string, error) {
	resp, err := d.get(ctx, playlistURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch playlist")
	}
	defer func() { _ = resp.Body.Close() }()

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read playlist")
	}
	return lines, nil
}

func (d *Downloader) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp, nil
}

func isMasterPlaylist(lines []string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, "#EXT-X-STREAM-INF:") {
			return true
		}
	}
	return false
}

// selectBestStream finds the highest quality stream from a master playlist
func selectBestStream(lines []string, baseURL string) string {
	best, bestBandwidth := "", -1
	for i, line := range lines {
		if !strings.HasPrefix(line, "#EXT-X-STREAM-INF:") || i+1 >= len(lines) {
			continue
		}
		next := lines[i+1]
		if next == "" || strings.HasPrefix(next, "#") {
			continue
		}

		bandwidth := 0
		if m := bandwidthRe.FindStringSubmatch(line); m != nil {
			bandwidth, _ = strconv.Atoi(m[1])
		}
		if bandwidth > bestBandwidth {
			best, bestBandwidth = resolveURL(baseURL, next), bandwidth
		}
	}
	return best
}

// parseMediaPlaylistLines parses lines from a media playlist
func parseMediaPlaylistLines(lines []string, playlistURL string) *M3U8Playlist {
	playlist := &M3U8Playlist{Segments: make([]Segment, 0)}

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "#EXT-X-VERSION:"):
			playlist.Version = strings.TrimPrefix(line, "#EXT-X-VERSION:")
		case strings.HasPrefix(line, "#EXT-X-TARGETDURATION:"):
			if v, err := strconv.ParseFloat(strings.TrimPrefix(line, "#EXT-X-TARGETDURATION:"), 64); err == nil {
				playlist.TargetDuration = v
			}
		case strings.HasPrefix(line, "#EXT-X-MEDIA-SEQUENCE:"):
			if v, err := strconv.Atoi(strings.TrimPrefix(line, "#EXT-X-MEDIA-SEQUENCE:")); err == nil {
				playlist.MediaSequence = v
			}
		case strings.HasPrefix(line, "#EXT-X-PLAYLIST-TYPE:"):
			playlist.PlaylistType = strings.TrimPrefix(line, "#EXT-X-PLAYLIST-TYPE:")
		case strings.HasPrefix(line, "#EXT-X-ENDLIST"):
			playlist.EndList = true
		case strings.HasPrefix(line, "#EXTINF:"):
			if i+1 >= len(lines) {
				continue
			}
			segmentURL := lines[i+1]
			if segmentURL == "" || strings.HasPrefix(segmentURL, "#") {
				continue
			}

			parts := strings.SplitN(strings.TrimPrefix(line, "#EXTINF:"), ",", 2)
			duration, _ := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			var title string
			if len(parts) > 1 {
				title = strings.TrimSpace(parts[1])
			}

			playlist.Segments = append(playlist.Segments, Segment{
				URL:      resolveURL(playlistURL, segmentURL),
				Index:    len(playlist.Segments),
				Duration: duration,
				Title:    title,
			})
		}
	}
	return playlist
}

func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func (d *Downloader) downloadSegment(ctx context.Context, segmentURL string) ([]byte, error) {
	resp, err := d.get(ctx, segmentURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// DownloadTo writes the stream at playlistURL to w. Segments are fetched
// concurrently and written in playlist order; a failed segment is not
// retried and leaves a gap.
func (d *Downloader) DownloadTo(ctx context.Context, playlistURL string, w io.Writer, progress ProgressCallback) error {
	playlist, err := d.Playlist(ctx, playlistURL)
	if err != nil {
		return errors.Wrap(err, "failed to parse playlist")
	}

	total := len(playlist.Segments)
	if total == 0 {
		return errors.New("playlist has no segments to download")
	}
	if progress != nil {
		progress(0, total)
	}

	var (
		done     int
		failed   int
		firstErr error
		writeErr error
	)

	// stream runs the callbacks one at a time in submission order
	s := stream.New().WithMaxGoroutines(d.workers)
	for _, segment := range playlist.Segments {
		s.Go(func() stream.Callback {
			data, err := d.downloadSegment(ctx, segment.URL)
			return func() {
				done++
				switch {
				case err != nil:
					failed++
					util.Debug("Segment failed", "index", segment.Index, "error", err)
					if firstErr == nil {
						firstErr = errors.Wrapf(err, "segment %d", segment.Index)
					}
				case writeErr == nil:
					if _, werr := w.Write(data); werr != nil {
						writeErr = errors.Wrapf(werr, "failed to write segment %d", segment.Index)
					}
				}
				if progress != nil {
					progress(done, total)
				}
			}
		})
	}
	s.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	if failed > 0 {
		ratio := float64(failed) / float64(total)
		if ratio > maxLossRatio {
			return errors.Wrapf(firstErr, "download incomplete: %d/%d segments failed", failed, total)
		}
		util.Warn("Some segments could not be downloaded", "failed", failed, "total", total)
	}
	return nil
}

// sanitizeOutputPath validates and cleans the output path to prevent directory traversal
func sanitizeOutputPath(path string) (string, error) {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve absolute path")
	}
	if strings.Contains(absPath, "..") {
		return "", errors.New("path contains directory traversal")
	}
	return absPath, nil
}

// DownloadWithProgress downloads the stream into the file at output
func (d *Downloader) DownloadWithProgress(ctx context.Context, playlistURL, output string, progress ProgressCallback) error {
	output, err := sanitizeOutputPath(output)
	if err != nil {
		return errors.Wrap(err, "invalid output path")
	}
	if err := os.MkdirAll(filepath.Dir(output), 0750); err != nil { // #nosec G301
		return errors.Wrap(err, "failed to create output directory")
	}

	outFile, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) // #nosec G304 - path sanitized above
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	defer func() { _ = outFile.Close() }()

	return d.DownloadTo(ctx, playlistURL, outFile, progress)
}
