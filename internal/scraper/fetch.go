package scraper

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/alvarorichard/hianime/internal/util"
)

// ajaxResponse is the envelope of the episode list and server endpoints
type ajaxResponse struct {
	Status bool   `json:"status"`
	HTML   string `json:"html"`
}

// Fetch issues a GET for rawURL, resolved against the base origin, and
// returns the body. Non-200 answers are errors; there is no retry.
func (c *HiAnimeClient) Fetch(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, rawURL, false)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *HiAnimeClient) get(ctx context.Context, rawURL string, ajax bool) ([]byte, error) {
	target := c.FixURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	c.decorateRequest(req)
	if ajax {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}

	util.Debug("HiAnime request", "url", target)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", target)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusForbidden {
			return nil, errors.Wrapf(ErrChallenge, "fetching %s", target)
		}
		return nil, errors.Errorf("server returned %s for %s", resp.Status, target)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	return body, nil
}

// fetchDocument fetches and parses an HTML page
func (c *HiAnimeClient) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.get(ctx, rawURL, false)
	if err != nil {
		return nil, err
	}

	doc, err := parseHTML(string(body))
	if err != nil {
		return nil, err
	}
	if isChallengePage(doc) {
		return nil, ErrChallenge
	}
	return doc, nil
}

// fetchJSON fetches an AJAX endpoint and decodes it into T
func fetchJSON[T any](ctx context.Context, c *HiAnimeClient, rawURL string) (T, error) {
	var out T
	body, err := c.get(ctx, rawURL, true)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, errors.Wrapf(err, "failed to decode response of %s", rawURL)
	}
	return out, nil
}

// fetchFragment fetches an AJAX endpoint answering with an ajaxResponse
// envelope and parses the embedded HTML
func (c *HiAnimeClient) fetchFragment(ctx context.Context, rawURL string) (*goquery.Document, error) {
	envelope, err := fetchJSON[ajaxResponse](ctx, c, rawURL)
	if err != nil {
		return nil, err
	}
	return parseHTML(envelope.HTML)
}

func parseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse HTML")
	}
	return doc, nil
}
