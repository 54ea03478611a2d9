package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/alvarorichard/hianime/internal/models"
	"github.com/alvarorichard/hianime/internal/util"
)

// GetMainPage returns the sections of the home page
func (c *HiAnimeClient) GetMainPage(ctx context.Context) ([]models.HomeSection, error) {
	doc, err := c.fetchDocument(ctx, c.baseURL+"/home")
	if err != nil {
		return nil, errors.Wrap(err, "failed to load home page")
	}
	sections := c.parseHome(doc)
	util.Debug("HiAnime home parsed", "sections", len(sections))
	return sections, nil
}

// Search queries the site search
func (c *HiAnimeClient) Search(ctx context.Context, query string) ([]models.ListingEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query cannot be empty")
	}

	searchURL := c.baseURL + "/search?keyword=" + url.QueryEscape(query)
	doc, err := c.fetchDocument(ctx, searchURL)
	if err != nil {
		return nil, errors.Wrap(err, "search failed")
	}

	results := c.parseSearch(doc)
	util.Debug("HiAnime search", "query", query, "results", len(results))
	return results, nil
}

// Load fetches the detail page of pageURL together with its episode list
func (c *HiAnimeClient) Load(ctx context.Context, pageURL string) (*models.ShowDetail, error) {
	pageURL = c.FixURL(pageURL)
	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load detail page")
	}

	detail := c.parseDetail(doc, pageURL)

	episodes, err := c.GetEpisodes(ctx, animeIDFromURL(pageURL))
	if err != nil {
		return nil, err
	}
	detail.Episodes = episodes
	return &detail, nil
}

// GetEpisodes returns the episode list of a show id in site order
func (c *HiAnimeClient) GetEpisodes(ctx context.Context, animeID string) ([]models.EpisodeRef, error) {
	if animeID == "" {
		return nil, errors.New("anime id cannot be empty")
	}
	doc, err := c.fetchFragment(ctx, c.baseURL+"/ajax/v2/episode/list/"+animeID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get episode list")
	}
	return parseEpisodes(doc), nil
}
