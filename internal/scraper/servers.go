package scraper

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/alvarorichard/hianime/internal/models"
)

// ErrNoLink is returned when a server answered without an embed link
var ErrNoLink = errors.New("no embed link found for server")

type sourcesResponse struct {
	Link string `json:"link"`
}

// GetServers lists the servers of an episode. Servers are unique by id, the
// first occurrence wins.
func (c *HiAnimeClient) GetServers(ctx context.Context, episodeID string) ([]models.ServerRef, error) {
	if episodeID == "" {
		return nil, errors.New("episode id cannot be empty")
	}
	doc, err := c.fetchFragment(ctx, c.baseURL+"/ajax/v2/episode/servers?episodeId="+url.QueryEscape(episodeID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get servers")
	}

	servers := lo.UniqBy(parseServers(doc), func(s models.ServerRef) string {
		return s.ID
	})
	return servers, nil
}

// ResolveSource returns the embed link of a server
func (c *HiAnimeClient) ResolveSource(ctx context.Context, server models.ServerRef) (models.ResolvedSource, error) {
	data, err := fetchJSON[sourcesResponse](ctx, c, c.baseURL+"/ajax/v2/episode/sources?id="+url.QueryEscape(server.ID))
	if err != nil {
		return models.ResolvedSource{}, errors.Wrapf(err, "failed to resolve server %s", server.ID)
	}
	if data.Link == "" {
		return models.ResolvedSource{}, errors.Wrapf(ErrNoLink, "server %s", server.ID)
	}
	return models.ResolvedSource{Server: server, Link: data.Link}, nil
}
