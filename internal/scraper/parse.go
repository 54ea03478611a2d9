package scraper

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alvarorichard/hianime/internal/models"
)

var episodeCountRe = regexp.MustCompile(`Ep (\d+)/`)

// GetType classifies a type label of a tile or detail page
func GetType(label string) models.TvType {
	switch {
	case strings.Contains(label, "OVA"), strings.Contains(label, "Special"):
		return models.TvTypeOVA
	case strings.Contains(label, "Movie"):
		return models.TvTypeMovie
	default:
		return models.TvTypeAnime
	}
}

// GetStatus maps the airing label of a detail page. Unknown labels count as
// completed.
func GetStatus(label string) models.ShowStatus {
	switch strings.TrimSpace(label) {
	case "Finished Airing":
		return models.ShowStatusCompleted
	case "Currently Airing":
		return models.ShowStatusOngoing
	default:
		return models.ShowStatusCompleted
	}
}

// ParseEpisodeCount reads the numerator of labels such as "Ep 12/24"
func ParseEpisodeCount(label string) *int {
	m := episodeCountRe.FindStringSubmatch(label)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

func isNewsEntry(href, title string) bool {
	return strings.Contains(href, "/news/") || strings.EqualFold(strings.TrimSpace(title), "News")
}

func parseIntPtr(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

// parseListingTile reads one home page tile. News tiles and tiles without a
// link are dropped.
func (c *HiAnimeClient) parseListingTile(s *goquery.Selection) (models.ListingEntry, bool) {
	href, _ := s.Find("a").First().Attr("href")
	title := strings.TrimSpace(s.Find("h3.film-name").First().Text())
	if href == "" || isNewsEntry(href, title) {
		return models.ListingEntry{}, false
	}

	poster, _ := s.Find("img").First().Attr("data-src")
	label := strings.ToLower(s.Find(".film-poster > .tick.ltr").Text())
	episodes := ParseEpisodeCount(s.Find(".film-poster > .tick.rtl > .tick-eps").Text())
	tvType := GetType(s.Find("div.fd-infor > span.fdi-item").First().Text())

	entry := models.NewListingEntry(title, c.FixURL(href), tvType).
		WithDubStatus(strings.Contains(label, "dub"), strings.Contains(label, "sub"), episodes)
	entry.PosterURL = c.FixURL(poster)
	return entry, true
}

// parseSearchRow reads one search result. Rows without a poster block or a
// link are dropped.
func (c *HiAnimeClient) parseSearchRow(s *goquery.Selection) (models.ListingEntry, bool) {
	posterBlock := s.Find(".film-poster")
	if posterBlock.Length() == 0 {
		return models.ListingEntry{}, false
	}
	href, ok := s.Find(".film-name a").First().Attr("href")
	if !ok || href == "" {
		return models.ListingEntry{}, false
	}

	title, _ := s.Find(".film-detail > .film-name > a").First().Attr("title")
	poster, _ := posterBlock.Find("img").First().Attr("data-src")
	label := strings.ToUpper(posterBlock.Find("div.ltr").Text())
	episodes := ParseEpisodeCount(posterBlock.Find("div.rtl > div.tick-eps").Text())
	tvType := GetType(s.Find(".film-detail > .fd-infor > .fdi-item").First().Text())

	dub := strings.Contains(label, "DUB")
	sub := strings.Contains(label, "SUB") || strings.Contains(label, "RAW")

	entry := models.NewListingEntry(strings.TrimSpace(title), c.FixURL(href), tvType).
		WithDubStatus(dub, sub, episodes)
	entry.PosterURL = c.FixURL(poster)
	return entry, true
}

func (c *HiAnimeClient) parseSearch(doc *goquery.Document) []models.ListingEntry {
	var results []models.ListingEntry
	doc.Find(".flw-item").Each(func(_ int, s *goquery.Selection) {
		if entry, ok := c.parseSearchRow(s); ok {
			results = append(results, entry)
		}
	})
	return results
}

// parseHome reads the sidebar blocks and the main grids of the home page.
// Sections without any tile are skipped.
func (c *HiAnimeClient) parseHome(doc *goquery.Document) []models.HomeSection {
	var sections []models.HomeSection

	collect := func(name string, items *goquery.Selection) {
		section := models.HomeSection{Name: strings.TrimSpace(name)}
		items.Each(func(_ int, s *goquery.Selection) {
			if entry, ok := c.parseListingTile(s); ok {
				section.Items = append(section.Items, entry)
			}
		})
		if len(section.Items) > 0 {
			sections = append(sections, section)
		}
	}

	doc.Find("div.anif-block").Each(func(_ int, block *goquery.Selection) {
		collect(block.Find("div.anif-block-header").First().Text(), block.Find("li"))
	})
	doc.Find("section.block_area.block_area_home").Each(func(_ int, block *goquery.Selection) {
		collect(block.Find("h2.cat-heading").First().Text(), block.Find("div.flw-item"))
	})
	return sections
}

type syncData struct {
	MalID     string `json:"mal_id"`
	AniListID string `json:"anilist_id"`
}

// parseSyncData reads the external ids embedded in the detail page
func parseSyncData(doc *goquery.Document) (malID, aniListID *int) {
	raw := strings.TrimSpace(doc.Find("#syncData").First().Text())
	if raw == "" {
		return nil, nil
	}
	var data syncData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, nil
	}
	return parseIntPtr(data.MalID), parseIntPtr(data.AniListID)
}

// parseDetail reads the detail page of pageURL. Episodes are fetched
// separately.
func (c *HiAnimeClient) parseDetail(doc *goquery.Document, pageURL string) models.ShowDetail {
	detail := models.ShowDetail{
		Title: strings.TrimSpace(doc.Find(".anisc-detail > .film-name").First().Text()),
		URL:   pageURL,
		Type:  models.TvTypeAnime,
		Plot:  strings.TrimSpace(doc.Find(".film-description.m-hide > .text").First().Text()),
	}

	if poster, ok := doc.Find(".anisc-poster img").First().Attr("src"); ok {
		detail.PosterURL = c.FixURL(poster)
	}

	detail.Tags = doc.Find(".anisc-info a[href*=\"/genre/\"]").Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})

	doc.Find(".anisc-info > .item.item-title").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if detail.Year != nil && detail.JapaneseTitle != "" && detail.Status != models.ShowStatusUnknown {
			return false
		}
		text := item.Text()
		value := strings.TrimSpace(item.Find(".name").First().Text())
		switch {
		case strings.Contains(text, "Premiered") && detail.Year == nil:
			if fields := strings.Fields(value); len(fields) > 0 {
				detail.Year = parseIntPtr(fields[len(fields)-1])
			}
		case strings.Contains(text, "Japanese") && detail.JapaneseTitle == "":
			detail.JapaneseTitle = value
		case strings.Contains(text, "Status") && detail.Status == models.ShowStatusUnknown:
			detail.Status = GetStatus(value)
		}
		return true
	})

	detail.MalID, detail.AniListID = parseSyncData(doc)
	detail.Cast = c.parseCast(doc)
	detail.Recommendations = c.parseRecommendations(doc)
	return detail
}

// parseCast reads the characters block. Entries whose character has no name
// or image are dropped; a voice actor without them is left out.
func (c *HiAnimeClient) parseCast(doc *goquery.Document) []models.CastEntry {
	var cast []models.CastEntry
	doc.Find("div.block-actors-content > div.bac-list-wrap > div.bac-item").Each(func(_ int, item *goquery.Selection) {
		people := item.Find(".per-info")
		if people.Length() == 0 {
			return
		}
		character := people.First()
		actor, ok := c.parseActor(character)
		if !ok {
			return
		}

		var role models.ActorRole
		switch strings.TrimSpace(character.Find(".pi-detail > .pi-cast").First().Text()) {
		case "Main":
			role = models.ActorRoleMain
		case "Supporting":
			role = models.ActorRoleSupporting
		}

		var voice *models.Actor
		if people.Length() > 1 {
			if va, ok := c.parseActor(people.Eq(1)); ok {
				voice = &va
			}
		}
		cast = append(cast, models.NewCastEntry(actor, role, voice))
	})
	return cast
}

func (c *HiAnimeClient) parseActor(s *goquery.Selection) (models.Actor, bool) {
	image, ok := s.Find(".pi-avatar > img").First().Attr("data-src")
	if !ok || image == "" {
		return models.Actor{}, false
	}
	name := strings.TrimSpace(s.Find(".pi-detail > .pi-name").First().Text())
	if name == "" {
		return models.Actor{}, false
	}
	return models.Actor{Name: name, Image: c.FixURL(image)}, true
}

// parseRecommendations reads the "Recommended for you" grid
func (c *HiAnimeClient) parseRecommendations(doc *goquery.Document) []models.ListingEntry {
	var recs []models.ListingEntry
	doc.Find("#main-content > section > .tab-content > div > .film_list-wrap > .flw-item").Each(func(_ int, s *goquery.Selection) {
		poster, ok := s.Find(".film-poster img").First().Attr("data-src")
		if !ok || poster == "" {
			return
		}
		a := s.Find(".film-detail > .film-name > a").First()
		href, _ := a.Attr("href")
		title, _ := a.Attr("title")
		if href == "" || title == "" {
			return
		}
		entry := models.NewListingEntry(title, c.FixURL(href), models.TvTypeAnime)
		entry.PosterURL = c.FixURL(poster)
		recs = append(recs, entry)
	})
	return recs
}

// animeIDFromURL returns the numeric id ending the slug of a detail URL,
// e.g. "https://hianime.to/frieren-18542" gives "18542".
func animeIDFromURL(pageURL string) string {
	path := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")
	parts := strings.Split(path, "-")
	return parts[len(parts)-1]
}

// parseEpisodes reads the episode list fragment in document order
func parseEpisodes(doc *goquery.Document) []models.EpisodeRef {
	var episodes []models.EpisodeRef
	doc.Find(".ss-list > a[href].ssl-item.ep-item").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		name, _ := a.Attr("title")
		number := parseIntPtr(a.Find(".ssli-order").First().Text())
		episodes = append(episodes, models.NewEpisodeRef(href, number, strings.TrimSpace(name)))
	})
	return episodes
}

// parseServers reads the server tiles of an episode in document order
func parseServers(doc *goquery.Document) []models.ServerRef {
	var servers []models.ServerRef
	doc.Find(".server-item[data-type][data-id]").Each(func(_ int, s *goquery.Selection) {
		dataType, _ := s.Attr("data-type")
		id, _ := s.Attr("data-id")
		servers = append(servers, models.NewServerRef(dataType, id))
	})
	return servers
}
