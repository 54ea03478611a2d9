// Package models contains the data structures produced by the HiAnime scraper
package models

// TvType represents the kind of content a listing tile points to
type TvType string

const (
	TvTypeAnime TvType = "anime"
	TvTypeMovie TvType = "movie"
	TvTypeOVA   TvType = "ova"
)

// DubStatus is the audio classification of an episode server
type DubStatus string

const (
	DubStatusSubbed DubStatus = "Subbed"
	DubStatusDubbed DubStatus = "Dubbed"
)

// String returns the label appended to link names
func (d DubStatus) String() string {
	return string(d)
}

// ListingEntry is one tile of a listing, search or recommendation grid
type ListingEntry struct {
	Name         string
	URL          string // Absolute detail page URL, never empty
	PosterURL    string
	Type         TvType
	DubAvailable bool
	SubAvailable bool
	Episodes     *int // Current episode count, nil when the tile has no counter
}

// HomeSection groups the tiles of one block on the home page
type HomeSection struct {
	Name  string
	Items []ListingEntry
}

// NewListingEntry creates a listing entry with the mandatory fields set
func NewListingEntry(name, url string, tvType TvType) ListingEntry {
	return ListingEntry{
		Name: name,
		URL:  url,
		Type: tvType,
	}
}

// WithDubStatus records the audio availability and the shared episode counter
func (e ListingEntry) WithDubStatus(dub, sub bool, episodes *int) ListingEntry {
	e.DubAvailable = dub
	e.SubAvailable = sub
	e.Episodes = episodes
	return e
}
