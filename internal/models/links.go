package models

// ServerRef is one streaming server offered for an episode.
// Servers are unique by ID.
type ServerRef struct {
	Status DubStatus
	ID     string
}

// NewServerRef maps the data-type attribute of a server tile to a ServerRef
func NewServerRef(dataType, id string) ServerRef {
	status := DubStatusDubbed
	if dataType == "sub" {
		status = DubStatusSubbed
	}
	return ServerRef{Status: status, ID: id}
}

// ResolvedSource is the embed link returned for a server. It is not playable
// by itself and has to go through an extractor.
type ResolvedSource struct {
	Server ServerRef
	Link   string
}

// ExtractorLink is a playable stream produced by an extractor
type ExtractorLink struct {
	Source  string
	Name    string
	URL     string
	Referer string
	Quality string
	IsM3U8  bool
	Headers map[string]string
}

// NewExtractorLink creates a link, m3u8 detection is left to the caller
func NewExtractorLink(source, name, url, referer string) ExtractorLink {
	return ExtractorLink{
		Source:  source,
		Name:    name,
		URL:     url,
		Referer: referer,
	}
}

// Subtitle is an external subtitle track
type Subtitle struct {
	Lang string
	URL  string
}
