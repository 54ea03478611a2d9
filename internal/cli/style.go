package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alvarorichard/hianime/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E11D48"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
)

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// entryLine renders one listing entry as a single line
func entryLine(e models.ListingEntry) string {
	var tags []string
	tags = append(tags, string(e.Type))
	if e.SubAvailable {
		tags = append(tags, "sub")
	}
	if e.DubAvailable {
		tags = append(tags, "dub")
	}
	if e.Episodes != nil {
		tags = append(tags, fmt.Sprintf("ep %d", *e.Episodes))
	}
	return fmt.Sprintf("%s %s\n    %s", e.Name, labelStyle.Render("["+strings.Join(tags, ", ")+"]"), faintStyle.Render(e.URL))
}

func printEntries(w io.Writer, entries []models.ListingEntry) {
	for i, e := range entries {
		printf(w, "%2d. %s\n", i+1, entryLine(e))
	}
}

func printDetail(w io.Writer, d *models.ShowDetail) {
	printf(w, "%s\n", titleStyle.Render(d.Title))
	if d.JapaneseTitle != "" {
		printf(w, "%s\n", faintStyle.Render(d.JapaneseTitle))
	}
	if d.Year != nil {
		printf(w, "%s %d\n", labelStyle.Render("Year:"), *d.Year)
	}
	if d.Status != models.ShowStatusUnknown {
		printf(w, "%s %s\n", labelStyle.Render("Status:"), d.Status)
	}
	if len(d.Tags) > 0 {
		printf(w, "%s %s\n", labelStyle.Render("Genres:"), strings.Join(d.Tags, ", "))
	}
	if d.MalID != nil {
		printf(w, "%s %d\n", labelStyle.Render("MAL:"), *d.MalID)
	}
	if d.AniListID != nil {
		printf(w, "%s %d\n", labelStyle.Render("AniList:"), *d.AniListID)
	}
	if d.Plot != "" {
		printf(w, "\n%s\n", d.Plot)
	}

	printf(w, "\n%s\n", titleStyle.Render(fmt.Sprintf("Episodes (%d)", len(d.Episodes))))
	for _, ep := range d.Episodes {
		printf(w, "  %s  %s %s\n", episodeNumber(ep), ep.Name, faintStyle.Render(ep.Data))
	}

	if len(d.Cast) > 0 {
		printf(w, "\n%s\n", titleStyle.Render("Cast"))
		for _, c := range d.Cast {
			line := c.Actor.Name
			if c.Role != models.ActorRoleNone {
				line += " (" + string(c.Role) + ")"
			}
			if c.VoiceActor != nil {
				line += " - " + c.VoiceActor.Name
			}
			printf(w, "  %s\n", line)
		}
	}

	if len(d.Recommendations) > 0 {
		printf(w, "\n%s\n", titleStyle.Render("Recommended"))
		for _, r := range d.Recommendations {
			printf(w, "  %s %s\n", r.Name, faintStyle.Render(r.URL))
		}
	}
}

func episodeNumber(ep models.EpisodeRef) string {
	if ep.Number == nil {
		return "?"
	}
	return fmt.Sprintf("%3d", *ep.Number)
}

func printLinks(w io.Writer, videos []models.ExtractorLink, subs []models.Subtitle) {
	for i, v := range videos {
		kind := "file"
		if v.IsM3U8 {
			kind = "hls"
		}
		printf(w, "%2d. %s %s\n    %s\n", i+1, v.Name, labelStyle.Render("["+kind+"]"), v.URL)
		if v.Referer != "" {
			printf(w, "    %s %s\n", faintStyle.Render("referer"), v.Referer)
		}
	}
	for _, s := range subs {
		printf(w, "    %s %s %s\n", labelStyle.Render("subtitle"), s.Lang, faintStyle.Render(s.URL))
	}
}
