package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/alvarorichard/hianime/internal/models"
)

func newPickCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pick [query]",
		Short: "Pick a show, an episode and a stream interactively",
		Long:  "Search, then pick a show and an episode with a fuzzy finder. The chosen stream is printed or downloaded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := strings.Join(args, " ")
			if query == "" {
				if err := huh.NewInput().Title("Search HiAnime").Value(&query).Run(); err != nil {
					return errors.Wrap(err, "failed to read query")
				}
			}

			var (
				results []models.ListingEntry
				err     error
			)
			if serr := spinner.New().Title("Searching...").Type(spinner.Dots).Action(func() {
				results, err = a.client.Search(ctx, query)
			}).Run(); serr != nil {
				return errors.Wrap(serr, "spinner failed")
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return errors.Errorf("no results for %q", query)
			}

			idx, err := fuzzyfinder.Find(results, func(i int) string {
				return results[i].Name
			}, fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
				if i < 0 {
					return ""
				}
				return entryLine(results[i])
			}))
			if err != nil {
				return errors.Wrap(err, "failed to select show with go-fuzzyfinder")
			}

			var detail *models.ShowDetail
			if serr := spinner.New().Title("Loading episodes...").Type(spinner.Dots).Action(func() {
				detail, err = a.client.Load(ctx, results[idx].URL)
			}).Run(); serr != nil {
				return errors.Wrap(serr, "spinner failed")
			}
			if err != nil {
				return err
			}
			if len(detail.Episodes) == 0 {
				return errors.Errorf("%s has no episodes", detail.Title)
			}

			epIdx, err := fuzzyfinder.Find(detail.Episodes, func(i int) string {
				ep := detail.Episodes[i]
				return fmt.Sprintf("%s %s", strings.TrimSpace(episodeNumber(ep)), ep.Name)
			})
			if err != nil {
				return errors.Wrap(err, "failed to select episode with go-fuzzyfinder")
			}

			videos, subs, err := a.collectLinks(cmd, detail.Episodes[epIdx].Data, false)
			if err != nil && len(videos) == 0 {
				return err
			}

			link, err := selectLink(videos)
			if err != nil {
				return err
			}

			var action string
			if err := huh.NewSelect[string]().
				Title(link.Name).
				Options(
					huh.NewOption("Print stream URL", "print"),
					huh.NewOption("Download", "download"),
				).
				Value(&action).
				Run(); err != nil {
				return errors.Wrap(err, "failed to select action")
			}

			if action == "download" {
				return a.download(ctx, cmd, link, defaultOutput(detail.Episodes[epIdx].Data), false)
			}
			printLinks(cmd.OutOrStdout(), []models.ExtractorLink{link}, subs)
			return nil
		},
	}
}

func selectLink(videos []models.ExtractorLink) (models.ExtractorLink, error) {
	if len(videos) == 1 {
		return videos[0], nil
	}

	options := make([]huh.Option[int], 0, len(videos))
	for i, v := range videos {
		options = append(options, huh.NewOption(v.Name, i))
	}

	var choice int
	if err := huh.NewSelect[int]().Title("Stream").Options(options...).Value(&choice).Run(); err != nil {
		return models.ExtractorLink{}, errors.Wrap(err, "failed to select stream")
	}
	return videos[choice], nil
}
