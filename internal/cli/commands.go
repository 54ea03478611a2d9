package cli

import (
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/alvarorichard/hianime/internal/models"
	"github.com/alvarorichard/hianime/internal/util"
)

func newHomeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "List the sections of the home page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sections, err := a.client.Home(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, section := range sections {
				printf(out, "%s\n", titleStyle.Render(section.Name))
				printEntries(out, section.Items)
				printf(out, "\n")
			}
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search shows by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.client.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				printf(cmd.OutOrStdout(), "%s\n", faintStyle.Render("no results"))
				return nil
			}
			printEntries(cmd.OutOrStdout(), results)
			return nil
		},
	}
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <show url>",
		Short: "Show the details and episodes of a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := a.client.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), detail)
			return nil
		},
	}
}

func newLinksCmd(a *app) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "links <episode>",
		Short: "Resolve the stream links of an episode",
		Long:  "Resolve the stream links of an episode. The episode is the watch path printed by load, e.g. /watch/name-100?ep=2142, or a bare episode id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videos, subs, err := a.collectLinks(cmd, args[0], quiet)
			if err != nil && len(videos) == 0 {
				return err
			}
			if err != nil {
				util.Warn("Some servers failed", "error", err)
			}
			printLinks(cmd.OutOrStdout(), videos, subs)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show the spinner")
	return cmd
}

// collectLinks runs LoadLinks behind a spinner unless quiet is set
func (a *app) collectLinks(cmd *cobra.Command, episode string, quiet bool) ([]models.ExtractorLink, []models.Subtitle, error) {
	var (
		videos []models.ExtractorLink
		subs   []models.Subtitle
		err    error
	)
	load := func() {
		videos, subs, err = a.client.Links(cmd.Context(), episode)
	}

	if quiet {
		load()
	} else if serr := spinner.New().Title("Resolving servers...").Type(spinner.Dots).Action(load).Run(); serr != nil {
		return nil, nil, errors.Wrap(serr, "spinner failed")
	}

	if len(videos) == 0 && err == nil {
		err = errors.New("no playable link found")
	}
	return videos, subs, err
}
