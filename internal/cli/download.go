package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/alvarorichard/hianime/internal/models"
	"github.com/alvarorichard/hianime/internal/util"
)

var unsafeName = regexp.MustCompile(`[^\w.-]+`)

func newDownloadCmd(a *app) *cobra.Command {
	var (
		output string
		prefer string
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "download <episode>",
		Short: "Download an episode stream to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videos, _, err := a.collectLinks(cmd, args[0], quiet)
			if err != nil && len(videos) == 0 {
				return err
			}

			link, ok := pickLink(videos, prefer)
			if !ok {
				return errors.New("no HLS link to download")
			}
			if output == "" {
				output = defaultOutput(args[0])
			}
			return a.download(cmd.Context(), cmd, link, output, quiet)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	cmd.Flags().StringVar(&prefer, "prefer", "Subbed", "Preferred audio, Subbed or Dubbed")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show progress")
	return cmd
}

// pickLink returns the first HLS link whose name ends with prefer, or the
// first HLS link at all
func pickLink(videos []models.ExtractorLink, prefer string) (models.ExtractorLink, bool) {
	hls := lo.Filter(videos, func(l models.ExtractorLink, _ int) bool { return l.IsM3U8 })
	if len(hls) == 0 {
		return models.ExtractorLink{}, false
	}
	if preferred, ok := lo.Find(hls, func(l models.ExtractorLink) bool {
		return strings.HasSuffix(strings.ToLower(l.Name), strings.ToLower(prefer))
	}); ok {
		return preferred, true
	}
	return hls[0], true
}

func defaultOutput(episode string) string {
	name := strings.Trim(unsafeName.ReplaceAllString(strings.TrimPrefix(episode, "/watch/"), "_"), "_")
	if name == "" {
		name = "episode"
	}
	return filepath.Join(".", name+".ts")
}

func (a *app) download(ctx context.Context, cmd *cobra.Command, link models.ExtractorLink, output string, quiet bool) error {
	playback := a.client.NewPlayback()
	defer playback.Close()

	f, err := os.Create(output) // #nosec G304 - user supplied output path
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	defer func() { _ = f.Close() }()

	progress := func(done, total int) {
		if quiet {
			return
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\r%s %d/%d", labelStyle.Render("segments"), done, total)
	}

	util.Info("Downloading", "link", link.Name, "output", output)
	if err := a.client.Download(ctx, playback, link, f, progress); err != nil {
		return err
	}
	if !quiet {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	}
	util.Info("Saved", "output", output)
	return nil
}
