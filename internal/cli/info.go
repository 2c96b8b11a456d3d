package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/unitplayer/internal/decode"
	"github.com/llehouerou/unitplayer/internal/errmsg"
	"github.com/llehouerou/unitplayer/internal/tags"
)

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>...",
		Short: "Show the audio description and tags of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for i, path := range args {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err := a.info(cmd.OutOrStdout(), path); err != nil {
					a.log.Warn("info failed", "path", path, "error", err)
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}
}

func (a *app) info(w io.Writer, path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return errmsg.Wrap(errmsg.OpSourceProbe, path, err)
	}
	desc, err := decode.Probe(path)
	if err != nil {
		return errmsg.Wrap(errmsg.OpSourceProbe, path, err)
	}

	fmt.Fprintf(w, "File:       %s\n", path)
	fmt.Fprintf(w, "Size:       %s\n", humanize.Bytes(uint64(fi.Size()))) //nolint:gosec // file sizes are non-negative
	fmt.Fprintf(w, "Modified:   %s\n", humanize.Time(fi.ModTime()))
	fmt.Fprintf(w, "Format:     %s\n", desc)
	fmt.Fprintf(w, "Duration:   %s\n", formatDuration(desc.Duration()))
	fmt.Fprintf(w, "Frames:     %s\n", humanize.Comma(desc.Frames))
	if secs := desc.Duration().Seconds(); secs > 0 {
		fmt.Fprintf(w, "Data rate:  %s/s\n", humanize.Bytes(uint64(float64(fi.Size())/secs)))
	}

	t, err := tags.Read(path)
	if err != nil {
		a.log.Debug("no tags", "path", path, "error", err)
		return nil
	}
	printTag(w, "Tags", t.Format)
	printTag(w, "Title", t.Title)
	printTag(w, "Artist", t.Artist)
	printTag(w, "Album", t.Album)
	printTag(w, "Album art.", t.AlbumArtist)
	printTag(w, "Genre", t.Genre)
	printTag(w, "Track", t.Track.String())
	printTag(w, "Disc", t.Disc.String())
	if t.Year > 0 {
		printTag(w, "Year", strconv.Itoa(t.Year))
	}
	if t.Artwork {
		printTag(w, "Artwork", "embedded")
	}
	return nil
}

func printTag(w io.Writer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "%-11s %s\n", name+":", value)
}
