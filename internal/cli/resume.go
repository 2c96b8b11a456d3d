package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/unitplayer/internal/errmsg"
	"github.com/llehouerou/unitplayer/internal/state"
)

var errStoreDisabled = errors.New("resume store disabled in [state]")

const defaultPruneAge = 90 * 24 * time.Hour

func newResumeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Inspect and clean saved playback positions",
	}

	show := &cobra.Command{
		Use:   "show <file>",
		Short: "Show the saved position of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(m *state.Manager) error {
				r, err := m.GetResume(cmd.Context(), args[0])
				if err != nil {
					return errmsg.Wrap(errmsg.OpStateLoad, args[0], err)
				}
				w := cmd.OutOrStdout()
				if r == nil {
					fmt.Fprintf(w, "%s: no saved position\n", args[0])
					return nil
				}
				fmt.Fprintf(w, "Position: %s\n", formatDuration(r.Position))
				if r.Volume != nil {
					fmt.Fprintf(w, "Volume:   %.2f\n", *r.Volume)
				}
				if r.Pan != nil {
					fmt.Fprintf(w, "Pan:      %+.2f\n", *r.Pan)
				}
				fmt.Fprintf(w, "Saved:    %s\n", humanize.Time(r.UpdatedAt))
				return nil
			})
		},
	}

	forget := &cobra.Command{
		Use:   "forget <file>...",
		Short: "Delete saved positions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(m *state.Manager) error {
				for _, url := range args {
					if err := m.Forget(cmd.Context(), url); err != nil {
						return errmsg.Wrap(errmsg.OpStateSave, url, err)
					}
				}
				return nil
			})
		},
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete saved positions not updated recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(m *state.Manager) error {
				n, err := m.Prune(cmd.Context(), olderThan)
				if err != nil {
					return errmsg.Wrap(errmsg.OpStateSave, "", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s saved %s\n",
					humanize.Comma(n), plural(n, "position", "positions"))
				return nil
			})
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", defaultPruneAge, "age of the records to delete")

	cmd.AddCommand(show, forget, prune)
	return cmd
}

// withStore runs fn with the resume store open.
func (a *app) withStore(fn func(*state.Manager) error) error {
	m, err := a.openStore()
	if err != nil {
		return err
	}
	if m == nil {
		return errStoreDisabled
	}
	defer m.Close()
	return fn(m)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
