package cli

import (
	"github.com/spf13/cobra"

	"github.com/llehouerou/unitplayer/internal/errmsg"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Print the merged configuration with defaults applied, as TOML.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.cfg.MarshalTOML()
			if err != nil {
				return errmsg.Wrap(errmsg.OpConfigLoad, "", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(show)
	return cmd
}
