package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dokan-dev/dokany-sub001/internal/driver"
	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
)

func newUnmountCmd(d driver.Driver) *cobra.Command {
	return &cobra.Command{
		Use:   "unmount MOUNTPOINT",
		Short: "Remove a Dokan volume",
		Long: `Remove the Dokan volume mounted at MOUNTPOINT, a drive letter or a
directory path. The serving process sees the volume unmount and exits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dokan.UnmountMountPoint(d, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unmounted %s\n", args[0])
			return nil
		},
	}
}
