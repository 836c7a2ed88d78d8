package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dokan-dev/dokany-sub001/internal/driver"
	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
	"github.com/dokan-dev/dokany-sub001/version"
)

func newVersionCmd(d driver.Driver) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			version.PrintVersion(out, "dokanmirror")

			versions, err := dokan.DriverVersions(d)
			if err != nil {
				fmt.Fprintf(out, "Dokan: unavailable (%v)\n", err)
				return
			}
			fmt.Fprintf(out, "Dokan Library: %s\n", version.FormatDokanVersion(versions.Library))
			fmt.Fprintf(out, "Dokan Driver: %s\n", version.FormatDokanVersion(versions.Driver))
		},
	}
}
