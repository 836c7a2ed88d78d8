package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dokan-dev/dokany-sub001/internal/driver"
	"github.com/dokan-dev/dokany-sub001/version"
)

// NewRootCmd creates the dokanmirror command tree using the Dokan library
// of the running platform.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

// newRootCmd builds the command tree around d. A nil driver is resolved
// when a command needs it.
func newRootCmd(d driver.Driver) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dokanmirror",
		Short: "dokanmirror - mirror a local directory as a Dokan volume",
		Long: `dokanmirror mounts a local directory as a Windows volume through the Dokan
user-mode file system driver.

Use subcommands to perform different operations:
  - mount: Mirror a directory at a drive letter or directory mount point
  - unmount: Remove a Dokan volume by mount point
  - version: Show program, library and driver versions`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	groupVolume := "volume"
	groupUtilities := "utilities"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupVolume,
		Title: "Volume Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	mountCmd := newMountCmd(d)
	unmountCmd := newUnmountCmd(d)
	versionCmd := newVersionCmd(d)

	mountCmd.GroupID = groupVolume
	unmountCmd.GroupID = groupVolume
	versionCmd.GroupID = groupUtilities

	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(unmountCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}
