// Package cmd implements the dokanmirror command line: mount, unmount and
// version subcommands built with cobra.
package cmd
