package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionOutput represents JSON output for version
type versionOutput struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}

func newVersionCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   CmdNameVersion,
		Short: VersionShort,
		Args:  exactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if format == OutputFormatJSON {
				return writeJSON(a, versionOutput{Version: Version, GoVersion: runtime.Version()})
			}
			_, err := fmt.Fprintf(a.streams.out, VersionTextTemplate, Version, runtime.Version())
			return err
		},
	}

	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)
	return cmd
}
