package cmd

import (
	"github.com/spf13/cobra"

	"github.com/openairproject/oap-ota/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "prints the firmware version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.FirmwareVersion())
	},
}
