package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openairproject/oap-ota/client/internal/updatemanager"
	"github.com/openairproject/oap-ota/version"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the update loop in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		m, cleanup, err := newManager(cfg, false)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		SetupCloseHandler(ctx, cancel)

		out, err := m.Run(ctx)
		printOutcome(cmd, out)
		return err
	},
}

func printOutcome(cmd *cobra.Command, out updatemanager.CycleOutcome) {
	remote := "unknown"
	if out.Remote != (version.Version{}) {
		remote = out.Remote.String()
	}
	cmd.Printf("Outcome: %s\nMinimum version: %s\nRemote version: %s\n", out.Kind, out.Current, remote)
	if out.Partition != "" {
		cmd.Printf("Partition: %s\n", out.Partition)
	}
	if out.Kind == updatemanager.OutcomeFailed && out.Err != nil {
		cmd.Printf("Error: %v\n", out.Err)
	}
}
