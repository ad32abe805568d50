package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openairproject/oap-ota/client/internal/updatemanager"
)

var dryRun bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single update check",
	Long: "Run a single update check. A newer image is installed according to the auto-commit setting, " +
		"with --dry-run it is only downloaded and verified.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		m, cleanup, err := newManager(cfg, dryRun)
		if err != nil {
			return err
		}
		defer cleanup()

		out, err := m.RunCycle(cmd.Context())
		printOutcome(cmd, out)
		if err != nil {
			return err
		}
		if out.Kind == updatemanager.OutcomeFailed {
			return fmt.Errorf("update check failed: %w", out.Err)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&dryRun, "dry-run", false, "download and verify a newer image without writing it")
}
