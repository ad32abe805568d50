package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openairproject/oap-ota/client/internal/updatemanager/result"
)

var (
	statusWait    bool
	statusTimeout time.Duration
	statusClear   bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the result of the last update check",
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := result.NewHandler(resolveStateDir(cmd))

		if statusClear {
			if err := handler.Cleanup(); err != nil {
				return err
			}
			cmd.Println("Update check result cleared")
			return nil
		}

		var (
			r   result.Result
			err error
		)
		if statusWait {
			ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
			defer cancel()
			r, err = handler.Watch(ctx, time.Now())
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("no update check finished within %s", statusTimeout)
			}
		} else {
			r, err = handler.Read()
			if errors.Is(err, os.ErrNotExist) {
				cmd.Println("No update check has run yet")
				return nil
			}
		}
		if err != nil {
			return err
		}

		printResult(cmd, r)
		return nil
	},
}

// resolveStateDir falls back to the flag value when the config is unusable,
// status only needs to find the result file.
func resolveStateDir(cmd *cobra.Command) string {
	if cmd.Flag(stateDirFlag).Changed {
		return stateDir
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		log.Debugf("using default state dir: %v", err)
		return stateDir
	}
	return cfg.StateDir
}

func printResult(cmd *cobra.Command, r result.Result) {
	cmd.Printf("Outcome: %s\n", r.Outcome)
	if r.CycleID != "" {
		cmd.Printf("Cycle: %s\n", r.CycleID)
	}
	cmd.Printf("Checked at: %s\n", r.ExecutedAt.Local().Format(time.RFC3339))
	cmd.Printf("Minimum version: %s\n", r.Version)
	if r.TargetVersion != "" {
		cmd.Printf("Remote version: %s\n", r.TargetVersion)
	}
	if r.Partition != "" {
		cmd.Printf("Partition: %s\n", r.Partition)
	}
	if r.Error != "" {
		cmd.Printf("Error: %s\n", r.Error)
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusWait, "wait", false, "wait for the next update check to finish")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 2*time.Hour, "how long --wait waits")
	statusCmd.Flags().BoolVar(&statusClear, "clear", false, "remove the stored result of the last update check")
}
