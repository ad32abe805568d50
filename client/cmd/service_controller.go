package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kardianos/service"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const stopTimeout = 10 * time.Second

var ErrGetServiceStatus = fmt.Errorf("failed to get service status")

func exitWithError(err error) {
	log.Errorf("update manager stopped: %v", err)
	os.Exit(1)
}

func (p *program) Start(svc service.Service) error {
	// Start should not block. Do the actual work async.
	log.Info("starting oap-ota service")

	cfg, err := loadConfig(serviceRunCmd)
	if err != nil {
		return err
	}
	m, cleanup, err := newManager(cfg, false)
	if err != nil {
		return err
	}

	go func() {
		defer close(p.done)
		defer cleanup()

		out, err := m.Run(p.ctx)
		if err != nil {
			p.fatal(err)
			return
		}
		log.Infof("update loop finished with outcome %s", out.Kind)
	}()
	return nil
}

func (p *program) Stop(svc service.Service) error {
	p.cancel()

	select {
	case <-p.done:
		log.Info("stopped oap-ota service")
	case <-time.After(stopTimeout):
		log.Warnf("update cycle still running after %s, stopping anyway", stopTimeout)
	}
	return nil
}

// controlService builds the service handle used by the control commands.
func controlService(cmd *cobra.Command) (service.Service, error) {
	cmd.SetOut(cmd.OutOrStdout())
	cfg, err := newSVCConfig()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	return newSVC(newProgram(ctx, cancel), cfg)
}

var serviceRunCmd = &cobra.Command{
	Use:   "run",
	Short: "runs oap-ota as service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		cfg, err := newSVCConfig()
		if err != nil {
			return err
		}
		s, err := newSVC(newProgram(ctx, cancel), cfg)
		if err != nil {
			return err
		}
		return s.Run()
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "starts oap-ota service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := controlService(cmd)
		if err != nil {
			return err
		}
		if err := s.Start(); err != nil {
			return fmt.Errorf("start service: %w", err)
		}
		cmd.Println("oap-ota service has been started")
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "stops oap-ota service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := controlService(cmd)
		if err != nil {
			return err
		}
		if err := s.Stop(); err != nil {
			return fmt.Errorf("stop service: %w", err)
		}
		cmd.Println("oap-ota service has been stopped")
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "restarts oap-ota service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := controlService(cmd)
		if err != nil {
			return err
		}
		if err := s.Restart(); err != nil {
			return fmt.Errorf("restart service: %w", err)
		}
		cmd.Println("oap-ota service has been restarted")
		return nil
	},
}

var svcStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "shows oap-ota service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := controlService(cmd)
		if err != nil {
			return err
		}

		status, err := s.Status()
		if err != nil && !errors.Is(err, service.ErrNotInstalled) {
			return fmt.Errorf("%w: %w", ErrGetServiceStatus, err)
		}

		var statusText string
		switch status {
		case service.StatusRunning:
			statusText = "Running"
		case service.StatusStopped:
			statusText = "Stopped"
		default:
			statusText = "Not installed"
		}

		cmd.Printf("oap-ota service status: %s\n", statusText)
		return nil
	},
}
