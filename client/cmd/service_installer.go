package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/kardianos/service"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openairproject/oap-ota/client/internal/updatemanager"
	"github.com/openairproject/oap-ota/util"
)

// Build service arguments for install
func buildServiceArguments() []string {
	args := []string{
		"service",
		"run",
		"--config",
		configPath,
		"--log-level",
		logLevel,
		"--log-file",
		logFile,
	}

	if metricsPort > 0 {
		args = append(args, "--"+metricsPortFlag, strconv.Itoa(metricsPort))
	}

	return args
}

// Configure platform-specific service settings
func configurePlatformSpecificSettings(svcConfig *service.Config) {
	if runtime.GOOS == "linux" {
		// Respected only by systemd systems
		svcConfig.Dependencies = []string{"After=network-online.target", "Wants=network-online.target"}

		if logFile != "" && logFile != util.LogConsole {
			dir := filepath.Dir(logFile)
			if err := os.MkdirAll(dir, 0o750); err != nil {
				log.Warnf("failed to create log directory %s: %v", dir, err)
			} else {
				svcConfig.Option["LogOutput"] = true
				svcConfig.Option["LogDirectory"] = dir
			}
		}
	}

	if runtime.GOOS == "windows" {
		svcConfig.Option["OnFailure"] = "restart"
	}
}

// Create fully configured service config for install
func createServiceConfigForInstall() (*service.Config, error) {
	svcConfig, err := newSVCConfig()
	if err != nil {
		return nil, fmt.Errorf("create service config: %w", err)
	}

	svcConfig.Arguments = buildServiceArguments()
	configurePlatformSpecificSettings(svcConfig)

	return svcConfig, nil
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "installs oap-ota service",
	Long:  "Installs the oap-ota service. The effective configuration is written to --config so the service runs with it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SetOut(cmd.OutOrStdout())

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := updatemanager.WriteConfig(cmd.Context(), configPath, cfg); err != nil {
			return err
		}

		svcConfig, err := createServiceConfigForInstall()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		s, err := newSVC(newProgram(ctx, cancel), svcConfig)
		if err != nil {
			return err
		}

		if err := s.Install(); err != nil {
			return fmt.Errorf("install service: %w", err)
		}

		cmd.Println("oap-ota service has been installed")
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "uninstalls oap-ota service from system",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := controlService(cmd)
		if err != nil {
			return err
		}

		if err := s.Uninstall(); err != nil {
			return fmt.Errorf("uninstall service: %w", err)
		}

		cmd.Println("oap-ota service has been uninstalled")
		return nil
	},
}
