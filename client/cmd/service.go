package cmd

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the oap-ota system service",
}

var (
	serviceName    string
	serviceEnvVars []string
)

// program runs the update loop under the service manager.
type program struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	// fatal is called when the update loop cannot continue
	fatal func(err error)
}

func init() {
	defaultServiceName := "oap-ota"
	if runtime.GOOS == "windows" {
		defaultServiceName = "OapOta"
	}

	serviceCmd.AddCommand(serviceRunCmd, startCmd, stopCmd, restartCmd, svcStatusCmd, installCmd, uninstallCmd)

	rootCmd.PersistentFlags().StringVarP(&serviceName, "service", "s", defaultServiceName, "oap-ota system service name")
	installCmd.Flags().StringSliceVar(&serviceEnvVars, "service-env", nil,
		`Sets extra environment variables for the service. `+
			`You can specify a comma-separated list of KEY=VALUE pairs. `+
			`E.g. --service-env OAP_LOG_LEVEL=debug,CUSTOM_VAR=value`)

	rootCmd.AddCommand(serviceCmd)
}

func newProgram(ctx context.Context, cancel context.CancelFunc) *program {
	return &program{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		fatal:  exitWithError,
	}
}

func newSVCConfig() (*service.Config, error) {
	config := &service.Config{
		Name:        serviceName,
		DisplayName: "OpenAirProject OTA",
		Description: "OpenAirProject firmware update agent",
		Option:      make(service.KeyValue),
		EnvVars:     make(map[string]string),
	}

	if len(serviceEnvVars) > 0 {
		extraEnvs, err := parseServiceEnvVars(serviceEnvVars)
		if err != nil {
			return nil, fmt.Errorf("parse service environment variables: %w", err)
		}
		config.EnvVars = extraEnvs
	}

	return config, nil
}

func newSVC(prg *program, conf *service.Config) (service.Service, error) {
	return service.New(prg, conf)
}

func parseServiceEnvVars(envVars []string) (map[string]string, error) {
	envMap := make(map[string]string)

	for _, env := range envVars {
		if env == "" {
			continue
		}

		key, value, ok := strings.Cut(env, "=")
		if !ok {
			return nil, fmt.Errorf("invalid environment variable format: %s (expected KEY=VALUE)", env)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("empty environment variable key in: %s", env)
		}

		envMap[key] = strings.TrimSpace(value)
	}

	return envMap, nil
}
