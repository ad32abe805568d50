package cmd

import (
	"context"
	"crypto/x509"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openairproject/oap-ota/client/internal/updatemanager"
	"github.com/openairproject/oap-ota/client/internal/updatemanager/result"
	"github.com/openairproject/oap-ota/client/internal/updatemanager/storage"
	"github.com/openairproject/oap-ota/client/internal/updatemanager/transport"
	"github.com/openairproject/oap-ota/shared/metrics"
	"github.com/openairproject/oap-ota/util"
)

const (
	hostFlag            = "host"
	basePathFlag        = "base-path"
	minVersionFlag      = "min-version"
	autoCommitFlag      = "auto-commit"
	pollIntervalFlag    = "poll-interval"
	targetPartitionFlag = "target-partition"
	partitionDirFlag    = "partition-dir"
	partitionsFlag      = "partitions"
	caCertFlag          = "ca-cert"
	stateDirFlag        = "state-dir"
	metricsPortFlag     = "metrics-port"
)

var (
	configPath        string
	defaultConfigPath string
	logLevel          string
	defaultLogFile    string
	logFile           string
	host              string
	basePath          string
	minVersion        string
	autoCommit        bool
	pollInterval      time.Duration
	targetPartition   string
	partitionDir      string
	partitions        []string
	caCertFile        string
	stateDir          string
	metricsPort       int
	rootCmd           = &cobra.Command{
		Use:          "oap-ota",
		Short:        "OpenAirProject firmware update agent",
		Long:         "oap-ota polls a distribution point for newer firmware, verifies it and installs it into the inactive partition.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			util.SetFlagsFromEnvVars(cmd.Root())
			cmd.SetOut(cmd.OutOrStdout())
			return util.InitLog(logLevel, logFile)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultConfigPath = "/etc/oap-ota/config.json"
	defaultLogFile = "/var/log/oap-ota/oap-ota.log"
	if runtime.GOOS == "windows" {
		defaultConfigPath = os.Getenv("PROGRAMDATA") + "\\oap-ota\\config.json"
		defaultLogFile = os.Getenv("PROGRAMDATA") + "\\oap-ota\\oap-ota.log"
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "oap-ota config file location")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "sets oap-ota log level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", defaultLogFile, "sets oap-ota log path. If console is specified the log will be output to stderr")
	rootCmd.PersistentFlags().StringVar(&host, hostFlag, "", "distribution point [http|https]://host[:port]")
	rootCmd.PersistentFlags().StringVar(&basePath, basePathFlag, "/", "path on the distribution point holding index.txt and the images")
	rootCmd.PersistentFlags().StringVar(&minVersion, minVersionFlag, "", "only install images newer than this version (default: running firmware version)")
	rootCmd.PersistentFlags().BoolVar(&autoCommit, autoCommitFlag, true, "activate a verified image and restart the device")
	rootCmd.PersistentFlags().DurationVar(&pollInterval, pollIntervalFlag, updatemanager.DefaultPollInterval, "time between update checks, 0 runs a single check")
	rootCmd.PersistentFlags().StringVar(&targetPartition, targetPartitionFlag, "", "always write updates to this partition")
	rootCmd.PersistentFlags().StringVar(&partitionDir, partitionDirFlag, updatemanager.DefaultPartitionDir, "directory holding the partition images")
	rootCmd.PersistentFlags().StringSliceVar(&partitions, partitionsFlag, storage.DefaultPartitions, "partition labels in boot order")
	rootCmd.PersistentFlags().StringVar(&caCertFile, caCertFlag, "", "PEM bundle trusted for https distribution points instead of the built-in roots")
	rootCmd.PersistentFlags().StringVar(&stateDir, stateDirFlag, updatemanager.DefaultStateDir, "directory for the cycle result file")
	rootCmd.PersistentFlags().IntVar(&metricsPort, metricsPortFlag, 0, "serve prometheus metrics on this port, 0 disables metrics")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// SetupCloseHandler handles SIGTERM signal and exits with success
func SetupCloseHandler(ctx context.Context, cancel context.CancelFunc) {
	termCh := make(chan os.Signal, 1)
	signal.Notify(termCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		done := ctx.Done()
		select {
		case <-done:
		case <-termCh:
		}

		log.Info("shutdown signal received")
		cancel()
	}()
}

// configInput collects the flags set on the command line or through the
// environment. Unset flags leave the config file value in place.
func configInput(cmd *cobra.Command) updatemanager.ConfigInput {
	var input updatemanager.ConfigInput
	changed := func(name string) bool {
		f := cmd.Flag(name)
		return f != nil && f.Changed
	}

	if changed(hostFlag) {
		input.Host = &host
	}
	if changed(basePathFlag) {
		input.BasePath = &basePath
	}
	if changed(minVersionFlag) {
		input.MinimumVersion = &minVersion
	}
	if changed(autoCommitFlag) {
		input.AutoCommit = &autoCommit
	}
	if changed(pollIntervalFlag) {
		input.PollInterval = &pollInterval
	}
	if changed(targetPartitionFlag) {
		input.TargetPartition = &targetPartition
	}
	if changed(partitionDirFlag) {
		input.PartitionDir = &partitionDir
	}
	if changed(partitionsFlag) {
		input.Partitions = partitions
	}
	if changed(caCertFlag) {
		input.CACertFile = &caCertFile
	}
	if changed(stateDirFlag) {
		input.StateDir = &stateDir
	}
	return input
}

func loadConfig(cmd *cobra.Command) (*updatemanager.Config, error) {
	cfg, err := updatemanager.NewConfig(configPath, configInput(cmd))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newTransport(cfg *updatemanager.Config) (*transport.HTTPTransport, error) {
	var pool *x509.CertPool
	if cfg.CACertFile != "" {
		p, err := transport.LoadCertPool(cfg.CACertFile)
		if err != nil {
			return nil, err
		}
		pool = p
	}
	return transport.NewHTTPTransport(cfg.Host, pool)
}

// newManager wires the update manager for cfg. The returned function
// releases the metrics server.
func newManager(cfg *updatemanager.Config, dryRun bool) (*updatemanager.Manager, func(), error) {
	tr, err := newTransport(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create transport: %w", err)
	}

	var backend storage.Backend
	if !dryRun {
		fb, err := storage.NewFileBackend(cfg.PartitionDir, cfg.Partitions, storage.SystemRestarter{})
		if err != nil {
			return nil, nil, fmt.Errorf("open partitions: %w", err)
		}
		backend = fb
	}

	m, err := updatemanager.NewManager(cfg, tr, backend)
	if err != nil {
		return nil, nil, err
	}
	m.WithConnectivity(updatemanager.NewDialConnectivity(tr.DialAddress())).
		WithResultHandler(result.NewHandler(cfg.StateDir))
	if dryRun {
		m.WithDryRun()
	}

	cleanup := func() {}
	if metricsPort > 0 {
		srv, err := metrics.NewServer(metricsPort, "")
		if err != nil {
			return nil, nil, fmt.Errorf("create metrics server: %w", err)
		}
		instruments, err := updatemanager.NewMetrics(srv.Meter)
		if err != nil {
			return nil, nil, fmt.Errorf("create metrics: %w", err)
		}
		m.WithMetrics(instruments)
		srv.Start()

		cleanup = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warnf("failed to stop metrics server: %v", err)
			}
		}
	}

	return m, cleanup, nil
}
