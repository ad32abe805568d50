package updatemanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openairproject/oap-ota/client/internal/updatemanager/storage"
	"github.com/openairproject/oap-ota/util"
	"github.com/openairproject/oap-ota/version"
)

const (
	DefaultPollInterval        = time.Hour
	DefaultConnectivityTimeout = 30 * time.Second
	DefaultStateDir            = "/var/lib/oap-ota"
	DefaultPartitionDir        = "/var/lib/oap-ota/partitions"
)

// Duration is a time.Duration stored as "1h30m" in the config file. Plain
// numbers are read as seconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		d.Duration = parsed
		return nil
	}

	secs, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	d.Duration = time.Duration(secs) * time.Second
	return nil
}

// Config holds the update manager settings. It is built once by NewConfig
// and not modified afterwards.
type Config struct {
	// Host is the distribution point, e.g. https://ota.example.org
	Host string
	// BasePath is the directory holding index.txt and the images
	BasePath string
	// MinimumVersion gates updates; empty means the running firmware version
	MinimumVersion string
	// AutoCommit activates and reboots into a verified image
	AutoCommit bool
	// PollInterval between cycles; zero or negative runs a single cycle
	PollInterval Duration
	// TargetPartition pins the update partition instead of picking the next one
	TargetPartition string `json:",omitempty"`

	ConnectivityTimeout Duration
	CACertFile          string `json:",omitempty"`
	PartitionDir        string
	Partitions          []string
	StateDir            string
}

// ConfigInput carries values that override the config file. Nil fields are
// left untouched.
type ConfigInput struct {
	Host                *string
	BasePath            *string
	MinimumVersion      *string
	AutoCommit          *bool
	PollInterval        *time.Duration
	TargetPartition     *string
	ConnectivityTimeout *time.Duration
	CACertFile          *string
	PartitionDir        *string
	Partitions          []string
	StateDir            *string
}

func defaultConfig() *Config {
	return &Config{
		BasePath:            "/",
		AutoCommit:          true,
		PollInterval:        Duration{DefaultPollInterval},
		ConnectivityTimeout: Duration{DefaultConnectivityTimeout},
		PartitionDir:        DefaultPartitionDir,
		Partitions:          slices.Clone(storage.DefaultPartitions),
		StateDir:            DefaultStateDir,
	}
}

// NewConfig reads configPath when it exists, applies input on top and
// validates the result. An empty configPath skips the file.
func NewConfig(configPath string, input ConfigInput) (*Config, error) {
	cfg := defaultConfig()

	switch {
	case configPath == "":
	case util.FileExists(configPath):
		if _, err := util.ReadJson(configPath, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	default:
		log.Debugf("config file %s not found, using defaults", configPath)
	}

	cfg.apply(input)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BasePath = path.Clean(cfg.BasePath)
	return cfg, nil
}

func (c *Config) apply(input ConfigInput) {
	if input.Host != nil {
		c.Host = *input.Host
	}
	if input.BasePath != nil {
		c.BasePath = *input.BasePath
	}
	if input.MinimumVersion != nil {
		c.MinimumVersion = *input.MinimumVersion
	}
	if input.AutoCommit != nil {
		c.AutoCommit = *input.AutoCommit
	}
	if input.PollInterval != nil {
		c.PollInterval = Duration{*input.PollInterval}
	}
	if input.TargetPartition != nil {
		c.TargetPartition = *input.TargetPartition
	}
	if input.ConnectivityTimeout != nil {
		c.ConnectivityTimeout = Duration{*input.ConnectivityTimeout}
	}
	if input.CACertFile != nil {
		c.CACertFile = *input.CACertFile
	}
	if input.PartitionDir != nil {
		c.PartitionDir = *input.PartitionDir
	}
	if len(input.Partitions) > 0 {
		c.Partitions = slices.Clone(input.Partitions)
	}
	if input.StateDir != nil {
		c.StateDir = *input.StateDir
	}
}

// Validate checks the settings needed to run a cycle.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("distribution host is not configured")
	}
	u, err := url.Parse(c.Host)
	if err != nil {
		return fmt.Errorf("invalid host %q: %w", c.Host, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid host %q: expected http(s)://host[:port]", c.Host)
	}

	if !path.IsAbs(c.BasePath) {
		return fmt.Errorf("base path %q must be absolute", c.BasePath)
	}

	if c.MinimumVersion != "" {
		if _, err := version.Parse(c.MinimumVersion); err != nil {
			return fmt.Errorf("invalid minimum version: %w", err)
		}
	}

	if c.TargetPartition != "" && !slices.Contains(c.Partitions, c.TargetPartition) {
		return fmt.Errorf("target partition %q is not one of %v", c.TargetPartition, c.Partitions)
	}
	if c.ConnectivityTimeout.Duration <= 0 {
		return errors.New("connectivity timeout must be positive")
	}
	return nil
}

// RunOnce reports whether only a single cycle should be executed.
func (c *Config) RunOnce() bool {
	return c.PollInterval.Duration <= 0
}

// Minimum returns the version a remote image has to exceed.
func (c *Config) Minimum() (version.Version, error) {
	if c.MinimumVersion == "" {
		return version.Running()
	}
	return version.Parse(c.MinimumVersion)
}

// WriteConfig stores cfg at configPath.
func WriteConfig(ctx context.Context, configPath string, cfg *Config) error {
	if err := util.WriteJson(ctx, configPath, cfg); err != nil {
		return fmt.Errorf("write config %s: %w", configPath, err)
	}
	return nil
}
