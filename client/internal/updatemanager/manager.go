package updatemanager

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/openairproject/oap-ota/client/internal/updatemanager/downloader"
	"github.com/openairproject/oap-ota/client/internal/updatemanager/manifest"
	"github.com/openairproject/oap-ota/client/internal/updatemanager/result"
	"github.com/openairproject/oap-ota/client/internal/updatemanager/storage"
	"github.com/openairproject/oap-ota/client/internal/updatemanager/transport"
	"github.com/openairproject/oap-ota/version"
)

// stagedImage is an image written to a partition without activating it.
type stagedImage struct {
	partition string
	record    manifest.Record
}

// Manager polls the distribution point and installs newer firmware images
// into the storage backend.
type Manager struct {
	cfg          *Config
	minimum      version.Version
	fetcher      *manifest.Fetcher
	downloader   *downloader.Downloader
	backend      storage.Backend
	connectivity Connectivity
	results      *result.Handler
	metrics      *Metrics
	dryRun       bool

	// target is resolved on first use and kept for the process lifetime
	target storage.Partition
	staged *stagedImage
	state  atomic.Int32

	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a manager for cfg. backend may be nil only for a dry run.
func NewManager(cfg *Config, t transport.Transport, backend storage.Backend) (*Manager, error) {
	minimum, err := cfg.Minimum()
	if err != nil {
		return nil, fmt.Errorf("minimum version: %w", err)
	}

	return &Manager{
		cfg:          cfg,
		minimum:      minimum,
		fetcher:      manifest.NewFetcher(t, cfg.BasePath),
		downloader:   downloader.New(t, cfg.BasePath),
		backend:      backend,
		connectivity: connectedAlways{},
		metrics:      newNoopMetrics(),
		sleep:        sleepWithContext,
	}, nil
}

func (m *Manager) WithConnectivity(c Connectivity) *Manager {
	m.connectivity = c
	return m
}

func (m *Manager) WithResultHandler(h *result.Handler) *Manager {
	m.results = h
	return m
}

func (m *Manager) WithMetrics(metrics *Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithDryRun makes cycles download and verify new images without touching
// the storage backend.
func (m *Manager) WithDryRun() *Manager {
	m.dryRun = true
	return m
}

// State returns the phase the manager is in.
func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	if State(m.state.Swap(int32(s))) != s {
		log.WithField("state", s).Debug("update manager state changed")
	}
}

// Run executes update cycles until an image was activated, ctx is cancelled
// during the sleep between cycles, or a cycle fails fatally. A non-positive
// poll interval runs a single cycle.
func (m *Manager) Run(ctx context.Context) (CycleOutcome, error) {
	m.logRunningPartition()

	for {
		out, err := m.RunCycle(ctx)
		if err != nil {
			return out, err
		}
		if out.Kind == OutcomeUpdatedRebooting || m.cfg.RunOnce() {
			return out, nil
		}

		m.setState(StateSleeping)
		log.Debugf("next update check in %s", m.cfg.PollInterval.Duration)
		if err := m.sleep(ctx, m.cfg.PollInterval.Duration); err != nil {
			log.Infof("update loop stopped: %v", err)
			m.setState(StateIdle)
			return out, nil
		}
	}
}

// RunCycle performs one update check. The returned error is only set for
// failures that make further cycles pointless or unsafe: no update partition,
// or a committed image whose restart failed. All other failures are carried
// by the outcome. Cancelling ctx does not interrupt a running cycle.
func (m *Manager) RunCycle(ctx context.Context) (CycleOutcome, error) {
	ctx = context.WithoutCancel(ctx)
	cycleID := uuid.NewString()
	log.Debugf("starting update cycle %s", cycleID)

	out, err := m.cycle(ctx, cycleID)
	m.report(ctx, cycleID, out)
	m.setState(StateIdle)
	return out, err
}

func (m *Manager) cycle(ctx context.Context, cycleID string) (CycleOutcome, error) {
	out := CycleOutcome{Current: m.minimum}

	m.setState(StateCheckingConnectivity)
	if err := m.connectivity.WaitConnected(ctx, m.cfg.ConnectivityTimeout.Duration); err != nil {
		return out.fail(fmt.Errorf("%w: %w", ErrNotConnected, err)), nil
	}

	m.setState(StateFetchingManifest)
	rec, err := m.fetcher.Fetch(ctx)
	if err != nil {
		return out.fail(fmt.Errorf("fetch manifest: %w", err)), nil
	}
	out.Remote = rec.Version

	m.setState(StateGatingVersion)
	if !rec.Version.GreaterThan(m.minimum) {
		out.Kind = OutcomeUpToDate
		out.Err = ErrNoUpdateAvailable
		return out, nil
	}
	log.Warnf("new firmware available: %s (current minimum %s)", rec.Version, m.minimum)

	if m.dryRun {
		return m.verifyOnly(ctx, out, rec), nil
	}

	target, err := m.resolveTarget()
	if err != nil {
		out = out.fail(err)
		if errors.Is(err, ErrNoStorageTarget) {
			return out, err
		}
		return out, nil
	}
	out.Partition = target.Label

	if m.staged != nil && m.staged.partition == target.Label && m.staged.record == rec {
		log.Infof("firmware %s already written to partition %s, not activating", rec.Version, target)
		out.Kind = OutcomeUpdatedIgnored
		return out, nil
	}

	m.setState(StateBeginningWrite)
	log.Infof("writing firmware %s to partition %s at %s", rec.Version, target, target.Path)
	session, err := m.backend.Begin(target)
	if err != nil {
		return out.fail(fmt.Errorf("%w: %w", ErrStorageBeginFailed, err)), nil
	}
	// Begin erased the partition
	m.staged = nil

	m.setState(StateDownloading)
	res, err := m.downloader.Download(ctx, rec, session)
	if err != nil {
		if abortErr := session.Abort(); abortErr != nil {
			log.Warnf("failed to abort write to partition %s: %v", target, abortErr)
		}
		return out.fail(fmt.Errorf("download firmware: %w", err)), nil
	}
	m.metrics.recordDownload(ctx, res)
	log.Infof("firmware %s verified, %d bytes in %s", rec.Version, res.BytesWritten, res.Duration.Round(time.Millisecond))

	m.setState(StateEndingWrite)
	if err := session.End(); err != nil {
		return out.fail(fmt.Errorf("%w: %w", ErrStorageEndFailed, err)), nil
	}

	if !m.cfg.AutoCommit {
		log.Warnf("firmware %s written to partition %s, auto commit is disabled", rec.Version, target)
		m.staged = &stagedImage{partition: target.Label, record: rec}
		out.Kind = OutcomeUpdatedIgnored
		return out, nil
	}

	m.setState(StateCommitting)
	if err := m.backend.SetBootTarget(target); err != nil {
		return out.fail(fmt.Errorf("%w: %w", ErrCommitFailed, err)), nil
	}

	m.setState(StateRebooting)
	out.Kind = OutcomeUpdatedRebooting
	// Restart does not return on success
	m.writeResult(ctx, cycleID, out)
	log.Warnf("boot partition set to %s, restarting", target)
	if err := m.backend.Restart(); err != nil {
		// target is now the boot partition, another cycle must not erase it
		err = fmt.Errorf("%w: %w", ErrRestartFailed, err)
		return out.fail(err), err
	}
	return out, nil
}

func (m *Manager) verifyOnly(ctx context.Context, out CycleOutcome, rec manifest.Record) CycleOutcome {
	m.setState(StateDownloading)
	res, err := m.downloader.Download(ctx, rec, nil)
	if err != nil {
		return out.fail(fmt.Errorf("download firmware: %w", err))
	}
	m.metrics.recordDownload(ctx, res)
	log.Infof("dry run: firmware %s verified, %d bytes, digest %s", rec.Version, res.Size, res.Digest)
	out.Kind = OutcomeUpdatedIgnored
	return out
}

func (m *Manager) resolveTarget() (storage.Partition, error) {
	if !m.target.IsZero() {
		return m.target, nil
	}

	var (
		target storage.Partition
		err    error
	)
	if m.cfg.TargetPartition != "" {
		target, err = m.backend.Partition(m.cfg.TargetPartition)
	} else {
		target, err = m.backend.NextUpdateTarget()
	}
	if err != nil {
		if errors.Is(err, storage.ErrNoStorageTarget) {
			return storage.Partition{}, err
		}
		return storage.Partition{}, fmt.Errorf("resolve update partition: %w", err)
	}

	log.Infof("update partition: %s", target)
	m.target = target
	return target, nil
}

func (m *Manager) logRunningPartition() {
	if m.backend == nil {
		return
	}
	running, err := m.backend.RunningPartition()
	if err != nil {
		log.Warnf("failed to determine running partition: %v", err)
		return
	}
	log.Infof("running partition: %s, firmware %s", running, version.FirmwareVersion())
}

func (m *Manager) report(ctx context.Context, cycleID string, out CycleOutcome) {
	m.metrics.countCycle(ctx, out.Kind)

	entry := log.WithFields(log.Fields{
		"cycle":   cycleID,
		"outcome": out.Kind,
		"minimum": out.Current,
	})
	if out.Remote != (version.Version{}) {
		entry = entry.WithField("remote", out.Remote)
	}

	switch out.Kind {
	case OutcomeFailed:
		entry.Errorf("update cycle failed: %v", out.Err)
	case OutcomeUpToDate:
		entry.Debug("firmware is up to date")
	default:
		entry.Info("update cycle finished")
	}

	// written by cycle before the restart
	if out.Kind != OutcomeUpdatedRebooting {
		m.writeResult(ctx, cycleID, out)
	}
}

func (m *Manager) writeResult(ctx context.Context, cycleID string, out CycleOutcome) {
	if m.results == nil {
		return
	}

	r := result.Result{
		CycleID:    cycleID,
		Outcome:    out.Kind.String(),
		Version:    out.Current.String(),
		Partition:  out.Partition,
		ExecutedAt: time.Now().UTC(),
	}
	if out.Remote != (version.Version{}) {
		r.TargetVersion = out.Remote.String()
	}
	if out.Kind == OutcomeFailed && out.Err != nil {
		r.Error = out.Err.Error()
	}
	if err := m.results.Write(ctx, r); err != nil {
		log.Warnf("failed to store cycle result: %v", err)
	}
}

func sleepWithContext(ctx context.Context, duration time.Duration) error {
	select {
	case <-time.After(duration):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
