package updatemanager

import (
	"errors"

	"github.com/openairproject/oap-ota/client/internal/updatemanager/storage"
	"github.com/openairproject/oap-ota/version"
)

var (
	ErrNotConnected       = errors.New("network not connected")
	ErrNoUpdateAvailable  = errors.New("no update available")
	ErrStorageBeginFailed = errors.New("failed to begin partition write")
	ErrStorageEndFailed   = errors.New("failed to finish partition write")
	ErrCommitFailed       = errors.New("failed to set boot partition")
	ErrRestartFailed      = errors.New("failed to restart system")

	// ErrNoStorageTarget stops the update loop. There is nothing a later
	// cycle could do differently.
	ErrNoStorageTarget = storage.ErrNoStorageTarget
)

// State is the phase the manager is currently in.
type State int

const (
	StateIdle State = iota
	StateCheckingConnectivity
	StateFetchingManifest
	StateGatingVersion
	StateBeginningWrite
	StateDownloading
	StateEndingWrite
	StateCommitting
	StateRebooting
	StateSleeping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCheckingConnectivity:
		return "checking-connectivity"
	case StateFetchingManifest:
		return "fetching-manifest"
	case StateGatingVersion:
		return "gating-version"
	case StateBeginningWrite:
		return "beginning-write"
	case StateDownloading:
		return "downloading"
	case StateEndingWrite:
		return "ending-write"
	case StateCommitting:
		return "committing"
	case StateRebooting:
		return "rebooting"
	case StateSleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

type OutcomeKind int

const (
	OutcomeFailed OutcomeKind = iota
	OutcomeUpToDate
	OutcomeUpdatedRebooting
	OutcomeUpdatedIgnored
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUpToDate:
		return "up-to-date"
	case OutcomeUpdatedRebooting:
		return "updated-rebooting"
	case OutcomeUpdatedIgnored:
		return "updated-ignored"
	default:
		return "failed"
	}
}

// CycleOutcome describes how a single update cycle ended.
type CycleOutcome struct {
	Kind OutcomeKind
	// Current is the minimum version the remote image was gated against
	Current version.Version
	// Remote is zero when the manifest could not be fetched
	Remote    version.Version
	Partition string
	// Err is set for OutcomeFailed, and carries ErrNoUpdateAvailable for
	// OutcomeUpToDate
	Err error
}

func (o CycleOutcome) fail(err error) CycleOutcome {
	o.Kind = OutcomeFailed
	o.Err = err
	return o
}
